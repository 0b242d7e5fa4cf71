package service

import "errors"

// Error kinds surfaced by the ledger. Callers match them with errors.Is;
// wrapped messages carry the offending name, code or amount.
var (
	ErrDuplicateCode       = errors.New("scanner code already in use")
	ErrDuplicateName       = errors.New("participant name already in use")
	ErrUnknownParticipant  = errors.New("participant not found")
	ErrUnknownProduct      = errors.New("product not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNotFound            = errors.New("not found")
	ErrMissingSettings     = errors.New("event settings not configured")
	ErrAlreadyCheckedOut   = errors.New("account already checked out")
	ErrBreakScanned        = errors.New("break code scanned")
	ErrCashPlanMismatch    = errors.New("cash plan does not match account balances")
	ErrReservedParticipant = errors.New("participant is reserved and cannot be deleted")
	ErrInvalidCredentials  = errors.New("invalid admin password")
	ErrValidation          = errors.New("validation failed")
)
