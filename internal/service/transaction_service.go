package service

import (
	"fmt"
	"sync"

	"campbank/internal/model"
	"campbank/internal/repository"
	"campbank/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionService books purchases, deposits and withdrawals and performs
// the terminal checkout. Every operation resolves its entities first, then
// commits all writes in one database transaction, so balance, sold counters
// and the transaction log can never drift apart. A per-account lock
// serializes operations touching the same account; different accounts
// proceed independently.
type TransactionService interface {
	Purchase(participantCode, productCode string, quantity int64) (*model.Transaction, error)
	Deposit(participantName string, amountCents int64) (*model.Transaction, error)
	Withdraw(participantName string, amountCents int64) (*model.Transaction, error)
	Checkout(participantName string) (*CheckoutResult, error)
}

// CheckoutResult reports the settled balance and the cash to hand back.
type CheckoutResult struct {
	Participant  string          `json:"participant"`
	PaidOutCents int64           `json:"paid_out_cents"`
	Breakdown    money.Breakdown `json:"breakdown"`
}

type transactionService struct {
	db              *gorm.DB
	participantRepo repository.ParticipantRepository
	accountRepo     repository.AccountRepository
	productRepo     repository.ProductRepository
	locks           accountLocks
}

func NewTransactionService(
	db *gorm.DB,
	participantRepo repository.ParticipantRepository,
	accountRepo repository.AccountRepository,
	productRepo repository.ProductRepository,
) TransactionService {
	return &transactionService{
		db:              db,
		participantRepo: participantRepo,
		accountRepo:     accountRepo,
		productRepo:     productRepo,
	}
}

// Purchase books quantity units of a product against the wallet behind
// participantCode. The product code may be a primary code or an alias.
// No sufficiency check: a wallet may go negative and is settled at checkout.
func (s *transactionService) Purchase(participantCode, productCode string, quantity int64) (*model.Transaction, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity %d", ErrInvalidAmount, quantity)
	}

	// Resolve everything before opening the write transaction; scanning
	// happens out here, never while the store is held open.
	participant, err := s.participantRepo.FindByCode(participantCode)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, participantCode)
	}
	if participant.IsSentinel() {
		return nil, ErrBreakScanned
	}
	account := participant.Account
	if account == nil {
		return nil, fmt.Errorf("%w: %q has no account", ErrUnknownParticipant, participantCode)
	}
	if account.CheckedOut {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyCheckedOut, participant.Name)
	}
	product, err := s.productRepo.FindByCode(productCode)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownProduct, productCode)
	}

	costCents := product.PriceCents * quantity

	unlock := s.locks.lock(account.ID)
	defer unlock()

	transaction := &model.Transaction{
		AccountID:   account.ID,
		ProductID:   &product.ID,
		Kind:        model.KindPurchase,
		Quantity:    quantity,
		AmountCents: costCents,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Account{}).
			Where("id = ?", account.ID).
			Update("balance_cents", gorm.Expr("balance_cents - ?", costCents)).Error; err != nil {
			return err
		}
		return tx.Model(&model.Product{}).
			Where("id = ?", product.ID).
			Update("sold_count", gorm.Expr("sold_count + ?", quantity)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("book purchase: %w", err)
	}
	return transaction, nil
}

// Deposit adds funds to the named participant's wallet.
func (s *transactionService) Deposit(participantName string, amountCents int64) (*model.Transaction, error) {
	return s.adjust(participantName, amountCents, model.KindDeposit)
}

// Withdraw removes funds; it fails with ErrInsufficientFunds when the wallet
// does not cover the amount.
func (s *transactionService) Withdraw(participantName string, amountCents int64) (*model.Transaction, error) {
	return s.adjust(participantName, amountCents, model.KindWithdrawal)
}

func (s *transactionService) adjust(participantName string, amountCents int64, kind model.TransactionKind) (*model.Transaction, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, money.Format(amountCents))
	}
	account, err := s.accountByName(participantName)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(account.ID)
	defer unlock()

	// Re-read under the lock so the sufficiency check sees the latest balance.
	account, err = s.accountRepo.FindByID(account.ID)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if account.CheckedOut {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyCheckedOut, participantName)
	}
	if kind == model.KindWithdrawal && amountCents > account.BalanceCents {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			ErrInsufficientFunds, money.Format(account.BalanceCents), money.Format(amountCents))
	}

	transaction := &model.Transaction{
		AccountID:   account.ID,
		Kind:        kind,
		Quantity:    amountCents,
		AmountCents: amountCents,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return err
		}
		return tx.Model(&model.Account{}).
			Where("id = ?", account.ID).
			Update("balance_cents", gorm.Expr("balance_cents + ?", kind.SignedEffectCents(amountCents))).Error
	})
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", kind, err)
	}
	return transaction, nil
}

// Checkout is a one-way transition: it settles the wallet to zero, marks the
// account checked out and reports the denomination breakdown for the payout.
// The settlement itself is booked as a ledger row, so the balance invariant
// survives checkout. Repeating it fails with ErrAlreadyCheckedOut.
func (s *transactionService) Checkout(participantName string) (*CheckoutResult, error) {
	account, err := s.accountByName(participantName)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(account.ID)
	defer unlock()

	account, err = s.accountRepo.FindByID(account.ID)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if account.CheckedOut {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyCheckedOut, participantName)
	}

	payout := account.BalanceCents
	breakdown := money.NewBreakdown()
	if payout > 0 {
		breakdown, err = money.Split(payout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if payout != 0 {
			// A positive balance leaves as a withdrawal; a debt is
			// written off as a deposit. Either way the ledger stays
			// consistent with the zeroed balance.
			settlement := &model.Transaction{
				AccountID:   account.ID,
				Kind:        model.KindWithdrawal,
				Quantity:    payout,
				AmountCents: payout,
			}
			if payout < 0 {
				settlement.Kind = model.KindDeposit
				settlement.Quantity = -payout
				settlement.AmountCents = -payout
			}
			if err := tx.Create(settlement).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Account{}).
			Where("id = ?", account.ID).
			Updates(map[string]interface{}{
				"balance_cents": 0,
				"checked_out":   true,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	return &CheckoutResult{
		Participant:  participantName,
		PaidOutCents: payout,
		Breakdown:    breakdown,
	}, nil
}

func (s *transactionService) accountByName(participantName string) (*model.Account, error) {
	participant, err := s.participantRepo.FindByName(participantName)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, participantName)
	}
	if participant.Account == nil {
		return nil, fmt.Errorf("%w: %q has no account", ErrUnknownParticipant, participantName)
	}
	return participant.Account, nil
}

// accountLocks hands out one mutex per account ID.
type accountLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (l *accountLocks) lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lk, ok := l.locks[id]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[id] = lk
	}
	l.mu.Unlock()

	lk.Lock()
	return lk.Unlock
}
