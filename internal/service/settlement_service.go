package service

import (
	"fmt"

	"campbank/internal/repository"
	"campbank/pkg/money"
)

// SettlementService computes cash payouts. It is a read-only consumer of the
// ledger: nothing here mutates state.
type SettlementService interface {
	// PayoutPreview breaks a single wallet's balance into notes and coins.
	PayoutPreview(participantName string) (*Payout, error)
	// CashPlan aggregates the breakdown over all payable balances so the
	// cashier knows what the drawer must hold at the end of the event.
	CashPlan() (*CashPlan, error)
}

type Payout struct {
	Participant  string          `json:"participant"`
	BalanceCents int64           `json:"balance_cents"`
	Breakdown    money.Breakdown `json:"breakdown"`
}

type CashPlan struct {
	Accounts   int             `json:"accounts"`
	TotalCents int64           `json:"total_cents"`
	Breakdown  money.Breakdown `json:"breakdown"`
}

type settlementService struct {
	participantRepo repository.ParticipantRepository
	accountRepo     repository.AccountRepository
}

func NewSettlementService(
	participantRepo repository.ParticipantRepository,
	accountRepo repository.AccountRepository,
) SettlementService {
	return &settlementService{
		participantRepo: participantRepo,
		accountRepo:     accountRepo,
	}
}

func (s *settlementService) PayoutPreview(participantName string) (*Payout, error) {
	participant, err := s.participantRepo.FindByName(participantName)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, participantName)
	}
	if participant.Account == nil {
		return nil, fmt.Errorf("%w: %q has no account", ErrUnknownParticipant, participantName)
	}

	balance := participant.Account.BalanceCents
	breakdown, err := money.Split(balance)
	if err != nil {
		return nil, fmt.Errorf("%w: balance %s", ErrInvalidAmount, money.Format(balance))
	}
	return &Payout{
		Participant:  participantName,
		BalanceCents: balance,
		Breakdown:    breakdown,
	}, nil
}

func (s *settlementService) CashPlan() (*CashPlan, error) {
	accounts, err := s.accountRepo.FindAll()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	plan := &CashPlan{Breakdown: money.NewBreakdown()}
	for _, account := range accounts {
		if account.BalanceCents <= 0 {
			// Nothing to hand back; debts are settled separately.
			continue
		}
		breakdown, err := money.Split(account.BalanceCents)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		plan.Breakdown = plan.Breakdown.Add(breakdown)
		plan.Accounts++
	}
	plan.TotalCents = plan.Breakdown.Total()

	// The weighted sum of the plan must equal the independently queried
	// balance total. A mismatch means the ledger is corrupt and must not
	// be papered over.
	independentTotal, err := s.accountRepo.SumPositiveBalances()
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if plan.TotalCents != independentTotal {
		return nil, fmt.Errorf("%w: plan %s, balances %s",
			ErrCashPlanMismatch, money.Format(plan.TotalCents), money.Format(independentTotal))
	}
	return plan, nil
}
