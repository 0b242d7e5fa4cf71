package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"campbank/internal/model"
	"campbank/internal/repository"

	"gorm.io/gorm"
)

// ForecastService projects whether a wallet will last until the end of the
// event. Purely advisory: purchases are never blocked on it.
type ForecastService interface {
	Estimate(participantName string, asOf time.Time) (*Estimate, error)
	SetEventWindow(firstDay time.Time, durationDays int) error
	EventWindow() (firstDay time.Time, durationDays int, err error)
}

// Estimate is the spend projection for one participant as of a given date.
// RemainingDays may be negative once the event is over; the projection then
// goes to zero or negative accordingly.
type Estimate struct {
	Participant         string    `json:"participant"`
	AsOf                time.Time `json:"as_of"`
	TotalSpentCents     int64     `json:"total_spent_cents"`
	AvgDailySpendCents  int64     `json:"avg_daily_spend_cents"`
	RemainingDays       int       `json:"remaining_days"`
	ProjectedSpendCents int64     `json:"projected_spend_cents"`
	BalanceCents        int64     `json:"balance_cents"`
	ProjectedEndCents   int64     `json:"projected_end_cents"`
}

type forecastService struct {
	participantRepo repository.ParticipantRepository
	transactionRepo repository.TransactionRepository
	settingRepo     repository.SettingRepository
}

func NewForecastService(
	participantRepo repository.ParticipantRepository,
	transactionRepo repository.TransactionRepository,
	settingRepo repository.SettingRepository,
) ForecastService {
	return &forecastService{
		participantRepo: participantRepo,
		transactionRepo: transactionRepo,
		settingRepo:     settingRepo,
	}
}

func (s *forecastService) Estimate(participantName string, asOf time.Time) (*Estimate, error) {
	firstDay, durationDays, err := s.EventWindow()
	if err != nil {
		return nil, err
	}

	participant, err := s.participantRepo.FindByName(participantName)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, participantName)
	}
	if participant.Account == nil {
		return nil, fmt.Errorf("%w: %q has no account", ErrUnknownParticipant, participantName)
	}
	account := participant.Account

	totalSpent, err := s.transactionRepo.TotalSpent(account.ID, asOf)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	spendDays, err := s.transactionRepo.DistinctSpendDays(account.ID, asOf)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	lastDay := firstDay.AddDate(0, 0, durationDays)
	remainingDays := int(lastDay.Sub(truncateToDay(asOf)).Hours() / 24)

	var avgDaily, projected int64
	if spendDays > 0 {
		avgDaily = totalSpent / spendDays
		// Multiply before dividing to keep cent precision.
		projected = totalSpent * int64(remainingDays) / spendDays
	}

	return &Estimate{
		Participant:         participantName,
		AsOf:                asOf,
		TotalSpentCents:     totalSpent,
		AvgDailySpendCents:  avgDaily,
		RemainingDays:       remainingDays,
		ProjectedSpendCents: projected,
		BalanceCents:        account.BalanceCents,
		ProjectedEndCents:   account.BalanceCents - projected,
	}, nil
}

func (s *forecastService) SetEventWindow(firstDay time.Time, durationDays int) error {
	if durationDays < 0 {
		return fmt.Errorf("%w: duration %d days", ErrInvalidAmount, durationDays)
	}
	if err := s.settingRepo.Set(model.SettingFirstDay, firstDay.Format(model.SettingDateLayout)); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := s.settingRepo.Set(model.SettingDurationDays, strconv.Itoa(durationDays)); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func (s *forecastService) EventWindow() (time.Time, int, error) {
	firstDayRaw, err := s.settingRepo.Get(model.SettingFirstDay)
	if err != nil {
		return time.Time{}, 0, settingsError(err, model.SettingFirstDay)
	}
	durationRaw, err := s.settingRepo.Get(model.SettingDurationDays)
	if err != nil {
		return time.Time{}, 0, settingsError(err, model.SettingDurationDays)
	}

	firstDay, err := time.ParseInLocation(model.SettingDateLayout, firstDayRaw, time.Local)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: bad %s %q", ErrMissingSettings, model.SettingFirstDay, firstDayRaw)
	}
	durationDays, err := strconv.Atoi(durationRaw)
	if err != nil || durationDays < 0 {
		return time.Time{}, 0, fmt.Errorf("%w: bad %s %q", ErrMissingSettings, model.SettingDurationDays, durationRaw)
	}
	return firstDay, durationDays, nil
}

func settingsError(err error, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrMissingSettings, key)
	}
	return fmt.Errorf("store: %w", err)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
