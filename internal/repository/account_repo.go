package repository

import (
	"campbank/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	FindByID(id uuid.UUID) (*model.Account, error)
	FindAll() ([]model.Account, error)
	SumPositiveBalances() (int64, error)
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db}
}

func (r *accountRepo) FindByID(id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) FindAll() ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.Preload("Participant").Order("opened_at ASC").Find(&accounts).Error
	return accounts, err
}

// SumPositiveBalances totals only the balances that can be paid out in cash.
// Computed as a separate query so it can serve as the independent side of the
// cash-plan cross-check.
func (r *accountRepo) SumPositiveBalances() (int64, error) {
	var total int64
	err := r.db.Model(&model.Account{}).
		Where("balance_cents > 0").
		Select("COALESCE(SUM(balance_cents), 0)").
		Scan(&total).Error
	return total, err
}
