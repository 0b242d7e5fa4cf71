package repository

import (
	"iter"
	"time"

	"campbank/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	FindByAccount(accountID uuid.UUID) ([]model.Transaction, error)
	Stream(accountID uuid.UUID, batchSize int) iter.Seq2[model.Transaction, error]
	FindAll() ([]model.Transaction, error)
	SumEffect(accountID uuid.UUID) (int64, error)
	TotalSpent(accountID uuid.UUID, asOf time.Time) (int64, error)
	DistinctSpendDays(accountID uuid.UUID, asOf time.Time) (int64, error)
	SalesByProduct() ([]ProductSales, error)
}

// ProductSales is one row of the units-sold report.
type ProductSales struct {
	Description string `json:"description"`
	UnitsSold   int64  `json:"units_sold"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) FindByAccount(accountID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Preload("Product").
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error
	return transactions, err
}

// Stream yields an account's transactions newest first, fetching them in
// batches. Ranging over the returned sequence again re-issues the query from
// the top, so the sequence is restartable.
func (r *transactionRepo) Stream(accountID uuid.UUID, batchSize int) iter.Seq2[model.Transaction, error] {
	if batchSize <= 0 {
		batchSize = 100
	}
	return func(yield func(model.Transaction, error) bool) {
		offset := 0
		for {
			var batch []model.Transaction
			err := r.db.Where("account_id = ?", accountID).
				Order("created_at DESC, id DESC").
				Limit(batchSize).
				Offset(offset).
				Find(&batch).Error
			if err != nil {
				yield(model.Transaction{}, err)
				return
			}
			for _, t := range batch {
				if !yield(t, nil) {
					return
				}
			}
			if len(batch) < batchSize {
				return
			}
			offset += len(batch)
		}
	}
}

func (r *transactionRepo) FindAll() ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.Order("created_at ASC, id ASC").Find(&transactions).Error
	return transactions, err
}

// SumEffect returns the signed sum of all transaction effects on an account:
// deposits positive, purchases and withdrawals negative.
func (r *transactionRepo) SumEffect(accountID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.Model(&model.Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(CASE WHEN kind = ? THEN amount_cents ELSE -amount_cents END), 0)", model.KindDeposit).
		Scan(&total).Error
	return total, err
}

// TotalSpent sums the purchase amounts booked on an account up to asOf.
func (r *transactionRepo) TotalSpent(accountID uuid.UUID, asOf time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&model.Transaction{}).
		Where("account_id = ? AND kind = ? AND created_at <= ?", accountID, model.KindPurchase, asOf).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

// DistinctSpendDays counts the calendar days on which the account booked at
// least one purchase up to asOf.
func (r *transactionRepo) DistinctSpendDays(accountID uuid.UUID, asOf time.Time) (int64, error) {
	var days int64
	err := r.db.Model(&model.Transaction{}).
		Where("account_id = ? AND kind = ? AND created_at <= ?", accountID, model.KindPurchase, asOf).
		Select("COUNT(DISTINCT DATE(created_at))").
		Scan(&days).Error
	return days, err
}

// SalesByProduct aggregates units sold per product, best sellers first.
// Read-only reporting; never touches the write path.
func (r *transactionRepo) SalesByProduct() ([]ProductSales, error) {
	var results []ProductSales
	err := r.db.Model(&model.Transaction{}).
		Select("products.description AS description, SUM(transactions.quantity) AS units_sold").
		Joins("JOIN products ON products.id = transactions.product_id").
		Where("transactions.kind = ?", model.KindPurchase).
		Group("products.description").
		Order("units_sold DESC").
		Scan(&results).Error
	return results, err
}
