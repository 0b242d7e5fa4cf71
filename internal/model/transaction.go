package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindPurchase   TransactionKind = "Purchase"
	KindDeposit    TransactionKind = "Deposit"
	KindWithdrawal TransactionKind = "Withdrawal"
)

// SignedEffectCents returns the balance effect of a transaction of this kind
// with the given amount: deposits add, purchases and withdrawals subtract.
func (k TransactionKind) SignedEffectCents(amountCents int64) int64 {
	if k == KindDeposit {
		return amountCents
	}
	return -amountCents
}

// Transaction is one append-only ledger row. ProductID is nil for deposits
// and withdrawals. Quantity is the number of units for a purchase and the
// amount in cents for a deposit or withdrawal. AmountCents snapshots the
// monetary magnitude at booking time, so a later price edit cannot change
// what an old purchase cost.
type Transaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	AccountID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"account_id"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Kind        TransactionKind `gorm:"type:varchar(20);not null" json:"kind"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	AmountCents int64           `gorm:"not null" json:"amount_cents"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates the row ID. Transactions carry no UpdatedAt and no
// soft delete: once committed they are immutable.
func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// EffectCents is the signed balance effect of this row.
func (t *Transaction) EffectCents() int64 {
	return t.Kind.SignedEffectCents(t.AmountCents)
}
