package model

import (
	"time"

	"github.com/google/uuid"
)

// Account holds a participant's prepaid balance. All amounts are integer
// cents. The balance is only ever mutated through ledger operations, never
// written directly, so it always equals the signed sum of the account's
// transactions (the opening deposit is booked as the first of them).
type Account struct {
	BaseModel
	ParticipantID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"participant_id"`
	InitialDepositCents int64     `gorm:"not null" json:"initial_deposit_cents"`
	BalanceCents        int64     `gorm:"not null" json:"balance_cents"`
	OpenedAt            time.Time `gorm:"not null" json:"opened_at"`
	CheckedOut          bool      `gorm:"default:false;index" json:"checked_out"`

	Participant *Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
}
