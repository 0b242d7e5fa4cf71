package model

import "github.com/google/uuid"

// Sentinel participant used as the scan-loop escape hatch. Scanning its code
// aborts a purchase sequence instead of booking anything. It is seeded at
// startup and can never be deleted or checked out.
var (
	SentinelParticipantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
)

const (
	SentinelName = "Break"
	SentinelCode = "Break"
)

// Participant is a wallet holder identified by a unique scanner code.
// Every participant owns exactly one account.
type Participant struct {
	BaseModel
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name" validate:"required,max=50"`
	Code string `gorm:"type:varchar(255);uniqueIndex;not null" json:"code" validate:"required,max=255"`

	Account *Account `gorm:"foreignKey:ParticipantID" json:"account,omitempty"`
}

// IsSentinel reports whether this is the reserved break participant.
func (p *Participant) IsSentinel() bool {
	return p.ID == SentinelParticipantID
}
