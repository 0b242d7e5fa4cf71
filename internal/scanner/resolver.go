// Package scanner turns already-decoded barcode text into ledger entities.
// How a code is physically acquired (camera, keyboard wedge, file) is the
// caller's business; this package only sees the text.
package scanner

import (
	"errors"

	"campbank/internal/model"
	"campbank/internal/repository"

	"gorm.io/gorm"
)

// Kind tells what a scanned code resolved to.
type Kind string

const (
	KindParticipant Kind = "participant"
	KindProduct     Kind = "product"
	KindBreak       Kind = "break"
	KindUnknown     Kind = "unknown"
)

// Resolution is the outcome of one scan. Exactly one of Participant/Product
// is set for their respective kinds.
type Resolution struct {
	Kind        Kind
	Participant *model.Participant
	Product     *model.Product
}

// Resolver maps raw scanner codes to ledger entities. An unknown code is a
// regular resolution, not an error; errors are reserved for store failures.
type Resolver interface {
	Resolve(rawCode string) (*Resolution, error)
}

type storeResolver struct {
	participantRepo repository.ParticipantRepository
	productRepo     repository.ProductRepository
}

// NewStoreResolver resolves codes against the ledger store, checking
// participants first, then product primary and alias codes.
func NewStoreResolver(
	participantRepo repository.ParticipantRepository,
	productRepo repository.ProductRepository,
) Resolver {
	return &storeResolver{
		participantRepo: participantRepo,
		productRepo:     productRepo,
	}
}

func (r *storeResolver) Resolve(rawCode string) (*Resolution, error) {
	participant, err := r.participantRepo.FindByCode(rawCode)
	if err == nil {
		if participant.IsSentinel() {
			return &Resolution{Kind: KindBreak, Participant: participant}, nil
		}
		return &Resolution{Kind: KindParticipant, Participant: participant}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product, err := r.productRepo.FindByCode(rawCode)
	if err == nil {
		return &Resolution{Kind: KindProduct, Product: product}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &Resolution{Kind: KindUnknown}, nil
}
