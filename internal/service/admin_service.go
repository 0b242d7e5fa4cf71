package service

import (
	"fmt"
	"time"

	"campbank/internal/model"
	"campbank/internal/repository"
	"campbank/pkg/token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminService gates the destructive side of the ledger. Login exchanges the
// admin password for a short-lived confirmation token; deleting entities or
// resetting the ledger requires presenting that token again.
type AdminService interface {
	Login(password string) (string, error)
	DeleteParticipant(confirmToken, name string) error
	DeleteProduct(confirmToken, code string) error
	// Reset wipes the whole ledger and re-seeds the sentinel participant.
	// The pre-wipe snapshot is always taken first and returned, mirroring
	// the backup-before-delete rule for end-of-event teardown.
	Reset(confirmToken string) (*Snapshot, error)
}

type adminService struct {
	db              *gorm.DB
	participantRepo repository.ParticipantRepository
	productRepo     repository.ProductRepository
	exporter        ExportService
	passwordHash    string
	secret          []byte
	tokenTTL        time.Duration
}

func NewAdminService(
	db *gorm.DB,
	participantRepo repository.ParticipantRepository,
	productRepo repository.ProductRepository,
	exporter ExportService,
	passwordHash string,
	secret string,
	tokenTTL time.Duration,
) AdminService {
	return &adminService{
		db:              db,
		participantRepo: participantRepo,
		productRepo:     productRepo,
		exporter:        exporter,
		passwordHash:    passwordHash,
		secret:          []byte(secret),
		tokenTTL:        tokenTTL,
	}
}

func (s *adminService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	signed, err := token.Generate(s.secret, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// DeleteParticipant removes a participant and their account for good. The
// transaction log is kept as the audit trail of what the wallet did.
func (s *adminService) DeleteParticipant(confirmToken, name string) error {
	if err := s.authorize(confirmToken); err != nil {
		return err
	}

	participant, err := s.participantRepo.FindByName(name)
	if err != nil {
		return mapNotFound(err, ErrNotFound, name)
	}
	if participant.IsSentinel() {
		return fmt.Errorf("%w: %q", ErrReservedParticipant, name)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(&model.Account{}, "participant_id = ?", participant.ID).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.Participant{}, "id = ?", participant.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

// DeleteProduct retires a product by primary or alias code. Soft delete:
// historical transactions keep their reference and the code stays reserved.
func (s *adminService) DeleteProduct(confirmToken, code string) error {
	if err := s.authorize(confirmToken); err != nil {
		return err
	}

	product, err := s.productRepo.FindByCode(code)
	if err != nil {
		return mapNotFound(err, ErrNotFound, code)
	}
	if err := s.productRepo.SoftDelete(product.ID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *adminService) Reset(confirmToken string) (*Snapshot, error) {
	if err := s.authorize(confirmToken); err != nil {
		return nil, err
	}

	snapshot, err := s.exporter.BuildSnapshot()
	if err != nil {
		return nil, fmt.Errorf("backup before reset: %w", err)
	}

	// Children before parents so foreign keys never dangle mid-wipe.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.Transaction{},
			&model.ProductAlias{},
			&model.Account{},
			&model.Product{},
			&model.Participant{},
			&model.Setting{},
		} {
			if err := tx.Unscoped().Where("1 = 1").Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reset ledger: %w", err)
	}

	if err := s.participantRepo.EnsureSentinel(); err != nil {
		return nil, fmt.Errorf("reseed sentinel: %w", err)
	}
	return snapshot, nil
}

func (s *adminService) authorize(confirmToken string) error {
	if _, err := token.Validate(s.secret, confirmToken); err != nil {
		return err
	}
	return nil
}
