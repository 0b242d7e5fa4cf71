package service

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"campbank/internal/model"
	"campbank/internal/repository"
	"campbank/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// transactionStreamBatch is the page size used by ListTransactions.
const transactionStreamBatch = 100

// CreateParticipantRequest opens a wallet: the participant row, its account
// and the opening deposit transaction are committed as one unit.
type CreateParticipantRequest struct {
	Name                string `validate:"required,max=50"`
	Code                string `validate:"required,max=255"`
	InitialDepositCents int64  `validate:"gte=0"`
}

type CreateProductRequest struct {
	Description string `validate:"required,max=100"`
	Code        string `validate:"required,max=255"`
	PriceCents  int64  `validate:"gte=0"`
}

type UpdateParticipantRequest struct {
	Name string `validate:"required,max=50"`
	Code string `validate:"required,max=255"`
}

// LedgerService is the invariant-checked store surface: entity lifecycle and
// read operations. Balance mutations live in TransactionService.
type LedgerService interface {
	CreateParticipant(req CreateParticipantRequest) (*model.Participant, error)
	UpdateParticipant(name string, req UpdateParticipantRequest) (*model.Participant, error)
	CreateProduct(req CreateProductRequest) (*model.Product, error)
	AddProductAlias(productID uuid.UUID, code string) (*model.ProductAlias, error)
	UpdateProductPrice(code string, priceCents int64) (*model.Product, error)

	Balance(participantName string) (int64, error)
	ParticipantByCode(code string) (*model.Participant, error)
	ProductByCode(code string) (*model.Product, error)
	Participants() ([]model.Participant, error)
	CheckedOutParticipants() ([]model.Participant, error)
	Products() ([]model.Product, error)
	ListTransactions(participantName string) (iter.Seq2[model.Transaction, error], error)
	SalesStats() ([]repository.ProductSales, error)
}

type ledgerService struct {
	db              *gorm.DB
	participantRepo repository.ParticipantRepository
	accountRepo     repository.AccountRepository
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
}

func NewLedgerService(
	db *gorm.DB,
	participantRepo repository.ParticipantRepository,
	accountRepo repository.AccountRepository,
	productRepo repository.ProductRepository,
	transactionRepo repository.TransactionRepository,
) LedgerService {
	return &ledgerService{
		db:              db,
		participantRepo: participantRepo,
		accountRepo:     accountRepo,
		productRepo:     productRepo,
		transactionRepo: transactionRepo,
	}
}

func (s *ledgerService) CreateParticipant(req CreateParticipantRequest) (*model.Participant, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	taken, err := s.participantRepo.NameExists(req.Name)
	if err != nil {
		return nil, fmt.Errorf("check name: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, req.Name)
	}
	if err := s.checkCodeFree(req.Code); err != nil {
		return nil, err
	}

	participant := &model.Participant{Name: req.Name, Code: req.Code}

	// Participant, account and opening deposit commit or roll back together.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(participant).Error; err != nil {
			return err
		}
		account := &model.Account{
			ParticipantID:       participant.ID,
			InitialDepositCents: req.InitialDepositCents,
			BalanceCents:        req.InitialDepositCents,
			OpenedAt:            time.Now(),
		}
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		opening := &model.Transaction{
			AccountID:   account.ID,
			Kind:        model.KindDeposit,
			Quantity:    req.InitialDepositCents,
			AmountCents: req.InitialDepositCents,
		}
		if err := tx.Create(opening).Error; err != nil {
			return err
		}
		participant.Account = account
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	return participant, nil
}

func (s *ledgerService) UpdateParticipant(name string, req UpdateParticipantRequest) (*model.Participant, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	participant, err := s.participantRepo.FindByName(name)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, name)
	}
	if participant.IsSentinel() {
		return nil, fmt.Errorf("%w: %q", ErrReservedParticipant, name)
	}

	if req.Name != participant.Name {
		taken, err := s.participantRepo.NameExists(req.Name)
		if err != nil {
			return nil, fmt.Errorf("check name: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, req.Name)
		}
	}
	if req.Code != participant.Code {
		if err := s.checkCodeFree(req.Code); err != nil {
			return nil, err
		}
	}

	participant.Name = req.Name
	participant.Code = req.Code
	if err := s.participantRepo.Update(participant); err != nil {
		return nil, fmt.Errorf("update participant: %w", err)
	}
	return participant, nil
}

func (s *ledgerService) CreateProduct(req CreateProductRequest) (*model.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.checkCodeFree(req.Code); err != nil {
		return nil, err
	}

	product := &model.Product{
		Description: req.Description,
		Code:        req.Code,
		PriceCents:  req.PriceCents,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

func (s *ledgerService) AddProductAlias(productID uuid.UUID, code string) (*model.ProductAlias, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty alias code", ErrValidation)
	}
	if _, err := s.productRepo.FindByID(productID); err != nil {
		return nil, mapNotFound(err, ErrNotFound, productID.String())
	}
	if err := s.checkCodeFree(code); err != nil {
		return nil, err
	}

	alias := &model.ProductAlias{ProductID: productID, Code: code}
	if err := s.productRepo.CreateAlias(alias); err != nil {
		return nil, fmt.Errorf("create alias: %w", err)
	}
	return alias, nil
}

// UpdateProductPrice changes the unit price for future purchases only;
// booked transactions keep their snapshotted amounts.
func (s *ledgerService) UpdateProductPrice(code string, priceCents int64) (*model.Product, error) {
	if priceCents < 0 {
		return nil, fmt.Errorf("%w: price %d", ErrInvalidAmount, priceCents)
	}
	product, err := s.productRepo.FindByCode(code)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownProduct, code)
	}
	product.PriceCents = priceCents
	if err := s.productRepo.Update(product); err != nil {
		return nil, fmt.Errorf("update price: %w", err)
	}
	return product, nil
}

func (s *ledgerService) Balance(participantName string) (int64, error) {
	account, err := s.accountByName(participantName)
	if err != nil {
		return 0, err
	}
	return account.BalanceCents, nil
}

func (s *ledgerService) ParticipantByCode(code string) (*model.Participant, error) {
	participant, err := s.participantRepo.FindByCode(code)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, code)
	}
	return participant, nil
}

func (s *ledgerService) ProductByCode(code string) (*model.Product, error) {
	product, err := s.productRepo.FindByCode(code)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownProduct, code)
	}
	return product, nil
}

func (s *ledgerService) Participants() ([]model.Participant, error) {
	return s.participantRepo.FindAll()
}

func (s *ledgerService) CheckedOutParticipants() ([]model.Participant, error) {
	return s.participantRepo.FindCheckedOut()
}

func (s *ledgerService) Products() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

// ListTransactions returns the account's history newest first as a
// restartable sequence; each new range re-reads from the store.
func (s *ledgerService) ListTransactions(participantName string) (iter.Seq2[model.Transaction, error], error) {
	account, err := s.accountByName(participantName)
	if err != nil {
		return nil, err
	}
	return s.transactionRepo.Stream(account.ID, transactionStreamBatch), nil
}

func (s *ledgerService) SalesStats() ([]repository.ProductSales, error) {
	return s.transactionRepo.SalesByProduct()
}

// checkCodeFree enforces the shared scanner-code namespace across
// participants, product primary codes and alias codes.
func (s *ledgerService) checkCodeFree(code string) error {
	inUse, err := s.participantRepo.CodeExists(code)
	if err != nil {
		return fmt.Errorf("check code: %w", err)
	}
	if !inUse {
		inUse, err = s.productRepo.CodeExists(code)
		if err != nil {
			return fmt.Errorf("check code: %w", err)
		}
	}
	if inUse {
		return fmt.Errorf("%w: %q", ErrDuplicateCode, code)
	}
	return nil
}

func (s *ledgerService) accountByName(participantName string) (*model.Account, error) {
	participant, err := s.participantRepo.FindByName(participantName)
	if err != nil {
		return nil, mapNotFound(err, ErrUnknownParticipant, participantName)
	}
	if participant.Account == nil {
		return nil, fmt.Errorf("%w: %q has no account", ErrUnknownParticipant, participantName)
	}
	return participant.Account, nil
}

// mapNotFound turns a gorm record miss into the domain error kind; other
// store failures are passed through wrapped.
func mapNotFound(err error, kind error, subject string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %q", kind, subject)
	}
	return fmt.Errorf("store: %w", err)
}

// validateStruct runs struct-tag validation and reports the first violation.
func validateStruct(data interface{}) error {
	if errs := validator.ValidateStruct(data); len(errs) > 0 {
		first := errs[0]
		return fmt.Errorf("%w: field %s failed on %s", ErrValidation, first.FailedField, first.Tag)
	}
	return nil
}
