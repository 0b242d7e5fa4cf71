package repository

import (
	"errors"
	"time"

	"campbank/internal/model"

	"gorm.io/gorm"
)

type ParticipantRepository interface {
	Create(participant *model.Participant) error
	FindByName(name string) (*model.Participant, error)
	FindByCode(code string) (*model.Participant, error)
	FindAll() ([]model.Participant, error)
	FindCheckedOut() ([]model.Participant, error)
	Update(participant *model.Participant) error
	NameExists(name string) (bool, error)
	CodeExists(code string) (bool, error)
	EnsureSentinel() error
}

type participantRepo struct {
	db *gorm.DB
}

func NewParticipantRepo(db *gorm.DB) ParticipantRepository {
	return &participantRepo{db}
}

func (r *participantRepo) Create(participant *model.Participant) error {
	return r.db.Create(participant).Error
}

func (r *participantRepo) FindByName(name string) (*model.Participant, error) {
	var participant model.Participant
	if err := r.db.Preload("Account").Where("name = ?", name).First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) FindByCode(code string) (*model.Participant, error) {
	var participant model.Participant
	if err := r.db.Preload("Account").Where("code = ?", code).First(&participant).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) FindAll() ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.Preload("Account").Order("name ASC").Find(&participants).Error
	return participants, err
}

// FindCheckedOut lists settled participants straight from the persisted flag.
func (r *participantRepo) FindCheckedOut() ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.Preload("Account").
		Joins("JOIN accounts ON accounts.participant_id = participants.id").
		Where("accounts.checked_out = ?", true).
		Order("participants.name ASC").
		Find(&participants).Error
	return participants, err
}

func (r *participantRepo) Update(participant *model.Participant) error {
	return r.db.Save(participant).Error
}

func (r *participantRepo) NameExists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Participant{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func (r *participantRepo) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Participant{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// EnsureSentinel seeds the reserved break participant with its fixed ID.
// Safe to call on every startup.
func (r *participantRepo) EnsureSentinel() error {
	var existing model.Participant
	err := r.db.First(&existing, "id = ?", model.SentinelParticipantID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	sentinel := &model.Participant{
		Name: model.SentinelName,
		Code: model.SentinelCode,
	}
	sentinel.ID = model.SentinelParticipantID
	sentinel.CreatedAt = time.Now()
	return r.db.Create(sentinel).Error
}
