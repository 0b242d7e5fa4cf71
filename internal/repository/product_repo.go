package repository

import (
	"errors"

	"campbank/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByCode(code string) (*model.Product, error)
	FindAll() ([]model.Product, error)
	Update(product *model.Product) error
	SoftDelete(id uuid.UUID) error
	CreateAlias(alias *model.ProductAlias) error
	CodeExists(code string) (bool, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Aliases").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCode resolves an active product through its primary code first and
// falls back to the alias table.
func (r *productRepo) FindByCode(code string) (*model.Product, error) {
	var product model.Product
	err := r.db.Where("code = ?", code).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var alias model.ProductAlias
	if err := r.db.Where("code = ?", code).First(&alias).Error; err != nil {
		return nil, err
	}
	if err := r.db.First(&product, "id = ?", alias.ProductID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindAll() ([]model.Product, error) {
	var products []model.Product
	err := r.db.Preload("Aliases").Order("price_cents ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

// SoftDelete retires a product. The row stays behind so historical
// transactions keep a valid reference and its code remains reserved.
func (r *productRepo) SoftDelete(id uuid.UUID) error {
	return r.db.Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) CreateAlias(alias *model.ProductAlias) error {
	return r.db.Create(alias).Error
}

// CodeExists checks primary and alias codes, including soft-deleted products,
// so a retired code can never be handed out again.
func (r *productRepo) CodeExists(code string) (bool, error) {
	var count int64
	if err := r.db.Unscoped().Model(&model.Product{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.Unscoped().Model(&model.ProductAlias{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
