package model

import "github.com/google/uuid"

// Product is a purchasable item with a primary scanner code and any number
// of alias codes. Prices are integer cents. Products are soft-deleted so
// historical transactions keep a valid reference and a retired code stays
// reserved in the shared namespace.
type Product struct {
	BaseModel
	Description string `gorm:"type:varchar(100);not null" json:"description" validate:"required,max=100"`
	Code        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"code" validate:"required,max=255"`
	PriceCents  int64  `gorm:"not null" json:"price_cents" validate:"gte=0"`
	SoldCount   int64  `gorm:"default:0;not null" json:"sold_count"`

	Aliases []ProductAlias `gorm:"foreignKey:ProductID" json:"aliases,omitempty"`
}

// ProductAlias is an additional scanner code for a product. Alias codes share
// the global namespace with participant codes and primary product codes.
type ProductAlias struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Code      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"code" validate:"required,max=255"`
}
