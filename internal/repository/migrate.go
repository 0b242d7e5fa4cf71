package repository

import (
	"fmt"

	"campbank/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for all ledger tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Participant{},
		&model.Product{},
		&model.Account{},
		&model.ProductAlias{},
		&model.Transaction{},
		&model.Setting{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
