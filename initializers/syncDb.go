package initializers

import (
	"fmt"

	"github.com/Kariqs/eshop-api/models"
	"gorm.io/gorm"
)

// SyncDatabase creates or updates every table, parents before children.
func SyncDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.User{},
		&models.Cart{},
		&models.CartItem{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
