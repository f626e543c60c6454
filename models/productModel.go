package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product prices are stored as decimal(10,2). Price > 0 is checked by the
// catalog service, the column itself accepts anything.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:120;not null;index" json:"name"`
	Slug        string          `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Image       string          `gorm:"size:512" json:"image"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null;index" json:"price"`
	Available   bool            `gorm:"not null;index;index:idx_products_category_available,priority:2" json:"available"`
	CategoryID  uint            `gorm:"not null;index:idx_products_category_available,priority:1" json:"categoryId"`
	Category    Category        `json:"category"`
	CreatedAt   time.Time       `gorm:"index" json:"created"`
	UpdatedAt   time.Time       `json:"updated"`
}

// ProductStats is the cached catalog overview.
type ProductStats struct {
	TotalProducts   int64           `json:"total_products"`
	TotalCategories int64           `json:"total_categories"`
	AvgPrice        decimal.Decimal `json:"avg_price"`
}
