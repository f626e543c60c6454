package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinItemQuantity = 1
	MaxItemQuantity = 99
)

// Cart belongs to a user or to an anonymous session, never both in practice.
// Both owner columns carry a unique index, so an identity has at most one cart.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *uint      `gorm:"uniqueIndex" json:"userId"`
	User       *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SessionKey *string    `gorm:"size:40;uniqueIndex" json:"-"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time  `json:"created"`
	UpdatedAt  time.Time  `json:"updated"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product,priority:1" json:"cartId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product,priority:2;index" json:"productId"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE" json:"product"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// LineTotal is quantity × unit price. Product must be loaded.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ClampQuantity caps q at MaxItemQuantity. It doesn't raise values below the
// minimum: callers treat those as a removal.
func ClampQuantity(q int) int {
	if q > MaxItemQuantity {
		return MaxItemQuantity
	}
	return q
}

// CartTotals are the derived values cached per cart.
type CartTotals struct {
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
}

// ComputeTotals sums line totals and quantities over items with products loaded.
func ComputeTotals(items []CartItem) CartTotals {
	totals := CartTotals{TotalPrice: decimal.Zero}
	for _, item := range items {
		totals.TotalPrice = totals.TotalPrice.Add(item.LineTotal())
		totals.TotalItems += item.Quantity
	}
	return totals
}
