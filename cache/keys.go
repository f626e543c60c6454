package cache

import (
	"fmt"
	"time"
)

const (
	CartTotalsTTL  = 5 * time.Minute
	CategoriesTTL  = time.Hour
	FeaturedTTL    = 30 * time.Minute
	RecommendedTTL = 30 * time.Minute
	StatsTTL       = time.Hour

	CategoriesAllKey = "categories_all"
	ProductStatsKey  = "product_stats"
)

func CartTotalKey(cartID uint) string {
	return fmt.Sprintf("cart_total_%d", cartID)
}

func CartItemsKey(cartID uint) string {
	return fmt.Sprintf("cart_items_%d", cartID)
}

// CartKeys lists every derived value cached for a cart.
func CartKeys(cartID uint) []string {
	return []string{CartTotalKey(cartID), CartItemsKey(cartID)}
}

func FeaturedKey(limit int) string {
	return fmt.Sprintf("featured_products_%d", limit)
}

func RecommendedKey(categoryID, productID uint) string {
	return fmt.Sprintf("recommended_products_%d_%d", categoryID, productID)
}
