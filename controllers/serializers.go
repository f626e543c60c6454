package controllers

import (
	"time"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/services"
	"github.com/shopspring/decimal"
)

// Prices leave the API as strings with exactly two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type categoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type categoryView struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	ProductsCount int64     `json:"products_count"`
	Created       time.Time `json:"created"`
}

func newCategoryView(c services.CategorySummary) categoryView {
	return categoryView{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		ProductsCount: c.ProductsCount,
		Created:       c.CreatedAt,
	}
}

// productListView is the compact product shown in lists and carts.
type productListView struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Price        string `json:"price"`
	Image        string `json:"image"`
	Available    bool   `json:"available"`
	CategoryName string `json:"category_name"`
}

func newProductListView(p models.Product) productListView {
	return productListView{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Price:        money(p.Price),
		Image:        p.Image,
		Available:    p.Available,
		CategoryName: p.Category.Name,
	}
}

type productDetailView struct {
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Price       string      `json:"price"`
	Image       string      `json:"image"`
	Available   bool        `json:"available"`
	Category    categoryRef `json:"category"`
	Created     time.Time   `json:"created"`
	Updated     time.Time   `json:"updated"`
}

func newProductDetailView(p models.Product) productDetailView {
	return productDetailView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       money(p.Price),
		Image:       p.Image,
		Available:   p.Available,
		Category:    categoryRef{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug},
		Created:     p.CreatedAt,
		Updated:     p.UpdatedAt,
	}
}

// productView picks the list shape the API version asks for.
func productView(v APIVersion) func(models.Product) any {
	if v.DetailedLists {
		return func(p models.Product) any { return newProductDetailView(p) }
	}
	return func(p models.Product) any { return newProductListView(p) }
}

func productViews(v APIVersion, products []models.Product) []any {
	view := productView(v)
	out := make([]any, len(products))
	for i, p := range products {
		out[i] = view(p)
	}
	return out
}

type cartItemView struct {
	ID         uint            `json:"id"`
	Product    productListView `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice string          `json:"total_price"`
}

func newCartItemView(i models.CartItem) cartItemView {
	return cartItemView{
		ID:         i.ID,
		Product:    newProductListView(i.Product),
		Quantity:   i.Quantity,
		TotalPrice: money(i.LineTotal()),
	}
}

type cartView struct {
	ID         uint           `json:"id"`
	Items      []cartItemView `json:"items"`
	TotalPrice string         `json:"total_price"`
	TotalItems int            `json:"total_items"`
	ItemsCount *int           `json:"items_count,omitempty"`
	Created    time.Time      `json:"created"`
	Updated    time.Time      `json:"updated"`
}

func newCartView(v APIVersion, cart models.Cart, totals models.CartTotals) cartView {
	items := make([]cartItemView, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = newCartItemView(item)
	}

	view := cartView{
		ID:         cart.ID,
		Items:      items,
		TotalPrice: money(totals.TotalPrice),
		TotalItems: totals.TotalItems,
		Created:    cart.CreatedAt,
		Updated:    cart.UpdatedAt,
	}
	if v.CartItemsCount {
		count := len(cart.Items)
		view.ItemsCount = &count
	}
	return view
}

type cartSummaryView struct {
	TotalItems int    `json:"total_items"`
	TotalPrice string `json:"total_price"`
	ItemsCount int64  `json:"items_count"`
}

type statsView struct {
	TotalProducts   int64  `json:"total_products"`
	TotalCategories int64  `json:"total_categories"`
	AvgPrice        string `json:"avg_price"`
}

type profileView struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
	CartsCount int64     `json:"carts_count"`
}

func newProfileView(u models.User, carts int64) profileView {
	return profileView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		DateJoined: u.CreatedAt,
		CartsCount: carts,
	}
}
