package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kariqs/eshop-api/cache"
	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Identity is who a cart belongs to. UserID wins when both are set.
type Identity struct {
	UserID     *uint
	SessionKey string
}

func (id Identity) IsZero() bool {
	return id.UserID == nil && id.SessionKey == ""
}

// ownerScope restricts a carts query to the identity's cart.
func (id Identity) ownerScope(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case id.UserID != nil:
			return db.Where(table+".user_id = ?", *id.UserID)
		case id.SessionKey != "":
			return db.Where(table+".session_key = ?", id.SessionKey)
		default:
			return db.Where("1 = 0")
		}
	}
}

// ItemUpdate is the outcome of a quantity change. Item is nil when Removed.
type ItemUpdate struct {
	Item    *models.CartItem
	Removed bool
}

type CartSummary struct {
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemsCount int64           `json:"items_count"`
}

// CartService owns the cart aggregate: a cart, its items and their cached totals.
type CartService struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *slog.Logger
}

func NewCartService(db *gorm.DB, c cache.Cache, logger *slog.Logger) *CartService {
	return &CartService{db: db, cache: c, logger: logger}
}

// ResolveCart returns the identity's cart, creating it on first access.
// Creation is an insert that ignores a unique-index conflict followed by a
// read, so two first requests racing each other end up with the same cart.
func (s *CartService) ResolveCart(ctx context.Context, id Identity) (*models.Cart, bool, error) {
	if id.IsZero() {
		return nil, false, utils.Unauthorized("no user or session to own a cart")
	}

	cart := models.Cart{}
	if id.UserID != nil {
		userID := *id.UserID
		cart.UserID = &userID
	} else {
		key := id.SessionKey
		cart.SessionKey = &key
	}

	db := s.db.WithContext(ctx)
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&cart)
	if result.Error != nil {
		return nil, false, utils.Internal("failed to create cart", result.Error)
	}
	created := result.RowsAffected > 0

	var loaded models.Cart
	if err := db.Scopes(id.ownerScope("carts"), preloadItems).First(&loaded).Error; err != nil {
		return nil, false, utils.Internal("failed to load cart", err)
	}

	if created {
		s.logger.DebugContext(ctx, "cart created", slog.Uint64("cart_id", uint64(loaded.ID)))
	}
	return &loaded, created, nil
}

// ListCarts pages through the carts owned by id. There is at most one today,
// the listing exists for API symmetry.
func (s *CartService) ListCarts(ctx context.Context, id Identity, req utils.PageRequest) (utils.Page[models.Cart], error) {
	query := s.db.WithContext(ctx).Model(&models.Cart{}).Scopes(id.ownerScope("carts")).Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return utils.Page[models.Cart]{}, utils.Internal("failed to count carts", err)
	}
	req = req.Normalize(count)

	var carts []models.Cart
	if err := query.Scopes(preloadItems, req.Scope()).Order("carts.id").Find(&carts).Error; err != nil {
		return utils.Page[models.Cart]{}, utils.Internal("failed to fetch carts", err)
	}
	return utils.NewPage(req, count, carts), nil
}

// GetCart loads an owned cart with its items, products and categories.
func (s *CartService) GetCart(ctx context.Context, id Identity, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Scopes(id.ownerScope("carts"), preloadItems).
		Where("carts.id = ?", cartID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("cart not found")
	}
	if err != nil {
		return nil, utils.Internal("failed to fetch cart", err)
	}
	return &cart, nil
}

func (s *CartService) DeleteCart(ctx context.Context, id Identity, cartID uint) error {
	cart, err := s.GetCart(ctx, id, cartID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Cart{}, cart.ID).Error; err != nil {
		return utils.Internal("failed to delete cart", err)
	}
	s.invalidate(ctx, cart.ID)
	return nil
}

// AddItem adds quantity units of an available product to an owned cart and
// returns the refreshed cart.
func (s *CartService) AddItem(ctx context.Context, id Identity, cartID, productID uint, quantity int) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, id, cartID)
	if err != nil {
		return nil, err
	}
	return s.AddItemToCart(ctx, cart, productID, quantity)
}

// AddItemToCart is AddItem for a cart the caller already resolved.
//
// The quantity must lie in [1, 99]. A second add of the same product merges
// into the existing row as min(existing + quantity, 99). The merge is a single
// INSERT ... ON CONFLICT DO UPDATE, so concurrent adds never lose an increment.
func (s *CartService) AddItemToCart(ctx context.Context, cart *models.Cart, productID uint, quantity int) (*models.Cart, error) {
	if quantity < models.MinItemQuantity || quantity > models.MaxItemQuantity {
		return nil, utils.FieldError("quantity", fmt.Sprintf("must be between %d and %d", models.MinItemQuantity, models.MaxItemQuantity))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Select("id").Where("id = ? AND available = ?", productID, true).First(&product).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("product not found or unavailable")
		}
		if err != nil {
			return err
		}

		item := models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: quantity}
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   mergedQuantity(quantity),
				"updated_at": time.Now(),
			}),
		}).Create(&item).Error
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.Internal("failed to add item to cart", err)
	}

	s.invalidate(ctx, cart.ID)
	return s.reload(ctx, cart.ID)
}

// Increment raises an item's quantity by one, silently stopping at 99.
func (s *CartService) Increment(ctx context.Context, id Identity, itemID uint) (*models.CartItem, error) {
	item, err := s.GetItem(ctx, id, itemID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{"quantity": clampedAdd(1)}).Error
	if err != nil {
		return nil, utils.Internal("failed to update cart item", err)
	}

	s.invalidate(ctx, item.CartID)
	return s.GetItem(ctx, id, itemID)
}

// Decrement lowers an item's quantity by one. An item at quantity 1 is
// deleted instead of being stored as 0.
func (s *CartService) Decrement(ctx context.Context, id Identity, itemID uint) (ItemUpdate, error) {
	item, err := s.GetItem(ctx, id, itemID)
	if err != nil {
		return ItemUpdate{}, err
	}

	removed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.CartItem{}).
			Where("id = ? AND quantity > ?", item.ID, models.MinItemQuantity).
			Update("quantity", gorm.Expr("quantity - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		removed = true
		return tx.Delete(&models.CartItem{}, item.ID).Error
	})
	if err != nil {
		return ItemUpdate{}, utils.Internal("failed to update cart item", err)
	}

	s.invalidate(ctx, item.CartID)
	if removed {
		s.logger.DebugContext(ctx, "cart item removed on decrement", slog.Uint64("item_id", uint64(item.ID)))
		return ItemUpdate{Removed: true}, nil
	}

	updated, err := s.GetItem(ctx, id, itemID)
	if err != nil {
		return ItemUpdate{}, err
	}
	return ItemUpdate{Item: updated}, nil
}

// SetQuantity stores an explicit quantity. Values below 1 delete the item,
// values above 99 are clamped to 99 like every other write path.
func (s *CartService) SetQuantity(ctx context.Context, id Identity, itemID uint, quantity int) (ItemUpdate, error) {
	item, err := s.GetItem(ctx, id, itemID)
	if err != nil {
		return ItemUpdate{}, err
	}

	if quantity < models.MinItemQuantity {
		if err := s.deleteItem(ctx, item); err != nil {
			return ItemUpdate{}, err
		}
		return ItemUpdate{Removed: true}, nil
	}

	err = s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Update("quantity", models.ClampQuantity(quantity)).Error
	if err != nil {
		return ItemUpdate{}, utils.Internal("failed to update cart item", err)
	}

	s.invalidate(ctx, item.CartID)
	updated, err := s.GetItem(ctx, id, itemID)
	if err != nil {
		return ItemUpdate{}, err
	}
	return ItemUpdate{Item: updated}, nil
}

func (s *CartService) RemoveItem(ctx context.Context, id Identity, itemID uint) error {
	item, err := s.GetItem(ctx, id, itemID)
	if err != nil {
		return err
	}
	return s.deleteItem(ctx, item)
}

// Clear deletes every item of an owned cart. Clearing an empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, id Identity, cartID uint) (*models.Cart, error) {
	cart, err := s.GetCart(ctx, id, cartID)
	if err != nil {
		return nil, err
	}
	return s.ClearCart(ctx, cart)
}

// ClearCart is Clear for a cart the caller already resolved.
func (s *CartService) ClearCart(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if err := s.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return nil, utils.Internal("failed to clear cart", err)
	}

	s.invalidate(ctx, cart.ID)
	return s.reload(ctx, cart.ID)
}

// GetItem loads an item that belongs to one of the identity's carts.
func (s *CartService) GetItem(ctx context.Context, id Identity, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Scopes(id.ownerScope("carts")).
		Preload("Product.Category").
		Where("cart_items.id = ?", itemID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("cart item not found")
	}
	if err != nil {
		return nil, utils.Internal("failed to fetch cart item", err)
	}
	return &item, nil
}

func (s *CartService) ListItems(ctx context.Context, id Identity, req utils.PageRequest) (utils.Page[models.CartItem], error) {
	query := s.db.WithContext(ctx).Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Scopes(id.ownerScope("carts")).
		Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return utils.Page[models.CartItem]{}, utils.Internal("failed to count cart items", err)
	}
	req = req.Normalize(count)

	var items []models.CartItem
	err := query.Preload("Product.Category").Scopes(req.Scope()).Order("cart_items.id").Find(&items).Error
	if err != nil {
		return utils.Page[models.CartItem]{}, utils.Internal("failed to fetch cart items", err)
	}
	return utils.NewPage(req, count, items), nil
}

// Totals returns total_price and total_items for a cart. Both values are
// lookaside-cached per cart; a hit never touches the database.
func (s *CartService) Totals(ctx context.Context, cartID uint) (models.CartTotals, error) {
	var totals models.CartTotals
	priceHit, err := cache.GetJSON(ctx, s.cache, cache.CartTotalKey(cartID), &totals.TotalPrice)
	if err != nil {
		return totals, utils.Internal("failed to read cart totals", err)
	}
	itemsHit, err := cache.GetJSON(ctx, s.cache, cache.CartItemsKey(cartID), &totals.TotalItems)
	if err != nil {
		return totals, utils.Internal("failed to read cart totals", err)
	}
	if priceHit && itemsHit {
		return totals, nil
	}

	var items []models.CartItem
	if err := s.db.WithContext(ctx).Preload("Product").Where("cart_id = ?", cartID).Find(&items).Error; err != nil {
		return totals, utils.Internal("failed to compute cart totals", err)
	}
	totals = models.ComputeTotals(items)

	// A failed write is not fatal, the next read recomputes.
	err = cache.SetJSON(ctx, s.cache, cache.CartTotalKey(cartID), totals.TotalPrice, cache.CartTotalsTTL)
	if err == nil {
		err = cache.SetJSON(ctx, s.cache, cache.CartItemsKey(cartID), totals.TotalItems, cache.CartTotalsTTL)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to cache cart totals",
			slog.Uint64("cart_id", uint64(cartID)),
			slog.String("error", err.Error()))
	}
	return totals, nil
}

// Summary is the cart's totals plus the number of distinct item rows.
func (s *CartService) Summary(ctx context.Context, id Identity, cartID uint) (CartSummary, error) {
	cart, err := s.GetCart(ctx, id, cartID)
	if err != nil {
		return CartSummary{}, err
	}

	totals, err := s.Totals(ctx, cart.ID)
	if err != nil {
		return CartSummary{}, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error; err != nil {
		return CartSummary{}, utils.Internal("failed to count cart items", err)
	}

	return CartSummary{TotalItems: totals.TotalItems, TotalPrice: totals.TotalPrice, ItemsCount: count}, nil
}

// CountForUser is the number of carts a user owns.
func (s *CartService) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Cart{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, utils.Internal("failed to count carts", err)
	}
	return count, nil
}

func (s *CartService) deleteItem(ctx context.Context, item *models.CartItem) error {
	result := s.db.WithContext(ctx).Delete(&models.CartItem{}, item.ID)
	if result.Error != nil {
		return utils.Internal("failed to delete cart item", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NotFound("cart item not found")
	}

	s.invalidate(ctx, item.CartID)
	return nil
}

func (s *CartService) reload(ctx context.Context, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := s.db.WithContext(ctx).Scopes(preloadItems).First(&cart, cartID).Error; err != nil {
		return nil, utils.Internal("failed to reload cart", err)
	}
	return &cart, nil
}

// invalidate drops the cached totals of a cart. The write it follows has
// already committed, so a failure here is logged and left to the TTL.
func (s *CartService) invalidate(ctx context.Context, cartID uint) {
	if err := s.cache.Delete(ctx, cache.CartKeys(cartID)...); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate cart totals",
			slog.Uint64("cart_id", uint64(cartID)),
			slog.String("error", err.Error()))
	}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id")
	}).Preload("Items.Product.Category")
}

// mergedQuantity is the ON CONFLICT update for a repeated add.
func mergedQuantity(quantity int) clause.Expr {
	return gorm.Expr(
		"CASE WHEN cart_items.quantity + ? > ? THEN ? ELSE cart_items.quantity + ? END",
		quantity, models.MaxItemQuantity, models.MaxItemQuantity, quantity,
	)
}

func clampedAdd(delta int) clause.Expr {
	return gorm.Expr(
		"CASE WHEN quantity + ? > ? THEN ? ELSE quantity + ? END",
		delta, models.MaxItemQuantity, models.MaxItemQuantity, delta,
	)
}
