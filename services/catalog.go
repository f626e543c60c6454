package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Kariqs/eshop-api/cache"
	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	FeaturedLimit = 8
	RelatedLimit  = 4
)

// Product sort orders accepted by ProductFilter.Sort.
const (
	SortName      = "name"
	SortPrice     = "price"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
	SortOldest    = "oldest"
)

var productOrders = map[string]string{
	SortName:      "products.name ASC",
	SortPrice:     "products.price ASC",
	SortPriceDesc: "products.price DESC",
	SortNewest:    "products.created_at DESC",
	SortOldest:    "products.created_at ASC",
}

// CategorySummary is a category with the number of its available products.
type CategorySummary struct {
	models.Category
	ProductsCount int64 `json:"products_count"`
}

type CategoryFilter struct {
	Name        string
	HasProducts *bool
}

func (f CategoryFilter) IsZero() bool {
	return f.Name == "" && f.HasProducts == nil
}

// ProductFilter narrows a product listing. Nil fields are not applied.
type ProductFilter struct {
	Search        string
	Name          string
	Description   string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	CategoryID    *uint
	CategorySlug  string
	Available     *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Sort          string
}

func (f ProductFilter) Validate() error {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return utils.FieldError("min_price", "cannot be greater than max_price")
	}
	return nil
}

func (f ProductFilter) where(db *gorm.DB) *gorm.DB {
	if f.Search != "" {
		like := containsPattern(f.Search)
		db = db.Where("(LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?)", like, like)
	}
	if f.Name != "" {
		db = db.Where("LOWER(products.name) LIKE ?", containsPattern(f.Name))
	}
	if f.Description != "" {
		db = db.Where("LOWER(products.description) LIKE ?", containsPattern(f.Description))
	}
	if f.MinPrice != nil {
		db = db.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		db = db.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.CategoryID != nil {
		db = db.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.CategorySlug != "" {
		db = db.Where("products.category_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&models.Category{}).Select("id").Where("slug = ?", f.CategorySlug))
	}
	if f.Available != nil {
		db = db.Where("products.available = ?", *f.Available)
	}
	if f.CreatedAfter != nil {
		db = db.Where("products.created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		// Inclusive of the whole day.
		db = db.Where("products.created_at < ?", f.CreatedBefore.AddDate(0, 0, 1))
	}
	return db
}

func (f ProductFilter) order(db *gorm.DB) *gorm.DB {
	order, ok := productOrders[f.Sort]
	if !ok {
		order = productOrders[SortName]
	}
	return db.Order(order).Order("products.id ASC")
}

func containsPattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// ProductInput is the payload of an admin product create.
type ProductInput struct {
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Available   *bool
	CategoryID  uint
}

// ProductPatch is a partial product update; nil fields are left alone.
type ProductPatch struct {
	Name        *string
	Slug        *string
	Description *string
	Price       *decimal.Decimal
	Available   *bool
	CategoryID  *uint
}

// CatalogService serves categories and products and keeps their cached
// aggregates fresh.
type CatalogService struct {
	db       *gorm.DB
	cache    cache.Cache
	uploader utils.ImageUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewCatalogService(db *gorm.DB, c cache.Cache, uploader utils.ImageUploader, logger *slog.Logger) *CatalogService {
	return &CatalogService{db: db, cache: c, uploader: uploader, logger: logger, now: time.Now}
}

func (s *CatalogService) available(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Product{}).Where("products.available = ?", true)
}

// AllCategories returns every category with its product count, cached for an hour.
func (s *CatalogService) AllCategories(ctx context.Context) ([]CategorySummary, error) {
	categories, err := cache.Remember(ctx, s.cache, cache.CategoriesAllKey, cache.CategoriesTTL, func(ctx context.Context) ([]CategorySummary, error) {
		var rows []models.Category
		if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		return s.withCounts(ctx, rows)
	})
	if err != nil {
		return nil, utils.Internal("failed to fetch categories", err)
	}
	return categories, nil
}

// ListCategories pages through categories. The unfiltered listing is served
// from the cached full list.
func (s *CatalogService) ListCategories(ctx context.Context, filter CategoryFilter, req utils.PageRequest) (utils.Page[CategorySummary], error) {
	if filter.IsZero() {
		all, err := s.AllCategories(ctx)
		if err != nil {
			return utils.Page[CategorySummary]{}, err
		}

		count := int64(len(all))
		req = req.Normalize(count)
		start := min(req.Offset(), len(all))
		end := min(start+req.PageSize, len(all))
		return utils.NewPage(req, count, all[start:end]), nil
	}

	query := s.db.WithContext(ctx).Model(&models.Category{})
	if filter.Name != "" {
		query = query.Where("LOWER(categories.name) LIKE ?", containsPattern(filter.Name))
	}
	if filter.HasProducts != nil {
		exists := "EXISTS (SELECT 1 FROM products WHERE products.category_id = categories.id)"
		if *filter.HasProducts {
			query = query.Where(exists)
		} else {
			query = query.Where("NOT " + exists)
		}
	}

	query = query.Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return utils.Page[CategorySummary]{}, utils.Internal("failed to count categories", err)
	}
	req = req.Normalize(count)

	var rows []models.Category
	if err := query.Order("categories.name ASC").Order("categories.id ASC").Scopes(req.Scope()).Find(&rows).Error; err != nil {
		return utils.Page[CategorySummary]{}, utils.Internal("failed to fetch categories", err)
	}

	summaries, err := s.withCounts(ctx, rows)
	if err != nil {
		return utils.Page[CategorySummary]{}, utils.Internal("failed to count category products", err)
	}
	return utils.NewPage(req, count, summaries), nil
}

// withCounts attaches available-product counts in one grouped query.
func (s *CatalogService) withCounts(ctx context.Context, rows []models.Category) ([]CategorySummary, error) {
	summaries := make([]CategorySummary, len(rows))
	if len(rows) == 0 {
		return summaries, nil
	}

	ids := make([]uint, len(rows))
	for i, c := range rows {
		ids[i] = c.ID
	}

	var counts []struct {
		CategoryID uint
		Total      int64
	}
	err := s.available(ctx).
		Select("products.category_id AS category_id, COUNT(*) AS total").
		Where("products.category_id IN ?", ids).
		Group("products.category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byCategory := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Total
	}
	for i, c := range rows {
		summaries[i] = CategorySummary{Category: c, ProductsCount: byCategory[c.ID]}
	}
	return summaries, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, slug string) (*CategorySummary, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("category not found")
	}
	if err != nil {
		return nil, utils.Internal("failed to fetch category", err)
	}

	summaries, err := s.withCounts(ctx, []models.Category{category})
	if err != nil {
		return nil, utils.Internal("failed to count category products", err)
	}
	return &summaries[0], nil
}

// CategoryProducts lists the available products of the category with the given slug.
func (s *CatalogService) CategoryProducts(ctx context.Context, slug string, filter ProductFilter, req utils.PageRequest) (utils.Page[models.Product], error) {
	category, err := s.GetCategory(ctx, slug)
	if err != nil {
		return utils.Page[models.Product]{}, err
	}

	filter.CategoryID = &category.ID
	filter.CategorySlug = ""
	return s.ListProducts(ctx, filter, req)
}

// ListProducts pages through available products matching filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductFilter, req utils.PageRequest) (utils.Page[models.Product], error) {
	if err := filter.Validate(); err != nil {
		return utils.Page[models.Product]{}, err
	}

	query := s.available(ctx).Scopes(filter.where).Session(&gorm.Session{})

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return utils.Page[models.Product]{}, utils.Internal("failed to count products", err)
	}
	req = req.Normalize(count)

	var products []models.Product
	if err := query.Preload("Category").Scopes(filter.order, req.Scope()).Find(&products).Error; err != nil {
		return utils.Page[models.Product]{}, utils.Internal("failed to fetch products", err)
	}
	return utils.NewPage(req, count, products), nil
}

// GetProduct finds an available product by slug.
func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.available(ctx).Preload("Category").Where("products.slug = ?", slug).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("product not found")
	}
	if err != nil {
		return nil, utils.Internal("failed to fetch product", err)
	}
	return &product, nil
}

// RelatedProducts returns up to four other available products of the same category.
func (s *CatalogService) RelatedProducts(ctx context.Context, slug string) ([]models.Product, error) {
	product, err := s.GetProduct(ctx, slug)
	if err != nil {
		return nil, err
	}

	key := cache.RecommendedKey(product.CategoryID, product.ID)
	related, err := cache.Remember(ctx, s.cache, key, cache.RecommendedTTL, func(ctx context.Context) ([]models.Product, error) {
		var products []models.Product
		err := s.available(ctx).Preload("Category").
			Where("products.category_id = ? AND products.id <> ?", product.CategoryID, product.ID).
			Order("products.created_at DESC").Order("products.id DESC").
			Limit(RelatedLimit).
			Find(&products).Error
		return products, err
	})
	if err != nil {
		return nil, utils.Internal("failed to fetch related products", err)
	}
	return related, nil
}

// Featured returns the newest available products.
func (s *CatalogService) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit < 1 {
		limit = FeaturedLimit
	}

	featured, err := cache.Remember(ctx, s.cache, cache.FeaturedKey(limit), cache.FeaturedTTL, func(ctx context.Context) ([]models.Product, error) {
		var products []models.Product
		err := s.available(ctx).Preload("Category").
			Order("products.created_at DESC").Order("products.id DESC").
			Limit(limit).
			Find(&products).Error
		return products, err
	})
	if err != nil {
		return nil, utils.Internal("failed to fetch featured products", err)
	}
	return featured, nil
}

func (s *CatalogService) Stats(ctx context.Context) (models.ProductStats, error) {
	stats, err := cache.Remember(ctx, s.cache, cache.ProductStatsKey, cache.StatsTTL, func(ctx context.Context) (models.ProductStats, error) {
		var stats models.ProductStats
		if err := s.available(ctx).Count(&stats.TotalProducts).Error; err != nil {
			return stats, err
		}
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Count(&stats.TotalCategories).Error; err != nil {
			return stats, err
		}

		var avg float64
		if err := s.available(ctx).Select("COALESCE(AVG(products.price), 0)").Row().Scan(&avg); err != nil {
			return stats, err
		}
		stats.AvgPrice = decimal.NewFromFloat(avg).Round(2)
		return stats, nil
	})
	if err != nil {
		return models.ProductStats{}, utils.Internal("failed to compute product stats", err)
	}
	return stats, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.FieldError("name", "is required")
	}
	slug, err := resolveSlug(slug, name)
	if err != nil {
		return nil, err
	}

	if err := s.ensureSlugFree(ctx, &models.Category{}, slug, 0); err != nil {
		return nil, err
	}

	category := models.Category{Name: name, Slug: slug}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict("a category with this slug already exists")
		}
		return nil, utils.Internal("failed to create category", err)
	}

	s.invalidateCatalog(ctx, 0)
	return &category, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	name, err := validateProductName(in.Name)
	if err != nil {
		return nil, err
	}
	price, err := validatePrice(in.Price)
	if err != nil {
		return nil, err
	}
	slug, err := resolveSlug(in.Slug, name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, &models.Product{}, slug, 0); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        name,
		Slug:        slug,
		Description: in.Description,
		Price:       price,
		Available:   true,
		CategoryID:  in.CategoryID,
	}
	if in.Available != nil {
		product.Available = *in.Available
	}

	if err := s.db.WithContext(ctx).Omit("Category").Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict("a product with this slug already exists")
		}
		return nil, utils.Internal("failed to create product", err)
	}

	s.invalidateCatalog(ctx, product.ID, product.CategoryID)
	s.logger.InfoContext(ctx, "product created", slog.Uint64("product_id", uint64(product.ID)), slog.String("slug", product.Slug))
	return s.productByID(ctx, product.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*models.Product, error) {
	product, err := s.productByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name, err := validateProductName(*patch.Name)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if patch.Slug != nil {
		slug, err := resolveSlug(*patch.Slug, product.Name)
		if err != nil {
			return nil, err
		}
		if err := s.ensureSlugFree(ctx, &models.Product{}, slug, product.ID); err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Price != nil {
		price, err := validatePrice(*patch.Price)
		if err != nil {
			return nil, err
		}
		updates["price"] = price
	}
	if patch.Available != nil {
		updates["available"] = *patch.Available
	}
	if patch.CategoryID != nil {
		if err := s.ensureCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *patch.CategoryID
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict("a product with this slug already exists")
		}
		if err != nil {
			return nil, utils.Internal("failed to update product", err)
		}
		categories := []uint{product.CategoryID}
		if patch.CategoryID != nil && *patch.CategoryID != product.CategoryID {
			categories = append(categories, *patch.CategoryID)
		}
		s.invalidateCatalog(ctx, product.ID, categories...)
	}

	return s.productByID(ctx, product.ID)
}

// UploadProductImage stores an image for a product and records its URL.
func (s *CatalogService) UploadProductImage(ctx context.Context, id uint, filename, contentType string, body io.Reader) (*models.Product, error) {
	product, err := s.productByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, utils.FieldError("image", "must be an image")
	}
	if s.uploader == nil {
		return nil, utils.Internal("image storage is not configured", nil)
	}

	url, err := s.uploader.Upload(ctx, utils.ProductImageKey(s.now(), filename), body, contentType)
	if err != nil {
		return nil, utils.Internal("failed to upload image", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Update("image", url).Error; err != nil {
		return nil, utils.Internal("failed to save product image", err)
	}

	s.invalidateCatalog(ctx, product.ID, product.CategoryID)
	return s.productByID(ctx, product.ID)
}

// productByID ignores availability, admins edit hidden products too.
func (s *CatalogService) productByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Preload("Category").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("product not found")
	}
	if err != nil {
		return nil, utils.Internal("failed to fetch product", err)
	}
	return &product, nil
}

func (s *CatalogService) ensureCategory(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return utils.Internal("failed to fetch category", err)
	}
	if count == 0 {
		return utils.FieldError("category_id", "category does not exist")
	}
	return nil
}

// ensureSlugFree reports a conflict when another row of model already uses slug.
// The unique index still decides races between concurrent writers.
func (s *CatalogService) ensureSlugFree(ctx context.Context, model any, slug string, exceptID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("slug = ? AND id <> ?", slug, exceptID).Count(&count).Error; err != nil {
		return utils.Internal("failed to check slug", err)
	}
	if count > 0 {
		return utils.Conflict(fmt.Sprintf("slug %q is already taken", slug))
	}
	return nil
}

// invalidateCatalog drops the aggregates derived from the product table. The
// related lists of every product in the given categories go too, since the
// written product may appear in any of them.
func (s *CatalogService) invalidateCatalog(ctx context.Context, productID uint, categoryIDs ...uint) {
	keys := []string{cache.CategoriesAllKey, cache.FeaturedKey(FeaturedLimit), cache.ProductStatsKey}
	keys = append(keys, s.relatedKeys(ctx, productID, categoryIDs)...)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate catalog cache", slog.String("error", err.Error()))
	}
}

func (s *CatalogService) relatedKeys(ctx context.Context, productID uint, categoryIDs []uint) []string {
	var keys []string
	for _, categoryID := range categoryIDs {
		var ids []uint
		if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Pluck("id", &ids).Error; err != nil {
			s.logger.ErrorContext(ctx, "failed to list related cache keys",
				slog.Uint64("category_id", uint64(categoryID)),
				slog.String("error", err.Error()))
		}
		if productID != 0 && !slices.Contains(ids, productID) {
			ids = append(ids, productID)
		}
		for _, id := range ids {
			keys = append(keys, cache.RecommendedKey(categoryID, id))
		}
	}
	return keys
}

func validateProductName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return "", utils.FieldError("name", "must be at least 3 characters long")
	}
	return name, nil
}

// validatePrice returns the price as stored, rounded to cents. The rounded
// value is what must be positive.
func validatePrice(price decimal.Decimal) (decimal.Decimal, error) {
	price = price.Round(2)
	if !price.IsPositive() {
		return price, utils.FieldError("price", "must be at least 0.01")
	}
	return price, nil
}

func resolveSlug(slug, name string) (string, error) {
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if !utils.IsSlug(slug) {
		return "", utils.FieldError("slug", fmt.Sprintf("%q is not a valid slug", slug))
	}
	return slug, nil
}
