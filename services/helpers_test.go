package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Kariqs/eshop-api/cache"
	"github.com/Kariqs/eshop-api/initializers"
	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	cache   *cache.Memory
	carts   *CartService
	catalog *CatalogService
	users   *UserService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := initializers.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mem := cache.NewMemory()
	logger := discardLogger()
	return &testEnv{
		db:      db,
		cache:   mem,
		carts:   NewCartService(db, mem, logger),
		catalog: NewCatalogService(db, mem, nil, logger),
		users:   NewUserService(db, utils.NewTokenIssuer("test-secret", time.Hour), logger),
	}
}

func (e *testEnv) category(t *testing.T, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: slugOf(name)}
	require.NoError(t, e.db.Create(&c).Error)
	return c
}

func (e *testEnv) product(t *testing.T, category models.Category, name, price string, available bool) models.Product {
	t.Helper()
	p := models.Product{
		Name:       name,
		Slug:       slugOf(name),
		Price:      decimal.RequireFromString(price),
		Available:  available,
		CategoryID: category.ID,
	}
	require.NoError(t, e.db.Omit("Category").Create(&p).Error)
	return p
}

func slugOf(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		case r == ' ':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func sessionIdentity(key string) Identity {
	return Identity{SessionKey: key}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
