package initializers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kariqs/eshop-api/cache"
	"github.com/Kariqs/eshop-api/models"
	"gorm.io/gorm"
)

type OptimizeOptions struct {
	ClearCache    bool
	AnalyzeTables bool
	Vacuum        bool
}

// TableStats is the row count of every table, reported after an optimize run.
type TableStats struct {
	Categories int64
	Products   int64
	Users      int64
	Carts      int64
	CartItems  int64
}

var optimizedTables = []string{"categories", "products", "users", "carts", "cart_items"}

// OptimizeDatabase runs the maintenance steps selected in opts against db.
func OptimizeDatabase(ctx context.Context, db *gorm.DB, driver string, c cache.Cache, opts OptimizeOptions, logger *slog.Logger) (TableStats, error) {
	db = db.WithContext(ctx)

	if opts.ClearCache && c != nil {
		if err := c.Clear(ctx); err != nil {
			return TableStats{}, fmt.Errorf("clear cache: %w", err)
		}
		logger.InfoContext(ctx, "cache cleared")
	}

	if opts.AnalyzeTables {
		for _, stmt := range analyzeStatements(driver) {
			if err := db.Exec(stmt).Error; err != nil {
				return TableStats{}, fmt.Errorf("analyze: %w", err)
			}
		}
		logger.InfoContext(ctx, "table statistics updated", slog.String("driver", driver))
	}

	if opts.Vacuum {
		for _, stmt := range vacuumStatements(driver) {
			if err := db.Exec(stmt).Error; err != nil {
				return TableStats{}, fmt.Errorf("vacuum: %w", err)
			}
		}
		logger.InfoContext(ctx, "storage reclaimed", slog.String("driver", driver))
	}

	return CollectTableStats(db)
}

func CollectTableStats(db *gorm.DB) (TableStats, error) {
	var stats TableStats
	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.Category{}, &stats.Categories},
		{&models.Product{}, &stats.Products},
		{&models.User{}, &stats.Users},
		{&models.Cart{}, &stats.Carts},
		{&models.CartItem{}, &stats.CartItems},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return stats, fmt.Errorf("count rows: %w", err)
		}
	}
	return stats, nil
}

func analyzeStatements(driver string) []string {
	switch driver {
	case "mysql":
		stmts := make([]string, len(optimizedTables))
		for i, table := range optimizedTables {
			stmts[i] = "ANALYZE TABLE " + table
		}
		return stmts
	default:
		return []string{"ANALYZE"}
	}
}

func vacuumStatements(driver string) []string {
	switch driver {
	case "mysql":
		stmts := make([]string, len(optimizedTables))
		for i, table := range optimizedTables {
			stmts[i] = "OPTIMIZE TABLE " + table
		}
		return stmts
	case "postgres":
		return []string{"VACUUM ANALYZE"}
	default:
		return []string{"VACUUM"}
	}
}
