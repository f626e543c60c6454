package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kariqs/eshop-api/cache"
	"github.com/Kariqs/eshop-api/initializers"
	"github.com/Kariqs/eshop-api/utils"
	"gorm.io/gorm"
)

// app is everything a command needs, built once from the configuration.
type app struct {
	cfg    initializers.Config
	logger *slog.Logger
	db     *gorm.DB
	cache  cache.Cache
	close  func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := initializers.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := initializers.NewLogger(cfg)

	db, err := initializers.ConnectToDB(cfg)
	if err != nil {
		return nil, err
	}

	c, closeCache, err := initializers.NewCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	closeAll := func() {
		closeCache()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return &app{cfg: cfg, logger: logger, db: db, cache: c, close: closeAll}, nil
}

// uploader is nil when no bucket is configured; image uploads then fail with a 500.
func (a *app) uploader(ctx context.Context) (utils.ImageUploader, error) {
	if a.cfg.S3Bucket == "" {
		a.logger.Warn("S3_BUCKET is not set, product image uploads are disabled")
		return nil, nil
	}
	return utils.NewS3Uploader(ctx, a.cfg.S3Bucket)
}
