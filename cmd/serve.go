package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kariqs/eshop-api/initializers"
	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/Kariqs/eshop-api/routes"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not sync the schema on startup")
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !skipMigrate {
		if err := initializers.SyncDatabase(a.db); err != nil {
			return err
		}
	}

	uploader, err := a.uploader(ctx)
	if err != nil {
		return err
	}

	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.UseJSONFieldNames()

	tokens := utils.NewTokenIssuer(a.cfg.JWTSecret, a.cfg.JWTTTL)
	deps := routes.Deps{
		Carts:           services.NewCartService(a.db, a.cache, a.logger),
		Catalog:         services.NewCatalogService(a.db, a.cache, uploader, a.logger),
		Users:           services.NewUserService(a.db, tokens, a.logger),
		TokenTTLSeconds: int(a.cfg.JWTTTL.Seconds()),
	}
	anonLimiter := middlewares.NewHourlyLimiter(a.cfg.RateLimitAnon)
	userLimiter := middlewares.NewHourlyLimiter(a.cfg.RateLimitUser)
	for _, limiter := range []*middlewares.KeyedRateLimiter{anonLimiter, userLimiter} {
		limiter.StartCleanup(middlewares.CleanupInterval)
		defer limiter.Stop()
	}

	chain := middlewares.Chain(middlewares.ChainConfig{
		Logger:        a.logger,
		Debug:         a.cfg.Debug,
		SecureCookies: a.cfg.IsProduction(),
		CORSOrigins:   a.cfg.CORSOrigins,
		Tokens:        tokens,
		APIKey:        a.cfg.APIKey,
		AnonLimiter:   anonLimiter,
		UserLimiter:   userLimiter,
	})

	engine, err := routes.NewEngine(chain, a.cfg.TrustedProxies, deps)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", slog.String("addr", server.Addr), slog.String("env", a.cfg.Env))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
