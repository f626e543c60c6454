package middlewares

import (
	"log/slog"
	"time"

	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// ChainConfig carries what the global middleware chain needs.
type ChainConfig struct {
	Logger        *slog.Logger
	Debug         bool
	SecureCookies bool
	CORSOrigins   []string
	Tokens        *utils.TokenIssuer
	APIKey        string
	AnonLimiter   *KeyedRateLimiter
	UserLimiter   *KeyedRateLimiter
	MaxBody       int64
	CacheMaxAge   time.Duration
}

// Chain returns the global middleware in the order it must run: errors,
// logging, security, CORS, authentication, session, throttling, cache headers.
func Chain(cfg ChainConfig) []gin.HandlerFunc {
	if cfg.MaxBody == 0 {
		cfg.MaxBody = MaxRequestBody
	}
	if cfg.CacheMaxAge == 0 {
		cfg.CacheMaxAge = 5 * time.Minute
	}

	return []gin.HandlerFunc{
		ErrorHandler(cfg.Logger, cfg.Debug),
		RequestLogger(cfg.Logger),
		SecurityHeaders(cfg.MaxBody),
		CORS(cfg.CORSOrigins),
		Authenticate(cfg.Tokens, cfg.APIKey),
		Session(cfg.SecureCookies),
		RateLimit(cfg.AnonLimiter, cfg.UserLimiter),
		CacheHeaders(cfg.CacheMaxAge),
	}
}
