package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheHeaders marks GET responses as publicly cacheable for maxAge.
// Routes serving per-client data opt out with NoStore.
func CacheHeaders(maxAge time.Duration) gin.HandlerFunc {
	value := fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds()))
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodGet {
			ctx.Header("Cache-Control", value)
			ctx.Header("Vary", "Accept, Accept-Language")
		}
		ctx.Next()
	}
}

func NoStore() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Cache-Control", "private, no-store")
		ctx.Next()
	}
}
