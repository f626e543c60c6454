package middlewares

import (
	"crypto/subtle"
	"strings"

	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// Authenticate identifies the caller without ever rejecting a request: a valid
// bearer token sets the user, a matching X-API-Key marks a service client, and
// anything else continues anonymously.
func Authenticate(tokens *utils.TokenIssuer, apiKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if header := ctx.GetHeader("Authorization"); header != "" {
			if raw, ok := strings.CutPrefix(header, "Bearer "); ok {
				if claims, err := tokens.Parse(strings.TrimSpace(raw)); err == nil {
					ctx.Set(ctxUser, claims)
				}
			}
		}

		if key := ctx.GetHeader("X-API-Key"); apiKey != "" && key != "" {
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
				ctx.Set(ctxAPIClient, true)
			}
		}

		ctx.Next()
	}
}

// RequireAuth rejects requests without an authenticated user.
func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := CurrentClaims(ctx); !ok {
			WriteError(ctx, utils.Unauthorized("authentication credentials were not provided"))
			return
		}
		ctx.Next()
	}
}
