package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "sessionid"
	sessionMaxAge = 14 * 24 * time.Hour
)

// Session gives every client a stable anonymous session token. A missing or
// malformed cookie is replaced with a fresh random one.
func Session(secure bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key, err := ctx.Cookie(SessionCookie)
		if err != nil || uuid.Validate(key) != nil {
			key = uuid.NewString()
			http.SetCookie(ctx.Writer, &http.Cookie{
				Name:     SessionCookie,
				Value:    key,
				Path:     "/",
				MaxAge:   int(sessionMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx.Set(ctxSessionKey, key)
		ctx.Next()
	}
}
