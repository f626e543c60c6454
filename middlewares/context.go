package middlewares

import (
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// Keys under which the chain stores request-scoped values on the gin context.
const (
	ctxUser       = "user"
	ctxAPIClient  = "api_client"
	ctxSessionKey = "session_key"
	ctxDebug      = "debug"
)

// CurrentClaims returns the claims of an authenticated user, if any.
func CurrentClaims(ctx *gin.Context) (*utils.Claims, bool) {
	value, exists := ctx.Get(ctxUser)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok
}

// CurrentUserID is the authenticated user's id, nil for anonymous requests.
func CurrentUserID(ctx *gin.Context) *uint {
	claims, ok := CurrentClaims(ctx)
	if !ok {
		return nil
	}
	id := claims.UserID
	return &id
}

// IsAPIClient reports whether the request presented the service API key.
func IsAPIClient(ctx *gin.Context) bool {
	return ctx.GetBool(ctxAPIClient)
}

// SessionKey is the anonymous session token assigned by Session.
func SessionKey(ctx *gin.Context) string {
	return ctx.GetString(ctxSessionKey)
}
