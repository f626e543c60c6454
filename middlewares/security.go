package middlewares

import (
	"net/http"

	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// MaxRequestBody is the largest request body the API accepts.
const MaxRequestBody int64 = 5 << 20

// SecurityHeaders sets the hardening headers and rejects oversized bodies with 413.
func SecurityHeaders(maxBody int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		h := ctx.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")

		if ctx.Request.ContentLength > maxBody {
			ctx.Header("Cache-Control", "no-store")
			ctx.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"message": "request body too large",
				"code":    utils.CodeValidation,
			})
			return
		}
		if ctx.Request.Body != nil {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBody)
		}

		ctx.Next()
	}
}
