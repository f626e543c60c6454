package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers panics and renders errors attached with ctx.Error
// that no handler wrote. It must be first in the chain.
func ErrorHandler(logger *slog.Logger, debug bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(ctxDebug, debug)

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx.Request.Context(), "panic recovered",
					slog.String("path", ctx.Request.URL.Path),
					slog.Any("panic", rec))
				if !ctx.Writer.Written() {
					WriteError(ctx, utils.Internal("internal server error", fmt.Errorf("panic: %v", rec)))
				}
				ctx.Abort()
			}
		}()

		ctx.Next()

		if len(ctx.Errors) > 0 && !ctx.Writer.Written() {
			WriteError(ctx, ctx.Errors.Last().Err)
		}
	}
}

// WriteError renders err as the JSON error body and aborts the chain.
// Internal errors only expose their cause when debugging is on.
func WriteError(ctx *gin.Context, err error) {
	appErr := utils.AsAppError(err)

	body := gin.H{
		"message": appErr.Message,
		"code":    appErr.Code,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	if appErr.Code == utils.CodeInternal {
		body["message"] = "internal server error"
		if ctx.GetBool(ctxDebug) {
			body["detail"] = appErr.Error()
		}
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.AbortWithStatusJSON(appErr.HTTPStatus(), body)
}

// NotFound answers unmatched routes in the common error format.
func NotFound() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		WriteError(ctx, utils.NotFound(http.StatusText(http.StatusNotFound)))
	}
}
