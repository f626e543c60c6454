package middlewares

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	headerResponseTime = "X-API-Response-Time"
	headerAPIVersion   = "X-API-Version"
	defaultAPIVersion  = "v1"
)

// timedWriter stamps the response-time header right before the first byte goes out.
type timedWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *timedWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	w.Header().Set(headerResponseTime, formatDuration(time.Since(w.start)))
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RequestLogger logs one line per request and tags API responses with their
// version and processing time.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		isAPI := strings.HasPrefix(path, "/api/")

		if isAPI {
			version := ctx.Param("version")
			if version == "" {
				version = defaultAPIVersion
			}
			ctx.Header(headerAPIVersion, version)
			writer := &timedWriter{ResponseWriter: ctx.Writer, start: start}
			ctx.Writer = writer
			defer func() { ctx.Writer = writer.ResponseWriter }()
		}

		ctx.Next()

		elapsed := time.Since(start)
		if isAPI && !ctx.Writer.Written() {
			ctx.Header(headerResponseTime, formatDuration(elapsed))
		}

		attrs := []slog.Attr{
			slog.String("method", ctx.Request.Method),
			slog.String("path", path),
			slog.Int("status", ctx.Writer.Status()),
			slog.Duration("duration", elapsed),
			slog.String("client_ip", ctx.ClientIP()),
		}
		if claims, ok := CurrentClaims(ctx); ok {
			attrs = append(attrs, slog.String("user", claims.Username))
		}

		level := slog.LevelInfo
		if ctx.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.LogAttrs(ctx.Request.Context(), level, "request", attrs...)
	}
}
