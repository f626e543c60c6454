package middlewares

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testTokens = utils.NewTokenIssuer("test-secret", time.Hour)

func newTestEngine(t *testing.T, anonPerHour int, debug bool) *gin.Engine {
	t.Helper()
	engine := gin.New()
	engine.Use(Chain(ChainConfig{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Debug:       debug,
		CORSOrigins: []string{"http://localhost:3000"},
		Tokens:      testTokens,
		APIKey:      "service-key",
		AnonLimiter: NewHourlyLimiter(anonPerHour),
		UserLimiter: NewHourlyLimiter(1000),
	})...)
	engine.NoRoute(NotFound())

	api := engine.Group("/api/:version")
	api.GET("/whoami", func(ctx *gin.Context) {
		body := gin.H{"session": SessionKey(ctx), "api_client": IsAPIClient(ctx)}
		if claims, ok := CurrentClaims(ctx); ok {
			body["user"] = claims.Username
		}
		ctx.JSON(http.StatusOK, body)
	})
	api.GET("/boom", func(ctx *gin.Context) { panic("kaboom") })
	api.GET("/fail", func(ctx *gin.Context) {
		_ = ctx.Error(utils.Internal("db down", io.ErrUnexpectedEOF))
	})
	api.DELETE("/thing", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
	api.POST("/echo", func(ctx *gin.Context) {
		raw, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			WriteError(ctx, utils.Validation("unreadable body"))
			return
		}
		ctx.String(http.StatusOK, string(raw))
	})
	api.GET("/me", RequireAuth(), func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	api.GET("/admin", RequireAdmin(), func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	api.GET("/cart", NoStore(), func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	return engine
}

func do(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := testTokens.Issue(7, "alice", role)
	require.NoError(t, err)
	return "Bearer " + token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChain_Headers(t *testing.T) {
	engine := newTestEngine(t, 100, false)

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/api/v2/whoami", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "v2", rec.Header().Get("X-API-Version"))
	assert.True(t, strings.HasSuffix(rec.Header().Get("X-API-Response-Time"), "s"))
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "Accept, Accept-Language", rec.Header().Get("Vary"))

	rec = do(engine, httptest.NewRequest(http.MethodDelete, "/api/v1/thing", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-API-Response-Time"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	rec = do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
}

func TestSession_AssignsAndKeepsCookie(t *testing.T) {
	engine := newTestEngine(t, 100, false)

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.NoError(t, uuid.Validate(cookies[0].Value))
	assert.Equal(t, cookies[0].Value, decode(t, rec)["session"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.AddCookie(cookies[0])
	rec = do(engine, req)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, cookies[0].Value, decode(t, rec)["session"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
	rec = do(engine, req)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "forged", decode(t, rec)["session"])
}

func TestAuthenticate(t *testing.T) {
	engine := newTestEngine(t, 100, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleUser))
	assert.Equal(t, "alice", decode(t, do(engine, req))["user"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	body := decode(t, do(engine, req))
	assert.NotContains(t, body, "user")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("X-API-Key", "service-key")
	assert.Equal(t, true, decode(t, do(engine, req))["api_client"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("X-API-Key", "wrong")
	assert.Equal(t, false, decode(t, do(engine, req))["api_client"])
}

func TestRequireAuthAndAdmin(t *testing.T) {
	engine := newTestEngine(t, 100, false)

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, rec)["code"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, do(engine, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleAdmin))
	assert.Equal(t, http.StatusOK, do(engine, req).Code)
}

func TestRateLimit(t *testing.T) {
	engine := newTestEngine(t, 2, false)

	for range 2 {
		assert.Equal(t, http.StatusOK, do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)).Code)
	}
	rec := do(engine, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	// Authenticated users have their own budget.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", bearer(t, models.RoleUser))
	assert.Equal(t, http.StatusOK, do(engine, req).Code)
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := NewHourlyLimiter(1)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
}

func TestKeyedRateLimiter_PrunesIdleBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewHourlyLimiter(100)
	rl.now = func() time.Time { return now }
	assert.Equal(t, time.Hour, rl.IdleAfter())

	for i := 0; i < 1000; i++ {
		rl.Allow("ip:" + strconv.Itoa(i))
	}
	require.Equal(t, 1000, rl.Len())

	now = now.Add(30 * time.Minute)
	assert.True(t, rl.Allow("ip:7"))
	assert.Zero(t, rl.Prune())

	now = now.Add(31 * time.Minute)
	assert.Equal(t, 999, rl.Prune())
	assert.Equal(t, 1, rl.Len())

	// A spent bucket keeps its state until it is idle.
	for rl.Allow("ip:7") {
	}
	assert.Zero(t, rl.Prune())
	assert.False(t, rl.Allow("ip:7"))
}

func TestKeyedRateLimiter_CleanupLoop(t *testing.T) {
	start := time.Now()
	rl := NewHourlyLimiter(10)
	rl.now = func() time.Time { return start }
	for i := 0; i < 50; i++ {
		rl.Allow("user:" + strconv.Itoa(i))
	}

	rl.now = func() time.Time { return start.Add(2 * time.Hour) }
	rl.StartCleanup(5 * time.Millisecond)
	t.Cleanup(rl.Stop)

	require.Eventually(t, func() bool { return rl.Len() == 0 }, time.Second, 5*time.Millisecond)
	rl.Stop()
	rl.Stop()
}

func TestErrorHandler(t *testing.T) {
	t.Run("panic hides detail", func(t *testing.T) {
		rec := do(newTestEngine(t, 100, false), httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "internal server error", body["message"])
		assert.NotContains(t, body, "detail")
	})

	t.Run("debug shows detail", func(t *testing.T) {
		rec := do(newTestEngine(t, 100, true), httptest.NewRequest(http.MethodGet, "/api/v1/fail", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decode(t, rec)["detail"], "db down")
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := do(newTestEngine(t, 100, false), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
	})
}

func TestSecurityHeaders_BodyLimit(t *testing.T) {
	engine := newTestEngine(t, 100, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader("hello"))
	rec := do(engine, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	big := strings.Repeat("x", int(MaxRequestBody)+1)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(big))
	rec = do(engine, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	engine := newTestEngine(t, 100, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/whoami", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := do(engine, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
