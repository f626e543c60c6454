package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/Kariqs/eshop-api/cache"
	"github.com/Kariqs/eshop-api/initializers"
	"github.com/Kariqs/eshop-api/middlewares"
	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.UseJSONFieldNames()
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	_, err := io.Copy(io.Discard, body)
	return "https://cdn.example.com/" + key, err
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	db     *gorm.DB
	users  *services.UserService
	tokens *utils.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, 10_000, nil)
}

func newTestServerWith(t *testing.T, anonPerHour int, trustedProxies []string) *testServer {
	t.Helper()
	db, err := initializers.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := cache.NewMemory()
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	users := services.NewUserService(db, tokens, logger)

	chain := middlewares.Chain(middlewares.ChainConfig{
		Logger:      logger,
		CORSOrigins: []string{"http://localhost:3000"},
		Tokens:      tokens,
		AnonLimiter: middlewares.NewHourlyLimiter(anonPerHour),
		UserLimiter: middlewares.NewHourlyLimiter(10_000),
	})
	engine, err := NewEngine(chain, trustedProxies, Deps{
		Carts:           services.NewCartService(db, mem, logger),
		Catalog:         services.NewCatalogService(db, mem, stubUploader{}, logger),
		Users:           users,
		TokenTTLSeconds: 3600,
	})
	require.NoError(t, err)
	return &testServer{t: t, engine: engine, db: db, users: users, tokens: tokens}
}

// client keeps the session cookie and an optional bearer token between requests.
type client struct {
	srv     *testServer
	cookies []*http.Cookie
	token   string
}

func (s *testServer) client() *client {
	return &client{srv: s}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.srv.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.srv.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	rec := httptest.NewRecorder()
	c.srv.engine.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (s *testServer) seed() (models.Category, models.Product, models.Product) {
	s.t.Helper()
	books := models.Category{Name: "Books", Slug: "books"}
	require.NoError(s.t, s.db.Create(&books).Error)
	book := models.Product{Name: "Go Book", Slug: "go-book", Description: "Learn Go", Price: decimal.RequireFromString("100.00"), Available: true, CategoryID: books.ID}
	require.NoError(s.t, s.db.Omit("Category").Create(&book).Error)
	hidden := models.Product{Name: "Hidden", Slug: "hidden", Price: decimal.RequireFromString("5.00"), Available: false, CategoryID: books.ID}
	require.NoError(s.t, s.db.Omit("Category").Create(&hidden).Error)
	return books, book, hidden
}

func (s *testServer) login(username, role string) string {
	s.t.Helper()
	data := models.SignupData{Username: username, Email: username + "@example.com", Password: "password1"}
	var (
		user *models.User
		err  error
	)
	if role == models.RoleAdmin {
		user, err = s.users.CreateAdmin(context.Background(), data)
	} else {
		user, err = s.users.Signup(context.Background(), data)
	}
	require.NoError(s.t, err)

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	require.NoError(s.t, err)
	return token
}

func itemsOf(body map[string]any) []any {
	items, _ := body["items"].([]any)
	return items
}

func TestAPIInfoAndVersions(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client()

	rec := c.do(http.MethodGet, "/api/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"v1", "v2"}, decodeJSON(t, rec)["versions"])

	rec = c.do(http.MethodGet, "/api/v9/products", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/api/v2/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v2", rec.Header().Get("X-API-Version"))
}

func TestStorefrontSessionCart(t *testing.T) {
	srv := newTestServer(t)
	_, book, hidden := srv.seed()
	c := srv.client()

	rec := c.do(http.MethodPost, "/cart/add/"+itoa(book.ID), map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, c.cookies, 1)
	assert.Equal(t, middlewares.SessionCookie, c.cookies[0].Name)

	rec = c.do(http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "200.00", body["total_price"])
	assert.EqualValues(t, 2, body["total_items"])
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))

	rec = c.do(http.MethodPost, "/cart/add/"+itoa(book.ID), map[string]any{"quantity": 5, "override": true})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeJSON(t, rec)
	assert.EqualValues(t, 5, body["total_items"])
	itemPath := "/cart/update/" + itoa(uint(itemsOf(body)[0].(map[string]any)["id"].(float64)))

	for _, quantity := range []int{0, 100} {
		rec = c.do(http.MethodPost, itemPath, map[string]any{"quantity": quantity})
		assert.Equal(t, http.StatusBadRequest, rec.Code, quantity)
		assert.Contains(t, decodeJSON(t, rec)["details"], "quantity")
	}
	rec = c.do(http.MethodPost, itemPath, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decodeJSON(t, rec)["total_items"])

	rec = c.do(http.MethodPost, "/cart/add/"+itoa(hidden.ID), map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// A different client never sees this cart.
	rec = srv.client().do(http.MethodGet, "/cart", nil)
	assert.Empty(t, itemsOf(decodeJSON(t, rec)))

	rec = c.do(http.MethodPost, "/cart/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, itemsOf(decodeJSON(t, rec)))
}

func TestCartAPI(t *testing.T) {
	srv := newTestServer(t)
	_, book, hidden := srv.seed()
	c := srv.client()

	rec := c.do(http.MethodPost, "/api/v1/carts", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cartID := uint(decodeJSON(t, rec)["id"].(float64))

	rec = c.do(http.MethodPost, "/api/v1/carts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	cartPath := "/api/v1/carts/" + itoa(cartID)
	rec = c.do(http.MethodPost, cartPath+"/add_item", map[string]any{"product_id": book.ID, "quantity": 60})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodPost, cartPath+"/add_item", map[string]any{"product_id": book.ID, "quantity": 50})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	items := itemsOf(body)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.EqualValues(t, 99, item["quantity"])
	assert.Equal(t, "9900.00", item["total_price"])
	assert.NotContains(t, body, "items_count")

	rec = c.do(http.MethodPost, cartPath+"/add_item", map[string]any{"product_id": book.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON(t, rec)["details"], "quantity")

	rec = c.do(http.MethodPost, cartPath+"/add_item", map[string]any{"product_id": hidden.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/api/v2/carts/"+itoa(cartID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rec)["items_count"])

	rec = c.do(http.MethodGet, cartPath+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeJSON(t, rec)
	assert.EqualValues(t, 99, summary["total_items"])
	assert.Equal(t, "9900.00", summary["total_price"])
	assert.EqualValues(t, 1, summary["items_count"])

	stranger := srv.client()
	stranger.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusNotFound, stranger.do(http.MethodGet, cartPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, stranger.do(http.MethodDelete, cartPath, nil).Code)

	rec = c.do(http.MethodPost, cartPath+"/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.00", decodeJSON(t, rec)["total_price"])

	rec = c.do(http.MethodGet, "/api/v1/carts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rec)["count"])

	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, cartPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, cartPath, nil).Code)
}

func TestCartItemsAPI(t *testing.T) {
	srv := newTestServer(t)
	_, book, _ := srv.seed()
	c := srv.client()

	rec := c.do(http.MethodPost, "/api/v1/carts", nil)
	cartID := uint(decodeJSON(t, rec)["id"].(float64))
	rec = c.do(http.MethodPost, "/api/v1/carts/"+itoa(cartID)+"/add_item", map[string]any{"product_id": book.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	itemID := uint(itemsOf(decodeJSON(t, rec))[0].(map[string]any)["id"].(float64))
	itemPath := "/api/v1/cart-items/" + itoa(itemID)

	rec = c.do(http.MethodGet, "/api/v1/cart-items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rec)["count"])

	rec = c.do(http.MethodPost, itemPath+"/increment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decodeJSON(t, rec)["quantity"])

	rec = c.do(http.MethodPatch, itemPath, map[string]any{"quantity": 150})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 99, decodeJSON(t, rec)["quantity"])

	rec = c.do(http.MethodPut, itemPath, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPut, itemPath, map[string]any{"quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, itemPath+"/decrement", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Item removed from cart", decodeJSON(t, rec)["message"])

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, itemPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, itemPath, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/v1/cart-items/abc", nil).Code)
}

func TestCatalogAPI(t *testing.T) {
	srv := newTestServer(t)
	srv.seed()
	c := srv.client()

	rec := c.do(http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
	page := decodeJSON(t, rec)
	assert.EqualValues(t, 1, page["count"])
	assert.EqualValues(t, 20, page["page_size"])
	compact := page["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "100.00", compact["price"])
	assert.Equal(t, "Books", compact["category_name"])
	assert.NotContains(t, compact, "description")

	rec = c.do(http.MethodGet, "/api/v2/products?page_size=500&page=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeJSON(t, rec)
	assert.EqualValues(t, 100, page["page_size"])
	assert.EqualValues(t, 1, page["page"])
	detailed := page["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "Learn Go", detailed["description"])

	rec = c.do(http.MethodGet, "/api/v1/products/go-book", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "books", decodeJSON(t, rec)["category"].(map[string]any)["slug"])
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/api/v1/products/hidden", nil).Code)

	rec = c.do(http.MethodGet, "/api/v1/search?query=go&min_price=50&max_price=10", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = c.do(http.MethodGet, "/api/v1/search?query=learn&category=books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rec)["count"])
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/v1/products?min_price=cheap", nil).Code)

	rec = c.do(http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	category := decodeJSON(t, rec)["results"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 1, category["products_count"])

	rec = c.do(http.MethodGet, "/api/v1/categories/books/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rec)["count"])

	rec = c.do(http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100.00", decodeJSON(t, rec)["avg_price"])

	rec = c.do(http.MethodGet, "/api/v1/featured", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON(t, rec)["categories"], 1)
}

func TestAuthAndProfile(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client()

	rec := c.do(http.MethodPost, "/api/auth/signup", map[string]any{"username": "carol", "email": "carol@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON(t, rec)["details"], "password")

	rec = c.do(http.MethodPost, "/api/auth/signup", map[string]any{"username": "carol", "email": "carol@example.com", "password": "long-enough"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do(http.MethodPost, "/api/auth/signup", map[string]any{"username": "carol", "email": "carol@example.com", "password": "long-enough"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/api/auth/login", map[string]any{"identifier": "carol", "password": "nope-nope"}).Code)
	rec = c.do(http.MethodPost, "/api/auth/login", map[string]any{"identifier": "carol", "password": "long-enough"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeJSON(t, rec)["token"].(string)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/profile/me", nil).Code)

	c.token = token
	c.do(http.MethodPost, "/api/v1/carts", nil)
	rec = c.do(http.MethodGet, "/api/v1/profile/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeJSON(t, rec)
	assert.Equal(t, "carol", profile["username"])
	assert.EqualValues(t, 1, profile["carts_count"])

	rec = c.do(http.MethodGet, "/api/v1/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeJSON(t, rec)["count"])

	rec = c.do(http.MethodGet, "/api/v1/profile/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order history is not implemented yet", decodeJSON(t, rec)["message"])
}

func TestAdminCatalog(t *testing.T) {
	srv := newTestServer(t)
	books, book, _ := srv.seed()

	user := srv.client()
	user.token = srv.login("dave", models.RoleUser)
	rec := user.do(http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "Nope", "price": "1.00", "category_id": books.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	anon := srv.client()
	assert.Equal(t, http.StatusUnauthorized, anon.do(http.MethodPost, "/api/v1/admin/categories", map[string]any{"name": "X"}).Code)

	admin := srv.client()
	admin.token = srv.login("erin", models.RoleAdmin)

	rec = admin.do(http.MethodPost, "/api/v1/admin/categories", map[string]any{"name": "Board Games"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "board-games", decodeJSON(t, rec)["slug"])

	rec = admin.do(http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "  Rust Book ", "price": "42.50", "category_id": books.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeJSON(t, rec)
	assert.Equal(t, "rust-book", created["slug"])
	assert.Equal(t, "42.50", created["price"])

	rec = admin.do(http.MethodPost, "/api/v1/admin/products", map[string]any{"name": "Free", "price": "0", "category_id": books.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = admin.do(http.MethodPatch, "/api/v1/admin/products/"+itoa(book.ID), map[string]any{"price": "80.00"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "80.00", decodeJSON(t, rec)["price"])

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="image"; filename="cover.png"`)
	partHeader.Set("Content-Type", "image/png")
	part, err := form.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products/"+itoa(book.ID)+"/image", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec = admin.send(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decodeJSON(t, rec)["image"], "https://cdn.example.com/products/")
}

func TestRateLimit_ForwardedForIsNotTrustedByDefault(t *testing.T) {
	srv := newTestServerWith(t, 2, nil)

	throttled := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i+1))
		req.Header.Set("X-Real-IP", "198.51.100."+strconv.Itoa(i+1))
		if srv.client().send(req).Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Equal(t, 8, throttled)
}

func TestRateLimit_ForwardedForFromTrustedProxy(t *testing.T) {
	srv := newTestServerWith(t, 2, []string{"203.0.113.9"})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i+1))
		assert.Equal(t, http.StatusOK, srv.client().send(req).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, http.StatusOK, srv.client().send(req).Code)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, srv.client().send(req).Code)
}
