package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/api/http/handlers"
	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/observability"
	"github.com/spec-kit/catalog-service/internal/repository"
	"github.com/spec-kit/catalog-service/internal/service"
	"github.com/spec-kit/catalog-service/internal/storage"
)

type testServer struct {
	app     *fiber.App
	metrics *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 60, PasswordResetTTLMinutes: 30, BcryptCost: 4},
	}
	kv := storage.NewMemory()
	dispatcher := events.NewInMemoryDispatcher()
	users := repository.NewMemoryUserRepository()

	authSvc := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:          users,
		SessionRepo:       repository.NewKVSessionRepository(kv),
		PasswordResetRepo: repository.NewKVPasswordResetRepository(kv),
		Dispatcher:        dispatcher,
	})
	require.NoError(t, repository.SeedUsers(context.Background(), users, repository.DefaultAccounts, authSvc.HashPassword))
	productSvc := service.NewProductService(cfg, service.ProductDependencies{
		ProductRepo: repository.NewKVProductRepository(kv, repository.SeedProductList()),
		Dispatcher:  dispatcher,
	})

	metrics := observability.NewMetrics()
	app := NewApp("catalog-test", AppDependencies{Logger: zap.NewNop(), Metrics: metrics, RequestTimeout: 5 * time.Second}, RouteConfig{
		Health:         handlers.NewHealthHandler("catalog-service", "test", map[string]handlers.Pinger{"store": kv}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authSvc),
		Products:       handlers.NewProductsHandler(productSvc),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc),
	})
	return &testServer{app: app, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "admin@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Auth.Token)
	return data.Auth.Token
}

func productIDs(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, env := s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "GET /health/live 200")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", env.Error.Message)

	status, env = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "admin@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, env = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "bad", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid email address", env.Error.Details["email"])
	assert.Equal(t, "Password must be at least 6 characters", env.Error.Details["password"])

	status, env = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "new@example.com", "password": strings.Repeat("x", 73)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password must be at most 72 bytes", env.Error.Details["password"])

	status, env = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "new@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"id":"2"`)

	token := s.login(t)
	status, env = s.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"1","email":"admin@example.com"}`, string(env.Data))

	status, _ = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = s.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/auth/password/reset/request", "", map[string]string{"email": "admin@example.com"})
	require.Equal(t, http.StatusCreated, status)
	var reset struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))

	status, env = s.do(t, http.MethodPost, "/auth/password/reset/confirm/"+reset.Token, "", map[string]string{
		"new_password": "abcdef", "confirm_password": "abcdeg",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Passwords don't match", env.Error.Details["confirmPassword"])

	status, env = s.do(t, http.MethodPost, "/auth/password/reset/confirm/"+reset.Token, "", map[string]string{"new_password": strings.Repeat("é", 40)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password must be at most 72 bytes", env.Error.Details["newPassword"])

	status, _ = s.do(t, http.MethodPost, "/auth/password/reset/confirm/"+reset.Token, "", map[string]string{"new_password": "abcdef"})
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "abcdef"})
	assert.Equal(t, http.StatusOK, status)
}

func TestProductsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/products", "/products/1", "/categories"} {
		status, env := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code, path)
	}
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	status, env := s.do(t, http.MethodGet, "/products?category=Electronics&minPrice=100&sort=price-desc", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"8", "4", "1"}, productIDs(t, env.Data))

	status, env = s.do(t, http.MethodGet, "/products?search=COFFEE", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"3"}, productIDs(t, env.Data))

	status, env = s.do(t, http.MethodGet, "/products?category=Toys", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, env = s.do(t, http.MethodGet, "/products?minPrice=cheap&sort=random", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Must be a number", env.Error.Details["minPrice"])
	assert.Equal(t, "Unknown sort option", env.Error.Details["sort"])

	status, env = s.do(t, http.MethodGet, "/categories", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), "Home & Kitchen")
}

func TestProductCRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	status, env := s.do(t, http.MethodPost, "/products", token, map[string]any{
		"name": "", "description": "LED", "category": "Garden", "price": 0, "rating": 3,
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Product name is required", env.Error.Details["name"])
	assert.Equal(t, "Price must be positive", env.Error.Details["price"])
	assert.Contains(t, env.Error.Details, "category")

	status, env = s.do(t, http.MethodPost, "/products", token, map[string]any{
		"name": "Desk Lamp", "description": "LED", "category": "Home & Kitchen", "price": 39.99, "rating": 4,
	})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		ID        string    `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	status, env = s.do(t, http.MethodPut, "/products/"+created.ID, token, map[string]any{"rating": 5})
	require.Equal(t, http.StatusOK, status)
	var updated struct {
		Name   string  `json:"name"`
		Rating float64 `json:"rating"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Desk Lamp", updated.Name)
	assert.Equal(t, 5.0, updated.Rating)

	status, _ = s.do(t, http.MethodDelete, "/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = s.do(t, http.MethodGet, "/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Product not found", env.Error.Message)

	status, _ = s.do(t, http.MethodDelete, "/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/nope", "/nope/again"} {
		status, env := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	}

	errs := s.metrics.Snapshot().Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "GET unmatched NOT_FOUND", errs[0].Key)
	assert.EqualValues(t, 2, errs[0].Count)
}

func TestMetricsKeyedByRoutePattern(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	for _, id := range []string{"404a", "404b"} {
		status, _ := s.do(t, http.MethodGet, "/products/"+id, token, nil)
		assert.Equal(t, http.StatusNotFound, status)
	}

	errs := s.metrics.Snapshot().Errors
	require.Len(t, errs, 1)
	assert.Equal(t, "GET /products/:id NOT_FOUND", errs[0].Key)
}
