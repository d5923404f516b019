// Package client is a typed HTTP client for the catalog service. It
// implements the product and auth ports used by the catalog view and the
// form controllers, carrying the signed-in session between calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/catalog-service/internal/api/dto"
	"github.com/spec-kit/catalog-service/internal/domain"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

const defaultTimeout = 30 * time.Second

// Client talks to one catalog service.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	session *domain.Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession starts the client signed in.
func WithSession(s *domain.Session) Option {
	return func(c *Client) { c.session = s }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// SetSession replaces the current session.
func (c *Client) SetSession(s *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

type errorEnvelope struct {
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	var env dataEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// decodeError rebuilds the service's error envelope as a DomainError.
func decodeError(status int, raw []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return apperrors.NewDomainError(apperrors.CodeInternal, http.StatusText(status), status, nil)
	}
	return apperrors.NewDomainError(env.Error.Code, env.Error.Message, status, env.Error.Details)
}

// Login signs in and keeps the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp dto.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, dto.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	session := resp.Session()
	c.SetSession(session)
	return session, nil
}

// Register creates an account and keeps the returned session.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp dto.SessionResponse
	req := dto.RegisterRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	session := resp.Session()
	c.SetSession(session)
	return session, nil
}

// Logout ends the current session. The local session is dropped even when
// the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.token() == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	c.SetSession(nil)
	return err
}

// CurrentUser asks the service who the session belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var resp dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &domain.User{ID: resp.ID, Email: resp.Email}, nil
}

// RequestPasswordReset starts a reset for email.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error) {
	var resp dto.PasswordResetResponse
	if err := c.do(ctx, http.MethodPost, "/auth/password/reset/request", nil, dto.PasswordResetRequest{Email: email}, &resp); err != nil {
		return nil, err
	}
	return &domain.PasswordReset{Token: resp.Token, Email: email, ExpiresAt: resp.ExpiresAt}, nil
}

// ConfirmPasswordReset sets a new password with a reset token.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	path := "/auth/password/reset/confirm/" + url.PathEscape(token)
	return c.do(ctx, http.MethodPost, path, nil, dto.PasswordResetConfirmRequest{NewPassword: newPassword}, nil)
}

// Categories lists the allowed product categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProducts lists the products matching filter in server order.
func (c *Client) GetProducts(ctx context.Context, filter domain.FilterOptions) ([]domain.Product, error) {
	return c.ListProducts(ctx, filter, "")
}

// ListProducts lists the products matching filter, ordered by the server
// when opt is set.
func (c *Client) ListProducts(ctx context.Context, filter domain.FilterOptions, opt domain.SortOption) ([]domain.Product, error) {
	query := filterQuery(filter)
	if opt != "" {
		query.Set(dto.QuerySort, string(opt))
	}
	var resp []dto.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(resp))
	for _, p := range resp {
		out = append(out, p.Product())
	}
	return out, nil
}

func filterQuery(f domain.FilterOptions) url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set(dto.QueryCategory, f.Category)
	}
	setFloat := func(key string, v *float64) {
		if v != nil {
			q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	setFloat(dto.QueryMinPrice, f.MinPrice)
	setFloat(dto.QueryMaxPrice, f.MaxPrice)
	setFloat(dto.QueryMinRating, f.MinRating)
	if f.SearchTerm != "" {
		q.Set(dto.QuerySearch, f.SearchTerm)
	}
	return q
}

// GetProduct fetches one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return c.productCall(ctx, http.MethodGet, productPath(id), nil)
}

// CreateProduct adds a product.
func (c *Client) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	return c.productCall(ctx, http.MethodPost, "/products", dto.NewCreateProductRequest(in))
}

// UpdateProduct sends the set fields of update.
func (c *Client) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	return c.productCall(ctx, http.MethodPut, productPath(id), dto.NewUpdateProductRequest(update))
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil, nil)
}

func (c *Client) productCall(ctx context.Context, method, path string, body any) (*domain.Product, error) {
	var resp dto.ProductResponse
	if err := c.do(ctx, method, path, nil, body, &resp); err != nil {
		return nil, err
	}
	p := resp.Product()
	return &p, nil
}

func productPath(id string) string {
	return "/products/" + url.PathEscape(id)
}
