package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/domain"
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

const sessionLocalsKey = "auth_session"

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and loads sessions.
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Handle enforces authentication for protected routes. The session is
// stored in fiber locals and in the request's user context.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	session, err := m.auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(sessionLocalsKey, session)
	c.SetUserContext(WithSession(c.UserContext(), session))
	return c.Next()
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// SessionFromFiber retrieves the authenticated session.
func SessionFromFiber(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionLocalsKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.Session)
	return session, ok
}
