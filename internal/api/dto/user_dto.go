package dto

import (
	"time"

	"github.com/spec-kit/catalog-service/internal/domain"
)

// RegisterRequest payload for new accounts. ConfirmPassword may be omitted
// by API clients; it then defaults to Password.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest starts a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest finishes a reset.
type PasswordResetConfirmRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionResponse is returned by login and register.
type SessionResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// PasswordResetResponse carries the issued reset token.
type PasswordResetResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email}
}

// NewSessionResponse maps a domain session.
func NewSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		User: NewUserResponse(s.User),
		Auth: AuthResponse{SessionID: s.ID, Token: s.Token, ExpiresAt: s.ExpiresAt},
	}
}

// Session converts the response back into a domain session.
func (r SessionResponse) Session() *domain.Session {
	return &domain.Session{
		ID:        r.Auth.SessionID,
		Token:     r.Auth.Token,
		User:      domain.User{ID: r.User.ID, Email: r.User.Email},
		ExpiresAt: r.Auth.ExpiresAt,
	}
}
