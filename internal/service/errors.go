package service

import (
	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// Sentinel failures. Returned errors may carry extra details; compare with
// errors.Is.
var (
	ErrProductNotFound    = apperrors.NewNotFound("Product", nil)
	ErrInvalidCredentials = apperrors.NewUnauthorized("Invalid credentials")
	ErrUserExists         = apperrors.NewConflict("User already exists", nil)
	ErrResetTokenInvalid  = apperrors.NewValidationError("Reset token is invalid or expired", nil)
	ErrSessionInvalid     = apperrors.NewUnauthorized("Session expired or invalid")
)

func productNotFound(id string) error {
	return apperrors.NewNotFound("Product", map[string]any{"id": id})
}
