package domain

import (
	"strings"
	"time"
)

// User is an account allowed to manage the catalog. PasswordHash is never
// sent to clients.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail trims surrounding whitespace. Lookups stay case-sensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
