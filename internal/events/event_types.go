package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProductCreated         EventType = "product_created"
	EventProductUpdated         EventType = "product_updated"
	EventProductDeleted         EventType = "product_deleted"
	EventUserRegistered         EventType = "user_registered"
	EventUserLoggedIn           EventType = "user_logged_in"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Actor identifies who caused an event. Empty for anonymous callers.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProductChangedPayload carries the product name and the fields that
// changed, for create and update events.
type ProductChangedPayload struct {
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	ChangedFields []string `json:"changed_fields,omitempty"`
}

// ProductDeletedPayload payload.
type ProductDeletedPayload struct {
	Name string `json:"name"`
}

// UserPayload is attached to user_registered and user_logged_in.
type UserPayload struct {
	Email string `json:"email"`
}

// PasswordResetRequestedPayload payload.
type PasswordResetRequestedPayload struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
