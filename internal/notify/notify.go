// Package notify describes the user-visible outcome messages that
// controllers emit instead of failing.
package notify

import (
	"errors"

	"github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// Variant is the visual weight of a notice.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a transient message for the user.
type Notice struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Success builds a default notice.
func Success(description string) *Notice {
	return &Notice{Variant: VariantDefault, Title: "Success", Description: description}
}

// Error builds a destructive notice titled "Error".
func Error(description string) *Notice {
	return Failure("Error", description)
}

// Failure builds a destructive notice with a custom title.
func Failure(title, description string) *Notice {
	return &Notice{Variant: VariantDestructive, Title: title, Description: description}
}

// IsDestructive reports whether n reports a failure.
func (n *Notice) IsDestructive() bool {
	return n != nil && n.Variant == VariantDestructive
}

// String renders the notice on one line.
func (n *Notice) String() string {
	if n == nil {
		return ""
	}
	return n.Title + ": " + n.Description
}

// Message returns a user-facing description of err.
func Message(err error) string {
	var de *errorutil.DomainError
	if errors.As(err, &de) && de.Code != errorutil.CodeInternal {
		return de.Message
	}
	return "An unknown error occurred"
}
