// Package validation holds the request and form schemas shared by the HTTP
// handlers and the form controllers, so both report identical field errors.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return domain.IsValidCategory(fl.Field().String())
		})
		_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= auth.MaxPasswordBytes
		})
		_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
			f := fl.Field().Float()
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		})
		instance = v
	})
	return instance
}

// messages keyed by "field.tag", falling back to "tag".
var messages = map[string]string{
	"name.required":           "Product name is required",
	"description.required":    "Description is required",
	"category.required":       "Category is required",
	"category.category":       "Category must be one of the catalog categories",
	"price.gt":                "Price must be positive",
	"price.finite":            "Price must be a number",
	"rating.finite":           "Rating must be a number",
	"rating.gte":              "Rating must be at least 0",
	"rating.lte":              "Rating must be at most 5",
	"email.required":          "Email is required",
	"email.email":             "Invalid email address",
	"password.required":       "Password is required",
	"password.min":            "Password must be at least 6 characters",
	"bcryptlen":               "Password must be at most 72 bytes",
	"newPassword.min":         "Password must be at least 6 characters",
	"confirmPassword.min":     "Password must be at least 6 characters",
	"confirmPassword.eqfield": "Passwords don't match",
	"required":                "This field is required",
	"email":                   "Invalid email address",
	"eqfield":                 "Fields don't match",
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	return "Invalid value"
}

// Struct validates s and returns one message per failing field, keyed by
// the field's json name. A nil map means s is valid.
func Struct(s any) map[string]string {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

// Validate is Struct wrapped as a VALIDATION_FAILED DomainError, or nil.
func Validate(s any) error {
	fields := Struct(s)
	if fields == nil {
		return nil
	}
	details := make(map[string]any, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return errorutil.NewValidationError("Validation error", details)
}

// Credentials is the login schema.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the register schema.
type Registration struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6,bcryptlen"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// ResetRequest is the forgot-password schema.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirm is the choose-a-new-password schema.
type ResetConfirm struct {
	NewPassword     string `json:"newPassword" validate:"min=6,bcryptlen"`
	ConfirmPassword string `json:"confirmPassword" validate:"min=6,eqfield=NewPassword"`
}
