package forms

import (
	"context"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/notify"
	"github.com/spec-kit/catalog-service/internal/validation"
)

// AuthService is the slice of the auth service the account forms call.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, email, password string) (*domain.Session, error)
	RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error)
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// AuthFormController drives the login, register and password reset pages.
type AuthFormController struct {
	auth AuthService
}

// NewAuthFormController builds the controller.
func NewAuthFormController(auth AuthService) *AuthFormController {
	return &AuthFormController{auth: auth}
}

func invalid(fields map[string]string) Result {
	return Result{
		FieldErrors: fields,
		Notice:      notify.Failure("Validation error", "Please check the form for errors"),
	}
}

// Login signs in and returns the new session.
func (c *AuthFormController) Login(ctx context.Context, email, password string) (*domain.Session, Result) {
	if fields := validation.Struct(validation.Credentials{Email: email, Password: password}); fields != nil {
		return nil, invalid(fields)
	}
	session, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return nil, Result{Notice: notify.Failure("Login Failed", notify.Message(err))}
	}
	return session, Result{
		Notice:   notify.Success("Logged in successfully"),
		Redirect: RouteProducts,
	}
}

// Register creates an account and signs it in.
func (c *AuthFormController) Register(ctx context.Context, email, password, confirm string) (*domain.Session, Result) {
	form := validation.Registration{Email: email, Password: password, ConfirmPassword: confirm}
	if fields := validation.Struct(form); fields != nil {
		return nil, invalid(fields)
	}
	session, err := c.auth.Register(ctx, email, password)
	if err != nil {
		return nil, Result{Notice: notify.Failure("Registration Failed", notify.Message(err))}
	}
	return session, Result{
		Notice:   notify.Success("Account created successfully"),
		Redirect: RouteProducts,
	}
}

// RequestReset asks for a password reset link. The issued reset is
// returned so callers without a mailbox can continue the flow.
func (c *AuthFormController) RequestReset(ctx context.Context, email string) (*domain.PasswordReset, Result) {
	if fields := validation.Struct(validation.ResetRequest{Email: email}); fields != nil {
		return nil, invalid(fields)
	}
	reset, err := c.auth.RequestPasswordReset(ctx, email)
	if err != nil {
		return nil, Result{Notice: notify.Failure("Reset Failed", notify.Message(err))}
	}
	return reset, Result{Notice: notify.Success("Password reset link sent to your email")}
}

// ConfirmReset sets a new password using a reset token.
func (c *AuthFormController) ConfirmReset(ctx context.Context, token, newPassword, confirm string) Result {
	form := validation.ResetConfirm{NewPassword: newPassword, ConfirmPassword: confirm}
	if fields := validation.Struct(form); fields != nil {
		return invalid(fields)
	}
	if err := c.auth.ConfirmPasswordReset(ctx, token, newPassword); err != nil {
		return Result{Notice: notify.Failure("Reset Failed", notify.Message(err))}
	}
	return Result{
		Notice:   notify.Success("Password has been reset successfully"),
		Redirect: RouteLogin,
	}
}
