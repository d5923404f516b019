package forms

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/notify"
	"github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

type stubProducts struct {
	product *domain.Product
	err     error
	created []domain.ProductInput
	updates map[string]domain.ProductUpdate
}

func (s *stubProducts) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func (s *stubProducts) CreateProduct(_ context.Context, in domain.ProductInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, in)
	p := domain.NewProduct("new", in, time.Now())
	return &p, nil
}

func (s *stubProducts) UpdateProduct(_ context.Context, id string, u domain.ProductUpdate) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.updates == nil {
		s.updates = map[string]domain.ProductUpdate{}
	}
	s.updates[id] = u
	return s.product, nil
}

func validForm() ProductForm {
	return ProductForm{
		Name:        "Desk Lamp",
		Description: "Warm light",
		Category:    "Home & Kitchen",
		Price:       "24.5",
		Rating:      "4",
	}
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 12.5, ParsePrice("12.5"))
	assert.Equal(t, 3.0, ParsePrice(" 3 "))
	assert.Zero(t, ParsePrice("abc"))
	assert.Zero(t, ParsePrice(""))
	assert.Equal(t, 12.0, ParsePrice("12abc"))
	assert.Equal(t, 0.5, ParsePrice(".5kg"))
	assert.Equal(t, 1500.0, ParsePrice("1.5e3 USD"))
	assert.Zero(t, ParsePrice("Inf"))
	assert.Zero(t, ParsePrice("NaN"))
	assert.Zero(t, ParsePrice("1e999"))
}

func TestProductForm_Validate(t *testing.T) {
	assert.Nil(t, validForm().Validate())

	fields := NewProductForm().Validate()
	assert.Equal(t, "Product name is required", fields["name"])
	assert.Equal(t, "Description is required", fields["description"])
	assert.Equal(t, "Category is required", fields["category"])
	assert.Equal(t, "Price must be positive", fields["price"])
	assert.NotContains(t, fields, "rating")
}

func TestProductForm_ValidateNonNumericText(t *testing.T) {
	form := validForm()
	form.Price = "Infinity"
	form.Rating = "NaN"
	fields := form.Validate()
	assert.Equal(t, "Price must be positive", fields["price"])
	assert.NotContains(t, fields, "rating")

	form.Price = "19.99 USD"
	assert.Nil(t, form.Validate())
	assert.Equal(t, 19.99, form.Input().Price)
}

func TestProductFormFrom(t *testing.T) {
	p := domain.Product{ID: "1", Name: "Pen", Description: "Blue", Category: "Other", Price: 1.25, Rating: 3}
	form := ProductFormFrom(p)
	assert.Equal(t, "1.25", form.Price)
	assert.Equal(t, "3", form.Rating)
	assert.Equal(t, p.Input(), form.Input())
}

func TestProductFormController_CreateInvalidSkipsService(t *testing.T) {
	products := &stubProducts{}
	res := NewProductFormController(products).Create(context.Background(), NewProductForm())

	assert.Empty(t, products.created)
	assert.NotEmpty(t, res.FieldErrors)
	require.NotNil(t, res.Notice)
	assert.Equal(t, "Validation error", res.Notice.Title)
	assert.Equal(t, "Please check the form for errors", res.Notice.Description)
	assert.Empty(t, res.Redirect)
	assert.False(t, res.OK())
}

func TestProductFormController_Create(t *testing.T) {
	products := &stubProducts{}
	res := NewProductFormController(products).Create(context.Background(), validForm())

	require.Len(t, products.created, 1)
	assert.Equal(t, 24.5, products.created[0].Price)
	assert.True(t, res.OK())
	assert.Equal(t, "Product created successfully", res.Notice.Description)
	assert.Equal(t, RouteProducts, res.Redirect)
}

func TestProductFormController_CreateFailure(t *testing.T) {
	products := &stubProducts{err: errors.New("boom")}
	res := NewProductFormController(products).Create(context.Background(), validForm())

	assert.True(t, res.Notice.IsDestructive())
	assert.Equal(t, "Failed to create product", res.Notice.Description)
	assert.Empty(t, res.Redirect)
}

func TestProductFormController_Update(t *testing.T) {
	products := &stubProducts{product: &domain.Product{ID: "7"}}
	res := NewProductFormController(products).Update(context.Background(), "7", validForm())

	require.Contains(t, products.updates, "7")
	u := products.updates["7"]
	require.NotNil(t, u.Name)
	assert.Equal(t, "Desk Lamp", *u.Name)
	assert.Equal(t, "/products/7", res.Redirect)
	assert.Equal(t, "Product updated successfully", res.Notice.Description)

	products.err = errors.New("boom")
	res = NewProductFormController(products).Update(context.Background(), "7", validForm())
	assert.Equal(t, "Failed to update product", res.Notice.Description)
	assert.Empty(t, res.Redirect)
}

func TestProductFormController_LoadForEdit(t *testing.T) {
	products := &stubProducts{product: &domain.Product{ID: "2", Name: "Shirt", Price: 19.99}}
	c := NewProductFormController(products)

	form, res := c.LoadForEdit(context.Background(), "2")
	assert.Equal(t, "Shirt", form.Name)
	assert.Equal(t, "19.99", form.Price)
	assert.Nil(t, res.Notice)

	products.err = errorutil.NewNotFound("Product", nil)
	_, res = c.LoadForEdit(context.Background(), "2")
	assert.Equal(t, "Failed to fetch product details", res.Notice.Description)
	assert.Equal(t, RouteProducts, res.Redirect)

	p, res := c.Show(context.Background(), "2")
	assert.Nil(t, p)
	assert.True(t, res.Notice.IsDestructive())
	assert.Equal(t, RouteProducts, res.Redirect)

	products.err = errors.New("offline")
	_, res = c.Show(context.Background(), "2")
	assert.Equal(t, "Failed to fetch product details", res.Notice.Description)
	assert.Empty(t, res.Redirect)
}

type stubAuth struct {
	err       error
	confirmed string
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (*domain.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Session{ID: "s1", User: domain.User{ID: "1", Email: email}}, nil
}

func (s *stubAuth) Register(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.Login(ctx, email, password)
}

func (s *stubAuth) RequestPasswordReset(_ context.Context, email string) (*domain.PasswordReset, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PasswordReset{Token: "tok", Email: email}, nil
}

func (s *stubAuth) ConfirmPasswordReset(_ context.Context, token, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.confirmed = token
	return nil
}

func TestAuthFormController_Login(t *testing.T) {
	a := &stubAuth{}
	c := NewAuthFormController(a)

	_, res := c.Login(context.Background(), "nope", "")
	assert.Equal(t, "Invalid email address", res.FieldErrors["email"])
	assert.Equal(t, "Password is required", res.FieldErrors["password"])

	session, res := c.Login(context.Background(), "admin@example.com", "password123")
	require.NotNil(t, session)
	assert.Equal(t, RouteProducts, res.Redirect)

	a.err = errorutil.NewUnauthorized("Invalid credentials")
	session, res = c.Login(context.Background(), "admin@example.com", "bad")
	assert.Nil(t, session)
	assert.Equal(t, notify.Failure("Login Failed", "Invalid credentials"), res.Notice)
	assert.Empty(t, res.Redirect)
}

func TestAuthFormController_Register(t *testing.T) {
	a := &stubAuth{}
	c := NewAuthFormController(a)

	_, res := c.Register(context.Background(), "new@example.com", "secret1", "secret2")
	assert.Equal(t, "Passwords don't match", res.FieldErrors["confirmPassword"])

	_, res = c.Register(context.Background(), "new@example.com", "abc", "abc")
	assert.Equal(t, "Password must be at least 6 characters", res.FieldErrors["password"])

	long := strings.Repeat("a", 73)
	session, res := c.Register(context.Background(), "new@example.com", long, long)
	assert.Nil(t, session)
	assert.Equal(t, "Password must be at most 72 bytes", res.FieldErrors["password"])

	a.err = errorutil.NewConflict("User already exists", nil)
	_, res = c.Register(context.Background(), "new@example.com", "secret1", "secret1")
	assert.Equal(t, "Registration Failed", res.Notice.Title)
	assert.Equal(t, "User already exists", res.Notice.Description)
}

func TestAuthFormController_Reset(t *testing.T) {
	a := &stubAuth{}
	c := NewAuthFormController(a)

	reset, res := c.RequestReset(context.Background(), "admin@example.com")
	require.NotNil(t, reset)
	assert.Equal(t, "Password reset link sent to your email", res.Notice.Description)

	res = c.ConfirmReset(context.Background(), "tok", "newpass", "newpass")
	assert.Equal(t, "tok", a.confirmed)
	assert.Equal(t, RouteLogin, res.Redirect)
	assert.Equal(t, "Password has been reset successfully", res.Notice.Description)

	res = c.ConfirmReset(context.Background(), "tok", "short", "short")
	assert.Contains(t, res.FieldErrors, "newPassword")

	a.err = errors.New("db down")
	res = c.ConfirmReset(context.Background(), "tok", "newpass", "newpass")
	assert.Equal(t, notify.Failure("Reset Failed", "An unknown error occurred"), res.Notice)
}
