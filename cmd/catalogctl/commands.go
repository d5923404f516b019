package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/forms"
)

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commandOrder = []string{
	"login", "register", "logout", "whoami", "reset-request", "reset-confirm",
	"categories", "list", "show", "create", "edit", "delete",
}

var commands = map[string]command{
	"login":         {"sign in and remember the session", runLogin},
	"register":      {"create an account and sign in", runRegister},
	"logout":        {"end the current session", runLogout},
	"whoami":        {"show the signed-in user", runWhoami},
	"reset-request": {"request a password reset token", runResetRequest},
	"reset-confirm": {"set a new password with a reset token", runResetConfirm},
	"categories":    {"list product categories", runCategories},
	"list":          {"list products with optional filters and sort", runList},
	"show":          {"show one product", runShow},
	"create":        {"create a product", runCreate},
	"edit":          {"edit a product", runEdit},
	"delete":        {"delete a product", runDelete},
}

func newFlagSet(c *cli, name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func positional(fs *pflag.FlagSet, what string) (string, error) {
	if fs.NArg() != 1 {
		fmt.Fprintf(fs.Output(), "usage: catalogctl %s <%s>\n", fs.Name(), what)
		return "", errUsage
	}
	return fs.Arg(0), nil
}

func runLogin(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "login")
	email := fs.StringP("email", "e", "", "account email")
	password := fs.StringP("password", "p", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	session, res := forms.NewAuthFormController(c.client).Login(ctx, *email, *password)
	if err := c.result(res); err != nil {
		return err
	}
	return c.saveSession(session)
}

func runRegister(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "register")
	email := fs.StringP("email", "e", "", "account email")
	password := fs.StringP("password", "p", "", "account password")
	confirm := fs.String("confirm", "", "repeat the password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	session, res := forms.NewAuthFormController(c.client).Register(ctx, *email, *password, *confirm)
	if err := c.result(res); err != nil {
		return err
	}
	return c.saveSession(session)
}

func runLogout(ctx context.Context, c *cli, _ []string) error {
	err := c.client.Logout(ctx)
	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	if err != nil {
		c.logger.Debug("server logout failed", zap.Error(err))
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func runWhoami(ctx context.Context, c *cli, _ []string) error {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (id %s)\n", user.Email, user.ID)
	return nil
}

func runResetRequest(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "reset-request")
	email := fs.StringP("email", "e", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	reset, res := forms.NewAuthFormController(c.client).RequestReset(ctx, *email)
	if err := c.result(res); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "token: %s\n", reset.Token)
	return nil
}

func runResetConfirm(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "reset-confirm")
	token := fs.String("token", "", "reset token")
	password := fs.StringP("password", "p", "", "new password")
	confirm := fs.String("confirm", "", "repeat the new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		fmt.Fprintln(c.errOut, "--token flag: required")
		return errUsage
	}
	return c.result(forms.NewAuthFormController(c.client).ConfirmReset(ctx, *token, *password, *confirm))
}

func runCategories(ctx context.Context, c *cli, _ []string) error {
	categories, err := c.client.Categories(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, strings.Join(categories, "\n"))
	return nil
}

func runList(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "list")
	category := fs.StringP("category", "c", "", "exact category")
	minPrice := fs.Float64("min-price", 0, "lowest price")
	maxPrice := fs.Float64("max-price", 0, "highest price")
	minRating := fs.Float64("min-rating", 0, "lowest rating")
	search := fs.StringP("search", "s", "", "text in name or description")
	sortBy := fs.String("sort", string(domain.DefaultSort), "name, price-asc, price-desc or rating-desc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opt, err := domain.ParseSortOption(*sortBy)
	if err != nil {
		return err
	}

	filter := domain.FilterOptions{Category: *category, SearchTerm: *search}
	if fs.Changed("min-price") {
		filter.MinPrice = minPrice
	}
	if fs.Changed("max-price") {
		filter.MaxPrice = maxPrice
	}
	if fs.Changed("min-rating") {
		filter.MinRating = minRating
	}

	view := newCatalog(c)
	view.SetSort(opt)
	if err := c.report(view.SetFilters(ctx, filter)); err != nil {
		return err
	}
	products := view.Products()
	if len(products) == 0 {
		fmt.Fprintln(c.out, "No products found")
		return nil
	}
	printProducts(c.out, products)
	return nil
}

func runShow(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "id")
	if err != nil {
		return err
	}
	product, res := forms.NewProductFormController(c.client).Show(ctx, id)
	if err := c.result(res); err != nil {
		return err
	}
	printProduct(c.out, *product)
	return nil
}

type productFlags struct {
	name, description, category, price, rating *string
}

func bindProductFlags(fs *pflag.FlagSet, defaults forms.ProductForm) productFlags {
	return productFlags{
		name:        fs.StringP("name", "n", defaults.Name, "product name"),
		description: fs.StringP("description", "d", defaults.Description, "product description"),
		category:    fs.StringP("category", "c", defaults.Category, "one of the catalog categories"),
		price:       fs.String("price", defaults.Price, "price, greater than 0"),
		rating:      fs.String("rating", defaults.Rating, "rating from 0 to 5"),
	}
}

func (p productFlags) apply(fs *pflag.FlagSet, form *forms.ProductForm) {
	set := func(flag string, dst *string, val *string) {
		if fs.Changed(flag) {
			*dst = *val
		}
	}
	set("name", &form.Name, p.name)
	set("description", &form.Description, p.description)
	set("category", &form.Category, p.category)
	set("price", &form.Price, p.price)
	set("rating", &form.Rating, p.rating)
}

func runCreate(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "create")
	form := forms.NewProductForm()
	flags := bindProductFlags(fs, form)
	if err := fs.Parse(args); err != nil {
		return err
	}
	flags.apply(fs, &form)
	return c.result(forms.NewProductFormController(c.client).Create(ctx, form))
}

func runEdit(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "edit")
	flags := bindProductFlags(fs, forms.ProductForm{})
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "id")
	if err != nil {
		return err
	}

	controller := forms.NewProductFormController(c.client)
	form, res := controller.LoadForEdit(ctx, id)
	if err := c.result(res); err != nil {
		return err
	}
	flags.apply(fs, &form)
	return c.result(controller.Update(ctx, id, form))
}

func runDelete(ctx context.Context, c *cli, args []string) error {
	fs := newFlagSet(c, "delete")
	yes := fs.BoolP("yes", "y", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "id")
	if err != nil {
		return err
	}

	view := newCatalog(c)
	view.RequestDelete(id)
	if !*yes && !c.confirm(fmt.Sprintf("Delete product %s?", id)) {
		view.CancelDelete()
		fmt.Fprintln(c.out, "Cancelled")
		return nil
	}
	return c.report(view.ConfirmDelete(ctx))
}
