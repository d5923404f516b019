// Command catalogctl manages the product catalog from a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/catalog-service/internal/catalog"
	"github.com/spec-kit/catalog-service/internal/domain"
	"github.com/spec-kit/catalog-service/internal/forms"
	"github.com/spec-kit/catalog-service/internal/notify"
	"github.com/spec-kit/catalog-service/pkg/client"
)

const (
	serverFlag      = "server"
	sessionFileFlag = "session-file"
	verboseFlag     = "verbose"

	serverEnv = "CATALOG_SERVER"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	client *client.Client
	store  *client.FileSessionStore
	logger *zap.Logger
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	global := pflag.NewFlagSet("catalogctl", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(errOut)
	server := global.String(serverFlag, envOr(serverEnv, "http://localhost:8080"), "catalog service base URL")
	sessionFile := global.String(sessionFileFlag, defaultSessionFile(), "where the login session is kept")
	verbose := global.BoolP(verboseFlag, "v", false, "log diagnostics to stderr")
	global.Usage = func() { usage(errOut, global) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		usage(errOut, global)
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
		}
	}
	defer logger.Sync() //nolint:errcheck

	store := client.NewFileSessionStore(*sessionFile)
	session, err := store.Load()
	if err != nil {
		logger.Warn("ignoring stored session", zap.Error(err))
		session = nil
	}

	c := &cli{
		client: client.New(*server, client.WithSession(session)),
		store:  store,
		logger: logger,
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n", name)
		usage(errOut, global)
		return 2
	}
	if err := cmd.run(ctx, c, rest); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, pflag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer, global *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: catalogctl [flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fmt.Fprint(w, global.FlagUsages())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".catalogctl-session.json"
	}
	return filepath.Join(dir, "catalogctl", "session.json")
}

// report prints a notice and turns a destructive one into an error.
func (c *cli) report(n *notify.Notice) error {
	if n == nil {
		return nil
	}
	if n.IsDestructive() {
		return errors.New(n.String())
	}
	fmt.Fprintln(c.out, n.String())
	return nil
}

func (c *cli) result(res forms.Result) error {
	for field, msg := range res.FieldErrors {
		fmt.Fprintf(c.errOut, "  %s: %s\n", field, msg)
	}
	if err := c.report(res.Notice); err != nil {
		return err
	}
	if res.Redirect != "" {
		c.logger.Debug("redirect", zap.String("route", res.Redirect))
	}
	return nil
}

func (c *cli) confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *cli) saveSession(s *domain.Session) error {
	if err := c.store.Save(s); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func printProducts(w io.Writer, products []domain.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.1f\n", p.ID, p.Name, p.Category, p.Price, p.Rating)
	}
	_ = tw.Flush()
}

func printProduct(w io.Writer, p domain.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "Category:\t%s\n", p.Category)
	fmt.Fprintf(tw, "Price:\t%.2f\n", p.Price)
	fmt.Fprintf(tw, "Rating:\t%.1f\n", p.Rating)
	fmt.Fprintf(tw, "Created:\t%s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", p.UpdatedAt.Format(time.RFC3339))
	_ = tw.Flush()
}

func newCatalog(c *cli) *catalog.Controller {
	return catalog.NewController(c.client, c.logger)
}
