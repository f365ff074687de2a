// Command storectl administers the storefront database: accounts, catalog
// seeding, order listings and delivery estimates.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/crypto/bcrypt"

	"github.com/Gantuuu/Elbeg-sub001/config"
	"github.com/Gantuuu/Elbeg-sub001/controllers"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

const usage = `usage: storectl <command> [flags]

commands:
  add-user       create a password account (-email -password -name -admin)
  seed           load products, bank accounts and holidays (-f catalog.yaml)
  next-delivery  print the delivery estimate (-at RFC3339)
  orders         list orders (-status)
  token          sign a provider token for local testing (-sub -email -name -ttl)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "token" {
		err = runToken(cfg, args, os.Stdout)
	} else {
		err = withStore(ctx, cfg, func(s store.Store) error {
			switch cmd {
			case "add-user":
				return runAddUser(ctx, s, args, os.Stdout)
			case "seed":
				return runSeed(ctx, s, args, os.Stdout)
			case "next-delivery":
				return runNextDelivery(ctx, s, cfg.Location, args, os.Stdout)
			case "orders":
				return runOrders(ctx, s, args, os.Stdout)
			}
			fmt.Fprint(os.Stderr, usage)
			return fmt.Errorf("unknown command %q", cmd)
		})
	}
	if err != nil {
		slog.Error("storectl failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func withStore(ctx context.Context, cfg *config.Config, fn func(store.Store) error) error {
	s, err := store.Open(ctx, store.Config{Driver: cfg.DBDriver, DSN: cfg.DatabaseURL, MongoDatabase: cfg.MongoDatabase})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close(context.Background())
	return fn(s)
}

func runAddUser(ctx context.Context, s store.UserStore, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "login password")
	name := fs.String("name", "", "display name")
	admin := fs.Bool("admin", false, "grant admin rights")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || len(*password) < 8 {
		return fmt.Errorf("-email is required and -password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		Name:         *name,
		PasswordHash: string(hash),
		IsAdmin:      *admin,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(out, "created user %d (%s, admin=%t)\n", u.ID, u.Email, u.IsAdmin)
	return nil
}

func runSeed(ctx context.Context, s store.Store, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	path := fs.String("f", "catalog.yaml", "catalog file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	c, err := parseCatalog(f)
	if err != nil {
		return err
	}
	n, err := seed(ctx, s, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %d products, %d bank accounts, %d non-delivery days\n",
		n.Products, n.BankAccounts, n.NonDeliveryDays)
	return nil
}

func runNextDelivery(ctx context.Context, s store.DeliveryStore, loc *time.Location, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("next-delivery", flag.ContinueOnError)
	at := fs.String("at", "", "order time in RFC3339, default now")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dc := controllers.NewDeliveryController(s, loc, false)
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("-at: %w", err)
		}
		dc.Now = func() time.Time { return t }
	}

	est, err := dc.Estimate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, est.Display)
	for _, lang := range []string{"mn", "en"} {
		fmt.Fprintf(out, "%s: %s\n", lang, est.MessageFor(lang))
	}
	return nil
}

func runOrders(ctx context.Context, s store.OrderStore, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	status := fs.String("status", "", "pending, processing, completed or cancelled")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := store.OrderFilter{}
	if *status != "" {
		st, err := models.ParseOrderStatus(*status)
		if err != nil {
			return err
		}
		f.Status = st
	}
	orders, err := s.ListOrders(ctx, f)
	if err != nil {
		return err
	}
	return printOrders(out, orders)
}

func printOrders(out io.Writer, orders []models.Order) error {
	table := tablewriter.NewWriter(out)
	table.Header([]string{"ID", "Created", "Status", "Customer", "Phone", "Items", "Total", "Delivery"})
	for _, o := range orders {
		err := table.Append([]string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.CreatedAt.Format("2006-01-02 15:04"),
			string(o.Status),
			o.CustomerName,
			o.CustomerPhone,
			strconv.Itoa(len(o.Items)),
			o.TotalAmount.StringFixed(2),
			o.DeliveryDate,
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func runToken(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	sub := fs.String("sub", "", "provider subject")
	email := fs.String("email", "", "email claim")
	name := fs.String("name", "", "name claim")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(cfg.AuthProviderSecret) == 0 {
		return fmt.Errorf("AUTH_PROVIDER_SECRET is not set")
	}
	tok, err := utils.SignProviderToken(cfg.AuthProviderSecret, *sub, *email, *name, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}
