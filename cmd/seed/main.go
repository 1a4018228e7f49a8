// Package main loads the demo dataset into PostgreSQL and prints a bearer
// token for every demo account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rehab-hub/rehab-adherence/config"
	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/postgres"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/seed"
	httpserver "github.com/rehab-hub/rehab-adherence/internal/interface/http"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

func main() {
	password := flag.String("password", "rehab-demo", "password assigned to every demo account")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, *password); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.App.Store != config.StorePostgres {
		return fmt.Errorf("APP_STORE=%s: the memory store seeds itself at startup", cfg.App.Store)
	}

	log, err := logger.New(logger.Options{Level: logger.ParseLevel(cfg.Observability.LogLevel), Format: "console"})
	if err != nil {
		return err
	}
	defer log.Sync()

	conn, err := postgres.Connect(ctx, cfg.Database.URL, postgres.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ds := seed.Demo(time.Now().UTC())
	if err := seed.LoadPostgres(ctx, conn, ds, password); err != nil {
		return err
	}
	log.Info("demo data loaded",
		logger.Int("users", len(ds.Users)),
		logger.Int("categories", len(ds.Categories)),
		logger.Int("videos", len(ds.Videos)),
		logger.Int("schedules", len(ds.Schedules)),
	)

	auth, err := httpserver.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, timeutil.SystemClock)
	if err != nil {
		return err
	}
	for _, u := range ds.Users {
		token, err := auth.Issue(access.Caller{ID: u.ID, Role: u.Role})
		if err != nil {
			return fmt.Errorf("issue token for %s: %w", u.Email, err)
		}
		fmt.Printf("%-8s %-24s %s\n", u.Role, u.Email, token)
	}
	return nil
}
