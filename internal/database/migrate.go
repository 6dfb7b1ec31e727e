package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/busseva/busseva-backend/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrateConnectTimeout bounds the migration connection when the URL
// does not set connect_timeout itself. Value in seconds.
const migrateConnectTimeout = "5"

// Migrate applies the embedded schema migrations to the database.
// It is a no-op when the schema is already current. When ctx ends first,
// Migrate returns ctx's error and asks a running migration to stop after
// its current step.
func Migrate(ctx context.Context, databaseURL string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- migrateUp(WithConnectTimeout(databaseURL), stop) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		close(stop)
		return fmt.Errorf("migrate: %w", ctx.Err())
	}
}

func migrateUp(databaseURL string, stop <-chan struct{}) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-stop:
			m.GracefulStop <- true
		case <-finished:
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// WithConnectTimeout adds connect_timeout to a postgres URL that has none.
// Other DSN forms are returned unchanged.
func WithConnectTimeout(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return databaseURL
	}
	q := u.Query()
	if q.Get("connect_timeout") != "" {
		return databaseURL
	}
	q.Set("connect_timeout", migrateConnectTimeout)
	u.RawQuery = q.Encode()
	return u.String()
}
