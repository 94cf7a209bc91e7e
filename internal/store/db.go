// Package store implements the scene catalog on Postgres using bun.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Options configures the database connection.
type Options struct {
	// Timeout bounds connection establishment and the initial ping.
	Timeout time.Duration
	// Debug logs every query with its arguments.
	Debug bool
}

// Open connects to Postgres and returns a bun handle.
func Open(ctx context.Context, dsn string, opts Options) (*bun.DB, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(opts.Timeout),
		pgdriver.WithDialTimeout(opts.Timeout),
	)

	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())

	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(10)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
