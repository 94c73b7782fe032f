package db

import (
	"context"
	"embed"
	"fmt"
	"time"

	"tms/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DB struct {
	*pgxpool.Pool

	// now stamps create_date on insert.
	now func() time.Time
}

// New opens a connection pool to the configured database and verifies it answers.
func New(ctx context.Context, c config.Database) (*DB, error) {
	// Create a configuration object
	cfg, err := pgxpool.ParseConfig(c.ConnString(c.DBName))
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Configure connection pool and statement cache
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}
	cfg.MinConns = c.MinConns
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	if c.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = c.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database %q: %w", c.DBName, err)
	}

	return Wrap(pool), nil
}

// Wrap builds a DB around an existing pool.
func Wrap(pool *pgxpool.Pool) *DB {
	return &DB{Pool: pool, now: time.Now}
}

// EnsureSchema creates the tables the service needs when they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("error listing schema files: %w", err)
	}
	for _, e := range entries {
		stmt, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("error reading %s: %w", e.Name(), err)
		}
		if _, err := db.Exec(ctx, string(stmt)); err != nil {
			return fmt.Errorf("error executing %s: %w", e.Name(), err)
		}
	}
	return nil
}
