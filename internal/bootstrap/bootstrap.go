// Package bootstrap makes sure the configured database exists before the
// service starts using it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"tms/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PostgreSQL error codes the check reacts to.
const (
	codeInvalidCatalogName = "3D000"
	codeDuplicateDatabase  = "42P04"
)

// Result tells what the check found.
type Result int

const (
	// Exists means the database was already there.
	Exists Result = iota
	// Created means the check created the database.
	Created
)

func (r Result) String() string {
	if r == Created {
		return "created"
	}
	return "exists"
}

// Conn is the part of *pgx.Conn the check uses.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// DialFunc opens a connection for a postgres URL.
type DialFunc func(ctx context.Context, connString string) (Conn, error)

// ConnectionError reports a connection failure other than a missing database:
// bad credentials, an unreachable host and the like.
type ConnectionError struct {
	DBName string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to database %q: %v", e.DBName, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

type Checker struct {
	Dial DialFunc
	Log  logrus.FieldLogger
}

// NewChecker returns a Checker that dials with pgx.
func NewChecker(log logrus.FieldLogger) *Checker {
	return &Checker{Dial: dialPgx, Log: log}
}

func dialPgx(ctx context.Context, connString string) (Conn, error) {
	return pgx.Connect(ctx, connString)
}

// Check is shorthand for NewChecker(log).Check(ctx, c).
func Check(ctx context.Context, c config.Database, log logrus.FieldLogger) (Result, error) {
	return NewChecker(log).Check(ctx, c)
}

// Check connects to the configured database. When the server says the
// database does not exist, it connects to the admin database and creates it.
// Other failures are returned as *ConnectionError and not retried.
func (ch *Checker) Check(ctx context.Context, c config.Database) (Result, error) {
	if c.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ConnectTimeout)
		defer cancel()
	}

	conn, err := ch.Dial(ctx, c.ConnString(c.DBName))
	if err == nil {
		_ = conn.Close(ctx)
		return Exists, nil
	}
	if !hasCode(err, codeInvalidCatalogName) {
		return Exists, &ConnectionError{DBName: c.DBName, Err: err}
	}

	ch.Log.WithField("database", c.DBName).Warn("Database does not exist. Attempting to create it...")

	admin, err := ch.Dial(ctx, c.ConnString(c.AdminDBName))
	if err != nil {
		return Exists, &ConnectionError{DBName: c.AdminDBName, Err: err}
	}
	defer admin.Close(ctx)

	// CREATE DATABASE cannot take parameters, so the name is quoted instead
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(c.DBName)); err != nil {
		if hasCode(err, codeDuplicateDatabase) {
			return Exists, nil
		}
		return Exists, fmt.Errorf("error creating database %q: %w", c.DBName, err)
	}
	return Created, nil
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
