package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// Store is a single database session. Statements issued through it share session state such as `USE DATABASE`.
type Store interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

// Opener creates a [Store], swapped out in tests.
type Opener func(ctx context.Context, driverName, dsn string) (Store, error)

type storeWrapper struct {
	*sql.Conn
	db *sql.DB
}

// Close releases the pinned session before closing the pool.
func (s *storeWrapper) Close() error {
	return errors.Join(s.Conn.Close(), s.db.Close())
}

func Open(ctx context.Context, driverName, dsn string) (Store, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to start a SQL client for driver %q: %w", driverName, err)
	}

	store, err := FromDB(ctx, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			slog.Warn("Failed to close the SQL client", slog.String("driverName", driverName), slog.Any("err", closeErr))
		}
		return nil, err
	}

	return store, nil
}

// FromDB validates [db] and pins one of its connections. The returned [Store] owns [db].
func FromDB(ctx context.Context, db *sql.DB) (Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate the DB connection: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire a DB session: %w", err)
	}

	return &storeWrapper{Conn: conn, db: db}, nil
}

func ExecStatements(ctx context.Context, store Store, statements []string) ([]sql.Result, error) {
	if len(statements) == 0 {
		return nil, fmt.Errorf("statements is empty")
	}

	var results []sql.Result
	for _, statement := range statements {
		slog.Debug("Executing...", slog.String("query", statement))
		result, err := store.ExecContext(ctx, statement)
		if err != nil {
			return nil, fmt.Errorf("failed to execute statement: %q, err: %w", statement, err)
		}

		results = append(results, result)
	}

	return results, nil
}
