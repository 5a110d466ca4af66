package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Store is the blocking query/execute surface the seeding engine works
// against. Both *sql.DB and *UnitOfWork satisfy it.
type Store interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// UnitOfWork wraps a transaction so a whole run can be committed once, or
// rolled back wholesale in dry-run mode while still executing every statement.
type UnitOfWork struct {
	tx       *sql.Tx
	finished bool
}

// Begin starts a unit of work on the managed connection.
func (m *Manager) Begin(ctx context.Context) (*UnitOfWork, error) {
	if m.DB == nil {
		return nil, fmt.Errorf("not connected")
	}
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &UnitOfWork{tx: tx}, nil
}

// QueryContext runs a query inside the unit of work.
func (u *UnitOfWork) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return u.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query inside the unit of work.
func (u *UnitOfWork) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return u.tx.QueryRowContext(ctx, query, args...)
}

// ExecContext runs a statement inside the unit of work.
func (u *UnitOfWork) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return u.tx.ExecContext(ctx, query, args...)
}

// Commit makes the unit of work durable. Calling it twice is an error.
func (u *UnitOfWork) Commit() error {
	if u.finished {
		return fmt.Errorf("unit of work already finished")
	}
	u.finished = true
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback discards the unit of work. Safe to call after Commit; it then
// does nothing, so callers can defer it.
func (u *UnitOfWork) Rollback() error {
	if u.finished {
		return nil
	}
	u.finished = true
	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	return nil
}
