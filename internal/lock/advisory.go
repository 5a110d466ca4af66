// Package lock provides session-level advisory locking so only one goseed
// run writes to a target database at a time.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/dbsmedya/goseed/internal/sqlutil"
)

// ErrLockHeld is returned when another goseed instance already holds the
// run lock for the target database.
var ErrLockHeld = errors.New("run lock is held by another instance")

// RunLock is a named advisory lock pinned to a dedicated connection.
// MySQL backs it with GET_LOCK/RELEASE_LOCK, PostgreSQL with
// pg_try_advisory_lock/pg_advisory_unlock. Both are released automatically
// if the session dies, so a crashed run never wedges the target.
type RunLock struct {
	conn    *sql.Conn
	dialect sqlutil.Dialect
	name    string
	held    bool
}

// New creates a run lock for the given database. The lock is pinned to its
// own connection because both backends scope advisory locks to the session
// that took them; a pooled connection could hand the session to another
// statement.
func New(ctx context.Context, db *sql.DB, dialect sqlutil.Dialect, databaseName string) (*RunLock, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve lock connection: %w", err)
	}
	return &RunLock{
		conn:    conn,
		dialect: dialect,
		name:    LockName(databaseName),
	}, nil
}

// LockName creates a consistent lock name for a target database.
// Names follow the format "goseed:run:{database}".
func LockName(databaseName string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, databaseName)
	return fmt.Sprintf("goseed:run:%s", sanitized)
}

// Name returns the advisory lock name in use.
func (l *RunLock) Name() string {
	return l.name
}

// IsHeld reports whether this instance currently holds the lock.
func (l *RunLock) IsHeld() bool {
	return l.held
}

// Acquire takes the lock without waiting. It returns ErrLockHeld when
// another instance has it, and other errors for backend failures.
func (l *RunLock) Acquire(ctx context.Context) error {
	if l.held {
		return nil
	}

	acquired, err := l.tryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLockHeld, l.name)
	}
	l.held = true
	return nil
}

func (l *RunLock) tryAcquire(ctx context.Context) (bool, error) {
	if l.dialect == sqlutil.MySQL {
		// GET_LOCK returns 1 on success, 0 on timeout, NULL on error.
		var result sql.NullInt64
		err := l.conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", l.name, 0).Scan(&result)
		if err != nil {
			return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
		}
		if !result.Valid {
			return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", l.name)
		}
		return result.Int64 == 1, nil
	}

	var acquired bool
	err := l.conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", LockKey(l.name)).Scan(&acquired)
	if err != nil {
		return false, fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
	}
	return acquired, nil
}

// Release gives the lock back and closes the dedicated connection. Safe to
// call when the lock was never acquired; callers can defer it.
func (l *RunLock) Release(ctx context.Context) error {
	defer l.conn.Close()

	if !l.held {
		return nil
	}
	l.held = false

	if l.dialect == sqlutil.MySQL {
		var result sql.NullInt64
		err := l.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", l.name).Scan(&result)
		if err != nil {
			return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
		}
		if !result.Valid || result.Int64 != 1 {
			return fmt.Errorf("lock %q was not held by this session", l.name)
		}
		return nil
	}

	var released bool
	err := l.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", LockKey(l.name)).Scan(&released)
	if err != nil {
		return fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
	}
	if !released {
		return fmt.Errorf("lock %q was not held by this session", l.name)
	}
	return nil
}

// LockKey maps a lock name onto the 64-bit key space PostgreSQL advisory
// locks use. MySQL takes the name directly and never calls this.
func LockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
