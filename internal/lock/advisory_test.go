package lock

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goseed/internal/sqlutil"
)

func TestLockName(t *testing.T) {
	assert.Equal(t, "goseed:run:app", LockName("app"))
	assert.Equal(t, "goseed:run:my_db-1", LockName("my_db-1"))
	assert.Equal(t, "goseed:run:bad_name_", LockName("bad name;"))
}

func TestLockKey_Stable(t *testing.T) {
	assert.Equal(t, LockKey("goseed:run:app"), LockKey("goseed:run:app"))
	assert.NotEqual(t, LockKey("goseed:run:app"), LockKey("goseed:run:other"))
}

func TestRunLock_MySQLAcquireRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("goseed:run:app", 0).
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT RELEASE_LOCK").
		WithArgs("goseed:run:app").
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(int64(1)))

	l, err := New(context.Background(), db, sqlutil.MySQL, "app")
	require.NoError(t, err)

	require.NoError(t, l.Acquire(context.Background()))
	assert.True(t, l.IsHeld())

	require.NoError(t, l.Release(context.Background()))
	assert.False(t, l.IsHeld())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLock_MySQLHeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("goseed:run:app", 0).
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(int64(0)))

	l, err := New(context.Background(), db, sqlutil.MySQL, "app")
	require.NoError(t, err)

	err = l.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLockHeld))
	assert.False(t, l.IsHeld())
}

func TestRunLock_PostgresAcquireRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	key := LockKey(LockName("app"))
	mock.ExpectQuery("pg_try_advisory_lock").
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(true))
	mock.ExpectQuery("pg_advisory_unlock").
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(true))

	l, err := New(context.Background(), db, sqlutil.Postgres, "app")
	require.NoError(t, err)

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Release(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunLock_ReleaseWithoutAcquire(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l, err := New(context.Background(), db, sqlutil.Postgres, "app")
	require.NoError(t, err)

	// Never acquired: release only closes the reserved connection.
	require.NoError(t, l.Release(context.Background()))
}

func TestRunLock_AcquireTwiceIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT GET_LOCK").
		WithArgs("goseed:run:app", 0).
		WillReturnRows(sqlmock.NewRows([]string{"r"}).AddRow(int64(1)))

	l, err := New(context.Background(), db, sqlutil.MySQL, "app")
	require.NoError(t, err)

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))

	require.NoError(t, mock.ExpectationsWereMet())
}
