package seeder

import (
	"context"
	"math/rand"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goseed/internal/schema"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

func TestSampleBound(t *testing.T) {
	tests := []struct {
		target   int
		expected int
	}{
		{1, PoolFloor},            // floor kicks in
		{33, PoolFloor},           // 99 still under the floor
		{50, 150},                 // plain multiplier
		{5000, PoolCeiling},           // ceiling kicks in
		{PoolCeiling, PoolCeiling},    // far past the ceiling
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SampleBound(tt.target), "target %d", tt.target)
	}
}

func TestPoolManager_GetLoadsOnceAndCaches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fk := &schema.ForeignKey{
		Name:       "orders_user_id_fkey",
		Columns:    []string{"user_id"},
		RefSchema:  "public",
		RefTable:   "users",
		RefColumns: []string{"id"},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "public"."users" ORDER BY "id" LIMIT 150`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)).AddRow(int64(3)))

	m := NewPoolManager(db, sqlutil.Postgres, 50)

	pool, err := m.Get(context.Background(), fk)
	require.NoError(t, err)
	assert.Equal(t, 3, pool.Len())

	// Second call must hit the cache, not the database.
	again, err := m.Get(context.Background(), fk)
	require.NoError(t, err)
	assert.Same(t, pool, again)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManager_SharedCacheAcrossKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "public"."users" ORDER BY "id" LIMIT 150`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	m := NewPoolManager(db, sqlutil.Postgres, 50)

	// Two different foreign keys into the same referenced columns share
	// one pool.
	sender := &schema.ForeignKey{Columns: []string{"sender_id"}, RefSchema: "public", RefTable: "users", RefColumns: []string{"id"}}
	recipient := &schema.ForeignKey{Columns: []string{"recipient_id"}, RefSchema: "public", RefTable: "users", RefColumns: []string{"id"}}

	a, err := m.Get(context.Background(), sender)
	require.NoError(t, err)
	b, err := m.Get(context.Background(), recipient)
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_Sample(t *testing.T) {
	pool := &Pool{Tuples: [][]interface{}{{int64(1)}, {int64(2)}, {int64(3)}}}
	r := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		tuple := pool.Sample(r)
		require.Len(t, tuple, 1)
		assert.Contains(t, []int64{1, 2, 3}, tuple[0].(int64))
	}

	empty := &Pool{}
	assert.Nil(t, empty.Sample(r))
}

func TestPool_SampleDeterministic(t *testing.T) {
	pool := &Pool{Tuples: [][]interface{}{{int64(1)}, {int64(2)}, {int64(3)}, {int64(4)}}}

	draw := func() []interface{} {
		r := rand.New(rand.NewSource(7))
		var out []interface{}
		for i := 0; i < 20; i++ {
			out = append(out, pool.Sample(r)[0])
		}
		return out
	}

	assert.Equal(t, draw(), draw())
}

func TestPool_DistinctAt(t *testing.T) {
	pool := &Pool{Tuples: [][]interface{}{
		{int64(1), "a"},
		{int64(1), "b"},
		{int64(2), "a"},
		{nil, "c"},
	}}

	assert.Equal(t, []interface{}{int64(1), int64(2)}, pool.DistinctAt(0))
	assert.Equal(t, []interface{}{"a", "b", "c"}, pool.DistinctAt(1))
}
