package seeder

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goseed/internal/config"
	"github.com/dbsmedya/goseed/internal/produce"
	"github.com/dbsmedya/goseed/internal/schema"
)

func newTestProducer(seed int64) (*rand.Rand, *produce.Producer) {
	r := rand.New(rand.NewSource(seed))
	return r, produce.NewProducer(r, produce.DefaultRegistry(), nil)
}

func emptyTracker() *Tracker {
	return &Tracker{}
}

func trackerWith(constraints ...*TrackedConstraint) *Tracker {
	return &Tracker{constraints: constraints}
}

func newConstraint(name string, columns ...string) *TrackedConstraint {
	return &TrackedConstraint{Name: name, Columns: columns, keys: map[string]bool{}}
}

func TestInsertColumns_ExcludesIdentityAndGenerated(t *testing.T) {
	table := &schema.Table{
		Schema: "public",
		Name:   "users",
		Columns: []schema.Column{
			{Name: "id", Type: "bigint", IsIdentity: true},
			{Name: "email", Type: "varchar"},
			{Name: "search", Type: "tsvector", IsGenerated: true},
			{Name: "name", Type: "text"},
		},
	}

	cols := InsertColumns(table)
	require.Len(t, cols, 2)
	assert.Equal(t, "email", cols[0].Name)
	assert.Equal(t, "name", cols[1].Name)
}

func TestSynthesize_ForeignKeyValuesComeFromPool(t *testing.T) {
	table := &schema.Table{
		Schema: "public",
		Name:   "children",
		Columns: []schema.Column{
			{Name: "parent_id", Type: "bigint"},
			{Name: "label", Type: "text"},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "children_parent_id_fkey", Columns: []string{"parent_id"}, RefSchema: "public", RefTable: "parents", RefColumns: []string{"id"}},
		},
	}

	pool := &Pool{Tuples: [][]interface{}{{int64(1)}, {int64(2)}, {int64(3)}}}
	bindings := []fkBinding{{fk: &table.ForeignKeys[0], pool: pool}}

	r, producer := newTestProducer(42)
	syn := NewSynthesizer(table, InsertColumns(table), bindings, emptyTracker(), producer, nil, r, 0, config.DefaultMaxAttempts)

	for i := 0; i < 5; i++ {
		row, err := syn.Synthesize()
		require.NoError(t, err)

		v, ok := row.Get("parent_id")
		require.True(t, ok)
		assert.Contains(t, []int64{1, 2, 3}, v.(int64))
	}
}

func TestSynthesize_UniqueExhaustionFails(t *testing.T) {
	// Three possible emails cannot satisfy a target of ten unique rows.
	table := &schema.Table{
		Schema: "public",
		Name:   "accounts",
		Columns: []schema.Column{
			{Name: "email", Type: "varchar"},
		},
		Uniques: []schema.UniqueConstraint{
			{Name: "accounts_email_key", Columns: []string{"email"}},
		},
	}

	tracker := trackerWith(newConstraint("accounts_email_key", "email"))
	overrides, err := BuildOverrides([]config.OverrideConfig{
		{Column: "email", Values: []string{"a@x.com", "b@x.com", "c@x.com"}},
	}, produce.DefaultRegistry())
	require.NoError(t, err)

	r, producer := newTestProducer(42)
	syn := NewSynthesizer(table, InsertColumns(table), nil, tracker, producer, overrides, r, 0, config.DefaultMaxAttempts)

	produced := 0
	var exhausted *RetryExhaustedError
	for i := 0; i < 10; i++ {
		_, err := syn.Synthesize()
		if err != nil {
			require.True(t, errors.As(err, &exhausted), "unexpected error %v", err)
			break
		}
		produced++
	}

	assert.Equal(t, 3, produced, "every distinct value should be produced exactly once")
	require.NotNil(t, exhausted, "expected retry exhaustion after the value space ran out")
	assert.Equal(t, config.DefaultMaxAttempts, exhausted.Attempts)
	assert.Equal(t, []string{"accounts_email_key"}, exhausted.Constraints)
}

func TestSynthesize_EmptyStringUniqueValueConflicts(t *testing.T) {
	// The empty string is a legal non-null unique value; a second row
	// carrying it must conflict like any other duplicate.
	table := &schema.Table{
		Schema: "public",
		Name:   "coupons",
		Columns: []schema.Column{
			{Name: "code", Type: "varchar"},
		},
		Uniques: []schema.UniqueConstraint{
			{Name: "coupons_code_key", Columns: []string{"code"}},
		},
	}

	tracker := trackerWith(newConstraint("coupons_code_key", "code"))
	overrides, err := BuildOverrides([]config.OverrideConfig{
		{Column: "code", Values: []string{""}},
	}, produce.DefaultRegistry())
	require.NoError(t, err)

	r, producer := newTestProducer(42)
	syn := NewSynthesizer(table, InsertColumns(table), nil, tracker, producer, overrides, r, 0, config.DefaultMaxAttempts)

	row, err := syn.Synthesize()
	require.NoError(t, err)
	v, ok := row.Get("code")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, err = syn.Synthesize()
	var exhausted *RetryExhaustedError
	require.True(t, errors.As(err, &exhausted), "got %v", err)
	assert.Equal(t, []string{"coupons_code_key"}, exhausted.Constraints)
}

func TestSynthesize_PairQueueCoversFullCrossProduct(t *testing.T) {
	// 2 students x 2 courses = 4 enrollments; the pair queue must hand
	// out all four combinations without a single retry.
	table := &schema.Table{
		Schema: "public",
		Name:   "enrollments",
		Columns: []schema.Column{
			{Name: "student_id", Type: "bigint"},
			{Name: "course_id", Type: "bigint"},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "enrollments_student_fkey", Columns: []string{"student_id"}, RefSchema: "public", RefTable: "students", RefColumns: []string{"id"}},
			{Name: "enrollments_course_fkey", Columns: []string{"course_id"}, RefSchema: "public", RefTable: "courses", RefColumns: []string{"id"}},
		},
		Uniques: []schema.UniqueConstraint{
			{Name: "enrollments_student_course_key", Columns: []string{"student_id", "course_id"}},
		},
	}

	students := &Pool{Tuples: [][]interface{}{{int64(1)}, {int64(2)}}}
	courses := &Pool{Tuples: [][]interface{}{{int64(10)}, {int64(20)}}}
	bindings := []fkBinding{
		{fk: &table.ForeignKeys[0], pool: students},
		{fk: &table.ForeignKeys[1], pool: courses},
	}

	tc := newConstraint("enrollments_student_course_key", "student_id", "course_id")
	tracker := trackerWith(tc)

	r, producer := newTestProducer(42)
	tracker.BuildPairQueue(tc, students.DistinctAt(0), courses.DistinctAt(0), r)
	require.Equal(t, 4, tc.QueueLen())

	syn := NewSynthesizer(table, InsertColumns(table), bindings, tracker, producer, nil, r, 0, config.DefaultMaxAttempts)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		row, err := syn.Synthesize()
		require.NoError(t, err)

		key, ok := CanonicalKey(row.ValuesFor([]string{"student_id", "course_id"}))
		require.True(t, ok)
		assert.False(t, seen[key], "combination repeated")
		seen[key] = true
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 0, tc.QueueLen())

	// The space is exhausted; one more row must fail.
	_, err := syn.Synthesize()
	var exhausted *RetryExhaustedError
	require.True(t, errors.As(err, &exhausted))
}

func TestSynthesize_EmptyPoolNullableGoesNull(t *testing.T) {
	table := &schema.Table{
		Schema: "public",
		Name:   "orders",
		Columns: []schema.Column{
			{Name: "coupon_id", Type: "bigint", Nullable: true},
			{Name: "note", Type: "text"},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "orders_coupon_fkey", Columns: []string{"coupon_id"}, RefSchema: "public", RefTable: "coupons", RefColumns: []string{"id"}},
		},
	}

	bindings := []fkBinding{{fk: &table.ForeignKeys[0], pool: &Pool{}}}

	r, producer := newTestProducer(42)
	syn := NewSynthesizer(table, InsertColumns(table), bindings, emptyTracker(), producer, nil, r, 0, config.DefaultMaxAttempts)

	row, err := syn.Synthesize()
	require.NoError(t, err)

	v, ok := row.Get("coupon_id")
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestSynthesize_EmptyPoolRequiredFails(t *testing.T) {
	table := &schema.Table{
		Schema: "public",
		Name:   "orders",
		Columns: []schema.Column{
			{Name: "user_id", Type: "bigint"},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "orders_user_fkey", Columns: []string{"user_id"}, RefSchema: "public", RefTable: "users", RefColumns: []string{"id"}},
		},
	}

	bindings := []fkBinding{{fk: &table.ForeignKeys[0], pool: &Pool{}}}

	r, producer := newTestProducer(42)
	syn := NewSynthesizer(table, InsertColumns(table), bindings, emptyTracker(), producer, nil, r, 0, config.DefaultMaxAttempts)

	_, err := syn.Synthesize()
	var emptyPool *EmptyPoolError
	require.True(t, errors.As(err, &emptyPool), "got %v", err)
	assert.Equal(t, "users", emptyPool.RefTable)
	assert.Equal(t, "user_id", emptyPool.Column)
}

func TestSynthesize_NullInjectionOnlyOnNullableColumns(t *testing.T) {
	table := &schema.Table{
		Schema: "public",
		Name:   "profiles",
		Columns: []schema.Column{
			{Name: "bio", Type: "text", Nullable: true},
			{Name: "handle", Type: "varchar"},
		},
	}

	r, producer := newTestProducer(42)
	// Probability 1 forces null on every nullable column.
	syn := NewSynthesizer(table, InsertColumns(table), nil, emptyTracker(), producer, nil, r, 0.999999, config.DefaultMaxAttempts)

	sawNullBio := false
	for i := 0; i < 20; i++ {
		row, err := syn.Synthesize()
		require.NoError(t, err)

		bio, _ := row.Get("bio")
		if bio == nil {
			sawNullBio = true
		}

		handle, ok := row.Get("handle")
		require.True(t, ok)
		assert.NotNil(t, handle, "non-nullable column must never go null")
	}
	assert.True(t, sawNullBio)
}

func TestSynthesize_MultiColumnForeignKeyStaysConsistent(t *testing.T) {
	// Both columns of a composite foreign key must come from one tuple.
	table := &schema.Table{
		Schema: "public",
		Name:   "line_items",
		Columns: []schema.Column{
			{Name: "order_region", Type: "varchar"},
			{Name: "order_num", Type: "bigint"},
		},
		ForeignKeys: []schema.ForeignKey{
			{Name: "line_items_order_fkey", Columns: []string{"order_region", "order_num"}, RefSchema: "public", RefTable: "orders", RefColumns: []string{"region", "num"}},
		},
	}

	pool := &Pool{Tuples: [][]interface{}{
		{"eu", int64(1)},
		{"us", int64(2)},
	}}
	bindings := []fkBinding{{fk: &table.ForeignKeys[0], pool: pool}}

	r, producer := newTestProducer(42)
	syn := NewSynthesizer(table, InsertColumns(table), bindings, emptyTracker(), producer, nil, r, 0, config.DefaultMaxAttempts)

	for i := 0; i < 10; i++ {
		row, err := syn.Synthesize()
		require.NoError(t, err)

		region, _ := row.Get("order_region")
		num, _ := row.Get("order_num")
		if region.(string) == "eu" {
			assert.Equal(t, int64(1), num)
		} else {
			assert.Equal(t, "us", region)
			assert.Equal(t, int64(2), num)
		}
	}
}

func TestSynthesize_DeterministicAcrossRuns(t *testing.T) {
	build := func() []string {
		table := &schema.Table{
			Schema: "public",
			Name:   "users",
			Columns: []schema.Column{
				{Name: "email", Type: "varchar"},
				{Name: "age", Type: "integer"},
			},
		}

		r, producer := newTestProducer(1234)
		syn := NewSynthesizer(table, InsertColumns(table), nil, emptyTracker(), producer, nil, r, 0.15, config.DefaultMaxAttempts)

		var keys []string
		for i := 0; i < 25; i++ {
			row, err := syn.Synthesize()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			key, _ := CanonicalKey(row.ValuesFor([]string{"email", "age"}))
			keys = append(keys, key)
		}
		return keys
	}

	assert.Equal(t, build(), build())
}
