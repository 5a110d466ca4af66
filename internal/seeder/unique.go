package seeder

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Masterminds/squirrel"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/schema"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

// PairQueueCap bounds pair-queue precomputation. A two-column constraint
// whose candidate cross-product exceeds it relies on plain retry instead.
const PairQueueCap = 5000

// TrackedConstraint holds the uniqueness bookkeeping for one constraint:
// the canonical keys already present in storage or reserved during this
// run, and an optional precomputed queue of known-good value pairs.
type TrackedConstraint struct {
	Name    string
	Columns []string

	keys      map[string]bool
	pairQueue [][2]interface{}
}

// Has reports whether a canonical key is already taken.
func (tc *TrackedConstraint) Has(key string) bool {
	return tc.keys[key]
}

// Reserve atomically checks absence and inserts the key. Returns false when
// the key was already taken. In-process only; the storage-level constraint
// remains the final arbiter.
func (tc *TrackedConstraint) Reserve(key string) bool {
	if tc.keys[key] {
		return false
	}
	tc.keys[key] = true
	return true
}

// HasPairs reports whether the pair queue still holds candidates.
func (tc *TrackedConstraint) HasPairs() bool {
	return len(tc.pairQueue) > 0
}

// PopPair consumes the next precomputed pair. A popped pair is never
// returned to the queue, even if the row it seeded gets rejected.
func (tc *TrackedConstraint) PopPair() ([2]interface{}, bool) {
	if len(tc.pairQueue) == 0 {
		return [2]interface{}{}, false
	}
	pair := tc.pairQueue[0]
	tc.pairQueue = tc.pairQueue[1:]
	return pair, true
}

// QueueLen returns the number of remaining precomputed pairs.
func (tc *TrackedConstraint) QueueLen() int {
	return len(tc.pairQueue)
}

// Tracker loads and maintains uniqueness sets for one table's seeding.
type Tracker struct {
	store       database.Store
	dialect     sqlutil.Dialect
	qb          squirrel.StatementBuilderType
	constraints []*TrackedConstraint
}

// NewTracker creates a tracker bound to the run's store.
func NewTracker(store database.Store, dialect sqlutil.Dialect) *Tracker {
	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == sqlutil.Postgres {
		qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Tracker{
		store:   store,
		dialect: dialect,
		qb:      qb,
	}
}

// Constraints returns the tracked constraints for the table.
func (t *Tracker) Constraints() []*TrackedConstraint {
	return t.constraints
}

// Init loads existing value combinations for every unique constraint whose
// columns are all among the columns being inserted. Constraints touching a
// column the engine never writes (engine-assigned defaults, identities)
// are skipped: they cannot conflict with synthesized values.
func (t *Tracker) Init(ctx context.Context, table *schema.Table, insertColumns []string) error {
	inserted := make(map[string]bool, len(insertColumns))
	for _, c := range insertColumns {
		inserted[c] = true
	}

	// The primary key is tracked like any other unique constraint whenever
	// the engine writes its columns (identity keys never reach this point:
	// they are excluded from the insert set).
	constraints := table.Uniques
	if len(table.PrimaryKey) > 0 {
		name := table.Name + "_pkey"
		if t.dialect == sqlutil.MySQL {
			name = "PRIMARY"
		}
		pk := schema.UniqueConstraint{Name: name, Columns: table.PrimaryKey}
		constraints = append([]schema.UniqueConstraint{pk}, table.Uniques...)
	}

	for _, uc := range constraints {
		covered := true
		for _, c := range uc.Columns {
			if !inserted[c] {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}

		tc := &TrackedConstraint{
			Name:    uc.Name,
			Columns: append([]string(nil), uc.Columns...),
			keys:    make(map[string]bool),
		}
		if err := t.loadExisting(ctx, table, tc); err != nil {
			return fmt.Errorf("constraint %s: %w", uc.Name, err)
		}
		t.constraints = append(t.constraints, tc)
	}

	return nil
}

// loadExisting seeds the uniqueness set from current table contents.
func (t *Tracker) loadExisting(ctx context.Context, table *schema.Table, tc *TrackedConstraint) error {
	query, args, err := t.qb.Select(sqlutil.QuoteAll(t.dialect, tc.Columns)...).
		From(sqlutil.QualifiedName(t.dialect, table.Schema, table.Name)).
		ToSql()
	if err != nil {
		return err
	}

	rows, err := t.store.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load existing combinations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]interface{}, len(tc.Columns))
		ptrs := make([]interface{}, len(tc.Columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}

		// Rows with a null participant never conflict.
		if key, ok := CanonicalKey(values); ok {
			tc.keys[key] = true
		}
	}
	return rows.Err()
}

// BuildPairQueue precomputes the shuffled queue of non-conflicting value
// pairs for a two-column constraint whose columns both draw from small
// foreign-key pools. Above PairQueueCap candidates the queue is skipped
// entirely and the constraint falls back to plain retry.
func (t *Tracker) BuildPairQueue(tc *TrackedConstraint, first, second []interface{}, r *rand.Rand) {
	if len(tc.Columns) != 2 {
		return
	}
	if len(first) == 0 || len(second) == 0 {
		return
	}
	if len(first)*len(second) > PairQueueCap {
		return
	}

	var pairs [][2]interface{}
	for _, a := range first {
		for _, b := range second {
			key, ok := CanonicalKey([]interface{}{a, b})
			if !ok || tc.Has(key) {
				continue
			}
			pairs = append(pairs, [2]interface{}{a, b})
		}
	}

	r.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
	tc.pairQueue = pairs
}
