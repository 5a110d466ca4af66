package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/schema"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

// Pool sampling bounds. The sample size scales with the target row count
// but stays capped so pool loads are cheap even against huge parents.
const (
	PoolFloor      = 100
	PoolMultiplier = 3
	PoolCeiling    = 10000
)

// PoolKey identifies a foreign-key pool: every foreign key in a run that
// references the same (schema, table, columns) shares one pool.
type PoolKey struct {
	Schema  string
	Table   string
	Columns string // referenced columns joined by ","
}

// Pool is a cached, bounded sample of existing key tuples from a referenced
// table. Once loaded it is read-only for the remainder of the run.
type Pool struct {
	Key    PoolKey
	Tuples [][]interface{}
}

// Len returns the number of sampled tuples.
func (p *Pool) Len() int {
	return len(p.Tuples)
}

// Sample returns one tuple uniformly at random, or nil when the pool is
// empty.
func (p *Pool) Sample(r *rand.Rand) []interface{} {
	if len(p.Tuples) == 0 {
		return nil
	}
	return p.Tuples[r.Intn(len(p.Tuples))]
}

// DistinctAt returns the distinct non-null values at tuple position i, in
// first-seen order. Used to enumerate pair-queue candidates.
func (p *Pool) DistinctAt(i int) []interface{} {
	seen := make(map[string]bool)
	var out []interface{}
	for _, tuple := range p.Tuples {
		if i >= len(tuple) || tuple[i] == nil {
			continue
		}
		key := canonicalize(tuple[i])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tuple[i])
	}
	return out
}

// PoolManager loads and caches foreign-key pools for one run.
type PoolManager struct {
	store   database.Store
	dialect sqlutil.Dialect
	qb      squirrel.StatementBuilderType
	target  int
	cache   map[PoolKey]*Pool
}

// NewPoolManager creates a pool manager. target is the per-table target row
// count; it sizes the sample bound.
func NewPoolManager(store database.Store, dialect sqlutil.Dialect, target int) *PoolManager {
	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == sqlutil.Postgres {
		qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &PoolManager{
		store:   store,
		dialect: dialect,
		qb:      qb,
		target:  target,
		cache:   make(map[PoolKey]*Pool),
	}
}

// SampleBound computes the pool size cap for a target row count.
func SampleBound(target int) int {
	bound := target * PoolMultiplier
	if bound < PoolFloor {
		bound = PoolFloor
	}
	if bound > PoolCeiling {
		bound = PoolCeiling
	}
	return bound
}

// Get returns the pool for a foreign key, loading it on first use. Pools
// are loaded at most once per key per run; later rows inserted into the
// parent are deliberately not picked up mid-run.
func (m *PoolManager) Get(ctx context.Context, fk *schema.ForeignKey) (*Pool, error) {
	key := PoolKey{
		Schema:  fk.RefSchema,
		Table:   fk.RefTable,
		Columns: strings.Join(fk.RefColumns, ","),
	}

	if pool, ok := m.cache[key]; ok {
		return pool, nil
	}

	pool, err := m.load(ctx, key, fk.RefColumns)
	if err != nil {
		return nil, err
	}
	m.cache[key] = pool
	return pool, nil
}

// load fetches a deterministic, bounded sample of key tuples.
func (m *PoolManager) load(ctx context.Context, key PoolKey, refColumns []string) (*Pool, error) {
	quoted := sqlutil.QuoteAll(m.dialect, refColumns)

	query, args, err := m.qb.Select(quoted...).
		From(sqlutil.QualifiedName(m.dialect, key.Schema, key.Table)).
		OrderBy(quoted...).
		Limit(uint64(SampleBound(m.target))).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := m.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load foreign-key pool for %s.%s: %w", key.Schema, key.Table, err)
	}
	defer rows.Close()

	pool := &Pool{Key: key}
	for rows.Next() {
		values := make([]interface{}, len(refColumns))
		ptrs := make([]interface{}, len(refColumns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan pool tuple: %w", err)
		}
		pool.Tuples = append(pool.Tuples, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pool, nil
}
