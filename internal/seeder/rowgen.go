package seeder

import (
	"math/rand"
	"sort"

	"github.com/dbsmedya/goseed/internal/produce"
	"github.com/dbsmedya/goseed/internal/schema"
)

// fkBinding ties one of the table's foreign keys to its loaded pool.
type fkBinding struct {
	fk   *schema.ForeignKey
	pool *Pool
}

// fkColumnRef locates a column inside a foreign-key binding.
type fkColumnRef struct {
	binding int // index into bindings
	pos     int // position within the key's column list
}

// InsertColumns returns the columns the engine actually writes: identity
// and generated columns are left to the backend.
func InsertColumns(table *schema.Table) []schema.Column {
	cols := make([]schema.Column, 0, len(table.Columns))
	for _, c := range table.Columns {
		if c.IsIdentity || c.IsGenerated {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Synthesizer produces fully-populated rows for one table, honoring
// foreign keys, nullability, overrides, and unique constraints.
type Synthesizer struct {
	table     *schema.Table
	columns   []schema.Column
	bindings  []fkBinding
	columnFK  map[string]fkColumnRef
	tracker   *Tracker
	producer  *produce.Producer
	overrides *OverrideSet

	rand            *rand.Rand
	nullProbability float64
	maxAttempts     int
}

// NewSynthesizer wires a synthesizer for one table. bindings must hold one
// entry per foreign key of the table, pools already loaded.
func NewSynthesizer(
	table *schema.Table,
	columns []schema.Column,
	bindings []fkBinding,
	tracker *Tracker,
	producer *produce.Producer,
	overrides *OverrideSet,
	r *rand.Rand,
	nullProbability float64,
	maxAttempts int,
) *Synthesizer {
	columnFK := make(map[string]fkColumnRef)
	for bi := range bindings {
		for pos, col := range bindings[bi].fk.Columns {
			if _, taken := columnFK[col]; taken {
				continue // first foreign key wins for shared columns
			}
			columnFK[col] = fkColumnRef{binding: bi, pos: pos}
		}
	}

	return &Synthesizer{
		table:           table,
		columns:         columns,
		bindings:        bindings,
		columnFK:        columnFK,
		tracker:         tracker,
		producer:        producer,
		overrides:       overrides,
		rand:            r,
		nullProbability: nullProbability,
		maxAttempts:     maxAttempts,
	}
}

// Synthesize produces exactly one row or fails after bounded retries.
// Fatal conditions (an empty pool behind a required foreign key, a bad
// override) are returned immediately; only uniqueness conflicts retry.
func (s *Synthesizer) Synthesize() (*Row, error) {
	attempts := 1
	if len(s.tracker.Constraints()) > 0 {
		attempts = s.maxAttempts
	}

	conflicting := make(map[string]bool)

	for attempt := 0; attempt < attempts; attempt++ {
		row, err := s.attemptRow()
		if err != nil {
			return nil, err
		}

		keys, active, conflict := s.checkConstraints(row, conflicting)
		if conflict {
			continue
		}

		for i, tc := range s.tracker.Constraints() {
			if active[i] {
				tc.Reserve(keys[i])
			}
		}
		return row, nil
	}

	return nil, &RetryExhaustedError{
		Table:       s.table.QualifiedName(),
		Attempts:    attempts,
		Constraints: sortedNames(conflicting),
	}
}

// attemptRow builds one candidate row: pair-queue presets, then one sampled
// tuple per foreign key, then per-column fill in declared order.
func (s *Synthesizer) attemptRow() (*Row, error) {
	// Step 1: consume pair queues. A popped pair is spent even if this
	// attempt is later rejected.
	preset := make(map[string]interface{})
	for _, tc := range s.tracker.Constraints() {
		if !tc.HasPairs() {
			continue
		}
		if pair, ok := tc.PopPair(); ok {
			preset[tc.Columns[0]] = pair[0]
			preset[tc.Columns[1]] = pair[1]
		}
	}

	// Step 2: sample one tuple per foreign key, independently and
	// uniformly. Empty pools record no value.
	tuples := make([][]interface{}, len(s.bindings))
	for i := range s.bindings {
		tuples[i] = s.bindings[i].pool.Sample(s.rand)
	}

	// Step 3: fill columns in declared order.
	row := NewRow()
	for i := range s.columns {
		col := &s.columns[i]

		if v, ok := preset[col.Name]; ok {
			row.Set(col.Name, v)
			continue
		}

		if ref, ok := s.columnFK[col.Name]; ok {
			tuple := tuples[ref.binding]
			if tuple == nil {
				if !col.Nullable {
					fk := s.bindings[ref.binding].fk
					return nil, &EmptyPoolError{
						Table:     s.table.QualifiedName(),
						Column:    col.Name,
						RefSchema: fk.RefSchema,
						RefTable:  fk.RefTable,
					}
				}
				row.Set(col.Name, nil)
				continue
			}
			row.Set(col.Name, tuple[ref.pos])
			continue
		}

		if col.Nullable && s.rand.Float64() < s.nullProbability {
			row.Set(col.Name, nil)
			continue
		}

		override := s.overrides.For(s.table.Schema, s.table.Name, col.Name)
		value, err := s.producer.Value(col, override)
		if err != nil {
			return nil, err
		}
		row.Set(col.Name, value)
	}

	return row, nil
}

// checkConstraints computes canonical keys for every tracked constraint.
// active marks constraints whose key must be checked and reserved; a null
// participant deactivates the check. The key itself may legitimately be the
// empty string (a single empty-string value), so activity is tracked
// separately rather than read off the key.
func (s *Synthesizer) checkConstraints(row *Row, conflicting map[string]bool) (keys []string, active []bool, conflict bool) {
	constraints := s.tracker.Constraints()
	keys = make([]string, len(constraints))
	active = make([]bool, len(constraints))

	for i, tc := range constraints {
		key, ok := CanonicalKey(row.ValuesFor(tc.Columns))
		if !ok {
			continue
		}
		keys[i] = key
		active[i] = true
		if tc.Has(key) {
			conflicting[tc.Name] = true
			conflict = true
		}
	}

	return keys, active, conflict
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
