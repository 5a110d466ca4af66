package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/dbsmedya/goseed/internal/config"
	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/graph"
	"github.com/dbsmedya/goseed/internal/logger"
	"github.com/dbsmedya/goseed/internal/produce"
	"github.com/dbsmedya/goseed/internal/schema"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

// TableSummary reports what happened to one table during a run.
type TableSummary struct {
	Schema   string
	Table    string
	Existing int
	Target   int
	Inserted int
	Skipped  bool // tables already at or above target, or with nothing to write
}

// Summary is the result of a whole run.
type Summary struct {
	Seed    int64
	DryRun  bool
	Tables  []TableSummary
	Elapsed time.Duration
}

// TablePlan is one table's position in the planned run.
type TablePlan struct {
	Table    *schema.Table
	Existing int
	Missing  int
}

// SchemaPlan is the dependency-ordered plan for one schema.
type SchemaPlan struct {
	Schema string
	Tables []TablePlan // insertion order
	Enums  map[string][]string
}

// Orchestrator drives a full seeding run: introspection, ordering,
// pool loading, row synthesis, and batched insertion. All randomness
// flows from its single source, so a fixed seed reproduces a run.
type Orchestrator struct {
	cfg      *config.Config
	store    database.Store
	dialect  sqlutil.Dialect
	log      *logger.Logger
	registry *produce.Registry
	rand     *rand.Rand
	seed     int64
	qb       squirrel.StatementBuilderType
}

// NewOrchestrator wires an orchestrator onto an open store. The store is
// typically a unit of work so a dry run can execute everything and then
// roll back; commit and rollback stay with the caller.
func NewOrchestrator(cfg *config.Config, store database.Store, dialect sqlutil.Dialect, log *logger.Logger) *Orchestrator {
	seed := cfg.Seed.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == sqlutil.Postgres {
		qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		dialect:  dialect,
		log:      log,
		registry: produce.DefaultRegistry(),
		rand:     rand.New(rand.NewSource(seed)),
		seed:     seed,
		qb:       qb,
	}
}

// Seed returns the random seed in effect for this run.
func (o *Orchestrator) Seed() int64 {
	return o.seed
}

// Registry exposes the generator registry, used to resolve override
// generator names at validation time.
func (o *Orchestrator) Registry() *produce.Registry {
	return o.registry
}

// schemas returns the configured schema list, defaulting to the dialect's
// conventional schema when none is set.
func (o *Orchestrator) schemas() []string {
	if len(o.cfg.Seed.Schemas) > 0 {
		return o.cfg.Seed.Schemas
	}
	if o.dialect == sqlutil.MySQL {
		return []string{o.cfg.Database.Database}
	}
	return []string{"public"}
}

// Plan introspects every configured schema and computes the insertion
// order and per-table deficits without writing anything. Ordering failures
// surface here, before any insert could run.
func (o *Orchestrator) Plan(ctx context.Context) ([]SchemaPlan, error) {
	inspector := schema.NewInspector(o.store, o.dialect)

	plans := make([]SchemaPlan, 0, len(o.schemas()))
	for _, schemaName := range o.schemas() {
		log := o.log.WithSchema(schemaName)

		tables, err := inspector.ListTables(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", schemaName, err)
		}
		tables = o.filterTables(schemaName, tables)
		if len(tables) == 0 {
			log.Warn("No tables selected for seeding")
			plans = append(plans, SchemaPlan{Schema: schemaName})
			continue
		}

		g := graph.Build(tables)
		order, err := g.InsertOrder()
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", schemaName, err)
		}

		enums, err := inspector.ListEnumLabels(ctx, schemaName)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", schemaName, err)
		}

		byName := make(map[string]*schema.Table, len(tables))
		for i := range tables {
			byName[tables[i].Name] = &tables[i]
		}

		plan := SchemaPlan{Schema: schemaName, Enums: enums}
		for _, name := range order {
			table := byName[name]
			existing, err := o.countRows(ctx, table)
			if err != nil {
				return nil, err
			}
			missing := o.cfg.Seed.Rows - existing
			if missing < 0 {
				missing = 0
			}
			plan.Tables = append(plan.Tables, TablePlan{
				Table:    table,
				Existing: existing,
				Missing:  missing,
			})
		}
		plans = append(plans, plan)

		log.Infow("Planned schema",
			"tables", len(plan.Tables),
			"edges", g.EdgeCount())
	}

	return plans, nil
}

// Run executes the full seeding pass. The caller decides what happens to
// the underlying unit of work afterwards; Run itself never commits.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	overrides, err := BuildOverrides(o.cfg.Overrides, o.registry)
	if err != nil {
		return nil, err
	}

	plans, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Seed:   o.seed,
		DryRun: o.cfg.Seed.DryRun,
	}

	// One pool cache for the whole run: a parent referenced from several
	// schemas is sampled once, and the sample is never refreshed mid-run.
	pools := NewPoolManager(o.store, o.dialect, o.cfg.Seed.Rows)

	for i := range plans {
		if err := o.seedSchema(ctx, &plans[i], pools, overrides, summary); err != nil {
			return nil, err
		}
	}

	summary.Elapsed = time.Since(start)
	return summary, nil
}

func (o *Orchestrator) seedSchema(ctx context.Context, plan *SchemaPlan, pools *PoolManager, overrides *OverrideSet, summary *Summary) error {
	producer := produce.NewProducer(o.rand, o.registry, plan.Enums)
	inserter := NewInserter(o.store, o.dialect)

	for i := range plan.Tables {
		tp := &plan.Tables[i]
		if err := o.seedTable(ctx, tp, producer, pools, inserter, overrides, summary); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) seedTable(
	ctx context.Context,
	tp *TablePlan,
	producer *produce.Producer,
	pools *PoolManager,
	inserter *Inserter,
	overrides *OverrideSet,
	summary *Summary,
) error {
	table := tp.Table
	log := o.log.WithSchema(table.Schema).WithTable(table.Name)

	ts := TableSummary{
		Schema:   table.Schema,
		Table:    table.Name,
		Existing: tp.Existing,
		Target:   o.cfg.Seed.Rows,
	}

	insertCols := InsertColumns(table)
	if tp.Missing == 0 || len(insertCols) == 0 {
		if tp.Missing > 0 {
			log.Warn("Table has no writable columns, skipping")
		}
		ts.Skipped = true
		summary.Tables = append(summary.Tables, ts)
		return nil
	}

	bindings, err := o.bindForeignKeys(ctx, table, pools)
	if err != nil {
		return err
	}

	colNames := make([]string, len(insertCols))
	for i := range insertCols {
		colNames[i] = insertCols[i].Name
	}

	tracker := NewTracker(o.store, o.dialect)
	if err := tracker.Init(ctx, table, colNames); err != nil {
		return fmt.Errorf("table %s: %w", table.QualifiedName(), err)
	}
	o.buildPairQueues(table, tracker, bindings)

	syn := NewSynthesizer(table, insertCols, bindings, tracker, producer, overrides, o.rand,
		o.cfg.Seed.NullProbability, o.cfg.Seed.MaxAttempts)

	batchSize := o.cfg.Seed.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}

	batch := make([]*Row, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := inserter.InsertBatch(ctx, table, colNames, batch)
		if err != nil {
			return err
		}
		ts.Inserted += int(n)
		batch = batch[:0]
		return nil
	}

	for produced := 0; produced < tp.Missing; produced++ {
		row, err := syn.Synthesize()
		if err != nil {
			return fmt.Errorf("table %s: %w", table.QualifiedName(), err)
		}
		batch = append(batch, row)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	log.Infow("Seeded table",
		"existing", ts.Existing,
		"inserted", ts.Inserted,
		"target", ts.Target)

	summary.Tables = append(summary.Tables, ts)
	return nil
}

// bindForeignKeys loads the parent pool behind every foreign key of the
// table. An empty pool behind a key whose local columns cannot all go
// NULL fails the run here, before any row is attempted.
func (o *Orchestrator) bindForeignKeys(ctx context.Context, table *schema.Table, pools *PoolManager) ([]fkBinding, error) {
	bindings := make([]fkBinding, 0, len(table.ForeignKeys))
	for i := range table.ForeignKeys {
		fk := &table.ForeignKeys[i]
		pool, err := pools.Get(ctx, fk)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table.QualifiedName(), err)
		}
		if pool.Len() == 0 && !allNullable(table, fk.Columns) {
			return nil, &EmptyPoolError{
				Table:     table.QualifiedName(),
				Column:    strings.Join(fk.Columns, ","),
				RefSchema: fk.RefSchema,
				RefTable:  fk.RefTable,
			}
		}
		bindings = append(bindings, fkBinding{fk: fk, pool: pool})
	}
	return bindings, nil
}

func allNullable(table *schema.Table, columns []string) bool {
	for _, name := range columns {
		col := table.Column(name)
		if col == nil || !col.Nullable {
			return false
		}
	}
	return true
}

// buildPairQueues precomputes exhaustive value pairs for two-column unique
// constraints whose columns are both foreign-key bound. Random sampling
// alone can stall on small cross products; walking the shuffled product
// guarantees every free combination gets used before retries kick in.
func (o *Orchestrator) buildPairQueues(table *schema.Table, tracker *Tracker, bindings []fkBinding) {
	type slot struct {
		pool *Pool
		pos  int
	}
	byColumn := make(map[string]slot)
	for bi := range bindings {
		for pos, col := range bindings[bi].fk.Columns {
			if _, taken := byColumn[col]; taken {
				continue
			}
			byColumn[col] = slot{pool: bindings[bi].pool, pos: pos}
		}
	}

	for _, tc := range tracker.Constraints() {
		if len(tc.Columns) != 2 {
			continue
		}
		first, okFirst := byColumn[tc.Columns[0]]
		second, okSecond := byColumn[tc.Columns[1]]
		if !okFirst || !okSecond {
			continue
		}
		tracker.BuildPairQueue(tc, first.pool.DistinctAt(first.pos), second.pool.DistinctAt(second.pos), o.rand)
	}
}

func (o *Orchestrator) filterTables(schemaName string, tables []schema.Table) []schema.Table {
	return FilterTables(o.cfg.Seed.IncludeTables, o.cfg.Seed.ExcludeTables, schemaName, tables)
}

// FilterTables applies include/exclude selection. Entries match either the
// bare table name or schema.table. Every consumer of the table set (seeding,
// planning, preflight cycle checks) must see the same selection.
func FilterTables(include, exclude []string, schemaName string, tables []schema.Table) []schema.Table {
	if len(include) == 0 && len(exclude) == 0 {
		return tables
	}

	matches := func(patterns []string, table *schema.Table) bool {
		for _, p := range patterns {
			if strings.EqualFold(p, table.Name) || strings.EqualFold(p, schemaName+"."+table.Name) {
				return true
			}
		}
		return false
	}

	kept := make([]schema.Table, 0, len(tables))
	for i := range tables {
		t := &tables[i]
		if len(include) > 0 && !matches(include, t) {
			continue
		}
		if matches(exclude, t) {
			continue
		}
		kept = append(kept, *t)
	}
	return kept
}

func (o *Orchestrator) countRows(ctx context.Context, table *schema.Table) (int, error) {
	query, args, err := o.qb.Select("COUNT(*)").
		From(sqlutil.QualifiedName(o.dialect, table.Schema, table.Name)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count for %s: %w", table.QualifiedName(), err)
	}

	var count int
	if err := o.store.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table.QualifiedName(), err)
	}
	return count, nil
}
