package seeder

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/schema"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

// Inserter writes synthesized rows in multi-row batches. Batching is purely
// a resource optimization; it never influences the synthesized values.
type Inserter struct {
	store   database.Store
	dialect sqlutil.Dialect
	qb      squirrel.StatementBuilderType
}

// NewInserter creates an inserter bound to the run's store.
func NewInserter(store database.Store, dialect sqlutil.Dialect) *Inserter {
	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == sqlutil.Postgres {
		qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Inserter{
		store:   store,
		dialect: dialect,
		qb:      qb,
	}
}

// InsertBatch writes the rows in one multi-row INSERT. All rows must carry
// the same columns in the same order.
func (in *Inserter) InsertBatch(ctx context.Context, table *schema.Table, columns []string, rows []*Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	builder := in.qb.Insert(sqlutil.QualifiedName(in.dialect, table.Schema, table.Name)).
		Columns(sqlutil.QuoteAll(in.dialect, columns)...)
	for _, row := range rows {
		builder = builder.Values(row.ValuesFor(columns)...)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert for %s: %w", table.QualifiedName(), err)
	}

	result, err := in.store.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateViolation(err, table)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// Some drivers cannot report the count; the batch still succeeded.
		return int64(len(rows)), nil
	}
	return affected, nil
}

// mysqlKeyPattern extracts the key name from "Duplicate entry 'x' for key 'name'".
var mysqlKeyPattern = regexp.MustCompile(`for key '([^']+)'`)

// mysqlFKPattern extracts the constraint name from a 1452 message.
var mysqlFKPattern = regexp.MustCompile("CONSTRAINT `([^`]+)`")

// translateViolation turns a backend integrity error into a
// ConstraintViolationError with a best-effort constraint name. Anything
// unrecognized passes through wrapped.
func translateViolation(err error, table *schema.Table) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := ""
		switch pgErr.Code {
		case "23505":
			kind = "unique"
		case "23503":
			kind = "foreign_key"
		case "23502":
			kind = "not_null"
		case "23514":
			kind = "check"
		}
		if kind != "" {
			return &ConstraintViolationError{
				Table:      table.QualifiedName(),
				Constraint: pgErr.ConstraintName,
				Kind:       kind,
				Err:        err,
			}
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			name := ""
			if m := mysqlKeyPattern.FindStringSubmatch(myErr.Message); m != nil {
				name = m[1]
			}
			return &ConstraintViolationError{
				Table:      table.QualifiedName(),
				Constraint: name,
				Kind:       "unique",
				Err:        err,
			}
		case 1452:
			name := ""
			if m := mysqlFKPattern.FindStringSubmatch(myErr.Message); m != nil {
				name = m[1]
			}
			return &ConstraintViolationError{
				Table:      table.QualifiedName(),
				Constraint: name,
				Kind:       "foreign_key",
				Err:        err,
			}
		case 1048:
			return &ConstraintViolationError{
				Table: table.QualifiedName(),
				Kind:  "not_null",
				Err:   err,
			}
		}
	}

	return fmt.Errorf("insert into %s failed: %w", table.QualifiedName(), err)
}
