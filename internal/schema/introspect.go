package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/dbsmedya/goseed/internal/database"
	"github.com/dbsmedya/goseed/internal/sqlutil"
)

// Inspector reads table, column, and constraint descriptors from the
// information_schema catalog of the target database.
type Inspector struct {
	store   database.Store
	dialect sqlutil.Dialect
	qb      squirrel.StatementBuilderType
}

// NewInspector creates an Inspector for the given store and dialect.
func NewInspector(store database.Store, dialect sqlutil.Dialect) *Inspector {
	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == sqlutil.Postgres {
		qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Inspector{
		store:   store,
		dialect: dialect,
		qb:      qb,
	}
}

// ListTables returns descriptors for every base table in the schema,
// ordered by name. Reserved system schemas are refused.
func (i *Inspector) ListTables(ctx context.Context, schemaName string) ([]Table, error) {
	if IsSystemSchema(schemaName) {
		return nil, fmt.Errorf("refusing to introspect system schema %q", schemaName)
	}

	names, err := i.listTableNames(ctx, schemaName)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		table := Table{Schema: schemaName, Name: name}

		if table.Columns, err = i.listColumns(ctx, schemaName, name); err != nil {
			return nil, fmt.Errorf("columns of %s.%s: %w", schemaName, name, err)
		}
		if err = i.loadKeyConstraints(ctx, &table); err != nil {
			return nil, fmt.Errorf("key constraints of %s.%s: %w", schemaName, name, err)
		}
		if table.ForeignKeys, err = i.listForeignKeys(ctx, schemaName, name); err != nil {
			return nil, fmt.Errorf("foreign keys of %s.%s: %w", schemaName, name, err)
		}

		tables = append(tables, table)
	}

	return tables, nil
}

func (i *Inspector) listTableNames(ctx context.Context, schemaName string) ([]string, error) {
	query, args, err := i.qb.Select("table_name").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_schema": schemaName, "table_type": "BASE TABLE"}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := i.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Column catalog queries. Boolean-ish catalog fields come back as strings
// ('YES'/'NO', 'ALWAYS'/'NEVER', MySQL extra flags) and are decoded in Go
// so both drivers scan the same way.
const (
	pgColumnsQuery = `
		SELECT c.column_name, c.data_type, c.udt_name,
		       c.is_nullable, c.column_default, c.is_identity, c.is_generated,
		       c.character_maximum_length, c.numeric_precision, c.numeric_scale
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	mysqlColumnsQuery = `
		SELECT c.column_name, c.data_type, c.column_type,
		       c.is_nullable, c.column_default, c.extra, c.generation_expression,
		       c.character_maximum_length, c.numeric_precision, c.numeric_scale
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position`
)

func (i *Inspector) listColumns(ctx context.Context, schemaName, tableName string) ([]Column, error) {
	query := mysqlColumnsQuery
	if i.dialect == sqlutil.Postgres {
		query = pgColumnsQuery
	}

	rows, err := i.store.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			name, dataType, subType, nullable string
			columnDefault                     sql.NullString
			identityOrExtra, generated        sql.NullString
			maxLength, precision, scale       sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &subType, &nullable, &columnDefault,
			&identityOrExtra, &generated, &maxLength, &precision, &scale); err != nil {
			return nil, err
		}

		col := Column{
			Name:             name,
			DeclaredType:     dataType,
			Nullable:         strings.EqualFold(nullable, "YES"),
			HasDefault:       columnDefault.Valid,
			MaxLength:        int(maxLength.Int64),
			NumericPrecision: int(precision.Int64),
			NumericScale:     int(scale.Int64),
		}

		if i.dialect == sqlutil.Postgres {
			col.Type = normalizePgType(dataType, subType, &col)
			col.IsIdentity = strings.EqualFold(identityOrExtra.String, "YES")
			col.IsGenerated = generated.Valid && !strings.EqualFold(generated.String, "NEVER")
		} else {
			col.Type = NormalizeType(dataType)
			extra := strings.ToLower(identityOrExtra.String)
			col.IsIdentity = strings.Contains(extra, "auto_increment")
			col.IsGenerated = generated.Valid && generated.String != ""
			if col.Type == "enum" {
				col.EnumValues = parseMySQLEnum(subType)
			}
		}

		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// normalizePgType resolves Postgres catalog types, unwrapping arrays and
// user-defined types through udt_name.
func normalizePgType(dataType, udtName string, col *Column) string {
	switch dataType {
	case "ARRAY":
		col.ElementType = NormalizeType(strings.TrimPrefix(udtName, "_"))
		return "array"
	case "USER-DEFINED":
		// Most commonly an enum; the producer resolves labels by type name.
		return NormalizeType(udtName)
	default:
		return NormalizeType(dataType)
	}
}

// parseMySQLEnum extracts labels from a column_type like enum('a','b','c').
func parseMySQLEnum(columnType string) []string {
	open := strings.Index(columnType, "(")
	end := strings.LastIndex(columnType, ")")
	if open < 0 || end < open {
		return nil
	}

	var labels []string
	for _, part := range strings.Split(columnType[open+1:end], ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, "'")
		part = strings.ReplaceAll(part, "''", "'")
		labels = append(labels, part)
	}
	return labels
}

const (
	pgKeyConstraintsQuery = `
		SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		 AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = $1 AND tc.table_name = $2
		  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.constraint_name, kcu.ordinal_position`

	mysqlKeyConstraintsQuery = `
		SELECT tc.constraint_name, tc.constraint_type, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		 AND kcu.table_name = tc.table_name
		WHERE tc.table_schema = ? AND tc.table_name = ?
		  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
		ORDER BY tc.constraint_name, kcu.ordinal_position`
)

// loadKeyConstraints fills the table's primary key and unique constraints.
func (i *Inspector) loadKeyConstraints(ctx context.Context, table *Table) error {
	query := mysqlKeyConstraintsQuery
	if i.dialect == sqlutil.Postgres {
		query = pgKeyConstraintsQuery
	}

	rows, err := i.store.QueryContext(ctx, query, table.Schema, table.Name)
	if err != nil {
		return err
	}
	defer rows.Close()

	uniques := make(map[string]*UniqueConstraint)
	var uniqueOrder []string

	for rows.Next() {
		var constraintName, constraintType, columnName string
		if err := rows.Scan(&constraintName, &constraintType, &columnName); err != nil {
			return err
		}

		if constraintType == "PRIMARY KEY" {
			table.PrimaryKey = append(table.PrimaryKey, columnName)
			continue
		}

		uc, ok := uniques[constraintName]
		if !ok {
			uc = &UniqueConstraint{Name: constraintName}
			uniques[constraintName] = uc
			uniqueOrder = append(uniqueOrder, constraintName)
		}
		uc.Columns = append(uc.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range uniqueOrder {
		table.Uniques = append(table.Uniques, *uniques[name])
	}
	return nil
}

const (
	// Postgres pairs local and referenced columns positionally through
	// position_in_unique_constraint; MySQL reports the referenced side
	// directly on key_column_usage.
	pgForeignKeysQuery = `
		SELECT rc.constraint_name, kcu.column_name,
		       ref.table_schema, ref.table_name, ref.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = rc.constraint_schema
		 AND kcu.constraint_name = rc.constraint_name
		JOIN information_schema.key_column_usage ref
		  ON ref.constraint_schema = rc.unique_constraint_schema
		 AND ref.constraint_name = rc.unique_constraint_name
		 AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = $1 AND kcu.table_name = $2
		ORDER BY rc.constraint_name, kcu.ordinal_position`

	mysqlForeignKeysQuery = `
		SELECT kcu.constraint_name, kcu.column_name,
		       kcu.referenced_table_schema, kcu.referenced_table_name, kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ? AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position`
)

func (i *Inspector) listForeignKeys(ctx context.Context, schemaName, tableName string) ([]ForeignKey, error) {
	query := mysqlForeignKeysQuery
	if i.dialect == sqlutil.Postgres {
		query = pgForeignKeysQuery
	}

	rows, err := i.store.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fks := make(map[string]*ForeignKey)
	var order []string

	for rows.Next() {
		var name, column, refSchema, refTable, refColumn string
		if err := rows.Scan(&name, &column, &refSchema, &refTable, &refColumn); err != nil {
			return nil, err
		}

		fk, ok := fks[name]
		if !ok {
			fk = &ForeignKey{Name: name, RefSchema: refSchema, RefTable: refTable}
			fks[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, column)
		fk.RefColumns = append(fk.RefColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]ForeignKey, 0, len(order))
	for _, name := range order {
		result = append(result, *fks[name])
	}
	return result, nil
}

const pgEnumLabelsQuery = `
	SELECT t.typname, e.enumlabel
	FROM pg_type t
	JOIN pg_enum e ON e.enumtypid = t.oid
	JOIN pg_namespace n ON n.oid = t.typnamespace
	WHERE n.nspname = $1
	ORDER BY t.typname, e.enumsortorder`

// ListEnumLabels returns the ordered label set of every enum type in the
// schema, keyed by both bare and schema-qualified type name. MySQL has no
// schema-level enum types; its labels ride on the column descriptors.
func (i *Inspector) ListEnumLabels(ctx context.Context, schemaName string) (map[string][]string, error) {
	if IsSystemSchema(schemaName) {
		return nil, fmt.Errorf("refusing to introspect system schema %q", schemaName)
	}

	labels := make(map[string][]string)
	if i.dialect != sqlutil.Postgres {
		return labels, nil
	}

	rows, err := i.store.QueryContext(ctx, pgEnumLabelsQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list enum labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typeName, label string
		if err := rows.Scan(&typeName, &label); err != nil {
			return nil, err
		}
		labels[typeName] = append(labels[typeName], label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for typeName, set := range labels {
		labels[schemaName+"."+typeName] = set
	}
	return labels, nil
}
