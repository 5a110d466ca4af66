// Package schema provides relational schema descriptors and catalog
// introspection for goseed.
package schema

import "strings"

// Column describes one column as reported by catalog introspection.
// Descriptors are immutable once built.
type Column struct {
	Name         string
	DeclaredType string // raw type string from the catalog
	Type         string // normalized type identifier (see NormalizeType)
	ElementType  string // normalized element type when Type is "array"
	EnumValues   []string

	Nullable    bool
	HasDefault  bool
	IsIdentity  bool
	IsGenerated bool

	MaxLength        int // 0 when not applicable
	NumericPrecision int
	NumericScale     int
}

// ForeignKey describes a foreign key constraint. Columns and RefColumns are
// positionally paired.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefSchema  string
	RefTable   string
	RefColumns []string
}

// UniqueConstraint describes a single- or multi-column unique constraint.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// Table describes one relation to seed.
type Table struct {
	Schema      string
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Uniques     []UniqueConstraint
}

// QualifiedName returns the schema-qualified table name.
func (t *Table) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// Column returns the column descriptor by name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ForeignKeyFor returns the foreign key a column participates in and the
// column's position within it, or nil when the column is not part of one.
// A column participating in several foreign keys reports the first.
func (t *Table) ForeignKeyFor(column string) (*ForeignKey, int) {
	for i := range t.ForeignKeys {
		for pos, c := range t.ForeignKeys[i].Columns {
			if c == column {
				return &t.ForeignKeys[i], pos
			}
		}
	}
	return nil, 0
}

// IsSelfReference reports whether a foreign key points back at its own table.
func (fk *ForeignKey) IsSelfReference(t *Table) bool {
	return fk.RefSchema == t.Schema && fk.RefTable == t.Name
}

// systemSchemas are catalog schemas goseed refuses to touch.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"pg_catalog":         true,
	"pg_toast":           true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// IsSystemSchema reports whether a schema is reserved by the engine.
func IsSystemSchema(name string) bool {
	return systemSchemas[strings.ToLower(name)]
}

// normalizedTypes maps raw catalog type strings to normalized identifiers.
var normalizedTypes = map[string]string{
	"character varying":           "varchar",
	"varchar":                     "varchar",
	"character":                   "char",
	"char":                        "char",
	"bpchar":                      "char",
	"text":                        "text",
	"tinytext":                    "text",
	"mediumtext":                  "text",
	"longtext":                    "text",
	"smallint":                    "smallint",
	"int2":                        "smallint",
	"tinyint":                     "smallint",
	"integer":                     "integer",
	"int":                         "integer",
	"int4":                        "integer",
	"mediumint":                   "integer",
	"bigint":                      "bigint",
	"int8":                        "bigint",
	"boolean":                     "boolean",
	"bool":                        "boolean",
	"numeric":                     "numeric",
	"decimal":                     "numeric",
	"real":                        "float",
	"float4":                      "float",
	"float":                       "float",
	"double precision":            "double",
	"float8":                      "double",
	"double":                      "double",
	"date":                        "date",
	"time":                        "time",
	"time without time zone":      "time",
	"time with time zone":         "timetz",
	"timestamp":                   "timestamp",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
	"datetime":                    "timestamp",
	"uuid":                        "uuid",
	"json":                        "json",
	"jsonb":                       "jsonb",
	"bytea":                       "binary",
	"binary":                      "binary",
	"varbinary":                   "binary",
	"blob":                        "binary",
	"tinyblob":                    "binary",
	"mediumblob":                  "binary",
	"longblob":                    "binary",
	"inet":                        "inet",
	"cidr":                        "cidr",
	"macaddr":                     "macaddr",
	"macaddr8":                    "macaddr",
	"enum":                        "enum",
}

// NormalizeType maps a raw catalog type string to a normalized identifier.
// Unknown types (user-defined types such as Postgres enums) pass through
// lowercased so enum label lookup can match on the type name.
func NormalizeType(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if n, ok := normalizedTypes[key]; ok {
		return n
	}
	return key
}
