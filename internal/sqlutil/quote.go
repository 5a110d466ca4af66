// Package sqlutil provides SQL identifier helpers for goseed.
package sqlutil

import (
	"regexp"
	"strings"
)

// Dialect selects identifier quoting and placeholder style.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// QuoteIdentifier quotes a table or column name for the dialect.
// Embedded quote characters are escaped by doubling.
// Example (mysql):    "my_table" -> "`my_table`"
// Example (postgres): "my_table" -> "\"my_table\""
func QuoteIdentifier(d Dialect, name string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedName quotes and joins a schema-qualified table name.
func QualifiedName(d Dialect, schema, table string) string {
	if schema == "" {
		return QuoteIdentifier(d, table)
	}
	return QuoteIdentifier(d, schema) + "." + QuoteIdentifier(d, table)
}

// QuoteAll quotes every identifier in the slice.
func QuoteAll(d Dialect, names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdentifier(d, n)
	}
	return quoted
}

// validIdentifierRegex matches identifier characters shared by both dialects.
// For safety we restrict to alphanumeric and underscore only.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a safe SQL identifier.
// This is a defense-in-depth measure against SQL injection; every
// identifier goseed interpolates comes from catalog introspection, but
// filters and overrides are user input.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes an identifier after validating it.
// Returns an error if the identifier contains invalid characters.
func QuoteIdentifierSafe(d Dialect, name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(d, name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
