package seeder

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Row is one synthesized row: an ordered mapping from column name to value.
// Iteration order is the column insert order, which must stay stable from
// synthesis through statement building.
type Row struct {
	values *orderedmap.OrderedMap[string, interface{}]
}

// NewRow creates an empty row.
func NewRow() *Row {
	return &Row{values: orderedmap.NewOrderedMap[string, interface{}]()}
}

// Set assigns a column value, appending the column if new.
func (r *Row) Set(column string, value interface{}) {
	r.values.Set(column, value)
}

// Get returns the value for a column and whether it was set. A set column
// holding SQL NULL returns (nil, true).
func (r *Row) Get(column string) (interface{}, bool) {
	return r.values.Get(column)
}

// Len returns the number of columns in the row.
func (r *Row) Len() int {
	return r.values.Len()
}

// Columns returns the column names in insert order.
func (r *Row) Columns() []string {
	cols := make([]string, 0, r.values.Len())
	for el := r.values.Front(); el != nil; el = el.Next() {
		cols = append(cols, el.Key)
	}
	return cols
}

// ValuesFor returns the row's values for the given columns, in order.
// Columns the row never set come back as nil.
func (r *Row) ValuesFor(columns []string) []interface{} {
	vals := make([]interface{}, len(columns))
	for i, c := range columns {
		v, _ := r.values.Get(c)
		vals[i] = v
	}
	return vals
}
