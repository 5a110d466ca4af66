package seeder

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/goseed/internal/config"
	"github.com/dbsmedya/goseed/internal/produce"
)

// OverrideSet resolves per-column overrides. Lookup tries the most specific
// key first: schema.table.column, then table.column, then the bare column
// name. First match wins.
type OverrideSet struct {
	byKey map[string]*produce.Override
}

// BuildOverrides converts configuration overrides into resolved producer
// overrides. Generator names resolve against the registry here, so an
// unresolvable override fails before any row synthesis.
func BuildOverrides(cfgs []config.OverrideConfig, registry *produce.Registry) (*OverrideSet, error) {
	set := &OverrideSet{byKey: make(map[string]*produce.Override, len(cfgs))}

	for _, c := range cfgs {
		o := &produce.Override{}
		if len(c.Values) > 0 {
			o.Values = append([]string(nil), c.Values...)
		} else {
			g, err := registry.Resolve(c.Generator)
			if err != nil {
				return nil, fmt.Errorf("override for %s: %w", c.Column, err)
			}
			o.Generate = g
		}
		set.byKey[strings.ToLower(c.Column)] = o
	}

	return set, nil
}

// For returns the override for a column, or nil when none matches.
func (s *OverrideSet) For(schemaName, tableName, columnName string) *produce.Override {
	if s == nil {
		return nil
	}
	keys := [3]string{
		strings.ToLower(schemaName + "." + tableName + "." + columnName),
		strings.ToLower(tableName + "." + columnName),
		strings.ToLower(columnName),
	}
	for _, k := range keys {
		if o, ok := s.byKey[k]; ok {
			return o
		}
	}
	return nil
}
