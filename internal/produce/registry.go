// Package produce generates synthetic column values for goseed.
package produce

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Generator produces one value from the run's random source.
type Generator func(r *rand.Rand) interface{}

// Registry maps generator names to value-producing functions. Override
// generator names are resolved against it at configuration-load time so a
// bad name fails before any row is synthesized.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]Generator)}
}

// Register adds or replaces a named generator.
func (reg *Registry) Register(name string, g Generator) {
	reg.generators[name] = g
}

// Has reports whether a generator name resolves.
func (reg *Registry) Has(name string) bool {
	_, ok := reg.generators[name]
	return ok
}

// Names returns all registered generator names, sorted.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.generators))
	for name := range reg.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownGeneratorError reports an override naming a generator that does
// not exist. It is fatal and never retried.
type UnknownGeneratorError struct {
	Name string
}

func (e *UnknownGeneratorError) Error() string {
	return fmt.Sprintf("unknown value generator %q", e.Name)
}

// Resolve returns the named generator or an UnknownGeneratorError.
func (reg *Registry) Resolve(name string) (Generator, error) {
	g, ok := reg.generators[name]
	if !ok {
		return nil, &UnknownGeneratorError{Name: name}
	}
	return g, nil
}

// DefaultRegistry returns the built-in generator set used for override
// resolution and column-name pattern hints.
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	reg.Register("first_name", func(r *rand.Rand) interface{} {
		return pick(r, firstNames)
	})
	reg.Register("last_name", func(r *rand.Rand) interface{} {
		return pick(r, lastNames)
	})
	reg.Register("full_name", func(r *rand.Rand) interface{} {
		return pick(r, firstNames) + " " + pick(r, lastNames)
	})
	reg.Register("email", func(r *rand.Rand) interface{} {
		return fmt.Sprintf("%s.%s%d@%s",
			strings.ToLower(pick(r, firstNames)),
			strings.ToLower(pick(r, lastNames)),
			r.Intn(1000),
			pick(r, emailDomains))
	})
	reg.Register("username", func(r *rand.Rand) interface{} {
		return fmt.Sprintf("%s%d", strings.ToLower(pick(r, firstNames)), r.Intn(10000))
	})
	reg.Register("phone", func(r *rand.Rand) interface{} {
		return fmt.Sprintf("+1-%03d-%03d-%04d", 200+r.Intn(800), r.Intn(1000), r.Intn(10000))
	})
	reg.Register("address", func(r *rand.Rand) interface{} {
		return fmt.Sprintf("%d %s %s", 1+r.Intn(9999), pick(r, streetNames), pick(r, streetSuffixes))
	})
	reg.Register("city", func(r *rand.Rand) interface{} {
		return pick(r, cities)
	})
	reg.Register("country", func(r *rand.Rand) interface{} {
		return pick(r, countries)
	})
	reg.Register("zip", func(r *rand.Rand) interface{} {
		return fmt.Sprintf("%05d", r.Intn(100000))
	})
	reg.Register("company", func(r *rand.Rand) interface{} {
		return pick(r, companyNames) + " " + pick(r, companySuffixes)
	})
	reg.Register("url", func(r *rand.Rand) interface{} {
		return fmt.Sprintf("https://www.%s%d.%s", pick(r, words), r.Intn(100), pick(r, tlds))
	})
	reg.Register("word", func(r *rand.Rand) interface{} {
		return pick(r, words)
	})
	reg.Register("sentence", func(r *rand.Rand) interface{} {
		n := 4 + r.Intn(8)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = pick(r, words)
		}
		s := strings.Join(parts, " ")
		return strings.ToUpper(s[:1]) + s[1:] + "."
	})

	return reg
}

// pick returns a uniformly random element of a non-empty slice.
func pick(r *rand.Rand, set []string) string {
	return set[r.Intn(len(set))]
}
