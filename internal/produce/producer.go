package produce

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dbsmedya/goseed/internal/schema"
)

// Override replaces default generation for one column: either an explicit
// candidate list (chosen uniformly, type ignored) or a resolved generator.
type Override struct {
	Values   []string
	Generate Generator
}

// Producer turns a column descriptor into one synthetic value. It is
// stateless except for the run's seeded random source, so a fixed seed
// replays the same value sequence.
type Producer struct {
	rand     *rand.Rand
	registry *Registry
	enums    map[string][]string // enum type name (bare and qualified) -> labels
	ref      time.Time           // upper bound for generated temporal values
}

// NewProducer creates a Producer over the run's random source.
func NewProducer(r *rand.Rand, registry *Registry, enums map[string][]string) *Producer {
	return &Producer{
		rand:     r,
		registry: registry,
		enums:    enums,
		ref:      time.Now(),
	}
}

// SetReferenceTime pins the upper bound for temporal values. Used by tests
// to make generated dates reproducible.
func (p *Producer) SetReferenceTime(t time.Time) {
	p.ref = t
}

// Value returns one synthetic value for the column, honoring the override
// when present.
func (p *Producer) Value(col *schema.Column, override *Override) (interface{}, error) {
	if override != nil {
		if len(override.Values) > 0 {
			return override.Values[p.rand.Intn(len(override.Values))], nil
		}
		if override.Generate != nil {
			return override.Generate(p.rand), nil
		}
	}

	switch col.Type {
	case "array":
		return p.arrayValue(col)
	}

	if labels := p.enumLabels(col); len(labels) > 0 {
		return labels[p.rand.Intn(len(labels))], nil
	}

	// Column-name hints beat generic handling for textual columns.
	if isTextual(col.Type) {
		if name, ok := hintFor(col.Name); ok {
			g, err := p.registry.Resolve(name)
			if err != nil {
				return nil, err
			}
			return clampValue(g(p.rand), col.MaxLength), nil
		}
	}

	if gen, ok := typeGenerators[col.Type]; ok {
		return gen(p, col), nil
	}

	// Unrecognized type: a single generic word, length-clamped.
	return clamp(pick(p.rand, words), col.MaxLength), nil
}

// enumLabels resolves the label set for an enum column, from the column
// itself (MySQL) or the schema's enum types by bare or qualified name
// (Postgres).
func (p *Producer) enumLabels(col *schema.Column) []string {
	if len(col.EnumValues) > 0 {
		return col.EnumValues
	}
	if p.enums == nil {
		return nil
	}
	return p.enums[col.Type]
}

// arrayValue produces 1-3 element values and wraps them in an array
// literal. Arrays only occur on Postgres, so the literal form is fixed.
func (p *Producer) arrayValue(col *schema.Column) (interface{}, error) {
	elem := *col
	elem.Type = col.ElementType
	elem.ElementType = ""

	n := 1 + p.rand.Intn(3)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		v, err := p.Value(&elem, nil)
		if err != nil {
			return nil, err
		}
		parts[i] = formatArrayElement(v)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

func formatArrayElement(v interface{}) string {
	switch t := v.(type) {
	case string:
		return `"` + strings.ReplaceAll(t, `"`, `\"`) + `"`
	default:
		return fmt.Sprintf("%v", t)
	}
}

// typeGenerators dispatches on the normalized type identifier. New column
// types get an entry here rather than another branch in Value.
var typeGenerators = map[string]func(p *Producer, col *schema.Column) interface{}{
	"boolean": func(p *Producer, _ *schema.Column) interface{} {
		return p.rand.Intn(2) == 1
	},
	"smallint": func(p *Producer, _ *schema.Column) interface{} {
		return 1 + p.rand.Intn(1000)
	},
	"integer": func(p *Producer, _ *schema.Column) interface{} {
		return 1 + p.rand.Intn(10000)
	},
	"bigint": func(p *Producer, _ *schema.Column) interface{} {
		return int64(1 + p.rand.Intn(10000))
	},
	"numeric": func(p *Producer, col *schema.Column) interface{} {
		return p.decimalValue(col)
	},
	"float": func(p *Producer, _ *schema.Column) interface{} {
		return float64(p.rand.Intn(100000)) / 100
	},
	"double": func(p *Producer, _ *schema.Column) interface{} {
		return float64(p.rand.Intn(10000000)) / 100
	},
	"date": func(p *Producer, _ *schema.Column) interface{} {
		return p.pastTime().Format("2006-01-02")
	},
	"time": func(p *Producer, _ *schema.Column) interface{} {
		return fmt.Sprintf("%02d:%02d:%02d", p.rand.Intn(24), p.rand.Intn(60), p.rand.Intn(60))
	},
	"timetz": func(p *Producer, _ *schema.Column) interface{} {
		return fmt.Sprintf("%02d:%02d:%02d+00", p.rand.Intn(24), p.rand.Intn(60), p.rand.Intn(60))
	},
	"timestamp": func(p *Producer, _ *schema.Column) interface{} {
		return p.pastTime()
	},
	"timestamptz": func(p *Producer, _ *schema.Column) interface{} {
		return p.pastTime()
	},
	"uuid": func(p *Producer, _ *schema.Column) interface{} {
		u, _ := uuid.NewRandomFromReader(p.rand)
		return u.String()
	},
	"json": func(p *Producer, _ *schema.Column) interface{} {
		return p.jsonValue()
	},
	"jsonb": func(p *Producer, _ *schema.Column) interface{} {
		return p.jsonValue()
	},
	"binary": func(p *Producer, col *schema.Column) interface{} {
		return p.binaryValue(col)
	},
	"inet": func(p *Producer, _ *schema.Column) interface{} {
		return fmt.Sprintf("10.%d.%d.%d", p.rand.Intn(256), p.rand.Intn(256), 1+p.rand.Intn(254))
	},
	"cidr": func(p *Producer, _ *schema.Column) interface{} {
		return fmt.Sprintf("10.%d.%d.0/24", p.rand.Intn(256), p.rand.Intn(256))
	},
	"macaddr": func(p *Producer, _ *schema.Column) interface{} {
		buf := make([]byte, 6)
		p.rand.Read(buf)
		return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", buf[0], buf[1], buf[2], buf[3], buf[4], buf[5])
	},
	"text": func(p *Producer, col *schema.Column) interface{} {
		return clamp(p.words(3+p.rand.Intn(5)), col.MaxLength)
	},
	"varchar": func(p *Producer, col *schema.Column) interface{} {
		return clamp(p.words(1+p.rand.Intn(3)), col.MaxLength)
	},
	"char": func(p *Producer, col *schema.Column) interface{} {
		return clamp(pick(p.rand, words), col.MaxLength)
	},
}

// decimalValue generates a NUMERIC honoring the column's precision and
// scale: the integer part can never use more digits than precision-scale
// allows.
func (p *Producer) decimalValue(col *schema.Column) decimal.Decimal {
	precision := col.NumericPrecision
	scale := col.NumericScale
	if precision <= 0 {
		precision = 10
	}
	if scale < 0 || scale >= precision {
		scale = 0
	}

	intDigits := precision - scale
	if intDigits > 9 {
		intDigits = 9
	}
	fracDigits := scale
	if fracDigits > 9 {
		fracDigits = 9
	}

	intPart := p.rand.Int63n(pow10(intDigits))
	fracPart := p.rand.Int63n(pow10(fracDigits))

	return decimal.New(intPart*pow10(fracDigits)+fracPart, -int32(fracDigits))
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// pastTime returns a time within the past 5 years of the reference time.
func (p *Producer) pastTime() time.Time {
	const fiveYears = 5 * 365 * 24 * 60 * 60
	return p.ref.Add(-time.Duration(p.rand.Int63n(fiveYears)) * time.Second).Truncate(time.Second)
}

func (p *Producer) jsonValue() string {
	return fmt.Sprintf(`{"label":%q,"value":%d}`, pick(p.rand, words), 1+p.rand.Intn(1000))
}

func (p *Producer) binaryValue(col *schema.Column) []byte {
	n := 8 + p.rand.Intn(9)
	if col.MaxLength > 0 && n > col.MaxLength {
		n = col.MaxLength
	}
	buf := make([]byte, n)
	p.rand.Read(buf)
	return buf
}

func (p *Producer) words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = pick(p.rand, words)
	}
	return strings.Join(parts, " ")
}

func isTextual(normalized string) bool {
	switch normalized {
	case "text", "varchar", "char":
		return true
	}
	return false
}

// clamp truncates a string to the column's declared maximum length.
func clamp(s string, maxLength int) string {
	if maxLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}

// clampValue clamps string values and passes everything else through.
func clampValue(v interface{}, maxLength int) interface{} {
	if s, ok := v.(string); ok {
		return clamp(s, maxLength)
	}
	return v
}
