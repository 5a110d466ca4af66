package produce

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/goseed/internal/schema"
)

func newTestProducer(seed int64, enums map[string][]string) *Producer {
	p := NewProducer(rand.New(rand.NewSource(seed)), DefaultRegistry(), enums)
	p.SetReferenceTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return p
}

func col(name, typ string) *schema.Column {
	return &schema.Column{Name: name, Type: typ}
}

func TestValue_Deterministic(t *testing.T) {
	columns := []*schema.Column{
		col("active", "boolean"),
		col("quantity", "integer"),
		col("notes", "text"),
		col("created_at", "timestamp"),
		col("token", "uuid"),
	}

	first := newTestProducer(42, nil)
	second := newTestProducer(42, nil)

	for _, c := range columns {
		a, err := first.Value(c, nil)
		require.NoError(t, err)
		b, err := second.Value(c, nil)
		require.NoError(t, err)
		assert.Equal(t, a, b, "column %s", c.Name)
	}
}

func TestValue_DifferentSeedsDiverge(t *testing.T) {
	a, err := newTestProducer(1, nil).Value(col("id", "uuid"), nil)
	require.NoError(t, err)
	b, err := newTestProducer(2, nil).Value(col("id", "uuid"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValue_IntegerRanges(t *testing.T) {
	p := newTestProducer(7, nil)

	for i := 0; i < 200; i++ {
		v, err := p.Value(col("n", "smallint"), nil)
		require.NoError(t, err)
		n := v.(int)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 1000)
	}

	for i := 0; i < 200; i++ {
		v, err := p.Value(col("n", "integer"), nil)
		require.NoError(t, err)
		n := v.(int)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 10000)
	}
}

func TestValue_DecimalRespectsPrecisionAndScale(t *testing.T) {
	p := newTestProducer(11, nil)
	c := &schema.Column{Name: "price", Type: "numeric", NumericPrecision: 6, NumericScale: 2}

	for i := 0; i < 100; i++ {
		v, err := p.Value(c, nil)
		require.NoError(t, err)
		d := v.(decimal.Decimal)

		// precision 6, scale 2 allows at most 4 integer digits
		assert.True(t, d.LessThan(decimal.NewFromInt(10000)), "value %s too large", d)
		assert.True(t, d.GreaterThanOrEqual(decimal.Zero), "value %s negative", d)
		assert.LessOrEqual(t, int(-d.Exponent()), 2, "value %s has too many fraction digits", d)
	}
}

func TestValue_VarcharClamped(t *testing.T) {
	p := newTestProducer(13, nil)
	c := &schema.Column{Name: "code", Type: "varchar", MaxLength: 5}

	for i := 0; i < 100; i++ {
		v, err := p.Value(c, nil)
		require.NoError(t, err)
		s := v.(string)
		assert.LessOrEqual(t, len([]rune(s)), 5)
	}
}

func TestValue_EnumFromColumn(t *testing.T) {
	p := newTestProducer(17, nil)
	c := &schema.Column{Name: "status", Type: "order_status", EnumValues: []string{"new", "paid", "shipped"}}

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		v, err := p.Value(c, nil)
		require.NoError(t, err)
		s := v.(string)
		assert.Contains(t, []string{"new", "paid", "shipped"}, s)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 1, "expected more than one label over 50 draws")
}

func TestValue_EnumFromSchemaTypes(t *testing.T) {
	enums := map[string][]string{"mood": {"happy", "sad"}}
	p := newTestProducer(19, enums)

	v, err := p.Value(col("feeling", "mood"), nil)
	require.NoError(t, err)
	assert.Contains(t, []string{"happy", "sad"}, v.(string))
}

func TestValue_PatternHints(t *testing.T) {
	p := newTestProducer(23, nil)

	v, err := p.Value(col("email", "varchar"), nil)
	require.NoError(t, err)
	assert.Contains(t, v.(string), "@")

	v, err = p.Value(col("contact_email", "text"), nil)
	require.NoError(t, err)
	assert.Contains(t, v.(string), "@")

	v, err = p.Value(col("phone_number", "varchar"), nil)
	require.NoError(t, err)
	assert.Regexp(t, `^\+?[0-9() -]+$`, v.(string))
}

func TestValue_HintIgnoredForNonTextColumns(t *testing.T) {
	// An integer column named email_count must stay numeric.
	p := newTestProducer(29, nil)

	v, err := p.Value(col("email_count", "integer"), nil)
	require.NoError(t, err)
	_, isInt := v.(int)
	assert.True(t, isInt, "got %T", v)
}

func TestValue_Array(t *testing.T) {
	p := newTestProducer(31, nil)
	c := &schema.Column{Name: "tags", Type: "array", ElementType: "text"}

	v, err := p.Value(c, nil)
	require.NoError(t, err)
	s := v.(string)
	assert.True(t, strings.HasPrefix(s, "{"), "got %q", s)
	assert.True(t, strings.HasSuffix(s, "}"), "got %q", s)
}

func TestValue_TimestampBeforeReference(t *testing.T) {
	ref := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := newTestProducer(37, nil)

	for i := 0; i < 50; i++ {
		v, err := p.Value(col("created_at", "timestamp"), nil)
		require.NoError(t, err)
		ts := v.(time.Time)
		assert.False(t, ts.After(ref), "timestamp %s after reference", ts)
		assert.True(t, ts.After(ref.AddDate(-6, 0, 0)), "timestamp %s too old", ts)
	}
}

func TestValue_OverrideValues(t *testing.T) {
	p := newTestProducer(41, nil)
	o := &Override{Values: []string{"alpha", "beta"}}

	for i := 0; i < 20; i++ {
		v, err := p.Value(col("status", "varchar"), o)
		require.NoError(t, err)
		assert.Contains(t, []string{"alpha", "beta"}, v.(string))
	}
}

func TestValue_OverrideGenerator(t *testing.T) {
	p := newTestProducer(43, nil)
	o := &Override{Generate: func(r *rand.Rand) interface{} { return "fixed" }}

	v, err := p.Value(col("anything", "integer"), o)
	require.NoError(t, err)
	assert.Equal(t, "fixed", v)
}

func TestValue_UnknownTypeFallsBack(t *testing.T) {
	p := newTestProducer(47, nil)

	v, err := p.Value(col("mystery", "tsvector"), nil)
	require.NoError(t, err)
	_, isString := v.(string)
	assert.True(t, isString, "got %T", v)
}

func TestRegistry_Resolve(t *testing.T) {
	reg := DefaultRegistry()

	g, err := reg.Resolve("email")
	require.NoError(t, err)
	require.NotNil(t, g)

	_, err = reg.Resolve("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestRegistry_NamesSorted(t *testing.T) {
	names := DefaultRegistry().Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}
