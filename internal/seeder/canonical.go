package seeder

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// keySeparator joins canonicalized values order-preservingly. The unit
// separator cannot appear in canonical forms of ordinary values.
const keySeparator = "\x1f"

// CanonicalKey derives the conflict-detection key for a unique constraint
// from the row's values at its columns. Returns ok=false when any value is
// null: a constraint with a null participant is never checked, mirroring
// relational uniqueness semantics where null never conflicts.
func CanonicalKey(values []interface{}) (string, bool) {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			return "", false
		}
		parts[i] = canonicalize(v)
	}
	return strings.Join(parts, keySeparator), true
}

// canonicalize renders one value into its canonical string form:
// primitives as plain strings, temporal values as ISO-8601, everything
// else as a structural serialization.
func canonicalize(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		// Drivers without type information hand text columns back as
		// []byte; canonicalizing by content keys them identically to the
		// string values synthesized in-process.
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}
