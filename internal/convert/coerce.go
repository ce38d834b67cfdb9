package convert

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/sourceplane/obconsole/internal/model"
)

// Coerce turns an entered value into its wire value. A numeric zero stays
// 0, a string parsing to a non-zero number becomes that number, any other
// non-empty string is kept, and empty input becomes nil. Booleans pass
// through unchanged.
func Coerce(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		return x
	case string:
		if x == "" {
			return nil
		}
		if f, ok := parseNumber(x); ok && f != 0 {
			return f
		}
		return x
	case json.Number:
		return Coerce(x.String())
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	}
	return v
}

// CoerceArgument is Coerce for a job argument value. Text only turns into a
// number for arguments declared int or float.
func CoerceArgument(v interface{}, t model.ArgumentType) interface{} {
	if s, ok := v.(string); ok && t != model.TypeInt && t != model.TypeFloat {
		if s == "" {
			return nil
		}
		return s
	}
	return Coerce(v)
}

// CoerceDate is Coerce for offsets, intervals and delays: the literal "0"
// is a zero duration rather than text
func CoerceDate(v interface{}) interface{} {
	if s, ok := v.(string); ok && s == "0" {
		return float64(0)
	}
	return Coerce(v)
}

func finite(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
