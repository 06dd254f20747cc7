package chat

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the numeric prefix of a string, the same prefix a
// lenient float parse would accept ("12.50", "12abc", " -3e2 ").
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Number is a loosely typed numeric field. Clients send balances and
// amounts either as JSON numbers or as strings.
type Number struct {
	Value float64
	Valid bool
}

// NewNumber returns a valid Number holding v.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Float returns the value, or 0 when the number is not valid.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else
// decodes as an invalid Number rather than failing the whole request.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	if f, ok := ParseAmount(v); ok {
		*n = NewNumber(f)
	}
	return nil
}

// MarshalJSON writes the value or null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ParseAmount converts a loosely typed JSON value to a float. Native
// numbers pass through; strings use their leading numeric prefix.
func ParseAmount(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		return parseFloatPrefix(string(val))
	case string:
		return parseFloatPrefix(val)
	default:
		return 0, false
	}
}

func parseFloatPrefix(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
