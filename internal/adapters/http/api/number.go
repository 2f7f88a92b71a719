package api

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a lenient numeric field. It accepts JSON numbers and numeric
// strings; anything else decodes to NaN and is rejected by the intent that
// reads it.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = math.NaN()
		}
		*n = Number(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*n = Number(math.NaN())
		return nil //nolint:nilerr // non-numeric values are a validation concern
	}
	*n = Number(v)
	return nil
}

// Float returns n, or NaN when unset.
func (n *Number) Float() float64 {
	if n == nil {
		return math.NaN()
	}
	return float64(*n)
}
