package metrics

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NotAvailable is how an unavailable value renders in text and CSV output.
const NotAvailable = "NA"

// Value is an optional metric value. The zero Value is not available.
type Value struct {
	v  float64
	ok bool
}

// Of returns an available Value.
func Of(v float64) Value {
	return Value{v: v, ok: true}
}

// NA returns an unavailable Value.
func NA() Value {
	return Value{}
}

// Valid reports whether the value is available.
func (v Value) Valid() bool {
	return v.ok
}

// Get returns the value and whether it is available.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// Format renders the value with a fixed number of decimals, or NA.
// A negative precision uses the shortest exact representation.
func (v Value) Format(precision int) string {
	if !v.ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v.v, 'f', precision, 64)
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return v.Format(-1)
}

// MarshalJSON renders an unavailable value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = NA()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Of(f)
	return nil
}

// MarshalYAML renders an unavailable value as null.
func (v Value) MarshalYAML() (any, error) {
	if !v.ok {
		return nil, nil
	}
	return v.v, nil
}

// Count is an optional non-negative counter.
type Count struct {
	n  int
	ok bool
}

// CountOf returns an available Count.
func CountOf(n int) Count {
	return Count{n: n, ok: true}
}

// Valid reports whether the count is available.
func (c Count) Valid() bool {
	return c.ok
}

// Get returns the count and whether it is available.
func (c Count) Get() (int, bool) {
	return c.n, c.ok
}

// String renders the count, or NA.
func (c Count) String() string {
	if !c.ok {
		return NotAvailable
	}
	return strconv.Itoa(c.n)
}

// MarshalJSON renders an unavailable count as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.ok {
		return []byte("null"), nil
	}
	return json.Marshal(c.n)
}

// UnmarshalJSON accepts an integer or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = Count{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = CountOf(n)
	return nil
}

// MarshalYAML renders an unavailable count as null.
func (c Count) MarshalYAML() (any, error) {
	if !c.ok {
		return nil, nil
	}
	return c.n, nil
}
