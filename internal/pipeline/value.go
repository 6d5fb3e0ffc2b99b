// Package pipeline derives projections, comparisons and summary statistics
// from the ordered entry list and the optional target.
package pipeline

import (
	"encoding/json"
	"strconv"
)

// Value is a metric that may have no meaningful number: no data, a date
// before the target start, or a guarded division by zero. Presentation
// surfaces Undefined as 0 through OrZero.
type Value struct {
	v  float64
	ok bool
}

// Defined wraps v.
func Defined(v float64) Value { return Value{v: v, ok: true} }

// Undefined returns the empty Value.
func Undefined() Value { return Value{} }

// Get returns the number and whether it is defined.
func (v Value) Get() (float64, bool) { return v.v, v.ok }

// IsDefined reports whether v carries a number.
func (v Value) IsDefined() bool { return v.ok }

// OrZero returns the number, or 0 when undefined.
func (v Value) OrZero() float64 {
	if !v.ok {
		return 0
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "undefined"
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes undefined as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// ratio returns num/den*100 when den > 0.
func ratio(num, den float64) Value {
	if den <= 0 {
		return Undefined()
	}
	return Defined(num / den * 100)
}
