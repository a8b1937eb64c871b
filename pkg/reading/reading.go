// Package reading holds a measured value that is either a number or the
// "-" placeholder the dashboard shows when a provider has nothing.
package reading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const Placeholder = "-"

type Value struct {
	v  float64
	ok bool
}

var Missing = Value{}

// Of wraps v. Infinities and NaN have no JSON form and count as missing.
func Of(v float64) Value {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Missing
	}
	return Value{v: v, ok: true}
}

// NonZero treats zero as "no data"; providers send 0 for unmapped cells.
func NonZero(v float64) Value {
	if v == 0 {
		return Missing
	}
	return Of(v)
}

func (r Value) Float() (float64, bool) { return r.v, r.ok }

func (r Value) Valid() bool { return r.ok }

func (r Value) String() string {
	if !r.ok {
		return Placeholder
	}
	return strconv.FormatFloat(r.v, 'f', -1, 64)
}

// Round returns the value rounded to dp decimals, half up.
func (r Value) Round(dp int) Value {
	if !r.ok {
		return r
	}
	return Of(Round(r.v, dp))
}

func (r Value) MarshalJSON() ([]byte, error) {
	if !r.ok {
		return []byte(`"-"`), nil
	}
	return []byte(strconv.FormatFloat(r.v, 'f', -1, 64)), nil
}

func (r *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = Missing
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == Placeholder || s == "" {
			*r = Missing
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("reading: %q is not a number", s)
		}
		*r = Of(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Of(f)
	return nil
}

// Round rounds half up (towards +Inf), the way the dashboard always has.
func Round(v float64, dp int) float64 {
	p := math.Pow(10, float64(dp))
	return math.Floor(v*p+0.5) / p
}
