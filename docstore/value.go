// Package docstore holds the dynamic value model of the driver: the Value
// variants the wire protocol can carry, and the Result/Codec combinators
// that project them onto concrete Go types without panicking on expected
// shape mismatches.
package docstore

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Value represents any datum exchanged with the database: scalars,
// timestamps, references, and the Array/Object containers. The variant set
// is closed; every variant is one of the concrete types below. Values are
// immutable once constructed and safe to share across goroutines.
//
// Just like the wire format distinguishes integral from fractional numbers,
// LongV and DoubleV are distinct variants and never compare equal.
type Value interface {
	fmt.Stringer

	// Variant returns the variant name used in coercion error messages
	// ("String", "Long", "Ref", ...).
	Variant() string
}

// NullV is the null value. It is a real variant, distinct from a missing
// object field.
type NullV struct{}

// Null is the canonical null value.
var Null = NullV{}

// BooleanV is a boolean value.
type BooleanV bool

// LongV is a 64-bit signed integer value.
type LongV int64

// DoubleV is a 64-bit floating point value.
type DoubleV float64

// StringV is a UTF-8 string value.
type StringV string

// BytesV is an opaque binary value.
type BytesV []byte

// DateV is a calendar date with no time-of-day component. Construct with
// NewDate to guarantee the underlying instant sits at UTC midnight.
type DateV time.Time

// NewDate creates a DateV for the given calendar day.
func NewDate(year int, month time.Month, day int) DateV {
	return DateV(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// TimeV is an instant with nanosecond precision. The Time codec truncates
// it to milliseconds; the HighPrecTime codec preserves it exactly.
type TimeV time.Time

// RefV identifies a stored document, class, or index. Parent is nil for
// top-level refs such as the classes and indexes collections themselves.
type RefV struct {
	ID     string
	Parent *RefV
}

// SetRefV is an opaque descriptor of a deferred query-result set. The
// parameters are whatever the server used to describe the set; they are
// never materialized by this package.
type SetRefV struct {
	Parameters ObjectV
}

// ArrayV is an ordered sequence of values.
type ArrayV []Value

// ObjectV is a mapping from field name to value.
type ObjectV map[string]Value

func (v NullV) Variant() string    { return "Null" }
func (v BooleanV) Variant() string { return "Boolean" }
func (v LongV) Variant() string    { return "Long" }
func (v DoubleV) Variant() string  { return "Double" }
func (v StringV) Variant() string  { return "String" }
func (v BytesV) Variant() string   { return "Bytes" }
func (v DateV) Variant() string    { return "Date" }
func (v TimeV) Variant() string    { return "Time" }
func (v RefV) Variant() string     { return "Ref" }
func (v SetRefV) Variant() string  { return "SetRef" }
func (v ArrayV) Variant() string   { return "Array" }
func (v ObjectV) Variant() string  { return "Object" }

func (v NullV) String() string    { return "null" }
func (v BooleanV) String() string { return strconv.FormatBool(bool(v)) }
func (v LongV) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v DoubleV) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v StringV) String() string  { return strconv.Quote(string(v)) }
func (v BytesV) String() string {
	return "bytes(" + base64.URLEncoding.EncodeToString([]byte(v)) + ")"
}
func (v DateV) String() string { return time.Time(v).Format("2006-01-02") }
func (v TimeV) String() string { return time.Time(v).UTC().Format(time.RFC3339Nano) }

func (v RefV) String() string {
	if v.Parent == nil {
		return "ref(" + v.ID + ")"
	}
	return "ref(" + v.Parent.path() + "/" + v.ID + ")"
}

func (v RefV) path() string {
	if v.Parent == nil {
		return v.ID
	}
	return v.Parent.path() + "/" + v.ID
}

func (v SetRefV) String() string { return "set(" + v.Parameters.String() + ")" }

func (v ArrayV) String() string {
	parts := make([]string, len(v))
	for i, elem := range v {
		parts[i] = elem.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (v ObjectV) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + v[k].String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Equal reports structural, variant-aware equality. Values of different
// variants are never equal: LongV(1) does not equal DoubleV(1). Arrays
// compare element-wise in order; objects compare key-wise.
func Equal(a, b Value) bool {
	switch left := a.(type) {
	case NullV:
		_, ok := b.(NullV)
		return ok
	case BooleanV:
		right, ok := b.(BooleanV)
		return ok && left == right
	case LongV:
		right, ok := b.(LongV)
		return ok && left == right
	case DoubleV:
		right, ok := b.(DoubleV)
		return ok && left == right
	case StringV:
		right, ok := b.(StringV)
		return ok && left == right
	case BytesV:
		right, ok := b.(BytesV)
		return ok && bytes.Equal([]byte(left), []byte(right))
	case DateV:
		right, ok := b.(DateV)
		return ok && time.Time(left).Equal(time.Time(right))
	case TimeV:
		right, ok := b.(TimeV)
		return ok && time.Time(left).Equal(time.Time(right))
	case RefV:
		right, ok := b.(RefV)
		return ok && refsEqual(left, right)
	case SetRefV:
		right, ok := b.(SetRefV)
		return ok && Equal(left.Parameters, right.Parameters)
	case ArrayV:
		right, ok := b.(ArrayV)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !Equal(left[i], right[i]) {
				return false
			}
		}
		return true
	case ObjectV:
		right, ok := b.(ObjectV)
		if !ok || len(left) != len(right) {
			return false
		}
		for k, lv := range left {
			rv, present := right[k]
			if !present || !Equal(lv, rv) {
				return false
			}
		}
		return true
	}
	return false
}

func refsEqual(a, b RefV) bool {
	if a.ID != b.ID {
		return false
	}
	if a.Parent == nil || b.Parent == nil {
		return a.Parent == b.Parent
	}
	return refsEqual(*a.Parent, *b.Parent)
}
