package docstore

import (
	"time"
)

// Codec is an attempt to coerce a Value to a concrete Go type. A codec is a
// pure function: it holds no state and is safe to apply from any number of
// goroutines. Coercion failures are reported through the Result, never by
// panicking.
//
// Pre-defined codecs cover every variant: Any, String, Long, Double,
// Boolean, Bytes, Date, Time, HighPrecTime, Ref, SetRef, Array, and Object.
//
// Composite codecs are ordinary functions built from the pre-defined ones:
//
//	var personCodec docstore.Codec[Person] = func(v docstore.Value) docstore.Result[Person] {
//		return docstore.FlatMap(docstore.String.At(v, "data", "firstName"), func(first string) docstore.Result[Person] {
//			return docstore.Map(docstore.String.At(v, "data", "lastName"), func(last string) Person {
//				return Person{First: first, Last: last}
//			})
//		})
//	}
type Codec[T any] func(Value) Result[T]

// At navigates from v through the given path steps and applies the codec to
// the value found there. A failed step short-circuits: the result carries
// the navigation failure and the codec is never applied.
func (c Codec[T]) At(v Value, steps ...interface{}) Result[T] {
	return To(At(v, steps...), c)
}

// mapTo builds a codec that succeeds only when the value's runtime variant
// is exactly V, applying extract to the matched variant. Every scalar and
// container codec is an instance of this one primitive.
func mapTo[V Value, T any](extract func(V) T) Codec[T] {
	return func(v Value) Result[T] {
		matched, ok := v.(V)
		if !ok {
			var want V
			return Failf[T]("can not convert %s to %s", v.Variant(), want.Variant())
		}
		return Ok(extract(matched))
	}
}

var (
	// Any passes any non-null value through unchanged. Null is a valid
	// variant but never a valid decode target, so Any rejects it.
	Any Codec[Value] = func(v Value) Result[Value] {
		if _, isNull := v.(NullV); isNull {
			return Fail[Value](errNull)
		}
		return Ok(v)
	}

	// String coerces a Value to a Go string.
	String = mapTo(func(v StringV) string { return string(v) })

	// Long coerces a Value to an int64.
	Long = mapTo(func(v LongV) int64 { return int64(v) })

	// Double coerces a Value to a float64.
	Double = mapTo(func(v DoubleV) float64 { return float64(v) })

	// Boolean coerces a Value to a bool.
	Boolean = mapTo(func(v BooleanV) bool { return bool(v) })

	// Bytes coerces a Value to a byte slice. The slice is a copy; mutating
	// it does not affect the Value.
	Bytes = mapTo(func(v BytesV) []byte { return append([]byte(nil), v...) })

	// Date coerces a Value to the time.Time at UTC midnight of its calendar
	// day.
	Date = mapTo(func(v DateV) time.Time { return time.Time(v) })

	// Time coerces a Value to a time.Time truncated to millisecond
	// precision, the common case for wire timestamps.
	Time = mapTo(func(v TimeV) time.Time { return time.Time(v).Truncate(time.Millisecond) })

	// HighPrecTime coerces a Value to a time.Time preserving the full
	// nanosecond precision of the instant.
	HighPrecTime = mapTo(func(v TimeV) time.Time { return time.Time(v) })

	// Ref coerces a Value to a RefV.
	Ref = mapTo(func(v RefV) RefV { return v })

	// SetRef coerces a Value to a SetRefV.
	SetRef = mapTo(func(v SetRefV) SetRefV { return v })

	// Array coerces a Value to its elements. The slice is a fresh copy;
	// element decoding is left to the caller.
	Array = mapTo(func(v ArrayV) []Value { return append([]Value(nil), v...) })

	// Object coerces a Value to its fields. The map is a fresh copy;
	// field decoding is left to the caller.
	Object = mapTo(func(v ObjectV) map[string]Value {
		out := make(map[string]Value, len(v))
		for k, elem := range v {
			out[k] = elem
		}
		return out
	})
)
