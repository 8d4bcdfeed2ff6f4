package docstore

import (
	"errors"
	"fmt"
)

// Result holds either a successfully coerced value or a descriptive failure.
// Expected shape mismatches (wrong variant, missing field, null where a value
// was required) are always reported through a failed Result, never through a
// panic.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a value in a successful Result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail creates a failed Result from an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Failf creates a failed Result with a formatted message.
func Failf[T any](format string, args ...interface{}) Result[T] {
	return Result[T]{err: fmt.Errorf(format, args...)}
}

// IsOk reports whether the result holds a value.
func (r Result[T]) IsOk() bool { return r.err == nil }

// Get returns the value or the failure that produced the result.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// MustGet returns the value, panicking on a failed result. Reserve it for
// values the caller has already verified.
func (r Result[T]) MustGet() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

// Or returns the value, or def if the result failed.
func (r Result[T]) Or(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

// Err returns the failure, or nil for a successful result.
func (r Result[T]) Err() error { return r.err }

// Map applies fn to a successful result, passing a failure through
// untouched.
func Map[A, B any](r Result[A], fn func(A) B) Result[B] {
	if r.err != nil {
		return Fail[B](r.err)
	}
	return Ok(fn(r.value))
}

// FlatMap chains a fallible step onto a successful result, passing a
// failure through untouched.
func FlatMap[A, B any](r Result[A], fn func(A) Result[B]) Result[B] {
	if r.err != nil {
		return Fail[B](r.err)
	}
	return fn(r.value)
}

// Collect turns a slice of results into a result of a slice, failing on the
// first failed element.
func Collect[T any](rs []Result[T]) Result[[]T] {
	out := make([]T, len(rs))
	for i, r := range rs {
		if r.err != nil {
			return Fail[[]T](r.err)
		}
		out[i] = r.value
	}
	return Ok(out)
}

// errNull is returned when Null is found where a non-null value was
// required.
var errNull = errors.New("value is null")
