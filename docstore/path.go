package docstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is the outcome of navigating a path through a Value: either the
// value found at the end of the path, or a failure naming the step that
// could not be followed. Navigation never panics for missing fields,
// out-of-range indexes, or non-container variants; those are expected
// shapes of dynamically typed data.
type Field struct {
	value Value
	err   error
}

// At navigates from v through the given steps. Each step is a field name
// (string) for Object values or an index (int) for Array values. Any other
// step type is a programmer error and panics.
func At(v Value, steps ...interface{}) Field {
	return Field{value: v}.At(steps...)
}

// At continues navigation from a previous Field. A failed Field stays
// failed; the first bad step wins.
func (f Field) At(steps ...interface{}) Field {
	if f.err != nil {
		return f
	}

	current := f.value
	for i, step := range steps {
		switch s := step.(type) {
		case string:
			obj, ok := current.(ObjectV)
			if !ok {
				return Field{err: fmt.Errorf(
					"can not navigate into %s with key %q at path %s",
					current.Variant(), s, pathString(steps[:i+1]))}
			}
			next, present := obj[s]
			if !present {
				return Field{err: fmt.Errorf(
					"key %q not found at path %s", s, pathString(steps[:i+1]))}
			}
			current = next
		case int:
			arr, ok := current.(ArrayV)
			if !ok {
				return Field{err: fmt.Errorf(
					"can not navigate into %s with index %d at path %s",
					current.Variant(), s, pathString(steps[:i+1]))}
			}
			if s < 0 || s >= len(arr) {
				return Field{err: fmt.Errorf(
					"index %d out of bounds (array has %d elements) at path %s",
					s, len(arr), pathString(steps[:i+1]))}
			}
			current = arr[s]
		default:
			panic(fmt.Sprintf("path step must be a string or an int, got %T", step))
		}
	}

	return Field{value: current}
}

// Get returns the navigated value or the navigation failure.
func (f Field) Get() (Value, error) {
	return f.value, f.err
}

// To applies a codec to the navigated value, short-circuiting on a
// navigation failure.
func To[T any](f Field, codec Codec[T]) Result[T] {
	if f.err != nil {
		return Fail[T](f.err)
	}
	return codec(f.value)
}

func pathString(steps []interface{}) string {
	parts := make([]string, len(steps))
	for i, step := range steps {
		switch s := step.(type) {
		case string:
			parts[i] = s
		case int:
			parts[i] = strconv.Itoa(s)
		default:
			parts[i] = fmt.Sprintf("%v", s)
		}
	}
	return strings.Join(parts, "/")
}
