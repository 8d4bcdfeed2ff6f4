package docstore

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One sample value per variant, used by the mismatch grids below.
func sampleValues() map[string]Value {
	classes := RefV{ID: "classes"}
	return map[string]Value{
		"Null":    Null,
		"Boolean": BooleanV(true),
		"Long":    LongV(10),
		"Double":  DoubleV(2.5),
		"String":  StringV("abc"),
		"Bytes":   BytesV{0xde, 0xad},
		"Date":    NewDate(2019, time.June, 1),
		"Time":    TimeV(time.Unix(100, 0)),
		"Ref":     RefV{ID: "1", Parent: &classes},
		"SetRef":  SetRefV{Parameters: ObjectV{"match": StringV("x")}},
		"Array":   ArrayV{LongV(1)},
		"Object":  ObjectV{"a": LongV(1)},
	}
}

func TestAnyCodec(t *testing.T) {
	for variant, v := range sampleValues() {
		if variant == "Null" {
			continue
		}
		got, err := Any(v).Get()
		require.NoError(t, err, "Any should accept %s", variant)
		assert.True(t, Equal(got, v), "Any should pass %s through unchanged", variant)
	}

	_, err := Any(Null).Get()
	assert.EqualError(t, err, "value is null")
}

func TestScalarCodecs(t *testing.T) {
	s, err := String(StringV("abc")).Get()
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	n, err := Long(LongV(42)).Get()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	d, err := Double(DoubleV(2.5)).Get()
	require.NoError(t, err)
	assert.Equal(t, 2.5, d)

	b, err := Boolean(BooleanV(true)).Get()
	require.NoError(t, err)
	assert.True(t, b)

	day, err := Date(NewDate(2019, time.June, 1)).Get()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC), day)

	classes := RefV{ID: "classes"}
	ref, err := Ref(RefV{ID: "1", Parent: &classes}).Get()
	require.NoError(t, err)
	assert.Equal(t, "1", ref.ID)
	require.NotNil(t, ref.Parent)
	assert.Equal(t, "classes", ref.Parent.ID)

	set, err := SetRef(SetRefV{Parameters: ObjectV{"match": StringV("x")}}).Get()
	require.NoError(t, err)
	assert.True(t, Equal(set.Parameters, ObjectV{"match": StringV("x")}))
}

// Every codec applied to a value of a different variant fails with a message
// naming both the actual and the expected variant.
func TestVariantMismatchMessages(t *testing.T) {
	samples := sampleValues()

	apply := map[string]func(Value) error{
		"String": func(v Value) error { return String(v).Err() },
		"Long":   func(v Value) error { return Long(v).Err() },
		"Double": func(v Value) error { return Double(v).Err() },
		"Boolean": func(v Value) error {
			return Boolean(v).Err()
		},
		"Bytes":  func(v Value) error { return Bytes(v).Err() },
		"Date":   func(v Value) error { return Date(v).Err() },
		"Time":   func(v Value) error { return Time(v).Err() },
		"Ref":    func(v Value) error { return Ref(v).Err() },
		"SetRef": func(v Value) error { return SetRef(v).Err() },
		"Array":  func(v Value) error { return Array(v).Err() },
		"Object": func(v Value) error { return Object(v).Err() },
	}

	for want, codec := range apply {
		for actual, v := range samples {
			if actual == want {
				continue
			}
			err := codec(v)
			require.Error(t, err, "%s codec should reject %s", want, actual)
			assert.EqualError(t, err,
				fmt.Sprintf("can not convert %s to %s", actual, want))
		}
	}
}

func TestTimeCodecPrecision(t *testing.T) {
	// 123.456789ms past the second: a non-zero sub-millisecond component
	instant := time.Date(2019, time.June, 1, 12, 0, 0, 123456789, time.UTC)
	v := TimeV(instant)

	truncated, err := Time(v).Get()
	require.NoError(t, err)
	assert.Equal(t, instant.Truncate(time.Millisecond), truncated)
	assert.Equal(t, 123000000, truncated.Nanosecond())

	full, err := HighPrecTime(v).Get()
	require.NoError(t, err)
	assert.Equal(t, instant, full)

	assert.False(t, truncated.Equal(full),
		"truncated and high-precision projections of a sub-millisecond instant must differ")
}

func TestContainerCodecs(t *testing.T) {
	arr := ArrayV{LongV(1), LongV(2)}

	elems, err := Array(arr).Get()
	require.NoError(t, err)
	require.Len(t, elems, 2)
	assert.True(t, Equal(elems[0], LongV(1)))
	assert.True(t, Equal(elems[1], LongV(2)))

	// The returned slice is a copy; mutating it leaves the Value intact
	elems[0] = LongV(99)
	assert.True(t, Equal(arr[0], LongV(1)))

	obj := ObjectV{"a": LongV(1), "b": StringV("x")}
	fields, err := Object(obj).Get()
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.True(t, Equal(fields["a"], LongV(1)))

	fields["a"] = LongV(99)
	assert.True(t, Equal(obj["a"], LongV(1)))

	_, err = String(arr).Get()
	assert.EqualError(t, err, "can not convert Array to String")
}

func TestBytesCodecCopies(t *testing.T) {
	v := BytesV{0x1, 0x2}
	b, err := Bytes(v).Get()
	require.NoError(t, err)

	b[0] = 0xff
	assert.Equal(t, byte(0x1), v[0])
}

func TestCodecAt(t *testing.T) {
	tree := ObjectV{
		"data": ObjectV{
			"name": StringV("fireball"),
			"cost": LongV(100),
		},
	}

	name, err := String.At(tree, "data", "name").Get()
	require.NoError(t, err)
	assert.Equal(t, "fireball", name)

	cost, err := Long.At(tree, "data", "cost").Get()
	require.NoError(t, err)
	assert.Equal(t, int64(100), cost)

	// A missing key is a navigation failure, not a variant mismatch
	_, err = String.At(tree, "x").Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `key "x" not found`)
	assert.NotContains(t, err.Error(), "convert")

	// A present key of the wrong variant is a variant mismatch
	_, err = String.At(tree, "data", "cost").Get()
	assert.EqualError(t, err, "can not convert Long to String")
}

type person struct {
	First string
	Last  string
}

var personCodec Codec[person] = func(v Value) Result[person] {
	return FlatMap(String.At(v, "data", "firstName"), func(first string) Result[person] {
		return Map(String.At(v, "data", "lastName"), func(last string) person {
			return person{First: first, Last: last}
		})
	})
}

func TestCompositeCodec(t *testing.T) {
	doc := ObjectV{
		"data": ObjectV{
			"firstName": StringV("Ada"),
			"lastName":  StringV("Lovelace"),
		},
	}

	p, err := personCodec(doc).Get()
	require.NoError(t, err)
	assert.Equal(t, person{First: "Ada", Last: "Lovelace"}, p)

	// The inner failure propagates out of the composite unchanged
	_, err = personCodec(ObjectV{"data": ObjectV{"firstName": StringV("Ada")}}).Get()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"lastName"`)
}

// Codecs hold no state, so parallel application must behave exactly like
// sequential application.
func TestConcurrentCodecApplication(t *testing.T) {
	const n = 2000

	values := make([]Value, n)
	for i := range values {
		values[i] = ObjectV{
			"data": ObjectV{"n": LongV(int64(i))},
		}
	}

	sequential := make([]int64, n)
	for i, v := range values {
		sequential[i] = Long.At(v, "data", "n").MustGet()
	}

	parallel := make([]int64, n)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := offset; i < n; i += 8 {
				parallel[i] = Long.At(values[i], "data", "n").MustGet()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, sequential, parallel)
}
