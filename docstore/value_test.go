package docstore

import (
	"strings"
	"testing"
	"time"
)

func TestVariantEquality(t *testing.T) {
	classes := RefV{ID: "classes"}
	spells := RefV{ID: "spells", Parent: &classes}

	tests := []struct {
		name  string
		left  Value
		right Value
		equal bool
	}{
		{"null", Null, NullV{}, true},
		{"boolean", BooleanV(true), BooleanV(true), true},
		{"boolean mismatch", BooleanV(true), BooleanV(false), false},
		{"long", LongV(42), LongV(42), true},
		{"long vs double", LongV(1), DoubleV(1), false},
		{"double vs long", DoubleV(1), LongV(1), false},
		{"string", StringV("abc"), StringV("abc"), true},
		{"string vs bytes", StringV("abc"), BytesV("abc"), false},
		{"bytes", BytesV{0x1, 0x2}, BytesV{0x1, 0x2}, true},
		{"bytes mismatch", BytesV{0x1}, BytesV{0x2}, false},
		{"date", NewDate(2019, time.March, 4), NewDate(2019, time.March, 4), true},
		{"date vs time", NewDate(2019, time.March, 4), TimeV(time.Date(2019, time.March, 4, 0, 0, 0, 0, time.UTC)), false},
		{"time", TimeV(time.Unix(10, 5)), TimeV(time.Unix(10, 5)), true},
		{"ref", RefV{ID: "1", Parent: &spells}, RefV{ID: "1", Parent: &spells}, true},
		{"ref different id", RefV{ID: "1", Parent: &spells}, RefV{ID: "2", Parent: &spells}, false},
		{"ref different parent", RefV{ID: "1", Parent: &spells}, RefV{ID: "1", Parent: &classes}, false},
		{"ref missing parent", RefV{ID: "1", Parent: &spells}, RefV{ID: "1"}, false},
		{"setref", SetRefV{Parameters: ObjectV{"match": StringV("x")}}, SetRefV{Parameters: ObjectV{"match": StringV("x")}}, true},
		{"array", ArrayV{LongV(1), LongV(2)}, ArrayV{LongV(1), LongV(2)}, true},
		{"array order", ArrayV{LongV(1), LongV(2)}, ArrayV{LongV(2), LongV(1)}, false},
		{"array length", ArrayV{LongV(1)}, ArrayV{LongV(1), LongV(2)}, false},
		{"array variant-aware", ArrayV{LongV(1)}, ArrayV{DoubleV(1)}, false},
		{"object", ObjectV{"a": LongV(1), "b": StringV("x")}, ObjectV{"b": StringV("x"), "a": LongV(1)}, true},
		{"object missing key", ObjectV{"a": LongV(1)}, ObjectV{"b": LongV(1)}, false},
		{"object extra key", ObjectV{"a": LongV(1)}, ObjectV{"a": LongV(1), "b": LongV(2)}, false},
		{"nested", ObjectV{"a": ArrayV{ObjectV{"b": LongV(1)}}}, ObjectV{"a": ArrayV{ObjectV{"b": LongV(1)}}}, true},
		{"null vs object", Null, ObjectV{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.left, tt.right); got != tt.equal {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.left, tt.right, got, tt.equal)
			}
			// Equality is symmetric
			if got := Equal(tt.right, tt.left); got != tt.equal {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.right, tt.left, got, tt.equal)
			}
		})
	}
}

func TestTimeEqualityIgnoresLocation(t *testing.T) {
	instant := time.Date(2019, time.March, 4, 12, 30, 0, 0, time.UTC)
	local := TimeV(instant.In(time.FixedZone("X", 3600)))

	if !Equal(TimeV(instant), local) {
		t.Error("times at the same instant should be equal regardless of location")
	}
}

func TestAtNavigation(t *testing.T) {
	tree := ObjectV{
		"data": ObjectV{
			"name": StringV("fireball"),
			"tags": ArrayV{StringV("fire"), StringV("attack")},
		},
	}

	v, err := At(tree, "data", "name").Get()
	if err != nil {
		t.Fatalf("unexpected navigation failure: %v", err)
	}
	if !Equal(v, StringV("fireball")) {
		t.Errorf("got %s, want \"fireball\"", v)
	}

	v, err = At(tree, "data", "tags", 1).Get()
	if err != nil {
		t.Fatalf("unexpected navigation failure: %v", err)
	}
	if !Equal(v, StringV("attack")) {
		t.Errorf("got %s, want \"attack\"", v)
	}

	// Zero steps is the value itself
	v, err = At(tree).Get()
	if err != nil || !Equal(v, tree) {
		t.Errorf("At with no steps should return the value unchanged, got %s, %v", v, err)
	}
}

func TestAtNavigationFailures(t *testing.T) {
	tree := ObjectV{
		"data": ObjectV{
			"tags": ArrayV{StringV("fire")},
		},
	}

	tests := []struct {
		name     string
		steps    []interface{}
		contains []string
	}{
		{"missing key", []interface{}{"missing"}, []string{`"missing"`, "not found"}},
		{"missing nested key", []interface{}{"data", "name"}, []string{`"name"`, "data/name"}},
		{"index out of bounds", []interface{}{"data", "tags", 3}, []string{"index 3", "out of bounds"}},
		{"negative index", []interface{}{"data", "tags", -1}, []string{"out of bounds"}},
		{"key into array", []interface{}{"data", "tags", "x"}, []string{"Array", `"x"`}},
		{"index into object", []interface{}{"data", 0}, []string{"Object", "index 0"}},
		{"index into scalar", []interface{}{"data", "tags", 0, 0}, []string{"String", "index 0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := At(tree, tt.steps...).Get()
			if err == nil {
				t.Fatal("expected a navigation failure")
			}
			for _, want := range tt.contains {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("failure %q should mention %q", err.Error(), want)
				}
			}
		})
	}
}

func TestFieldChaining(t *testing.T) {
	tree := ObjectV{"a": ObjectV{"b": LongV(7)}}

	v, err := At(tree, "a").At("b").Get()
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if !Equal(v, LongV(7)) {
		t.Errorf("got %s, want 7", v)
	}

	// A failed field stays failed through further steps
	_, err = At(tree, "missing").At("b").Get()
	if err == nil || !strings.Contains(err.Error(), `"missing"`) {
		t.Errorf("chained navigation should keep the first failure, got %v", err)
	}
}

func TestAtPanicsOnBadStepType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("a non-string, non-int step is a programmer error and should panic")
		}
	}()
	At(ObjectV{}, 1.5)
}

func TestValueString(t *testing.T) {
	classes := RefV{ID: "classes"}

	tests := []struct {
		value Value
		want  string
	}{
		{Null, "null"},
		{BooleanV(true), "true"},
		{LongV(-3), "-3"},
		{DoubleV(2.5), "2.5"},
		{StringV("a"), `"a"`},
		{NewDate(2019, time.January, 2), "2019-01-02"},
		{RefV{ID: "spells", Parent: &classes}, "ref(classes/spells)"},
		{ArrayV{LongV(1), StringV("x")}, `[1 "x"]`},
		{ObjectV{"b": LongV(2), "a": LongV(1)}, "{a: 1 b: 2}"},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("%s.String() = %q, want %q", tt.value.Variant(), got, tt.want)
		}
	}
}
