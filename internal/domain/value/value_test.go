package value

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValue_String(t *testing.T) {
	ts := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue(), ""},
		{"bool", BoolOf(true), "true"},
		{"int", IntOf(-42), "-42"},
		{"float", FloatOf(1.25), "1.25"},
		{"string", StringOf("Wheat"), "Wheat"},
		{"date", DateOf(ts), "2020-03-01T12:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFloatOf_NaNIsNull(t *testing.T) {
	var zero float64
	if !FloatOf(zero / zero).IsNull() {
		t.Error("NaN should become Null")
	}
}

func TestValue_JSON(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`2020`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind() != Int {
		t.Errorf("kind = %s, want int", v.Kind())
	}
	if err := json.Unmarshal([]byte(`2.5`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind() != Float {
		t.Errorf("kind = %s, want float", v.Kind())
	}
	if err := json.Unmarshal([]byte(`{"a":1}`), &v); err != nil {
		t.Fatal(err)
	}
	if s, ok := v.Str(); !ok || s != `{"a":1}` {
		t.Errorf("object = %q, want compact JSON string", s)
	}

	out, err := json.Marshal(DateOf(time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"2021-01-02T00:00:00Z"` {
		t.Errorf("date JSON = %s", out)
	}
}

func TestConversions(t *testing.T) {
	if v, err := ToInt(StringOf(" 2020 ")); err != nil || !v.Equal(IntOf(2020)) {
		t.Errorf("ToInt(\"2020\") = %v, %v", v, err)
	}
	if _, err := ToInt(StringOf("abc")); err == nil {
		t.Error("ToInt(abc) should fail")
	}
	if _, err := ToInt(FloatOf(1.5)); err == nil {
		t.Error("ToInt(1.5) should fail")
	}
	if v, err := ToFloat(IntOf(3)); err != nil || !v.Equal(FloatOf(3)) {
		t.Errorf("ToFloat(3) = %v, %v", v, err)
	}
	if v, err := ToBool(StringOf("Yes")); err != nil || !v.Equal(BoolOf(true)) {
		t.Errorf("ToBool(Yes) = %v, %v", v, err)
	}
	if _, err := ToBool(IntOf(7)); err == nil {
		t.Error("ToBool(7) should fail")
	}
	v, err := ToDate(StringOf("2020-05-17"))
	if err != nil {
		t.Fatalf("ToDate: %v", err)
	}
	if ts, _ := v.Time(); ts.Year() != 2020 || ts.Month() != time.May || ts.Day() != 17 {
		t.Errorf("ToDate = %v", ts)
	}
	v, err = ToDate(IntOf(0))
	if err != nil {
		t.Fatalf("ToDate(0): %v", err)
	}
	if ts, _ := v.Time(); !ts.Equal(time.Unix(0, 0)) {
		t.Errorf("ToDate(0) = %v", ts)
	}
}

func TestEqual(t *testing.T) {
	if IntOf(1).Equal(FloatOf(1)) {
		t.Error("different kinds must not be equal")
	}
	if !NullValue().Equal(Value{}) {
		t.Error("Null values must be equal")
	}
}
