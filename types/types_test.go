package types

import "testing"

func TestSystemEqual(t *testing.T) {
	if !Integer.Equal(Integer) {
		t.Error("Integer.Equal(Integer) = false, want true")
	}
	if Integer.Equal(Long) {
		t.Error("Integer.Equal(Long) = true, want false")
	}
	if Integer.Equal(&List{ElementType: Integer}) {
		t.Error("Integer.Equal(List<Integer>) = true, want false")
	}
}

func TestSystemIsNumericAndTemporal(t *testing.T) {
	for _, s := range []System{Integer, Long, Decimal, Quantity} {
		if !s.IsNumeric() {
			t.Errorf("%v.IsNumeric() = false, want true", s)
		}
	}
	if String.IsNumeric() {
		t.Error("String.IsNumeric() = true, want false")
	}
	for _, s := range []System{Date, DateTime, Time} {
		if !s.IsTemporal() {
			t.Errorf("%v.IsTemporal() = false, want true", s)
		}
	}
	if Boolean.IsTemporal() {
		t.Error("Boolean.IsTemporal() = true, want false")
	}
}

func TestListEqual(t *testing.T) {
	a := &List{ElementType: Integer}
	b := &List{ElementType: Integer}
	c := &List{ElementType: String}
	if !a.Equal(b) {
		t.Error("List<Integer>.Equal(List<Integer>) = false, want true")
	}
	if a.Equal(c) {
		t.Error("List<Integer>.Equal(List<String>) = true, want false")
	}
}

func TestTupleEqualIgnoresOrder(t *testing.T) {
	a := &Tuple{Elements: map[string]IType{"x": Integer, "y": String}}
	b := &Tuple{Elements: map[string]IType{"y": String, "x": Integer}}
	if !a.Equal(b) {
		t.Error("Tuple.Equal should ignore map iteration order")
	}
	c := &Tuple{Elements: map[string]IType{"x": Integer}}
	if a.Equal(c) {
		t.Error("Tuples with different element counts should not be equal")
	}
}

func TestNamedEqualAndQualifiedName(t *testing.T) {
	p := &Named{Model: "FHIR", Name: "Patient"}
	p2 := &Named{Model: "FHIR", Name: "Patient"}
	obs := &Named{Model: "FHIR", Name: "Observation"}
	if !p.Equal(p2) {
		t.Error("Named.Equal should match same model+name")
	}
	if p.Equal(obs) {
		t.Error("Named.Equal should not match different names")
	}
	if got, want := p.QualifiedName(), "FHIR.Patient"; got != want {
		t.Errorf("QualifiedName() = %q, want %q", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	if got := Unwrap(&List{ElementType: Integer}); got != IType(Integer) {
		t.Errorf("Unwrap(List<Integer>) = %v, want Integer", got)
	}
	if got := Unwrap(&Interval{PointType: Date}); got != IType(Date) {
		t.Errorf("Unwrap(Interval<Date>) = %v, want Date", got)
	}
	if got := Unwrap(String); got != IType(String) {
		t.Errorf("Unwrap(String) = %v, want String (identity)", got)
	}
}

func TestIsSubTypeWideningLadder(t *testing.T) {
	tests := []struct {
		sub, super IType
		want       bool
	}{
		{Integer, Long, true},
		{Long, Decimal, true},
		{Decimal, Quantity, true},
		{Integer, Quantity, false}, // ladder is one rung at a time, not transitive here
		{Date, DateTime, true},
		{String, Integer, false},
		{Integer, Any, true},
		{Integer, Integer, true},
	}
	for _, tc := range tests {
		if got := IsSubType(tc.sub, tc.super); got != tc.want {
			t.Errorf("IsSubType(%v, %v) = %v, want %v", tc.sub, tc.super, got, tc.want)
		}
	}
}

func TestIsSubTypeLists(t *testing.T) {
	sub := &List{ElementType: Integer}
	super := &List{ElementType: Long}
	if !IsSubType(sub, super) {
		t.Error("IsSubType(List<Integer>, List<Long>) = false, want true")
	}
}

func TestIsSubTypeChoice(t *testing.T) {
	choice := &Choice{ChoiceTypes: []IType{String, Integer}}
	if !IsSubType(Integer, choice) {
		t.Error("IsSubType(Integer, Choice<String,Integer>) = false, want true")
	}
	if IsSubType(Boolean, choice) {
		t.Error("IsSubType(Boolean, Choice<String,Integer>) = true, want false")
	}
}
