package result

import "testing"

func TestEqualNullPropagates(t *testing.T) {
	if _, ok := Equal(NewNull(nil), NewInt32(1)); ok {
		t.Error("Equal(Null, 1) ok = true, want false (unknown)")
	}
	if _, ok := Equal(NewNull(nil), NewNull(nil)); ok {
		t.Error("Equal(Null, Null) ok = true, want false (unknown)")
	}
}

func TestEqualKindMismatchIsUnknown(t *testing.T) {
	if _, ok := Equal(NewInt32(1), NewString("1")); ok {
		t.Error("Equal(1, \"1\") ok = true, want false (unknown)")
	}
}

func TestEqualStrict(t *testing.T) {
	eq, ok := Equal(NewInt32(1), NewInt32(1))
	if !ok || !eq {
		t.Errorf("Equal(1, 1) = (%v, %v), want (true, true)", eq, ok)
	}
	eq, ok = Equal(NewInt32(1), NewInt32(2))
	if !ok || eq {
		t.Errorf("Equal(1, 2) = (%v, %v), want (false, true)", eq, ok)
	}
}

func TestEqualLists(t *testing.T) {
	a := NewList([]Value{NewInt32(1), NewInt32(2)}, nil)
	b := NewList([]Value{NewInt32(1), NewInt32(2)}, nil)
	c := NewList([]Value{NewInt32(1), NewInt32(3)}, nil)
	eq, ok := Equal(a, b)
	if !ok || !eq {
		t.Errorf("Equal(list, list) = (%v, %v), want (true, true)", eq, ok)
	}
	eq, ok = Equal(a, c)
	if !ok || eq {
		t.Errorf("Equal(list, different-list) = (%v, %v), want (false, true)", eq, ok)
	}
}

func TestEquivalentStringsCaseInsensitive(t *testing.T) {
	if !Equivalent(NewString("ABC"), NewString("abc")) {
		t.Error(`Equivalent("ABC", "abc") = false, want true`)
	}
}

func TestEquivalentNulls(t *testing.T) {
	if !Equivalent(NewNull(nil), NewNull(nil)) {
		t.Error("Equivalent(Null, Null) = false, want true")
	}
	if Equivalent(NewNull(nil), NewInt32(1)) {
		t.Error("Equivalent(Null, 1) = true, want false")
	}
}

func TestEquivalentConceptOverlap(t *testing.T) {
	a := NewConcept(Concept{Coding: []Code{{System: "sys", Code: "a"}, {System: "sys", Code: "b"}}})
	b := NewConcept(Concept{Coding: []Code{{System: "sys", Code: "b"}, {System: "sys", Code: "c"}}})
	c := NewConcept(Concept{Coding: []Code{{System: "sys", Code: "z"}}})
	if !Equivalent(a, b) {
		t.Error("Equivalent(concept, overlapping-concept) = false, want true")
	}
	if Equivalent(a, c) {
		t.Error("Equivalent(concept, disjoint-concept) = true, want false")
	}
}

func TestCompareNumbers(t *testing.T) {
	cmp, ok := Compare(NewInt32(1), NewInt32(2))
	if !ok || cmp >= 0 {
		t.Errorf("Compare(1, 2) = (%v, %v), want (<0, true)", cmp, ok)
	}
	cmp, ok = Compare(NewString("a"), NewString("b"))
	if !ok || cmp >= 0 {
		t.Errorf("Compare(a, b) = (%v, %v), want (<0, true)", cmp, ok)
	}
}

func TestCompareQuantityDifferentUnitsUnknown(t *testing.T) {
	a := NewQuantity(Quantity{Value: NewDecimalFromInt64(1), Unit: "kg"})
	b := NewQuantity(Quantity{Value: NewDecimalFromInt64(1), Unit: "g"})
	if _, ok := Compare(a, b); ok {
		t.Error("Compare(1 kg, 1 g) ok = true, want false (no unit conversion at this layer)")
	}
}

func TestKleeneAnd(t *testing.T) {
	tests := []struct {
		a, b, want Tri
	}{
		{TriTrue, TriTrue, TriTrue},
		{TriFalse, TriUnknown, TriFalse},
		{TriUnknown, TriFalse, TriFalse},
		{TriTrue, TriUnknown, TriUnknown},
		{TriUnknown, TriUnknown, TriUnknown},
	}
	for _, tc := range tests {
		if got := KleeneAnd(tc.a, tc.b); got != tc.want {
			t.Errorf("KleeneAnd(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestKleeneOr(t *testing.T) {
	tests := []struct {
		a, b, want Tri
	}{
		{TriFalse, TriFalse, TriFalse},
		{TriTrue, TriUnknown, TriTrue},
		{TriUnknown, TriTrue, TriTrue},
		{TriFalse, TriUnknown, TriUnknown},
	}
	for _, tc := range tests {
		if got := KleeneOr(tc.a, tc.b); got != tc.want {
			t.Errorf("KleeneOr(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestKleeneImplies(t *testing.T) {
	if got := KleeneImplies(TriFalse, TriUnknown); got != TriTrue {
		t.Errorf("KleeneImplies(false, unknown) = %v, want true", got)
	}
	if got := KleeneImplies(TriTrue, TriUnknown); got != TriUnknown {
		t.Errorf("KleeneImplies(true, unknown) = %v, want unknown", got)
	}
}

func TestToTriAndBack(t *testing.T) {
	if got := ToTri(NewNull(nil)); got != TriUnknown {
		t.Errorf("ToTri(Null) = %v, want TriUnknown", got)
	}
	if got := ToTri(NewBoolean(true)); got != TriTrue {
		t.Errorf("ToTri(true) = %v, want TriTrue", got)
	}
	if v := TriFalse.ToValue(); v.GolangValue().(bool) != false {
		t.Errorf("TriFalse.ToValue() = %v, want Boolean(false)", v)
	}
	if v := TriUnknown.ToValue(); !v.IsNull() {
		t.Errorf("TriUnknown.ToValue() = %v, want Null", v)
	}
}
