package result

import (
	"testing"

	"github.com/clinical-elm/cql/types"
)

func TestNewNullIsNull(t *testing.T) {
	v := NewNull(nil)
	if !v.IsNull() {
		t.Error("NewNull(nil).IsNull() = false, want true")
	}
	if v.Kind() != Null {
		t.Errorf("NewNull(nil).Kind() = %v, want Null", v.Kind())
	}
	if rt := v.RuntimeType(); rt != types.System(types.Any) {
		t.Errorf("NewNull(nil).RuntimeType() = %v, want System.Any", rt)
	}
}

func TestRuntimeTypePerKind(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want types.IType
	}{
		{"boolean", NewBoolean(true), types.System(types.Boolean)},
		{"integer", NewInt32(1), types.System(types.Integer)},
		{"long", NewInt64(1), types.System(types.Long)},
		{"string", NewString("x"), types.System(types.String)},
		{"decimal", NewDecimal(NewDecimalFromInt64(1)), types.System(types.Decimal)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.RuntimeType(); got != tc.want {
				t.Errorf("RuntimeType() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListRuntimeTypeEmptyUsesStatic(t *testing.T) {
	static := types.System(types.String)
	v := NewList(nil, static)
	got, ok := v.RuntimeType().(*types.List)
	if !ok {
		t.Fatalf("RuntimeType() = %T, want *types.List", v.RuntimeType())
	}
	if got.ElementType != types.System(types.String) {
		t.Errorf("empty list element type = %v, want String", got.ElementType)
	}
}

func TestListRuntimeTypeInfersFromFirstElement(t *testing.T) {
	v := NewList([]Value{NewInt32(1), NewInt32(2)}, nil)
	got, ok := v.RuntimeType().(*types.List)
	if !ok {
		t.Fatalf("RuntimeType() = %T, want *types.List", v.RuntimeType())
	}
	if got.ElementType != types.System(types.Integer) {
		t.Errorf("list element type = %v, want Integer", got.ElementType)
	}
}

func TestTupleSetGetPreservesOrder(t *testing.T) {
	tup := NewEmptyTuple()
	tup.Set("b", NewInt32(2))
	tup.Set("a", NewInt32(1))
	if got := tup.Names; len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Tuple.Names = %v, want insertion order [b a]", got)
	}
	if got := tup.Get("a"); got.GolangValue().(int32) != 1 {
		t.Errorf("Get(a) = %v, want 1", got)
	}
	if got := tup.Get("missing"); !got.IsNull() {
		t.Errorf("Get(missing) = %v, want Null", got)
	}
}

func TestValueStringQuotesStrings(t *testing.T) {
	if got := NewString("hi").String(); got != `"hi"` {
		t.Errorf("String value String() = %q, want %q", got, `"hi"`)
	}
	if got := NewNull(nil).String(); got != "null" {
		t.Errorf("Null String() = %q, want null", got)
	}
}

func TestValueStringList(t *testing.T) {
	v := NewList([]Value{NewInt32(1), NewInt32(2)}, nil)
	if got, want := v.String(), "{1, 2}"; got != want {
		t.Errorf("List String() = %q, want %q", got, want)
	}
}
