package cql

import (
	"context"
	"testing"

	"github.com/clinical-elm/cql/result"
)

func evalExpr(t *testing.T, src string) result.Value {
	t.Helper()
	e := New()
	got, err := e.EvaluateExpression(context.Background(), src, result.NewNull(nil), nil)
	if err != nil {
		t.Fatalf("EvaluateExpression(%q): %v", src, err)
	}
	return got
}

func TestOperators_StringFunctions(t *testing.T) {
	if got := evalExpr(t, "'hello'.upper()"); got.GolangValue().(string) != "HELLO" {
		t.Errorf("upper() = %v, want HELLO", got)
	}
	if got := evalExpr(t, "'HELLO'.lower()"); got.GolangValue().(string) != "hello" {
		t.Errorf("lower() = %v, want hello", got)
	}
	if got := evalExpr(t, "Length('hello')"); got.GolangValue().(int32) != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
	if got := evalExpr(t, "Combine({'a', 'b', 'c'}, ',')"); got.GolangValue().(string) != "a,b,c" {
		t.Errorf("Combine = %v, want a,b,c", got)
	}
	if got := evalExpr(t, "'hello'.startsWith('he')"); got.GolangValue().(bool) != true {
		t.Errorf("startsWith = %v, want true", got)
	}
	if got := evalExpr(t, "'hello'.indexOf('l')"); got.GolangValue().(int32) != 2 {
		t.Errorf("indexOf = %v, want 2", got)
	}
}

func TestOperators_ListFunctions(t *testing.T) {
	if got := evalExpr(t, "Count({1, 2, 3})"); got.GolangValue().(int32) != 3 {
		t.Errorf("Count = %v, want 3", got)
	}
	if got := evalExpr(t, "Sum({1, 2, 3})"); got.GolangValue().(int32) != 6 {
		t.Errorf("Sum = %v, want 6", got)
	}
	if got := evalExpr(t, "First({1, 2, 3})"); got.GolangValue().(int32) != 1 {
		t.Errorf("First = %v, want 1", got)
	}
	if got := evalExpr(t, "Last({1, 2, 3})"); got.GolangValue().(int32) != 3 {
		t.Errorf("Last = %v, want 3", got)
	}
	if got := evalExpr(t, "Distinct({1, 1, 2})"); len(got.GolangValue().(result.List).Value) != 2 {
		t.Errorf("Distinct length = %v, want 2", got)
	}
	if got := evalExpr(t, "{1, 2} union {2, 3}"); len(got.GolangValue().(result.List).Value) != 3 {
		t.Errorf("union length = %v, want 3", got)
	}
	if got := evalExpr(t, "2 in {1, 2, 3}"); got.GolangValue().(bool) != true {
		t.Errorf("in = %v, want true", got)
	}
	if got := evalExpr(t, "exists({1})"); got.GolangValue().(bool) != true {
		t.Errorf("exists = %v, want true", got)
	}
	if got := evalExpr(t, "exists({} as List<Integer>)"); got.GolangValue().(bool) != false {
		t.Errorf("exists empty = %v, want false", got)
	}
}

func TestOperators_IntervalFunctions(t *testing.T) {
	if got := evalExpr(t, "Interval[1, 5] contains 3"); got.GolangValue().(bool) != true {
		t.Errorf("Interval contains = %v, want true", got)
	}
	if got := evalExpr(t, "Interval[1, 5] contains 9"); got.GolangValue().(bool) != false {
		t.Errorf("Interval contains(9) = %v, want false", got)
	}
	if got := evalExpr(t, "Width(Interval[1, 5])"); got.GolangValue().(int32) != 4 {
		t.Errorf("Width = %v, want 4", got)
	}
	if got := evalExpr(t, "Start(Interval[1, 5])"); got.GolangValue().(int32) != 1 {
		t.Errorf("Start = %v, want 1", got)
	}
	if got := evalExpr(t, "End(Interval[1, 5])"); got.GolangValue().(int32) != 5 {
		t.Errorf("End = %v, want 5", got)
	}
}

func TestOperators_ComparisonAndEquality(t *testing.T) {
	if got := evalExpr(t, "1 = 1"); got.GolangValue().(bool) != true {
		t.Errorf("1 = 1 -> %v, want true", got)
	}
	if got := evalExpr(t, "1 < 2"); got.GolangValue().(bool) != true {
		t.Errorf("1 < 2 -> %v, want true", got)
	}
	if got := evalExpr(t, "'ABC' ~ 'abc'"); got.GolangValue().(bool) != true {
		t.Errorf("~ equivalence = %v, want true", got)
	}
	if got := evalExpr(t, "null = null"); !got.IsNull() {
		t.Errorf("null = null -> %v, want Null", got)
	}
}

func TestOperators_TypeConversion(t *testing.T) {
	if got := evalExpr(t, "ToInteger('42')"); got.GolangValue().(int32) != 42 {
		t.Errorf("ToInteger = %v, want 42", got)
	}
	if got := evalExpr(t, "ConvertsToInteger('abc')"); got.GolangValue().(bool) != false {
		t.Errorf("ConvertsToInteger(abc) = %v, want false", got)
	}
	if got := evalExpr(t, "ToString(42)"); got.GolangValue().(string) != "42" {
		t.Errorf("ToString(42) = %v, want \"42\"", got)
	}
}

func TestOperators_ArithmeticDivisionByZeroIsNull(t *testing.T) {
	got := evalExpr(t, "1 / 0")
	if !got.IsNull() {
		t.Errorf("1 / 0 = %v, want Null", got)
	}
}

func TestOperators_AggregateOnEmptyList(t *testing.T) {
	got := evalExpr(t, "Sum({} as List<Integer>)")
	if !got.IsNull() {
		t.Errorf("Sum({}) = %v, want Null", got)
	}
}

func TestOperators_CaseExpression(t *testing.T) {
	got := evalExpr(t, "case when 1 < 2 then 'yes' else 'no' end")
	if got.GolangValue().(string) != "yes" {
		t.Errorf("case = %v, want yes", got)
	}
}

func TestOperators_IfExpression(t *testing.T) {
	got := evalExpr(t, "if 1 > 2 then 'a' else 'b'")
	if got.GolangValue().(string) != "b" {
		t.Errorf("if = %v, want b", got)
	}
}
