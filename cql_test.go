package cql

import (
	"context"
	"sort"
	"testing"

	"github.com/clinical-elm/cql/result"
	"github.com/google/go-cmp/cmp"
	"github.com/lithammer/dedent"
)

func TestEvaluateExpression_Arithmetic(t *testing.T) {
	e := New()
	got, err := e.EvaluateExpression(context.Background(), "1 + 2 * 3", result.NewNull(nil), nil)
	if err != nil {
		t.Fatalf("EvaluateExpression: %v", err)
	}
	if got.Kind() != result.KindInteger || got.GolangValue().(int32) != 7 {
		t.Errorf("EvaluateExpression(%q) = %v, want Integer(7)", "1 + 2 * 3", got)
	}
}

func TestEvaluateExpression_ThreeValuedLogic(t *testing.T) {
	e := New()

	got, err := e.EvaluateExpression(context.Background(), "true and null", result.NewNull(nil), nil)
	if err != nil {
		t.Fatalf("EvaluateExpression: %v", err)
	}
	if !got.IsNull() {
		t.Errorf("EvaluateExpression(%q) = %v, want Null", "true and null", got)
	}

	got, err = e.EvaluateExpression(context.Background(), "true or null", result.NewNull(nil), nil)
	if err != nil {
		t.Fatalf("EvaluateExpression: %v", err)
	}
	if got.Kind() != result.KindBoolean || got.GolangValue().(bool) != true {
		t.Errorf("EvaluateExpression(%q) = %v, want Boolean(true)", "true or null", got)
	}
}

func TestEvaluateExpression_SyntaxError(t *testing.T) {
	e := New()
	if _, err := e.EvaluateExpression(context.Background(), "1 +", result.NewNull(nil), nil); err == nil {
		t.Error("EvaluateExpression(\"1 +\"): want error, got nil")
	}
}

func TestCompile_WithoutSource(t *testing.T) {
	e := New()
	if _, _, err := e.Compile(context.Background(), "Anything", ""); err == nil {
		t.Error("Compile without WithSource: want error, got nil")
	}
}

func TestEvaluateAll(t *testing.T) {
	src := map[string]string{
		"Main|": dedent.Dedent(`
			library Main
			define X: 1 + 1
			define private Hidden: 99
			define Y: X + 1`),
	}
	e := New(WithSource(func(name, version string) (string, bool) {
		s, ok := src[name+"|"+version]
		return s, ok
	}))

	got, err := e.EvaluateAll(context.Background(), "Main", "", result.NewNull(nil), nil)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	gotNames := make([]string, 0, len(got))
	for name := range got {
		gotNames = append(gotNames, name)
	}
	sort.Strings(gotNames)
	if diff := cmp.Diff([]string{"X", "Y"}, gotNames); diff != "" {
		t.Fatalf("EvaluateAll: definition names differ (-want +got):\n%s", diff)
	}
	if v := got["X"]; v.Kind() != result.KindInteger || v.GolangValue().(int32) != 2 {
		t.Errorf("EvaluateAll: X = %v, want Integer(2)", v)
	}
	if v := got["Y"]; v.Kind() != result.KindInteger || v.GolangValue().(int32) != 3 {
		t.Errorf("EvaluateAll: Y = %v, want Integer(3)", v)
	}
	if _, ok := got["Hidden"]; ok {
		t.Errorf("EvaluateAll: private definition Hidden leaked into result map")
	}
}
