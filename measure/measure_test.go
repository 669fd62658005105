package measure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinical-elm/cql/interpreter"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/retriever"
	"github.com/clinical-elm/cql/terminology"
	"github.com/clinical-elm/cql/types"
)

func boolDef(name string, v bool) *model.ExpressionDef {
	lit := "false"
	if v {
		lit = "true"
	}
	return &model.ExpressionDef{
		Element:    &model.Element{ResultType: types.Boolean},
		Name:       name,
		Context:    "Patient",
		Expression: model.NewLiteral(lit, types.Boolean),
	}
}

func libraryWithPopulations(pops map[string]bool) *model.Library {
	stmts := &model.Statements{}
	for name, v := range pops {
		stmts.Defs = append(stmts.Defs, boolDef(name, v))
	}
	return &model.Library{
		Identifier: &model.LibraryIdentifier{Qualified: "TestMeasure"},
		Statements: stmts,
	}
}

func newEngine(lib *model.Library) *Engine {
	interp := interpreter.New(map[string]*model.Library{"TestMeasure": lib}, retriever.NewInMemory(nil), terminology.NewInMemory(), time.UTC)
	return NewEngine(interp)
}

func TestResolvePopulationDef_DuplicateName(t *testing.T) {
	lib := libraryWithPopulations(map[string]bool{
		"Initial Population": true,
		"InitialPopulation":  true,
	})
	if _, err := resolvePopulationDef(lib, InitialPopulation); err == nil {
		t.Fatal("resolvePopulationDef: want error for duplicate spaced/unspaced population names, got nil")
	} else if !errors.Is(err, result.ErrDuplicateDefinition) {
		t.Errorf("resolvePopulationDef: err = %v, want wrapping %v", err, result.ErrDuplicateDefinition)
	}
}

func TestResolvePopulationDef_AcceptsEitherForm(t *testing.T) {
	lib := libraryWithPopulations(map[string]bool{"InitialPopulation": true})
	def, err := resolvePopulationDef(lib, InitialPopulation)
	if err != nil {
		t.Fatalf("resolvePopulationDef: unexpected error: %v", err)
	}
	if def == nil || def.GetName() != "InitialPopulation" {
		t.Errorf("resolvePopulationDef: got %v, want the InitialPopulation def", def)
	}
}

func TestEvaluate_Proportion(t *testing.T) {
	lib := libraryWithPopulations(map[string]bool{
		"Initial Population":    true,
		"Denominator":           true,
		"Denominator Exclusion": false,
		"Numerator":             true,
	})
	m, err := NewMeasure(lib, Proportion, "", nil)
	if err != nil {
		t.Fatalf("NewMeasure: %v", err)
	}
	e := newEngine(lib)
	subjects := []Subject{
		{ID: "p1", Resource: result.NewNull(nil)},
		{ID: "p2", Resource: result.NewNull(nil)},
	}
	report := e.Evaluate(context.Background(), m, subjects, nil, time.Now())

	if report.Status != "complete" {
		t.Fatalf("report.Status = %q, want complete", report.Status)
	}
	if len(report.Groups) != 1 {
		t.Fatalf("len(report.Groups) = %d, want 1", len(report.Groups))
	}
	g := report.Groups[0]
	if g.MeasureScore == nil || *g.MeasureScore != 1.0 {
		t.Errorf("MeasureScore = %v, want 1.0 (2/2 numerator over 2/2 denominator)", g.MeasureScore)
	}
}

func TestEvaluate_Proportion_ZeroDenominatorIsNull(t *testing.T) {
	lib := libraryWithPopulations(map[string]bool{
		"Initial Population": true,
		"Denominator":         false,
	})
	m, err := NewMeasure(lib, Proportion, "", nil)
	if err != nil {
		t.Fatalf("NewMeasure: %v", err)
	}
	e := newEngine(lib)
	report := e.Evaluate(context.Background(), m, []Subject{{ID: "p1", Resource: result.NewNull(nil)}}, nil, time.Now())

	g := report.Groups[0]
	if g.MeasureScore != nil {
		t.Errorf("MeasureScore = %v, want nil (0/0 denominator)", *g.MeasureScore)
	}
}

func TestEvaluate_Cohort(t *testing.T) {
	lib := libraryWithPopulations(map[string]bool{"Initial Population": true})
	m, err := NewMeasure(lib, Cohort, "", nil)
	if err != nil {
		t.Fatalf("NewMeasure: %v", err)
	}
	e := newEngine(lib)
	subjects := []Subject{
		{ID: "p1", Resource: result.NewNull(nil)},
		{ID: "p2", Resource: result.NewNull(nil)},
		{ID: "p3", Resource: result.NewNull(nil)},
	}
	report := e.Evaluate(context.Background(), m, subjects, nil, time.Now())

	g := report.Groups[0]
	if g.MeasureScore == nil || *g.MeasureScore != 3.0 {
		t.Errorf("MeasureScore = %v, want 3.0", g.MeasureScore)
	}
}

