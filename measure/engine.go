package measure

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/clinical-elm/cql/interpreter"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

// Subject is one evaluation unit (a patient, per CQL's usual Patient context) fed to the measure
// engine: an identifier for report/error attribution, and the resource its population criteria
// are evaluated against.
type Subject struct {
	ID       string
	Resource result.Value
}

// Engine evaluates a Measure across a set of Subjects, driving an interpreter.Interpreter.
// Subject-level evaluation is independent by construction (spec.md §5), so Evaluate runs subjects
// across a worker pool sized by GOMAXPROCS rather than one at a time.
type Engine struct {
	interp *interpreter.Interpreter
}

// NewEngine wraps interp for measure evaluation.
func NewEngine(interp *interpreter.Interpreter) *Engine {
	return &Engine{interp: interp}
}

type subjectResult struct {
	id                  string
	populations         map[PopulationType]bool
	measurePopulationVal result.Value
	observation         float64
	stratum             map[string]string
	err                 error
}

// Evaluate runs measure m over subjects, evaluating each subject's population criteria
// (params/now shared across all subjects, per spec.md §9 Open Question iii's single fixed clock)
// and aggregating into a MeasureReport.
func (e *Engine) Evaluate(ctx context.Context, m *Measure, subjects []Subject, params map[string]result.Value, now time.Time) *MeasureReport {
	results := make([]*subjectResult, len(subjects))

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range subjects {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.evaluateSubject(ctx, m, subjects[i], params, now)
		}(i)
	}
	wg.Wait()

	return e.aggregate(m, results)
}

func (e *Engine) evaluateSubject(ctx context.Context, m *Measure, subj Subject, params map[string]result.Value, now time.Time) *subjectResult {
	res := &subjectResult{id: subj.ID, populations: map[PopulationType]bool{}, stratum: map[string]string{}}
	ec := e.interp.NewEvaluationContext(ctx, m.Library, params, subj.Resource, now)

	for _, pt := range populationOrder {
		if pt == MeasureObservation {
			continue
		}
		def, err := resolvePopulationDef(m.Library, pt)
		if err != nil {
			res.err = err
			return res
		}
		if def == nil {
			continue
		}
		v, err := ec.EvaluateDefinition(def.GetName(), def)
		if err != nil {
			res.err = err
			return res
		}
		res.populations[pt] = isTrue(v)
		if pt == MeasurePopulation {
			res.measurePopulationVal = v
		}
	}

	if m.Scoring == ContinuousVariable && res.populations[InitialPopulation] {
		obsDef, err := resolvePopulationDef(m.Library, MeasureObservation)
		if err != nil {
			res.err = err
			return res
		}
		if obsDef != nil {
			sum, err := e.evaluateObservation(ec, m, obsDef, res.measurePopulationVal)
			if err != nil {
				res.err = err
				return res
			}
			res.observation = sum
		}
	}

	for _, strat := range m.Stratifiers {
		def := m.Library.DefByName(strat.Expression)
		if def == nil {
			continue
		}
		v, err := ec.EvaluateDefinition(def.GetName(), def)
		if err != nil {
			res.err = err
			return res
		}
		res.stratum[strat.Name] = v.String()
	}

	return res
}

// evaluateObservation applies obsDef to each member of populationValue (a "Measure Population"
// list, per CQF convention a single-operand function) and aggregates per m.Observation. When
// obsDef is not a function it is evaluated once as a plain top-level expression.
func (e *Engine) evaluateObservation(ec *interpreter.EvaluationContext, m *Measure, obsDef model.IExpressionDef, populationValue result.Value) (float64, error) {
	fd, ok := obsDef.(*model.FunctionDef)
	if !ok {
		v, err := ec.EvaluateDefinition(obsDef.GetName(), obsDef)
		if err != nil {
			return 0, err
		}
		n, _ := asFloat(v)
		return n, nil
	}

	var members []result.Value
	switch {
	case populationValue.Kind() == result.KindList:
		members = populationValue.GolangValue().(result.List).Value
	case !populationValue.IsNull():
		members = []result.Value{populationValue}
	}

	var vals []float64
	for _, mv := range members {
		v, err := ec.CallFunction(fd, []result.Value{mv})
		if err != nil {
			return 0, err
		}
		if n, ok := asFloat(v); ok {
			vals = append(vals, n)
		}
	}

	switch m.Observation {
	case AggregateCount:
		return float64(len(vals)), nil
	case AggregateAverage:
		if len(vals) == 0 {
			return 0, nil
		}
		return sumFloats(vals) / float64(len(vals)), nil
	case AggregateMin:
		return minFloat(vals), nil
	case AggregateMax:
		return maxFloat(vals), nil
	default:
		return sumFloats(vals), nil
	}
}

func isTrue(v result.Value) bool {
	return !v.IsNull() && v.Kind() == result.KindBoolean && v.GolangValue().(bool)
}

func asFloat(v result.Value) (float64, bool) {
	switch v.Kind() {
	case result.KindInteger:
		return float64(v.GolangValue().(int32)), true
	case result.KindLong:
		return float64(v.GolangValue().(int64)), true
	case result.KindDecimal:
		return v.GolangValue().(result.Decimal).Float64(), true
	case result.KindQuantity:
		return v.GolangValue().(result.Quantity).Value.Float64(), true
	}
	return 0, false
}

func sumFloats(vs []float64) float64 {
	var s float64
	for _, v := range vs {
		s += v
	}
	return s
}

func minFloat(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
