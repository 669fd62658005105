// Package measure implements the quality-measure population taxonomy (spec.md §4.12): resolving
// the fixed set of named population definitions out of a lowered Library, validating that a
// measure's criteria are well formed, and scoring subject-level results into a MeasureReport. The
// teacher has no equivalent package -- CQL itself has no measure-scoring primitive, only the
// expression language those population definitions are written in -- so this package is original,
// grounded on the population/scoring vocabulary CQF/FHIR Quality Measures define on top of CQL and
// on the interpreter (C8) it drives.
package measure

import (
	"fmt"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

// PopulationType names one of the fixed measure population criteria (spec.md §4.12).
type PopulationType int

const (
	InitialPopulation PopulationType = iota
	Denominator
	DenominatorExclusion
	DenominatorException
	Numerator
	NumeratorExclusion
	MeasurePopulation
	MeasureObservation
)

func (p PopulationType) String() string {
	if names, ok := populationNames[p]; ok {
		return names[0]
	}
	return "unknown"
}

// populationOrder is the fixed evaluation order spec.md §4.12 requires.
var populationOrder = []PopulationType{
	InitialPopulation,
	Denominator,
	DenominatorExclusion,
	DenominatorException,
	Numerator,
	NumeratorExclusion,
	MeasurePopulation,
	MeasureObservation,
}

// populationNames maps each population to its recognized define names: a spaced form and an
// unspaced form (identical for single-word names, where no alternate spelling exists).
var populationNames = map[PopulationType][2]string{
	InitialPopulation:    {"Initial Population", "InitialPopulation"},
	Denominator:          {"Denominator", "Denominator"},
	DenominatorExclusion: {"Denominator Exclusion", "DenominatorExclusion"},
	DenominatorException: {"Denominator Exception", "DenominatorException"},
	Numerator:            {"Numerator", "Numerator"},
	NumeratorExclusion:   {"Numerator Exclusion", "NumeratorExclusion"},
	MeasurePopulation:    {"Measure Population", "MeasurePopulation"},
	MeasureObservation:   {"Measure Observation", "MeasureObservation"},
}

// populationCode is the FHIR MeasureReport population-type code for pt, used as the
// PopulationCount.Code value.
func populationCode(pt PopulationType) string {
	switch pt {
	case InitialPopulation:
		return "initial-population"
	case Denominator:
		return "denominator"
	case DenominatorExclusion:
		return "denominator-exclusion"
	case DenominatorException:
		return "denominator-exception"
	case Numerator:
		return "numerator"
	case NumeratorExclusion:
		return "numerator-exclusion"
	case MeasurePopulation:
		return "measure-population"
	case MeasureObservation:
		return "measure-observation"
	}
	return "unknown"
}

// resolvePopulationDef looks up pt's definition in lib, recognizing both its spaced and unspaced
// names. Both forms present simultaneously is a DuplicateDefinition (spec.md §9 Open Question i).
func resolvePopulationDef(lib *model.Library, pt PopulationType) (model.IExpressionDef, error) {
	names := populationNames[pt]
	var found []model.IExpressionDef
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		if d := lib.DefByName(n); d != nil {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("measure: %w: population %q defined as both %q and %q", result.ErrDuplicateDefinition, pt, names[0], names[1])
	}
}

// ScoringType is a measure's scoring method (spec.md §4.12).
type ScoringType string

const (
	Proportion         ScoringType = "proportion"
	RatioScoring       ScoringType = "ratio"
	Cohort             ScoringType = "cohort"
	ContinuousVariable ScoringType = "continuous-variable"
)

// ObservationAggregate names the aggregation applied across a continuous-variable measure's
// "Measure Observation" results. Default is Sum.
type ObservationAggregate string

const (
	AggregateSum     ObservationAggregate = "sum"
	AggregateCount   ObservationAggregate = "count"
	AggregateAverage ObservationAggregate = "average"
	AggregateMin     ObservationAggregate = "minimum"
	AggregateMax     ObservationAggregate = "maximum"
)

// Stratifier splits a measure's population counts by the value of a top-level define.
type Stratifier struct {
	Name       string // report-facing stratifier name
	Expression string // define name whose evaluated value groups subjects
}

// Measure is a compiled quality measure: a library plus the scoring metadata spec.md §4.12's
// population criteria are evaluated and combined under.
type Measure struct {
	Library     *model.Library
	Scoring     ScoringType
	Observation ObservationAggregate
	Stratifiers []Stratifier
}

// NewMeasure validates lib's population criteria (name-aliasing duplicates, per population) and
// returns a Measure ready for Engine.Evaluate. observation defaults to AggregateSum when "".
func NewMeasure(lib *model.Library, scoring ScoringType, observation ObservationAggregate, stratifiers []Stratifier) (*Measure, error) {
	for _, pt := range populationOrder {
		if _, err := resolvePopulationDef(lib, pt); err != nil {
			return nil, err
		}
	}
	if observation == "" {
		observation = AggregateSum
	}
	return &Measure{Library: lib, Scoring: scoring, Observation: observation, Stratifiers: stratifiers}, nil
}
