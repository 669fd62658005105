package measure

import (
	"github.com/clinical-elm/cql/result"
	"github.com/google/uuid"
)

// aggregate turns per-subject population results into a MeasureReport: an overall Group plus one
// nested Group per distinct value of each configured Stratifier.
func (e *Engine) aggregate(m *Measure, results []*subjectResult) *MeasureReport {
	report := &MeasureReport{ID: uuid.NewString(), Status: "complete"}

	var ok []*subjectResult
	for _, r := range results {
		if r.err != nil {
			report.Status = "error"
			report.Errors = append(report.Errors, SubjectError{SubjectID: r.id, Reason: r.err.Error()})
			continue
		}
		ok = append(ok, r)
	}

	overall := e.scoreGroup("", ok, m)

	for _, strat := range m.Stratifiers {
		seen := map[string]bool{}
		for _, r := range ok {
			val := r.stratum[strat.Name]
			if seen[val] {
				continue
			}
			seen[val] = true
			var members []*subjectResult
			for _, r2 := range ok {
				if r2.stratum[strat.Name] == val {
					members = append(members, r2)
				}
			}
			overall.Strata = append(overall.Strata, e.scoreGroup(val, members, m))
		}
	}

	report.Groups = []Group{overall}
	return report
}

func countPopulation(members []*subjectResult, pt PopulationType) int {
	n := 0
	for _, r := range members {
		if r.populations[pt] {
			n++
		}
	}
	return n
}

// scoreGroup computes one Group's population counts and measureScore for scoring m.Scoring, per
// the formulas in spec.md §4.12.
func (e *Engine) scoreGroup(stratum string, members []*subjectResult, m *Measure) Group {
	g := Group{Stratum: stratum}
	ip := countPopulation(members, InitialPopulation)
	g.Populations = append(g.Populations, PopulationCount{Code: populationCode(InitialPopulation), Count: ip})

	switch m.Scoring {
	case Cohort:
		score := float64(ip)
		g.MeasureScore = &score

	case Proportion:
		denom := countPopulation(members, Denominator)
		denomExcl := countPopulation(members, DenominatorExclusion)
		denomExcep := countPopulation(members, DenominatorException)
		num := countPopulation(members, Numerator)
		numExcl := countPopulation(members, NumeratorExclusion)
		g.Populations = append(g.Populations,
			PopulationCount{Code: populationCode(Denominator), Count: denom},
			PopulationCount{Code: populationCode(DenominatorExclusion), Count: denomExcl},
			PopulationCount{Code: populationCode(DenominatorException), Count: denomExcep},
			PopulationCount{Code: populationCode(Numerator), Count: num},
			PopulationCount{Code: populationCode(NumeratorExclusion), Count: numExcl},
		)
		den := denom - denomExcl - denomExcep
		numr := num - numExcl
		if den != 0 {
			score := result.NewDecimalFromInt64(int64(numr)).Div(result.NewDecimalFromInt64(int64(den))).Float64()
			g.MeasureScore = &score
		}

	case RatioScoring:
		denom := countPopulation(members, Denominator)
		num := countPopulation(members, Numerator)
		g.Populations = append(g.Populations,
			PopulationCount{Code: populationCode(Denominator), Count: denom},
			PopulationCount{Code: populationCode(Numerator), Count: num},
		)
		if denom != 0 {
			score := result.NewDecimalFromInt64(int64(num)).Div(result.NewDecimalFromInt64(int64(denom))).Float64()
			g.MeasureScore = &score
		}

	case ContinuousVariable:
		measurePop := countPopulation(members, MeasurePopulation)
		g.Populations = append(g.Populations, PopulationCount{Code: populationCode(MeasurePopulation), Count: measurePop})
		var obs float64
		for _, r := range members {
			if r.populations[InitialPopulation] {
				obs += r.observation
			}
		}
		score := obs
		g.MeasureScore = &score
	}

	return g
}
