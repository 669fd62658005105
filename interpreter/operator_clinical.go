package interpreter

import (
	"github.com/clinical-elm/cql/internal/datehelpers"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerUnary("CalculateAge", evalCalculateAge)
	registerMulti("CalculateAgeAt", evalCalculateAgeAt)
}

// evalAgeIn implements AgeInYears/AgeInMonths/AgeInDays: the subject's birthDate compared against
// Today(), per spec.md §4.2 clinical helpers. Null when the evaluation has no subject or the
// subject carries no birthDate.
func evalAgeIn(ec *EvaluationContext, unit string) (result.Value, error) {
	birthDate, err := subjectBirthDate(ec)
	if err != nil || birthDate.IsNull() {
		return result.NewNull(nil), err
	}
	today, _ := evalToday(ec)
	return betweenImpl(birthDate, today, unit)
}

func subjectBirthDate(ec *EvaluationContext) (result.Value, error) {
	if ec.subject.IsNull() {
		return result.NewNull(nil), nil
	}
	return navigate(ec, ec.subject, "birthDate")
}

func evalCalculateAge(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	n, ok := node.(*model.CalculateAge)
	if !ok {
		return result.NewNull(nil), nil
	}
	today, _ := evalToday(ec)
	return betweenImpl(v, today, unitForPrecision(n.Precision))
}

func evalCalculateAgeAt(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	n, ok := node.(*model.CalculateAgeAt)
	if !ok {
		return result.NewNull(nil), nil
	}
	return betweenImpl(vals[0], vals[1], unitForPrecision(n.Precision))
}

func unitForPrecision(p model.Precision) string {
	if p == "" {
		return string(datehelpers.Year.String())
	}
	return string(p)
}
