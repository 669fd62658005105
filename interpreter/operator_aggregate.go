package interpreter

import (
	"math"
	"sort"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerUnary("Count", evalCount)
	registerUnary("Sum", evalSum)
	registerUnary("Avg", evalAvg)
	registerUnary("Min", evalMin)
	registerUnary("Max", evalMax)
	registerUnary("Median", evalMedian)
	registerUnary("Mode", evalMode)
	registerUnary("StdDev", evalStdDev)
	registerUnary("Variance", evalVariance)
	registerUnary("PopulationStdDev", evalPopulationStdDev)
	registerUnary("PopulationVariance", evalPopulationVariance)
	registerUnary("GeometricMean", evalGeometricMean)
	registerUnary("Product", evalProduct)
	registerUnary("AllTrue", evalAllTrue)
	registerUnary("AnyTrue", evalAnyTrue)
}

func nonNullDecimals(v result.Value) []result.Decimal {
	l, ok := asList(v)
	if !ok {
		return nil
	}
	var out []result.Decimal
	for _, e := range l.Value {
		if e.IsNull() {
			continue
		}
		if d, ok := toDecimal(e); ok {
			out = append(out, d)
		}
	}
	return out
}

func evalCount(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewInt32(0), nil
	}
	n := 0
	for _, e := range l.Value {
		if !e.IsNull() {
			n++
		}
	}
	return result.NewInt32(int32(n)), nil
}

func evalSum(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	if ds == nil {
		return result.NewNull(nil), nil
	}
	sum := result.NewDecimalFromInt64(0)
	for _, d := range ds {
		sum = sum.Add(d)
	}
	return narrowNumeric(firstNonNull(v), sum), nil
}

func firstNonNull(v result.Value) result.Value {
	l, ok := asList(v)
	if !ok {
		return result.NewNull(nil)
	}
	for _, e := range l.Value {
		if !e.IsNull() {
			return e
		}
	}
	return result.NewNull(nil)
}

func evalAvg(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	if len(ds) == 0 {
		return result.NewNull(nil), nil
	}
	sum := result.NewDecimalFromInt64(0)
	for _, d := range ds {
		sum = sum.Add(d)
	}
	avg := sum.Div(result.NewDecimalFromInt64(int64(len(ds))))
	return result.NewDecimal(avg), nil
}

func evalMin(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	var best result.Value
	for _, e := range l.Value {
		if e.IsNull() {
			continue
		}
		if best.IsNull() {
			best = e
			continue
		}
		if c, ok := result.Compare(e, best); ok && c < 0 {
			best = e
		}
	}
	if best.IsNull() {
		return result.NewNull(nil), nil
	}
	return best, nil
}

func evalMax(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	var best result.Value
	for _, e := range l.Value {
		if e.IsNull() {
			continue
		}
		if best.IsNull() {
			best = e
			continue
		}
		if c, ok := result.Compare(e, best); ok && c > 0 {
			best = e
		}
	}
	if best.IsNull() {
		return result.NewNull(nil), nil
	}
	return best, nil
}

func evalMedian(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	if len(ds) == 0 {
		return result.NewNull(nil), nil
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Cmp(ds[j]) < 0 })
	mid := len(ds) / 2
	if len(ds)%2 == 1 {
		return result.NewDecimal(ds[mid]), nil
	}
	sum := ds[mid-1].Add(ds[mid])
	return result.NewDecimal(sum.Div(result.NewDecimalFromInt64(2))), nil
}

func evalMode(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok || len(l.Value) == 0 {
		return result.NewNull(nil), nil
	}
	counts := make([]int, 0, len(l.Value))
	vals := make([]result.Value, 0, len(l.Value))
	for _, e := range l.Value {
		if e.IsNull() {
			continue
		}
		found := false
		for i, existing := range vals {
			if eq, ok := result.Equal(existing, e); ok && eq {
				counts[i]++
				found = true
				break
			}
		}
		if !found {
			vals = append(vals, e)
			counts = append(counts, 1)
		}
	}
	if len(vals) == 0 {
		return result.NewNull(nil), nil
	}
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return vals[best], nil
}

func variance(ds []result.Decimal, population bool) (result.Decimal, bool) {
	n := len(ds)
	if n == 0 || (!population && n < 2) {
		return result.Decimal{}, false
	}
	sum := result.NewDecimalFromInt64(0)
	for _, d := range ds {
		sum = sum.Add(d)
	}
	mean := sum.Div(result.NewDecimalFromInt64(int64(n)))
	sq := result.NewDecimalFromInt64(0)
	for _, d := range ds {
		diff := d.Sub(mean)
		sq = sq.Add(diff.Mul(diff))
	}
	divisor := n
	if !population {
		divisor = n - 1
	}
	return sq.Div(result.NewDecimalFromInt64(int64(divisor))), true
}

func evalVariance(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	va, ok := variance(ds, false)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewDecimal(va), nil
}

func evalPopulationVariance(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	va, ok := variance(ds, true)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewDecimal(va), nil
}

func evalStdDev(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	va, ok := variance(ds, false)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewDecimal(result.NewDecimalFromFloat64(math.Sqrt(va.Float64()))), nil
}

func evalPopulationStdDev(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	va, ok := variance(ds, true)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewDecimal(result.NewDecimalFromFloat64(math.Sqrt(va.Float64()))), nil
}

func evalGeometricMean(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	if len(ds) == 0 {
		return result.NewNull(nil), nil
	}
	logSum := 0.0
	for _, d := range ds {
		f := d.Float64()
		if f <= 0 {
			return result.NewNull(nil), nil
		}
		logSum += math.Log(f)
	}
	return result.NewDecimal(result.NewDecimalFromFloat64(math.Exp(logSum / float64(len(ds))))), nil
}

func evalProduct(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	ds := nonNullDecimals(v)
	if len(ds) == 0 {
		return result.NewNull(nil), nil
	}
	prod := result.NewDecimalFromInt64(1)
	for _, d := range ds {
		prod = prod.Mul(d)
	}
	return narrowNumeric(firstNonNull(v), prod), nil
}

func evalAllTrue(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewBoolean(true), nil
	}
	for _, e := range l.Value {
		if e.IsNull() {
			continue
		}
		if b, ok := e.GolangValue().(bool); ok && !b {
			return result.NewBoolean(false), nil
		}
	}
	return result.NewBoolean(true), nil
}

func evalAnyTrue(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewBoolean(false), nil
	}
	for _, e := range l.Value {
		if e.IsNull() {
			continue
		}
		if b, ok := e.GolangValue().(bool); ok && b {
			return result.NewBoolean(true), nil
		}
	}
	return result.NewBoolean(false), nil
}
