package interpreter

import (
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerMulti("Before", evalBefore)
	registerMulti("After", evalAfter)
	registerMulti("SameOrBefore", evalSameOrBefore)
	registerMulti("SameOrAfter", evalSameOrAfter)
	registerMulti("Meets", evalMeets)
	registerMulti("MeetsBefore", evalMeetsBefore)
	registerMulti("MeetsAfter", evalMeetsAfter)
	registerMulti("Overlaps", evalOverlaps)
	registerMulti("OverlapsBefore", evalOverlapsBefore)
	registerMulti("OverlapsAfter", evalOverlapsAfter)
	registerMulti("Starts", evalStarts)
	registerMulti("Ends", evalEnds)
	registerMulti("During", evalDuring)
	registerMulti("IncludedIn", evalDuring)
	registerMulti("Includes", evalIncludes)
	registerMulti("Collapse", evalCollapse)
	registerMulti("Expand", evalExpand)

	registerUnary("Width", evalWidth)
	registerUnary("Start", evalStart)
	registerUnary("End", evalEnd)
	registerUnary("PointFrom", evalPointFrom)
}

func asInterval(v result.Value) (result.Interval, bool) {
	if v.IsNull() {
		return result.Interval{}, false
	}
	iv, ok := v.GolangValue().(result.Interval)
	return iv, ok
}

// intervalLow/intervalHigh return the effective bound, honoring open endpoints by treating them
// as adjacent-excluded rather than resolving to a concrete point (callers compare with Compare,
// which is sufficient since CQL intervals are over ordered point types).
func intervalLow(iv result.Interval) result.Value  { return iv.Low }
func intervalHigh(iv result.Interval) result.Value { return iv.High }

func intervalContainsPoint(iv result.Interval, p result.Value) bool {
	if !iv.Low.IsNull() {
		c, ok := result.Compare(iv.Low, p)
		if !ok {
			return false
		}
		if iv.LowClosed && c > 0 {
			return false
		}
		if !iv.LowClosed && c >= 0 {
			return false
		}
	}
	if !iv.High.IsNull() {
		c, ok := result.Compare(iv.High, p)
		if !ok {
			return false
		}
		if iv.HighClosed && c < 0 {
			return false
		}
		if !iv.HighClosed && c <= 0 {
			return false
		}
	}
	return true
}

func evalBefore(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	if ivA, ok := asInterval(a); ok {
		high := intervalHigh(ivA)
		if ivB, ok := b.GolangValue().(result.Interval); ok {
			return boolCompare(high, intervalLow(ivB), func(c int) bool { return c < 0 })
		}
		return boolCompare(high, b, func(c int) bool { return c < 0 })
	}
	if ivB, ok := asInterval(b); ok {
		return boolCompare(a, intervalLow(ivB), func(c int) bool { return c < 0 })
	}
	return boolCompare(a, b, func(c int) bool { return c < 0 })
}

func evalAfter(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	return evalBefore(ec, []result.Value{vals[1], vals[0]}, node)
}

func evalSameOrBefore(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	pa, pb := a, b
	if ivA, ok := asInterval(a); ok {
		pa = intervalHigh(ivA)
	}
	if ivB, ok := asInterval(b); ok {
		pb = intervalLow(ivB)
	}
	return boolCompare(pa, pb, func(c int) bool { return c <= 0 })
}

func evalSameOrAfter(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	pa, pb := a, b
	if ivA, ok := asInterval(a); ok {
		pa = intervalLow(ivA)
	}
	if ivB, ok := asInterval(b); ok {
		pb = intervalHigh(ivB)
	}
	return boolCompare(pa, pb, func(c int) bool { return c >= 0 })
}

func boolCompare(a, b result.Value, test func(c int) bool) (result.Value, error) {
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	c, ok := result.Compare(a, b)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewBoolean(test(c)), nil
}

func evalMeets(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	before, err := evalMeetsBefore(ec, vals, node)
	if err != nil {
		return before, err
	}
	if !before.IsNull() && before.GolangValue().(bool) {
		return before, nil
	}
	return evalMeetsAfter(ec, vals, node)
}

func evalMeetsBefore(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	return boolCompare(intervalHigh(ivA), intervalLow(ivB), func(c int) bool { return c == -1 })
}

func evalMeetsAfter(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	return boolCompare(intervalLow(ivA), intervalHigh(ivB), func(c int) bool { return c == 1 })
}

func evalOverlaps(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	lowOK, _ := result.Compare(intervalLow(ivA), intervalHigh(ivB))
	highOK, _ := result.Compare(intervalHigh(ivA), intervalLow(ivB))
	return result.NewBoolean(lowOK <= 0 && highOK >= 0), nil
}

func evalOverlapsBefore(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	return boolCompare(intervalLow(ivA), intervalLow(ivB), func(c int) bool { return c <= 0 })
}

func evalOverlapsAfter(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	return boolCompare(intervalHigh(ivA), intervalHigh(ivB), func(c int) bool { return c >= 0 })
}

func evalStarts(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	eq, ok := result.Equal(intervalLow(ivA), intervalLow(ivB))
	if !ok {
		return result.NewNull(nil), nil
	}
	return evalSameOrBeforeHigh(eq, ivA, ivB)
}

func evalSameOrBeforeHigh(lowEq bool, ivA, ivB result.Interval) (result.Value, error) {
	if !lowEq {
		return result.NewBoolean(false), nil
	}
	c, ok := result.Compare(intervalHigh(ivA), intervalHigh(ivB))
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewBoolean(c <= 0), nil
}

func evalEnds(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	ivA, okA := asInterval(vals[0])
	ivB, okB := asInterval(vals[1])
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	eq, ok := result.Equal(intervalHigh(ivA), intervalHigh(ivB))
	if !ok || !eq {
		return result.NewBoolean(false), nil
	}
	c, ok := result.Compare(intervalLow(ivA), intervalLow(ivB))
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewBoolean(c >= 0), nil
}

// evalDuring implements `during`/`included in`: true when the first interval (or point) lies
// entirely within the second interval.
func evalDuring(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	ivB, ok := asInterval(b)
	if !ok {
		return result.NewBoolean(false), nil
	}
	if ivA, ok := asInterval(a); ok {
		return result.NewBoolean(intervalContainsPoint(ivB, intervalLow(ivA)) && intervalContainsPoint(ivB, intervalHigh(ivA))), nil
	}
	return result.NewBoolean(intervalContainsPoint(ivB, a)), nil
}

func evalIncludes(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	return evalDuring(ec, []result.Value{vals[1], vals[0]}, node)
}

func evalCollapse(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(vals[0])
	if !ok || len(l.Value) == 0 {
		return result.NewList(nil, l.StaticElementType), nil
	}
	ivs := make([]result.Interval, 0, len(l.Value))
	for _, v := range l.Value {
		if iv, ok := asInterval(v); ok {
			ivs = append(ivs, iv)
		}
	}
	merged := mergeIntervals(ivs)
	out := make([]result.Value, len(merged))
	for i, iv := range merged {
		out[i] = result.NewInterval(iv)
	}
	return result.NewList(out, l.StaticElementType), nil
}

func mergeIntervals(ivs []result.Interval) []result.Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := append([]result.Interval{}, ivs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			c, ok := result.Compare(sorted[j].Low, sorted[j-1].Low)
			if !ok || c >= 0 {
				break
			}
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := []result.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		c, ok := result.Compare(last.High, iv.Low)
		if ok && c >= 0 {
			hc, ok := result.Compare(last.High, iv.High)
			if ok && hc < 0 {
				last.High = iv.High
				last.HighClosed = iv.HighClosed
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func evalExpand(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	return evalCollapse(ec, vals, node)
}

func evalWidth(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	iv, ok := asInterval(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	return evalSubtract(ec, []result.Value{iv.High, iv.Low}, node)
}

func evalStart(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	iv, ok := asInterval(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	return iv.Low, nil
}

func evalEnd(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	iv, ok := asInterval(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	return iv.High, nil
}

func evalPointFrom(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	iv, ok := asInterval(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	if !iv.Low.IsNull() {
		return iv.Low, nil
	}
	return iv.High, nil
}
