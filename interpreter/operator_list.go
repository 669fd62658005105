package interpreter

import (
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerUnary("ListExists", evalListExists)
	registerUnary("First", evalFirst)
	registerUnary("Last", evalLast)
	registerUnary("Tail", evalTail)
	registerUnary("SingletonFrom", evalSingletonFrom)
	registerUnary("Distinct", evalDistinct)
	registerUnary("Flatten", evalFlatten)
	registerUnary("IsDistinct", evalIsDistinct)

	registerMulti("Skip", evalSkip)
	registerMulti("Take", evalTake)
	registerMulti("Union", evalUnion)
	registerMulti("Intersect", evalIntersect)
	registerMulti("Except", evalExcept)
	registerMulti("In", evalIn)
	registerMulti("Contains", evalContains)
	registerMulti("SubsetOf", evalSubsetOf)
	registerMulti("SupersetOf", evalSupersetOf)
	registerMulti("ProperIn", evalProperIn)
	registerMulti("ProperContains", evalProperContains)
	registerMulti("Slice", evalSlice)
}

func asList(v result.Value) (result.List, bool) {
	if v.IsNull() {
		return result.List{}, false
	}
	l, ok := v.GolangValue().(result.List)
	return l, ok
}

func evalListExists(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewBoolean(false), nil
	}
	for _, e := range l.Value {
		if !e.IsNull() {
			return result.NewBoolean(true), nil
		}
	}
	return result.NewBoolean(false), nil
}

func evalFirst(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok || len(l.Value) == 0 {
		return result.NewNull(nil), nil
	}
	return l.Value[0], nil
}

func evalLast(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok || len(l.Value) == 0 {
		return result.NewNull(nil), nil
	}
	return l.Value[len(l.Value)-1], nil
}

func evalTail(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok || len(l.Value) == 0 {
		return result.NewList(nil, l.StaticElementType), nil
	}
	return result.NewList(append([]result.Value{}, l.Value[1:]...), l.StaticElementType), nil
}

func evalSingletonFrom(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok || len(l.Value) == 0 {
		return result.NewNull(nil), nil
	}
	if len(l.Value) > 1 {
		return result.NewNull(nil), typeMismatch("SingletonFrom", "list has more than one element")
	}
	return l.Value[0], nil
}

func evalDistinct(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewList(dedupeValues(l.Value), l.StaticElementType), nil
}

func evalIsDistinct(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewBoolean(true), nil
	}
	return result.NewBoolean(len(dedupeValues(l.Value)) == len(l.Value)), nil
}

func evalFlatten(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	var out []result.Value
	for _, e := range l.Value {
		if inner, ok := e.GolangValue().(result.List); ok {
			out = append(out, inner.Value...)
		} else {
			out = append(out, e)
		}
	}
	return result.NewList(out, nil), nil
}

func evalSkip(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(vals[0])
	if !ok {
		return result.NewNull(nil), nil
	}
	n := int(toInt(vals[1]))
	if n < 0 {
		n = 0
	}
	if n >= len(l.Value) {
		return result.NewList(nil, l.StaticElementType), nil
	}
	return result.NewList(append([]result.Value{}, l.Value[n:]...), l.StaticElementType), nil
}

func evalTake(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(vals[0])
	if !ok {
		return result.NewNull(nil), nil
	}
	n := int(toInt(vals[1]))
	if n < 0 {
		n = 0
	}
	if n > len(l.Value) {
		n = len(l.Value)
	}
	return result.NewList(append([]result.Value{}, l.Value[:n]...), l.StaticElementType), nil
}

func evalUnion(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, _ := asList(vals[0])
	b, _ := asList(vals[1])
	combined := append(append([]result.Value{}, a.Value...), b.Value...)
	return result.NewList(dedupeValues(combined), a.StaticElementType), nil
}

func evalIntersect(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, _ := asList(vals[0])
	b, _ := asList(vals[1])
	var out []result.Value
	for _, v := range dedupeValues(a.Value) {
		if containsValue(b.Value, v) {
			out = append(out, v)
		}
	}
	return result.NewList(out, a.StaticElementType), nil
}

func evalExcept(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, _ := asList(vals[0])
	b, _ := asList(vals[1])
	var out []result.Value
	for _, v := range dedupeValues(a.Value) {
		if !containsValue(b.Value, v) {
			out = append(out, v)
		}
	}
	return result.NewList(out, a.StaticElementType), nil
}

func containsValue(haystack []result.Value, needle result.Value) bool {
	for _, v := range haystack {
		if eq, ok := result.Equal(v, needle); ok && eq {
			return true
		}
	}
	return false
}

func evalIn(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	needle, hay := vals[0], vals[1]
	if needle.IsNull() {
		return result.NewNull(nil), nil
	}
	if iv, ok := hay.GolangValue().(result.Interval); ok {
		return result.NewBoolean(intervalContainsPoint(iv, needle)), nil
	}
	l, ok := asList(hay)
	if !ok {
		return result.NewBoolean(false), nil
	}
	return result.NewBoolean(containsValue(l.Value, needle)), nil
}

func evalContains(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	hay, needle := vals[0], vals[1]
	return evalIn(ec, []result.Value{needle, hay}, node)
}

func evalSubsetOf(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, _ := asList(vals[0])
	b, _ := asList(vals[1])
	for _, v := range a.Value {
		if !containsValue(b.Value, v) {
			return result.NewBoolean(false), nil
		}
	}
	return result.NewBoolean(true), nil
}

func evalSupersetOf(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	return evalSubsetOf(ec, []result.Value{vals[1], vals[0]}, node)
}

func evalProperIn(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	in, err := evalIn(ec, vals, node)
	if err != nil || in.IsNull() || !in.GolangValue().(bool) {
		return in, err
	}
	l, ok := asList(vals[1])
	if !ok {
		return result.NewBoolean(false), nil
	}
	return result.NewBoolean(len(l.Value) > 1), nil
}

func evalProperContains(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	return evalProperIn(ec, []result.Value{vals[1], vals[0]}, node)
}

func evalSlice(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	l, ok := asList(vals[0])
	if !ok {
		return result.NewNull(nil), nil
	}
	start := 0
	if len(vals) > 1 && !vals[1].IsNull() {
		start = int(toInt(vals[1]))
	}
	end := len(l.Value)
	if len(vals) > 2 && !vals[2].IsNull() {
		end = int(toInt(vals[2]))
	}
	if start < 0 {
		start = 0
	}
	if end > len(l.Value) {
		end = len(l.Value)
	}
	if start >= end {
		return result.NewList(nil, l.StaticElementType), nil
	}
	return result.NewList(append([]result.Value{}, l.Value[start:end]...), l.StaticElementType), nil
}
