package interpreter

import (
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerMulti("Equal", evalEqual)
	registerMulti("NotEqual", evalNotEqual)
	registerMulti("Equivalent", evalEquivalent)
	registerMulti("NotEquivalent", evalNotEquivalent)
	registerMulti("Less", compareOp(func(c int) bool { return c < 0 }))
	registerMulti("Greater", compareOp(func(c int) bool { return c > 0 }))
	registerMulti("LessOrEqual", compareOp(func(c int) bool { return c <= 0 }))
	registerMulti("GreaterOrEqual", compareOp(func(c int) bool { return c >= 0 }))
}

// evalEqual implements CQL `=`: Null if either operand is Null, else strict value equality.
func evalEqual(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	eq, ok := result.Equal(a, b)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewBoolean(eq), nil
}

func evalNotEqual(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	v, err := evalEqual(ec, vals, node)
	if err != nil || v.IsNull() {
		return v, err
	}
	return result.NewBoolean(!v.GolangValue().(bool)), nil
}

// evalEquivalent implements `~`: never Null, treats two Nulls as equivalent.
func evalEquivalent(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	return result.NewBoolean(result.Equivalent(a, b)), nil
}

func evalNotEquivalent(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	v, err := evalEquivalent(ec, vals, node)
	if err != nil {
		return v, err
	}
	return result.NewBoolean(!v.GolangValue().(bool)), nil
}

func compareOp(test func(c int) bool) multiOpFunc {
	return func(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
		a, b := vals[0], vals[1]
		if a.IsNull() || b.IsNull() {
			return result.NewNull(nil), nil
		}
		c, ok := result.Compare(a, b)
		if !ok {
			return result.NewNull(nil), nil
		}
		return result.NewBoolean(test(c)), nil
	}
}
