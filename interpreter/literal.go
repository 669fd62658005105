package interpreter

import (
	"strconv"

	"github.com/clinical-elm/cql/internal/datehelpers"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/types"
)

// evalLiteral parses a model.Literal's source-text spelling against its lowered static type,
// per spec.md §3.
func evalLiteral(ec *EvaluationContext, n *model.Literal) (result.Value, error) {
	sys, _ := n.GetResultType().(types.System)
	switch sys {
	case types.Boolean:
		return result.NewBoolean(n.Value == "true"), nil
	case types.Integer:
		if n.Value == "" {
			return result.NewNull(n.GetResultType()), nil
		}
		v, err := strconv.ParseInt(n.Value, 10, 32)
		if err != nil {
			return result.NewNull(nil), typeMismatch("Literal", err.Error())
		}
		return result.NewInt32(int32(v)), nil
	case types.Long:
		v, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return result.NewNull(nil), typeMismatch("Literal", err.Error())
		}
		return result.NewInt64(v), nil
	case types.Decimal:
		d, err := result.NewDecimalFromString(n.Value)
		if err != nil {
			return result.NewNull(nil), typeMismatch("Literal", err.Error())
		}
		return result.NewDecimal(d), nil
	case types.String:
		return result.NewString(n.Value), nil
	case types.Date:
		lit, err := datehelpers.ParseDateTime(n.Value)
		if err != nil {
			return result.NewNull(nil), typeMismatch("Literal", err.Error())
		}
		return result.NewDate(result.Date(result.FromLiteral(lit, ec.interp.defaultLoc))), nil
	case types.DateTime:
		lit, err := datehelpers.ParseDateTime(n.Value)
		if err != nil {
			return result.NewNull(nil), typeMismatch("Literal", err.Error())
		}
		return result.NewDateTime(result.FromLiteral(lit, ec.interp.defaultLoc)), nil
	case types.Time:
		lit, err := datehelpers.ParseTime(n.Value)
		if err != nil {
			return result.NewNull(nil), typeMismatch("Literal", err.Error())
		}
		return result.NewTime(result.Time(result.FromLiteral(lit, ec.interp.defaultLoc))), nil
	default:
		return result.NewNull(n.GetResultType()), nil
	}
}

// evalQuantityLiteral evaluates a `<number> '<unit>'` literal.
func evalQuantityLiteral(ec *EvaluationContext, n *model.Quantity) (result.Value, error) {
	return result.NewQuantity(result.Quantity{Value: result.NewDecimalFromFloat64(n.Value), Unit: n.Unit}), nil
}

// evalRatioLiteral evaluates a `<quantity>:<quantity>` literal.
func evalRatioLiteral(ec *EvaluationContext, n *model.Ratio) (result.Value, error) {
	num := result.Quantity{Value: result.NewDecimalFromFloat64(n.Numerator.Value), Unit: n.Numerator.Unit}
	den := result.Quantity{Value: result.NewDecimalFromFloat64(n.Denominator.Value), Unit: n.Denominator.Unit}
	return result.NewRatio(result.Ratio{Numerator: num, Denominator: den}), nil
}

// evalList evaluates a `{ a, b, c }` list constructor.
func evalList(ec *EvaluationContext, n *model.List) (result.Value, error) {
	vals := make([]result.Value, len(n.List))
	for i, item := range n.List {
		v, err := ec.Eval(item)
		if err != nil {
			return result.NewNull(nil), err
		}
		vals[i] = v
	}
	elemType := types.IType(types.System(types.Any))
	if lt, ok := n.GetResultType().(*types.List); ok {
		elemType = lt.ElementType
	}
	return result.NewList(vals, elemType), nil
}

// evalTuple evaluates a `Tuple { name: value, ... }` constructor.
func evalTuple(ec *EvaluationContext, n *model.Tuple) (result.Value, error) {
	t := result.NewEmptyTuple()
	for _, el := range n.Elements {
		v, err := ec.Eval(el.Value)
		if err != nil {
			return result.NewNull(nil), err
		}
		t.Set(el.Name, v)
	}
	return result.NewTuple(t), nil
}

// evalInstance evaluates a `ClassType { name: value, ... }` constructor. Without a FHIR schema
// (spec.md §1 Non-goals), an Instance is represented the same as a Tuple; ClassType is preserved
// only as the node's static type, not enforced at runtime.
func evalInstance(ec *EvaluationContext, n *model.Instance) (result.Value, error) {
	t := result.NewEmptyTuple()
	for _, el := range n.Elements {
		v, err := ec.Eval(el.Value)
		if err != nil {
			return result.NewNull(nil), err
		}
		t.Set(el.Name, v)
	}
	return result.NewTuple(t), nil
}

// evalIntervalLiteral evaluates an `Interval[low, high]` constructor, validating low <= high per
// spec.md §3 ("violating constructors fail with InvalidInterval").
func evalIntervalLiteral(ec *EvaluationContext, n *model.Interval) (result.Value, error) {
	low, err := ec.Eval(n.Low)
	if err != nil {
		return result.NewNull(nil), err
	}
	high, err := ec.Eval(n.High)
	if err != nil {
		return result.NewNull(nil), err
	}
	lowInclusive, err := closedFlag(ec, n.LowClosedExpression, n.LowInclusive)
	if err != nil {
		return result.NewNull(nil), err
	}
	highInclusive, err := closedFlag(ec, n.HighClosedExpression, n.HighInclusive)
	if err != nil {
		return result.NewNull(nil), err
	}
	var pointType types.IType = types.System(types.Any)
	if iv, ok := n.GetResultType().(*types.Interval); ok {
		pointType = iv.PointType
	}
	iv, err := result.NewIntervalChecked(low, high, lowInclusive, highInclusive, pointType, result.Compare)
	if err != nil {
		return result.NewNull(nil), err
	}
	return result.NewInterval(iv), nil
}

func closedFlag(ec *EvaluationContext, expr model.IExpression, static bool) (bool, error) {
	if expr == nil {
		return static, nil
	}
	v, err := ec.Eval(expr)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return static, nil
	}
	b, _ := v.GolangValue().(bool)
	return b, nil
}

// evalCodeLiteral evaluates a `Code 'code' from System display 'd'` literal.
func evalCodeLiteral(ec *EvaluationContext, n *model.CodeLiteral) (result.Value, error) {
	return result.NewCode(result.Code{System: n.System, Code: n.Code, Display: n.Display}), nil
}
