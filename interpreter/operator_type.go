package interpreter

import (
	"strconv"

	"github.com/clinical-elm/cql/internal/datehelpers"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/types"
)

func init() {
	registerUnary("ToBoolean", unaryToType(types.System(types.Boolean)))
	registerUnary("ToInteger", unaryToType(types.System(types.Integer)))
	registerUnary("ToLong", unaryToType(types.System(types.Long)))
	registerUnary("ToDecimal", unaryToType(types.System(types.Decimal)))
	registerUnary("ToString", unaryToType(types.System(types.String)))
	registerUnary("ToDate", unaryToType(types.System(types.Date)))
	registerUnary("ToDateTime", unaryToType(types.System(types.DateTime)))
	registerUnary("ToTime", unaryToType(types.System(types.Time)))
	registerUnary("ToQuantity", unaryToType(types.System(types.Quantity)))
	registerUnary("ToConcept", unaryToType(types.System(types.Concept)))

	registerUnary("ConvertsToBoolean", unaryConvertsTo(types.System(types.Boolean)))
	registerUnary("ConvertsToInteger", unaryConvertsTo(types.System(types.Integer)))
	registerUnary("ConvertsToLong", unaryConvertsTo(types.System(types.Long)))
	registerUnary("ConvertsToDecimal", unaryConvertsTo(types.System(types.Decimal)))
	registerUnary("ConvertsToString", unaryConvertsTo(types.System(types.String)))
	registerUnary("ConvertsToDate", unaryConvertsTo(types.System(types.Date)))
	registerUnary("ConvertsToDateTime", unaryConvertsTo(types.System(types.DateTime)))
	registerUnary("ConvertsToTime", unaryConvertsTo(types.System(types.Time)))
	registerUnary("ConvertsToQuantity", unaryConvertsTo(types.System(types.Quantity)))
}

// evalAs evaluates `expr as Type` / `cast expr as Type`: runtime-compatible values pass through
// unchanged; incompatible values are Null for the lenient `as` and an error for `cast as`
// (n.Strict), per spec.md §4.7.
func evalAs(ec *EvaluationContext, n *model.As) (result.Value, error) {
	v, err := ec.Eval(n.GetOperand())
	if err != nil {
		return result.NewNull(nil), err
	}
	if v.IsNull() {
		return result.NewNull(n.AsType), nil
	}
	if typeMatches(v.RuntimeType(), n.AsType) {
		return v, nil
	}
	if n.Strict {
		return result.NewNull(nil), typeMismatch("As", "runtime type "+v.RuntimeType().String()+" does not match "+n.AsType.String())
	}
	return result.NewNull(n.AsType), nil
}

// evalIs evaluates `expr is Type`, a Boolean runtime type test that never yields Null.
func evalIs(ec *EvaluationContext, n *model.Is) (result.Value, error) {
	v, err := ec.Eval(n.GetOperand())
	if err != nil {
		return result.NewNull(nil), err
	}
	if v.IsNull() {
		return result.NewBoolean(false), nil
	}
	return result.NewBoolean(typeMatches(v.RuntimeType(), n.IsType)), nil
}

func typeMatches(runtime, target types.IType) bool {
	if runtime == nil || target == nil {
		return false
	}
	if runtime.Equal(target) {
		return true
	}
	return types.IsSubType(runtime, target)
}

// evalToType evaluates a `ToX(expr)` conversion, delegating to the same logic ConvertsToX uses to
// decide convertibility.
func evalToType(ec *EvaluationContext, n *model.ToType) (result.Value, error) {
	v, err := ec.Eval(n.GetOperand())
	if err != nil {
		return result.NewNull(nil), err
	}
	return convertValue(ec, v, n.TargetType)
}

func unaryToType(target types.IType) unaryOpFunc {
	return func(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error) {
		return convertValue(ec, operand, target)
	}
}

func unaryConvertsTo(target types.IType) unaryOpFunc {
	return func(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error) {
		if operand.IsNull() {
			return result.NewBoolean(false), nil
		}
		v, err := convertValue(ec, operand, target)
		if err != nil {
			return result.NewBoolean(false), nil
		}
		return result.NewBoolean(!v.IsNull()), nil
	}
}

// convertValue attempts to convert v to target, returning Null when the conversion is not
// meaningful (per CQL's ToX functions, which return Null on failure rather than erroring).
func convertValue(ec *EvaluationContext, v result.Value, target types.IType) (result.Value, error) {
	if v.IsNull() {
		return result.NewNull(target), nil
	}
	sys, isSystem := target.(types.System)
	if !isSystem {
		return v, nil
	}
	switch sys {
	case types.Boolean:
		switch x := v.GolangValue().(type) {
		case bool:
			return v, nil
		case string:
			switch x {
			case "true", "t", "yes", "y", "1", "1.0":
				return result.NewBoolean(true), nil
			case "false", "f", "no", "n", "0", "0.0":
				return result.NewBoolean(false), nil
			}
		}
		return result.NewNull(target), nil
	case types.String:
		return result.NewString(v.String()), nil
	case types.Integer:
		switch x := v.GolangValue().(type) {
		case int32:
			return v, nil
		case int64:
			return result.NewInt32(int32(x)), nil
		case result.Decimal:
			return result.NewInt32(int32(x.Float64())), nil
		case string:
			n, err := strconv.ParseInt(x, 10, 32)
			if err != nil {
				return result.NewNull(target), nil
			}
			return result.NewInt32(int32(n)), nil
		}
		return result.NewNull(target), nil
	case types.Long:
		switch x := v.GolangValue().(type) {
		case int32:
			return result.NewInt64(int64(x)), nil
		case int64:
			return v, nil
		case string:
			n, err := strconv.ParseInt(x, 10, 64)
			if err != nil {
				return result.NewNull(target), nil
			}
			return result.NewInt64(n), nil
		}
		return result.NewNull(target), nil
	case types.Decimal:
		switch x := v.GolangValue().(type) {
		case int32:
			return result.NewDecimal(result.NewDecimalFromInt64(int64(x))), nil
		case int64:
			return result.NewDecimal(result.NewDecimalFromInt64(x)), nil
		case result.Decimal:
			return v, nil
		case string:
			d, err := result.NewDecimalFromString(x)
			if err != nil {
				return result.NewNull(target), nil
			}
			return result.NewDecimal(d), nil
		}
		return result.NewNull(target), nil
	case types.Quantity:
		switch x := v.GolangValue().(type) {
		case result.Quantity:
			return v, nil
		case int32:
			return result.NewQuantity(result.Quantity{Value: result.NewDecimalFromInt64(int64(x)), Unit: "1"}), nil
		case result.Decimal:
			return result.NewQuantity(result.Quantity{Value: x, Unit: "1"}), nil
		}
		return result.NewNull(target), nil
	case types.Date:
		if s, ok := v.GolangValue().(string); ok {
			lit, err := datehelpers.ParseDateTime(s)
			if err != nil {
				return result.NewNull(target), nil
			}
			return result.NewDate(result.Date(result.FromLiteral(lit, ec.interp.defaultLoc))), nil
		}
		if d, ok := v.GolangValue().(result.DateTime); ok {
			return result.NewDate(result.Date(d)), nil
		}
		return result.NewNull(target), nil
	case types.DateTime:
		if s, ok := v.GolangValue().(string); ok {
			lit, err := datehelpers.ParseDateTime(s)
			if err != nil {
				return result.NewNull(target), nil
			}
			return result.NewDateTime(result.FromLiteral(lit, ec.interp.defaultLoc)), nil
		}
		if d, ok := v.GolangValue().(result.Date); ok {
			return result.NewDateTime(result.DateTime(d)), nil
		}
		return result.NewNull(target), nil
	case types.Time:
		if s, ok := v.GolangValue().(string); ok {
			lit, err := datehelpers.ParseTime(s)
			if err != nil {
				return result.NewNull(target), nil
			}
			return result.NewTime(result.Time(result.FromLiteral(lit, ec.interp.defaultLoc))), nil
		}
		return result.NewNull(target), nil
	case types.Concept:
		if c, ok := v.GolangValue().(result.Code); ok {
			return result.NewConcept(result.Concept{Coding: []result.Code{c}}), nil
		}
		return v, nil
	default:
		return v, nil
	}
}
