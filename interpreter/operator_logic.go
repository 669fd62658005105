package interpreter

import (
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerUnary("IsNull", func(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
		return result.NewBoolean(v.IsNull()), nil
	})
	registerUnary("IsTrue", func(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
		return result.NewBoolean(result.ToTri(v) == result.TriTrue), nil
	})
	registerUnary("IsFalse", func(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
		return result.NewBoolean(result.ToTri(v) == result.TriFalse), nil
	})
}

// evalKleeneBinary evaluates And/Or/Xor/Implies with Kleene short-circuiting: the right operand
// is evaluated only when the left one doesn't already decide the result, per spec.md §4.7.
func evalKleeneBinary(ec *EvaluationContext, n multiOperandNode) (result.Value, error) {
	ops := n.GetOperands()
	left, err := ec.Eval(ops[0])
	if err != nil {
		return result.NewNull(nil), err
	}
	lt := result.ToTri(left)

	switch n.GetName() {
	case "And":
		if lt == result.TriFalse {
			return result.NewBoolean(false), nil
		}
		right, err := ec.Eval(ops[1])
		if err != nil {
			return result.NewNull(nil), err
		}
		return result.KleeneAnd(lt, result.ToTri(right)).ToValue(), nil

	case "Or":
		if lt == result.TriTrue {
			return result.NewBoolean(true), nil
		}
		right, err := ec.Eval(ops[1])
		if err != nil {
			return result.NewNull(nil), err
		}
		return result.KleeneOr(lt, result.ToTri(right)).ToValue(), nil

	case "Xor":
		right, err := ec.Eval(ops[1])
		if err != nil {
			return result.NewNull(nil), err
		}
		return result.KleeneXor(lt, result.ToTri(right)).ToValue(), nil

	case "Implies":
		if lt == result.TriFalse {
			return result.NewBoolean(true), nil
		}
		right, err := ec.Eval(ops[1])
		if err != nil {
			return result.NewNull(nil), err
		}
		return result.KleeneImplies(lt, result.ToTri(right)).ToValue(), nil
	}
	return result.NewNull(nil), typeMismatch("Kleene", "unknown logical operator "+n.GetName())
}

// evalNotNode evaluates `not expr`.
func evalNotNode(ec *EvaluationContext, n *model.Not) (result.Value, error) {
	v, err := ec.Eval(n.GetOperand())
	if err != nil {
		return result.NewNull(nil), err
	}
	return result.KleeneNot(result.ToTri(v)).ToValue(), nil
}
