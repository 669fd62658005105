package interpreter

import (
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerMulti("Coalesce", evalCoalesce)
}

// evalIf evaluates `if cond then ... else ...`, treating a Null/unknown condition as false per
// CQL's three-valued `if` semantics.
func evalIf(ec *EvaluationContext, n *model.If) (result.Value, error) {
	cond, err := ec.Eval(n.Condition)
	if err != nil {
		return result.NewNull(nil), err
	}
	if result.ToTri(cond) == result.TriTrue {
		return ec.Eval(n.Then)
	}
	return ec.Eval(n.Else)
}

// evalCase evaluates a CQL `case` expression: the selector form (Comparand non-nil) compares
// Comparand against each `when` via `=`; the predicate form evaluates each `when` as Boolean.
func evalCase(ec *EvaluationContext, n *model.Case) (result.Value, error) {
	var comparand result.Value
	hasComparand := n.Comparand != nil
	if hasComparand {
		v, err := ec.Eval(n.Comparand)
		if err != nil {
			return result.NewNull(nil), err
		}
		comparand = v
	}
	for _, item := range n.CaseItems {
		whenVal, err := ec.Eval(item.When)
		if err != nil {
			return result.NewNull(nil), err
		}
		var matched bool
		if hasComparand {
			eq, ok := result.Equal(comparand, whenVal)
			matched = ok && eq
		} else {
			matched = result.ToTri(whenVal) == result.TriTrue
		}
		if matched {
			return ec.Eval(item.Then)
		}
	}
	return ec.Eval(n.Else)
}

// evalCoalesce returns the first non-null operand, or Null if all are null, per CQL `Coalesce`.
func evalCoalesce(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	for _, v := range vals {
		if !v.IsNull() {
			return v, nil
		}
	}
	if len(vals) > 0 {
		return vals[len(vals)-1], nil
	}
	return result.NewNull(nil), nil
}
