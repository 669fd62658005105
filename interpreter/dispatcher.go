package interpreter

import (
	"fmt"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

// unaryNode is satisfied by every concrete operator type embedding *model.UnaryExpression,
// mirroring internal/lower's identical interface -- promoted methods let dispatch recurse across
// the ~100 one-line operator-alias types in model/operators.go without a case per type.
type unaryNode interface {
	model.IExpression
	GetName() string
	GetOperand() model.IExpression
}

// multiOperandNode is satisfied by every concrete operator type embedding *model.BinaryExpression
// or *model.NaryExpression (including the interval/temporal family via IntervalOp).
type multiOperandNode interface {
	model.IExpression
	GetName() string
	GetOperands() []model.IExpression
}

// unaryOpFunc evaluates one unary operator given its already-evaluated operand. node carries the
// full operator for operators that need extra fields (e.g. As.AsType, DateTimeComponentFrom's
// Precision).
type unaryOpFunc func(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error)

// multiOpFunc evaluates one binary/n-ary operator given its already-evaluated operands.
type multiOpFunc func(ec *EvaluationContext, operands []result.Value, node model.IExpression) (result.Value, error)

// unaryOps/multiOps are populated by each operator_*.go file's init(), keyed by the ELM operator
// tag (model node's GetName()). A per-name-registry table, rather than the teacher's
// per-concrete-Go-type overload table (convert.Overload[evalUnarySignature] keyed by operand
// static types), is a deliberate simplification: since lowering (C7) already resolves every
// operator to a single concrete node type with a statically known operand type, there is no
// overload ambiguity left to re-resolve at evaluation time.
var unaryOps = map[string]unaryOpFunc{}
var multiOps = map[string]multiOpFunc{}

// registerUnary adds name's evaluator; called from each operator_*.go file's init().
func registerUnary(name string, fn unaryOpFunc) { unaryOps[name] = fn }

// registerMulti adds name's evaluator.
func registerMulti(name string, fn multiOpFunc) { multiOps[name] = fn }

// dispatch is the ELM-node-kind -> evaluator-function switch (teacher: operator_dispatcher.go),
// handling every node kind lowering (C7) can produce.
func dispatch(ec *EvaluationContext, e model.IExpression) (result.Value, error) {
	switch n := e.(type) {
	case nil:
		return result.NewNull(nil), nil

	case *model.Literal:
		return evalLiteral(ec, n)

	case *model.Quantity:
		return evalQuantityLiteral(ec, n)

	case *model.Ratio:
		return evalRatioLiteral(ec, n)

	case *model.List:
		return evalList(ec, n)

	case *model.Tuple:
		return evalTuple(ec, n)

	case *model.Instance:
		return evalInstance(ec, n)

	case *model.Interval:
		return evalIntervalLiteral(ec, n)

	case *model.If:
		return evalIf(ec, n)

	case *model.Case:
		return evalCase(ec, n)

	case *model.As:
		return evalAs(ec, n)

	case *model.Is:
		return evalIs(ec, n)

	case *model.ToType:
		return evalToType(ec, n)

	case *model.ExpressionRef:
		return evalExpressionRef(ec, n)

	case *model.ParameterRef:
		return evalParameterRef(ec, n)

	case *model.OperandRef:
		v, ok := ec.frame.Lookup(n.Name)
		if !ok {
			return result.NewNull(nil), nil
		}
		return v, nil

	case *model.AliasRef:
		v, ok := ec.frame.Lookup(n.Name)
		if !ok {
			return result.NewNull(nil), nil
		}
		return v, nil

	case *model.IdentifierRef:
		// An unresolved name survived lowering (a diagnostic was already recorded); evaluate to
		// Null rather than aborting the whole tree.
		return result.NewNull(nil), nil

	case *model.FunctionRef:
		return evalFunctionRef(ec, n)

	case *model.Property:
		return evalProperty(ec, n)

	case *model.Retrieve:
		return evalRetrieve(ec, n)

	case *model.Query:
		return evalQuery(ec, n)

	case *model.CodeLiteral:
		return evalCodeLiteral(ec, n)

	case *model.CodeSystemRef, *model.ValuesetRef, *model.CodeRef, *model.ConceptRef:
		return evalTerminologyRef(ec, e)

	case *model.InValueSet, *model.InCodeSystem, *model.AnyInValueSet:
		return evalTerminologyMembership(ec, n.(multiOperandNode))

	case *model.Subsumes, *model.SubsumedBy:
		return evalSubsumption(ec, n.(multiOperandNode))

	case *model.And, *model.Or, *model.Xor, *model.Implies:
		return evalKleeneBinary(ec, n.(multiOperandNode))

	case *model.Not:
		return evalNotNode(ec, n)

	case *model.Total:
		v, ok := ec.frame.Lookup("$total")
		if !ok {
			return result.NewNull(nil), nil
		}
		return v, nil

	case *model.Today:
		return evalToday(ec)

	case *model.Now:
		return evalNow(ec)

	case *model.TimeOfDay:
		return evalTimeOfDay(ec)

	case *model.AgeInYears:
		return evalAgeIn(ec, "year")

	case *model.AgeInMonths:
		return evalAgeIn(ec, "month")

	case *model.AgeInDays:
		return evalAgeIn(ec, "day")

	case unaryNode:
		return evalUnaryDispatch(ec, n)

	case multiOperandNode:
		return evalMultiDispatch(ec, n)
	}
	return result.NewNull(nil), fmt.Errorf("interpreter: unhandled node type %T", e)
}

func evalUnaryDispatch(ec *EvaluationContext, n unaryNode) (result.Value, error) {
	fn, ok := unaryOps[n.GetName()]
	if !ok {
		return result.NewNull(nil), fmt.Errorf("interpreter: unregistered unary operator %q", n.GetName())
	}
	operand, err := ec.Eval(n.GetOperand())
	if err != nil {
		return result.NewNull(nil), err
	}
	return fn(ec, operand, n.(model.IExpression))
}

func evalMultiDispatch(ec *EvaluationContext, n multiOperandNode) (result.Value, error) {
	fn, ok := multiOps[n.GetName()]
	if !ok {
		return result.NewNull(nil), fmt.Errorf("interpreter: unregistered operator %q", n.GetName())
	}
	ops := n.GetOperands()
	vals := make([]result.Value, len(ops))
	for i, op := range ops {
		v, err := ec.Eval(op)
		if err != nil {
			return result.NewNull(nil), err
		}
		vals[i] = v
	}
	return fn(ec, vals, n.(model.IExpression))
}
