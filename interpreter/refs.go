package interpreter

import (
	"fmt"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

// evalExpressionRef resolves and evaluates (memoized) a top-level `define`, crossing into an
// included library first when n.LibName is set.
func evalExpressionRef(ec *EvaluationContext, n *model.ExpressionRef) (result.Value, error) {
	target := ec
	qualified := n.Name
	if n.LibName != "" {
		lib, qname, ok := ec.LibraryByAlias(n.LibName)
		if !ok {
			return result.NewNull(nil), fmt.Errorf("interpreter: unresolved include alias %q", n.LibName)
		}
		target = ec.withLibrary(lib)
		qualified = qname + "." + n.Name
	}
	def := target.lib.DefByName(n.Name)
	if def == nil {
		return result.NewNull(nil), fmt.Errorf("interpreter: unresolved definition %q", n.Name)
	}
	return target.EvaluateDefinition(qualified, def)
}

// evalParameterRef looks up a bound parameter, falling back to its declared default expression.
func evalParameterRef(ec *EvaluationContext, n *model.ParameterRef) (result.Value, error) {
	if v, ok := ec.params[n.Name]; ok {
		return v, nil
	}
	for _, p := range ec.lib.Parameters {
		if p.Name == n.Name {
			if p.Default == nil {
				return result.NewNull(nil), nil
			}
			return ec.Eval(p.Default)
		}
	}
	return result.NewNull(nil), nil
}

// evalFunctionRef calls a user-defined FunctionDef, binding each evaluated argument into a fresh
// child frame under its operand name (external/system functions never reach here -- lowering (C7)
// resolves those directly to operator nodes).
func evalFunctionRef(ec *EvaluationContext, n *model.FunctionRef) (result.Value, error) {
	target := ec
	if n.LibName != "" {
		lib, _, ok := ec.LibraryByAlias(n.LibName)
		if !ok {
			return result.NewNull(nil), fmt.Errorf("interpreter: unresolved include alias %q", n.LibName)
		}
		target = ec.withLibrary(lib)
	}
	def, ok := target.lib.DefByName(n.Name).(*model.FunctionDef)
	if !ok || def == nil {
		return result.NewNull(nil), fmt.Errorf("interpreter: unresolved function %q", n.Name)
	}
	args := make([]result.Value, len(n.Operands))
	for i, operand := range n.Operands {
		v, err := ec.Eval(operand)
		if err != nil {
			return result.NewNull(nil), err
		}
		args[i] = v
	}
	return target.CallFunction(def, args)
}

// CallFunction invokes a user-defined FunctionDef's body with args bound positionally to its
// operands. Exported for callers outside this package that need to apply a function definition to
// values they already hold rather than unevaluated operand expressions -- the measure engine uses
// this to run a "Measure Observation" function once per member of a "Measure Population" list.
func (ec *EvaluationContext) CallFunction(def *model.FunctionDef, args []result.Value) (result.Value, error) {
	if def.External || def.Expression == nil {
		return result.NewNull(nil), fmt.Errorf("interpreter: function %q has no body", def.Name)
	}
	frame := NewFrame()
	for i, opnd := range def.Operands {
		if i >= len(args) {
			break
		}
		frame.Bind(opnd.Name, args[i])
	}
	return ec.withFrame(frame).Eval(def.Expression)
}
