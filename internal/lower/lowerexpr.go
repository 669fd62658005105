package lower

import (
	"fmt"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/types"
)

// unaryNode is satisfied by every concrete operator type embedding *model.UnaryExpression: the
// promoted GetOperand/SetOperand/GetName methods let lowering recurse without a type switch per
// operator (Not, Abs, Count, ... all satisfy this identically).
type unaryNode interface {
	model.IExpression
	GetName() string
	GetOperand() model.IExpression
	SetOperand(model.IExpression)
}

// multiOperandNode is satisfied by every concrete operator type embedding *model.BinaryExpression
// or *model.NaryExpression (including the interval/temporal family, which embeds BinaryExpression
// via IntervalOp).
type multiOperandNode interface {
	model.IExpression
	GetName() string
	GetOperands() []model.IExpression
	SetOperands([]model.IExpression)
}

// lowerExpr resolves names and infers a static type for e and everything beneath it, returning
// the (possibly replaced) node.
func (lw *Lowerer) lowerExpr(e model.IExpression) model.IExpression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *model.Literal:
		return n

	case *model.Quantity:
		n.SetResultType(types.System(types.Quantity))
		return n

	case *model.IdentifierRef:
		return lw.resolveIdentifier(n.Name)

	case *model.Property:
		return lw.lowerProperty(n)

	case *model.ExpressionRef:
		lw.setRefType(n.Expression, n.LibName, n.Name)
		return n

	case *model.ParameterRef:
		if p, ok := lw.params[n.Name]; ok {
			n.SetResultType(p.GetResultType())
		}
		return n

	case *model.OperandRef, *model.AliasRef:
		return n

	case *model.FunctionRef:
		for i, op := range n.Operands {
			n.Operands[i] = lw.lowerExpr(op)
		}
		return n

	case *model.List:
		var elemType types.IType = types.System(types.Any)
		for i, item := range n.List {
			n.List[i] = lw.lowerExpr(item)
			if i == 0 {
				elemType = n.List[i].GetResultType()
			}
		}
		n.SetResultType(&types.List{ElementType: elemType})
		return n

	case *model.Tuple:
		fields := map[string]types.IType{}
		for _, el := range n.Elements {
			el.Value = lw.lowerExpr(el.Value)
			fields[el.Name] = el.Value.GetResultType()
		}
		n.SetResultType(&types.Tuple{Elements: fields})
		return n

	case *model.Instance:
		for _, el := range n.Elements {
			el.Value = lw.lowerExpr(el.Value)
		}
		if n.ClassType != nil {
			n.SetResultType(n.ClassType)
		}
		return n

	case *model.Interval:
		n.Low = lw.lowerExpr(n.Low)
		n.High = lw.lowerExpr(n.High)
		pt := types.IType(types.System(types.Any))
		if n.Low != nil {
			pt = n.Low.GetResultType()
		}
		n.SetResultType(&types.Interval{PointType: pt})
		return n

	case *model.If:
		n.Condition = lw.lowerExpr(n.Condition)
		n.Then = lw.lowerExpr(n.Then)
		n.Else = lw.lowerExpr(n.Else)
		n.SetResultType(widen(n.Then.GetResultType(), n.Else.GetResultType()))
		return n

	case *model.Case:
		n.Comparand = lw.lowerExpr(n.Comparand)
		var result types.IType = types.System(types.Any)
		for i, item := range n.CaseItems {
			item.When = lw.lowerExpr(item.When)
			item.Then = lw.lowerExpr(item.Then)
			n.CaseItems[i] = item
			result = item.Then.GetResultType()
		}
		n.Else = lw.lowerExpr(n.Else)
		if n.Else != nil {
			result = widen(result, n.Else.GetResultType())
		}
		n.SetResultType(result)
		return n

	case *model.As:
		n.Operand = lw.lowerExpr(n.Operand)
		n.SetResultType(n.AsType)
		return n

	case *model.Is:
		n.Operand = lw.lowerExpr(n.Operand)
		n.SetResultType(types.System(types.Boolean))
		return n

	case *model.ToType:
		n.Operand = lw.lowerExpr(n.Operand)
		n.SetResultType(n.TargetType)
		return n

	case *model.Retrieve:
		return lw.lowerRetrieve(n)

	case *model.Query:
		return lw.lowerQuery(n)

	case *model.CodeLiteral, *model.CodeSystemRef, *model.ValuesetRef, *model.CodeRef, *model.ConceptRef:
		return e

	case unaryNode:
		n.SetOperand(lw.lowerExpr(n.GetOperand()))
		lw.inferUnaryType(n)
		return n

	case multiOperandNode:
		ops := n.GetOperands()
		for i, o := range ops {
			ops[i] = lw.lowerExpr(o)
		}
		n.SetOperands(ops)
		lw.inferMultiType(n)
		return n
	}
	return e
}

// resolveIdentifier turns a bare name into a ParameterRef/ExpressionRef/AliasRef/OperandRef,
// recording an UnresolvedReference diagnostic (and returning the original node, typed Any) if
// nothing binds it.
func (lw *Lowerer) resolveIdentifier(name string) model.IExpression {
	if p, ok := lw.params[name]; ok {
		r := &model.ParameterRef{Expression: model.NewExpression(), Name: name}
		r.SetResultType(p.GetResultType())
		return r
	}
	if d, err := lw.refs.ResolveLocal(name); err == nil {
		if d == nil {
			// a codesystem/valueset/code/concept name collision placeholder; treated as unresolved
			// for expression purposes since those are referenced via their own ref node types.
			lw.diags.add(UnresolvedReference, name, "")
			return &model.IdentifierRef{Expression: model.NewExpression(), Name: name}
		}
		if _, isAlias := d.(*aliasDef); isAlias {
			r := &model.AliasRef{Expression: model.NewExpression(), Name: name}
			r.SetResultType(d.GetResultType())
			return r
		}
		if ed, ok := d.(*model.ExpressionDef); ok {
			if ed.GetContext() != "" && ed.GetContext() != lw.currentCtx && ed.GetContext() != "Unfiltered" {
				lw.diags.add(ContextMismatch, name, fmt.Sprintf("defined in context %s, referenced from %s", ed.GetContext(), lw.currentCtx))
			}
		}
		r := &model.ExpressionRef{Expression: model.NewExpression(), Name: name}
		r.SetResultType(d.GetResultType())
		return r
	}
	lw.diags.add(UnresolvedReference, name, "")
	return &model.IdentifierRef{Expression: model.NewExpression(), Name: name}
}

func (lw *Lowerer) setRefType(e *model.Expression, libName, name string) {
	var d model.IExpressionDef
	var err error
	if libName != "" {
		d, err = lw.refs.ResolveGlobal(libName, name)
	} else {
		d, err = lw.refs.ResolveLocal(name)
	}
	if err != nil || d == nil {
		lw.diags.add(UnresolvedReference, name, err2str(err))
		return
	}
	e.SetResultType(d.GetResultType())
}

func err2str(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// lowerProperty turns a qualified reference parsed as `Property{Source: IdentifierRef(alias),
// Path: name}` into an ExpressionRef when alias names an included library, otherwise lowers it as
// a genuine navigation step (FHIR element access, left untyped - FHIR.* element types are not
// statically modeled per spec.md §1 Non-goals on full FHIR schema validation).
func (lw *Lowerer) lowerProperty(n *model.Property) model.IExpression {
	if id, ok := n.Source.(*model.IdentifierRef); ok {
		if _, _, ok := lw.refs.ResolveInclude(id.Name); ok {
			ref := &model.ExpressionRef{Expression: model.NewExpression(), Name: n.Path, LibName: id.Name}
			lw.setRefType(ref.Expression, ref.LibName, ref.Name)
			return ref
		}
	}
	n.Source = lw.lowerExpr(n.Source)
	n.SetResultType(types.System(types.Any))
	return n
}

func (lw *Lowerer) lowerRetrieve(n *model.Retrieve) model.IExpression {
	for _, cf := range n.CodeFilter {
		if cf.Code != nil {
			cf.Code = lw.lowerExpr(cf.Code)
		}
	}
	for _, df := range n.DateFilter {
		df.Range = lw.lowerExpr(df.Range)
	}
	n.SetResultType(&types.List{ElementType: &types.Named{Model: "FHIR", Name: n.DataType}})
	return n
}

func (lw *Lowerer) lowerQuery(n *model.Query) model.IExpression {
	lw.refs.EnterScope()
	defer lw.refs.ExitScope()

	var srcType types.IType = types.System(types.Any)
	for _, s := range n.Sources {
		s.Source = lw.lowerExpr(s.Source)
		srcType = types.Unwrap(s.Source.GetResultType())
		placeholder := &model.ExpressionDef{Element: &model.Element{ResultType: srcType}, Name: s.Alias}
		if err := lw.refs.Alias(s.Alias, placeholder); err != nil {
			lw.diags.add(DuplicateDefinition, s.Alias, err.Error())
		}
	}
	for _, lt := range n.Lets {
		lt.Expression = lw.lowerExpr(lt.Expression)
		placeholder := &model.ExpressionDef{Element: &model.Element{ResultType: lt.Expression.GetResultType()}, Name: lt.Identifier}
		if err := lw.refs.Alias(lt.Identifier, placeholder); err != nil {
			lw.diags.add(DuplicateDefinition, lt.Identifier, err.Error())
		}
	}
	for _, rel := range n.Relationships {
		switch r := rel.(type) {
		case *model.With:
			r.Source = lw.lowerExpr(r.Source)
			placeholder := &model.ExpressionDef{Element: &model.Element{ResultType: types.Unwrap(r.Source.GetResultType())}, Name: r.Alias}
			lw.refs.Alias(r.Alias, placeholder)
			r.SuchThat = lw.lowerExpr(r.SuchThat)
		case *model.Without:
			r.Source = lw.lowerExpr(r.Source)
			placeholder := &model.ExpressionDef{Element: &model.Element{ResultType: types.Unwrap(r.Source.GetResultType())}, Name: r.Alias}
			lw.refs.Alias(r.Alias, placeholder)
			r.SuchThat = lw.lowerExpr(r.SuchThat)
		}
	}
	n.Where = lw.lowerExpr(n.Where)

	resultType := srcType
	if n.Return != nil {
		n.Return.Expression = lw.lowerExpr(n.Return.Expression)
		resultType = n.Return.Expression.GetResultType()
	}
	if n.Aggregate != nil {
		n.Aggregate.Starting = lw.lowerExpr(n.Aggregate.Starting)
		placeholder := &model.ExpressionDef{Element: &model.Element{ResultType: n.Aggregate.Starting.GetResultType()}, Name: n.Aggregate.Identifier}
		lw.refs.Alias(n.Aggregate.Identifier, placeholder)
		n.Aggregate.Expression = lw.lowerExpr(n.Aggregate.Expression)
		n.SetResultType(n.Aggregate.Expression.GetResultType())
		return n
	}
	n.SetResultType(&types.List{ElementType: resultType})
	return n
}

// widen returns the least common supertype of a and b for if/case branch typing, falling back to
// Any when neither widens to the other.
func widen(a, b types.IType) types.IType {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Equal(b) {
		return a
	}
	if types.IsSubType(a, b) {
		return b
	}
	if types.IsSubType(b, a) {
		return a
	}
	return types.System(types.Any)
}
