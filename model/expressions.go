package model

import "github.com/clinical-elm/cql/types"

// UnaryExpression is the base for every one-operand node (Not, Exists, Negate, the To* type
// conversions, ...). The Name field is the ELM operator tag the interpreter dispatcher switches
// on alongside the concrete Go type, and is what diagnostics print.
type UnaryExpression struct {
	*Expression
	Name    string
	Operand IExpression
}

// GetName returns the ELM operator tag.
func (u *UnaryExpression) GetName() string { return u.Name }

// GetOperand returns the single operand. Promoted onto every concrete unary operator type so
// lowering/interpretation can recurse generically without a type switch per operator.
func (u *UnaryExpression) GetOperand() IExpression { return u.Operand }

// SetOperand replaces the operand, used by lowering to swap in a resolved/converted child.
func (u *UnaryExpression) SetOperand(e IExpression) { u.Operand = e }

// NewUnary builds a named unary node.
func NewUnary(name string, operand IExpression) *UnaryExpression {
	return &UnaryExpression{Expression: NewExpression(), Name: name, Operand: operand}
}

// BinaryExpression is the base for every two-operand node (arithmetic, comparison, collection
// set ops, ...).
type BinaryExpression struct {
	*Expression
	Name     string
	Operands []IExpression
}

// GetName returns the ELM operator tag.
func (b *BinaryExpression) GetName() string { return b.Name }

// Left returns the first operand, or nil.
func (b *BinaryExpression) Left() IExpression {
	if len(b.Operands) < 1 {
		return nil
	}
	return b.Operands[0]
}

// Right returns the second operand, or nil.
func (b *BinaryExpression) Right() IExpression {
	if len(b.Operands) < 2 {
		return nil
	}
	return b.Operands[1]
}

// GetOperands returns every operand. Promoted onto every concrete binary operator type.
func (b *BinaryExpression) GetOperands() []IExpression { return b.Operands }

// SetOperands replaces the operand list.
func (b *BinaryExpression) SetOperands(ops []IExpression) { b.Operands = ops }

// NewBinary builds a named binary node.
func NewBinary(name string, left, right IExpression) *BinaryExpression {
	return &BinaryExpression{Expression: NewExpression(), Name: name, Operands: []IExpression{left, right}}
}

// NaryExpression is the base for variable-arity nodes (Concatenate, Coalesce, the List
// constructor's element list already lives on List itself, MinValue/MaxValue take none).
type NaryExpression struct {
	*Expression
	Name     string
	Operands []IExpression
}

// GetName returns the ELM operator tag.
func (n *NaryExpression) GetName() string { return n.Name }

// GetOperands returns every operand. Promoted onto every concrete n-ary operator type.
func (n *NaryExpression) GetOperands() []IExpression { return n.Operands }

// SetOperands replaces the operand list.
func (n *NaryExpression) SetOperands(ops []IExpression) { n.Operands = ops }

// NewNary builds a named n-ary node.
func NewNary(name string, operands ...IExpression) *NaryExpression {
	return &NaryExpression{Expression: NewExpression(), Name: name, Operands: operands}
}

// Literal is a parsed scalar literal (Boolean/Integer/Long/Decimal/String); ResultType disambiguates
// which since Value is always the source-text spelling, parsed by the interpreter's literal.go
// against ResultType.
type Literal struct {
	*Expression
	Value string
}

// NewLiteral builds a Literal of static type t.
func NewLiteral(value string, t types.IType) *Literal {
	l := &Literal{Expression: NewExpression(), Value: value}
	l.SetResultType(t)
	return l
}

// Quantity is a `<number> '<unit>'` literal.
type Quantity struct {
	*Expression
	Value float64
	Unit  string
}

// Ratio is a `<quantity>:<quantity>` literal.
type Ratio struct {
	*Expression
	Numerator   Quantity
	Denominator Quantity
}

// List is a `{ a, b, c }` list constructor.
type List struct {
	*Expression
	List []IExpression
}

// TupleElement is one `name: value` pair inside a Tuple constructor.
type TupleElement struct {
	Name  string
	Value IExpression
}

// Tuple is a `Tuple { name: value, ... }` constructor.
type Tuple struct {
	*Expression
	Elements []*TupleElement
}

// InstanceElement is one `name: value` pair inside an Instance constructor.
type InstanceElement struct {
	Name  string
	Value IExpression
}

// Instance is a named-type structured-value constructor: `ClassType { name: value, ... }`.
type Instance struct {
	*Expression
	ClassType types.IType
	Elements  []*InstanceElement
}

// Interval is an `Interval[low, high]` / `Interval(low, high]` constructor. Either the Closed
// bool or the ClosedExpression may supply the open/closed flag for each endpoint.
type Interval struct {
	*Expression
	Low, High                       IExpression
	LowInclusive, HighInclusive     bool
	LowClosedExpression             IExpression
	HighClosedExpression            IExpression
}

// CaseItem is one `when cond then result` arm of a Case expression.
type CaseItem struct {
	When IExpression
	Then IExpression
}

// Case is a CQL `case ... when ... then ... else ... end` expression, or the comparand-led form
// (Comparand non-nil) `case x when v then ... else ... end`.
type Case struct {
	*Expression
	Comparand IExpression
	CaseItems []*CaseItem
	Else      IExpression
}

// If is an `if cond then then-branch else else-branch` expression.
type If struct {
	*Expression
	Condition IExpression
	Then      IExpression
	Else      IExpression
}

// As is a `expr as Type` / `cast expr as Type` type assertion. Strict distinguishes `as` (lenient,
// null on mismatch) from `cast as` (error on mismatch).
type As struct {
	*UnaryExpression
	AsType types.IType
	Strict bool
}

// Is is an `expr is Type` runtime type test.
type Is struct {
	*UnaryExpression
	IsType types.IType
}

// ToType is a CQL `ToX(expr)` / `convert expr to Type` conversion, e.g. ToInteger, ToDateTime.
type ToType struct {
	*UnaryExpression
	TargetType types.IType
}
