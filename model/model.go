// Package model is the shared tree produced by the parser (C6) and lowered by internal/lower
// (C7): every FHIRPath/CQL surface construct becomes one of these node types, and the interpreter
// (C8) walks the same tree as ELM. Mirrors the teacher's hand-rolled ELM-like model.go, trimmed to
// a Name-tagged operator family instead of one Go method per operator.
package model

import (
	"github.com/clinical-elm/cql/types"
	"github.com/kylelemons/godebug/pretty"
)

// IElement is implemented by every model node.
type IElement interface {
	GetResultType() types.IType
	SetResultType(types.IType)
}

// Element is the common base embedded by every node; it carries the static type assigned during
// lowering (C7 overload resolution).
type Element struct {
	ResultType types.IType
}

// GetResultType implements IElement.
func (e *Element) GetResultType() types.IType {
	if e == nil || e.ResultType == nil {
		return types.System(types.Unset)
	}
	return e.ResultType
}

// SetResultType implements IElement.
func (e *Element) SetResultType(t types.IType) { e.ResultType = t }

// IExpression is implemented by every expression node.
type IExpression interface {
	IElement
	isExpression()
}

// Expression is the base every expression node embeds.
type Expression struct {
	*Element
}

func (e *Expression) isExpression() {}

// NewExpression allocates an Expression with a fresh Element.
func NewExpression() *Expression { return &Expression{Element: &Element{}} }

// AccessLevel is a definition's visibility across an include graph.
type AccessLevel string

// Access levels.
const (
	Public  AccessLevel = "Public"
	Private AccessLevel = "Private"
)

// LibraryIdentifier names a compiled Library: (name, version). A nil identifier means unnamed.
type LibraryIdentifier struct {
	Local     string
	Qualified string
	Version   string
}

// Using records a `using Model version 'x'` declaration.
type Using struct {
	LocalIdentifier string
	URI             string
	Version         string
}

// Include records an `include Other version 'x' called alias` declaration.
type Include struct {
	Identifier *LibraryIdentifier
	Alias      string
}

// ParameterDef is a top-level `parameter` declaration.
type ParameterDef struct {
	*Element
	Name        string
	Default     IExpression
	AccessLevel AccessLevel
}

// CodeSystemDef is a `codesystem "name": 'id' version 'v'` declaration.
type CodeSystemDef struct {
	*Element
	Name        string
	ID          string
	Version     string
	AccessLevel AccessLevel
}

// ValuesetDef is a `valueset "name": 'id' version 'v'` declaration.
type ValuesetDef struct {
	*Element
	Name        string
	ID          string
	Version     string
	CodeSystems []*CodeSystemRef
	AccessLevel AccessLevel
}

// CodeDef is a `code "name": 'code' from "system" display 'd'` declaration.
type CodeDef struct {
	*Element
	Name        string
	Code        string
	CodeSystem  *CodeSystemRef
	Display     string
	AccessLevel AccessLevel
}

// ConceptDef is a `concept "name": { codes } display 'd'` declaration.
type ConceptDef struct {
	*Element
	Name        string
	Codes       []*CodeRef
	Display     string
	AccessLevel AccessLevel
}

// IExpressionDef is implemented by ExpressionDef and FunctionDef: anything the library manager
// resolves an ExpressionRef/FunctionRef against.
type IExpressionDef interface {
	IElement
	GetName() string
	GetContext() string
	GetExpression() IExpression
	GetAccessLevel() AccessLevel
}

// ExpressionDef is a top-level `define "Name": expr` statement.
type ExpressionDef struct {
	*Element
	Name        string
	Context     string
	Expression  IExpression
	AccessLevel AccessLevel
}

// GetName implements IExpressionDef.
func (e *ExpressionDef) GetName() string { return e.Name }

// GetContext implements IExpressionDef.
func (e *ExpressionDef) GetContext() string { return e.Context }

// GetExpression implements IExpressionDef.
func (e *ExpressionDef) GetExpression() IExpression { return e.Expression }

// GetAccessLevel implements IExpressionDef.
func (e *ExpressionDef) GetAccessLevel() AccessLevel { return e.AccessLevel }

// OperandDef is one named, typed parameter of a FunctionDef.
type OperandDef struct {
	Name string
	Type types.IType
}

// FunctionDef is a `define function "Name"(operands): body` statement.
type FunctionDef struct {
	*ExpressionDef
	Operands []OperandDef
	Fluent   bool
	External bool
}

// Statements holds every top-level define in source order; order matters only for diagnostics,
// since lowering resolves forward references via the symbol table (internal/reference).
type Statements struct {
	Defs []IExpressionDef
}

// Library is the immutable compiled artifact C7 produces and C12 caches. See spec.md §3
// "Library".
type Library struct {
	Identifier  *LibraryIdentifier
	Usings      []*Using
	Includes    []*Include
	Parameters  []*ParameterDef
	CodeSystems []*CodeSystemDef
	Valuesets   []*ValuesetDef
	Codes       []*CodeDef
	Concepts    []*ConceptDef
	Contexts    []string
	Statements  *Statements
}

// String renders l for debugging (log lines, test failure output), not for any wire format.
func (l *Library) String() string {
	return pretty.Sprint(l)
}

// DefByName looks up a top-level definition by name, or nil if absent.
func (l *Library) DefByName(name string) IExpressionDef {
	if l == nil || l.Statements == nil {
		return nil
	}
	for _, d := range l.Statements.Defs {
		if d.GetName() == name {
			return d
		}
	}
	return nil
}
