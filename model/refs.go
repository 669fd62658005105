package model

import "github.com/clinical-elm/cql/types"

// ExpressionRef references a top-level `define` by name, resolved by internal/reference during
// lowering; LibName is the include alias for a qualified reference (`Alias.Name`), empty for the
// local library.
type ExpressionRef struct {
	*Expression
	Name    string
	LibName string
}

// ParameterRef references a top-level `parameter`.
type ParameterRef struct {
	*Expression
	Name string
}

// OperandRef references a FunctionDef operand from within its body.
type OperandRef struct {
	*Expression
	Name string
}

// IdentifierRef is an unresolved bare identifier as produced by the parser; C7 lowering replaces
// it with one of ExpressionRef/ParameterRef/OperandRef/Property/query alias reference once the
// symbol table resolves it, or leaves it (yielding UnresolvedReference) if it can't.
type IdentifierRef struct {
	*Expression
	Name string
}

// FunctionRef is a call to a FunctionDef (user-defined or system) by name; Operands holds the
// argument expressions. LibName qualifies a call into an included library.
type FunctionRef struct {
	*Expression
	Name     string
	LibName  string
	Operands []IExpression
}

// Property is a `.` path step: either a named element of Source (Property != ""), or a pass-
// through for FHIRPath's implicit context `Source.element`. Scope carries `$this`/`$index`/
// `$total` style special names the query machinery binds per spec.md §4.7.
type Property struct {
	*Expression
	Source IExpression
	Path   string
	Scope  string
}

// AliasRef resolves a `$this`/alias reference inside a query's where/select/sort/return
// expression to the current element bound by the nearest enclosing Query/ForEach frame.
type AliasRef struct {
	*Expression
	Name string
}

// Total references `$total` inside an aggregate clause accumulator expression.
type Total struct{ *Expression }

// Children lists every direct child element of a Resource value (FHIRPath `children()`).
type Children struct{ *UnaryExpression }

// DescendantsOf lists every element reachable from a Resource value (FHIRPath `descendants()`).
type DescendantsOf struct{ *UnaryExpression }

// Extension walks `extension[*]` filtering by url (FHIRPath `extension(url)`); url is a constant
// folded from the argument literal where possible, else Operands[1].
type Extension struct{ *BinaryExpression }

// Resolve follows a FHIR `Reference` element to the referenced resource via the retriever's
// ResolveReference.
type Resolve struct{ *UnaryExpression }

// OfType filters a collection (or tests a singleton) by a named/declared type.
type OfType struct {
	*UnaryExpression
	OfType types.IType
}
