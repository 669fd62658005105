package model

// CodeSystemRef references a CodeSystemDef (or an inline system URI) by name.
type CodeSystemRef struct {
	*Expression
	Name    string
	LibName string // qualifying include alias, empty for the local library
}

// ValuesetRef references a ValuesetDef by name.
type ValuesetRef struct {
	*Expression
	Name    string
	LibName string
}

// CodeRef references a CodeDef by name.
type CodeRef struct {
	*Expression
	Name    string
	LibName string
}

// ConceptRef references a ConceptDef by name.
type ConceptRef struct {
	*Expression
	Name    string
	LibName string
}

// CodeLiteral is an inline `Code 'code' from "system"` selector, as opposed to a CodeRef to a
// top-level CodeDef.
type CodeLiteral struct {
	*Expression
	System  *CodeSystemRef
	Code    string
	Display string
}

// InValueSet is `code in ValueSet` / `Concept in ValueSet` (Operands[0] is the code/concept,
// Operands[1] is the ValuesetRef).
type InValueSet struct{ *BinaryExpression }

// InCodeSystem is `code in CodeSystem`.
type InCodeSystem struct{ *BinaryExpression }

// AnyInValueSet is the list-valued form: `exists(codes) in ValueSet`-style membership test over a
// list<Code>/list<Concept>, used by the retrieve layer's code-filter matching.
type AnyInValueSet struct{ *BinaryExpression }

// Subsumes is `subsumes` (Operands[0] subsumes Operands[1]).
type Subsumes struct{ *BinaryExpression }

// SubsumedBy is `subsumed by`.
type SubsumedBy struct{ *BinaryExpression }
