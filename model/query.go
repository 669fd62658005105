package model

// AliasedSource is one `source alias` clause of a query (the primary source, or a `with`/
// `without` relationship source).
type AliasedSource struct {
	*Expression
	Source IExpression
	Alias  string
}

// LetClause is a query's `let name: expr` binding, evaluated once per iteration with `name`
// visible to every later clause.
type LetClause struct {
	Identifier string
	Expression IExpression
}

// RelationshipClause is the shared shape of `with`/`without`: an aliased source plus a `such
// that` condition referencing both the outer alias and this clause's alias.
type RelationshipClause struct {
	*AliasedSource
	SuchThat IExpression
}

// With is `with source alias such that condition` (keep rows where the condition matches at
// least one related row).
type With struct{ *RelationshipClause }

// Without is `without source alias such that condition` (keep rows where no related row
// matches).
type Without struct{ *RelationshipClause }

// SortDirection is `asc`/`desc` (defaulting to asc).
type SortDirection string

// Sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortByColumn sorts by a named Tuple element or, when Path is empty, by the row value itself.
type SortByColumn struct {
	Path      string
	Direction SortDirection
}

// SortClause is a query's `sort by col1 asc, col2 desc` clause.
type SortClause struct {
	ByItems []SortByColumn
}

// ReturnClause is a query's `return [all|distinct] expr` projection; Distinct defaults to true
// per CQL semantics (the default reduces to the set, not the bag) unless `all` was written.
type ReturnClause struct {
	Expression IExpression
	Distinct   bool
}

// AggregateClause is a query's `aggregate [all|distinct] identifier starting init: expr` clause,
// which folds the source into a single accumulated value named by Identifier.
type AggregateClause struct {
	Identifier string
	Starting   IExpression
	Expression IExpression
	Distinct   bool
}

// Query is the general CQL query pipeline: one primary source plus optional aliases, any number
// of with/without relationship clauses, a where predicate, an optional aggregate clause (mutually
// exclusive with return/sort), a let clause list, a return projection, and a sort clause. This is
// the node family `Where`/`Select`/`ForEach` lower into uniformly, matching how the teacher's
// `model.Query` subsumes FHIRPath's simpler single-source pipelines as a special case with one
// source and no relationship/let/aggregate clauses.
type Query struct {
	*Expression
	Sources       []*AliasedSource
	Lets          []*LetClause
	Relationships []IRelationshipClause
	Where         IExpression
	Return        *ReturnClause
	Aggregate     *AggregateClause
	Sort          *SortClause
}

// IRelationshipClause is implemented by With and Without.
type IRelationshipClause interface {
	clauseAlias() string
	clauseSuchThat() IExpression
}

func (w *With) clauseAlias() string           { return w.Alias }
func (w *With) clauseSuchThat() IExpression    { return w.SuchThat }
func (w *Without) clauseAlias() string        { return w.Alias }
func (w *Without) clauseSuchThat() IExpression { return w.SuchThat }

// CodeFilterElement is one `[Type: codeFilter]` code-filter clause: `path in ValueSet`/`path = Code`.
type CodeFilterElement struct {
	Path      string
	ValueSet  *ValuesetRef
	Code      IExpression
	CodeSystem *CodeSystemRef
}

// DateFilterElement is one `[Type: ... ] ... date range` clause: `path during Interval`.
type DateFilterElement struct {
	Path  string
	Range IExpression
}

// Retrieve is a `[ResourceType: codeFilter]` / `[ResourceType]` expression (C9). DataType is the
// FHIR resource type name; Template, when non-empty, is a named FHIR profile to additionally
// constrain to (not enforced by the retriever, which has no schema validation per spec.md §1
// Non-goals, but preserved for round-tripping ELM JSON).
type Retrieve struct {
	*Expression
	DataType    string
	Template    string
	CodeFilter  []*CodeFilterElement
	DateFilter  []*DateFilterElement
	Context     string
}
