package librarymgr

import (
	"fmt"

	"github.com/clinical-elm/cql/model"
)

// unaryNode/multiOperandNode mirror interpreter/dispatcher.go's identical promoted-method
// interfaces; redefined here rather than imported so librarymgr has no dependency on the
// interpreter package for what is really a structural property of model's operator-alias types.
type unaryNode interface {
	model.IExpression
	GetName() string
	GetOperand() model.IExpression
}

type multiOperandNode interface {
	model.IExpression
	GetName() string
	GetOperands() []model.IExpression
}

// nodeJSON is the ELM JSON shape for one expression node (spec.md §6): a "type" discriminant plus
// whichever of the fields below that node kind uses. One flattened struct -- rather than one Go
// type per ELM node shape -- keeps the ~115 concrete operator aliases (model/operators.go) to a
// pair of name-keyed construction tables instead of a construction type per type.
type elemJSON struct {
	Name  string    `json:"name,omitempty"`
	Value *nodeJSON `json:"value"`
}

type caseItemJSON struct {
	When *nodeJSON `json:"when"`
	Then *nodeJSON `json:"then"`
}

type codeFilterJSON struct {
	Path       string    `json:"path"`
	ValueSet   *nodeJSON `json:"valueSet,omitempty"`
	Code       *nodeJSON `json:"code,omitempty"`
	CodeSystem *nodeJSON `json:"codeSystem,omitempty"`
}

type dateFilterJSON struct {
	Path  string    `json:"path"`
	Range *nodeJSON `json:"range"`
}

type aliasedSourceJSON struct {
	Source *nodeJSON `json:"source"`
	Alias  string    `json:"alias"`
}

type letJSON struct {
	Identifier string    `json:"identifier"`
	Expression *nodeJSON `json:"expression"`
}

type relationshipJSON struct {
	Kind     string            `json:"kind"` // "with" / "without"
	Source   aliasedSourceJSON `json:"source"`
	SuchThat *nodeJSON         `json:"suchThat"`
}

type sortByJSON struct {
	Path      string `json:"path,omitempty"`
	Direction string `json:"direction"`
}

type returnJSON struct {
	Expression *nodeJSON `json:"expression"`
	Distinct   bool      `json:"distinct"`
}

type aggregateJSON struct {
	Identifier string    `json:"identifier"`
	Starting   *nodeJSON `json:"starting,omitempty"`
	Expression *nodeJSON `json:"expression"`
	Distinct   bool      `json:"distinct"`
}

type nodeJSON struct {
	Type string `json:"type"`

	Value     any           `json:"value,omitempty"`
	ValueType *typeSpecJSON `json:"valueType,omitempty"`
	Unit      string        `json:"unit,omitempty"`

	Numerator   *nodeJSON `json:"numerator,omitempty"`
	Denominator *nodeJSON `json:"denominator,omitempty"`

	Element   []elemJSON    `json:"element,omitempty"`
	ClassType *typeSpecJSON `json:"classType,omitempty"`

	Operand []*nodeJSON `json:"operand,omitempty"`

	Low                   *nodeJSON `json:"low,omitempty"`
	High                  *nodeJSON `json:"high,omitempty"`
	LowClosed             bool      `json:"lowClosed,omitempty"`
	HighClosed            bool      `json:"highClosed,omitempty"`
	LowClosedExpression   *nodeJSON `json:"lowClosedExpression,omitempty"`
	HighClosedExpression  *nodeJSON `json:"highClosedExpression,omitempty"`

	Condition *nodeJSON      `json:"condition,omitempty"`
	Then      *nodeJSON      `json:"then,omitempty"`
	Else      *nodeJSON      `json:"else,omitempty"`
	CaseItem  []caseItemJSON `json:"caseItem,omitempty"`
	Comparand *nodeJSON      `json:"comparand,omitempty"`

	AsType     *typeSpecJSON `json:"asType,omitempty"`
	IsType     *typeSpecJSON `json:"isType,omitempty"`
	TargetType *typeSpecJSON `json:"targetType,omitempty"`
	OfTypeSpec *typeSpecJSON `json:"ofType,omitempty"`
	Strict     bool          `json:"strict,omitempty"`
	TargetName string        `json:"targetName,omitempty"`
	Precision  string        `json:"precision,omitempty"`

	Name        string    `json:"name,omitempty"`
	LibraryName string    `json:"libraryName,omitempty"`
	Scope       string    `json:"scope,omitempty"`
	Path        string    `json:"path,omitempty"`
	Source      *nodeJSON `json:"source,omitempty"`
	System      *nodeJSON `json:"system,omitempty"`
	Code        string    `json:"code,omitempty"`
	Display     string    `json:"display,omitempty"`

	DataType   string           `json:"dataType,omitempty"`
	Template   string           `json:"template,omitempty"`
	CodeFilter []codeFilterJSON `json:"codeFilter,omitempty"`
	DateFilter []dateFilterJSON `json:"dateFilter,omitempty"`
	Context    string           `json:"context,omitempty"`

	QuerySource  []aliasedSourceJSON `json:"querySource,omitempty"`
	Let          []letJSON           `json:"let,omitempty"`
	Relationship []relationshipJSON  `json:"relationship,omitempty"`
	Where        *nodeJSON           `json:"where,omitempty"`
	Return       *returnJSON         `json:"return,omitempty"`
	Aggregate    *aggregateJSON      `json:"aggregate,omitempty"`
	Sort         []sortByJSON        `json:"sort,omitempty"`
}

// unaryCtors/binaryCtors/naryCtors/intervalOpCtors are the name-keyed load-side construction
// tables for every concrete operator-alias type in model/operators.go, model/refs.go and
// model/interval.go that carries no field beyond its embedded base -- mirroring
// interpreter/dispatcher.go's registerUnary/registerMulti registry idiom, but building a Go type
// instead of dispatching to an evaluator func.
var unaryCtors = map[string]func(*model.UnaryExpression) model.IExpression{
	"Negate":             func(u *model.UnaryExpression) model.IExpression { return &model.Negate{UnaryExpression: u} },
	"Abs":                func(u *model.UnaryExpression) model.IExpression { return &model.Abs{UnaryExpression: u} },
	"Ceiling":            func(u *model.UnaryExpression) model.IExpression { return &model.Ceiling{UnaryExpression: u} },
	"Floor":              func(u *model.UnaryExpression) model.IExpression { return &model.Floor{UnaryExpression: u} },
	"Truncate":           func(u *model.UnaryExpression) model.IExpression { return &model.Truncate{UnaryExpression: u} },
	"Sqrt":               func(u *model.UnaryExpression) model.IExpression { return &model.Sqrt{UnaryExpression: u} },
	"Ln":                 func(u *model.UnaryExpression) model.IExpression { return &model.Ln{UnaryExpression: u} },
	"Exp":                func(u *model.UnaryExpression) model.IExpression { return &model.Exp{UnaryExpression: u} },
	"Predecessor":        func(u *model.UnaryExpression) model.IExpression { return &model.Predecessor{UnaryExpression: u} },
	"Successor":          func(u *model.UnaryExpression) model.IExpression { return &model.Successor{UnaryExpression: u} },
	"MinValue":           func(u *model.UnaryExpression) model.IExpression { return &model.MinValue{UnaryExpression: u} },
	"MaxValue":           func(u *model.UnaryExpression) model.IExpression { return &model.MaxValue{UnaryExpression: u} },
	"Not":                func(u *model.UnaryExpression) model.IExpression { return &model.Not{UnaryExpression: u} },
	"IsNull":             func(u *model.UnaryExpression) model.IExpression { return &model.IsNull{UnaryExpression: u} },
	"IsTrue":             func(u *model.UnaryExpression) model.IExpression { return &model.IsTrue{UnaryExpression: u} },
	"IsFalse":            func(u *model.UnaryExpression) model.IExpression { return &model.IsFalse{UnaryExpression: u} },
	"Length":             func(u *model.UnaryExpression) model.IExpression { return &model.Length{UnaryExpression: u} },
	"Upper":              func(u *model.UnaryExpression) model.IExpression { return &model.Upper{UnaryExpression: u} },
	"Lower":              func(u *model.UnaryExpression) model.IExpression { return &model.Lower{UnaryExpression: u} },
	"Trim":               func(u *model.UnaryExpression) model.IExpression { return &model.Trim{UnaryExpression: u} },
	"ToChars":            func(u *model.UnaryExpression) model.IExpression { return &model.ToChars{UnaryExpression: u} },
	"ListExists":         func(u *model.UnaryExpression) model.IExpression { return &model.ListExists{UnaryExpression: u} },
	"First":              func(u *model.UnaryExpression) model.IExpression { return &model.First{UnaryExpression: u} },
	"Last":               func(u *model.UnaryExpression) model.IExpression { return &model.Last{UnaryExpression: u} },
	"Tail":               func(u *model.UnaryExpression) model.IExpression { return &model.Tail{UnaryExpression: u} },
	"SingletonFrom":      func(u *model.UnaryExpression) model.IExpression { return &model.SingletonFrom{UnaryExpression: u} },
	"Distinct":           func(u *model.UnaryExpression) model.IExpression { return &model.Distinct{UnaryExpression: u} },
	"Flatten":            func(u *model.UnaryExpression) model.IExpression { return &model.Flatten{UnaryExpression: u} },
	"IsDistinct":         func(u *model.UnaryExpression) model.IExpression { return &model.IsDistinct{UnaryExpression: u} },
	"Count":              func(u *model.UnaryExpression) model.IExpression { return &model.Count{UnaryExpression: u} },
	"Sum":                func(u *model.UnaryExpression) model.IExpression { return &model.Sum{UnaryExpression: u} },
	"Avg":                func(u *model.UnaryExpression) model.IExpression { return &model.Avg{UnaryExpression: u} },
	"Min":                func(u *model.UnaryExpression) model.IExpression { return &model.Min{UnaryExpression: u} },
	"Max":                func(u *model.UnaryExpression) model.IExpression { return &model.Max{UnaryExpression: u} },
	"Median":             func(u *model.UnaryExpression) model.IExpression { return &model.Median{UnaryExpression: u} },
	"Mode":               func(u *model.UnaryExpression) model.IExpression { return &model.Mode{UnaryExpression: u} },
	"StdDev":             func(u *model.UnaryExpression) model.IExpression { return &model.StdDev{UnaryExpression: u} },
	"Variance":           func(u *model.UnaryExpression) model.IExpression { return &model.Variance{UnaryExpression: u} },
	"PopulationStdDev":   func(u *model.UnaryExpression) model.IExpression { return &model.PopulationStdDev{UnaryExpression: u} },
	"PopulationVariance": func(u *model.UnaryExpression) model.IExpression { return &model.PopulationVariance{UnaryExpression: u} },
	"GeometricMean":      func(u *model.UnaryExpression) model.IExpression { return &model.GeometricMean{UnaryExpression: u} },
	"Product":            func(u *model.UnaryExpression) model.IExpression { return &model.Product{UnaryExpression: u} },
	"AllTrue":            func(u *model.UnaryExpression) model.IExpression { return &model.AllTrue{UnaryExpression: u} },
	"AnyTrue":            func(u *model.UnaryExpression) model.IExpression { return &model.AnyTrue{UnaryExpression: u} },
	"Children":           func(u *model.UnaryExpression) model.IExpression { return &model.Children{UnaryExpression: u} },
	"DescendantsOf":      func(u *model.UnaryExpression) model.IExpression { return &model.DescendantsOf{UnaryExpression: u} },
	"Resolve":            func(u *model.UnaryExpression) model.IExpression { return &model.Resolve{UnaryExpression: u} },
	"Width":              func(u *model.UnaryExpression) model.IExpression { return &model.Width{UnaryExpression: u} },
	"Start":              func(u *model.UnaryExpression) model.IExpression { return &model.Start{UnaryExpression: u} },
	"End":                func(u *model.UnaryExpression) model.IExpression { return &model.End{UnaryExpression: u} },
	"PointFrom":          func(u *model.UnaryExpression) model.IExpression { return &model.PointFrom{UnaryExpression: u} },
	"DateFrom":           func(u *model.UnaryExpression) model.IExpression { return &model.DateFrom{UnaryExpression: u} },
	"TimeFrom":           func(u *model.UnaryExpression) model.IExpression { return &model.TimeFrom{UnaryExpression: u} },
}

var binaryCtors = map[string]func(*model.BinaryExpression) model.IExpression{
	"Add":                func(b *model.BinaryExpression) model.IExpression { return &model.Add{BinaryExpression: b} },
	"Subtract":           func(b *model.BinaryExpression) model.IExpression { return &model.Subtract{BinaryExpression: b} },
	"Multiply":           func(b *model.BinaryExpression) model.IExpression { return &model.Multiply{BinaryExpression: b} },
	"Divide":             func(b *model.BinaryExpression) model.IExpression { return &model.Divide{BinaryExpression: b} },
	"TruncatedDivide":    func(b *model.BinaryExpression) model.IExpression { return &model.TruncatedDivide{BinaryExpression: b} },
	"Modulo":             func(b *model.BinaryExpression) model.IExpression { return &model.Modulo{BinaryExpression: b} },
	"Power":              func(b *model.BinaryExpression) model.IExpression { return &model.Power{BinaryExpression: b} },
	"Log":                func(b *model.BinaryExpression) model.IExpression { return &model.Log{BinaryExpression: b} },
	"Equal":              func(b *model.BinaryExpression) model.IExpression { return &model.Equal{BinaryExpression: b} },
	"NotEqual":           func(b *model.BinaryExpression) model.IExpression { return &model.NotEqual{BinaryExpression: b} },
	"Equivalent":         func(b *model.BinaryExpression) model.IExpression { return &model.Equivalent{BinaryExpression: b} },
	"NotEquivalent":      func(b *model.BinaryExpression) model.IExpression { return &model.NotEquivalent{BinaryExpression: b} },
	"Less":               func(b *model.BinaryExpression) model.IExpression { return &model.Less{BinaryExpression: b} },
	"Greater":            func(b *model.BinaryExpression) model.IExpression { return &model.Greater{BinaryExpression: b} },
	"LessOrEqual":        func(b *model.BinaryExpression) model.IExpression { return &model.LessOrEqual{BinaryExpression: b} },
	"GreaterOrEqual":     func(b *model.BinaryExpression) model.IExpression { return &model.GreaterOrEqual{BinaryExpression: b} },
	"And":                func(b *model.BinaryExpression) model.IExpression { return &model.And{BinaryExpression: b} },
	"Or":                 func(b *model.BinaryExpression) model.IExpression { return &model.Or{BinaryExpression: b} },
	"Xor":                func(b *model.BinaryExpression) model.IExpression { return &model.Xor{BinaryExpression: b} },
	"Implies":            func(b *model.BinaryExpression) model.IExpression { return &model.Implies{BinaryExpression: b} },
	"StartsWith":         func(b *model.BinaryExpression) model.IExpression { return &model.StartsWith{BinaryExpression: b} },
	"EndsWith":           func(b *model.BinaryExpression) model.IExpression { return &model.EndsWith{BinaryExpression: b} },
	"StringContains":     func(b *model.BinaryExpression) model.IExpression { return &model.StringContains{BinaryExpression: b} },
	"Matches":            func(b *model.BinaryExpression) model.IExpression { return &model.Matches{BinaryExpression: b} },
	"Split":              func(b *model.BinaryExpression) model.IExpression { return &model.Split{BinaryExpression: b} },
	"Join":               func(b *model.BinaryExpression) model.IExpression { return &model.Join{BinaryExpression: b} },
	"Indexer":            func(b *model.BinaryExpression) model.IExpression { return &model.Indexer{BinaryExpression: b} },
	"IndexOf":            func(b *model.BinaryExpression) model.IExpression { return &model.IndexOf{BinaryExpression: b} },
	"Skip":               func(b *model.BinaryExpression) model.IExpression { return &model.Skip{BinaryExpression: b} },
	"Take":               func(b *model.BinaryExpression) model.IExpression { return &model.Take{BinaryExpression: b} },
	"Union":              func(b *model.BinaryExpression) model.IExpression { return &model.Union{BinaryExpression: b} },
	"Intersect":          func(b *model.BinaryExpression) model.IExpression { return &model.Intersect{BinaryExpression: b} },
	"Except":             func(b *model.BinaryExpression) model.IExpression { return &model.Except{BinaryExpression: b} },
	"In":                 func(b *model.BinaryExpression) model.IExpression { return &model.In{BinaryExpression: b} },
	"Contains":           func(b *model.BinaryExpression) model.IExpression { return &model.Contains{BinaryExpression: b} },
	"SubsetOf":           func(b *model.BinaryExpression) model.IExpression { return &model.SubsetOf{BinaryExpression: b} },
	"SupersetOf":         func(b *model.BinaryExpression) model.IExpression { return &model.SupersetOf{BinaryExpression: b} },
	"ProperIn":           func(b *model.BinaryExpression) model.IExpression { return &model.ProperIn{BinaryExpression: b} },
	"ProperContains":     func(b *model.BinaryExpression) model.IExpression { return &model.ProperContains{BinaryExpression: b} },
	"ConvertQuantity":    func(b *model.BinaryExpression) model.IExpression { return &model.ConvertQuantity{BinaryExpression: b} },
	"CanConvertQuantity": func(b *model.BinaryExpression) model.IExpression { return &model.CanConvertQuantity{BinaryExpression: b} },
	"InValueSet":         func(b *model.BinaryExpression) model.IExpression { return &model.InValueSet{BinaryExpression: b} },
	"InCodeSystem":       func(b *model.BinaryExpression) model.IExpression { return &model.InCodeSystem{BinaryExpression: b} },
	"AnyInValueSet":      func(b *model.BinaryExpression) model.IExpression { return &model.AnyInValueSet{BinaryExpression: b} },
	"Subsumes":           func(b *model.BinaryExpression) model.IExpression { return &model.Subsumes{BinaryExpression: b} },
	"SubsumedBy":         func(b *model.BinaryExpression) model.IExpression { return &model.SubsumedBy{BinaryExpression: b} },
	"Extension":          func(b *model.BinaryExpression) model.IExpression { return &model.Extension{BinaryExpression: b} },
	"Collapse":           func(b *model.BinaryExpression) model.IExpression { return &model.Collapse{BinaryExpression: b} },
	"Expand":             func(b *model.BinaryExpression) model.IExpression { return &model.Expand{BinaryExpression: b} },
}

var naryCtors = map[string]func(*model.NaryExpression) model.IExpression{
	"Round":          func(n *model.NaryExpression) model.IExpression { return &model.Round{NaryExpression: n} },
	"Coalesce":       func(n *model.NaryExpression) model.IExpression { return &model.Coalesce{NaryExpression: n} },
	"Concatenate":    func(n *model.NaryExpression) model.IExpression { return &model.Concatenate{NaryExpression: n} },
	"ReplaceMatches": func(n *model.NaryExpression) model.IExpression { return &model.ReplaceMatches{NaryExpression: n} },
	"Substring":      func(n *model.NaryExpression) model.IExpression { return &model.Substring{NaryExpression: n} },
	"Combine":        func(n *model.NaryExpression) model.IExpression { return &model.Combine{NaryExpression: n} },
	"Slice":          func(n *model.NaryExpression) model.IExpression { return &model.Slice{NaryExpression: n} },
}

var intervalOpCtors = map[string]func(*model.IntervalOp) model.IExpression{
	"Before":            func(i *model.IntervalOp) model.IExpression { return &model.Before{IntervalOp: i} },
	"After":             func(i *model.IntervalOp) model.IExpression { return &model.After{IntervalOp: i} },
	"SameOrBefore":      func(i *model.IntervalOp) model.IExpression { return &model.SameOrBefore{IntervalOp: i} },
	"SameOrAfter":       func(i *model.IntervalOp) model.IExpression { return &model.SameOrAfter{IntervalOp: i} },
	"Meets":             func(i *model.IntervalOp) model.IExpression { return &model.Meets{IntervalOp: i} },
	"MeetsBefore":       func(i *model.IntervalOp) model.IExpression { return &model.MeetsBefore{IntervalOp: i} },
	"MeetsAfter":        func(i *model.IntervalOp) model.IExpression { return &model.MeetsAfter{IntervalOp: i} },
	"Overlaps":          func(i *model.IntervalOp) model.IExpression { return &model.Overlaps{IntervalOp: i} },
	"OverlapsBefore":    func(i *model.IntervalOp) model.IExpression { return &model.OverlapsBefore{IntervalOp: i} },
	"OverlapsAfter":     func(i *model.IntervalOp) model.IExpression { return &model.OverlapsAfter{IntervalOp: i} },
	"Starts":            func(i *model.IntervalOp) model.IExpression { return &model.Starts{IntervalOp: i} },
	"Ends":              func(i *model.IntervalOp) model.IExpression { return &model.Ends{IntervalOp: i} },
	"During":            func(i *model.IntervalOp) model.IExpression { return &model.During{IntervalOp: i} },
	"IncludedIn":        func(i *model.IntervalOp) model.IExpression { return &model.IncludedIn{IntervalOp: i} },
	"Includes":          func(i *model.IntervalOp) model.IExpression { return &model.Includes{IntervalOp: i} },
	"DifferenceBetween": func(i *model.IntervalOp) model.IExpression { return &model.DifferenceBetween{IntervalOp: i} },
	"DurationBetween":   func(i *model.IntervalOp) model.IExpression { return &model.DurationBetween{IntervalOp: i} },
}

// asIntervalOp extracts the embedded *model.IntervalOp from any of the 17 Allen-relation/temporal
// types above, for the emit side's generic fallback; there is no shared accessor method since
// IntervalOp itself carries no interface beyond what BinaryExpression already promotes.
func asIntervalOp(e model.IExpression) (*model.IntervalOp, bool) {
	switch n := e.(type) {
	case *model.Before:
		return n.IntervalOp, true
	case *model.After:
		return n.IntervalOp, true
	case *model.SameOrBefore:
		return n.IntervalOp, true
	case *model.SameOrAfter:
		return n.IntervalOp, true
	case *model.Meets:
		return n.IntervalOp, true
	case *model.MeetsBefore:
		return n.IntervalOp, true
	case *model.MeetsAfter:
		return n.IntervalOp, true
	case *model.Overlaps:
		return n.IntervalOp, true
	case *model.OverlapsBefore:
		return n.IntervalOp, true
	case *model.OverlapsAfter:
		return n.IntervalOp, true
	case *model.Starts:
		return n.IntervalOp, true
	case *model.Ends:
		return n.IntervalOp, true
	case *model.During:
		return n.IntervalOp, true
	case *model.IncludedIn:
		return n.IntervalOp, true
	case *model.Includes:
		return n.IntervalOp, true
	case *model.DifferenceBetween:
		return n.IntervalOp, true
	case *model.DurationBetween:
		return n.IntervalOp, true
	}
	return nil, false
}

func oneOperand(n *nodeJSON) []*nodeJSON {
	if n == nil {
		return nil
	}
	return []*nodeJSON{n}
}

func nodeList(es []model.IExpression) []*nodeJSON {
	out := make([]*nodeJSON, len(es))
	for i, e := range es {
		out[i] = modelToNode(e)
	}
	return out
}

func quantityToNode(q model.Quantity) *nodeJSON {
	return &nodeJSON{Type: "Quantity", Value: q.Value, Unit: q.Unit}
}

func csRefNode(r *model.CodeSystemRef) *nodeJSON {
	if r == nil {
		return nil
	}
	return modelToNode(r)
}

func vsRefNode(r *model.ValuesetRef) *nodeJSON {
	if r == nil {
		return nil
	}
	return modelToNode(r)
}

func codeRefNode(r *model.CodeRef) *nodeJSON {
	if r == nil {
		return nil
	}
	return modelToNode(r)
}

// modelToNode converts one expression node to its ELM JSON form. Special-field node kinds (As,
// Is, ToType, ConvertsTo, OfType, the clinical/temporal precision family, refs, Query, Retrieve)
// are handled explicitly; every other operator-alias type falls through to the generic
// unaryNode/multiOperandNode path plus the IntervalOp family's precision-carrying path.
func modelToNode(e model.IExpression) *nodeJSON {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *model.Literal:
		return &nodeJSON{Type: "Literal", Value: n.Value, ValueType: marshalType(n.GetResultType())}
	case *model.Quantity:
		return quantityToNode(*n)
	case *model.Ratio:
		return &nodeJSON{Type: "Ratio", Numerator: quantityToNode(n.Numerator), Denominator: quantityToNode(n.Denominator)}
	case *model.List:
		elems := make([]elemJSON, len(n.List))
		for i, it := range n.List {
			elems[i] = elemJSON{Value: modelToNode(it)}
		}
		return &nodeJSON{Type: "List", Element: elems}
	case *model.Tuple:
		elems := make([]elemJSON, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = elemJSON{Name: el.Name, Value: modelToNode(el.Value)}
		}
		return &nodeJSON{Type: "Tuple", Element: elems}
	case *model.Instance:
		elems := make([]elemJSON, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = elemJSON{Name: el.Name, Value: modelToNode(el.Value)}
		}
		return &nodeJSON{Type: "Instance", ClassType: marshalType(n.ClassType), Element: elems}
	case *model.Interval:
		return &nodeJSON{
			Type: "Interval", Low: modelToNode(n.Low), High: modelToNode(n.High),
			LowClosed: n.LowInclusive, HighClosed: n.HighInclusive,
			LowClosedExpression: modelToNode(n.LowClosedExpression), HighClosedExpression: modelToNode(n.HighClosedExpression),
		}
	case *model.If:
		return &nodeJSON{Type: "If", Condition: modelToNode(n.Condition), Then: modelToNode(n.Then), Else: modelToNode(n.Else)}
	case *model.Case:
		items := make([]caseItemJSON, len(n.CaseItems))
		for i, it := range n.CaseItems {
			items[i] = caseItemJSON{When: modelToNode(it.When), Then: modelToNode(it.Then)}
		}
		return &nodeJSON{Type: "Case", Comparand: modelToNode(n.Comparand), CaseItem: items, Else: modelToNode(n.Else)}
	case *model.As:
		return &nodeJSON{Type: "As", Operand: oneOperand(modelToNode(n.Operand)), AsType: marshalType(n.AsType), Strict: n.Strict}
	case *model.Is:
		return &nodeJSON{Type: "Is", Operand: oneOperand(modelToNode(n.Operand)), IsType: marshalType(n.IsType)}
	case *model.ToType:
		return &nodeJSON{Type: "ToType", Operand: oneOperand(modelToNode(n.Operand)), TargetType: marshalType(n.TargetType)}
	case *model.ConvertsTo:
		return &nodeJSON{Type: "ConvertsTo", Operand: oneOperand(modelToNode(n.Operand)), TargetName: n.TargetName}
	case *model.OfType:
		return &nodeJSON{Type: "OfType", Operand: oneOperand(modelToNode(n.Operand)), OfTypeSpec: marshalType(n.OfType)}
	case *model.DateTimeComponentFrom:
		return &nodeJSON{Type: "DateTimeComponentFrom", Operand: oneOperand(modelToNode(n.Operand)), Precision: string(n.Precision)}
	case *model.CalculateAge:
		return &nodeJSON{Type: "CalculateAge", Operand: oneOperand(modelToNode(n.Operand)), Precision: string(n.Precision)}
	case *model.CalculateAgeAt:
		return &nodeJSON{Type: "CalculateAgeAt", Operand: nodeList(n.Operands), Precision: string(n.Precision)}
	case *model.ExpressionRef:
		return &nodeJSON{Type: "ExpressionRef", Name: n.Name, LibraryName: n.LibName}
	case *model.ParameterRef:
		return &nodeJSON{Type: "ParameterRef", Name: n.Name}
	case *model.OperandRef:
		return &nodeJSON{Type: "OperandRef", Name: n.Name}
	case *model.AliasRef:
		return &nodeJSON{Type: "AliasRef", Name: n.Name}
	case *model.IdentifierRef:
		return &nodeJSON{Type: "IdentifierRef", Name: n.Name}
	case *model.FunctionRef:
		return &nodeJSON{Type: "FunctionRef", Name: n.Name, LibraryName: n.LibName, Operand: nodeList(n.Operands)}
	case *model.Property:
		return &nodeJSON{Type: "Property", Source: modelToNode(n.Source), Path: n.Path, Scope: n.Scope}
	case *model.CodeLiteral:
		return &nodeJSON{Type: "CodeLiteral", System: csRefNode(n.System), Code: n.Code, Display: n.Display}
	case *model.CodeSystemRef:
		return &nodeJSON{Type: "CodeSystemRef", Name: n.Name, LibraryName: n.LibName}
	case *model.ValuesetRef:
		return &nodeJSON{Type: "ValuesetRef", Name: n.Name, LibraryName: n.LibName}
	case *model.CodeRef:
		return &nodeJSON{Type: "CodeRef", Name: n.Name, LibraryName: n.LibName}
	case *model.ConceptRef:
		return &nodeJSON{Type: "ConceptRef", Name: n.Name, LibraryName: n.LibName}
	case *model.Total:
		return &nodeJSON{Type: "Total"}
	case *model.Today:
		return &nodeJSON{Type: "Today"}
	case *model.Now:
		return &nodeJSON{Type: "Now"}
	case *model.TimeOfDay:
		return &nodeJSON{Type: "TimeOfDay"}
	case *model.AgeInYears:
		return &nodeJSON{Type: "AgeInYears"}
	case *model.AgeInMonths:
		return &nodeJSON{Type: "AgeInMonths"}
	case *model.AgeInDays:
		return &nodeJSON{Type: "AgeInDays"}
	case *model.Retrieve:
		return retrieveToNode(n)
	case *model.Query:
		return queryToNode(n)
	}

	if iv, ok := asIntervalOp(e); ok {
		return &nodeJSON{Type: iv.GetName(), Operand: nodeList(iv.GetOperands()), Precision: string(iv.Precision)}
	}
	if u, ok := e.(unaryNode); ok {
		return &nodeJSON{Type: u.GetName(), Operand: oneOperand(modelToNode(u.GetOperand()))}
	}
	if m, ok := e.(multiOperandNode); ok {
		return &nodeJSON{Type: m.GetName(), Operand: nodeList(m.GetOperands())}
	}
	return &nodeJSON{Type: fmt.Sprintf("%T", e)}
}

func singleOperand(n *nodeJSON) model.IExpression {
	if n == nil || len(n.Operand) == 0 {
		return nil
	}
	return nodeToModel(n.Operand[0])
}

func operandList(n *nodeJSON) []model.IExpression {
	if n == nil {
		return nil
	}
	out := make([]model.IExpression, len(n.Operand))
	for i, o := range n.Operand {
		out[i] = nodeToModel(o)
	}
	return out
}

func at(es []model.IExpression, i int) model.IExpression {
	if i < 0 || i >= len(es) {
		return nil
	}
	return es[i]
}

func nodeToQuantity(n *nodeJSON) model.Quantity {
	if n == nil {
		return model.Quantity{Expression: model.NewExpression()}
	}
	f, _ := n.Value.(float64)
	return model.Quantity{Expression: model.NewExpression(), Value: f, Unit: n.Unit}
}

// nodeToModel is modelToNode's inverse.
func nodeToModel(n *nodeJSON) model.IExpression {
	if n == nil {
		return nil
	}
	switch n.Type {
	case "Literal":
		s, _ := n.Value.(string)
		return model.NewLiteral(s, unmarshalType(n.ValueType))
	case "Quantity":
		f, _ := n.Value.(float64)
		return &model.Quantity{Expression: model.NewExpression(), Value: f, Unit: n.Unit}
	case "Ratio":
		return &model.Ratio{Expression: model.NewExpression(), Numerator: nodeToQuantity(n.Numerator), Denominator: nodeToQuantity(n.Denominator)}
	case "List":
		items := make([]model.IExpression, len(n.Element))
		for i, el := range n.Element {
			items[i] = nodeToModel(el.Value)
		}
		return &model.List{Expression: model.NewExpression(), List: items}
	case "Tuple":
		elems := make([]*model.TupleElement, len(n.Element))
		for i, el := range n.Element {
			elems[i] = &model.TupleElement{Name: el.Name, Value: nodeToModel(el.Value)}
		}
		return &model.Tuple{Expression: model.NewExpression(), Elements: elems}
	case "Instance":
		elems := make([]*model.InstanceElement, len(n.Element))
		for i, el := range n.Element {
			elems[i] = &model.InstanceElement{Name: el.Name, Value: nodeToModel(el.Value)}
		}
		return &model.Instance{Expression: model.NewExpression(), ClassType: unmarshalType(n.ClassType), Elements: elems}
	case "Interval":
		return &model.Interval{
			Expression: model.NewExpression(), Low: nodeToModel(n.Low), High: nodeToModel(n.High),
			LowInclusive: n.LowClosed, HighInclusive: n.HighClosed,
			LowClosedExpression: nodeToModel(n.LowClosedExpression), HighClosedExpression: nodeToModel(n.HighClosedExpression),
		}
	case "If":
		return &model.If{Expression: model.NewExpression(), Condition: nodeToModel(n.Condition), Then: nodeToModel(n.Then), Else: nodeToModel(n.Else)}
	case "Case":
		items := make([]*model.CaseItem, len(n.CaseItem))
		for i, it := range n.CaseItem {
			items[i] = &model.CaseItem{When: nodeToModel(it.When), Then: nodeToModel(it.Then)}
		}
		return &model.Case{Expression: model.NewExpression(), Comparand: nodeToModel(n.Comparand), CaseItems: items, Else: nodeToModel(n.Else)}
	case "As":
		return &model.As{UnaryExpression: model.NewUnary("As", singleOperand(n)), AsType: unmarshalType(n.AsType), Strict: n.Strict}
	case "Is":
		return &model.Is{UnaryExpression: model.NewUnary("Is", singleOperand(n)), IsType: unmarshalType(n.IsType)}
	case "ToType":
		return &model.ToType{UnaryExpression: model.NewUnary("ToType", singleOperand(n)), TargetType: unmarshalType(n.TargetType)}
	case "ConvertsTo":
		return &model.ConvertsTo{UnaryExpression: model.NewUnary("ConvertsTo", singleOperand(n)), TargetName: n.TargetName}
	case "OfType":
		return &model.OfType{UnaryExpression: model.NewUnary("OfType", singleOperand(n)), OfType: unmarshalType(n.OfTypeSpec)}
	case "DateTimeComponentFrom":
		return &model.DateTimeComponentFrom{UnaryExpression: model.NewUnary("DateTimeComponentFrom", singleOperand(n)), Precision: model.Precision(n.Precision)}
	case "CalculateAge":
		return &model.CalculateAge{UnaryExpression: model.NewUnary("CalculateAge", singleOperand(n)), Precision: model.Precision(n.Precision)}
	case "CalculateAgeAt":
		ops := operandList(n)
		return &model.CalculateAgeAt{BinaryExpression: model.NewBinary("CalculateAgeAt", at(ops, 0), at(ops, 1)), Precision: model.Precision(n.Precision)}
	case "ExpressionRef":
		return &model.ExpressionRef{Expression: model.NewExpression(), Name: n.Name, LibName: n.LibraryName}
	case "ParameterRef":
		return &model.ParameterRef{Expression: model.NewExpression(), Name: n.Name}
	case "OperandRef":
		return &model.OperandRef{Expression: model.NewExpression(), Name: n.Name}
	case "AliasRef":
		return &model.AliasRef{Expression: model.NewExpression(), Name: n.Name}
	case "IdentifierRef":
		return &model.IdentifierRef{Expression: model.NewExpression(), Name: n.Name}
	case "FunctionRef":
		return &model.FunctionRef{Expression: model.NewExpression(), Name: n.Name, LibName: n.LibraryName, Operands: operandList(n)}
	case "Property":
		return &model.Property{Expression: model.NewExpression(), Source: nodeToModel(n.Source), Path: n.Path, Scope: n.Scope}
	case "CodeLiteral":
		sys, _ := nodeToModel(n.System).(*model.CodeSystemRef)
		return &model.CodeLiteral{Expression: model.NewExpression(), System: sys, Code: n.Code, Display: n.Display}
	case "CodeSystemRef":
		return &model.CodeSystemRef{Expression: model.NewExpression(), Name: n.Name, LibName: n.LibraryName}
	case "ValuesetRef":
		return &model.ValuesetRef{Expression: model.NewExpression(), Name: n.Name, LibName: n.LibraryName}
	case "CodeRef":
		return &model.CodeRef{Expression: model.NewExpression(), Name: n.Name, LibName: n.LibraryName}
	case "ConceptRef":
		return &model.ConceptRef{Expression: model.NewExpression(), Name: n.Name, LibName: n.LibraryName}
	case "Total":
		return &model.Total{Expression: model.NewExpression()}
	case "Today":
		return &model.Today{Expression: model.NewExpression()}
	case "Now":
		return &model.Now{Expression: model.NewExpression()}
	case "TimeOfDay":
		return &model.TimeOfDay{Expression: model.NewExpression()}
	case "AgeInYears":
		return &model.AgeInYears{Expression: model.NewExpression()}
	case "AgeInMonths":
		return &model.AgeInMonths{Expression: model.NewExpression()}
	case "AgeInDays":
		return &model.AgeInDays{Expression: model.NewExpression()}
	case "Retrieve":
		return nodeToRetrieve(n)
	case "Query":
		return nodeToQuery(n)
	}

	if ctor, ok := intervalOpCtors[n.Type]; ok {
		ops := operandList(n)
		return ctor(&model.IntervalOp{BinaryExpression: model.NewBinary(n.Type, at(ops, 0), at(ops, 1)), Precision: model.Precision(n.Precision)})
	}
	if ctor, ok := unaryCtors[n.Type]; ok {
		return ctor(model.NewUnary(n.Type, singleOperand(n)))
	}
	if ctor, ok := binaryCtors[n.Type]; ok {
		ops := operandList(n)
		return ctor(model.NewBinary(n.Type, at(ops, 0), at(ops, 1)))
	}
	if ctor, ok := naryCtors[n.Type]; ok {
		return ctor(model.NewNary(n.Type, operandList(n)...))
	}
	return nil
}

func retrieveToNode(r *model.Retrieve) *nodeJSON {
	cf := make([]codeFilterJSON, len(r.CodeFilter))
	for i, f := range r.CodeFilter {
		cf[i] = codeFilterJSON{Path: f.Path, Code: modelToNode(f.Code), ValueSet: vsRefNode(f.ValueSet), CodeSystem: csRefNode(f.CodeSystem)}
	}
	df := make([]dateFilterJSON, len(r.DateFilter))
	for i, f := range r.DateFilter {
		df[i] = dateFilterJSON{Path: f.Path, Range: modelToNode(f.Range)}
	}
	return &nodeJSON{Type: "Retrieve", DataType: r.DataType, Template: r.Template, CodeFilter: cf, DateFilter: df, Context: r.Context}
}

func nodeToRetrieve(n *nodeJSON) model.IExpression {
	cf := make([]*model.CodeFilterElement, len(n.CodeFilter))
	for i, f := range n.CodeFilter {
		el := &model.CodeFilterElement{Path: f.Path, Code: nodeToModel(f.Code)}
		if f.ValueSet != nil {
			el.ValueSet, _ = nodeToModel(f.ValueSet).(*model.ValuesetRef)
		}
		if f.CodeSystem != nil {
			el.CodeSystem, _ = nodeToModel(f.CodeSystem).(*model.CodeSystemRef)
		}
		cf[i] = el
	}
	df := make([]*model.DateFilterElement, len(n.DateFilter))
	for i, f := range n.DateFilter {
		df[i] = &model.DateFilterElement{Path: f.Path, Range: nodeToModel(f.Range)}
	}
	return &model.Retrieve{Expression: model.NewExpression(), DataType: n.DataType, Template: n.Template, CodeFilter: cf, DateFilter: df, Context: n.Context}
}

func queryToNode(q *model.Query) *nodeJSON {
	srcs := make([]aliasedSourceJSON, len(q.Sources))
	for i, s := range q.Sources {
		srcs[i] = aliasedSourceJSON{Source: modelToNode(s.Source), Alias: s.Alias}
	}
	lets := make([]letJSON, len(q.Lets))
	for i, l := range q.Lets {
		lets[i] = letJSON{Identifier: l.Identifier, Expression: modelToNode(l.Expression)}
	}
	rels := make([]relationshipJSON, len(q.Relationships))
	for i, r := range q.Relationships {
		switch rc := r.(type) {
		case *model.With:
			rels[i] = relationshipJSON{Kind: "with", Source: aliasedSourceJSON{Source: modelToNode(rc.Source), Alias: rc.Alias}, SuchThat: modelToNode(rc.SuchThat)}
		case *model.Without:
			rels[i] = relationshipJSON{Kind: "without", Source: aliasedSourceJSON{Source: modelToNode(rc.Source), Alias: rc.Alias}, SuchThat: modelToNode(rc.SuchThat)}
		}
	}
	var ret *returnJSON
	if q.Return != nil {
		ret = &returnJSON{Expression: modelToNode(q.Return.Expression), Distinct: q.Return.Distinct}
	}
	var agg *aggregateJSON
	if q.Aggregate != nil {
		agg = &aggregateJSON{Identifier: q.Aggregate.Identifier, Starting: modelToNode(q.Aggregate.Starting), Expression: modelToNode(q.Aggregate.Expression), Distinct: q.Aggregate.Distinct}
	}
	var sortItems []sortByJSON
	if q.Sort != nil {
		sortItems = make([]sortByJSON, len(q.Sort.ByItems))
		for i, s := range q.Sort.ByItems {
			sortItems[i] = sortByJSON{Path: s.Path, Direction: string(s.Direction)}
		}
	}
	return &nodeJSON{Type: "Query", QuerySource: srcs, Let: lets, Relationship: rels, Where: modelToNode(q.Where), Return: ret, Aggregate: agg, Sort: sortItems}
}

func nodeToQuery(n *nodeJSON) model.IExpression {
	srcs := make([]*model.AliasedSource, len(n.QuerySource))
	for i, s := range n.QuerySource {
		srcs[i] = &model.AliasedSource{Expression: model.NewExpression(), Source: nodeToModel(s.Source), Alias: s.Alias}
	}
	lets := make([]*model.LetClause, len(n.Let))
	for i, l := range n.Let {
		lets[i] = &model.LetClause{Identifier: l.Identifier, Expression: nodeToModel(l.Expression)}
	}
	rels := make([]model.IRelationshipClause, len(n.Relationship))
	for i, r := range n.Relationship {
		base := &model.RelationshipClause{
			AliasedSource: &model.AliasedSource{Expression: model.NewExpression(), Source: nodeToModel(r.Source.Source), Alias: r.Source.Alias},
			SuchThat:      nodeToModel(r.SuchThat),
		}
		if r.Kind == "without" {
			rels[i] = &model.Without{RelationshipClause: base}
		} else {
			rels[i] = &model.With{RelationshipClause: base}
		}
	}
	var ret *model.ReturnClause
	if n.Return != nil {
		ret = &model.ReturnClause{Expression: nodeToModel(n.Return.Expression), Distinct: n.Return.Distinct}
	}
	var agg *model.AggregateClause
	if n.Aggregate != nil {
		agg = &model.AggregateClause{Identifier: n.Aggregate.Identifier, Starting: nodeToModel(n.Aggregate.Starting), Expression: nodeToModel(n.Aggregate.Expression), Distinct: n.Aggregate.Distinct}
	}
	var sort *model.SortClause
	if len(n.Sort) > 0 {
		items := make([]model.SortByColumn, len(n.Sort))
		for i, s := range n.Sort {
			items[i] = model.SortByColumn{Path: s.Path, Direction: model.SortDirection(s.Direction)}
		}
		sort = &model.SortClause{ByItems: items}
	}
	return &model.Query{Expression: model.NewExpression(), Sources: srcs, Lets: lets, Relationships: rels, Where: nodeToModel(n.Where), Return: ret, Aggregate: agg, Sort: sort}
}
