// Package result holds the runtime Value model evaluated by the interpreter (C1): a tagged
// variant covering every CQL/FHIRPath runtime value plus the three-valued-logic and equality
// primitives that operators build on.
package result

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clinical-elm/cql/types"
)

// Kind tags the case a Value holds.
type Kind int

// Value kinds, one per spec.md §3 Value case.
const (
	Null Kind = iota
	KindBoolean
	KindInteger
	KindLong
	KindDecimal
	KindString
	KindDate
	KindDateTime
	KindTime
	KindQuantity
	KindRatio
	KindCode
	KindConcept
	KindInterval
	KindTuple
	KindList
	KindResource
)

// Value is a single CQL runtime value. The zero Value is CQL Null.
type Value struct {
	kind   Kind
	v      any
	static types.IType
}

// NewNull returns the Null value, optionally carrying a static type for callers (like empty list
// literals) that need RuntimeType() to fall back to something other than System.Any.
func NewNull(static types.IType) Value {
	if static == nil {
		static = types.System(types.Any)
	}
	return Value{kind: Null, static: static}
}

// IsNull reports whether v is CQL Null.
func (v Value) IsNull() bool { return v.kind == Null }

// Kind returns the tagged case this value holds.
func (v Value) Kind() Kind { return v.kind }

// GolangValue returns the underlying Go representation; see the New* constructors below for the
// mapping from Kind to concrete Go type.
func (v Value) GolangValue() any { return v.v }

// RuntimeType returns the narrowest type this value's contents actually have, which may be more
// specific than the statically inferred parse-time type (e.g. a Choice<Integer,String> that
// turns out to hold a String at runtime).
func (v Value) RuntimeType() types.IType {
	switch x := v.v.(type) {
	case nil:
		return v.static
	case bool:
		return types.System(types.Boolean)
	case int32:
		return types.System(types.Integer)
	case int64:
		return types.System(types.Long)
	case Decimal:
		return types.System(types.Decimal)
	case string:
		return types.System(types.String)
	case Date:
		return types.System(types.Date)
	case DateTime:
		return types.System(types.DateTime)
	case Time:
		return types.System(types.Time)
	case Quantity:
		return types.System(types.Quantity)
	case Ratio:
		return types.System(types.Ratio)
	case Code:
		return types.System(types.Code)
	case Concept:
		return types.System(types.Concept)
	case Interval:
		return inferIntervalType(x)
	case List:
		return inferListType(x, v.static)
	case Tuple:
		return x.staticType()
	case Resource:
		return &types.Named{Model: "FHIR", Name: x.ResourceType()}
	default:
		return v.static
	}
}

// Resource is implemented by any tree-shaped FHIR resource representation (fhir.Node). Kept as a
// marker interface here, rather than importing the fhir package, to avoid a result<->fhir import
// cycle: fhir.Node's navigation methods return result.Value.
type Resource interface {
	ResourceType() string
}

// --- constructors ---

// NewBoolean wraps a bool.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, v: b} }

// NewInt32 wraps a CQL Integer.
func NewInt32(i int32) Value { return Value{kind: KindInteger, v: i} }

// NewInt64 wraps a CQL Long.
func NewInt64(i int64) Value { return Value{kind: KindLong, v: i} }

// NewDecimal wraps a CQL Decimal.
func NewDecimal(d Decimal) Value { return Value{kind: KindDecimal, v: d} }

// NewString wraps a CQL String.
func NewString(s string) Value { return Value{kind: KindString, v: s} }

// NewDate wraps a CQL Date.
func NewDate(d Date) Value { return Value{kind: KindDate, v: d} }

// NewDateTime wraps a CQL DateTime.
func NewDateTime(d DateTime) Value { return Value{kind: KindDateTime, v: d} }

// NewTime wraps a CQL Time.
func NewTime(t Time) Value { return Value{kind: KindTime, v: t} }

// NewQuantity wraps a CQL Quantity.
func NewQuantity(q Quantity) Value { return Value{kind: KindQuantity, v: q} }

// NewRatio wraps a CQL Ratio.
func NewRatio(r Ratio) Value { return Value{kind: KindRatio, v: r} }

// NewCode wraps a CQL Code.
func NewCode(c Code) Value { return Value{kind: KindCode, v: c} }

// NewConcept wraps a CQL Concept.
func NewConcept(c Concept) Value { return Value{kind: KindConcept, v: c} }

// NewInterval wraps a CQL Interval.
func NewInterval(i Interval) Value { return Value{kind: KindInterval, v: i} }

// NewTuple wraps a CQL Tuple.
func NewTuple(t Tuple) Value { return Value{kind: KindTuple, v: t} }

// NewList wraps a CQL List, recording elementType for RuntimeType() when the list is empty.
func NewList(vals []Value, elementType types.IType) Value {
	return Value{kind: KindList, v: List{Value: vals, StaticElementType: elementType}}
}

// NewResource wraps a FHIR tree-shaped resource.
func NewResource(r Resource) Value { return Value{kind: KindResource, v: r} }

func inferListType(l List, static types.IType) types.IType {
	if len(l.Value) == 0 {
		if static != nil {
			return static
		}
		if l.StaticElementType != nil {
			return &types.List{ElementType: l.StaticElementType}
		}
		return &types.List{ElementType: types.System(types.Any)}
	}
	return &types.List{ElementType: l.Value[0].RuntimeType()}
}

func inferIntervalType(i Interval) types.IType {
	if !i.Low.IsNull() {
		return &types.Interval{PointType: i.Low.RuntimeType()}
	}
	if !i.High.IsNull() {
		return &types.Interval{PointType: i.High.RuntimeType()}
	}
	if i.PointType != nil {
		return &types.Interval{PointType: i.PointType}
	}
	return &types.Interval{PointType: types.System(types.Any)}
}

// String renders a Value for diagnostics; not used for CQL ToString semantics (see interpreter
// operator_string.go for that).
func (v Value) String() string {
	if v.IsNull() {
		return "null"
	}
	switch x := v.v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case List:
		parts := make([]string, len(x.Value))
		for i, e := range x.Value {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Tuple is the Go representation of a CQL Tuple (insertion-ordered).
type Tuple struct {
	// Names preserves insertion order; Value holds the values by name.
	Names []string
	Value map[string]Value
}

// NewEmptyTuple returns a Tuple with no elements yet; use Set to populate it in order.
func NewEmptyTuple() Tuple { return Tuple{Value: map[string]Value{}} }

// Set inserts or overwrites element name with val, appending to Names if new.
func (t *Tuple) Set(name string, val Value) {
	if _, ok := t.Value[name]; !ok {
		t.Names = append(t.Names, name)
	}
	t.Value[name] = val
}

// Get returns the element named name, or Null if absent.
func (t Tuple) Get(name string) Value {
	if v, ok := t.Value[name]; ok {
		return v
	}
	return NewNull(nil)
}

func (t Tuple) staticType() types.IType {
	elems := make(map[string]types.IType, len(t.Names))
	for _, n := range t.Names {
		elems[n] = t.Value[n].RuntimeType()
	}
	return &types.Tuple{Elements: elems}
}

// List is the Go representation of a CQL List.
type List struct {
	Value             []Value
	StaticElementType types.IType
}

// sortedTupleNames is a small helper used by diagnostics/ELM emission that need deterministic
// output for a Tuple's element names.
func sortedTupleNames(t Tuple) []string {
	names := append([]string(nil), t.Names...)
	sort.Strings(names)
	return names
}
