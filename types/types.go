// Package types holds the static CQL/FHIRPath type system shared by the parser and the
// interpreter. It mirrors the System type lattice defined by the CQL specification
// (https://cql.hl7.org/09-b-cqlreference.html#types-2): primitives, List<T>, Interval<T>,
// Tuple{...}, Choice<T1,T2,...> and Named model types.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// IType is implemented by every CQL type descriptor.
type IType interface {
	// Equal reports whether two type descriptors denote the exact same type.
	Equal(IType) bool
	// String returns a human-readable CQL-ish spelling of the type, used in diagnostics.
	String() string
}

// System is a CQL primitive type, one of the System.* types defined by the CQL specification.
type System string

// Primitive System types.
const (
	Unset    System = "System.Unset"
	Any      System = "System.Any"
	Boolean  System = "System.Boolean"
	String   System = "System.String"
	Integer  System = "System.Integer"
	Long     System = "System.Long"
	Decimal  System = "System.Decimal"
	Quantity System = "System.Quantity"
	Ratio    System = "System.Ratio"
	Date     System = "System.Date"
	DateTime System = "System.DateTime"
	Time     System = "System.Time"
	Code     System = "System.Code"
	Concept  System = "System.Concept"
	ValueSet System = "System.ValueSet"
)

// Equal implements IType.
func (s System) Equal(o IType) bool {
	other, ok := o.(System)
	return ok && s == other
}

// String implements IType and fmt.Stringer.
func (s System) String() string { return string(s) }

// IsNumeric reports whether s is one of the CQL numeric primitives.
func (s System) IsNumeric() bool {
	switch s {
	case Integer, Long, Decimal, Quantity:
		return true
	}
	return false
}

// IsTemporal reports whether s is Date, DateTime or Time.
func (s System) IsTemporal() bool {
	switch s {
	case Date, DateTime, Time:
		return true
	}
	return false
}

// List is a CQL List<ElementType>.
type List struct{ ElementType IType }

// Equal implements IType.
func (l *List) Equal(o IType) bool {
	other, ok := o.(*List)
	if !ok || l == nil || other == nil {
		return ok && l == other
	}
	return l.ElementType.Equal(other.ElementType)
}

// String implements IType.
func (l *List) String() string { return fmt.Sprintf("List<%s>", l.ElementType) }

// Interval is a CQL Interval<PointType>.
type Interval struct{ PointType IType }

// Equal implements IType.
func (i *Interval) Equal(o IType) bool {
	other, ok := o.(*Interval)
	if !ok || i == nil || other == nil {
		return ok && i == other
	}
	return i.PointType.Equal(other.PointType)
}

// String implements IType.
func (i *Interval) String() string { return fmt.Sprintf("Interval<%s>", i.PointType) }

// Tuple is a CQL Tuple { name Type, ... }. Element order does not affect equality; names are
// compared case-sensitively, sorted alphabetically for a canonical String() form.
type Tuple struct{ Elements map[string]IType }

// Equal implements IType.
func (t *Tuple) Equal(o IType) bool {
	other, ok := o.(*Tuple)
	if !ok || t == nil || other == nil {
		return ok && t == other
	}
	if len(t.Elements) != len(other.Elements) {
		return false
	}
	for k, v := range t.Elements {
		ov, ok := other.Elements[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String implements IType.
func (t *Tuple) String() string {
	names := make([]string, 0, len(t.Elements))
	for n := range t.Elements {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s %s", n, t.Elements[n])
	}
	return fmt.Sprintf("Tuple {%s}", strings.Join(parts, ", "))
}

// Choice is a CQL Choice<T1, T2, ...>, used when static type cannot be narrowed further, most
// often for FHIR choice elements (value[x]).
type Choice struct{ ChoiceTypes []IType }

// Equal implements IType.
func (c *Choice) Equal(o IType) bool {
	other, ok := o.(*Choice)
	if !ok || c == nil || other == nil {
		return ok && c == other
	}
	if len(c.ChoiceTypes) != len(other.ChoiceTypes) {
		return false
	}
	for _, t := range c.ChoiceTypes {
		found := false
		for _, ot := range other.ChoiceTypes {
			if t.Equal(ot) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// String implements IType.
func (c *Choice) String() string {
	parts := make([]string, len(c.ChoiceTypes))
	for i, t := range c.ChoiceTypes {
		parts[i] = t.String()
	}
	return fmt.Sprintf("Choice<%s>", strings.Join(parts, ", "))
}

// Named is a type defined by a data model (e.g. FHIR.Patient, FHIR.code).
type Named struct {
	// Model is the using-declared model name, e.g. "FHIR".
	Model string
	// Name is the unqualified type name within the model, e.g. "Patient".
	Name string
}

// Equal implements IType.
func (n *Named) Equal(o IType) bool {
	other, ok := o.(*Named)
	if !ok || n == nil || other == nil {
		return ok && n == other
	}
	return n.Model == other.Model && n.Name == other.Name
}

// String implements IType.
func (n *Named) String() string { return fmt.Sprintf("%s.%s", n.Model, n.Name) }

// QualifiedName returns Model.Name, the ModelInfo lookup key for this type.
func (n *Named) QualifiedName() string { return n.Model + "." + n.Name }

// Unwrap drops one layer of List/Interval/Choice to get at a point type; for all other types it
// is the identity. Used by operators that need the element type of a collection-like type.
func Unwrap(t IType) IType {
	switch v := t.(type) {
	case *List:
		return v.ElementType
	case *Interval:
		return v.PointType
	default:
		return t
	}
}

// IsSubType reports whether sub can be implicitly used where super is expected, per the CQL
// implicit-conversion lattice for primitive widening (Integer -> Long -> Decimal -> Quantity,
// Integer -> Decimal, Date -> DateTime). Each listed step is one rung; rungs are not chained, so
// e.g. Integer -> Quantity is not a subtype. This does not attempt the full conversion-operator search; that lives in
// internal/convert, which calls this for the primitive leaf case.
func IsSubType(sub, super IType) bool {
	if sub.Equal(super) || super == System(Any) {
		return true
	}
	ss, sok := sub.(System)
	ps, pok := super.(System)
	if sok && pok {
		ladder := [][2]System{{Integer, Long}, {Integer, Decimal}, {Long, Decimal}, {Decimal, Quantity}, {Date, DateTime}}
		for _, rung := range ladder {
			if ss == rung[0] && ps == rung[1] {
				return true
			}
		}
	}
	if subList, ok := sub.(*List); ok {
		if superList, ok := super.(*List); ok {
			return IsSubType(subList.ElementType, superList.ElementType)
		}
	}
	if choice, ok := super.(*Choice); ok {
		for _, ct := range choice.ChoiceTypes {
			if IsSubType(sub, ct) {
				return true
			}
		}
	}
	return false
}
