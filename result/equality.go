package result

import "strings"

// Equal implements strict CQL `=`: structural equality within a kind, Null propagating (any Null
// operand, or a kind mismatch against a non-null operand of an incompatible kind, yields "unknown"
// rather than false). Callers distinguish "false" from "unknown" via the ok return.
func Equal(a, b Value) (eq bool, ok bool) {
	if a.IsNull() || b.IsNull() {
		return false, false
	}
	if a.Kind() != b.Kind() {
		return false, false
	}
	return valueEqualStrict(a, b), true
}

func valueEqualStrict(a, b Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a.IsNull() != b.IsNull() {
		return false
	}
	switch av := a.GolangValue().(type) {
	case bool:
		return av == b.GolangValue().(bool)
	case int32:
		return av == b.GolangValue().(int32)
	case int64:
		return av == b.GolangValue().(int64)
	case Decimal:
		return av.Equal(b.GolangValue().(Decimal))
	case string:
		return av == b.GolangValue().(string)
	case Date:
		return av.Equal(b.GolangValue().(Date))
	case DateTime:
		return av.Equal(b.GolangValue().(DateTime))
	case Time:
		return av.Equal(b.GolangValue().(Time))
	case Quantity:
		return av.Equal(b.GolangValue().(Quantity))
	case Ratio:
		return av.Equal(b.GolangValue().(Ratio))
	case Code:
		return av.Equal(b.GolangValue().(Code))
	case Concept:
		return av.Equal(b.GolangValue().(Concept))
	case Interval:
		return av.Equal(b.GolangValue().(Interval))
	case List:
		bv := b.GolangValue().(List)
		if len(av.Value) != len(bv.Value) {
			return false
		}
		for i := range av.Value {
			if !valueEqualStrict(av.Value[i], bv.Value[i]) {
				return false
			}
		}
		return true
	case Tuple:
		bv := b.GolangValue().(Tuple)
		if len(av.Names) != len(bv.Names) {
			return false
		}
		for _, n := range av.Names {
			bev, ok := bv.Value[n]
			if !ok || !valueEqualStrict(av.Value[n], bev) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Equivalent implements CQL `~`: case-insensitive for strings, precision-lenient for temporals
// (two DateTimes at different precisions are equivalent if they agree down to the shared
// precision), `Null ~ Null` is always true, and it never returns "unknown" -- equivalence is a
// total function to Boolean per the CQL specification.
func Equivalent(a, b Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a.IsNull() != b.IsNull() {
		return false
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.GolangValue().(type) {
	case string:
		return strings.EqualFold(av, b.GolangValue().(string))
	case Date:
		cmp, _ := av.Compare(b.GolangValue().(Date))
		return cmp == 0
	case DateTime:
		cmp, _ := av.Compare(b.GolangValue().(DateTime))
		return cmp == 0
	case Time:
		cmp, _ := av.Compare(b.GolangValue().(Time))
		return cmp == 0
	case List:
		bv := b.GolangValue().(List)
		if len(av.Value) != len(bv.Value) {
			return false
		}
		for i := range av.Value {
			if !Equivalent(av.Value[i], bv.Value[i]) {
				return false
			}
		}
		return true
	case Concept:
		bv := b.GolangValue().(Concept)
		return av.HasCodingOverlap(bv)
	default:
		eq, ok := Equal(a, b)
		return ok && eq
	}
}

// HasCodingOverlap reports whether c and o share at least one (system, code) coding, used by
// Concept equivalence (`~`), which the CQL spec defines as "at least one coding in common".
func (c Concept) HasCodingOverlap(o Concept) bool {
	for _, coding := range c.Coding {
		if o.HasCoding(coding.System, coding.Code) {
			return true
		}
	}
	return false
}

// Compare implements total ordering on like kinds for Sort/Min/Max/comparison operators. ok is
// false when the values are Null (CQL "Sort asc nulls first" handles that case separately) or
// when the comparison is undefined at this precision (temporal values, see
// internal/datehelpers.CompareAtPrecision).
func Compare(a, b Value) (cmp int, ok bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	switch av := a.GolangValue().(type) {
	case int32:
		bv := b.GolangValue().(int32)
		return sign(int64(av) - int64(bv)), true
	case int64:
		bv := b.GolangValue().(int64)
		return sign(av - bv), true
	case Decimal:
		return av.Cmp(b.GolangValue().(Decimal)), true
	case string:
		return strings.Compare(av, b.GolangValue().(string)), true
	case Date:
		return av.Compare(b.GolangValue().(Date))
	case DateTime:
		return av.Compare(b.GolangValue().(DateTime))
	case Time:
		return av.Compare(b.GolangValue().(Time))
	case Quantity:
		bv := b.GolangValue().(Quantity)
		if av.Unit != bv.Unit {
			return 0, false
		}
		return av.Value.Cmp(bv.Value), true
	default:
		return 0, false
	}
}

func sign(d int64) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

// --- Kleene (three-valued) logic, spec.md §4.1 ---

// Tri is a three-valued truth value.
type Tri int

// Tri values.
const (
	TriUnknown Tri = iota
	TriTrue
	TriFalse
)

// ToTri converts a possibly-null Boolean Value to Tri.
func ToTri(v Value) Tri {
	if v.IsNull() {
		return TriUnknown
	}
	if v.GolangValue().(bool) {
		return TriTrue
	}
	return TriFalse
}

// ToValue converts a Tri back to a Boolean/Null Value.
func (t Tri) ToValue() Value {
	switch t {
	case TriTrue:
		return NewBoolean(true)
	case TriFalse:
		return NewBoolean(false)
	default:
		return NewNull(nil)
	}
}

// KleeneAnd implements CQL `and`'s truth table, including the short-circuit `false and X -> false`.
func KleeneAnd(a, b Tri) Tri {
	if a == TriFalse || b == TriFalse {
		return TriFalse
	}
	if a == TriUnknown || b == TriUnknown {
		return TriUnknown
	}
	return TriTrue
}

// KleeneOr implements CQL `or`'s truth table, including `true or X -> true`.
func KleeneOr(a, b Tri) Tri {
	if a == TriTrue || b == TriTrue {
		return TriTrue
	}
	if a == TriUnknown || b == TriUnknown {
		return TriUnknown
	}
	return TriFalse
}

// KleeneXor implements CQL `xor`: unknown if either operand is unknown, else strict xor.
func KleeneXor(a, b Tri) Tri {
	if a == TriUnknown || b == TriUnknown {
		return TriUnknown
	}
	if a == b {
		return TriFalse
	}
	return TriTrue
}

// KleeneNot implements CQL `not`.
func KleeneNot(a Tri) Tri {
	switch a {
	case TriTrue:
		return TriFalse
	case TriFalse:
		return TriTrue
	default:
		return TriUnknown
	}
}

// KleeneImplies implements CQL `implies`: equivalent to `not a or b`, with the same short-circuit
// (`false implies X -> true`, `true implies X -> X`).
func KleeneImplies(a, b Tri) Tri {
	return KleeneOr(KleeneNot(a), b)
}
