package librarymgr

import (
	"sort"
	"strings"

	"github.com/clinical-elm/cql/types"
)

// typeSpecJSON is the ELM JSON type-specifier shape (spec.md §6): every type descriptor carries a
// "type" discriminant naming which specifier it is, mirroring how expression nodes do.
type typeSpecJSON struct {
	Type        string          `json:"type"`
	Name        string          `json:"name,omitempty"`
	ElementType *typeSpecJSON   `json:"elementType,omitempty"`
	PointType   *typeSpecJSON   `json:"pointType,omitempty"`
	Element     []tupleElemJSON `json:"element,omitempty"`
	Choice      []*typeSpecJSON `json:"choice,omitempty"`
}

type tupleElemJSON struct {
	Name string        `json:"name"`
	Type *typeSpecJSON `json:"type"`
}

// marshalType converts a static type descriptor to its ELM JSON specifier. System primitives
// round-trip as a NamedTypeSpecifier named "System.X", matching real ELM's own convention.
func marshalType(t types.IType) *typeSpecJSON {
	if t == nil {
		return nil
	}
	switch v := t.(type) {
	case types.System:
		return &typeSpecJSON{Type: "NamedTypeSpecifier", Name: string(v)}
	case *types.List:
		return &typeSpecJSON{Type: "ListTypeSpecifier", ElementType: marshalType(v.ElementType)}
	case *types.Interval:
		return &typeSpecJSON{Type: "IntervalTypeSpecifier", PointType: marshalType(v.PointType)}
	case *types.Tuple:
		names := make([]string, 0, len(v.Elements))
		for n := range v.Elements {
			names = append(names, n)
		}
		sort.Strings(names)
		elems := make([]tupleElemJSON, len(names))
		for i, n := range names {
			elems[i] = tupleElemJSON{Name: n, Type: marshalType(v.Elements[n])}
		}
		return &typeSpecJSON{Type: "TupleTypeSpecifier", Element: elems}
	case *types.Choice:
		cs := make([]*typeSpecJSON, len(v.ChoiceTypes))
		for i, ct := range v.ChoiceTypes {
			cs[i] = marshalType(ct)
		}
		return &typeSpecJSON{Type: "ChoiceTypeSpecifier", Choice: cs}
	case *types.Named:
		return &typeSpecJSON{Type: "NamedTypeSpecifier", Name: v.QualifiedName()}
	}
	return nil
}

// unmarshalType is marshalType's inverse.
func unmarshalType(ts *typeSpecJSON) types.IType {
	if ts == nil {
		return nil
	}
	switch ts.Type {
	case "ListTypeSpecifier":
		return &types.List{ElementType: unmarshalType(ts.ElementType)}
	case "IntervalTypeSpecifier":
		return &types.Interval{PointType: unmarshalType(ts.PointType)}
	case "TupleTypeSpecifier":
		elems := make(map[string]types.IType, len(ts.Element))
		for _, e := range ts.Element {
			elems[e.Name] = unmarshalType(e.Type)
		}
		return &types.Tuple{Elements: elems}
	case "ChoiceTypeSpecifier":
		cts := make([]types.IType, len(ts.Choice))
		for i, c := range ts.Choice {
			cts[i] = unmarshalType(c)
		}
		return &types.Choice{ChoiceTypes: cts}
	case "NamedTypeSpecifier":
		if strings.HasPrefix(ts.Name, "System.") {
			return types.System(ts.Name)
		}
		if model, name, ok := strings.Cut(ts.Name, "."); ok {
			return &types.Named{Model: model, Name: name}
		}
		return &types.Named{Name: ts.Name}
	}
	return nil
}
