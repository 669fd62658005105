package fhir

import (
	"testing"

	"github.com/clinical-elm/cql/result"
)

func TestNodeResourceTypeAndID(t *testing.T) {
	n := NewNode(map[string]any{"resourceType": "Patient", "id": "123"})
	if n.ResourceType() != "Patient" {
		t.Errorf("ResourceType() = %q, want Patient", n.ResourceType())
	}
	if n.ID() != "123" {
		t.Errorf("ID() = %q, want 123", n.ID())
	}
}

func TestNodeGetVerbatimField(t *testing.T) {
	n := NewNode(map[string]any{"gender": "male"})
	vals := n.Get("gender")
	if len(vals) != 1 || vals[0].GolangValue() != "male" {
		t.Errorf("Get(gender) = %v, want [male]", vals)
	}
}

func TestNodeGetChoiceTypeSuffix(t *testing.T) {
	n := NewNode(map[string]any{"effectiveDateTime": "2024-01-01"})
	vals := n.Get("effective")
	if len(vals) != 1 {
		t.Fatalf("Get(effective) = %v, want one resolved choice element", vals)
	}
}

func TestNodeGetMissingConcreteChoiceReturnsNil(t *testing.T) {
	n := NewNode(map[string]any{"valueQuantity": map[string]any{"value": 5.0}})
	if vals := n.Get("valueString"); vals != nil {
		t.Errorf("Get(valueString) = %v, want nil (concrete suffix absent)", vals)
	}
}

func TestNodeGetArrayField(t *testing.T) {
	n := NewNode(map[string]any{"name": []any{"a", "b"}})
	vals := n.Get("name")
	if len(vals) != 2 {
		t.Fatalf("Get(name) = %v, want 2 elements", vals)
	}
}

func TestNodeGetMissingField(t *testing.T) {
	n := NewNode(map[string]any{"gender": "male"})
	if vals := n.Get("birthDate"); vals != nil {
		t.Errorf("Get(birthDate) = %v, want nil", vals)
	}
}

func TestNodeChildrenFlattensArrays(t *testing.T) {
	n := NewNode(map[string]any{"name": []any{"a", "b"}, "gender": "male"})
	vals := n.Children()
	if len(vals) != 3 {
		t.Errorf("Children() = %d values, want 3", len(vals))
	}
}

func TestNodeDescendantsRecurses(t *testing.T) {
	n := NewNode(map[string]any{
		"contact": map[string]any{"name": "Jane"},
	})
	vals := n.Descendants()
	if len(vals) < 2 {
		t.Errorf("Descendants() = %d values, want at least 2 (contact node + its child)", len(vals))
	}
}

func TestNodeExtensionFiltersByURL(t *testing.T) {
	n := NewNode(map[string]any{
		"extension": []any{
			map[string]any{"url": "http://example.org/a", "valueString": "x"},
			map[string]any{"url": "http://example.org/b", "valueString": "y"},
		},
	})
	vals := n.Extension("http://example.org/b")
	if len(vals) != 1 {
		t.Fatalf("Extension(b) = %v, want one match", vals)
	}
}

func TestNodeOfType(t *testing.T) {
	n := NewNode(map[string]any{"resourceType": "Observation"})
	if !n.OfType("Observation") {
		t.Error("OfType(Observation) = false, want true")
	}
	if n.OfType("Patient") {
		t.Error("OfType(Patient) = true, want false")
	}
	str := NewNode("hello")
	if !str.OfType("string") {
		t.Error("OfType(string) on a string node = false, want true")
	}
}

func TestNodeReferenceStringAndResolve(t *testing.T) {
	n := NewNode(map[string]any{"reference": "Patient/123"})
	if n.ReferenceString() != "Patient/123" {
		t.Errorf("ReferenceString() = %q, want Patient/123", n.ReferenceString())
	}

	empty := NewNode(map[string]any{})
	if _, ok := empty.Resolve(noopResolver{}); ok {
		t.Error("Resolve on node with no reference: want ok=false")
	}
}

type noopResolver struct{}

func (noopResolver) ResolveReference(ref string) (result.Value, bool) {
	return result.NewNull(nil), false
}
