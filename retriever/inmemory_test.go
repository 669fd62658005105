package retriever

import (
	"context"
	"testing"

	"github.com/clinical-elm/cql/result"
)

func condition(id, patientID, system, code string) map[string]any {
	return map[string]any{
		"resourceType": "Condition",
		"id":           id,
		"subject":      map[string]any{"reference": "Patient/" + patientID},
		"code": map[string]any{
			"coding": []any{
				map[string]any{"system": system, "code": code},
			},
		},
	}
}

func TestInMemoryRetrieveByType(t *testing.T) {
	im := NewInMemory([]map[string]any{
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		condition("c2", "p2", "http://snomed.info/sct", "44054006"),
	})
	got, err := im.Retrieve(context.Background(), "Condition", "", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Retrieve(Condition) = %d resources, want 2", len(got))
	}
}

func TestInMemoryRetrieveByPatient(t *testing.T) {
	im := NewInMemory([]map[string]any{
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		condition("c2", "p2", "http://snomed.info/sct", "44054006"),
	})
	got, err := im.Retrieve(context.Background(), "Condition", "p1", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Retrieve(Condition, p1) = %d resources, want 1", len(got))
	}
}

func TestInMemoryRetrieveWithCodeFilter(t *testing.T) {
	im := NewInMemory([]map[string]any{
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		condition("c2", "p1", "http://snomed.info/sct", "other-code"),
	})
	cf := &CodeFilter{Path: "code", Codes: []result.Code{{System: "http://snomed.info/sct", Code: "44054006"}}}
	got, err := im.Retrieve(context.Background(), "Condition", "p1", cf, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Retrieve with code filter = %d resources, want 1", len(got))
	}
}

func TestInMemoryRetrieveWithCodeFilterNoMatch(t *testing.T) {
	im := NewInMemory([]map[string]any{
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
	})
	cf := &CodeFilter{Path: "code", Codes: []result.Code{{System: "http://snomed.info/sct", Code: "nonexistent"}}}
	got, err := im.Retrieve(context.Background(), "Condition", "p1", cf, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve with non-matching code filter = %d resources, want 0", len(got))
	}
}

func TestInMemoryResolveReference(t *testing.T) {
	im := NewInMemory([]map[string]any{
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
	})
	v, ok := im.ResolveReference("Condition/c1")
	if !ok {
		t.Fatal("ResolveReference(Condition/c1): want ok=true")
	}
	if v.GolangValue() == nil {
		t.Error("ResolveReference returned a nil resource")
	}
}

func TestInMemoryResolveReferenceMissing(t *testing.T) {
	im := NewInMemory(nil)
	if _, ok := im.ResolveReference("Condition/missing"); ok {
		t.Error("ResolveReference(missing): want ok=false")
	}
}

func TestInMemoryResolveReferenceMalformed(t *testing.T) {
	im := NewInMemory(nil)
	if _, ok := im.ResolveReference("not-a-reference"); ok {
		t.Error("ResolveReference(malformed): want ok=false")
	}
}

func TestInMemoryAddIgnoresResourceWithoutType(t *testing.T) {
	im := NewInMemory(nil)
	im.Add(map[string]any{"id": "no-type"})
	got, err := im.Retrieve(context.Background(), "Condition", "", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve after adding typeless resource = %d, want 0", len(got))
	}
}
