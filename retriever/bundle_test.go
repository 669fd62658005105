package retriever

import (
	"context"
	"testing"
)

func bundleJSON(resources ...map[string]any) map[string]any {
	entries := make([]any, len(resources))
	for i, r := range resources {
		entries[i] = map[string]any{"resource": r}
	}
	return map[string]any{"resourceType": "Bundle", "entry": entries}
}

func TestBundleRetrieveByType(t *testing.T) {
	b := NewBundle(bundleJSON(
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		map[string]any{"resourceType": "Patient", "id": "p1"},
	))
	got, err := b.Retrieve(context.Background(), "Condition", "", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Retrieve(Condition) = %d, want 1", len(got))
	}
}

func TestBundleRetrieveByPatient(t *testing.T) {
	b := NewBundle(bundleJSON(
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		condition("c2", "p2", "http://snomed.info/sct", "44054006"),
	))
	got, err := b.Retrieve(context.Background(), "Condition", "p2", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Retrieve(Condition, p2) = %d, want 1", len(got))
	}
}

func TestBundleResolveReference(t *testing.T) {
	b := NewBundle(bundleJSON(map[string]any{"resourceType": "Patient", "id": "p1"}))
	if _, ok := b.ResolveReference("Patient/p1"); !ok {
		t.Error("ResolveReference(Patient/p1): want ok=true")
	}
	if _, ok := b.ResolveReference("Patient/missing"); ok {
		t.Error("ResolveReference(Patient/missing): want ok=false")
	}
}

func TestPatientBundleDefaultsPatientID(t *testing.T) {
	pb := NewPatientBundle(bundleJSON(
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		condition("c2", "p2", "http://snomed.info/sct", "44054006"),
	), "p1")
	got, err := pb.Retrieve(context.Background(), "Condition", "", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Retrieve with default patient = %d, want 1 (only p1's condition)", len(got))
	}
}

func TestPatientBundleExplicitPatientIDOverrides(t *testing.T) {
	pb := NewPatientBundle(bundleJSON(
		condition("c1", "p1", "http://snomed.info/sct", "44054006"),
		condition("c2", "p2", "http://snomed.info/sct", "44054006"),
	), "p1")
	got, err := pb.Retrieve(context.Background(), "Condition", "p2", nil, nil)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Retrieve(p2 override) = %d, want 1", len(got))
	}
}
