package retriever

import (
	"context"

	"github.com/clinical-elm/cql/fhir"
	"github.com/clinical-elm/cql/result"
)

// Bundle wraps a single FHIR Bundle resource, retrieving by a linear scan of its entries -- an
// acceptable cost since bundles are small, per spec.md §4.8.
type Bundle struct {
	entries []*fhir.Node
}

// NewBundle decodes a FHIR Bundle's `entry[*].resource` elements.
func NewBundle(bundle map[string]any) *Bundle {
	b := &Bundle{}
	entries, _ := bundle["entry"].([]any)
	for _, e := range entries {
		eo, ok := e.(map[string]any)
		if !ok {
			continue
		}
		res, ok := eo["resource"].(map[string]any)
		if !ok {
			continue
		}
		b.entries = append(b.entries, fhir.NewNode(res))
	}
	return b
}

// Retrieve implements Retriever.
func (b *Bundle) Retrieve(ctx context.Context, resourceType, patientID string, codeFilter *CodeFilter, dateFilter *DateFilter) ([]result.Value, error) {
	var out []result.Value
	for _, n := range b.entries {
		if n.ResourceType() != resourceType {
			continue
		}
		if patientID != "" && subjectPatientID(n) != patientID {
			continue
		}
		if codeFilter != nil && !matchesCodeFilter(n, *codeFilter) {
			continue
		}
		if dateFilter != nil && !matchesDateFilter(n, *dateFilter) {
			continue
		}
		out = append(out, result.NewResource(n))
	}
	return out, nil
}

// ResolveReference implements Retriever/fhir.Resolver via a linear scan by resourceType/id.
func (b *Bundle) ResolveReference(ref string) (result.Value, bool) {
	for _, n := range b.entries {
		if n.ResourceType()+"/"+n.ID() == ref {
			return result.NewResource(n), true
		}
	}
	return result.NewNull(nil), false
}

// PatientBundle is a Bundle variant that pins every retrieve to one known patient id, so callers
// querying a single-patient extract don't need to pass patientID on every Retrieve call, per
// spec.md §4.8.
type PatientBundle struct {
	*Bundle
	PatientID string
}

// NewPatientBundle wraps bundle, defaulting every Retrieve's patient filter to patientID.
func NewPatientBundle(bundle map[string]any, patientID string) *PatientBundle {
	return &PatientBundle{Bundle: NewBundle(bundle), PatientID: patientID}
}

// Retrieve implements Retriever, defaulting patientID to pb.PatientID when the caller passes "".
func (pb *PatientBundle) Retrieve(ctx context.Context, resourceType, patientID string, codeFilter *CodeFilter, dateFilter *DateFilter) ([]result.Value, error) {
	if patientID == "" {
		patientID = pb.PatientID
	}
	return pb.Bundle.Retrieve(ctx, resourceType, patientID, codeFilter, dateFilter)
}
