// Package retriever implements C9: the DataSource contract between the CQL engine and whatever
// holds the FHIR resources CQL is evaluated over, per spec.md §4.8. Grounded on the teacher's
// retriever.Retriever interface (retriever/retriever.go), generalized from the teacher's single
// "all resources of a type" method to the full (type, patient, code filter, date filter) contract
// SPEC_FULL.md §12 calls for, and returning result.Value/fhir.Node trees instead of generated FHIR
// protobufs.
package retriever

import (
	"context"

	"github.com/clinical-elm/cql/result"
)

// CodeFilter narrows a retrieve to resources whose element at Path codes against one of Codes
// (OR across codings within a CodeableConcept), per spec.md §4.8.
type CodeFilter struct {
	Path  string
	Codes []result.Code
}

// DateFilter narrows a retrieve to resources whose element at Path falls within Range.
type DateFilter struct {
	Path  string
	Range result.Interval
}

// Retriever is the pluggable data source contract CQL's retrieve expressions (`[Type: ...]`)
// compile down to.
type Retriever interface {
	// Retrieve returns every resource of resourceType, optionally narrowed to one patient and/or
	// matching codeFilter/dateFilter. An empty patientID or a nil codeFilter/dateFilter means "unfiltered" on
	// that axis.
	Retrieve(ctx context.Context, resourceType string, patientID string, codeFilter *CodeFilter, dateFilter *DateFilter) ([]result.Value, error)

	// ResolveReference follows a FHIR reference string (e.g. "Patient/123") to its resource.
	ResolveReference(ref string) (result.Value, bool)
}
