// Package terminology implements C10: the TerminologyService contract backing `in ValueSet`,
// `subsumes`, and `validate-code`, per spec.md §4.9. Grounded on the teacher's
// terminology/local.go (FHIR ValueSet/CodeSystem JSON ingestion) and terminology/model.go (Code),
// generalized to the Provider interface SPEC_FULL.md §12 calls for.
package terminology

import "github.com/clinical-elm/cql/result"

// Subsumption is the result of a Subsumes query, per spec.md §4.9.
type Subsumption string

// Subsumption values.
const (
	Equivalent  Subsumption = "equivalent"
	Subsumes    Subsumption = "subsumes"
	SubsumedBy  Subsumption = "subsumed-by"
	NotSubsumed Subsumption = "not-subsumed"
)

// Provider is the TerminologyService contract, per spec.md §4.9.
type Provider interface {
	// ValidateCode reports whether (system, code) is a member of the ValueSet named by url, along
	// with its display string when known.
	ValidateCode(url, system, code string) (member bool, display string, err error)

	// MemberOf reports whether (system, code) is a member of the ValueSet named by url. Equivalent
	// to ValidateCode's first return but matches the CQL-level operator name.
	MemberOf(system, code, url string) (bool, error)

	// Subsumes reports the hierarchical relationship, if any, the provider knows between codeA and
	// codeB within system. InMemory carries no hierarchy (spec.md §1 Non-goals): it returns
	// Equivalent for identical codes and NotSubsumed otherwise, matching spec.md §4.9.
	Subsumes(system, codeA, codeB string) (Subsumption, error)

	// Expand returns every (system, code) pair the ValueSet named by url contains, used by the
	// retrieve layer (C9) to turn `[Type: "valueset"]` into a retriever.CodeFilter.
	Expand(url string) ([]result.Code, error)
}
