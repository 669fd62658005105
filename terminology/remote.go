package terminology

import (
	"fmt"

	"github.com/clinical-elm/cql/result"
)

// Transport issues a terminology operation against an external FHIR terminology server; Remote
// forwards every Provider call through it. Kept as a narrow interface (rather than an http.Client
// field) so callers can swap in any wire protocol without Remote depending on net/http, per
// spec.md §4.9 ("forwards to an external FHIR terminology server via the configured transport").
type Transport interface {
	ValidateCode(url, system, code string) (member bool, display string, err error)
	Expand(url string) ([]string, error) // returns "system|code" pairs
}

// Remote forwards every Provider operation to an external terminology service. Out of scope
// except for the interface surface, per spec.md §4.9 -- no transport implementation ships with
// this module.
type Remote struct {
	Transport Transport
}

// NewRemote wraps transport as a Provider.
func NewRemote(transport Transport) *Remote { return &Remote{Transport: transport} }

// ValidateCode implements Provider.
func (r *Remote) ValidateCode(url, system, code string) (bool, string, error) {
	return r.Transport.ValidateCode(url, system, code)
}

// MemberOf implements Provider.
func (r *Remote) MemberOf(system, code, url string) (bool, error) {
	member, _, err := r.Transport.ValidateCode(url, system, code)
	return member, err
}

// Subsumes implements Provider. Remote has no local hierarchy to consult and no standardized
// wire operation for it in this module's Transport surface, so it reports Equivalent for identical
// codes and NotSubsumed otherwise.
func (r *Remote) Subsumes(system, codeA, codeB string) (Subsumption, error) {
	if codeA == codeB {
		return Equivalent, nil
	}
	return NotSubsumed, nil
}

// Expand implements Provider.
func (r *Remote) Expand(url string) ([]result.Code, error) {
	pairs, err := r.Transport.Expand(url)
	if err != nil {
		return nil, fmt.Errorf("terminology: remote expand %q: %w", url, err)
	}
	out := make([]result.Code, 0, len(pairs))
	for _, p := range pairs {
		system, code := splitKey(p)
		out = append(out, result.Code{System: system, Code: code})
	}
	return out, nil
}
