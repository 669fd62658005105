package terminology

import (
	"encoding/json"
	"fmt"

	"bitbucket.org/creachadair/stringset"

	"github.com/clinical-elm/cql/result"
)

// coding is one (system, code) pair, stringified as "system|code" for use as a stringset member.
func codingKey(system, code string) string { return system + "|" + code }

// InMemory ingests ValueSet JSON (either `compose.include.concept` or `expansion.contains`, per
// spec.md §4.9) and answers validate_code/member_of/subsumes/Expand purely from that index.
// stringset backs the per-ValueSet code membership set, since membership testing is the only
// operation these sets need (no ordering, no iteration order guarantee required).
type InMemory struct {
	// byURL maps a ValueSet's canonical url to the set of "system|code" members it expands to.
	byURL map[string]stringset.Set
	// display maps "system|code" to its first-seen display string, across all loaded ValueSets.
	display map[string]string
}

// NewInMemory returns an empty InMemory provider; use LoadValueSet to ingest ValueSet JSON.
func NewInMemory() *InMemory {
	return &InMemory{byURL: map[string]stringset.Set{}, display: map[string]string{}}
}

// fhirValueSet is the minimal shape of a FHIR ValueSet resource this provider understands.
type fhirValueSet struct {
	ResourceType string `json:"resourceType"`
	URL          string `json:"url"`
	Compose      *struct {
		Include []struct {
			System  string `json:"system"`
			Concept []struct {
				Code    string `json:"code"`
				Display string `json:"display"`
			} `json:"concept"`
		} `json:"include"`
	} `json:"compose"`
	Expansion *struct {
		Contains []struct {
			System  string `json:"system"`
			Code    string `json:"code"`
			Display string `json:"display"`
		} `json:"contains"`
	} `json:"expansion"`
}

// LoadValueSet ingests one ValueSet resource's JSON text, indexing its expansion (preferred, if
// present) or its compose.include.concept list.
func (p *InMemory) LoadValueSet(jsonText string) error {
	var vs fhirValueSet
	if err := json.Unmarshal([]byte(jsonText), &vs); err != nil {
		return fmt.Errorf("terminology: invalid ValueSet JSON: %w", err)
	}
	if vs.ResourceType != "" && vs.ResourceType != "ValueSet" {
		return fmt.Errorf("terminology: expected ValueSet, got %q", vs.ResourceType)
	}
	set := stringset.New()
	if vs.Expansion != nil {
		for _, c := range vs.Expansion.Contains {
			set.Add(codingKey(c.System, c.Code))
			p.display[codingKey(c.System, c.Code)] = c.Display
		}
	} else if vs.Compose != nil {
		for _, inc := range vs.Compose.Include {
			for _, c := range inc.Concept {
				set.Add(codingKey(inc.System, c.Code))
				p.display[codingKey(inc.System, c.Code)] = c.Display
			}
		}
	}
	p.byURL[vs.URL] = set
	return nil
}

// ValidateCode implements Provider.
func (p *InMemory) ValidateCode(url, system, code string) (bool, string, error) {
	set, ok := p.byURL[url]
	if !ok {
		return false, "", fmt.Errorf("terminology: unknown valueset %q: %w", url, result.ErrTerminology)
	}
	key := codingKey(system, code)
	if !set.Contains(key) {
		return false, "", nil
	}
	return true, p.display[key], nil
}

// MemberOf implements Provider.
func (p *InMemory) MemberOf(system, code, url string) (bool, error) {
	member, _, err := p.ValidateCode(url, system, code)
	return member, err
}

// Subsumes implements Provider. InMemory carries no hierarchy (spec.md §1 Non-goals excludes a
// full subsumption hierarchy), so it returns Equivalent for an identical pair and NotSubsumed
// otherwise, per spec.md §4.9.
func (p *InMemory) Subsumes(system, codeA, codeB string) (Subsumption, error) {
	if codeA == codeB {
		return Equivalent, nil
	}
	return NotSubsumed, nil
}

// Expand implements Provider.
func (p *InMemory) Expand(url string) ([]result.Code, error) {
	set, ok := p.byURL[url]
	if !ok {
		return nil, fmt.Errorf("terminology: unknown valueset %q: %w", url, result.ErrTerminology)
	}
	out := make([]result.Code, 0, len(set))
	for key := range set {
		system, code := splitKey(key)
		out = append(out, result.Code{System: system, Code: code, Display: p.display[key]})
	}
	return out, nil
}

func splitKey(key string) (system, code string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}
