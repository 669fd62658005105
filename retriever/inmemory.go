package retriever

import (
	"context"
	"strings"

	"github.com/clinical-elm/cql/fhir"
	"github.com/clinical-elm/cql/result"
)

// InMemory is a Retriever indexed by (type, id) and secondarily by (type, patientID), per
// spec.md §4.8.
type InMemory struct {
	byTypeID      map[string]map[string]*fhir.Node
	byTypePatient map[string][]*fhir.Node
}

// NewInMemory builds an InMemory retriever from decoded FHIR resources (each a
// map[string]any, typically from encoding/json.Unmarshal).
func NewInMemory(resources []map[string]any) *InMemory {
	im := &InMemory{
		byTypeID:      map[string]map[string]*fhir.Node{},
		byTypePatient: map[string][]*fhir.Node{},
	}
	for _, r := range resources {
		im.Add(r)
	}
	return im
}

// Add indexes one more resource.
func (im *InMemory) Add(r map[string]any) {
	n := fhir.NewNode(r)
	rt := n.ResourceType()
	if rt == "" {
		return
	}
	if im.byTypeID[rt] == nil {
		im.byTypeID[rt] = map[string]*fhir.Node{}
	}
	im.byTypeID[rt][n.ID()] = n

	pid := subjectPatientID(n)
	if pid != "" {
		key := rt + "/" + pid
		im.byTypePatient[key] = append(im.byTypePatient[key], n)
	}
}

// subjectPatientID extracts the referenced Patient id from a resource's subject/patient element,
// the two FHIR element names used across resource types for "whose record this belongs to".
func subjectPatientID(n *fhir.Node) string {
	for _, field := range []string{"subject", "patient"} {
		for _, v := range n.Get(field) {
			if res, ok := v.GolangValue().(result.Resource); ok {
				if sub, ok := res.(*fhir.Node); ok {
					if ref := sub.ReferenceString(); strings.HasPrefix(ref, "Patient/") {
						return strings.TrimPrefix(ref, "Patient/")
					}
				}
			}
		}
	}
	if n.ResourceType() == "Patient" {
		return n.ID()
	}
	return ""
}

// Retrieve implements Retriever.
func (im *InMemory) Retrieve(ctx context.Context, resourceType, patientID string, codeFilter *CodeFilter, dateFilter *DateFilter) ([]result.Value, error) {
	var candidates []*fhir.Node
	if patientID != "" {
		candidates = im.byTypePatient[resourceType+"/"+patientID]
	} else {
		for _, n := range im.byTypeID[resourceType] {
			candidates = append(candidates, n)
		}
	}
	var out []result.Value
	for _, n := range candidates {
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

// ResolveReference implements Retriever/fhir.Resolver.
func (im *InMemory) ResolveReference(ref string) (result.Value, bool) {
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) != 2 {
		return result.NewNull(nil), false
	}
	n, ok := im.byTypeID[parts[0]][parts[1]]
	if !ok {
		return result.NewNull(nil), false
	}
	return result.NewResource(n), true
}

// matchesCodeFilter reports whether any coding at cf.Path on n equals one of cf.Codes. The
// retrieve layer (interpreter/retrieve.go) is responsible for expanding a valueset
// reference into cf.Codes via the TerminologyService beforehand, per spec.md §4.8.
func matchesCodeFilter(n *fhir.Node, cf CodeFilter) bool {
	for _, v := range n.Get(cf.Path) {
		res, ok := v.GolangValue().(result.Resource)
		if !ok {
			continue
		}
		elem, ok := res.(*fhir.Node)
		if !ok {
			continue
		}
		if codingMatches(elem, cf.Codes) {
			return true
		}
	}
	return false
}

// codingMatches checks a CodeableConcept/Coding-shaped node's coding(s) against codes.
func codingMatches(n *fhir.Node, codes []result.Code) bool {
	codings := n.Get("coding")
	if len(codings) == 0 {
		codings = []result.Value{result.NewResource(n)} // n is itself a bare Coding
	}
	for _, cv := range codings {
		res, ok := cv.GolangValue().(result.Resource)
		if !ok {
			continue
		}
		coding, ok := res.(*fhir.Node)
		if !ok {
			continue
		}
		sys := firstString(coding.Get("system"))
		code := firstString(coding.Get("code"))
		for _, want := range codes {
			if sys == want.System && code == want.Code {
				return true
			}
		}
	}
	return false
}

func firstString(vs []result.Value) string {
	if len(vs) == 0 {
		return ""
	}
	s, _ := vs[0].GolangValue().(string)
	return s
}

func matchesDateFilter(n *fhir.Node, df DateFilter) bool {
	vs := n.Get(df.Path)
	if len(vs) == 0 {
		return false
	}
	dt, ok := vs[0].GolangValue().(result.DateTime)
	if !ok {
		return true // non-temporal element at this path: can't filter, don't exclude
	}
	cmp, ok := func() (int, bool) {
		if df.Range.Low.IsNull() {
			return 0, true
		}
		low, ok := df.Range.Low.GolangValue().(result.DateTime)
		if !ok {
			return 0, false
		}
		return dt.Compare(low)
	}()
	if ok && cmp < 0 {
		return false
	}
	if high, ok := df.Range.High.GolangValue().(result.DateTime); ok && !df.Range.High.IsNull() {
		if cmp, ok := dt.Compare(high); ok && cmp > 0 {
			return false
		}
	}
	return true
}
