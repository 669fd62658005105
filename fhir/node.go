// Package fhir implements C11: a thin navigable tree over decoded FHIR JSON. Resources are
// represented as plain map[string]any/[]any/scalars (result of encoding/json.Unmarshal), never as
// generated schema types -- spec.md §3 defines Resource as "a structured tree view" and §1
// Non-goals excludes FHIR schema validation, so there is nothing for the teacher's generated R4
// protobuf package to serve (see DESIGN.md). Node supports the same navigational surface the
// teacher's internal/resourcewrapper exposes over protos: choice-type `value[x]` resolution,
// `extension(url)`, `resolve()`, `ofType`.
package fhir

import (
	"strings"

	"github.com/clinical-elm/cql/result"
)

// Node wraps one decoded FHIR JSON value: an object (map[string]any), an array ([]any), or a
// scalar (string/float64/bool/nil).
type Node struct {
	raw any
}

// NewNode wraps a decoded JSON value.
func NewNode(raw any) *Node { return &Node{raw: raw} }

// Raw returns the underlying decoded value.
func (n *Node) Raw() any { return n.raw }

// ResourceType implements result.Resource: the `resourceType` field of a FHIR object, or "" for
// non-resource nodes (backbone elements, data types).
func (n *Node) ResourceType() string {
	obj, ok := n.raw.(map[string]any)
	if !ok {
		return ""
	}
	rt, _ := obj["resourceType"].(string)
	return rt
}

// ID returns the resource's `id` element, or "" if absent.
func (n *Node) ID() string {
	obj, ok := n.raw.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := obj["id"].(string)
	return id
}

// Get navigates to a direct child field, matching FHIRPath/CQL property access. FHIR choice-type
// elements (`value[x]`) are matched by any concrete type suffix (`valueString`, `valueQuantity`,
// ...) when field itself isn't present verbatim, per spec.md §4.10. Navigation always yields a
// list: 0 results (missing), 1 (singular element), or N (a repeating/array element already
// present as a JSON array).
func (n *Node) Get(field string) []result.Value {
	obj, ok := n.raw.(map[string]any)
	if !ok {
		return nil
	}
	if v, ok := obj[field]; ok {
		return wrapChild(v)
	}
	if strings.HasPrefix(field, "value") && field != "value" {
		// already asked for a concrete choice suffix and it wasn't found verbatim
		return nil
	}
	for key, v := range obj {
		if strings.HasPrefix(key, field) && key != field && isChoiceSuffix(field, key) {
			return wrapChild(v)
		}
	}
	return nil
}

func isChoiceSuffix(base, key string) bool {
	if !strings.HasPrefix(key, base) {
		return false
	}
	rest := key[len(base):]
	return len(rest) > 0 && rest[0] >= 'A' && rest[0] <= 'Z'
}

func wrapChild(v any) []result.Value {
	switch x := v.(type) {
	case []any:
		out := make([]result.Value, len(x))
		for i, e := range x {
			out[i] = scalarOrResource(e)
		}
		return out
	default:
		return []result.Value{scalarOrResource(x)}
	}
}

func scalarOrResource(v any) result.Value {
	switch x := v.(type) {
	case nil:
		return result.NewNull(nil)
	case string:
		return result.NewString(x)
	case bool:
		return result.NewBoolean(x)
	case float64:
		return result.NewDecimal(result.NewDecimalFromFloat64(x))
	case map[string]any:
		return result.NewResource(NewNode(x))
	default:
		return result.NewNull(nil)
	}
}

// Children returns every direct child element (FHIRPath `children()`), one result.Value per
// field, arrays already flattened into their elements.
func (n *Node) Children() []result.Value {
	obj, ok := n.raw.(map[string]any)
	if !ok {
		return nil
	}
	var out []result.Value
	for _, v := range obj {
		out = append(out, wrapChild(v)...)
	}
	return out
}

// Descendants returns every element reachable from this node (FHIRPath `descendants()`): the
// direct children plus, recursively, their own children.
func (n *Node) Descendants() []result.Value {
	var out []result.Value
	for _, c := range n.Children() {
		out = append(out, c)
		if res, ok := c.GolangValue().(result.Resource); ok {
			if child, ok := res.(*Node); ok {
				out = append(out, child.Descendants()...)
			}
		}
	}
	return out
}

// Extension walks the `extension` array selecting entries whose `url` equals url, per spec.md
// §4.10 ("extension(url) walks extension[*] selecting matching urls").
func (n *Node) Extension(url string) []result.Value {
	obj, ok := n.raw.(map[string]any)
	if !ok {
		return nil
	}
	exts, _ := obj["extension"].([]any)
	var out []result.Value
	for _, e := range exts {
		eo, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if u, _ := eo["url"].(string); u == url {
			out = append(out, result.NewResource(NewNode(eo)))
		}
	}
	return out
}

// OfType reports whether this node's resourceType (for resources) or JSON shape (for primitives)
// matches name, per spec.md §4.10 ("ofType(T) filters by resourceType (resources) or by declared
// type (primitives)").
func (n *Node) OfType(name string) bool {
	if rt := n.ResourceType(); rt != "" {
		return rt == name
	}
	switch n.raw.(type) {
	case string:
		return name == "string" || name == "String"
	case bool:
		return name == "boolean" || name == "Boolean"
	case float64:
		return name == "integer" || name == "decimal" || name == "Integer" || name == "Decimal"
	default:
		return false
	}
}

// ReferenceString returns the `reference` element of a FHIR Reference node, or "" if this node
// isn't shaped like one.
func (n *Node) ReferenceString() string {
	obj, ok := n.raw.(map[string]any)
	if !ok {
		return ""
	}
	ref, _ := obj["reference"].(string)
	return ref
}

// Resolver is implemented by anything that can follow a FHIR reference string, satisfied by
// retriever.Retriever; kept as a local interface (rather than importing retriever) to avoid a
// fhir<->retriever import cycle, matching result.Resource's own cycle-avoidance pattern.
type Resolver interface {
	ResolveReference(ref string) (result.Value, bool)
}

// Resolve follows this node's `reference` element via resolver, per spec.md §4.10
// ("resolve() on a reference consults DataSource.resolve_reference").
func (n *Node) Resolve(resolver Resolver) (result.Value, bool) {
	ref := n.ReferenceString()
	if ref == "" {
		return result.NewNull(nil), false
	}
	return resolver.ResolveReference(ref)
}
