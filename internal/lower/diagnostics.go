package lower

import "fmt"

// Category names the diagnostic taxonomy emitted by lowering.
type Category string

// Categories, per spec.md §4.6/§7.
const (
	UnresolvedReference Category = "UnresolvedReference"
	UnresolvedInclude   Category = "UnresolvedInclude"
	CyclicInclude       Category = "CyclicInclude"
	CyclicDefinition    Category = "CyclicDefinition"
	TypeMismatch        Category = "TypeMismatch"
	AmbiguousOverload   Category = "AmbiguousOverload"
	ContextMismatch     Category = "ContextMismatch"
	DuplicateDefinition Category = "DuplicateDefinition"
)

// Diagnostic is one lowering-time finding.
type Diagnostic struct {
	Category Category
	Name     string // the offending name/op, for message formatting
	Detail   string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s: %s", d.Category, d.Name)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Category, d.Name, d.Detail)
}

// Diagnostics accumulates every finding from one lowering pass.
type Diagnostics []*Diagnostic

// Error implements the error interface, joining every diagnostic.
func (ds Diagnostics) Error() string {
	s := ""
	for i, d := range ds {
		if i > 0 {
			s += "\n"
		}
		s += d.Error()
	}
	return s
}

// HasErrors reports whether any diagnostic was recorded.
func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }

func (ds *Diagnostics) add(cat Category, name, detail string) {
	*ds = append(*ds, &Diagnostic{Category: cat, Name: name, Detail: detail})
}
