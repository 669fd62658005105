package result

// Code is a single coded value: a CQL System.Code, equivalent to a FHIR Coding.
type Code struct {
	System  string
	Code    string
	Version string
	Display string
}

// Equal reports exact equality of system+code+version (display is informational only, per the
// CQL specification's Code equality rules).
func (c Code) Equal(o Code) bool {
	return c.System == o.System && c.Code == o.Code && c.Version == o.Version
}

// Concept is a CQL System.Concept: optional free text plus one or more Codings.
type Concept struct {
	Text   string
	Coding []Code
}

// Equal reports exact equality (same text, same codings in the same order).
func (c Concept) Equal(o Concept) bool {
	if c.Text != o.Text || len(c.Coding) != len(o.Coding) {
		return false
	}
	for i := range c.Coding {
		if !c.Coding[i].Equal(o.Coding[i]) {
			return false
		}
	}
	return true
}

// HasCoding reports whether any of c's codings match system+code.
func (c Concept) HasCoding(system, code string) bool {
	for _, coding := range c.Coding {
		if coding.System == system && coding.Code == code {
			return true
		}
	}
	return false
}
