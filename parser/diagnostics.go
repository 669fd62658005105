// Package parser implements the recursive-descent/Pratt parser (C6) for both FHIRPath and CQL
// surface syntax, producing the shared model.IExpression/model.Library tree. Per spec.md §4.5 the
// parser never returns partial success: ParseLibrary/ParseExpression always hand back a complete
// tree (possibly containing best-effort placeholder nodes) alongside a Diagnostics list that is
// empty exactly when parsing was clean.
package parser

import (
	"fmt"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity int

// Severities.
const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one parse-time finding, part of the §7 `ParseError{span,expected,found}` /
// `LexError{line,col,reason}` taxonomy entries.
type Diagnostic struct {
	Severity Severity
	Line, Col int
	Message  string
}

// Error implements the error interface for a single Diagnostic.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Col, d.Message)
}

// Diagnostics is an accumulated list of parse/lex findings. A nil or empty Diagnostics is treated
// as "no error" by Parser callers; a non-empty one implements error so a caller that wants to
// treat compilation as all-or-nothing can do so with a single err != nil check, while a caller
// that wants every finding can range over it directly.
type Diagnostics []*Diagnostic

// Error implements the error interface, joining every diagnostic onto its own line.
func (ds Diagnostics) Error() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.Error()
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether ds contains at least one SeverityError entry.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (ds *Diagnostics) addf(line, col int, format string, args ...any) {
	*ds = append(*ds, &Diagnostic{Severity: SeverityError, Line: line, Col: col, Message: fmt.Sprintf(format, args...)})
}
