package parser

import (
	"testing"

	"github.com/clinical-elm/cql/model"
)

func TestParseLibraryHeader(t *testing.T) {
	lib, diags := ParseLibrary(`library Main version '1.0.0'`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	if lib.Identifier == nil || lib.Identifier.Local != "Main" || lib.Identifier.Version != "1.0.0" {
		t.Errorf("Identifier = %+v, want Main/1.0.0", lib.Identifier)
	}
}

func TestParseLibraryNoHeaderLeavesIdentifierNil(t *testing.T) {
	lib, diags := ParseLibrary(`define X: 1`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	if lib.Identifier != nil {
		t.Errorf("Identifier = %+v, want nil (no library header)", lib.Identifier)
	}
}

func TestParseLibraryDefines(t *testing.T) {
	lib, diags := ParseLibrary(`
		define X: 1 + 1
		define private Hidden: 2
		define public Shown: 3
	`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	if len(lib.Statements.Defs) != 3 {
		t.Fatalf("Defs = %d, want 3", len(lib.Statements.Defs))
	}
	x := lib.DefByName("X")
	if x == nil || x.GetAccessLevel() != model.Public {
		t.Errorf("X access = %v, want Public (default)", x.GetAccessLevel())
	}
	hidden := lib.DefByName("Hidden")
	if hidden == nil || hidden.GetAccessLevel() != model.Private {
		t.Errorf("Hidden access = %v, want Private", hidden.GetAccessLevel())
	}
}

func TestParseLibraryDelimitedDefineName(t *testing.T) {
	lib, diags := ParseLibrary(`define "My Measure": 1`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	if d := lib.DefByName("My Measure"); d == nil {
		t.Error(`DefByName("My Measure") = nil, want the define statement`)
	}
}

func TestParseLibraryFunctionDef(t *testing.T) {
	lib, diags := ParseLibrary(`define function Double(x Integer): x * 2`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	fd, ok := lib.DefByName("Double").(*model.FunctionDef)
	if !ok {
		t.Fatalf("Double = %T, want *model.FunctionDef", lib.DefByName("Double"))
	}
	if len(fd.Operands) != 1 || fd.Operands[0].Name != "x" {
		t.Errorf("Operands = %+v, want one operand named x", fd.Operands)
	}
	if fd.Expression == nil {
		t.Error("function body should not be nil")
	}
}

func TestParseLibraryExternalFunctionDef(t *testing.T) {
	lib, diags := ParseLibrary(`define function Ext(x Integer): external`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	fd := lib.DefByName("Ext").(*model.FunctionDef)
	if !fd.External {
		t.Error("External = false, want true")
	}
}

func TestParseLibraryContextTracking(t *testing.T) {
	lib, diags := ParseLibrary(`
		context Patient
		define X: 1
		context Unfiltered
		define Y: 2
	`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	x := lib.DefByName("X")
	y := lib.DefByName("Y")
	if x.GetContext() != "Patient" {
		t.Errorf("X context = %q, want Patient", x.GetContext())
	}
	if y.GetContext() != "Unfiltered" {
		t.Errorf("Y context = %q, want Unfiltered", y.GetContext())
	}
}

func TestParseLibraryInclude(t *testing.T) {
	lib, diags := ParseLibrary(`include Common version '1.0.0' called Helpers`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	if len(lib.Includes) != 1 || lib.Includes[0].Alias != "Helpers" {
		t.Errorf("Includes = %+v, want one include aliased Helpers", lib.Includes)
	}
}

func TestParseLibraryValuesetAndCodesystem(t *testing.T) {
	lib, diags := ParseLibrary(`
		codesystem "SNOMED": 'http://snomed.info/sct'
		valueset "Diabetes": 'http://example.org/vs/diabetes' codesystem { "SNOMED" }
	`)
	if diags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", diags)
	}
	if len(lib.CodeSystems) != 1 || lib.CodeSystems[0].ID != "http://snomed.info/sct" {
		t.Errorf("CodeSystems = %+v", lib.CodeSystems)
	}
	if len(lib.Valuesets) != 1 || lib.Valuesets[0].ID != "http://example.org/vs/diabetes" {
		t.Errorf("Valuesets = %+v", lib.Valuesets)
	}
}

func TestParseLibraryRecoversFromMalformedStatement(t *testing.T) {
	lib, diags := ParseLibrary(`
		%%% bogus %%%
		define X: 1
	`)
	if !diags.HasErrors() {
		t.Error("malformed leading tokens: want at least one diagnostic")
	}
	if lib.DefByName("X") == nil {
		t.Error("parser should recover and still parse the trailing define")
	}
}
