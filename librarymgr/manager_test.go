package librarymgr

import (
	"context"
	"errors"
	"testing"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func sourceMap(m map[string]string) SourceProvider {
	return func(name, version string) (string, bool) {
		src, ok := m[name]
		return src, ok
	}
}

func TestCompileSingleLibrary(t *testing.T) {
	m := New(sourceMap(map[string]string{
		"Main": "define X: 1 + 1",
	}))
	lib, diags, err := m.Compile(context.Background(), "Main", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("diagnostics: %v", diags)
	}
	if lib.DefByName("X") == nil {
		t.Error("compiled library missing define X")
	}
}

func TestCompileResolvesIncludeGraph(t *testing.T) {
	m := New(sourceMap(map[string]string{
		"Main": `
			include Helper called H
			define Y: H."X" + 1
		`,
		"Helper": "define X: 1",
	}))
	lib, diags, err := m.Compile(context.Background(), "Main", "")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if diags.HasErrors() {
		t.Fatalf("diagnostics: %v", diags)
	}
	if lib.DefByName("Y") == nil {
		t.Error("compiled root library missing define Y")
	}
}

func TestCompileUnresolvedIncludeDiagnostic(t *testing.T) {
	m := New(sourceMap(map[string]string{
		"Main": `include Missing called M`,
	}))
	_, diags, err := m.Compile(context.Background(), "Main", "")
	if err == nil {
		t.Fatal("Compile: want error for unresolved include, got nil")
	}
	if !errors.Is(err, result.ErrUnresolvedInclude) {
		t.Errorf("err = %v, want ErrUnresolvedInclude", err)
	}
	if !diags.HasErrors() {
		t.Error("diagnostics: want at least one entry")
	}
}

func TestCompileUnresolvedRootFails(t *testing.T) {
	m := New(sourceMap(map[string]string{}))
	_, _, err := m.Compile(context.Background(), "Main", "")
	if !errors.Is(err, result.ErrUnresolvedInclude) {
		t.Errorf("err = %v, want ErrUnresolvedInclude", err)
	}
}

func TestCompileCyclicIncludeFails(t *testing.T) {
	m := New(sourceMap(map[string]string{
		"A": `include B called Bee`,
		"B": `include A called Aye`,
	}))
	_, diags, err := m.Compile(context.Background(), "A", "")
	if !errors.Is(err, result.ErrCyclicInclude) {
		t.Errorf("err = %v, want ErrCyclicInclude", err)
	}
	if !diags.HasErrors() {
		t.Error("diagnostics: want at least one entry")
	}
}

func TestCompileCachesUnchangedLibrary(t *testing.T) {
	calls := 0
	src := func(name, version string) (string, bool) {
		calls++
		if name == "Main" {
			return "define X: 1", true
		}
		return "", false
	}
	m := New(src)
	if _, _, err := m.Compile(context.Background(), "Main", ""); err != nil {
		t.Fatalf("Compile 1: %v", err)
	}
	firstCalls := calls
	lib2, _, err := m.Compile(context.Background(), "Main", "")
	if err != nil {
		t.Fatalf("Compile 2: %v", err)
	}
	if lib2.DefByName("X") == nil {
		t.Error("cached library missing define X")
	}
	if calls <= firstCalls {
		t.Errorf("SourceProvider calls = %d after first compile (%d), want it called again to check content hash", calls, firstCalls)
	}
}

func TestInvalidateForcesRecompile(t *testing.T) {
	current := "define X: 1"
	m := New(func(name, version string) (string, bool) {
		if name == "Main" {
			return current, true
		}
		return "", false
	})
	lib1, _, err := m.Compile(context.Background(), "Main", "")
	if err != nil {
		t.Fatalf("Compile 1: %v", err)
	}
	if lib1.DefByName("X").GetExpression() == nil {
		t.Fatal("expected non-nil expression")
	}

	current = "define X: 2"
	m.Invalidate()
	lib2, _, err := m.Compile(context.Background(), "Main", "")
	if err != nil {
		t.Fatalf("Compile 2: %v", err)
	}
	lit, ok := lib2.DefByName("X").GetExpression().(*model.Literal)
	if !ok || lit.Value != "2" {
		t.Errorf("after Invalidate, X = %v, want Literal(2)", lib2.DefByName("X").GetExpression())
	}
}
