package reference

import "testing"

func TestDefineAndResolveLocal(t *testing.T) {
	r := NewResolver[int]()
	r.SetCurrentLibrary("Main", "")
	if err := r.Define("X", 1, true); err != nil {
		t.Fatalf("Define: %v", err)
	}
	got, err := r.ResolveLocal("X")
	if err != nil || got != 1 {
		t.Errorf("ResolveLocal(X) = (%v, %v), want (1, nil)", got, err)
	}
}

func TestDefineDuplicateFails(t *testing.T) {
	r := NewResolver[int]()
	r.SetCurrentLibrary("Main", "")
	if err := r.Define("X", 1, true); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := r.Define("X", 2, true); err == nil {
		t.Error("Define(X) twice: want error, got nil")
	}
}

func TestResolveLocalUnknownFails(t *testing.T) {
	r := NewResolver[int]()
	r.SetCurrentLibrary("Main", "")
	if _, err := r.ResolveLocal("Missing"); err == nil {
		t.Error("ResolveLocal(Missing): want error, got nil")
	}
}

func TestAliasScoping(t *testing.T) {
	r := NewResolver[string]()
	r.SetCurrentLibrary("Main", "")
	r.EnterScope()
	if err := r.Alias("P", "patient-alias"); err != nil {
		t.Fatalf("Alias: %v", err)
	}
	got, err := r.ResolveLocal("P")
	if err != nil || got != "patient-alias" {
		t.Errorf("ResolveLocal(P) = (%v, %v), want (patient-alias, nil)", got, err)
	}
	r.ExitScope()
	if _, err := r.ResolveLocal("P"); err == nil {
		t.Error("ResolveLocal(P) after ExitScope: want error, got nil")
	}
}

func TestNestedScopesShadow(t *testing.T) {
	r := NewResolver[int]()
	r.SetCurrentLibrary("Main", "")
	r.EnterScope()
	r.Alias("x", 1)
	r.EnterScope()
	r.Alias("x", 2)
	got, _ := r.ResolveLocal("x")
	if got != 2 {
		t.Errorf("inner scope should shadow: ResolveLocal(x) = %v, want 2", got)
	}
	r.ExitScope()
	got, _ = r.ResolveLocal("x")
	if got != 1 {
		t.Errorf("after ExitScope, outer binding should be visible: ResolveLocal(x) = %v, want 1", got)
	}
}

func TestIncludeAndResolveGlobal(t *testing.T) {
	r := NewResolver[int]()
	r.SetCurrentLibrary("Helper", "1.0.0")
	if err := r.Define("Shared", 42, true); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := r.Define("Hidden", 99, false); err != nil {
		t.Fatalf("Define: %v", err)
	}

	r.SetCurrentLibrary("Main", "")
	r.IncludeLibrary("H", "Helper", "1.0.0")

	got, err := r.ResolveGlobal("H", "Shared")
	if err != nil || got != 42 {
		t.Errorf("ResolveGlobal(H, Shared) = (%v, %v), want (42, nil)", got, err)
	}

	if _, err := r.ResolveGlobal("H", "Hidden"); err == nil {
		t.Error("ResolveGlobal(H, Hidden): want error (private), got nil")
	}

	if _, err := r.ResolveGlobal("Unknown", "Shared"); err == nil {
		t.Error("ResolveGlobal(Unknown, Shared): want error, got nil")
	}
}

func TestSetCurrentUnnamedIsolatesLibraries(t *testing.T) {
	r := NewResolver[int]()
	r.SetCurrentUnnamed()
	r.Define("X", 1, true)
	r.SetCurrentUnnamed()
	if _, err := r.ResolveLocal("X"); err == nil {
		t.Error("a second unnamed library should not see the first's definitions")
	}
}
