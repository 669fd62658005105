package terminology

import (
	"errors"
	"testing"
)

type fakeTransport struct {
	validateMember  bool
	validateDisplay string
	validateErr     error
	expandPairs     []string
	expandErr       error
}

func (f *fakeTransport) ValidateCode(url, system, code string) (bool, string, error) {
	return f.validateMember, f.validateDisplay, f.validateErr
}

func (f *fakeTransport) Expand(url string) ([]string, error) {
	return f.expandPairs, f.expandErr
}

func TestRemoteValidateCode(t *testing.T) {
	r := NewRemote(&fakeTransport{validateMember: true, validateDisplay: "Diabetes"})
	member, display, err := r.ValidateCode("http://example.org/vs/diabetes", "sys", "code")
	if err != nil || !member || display != "Diabetes" {
		t.Errorf("ValidateCode = (%v, %q, %v), want (true, Diabetes, nil)", member, display, err)
	}
}

func TestRemoteMemberOf(t *testing.T) {
	r := NewRemote(&fakeTransport{validateMember: true})
	member, err := r.MemberOf("sys", "code", "http://example.org/vs/diabetes")
	if err != nil || !member {
		t.Errorf("MemberOf = (%v, %v), want (true, nil)", member, err)
	}
}

func TestRemoteSubsumes(t *testing.T) {
	r := NewRemote(&fakeTransport{})
	if sub, _ := r.Subsumes("sys", "a", "a"); sub != Equivalent {
		t.Errorf("Subsumes(same code) = %v, want Equivalent", sub)
	}
	if sub, _ := r.Subsumes("sys", "a", "b"); sub != NotSubsumed {
		t.Errorf("Subsumes(different codes) = %v, want NotSubsumed", sub)
	}
}

func TestRemoteExpand(t *testing.T) {
	r := NewRemote(&fakeTransport{expandPairs: []string{"http://snomed.info/sct|44054006"}})
	codes, err := r.Expand("http://example.org/vs/diabetes")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(codes) != 1 || codes[0].System != "http://snomed.info/sct" || codes[0].Code != "44054006" {
		t.Errorf("Expand = %+v, want one parsed code", codes)
	}
}

func TestRemoteExpandError(t *testing.T) {
	wantErr := errors.New("boom")
	r := NewRemote(&fakeTransport{expandErr: wantErr})
	if _, err := r.Expand("http://example.org/vs/diabetes"); !errors.Is(err, wantErr) {
		t.Errorf("Expand error = %v, want wrapping %v", err, wantErr)
	}
}
