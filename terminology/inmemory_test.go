package terminology

import (
	"errors"
	"testing"

	"github.com/clinical-elm/cql/result"
)

const diabetesExpansion = `{
	"resourceType": "ValueSet",
	"url": "http://example.org/vs/diabetes",
	"expansion": {
		"contains": [
			{"system": "http://snomed.info/sct", "code": "44054006", "display": "Diabetes mellitus type 2"}
		]
	}
}`

const diabetesCompose = `{
	"resourceType": "ValueSet",
	"url": "http://example.org/vs/diabetes-compose",
	"compose": {
		"include": [
			{"system": "http://snomed.info/sct", "concept": [{"code": "44054006", "display": "T2DM"}]}
		]
	}
}`

func TestLoadValueSetExpansionAndValidateCode(t *testing.T) {
	p := NewInMemory()
	if err := p.LoadValueSet(diabetesExpansion); err != nil {
		t.Fatalf("LoadValueSet: %v", err)
	}
	member, display, err := p.ValidateCode("http://example.org/vs/diabetes", "http://snomed.info/sct", "44054006")
	if err != nil {
		t.Fatalf("ValidateCode: %v", err)
	}
	if !member || display != "Diabetes mellitus type 2" {
		t.Errorf("ValidateCode = (%v, %q), want (true, Diabetes mellitus type 2)", member, display)
	}
}

func TestLoadValueSetComposeFallback(t *testing.T) {
	p := NewInMemory()
	if err := p.LoadValueSet(diabetesCompose); err != nil {
		t.Fatalf("LoadValueSet: %v", err)
	}
	member, _, err := p.ValidateCode("http://example.org/vs/diabetes-compose", "http://snomed.info/sct", "44054006")
	if err != nil || !member {
		t.Errorf("ValidateCode via compose = (%v, %v), want (true, nil)", member, err)
	}
}

func TestValidateCodeNonMember(t *testing.T) {
	p := NewInMemory()
	if err := p.LoadValueSet(diabetesExpansion); err != nil {
		t.Fatalf("LoadValueSet: %v", err)
	}
	member, _, err := p.ValidateCode("http://example.org/vs/diabetes", "http://snomed.info/sct", "other-code")
	if err != nil {
		t.Fatalf("ValidateCode: %v", err)
	}
	if member {
		t.Error("ValidateCode(other-code) = true, want false")
	}
}

func TestValidateCodeUnknownValueSet(t *testing.T) {
	p := NewInMemory()
	_, _, err := p.ValidateCode("http://example.org/vs/unknown", "sys", "code")
	if !errors.Is(err, result.ErrTerminology) {
		t.Errorf("err = %v, want ErrTerminology", err)
	}
}

func TestMemberOf(t *testing.T) {
	p := NewInMemory()
	if err := p.LoadValueSet(diabetesExpansion); err != nil {
		t.Fatalf("LoadValueSet: %v", err)
	}
	member, err := p.MemberOf("http://snomed.info/sct", "44054006", "http://example.org/vs/diabetes")
	if err != nil || !member {
		t.Errorf("MemberOf = (%v, %v), want (true, nil)", member, err)
	}
}

func TestSubsumesIdenticalCodes(t *testing.T) {
	p := NewInMemory()
	sub, err := p.Subsumes("http://snomed.info/sct", "44054006", "44054006")
	if err != nil || sub != Equivalent {
		t.Errorf("Subsumes(same code) = (%v, %v), want (Equivalent, nil)", sub, err)
	}
}

func TestSubsumesDifferentCodes(t *testing.T) {
	p := NewInMemory()
	sub, err := p.Subsumes("http://snomed.info/sct", "44054006", "other")
	if err != nil || sub != NotSubsumed {
		t.Errorf("Subsumes(different codes) = (%v, %v), want (NotSubsumed, nil)", sub, err)
	}
}

func TestExpand(t *testing.T) {
	p := NewInMemory()
	if err := p.LoadValueSet(diabetesExpansion); err != nil {
		t.Fatalf("LoadValueSet: %v", err)
	}
	codes, err := p.Expand("http://example.org/vs/diabetes")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(codes) != 1 || codes[0].Code != "44054006" || codes[0].System != "http://snomed.info/sct" {
		t.Errorf("Expand = %+v, want one matching code", codes)
	}
}

func TestExpandUnknownValueSet(t *testing.T) {
	p := NewInMemory()
	if _, err := p.Expand("http://example.org/vs/unknown"); !errors.Is(err, result.ErrTerminology) {
		t.Errorf("err = %v, want ErrTerminology", err)
	}
}

func TestLoadValueSetInvalidJSON(t *testing.T) {
	p := NewInMemory()
	if err := p.LoadValueSet("not json"); err == nil {
		t.Error("LoadValueSet(invalid JSON): want error, got nil")
	}
}

func TestLoadValueSetWrongResourceType(t *testing.T) {
	p := NewInMemory()
	err := p.LoadValueSet(`{"resourceType": "Patient"}`)
	if err == nil {
		t.Error("LoadValueSet(Patient): want error, got nil")
	}
}
