package convert

import (
	"errors"
	"testing"

	"github.com/clinical-elm/cql/types"
)

func TestMatchExactBeatsWidening(t *testing.T) {
	overloads := []Overload{
		{Operands: []types.IType{types.Integer}, Result: "IntVersion"},
		{Operands: []types.IType{types.Decimal}, Result: "DecimalVersion"},
	}
	got, err := Match([]types.IType{types.Integer}, overloads, "Test")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.Result != "IntVersion" {
		t.Errorf("Match(Integer) = %v, want IntVersion (exact beats widened)", got.Result)
	}
}

func TestMatchWidensWhenNoExact(t *testing.T) {
	overloads := []Overload{
		{Operands: []types.IType{types.Decimal}, Result: "DecimalVersion"},
	}
	got, err := Match([]types.IType{types.Integer}, overloads, "Test")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.Result != "DecimalVersion" {
		t.Errorf("Match = %v, want DecimalVersion", got.Result)
	}
	if len(got.ConvertedArgs) != 1 || got.ConvertedArgs[0] != 0 {
		t.Errorf("ConvertedArgs = %v, want [0]", got.ConvertedArgs)
	}
}

func TestMatchNoMatch(t *testing.T) {
	overloads := []Overload{{Operands: []types.IType{types.String}, Result: "StringVersion"}}
	_, err := Match([]types.IType{types.Integer}, overloads, "Test")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Match(Integer) against String overload: err = %v, want ErrNoMatch", err)
	}
}

func TestMatchAmbiguous(t *testing.T) {
	overloads := []Overload{
		{Operands: []types.IType{types.Any}, Result: "A"},
		{Operands: []types.IType{types.Any}, Result: "B"},
	}
	_, err := Match([]types.IType{types.Integer}, overloads, "Test")
	if !errors.Is(err, ErrAmbiguousMatch) {
		t.Errorf("Match with two identical Any overloads: err = %v, want ErrAmbiguousMatch", err)
	}
}

func TestMatchArityMismatchSkipped(t *testing.T) {
	overloads := []Overload{
		{Operands: []types.IType{types.Integer, types.Integer}, Result: "Two"},
		{Operands: []types.IType{types.Integer}, Result: "One"},
	}
	got, err := Match([]types.IType{types.Integer}, overloads, "Test")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.Result != "One" {
		t.Errorf("Match = %v, want One", got.Result)
	}
}

func TestExactMatchRejectsWidening(t *testing.T) {
	overloads := []Overload{{Operands: []types.IType{types.Decimal}, Result: "DecimalVersion"}}
	_, err := ExactMatch([]types.IType{types.Integer}, overloads, "Test")
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("ExactMatch(Integer) against Decimal overload: err = %v, want ErrNoMatch", err)
	}
}

func TestExactMatchSucceeds(t *testing.T) {
	overloads := []Overload{{Operands: []types.IType{types.Integer}, Result: "IntVersion"}}
	got, err := ExactMatch([]types.IType{types.Integer}, overloads, "Test")
	if err != nil {
		t.Fatalf("ExactMatch: %v", err)
	}
	if got.Result != "IntVersion" {
		t.Errorf("ExactMatch = %v, want IntVersion", got.Result)
	}
}
