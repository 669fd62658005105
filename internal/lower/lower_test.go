package lower

import (
	"testing"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/parser"
	"github.com/clinical-elm/cql/types"
)

func lowerSource(t *testing.T, src string) (*model.Library, Diagnostics) {
	t.Helper()
	lib, pdiags := parser.ParseLibrary(src)
	if pdiags.HasErrors() {
		t.Fatalf("ParseLibrary: %v", pdiags)
	}
	return New(nil).Lower(lib)
}

func TestLowerAssignsArithmeticResultType(t *testing.T) {
	lib, diags := lowerSource(t, `define X: 1 + 2`)
	if diags.HasErrors() {
		t.Fatalf("Lower: %v", diags)
	}
	x := lib.DefByName("X")
	if got := x.GetExpression().GetResultType(); !got.Equal(types.System(types.Integer)) {
		t.Errorf("X result type = %v, want Integer", got)
	}
}

func TestLowerResolvesForwardReference(t *testing.T) {
	lib, diags := lowerSource(t, "define Y: X + 1\ndefine X: 1")
	if diags.HasErrors() {
		t.Fatalf("Lower: %v", diags)
	}
	y := lib.DefByName("Y")
	add, ok := y.GetExpression().(*model.Add)
	if !ok {
		t.Fatalf("Y expression = %T, want *model.Add", y.GetExpression())
	}
	if _, ok := add.Left().(*model.ExpressionRef); !ok {
		t.Errorf("Y's reference to X = %T, want *model.ExpressionRef (resolved)", add.Left())
	}
}

func TestLowerDuplicateDefinitionDiagnostic(t *testing.T) {
	_, diags := lowerSource(t, "define X: 1\ndefine X: 2")
	if !diags.HasErrors() {
		t.Fatal("duplicate define X: want a diagnostic, got none")
	}
	found := false
	for _, d := range diags {
		if d.Category == DuplicateDefinition {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want a DuplicateDefinition entry", diags)
	}
}

func TestLowerCyclicDefinitionDiagnostic(t *testing.T) {
	_, diags := lowerSource(t, "define X: Y + 1\ndefine Y: X + 1")
	if !diags.HasErrors() {
		t.Fatal("cyclic X <-> Y: want a diagnostic, got none")
	}
	found := false
	for _, d := range diags {
		if d.Category == CyclicDefinition {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %v, want a CyclicDefinition entry", diags)
	}
}

func TestLowerFunctionOperandAliasing(t *testing.T) {
	lib, diags := lowerSource(t, "define function Double(x Integer): x * 2")
	if diags.HasErrors() {
		t.Fatalf("Lower: %v", diags)
	}
	fd := lib.DefByName("Double").(*model.FunctionDef)
	mul, ok := fd.Expression.(*model.Multiply)
	if !ok {
		t.Fatalf("function body = %T, want *model.Multiply", fd.Expression)
	}
	if _, ok := mul.Left().(*model.AliasRef); !ok {
		t.Errorf("operand reference x = %T, want *model.AliasRef", mul.Left())
	}
}
