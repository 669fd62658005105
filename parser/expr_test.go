package parser

import (
	"testing"

	"github.com/clinical-elm/cql/model"
)

func TestParseExpressionArithmeticPrecedence(t *testing.T) {
	expr, diags := ParseExpression("1 + 2 * 3")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	add, ok := expr.(*model.Add)
	if !ok {
		t.Fatalf("top node = %T, want *model.Add", expr)
	}
	mul, ok := add.Right().(*model.Multiply)
	if !ok {
		t.Fatalf("right operand = %T, want *model.Multiply (precedence)", add.Right())
	}
	lit, ok := mul.Left().(*model.Literal)
	if !ok || lit.Value != "2" {
		t.Errorf("Multiply.Left() = %v, want Literal(2)", mul.Left())
	}
}

func TestParseExpressionPowerIsRightAssociative(t *testing.T) {
	expr, diags := ParseExpression("2 ^ 3 ^ 2")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	outer, ok := expr.(*model.Power)
	if !ok {
		t.Fatalf("top node = %T, want *model.Power", expr)
	}
	if _, ok := outer.Right().(*model.Power); !ok {
		t.Errorf("right-associative power: Right() = %T, want *model.Power", outer.Right())
	}
	if _, ok := outer.Left().(*model.Literal); !ok {
		t.Errorf("right-associative power: Left() = %T, want *model.Literal", outer.Left())
	}
}

func TestParseExpressionBooleanAndOr(t *testing.T) {
	expr, diags := ParseExpression("true and false or true")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	or, ok := expr.(*model.Or)
	if !ok {
		t.Fatalf("top node = %T, want *model.Or (and binds tighter)", expr)
	}
	if _, ok := or.Left().(*model.And); !ok {
		t.Errorf("Or.Left() = %T, want *model.And", or.Left())
	}
}

func TestParseExpressionComparison(t *testing.T) {
	expr, diags := ParseExpression("1 < 2")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	if _, ok := expr.(*model.Less); !ok {
		t.Fatalf("top node = %T, want *model.Less", expr)
	}
}

func TestParseExpressionParenthesized(t *testing.T) {
	expr, diags := ParseExpression("(1 + 2) * 3")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	mul, ok := expr.(*model.Multiply)
	if !ok {
		t.Fatalf("top node = %T, want *model.Multiply", expr)
	}
	if _, ok := mul.Left().(*model.Add); !ok {
		t.Errorf("Multiply.Left() = %T, want *model.Add (parens override precedence)", mul.Left())
	}
}

func TestParseExpressionEmptySource(t *testing.T) {
	expr, diags := ParseExpression("")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression(\"\"): %v", diags)
	}
	lit, ok := expr.(*model.Literal)
	if !ok || lit.Value != "" {
		t.Errorf("ParseExpression(\"\") = %v, want empty Literal", expr)
	}
}

func TestParseExpressionIncompleteInputIsError(t *testing.T) {
	_, diags := ParseExpression("1 +")
	if !diags.HasErrors() {
		t.Error("ParseExpression(\"1 +\"): want error, got none")
	}
}

func TestParseExpressionListLiteral(t *testing.T) {
	expr, diags := ParseExpression("{1, 2, 3}")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	list, ok := expr.(*model.List)
	if !ok {
		t.Fatalf("top node = %T, want *model.List", expr)
	}
	if len(list.List) != 3 {
		t.Errorf("list length = %d, want 3", len(list.List))
	}
}

func TestParseExpressionIf(t *testing.T) {
	expr, diags := ParseExpression("if true then 1 else 2")
	if diags.HasErrors() {
		t.Fatalf("ParseExpression: %v", diags)
	}
	ifExpr, ok := expr.(*model.If)
	if !ok {
		t.Fatalf("top node = %T, want *model.If", expr)
	}
	if _, ok := ifExpr.Then.(*model.Literal); !ok {
		t.Errorf("If.Then = %T, want *model.Literal", ifExpr.Then)
	}
}
