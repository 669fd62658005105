package result

import "testing"

func TestDecimalFromString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{"1.5", "1.5"},
		{"-3.25", "-3.25"},
		{"0.1", "0.1"},
		{"100", "100"},
	}
	for _, tc := range tests {
		d, err := NewDecimalFromString(tc.in)
		if err != nil {
			t.Fatalf("NewDecimalFromString(%q): %v", tc.in, err)
		}
		if got := d.String(); got != tc.want {
			t.Errorf("NewDecimalFromString(%q).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecimalFromStringInvalid(t *testing.T) {
	if _, err := NewDecimalFromString("not-a-number"); err == nil {
		t.Error("NewDecimalFromString(\"not-a-number\"): want error, got nil")
	}
}

func TestDecimalArithmetic(t *testing.T) {
	a := must(NewDecimalFromString("10.5"))
	b := must(NewDecimalFromString("3"))

	if got := a.Add(b).String(); got != "13.5" {
		t.Errorf("Add = %q, want 13.5", got)
	}
	if got := a.Sub(b).String(); got != "7.5" {
		t.Errorf("Sub = %q, want 7.5", got)
	}
	if got := a.Mul(b).String(); got != "31.5" {
		t.Errorf("Mul = %q, want 31.5", got)
	}
	if got := a.Div(b).String(); got != "3.5" {
		t.Errorf("Div = %q, want 3.5", got)
	}
}

func TestDecimalDivByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Div by zero: want panic, got none")
		}
	}()
	a := NewDecimalFromInt64(1)
	zero := NewDecimalFromInt64(0)
	a.Div(zero)
}

func TestDecimalBankersRounding(t *testing.T) {
	// 5/2 is exact within 8 fractional digits; 1/3 is cut to 8 fractional digits.
	tests := []struct {
		num, den int64
		want     string
	}{
		{5, 2, "2.5"},
		{1, 3, "0.33333333"},
	}
	for _, tc := range tests {
		d := NewDecimalFromInt64(tc.num).Div(NewDecimalFromInt64(tc.den))
		if got := d.String(); got != tc.want {
			t.Errorf("%d/%d = %q, want %q", tc.num, tc.den, got, tc.want)
		}
	}
}

func TestDecimalCmpAndSign(t *testing.T) {
	a := NewDecimalFromInt64(5)
	b := NewDecimalFromInt64(10)
	if a.Cmp(b) >= 0 {
		t.Error("5.Cmp(10) should be negative")
	}
	if a.Sign() != 1 {
		t.Error("5.Sign() should be 1")
	}
	if NewDecimalFromInt64(0).Sign() != 0 {
		t.Error("0.Sign() should be 0")
	}
	if a.Neg().Sign() != -1 {
		t.Error("-5.Sign() should be -1")
	}
}

func must(d Decimal, err error) Decimal {
	if err != nil {
		panic(err)
	}
	return d
}
