package result

import (
	"fmt"
	"math"
	"math/big"
)

// decimalScale is the number of fractional digits CQL Decimal guarantees, per spec.md §3
// ("8 fractional digits minimum, banker's rounding at narrowing") and §9 Open Question (ii).
const decimalScale = 8

var scaleFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(decimalScale), nil)

// Decimal is a fixed-point decimal with exactly decimalScale fractional digits, backed by a
// scaled big.Int so arithmetic never accumulates binary-float rounding error.
type Decimal struct {
	scaled *big.Int // value * 10^decimalScale
}

// NewDecimalFromFloat64 builds a Decimal from a float64, rounding to decimalScale digits using
// banker's rounding (round-half-to-even), matching spec.md §3's narrowing rule.
func NewDecimalFromFloat64(f float64) Decimal {
	scaled := f * math.Pow10(decimalScale)
	return Decimal{scaled: bankersRoundToInt(scaled)}
}

// NewDecimalFromString parses a decimal literal exactly, without a float64 round-trip.
func NewDecimalFromString(s string) (Decimal, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Decimal{}, fmt.Errorf("result: invalid decimal literal %q", s)
	}
	return decimalFromRat(r), nil
}

// NewDecimalFromInt64 builds an exact Decimal for a whole number.
func NewDecimalFromInt64(i int64) Decimal {
	return Decimal{scaled: new(big.Int).Mul(big.NewInt(i), scaleFactor)}
}

func decimalFromRat(r *big.Rat) Decimal {
	num := new(big.Int).Mul(r.Num(), scaleFactor)
	scaled := new(big.Int)
	rem := new(big.Int)
	scaled.QuoRem(num, r.Denom(), rem)
	// Round half to even using the remainder against the denominator.
	twice := new(big.Int).Mul(rem.Abs(rem), big.NewInt(2))
	cmp := twice.Cmp(r.Denom())
	if cmp > 0 || (cmp == 0 && scaled.Bit(0) == 1) {
		if r.Sign() < 0 {
			scaled.Sub(scaled, big.NewInt(1))
		} else {
			scaled.Add(scaled, big.NewInt(1))
		}
	}
	return Decimal{scaled: scaled}
}

func bankersRoundToInt(f float64) *big.Int {
	floor := math.Floor(f)
	diff := f - floor
	var rounded float64
	switch {
	case diff < 0.5:
		rounded = floor
	case diff > 0.5:
		rounded = floor + 1
	default:
		if math.Mod(floor, 2) == 0 {
			rounded = floor
		} else {
			rounded = floor + 1
		}
	}
	bi, _ := big.NewFloat(rounded).Int(nil)
	return bi
}

// Float64 returns the nearest float64 approximation, for display and for operators (sqrt, ln,
// power, trig) that the spec does not require exact decimal semantics for.
func (d Decimal) Float64() float64 {
	if d.scaled == nil {
		return 0
	}
	f := new(big.Float).SetInt(d.scaled)
	scale := new(big.Float).SetInt(scaleFactor)
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}

// Rat returns the exact rational value.
func (d Decimal) Rat() *big.Rat {
	if d.scaled == nil {
		return big.NewRat(0, 1)
	}
	return new(big.Rat).SetFrac(d.scaled, scaleFactor)
}

// Add returns d+o rounded to decimalScale digits.
func (d Decimal) Add(o Decimal) Decimal {
	return Decimal{scaled: new(big.Int).Add(d.scaledOrZero(), o.scaledOrZero())}
}

// Sub returns d-o.
func (d Decimal) Sub(o Decimal) Decimal {
	return Decimal{scaled: new(big.Int).Sub(d.scaledOrZero(), o.scaledOrZero())}
}

// Mul returns d*o rounded to decimalScale digits.
func (d Decimal) Mul(o Decimal) Decimal {
	return decimalFromRat(new(big.Rat).Mul(d.Rat(), o.Rat()))
}

// Div returns d/o rounded to decimalScale digits. Callers must check o.IsZero() first; Div
// panics on division by zero, matching CQL's DivisionByZero being a caller-level concern (the
// three-valued "/" operator in operator_arithmetic.go turns this into Null before calling Div).
func (d Decimal) Div(o Decimal) Decimal {
	if o.IsZero() {
		panic("result: Decimal division by zero")
	}
	return decimalFromRat(new(big.Rat).Quo(d.Rat(), o.Rat()))
}

// Neg returns -d.
func (d Decimal) Neg() Decimal { return Decimal{scaled: new(big.Int).Neg(d.scaledOrZero())} }

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool { return d.scaledOrZero().Sign() == 0 }

// Sign returns -1, 0 or 1.
func (d Decimal) Sign() int { return d.scaledOrZero().Sign() }

// Cmp returns -1, 0 or 1 comparing d to o.
func (d Decimal) Cmp(o Decimal) int { return d.scaledOrZero().Cmp(o.scaledOrZero()) }

// Equal reports exact equality.
func (d Decimal) Equal(o Decimal) bool { return d.Cmp(o) == 0 }

func (d Decimal) scaledOrZero() *big.Int {
	if d.scaled == nil {
		return big.NewInt(0)
	}
	return d.scaled
}

// String renders the decimal with trailing zeros trimmed, but at least one fractional digit
// suppressed entirely for whole numbers (CQL prints "1" not "1.00000000").
func (d Decimal) String() string {
	neg := d.scaledOrZero().Sign() < 0
	abs := new(big.Int).Abs(d.scaledOrZero())
	s := abs.String()
	for len(s) <= decimalScale {
		s = "0" + s
	}
	intPart := s[:len(s)-decimalScale]
	fracPart := s[len(s)-decimalScale:]
	for len(fracPart) > 0 && fracPart[len(fracPart)-1] == '0' {
		fracPart = fracPart[:len(fracPart)-1]
	}
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}
