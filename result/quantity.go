package result

// Quantity is a CQL Quantity: a Decimal value with a UCUM unit code. Unit "1" denotes
// dimensionless, per spec.md §3.
type Quantity struct {
	Value Decimal
	Unit  string
}

// Ratio is a CQL Ratio of two Quantities.
type Ratio struct {
	Numerator   Quantity
	Denominator Quantity
}

// Equal reports exact equality (same value, same unit string; callers wanting dimensional
// equivalence across e.g. "g" and "kg" should convert via the ucum package first).
func (q Quantity) Equal(o Quantity) bool { return q.Unit == o.Unit && q.Value.Equal(o.Value) }

// Equal for Ratio.
func (r Ratio) Equal(o Ratio) bool {
	return r.Numerator.Equal(o.Numerator) && r.Denominator.Equal(o.Denominator)
}
