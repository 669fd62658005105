package model

// Precision is an optional calendar-precision argument carried by the temporal/interval
// comparison operators below (`before 3 months`, `same day as`); empty means "default precision
// for the point type".
type Precision string

// IntervalOp is the base for binary interval/temporal relation operators that additionally carry
// a Precision, mirroring the teacher's BinaryExpressionWithPrecision.
type IntervalOp struct {
	*BinaryExpression
	Precision Precision
}

// Before is Allen "before".
type Before struct{ *IntervalOp }

// After is Allen "after".
type After struct{ *IntervalOp }

// SameOrBefore is "same or before".
type SameOrBefore struct{ *IntervalOp }

// SameOrAfter is "same or after".
type SameOrAfter struct{ *IntervalOp }

// Meets is Allen "meets".
type Meets struct{ *IntervalOp }

// MeetsBefore is "meets before".
type MeetsBefore struct{ *IntervalOp }

// MeetsAfter is "meets after".
type MeetsAfter struct{ *IntervalOp }

// Overlaps is Allen "overlaps".
type Overlaps struct{ *IntervalOp }

// OverlapsBefore is "overlaps before".
type OverlapsBefore struct{ *IntervalOp }

// OverlapsAfter is "overlaps after".
type OverlapsAfter struct{ *IntervalOp }

// Starts is Allen "starts".
type Starts struct{ *IntervalOp }

// Ends is Allen "ends".
type Ends struct{ *IntervalOp }

// During is `x during interval` (equivalent to IncludedIn for point-in-interval).
type During struct{ *IntervalOp }

// IncludedIn is `included in`.
type IncludedIn struct{ *IntervalOp }

// Includes is `includes` (reverse of IncludedIn).
type Includes struct{ *IntervalOp }

// DifferenceBetween is `difference in <precision> between a and b`.
type DifferenceBetween struct{ *IntervalOp }

// DurationBetween is `duration in <precision> between a and b`.
type DurationBetween struct{ *IntervalOp }

// Width is `width of interval`.
type Width struct{ *UnaryExpression }

// Start is `start of interval`.
type Start struct{ *UnaryExpression }

// End is `end of interval`.
type End struct{ *UnaryExpression }

// PointFrom unwraps a one-point interval to its point value.
type PointFrom struct{ *UnaryExpression }

// Collapse merges overlapping/adjacent intervals in a list into their union.
type Collapse struct{ *BinaryExpression }

// Expand expands a list of intervals to a list of unit-width intervals (per-precision) covering
// the same range; Operands[1] is the optional per-unit Quantity.
type Expand struct{ *BinaryExpression }
