package model

// Today is `Today()`, evaluated once per evaluation per spec.md §4.2/§9 Open Question (iii).
type Today struct{ *Expression }

// Now is `Now()`.
type Now struct{ *Expression }

// TimeOfDay is `TimeOfDay()`.
type TimeOfDay struct{ *Expression }

// DateFrom extracts the Date component of a DateTime.
type DateFrom struct{ *UnaryExpression }

// TimeFrom extracts the Time component of a DateTime.
type TimeFrom struct{ *UnaryExpression }

// DateTimeComponentFrom extracts a single precision component (year/month/.../millisecond),
// recorded in Precision, from a Date/DateTime/Time.
type DateTimeComponentFrom struct {
	*UnaryExpression
	Precision Precision
}

// AgeInYears is `AgeInYears()`, CalculateAge against Today().
type AgeInYears struct{ *Expression }

// AgeInMonths is `AgeInMonths()`.
type AgeInMonths struct{ *Expression }

// AgeInDays is `AgeInDays()`.
type AgeInDays struct{ *Expression }

// CalculateAge computes AgeIn<Precision> as of Today() from a given birth date operand.
type CalculateAge struct {
	*UnaryExpression
	Precision Precision
}

// CalculateAgeAt computes AgeIn<Precision> as of an explicit "as of" date; Operands[1] is the
// as-of date.
type CalculateAgeAt struct {
	*BinaryExpression
	Precision Precision
}
