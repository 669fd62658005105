package model

// Every type below is a thin alias over Unary/Binary/NaryExpression distinguishing the concrete
// ELM operator kind for the interpreter's dispatcher (C8) type switch; GetName() (inherited from
// the embedded base) already carries the same tag for diagnostics, so no per-type method is
// needed. Grouped by spec.md §4.7 operator family.

// --- arithmetic (binary) ---

// Add is `+`.
type Add struct{ *BinaryExpression }

// Subtract is `-`.
type Subtract struct{ *BinaryExpression }

// Multiply is `*`.
type Multiply struct{ *BinaryExpression }

// Divide is `/`.
type Divide struct{ *BinaryExpression }

// TruncatedDivide is `div`.
type TruncatedDivide struct{ *BinaryExpression }

// Modulo is `mod`.
type Modulo struct{ *BinaryExpression }

// Power is `^`.
type Power struct{ *BinaryExpression }

// --- arithmetic (unary) ---

// Negate is unary `-`.
type Negate struct{ *UnaryExpression }

// Abs is `abs`.
type Abs struct{ *UnaryExpression }

// Ceiling is `ceiling`.
type Ceiling struct{ *UnaryExpression }

// Floor is `floor`.
type Floor struct{ *UnaryExpression }

// Truncate is `truncate`.
type Truncate struct{ *UnaryExpression }

// Round rounds to an optional precision operand; Operands[1] is nil when unspecified.
type Round struct{ *NaryExpression }

// Sqrt is `sqrt`.
type Sqrt struct{ *UnaryExpression }

// Ln is `ln`.
type Ln struct{ *UnaryExpression }

// Log is `log(arg, base)`.
type Log struct{ *BinaryExpression }

// Exp is `exp`.
type Exp struct{ *UnaryExpression }

// Predecessor is `predecessor of`.
type Predecessor struct{ *UnaryExpression }

// Successor is `successor of`.
type Successor struct{ *UnaryExpression }

// MinValue is the type-indexed minimum literal (`minimum Integer`, ...); Operand is absent, the
// target type lives on Element.ResultType after lowering.
type MinValue struct{ *UnaryExpression }

// MaxValue is the type-indexed maximum literal.
type MaxValue struct{ *UnaryExpression }

// --- comparison ---

// Equal is `=`.
type Equal struct{ *BinaryExpression }

// NotEqual is `!=`.
type NotEqual struct{ *BinaryExpression }

// Equivalent is `~`.
type Equivalent struct{ *BinaryExpression }

// NotEquivalent is `!~`.
type NotEquivalent struct{ *BinaryExpression }

// Less is `<`.
type Less struct{ *BinaryExpression }

// Greater is `>`.
type Greater struct{ *BinaryExpression }

// LessOrEqual is `<=`.
type LessOrEqual struct{ *BinaryExpression }

// GreaterOrEqual is `>=`.
type GreaterOrEqual struct{ *BinaryExpression }

// --- logic (Kleene three-valued) ---

// And is `and`.
type And struct{ *BinaryExpression }

// Or is `or`.
type Or struct{ *BinaryExpression }

// Xor is `xor`.
type Xor struct{ *BinaryExpression }

// Implies is `implies`.
type Implies struct{ *BinaryExpression }

// Not is `not`.
type Not struct{ *UnaryExpression }

// --- nullological ---

// IsNull is `is null`.
type IsNull struct{ *UnaryExpression }

// IsTrue is `is true`.
type IsTrue struct{ *UnaryExpression }

// IsFalse is `is false`.
type IsFalse struct{ *UnaryExpression }

// Coalesce is `Coalesce(a, b, ...)`.
type Coalesce struct{ *NaryExpression }

// --- string ---

// Concatenate is FHIRPath `|` string concatenation / CQL `Combine` on two strings.
type Concatenate struct{ *NaryExpression }

// StartsWith is `starts with`.
type StartsWith struct{ *BinaryExpression }

// EndsWith is `ends with`.
type EndsWith struct{ *BinaryExpression }

// StringContains is `contains` applied to a String operand (as opposed to the collection
// Contains below); named to avoid colliding with the collection operator.
type StringContains struct{ *BinaryExpression }

// Matches is `matches` (regex).
type Matches struct{ *BinaryExpression }

// ReplaceMatches is `replace matches`, taking (string, pattern, replacement).
type ReplaceMatches struct{ *NaryExpression }

// Length is `length` (string or list).
type Length struct{ *UnaryExpression }

// Upper is `upper`.
type Upper struct{ *UnaryExpression }

// Lower is `lower`.
type Lower struct{ *UnaryExpression }

// Trim strips leading/trailing whitespace.
type Trim struct{ *UnaryExpression }

// Split takes (string, separator).
type Split struct{ *BinaryExpression }

// Join takes (list<string>, separator).
type Join struct{ *BinaryExpression }

// Indexer is `[]` indexing into a String or List.
type Indexer struct{ *BinaryExpression }

// IndexOf takes (list, element) or (string, substring).
type IndexOf struct{ *BinaryExpression }

// Substring takes (string, startIndex[, length]).
type Substring struct{ *NaryExpression }

// ToChars splits a string into a list of single-character strings.
type ToChars struct{ *UnaryExpression }

// --- collection ---

// ListExists is `exists`.
type ListExists struct{ *UnaryExpression }

// First is `first from`.
type First struct{ *UnaryExpression }

// Last is `last from`.
type Last struct{ *UnaryExpression }

// Tail drops the first element.
type Tail struct{ *UnaryExpression }

// Skip drops the first N elements; Operands[1] is the count.
type Skip struct{ *BinaryExpression }

// Take keeps the first N elements; Operands[1] is the count.
type Take struct{ *BinaryExpression }

// SingletonFrom unwraps a one-element list, erroring (per the ELM contract caught by the node)
// when the list has more than one element.
type SingletonFrom struct{ *UnaryExpression }

// Distinct removes duplicate elements, preserving first occurrence order.
type Distinct struct{ *UnaryExpression }

// Flatten flattens a list of lists by one level.
type Flatten struct{ *UnaryExpression }

// Combine concatenates two lists, or joins a list<String> with an optional separator (shares the
// ELM Combine tag with the string form; the interpreter dispatches on operand static type).
type Combine struct{ *NaryExpression }

// IsDistinct reports whether a list has no duplicate elements.
type IsDistinct struct{ *UnaryExpression }

// Union is `union`.
type Union struct{ *BinaryExpression }

// Intersect is `intersect`.
type Intersect struct{ *BinaryExpression }

// Except is `except`.
type Except struct{ *BinaryExpression }

// In is `x in collection` (the parser also produces it for `x in <interval>`; it carries no
// precision).
type In struct{ *BinaryExpression }

// Contains is `collection contains x`.
type Contains struct{ *BinaryExpression }

// SubsetOf reports whether the left list's elements are all in the right list.
type SubsetOf struct{ *BinaryExpression }

// SupersetOf reports whether the right list's elements are all in the left list.
type SupersetOf struct{ *BinaryExpression }

// ProperIn is strict containment (`in`, excluding equality of the two collections).
type ProperIn struct{ *BinaryExpression }

// ProperContains is strict reverse containment.
type ProperContains struct{ *BinaryExpression }

// Slice is `list[start, end]`-style ELM Slice (distinct from the FHIRPath Indexer single-element
// form above).
type Slice struct{ *NaryExpression }

// --- aggregate ---

// Count is `Count(list)`.
type Count struct{ *UnaryExpression }

// Sum is `Sum(list)`.
type Sum struct{ *UnaryExpression }

// Avg is `Avg(list)`.
type Avg struct{ *UnaryExpression }

// Min is `Min(list)`.
type Min struct{ *UnaryExpression }

// Max is `Max(list)`.
type Max struct{ *UnaryExpression }

// Median is `Median(list)`.
type Median struct{ *UnaryExpression }

// Mode is `Mode(list)`.
type Mode struct{ *UnaryExpression }

// StdDev is `StdDev(list)` (sample standard deviation).
type StdDev struct{ *UnaryExpression }

// Variance is `Variance(list)`.
type Variance struct{ *UnaryExpression }

// PopulationStdDev is `PopulationStdDev(list)`.
type PopulationStdDev struct{ *UnaryExpression }

// PopulationVariance is `PopulationVariance(list)`.
type PopulationVariance struct{ *UnaryExpression }

// GeometricMean is `GeometricMean(list)`.
type GeometricMean struct{ *UnaryExpression }

// Product is `Product(list)`.
type Product struct{ *UnaryExpression }

// AllTrue is `AllTrue(list<Boolean>)`.
type AllTrue struct{ *UnaryExpression }

// AnyTrue is `AnyTrue(list<Boolean>)`.
type AnyTrue struct{ *UnaryExpression }

// --- type ---

// ConvertsToBoolean etc. report whether ToX would succeed without erroring; TargetName names the
// type each concrete ConvertsTo* probes for.
type ConvertsTo struct {
	*UnaryExpression
	TargetName string
}

// --- quantity/interval conversion ---

// ConvertQuantity is `ConvertQuantity(quantity, unit)`.
type ConvertQuantity struct{ *BinaryExpression }

// CanConvertQuantity is `CanConvertQuantity(quantity, unit)`.
type CanConvertQuantity struct{ *BinaryExpression }
