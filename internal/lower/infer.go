package lower

import (
	"strings"

	"github.com/clinical-elm/cql/types"
)

// booleanResultOps are operators whose result is always Boolean regardless of operand type.
var booleanResultOps = map[string]bool{
	"Not": true, "Exists": true, "IsNull": true, "IsTrue": true, "IsFalse": true,
	"Equal": true, "NotEqual": true, "Equivalent": true, "NotEquivalent": true,
	"Less": true, "Greater": true, "LessOrEqual": true, "GreaterOrEqual": true,
	"And": true, "Or": true, "Xor": true, "Implies": true,
	"In": true, "Contains": true, "SubsetOf": true, "SupersetOf": true, "ProperIn": true, "ProperContains": true,
	"StartsWith": true, "EndsWith": true, "StringContains": true, "Matches": true,
	"Before": true, "After": true, "SameOrBefore": true, "SameOrAfter": true,
	"Meets": true, "MeetsBefore": true, "MeetsAfter": true,
	"Overlaps": true, "OverlapsBefore": true, "OverlapsAfter": true,
	"Starts": true, "Ends": true, "During": true, "IncludedIn": true, "Includes": true,
	"IsDistinct": true, "AllTrue": true, "AnyTrue": true,
	"InValueSet": true, "InCodeSystem": true, "AnyInValueSet": true, "Subsumes": true, "SubsumedBy": true,
	"CanConvertQuantity": true,
}

// integerResultOps always produce Integer.
var integerResultOps = map[string]bool{"Count": true, "Length": true, "IndexOf": true}

// decimalResultOps always produce Decimal.
var decimalResultOps = map[string]bool{
	"Ln": true, "Log": true, "Exp": true, "Sqrt": true,
	"Avg": true, "Median": true, "StdDev": true, "Variance": true,
	"PopulationStdDev": true, "PopulationVariance": true, "GeometricMean": true,
}

// stringResultOps always produce String.
var stringResultOps = map[string]bool{"Upper": true, "Lower": true, "Trim": true, "Substring": true, "Split": true, "Combine": true}

func (lw *Lowerer) inferUnaryType(n unaryNode) {
	name := n.GetName()
	opType := types.IType(types.System(types.Any))
	if op := n.GetOperand(); op != nil {
		opType = op.GetResultType()
	}
	switch {
	case booleanResultOps[name] || strings.HasPrefix(name, "ConvertsTo"):
		n.SetResultType(types.System(types.Boolean))
	case integerResultOps[name]:
		n.SetResultType(types.System(types.Integer))
	case decimalResultOps[name]:
		n.SetResultType(types.System(types.Decimal))
	case stringResultOps[name]:
		n.SetResultType(types.System(types.String))
	case name == "First" || name == "Last" || name == "SingletonFrom" || name == "PointFrom":
		n.SetResultType(types.Unwrap(opType))
	case name == "ToChars":
		n.SetResultType(&types.List{ElementType: types.System(types.String)})
	case name == "Start" || name == "End":
		if iv, ok := opType.(*types.Interval); ok {
			n.SetResultType(iv.PointType)
		} else {
			n.SetResultType(types.System(types.Any))
		}
	case name == "Width":
		n.SetResultType(types.System(types.Decimal))
	case name == "DateFrom":
		n.SetResultType(types.System(types.Date))
	case name == "TimeFrom":
		n.SetResultType(types.System(types.Time))
	case name == "AgeInYears" || name == "AgeInMonths" || name == "AgeInDays" || name == "CalculateAge":
		n.SetResultType(types.System(types.Integer))
	case name == "Children" || name == "DescendantsOf":
		n.SetResultType(&types.List{ElementType: types.System(types.Any)})
	default:
		// Negate/Abs/Ceiling/Floor/Truncate/Round/Predecessor/Successor/Tail/Distinct/Flatten/
		// Sum/Min/Max/Mode/Product/Resolve and anything else preserve (or unwrap, for Tail/
		// Distinct/Flatten on lists) the operand's type as the least-surprising default.
		n.SetResultType(opType)
	}
}

func (lw *Lowerer) inferMultiType(n multiOperandNode) {
	name := n.GetName()
	ops := n.GetOperands()
	left := types.IType(types.System(types.Any))
	right := types.IType(types.System(types.Any))
	if len(ops) > 0 && ops[0] != nil {
		left = ops[0].GetResultType()
	}
	if len(ops) > 1 && ops[1] != nil {
		right = ops[1].GetResultType()
	}
	switch {
	case booleanResultOps[name]:
		n.SetResultType(types.System(types.Boolean))
	case integerResultOps[name]:
		n.SetResultType(types.System(types.Integer))
	case decimalResultOps[name]:
		n.SetResultType(types.System(types.Decimal))
	case stringResultOps[name]:
		n.SetResultType(types.System(types.String))
	case name == "Add" || name == "Subtract" || name == "Multiply" || name == "Divide" ||
		name == "TruncatedDivide" || name == "Modulo" || name == "Power":
		n.SetResultType(widen(left, right))
	case name == "Union" || name == "Intersect" || name == "Except":
		n.SetResultType(widen(left, right))
	case name == "Skip" || name == "Take":
		n.SetResultType(left)
	case name == "Indexer":
		n.SetResultType(types.Unwrap(left))
	case name == "Concatenate":
		n.SetResultType(types.System(types.String))
	case name == "Coalesce":
		t := left
		for _, o := range ops[1:] {
			t = widen(t, o.GetResultType())
		}
		n.SetResultType(t)
	case name == "ReplaceMatches":
		n.SetResultType(types.System(types.String))
	case name == "ConvertQuantity":
		n.SetResultType(types.System(types.Quantity))
	case name == "Round":
		n.SetResultType(types.System(types.Decimal))
	case name == "CalculateAgeAt":
		n.SetResultType(types.System(types.Integer))
	case name == "DifferenceBetween" || name == "DurationBetween":
		n.SetResultType(types.System(types.Integer))
	case name == "Collapse" || name == "Expand":
		n.SetResultType(left)
	default:
		n.SetResultType(left)
	}
}
