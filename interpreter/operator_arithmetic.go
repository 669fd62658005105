package interpreter

import (
	"math"
	"time"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/types"
	"github.com/clinical-elm/cql/ucum"
)

func init() {
	registerMulti("Add", evalAdd)
	registerMulti("Subtract", evalSubtract)
	registerMulti("Multiply", evalMultiply)
	registerMulti("Divide", evalDivide)
	registerMulti("TruncatedDivide", evalTruncatedDivide)
	registerMulti("Modulo", evalModulo)
	registerMulti("Power", evalPower)
	registerMulti("Log", evalLog)
	registerMulti("Round", evalRound)
	registerMulti("ConvertQuantity", evalConvertQuantity)
	registerMulti("CanConvertQuantity", evalCanConvertQuantity)

	registerUnary("Negate", unaryNumeric(func(d result.Decimal) result.Decimal { return d.Neg() }))
	registerUnary("Abs", evalAbs)
	registerUnary("Ceiling", evalCeiling)
	registerUnary("Floor", evalFloor)
	registerUnary("Truncate", evalTruncate)
	registerUnary("Sqrt", unaryNumeric(func(d result.Decimal) result.Decimal {
		return result.NewDecimalFromFloat64(math.Sqrt(d.Float64()))
	}))
	registerUnary("Ln", unaryNumeric(func(d result.Decimal) result.Decimal {
		return result.NewDecimalFromFloat64(math.Log(d.Float64()))
	}))
	registerUnary("Exp", unaryNumeric(func(d result.Decimal) result.Decimal {
		return result.NewDecimalFromFloat64(math.Exp(d.Float64()))
	}))
	registerUnary("Predecessor", evalPredecessor)
	registerUnary("Successor", evalSuccessor)
	registerUnary("MinValue", evalMinValue)
	registerUnary("MaxValue", evalMaxValue)
}

// toDecimal widens an Integer/Long/Decimal Value to Decimal; ok is false for anything else.
func toDecimal(v result.Value) (result.Decimal, bool) {
	switch x := v.GolangValue().(type) {
	case int32:
		return result.NewDecimalFromInt64(int64(x)), true
	case int64:
		return result.NewDecimalFromInt64(x), true
	case result.Decimal:
		return x, true
	}
	return result.Decimal{}, false
}

func unaryNumeric(fn func(result.Decimal) result.Decimal) unaryOpFunc {
	return func(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
		if v.IsNull() {
			return result.NewNull(nil), nil
		}
		if q, ok := v.GolangValue().(result.Quantity); ok {
			return result.NewQuantity(result.Quantity{Value: fn(q.Value), Unit: q.Unit}), nil
		}
		d, ok := toDecimal(v)
		if !ok {
			return result.NewNull(nil), typeMismatch("arithmetic", "non-numeric operand")
		}
		return narrowNumeric(v, fn(d)), nil
	}
}

// narrowNumeric re-narrows a Decimal result back to the input's own numeric Kind (Integer stays
// Integer, Long stays Long), matching CQL's "unary numeric functions preserve their argument's
// type" rule.
func narrowNumeric(like result.Value, d result.Decimal) result.Value {
	switch like.GolangValue().(type) {
	case int32:
		return result.NewInt32(int32(d.Float64()))
	case int64:
		return result.NewInt64(int64(d.Float64()))
	default:
		return result.NewDecimal(d)
	}
}

func evalAbs(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	switch x := v.GolangValue().(type) {
	case int32:
		if x < 0 {
			x = -x
		}
		return result.NewInt32(x), nil
	case int64:
		if x < 0 {
			x = -x
		}
		return result.NewInt64(x), nil
	case result.Decimal:
		if x.Sign() < 0 {
			return result.NewDecimal(x.Neg()), nil
		}
		return result.NewDecimal(x), nil
	case result.Quantity:
		if x.Value.Sign() < 0 {
			return result.NewQuantity(result.Quantity{Value: x.Value.Neg(), Unit: x.Unit}), nil
		}
		return result.NewQuantity(x), nil
	}
	return result.NewNull(nil), typeMismatch("Abs", "non-numeric operand")
}

func evalCeiling(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	d, ok := toDecimal(v)
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	if !ok {
		return result.NewNull(nil), typeMismatch("Ceiling", "non-numeric operand")
	}
	return result.NewInt32(int32(math.Ceil(d.Float64()))), nil
}

func evalFloor(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	d, ok := toDecimal(v)
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	if !ok {
		return result.NewNull(nil), typeMismatch("Floor", "non-numeric operand")
	}
	return result.NewInt32(int32(math.Floor(d.Float64()))), nil
}

func evalTruncate(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	d, ok := toDecimal(v)
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	if !ok {
		return result.NewNull(nil), typeMismatch("Truncate", "non-numeric operand")
	}
	return result.NewInt32(int32(math.Trunc(d.Float64()))), nil
}

func evalPredecessor(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	switch x := v.GolangValue().(type) {
	case int32:
		return result.NewInt32(x - 1), nil
	case int64:
		return result.NewInt64(x - 1), nil
	case result.Decimal:
		return result.NewDecimal(x.Sub(result.NewDecimalFromFloat64(0.00000001))), nil
	}
	return result.NewNull(nil), typeMismatch("Predecessor", "unsupported operand type")
}

func evalSuccessor(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	switch x := v.GolangValue().(type) {
	case int32:
		return result.NewInt32(x + 1), nil
	case int64:
		return result.NewInt64(x + 1), nil
	case result.Decimal:
		return result.NewDecimal(x.Add(result.NewDecimalFromFloat64(0.00000001))), nil
	}
	return result.NewNull(nil), typeMismatch("Successor", "unsupported operand type")
}

func evalMinValue(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	switch node.GetResultType() {
	case types.System(types.Integer):
		return result.NewInt32(math.MinInt32), nil
	case types.System(types.Long):
		return result.NewInt64(math.MinInt64), nil
	case types.System(types.Decimal):
		return result.NewDecimal(result.NewDecimalFromFloat64(-math.MaxFloat64)), nil
	}
	return result.NewNull(nil), nil
}

func evalMaxValue(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	switch node.GetResultType() {
	case types.System(types.Integer):
		return result.NewInt32(math.MaxInt32), nil
	case types.System(types.Long):
		return result.NewInt64(math.MaxInt64), nil
	case types.System(types.Decimal):
		return result.NewDecimal(result.NewDecimalFromFloat64(math.MaxFloat64)), nil
	}
	return result.NewNull(nil), nil
}

// evalAdd implements `+`: Integer/Long/Decimal widening, Quantity addition (converting the right
// operand into the left's unit), and Date/DateTime/Time + Quantity calendar/elapsed arithmetic.
func evalAdd(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	if v, ok, err := temporalArith(a, b, true); ok {
		return v, err
	}
	if qa, ok := a.GolangValue().(result.Quantity); ok {
		qb, ok := b.GolangValue().(result.Quantity)
		if !ok {
			return result.NewNull(nil), typeMismatch("Add", "quantity + non-quantity")
		}
		return addQuantities(qa, qb, false)
	}
	if isString(a) && isString(b) {
		return result.NewString(a.GolangValue().(string) + b.GolangValue().(string)), nil
	}
	return numericBinary(a, b, func(x, y result.Decimal) result.Decimal { return x.Add(y) })
}

// evalSubtract implements `-`, symmetric to evalAdd.
func evalSubtract(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	if v, ok, err := temporalArith(a, b, false); ok {
		return v, err
	}
	if qa, ok := a.GolangValue().(result.Quantity); ok {
		qb, ok := b.GolangValue().(result.Quantity)
		if !ok {
			return result.NewNull(nil), typeMismatch("Subtract", "quantity - non-quantity")
		}
		return addQuantities(qa, qb, true)
	}
	return numericBinary(a, b, func(x, y result.Decimal) result.Decimal { return x.Sub(y) })
}

func isString(v result.Value) bool {
	_, ok := v.GolangValue().(string)
	return ok
}

func addQuantities(a, b result.Quantity, negate bool) (result.Value, error) {
	bv := b.Value
	if negate {
		bv = bv.Neg()
	}
	if a.Unit == b.Unit || a.Unit == "" || b.Unit == "" {
		return result.NewQuantity(result.Quantity{Value: a.Value.Add(bv), Unit: a.Unit}), nil
	}
	converted, err := ucum.Convert(bv.Float64(), b.Unit, a.Unit)
	if err != nil {
		return result.NewNull(nil), result.NewEngineError("Add", result.ErrIncompatibleUnits, err.Error())
	}
	return result.NewQuantity(result.Quantity{Value: a.Value.Add(result.NewDecimalFromFloat64(converted)), Unit: a.Unit}), nil
}

// temporalArith handles Date/DateTime/Time +/- Quantity. ok is false when neither operand is
// temporal, signaling the caller to fall through to numeric/quantity arithmetic.
func temporalArith(a, b result.Value, add bool) (result.Value, bool, error) {
	q, isQty := b.GolangValue().(result.Quantity)
	if !isQty {
		return result.Value{}, false, nil
	}
	sign := 1.0
	if !add {
		sign = -1.0
	}
	n := q.Value.Float64() * sign
	switch dt := a.GolangValue().(type) {
	case result.Date:
		return result.NewDate(result.Date(dateArith(result.DateTime(dt), q.Unit, n))), true, nil
	case result.DateTime:
		return result.NewDateTime(dateArith(dt, q.Unit, n)), true, nil
	case result.Time:
		return result.NewTime(result.Time(dateArith(result.DateTime(dt), q.Unit, n))), true, nil
	}
	return result.Value{}, false, nil
}

func dateArith(dt result.DateTime, unit string, n float64) result.DateTime {
	switch unit {
	case "year", "years":
		return dt.AddCalendar(int(n), 0)
	case "month", "months":
		return dt.AddCalendar(0, int(n))
	case "week", "weeks":
		return dt.AddElapsed(time.Duration(n * float64(7*24*time.Hour)))
	case "day", "days":
		return dt.AddElapsed(time.Duration(n * float64(24*time.Hour)))
	case "hour", "hours":
		return dt.AddElapsed(time.Duration(n * float64(time.Hour)))
	case "minute", "minutes":
		return dt.AddElapsed(time.Duration(n * float64(time.Minute)))
	case "second", "seconds":
		return dt.AddElapsed(time.Duration(n * float64(time.Second)))
	default: // millisecond(s)
		return dt.AddElapsed(time.Duration(n * float64(time.Millisecond)))
	}
}

func numericBinary(a, b result.Value, fn func(x, y result.Decimal) result.Decimal) (result.Value, error) {
	da, ok := toDecimal(a)
	if !ok {
		return result.NewNull(nil), typeMismatch("arithmetic", "non-numeric operand")
	}
	db, ok := toDecimal(b)
	if !ok {
		return result.NewNull(nil), typeMismatch("arithmetic", "non-numeric operand")
	}
	sum := fn(da, db)
	_, aDec := a.GolangValue().(result.Decimal)
	_, bDec := b.GolangValue().(result.Decimal)
	if aDec || bDec {
		return result.NewDecimal(sum), nil
	}
	_, aLong := a.GolangValue().(int64)
	_, bLong := b.GolangValue().(int64)
	if aLong || bLong {
		return result.NewInt64(int64(sum.Float64())), nil
	}
	return result.NewInt32(int32(sum.Float64())), nil
}

func evalMultiply(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	qa, aIsQty := a.GolangValue().(result.Quantity)
	qb, bIsQty := b.GolangValue().(result.Quantity)
	switch {
	case aIsQty && bIsQty:
		return result.NewQuantity(result.Quantity{Value: qa.Value.Mul(qb.Value), Unit: qa.Unit + "." + qb.Unit}), nil
	case aIsQty:
		db, ok := toDecimal(b)
		if !ok {
			return result.NewNull(nil), typeMismatch("Multiply", "non-numeric scalar")
		}
		return result.NewQuantity(result.Quantity{Value: qa.Value.Mul(db), Unit: qa.Unit}), nil
	case bIsQty:
		da, ok := toDecimal(a)
		if !ok {
			return result.NewNull(nil), typeMismatch("Multiply", "non-numeric scalar")
		}
		return result.NewQuantity(result.Quantity{Value: qb.Value.Mul(da), Unit: qb.Unit}), nil
	}
	return numericBinary(a, b, func(x, y result.Decimal) result.Decimal { return x.Mul(y) })
}

func evalDivide(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	if qa, ok := a.GolangValue().(result.Quantity); ok {
		db, bIsQty := b.GolangValue().(result.Quantity)
		if bIsQty {
			if db.Value.IsZero() {
				return result.NewNull(nil), nil
			}
			return result.NewQuantity(result.Quantity{Value: qa.Value.Div(db.Value), Unit: qa.Unit + "/" + db.Unit}), nil
		}
		d, ok := toDecimal(b)
		if !ok || d.IsZero() {
			return result.NewNull(nil), nil
		}
		return result.NewQuantity(result.Quantity{Value: qa.Value.Div(d), Unit: qa.Unit}), nil
	}
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if !aok || !bok {
		return result.NewNull(nil), typeMismatch("Divide", "non-numeric operand")
	}
	if db.IsZero() {
		return result.NewNull(nil), nil
	}
	return result.NewDecimal(da.Div(db)), nil
}

func evalTruncatedDivide(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if !aok || !bok {
		return result.NewNull(nil), typeMismatch("TruncatedDivide", "non-numeric operand")
	}
	if db.IsZero() {
		return result.NewNull(nil), nil
	}
	q := math.Trunc(da.Float64() / db.Float64())
	return narrowNumeric(a, result.NewDecimalFromFloat64(q)), nil
}

func evalModulo(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if !aok || !bok {
		return result.NewNull(nil), typeMismatch("Modulo", "non-numeric operand")
	}
	if db.IsZero() {
		return result.NewNull(nil), nil
	}
	m := math.Mod(da.Float64(), db.Float64())
	return narrowNumeric(a, result.NewDecimalFromFloat64(m)), nil
}

func evalPower(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	da, aok := toDecimal(a)
	db, bok := toDecimal(b)
	if !aok || !bok {
		return result.NewNull(nil), typeMismatch("Power", "non-numeric operand")
	}
	p := math.Pow(da.Float64(), db.Float64())
	return narrowNumeric(a, result.NewDecimalFromFloat64(p)), nil
}

func evalLog(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	da, _ := toDecimal(a)
	db, _ := toDecimal(b)
	return result.NewDecimal(result.NewDecimalFromFloat64(math.Log(da.Float64()) / math.Log(db.Float64()))), nil
}

func evalRound(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	if len(vals) == 0 || vals[0].IsNull() {
		return result.NewNull(nil), nil
	}
	d, ok := toDecimal(vals[0])
	if !ok {
		return result.NewNull(nil), typeMismatch("Round", "non-numeric operand")
	}
	precision := 0
	if len(vals) > 1 && !vals[1].IsNull() {
		p, _ := toDecimal(vals[1])
		precision = int(p.Float64())
	}
	mult := math.Pow(10, float64(precision))
	rounded := math.Round(d.Float64()*mult) / mult
	return result.NewDecimal(result.NewDecimalFromFloat64(rounded)), nil
}

func evalConvertQuantity(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	q, ok := a.GolangValue().(result.Quantity)
	if !ok {
		return result.NewNull(nil), typeMismatch("ConvertQuantity", "not a quantity")
	}
	toUnit, ok := b.GolangValue().(string)
	if !ok {
		return result.NewNull(nil), typeMismatch("ConvertQuantity", "unit operand not a string")
	}
	converted, err := ucum.Convert(q.Value.Float64(), q.Unit, toUnit)
	if err != nil {
		return result.NewNull(nil), result.NewEngineError("ConvertQuantity", result.ErrIncompatibleUnits, err.Error())
	}
	return result.NewQuantity(result.Quantity{Value: result.NewDecimalFromFloat64(converted), Unit: toUnit}), nil
}

func evalCanConvertQuantity(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	q, ok := a.GolangValue().(result.Quantity)
	if !ok {
		return result.NewBoolean(false), nil
	}
	toUnit, ok := b.GolangValue().(string)
	if !ok {
		return result.NewBoolean(false), nil
	}
	return result.NewBoolean(ucum.Compatible(q.Unit, toUnit)), nil
}
