package interpreter

import (
	"github.com/clinical-elm/cql/internal/datehelpers"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerUnary("DateFrom", evalDateFrom)
	registerUnary("TimeFrom", evalTimeFrom)
	registerUnary("DateTimeComponentFrom", evalDateTimeComponentFrom)

	registerMulti("DifferenceBetween", evalDifferenceBetween)
	registerMulti("DurationBetween", evalDurationBetween)
}

// evalToday/evalNow/evalTimeOfDay are called directly from dispatcher.go (Today/Now/TimeOfDay
// carry no operand, so they don't fit the unary/multi registries).
func evalToday(ec *EvaluationContext) (result.Value, error) {
	return result.NewDate(result.Date{Time: ec.now.Time, Precision: datehelpers.Day, HasTimezone: ec.now.HasTimezone}), nil
}

func evalNow(ec *EvaluationContext) (result.Value, error) {
	return result.NewDateTime(ec.now), nil
}

func evalTimeOfDay(ec *EvaluationContext) (result.Value, error) {
	return result.NewTime(result.Time{Time: ec.now.Time, Precision: datehelpers.Millisecond, HasTimezone: ec.now.HasTimezone}), nil
}

func asDateTime(v result.Value) (result.DateTime, bool) {
	switch x := v.GolangValue().(type) {
	case result.DateTime:
		return x, true
	case result.Date:
		return result.DateTime(x), true
	case result.Time:
		return result.DateTime(x), true
	}
	return result.DateTime{}, false
}

func evalDateFrom(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	dt, ok := asDateTime(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	p := dt.Precision
	if p > datehelpers.Day {
		p = datehelpers.Day
	}
	return result.NewDate(result.Date{Time: dt.Time, Precision: p, HasTimezone: dt.HasTimezone}), nil
}

func evalTimeFrom(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	dt, ok := asDateTime(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	return result.NewTime(result.Time{Time: dt.Time, Precision: dt.Precision, HasTimezone: dt.HasTimezone}), nil
}

func evalDateTimeComponentFrom(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	dt, ok := asDateTime(v)
	if !ok {
		return result.NewNull(nil), nil
	}
	n, ok := node.(*model.DateTimeComponentFrom)
	if !ok {
		return result.NewNull(nil), nil
	}
	if precisionRank(n.Precision) > precisionRank(model.Precision(dt.Precision.String())) {
		return result.NewNull(nil), nil
	}
	switch string(n.Precision) {
	case "year":
		return result.NewInt32(int32(dt.Time.Year())), nil
	case "month":
		return result.NewInt32(int32(dt.Time.Month())), nil
	case "day":
		return result.NewInt32(int32(dt.Time.Day())), nil
	case "hour":
		return result.NewInt32(int32(dt.Time.Hour())), nil
	case "minute":
		return result.NewInt32(int32(dt.Time.Minute())), nil
	case "second":
		return result.NewInt32(int32(dt.Time.Second())), nil
	case "millisecond":
		return result.NewInt32(int32(dt.Time.Nanosecond() / 1e6)), nil
	}
	return result.NewNull(nil), nil
}

func precisionRank(p model.Precision) int {
	switch string(p) {
	case "year":
		return int(datehelpers.Year)
	case "month":
		return int(datehelpers.Month)
	case "day":
		return int(datehelpers.Day)
	case "hour":
		return int(datehelpers.Hour)
	case "minute":
		return int(datehelpers.Minute)
	case "second":
		return int(datehelpers.Second)
	case "millisecond":
		return int(datehelpers.Millisecond)
	}
	return int(datehelpers.Unspecified)
}

func evalDifferenceBetween(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	n, ok := node.(*model.DifferenceBetween)
	if !ok {
		return result.NewNull(nil), nil
	}
	return betweenImpl(vals[0], vals[1], string(n.Precision))
}

func evalDurationBetween(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	n, ok := node.(*model.DurationBetween)
	if !ok {
		return result.NewNull(nil), nil
	}
	return betweenImpl(vals[0], vals[1], string(n.Precision))
}

func betweenImpl(a, b result.Value, unit string) (result.Value, error) {
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	da, okA := asDateTime(a)
	db, okB := asDateTime(b)
	if !okA || !okB {
		return result.NewNull(nil), nil
	}
	if datehelpers.IsCalendarUnit(unit) {
		return result.NewInt32(int32(datehelpers.CalendarDiff(da.Time, db.Time, unit))), nil
	}
	dur := db.Time.Sub(da.Time)
	var n int64
	switch unit {
	case "week", "weeks":
		n = int64(dur.Hours() / (24 * 7))
	case "day", "days":
		n = int64(dur.Hours() / 24)
	case "hour", "hours":
		n = int64(dur.Hours())
	case "minute", "minutes":
		n = int64(dur.Minutes())
	case "second", "seconds":
		n = int64(dur.Seconds())
	case "millisecond", "milliseconds":
		n = dur.Milliseconds()
	}
	return result.NewInt32(int32(n)), nil
}
