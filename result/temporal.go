package result

import (
	"time"

	"github.com/clinical-elm/cql/internal/datehelpers"
)

// DateTime is the Go representation of a CQL DateTime. Precision ranges Year..Millisecond. Date
// is a DateTime whose Precision never exceeds Day, and Time is a DateTime whose Date component is
// pinned to 0000-01-01 and whose Precision ranges Hour..Millisecond, matching the teacher's
// `type Date DateTime` / `type Time DateTime` aliasing so all three share comparison logic.
type DateTime struct {
	Time      time.Time
	Precision datehelpers.Precision
	// HasTimezone distinguishes a DateTime with an explicit offset/Z from one evaluated against
	// the EvaluationContext's default timezone; CQL treats the two differently for `=` across
	// offsets (both normalize to UTC for comparison, but equivalence `~` ignores offset).
	HasTimezone bool
}

// Date is a DateTime with Precision in {Year, Month, Day}.
type Date DateTime

// Time is a DateTime with Precision in {Hour, Minute, Second, Millisecond} and a fixed calendar
// date component (0000-01-01) that callers must ignore.
type Time DateTime

// Equal reports exact equality of both instant and precision.
func (d DateTime) Equal(o DateTime) bool {
	return d.Precision == o.Precision && d.Time.Equal(o.Time)
}

// Equal for Date.
func (d Date) Equal(o Date) bool { return DateTime(d).Equal(DateTime(o)) }

// Equal for Time.
func (t Time) Equal(o Time) bool { return DateTime(t).Equal(DateTime(o)) }

// Compare compares two DateTimes up to their shared precision. ok is false when the comparison
// is undefined per spec.md §3 ("Date/DateTime comparison returns Null when precisions are
// incompatible at the comparison point").
func (d DateTime) Compare(o DateTime) (cmp int, ok bool) {
	return datehelpers.CompareAtPrecision(d.Time, d.Precision, o.Time, o.Precision)
}

// Compare for Date.
func (d Date) Compare(o Date) (int, bool) { return DateTime(d).Compare(DateTime(o)) }

// Compare for Time.
func (t Time) Compare(o Time) (int, bool) { return DateTime(t).Compare(DateTime(o)) }

// AddCalendar adds whole years/months (calendar math). Used by `+`/`-` on Date/DateTime with a
// years/months Quantity.
func (d DateTime) AddCalendar(years, months int) DateTime {
	return DateTime{Time: datehelpers.AddCalendar(d.Time, years, months), Precision: d.Precision, HasTimezone: d.HasTimezone}
}

// AddElapsed adds an elapsed-time duration (days/hours/minutes/seconds/milliseconds, never
// years/months). Used by `+`/`-` on Date/DateTime/Time with an elapsed-unit Quantity.
func (d DateTime) AddElapsed(dur time.Duration) DateTime {
	return DateTime{Time: d.Time.Add(dur), Precision: d.Precision, HasTimezone: d.HasTimezone}
}

// FromLiteral builds a DateTime from a parsed @-literal, anchoring to defaultLoc when the literal
// has no explicit offset.
func FromLiteral(lit datehelpers.DateTimeLiteral, defaultLoc *time.Location) DateTime {
	return DateTime{Time: lit.ToGoTime(defaultLoc), Precision: lit.Precision, HasTimezone: lit.HasTimezone}
}
