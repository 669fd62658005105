package result

import (
	"fmt"

	"github.com/clinical-elm/cql/types"
)

// Interval is a CQL Interval. Endpoints may be Null, meaning unbounded (not "unknown" -- an
// unbounded endpoint participates in containment/overlap tests as +/-infinity). PointType
// records the declared point type so empty/fully-null intervals still report a RuntimeType.
type Interval struct {
	Low, High           Value
	LowClosed, HighClosed bool
	PointType           types.IType
}

// NewIntervalChecked validates low <= high (when both bounded) and returns InvalidInterval
// otherwise, per spec.md §3 invariant "violating constructors fail with InvalidInterval". Named
// distinctly from NewInterval (the Value wrapper constructor in value.go) since both live in this
// package.
func NewIntervalChecked(low, high Value, lowClosed, highClosed bool, pointType types.IType, cmp func(a, b Value) (int, bool)) (Interval, error) {
	if !low.IsNull() && !high.IsNull() {
		c, ok := cmp(low, high)
		if ok && c > 0 {
			return Interval{}, fmt.Errorf("invalid interval: low %v > high %v: %w", low, high, ErrInvalidInterval)
		}
	}
	return Interval{Low: low, High: high, LowClosed: lowClosed, HighClosed: highClosed, PointType: pointType}, nil
}

// Equal reports structural equality of both endpoints and open/closed flags.
func (i Interval) Equal(o Interval) bool {
	return i.LowClosed == o.LowClosed && i.HighClosed == o.HighClosed &&
		valueEqualStrict(i.Low, o.Low) && valueEqualStrict(i.High, o.High)
}
