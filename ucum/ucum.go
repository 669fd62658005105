// Package ucum implements the subset of UCUM (Unified Code for Units of Measure) required by
// spec.md §4.3/§6: dimensional parsing, canonicalization, conversion and compatibility checks for
// the fixed unit table the specification enumerates, plus the CQL calendar-duration unit names
// ('years', 'months', ...) that appear as quantity literals in source text.
package ucum

import (
	"fmt"
	"strings"
)

// Dimension is a vector over the five dimensions this engine cares about for clinical use: Mass,
// Length, Time, Temperature, and a generic "Other" bucket for arbitrary/dimensionless counts
// ([IU], %, 1).
type Dimension struct {
	Mass, Length, Time, Temperature, Other int
}

// Equal reports whether two values are dimensionally compatible (addable/convertible).
func (d Dimension) Equal(o Dimension) bool { return d == o }

// unit describes one entry in the fixed UCUM table: its canonical base unit, a linear factor
// (canonical = value*Factor + Offset) and its dimension vector.
type unit struct {
	Factor, Offset float64
	Dim            Dimension
	Canonical      string
}

// table maps every UCUM code and alias spec.md §6 requires to its definition. Dimensionless ('1',
// '%', '[IU]') shares the Other dimension so they are mutually convertible but incompatible with
// any physical dimension.
var table = map[string]unit{
	// Mass (canonical: g)
	"g": {1, 0, Dimension{Mass: 1}, "g"}, "kg": {1000, 0, Dimension{Mass: 1}, "g"},
	"mg": {0.001, 0, Dimension{Mass: 1}, "g"}, "ug": {1e-6, 0, Dimension{Mass: 1}, "g"},
	"ng": {1e-9, 0, Dimension{Mass: 1}, "g"}, "[lb_av]": {453.59237, 0, Dimension{Mass: 1}, "g"},
	"[oz_av]": {28.349523125, 0, Dimension{Mass: 1}, "g"},

	// Volume (canonical: L)
	"L": {1, 0, Dimension{Length: 3}, "L"}, "mL": {0.001, 0, Dimension{Length: 3}, "L"},
	"dL": {0.1, 0, Dimension{Length: 3}, "L"}, "uL": {1e-6, 0, Dimension{Length: 3}, "L"},
	"[gal_us]": {3.785411784, 0, Dimension{Length: 3}, "L"}, "[qt_us]": {0.946352946, 0, Dimension{Length: 3}, "L"},
	"[pt_us]": {0.473176473, 0, Dimension{Length: 3}, "L"}, "[foz_us]": {0.0295735295625, 0, Dimension{Length: 3}, "L"},

	// Length (canonical: m)
	"m": {1, 0, Dimension{Length: 1}, "m"}, "cm": {0.01, 0, Dimension{Length: 1}, "m"},
	"mm": {0.001, 0, Dimension{Length: 1}, "m"}, "km": {1000, 0, Dimension{Length: 1}, "m"},
	"[in_i]": {0.0254, 0, Dimension{Length: 1}, "m"}, "[ft_i]": {0.3048, 0, Dimension{Length: 1}, "m"},

	// Temperature (canonical: K, affine).
	"K":       {1, 0, Dimension{Temperature: 1}, "K"},
	"Cel":     {1, 273.15, Dimension{Temperature: 1}, "K"},
	"[degF]":  {5.0 / 9.0, 459.67 * 5.0 / 9.0, Dimension{Temperature: 1}, "K"},

	// Time (canonical: s). Calendar units 'mo'/'a' are approximated for unit-engine conversion
	// purposes only; the temporal kernel (internal/datehelpers) is authoritative for actual
	// DateTime arithmetic, where calendar vs elapsed math must never be conflated (spec.md §4.2).
	"s": {1, 0, Dimension{Time: 1}, "s"}, "min": {60, 0, Dimension{Time: 1}, "s"},
	"h": {3600, 0, Dimension{Time: 1}, "s"}, "d": {86400, 0, Dimension{Time: 1}, "s"},
	"wk": {604800, 0, Dimension{Time: 1}, "s"}, "mo": {2629800, 0, Dimension{Time: 1}, "s"},
	"a": {31557600, 0, Dimension{Time: 1}, "s"},

	// Dimensionless.
	"1": {1, 0, Dimension{Other: 1}, "1"}, "%": {0.01, 0, Dimension{Other: 1}, "1"},
	"[IU]": {1, 0, Dimension{Other: 1}, "[IU]"},

	// Pressure (clinical convenience, canonical mm[Hg]).
	"mm[Hg]": {1, 0, Dimension{Other: 2}, "mm[Hg]"},
}

// aliases maps a loosely-spelled unit name (including CQL calendar-duration plural words) onto
// its canonical UCUM code in table.
var aliases = map[string]string{
	"lb": "[lb_av]", "lbs": "[lb_av]", "oz": "[oz_av]",
	"in": "[in_i]", "ft": "[ft_i]", "gal": "[gal_us]", "qt": "[qt_us]", "pt": "[pt_us]", "floz": "[foz_us]",
	"cm3": "mL", "cc": "mL",
	"degF": "[degF]", "degC": "Cel",
	"year": "a", "years": "a", "month": "mo", "months": "mo",
	"week": "wk", "weeks": "wk", "day": "d", "days": "d",
	"hour": "h", "hours": "h", "minute": "min", "minutes": "min",
	"second": "s", "seconds": "s", "ms": "ms", "millisecond": "ms", "milliseconds": "ms",
	"iu": "[IU]", "percent": "%",
}

func init() {
	table["ms"] = unit{0.001, 0, Dimension{Time: 1}, "s"}
}

// resolve looks up code, following aliases, and reports whether it is known.
func resolve(code string) (unit, bool) {
	if u, ok := table[code]; ok {
		return u, true
	}
	if canon, ok := aliases[code]; ok {
		return table[canon], true
	}
	if canon, ok := aliases[strings.ToLower(code)]; ok {
		return table[canon], true
	}
	return unit{}, false
}

// DimensionOf returns the dimension vector for a unit code, or an error wrapping ErrUnknownUnit.
func DimensionOf(code string) (Dimension, error) {
	u, ok := resolve(code)
	if !ok {
		return Dimension{}, fmt.Errorf("ucum: unknown unit %q: %w", code, ErrUnknownUnit)
	}
	return u.Dim, nil
}

// Compatible reports whether two unit codes share a dimension and are therefore convertible.
func Compatible(a, b string) bool {
	ua, aok := resolve(a)
	ub, bok := resolve(b)
	return aok && bok && ua.Dim.Equal(ub.Dim)
}

// Convert converts value from unit `from` to unit `to`, returning IncompatibleUnits if their
// dimensions differ. Temperature is the only affine (non-zero-offset) case, handled per spec.md
// §4.3 as `canonical = value*factor + offset`; converting back subtracts the destination's own
// offset and divides by its factor.
func Convert(value float64, from, to string) (float64, error) {
	uf, ok := resolve(from)
	if !ok {
		return 0, fmt.Errorf("ucum: unknown unit %q: %w", from, ErrUnknownUnit)
	}
	ut, ok := resolve(to)
	if !ok {
		return 0, fmt.Errorf("ucum: unknown unit %q: %w", to, ErrUnknownUnit)
	}
	if !uf.Dim.Equal(ut.Dim) {
		return 0, fmt.Errorf("ucum: cannot convert %q to %q: %w", from, to, ErrIncompatibleUnits)
	}
	canonical := value*uf.Factor + uf.Offset
	return (canonical - ut.Offset) / ut.Factor, nil
}

// Canonical returns the canonical base-unit code a unit normalizes to (e.g. "kg" -> "g").
func Canonical(code string) (string, error) {
	u, ok := resolve(code)
	if !ok {
		return "", fmt.Errorf("ucum: unknown unit %q: %w", code, ErrUnknownUnit)
	}
	return u.Canonical, nil
}

// IsKnown reports whether code is a recognized unit or alias.
func IsKnown(code string) bool {
	_, ok := resolve(code)
	return ok
}
