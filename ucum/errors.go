package ucum

import "errors"

// Sentinel errors matching the §7 taxonomy entries this package can raise.
var (
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrIncompatibleUnits = errors.New("incompatible units")
)
