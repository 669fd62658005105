// Package convert implements the CQL implicit-conversion lattice and overload resolution used by
// the lowering pass (C7) to pick a function signature from a set of candidate operand types, and
// by the interpreter (C8) to pick the matching operator implementation at runtime. Mirrors the
// teacher's internal/convert package, trimmed to a single non-generic Overload/MatchedOverload
// pair (Result any) since this module resolves directly to model constructors rather than to a
// second generic parse-time/run-time split.
package convert

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/clinical-elm/cql/types"
)

// ErrNoMatch is returned when no overload's operands are compatible with the invocation.
var ErrNoMatch = errors.New("no matching overloads")

// ErrAmbiguousMatch is returned when two or more overloads tie for the least-converting match.
var ErrAmbiguousMatch = errors.New("ambiguous match")

// Overload is one candidate signature: the declared operand types and the value OverloadMatch
// returns when this overload wins (a model constructor, an ELM operator tag, a FunctionDef, ...).
type Overload struct {
	Operands []types.IType
	Result   any
}

// MatchedOverload is the outcome of a successful OverloadMatch.
type MatchedOverload struct {
	Result        any
	ConvertedArgs []int // indices of invoked operands that require a widening conversion
}

// conversion ranks, lowest (best) first; used to score a single operand's match against a
// declared parameter type. Exact match scores 0.
const (
	scoreExact = 0
	scoreWiden = 1 // Integer->Long->Decimal->Quantity, Date->DateTime
	scoreAny   = 2 // declared parameter is System.Any
)

// scoreOperand returns the conversion cost of passing a value of type actual where declared is
// expected, or ok=false if no implicit conversion exists.
func scoreOperand(actual, declared types.IType) (score int, ok bool) {
	if actual == nil {
		actual = types.System(types.Any)
	}
	if actual.Equal(declared) {
		return scoreExact, true
	}
	if declared.Equal(types.System(types.Any)) {
		return scoreAny, true
	}
	if types.IsSubType(actual, declared) {
		return scoreWiden, true
	}
	if actualList, ok := actual.(*types.List); ok {
		if declaredList, ok := declared.(*types.List); ok {
			return scoreOperand(actualList.ElementType, declaredList.ElementType)
		}
	}
	return 0, false
}

// Match picks the overload in overloads whose declared operand types best match invoked (by
// CQL's "least converting" rule, summing per-operand score), erroring on no match or a tie. Name
// is used only to build error messages.
func Match(invoked []types.IType, overloads []Overload, name string) (MatchedOverload, error) {
	if len(overloads) == 0 {
		return MatchedOverload{}, fmt.Errorf("convert: %s(%s): %w", name, typeList(invoked), ErrNoMatch)
	}
	best := MatchedOverload{}
	bestScore := math.MaxInt
	ambiguous := false
	found := false
	for _, ov := range overloads {
		if len(ov.Operands) != len(invoked) {
			continue
		}
		total := 0
		converted := []int{}
		matched := true
		for i, declared := range ov.Operands {
			s, ok := scoreOperand(invoked[i], declared)
			if !ok {
				matched = false
				break
			}
			if s > scoreExact {
				converted = append(converted, i)
			}
			total += s
		}
		if !matched {
			continue
		}
		switch {
		case total < bestScore:
			bestScore = total
			best = MatchedOverload{Result: ov.Result, ConvertedArgs: converted}
			ambiguous = false
			found = true
		case total == bestScore:
			ambiguous = true
		}
	}
	if !found {
		return MatchedOverload{}, fmt.Errorf("convert: %s(%s): %w", name, typeList(invoked), ErrNoMatch)
	}
	if ambiguous {
		return MatchedOverload{}, fmt.Errorf("convert: %s(%s): %w", name, typeList(invoked), ErrAmbiguousMatch)
	}
	return best, nil
}

// ExactMatch picks the overload whose declared operand types are identical to invoked, with no
// widening permitted; used by the interpreter's runtime dispatch where the static types are
// already fully resolved.
func ExactMatch(invoked []types.IType, overloads []Overload, name string) (MatchedOverload, error) {
	for _, ov := range overloads {
		if len(ov.Operands) != len(invoked) {
			continue
		}
		allExact := true
		for i, declared := range ov.Operands {
			a := invoked[i]
			if a == nil {
				a = types.System(types.Any)
			}
			if !a.Equal(declared) {
				allExact = false
				break
			}
		}
		if allExact {
			return MatchedOverload{Result: ov.Result}, nil
		}
	}
	return MatchedOverload{}, fmt.Errorf("convert: %s(%s): %w", name, typeList(invoked), ErrNoMatch)
}

func typeList(ts []types.IType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "Any"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
