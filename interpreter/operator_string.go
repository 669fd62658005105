package interpreter

import (
	"regexp"
	"strings"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerMulti("StartsWith", stringBinary(strings.HasPrefix))
	registerMulti("EndsWith", stringBinary(strings.HasSuffix))
	registerMulti("StringContains", stringBinary(strings.Contains))
	registerMulti("Matches", evalMatches)
	registerMulti("ReplaceMatches", evalReplaceMatches)
	registerMulti("Split", evalSplit)
	registerMulti("Join", evalJoin)
	registerMulti("IndexOf", evalIndexOf)
	registerMulti("Substring", evalSubstring)
	registerMulti("Indexer", evalIndexer)
	registerMulti("Concatenate", evalConcatenate)
	registerMulti("Combine", evalCombine)

	registerUnary("Length", evalLength)
	registerUnary("Upper", stringUnary(strings.ToUpper))
	registerUnary("Lower", stringUnary(strings.ToLower))
	registerUnary("Trim", stringUnary(strings.TrimSpace))
	registerUnary("ToChars", evalToChars)
}

func stringBinary(fn func(s, substr string) bool) multiOpFunc {
	return func(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
		a, b := vals[0], vals[1]
		if a.IsNull() || b.IsNull() {
			return result.NewNull(nil), nil
		}
		s, _ := a.GolangValue().(string)
		sub, _ := b.GolangValue().(string)
		return result.NewBoolean(fn(s, sub)), nil
	}
}

func stringUnary(fn func(string) string) unaryOpFunc {
	return func(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
		if v.IsNull() {
			return result.NewNull(nil), nil
		}
		s, ok := v.GolangValue().(string)
		if !ok {
			return result.NewNull(nil), typeMismatch("string op", "non-string operand")
		}
		return result.NewString(fn(s)), nil
	}
}

func evalMatches(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	s, _ := a.GolangValue().(string)
	pattern, _ := b.GolangValue().(string)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return result.NewNull(nil), typeMismatch("Matches", err.Error())
	}
	return result.NewBoolean(re.MatchString(s)), nil
}

func evalReplaceMatches(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	if len(vals) < 3 || vals[0].IsNull() {
		return result.NewNull(nil), nil
	}
	s, _ := vals[0].GolangValue().(string)
	pattern, _ := vals[1].GolangValue().(string)
	repl, _ := vals[2].GolangValue().(string)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return result.NewNull(nil), typeMismatch("ReplaceMatches", err.Error())
	}
	return result.NewString(re.ReplaceAllString(s, repl)), nil
}

func evalSplit(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() {
		return result.NewNull(nil), nil
	}
	s, _ := a.GolangValue().(string)
	sep, _ := b.GolangValue().(string)
	var parts []string
	if sep == "" {
		parts = []string{s}
	} else {
		parts = strings.Split(s, sep)
	}
	out := make([]result.Value, len(parts))
	for i, p := range parts {
		out[i] = result.NewString(p)
	}
	return result.NewList(out, nil), nil
}

func evalJoin(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() {
		return result.NewNull(nil), nil
	}
	lst, ok := a.GolangValue().(result.List)
	if !ok {
		return result.NewNull(nil), nil
	}
	sep, _ := b.GolangValue().(string)
	parts := make([]string, 0, len(lst.Value))
	for _, v := range lst.Value {
		if v.IsNull() {
			continue
		}
		s, _ := v.GolangValue().(string)
		parts = append(parts, s)
	}
	return result.NewString(strings.Join(parts, sep)), nil
}

func evalIndexOf(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() {
		return result.NewNull(nil), nil
	}
	if lst, ok := a.GolangValue().(result.List); ok {
		for i, v := range lst.Value {
			if eq, ok := result.Equal(v, b); ok && eq {
				return result.NewInt32(int32(i)), nil
			}
		}
		return result.NewInt32(-1), nil
	}
	s, _ := a.GolangValue().(string)
	sub, _ := b.GolangValue().(string)
	return result.NewInt32(int32(strings.Index(s, sub))), nil
}

func evalSubstring(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	if len(vals) < 2 || vals[0].IsNull() || vals[1].IsNull() {
		return result.NewNull(nil), nil
	}
	s, _ := vals[0].GolangValue().(string)
	start := int(toInt(vals[1]))
	if start < 0 || start > len(s) {
		return result.NewNull(nil), nil
	}
	end := len(s)
	if len(vals) > 2 && !vals[2].IsNull() {
		l := int(toInt(vals[2]))
		if start+l < end {
			end = start + l
		}
	}
	return result.NewString(s[start:end]), nil
}

func evalIndexer(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	a, b := vals[0], vals[1]
	if a.IsNull() || b.IsNull() {
		return result.NewNull(nil), nil
	}
	idx := int(toInt(b))
	switch x := a.GolangValue().(type) {
	case string:
		if idx < 0 || idx >= len(x) {
			return result.NewNull(nil), nil
		}
		return result.NewString(string(x[idx])), nil
	case result.List:
		if idx < 0 || idx >= len(x.Value) {
			return result.NewNull(nil), nil
		}
		return x.Value[idx], nil
	}
	return result.NewNull(nil), nil
}

func toInt(v result.Value) int64 {
	switch x := v.GolangValue().(type) {
	case int32:
		return int64(x)
	case int64:
		return x
	case result.Decimal:
		return int64(x.Float64())
	}
	return 0
}

func evalLength(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	if v.IsNull() {
		return result.NewInt32(0), nil
	}
	switch x := v.GolangValue().(type) {
	case string:
		return result.NewInt32(int32(len(x))), nil
	case result.List:
		return result.NewInt32(int32(len(x.Value))), nil
	}
	return result.NewInt32(0), nil
}

func evalToChars(ec *EvaluationContext, v result.Value, node model.IExpression) (result.Value, error) {
	if v.IsNull() {
		return result.NewNull(nil), nil
	}
	s, _ := v.GolangValue().(string)
	runes := []rune(s)
	out := make([]result.Value, len(runes))
	for i, r := range runes {
		out[i] = result.NewString(string(r))
	}
	return result.NewList(out, nil), nil
}

// evalConcatenate implements FHIRPath `|` / ELM Concatenate over strings (variable arity).
func evalConcatenate(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	var sb strings.Builder
	for _, v := range vals {
		if v.IsNull() {
			return result.NewNull(nil), nil
		}
		s, _ := v.GolangValue().(string)
		sb.WriteString(s)
	}
	return result.NewString(sb.String()), nil
}

// evalCombine implements `Combine`, shared between the string-join form (list<String>[,
// separator]) and the list-concatenation form, dispatching on the first operand's runtime shape.
func evalCombine(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	if len(vals) == 0 || vals[0].IsNull() {
		return result.NewNull(nil), nil
	}
	lst, ok := vals[0].GolangValue().(result.List)
	if !ok {
		return result.NewNull(nil), nil
	}
	if len(vals) > 1 {
		if second, ok := vals[1].GolangValue().(result.List); ok {
			out := append(append([]result.Value{}, lst.Value...), second.Value...)
			return result.NewList(out, lst.StaticElementType), nil
		}
	}
	if len(lst.Value) > 0 {
		if _, isStr := lst.Value[0].GolangValue().(string); isStr {
			sep := ""
			if len(vals) > 1 && !vals[1].IsNull() {
				sep, _ = vals[1].GolangValue().(string)
			}
			return evalJoin(ec, []result.Value{vals[0], result.NewString(sep)}, node)
		}
	}
	return result.NewList(lst.Value, lst.StaticElementType), nil
}
