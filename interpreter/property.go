package interpreter

import (
	"github.com/clinical-elm/cql/fhir"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
)

func init() {
	registerUnary("Children", evalChildren)
	registerUnary("DescendantsOf", evalDescendantsOf)
	registerUnary("Resolve", evalResolve)
	registerUnary("OfType", evalOfType)
	registerMulti("Extension", evalExtension)
}

// evalProperty navigates n.Path off n.Source (or, when Source is nil, off the scope alias/$this
// binding named n.Scope), per spec.md §4.10. Tuple navigation is a direct field lookup;
// Resource (fhir.Node) navigation always conceptually yields a list, collapsed to a bare scalar
// when exactly one result matches (the common case for 0..1 cardinality elements) -- a
// deliberate simplification in the absence of a FHIR structure definition to consult for
// declared cardinality (spec.md §1 Non-goals).
func evalProperty(ec *EvaluationContext, n *model.Property) (result.Value, error) {
	var source result.Value
	if n.Source != nil {
		v, err := ec.Eval(n.Source)
		if err != nil {
			return result.NewNull(nil), err
		}
		source = v
	} else {
		scope := n.Scope
		if scope == "" {
			scope = "$this"
		}
		v, ok := ec.frame.Lookup(scope)
		if !ok {
			return result.NewNull(nil), nil
		}
		source = v
	}
	return navigate(ec, source, n.Path)
}

func asNode(v result.Value) (*fhir.Node, bool) {
	res, ok := v.GolangValue().(result.Resource)
	if !ok {
		return nil, false
	}
	n, ok := res.(*fhir.Node)
	return n, ok
}

func evalChildren(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error) {
	n, ok := asNode(operand)
	if !ok {
		return result.NewList(nil, nil), nil
	}
	return result.NewList(n.Children(), nil), nil
}

func evalDescendantsOf(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error) {
	n, ok := asNode(operand)
	if !ok {
		return result.NewList(nil, nil), nil
	}
	return result.NewList(n.Descendants(), nil), nil
}

func evalResolve(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error) {
	n, ok := asNode(operand)
	if !ok {
		return result.NewNull(nil), nil
	}
	v, ok := n.Resolve(ec.interp.retriever)
	if !ok {
		return result.NewNull(nil), nil
	}
	return v, nil
}

func evalOfType(ec *EvaluationContext, operand result.Value, node model.IExpression) (result.Value, error) {
	of, _ := node.(*model.OfType)
	if of == nil {
		return result.NewNull(nil), nil
	}
	n, ok2 := asNode(operand)
	if !ok2 {
		if operand.RuntimeType().Equal(of.OfType) {
			return operand, nil
		}
		return result.NewNull(nil), nil
	}
	if n.OfType(typeName(of.OfType)) {
		return operand, nil
	}
	return result.NewNull(nil), nil
}

func typeName(t interface{ String() string }) string {
	s := t.String()
	if i := lastDot(s); i >= 0 {
		return s[i+1:]
	}
	return s
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func evalExtension(ec *EvaluationContext, vals []result.Value, node model.IExpression) (result.Value, error) {
	if len(vals) < 2 {
		return result.NewList(nil, nil), nil
	}
	n, ok := asNode(vals[0])
	if !ok {
		return result.NewList(nil, nil), nil
	}
	url, _ := vals[1].GolangValue().(string)
	return result.NewList(n.Extension(url), nil), nil
}

func navigate(ec *EvaluationContext, source result.Value, path string) (result.Value, error) {
	if source.IsNull() {
		return result.NewNull(nil), nil
	}
	switch v := source.GolangValue().(type) {
	case result.Tuple:
		return v.Get(path), nil
	case result.Resource:
		node, ok := v.(*fhir.Node)
		if !ok {
			return result.NewNull(nil), nil
		}
		if path == "resolve" {
			resolved, ok := node.Resolve(ec.interp.retriever)
			if !ok {
				return result.NewNull(nil), nil
			}
			return resolved, nil
		}
		vals := node.Get(path)
		switch len(vals) {
		case 0:
			return result.NewNull(nil), nil
		case 1:
			return vals[0], nil
		default:
			return result.NewList(vals, nil), nil
		}
	case result.List:
		// Property access distributes over a list (FHIRPath semantics): collect path off each
		// element and flatten one level.
		var out []result.Value
		for _, elem := range v.Value {
			nv, err := navigate(ec, elem, path)
			if err != nil {
				return result.NewNull(nil), err
			}
			if nv.IsNull() {
				continue
			}
			if inner, ok := nv.GolangValue().(result.List); ok {
				out = append(out, inner.Value...)
			} else {
				out = append(out, nv)
			}
		}
		return result.NewList(out, nil), nil
	default:
		return result.NewNull(nil), nil
	}
}
