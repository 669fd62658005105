package interpreter

import (
	"fmt"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/terminology"
)

// evalTerminologyRef evaluates a reference to a top-level codesystem/valueset/code/concept
// declaration into its runtime representation: a CodeSystemRef/ValuesetRef resolves to its URL
// (String), a CodeRef to a Code, a ConceptRef to a Concept built from its member codes.
func evalTerminologyRef(ec *EvaluationContext, e model.IExpression) (result.Value, error) {
	switch n := e.(type) {
	case *model.CodeSystemRef:
		def := findCodeSystemDef(ec.lib, n.Name)
		if def == nil {
			return result.NewNull(nil), fmt.Errorf("interpreter: unresolved codesystem %q", n.Name)
		}
		return result.NewString(def.ID), nil

	case *model.ValuesetRef:
		def := findValuesetDef(ec.lib, n.Name)
		if def == nil {
			return result.NewNull(nil), fmt.Errorf("interpreter: unresolved valueset %q", n.Name)
		}
		return result.NewString(def.ID), nil

	case *model.CodeRef:
		def := findCodeDef(ec.lib, n.Name)
		if def == nil {
			return result.NewNull(nil), fmt.Errorf("interpreter: unresolved code %q", n.Name)
		}
		return codeFromDef(ec, def)

	case *model.ConceptRef:
		def := findConceptDef(ec.lib, n.Name)
		if def == nil {
			return result.NewNull(nil), fmt.Errorf("interpreter: unresolved concept %q", n.Name)
		}
		codes := make([]result.Code, 0, len(def.Codes))
		for _, cr := range def.Codes {
			cd := findCodeDef(ec.lib, cr.Name)
			if cd == nil {
				continue
			}
			cv, err := codeFromDef(ec, cd)
			if err != nil {
				return result.NewNull(nil), err
			}
			c, _ := cv.GolangValue().(result.Code)
			codes = append(codes, c)
		}
		return result.NewConcept(result.Concept{Text: def.Display, Coding: codes}), nil
	}
	return result.NewNull(nil), fmt.Errorf("interpreter: unhandled terminology reference %T", e)
}

func codeFromDef(ec *EvaluationContext, def *model.CodeDef) (result.Value, error) {
	system := ""
	if def.CodeSystem != nil {
		if sd := findCodeSystemDef(ec.lib, def.CodeSystem.Name); sd != nil {
			system = sd.ID
		}
	}
	return result.NewCode(result.Code{System: system, Code: def.Code, Display: def.Display}), nil
}

func findCodeSystemDef(lib *model.Library, name string) *model.CodeSystemDef {
	for _, d := range lib.CodeSystems {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func findValuesetDef(lib *model.Library, name string) *model.ValuesetDef {
	for _, d := range lib.Valuesets {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func findCodeDef(lib *model.Library, name string) *model.CodeDef {
	for _, d := range lib.Codes {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func findConceptDef(lib *model.Library, name string) *model.ConceptDef {
	for _, d := range lib.Concepts {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// evalTerminologyMembership evaluates `code in ValueSet`/`code in CodeSystem`/the list-valued
// AnyInValueSet form, delegating to the terminology provider's MemberOf.
func evalTerminologyMembership(ec *EvaluationContext, n multiOperandNode) (result.Value, error) {
	ops := n.GetOperands()
	left, err := ec.Eval(ops[0])
	if err != nil {
		return result.NewNull(nil), err
	}
	right, err := ec.Eval(ops[1])
	if err != nil {
		return result.NewNull(nil), err
	}
	url, _ := right.GolangValue().(string)

	switch n.GetName() {
	case "AnyInValueSet":
		lst, ok := left.GolangValue().(result.List)
		if !ok {
			return result.NewBoolean(false), nil
		}
		for _, v := range lst.Value {
			ok, err := membershipOf(ec, v, url)
			if err != nil {
				return result.NewNull(nil), err
			}
			if ok {
				return result.NewBoolean(true), nil
			}
		}
		return result.NewBoolean(false), nil
	default: // InValueSet, InCodeSystem
		if left.IsNull() {
			return result.NewNull(nil), nil
		}
		ok, err := membershipOf(ec, left, url)
		if err != nil {
			return result.NewNull(nil), err
		}
		return result.NewBoolean(ok), nil
	}
}

func membershipOf(ec *EvaluationContext, v result.Value, url string) (bool, error) {
	switch x := v.GolangValue().(type) {
	case result.Code:
		return ec.interp.terminology.MemberOf(x.System, x.Code, url)
	case result.Concept:
		for _, c := range x.Coding {
			ok, err := ec.interp.terminology.MemberOf(c.System, c.Code, url)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, nil
}

// evalSubsumption evaluates `subsumes`/`subsumed by` via the terminology provider.
func evalSubsumption(ec *EvaluationContext, n multiOperandNode) (result.Value, error) {
	ops := n.GetOperands()
	left, err := ec.Eval(ops[0])
	if err != nil {
		return result.NewNull(nil), err
	}
	right, err := ec.Eval(ops[1])
	if err != nil {
		return result.NewNull(nil), err
	}
	if left.IsNull() || right.IsNull() {
		return result.NewNull(nil), nil
	}
	lc, ok := left.GolangValue().(result.Code)
	if !ok {
		return result.NewNull(nil), nil
	}
	rc, ok := right.GolangValue().(result.Code)
	if !ok {
		return result.NewNull(nil), nil
	}
	if lc.System != rc.System {
		return result.NewBoolean(false), nil
	}
	sub, err := ec.interp.terminology.Subsumes(lc.System, lc.Code, rc.Code)
	if err != nil {
		return result.NewNull(nil), err
	}
	switch n.GetName() {
	case "Subsumes":
		return result.NewBoolean(sub == terminology.Equivalent || sub == terminology.Subsumes), nil
	default: // SubsumedBy
		return result.NewBoolean(sub == terminology.Equivalent || sub == terminology.SubsumedBy), nil
	}
}
