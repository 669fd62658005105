package interpreter

import (
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/retriever"
)

// evalRetrieve evaluates a `[ResourceType: codeFilter]` expression (C9), delegating to the
// configured retriever. Only the first code-filter and date-filter element is honored -- a
// simplification in the absence of a data model schema to tell which filter elements compose
// conjunctively, per spec.md §1 Non-goals.
func evalRetrieve(ec *EvaluationContext, n *model.Retrieve) (result.Value, error) {
	if ec.interp.retriever == nil {
		return result.NewList(nil, nil), nil
	}
	var codeFilter *retriever.CodeFilter
	if len(n.CodeFilter) > 0 {
		cf, err := evalCodeFilterElement(ec, n.CodeFilter[0])
		if err != nil {
			return result.NewNull(nil), err
		}
		codeFilter = cf
	}
	var dateFilter *retriever.DateFilter
	if len(n.DateFilter) > 0 {
		df, err := evalDateFilterElement(ec, n.DateFilter[0])
		if err != nil {
			return result.NewNull(nil), err
		}
		dateFilter = df
	}
	patientID := subjectPatientID(ec.subject)
	vals, err := ec.interp.retriever.Retrieve(ec.ctx, n.DataType, patientID, codeFilter, dateFilter)
	if err != nil {
		return result.NewNull(nil), result.NewEngineError("Retrieve", result.ErrDataSource, err.Error())
	}
	return result.NewList(vals, nil), nil
}

func subjectPatientID(subject result.Value) string {
	if subject.IsNull() {
		return ""
	}
	n, ok := asNode(subject)
	if !ok {
		return ""
	}
	return n.ID()
}

func evalCodeFilterElement(ec *EvaluationContext, el *model.CodeFilterElement) (*retriever.CodeFilter, error) {
	var codes []result.Code
	switch {
	case el.ValueSet != nil:
		urlVal, err := evalTerminologyRef(ec, el.ValueSet)
		if err != nil {
			return nil, err
		}
		url, _ := urlVal.GolangValue().(string)
		if ec.interp.terminology != nil {
			expanded, err := ec.interp.terminology.Expand(url)
			if err != nil {
				return nil, result.NewEngineError("Retrieve", result.ErrTerminology, err.Error())
			}
			codes = expanded
		}
	case el.Code != nil:
		v, err := ec.Eval(el.Code)
		if err != nil {
			return nil, err
		}
		codes = flattenCodes(v)
	case el.CodeSystem != nil:
		sysVal, err := evalTerminologyRef(ec, el.CodeSystem)
		if err != nil {
			return nil, err
		}
		sys, _ := sysVal.GolangValue().(string)
		codes = []result.Code{{System: sys}}
	}
	return &retriever.CodeFilter{Path: el.Path, Codes: codes}, nil
}

func flattenCodes(v result.Value) []result.Code {
	switch x := v.GolangValue().(type) {
	case result.Code:
		return []result.Code{x}
	case result.Concept:
		return x.Coding
	case result.List:
		var out []result.Code
		for _, e := range x.Value {
			out = append(out, flattenCodes(e)...)
		}
		return out
	}
	return nil
}

func evalDateFilterElement(ec *EvaluationContext, el *model.DateFilterElement) (*retriever.DateFilter, error) {
	v, err := ec.Eval(el.Range)
	if err != nil {
		return nil, err
	}
	iv, ok := v.GolangValue().(result.Interval)
	if !ok {
		return nil, nil
	}
	return &retriever.DateFilter{Path: el.Path, Range: iv}, nil
}
