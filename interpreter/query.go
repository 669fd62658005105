package interpreter

import (
	"sort"

	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/types"
)

// row is one query iteration step: a frame binding every source alias (plus "$this" for a
// single-source query, matching FHIRPath's implicit context) and, once a relationship/where/let
// clause has run, whatever else it bound.
type row struct {
	frame *Frame
}

// evalQuery evaluates the general query pipeline (C9/§4.7): multi-source cartesian product, then
// with/without relationship filtering, where, let, then either an aggregate fold or a
// sort+return projection. Mirrors the teacher's query.go pipeline stage ordering.
func evalQuery(ec *EvaluationContext, n *model.Query) (result.Value, error) {
	rows, err := cartesianRows(ec, n.Sources)
	if err != nil {
		return result.NewNull(nil), err
	}

	for _, rel := range n.Relationships {
		rows, err = filterByRelationship(ec, rows, rel)
		if err != nil {
			return result.NewNull(nil), err
		}
	}

	if n.Where != nil {
		rows, err = filterWhere(ec, rows, n.Where)
		if err != nil {
			return result.NewNull(nil), err
		}
	}

	for _, let := range n.Lets {
		rows, err = bindLet(ec, rows, let)
		if err != nil {
			return result.NewNull(nil), err
		}
	}

	if n.Aggregate != nil {
		return evalAggregateClause(ec, rows, n.Aggregate)
	}

	if n.Sort != nil {
		rows = sortRows(ec, rows, n.Sort)
	}

	elemType := types.Unwrap(n.GetResultType())
	var out []result.Value
	for _, r := range rows {
		rowEC := ec.withFrame(r.frame)
		var v result.Value
		if n.Return != nil {
			v, err = rowEC.Eval(n.Return.Expression)
		} else {
			v, err = rowEC.Eval(rowValueExpr(n.Sources))
		}
		if err != nil {
			return result.NewNull(nil), err
		}
		out = append(out, v)
	}

	if n.Return == nil || n.Return.Distinct {
		out = dedupeValues(out)
	}
	return result.NewList(out, elemType), nil
}

// rowValueExpr returns an AliasRef to the single source alias when there is exactly one source
// (the common case), letting evalQuery reuse ec.Eval/AliasRef lookup instead of duplicating frame
// access; multi-source queries without an explicit return fall back to the first alias.
func rowValueExpr(sources []*model.AliasedSource) model.IExpression {
	if len(sources) == 0 {
		return nil
	}
	return &model.AliasRef{Expression: model.NewExpression(), Name: sources[0].Alias}
}

func cartesianRows(ec *EvaluationContext, sources []*model.AliasedSource) ([]row, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	rows := []row{{frame: ec.frame.Push()}}
	for _, src := range sources {
		elems, err := toElementList(ec, src.Source)
		if err != nil {
			return nil, err
		}
		var next []row
		for _, r := range rows {
			for _, el := range elems {
				f := r.frame.Push()
				f.Bind(src.Alias, el)
				if len(sources) == 1 {
					f.Bind("$this", el)
				}
				next = append(next, row{frame: f})
			}
		}
		rows = next
	}
	return rows, nil
}

// toElementList evaluates source and normalizes it to a slice: a List's elements, a single
// non-list value as a one-element slice, Null as zero elements.
func toElementList(ec *EvaluationContext, source model.IExpression) ([]result.Value, error) {
	v, err := ec.Eval(source)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	if lst, ok := v.GolangValue().(result.List); ok {
		return lst.Value, nil
	}
	return []result.Value{v}, nil
}

func filterByRelationship(ec *EvaluationContext, rows []row, rel model.IRelationshipClause) ([]row, error) {
	var alias string
	var source model.IExpression
	var suchThat model.IExpression
	var isWith bool
	switch r := rel.(type) {
	case *model.With:
		alias, source, suchThat, isWith = r.Alias, r.Source, r.SuchThat, true
	case *model.Without:
		alias, source, suchThat, isWith = r.Alias, r.Source, r.SuchThat, false
	default:
		return rows, nil
	}

	var out []row
	for _, r := range rows {
		relEC := ec.withFrame(r.frame)
		elems, err := toElementList(relEC, source)
		if err != nil {
			return nil, err
		}
		matched := false
		for _, el := range elems {
			f := r.frame.Push()
			f.Bind(alias, el)
			condEC := ec.withFrame(f)
			v, err := condEC.Eval(suchThat)
			if err != nil {
				return nil, err
			}
			if result.ToTri(v) == result.TriTrue {
				matched = true
				break
			}
		}
		if matched == isWith {
			out = append(out, r)
		}
	}
	return out, nil
}

func filterWhere(ec *EvaluationContext, rows []row, where model.IExpression) ([]row, error) {
	var out []row
	for _, r := range rows {
		v, err := ec.withFrame(r.frame).Eval(where)
		if err != nil {
			return nil, err
		}
		if result.ToTri(v) == result.TriTrue {
			out = append(out, r)
		}
	}
	return out, nil
}

func bindLet(ec *EvaluationContext, rows []row, let *model.LetClause) ([]row, error) {
	var out []row
	for _, r := range rows {
		v, err := ec.withFrame(r.frame).Eval(let.Expression)
		if err != nil {
			return nil, err
		}
		f := r.frame.Push()
		f.Bind(let.Identifier, v)
		out = append(out, row{frame: f})
	}
	return out, nil
}

func sortRows(ec *EvaluationContext, rows []row, sortClause *model.SortClause) []row {
	sorted := make([]row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, col := range sortClause.ByItems {
			vi := sortKeyValue(ec, sorted[i], col.Path)
			vj := sortKeyValue(ec, sorted[j], col.Path)
			c, ok := result.Compare(vi, vj)
			if !ok || c == 0 {
				continue
			}
			if col.Direction == model.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sorted
}

func sortKeyValue(ec *EvaluationContext, r row, path string) result.Value {
	v, ok := r.frame.Lookup("$this")
	if !ok {
		return result.NewNull(nil)
	}
	if path == "" {
		return v
	}
	nv, err := navigate(ec.withFrame(r.frame), v, path)
	if err != nil {
		return result.NewNull(nil)
	}
	return nv
}

func dedupeValues(vals []result.Value) []result.Value {
	var out []result.Value
	for _, v := range vals {
		dup := false
		for _, o := range out {
			if eq, ok := result.Equal(v, o); ok && eq {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// evalAggregateClause folds rows through the aggregate clause's accumulator, binding $this to
// each row's primary element and the accumulator to n.Identifier.
func evalAggregateClause(ec *EvaluationContext, rows []row, agg *model.AggregateClause) (result.Value, error) {
	acc, err := ec.Eval(agg.Starting)
	if err != nil {
		return result.NewNull(nil), err
	}
	for _, r := range rows {
		f := r.frame.Push()
		f.Bind(agg.Identifier, acc)
		stepEC := ec.withFrame(f)
		acc, err = stepEC.Eval(agg.Expression)
		if err != nil {
			return result.NewNull(nil), err
		}
	}
	return acc, nil
}
