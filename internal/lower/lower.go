// Package lower implements C7: the CQL->ELM lowering pass. It takes the model.Library tree the
// parser produces (which already contains ELM-shaped operator nodes, but unresolved
// model.IdentifierRef/model.FunctionRef names and no static types) and turns it into a fully
// resolved, statically-typed tree the interpreter can walk without any further name resolution.
// Mirrors the teacher's two-pass parser.go (collect then lower), but as a separate stage since
// this module's parser already builds the ELM-shaped tree directly.
package lower

import (
	"github.com/clinical-elm/cql/internal/reference"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/types"

	"gopkg.in/gyuho/goraph.v2"
)

// Lowerer holds the state of one library's lowering pass.
type Lowerer struct {
	refs       *reference.Resolver[model.IExpressionDef]
	params     map[string]*model.ParameterDef
	includes   map[string]*model.Library // local alias -> already-lowered library
	diags      Diagnostics
	currentCtx string
}

// New constructs a Lowerer. includes maps each local include alias (from the library's `include`
// statements) to the already-lowered model.Library it names; the library manager (C12) is
// responsible for lowering included libraries first, per its topological include order.
func New(includes map[string]*model.Library) *Lowerer {
	return &Lowerer{
		refs:     reference.NewResolver[model.IExpressionDef](),
		params:   make(map[string]*model.ParameterDef),
		includes: includes,
	}
}

// Lower resolves every reference in lib and assigns static types, returning the (mutated in
// place) library and any diagnostics. A non-empty Diagnostics does not necessarily mean lib is
// unusable - lowering continues past individual errors so a caller gets every finding at once,
// matching the parser's "never stop at the first error" policy.
func (lw *Lowerer) Lower(lib *model.Library) (*model.Library, Diagnostics) {
	if lib.Identifier != nil {
		lw.refs.SetCurrentLibrary(lib.Identifier.Qualified, lib.Identifier.Version)
	} else {
		lw.refs.SetCurrentUnnamed()
	}
	for _, inc := range lib.Includes {
		lw.refs.IncludeLibrary(inc.Alias, inc.Identifier.Qualified, inc.Identifier.Version)
	}
	for _, p := range lib.Parameters {
		lw.params[p.Name] = p
		if err := lw.refs.Define(p.Name, &model.ExpressionDef{Element: p.Element, Name: p.Name, AccessLevel: p.AccessLevel}, true); err != nil {
			lw.diags.add(DuplicateDefinition, p.Name, err.Error())
		}
	}
	for _, cs := range lib.CodeSystems {
		lw.defineName(cs.Name)
	}
	for _, vs := range lib.Valuesets {
		lw.defineName(vs.Name)
	}
	for _, c := range lib.Codes {
		lw.defineName(c.Name)
	}
	for _, c := range lib.Concepts {
		lw.defineName(c.Name)
	}
	for _, d := range lib.Statements.Defs {
		if err := lw.refs.Define(d.GetName(), d, d.GetAccessLevel() == model.Public); err != nil {
			lw.diags.add(DuplicateDefinition, d.GetName(), err.Error())
		}
	}

	lw.checkCyclicDefinitions(lib)

	for _, d := range lib.Statements.Defs {
		lw.currentCtx = d.GetContext()
		switch def := d.(type) {
		case *model.FunctionDef:
			lw.refs.EnterScope()
			for _, op := range def.Operands {
				if err := lw.refs.Alias(op.Name, &aliasDef{name: op.Name, resultType: op.Type}); err != nil {
					lw.diags.add(DuplicateDefinition, op.Name, err.Error())
				}
			}
			if def.Expression != nil {
				def.Expression = lw.lowerExpr(def.Expression)
			}
			lw.refs.ExitScope()
		case *model.ExpressionDef:
			if def.Expression != nil {
				def.Expression = lw.lowerExpr(def.Expression)
				def.SetResultType(def.Expression.GetResultType())
			}
		}
	}
	return lib, lw.diags
}

// aliasDef is the IExpressionDef bound for every non-top-level name (query source aliases, let
// clauses, with/without aliases, function operands). A dedicated type (rather than reusing
// model.ExpressionDef with empty fields) lets resolveIdentifier tell an alias binding apart from a
// real top-level definition unambiguously.
type aliasDef struct {
	name       string
	resultType types.IType
}

func (a *aliasDef) GetResultType() types.IType        { return a.resultType }
func (a *aliasDef) SetResultType(t types.IType)       { a.resultType = t }
func (a *aliasDef) GetName() string                   { return a.name }
func (a *aliasDef) GetContext() string                { return "" }
func (a *aliasDef) GetExpression() model.IExpression  { return nil }
func (a *aliasDef) GetAccessLevel() model.AccessLevel { return model.Private }

func (lw *Lowerer) defineName(name string) {
	if err := lw.refs.Define(name, nil, true); err != nil {
		lw.diags.add(DuplicateDefinition, name, err.Error())
	}
}

// checkCyclicDefinitions builds a dependency graph from each define's raw (pre-resolution)
// identifier references and runs a topological sort; a non-DAG result means some definitions form
// a reference cycle. This is a best-effort static check: it counts any bare identifier matching
// another local define's name as a dependency edge, which can over-approximate when a query alias
// happens to shadow a define name (the real resolution in lowerExpr would bind to the alias
// instead) - acceptable since the only consequence of an over-approximation here is a spurious
// CyclicDefinition diagnostic on already-confusing code.
func (lw *Lowerer) checkCyclicDefinitions(lib *model.Library) {
	names := make(map[string]bool, len(lib.Statements.Defs))
	for _, d := range lib.Statements.Defs {
		names[d.GetName()] = true
	}
	graph := goraph.NewGraph()
	for name := range names {
		graph.AddNode(goraph.NewNode(name))
	}
	for _, d := range lib.Statements.Defs {
		deps := map[string]bool{}
		collectIdentifiers(d.GetExpression(), deps)
		for dep := range deps {
			if dep == d.GetName() || !names[dep] {
				continue
			}
			graph.AddEdge(d.GetName(), dep, 1)
		}
	}
	if _, ok := goraph.TopologicalSort(graph); !ok {
		name := "(unnamed library)"
		if lib.Identifier != nil {
			name = lib.Identifier.Qualified
		}
		lw.diags.add(CyclicDefinition, name, "library contains a cyclic definition reference")
	}
}

func collectIdentifiers(e model.IExpression, out map[string]bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *model.IdentifierRef:
		out[n.Name] = true
	case *model.FunctionRef:
		for _, o := range n.Operands {
			collectIdentifiers(o, out)
		}
	case *model.Property:
		collectIdentifiers(n.Source, out)
	case *model.If:
		collectIdentifiers(n.Condition, out)
		collectIdentifiers(n.Then, out)
		collectIdentifiers(n.Else, out)
	case *model.Query:
		for _, s := range n.Sources {
			collectIdentifiers(s.Source, out)
		}
		collectIdentifiers(n.Where, out)
		if n.Return != nil {
			collectIdentifiers(n.Return.Expression, out)
		}
	case unaryNode:
		collectIdentifiers(n.GetOperand(), out)
	case multiOperandNode:
		for _, o := range n.GetOperands() {
			collectIdentifiers(o, out)
		}
	}
}
