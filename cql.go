// Package cql is the public evaluation facade (spec.md §4.13): an Engine compiles CQL libraries
// and evaluates their definitions or ad hoc expressions against a resource and parameter set.
// Each Engine holds its own compiled-library cache, retriever and terminology provider -- there is
// no package-level mutable state, so distinct Engines never interfere with one another. The
// teacher's equivalent (cql.go's top-level Parse/ELM type plus interpreter.Config) is split across
// a parse step and an eval step with its own config structs; this facade collapses that into one
// Engine built from functional options, matching how the rest of this module configures its
// pieces (librarymgr.New, retriever/terminology constructors) rather than a config-struct-per-call.
package cql

import (
	"context"
	"fmt"
	"time"

	"github.com/clinical-elm/cql/internal/lower"
	"github.com/clinical-elm/cql/interpreter"
	"github.com/clinical-elm/cql/librarymgr"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/parser"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/retriever"
	"github.com/clinical-elm/cql/terminology"
)

// adhocResultName is the definition name a bare EvaluateExpression source is wrapped under,
// following the "TESTRESULT" convention CQL test suites use for a library's single result-bearing
// define.
const adhocResultName = "TESTRESULT"

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithSource supplies the CQL source for libraries Compile/EvaluateDefinition/EvaluateAll name,
// and for any `include` they transitively reach.
func WithSource(src librarymgr.SourceProvider) Option {
	return func(e *Engine) { e.manager = librarymgr.New(src) }
}

// WithRetriever sets the data source Retrieve expressions read from. Leaving it unset means the
// CQL under evaluation must not perform any retrieves.
func WithRetriever(r retriever.Retriever) Option {
	return func(e *Engine) { e.retriever = r }
}

// WithTerminology sets the terminology service membership/subsumption/expansion operators call
// into. Leaving it unset means the CQL under evaluation must not reference a valueset or code
// system.
func WithTerminology(t terminology.Provider) Option {
	return func(e *Engine) { e.terminology = t }
}

// WithLocation sets the time zone Date/DateTime/Time literals with no explicit offset resolve
// against. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// Engine compiles and evaluates CQL. Construct with New; not safe for concurrent Compile calls
// against the same Engine (mirrors librarymgr.Manager's own locking, which only protects its
// cache, not caller-visible state like the libs index below).
type Engine struct {
	manager     *librarymgr.Manager
	retriever   retriever.Retriever
	terminology terminology.Provider
	loc         *time.Location

	libs map[string]*model.Library
}

// New builds an Engine from opts. Without WithSource, only EvaluateExpression (which needs no
// includes) can be used.
func New(opts ...Option) *Engine {
	e := &Engine{loc: time.Local, libs: map[string]*model.Library{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile resolves, parses and lowers the named library and its transitive includes, per
// spec.md §4.13's `compile(source) -> Library | Diagnostics`. The result is cached under the
// library's own qualified name for subsequent EvaluateDefinition/EvaluateAll calls and for
// resolution from other libraries' `include` statements.
func (e *Engine) Compile(ctx context.Context, name, version string) (*model.Library, librarymgr.Diagnostics, error) {
	if e.manager == nil {
		return nil, nil, fmt.Errorf("cql: Engine has no source provider, use WithSource")
	}
	lib, diags, err := e.manager.Compile(ctx, name, version)
	if err != nil {
		return nil, diags, err
	}
	if lib.Identifier != nil {
		e.libs[lib.Identifier.Qualified] = lib
	}
	return lib, diags, nil
}

func (e *Engine) now() time.Time { return time.Now().In(e.loc) }

// EvaluateDefinition compiles (or reuses the cached compile of) the named library and evaluates
// one of its top-level definitions against resource and params, per spec.md §4.13.
func (e *Engine) EvaluateDefinition(ctx context.Context, libName, version, defName string, resource result.Value, params map[string]result.Value) (result.Value, error) {
	lib, diags, err := e.Compile(ctx, libName, version)
	if err != nil {
		return result.NewNull(nil), err
	}
	if diags.HasErrors() {
		return result.NewNull(nil), diags
	}
	def := lib.DefByName(defName)
	if def == nil {
		return result.NewNull(nil), fmt.Errorf("cql: unresolved definition %q in %s|%s", defName, libName, version)
	}
	interp := interpreter.New(e.libs, e.retriever, e.terminology, e.loc)
	ec := interp.NewEvaluationContext(ctx, lib, params, resource, e.now())
	return ec.EvaluateDefinition(defName, def)
}

// EvaluateAll evaluates every public, non-function top-level definition of the named library
// against resource and params, per spec.md §4.13's `evaluate_all(resource?, params?) ->
// Map<Name,Value>`.
func (e *Engine) EvaluateAll(ctx context.Context, libName, version string, resource result.Value, params map[string]result.Value) (map[string]result.Value, error) {
	lib, diags, err := e.Compile(ctx, libName, version)
	if err != nil {
		return nil, err
	}
	if diags.HasErrors() {
		return nil, diags
	}
	interp := interpreter.New(e.libs, e.retriever, e.terminology, e.loc)
	ec := interp.NewEvaluationContext(ctx, lib, params, resource, e.now())

	out := map[string]result.Value{}
	if lib.Statements == nil {
		return out, nil
	}
	for _, def := range lib.Statements.Defs {
		if _, ok := def.(*model.FunctionDef); ok {
			continue
		}
		if def.GetAccessLevel() != model.Public {
			continue
		}
		v, err := ec.EvaluateDefinition(def.GetName(), def)
		if err != nil {
			return out, err
		}
		out[def.GetName()] = v
	}
	return out, nil
}

// EvaluateExpression parses and evaluates a single ad hoc CQL/FHIRPath expression with no library
// header, per spec.md §4.13's `evaluate_expression(source, resource?, params?) -> Value`. source
// is syntax-checked with parser.ParseExpression first, so a malformed bare expression gets a
// focused diagnostic without paying for the full compile below; the actual typed evaluation still
// runs source through a one-off library (`define TESTRESULT: <source>`), since identifier binding
// and type resolution are internal/lower's job, not the parser's, and Lower only operates on a
// *model.Library.
func (e *Engine) EvaluateExpression(ctx context.Context, source string, resource result.Value, params map[string]result.Value) (result.Value, error) {
	if _, diags := parser.ParseExpression(source); diags.HasErrors() {
		return result.NewNull(nil), diags
	}

	wrapped := "define " + adhocResultName + ": " + source
	lib, pdiags := parser.ParseLibrary(wrapped)
	if pdiags.HasErrors() {
		return result.NewNull(nil), pdiags
	}
	lowered, ldiags := lower.New(nil).Lower(lib)
	if ldiags.HasErrors() {
		return result.NewNull(nil), ldiags
	}

	libs := make(map[string]*model.Library, len(e.libs)+1)
	for k, v := range e.libs {
		libs[k] = v
	}
	if lowered.Identifier != nil {
		libs[lowered.Identifier.Qualified] = lowered
	}

	interp := interpreter.New(libs, e.retriever, e.terminology, e.loc)
	ec := interp.NewEvaluationContext(ctx, lowered, params, resource, e.now())
	def := lowered.DefByName(adhocResultName)
	return ec.EvaluateDefinition(adhocResultName, def)
}
