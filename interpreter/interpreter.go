// Package interpreter implements C8: the single-threaded recursive tree-walker that evaluates a
// lowered model.Library against an EvaluationContext, per spec.md §4.7. Organized one file per
// operator family exactly as the teacher splits interpreter/operator_*.go (SPEC_FULL.md §11):
// dispatcher.go does the ELM-node-kind -> evaluator-function switch (teacher:
// operator_dispatcher.go); literal.go, property.go, refs.go, conditional.go and query.go
// cover the non-operator node kinds; the rest are grouped by operator family.
package interpreter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/clinical-elm/cql/internal/datehelpers"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/result"
	"github.com/clinical-elm/cql/retriever"
	"github.com/clinical-elm/cql/terminology"
)

// Frame is one lexical scope of local bindings (query aliases, let clauses, function operands,
// $this/$index/$total). Frames chain to a parent so inner scopes see outer bindings, per spec.md
// §3 ("frames form a singly-linked chain").
type Frame struct {
	parent *Frame
	vars   map[string]result.Value
}

// NewFrame creates a root frame with no parent.
func NewFrame() *Frame { return &Frame{vars: map[string]result.Value{}} }

// Push returns a child frame that sees f's bindings plus its own.
func (f *Frame) Push() *Frame { return &Frame{parent: f, vars: map[string]result.Value{}} }

// Bind sets name in the current (innermost) frame.
func (f *Frame) Bind(name string, v result.Value) { f.vars[name] = v }

// Lookup walks the frame chain outward for name.
func (f *Frame) Lookup(name string) (result.Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return result.Value{}, false
}

// Interpreter evaluates compiled libraries. It is stateless and safe to share across concurrent
// EvaluationContexts (spec.md §5: "compiled libraries are immutable and shareable").
type Interpreter struct {
	libs        map[string]*model.Library // qualified name -> lowered library
	retriever   retriever.Retriever
	terminology terminology.Provider
	defaultLoc  *time.Location
}

// New builds an Interpreter over the transitively-closed set of lowered libraries (keyed by
// qualified name, as the library manager, C12, resolves includes).
func New(libs map[string]*model.Library, r retriever.Retriever, t terminology.Provider, loc *time.Location) *Interpreter {
	if loc == nil {
		loc = time.UTC
	}
	return &Interpreter{libs: libs, retriever: r, terminology: t, defaultLoc: loc}
}

// EvaluationContext is one evaluation's mutable scope, per spec.md §3: current resource,
// parameter bindings, local frames, a memoization map for idempotent define re-entry, and the
// DataSource/TerminologyService references. Cheap to derive a child scope from (withFrame, withLibrary),
// never shared across evaluations (spec.md §5).
type EvaluationContext struct {
	interp   *Interpreter
	ctx      context.Context
	lib      *model.Library
	params   map[string]result.Value
	frame    *Frame
	memo     map[string]result.Value // keyed by "Qualified.Name"
	now      result.DateTime
	subject  result.Value // the context resource (e.g. the Patient), if any
	cancelled *atomic.Bool
}

// NewEvaluationContext begins one evaluation of lib, fixing the clock at evaluationTimestamp
// (spec.md §4.2: "Today()/Now() are evaluated once per evaluation and cached in the context").
func (i *Interpreter) NewEvaluationContext(goCtx context.Context, lib *model.Library, params map[string]result.Value, subject result.Value, evaluationTimestamp time.Time) *EvaluationContext {
	if goCtx == nil {
		goCtx = context.Background()
	}
	if params == nil {
		params = map[string]result.Value{}
	}
	return &EvaluationContext{
		interp:  i,
		ctx:     goCtx,
		lib:     lib,
		params:  params,
		frame:   NewFrame(),
		memo:    map[string]result.Value{},
		now:     result.DateTime{Time: evaluationTimestamp, Precision: datehelpers.Millisecond, HasTimezone: true},
		subject: subject,
		cancelled: &atomic.Bool{},
	}
}

// Cancel sets the cooperative cancellation flag, per spec.md §5.
func (ec *EvaluationContext) Cancel() { ec.cancelled.Store(true) }

// checkCancelled returns ErrCancelled if the flag is set, per spec.md §5 ("checks a cooperative
// cancellation flag on entry to every ExpressionRef, query iteration step, and retrieve call").
func (ec *EvaluationContext) checkCancelled() error {
	if ec.cancelled.Load() {
		return result.NewEngineError("", result.ErrCancelled, "evaluation cancelled")
	}
	select {
	case <-ec.ctx.Done():
		return result.NewEngineError("", result.ErrCancelled, ec.ctx.Err().Error())
	default:
		return nil
	}
}

// withFrame returns a shallow copy of ec with frame replacing ec.frame, sharing every other field
// (including the memoization map, which is per-evaluation, not per-scope).
func (ec *EvaluationContext) withFrame(frame *Frame) *EvaluationContext {
	ec2 := *ec
	ec2.frame = frame
	return &ec2
}

// withLibrary returns a shallow copy of ec evaluating within lib instead, used when an
// ExpressionRef crosses into an included library (its own defines see its own parameters, but
// share the clock/cancellation/memo of the root evaluation).
func (ec *EvaluationContext) withLibrary(lib *model.Library) *EvaluationContext {
	ec2 := *ec
	ec2.lib = lib
	ec2.frame = NewFrame()
	return &ec2
}

// Eval evaluates e against ec, the single entry point every node kind's evaluator ultimately
// reaches (see dispatcher.go).
func (ec *EvaluationContext) Eval(e model.IExpression) (result.Value, error) {
	if err := ec.checkCancelled(); err != nil {
		return result.NewNull(nil), err
	}
	return dispatch(ec, e)
}

// EvaluateDefinition memoizes and evaluates the named top-level definition in ec's current
// library, per spec.md §4.7 ("a definition evaluated N times executes once").
func (ec *EvaluationContext) EvaluateDefinition(qualifiedName string, def model.IExpressionDef) (result.Value, error) {
	if v, ok := ec.memo[qualifiedName]; ok {
		return v, nil
	}
	if def.GetExpression() == nil {
		return result.NewNull(nil), nil
	}
	v, err := ec.Eval(def.GetExpression())
	if err != nil {
		return result.NewNull(nil), err
	}
	ec.memo[qualifiedName] = v
	return v, nil
}

// LibraryByAlias resolves an include alias, declared on ec's current library, to its lowered
// model.Library.
func (ec *EvaluationContext) LibraryByAlias(alias string) (*model.Library, string, bool) {
	for _, inc := range ec.lib.Includes {
		if inc.Alias == alias {
			lib, ok := ec.interp.libs[inc.Identifier.Qualified]
			return lib, inc.Identifier.Qualified, ok
		}
	}
	return nil, "", false
}

func typeMismatch(op string, reason string) error {
	return fmt.Errorf("%s: %w: %s", op, result.ErrTypeMismatch, reason)
}
