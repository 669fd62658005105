// Package reference resolves names (definitions, parameters, valuesets, aliases, includes) across
// and within CQL libraries, shared by the lowering pass (C7) and the interpreter (C8). Mirrors the
// teacher's generic reference.Resolver, trimmed to a single payload type per resolver instance
// instead of two (defs and funcs share one map here, one entry per name; Define rejects a second
// entry under a name already present, so functions are not overloaded by arity).
package reference

import "fmt"

type libKey struct {
	qualified string
	version   string
}

type defKey struct {
	lib  libKey
	name string
}

type aliasKey struct {
	lib  libKey
	name string
}

type includeKey struct {
	localID    string
	includedBy libKey
}

type def[T any] struct {
	isPublic bool
	result   T
}

// Resolver tracks every definition and alias visible while lowering or evaluating one compiled
// unit (a single library plus everything it transitively includes). Resolvers are not shared
// between libraries; the library manager (C12) builds one per compile.
type Resolver[T any] struct {
	defs         map[defKey]def[T]
	aliases      []map[aliasKey]T
	includedLibs map[includeKey]libKey
	currLib      libKey
	unnamedCount int
}

// NewResolver constructs an empty Resolver.
func NewResolver[T any]() *Resolver[T] {
	return &Resolver[T]{
		defs:         make(map[defKey]def[T]),
		aliases:      make([]map[aliasKey]T, 0),
		includedLibs: make(map[includeKey]libKey),
	}
}

// SetCurrentLibrary scopes subsequent Define/Resolve calls to the named library.
func (r *Resolver[T]) SetCurrentLibrary(qualified, version string) {
	r.currLib = libKey{qualified: qualified, version: version}
}

// SetCurrentUnnamed scopes subsequent calls to a fresh anonymous library (every definition in an
// unnamed library is implicitly private, matching CQL's rule that only named libraries can be
// included).
func (r *Resolver[T]) SetCurrentUnnamed() {
	r.currLib = libKey{qualified: fmt.Sprintf("$unnamed%d", r.unnamedCount)}
	r.unnamedCount++
}

// IncludeLibrary records that localAlias now refers to the named library within the current one.
func (r *Resolver[T]) IncludeLibrary(localAlias, qualified, version string) {
	r.includedLibs[includeKey{localID: localAlias, includedBy: r.currLib}] = libKey{qualified: qualified, version: version}
}

// ResolveInclude returns the (qualified, version) of the library known locally as alias, or ok=false.
func (r *Resolver[T]) ResolveInclude(alias string) (qualified, version string, ok bool) {
	k, ok := r.includedLibs[includeKey{localID: alias, includedBy: r.currLib}]
	return k.qualified, k.version, ok
}

// Define creates name -> result in the current library, failing if name is already taken there.
func (r *Resolver[T]) Define(name string, result T, isPublic bool) error {
	k := defKey{r.currLib, name}
	if _, ok := r.defs[k]; ok {
		return fmt.Errorf("reference: %q is already defined in this library", name)
	}
	r.defs[k] = def[T]{isPublic: isPublic, result: result}
	return nil
}

// ResolveLocal resolves name against definitions and in-scope aliases of the current library.
func (r *Resolver[T]) ResolveLocal(name string) (T, error) {
	if d, ok := r.defs[defKey{r.currLib, name}]; ok {
		return d.result, nil
	}
	for i := len(r.aliases) - 1; i >= 0; i-- {
		if v, ok := r.aliases[i][aliasKey{r.currLib, name}]; ok {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("reference: could not resolve local reference %q", name)
}

// ResolveGlobal resolves libAlias.name, requiring the definition be public.
func (r *Resolver[T]) ResolveGlobal(libAlias, name string) (T, error) {
	var zero T
	qualified, version, ok := r.ResolveInclude(libAlias)
	if !ok {
		return zero, fmt.Errorf("reference: unknown included library %q", libAlias)
	}
	d, ok := r.defs[defKey{libKey{qualified, version}, name}]
	if !ok {
		return zero, fmt.Errorf("reference: could not resolve %s.%s", libAlias, name)
	}
	if !d.isPublic {
		return zero, fmt.Errorf("reference: %s.%s is private", libAlias, name)
	}
	return d.result, nil
}

// EnterScope pushes a new alias frame (query `alias`/`let` bindings).
func (r *Resolver[T]) EnterScope() { r.aliases = append(r.aliases, make(map[aliasKey]T)) }

// ExitScope pops the innermost alias frame.
func (r *Resolver[T]) ExitScope() {
	if len(r.aliases) > 0 {
		r.aliases = r.aliases[:len(r.aliases)-1]
	}
}

// Alias binds name to v in the innermost scope.
func (r *Resolver[T]) Alias(name string, v T) error {
	if len(r.aliases) == 0 {
		return fmt.Errorf("reference: internal error - EnterScope must be called before Alias")
	}
	r.aliases[len(r.aliases)-1][aliasKey{r.currLib, name}] = v
	return nil
}
