// Package librarymgr resolves and compiles a CQL library's `include` graph: parsing each source,
// topologically ordering the transitive closure, and lowering dependency-first so internal/lower
// always sees already-lowered includes. The teacher has no package of this name -- the equivalent
// logic (topological sort via goraph, a compiled-library cache) lives inline in its
// parser/parser.go (topologicalSortLibraries) and cql.go (the ELM type); this package generalizes
// that logic into its own component per SPEC_FULL.md §2/§13.
package librarymgr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/clinical-elm/cql/internal/lower"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/parser"
	"github.com/clinical-elm/cql/result"
	"gopkg.in/gyuho/goraph.v2"
)

// SourceProvider resolves the CQL source text for a library by (name, version), as named by an
// `include` declaration or a Manager.Compile root call. Implementations decide what an empty
// version means (e.g. "latest").
type SourceProvider func(name, version string) (source string, ok bool)

type cacheEntry struct {
	hash string
	lib  *model.Library
}

// Manager compiles CQL sources into lowered ELM trees, resolving `include` graphs transitively
// and caching by (name, version, sha256(source)) per SPEC_FULL.md §13, so recompiling an
// unchanged library -- even reached via a different including library -- is a cache hit.
type Manager struct {
	source SourceProvider

	mu    sync.Mutex
	cache map[string]cacheEntry // keyed by "name|version"
}

// New builds a Manager that resolves include sources via src.
func New(src SourceProvider) *Manager {
	return &Manager{source: src, cache: map[string]cacheEntry{}}
}

// Diagnostics collects parser diagnostics, lowering diagnostics, and librarymgr's own
// include-resolution errors. parser.Diagnostics and lower.Diagnostics are different, unrelated
// shapes with no shared base type; since both element kinds already implement error, a flat
// []error is the simplest common container rather than forcing one pre-existing shape onto the
// other.
type Diagnostics []error

// Error implements error, joining every entry.
func (d Diagnostics) Error() string {
	if len(d) == 0 {
		return ""
	}
	s := d[0].Error()
	for _, e := range d[1:] {
		s += "; " + e.Error()
	}
	return s
}

// HasErrors reports whether d is non-empty.
func (d Diagnostics) HasErrors() bool { return len(d) > 0 }

func cacheKey(name, version string) string { return name + "|" + version }

func contentHash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

type discovered struct {
	name string
	ver  string
	hash string
	lib  *model.Library // raw parsed, not yet lowered
}

// Compile resolves, parses and lowers the library named name at version (version may be "" for
// an unversioned include), along with its full transitive include closure, returning the root
// library's lowered ELM tree. An include the SourceProvider cannot resolve is reported as
// UnresolvedInclude; a cycle in the include graph is reported as CyclicInclude (spec.md §4.11)
// and fails the compile, since lowering cannot proceed without a dependency-first order.
func (m *Manager) Compile(ctx context.Context, name, version string) (*model.Library, Diagnostics, error) {
	var diags Diagnostics
	nodes := map[string]*discovered{}
	graph := goraph.NewGraph()

	var discover func(n, v string) (string, bool)
	discover = func(n, v string) (string, bool) {
		key := cacheKey(n, v)
		if _, ok := nodes[key]; ok {
			return key, true
		}
		src, ok := m.source(n, v)
		if !ok {
			diags = append(diags, fmt.Errorf("librarymgr: %w: %s|%s", result.ErrUnresolvedInclude, n, v))
			return key, false
		}
		lib, pdiags := parser.ParseLibrary(src)
		for _, pd := range pdiags {
			diags = append(diags, pd)
		}
		if lib == nil {
			diags = append(diags, fmt.Errorf("librarymgr: failed to parse %s|%s", n, v))
			return key, false
		}
		nodes[key] = &discovered{name: n, ver: v, hash: contentHash(src), lib: lib}
		graph.AddNode(goraph.NewNode(key))

		for _, inc := range lib.Includes {
			depKey, ok := discover(inc.Identifier.Qualified, inc.Identifier.Version)
			if !ok {
				continue
			}
			// Edge points dependency -> dependent (the teacher's convention in
			// topologicalSortLibraries), so TopologicalSort yields dependencies first.
			graph.AddEdge(depKey, key, 1)
		}
		return key, true
	}

	rootKey, ok := discover(name, version)
	if !ok {
		return nil, diags, fmt.Errorf("librarymgr: %w: %s|%s", result.ErrUnresolvedInclude, name, version)
	}

	sorted, isDAG := goraph.TopologicalSort(graph)
	if !isDAG {
		err := fmt.Errorf("librarymgr: %w: include graph for %s|%s", result.ErrCyclicInclude, name, version)
		diags = append(diags, err)
		return nil, diags, err
	}

	lowered := map[string]*model.Library{}
	var root *model.Library
	for _, sn := range sorted {
		key := sn.String()
		nd, ok := nodes[key]
		if !ok {
			continue
		}

		m.mu.Lock()
		ce, cached := m.cache[key]
		m.mu.Unlock()
		if cached && ce.hash == nd.hash {
			lowered[key] = ce.lib
			if key == rootKey {
				root = ce.lib
			}
			continue
		}

		includeMap := map[string]*model.Library{}
		for _, inc := range nd.lib.Includes {
			depKey := cacheKey(inc.Identifier.Qualified, inc.Identifier.Version)
			dl, ok := lowered[depKey]
			if !ok {
				continue
			}
			alias := inc.Alias
			if alias == "" {
				alias = inc.Identifier.Local
			}
			includeMap[alias] = dl
		}

		out, ldiags := lower.New(includeMap).Lower(nd.lib)
		for _, ld := range ldiags {
			diags = append(diags, ld)
		}

		m.mu.Lock()
		m.cache[key] = cacheEntry{hash: nd.hash, lib: out}
		m.mu.Unlock()

		lowered[key] = out
		if key == rootKey {
			root = out
		}
	}

	if root == nil {
		err := fmt.Errorf("librarymgr: %w: %s|%s", result.ErrUnresolvedInclude, name, version)
		diags = append(diags, err)
		return nil, diags, err
	}
	return root, diags, nil
}

// Invalidate drops every cached entry, forcing the next Compile to re-parse and re-lower
// everything. Used by callers that know their SourceProvider's backing store changed out from
// under a long-lived Manager (e.g. a REPL reloading a library file).
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = map[string]cacheEntry{}
}
