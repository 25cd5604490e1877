// Package symbolgraph maintains the whole-program symbol graph: a registry of
// every known declaration, the directed reference edges between them, and the
// protocol relations the dead code analyzer consumes. Symbols are stored once
// and addressed by ID everywhere else; all indices are maintained under a
// single lock so concurrent readers never observe a half-updated state.
package symbolgraph

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

const resolveCacheSize = 4096

// Graph is the cross-file symbol graph. The zero value is not usable; call New.
type Graph struct {
	mu sync.RWMutex

	symbols     map[symbol.SymbolID]symbol.Symbol
	byName      map[string][]symbol.SymbolID
	byQualified map[string][]symbol.SymbolID
	byFile      map[string][]symbol.SymbolID
	children    map[symbol.SymbolID][]symbol.SymbolID

	out       map[symbol.SymbolID]map[symbol.SymbolID]struct{}
	in        map[symbol.SymbolID]map[symbol.SymbolID]struct{}
	edgeCount int

	conformances map[symbol.SymbolID][]symbol.SymbolID // type -> protocols
	conformers   map[symbol.SymbolID][]symbol.SymbolID // protocol -> types
	// Conformances recorded by protocol name. Covers protocols declared
	// outside the analyzed sources (CaseIterable, Codable), which never
	// resolve to a registered symbol.
	conformanceNames map[symbol.SymbolID]map[string]struct{}
	impls        map[symbol.SymbolID][]symbol.SymbolID // requirement -> implementations
	assocTypes   map[symbol.SymbolID]map[string]symbol.SymbolID
	conditional  map[symbol.SymbolID][]symbol.ConditionalConformance

	unresolvedMu sync.Mutex
	unresolved   []symbol.Reference

	// Conformance records whose type or protocol had not been registered yet
	// when the record arrived. Retried whenever a file adds symbols.
	pendingConf []symbol.ConformanceRecord

	// Memoizes candidate lookups keyed by (name, kind, base type). Purged on
	// every registry mutation; safe for concurrent use on its own.
	resolveCache *lru.Cache[string, []symbol.SymbolID]
}

// New creates an empty symbol graph.
func New() *Graph {
	cache, _ := lru.New[string, []symbol.SymbolID](resolveCacheSize)
	g := &Graph{resolveCache: cache}
	g.resetLocked()
	return g
}

// resetLocked reinitializes all storage. Callers hold the write lock (or own
// the graph exclusively, as New does).
func (g *Graph) resetLocked() {
	g.symbols = make(map[symbol.SymbolID]symbol.Symbol)
	g.byName = make(map[string][]symbol.SymbolID)
	g.byQualified = make(map[string][]symbol.SymbolID)
	g.byFile = make(map[string][]symbol.SymbolID)
	g.children = make(map[symbol.SymbolID][]symbol.SymbolID)
	g.out = make(map[symbol.SymbolID]map[symbol.SymbolID]struct{})
	g.in = make(map[symbol.SymbolID]map[symbol.SymbolID]struct{})
	g.edgeCount = 0
	g.conformances = make(map[symbol.SymbolID][]symbol.SymbolID)
	g.conformers = make(map[symbol.SymbolID][]symbol.SymbolID)
	g.conformanceNames = make(map[symbol.SymbolID]map[string]struct{})
	g.impls = make(map[symbol.SymbolID][]symbol.SymbolID)
	g.assocTypes = make(map[symbol.SymbolID]map[string]symbol.SymbolID)
	g.conditional = make(map[symbol.SymbolID][]symbol.ConditionalConformance)
	g.pendingConf = nil
	g.resolveCache.Purge()

	g.unresolvedMu.Lock()
	g.unresolved = nil
	g.unresolvedMu.Unlock()
}

// Register adds a declaration to the registry, updating every secondary index
// atomically with the primary map. Registering an ID that already exists
// replaces the previous symbol in place (last write wins), which is how an
// updated file re-registers a declaration at the same identity.
func (g *Graph) Register(sym symbol.Symbol) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registerLocked(sym)
}

func (g *Graph) registerLocked(sym symbol.Symbol) {
	if old, ok := g.symbols[sym.ID]; ok {
		g.unindexLocked(old)
	}
	g.symbols[sym.ID] = sym
	g.byName[sym.Name] = append(g.byName[sym.Name], sym.ID)
	g.byQualified[sym.QualifiedName] = append(g.byQualified[sym.QualifiedName], sym.ID)
	g.byFile[sym.Location.File] = append(g.byFile[sym.Location.File], sym.ID)
	if sym.ParentID != "" {
		g.children[sym.ParentID] = append(g.children[sym.ParentID], sym.ID)
	}
	g.resolveCache.Purge()
}

// unindexLocked removes a symbol from the secondary indices (not the primary
// map, not the relation stores).
func (g *Graph) unindexLocked(sym symbol.Symbol) {
	g.byName[sym.Name] = removeID(g.byName[sym.Name], sym.ID)
	if len(g.byName[sym.Name]) == 0 {
		delete(g.byName, sym.Name)
	}
	g.byQualified[sym.QualifiedName] = removeID(g.byQualified[sym.QualifiedName], sym.ID)
	if len(g.byQualified[sym.QualifiedName]) == 0 {
		delete(g.byQualified, sym.QualifiedName)
	}
	g.byFile[sym.Location.File] = removeID(g.byFile[sym.Location.File], sym.ID)
	if len(g.byFile[sym.Location.File]) == 0 {
		delete(g.byFile, sym.Location.File)
	}
	if sym.ParentID != "" {
		g.children[sym.ParentID] = removeID(g.children[sym.ParentID], sym.ID)
		if len(g.children[sym.ParentID]) == 0 {
			delete(g.children, sym.ParentID)
		}
	}
}

func removeID(ids []symbol.SymbolID, id symbol.SymbolID) []symbol.SymbolID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Symbol returns the declaration with the given ID.
func (g *Graph) Symbol(id symbol.SymbolID) (symbol.Symbol, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.symbols[id]
	return s, ok
}

// SymbolsNamed returns every declaration with the given simple name.
func (g *Graph) SymbolsNamed(name string) []symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.byName[name])
}

// SymbolsQualified returns every declaration with the given qualified name.
func (g *Graph) SymbolsQualified(qualifiedName string) []symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.byQualified[qualifiedName])
}

// SymbolsInFile returns every declaration located in the given file.
func (g *Graph) SymbolsInFile(path string) []symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.byFile[path])
}

// SymbolsInScope returns the declarations with the given qualified name plus
// every declaration whose parent chain includes one of them.
func (g *Graph) SymbolsInScope(qualifiedName string) []symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()

	roots := g.byQualified[qualifiedName]
	result := make([]symbol.Symbol, 0, len(roots))
	queue := append([]symbol.SymbolID(nil), roots...)
	seen := make(map[symbol.SymbolID]struct{}, len(roots))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s, ok := g.symbols[id]; ok {
			result = append(result, s)
		}
		queue = append(queue, g.children[id]...)
	}
	return result
}

// ChildSymbols returns the declarations whose parent is the given symbol.
func (g *Graph) ChildSymbols(id symbol.SymbolID) []symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.collectLocked(g.children[id])
}

// AllSymbols returns a snapshot of every registered declaration.
func (g *Graph) AllSymbols() []symbol.Symbol {
	g.mu.RLock()
	defer g.mu.RUnlock()
	result := make([]symbol.Symbol, 0, len(g.symbols))
	for _, s := range g.symbols {
		result = append(result, s)
	}
	return result
}

// SymbolCount returns the exact number of registered declarations.
func (g *Graph) SymbolCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.symbols)
}

func (g *Graph) collectLocked(ids []symbol.SymbolID) []symbol.Symbol {
	result := make([]symbol.Symbol, 0, len(ids))
	for _, id := range ids {
		if s, ok := g.symbols[id]; ok {
			result = append(result, s)
		}
	}
	return result
}
