package symbolgraph

import (
	"strings"

	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

// ResolveReference turns a raw textual reference into candidate symbol
// identities. Candidates are gathered by exact name, filtered by kind
// compatibility, then narrowed by the reference's inferred base type when one
// is present. Narrowing that matches nothing falls back to the unnarrowed
// kind-compatible set; two unrelated types declaring identically named members
// otherwise both stay live whenever either is used, hiding real dead code.
//
// A reference that matches no candidate is recorded in the unresolved list
// and returns an empty result. That is data, not an error.
func (g *Graph) ResolveReference(ref symbol.Reference, fromFile string) []symbol.SymbolID {
	candidates := g.lookupCandidates(ref)

	if len(candidates) == 0 {
		g.recordUnresolved(ref)
		return nil
	}
	return candidates
}

// lookupCandidates performs the name + kind + base type candidate search,
// memoized in the resolve cache.
func (g *Graph) lookupCandidates(ref symbol.Reference) []symbol.SymbolID {
	key := ref.ReferencedName + "\x00" + string(ref.Kind) + "\x00" + ref.InferredBaseType
	if cached, ok := g.resolveCache.Get(key); ok {
		return cached
	}

	g.mu.RLock()
	var compatible []symbol.SymbolID
	for _, id := range g.byName[ref.ReferencedName] {
		sym, ok := g.symbols[id]
		if !ok {
			continue
		}
		if kindCompatible(ref.Kind, sym.Kind) {
			compatible = append(compatible, id)
		}
	}

	result := compatible
	if ref.InferredBaseType != "" {
		var narrowed []symbol.SymbolID
		for _, id := range compatible {
			if g.enclosingTypeMatchesLocked(id, ref.InferredBaseType) {
				narrowed = append(narrowed, id)
			}
		}
		if len(narrowed) > 0 {
			result = narrowed
		}
	}
	// Install while still holding the read lock. Mutations purge the cache
	// under the write lock, so an entry added here can never outlive the
	// registry state it was computed from.
	g.resolveCache.Add(key, result)
	g.mu.RUnlock()

	return result
}

// enclosingTypeMatchesLocked reports whether the symbol's parent declaration
// matches the given base type by simple or qualified name.
func (g *Graph) enclosingTypeMatchesLocked(id symbol.SymbolID, baseType string) bool {
	sym, ok := g.symbols[id]
	if !ok || sym.ParentID == "" {
		return false
	}
	parent, ok := g.symbols[sym.ParentID]
	if !ok {
		return false
	}
	return parent.Name == baseType || parent.QualifiedName == baseType
}

// kindCompatible reports whether a declaration of the given kind can satisfy
// a reference of the given kind. Name matches with incompatible kinds are
// dropped outright.
func kindCompatible(refKind symbol.ReferenceKind, symKind symbol.Kind) bool {
	switch refKind {
	case symbol.RefTypeReference, symbol.RefMetatype, symbol.RefInheritance:
		return symKind.IsType()
	case symbol.RefFunctionCall:
		switch symKind {
		case symbol.KindFunction, symbol.KindInitializer, symbol.KindEnumCase:
			return true
		}
		return false
	case symbol.RefPropertyAccess:
		switch symKind {
		case symbol.KindVariable, symbol.KindEnumCase:
			return true
		}
		return false
	case symbol.RefEnumCase:
		return symKind == symbol.KindEnumCase
	}
	return false
}

func (g *Graph) recordUnresolved(ref symbol.Reference) {
	g.unresolvedMu.Lock()
	g.unresolved = append(g.unresolved, ref)
	g.unresolvedMu.Unlock()
}

// UnresolvedReferences returns a snapshot of every reference that resolved to
// zero candidates, for diagnostics.
func (g *Graph) UnresolvedReferences() []symbol.Reference {
	g.unresolvedMu.Lock()
	defer g.unresolvedMu.Unlock()
	return append([]symbol.Reference(nil), g.unresolved...)
}

// retryUnresolvedLocked re-attempts resolution of every recorded unresolved
// reference and installs edges for the ones that now succeed. Called after a
// file adds new symbols, so references that pointed forward into a file that
// had not been registered yet get their edges on arrival. Callers hold the
// write lock.
func (g *Graph) retryUnresolvedLocked() {
	g.unresolvedMu.Lock()
	pending := g.unresolved
	g.unresolved = nil
	g.unresolvedMu.Unlock()

	var still []symbol.Reference
	for _, ref := range pending {
		candidates := g.resolveLocked(ref)
		if len(candidates) == 0 {
			still = append(still, ref)
			continue
		}
		g.attachEdgesLocked(ref, candidates)
	}

	g.unresolvedMu.Lock()
	g.unresolved = append(g.unresolved, still...)
	g.unresolvedMu.Unlock()
}

// resolveLocked is the resolution algorithm under an already-held write lock,
// bypassing the cache (the cache was purged by the mutation that triggered
// the retry).
func (g *Graph) resolveLocked(ref symbol.Reference) []symbol.SymbolID {
	var compatible []symbol.SymbolID
	for _, id := range g.byName[ref.ReferencedName] {
		sym, ok := g.symbols[id]
		if !ok {
			continue
		}
		if kindCompatible(ref.Kind, sym.Kind) {
			compatible = append(compatible, id)
		}
	}
	if ref.InferredBaseType != "" {
		var narrowed []symbol.SymbolID
		for _, id := range compatible {
			if g.enclosingTypeMatchesLocked(id, ref.InferredBaseType) {
				narrowed = append(narrowed, id)
			}
		}
		if len(narrowed) > 0 {
			return narrowed
		}
	}
	return compatible
}

// attachEdgesLocked adds reference edges from the declaration enclosing the
// reference (identified by its scope context, within the reference's file) to
// each candidate. References from top-level code outside any declaration
// produce no edge.
func (g *Graph) attachEdgesLocked(ref symbol.Reference, candidates []symbol.SymbolID) {
	from := g.enclosingSymbolLocked(ref)
	if from == "" {
		return
	}
	for _, to := range candidates {
		if to == from {
			continue
		}
		g.addEdgeLocked(from, to)
	}
}

// enclosingSymbolLocked finds the declaration the reference occurs inside,
// preferring a scope-context match in the same file, then falling back to the
// innermost declaration in the file whose name is the last scope component.
func (g *Graph) enclosingSymbolLocked(ref symbol.Reference) symbol.SymbolID {
	if ref.ScopeContext == "" {
		return ""
	}
	for _, id := range g.byQualified[ref.ScopeContext] {
		if sym, ok := g.symbols[id]; ok && sym.Location.File == ref.Location.File {
			return id
		}
	}
	// Scope contexts are producer-rendered qualified names; tolerate a
	// mismatch against registry qualification by matching the last component.
	last := ref.ScopeContext
	if idx := strings.LastIndex(last, "."); idx >= 0 {
		last = last[idx+1:]
	}
	for _, id := range g.byName[last] {
		if sym, ok := g.symbols[id]; ok && sym.Location.File == ref.Location.File {
			return id
		}
	}
	return ""
}
