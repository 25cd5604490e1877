package symbolgraph

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

// buildWorkerMultiplier is applied to NumCPU for the build worker count.
const buildWorkerMultiplier = 2

// Build performs a full two-pass construction of the graph from per-file
// producer output. Pass one registers every declaration from every file so
// that name and receiver lookups can see forward references; pass two resolves
// conformance relations and references against the complete registry. The
// ordering is load-bearing: base type narrowing depends on symbols from other
// files already being present.
//
// Build does not clear existing contents; callers wanting a fresh graph call
// Clear first or construct a new Graph.
func (g *Graph) Build(ctx context.Context, files []symbol.FileInput) error {
	workers := runtime.NumCPU() * buildWorkerMultiplier

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for _, f := range files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, sym := range f.Symbols {
				g.Register(sym)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	g.mu.Lock()
	for _, f := range files {
		g.applyConformancesLocked(f.Conformances)
	}
	g.relinkConformancesLocked()
	g.mu.Unlock()

	// Resolution is read-only against the registry, so it parallelizes per
	// file. Edges are collected and applied in one batch afterwards.
	type resolved struct {
		ref        symbol.Reference
		candidates []symbol.SymbolID
	}
	results := make([][]resolved, len(files))
	rp := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, f := range files {
		rp.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch := make([]resolved, 0, len(f.References))
			for _, ref := range f.References {
				candidates := g.ResolveReference(ref, f.Path)
				if len(candidates) > 0 {
					batch = append(batch, resolved{ref: ref, candidates: candidates})
				}
			}
			results[i] = batch
			return nil
		})
	}
	if err := rp.Wait(); err != nil {
		return err
	}

	g.mu.Lock()
	for _, batch := range results {
		for _, r := range batch {
			g.attachEdgesLocked(r.ref, r.candidates)
		}
	}
	g.mu.Unlock()

	return nil
}

// AddFile registers one file's declarations and references into an existing
// graph. References recorded as unresolved by earlier files are retried, so
// adding files in either order converges on the same graph as a full build.
func (g *Graph) AddFile(file symbol.FileInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addFileLocked(file)
}

func (g *Graph) addFileLocked(file symbol.FileInput) {
	for _, sym := range file.Symbols {
		g.registerLocked(sym)
	}

	g.applyConformancesLocked(file.Conformances)
	g.retryPendingConformancesLocked()
	g.relinkConformancesLocked()

	for _, ref := range file.References {
		candidates := g.resolveLocked(ref)
		if len(candidates) == 0 {
			g.recordUnresolved(ref)
			continue
		}
		g.attachEdgesLocked(ref, candidates)
	}

	g.retryUnresolvedLocked()
}

// RemoveFile purges every declaration located in the given path and cascades
// deletion to any edge, conformance, implementation, binding, or conditional
// conformance mentioning a purged symbol. No dangling references survive.
func (g *Graph) RemoveFile(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeFileLocked(path)
}

func (g *Graph) removeFileLocked(path string) {
	// The file's unresolved references and parked conformance records go
	// first: a file can contribute those without contributing any symbol,
	// and UpdateFile must not let them accumulate across replacements.
	g.unresolvedMu.Lock()
	kept := g.unresolved[:0]
	for _, ref := range g.unresolved {
		if ref.Location.File != path {
			kept = append(kept, ref)
		}
	}
	g.unresolved = kept
	g.unresolvedMu.Unlock()

	keptConf := g.pendingConf[:0]
	for _, rec := range g.pendingConf {
		if rec.Location.File != path {
			keptConf = append(keptConf, rec)
		}
	}
	g.pendingConf = keptConf

	ids := append([]symbol.SymbolID(nil), g.byFile[path]...)
	if len(ids) == 0 {
		return
	}
	removed := make(map[symbol.SymbolID]struct{}, len(ids))
	for _, id := range ids {
		if sym, ok := g.symbols[id]; ok {
			g.unindexLocked(sym)
			delete(g.symbols, id)
			removed[id] = struct{}{}
		}
	}

	g.cascadeRemovalLocked(removed)

	g.resolveCache.Purge()
}

// cascadeRemovalLocked strips every derived structure of entries that mention
// a removed symbol.
func (g *Graph) cascadeRemovalLocked(removed map[symbol.SymbolID]struct{}) {
	for id := range removed {
		for to := range g.out[id] {
			delete(g.in[to], id)
			if len(g.in[to]) == 0 {
				delete(g.in, to)
			}
			g.edgeCount--
		}
		delete(g.out, id)

		for from := range g.in[id] {
			delete(g.out[from], id)
			if len(g.out[from]) == 0 {
				delete(g.out, from)
			}
			g.edgeCount--
		}
		delete(g.in, id)
	}

	for typeID, protos := range g.conformances {
		if _, gone := removed[typeID]; gone {
			delete(g.conformances, typeID)
			continue
		}
		g.conformances[typeID] = filterIDs(protos, removed)
		if len(g.conformances[typeID]) == 0 {
			delete(g.conformances, typeID)
		}
	}
	for protoID, types := range g.conformers {
		if _, gone := removed[protoID]; gone {
			delete(g.conformers, protoID)
			continue
		}
		g.conformers[protoID] = filterIDs(types, removed)
		if len(g.conformers[protoID]) == 0 {
			delete(g.conformers, protoID)
		}
	}
	for req, impls := range g.impls {
		if _, gone := removed[req]; gone {
			delete(g.impls, req)
			continue
		}
		g.impls[req] = filterIDs(impls, removed)
		if len(g.impls[req]) == 0 {
			delete(g.impls, req)
		}
	}
	for typeID, bindings := range g.assocTypes {
		if _, gone := removed[typeID]; gone {
			delete(g.assocTypes, typeID)
			continue
		}
		for name, concrete := range bindings {
			if _, gone := removed[concrete]; gone {
				delete(bindings, name)
			}
		}
		if len(bindings) == 0 {
			delete(g.assocTypes, typeID)
		}
	}
	for typeID := range g.conditional {
		if _, gone := removed[typeID]; gone {
			delete(g.conditional, typeID)
		}
	}
	for typeID := range g.conformanceNames {
		if _, gone := removed[typeID]; gone {
			delete(g.conformanceNames, typeID)
		}
	}
}

func filterIDs(ids []symbol.SymbolID, removed map[symbol.SymbolID]struct{}) []symbol.SymbolID {
	kept := ids[:0]
	for _, id := range ids {
		if _, gone := removed[id]; !gone {
			kept = append(kept, id)
		}
	}
	return kept
}

// UpdateFile replaces a file's contribution wholesale: the old symbols and
// every structure mentioning them are purged, then the new content is
// registered, all inside one exclusive section so no reader observes the
// intermediate empty state. Updating a path the graph has never seen behaves
// as AddFile.
func (g *Graph) UpdateFile(file symbol.FileInput) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeFileLocked(file.Path)
	g.addFileLocked(file)
}

// applyConformancesLocked resolves per-file conformance records to identities
// and installs the conformance relation. Records whose type or protocol is not
// registered yet are parked for retry.
func (g *Graph) applyConformancesLocked(records []symbol.ConformanceRecord) {
	for _, rec := range records {
		if !g.applyConformanceLocked(rec) {
			g.pendingConf = append(g.pendingConf, rec)
		}
	}
}

func (g *Graph) applyConformanceLocked(rec symbol.ConformanceRecord) bool {
	var typeIDs, protoIDs []symbol.SymbolID
	for _, id := range g.byName[rec.TypeName] {
		if sym, ok := g.symbols[id]; ok && sym.Kind.IsType() && sym.Kind != symbol.KindProtocol {
			typeIDs = append(typeIDs, id)
		}
	}
	if len(typeIDs) == 0 {
		return false
	}
	for _, id := range g.byName[rec.ProtocolName] {
		if sym, ok := g.symbols[id]; ok && sym.Kind == symbol.KindProtocol {
			protoIDs = append(protoIDs, id)
		}
	}
	for _, typeID := range typeIDs {
		// The name-level record always lands, so whitelists keyed on
		// protocol name see conformances to protocols the sources never
		// declare (stdlib and framework protocols).
		if g.conformanceNames[typeID] == nil {
			g.conformanceNames[typeID] = make(map[string]struct{}, 2)
		}
		g.conformanceNames[typeID][rec.ProtocolName] = struct{}{}
		for _, protoID := range protoIDs {
			g.addConformanceLocked(typeID, protoID)
		}
	}
	// Keep retrying until the protocol declaration shows up, if ever.
	return len(protoIDs) > 0
}

func (g *Graph) retryPendingConformancesLocked() {
	pending := g.pendingConf
	g.pendingConf = nil
	for _, rec := range pending {
		if !g.applyConformanceLocked(rec) {
			g.pendingConf = append(g.pendingConf, rec)
		}
	}
}

// relinkConformancesLocked derives requirement -> implementation pairs from
// the current conformance relation. Idempotent; re-run after any registration
// so members declared later (extensions in other files) still get linked.
func (g *Graph) relinkConformancesLocked() {
	for typeID, protos := range g.conformances {
		typ, ok := g.symbols[typeID]
		if !ok {
			continue
		}
		for _, protoID := range protos {
			for _, reqID := range g.protocolRequirementsLocked(protoID) {
				req, ok := g.symbols[reqID]
				if !ok {
					continue
				}
				for _, candID := range g.byName[req.Name] {
					cand, ok := g.symbols[candID]
					if !ok || cand.Kind != req.Kind || cand.ParentID == "" {
						continue
					}
					parent, ok := g.symbols[cand.ParentID]
					if !ok || parent.Kind == symbol.KindProtocol {
						continue
					}
					// Direct members and extension members both carry the
					// conforming type's name on their parent.
					if parent.ID == typeID || (parent.Kind == symbol.KindExtension && parent.Name == typ.Name) {
						g.addImplementationLocked(reqID, candID)
					}
				}
			}
		}
	}
}
