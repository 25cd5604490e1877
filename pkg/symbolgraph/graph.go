package symbolgraph

import "github.com/thomasaiwilcox/strictswift/pkg/symbol"

// Edge is a directed reference between two declarations.
type Edge struct {
	From symbol.SymbolID `json:"from" toon:"from"`
	To   symbol.SymbolID `json:"to" toon:"to"`
}

// AddEdge records a directed reference. Duplicate edges collapse to one.
func (g *Graph) AddEdge(from, to symbol.SymbolID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addEdgeLocked(from, to)
}

func (g *Graph) addEdgeLocked(from, to symbol.SymbolID) {
	if g.out[from] == nil {
		g.out[from] = make(map[symbol.SymbolID]struct{})
	}
	if _, exists := g.out[from][to]; exists {
		return
	}
	g.out[from][to] = struct{}{}
	if g.in[to] == nil {
		g.in[to] = make(map[symbol.SymbolID]struct{})
	}
	g.in[to][from] = struct{}{}
	g.edgeCount++
}

// References returns the targets of every edge leaving the given symbol.
func (g *Graph) References(id symbol.SymbolID) []symbol.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return idSetToSlice(g.out[id])
}

// ReferencedBy returns the sources of every edge arriving at the given symbol.
func (g *Graph) ReferencedBy(id symbol.SymbolID) []symbol.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return idSetToSlice(g.in[id])
}

// EdgeCount returns the exact number of distinct edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}

// Edges returns a snapshot of every edge in the graph.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]Edge, 0, g.edgeCount)
	for from, targets := range g.out {
		for to := range targets {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// AddProtocolConformance records that a type conforms to a protocol.
func (g *Graph) AddProtocolConformance(typeID, protocolID symbol.SymbolID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addConformanceLocked(typeID, protocolID)
}

func (g *Graph) addConformanceLocked(typeID, protocolID symbol.SymbolID) {
	if containsID(g.conformances[typeID], protocolID) {
		return
	}
	g.conformances[typeID] = append(g.conformances[typeID], protocolID)
	g.conformers[protocolID] = append(g.conformers[protocolID], typeID)
}

// ConformedProtocols returns the protocols a type declares conformance to.
func (g *Graph) ConformedProtocols(typeID symbol.SymbolID) []symbol.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]symbol.SymbolID(nil), g.conformances[typeID]...)
}

// ConformsToNamed reports whether a type declared conformance to the given
// protocol name, whether or not the protocol itself is registered.
func (g *Graph) ConformsToNamed(typeID symbol.SymbolID, protocolName string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.conformanceNames[typeID][protocolName]
	return ok
}

// DeclaredConformanceNames returns the protocol names a type declared
// conformance to.
func (g *Graph) DeclaredConformanceNames(typeID symbol.SymbolID) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.conformanceNames[typeID]))
	for name := range g.conformanceNames[typeID] {
		names = append(names, name)
	}
	return names
}

// ConformingTypes returns the types that conform to a protocol.
func (g *Graph) ConformingTypes(protocolID symbol.SymbolID) []symbol.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]symbol.SymbolID(nil), g.conformers[protocolID]...)
}

// AddProtocolImplementation pairs a protocol requirement with one of its
// implementations. One requirement may accumulate many implementations.
func (g *Graph) AddProtocolImplementation(requirement, implementation symbol.SymbolID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addImplementationLocked(requirement, implementation)
}

func (g *Graph) addImplementationLocked(requirement, implementation symbol.SymbolID) {
	if containsID(g.impls[requirement], implementation) {
		return
	}
	g.impls[requirement] = append(g.impls[requirement], implementation)
}

// ImplementingMethods returns every implementation recorded for a requirement.
func (g *Graph) ImplementingMethods(requirement symbol.SymbolID) []symbol.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]symbol.SymbolID(nil), g.impls[requirement]...)
}

// AllProtocolImplementations returns a snapshot of every requirement ->
// implementation pair. The reachability whitelist seeds from this.
func (g *Graph) AllProtocolImplementations() []symbol.ProtocolImplementation {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var pairs []symbol.ProtocolImplementation
	for req, impls := range g.impls {
		for _, impl := range impls {
			pairs = append(pairs, symbol.ProtocolImplementation{Requirement: req, Implementation: impl})
		}
	}
	return pairs
}

// ProtocolRequirements returns the member declarations of a protocol that
// conforming types must implement.
func (g *Graph) ProtocolRequirements(protocolID symbol.SymbolID) []symbol.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.protocolRequirementsLocked(protocolID)
}

func (g *Graph) protocolRequirementsLocked(protocolID symbol.SymbolID) []symbol.SymbolID {
	var reqs []symbol.SymbolID
	for _, childID := range g.children[protocolID] {
		child, ok := g.symbols[childID]
		if !ok {
			continue
		}
		switch child.Kind {
		case symbol.KindFunction, symbol.KindVariable, symbol.KindInitializer:
			reqs = append(reqs, childID)
		}
	}
	return reqs
}

// AddAssociatedTypeBinding records the concrete type a conforming type binds
// an associated type name to.
func (g *Graph) AddAssociatedTypeBinding(conformingType symbol.SymbolID, name string, concreteType symbol.SymbolID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.assocTypes[conformingType] == nil {
		g.assocTypes[conformingType] = make(map[string]symbol.SymbolID)
	}
	g.assocTypes[conformingType][name] = concreteType
}

// AssociatedTypeBinding returns the concrete type bound to an associated type
// name by a conforming type.
func (g *Graph) AssociatedTypeBinding(conformingType symbol.SymbolID, name string) (symbol.SymbolID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.assocTypes[conformingType][name]
	return id, ok
}

// AddConditionalConformance records a conformance constrained by generic
// requirements. Structurally equal duplicates collapse to one.
func (g *Graph) AddConditionalConformance(cc symbol.ConditionalConformance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.conditional[cc.ConformingType] {
		if existing.Equal(cc) {
			return
		}
	}
	g.conditional[cc.ConformingType] = append(g.conditional[cc.ConformingType], cc)
}

// ConditionalConformances returns the conditional conformances recorded for a type.
func (g *Graph) ConditionalConformances(typeID symbol.SymbolID) []symbol.ConditionalConformance {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]symbol.ConditionalConformance(nil), g.conditional[typeID]...)
}

// Clear resets the graph to empty.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func idSetToSlice(set map[symbol.SymbolID]struct{}) []symbol.SymbolID {
	if len(set) == 0 {
		return nil
	}
	ids := make([]symbol.SymbolID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func containsID(ids []symbol.SymbolID, id symbol.SymbolID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
