// Package deadcode classifies every declaration in the symbol graph as entry
// point, live, dead, or ignored. Liveness propagates from entry points and a
// structural whitelist through reference edges; everything the propagation
// never touches, and no ignore rule covers, is dead.
package deadcode

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/thomasaiwilcox/strictswift/pkg/config"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
	"github.com/thomasaiwilcox/strictswift/pkg/symbolgraph"
)

// AnalyzeGraph runs the classifier over an already-built symbol graph.
// The graph is only read; concurrent mutation during analysis is the
// caller's problem to avoid.
func AnalyzeGraph(ctx context.Context, g *symbolgraph.Graph, cfg config.DeadCodeConfig) (*Result, error) {
	start := time.Now()

	ignoredRes, err := compilePatterns(cfg.IgnoredPatterns)
	if err != nil {
		return nil, err
	}

	symbols := g.AllSymbols()
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].ID < symbols[j].ID })

	// Dense ordinals for the liveness bitmap.
	ordinal := make(map[symbol.SymbolID]uint32, len(symbols))
	for i, s := range symbols {
		ordinal[s.ID] = uint32(i)
	}

	cls := &classifier{
		graph:      g,
		cfg:        cfg,
		ignoredRes: ignoredRes,
		dispatch:   stringSet(cfg.FrameworkDispatchNames),
		attrs:      stringSet(cfg.EntryPointAttributes),
		prefixes:   cfg.IgnoredPrefixes,
	}

	var entries []symbol.SymbolID
	seeds := roaring.New()
	for _, s := range symbols {
		// Ignored symbols never become entry points; keeping them out of
		// the entry set preserves entry points being a subset of live.
		if cls.isIgnored(&s) {
			continue
		}
		if cls.isEntryPoint(&s) {
			entries = append(entries, s.ID)
			seeds.Add(ordinal[s.ID])
		}
	}
	for _, id := range cls.whitelisted(symbols) {
		if ord, ok := ordinal[id]; ok {
			seeds.Add(ord)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reachable := markReachable(g, symbols, ordinal, seeds)

	result := &Result{
		EntryPoints:    entries,
		LiveSymbols:    make(map[symbol.SymbolID]struct{}),
		DeadSymbols:    make(map[symbol.SymbolID]struct{}),
		IgnoredSymbols: make(map[symbol.SymbolID]struct{}),
		Unresolved:     g.UnresolvedReferences(),
	}

	for _, s := range symbols {
		switch {
		case cls.isIgnored(&s):
			result.IgnoredSymbols[s.ID] = struct{}{}
		case reachable.Contains(ordinal[s.ID]):
			result.LiveSymbols[s.ID] = struct{}{}
		default:
			result.DeadSymbols[s.ID] = struct{}{}
			result.Dead = append(result.Dead, Finding{
				ID:            s.ID,
				Name:          s.Name,
				QualifiedName: s.QualifiedName,
				Kind:          s.Kind,
				File:          s.Location.File,
				Line:          s.Location.Line,
				Accessibility: s.Accessibility,
			})
		}
	}
	sort.Slice(result.Dead, func(i, j int) bool {
		if result.Dead[i].File != result.Dead[j].File {
			return result.Dead[i].File < result.Dead[j].File
		}
		return result.Dead[i].Line < result.Dead[j].Line
	})

	result.Statistics = Statistics{
		TotalSymbols:         len(symbols),
		EntryPointCount:      len(entries),
		LiveCount:            len(result.LiveSymbols),
		DeadCount:            len(result.DeadSymbols),
		IgnoredCount:         len(result.IgnoredSymbols),
		UnresolvedReferences: len(result.Unresolved),
		AnalysisTimeMs:       time.Since(start).Milliseconds(),
	}
	return result, nil
}

type classifier struct {
	graph      *symbolgraph.Graph
	cfg        config.DeadCodeConfig
	ignoredRes []*regexp.Regexp
	dispatch   map[string]struct{}
	attrs      map[string]struct{}
	prefixes   []string
}

// isEntryPoint applies the configured criteria: exported accessibility,
// entry attributes, entry file patterns, and framework dispatch names.
// Dispatch names match globally by name alone; the graph cannot see the
// framework's call site, so zero in-edges must not mean dead.
//
// Executable mode disables the accessibility criteria outright: a binary has
// no external callers, so public and open declarations earn liveness the same
// way everything else does. Explicit markers (attributes, file patterns,
// dispatch names) apply in both modes.
func (c *classifier) isEntryPoint(s *symbol.Symbol) bool {
	if c.cfg.Mode != config.ModeExecutable {
		switch s.Accessibility {
		case symbol.AccessPublic:
			if c.cfg.TreatPublicAsEntryPoint {
				return true
			}
		case symbol.AccessOpen:
			if c.cfg.TreatOpenAsEntryPoint {
				return true
			}
		}
	}

	for attr := range s.Attributes {
		if _, ok := c.attrs[attr]; ok {
			return true
		}
	}

	for _, pattern := range c.cfg.EntryPointFilePatterns {
		if matchesFilePattern(pattern, s.Location.File) {
			return true
		}
	}

	if _, ok := c.dispatch[s.Name]; ok {
		return true
	}

	return false
}

// matchesFilePattern matches an entry-point file pattern against a path.
// Bare patterns ("*Tests.swift") match the file name; patterns containing a
// separator ("Tests/*.swift") match the trailing path components, so they
// work regardless of how deep the project root sits in the absolute path.
func matchesFilePattern(pattern, path string) bool {
	path = filepath.ToSlash(path)
	if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		return false
	}
	if ok, _ := filepath.Match(pattern, path); ok {
		return true
	}
	want := strings.Count(pattern, "/") + 1
	parts := strings.Split(path, "/")
	if len(parts) < want {
		return false
	}
	tail := strings.Join(parts[len(parts)-want:], "/")
	ok, _ := filepath.Match(pattern, tail)
	return ok
}

// whitelisted returns symbols that are live regardless of reachability:
// protocol requirement implementations, cases of enumerable enums, and
// members synthesized for auto-serializing conformances.
func (c *classifier) whitelisted(symbols []symbol.Symbol) []symbol.SymbolID {
	var ids []symbol.SymbolID

	// Conformance is a contract: whether the protocol is invoked through
	// static or dynamic dispatch is not observable from syntax.
	for _, pair := range c.graph.AllProtocolImplementations() {
		ids = append(ids, pair.Implementation)
	}

	synthNames := stringSet(c.cfg.SynthesizedMemberNames)

	for _, s := range symbols {
		if !s.Kind.IsType() {
			continue
		}
		for _, proto := range c.cfg.EnumerableProtocols {
			if s.Kind == symbol.KindEnum && c.graph.ConformsToNamed(s.ID, proto) {
				for _, child := range c.graph.ChildSymbols(s.ID) {
					if child.Kind == symbol.KindEnumCase {
						ids = append(ids, child.ID)
					}
				}
				break
			}
		}
		for _, proto := range c.cfg.SynthesizedMemberProtocols {
			if c.graph.ConformsToNamed(s.ID, proto) {
				for _, child := range c.graph.ChildSymbols(s.ID) {
					if _, ok := synthNames[child.Name]; ok {
						ids = append(ids, child.ID)
					}
				}
				break
			}
		}
	}
	return ids
}

// isIgnored excludes a symbol from dead/live accounting entirely.
func (c *classifier) isIgnored(s *symbol.Symbol) bool {
	if s.Kind == symbol.KindExtension || s.Kind == symbol.KindDeinitializer {
		return true
	}
	for _, prefix := range c.prefixes {
		if len(prefix) > 0 && len(s.Name) >= len(prefix) && s.Name[:len(prefix)] == prefix {
			return true
		}
	}
	for _, re := range c.ignoredRes {
		if re.MatchString(s.Name) {
			return true
		}
	}
	return false
}

// markReachable floods liveness from the seed set through reference edges.
// Traversal follows reference edges only; conformance and implementation
// relations seed the flood but do not propagate it.
func markReachable(g *symbolgraph.Graph, symbols []symbol.Symbol, ordinal map[symbol.SymbolID]uint32, seeds *roaring.Bitmap) *roaring.Bitmap {
	byOrdinal := make([]symbol.SymbolID, len(symbols))
	for _, s := range symbols {
		byOrdinal[ordinal[s.ID]] = s.ID
	}

	reachable := seeds.Clone()
	queue := make([]uint32, 0, seeds.GetCardinality())
	it := seeds.Iterator()
	for it.HasNext() {
		queue = append(queue, it.Next())
	}

	head := 0
	for head < len(queue) {
		ord := queue[head]
		head++
		for _, target := range g.References(byOrdinal[ord]) {
			tOrd, ok := ordinal[target]
			if !ok || reachable.Contains(tOrd) {
				continue
			}
			reachable.Add(tOrd)
			queue = append(queue, tOrd)
		}
	}
	return reachable
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid ignored pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
