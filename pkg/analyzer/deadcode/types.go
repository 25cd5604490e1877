package deadcode

import (
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

// Classification names the bucket a symbol landed in.
type Classification string

const (
	ClassEntryPoint Classification = "entry_point"
	ClassLive       Classification = "live"
	ClassDead       Classification = "dead"
	ClassIgnored    Classification = "ignored"
)

// Finding is one classified declaration, carried in the report lists.
type Finding struct {
	ID            symbol.SymbolID      `json:"id" toon:"id"`
	Name          string               `json:"name" toon:"name"`
	QualifiedName string               `json:"qualified_name" toon:"qualified_name"`
	Kind          symbol.Kind          `json:"kind" toon:"kind"`
	File          string               `json:"file" toon:"file"`
	Line          uint32               `json:"line" toon:"line"`
	Accessibility symbol.Accessibility `json:"accessibility" toon:"accessibility"`
}

// Statistics summarizes one analysis run.
type Statistics struct {
	TotalSymbols         int   `json:"total_symbols" toon:"total_symbols"`
	EntryPointCount      int   `json:"entry_point_count" toon:"entry_point_count"`
	LiveCount            int   `json:"live_count" toon:"live_count"`
	DeadCount            int   `json:"dead_count" toon:"dead_count"`
	IgnoredCount         int   `json:"ignored_count" toon:"ignored_count"`
	UnresolvedReferences int   `json:"unresolved_references" toon:"unresolved_references"`
	AnalysisTimeMs       int64 `json:"analysis_time_ms" toon:"analysis_time_ms"`
}

// Result partitions every registered symbol into entry/live/dead/ignored.
// The three sets are pairwise disjoint and together cover the registry.
type Result struct {
	EntryPoints []symbol.SymbolID `json:"entry_points" toon:"entry_points"`

	LiveSymbols    map[symbol.SymbolID]struct{} `json:"-" toon:"-"`
	DeadSymbols    map[symbol.SymbolID]struct{} `json:"-" toon:"-"`
	IgnoredSymbols map[symbol.SymbolID]struct{} `json:"-" toon:"-"`

	// Dead carries the dead set as report-ready findings, sorted by file
	// then line.
	Dead []Finding `json:"dead" toon:"dead"`

	Unresolved []symbol.Reference `json:"unresolved,omitempty" toon:"unresolved,omitempty"`
	Statistics Statistics         `json:"statistics" toon:"statistics"`
}

// IsLive reports whether the symbol is reachable and not ignored.
func (r *Result) IsLive(id symbol.SymbolID) bool {
	_, ok := r.LiveSymbols[id]
	return ok
}

// IsDead reports whether the symbol was classified dead.
func (r *Result) IsDead(id symbol.SymbolID) bool {
	_, ok := r.DeadSymbols[id]
	return ok
}

// IsIgnored reports whether the symbol was excluded from accounting.
func (r *Result) IsIgnored(id symbol.SymbolID) bool {
	_, ok := r.IgnoredSymbols[id]
	return ok
}
