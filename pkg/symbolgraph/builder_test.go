package symbolgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

func twoFileFixture() (symbol.FileInput, symbol.FileInput) {
	entry := funcDecl("entryPoint", "file1.swift", 1)
	entry.Accessibility = symbol.AccessPublic
	file1 := symbol.FileInput{
		Path:    "file1.swift",
		Symbols: []symbol.Symbol{entry},
		References: []symbol.Reference{
			call("helperFromOtherFile", "entryPoint", "file1.swift", 2),
		},
	}

	helper := funcDecl("helperFromOtherFile", "file2.swift", 1)
	another := funcDecl("anotherHelper", "file2.swift", 4)
	isolated := funcDecl("isolatedFunction", "file2.swift", 7)
	file2 := symbol.FileInput{
		Path:    "file2.swift",
		Symbols: []symbol.Symbol{helper, another, isolated},
		References: []symbol.Reference{
			call("anotherHelper", "helperFromOtherFile", "file2.swift", 2),
		},
	}
	return file1, file2
}

func TestBuildTwoPassCrossFileResolution(t *testing.T) {
	g := New()
	file1, file2 := twoFileFixture()
	require.NoError(t, g.Build(context.Background(), []symbol.FileInput{file1, file2}))

	assert.Equal(t, 4, g.SymbolCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Empty(t, g.UnresolvedReferences())

	entry := g.SymbolsNamed("entryPoint")[0]
	helper := g.SymbolsNamed("helperFromOtherFile")[0]
	assert.Equal(t, []symbol.SymbolID{helper.ID}, g.References(entry.ID))
}

func TestIdempotentRebuild(t *testing.T) {
	g := New()
	file1, file2 := twoFileFixture()
	files := []symbol.FileInput{file1, file2}

	require.NoError(t, g.Build(context.Background(), files))
	symbols1, edges1 := g.SymbolCount(), g.EdgeCount()

	g.Clear()
	require.NoError(t, g.Build(context.Background(), files))

	assert.Equal(t, symbols1, g.SymbolCount())
	assert.Equal(t, edges1, g.EdgeCount())
}

func TestIncrementalEquivalence(t *testing.T) {
	file1, file2 := twoFileFixture()

	full := New()
	require.NoError(t, full.Build(context.Background(), []symbol.FileInput{file1, file2}))

	forward := New()
	forward.AddFile(file1)
	forward.AddFile(file2)

	backward := New()
	backward.AddFile(file2)
	backward.AddFile(file1)

	for _, g := range []*Graph{forward, backward} {
		assert.Equal(t, full.SymbolCount(), g.SymbolCount())
		assert.Equal(t, full.EdgeCount(), g.EdgeCount())
		assert.Empty(t, g.UnresolvedReferences())
	}
}

func TestRemoveFileCompleteness(t *testing.T) {
	g := New()
	file1, file2 := twoFileFixture()
	require.NoError(t, g.Build(context.Background(), []symbol.FileInput{file1, file2}))

	removed := make(map[symbol.SymbolID]struct{})
	for _, s := range g.SymbolsInFile("file2.swift") {
		removed[s.ID] = struct{}{}
	}

	g.RemoveFile("file2.swift")

	assert.Empty(t, g.SymbolsInFile("file2.swift"))
	for _, e := range g.Edges() {
		_, fromGone := removed[e.From]
		_, toGone := removed[e.To]
		assert.False(t, fromGone || toGone, "edge %v survives removal of its endpoint", e)
	}
	assert.Equal(t, 1, g.SymbolCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestRemoveSingleClassEmptiesGraph(t *testing.T) {
	g := New()
	cls := declare("Person", "Person", symbol.KindClass, "Person.swift", 1, "")
	method := declare("greet", "Person.greet()", symbol.KindFunction, "Person.swift", 2, cls.ID)
	file := symbol.FileInput{
		Path:    "Person.swift",
		Symbols: []symbol.Symbol{cls, method},
		References: []symbol.Reference{
			call("greet", "Person", "Person.swift", 3),
		},
	}
	require.NoError(t, g.Build(context.Background(), []symbol.FileInput{file}))
	require.NotZero(t, g.SymbolCount())

	g.RemoveFile("Person.swift")

	assert.Equal(t, 0, g.SymbolCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestRemoveUnknownFileIsNoOp(t *testing.T) {
	g := New()
	g.Register(funcDecl("a", "x.swift", 1))
	g.RemoveFile("never-seen.swift")
	assert.Equal(t, 1, g.SymbolCount())
}

func TestUpdateFileReplacesWholesale(t *testing.T) {
	g := New()
	file1, file2 := twoFileFixture()
	require.NoError(t, g.Build(context.Background(), []symbol.FileInput{file1, file2}))

	// New version of file2 drops isolatedFunction and renames nothing else.
	helper := funcDecl("helperFromOtherFile", "file2.swift", 1)
	another := funcDecl("anotherHelper", "file2.swift", 4)
	updated := symbol.FileInput{
		Path:    "file2.swift",
		Symbols: []symbol.Symbol{helper, another},
		References: []symbol.Reference{
			call("anotherHelper", "helperFromOtherFile", "file2.swift", 2),
		},
	}
	g.UpdateFile(updated)

	assert.Len(t, g.SymbolsInFile("file2.swift"), 2)
	assert.Empty(t, g.SymbolsNamed("isolatedFunction"))
	// Intra-file edge restored by the update.
	got := g.References(helper.ID)
	require.Len(t, got, 1)
	assert.Equal(t, another.ID, got[0])
}

func TestUpdateFileSymbolLessKeepsUnresolvedStable(t *testing.T) {
	// A file can contribute references without contributing any symbol
	// (top-level script code whose declarations all failed to parse).
	// Replacing it must swap its unresolved references, not stack them.
	g := New()
	file := symbol.FileInput{
		Path: "script.swift",
		References: []symbol.Reference{
			call("neverDeclared", "main", "script.swift", 3),
		},
	}
	g.AddFile(file)
	require.Len(t, g.UnresolvedReferences(), 1)

	g.UpdateFile(file)
	g.UpdateFile(file)

	assert.Len(t, g.UnresolvedReferences(), 1)
}

func TestUpdateFileSymbolLessReplacesPendingConformance(t *testing.T) {
	g := New()
	file := symbol.FileInput{
		Path: "ext.swift",
		Conformances: []symbol.ConformanceRecord{
			{TypeName: "Person", ProtocolName: "Greeter", Location: symbol.Location{File: "ext.swift", Line: 1}},
		},
	}
	g.AddFile(file)
	g.UpdateFile(file)

	// Declaring the type and protocol afterwards must install exactly one
	// conformance; a stale duplicate of the parked record would show up as
	// a repeated protocol entry.
	person := declare("Person", "Person", symbol.KindClass, "person.swift", 1, "")
	g.AddFile(symbol.FileInput{Path: "person.swift", Symbols: []symbol.Symbol{person}})
	proto := declare("Greeter", "Greeter", symbol.KindProtocol, "greeter.swift", 1, "")
	g.AddFile(symbol.FileInput{Path: "greeter.swift", Symbols: []symbol.Symbol{proto}})

	assert.Equal(t, []symbol.SymbolID{proto.ID}, g.ConformedProtocols(person.ID))
}

func TestUpdateFileOnUnknownPathActsAsAdd(t *testing.T) {
	g := New()
	_, file2 := twoFileFixture()
	g.UpdateFile(file2)
	assert.Equal(t, 3, g.SymbolCount())
}

func TestBuildLinksProtocolImplementations(t *testing.T) {
	g := New()
	proto := declare("Greeter", "Greeter", symbol.KindProtocol, "greeter.swift", 1, "")
	req := declare("greet", "Greeter.greet()", symbol.KindFunction, "greeter.swift", 2, proto.ID)
	person := declare("Person", "Person", symbol.KindClass, "person.swift", 1, "")
	impl := declare("greet", "Person.greet()", symbol.KindFunction, "person.swift", 2, person.ID)

	files := []symbol.FileInput{
		{Path: "greeter.swift", Symbols: []symbol.Symbol{proto, req}},
		{
			Path:    "person.swift",
			Symbols: []symbol.Symbol{person, impl},
			Conformances: []symbol.ConformanceRecord{
				{TypeName: "Person", ProtocolName: "Greeter", Location: symbol.Location{File: "person.swift", Line: 1}},
			},
		},
	}
	require.NoError(t, g.Build(context.Background(), files))

	assert.Equal(t, []symbol.SymbolID{proto.ID}, g.ConformedProtocols(person.ID))
	assert.Equal(t, []symbol.SymbolID{impl.ID}, g.ImplementingMethods(req.ID))
}

func TestAddFileRetriesPendingConformance(t *testing.T) {
	g := New()
	person := declare("Person", "Person", symbol.KindClass, "person.swift", 1, "")
	impl := declare("greet", "Person.greet()", symbol.KindFunction, "person.swift", 2, person.ID)
	g.AddFile(symbol.FileInput{
		Path:    "person.swift",
		Symbols: []symbol.Symbol{person, impl},
		Conformances: []symbol.ConformanceRecord{
			{TypeName: "Person", ProtocolName: "Greeter", Location: symbol.Location{File: "person.swift", Line: 1}},
		},
	})
	// Protocol not registered yet: conformance parks as pending.
	assert.Empty(t, g.ConformedProtocols(person.ID))

	proto := declare("Greeter", "Greeter", symbol.KindProtocol, "greeter.swift", 1, "")
	req := declare("greet", "Greeter.greet()", symbol.KindFunction, "greeter.swift", 2, proto.ID)
	g.AddFile(symbol.FileInput{Path: "greeter.swift", Symbols: []symbol.Symbol{proto, req}})

	assert.Equal(t, []symbol.SymbolID{proto.ID}, g.ConformedProtocols(person.ID))
	assert.Equal(t, []symbol.SymbolID{impl.ID}, g.ImplementingMethods(req.ID))
}

func TestExtensionMemberLinksToConformance(t *testing.T) {
	g := New()
	proto := declare("Greeter", "Greeter", symbol.KindProtocol, "greeter.swift", 1, "")
	req := declare("greet", "Greeter.greet()", symbol.KindFunction, "greeter.swift", 2, proto.ID)
	person := declare("Person", "Person", symbol.KindClass, "person.swift", 1, "")
	ext := declare("Person", "Person", symbol.KindExtension, "ext.swift", 1, "")
	extImpl := declare("greet", "Person.greet()", symbol.KindFunction, "ext.swift", 2, ext.ID)

	g.AddFile(symbol.FileInput{Path: "greeter.swift", Symbols: []symbol.Symbol{proto, req}})
	g.AddFile(symbol.FileInput{
		Path:    "person.swift",
		Symbols: []symbol.Symbol{person},
		Conformances: []symbol.ConformanceRecord{
			{TypeName: "Person", ProtocolName: "Greeter", Location: symbol.Location{File: "person.swift", Line: 1}},
		},
	})
	g.AddFile(symbol.FileInput{Path: "ext.swift", Symbols: []symbol.Symbol{ext, extImpl}})

	assert.Equal(t, []symbol.SymbolID{extImpl.ID}, g.ImplementingMethods(req.ID))
}
