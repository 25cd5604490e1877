package symbolgraph

import (
	"github.com/thomasaiwilcox/strictswift/pkg/symbol"
)

// declare builds a symbol with a derived ID for test fixtures.
func declare(name, qualified string, kind symbol.Kind, file string, line uint32, parent symbol.SymbolID) symbol.Symbol {
	return symbol.Symbol{
		ID:            symbol.DeriveID("Test", qualified, kind, file, line),
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		Location:      symbol.Location{File: file, Line: line},
		Accessibility: symbol.AccessInternal,
		ParentID:      parent,
	}
}

// funcDecl is shorthand for a top-level internal function.
func funcDecl(name, file string, line uint32) symbol.Symbol {
	return declare(name, name, symbol.KindFunction, file, line, "")
}

// call builds a function call reference originating inside scope.
func call(target, scope, file string, line uint32) symbol.Reference {
	return symbol.Reference{
		ReferencedName: target,
		FullExpression: target + "()",
		Kind:           symbol.RefFunctionCall,
		Location:       symbol.Location{File: file, Line: line},
		ScopeContext:   scope,
	}
}
