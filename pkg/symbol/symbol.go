// Package symbol defines the data model shared by the symbol graph and the
// dead code analyzer: declarations, references, and the per-file input unit
// produced by the Swift parser.
package symbol

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SymbolID is an opaque, stable identity for a declaration. IDs derived from
// identical inputs are identical, which is what lets an updated file re-register
// an unchanged declaration at the same identity.
type SymbolID string

// DeriveID computes the identity of a declaration from its defining
// coordinates. The digest covers module, qualified name, kind, file, and line
// so that two declarations can only collide by violating the producer
// contract (two distinct declarations at the same coordinates).
func DeriveID(module, qualifiedName string, kind Kind, file string, line uint32) SymbolID {
	h := xxhash.New()
	h.WriteString(module)
	h.WriteString("|")
	h.WriteString(qualifiedName)
	h.WriteString("|")
	h.WriteString(string(kind))
	h.WriteString("|")
	h.WriteString(file)
	h.WriteString("|")
	h.WriteString(strconv.FormatUint(uint64(line), 10))
	return SymbolID(fmt.Sprintf("%016x", h.Sum64()))
}

// Kind classifies a declaration.
type Kind string

const (
	KindClass         Kind = "class"
	KindStruct        Kind = "struct"
	KindProtocol      Kind = "protocol"
	KindEnum          Kind = "enum"
	KindEnumCase      Kind = "enum_case"
	KindFunction      Kind = "function"
	KindInitializer   Kind = "initializer"
	KindDeinitializer Kind = "deinitializer"
	KindVariable      Kind = "variable"
	KindExtension     Kind = "extension"
	KindTypealias     Kind = "typealias"
)

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// IsType reports whether the kind declares a nominal type.
func (k Kind) IsType() bool {
	switch k {
	case KindClass, KindStruct, KindProtocol, KindEnum, KindTypealias:
		return true
	}
	return false
}

// Accessibility is a declaration's access level.
type Accessibility string

const (
	AccessOpen        Accessibility = "open"
	AccessPublic      Accessibility = "public"
	AccessInternal    Accessibility = "internal"
	AccessFileprivate Accessibility = "fileprivate"
	AccessPrivate     Accessibility = "private"
)

// String returns the string representation.
func (a Accessibility) String() string {
	return string(a)
}

// Location is a source position.
type Location struct {
	File   string `json:"file" toon:"file"`
	Line   uint32 `json:"line" toon:"line"`
	Column uint32 `json:"column,omitempty" toon:"column,omitempty"`
}

// Symbol is a single declaration. Symbols are owned by the graph's registry
// and referenced everywhere else by ID only, so cycles between declarations
// are plain edges rather than an ownership problem.
type Symbol struct {
	ID            SymbolID            `json:"id" toon:"id"`
	Name          string              `json:"name" toon:"name"`
	QualifiedName string              `json:"qualified_name" toon:"qualified_name"`
	Kind          Kind                `json:"kind" toon:"kind"`
	Location      Location            `json:"location" toon:"location"`
	Accessibility Accessibility       `json:"accessibility" toon:"accessibility"`
	Attributes    map[string]struct{} `json:"-" toon:"-"`
	ParentID      SymbolID            `json:"parent_id,omitempty" toon:"parent_id,omitempty"`
}

// HasAttribute reports whether the declaration carries the named attribute.
// Attribute names are stored without the leading "@".
func (s *Symbol) HasAttribute(name string) bool {
	_, ok := s.Attributes[name]
	return ok
}

// AddAttribute records an attribute on the declaration.
func (s *Symbol) AddAttribute(name string) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]struct{}, 2)
	}
	s.Attributes[name] = struct{}{}
}
