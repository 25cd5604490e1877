package symbol

// ReferenceKind classifies a raw textual reference.
type ReferenceKind string

const (
	RefTypeReference  ReferenceKind = "type_reference"
	RefFunctionCall   ReferenceKind = "function_call"
	RefPropertyAccess ReferenceKind = "property_access"
	RefEnumCase       ReferenceKind = "enum_case"
	RefMetatype       ReferenceKind = "metatype"
	RefInheritance    ReferenceKind = "inheritance"
)

// String returns the string representation.
func (k ReferenceKind) String() string {
	return string(k)
}

// Reference is a raw reference observed in source text. It is transient input
// to resolution: only the resulting edges are retained by the graph, except
// that references matching no candidate are kept for diagnostics.
type Reference struct {
	ReferencedName   string        `json:"referenced_name" toon:"referenced_name"`
	FullExpression   string        `json:"full_expression,omitempty" toon:"full_expression,omitempty"`
	Kind             ReferenceKind `json:"kind" toon:"kind"`
	Location         Location      `json:"location" toon:"location"`
	ScopeContext     string        `json:"scope_context,omitempty" toon:"scope_context,omitempty"`
	InferredBaseType string        `json:"inferred_base_type,omitempty" toon:"inferred_base_type,omitempty"`
}

// ConformanceRecord is a per-file observation that a type declares conformance
// to a protocol, by name. The graph resolves the names to identities during
// the relation pass.
type ConformanceRecord struct {
	TypeName     string   `json:"type_name" toon:"type_name"`
	ProtocolName string   `json:"protocol_name" toon:"protocol_name"`
	Location     Location `json:"location" toon:"location"`
}

// FileInput is one file's worth of producer output: every declaration, every
// raw reference, and every conformance observed in that file.
type FileInput struct {
	Path         string              `json:"path" toon:"path"`
	Module       string              `json:"module,omitempty" toon:"module,omitempty"`
	Symbols      []Symbol            `json:"symbols" toon:"symbols"`
	References   []Reference         `json:"references" toon:"references"`
	Conformances []ConformanceRecord `json:"conformances,omitempty" toon:"conformances,omitempty"`
}
