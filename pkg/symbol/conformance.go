package symbol

// ProtocolConformance records that a type conforms to a protocol.
type ProtocolConformance struct {
	Type     SymbolID `json:"type" toon:"type"`
	Protocol SymbolID `json:"protocol" toon:"protocol"`
}

// ProtocolImplementation pairs a protocol requirement with one of its
// implementations. The relation is many-to-many: one requirement may be
// implemented by every conforming type.
type ProtocolImplementation struct {
	Requirement    SymbolID `json:"requirement" toon:"requirement"`
	Implementation SymbolID `json:"implementation" toon:"implementation"`
}

// WhereRequirementKind tags the variant of a generic where-clause requirement.
type WhereRequirementKind string

const (
	WhereConformance WhereRequirementKind = "conformance"
	WhereSameType    WhereRequirementKind = "same_type"
)

// WhereRequirement is one clause of a conditional conformance. Compared
// structurally: two requirements are equal when every field matches.
type WhereRequirement struct {
	Kind         WhereRequirementKind `json:"kind" toon:"kind"`
	TypeParam    string               `json:"type_param" toon:"type_param"`
	ProtocolName string               `json:"protocol_name,omitempty" toon:"protocol_name,omitempty"`
	ConcreteType string               `json:"concrete_type,omitempty" toon:"concrete_type,omitempty"`
}

// Equal reports structural equality.
func (w WhereRequirement) Equal(other WhereRequirement) bool {
	return w == other
}

// ConditionalConformance is a conformance that only holds under the stated
// generic-parameter requirements.
type ConditionalConformance struct {
	ConformingType SymbolID           `json:"conforming_type" toon:"conforming_type"`
	ProtocolName   string             `json:"protocol_name" toon:"protocol_name"`
	Requirements   []WhereRequirement `json:"requirements" toon:"requirements"`
	Location       Location           `json:"location" toon:"location"`
}

// Equal reports structural equality of two conditional conformances,
// requirement order included.
func (c ConditionalConformance) Equal(other ConditionalConformance) bool {
	if c.ConformingType != other.ConformingType || c.ProtocolName != other.ProtocolName {
		return false
	}
	if len(c.Requirements) != len(other.Requirements) {
		return false
	}
	for i := range c.Requirements {
		if !c.Requirements[i].Equal(other.Requirements[i]) {
			return false
		}
	}
	return true
}
