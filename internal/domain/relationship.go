package domain

import "maps"

// Relationship represents a directed, typed edge between two cards
type Relationship struct {
	ID          int64             `json:"id"`
	Type        string            `json:"type"`
	StartCardID int64             `json:"startCardId"`
	EndCardID   int64             `json:"endCardId"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// Clone returns a deep copy of the relationship
func (r Relationship) Clone() Relationship {
	r.Properties = maps.Clone(r.Properties)
	return r
}

// RelationshipUpdate is a partial update of a relationship. Endpoints are
// immutable once created.
type RelationshipUpdate struct {
	Type       Optional[string]            `json:"type,omitzero"`
	Properties map[string]Optional[string] `json:"properties,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u RelationshipUpdate) IsEmpty() bool {
	return !u.Type.IsSet() && len(u.Properties) == 0
}

// Merge combines u with a later update; later fields win
func (u RelationshipUpdate) Merge(later RelationshipUpdate) RelationshipUpdate {
	return RelationshipUpdate{
		Type:       u.Type.Or(later.Type),
		Properties: mergeKeyed(u.Properties, later.Properties),
	}
}

// Apply returns a copy of rel with the update applied
func (u RelationshipUpdate) Apply(rel Relationship) Relationship {
	out := rel.Clone()
	if v, ok := u.Type.Get(); ok {
		out.Type = v
	}
	out.Properties = applyKeyed(out.Properties, u.Properties)
	return out
}
