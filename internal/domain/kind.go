package domain

import "fmt"

// EntityKind identifies the kind of entity kept in the remote graph store
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindCard
	KindRelationship
	KindBoard
	KindWorkspace
	KindCustomQuery
)

// AllKinds lists every storable entity kind
var AllKinds = []EntityKind{KindCard, KindRelationship, KindBoard, KindWorkspace, KindCustomQuery}

// String returns the string representation of the kind
func (k EntityKind) String() string {
	switch k {
	case KindCard:
		return "card"
	case KindRelationship:
		return "relationship"
	case KindBoard:
		return "board"
	case KindWorkspace:
		return "workspace"
	case KindCustomQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ParseEntityKind converts a string back to an EntityKind
func ParseEntityKind(s string) (EntityKind, error) {
	for _, k := range AllKinds {
		if k.String() == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown entity kind: %q", s)
}
