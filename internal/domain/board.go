package domain

import (
	"maps"
	"slices"
)

// Point is a position on a board canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the placement of a card on a board canvas
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Board is a canvas holding a subset of the graph's cards
type Board struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Placements map[int64]Rect `json:"placements,omitempty"`
}

// Clone returns a deep copy of the board
func (b Board) Clone() Board {
	b.Placements = maps.Clone(b.Placements)
	return b
}

// CardIDs returns the ids of cards placed on the board, sorted
func (b Board) CardIDs() []int64 {
	return slices.Sorted(maps.Keys(b.Placements))
}

// BoardUpdate is a partial update of a board. A placement mapped to an unset
// Optional removes the card from the board.
type BoardUpdate struct {
	Name       Optional[string]         `json:"name,omitzero"`
	Placements map[int64]Optional[Rect] `json:"placements,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u BoardUpdate) IsEmpty() bool {
	return !u.Name.IsSet() && len(u.Placements) == 0
}

// Merge combines u with a later update; placements are unioned per card
func (u BoardUpdate) Merge(later BoardUpdate) BoardUpdate {
	return BoardUpdate{
		Name:       u.Name.Or(later.Name),
		Placements: mergeKeyed(u.Placements, later.Placements),
	}
}

// Apply returns a copy of board with the update applied
func (u BoardUpdate) Apply(board Board) Board {
	out := board.Clone()
	if v, ok := u.Name.Get(); ok {
		out.Name = v
	}
	out.Placements = applyKeyed(out.Placements, u.Placements)
	return out
}

// BoardView is the locally persisted viewport of a board
type BoardView struct {
	TopLeft Point   `json:"topLeft"`
	Zoom    float64 `json:"zoom"`
}

// DefaultBoardView is used when no view was saved for a board
var DefaultBoardView = BoardView{Zoom: 1}

// BoardData combines a board from the graph store with its local view
type BoardData struct {
	Board Board
	View  BoardView
	// HasView is false when the view is DefaultBoardView rather than a saved one
	HasView bool
}
