package domain

import "slices"

// Workspace groups boards
type Workspace struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	BoardIDs []int64 `json:"boardIds,omitempty"`
}

// Clone returns a deep copy of the workspace
func (w Workspace) Clone() Workspace {
	w.BoardIDs = slices.Clone(w.BoardIDs)
	return w
}

// HasBoard reports whether the workspace contains boardID
func (w Workspace) HasBoard(boardID int64) bool {
	return slices.Contains(w.BoardIDs, boardID)
}

// WorkspaceUpdate is a partial update of a workspace
type WorkspaceUpdate struct {
	Name     Optional[string]  `json:"name,omitzero"`
	BoardIDs Optional[[]int64] `json:"boardIds,omitzero"`
}

// IsEmpty reports whether the update changes nothing
func (u WorkspaceUpdate) IsEmpty() bool {
	return !u.Name.IsSet() && !u.BoardIDs.IsSet()
}

// Merge combines u with a later update; later fields win
func (u WorkspaceUpdate) Merge(later WorkspaceUpdate) WorkspaceUpdate {
	return WorkspaceUpdate{
		Name:     u.Name.Or(later.Name),
		BoardIDs: u.BoardIDs.Or(later.BoardIDs),
	}
}

// Apply returns a copy of ws with the update applied
func (u WorkspaceUpdate) Apply(ws Workspace) Workspace {
	out := ws.Clone()
	if v, ok := u.Name.Get(); ok {
		out.Name = v
	}
	if v, ok := u.BoardIDs.Get(); ok {
		out.BoardIDs = slices.Clone(v)
	}
	return out
}

// CustomQuery is a saved graph query shown as a data view
type CustomQuery struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// CustomQueryUpdate is a partial update of a custom query
type CustomQueryUpdate struct {
	Name Optional[string] `json:"name,omitzero"`
	Text Optional[string] `json:"text,omitzero"`
}

// IsEmpty reports whether the update changes nothing
func (u CustomQueryUpdate) IsEmpty() bool {
	return !u.Name.IsSet() && !u.Text.IsSet()
}

// Merge combines u with a later update; later fields win
func (u CustomQueryUpdate) Merge(later CustomQueryUpdate) CustomQueryUpdate {
	return CustomQueryUpdate{
		Name: u.Name.Or(later.Name),
		Text: u.Text.Or(later.Text),
	}
}

// Apply returns a copy of q with the update applied
func (u CustomQueryUpdate) Apply(q CustomQuery) CustomQuery {
	if v, ok := u.Name.Get(); ok {
		q.Name = v
	}
	if v, ok := u.Text.Get(); ok {
		q.Text = v
	}
	return q
}
