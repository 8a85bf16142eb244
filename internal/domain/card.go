package domain

import (
	"maps"
	"slices"
)

// Card represents a node of the graph shown on boards
type Card struct {
	ID         int64             `json:"id"`
	Title      string            `json:"title"`
	Text       string            `json:"text"`
	Labels     []string          `json:"labels,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Clone returns a deep copy of the card
func (c Card) Clone() Card {
	c.Labels = slices.Clone(c.Labels)
	c.Properties = maps.Clone(c.Properties)
	return c
}

// CardUpdate is a partial update of a card. A property key mapped to an
// unset Optional removes that property.
type CardUpdate struct {
	Title      Optional[string]            `json:"title,omitzero"`
	Text       Optional[string]            `json:"text,omitzero"`
	Labels     Optional[[]string]          `json:"labels,omitzero"`
	Properties map[string]Optional[string] `json:"properties,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u CardUpdate) IsEmpty() bool {
	return !u.Title.IsSet() && !u.Text.IsSet() && !u.Labels.IsSet() && len(u.Properties) == 0
}

// Merge combines u with a later update; later fields win
func (u CardUpdate) Merge(later CardUpdate) CardUpdate {
	return CardUpdate{
		Title:      u.Title.Or(later.Title),
		Text:       u.Text.Or(later.Text),
		Labels:     u.Labels.Or(later.Labels),
		Properties: mergeKeyed(u.Properties, later.Properties),
	}
}

// Apply returns a copy of card with the update applied
func (u CardUpdate) Apply(card Card) Card {
	out := card.Clone()
	if v, ok := u.Title.Get(); ok {
		out.Title = v
	}
	if v, ok := u.Text.Get(); ok {
		out.Text = v
	}
	if v, ok := u.Labels.Get(); ok {
		out.Labels = normalizeLabels(v)
	}
	out.Properties = applyKeyed(out.Properties, u.Properties)
	return out
}

// normalizeLabels sorts labels and drops duplicates so labels behave as a set
func normalizeLabels(labels []string) []string {
	out := slices.Clone(labels)
	slices.Sort(out)
	return slices.Compact(out)
}

// NewCard builds a card with a normalized label set
func NewCard(id int64, title, text string, labels []string) Card {
	return Card{
		ID:     id,
		Title:  title,
		Text:   text,
		Labels: normalizeLabels(labels),
	}
}
