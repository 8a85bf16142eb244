package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

func TestCardUpdate_Merge(t *testing.T) {
	t.Run("later scalar wins", func(t *testing.T) {
		first := CardUpdate{Title: Some("a"), Text: Some("one")}
		second := CardUpdate{Text: Some("two")}

		merged := first.Merge(second)

		if v, _ := merged.Title.Get(); v != "a" {
			t.Errorf("expected title a, got %q", v)
		}
		if v, _ := merged.Text.Get(); v != "two" {
			t.Errorf("expected text two, got %q", v)
		}
	})

	t.Run("properties are unioned", func(t *testing.T) {
		first := CardUpdate{Properties: map[string]Optional[string]{
			"color": Some("red"),
			"size":  Some("L"),
		}}
		second := CardUpdate{Properties: map[string]Optional[string]{
			"color": Some("blue"),
			"size":  None[string](),
		}}

		merged := first.Merge(second)

		if len(merged.Properties) != 2 {
			t.Fatalf("expected 2 property deltas, got %d", len(merged.Properties))
		}
		if v, _ := merged.Properties["color"].Get(); v != "blue" {
			t.Errorf("expected color blue, got %q", v)
		}
		if merged.Properties["size"].IsSet() {
			t.Error("expected size removal to survive merge")
		}
	})

	t.Run("empty merge stays empty", func(t *testing.T) {
		merged := CardUpdate{}.Merge(CardUpdate{})
		if !merged.IsEmpty() {
			t.Errorf("expected empty update, got %+v", merged)
		}
	})
}

func TestCardUpdate_Apply(t *testing.T) {
	card := Card{
		ID:         7,
		Title:      "A",
		Text:       "body",
		Labels:     []string{"x"},
		Properties: map[string]string{"color": "red", "size": "L"},
	}

	upd := CardUpdate{
		Text:   Some("new body"),
		Labels: Some([]string{"b", "a", "b"}),
		Properties: map[string]Optional[string]{
			"size":  None[string](),
			"owner": Some("me"),
		},
	}

	got := upd.Apply(card)

	if got.Title != "A" {
		t.Errorf("expected title unchanged, got %q", got.Title)
	}
	if got.Text != "new body" {
		t.Errorf("expected text updated, got %q", got.Text)
	}
	if !slices.Equal(got.Labels, []string{"a", "b"}) {
		t.Errorf("expected normalized labels [a b], got %v", got.Labels)
	}
	if _, ok := got.Properties["size"]; ok {
		t.Error("expected size property removed")
	}
	if got.Properties["owner"] != "me" || got.Properties["color"] != "red" {
		t.Errorf("unexpected properties: %v", got.Properties)
	}

	// original untouched
	if card.Properties["size"] != "L" || card.Text != "body" {
		t.Error("Apply must not mutate its input")
	}
}

func TestCardUpdate_JSONOmitsUnsetFields(t *testing.T) {
	upd := CardUpdate{Text: Some("hello")}

	data, err := json.Marshal(upd)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	if !strings.Contains(s, `"text":"hello"`) {
		t.Errorf("expected text in %s", s)
	}
	if strings.Contains(s, "title") || strings.Contains(s, "labels") {
		t.Errorf("expected unset fields omitted, got %s", s)
	}
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	var upd CardUpdate
	if err := json.Unmarshal([]byte(`{"title":"T","properties":{"k":null,"j":"v"}}`), &upd); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if v, ok := upd.Title.Get(); !ok || v != "T" {
		t.Errorf("expected title T, got %q (set=%v)", v, ok)
	}
	if upd.Text.IsSet() {
		t.Error("expected text unset")
	}
	if upd.Properties["k"].IsSet() {
		t.Error("expected null property to mean removal")
	}
	if v, _ := upd.Properties["j"].Get(); v != "v" {
		t.Errorf("expected j=v, got %q", v)
	}
}
