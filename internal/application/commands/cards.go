package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"graphdeck/internal/application"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// CreateCardResult contains the result of creating a card
type CreateCardResult struct {
	Card    domain.Card
	Message string
}

// CreateCardCommand reserves an id and creates a card with it
type CreateCardCommand struct {
	session *Session
	Title   string
	Text    string
	Labels  []string
}

// NewCreateCardCommand creates a new CreateCardCommand
func NewCreateCardCommand(session *Session, title, text string, labels []string) *CreateCardCommand {
	return &CreateCardCommand{
		session: session,
		Title:   title,
		Text:    text,
		Labels:  labels,
	}
}

// Validate checks if the create operation is valid
func (c *CreateCardCommand) Validate() error {
	return application.ValidateRequired("title", c.Title)
}

// Execute runs the create card command
func (c *CreateCardCommand) Execute(ctx context.Context) (*CreateCardResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var card domain.Card
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.RequestNewID(domain.KindCard, h, func(id int64, err error) {
			if err != nil {
				finish(fmt.Errorf("failed to reserve card id: %w", err))
				return
			}
			card = domain.NewCard(id, c.Title, c.Text, c.Labels)
			p.CreateCard(card, h, finish)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	return &CreateCardResult{
		Card:    card,
		Message: fmt.Sprintf("Created card %d: %s", card.ID, card.Title),
	}, nil
}

// UpdateCardCommand changes some fields of a card. Nil fields are left
// untouched.
type UpdateCardCommand struct {
	session          *Session
	CardID           int64
	Title            *string
	Text             *string
	Labels           []string
	SetProperties    map[string]string
	RemoveProperties []string
}

// NewUpdateCardCommand creates a new UpdateCardCommand
func NewUpdateCardCommand(session *Session, cardID int64) *UpdateCardCommand {
	return &UpdateCardCommand{session: session, CardID: cardID}
}

// Update builds the field update described by the command
func (c *UpdateCardCommand) Update() domain.CardUpdate {
	var upd domain.CardUpdate
	if c.Title != nil {
		upd.Title = domain.Some(*c.Title)
	}
	if c.Text != nil {
		upd.Text = domain.Some(*c.Text)
	}
	if c.Labels != nil {
		upd.Labels = domain.Some(c.Labels)
	}
	if len(c.SetProperties)+len(c.RemoveProperties) > 0 {
		upd.Properties = make(map[string]domain.Optional[string])
		for _, k := range c.RemoveProperties {
			upd.Properties[k] = domain.None[string]()
		}
		for k, v := range c.SetProperties {
			upd.Properties[k] = domain.Some(v)
		}
	}
	return upd
}

// Validate checks if the update is valid
func (c *UpdateCardCommand) Validate() error {
	if err := application.ValidateID("cardID", c.CardID); err != nil {
		return err
	}
	if c.Title != nil {
		if err := application.ValidateRequired("title", *c.Title); err != nil {
			return err
		}
	}
	if c.Update().IsEmpty() {
		return &application.ValidationError{
			Field:   "update",
			Message: "nothing to update",
		}
	}
	return nil
}

// Execute applies the update and waits for the store to acknowledge it
func (c *UpdateCardCommand) Execute(ctx context.Context) (*domain.Card, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var card domain.Card
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.GetCard(c.CardID, h, func(_ domain.Card, err error) {
			if err != nil {
				finish(err)
				return
			}
			p.UpdateCard(c.CardID, c.Update(), h, finish)
			card, _ = p.CachedCard(c.CardID)
			// a one-shot command has no further keystrokes to wait for
			p.Flush()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update card %d: %w", c.CardID, err)
	}
	return &card, nil
}

// ShowCardsCommand reads cards by id
type ShowCardsCommand struct {
	session *Session
	CardIDs []int64
}

// NewShowCardsCommand creates a new ShowCardsCommand
func NewShowCardsCommand(session *Session, cardIDs []int64) *ShowCardsCommand {
	return &ShowCardsCommand{session: session, CardIDs: cardIDs}
}

// Validate checks the requested ids
func (c *ShowCardsCommand) Validate() error {
	if len(c.CardIDs) == 0 {
		return &application.ValidationError{Field: "cardID", Message: "at least one card ID is required"}
	}
	for _, id := range c.CardIDs {
		if err := application.ValidateID("cardID", id); err != nil {
			return err
		}
	}
	return nil
}

// Execute returns the existing cards ordered by id. Missing ids are skipped.
func (c *ShowCardsCommand) Execute(ctx context.Context) ([]domain.Card, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var found map[int64]domain.Card
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.QueryCards(c.CardIDs, h, func(cards map[int64]domain.Card, err error) {
			found = cards
			finish(err)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cards: %w", err)
	}
	return sortedValues(found), nil
}

func sortedValues[V any](m map[int64]V) []V {
	out := make([]V, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[id])
	}
	return out
}

// RemoveResult contains the result of a remove operation
type RemoveResult struct {
	Kind    domain.EntityKind
	ID      int64
	Message string
}

// RemoveCardCommand deletes a card and its relationships
type RemoveCardCommand struct {
	session *Session
	CardID  int64
}

// NewRemoveCardCommand creates a new RemoveCardCommand
func NewRemoveCardCommand(session *Session, cardID int64) *RemoveCardCommand {
	return &RemoveCardCommand{session: session, CardID: cardID}
}

func (c *RemoveCardCommand) Validate() error {
	return application.ValidateID("cardID", c.CardID)
}

// Execute runs the remove card command
func (c *RemoveCardCommand) Execute(ctx context.Context) (*RemoveResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.RemoveCard(c.CardID, h, finish)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove card %d: %w", c.CardID, err)
	}
	return &RemoveResult{
		Kind:    domain.KindCard,
		ID:      c.CardID,
		Message: fmt.Sprintf("Removed card %d", c.CardID),
	}, nil
}
