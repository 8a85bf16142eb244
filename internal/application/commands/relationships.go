package commands

import (
	"context"
	"fmt"

	"graphdeck/internal/application"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// CreateRelationshipResult contains the result of linking two cards
type CreateRelationshipResult struct {
	Relationship domain.Relationship
	Message      string
}

// CreateRelationshipCommand links two existing cards
type CreateRelationshipCommand struct {
	session     *Session
	Type        string
	StartCardID int64
	EndCardID   int64
}

// NewCreateRelationshipCommand creates a new CreateRelationshipCommand
func NewCreateRelationshipCommand(session *Session, relType string, startCardID, endCardID int64) *CreateRelationshipCommand {
	return &CreateRelationshipCommand{
		session:     session,
		Type:        relType,
		StartCardID: startCardID,
		EndCardID:   endCardID,
	}
}

// Validate checks if the relationship can be created
func (c *CreateRelationshipCommand) Validate() error {
	if err := application.ValidateRequired("type", c.Type); err != nil {
		return err
	}
	if err := application.ValidateID("startCardID", c.StartCardID); err != nil {
		return err
	}
	if err := application.ValidateID("endCardID", c.EndCardID); err != nil {
		return err
	}
	if c.StartCardID == c.EndCardID {
		return &application.ValidationError{
			Field:   "endCardID",
			Message: "a card cannot be related to itself",
		}
	}
	return nil
}

// Execute checks that both cards exist, then creates the relationship
func (c *CreateRelationshipCommand) Execute(ctx context.Context) (*CreateRelationshipResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var rel domain.Relationship
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.QueryCards([]int64{c.StartCardID, c.EndCardID}, h, func(cards map[int64]domain.Card, err error) {
			if err != nil {
				finish(err)
				return
			}
			for _, id := range []int64{c.StartCardID, c.EndCardID} {
				if _, ok := cards[id]; !ok {
					finish(&application.NotFoundError{Kind: domain.KindCard, ID: id})
					return
				}
			}
			p.RequestNewID(domain.KindRelationship, h, func(id int64, err error) {
				if err != nil {
					finish(fmt.Errorf("failed to reserve relationship id: %w", err))
					return
				}
				rel = domain.Relationship{ID: id, Type: c.Type, StartCardID: c.StartCardID, EndCardID: c.EndCardID}
				p.CreateRelationship(rel, h, finish)
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}
	return &CreateRelationshipResult{
		Relationship: rel,
		Message:      fmt.Sprintf("Created relationship %d: %d -[%s]-> %d", rel.ID, rel.StartCardID, rel.Type, rel.EndCardID),
	}, nil
}

// ShowRelationshipsCommand lists the relationships between a set of cards
type ShowRelationshipsCommand struct {
	session *Session
	CardIDs []int64
}

// NewShowRelationshipsCommand creates a new ShowRelationshipsCommand
func NewShowRelationshipsCommand(session *Session, cardIDs []int64) *ShowRelationshipsCommand {
	return &ShowRelationshipsCommand{session: session, CardIDs: cardIDs}
}

func (c *ShowRelationshipsCommand) Validate() error {
	if len(c.CardIDs) == 0 {
		return &application.ValidationError{Field: "cardID", Message: "at least one card ID is required"}
	}
	return nil
}

// Execute returns relationships with both ends among the cards, by id
func (c *ShowRelationshipsCommand) Execute(ctx context.Context) ([]domain.Relationship, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var found map[int64]domain.Relationship
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.QueryRelationshipsOfCards(c.CardIDs, h, func(rels map[int64]domain.Relationship, err error) {
			found = rels
			finish(err)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read relationships: %w", err)
	}
	return sortedValues(found), nil
}

// RemoveRelationshipCommand deletes a relationship
type RemoveRelationshipCommand struct {
	session        *Session
	RelationshipID int64
}

// NewRemoveRelationshipCommand creates a new RemoveRelationshipCommand
func NewRemoveRelationshipCommand(session *Session, id int64) *RemoveRelationshipCommand {
	return &RemoveRelationshipCommand{session: session, RelationshipID: id}
}

func (c *RemoveRelationshipCommand) Validate() error {
	return application.ValidateID("relationshipID", c.RelationshipID)
}

// Execute runs the remove relationship command
func (c *RemoveRelationshipCommand) Execute(ctx context.Context) (*RemoveResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.RemoveRelationship(c.RelationshipID, h, finish)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove relationship %d: %w", c.RelationshipID, err)
	}
	return &RemoveResult{
		Kind:    domain.KindRelationship,
		ID:      c.RelationshipID,
		Message: fmt.Sprintf("Removed relationship %d", c.RelationshipID),
	}, nil
}
