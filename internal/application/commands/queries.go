package commands

import (
	"context"
	"fmt"

	"graphdeck/internal/application"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
)

// CreateQueryCommand saves a named custom query
type CreateQueryCommand struct {
	session *Session
	Name    string
	Text    string
}

// NewCreateQueryCommand creates a new CreateQueryCommand
func NewCreateQueryCommand(session *Session, name, text string) *CreateQueryCommand {
	return &CreateQueryCommand{session: session, Name: name, Text: text}
}

func (c *CreateQueryCommand) Validate() error {
	if err := application.ValidateRequired("name", c.Name); err != nil {
		return err
	}
	return application.ValidateRequired("text", c.Text)
}

// Execute runs the create query command
func (c *CreateQueryCommand) Execute(ctx context.Context) (*domain.CustomQuery, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var q domain.CustomQuery
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.RequestNewID(domain.KindCustomQuery, h, func(id int64, err error) {
			if err != nil {
				finish(fmt.Errorf("failed to reserve query id: %w", err))
				return
			}
			q = domain.CustomQuery{ID: id, Name: c.Name, Text: c.Text}
			p.CreateCustomQuery(q, h, finish)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	return &q, nil
}

// ShowQueriesCommand lists saved custom queries
type ShowQueriesCommand struct {
	session *Session
}

// NewShowQueriesCommand creates a new ShowQueriesCommand
func NewShowQueriesCommand(session *Session) *ShowQueriesCommand {
	return &ShowQueriesCommand{session: session}
}

// Execute runs the show queries command
func (c *ShowQueriesCommand) Execute(ctx context.Context) ([]domain.CustomQuery, error) {
	var out []domain.CustomQuery
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		p.ListCustomQueries(h, func(qs []domain.CustomQuery, err error) {
			out = qs
			finish(err)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	return out, nil
}
