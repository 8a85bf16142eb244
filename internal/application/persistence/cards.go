package persistence

import (
	"context"

	"graphdeck/internal/debounce"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/ports"
	"graphdeck/internal/queue"
)

func cardSpec() entitySpec[domain.Card, domain.CardUpdate] {
	return entitySpec[domain.Card, domain.CardUpdate]{
		kind:   domain.KindCard,
		mirror: newMirror(domain.CardUpdate.Apply, domain.CardUpdate.Merge, domain.Card.Clone),
		id:     func(c domain.Card) int64 { return c.ID },
		query:  ports.GraphStore.QueryCards,
		create: ports.GraphStore.CreateCard,
		update: ports.GraphStore.UpdateCard,
		remove: ports.GraphStore.RemoveCard,
	}
}

// RequestNewID reserves an identifier for a new entity of kind. The
// reservation is a write: it goes through the queue behind every earlier
// request and its failure puts the queue in its error state. Nothing is
// recorded in the unsaved-update log since no user data is lost.
func (f *Facade) RequestNewID(kind domain.EntityKind, h eventloop.Handle, cb func(int64, error)) {
	if f.refuse(h, func(err error) { cb(0, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonWrite)
	f.beginWrite()
	queue.WriteValue(f.queue, "new "+kind.String()+" id",
		func(ctx context.Context, store ports.GraphStore) (int64, error) {
			return store.NewID(ctx, kind)
		},
		func(id int64, err error) {
			f.endWrite()
			f.later(h, func() { cb(id, err) })
		})
}

// QueryCards answers with the cards among ids that exist
func (f *Facade) QueryCards(ids []int64, h eventloop.Handle, cb func(map[int64]domain.Card, error)) {
	queryEntities(f, f.cards, ids, h, cb)
}

// GetCard answers with one card or a NotFoundError
func (f *Facade) GetCard(id int64, h eventloop.Handle, cb func(domain.Card, error)) {
	lookup(f, f.cards, id, h, cb)
}

// CreateCard mirrors card and forwards it. card.ID must come from
// RequestNewID.
func (f *Facade) CreateCard(card domain.Card, h eventloop.Handle, cb func(error)) {
	createEntity(f, f.cards, card, h, cb)
}

// UpdateCard applies upd to the mirrored card at once. The store write is
// coalesced with the following updates of the same card.
func (f *Facade) UpdateCard(id int64, upd domain.CardUpdate, h eventloop.Handle, cb func(error)) {
	updateDebounced(f, f.cards, id, upd, domain.CardUpdate.Merge, h, cb)
}

// RemoveCard drops the card and, in the store, its relationships
func (f *Facade) RemoveCard(id int64, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	for relID, rel := range f.relationships.mirror.entries {
		if rel.StartCardID == id || rel.EndCardID == id {
			f.relationships.mirror.remove(relID)
		}
	}
	removeEntity(f, f.cards, id, h, cb)
}

// CachedCard returns the mirrored copy of a card without contacting the store
func (f *Facade) CachedCard(id int64) (domain.Card, bool) {
	return f.cards.mirror.get(id)
}
