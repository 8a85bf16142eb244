package persistence

import (
	"context"

	"graphdeck/internal/debounce"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/pipeline"
	"graphdeck/internal/ports"
	"graphdeck/internal/queue"
)

func relationshipSpec() entitySpec[domain.Relationship, domain.RelationshipUpdate] {
	return entitySpec[domain.Relationship, domain.RelationshipUpdate]{
		kind:   domain.KindRelationship,
		mirror: newMirror(domain.RelationshipUpdate.Apply, domain.RelationshipUpdate.Merge, domain.Relationship.Clone),
		id:     func(r domain.Relationship) int64 { return r.ID },
		query:  ports.GraphStore.QueryRelationships,
		create: ports.GraphStore.CreateRelationship,
		update: ports.GraphStore.UpdateRelationship,
		remove: ports.GraphStore.RemoveRelationship,
	}
}

func (f *Facade) QueryRelationships(ids []int64, h eventloop.Handle, cb func(map[int64]domain.Relationship, error)) {
	queryEntities(f, f.relationships, ids, h, cb)
}

// QueryRelationshipsOfCards answers with every relationship touching one of
// cardIDs. The mirror cannot know whether it holds all of them, so the store
// is always asked; mirrored values take precedence over fetched ones.
func (f *Facade) QueryRelationshipsOfCards(cardIDs []int64, h eventloop.Handle, cb func(map[int64]domain.Relationship, error)) {
	if f.refuse(h, func(err error) { cb(nil, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonRead)

	var ids []int64
	r := f.routine("query relationships of cards")
	r.AddStep(f.self, func(r *pipeline.Routine) {
		queue.Read(f.queue, "query relationships of cards",
			func(ctx context.Context, store ports.GraphStore) (map[int64]domain.Relationship, error) {
				return store.QueryRelationshipsOfCards(ctx, cardIDs)
			},
			func(found map[int64]domain.Relationship, err error) {
				if err != nil {
					r.Fail(err)
					r.Next()
					return
				}
				for id, rel := range found {
					f.relationships.mirror.absorb(id, rel)
					ids = append(ids, id)
				}
				r.Next()
			})
	})
	r.AddStep(h, func(r *pipeline.Routine) {
		if r.Failed() {
			cb(nil, r.Err())
		} else {
			cb(f.relationships.mirror.collect(ids), nil)
		}
		r.Next()
	})
	r.Start()
}

func (f *Facade) CreateRelationship(rel domain.Relationship, h eventloop.Handle, cb func(error)) {
	createEntity(f, f.relationships, rel, h, cb)
}

func (f *Facade) UpdateRelationship(id int64, upd domain.RelationshipUpdate, h eventloop.Handle, cb func(error)) {
	updateEntity(f, f.relationships, id, upd, h, cb)
}

func (f *Facade) RemoveRelationship(id int64, h eventloop.Handle, cb func(error)) {
	removeEntity(f, f.relationships, id, h, cb)
}

func (f *Facade) CachedRelationship(id int64) (domain.Relationship, bool) {
	return f.relationships.mirror.get(id)
}
