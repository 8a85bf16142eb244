package persistence

import (
	"context"
	"fmt"

	"graphdeck/internal/application"
	"graphdeck/internal/debounce"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/pipeline"
	"graphdeck/internal/ports"
	"graphdeck/internal/queue"
)

// entitySpec binds one entity kind to its mirror and its graph store calls
type entitySpec[V, U any] struct {
	kind   domain.EntityKind
	mirror *mirror[V, U]
	id     func(V) int64
	query  func(store ports.GraphStore, ctx context.Context, ids []int64) (map[int64]V, error)
	create func(store ports.GraphStore, ctx context.Context, v V) error
	update func(store ports.GraphStore, ctx context.Context, id int64, upd U) error
	remove func(store ports.GraphStore, ctx context.Context, id int64) error
}

func (s entitySpec[V, U]) title(op string) string {
	return fmt.Sprintf("%s %s", op, s.kind)
}

// fetchMissing is a pipeline step body: it fetches the ids of the step's
// input that are not mirrored and absorbs them. Nothing is absorbed when the
// fetch fails.
func fetchMissing[V, U any](f *Facade, s entitySpec[V, U], ids func() []int64) pipeline.StepFunc {
	return func(r *pipeline.Routine) {
		if r.Failed() {
			r.Next()
			return
		}
		_, missing := s.mirror.partition(ids())
		if len(missing) == 0 {
			r.Next()
			return
		}
		queue.Read(f.queue, s.title("query"), func(ctx context.Context, store ports.GraphStore) (map[int64]V, error) {
			return s.query(store, ctx, missing)
		}, func(found map[int64]V, err error) {
			if err != nil {
				r.Fail(err)
				r.Next()
				return
			}
			for id, v := range found {
				s.mirror.absorb(id, v)
			}
			r.Next()
		})
	}
}

// queryEntities answers with every requested entity that exists. Mirrored
// ids are served locally; the rest are fetched in one batch.
func queryEntities[V, U any](f *Facade, s entitySpec[V, U], ids []int64, h eventloop.Handle, cb func(map[int64]V, error)) {
	if f.refuse(h, func(err error) { cb(nil, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonRead)

	cached, missing := s.mirror.partition(ids)
	f.metrics.CacheLookups.WithLabelValues(s.kind.String(), "hit").Add(float64(len(cached)))
	f.metrics.CacheLookups.WithLabelValues(s.kind.String(), "miss").Add(float64(len(missing)))

	r := f.routine(s.title("query"))
	r.AddStep(f.self, fetchMissing(f, s, func() []int64 { return missing }))
	r.AddStep(h, func(r *pipeline.Routine) {
		if r.Failed() {
			cb(nil, r.Err())
		} else {
			cb(s.mirror.collect(ids), nil)
		}
		r.Next()
	})
	r.Start()
}

// lookup answers with a single entity, failing with a NotFoundError when the
// store does not have it
func lookup[V, U any](f *Facade, s entitySpec[V, U], id int64, h eventloop.Handle, cb func(V, error)) {
	queryEntities(f, s, []int64{id}, h, func(found map[int64]V, err error) {
		if err == nil {
			v, ok := found[id]
			if ok {
				cb(v, nil)
				return
			}
			err = &application.NotFoundError{Kind: s.kind, ID: id}
		}
		var zero V
		cb(zero, err)
	})
}

func createEntity[V, U any](f *Facade, s entitySpec[V, U], v V, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	id := s.id(v)
	if id <= 0 {
		f.logger.Warn("create rejected: identifier not reserved", "kind", s.kind, "id", id)
		f.later(h, func() { cb(&application.ValidationError{Field: "ID", Message: "must be reserved with RequestNewID"}) })
		return
	}
	if s.mirror.has(id) {
		f.logger.Warn("create rejected: identifier already in use", "kind", s.kind, "id", id)
		f.later(h, func() { cb(&application.DuplicateIDError{Kind: s.kind, ID: id}) })
		return
	}
	f.debounce.Close(debounce.ReasonWrite)
	s.mirror.put(id, v)

	f.submitWrite(s.title("create"), func() string { return describe(s.kind.String(), id, "value", v) },
		func(ctx context.Context, store ports.GraphStore) error { return s.create(store, ctx, v) },
		reply(h, cb))
}

func updateEntity[V, U any](f *Facade, s entitySpec[V, U], id int64, upd U, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	f.debounce.Close(debounce.ReasonWrite)
	s.mirror.update(id, upd)
	submitUpdate(f, s, id, upd, reply(h, cb))
}

// updateDebounced applies upd to the mirror now and coalesces the store
// write with the following updates of the same entity
func updateDebounced[V, U any](f *Facade, s entitySpec[V, U], id int64, upd U, merge func(U, U) U, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	s.mirror.update(id, upd)
	key := debounce.Key{Category: s.title("update"), Target: id}
	debounced(f, key, upd, merge, reply(h, cb), func(merged U, done func(error)) {
		submitUpdate(f, s, id, merged, done)
	})
}

func submitUpdate[V, U any](f *Facade, s entitySpec[V, U], id int64, upd U, done func(error)) {
	f.submitWrite(s.title("update"), func() string { return describe(s.kind.String(), id, "update", upd) },
		func(ctx context.Context, store ports.GraphStore) error { return s.update(store, ctx, id, upd) },
		done)
}

func removeEntity[V, U any](f *Facade, s entitySpec[V, U], id int64, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	f.debounce.Close(debounce.ReasonWrite)
	s.mirror.remove(id)
	f.submitWrite(s.title("remove"), func() string { return fmt.Sprintf("%s ID: %d", s.kind, id) },
		func(ctx context.Context, store ports.GraphStore) error { return s.remove(store, ctx, id) },
		reply(h, cb))
}

func orNop(cb func(error)) func(error) {
	if cb == nil {
		return func(error) {}
	}
	return cb
}

// readOne fetches a single entity through the queue. The result is not
// absorbed; callers decide when it may enter the mirror.
func readOne[V, U any](f *Facade, s entitySpec[V, U], id int64, done func(V, error)) {
	queue.Read(f.queue, s.title("query"), func(ctx context.Context, store ports.GraphStore) (V, error) {
		found, err := s.query(store, ctx, []int64{id})
		if err != nil {
			var zero V
			return zero, err
		}
		v, ok := found[id]
		if !ok {
			return v, &application.NotFoundError{Kind: s.kind, ID: id}
		}
		return v, nil
	}, done)
}
