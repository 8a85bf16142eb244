package queue

import (
	"context"

	"graphdeck/internal/ports"
)

// Read submits a read-only request producing a value
func Read[T any](q *Queue, name string, fn func(ctx context.Context, store ports.GraphStore) (T, error), done func(T, error)) {
	call(q, name, true, fn, done)
}

// WriteValue submits a write producing a value (e.g. reserving an id)
func WriteValue[T any](q *Queue, name string, fn func(ctx context.Context, store ports.GraphStore) (T, error), done func(T, error)) {
	call(q, name, false, fn, done)
}

// Write submits a write request
func Write(q *Queue, name string, fn func(ctx context.Context, store ports.GraphStore) error, done func(error)) {
	q.Submit(Request{
		Name: name,
		Do:   fn,
		Done: done,
	})
}

func call[T any](q *Queue, name string, readOnly bool, fn func(ctx context.Context, store ports.GraphStore) (T, error), done func(T, error)) {
	var result T
	q.Submit(Request{
		Name:     name,
		ReadOnly: readOnly,
		Do: func(ctx context.Context, store ports.GraphStore) error {
			v, err := fn(ctx, store)
			result = v
			return err
		},
		Done: func(err error) {
			if done == nil {
				return
			}
			if err != nil {
				var zero T
				done(zero, err)
				return
			}
			done(result, nil)
		},
	})
}
