// Package persistence is the application's single entry point for domain
// data. It mirrors entities fetched from the graph store and values read from
// the local settings store, serves reads from the mirror when it can, applies
// writes to the mirror immediately and forwards them through the debounce
// session and the request queue. Writes that cannot be committed are
// appended to the unsaved-update log; the mirror is never rolled back.
//
// Every method except PendingWrites must be called on the event loop.
// Callbacks are always invoked later on the loop, and only if the caller's
// handle is still alive.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"graphdeck/internal/application"
	"graphdeck/internal/debounce"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/metrics"
	"graphdeck/internal/pipeline"
	"graphdeck/internal/ports"
	"graphdeck/internal/queue"
)

// DefaultDebounceInterval is the inactivity interval of coalesced writes
const DefaultDebounceInterval = time.Second

// Config wires a Facade to its collaborators
type Config struct {
	Loop     *eventloop.Loop
	Store    ports.GraphStore
	Settings ports.SettingsStore
	Unsaved  ports.UnsavedLog

	DebounceInterval time.Duration
	StoreTimeout     time.Duration
	Clock            debounce.Clock
	Logger           *slog.Logger
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

// Facade is the cache-coherent persistence layer
type Facade struct {
	loop     *eventloop.Loop
	queue    *queue.Queue
	debounce *debounce.Coalescer
	settings ports.SettingsStore
	unsaved  ports.UnsavedLog
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	owner *eventloop.Owner
	self  eventloop.Handle

	cards         entitySpec[domain.Card, domain.CardUpdate]
	relationships entitySpec[domain.Relationship, domain.RelationshipUpdate]
	boards        entitySpec[domain.Board, domain.BoardUpdate]
	workspaces    entitySpec[domain.Workspace, domain.WorkspaceUpdate]
	queries       entitySpec[domain.CustomQuery, domain.CustomQueryUpdate]

	boardViews    map[int64]domain.BoardView
	lastWorkspace *int64
	lastBoards    map[int64]int64

	pendingMu sync.RWMutex
	pending   int

	closed bool
}

// New creates a facade. Loop, Store, Settings and Unsaved are required.
func New(cfg Config) *Facade {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Discard()
	}
	interval := cfg.DebounceInterval
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	debounceOpts := []debounce.Option{debounce.WithLogger(logger), debounce.WithMetrics(m)}
	if cfg.Clock != nil {
		debounceOpts = append(debounceOpts, debounce.WithClock(cfg.Clock))
	}
	queueOpts := []queue.Option{queue.WithLogger(logger), queue.WithMetrics(m)}
	if cfg.StoreTimeout > 0 {
		queueOpts = append(queueOpts, queue.WithTimeout(cfg.StoreTimeout))
	}

	owner := eventloop.NewOwner("persistence")
	return &Facade{
		loop:     cfg.Loop,
		queue:    queue.New(cfg.Loop, cfg.Store, queueOpts...),
		debounce: debounce.New(cfg.Loop, interval, debounceOpts...),
		settings: cfg.Settings,
		unsaved:  cfg.Unsaved,
		logger:   logger,
		metrics:  m,
		now:      now,
		owner:    owner,
		self:     owner.Handle(),

		cards:         cardSpec(),
		relationships: relationshipSpec(),
		boards:        boardSpec(),
		workspaces:    workspaceSpec(),
		queries:       customQuerySpec(),

		boardViews: make(map[int64]domain.BoardView),
		lastBoards: make(map[int64]int64),
	}
}

// PendingWrites returns the number of writes issued and not yet answered,
// including a coalesced write waiting in the debounce session. Safe to call
// from any goroutine.
func (f *Facade) PendingWrites() int {
	f.pendingMu.RLock()
	defer f.pendingMu.RUnlock()
	return f.pending
}

func (f *Facade) beginWrite() {
	f.pendingMu.Lock()
	f.pending++
	n := f.pending
	f.pendingMu.Unlock()
	f.metrics.PendingWrites.Set(float64(n))
}

func (f *Facade) endWrite() {
	f.pendingMu.Lock()
	f.pending--
	n := f.pending
	f.pendingMu.Unlock()
	f.metrics.PendingWrites.Set(float64(n))
}

// Flush closes the debounce session, issuing its pending write now
func (f *Facade) Flush() {
	f.debounce.Close(debounce.ReasonFlush)
}

// Close flushes the debounce session and refuses further calls. Writes
// already issued still complete.
func (f *Facade) Close() {
	if f.closed {
		return
	}
	f.debounce.Close(debounce.ReasonShutdown)
	f.closed = true
}

// ClearError lets requests reach the graph store again after a failed write
func (f *Facade) ClearError() {
	f.queue.ClearError()
}

// QueueError returns the failure that put the request queue in its error
// state, or nil
func (f *Facade) QueueError() error {
	return f.queue.Err()
}

// UnsavedLogPath returns where failed writes are recorded
func (f *Facade) UnsavedLogPath() string {
	return f.unsaved.Path()
}

// refuse reports whether the facade is closed, answering the caller if so
func (f *Facade) refuse(h eventloop.Handle, deliver func(error)) bool {
	if !f.closed {
		return false
	}
	f.later(h, func() { deliver(application.ErrClosed) })
	return true
}

// later runs fn on a following loop turn if h is still alive
func (f *Facade) later(h eventloop.Handle, fn func()) {
	f.loop.Post(func() { h.Deliver(fn) })
}

func (f *Facade) routine(name string) *pipeline.Routine {
	return pipeline.New(f.loop, name).WithLogger(f.logger)
}

// recordUnsaved appends a record for a write that could not be committed
func (f *Facade) recordUnsaved(title, details string, cause error) {
	rec := domain.UnsavedRecord{
		ID:      uuid.NewString(),
		Time:    f.now(),
		Title:   title,
		Details: fmt.Sprintf("%s\nerror: %v", details, cause),
	}
	f.metrics.UnsavedRecords.Inc()
	f.logger.Warn("write not saved; recorded in unsaved-update log",
		"op", title, "record", rec.ID, "err", cause, "log", f.unsaved.Path())
	if err := f.unsaved.Append(rec); err != nil {
		f.logger.Error("could not append to unsaved-update log",
			"op", title, "record", rec.ID, "err", err, "details", rec.Details)
	}
}

// describe renders the identifying keys and payload of a write for humans
func describe(kind string, id int64, label string, payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%s ID: %d\n%s: %+v", kind, id, label, payload)
	}
	return fmt.Sprintf("%s ID: %d\n%s: %s", kind, id, label, data)
}

// reply adapts a caller callback into a completion that honors the caller's
// liveness
func reply(h eventloop.Handle, cb func(error)) func(error) {
	return func(err error) {
		h.Deliver(func() {
			if cb != nil {
				cb(err)
			}
		})
	}
}

// submitWrite forwards a graph store write through the queue. A failure is
// recorded in the unsaved-update log before done runs.
func (f *Facade) submitWrite(title string, details func() string, fn func(ctx context.Context, store ports.GraphStore) error, done func(error)) {
	f.beginWrite()
	r := f.routine(title)
	r.AddStep(f.self, func(r *pipeline.Routine) {
		queue.Write(f.queue, title, fn, func(err error) {
			if err != nil {
				r.Fail(err)
			}
			r.Next()
		})
	})
	r.AddStep(f.self, func(r *pipeline.Routine) {
		f.endWrite()
		err := r.Err()
		if err != nil {
			f.recordUnsaved(title, details(), err)
		}
		done(err)
		r.Next()
	})
	r.Start()
}

// writeSettings runs a local settings write on a following loop turn. It is
// independent of the request queue.
func (f *Facade) writeSettings(title string, details func() string, fn func() error, done func(error)) {
	f.beginWrite()
	r := f.routine(title)
	r.AddStep(f.self, func(r *pipeline.Routine) {
		f.endWrite()
		err := fn()
		if err != nil {
			err = fmt.Errorf("%s: %w: %w", title, application.ErrSettings, err)
			f.recordUnsaved(title, details(), err)
		}
		done(err)
		r.Next()
	})
	r.Start()
}

// waiter is a caller awaiting the outcome of a coalesced write
type waiter = func(error)

// pendingUpdate is the accumulator of a debounced write
type pendingUpdate[U any] struct {
	upd     U
	waiters []waiter
}

func mergePending[U any](merge func(U, U) U) func(acc, next pendingUpdate[U]) pendingUpdate[U] {
	return func(acc, next pendingUpdate[U]) pendingUpdate[U] {
		return pendingUpdate[U]{
			upd:     merge(acc.upd, next.upd),
			waiters: slices.Concat(acc.waiters, next.waiters),
		}
	}
}

func notify(waiters []waiter, err error) {
	for _, w := range waiters {
		w(err)
	}
}

// debounced feeds a write into the debounce session. The write counts as
// pending from the moment its session opens.
func debounced[U any](f *Facade, key debounce.Key, upd U, merge func(U, U) U, done func(error), flush func(U, func(error))) {
	if active, ok := f.debounce.Active(); !ok || active != key {
		// the session being replaced, if any, is flushed (and its count
		// handed to the queue) inside Submit
		f.beginWrite()
	}
	debounce.Submit(f.debounce, key, pendingUpdate[U]{upd: upd, waiters: []waiter{done}}, mergePending(merge),
		func(p pendingUpdate[U]) {
			flush(p.upd, func(err error) { notify(p.waiters, err) })
			f.endWrite()
		})
}
