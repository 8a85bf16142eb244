package persistence

import (
	"fmt"

	"graphdeck/internal/application"
	"graphdeck/internal/debounce"
	"graphdeck/internal/domain"
	"graphdeck/internal/eventloop"
	"graphdeck/internal/pipeline"
	"graphdeck/internal/ports"
)

const saveBoardViewTitle = "save board view"

func boardSpec() entitySpec[domain.Board, domain.BoardUpdate] {
	return entitySpec[domain.Board, domain.BoardUpdate]{
		kind:   domain.KindBoard,
		mirror: newMirror(domain.BoardUpdate.Apply, domain.BoardUpdate.Merge, domain.Board.Clone),
		id:     func(b domain.Board) int64 { return b.ID },
		query:  ports.GraphStore.QueryBoards,
		create: ports.GraphStore.CreateBoard,
		update: ports.GraphStore.UpdateBoard,
		remove: ports.GraphStore.RemoveBoard,
	}
}

func (f *Facade) QueryBoards(ids []int64, h eventloop.Handle, cb func(map[int64]domain.Board, error)) {
	queryEntities(f, f.boards, ids, h, cb)
}

func (f *Facade) CreateBoard(board domain.Board, h eventloop.Handle, cb func(error)) {
	createEntity(f, f.boards, board, h, cb)
}

// UpdateBoard is debounced like UpdateCard: dragging cards around a board
// produces one store write per pause.
func (f *Facade) UpdateBoard(id int64, upd domain.BoardUpdate, h eventloop.Handle, cb func(error)) {
	updateDebounced(f, f.boards, id, upd, domain.BoardUpdate.Merge, h, cb)
}

func (f *Facade) RemoveBoard(id int64, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	delete(f.boardViews, id)
	removeEntity(f, f.boards, id, h, cb)
}

func (f *Facade) CachedBoard(id int64) (domain.Board, bool) {
	return f.boards.mirror.get(id)
}

// CachedBoardView returns the view last read or saved for a board
func (f *Facade) CachedBoardView(boardID int64) (domain.BoardView, bool) {
	v, ok := f.boardViews[boardID]
	return v, ok
}

// SaveBoardView records the viewport of a board in the local settings. The
// write is coalesced while the user keeps panning or zooming.
func (f *Facade) SaveBoardView(boardID int64, view domain.BoardView, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	f.boardViews[boardID] = view
	key := debounce.Key{Category: saveBoardViewTitle, Target: boardID}
	latest := func(_, next domain.BoardView) domain.BoardView { return next }
	debounced(f, key, view, latest, reply(h, cb), func(v domain.BoardView, done func(error)) {
		f.writeSettings(saveBoardViewTitle,
			func() string { return describe("board", boardID, "view", v) },
			func() error { return f.settings.WriteBoardView(boardID, v) },
			done)
	})
}

// GetBoardData answers with a board and its saved view. The board comes
// from the graph store and the view from the local settings; if either read
// fails the whole operation fails and nothing is mirrored.
func (f *Facade) GetBoardData(boardID int64, h eventloop.Handle, cb func(domain.BoardData, error)) {
	if f.refuse(h, func(err error) { cb(domain.BoardData{}, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonRead)

	var (
		board    domain.Board
		fetched  bool
		view     domain.BoardView
		hasView  bool
		viewRead bool
	)
	r := f.routine("get board data")
	r.AddStep(f.self, func(r *pipeline.Routine) {
		if b, ok := f.boards.mirror.get(boardID); ok {
			f.metrics.CacheLookups.WithLabelValues(domain.KindBoard.String(), "hit").Inc()
			board = b
			r.Next()
			return
		}
		f.metrics.CacheLookups.WithLabelValues(domain.KindBoard.String(), "miss").Inc()
		fetchBoard(f, boardID, func(b domain.Board, err error) {
			if err != nil {
				r.Fail(err)
			} else {
				board, fetched = b, true
			}
			r.Next()
		})
	})
	r.AddStep(f.self, func(r *pipeline.Routine) {
		if r.Failed() {
			r.Next()
			return
		}
		if v, ok := f.boardViews[boardID]; ok {
			view, hasView = v, true
			r.Next()
			return
		}
		v, found, err := f.settings.ReadBoardView(boardID)
		if err != nil {
			r.Fail(fmt.Errorf("read board view: %w: %w", application.ErrSettings, err))
			r.Next()
			return
		}
		view, hasView, viewRead = v, found, true
		if !found {
			view = domain.DefaultBoardView
		}
		r.Next()
	})
	r.AddStep(f.self, func(r *pipeline.Routine) {
		if r.Failed() {
			r.Next()
			return
		}
		if fetched {
			f.boards.mirror.absorb(boardID, board)
			b, ok := f.boards.mirror.get(boardID)
			if !ok {
				// removed while the fetch was in flight
				r.Fail(&application.NotFoundError{Kind: domain.KindBoard, ID: boardID})
				r.Next()
				return
			}
			board = b
		}
		if viewRead && hasView {
			if _, ok := f.boardViews[boardID]; !ok {
				f.boardViews[boardID] = view
			}
		}
		r.Next()
	})
	r.AddStep(h, func(r *pipeline.Routine) {
		if r.Failed() {
			cb(domain.BoardData{}, r.Err())
		} else {
			cb(domain.BoardData{Board: board, View: view, HasView: hasView}, nil)
		}
		r.Next()
	})
	r.Start()
}

// fetchBoard reads one board through the queue without mirroring it
func fetchBoard(f *Facade, id int64, done func(domain.Board, error)) {
	readOne(f, f.boards, id, done)
}
