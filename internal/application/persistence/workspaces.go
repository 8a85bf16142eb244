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

func workspaceSpec() entitySpec[domain.Workspace, domain.WorkspaceUpdate] {
	return entitySpec[domain.Workspace, domain.WorkspaceUpdate]{
		kind:   domain.KindWorkspace,
		mirror: newMirror(domain.WorkspaceUpdate.Apply, domain.WorkspaceUpdate.Merge, domain.Workspace.Clone),
		id:     func(w domain.Workspace) int64 { return w.ID },
		query:  ports.GraphStore.QueryWorkspaces,
		create: ports.GraphStore.CreateWorkspace,
		update: ports.GraphStore.UpdateWorkspace,
		remove: ports.GraphStore.RemoveWorkspace,
	}
}

func customQuerySpec() entitySpec[domain.CustomQuery, domain.CustomQueryUpdate] {
	return entitySpec[domain.CustomQuery, domain.CustomQueryUpdate]{
		kind:   domain.KindCustomQuery,
		mirror: newMirror(domain.CustomQueryUpdate.Apply, domain.CustomQueryUpdate.Merge, func(q domain.CustomQuery) domain.CustomQuery { return q }),
		id:     func(q domain.CustomQuery) int64 { return q.ID },
		query:  ports.GraphStore.QueryCustomQueries,
		create: ports.GraphStore.CreateCustomQuery,
		update: ports.GraphStore.UpdateCustomQuery,
		remove: ports.GraphStore.RemoveCustomQuery,
	}
}

// listEntities answers with every entity of a kind, in the order the store
// lists their ids. Only ids that are not mirrored are fetched.
func listEntities[V, U any](f *Facade, s entitySpec[V, U], list func(store ports.GraphStore, ctx context.Context) ([]int64, error), h eventloop.Handle, cb func([]V, error)) {
	if f.refuse(h, func(err error) { cb(nil, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonRead)

	var ids []int64
	r := f.routine(s.title("list"))
	r.AddStep(f.self, func(r *pipeline.Routine) {
		queue.Read(f.queue, s.title("list"), func(ctx context.Context, store ports.GraphStore) ([]int64, error) {
			return list(store, ctx)
		}, func(listed []int64, err error) {
			if err != nil {
				r.Fail(err)
			}
			ids = listed
			r.Next()
		})
	})
	r.AddStep(f.self, fetchMissing(f, s, func() []int64 { return ids }))
	r.AddStep(h, func(r *pipeline.Routine) {
		if r.Failed() {
			cb(nil, r.Err())
			r.Next()
			return
		}
		found := s.mirror.collect(ids)
		out := make([]V, 0, len(found))
		for _, id := range ids {
			if v, ok := found[id]; ok {
				out = append(out, v)
			}
		}
		cb(out, nil)
		r.Next()
	})
	r.Start()
}

func (f *Facade) ListWorkspaces(h eventloop.Handle, cb func([]domain.Workspace, error)) {
	listEntities(f, f.workspaces, ports.GraphStore.ListWorkspaceIDs, h, cb)
}

func (f *Facade) QueryWorkspaces(ids []int64, h eventloop.Handle, cb func(map[int64]domain.Workspace, error)) {
	queryEntities(f, f.workspaces, ids, h, cb)
}

func (f *Facade) CreateWorkspace(ws domain.Workspace, h eventloop.Handle, cb func(error)) {
	createEntity(f, f.workspaces, ws, h, cb)
}

func (f *Facade) UpdateWorkspace(id int64, upd domain.WorkspaceUpdate, h eventloop.Handle, cb func(error)) {
	updateEntity(f, f.workspaces, id, upd, h, cb)
}

func (f *Facade) RemoveWorkspace(id int64, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	delete(f.lastBoards, id)
	removeEntity(f, f.workspaces, id, h, cb)
}

func (f *Facade) CachedWorkspace(id int64) (domain.Workspace, bool) {
	return f.workspaces.mirror.get(id)
}

func (f *Facade) ListCustomQueries(h eventloop.Handle, cb func([]domain.CustomQuery, error)) {
	listEntities(f, f.queries, ports.GraphStore.ListCustomQueryIDs, h, cb)
}

func (f *Facade) CreateCustomQuery(q domain.CustomQuery, h eventloop.Handle, cb func(error)) {
	createEntity(f, f.queries, q, h, cb)
}

func (f *Facade) UpdateCustomQuery(id int64, upd domain.CustomQueryUpdate, h eventloop.Handle, cb func(error)) {
	updateEntity(f, f.queries, id, upd, h, cb)
}

func (f *Facade) RemoveCustomQuery(id int64, h eventloop.Handle, cb func(error)) {
	removeEntity(f, f.queries, id, h, cb)
}

func (f *Facade) CachedCustomQuery(id int64) (domain.CustomQuery, bool) {
	return f.queries.mirror.get(id)
}

// GetLastOpenedWorkspace answers with the workspace saved in the local
// settings; found is false when none was saved
func (f *Facade) GetLastOpenedWorkspace(h eventloop.Handle, cb func(id int64, found bool, err error)) {
	if f.refuse(h, func(err error) { cb(0, false, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonRead)
	if f.lastWorkspace != nil {
		id := *f.lastWorkspace
		f.later(h, func() { cb(id, true, nil) })
		return
	}
	var (
		id    int64
		found bool
	)
	r := f.routine("get last opened workspace")
	r.AddStep(f.self, func(r *pipeline.Routine) {
		v, ok, err := f.settings.ReadLastOpenedWorkspace()
		if err != nil {
			r.Fail(fmt.Errorf("read last opened workspace: %w: %w", application.ErrSettings, err))
		} else if ok {
			id, found = v, true
			f.lastWorkspace = &v
		}
		r.Next()
	})
	r.AddStep(h, func(r *pipeline.Routine) {
		cb(id, found, r.Err())
		r.Next()
	})
	r.Start()
}

// SetLastOpenedWorkspace saves the workspace to reopen on the next start
func (f *Facade) SetLastOpenedWorkspace(id int64, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	f.debounce.Close(debounce.ReasonWrite)
	f.lastWorkspace = &id
	f.writeSettings("save last opened workspace",
		func() string { return fmt.Sprintf("workspace ID: %d", id) },
		func() error { return f.settings.WriteLastOpenedWorkspace(id) },
		reply(h, cb))
}

// GetLastOpenedBoard answers with the board last opened in a workspace. A
// saved board that no longer belongs to the workspace is reported as not
// found.
func (f *Facade) GetLastOpenedBoard(workspaceID int64, h eventloop.Handle, cb func(id int64, found bool, err error)) {
	if f.refuse(h, func(err error) { cb(0, false, err) }) {
		return
	}
	f.debounce.Close(debounce.ReasonRead)

	var (
		boardID int64
		found   bool
	)
	r := f.routine("get last opened board")
	r.AddStep(f.self, func(r *pipeline.Routine) {
		if v, ok := f.lastBoards[workspaceID]; ok {
			boardID, found = v, true
			r.Next()
			return
		}
		v, ok, err := f.settings.ReadLastOpenedBoard(workspaceID)
		if err != nil {
			r.Fail(fmt.Errorf("read last opened board: %w: %w", application.ErrSettings, err))
			r.Next()
			return
		}
		if !ok {
			r.SkipToFinal()
			return
		}
		boardID, found = v, true
		r.Next()
	})
	r.AddStep(f.self, fetchMissing(f, f.workspaces, func() []int64 { return []int64{workspaceID} }))
	r.AddStep(f.self, func(r *pipeline.Routine) {
		if r.Failed() {
			r.Next()
			return
		}
		ws, ok := f.workspaces.mirror.get(workspaceID)
		switch {
		case !ok:
			r.Fail(&application.NotFoundError{Kind: domain.KindWorkspace, ID: workspaceID})
		case !ws.HasBoard(boardID):
			f.logger.Info("last opened board no longer in workspace", "workspace", workspaceID, "board", boardID)
			boardID, found = 0, false
		default:
			f.lastBoards[workspaceID] = boardID
		}
		r.Next()
	})
	r.AddStep(h, func(r *pipeline.Routine) {
		if r.Failed() {
			cb(0, false, r.Err())
		} else {
			cb(boardID, found, nil)
		}
		r.Next()
	})
	r.Start()
}

// SetLastOpenedBoard saves the board to reopen in a workspace
func (f *Facade) SetLastOpenedBoard(workspaceID, boardID int64, h eventloop.Handle, cb func(error)) {
	cb = orNop(cb)
	if f.refuse(h, cb) {
		return
	}
	f.debounce.Close(debounce.ReasonWrite)
	f.lastBoards[workspaceID] = boardID
	f.writeSettings("save last opened board",
		func() string { return fmt.Sprintf("workspace ID: %d\nboard ID: %d", workspaceID, boardID) },
		func() error { return f.settings.WriteLastOpenedBoard(workspaceID, boardID) },
		reply(h, cb))
}
