package persistence

// mirror is the in-memory copy of one entity kind. It is touched only on the
// event loop.
//
// overlay keeps deltas written to ids that were not mirrored at the time, so
// a fetch answered after (or racing with) the write cannot bring a stale
// value into the mirror. removed keeps ids deleted by this process so an
// in-flight fetch cannot resurrect them.
type mirror[V, U any] struct {
	entries map[int64]V
	overlay map[int64]U
	removed map[int64]struct{}

	apply func(U, V) V
	merge func(U, U) U
	clone func(V) V
}

func newMirror[V, U any](apply func(U, V) V, merge func(U, U) U, clone func(V) V) *mirror[V, U] {
	return &mirror[V, U]{
		entries: make(map[int64]V),
		overlay: make(map[int64]U),
		removed: make(map[int64]struct{}),
		apply:   apply,
		merge:   merge,
		clone:   clone,
	}
}

func (m *mirror[V, U]) get(id int64) (V, bool) {
	v, ok := m.entries[id]
	if !ok {
		return v, false
	}
	return m.clone(v), true
}

func (m *mirror[V, U]) has(id int64) bool {
	_, ok := m.entries[id]
	return ok
}

// put stores a value written by this process (create)
func (m *mirror[V, U]) put(id int64, v V) {
	m.entries[id] = m.clone(v)
	delete(m.overlay, id)
	delete(m.removed, id)
}

// update applies a delta written by this process
func (m *mirror[V, U]) update(id int64, u U) {
	if v, ok := m.entries[id]; ok {
		m.entries[id] = m.apply(u, v)
		return
	}
	if prev, ok := m.overlay[id]; ok {
		u = m.merge(prev, u)
	}
	m.overlay[id] = u
}

// remove drops an entity deleted by this process
func (m *mirror[V, U]) remove(id int64) {
	delete(m.entries, id)
	delete(m.overlay, id)
	m.removed[id] = struct{}{}
}

// absorb stores a value fetched from the store unless the mirror already
// holds something at least as fresh
func (m *mirror[V, U]) absorb(id int64, v V) {
	if _, ok := m.entries[id]; ok {
		return
	}
	if _, ok := m.removed[id]; ok {
		return
	}
	if u, ok := m.overlay[id]; ok {
		v = m.apply(u, v)
		delete(m.overlay, id)
	}
	m.entries[id] = m.clone(v)
}

// partition splits ids into mirrored and missing, dropping duplicates
func (m *mirror[V, U]) partition(ids []int64) (cached, missing []int64) {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := m.entries[id]; ok {
			cached = append(cached, id)
		} else {
			missing = append(missing, id)
		}
	}
	return cached, missing
}

// collect returns copies of the mirrored values among ids
func (m *mirror[V, U]) collect(ids []int64) map[int64]V {
	out := make(map[int64]V, len(ids))
	for _, id := range ids {
		if v, ok := m.entries[id]; ok {
			out[id] = m.clone(v)
		}
	}
	return out
}
