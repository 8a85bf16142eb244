package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"graphdeck/internal/domain"
	"graphdeck/internal/ports"
)

// docTx is a transaction over entity documents
type docTx struct {
	ctx   context.Context
	store *Store
	tx    *sql.Tx
}

// inTx runs fn in a transaction, committing when it returns nil
func (s *Store) inTx(ctx context.Context, fn func(tx *docTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&docTx{ctx: ctx, store: s, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (t *docTx) exec(query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, t.store.bind(query), args...)
}

// body returns the document of an entity
func (t *docTx) body(kind domain.EntityKind, id int64) ([]byte, error) {
	var body string
	err := t.tx.QueryRowContext(t.ctx, t.store.bind(`SELECT body FROM entities WHERE kind = ? AND id = ?`),
		kind.String(), id).Scan(&body)
	if isNotFound(err) {
		return nil, fmt.Errorf("%s %d: %w", kind, id, ports.ErrEntityNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %d: %w", kind, id, err)
	}
	return []byte(body), nil
}

// insert adds a new document; an existing id is an error
func (t *docTx) insert(kind domain.EntityKind, id int64, start, end sql.NullInt64, body []byte) error {
	_, err := t.exec(`INSERT INTO entities (kind, id, start_ref, end_ref, body) VALUES (?, ?, ?, ?, ?)`,
		kind.String(), id, start, end, string(body))
	if err != nil {
		return fmt.Errorf("create %s %d: %w", kind, id, err)
	}
	return nil
}

// replace overwrites the document of an existing entity
func (t *docTx) replace(kind domain.EntityKind, id int64, body []byte) error {
	_, err := t.exec(`UPDATE entities SET body = ? WHERE kind = ? AND id = ?`, string(body), kind.String(), id)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	return nil
}

func (t *docTx) delete(kind domain.EntityKind, id int64) error {
	_, err := t.exec(`DELETE FROM entities WHERE kind = ? AND id = ?`, kind.String(), id)
	if err != nil {
		return fmt.Errorf("remove %s %d: %w", kind, id, err)
	}
	return nil
}

// deleteReferencing removes documents of kind pointing at id from either end
func (t *docTx) deleteReferencing(kind domain.EntityKind, id int64) error {
	_, err := t.exec(`DELETE FROM entities WHERE kind = ? AND (start_ref = ? OR end_ref = ?)`, kind.String(), id, id)
	if err != nil {
		return fmt.Errorf("remove %s of %d: %w", kind, id, err)
	}
	return nil
}

// bumpCounter keeps NewID ahead of ids created explicitly
func (t *docTx) bumpCounter(kind domain.EntityKind, id int64) error {
	_, err := t.exec(`
		INSERT INTO id_counters (kind, last_id) VALUES (?, ?)
		ON CONFLICT (kind) DO UPDATE SET last_id =
			CASE WHEN excluded.last_id > id_counters.last_id THEN excluded.last_id ELSE id_counters.last_id END
	`, kind.String(), id)
	if err != nil {
		return fmt.Errorf("advance %s ids: %w", kind, err)
	}
	return nil
}
