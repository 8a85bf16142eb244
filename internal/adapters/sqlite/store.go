// Package sqlite implements the graph store on a SQL database. Entities are
// stored as JSON documents keyed by kind and id. The same schema runs on
// SQLite (modernc.org/sqlite, the default) and on Postgres through pgx.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"graphdeck/internal/domain"
	"graphdeck/internal/ports"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS entities (
		kind TEXT NOT NULL,
		id BIGINT NOT NULL,
		start_ref BIGINT,
		end_ref BIGINT,
		body TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_start ON entities(kind, start_ref)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_end ON entities(kind, end_ref)`,
	`CREATE TABLE IF NOT EXISTS id_counters (
		kind TEXT PRIMARY KEY,
		last_id BIGINT NOT NULL
	)`,
}

// Store implements ports.GraphStore on database/sql
type Store struct {
	db     *sql.DB
	driver string
}

// Ensure Store implements GraphStore
var _ ports.GraphStore = (*Store)(nil)

// Open connects to the database and creates the schema. For the sqlite
// driver dsn is a file path; a leading ~ is expanded.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		path, err := expandHome(dsn)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// one writer; the request queue never overlaps calls anyway
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to setup database: %w", err)
		}
	}
	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func expandHome(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return path, nil
}

// bind rewrites ? placeholders for drivers that number them
func (s *Store) bind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(prefix []any, ids []int64) []any {
	args := append([]any{}, prefix...)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

// NewID reserves the next id of kind
func (s *Store) NewID(ctx context.Context, kind domain.EntityKind) (int64, error) {
	if kind == domain.KindUnknown {
		return 0, fmt.Errorf("cannot reserve id for %s entity", kind)
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.bind(`
		INSERT INTO id_counters (kind, last_id) VALUES (?, 1)
		ON CONFLICT (kind) DO UPDATE SET last_id = id_counters.last_id + 1
		RETURNING last_id
	`), kind.String()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reserve %s id: %w", kind, err)
	}
	return id, nil
}

// refs extracts the endpoint columns of an entity, if it has any
type refs func(v any) (start, end sql.NullInt64)

func noRefs(any) (sql.NullInt64, sql.NullInt64) { return sql.NullInt64{}, sql.NullInt64{} }

func query[V any](ctx context.Context, s *Store, kind domain.EntityKind, ids []int64) (map[int64]V, error) {
	out := make(map[int64]V, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := fmt.Sprintf(`SELECT id, body FROM entities WHERE kind = ? AND id IN (%s)`, placeholders(len(ids)))
	return scan[V](ctx, s, kind, q, int64Args([]any{kind.String()}, ids)...)
}

func scan[V any](ctx context.Context, s *Store, kind domain.EntityKind, q string, args ...any) (map[int64]V, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	out := make(map[int64]V)
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		var v V
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("decode %s %d: %w", kind, id, err)
		}
		out[id] = v
	}
	return out, rows.Err()
}

func create[V any](ctx context.Context, s *Store, kind domain.EntityKind, id int64, v V, endpoints refs) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", kind, id, err)
	}
	start, end := endpoints(v)
	return s.inTx(ctx, func(tx *docTx) error {
		if err := tx.insert(kind, id, start, end, body); err != nil {
			return err
		}
		return tx.bumpCounter(kind, id)
	})
}

func update[V, U any](ctx context.Context, s *Store, kind domain.EntityKind, id int64, apply func(U, V) V, upd U) error {
	return s.inTx(ctx, func(tx *docTx) error {
		body, err := tx.body(kind, id)
		if err != nil {
			return err
		}
		var v V
		if err := json.Unmarshal(body, &v); err != nil {
			return fmt.Errorf("decode %s %d: %w", kind, id, err)
		}
		next, err := json.Marshal(apply(upd, v))
		if err != nil {
			return fmt.Errorf("encode %s %d: %w", kind, id, err)
		}
		return tx.replace(kind, id, next)
	})
}

func (s *Store) remove(ctx context.Context, kind domain.EntityKind, id int64) error {
	_, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM entities WHERE kind = ? AND id = ?`), kind.String(), id)
	if err != nil {
		return fmt.Errorf("remove %s %d: %w", kind, id, err)
	}
	return nil
}

func (s *Store) listIDs(ctx context.Context, kind domain.EntityKind) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT id FROM entities WHERE kind = ? ORDER BY id`), kind.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) QueryCards(ctx context.Context, ids []int64) (map[int64]domain.Card, error) {
	return query[domain.Card](ctx, s, domain.KindCard, ids)
}

func (s *Store) CreateCard(ctx context.Context, card domain.Card) error {
	return create(ctx, s, domain.KindCard, card.ID, card, noRefs)
}

func (s *Store) UpdateCard(ctx context.Context, id int64, upd domain.CardUpdate) error {
	return update(ctx, s, domain.KindCard, id, domain.CardUpdate.Apply, upd)
}

// RemoveCard deletes the card and every relationship touching it
func (s *Store) RemoveCard(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *docTx) error {
		if err := tx.delete(domain.KindCard, id); err != nil {
			return err
		}
		return tx.deleteReferencing(domain.KindRelationship, id)
	})
}

func (s *Store) QueryRelationships(ctx context.Context, ids []int64) (map[int64]domain.Relationship, error) {
	return query[domain.Relationship](ctx, s, domain.KindRelationship, ids)
}

// QueryRelationshipsOfCards returns relationships with both ends among cardIDs
func (s *Store) QueryRelationshipsOfCards(ctx context.Context, cardIDs []int64) (map[int64]domain.Relationship, error) {
	if len(cardIDs) == 0 {
		return map[int64]domain.Relationship{}, nil
	}
	in := placeholders(len(cardIDs))
	q := fmt.Sprintf(`SELECT id, body FROM entities WHERE kind = ? AND start_ref IN (%s) AND end_ref IN (%s)`, in, in)
	args := int64Args(int64Args([]any{domain.KindRelationship.String()}, cardIDs), cardIDs)
	return scan[domain.Relationship](ctx, s, domain.KindRelationship, q, args...)
}

func relationshipRefs(v any) (sql.NullInt64, sql.NullInt64) {
	rel := v.(domain.Relationship)
	return sql.NullInt64{Int64: rel.StartCardID, Valid: true}, sql.NullInt64{Int64: rel.EndCardID, Valid: true}
}

func (s *Store) CreateRelationship(ctx context.Context, rel domain.Relationship) error {
	found, err := s.QueryCards(ctx, []int64{rel.StartCardID, rel.EndCardID})
	if err != nil {
		return err
	}
	_, startOK := found[rel.StartCardID]
	_, endOK := found[rel.EndCardID]
	if !startOK || !endOK {
		return fmt.Errorf("relationship %d: endpoint card: %w", rel.ID, ports.ErrEntityNotFound)
	}
	return create(ctx, s, domain.KindRelationship, rel.ID, rel, relationshipRefs)
}

func (s *Store) UpdateRelationship(ctx context.Context, id int64, upd domain.RelationshipUpdate) error {
	return update(ctx, s, domain.KindRelationship, id, domain.RelationshipUpdate.Apply, upd)
}

func (s *Store) RemoveRelationship(ctx context.Context, id int64) error {
	return s.remove(ctx, domain.KindRelationship, id)
}

func (s *Store) QueryBoards(ctx context.Context, ids []int64) (map[int64]domain.Board, error) {
	return query[domain.Board](ctx, s, domain.KindBoard, ids)
}

func (s *Store) CreateBoard(ctx context.Context, board domain.Board) error {
	return create(ctx, s, domain.KindBoard, board.ID, board, noRefs)
}

func (s *Store) UpdateBoard(ctx context.Context, id int64, upd domain.BoardUpdate) error {
	return update(ctx, s, domain.KindBoard, id, domain.BoardUpdate.Apply, upd)
}

func (s *Store) RemoveBoard(ctx context.Context, id int64) error {
	return s.remove(ctx, domain.KindBoard, id)
}

func (s *Store) QueryWorkspaces(ctx context.Context, ids []int64) (map[int64]domain.Workspace, error) {
	return query[domain.Workspace](ctx, s, domain.KindWorkspace, ids)
}

func (s *Store) ListWorkspaceIDs(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, domain.KindWorkspace)
}

func (s *Store) CreateWorkspace(ctx context.Context, ws domain.Workspace) error {
	return create(ctx, s, domain.KindWorkspace, ws.ID, ws, noRefs)
}

func (s *Store) UpdateWorkspace(ctx context.Context, id int64, upd domain.WorkspaceUpdate) error {
	return update(ctx, s, domain.KindWorkspace, id, domain.WorkspaceUpdate.Apply, upd)
}

func (s *Store) RemoveWorkspace(ctx context.Context, id int64) error {
	return s.remove(ctx, domain.KindWorkspace, id)
}

func (s *Store) QueryCustomQueries(ctx context.Context, ids []int64) (map[int64]domain.CustomQuery, error) {
	return query[domain.CustomQuery](ctx, s, domain.KindCustomQuery, ids)
}

func (s *Store) ListCustomQueryIDs(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, domain.KindCustomQuery)
}

func (s *Store) CreateCustomQuery(ctx context.Context, q domain.CustomQuery) error {
	return create(ctx, s, domain.KindCustomQuery, q.ID, q, noRefs)
}

func (s *Store) UpdateCustomQuery(ctx context.Context, id int64, upd domain.CustomQueryUpdate) error {
	return update(ctx, s, domain.KindCustomQuery, id, domain.CustomQueryUpdate.Apply, upd)
}

func (s *Store) RemoveCustomQuery(ctx context.Context, id int64) error {
	return s.remove(ctx, domain.KindCustomQuery, id)
}

// isNotFound reports whether err means the row does not exist
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
