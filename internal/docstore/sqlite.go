package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE TABLE IF NOT EXISTS appends (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS appends_collection ON appends (collection, seq);
`

// SQLite is a durable store backed by a single database file. Change
// notifications are process-local: the hub broadcasts after each successful
// write from this process.
type SQLite struct {
	db  *sql.DB
	hub *hub
}

// OpenSQLite opens (and if needed initializes) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLite{db: db, hub: newHub()}, nil
}

// Get returns the document body, if present.
func (s *SQLite) Get(ctx context.Context, collection, id string) (json.RawMessage, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return json.RawMessage(body), true, nil
}

// Put upserts the document and broadcasts the collection's new snapshot.
func (s *SQLite) Put(ctx context.Context, collection, id string, doc json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		collection, id, string(doc),
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return s.notify(ctx, collection)
}

// Delete removes the document and broadcasts the new snapshot. Deleting an
// absent document is a no-op.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return s.notify(ctx, collection)
}

// List returns the full current snapshot of a keyed collection.
func (s *SQLite) List(ctx context.Context, collection string) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		snap[id] = json.RawMessage(body)
	}
	return snap, rows.Err()
}

// Append adds a document to an append-only collection.
func (s *SQLite) Append(ctx context.Context, collection string, doc json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO appends (collection, body) VALUES (?, ?)`,
		collection, string(doc),
	)
	if err != nil {
		return fmt.Errorf("append %s: %w", collection, err)
	}
	return nil
}

// ListAppended returns an append-only collection in insertion order.
func (s *SQLite) ListAppended(ctx context.Context, collection string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM appends WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("list appended %s: %w", collection, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list appended %s: %w", collection, err)
		}
		out = append(out, json.RawMessage(body))
	}
	return out, rows.Err()
}

// Watch subscribes to a keyed collection's snapshot feed. The current
// snapshot is delivered immediately.
func (s *SQLite) Watch(ctx context.Context, collection string) (<-chan Snapshot, func(), error) {
	ch, push, remove := s.hub.add(collection)

	snap, err := s.List(ctx, collection)
	if err != nil {
		remove()
		return nil, nil, err
	}
	push(snap)

	go func() {
		<-ctx.Done()
		remove()
	}()
	return ch, remove, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) notify(ctx context.Context, collection string) error {
	snap, err := s.List(ctx, collection)
	if err != nil {
		return err
	}
	s.hub.broadcast(collection, snap)
	return nil
}
