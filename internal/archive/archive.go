// Package archive persists extracted document text into SQLite so other
// tools (the HTTP API, the MCP server) can retrieve it by path.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mossdal/loom/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS metadata (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS content (
	id   INTEGER PRIMARY KEY,
	text TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (id) REFERENCES metadata(id)
);

CREATE INDEX IF NOT EXISTS idx_metadata_path ON metadata(file_path);
`

// unreadablePlaceholder is stored when a file cannot be read at save time.
const unreadablePlaceholder = "<empty or unreadable>"

// Store is the interface consumed by the API and MCP layers.
type Store interface {
	SaveFiles(paths []string) error
	Get(path string) (string, error)
	List() ([]string, error)
	Search(query string, limit int) ([]Document, error)
	Close() error
}

// Document is one search hit: a stored path and a content snippet.
type Document struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
}

// DB wraps a sql.DB with archive-specific operations.
type DB struct {
	conn *sql.DB
}

var _ Store = (*DB)(nil)

// Open opens (or creates) the SQLite archive and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveFiles upserts the current on-disk content of every path in one
// transaction. Unseen paths get a new metadata row; known paths have
// their content replaced. A file that cannot be read is stored with a
// placeholder body rather than failing the batch.
func (db *DB) SaveFiles(paths []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("archive: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, path := range paths {
		text := unreadablePlaceholder
		if data, err := os.ReadFile(path); err == nil {
			text = string(data)
		}

		var id int64
		err := tx.QueryRow(`SELECT id FROM metadata WHERE file_path = ?`, path).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.Exec(`INSERT INTO metadata (file_path) VALUES (?)`, path)
			if err != nil {
				return fmt.Errorf("archive: insert metadata %s: %w", path, err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("archive: last insert id: %w", err)
			}
			if _, err := tx.Exec(`INSERT INTO content (id, text) VALUES (?, ?)`, id, text); err != nil {
				return fmt.Errorf("archive: insert content %s: %w", path, err)
			}
		case err != nil:
			return fmt.Errorf("archive: lookup %s: %w", path, err)
		default:
			if _, err := tx.Exec(`UPDATE content SET text = ? WHERE id = ?`, text, id); err != nil {
				return fmt.Errorf("archive: update content %s: %w", path, err)
			}
		}
	}

	return tx.Commit()
}

// Get returns the stored text for a path, or apperr.ErrNotFound.
func (db *DB) Get(path string) (string, error) {
	var text string
	err := db.conn.QueryRow(`
		SELECT c.text
		FROM metadata m
		JOIN content c ON c.id = m.id
		WHERE m.file_path = ?
	`, path).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("archive: get %s: %w", path, err)
	}
	return text, nil
}

// List returns every stored path in insertion order.
func (db *DB) List() ([]string, error) {
	rows, err := db.conn.Query(`SELECT file_path FROM metadata ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Search performs a LIKE-based substring search over stored paths and
// content, returning a short snippet per hit.
func (db *DB) Search(query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT m.file_path, substr(c.text, 1, 200)
		FROM metadata m
		JOIN content c ON c.id = m.id
		WHERE m.file_path LIKE ? OR c.text LIKE ?
		ORDER BY m.id
		LIMIT ?
	`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: search: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Path, &d.Snippet); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
