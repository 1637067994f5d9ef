// Package ledger records which vault notes have been published and as
// which remote item, backed by SQLite.
package ledger

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/feedpost/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS publications (
	path         TEXT PRIMARY KEY,
	item_id      TEXT NOT NULL,
	item_url     TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	published_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_publications_item ON publications(item_id);
`

// Store is the ledger surface consumed by the publisher and MCP server.
type Store interface {
	Lookup(path string) (*models.PublishRecord, error)
	Record(r models.PublishRecord) error
	List() ([]models.PublishRecord, error)
	Delete(path string) error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
