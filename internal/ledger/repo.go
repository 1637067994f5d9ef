package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/models"
)

const selectColumns = `path, item_id, item_url, title, status, checksum, published_at`

// Record inserts or replaces the publication of a note.
func (db *DB) Record(r models.PublishRecord) error {
	if r.Path == "" || r.ItemID == "" {
		return fmt.Errorf("ledger: record: path and item id are required")
	}
	_, err := db.conn.Exec(`
		INSERT INTO publications (path, item_id, item_url, title, status, checksum, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			item_id      = excluded.item_id,
			item_url     = CASE WHEN excluded.item_url = '' THEN publications.item_url ELSE excluded.item_url END,
			title        = excluded.title,
			status       = excluded.status,
			checksum     = excluded.checksum,
			published_at = excluded.published_at
	`, r.Path, r.ItemID, r.ItemURL, r.Title, r.Status, r.Checksum, r.PublishedAt.UTC())
	if err != nil {
		return fmt.Errorf("ledger: record: %w", err)
	}
	return nil
}

// Lookup returns the publication of a note, or apperr.ErrNotFound.
func (db *DB) Lookup(path string) (*models.PublishRecord, error) {
	row := db.conn.QueryRow(`SELECT `+selectColumns+` FROM publications WHERE path = ?`, path)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: lookup: %w", err)
	}
	return r, nil
}

// List returns every publication, most recent first.
func (db *DB) List() ([]models.PublishRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + selectColumns + ` FROM publications ORDER BY published_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	var out []models.PublishRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: list: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Delete forgets the publication of a note.
func (db *DB) Delete(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM publications WHERE path = ?`, path); err != nil {
		return fmt.Errorf("ledger: delete: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.PublishRecord, error) {
	var r models.PublishRecord
	if err := s.Scan(&r.Path, &r.ItemID, &r.ItemURL, &r.Title, &r.Status, &r.Checksum, &r.PublishedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
