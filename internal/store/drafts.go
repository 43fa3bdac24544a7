package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveDraft parks a draft for a correspondent and returns its row id.
func (db *DB) SaveDraft(d DraftRecord) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO drafts (correspondent_id, body, attachment_path, attachment_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.CorrespondentID, d.Body, d.AttachmentPath, d.AttachmentName, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("save draft: %w", err)
	}
	return res.LastInsertId()
}

// TakeDraft removes and returns the oldest parked draft for a correspondent.
// Returns nil with no error when there is none.
func (db *DB) TakeDraft(correspondentID int64) (*DraftRecord, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var d DraftRecord
	err = tx.QueryRow(`
		SELECT id, correspondent_id, body, attachment_path, attachment_name, created_at
		FROM drafts WHERE correspondent_id = ? ORDER BY id ASC LIMIT 1`, correspondentID).
		Scan(&d.ID, &d.CorrespondentID, &d.Body, &d.AttachmentPath, &d.AttachmentName, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("take draft: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM drafts WHERE id = ?`, d.ID); err != nil {
		return nil, fmt.Errorf("take draft: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDrafts returns every parked draft, oldest first.
func (db *DB) ListDrafts() ([]DraftRecord, error) {
	rows, err := db.Query(`
		SELECT id, correspondent_id, body, attachment_path, attachment_name, created_at
		FROM drafts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []DraftRecord
	for rows.Next() {
		var d DraftRecord
		if err := rows.Scan(&d.ID, &d.CorrespondentID, &d.Body, &d.AttachmentPath, &d.AttachmentName, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DraftCounts returns the number of parked drafts per correspondent.
func (db *DB) DraftCounts() (map[int64]int, error) {
	rows, err := db.Query(`SELECT correspondent_id, COUNT(*) FROM drafts GROUP BY correspondent_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
