package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const outboxColumns = `id, token, correspondent_id, body, attachment_path, attachment_name,
	status, error_message, server_msg_id, created_at, updated_at`

// QueueOutbox records a send that is about to go out.
func (db *DB) QueueOutbox(e OutboxEntry) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (token, correspondent_id, body, attachment_path, attachment_name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'sending', ?, ?)`,
		e.Token, e.CorrespondentID, e.Body, e.AttachmentPath, e.AttachmentName, now, now)
	if err != nil {
		return fmt.Errorf("queue outbox %s: %w", e.Token, err)
	}
	return nil
}

// MarkOutboxSent updates an outbox entry to 'sent' with the server message ID.
func (db *DB) MarkOutboxSent(token string, serverMsgID int64) error {
	now := time.Now().UnixMilli()
	return db.updateOutbox(token,
		`UPDATE outbox SET status = 'sent', server_msg_id = ?, error_message = '', updated_at = ? WHERE token = ?`,
		serverMsgID, now, token)
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(token, errMsg string) error {
	now := time.Now().UnixMilli()
	return db.updateOutbox(token,
		`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE token = ?`,
		errMsg, now, token)
}

func (db *DB) updateOutbox(token, query string, args ...any) error {
	res, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update outbox %s: %w", token, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update outbox %s: %w", token, ErrNotFound)
	}
	return nil
}

// GetOutbox returns the entry for token.
func (db *DB) GetOutbox(token string) (*OutboxEntry, error) {
	row := db.QueryRow(`SELECT `+outboxColumns+` FROM outbox WHERE token = ?`, token)
	e, err := scanOutbox(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outbox %s: %w", token, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListOutbox returns entries newest first, filtered by status when non-empty.
// A limit of zero or less returns everything.
func (db *DB) ListOutbox(status string, limit int) ([]OutboxEntry, error) {
	query := `SELECT ` + outboxColumns + ` FROM outbox`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return db.queryOutbox(query, args...)
}

// InterruptedOutbox returns entries left in 'sending', oldest first. After a
// restart these are sends whose outcome was never observed.
func (db *DB) InterruptedOutbox() ([]OutboxEntry, error) {
	return db.queryOutbox(`SELECT ` + outboxColumns + ` FROM outbox WHERE status = 'sending' ORDER BY created_at ASC, id ASC`)
}

func (db *DB) queryOutbox(query string, args ...any) ([]OutboxEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		e, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutbox(s scanner) (*OutboxEntry, error) {
	var e OutboxEntry
	err := s.Scan(&e.ID, &e.Token, &e.CorrespondentID, &e.Body, &e.AttachmentPath, &e.AttachmentName,
		&e.Status, &e.ErrorMessage, &e.ServerMsgID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
