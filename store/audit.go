// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/danielhkuo/truevote/models"
)

func (s *sqlQueries) AppendAudit(ctx context.Context, e models.AuditEntry) error {
	var updatedAt sql.NullTime
	if e.UpdatedAt != nil {
		updatedAt = sql.NullTime{Time: e.UpdatedAt.UTC(), Valid: true}
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO audit_entry (id, description, subject_id, created_by, created_at, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Description, e.SubjectID, nullString(e.CreatedBy), e.CreatedAt.UTC(), nullString(e.UpdatedBy), updatedAt)
	if err != nil {
		return s.fail("append_audit", err, "subject_id", e.SubjectID)
	}
	return nil
}

func (s *sqlQueries) ListAudit(ctx context.Context, subjectID string) ([]models.AuditEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, description, subject_id, created_by, created_at, updated_by, updated_at
		FROM audit_entry
		WHERE subject_id = $1
		ORDER BY created_at, id
	`, subjectID)
	if err != nil {
		return nil, s.fail("list_audit", err, "subject_id", subjectID)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e                    models.AuditEntry
			createdBy, updatedBy sql.NullString
			updatedAt            sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Description, &e.SubjectID, &createdBy, &e.CreatedAt, &updatedBy, &updatedAt); err != nil {
			return nil, s.fail("list_audit", err)
		}
		e.CreatedBy = createdBy.String
		e.UpdatedBy = updatedBy.String
		if updatedAt.Valid {
			e.UpdatedAt = &updatedAt.Time
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_audit", err)
	}
	return entries, nil
}

func (s *sqlQueries) InsertMessage(ctx context.Context, m models.Message) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO message (id, body, sender, poll_id, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Body, m.From, nullStringPtr(m.PollID), m.SentAt.UTC())
	if err != nil {
		return s.fail("insert_message", err)
	}
	return nil
}

func (s *sqlQueries) ListMessages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, body, sender, poll_id, sent_at FROM message ORDER BY sent_at, id`)
	if err != nil {
		return nil, s.fail("list_messages", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var (
			m      models.Message
			pollID sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.From, &pollID, &m.SentAt); err != nil {
			return nil, s.fail("list_messages", err)
		}
		if pollID.Valid {
			m.PollID = &pollID.String
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_messages", err)
	}
	return messages, nil
}

func (s *sqlQueries) DeleteMessagesForPoll(ctx context.Context, pollID string) (int64, error) {
	return s.deleteMessages(ctx, "delete_messages_for_poll", `DELETE FROM message WHERE poll_id = $1`, pollID)
}

func (s *sqlQueries) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.deleteMessages(ctx, "delete_messages_before", `DELETE FROM message WHERE sent_at < $1`, cutoff.UTC())
}

func (s *sqlQueries) deleteMessages(ctx context.Context, event, query string, arg any) (int64, error) {
	res, err := s.q.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, s.fail(event, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail(event, err)
	}
	return n, nil
}
