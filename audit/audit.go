// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

// Ledger appends audit entries. Entries are written through the store the
// caller passes in, so an entry written inside a transaction commits or
// rolls back together with the change it describes.
type Ledger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{logger: logger, now: time.Now}
}

// Created records a new subject.
func (l *Ledger) Created(ctx context.Context, q store.AuditStore, description, subjectID string, actor models.Actor) error {
	e := models.AuditEntry{
		ID:          uuid.NewString(),
		Description: description,
		SubjectID:   subjectID,
		CreatedBy:   actor.Email,
		CreatedAt:   l.now().UTC(),
	}
	return l.append(ctx, q, e)
}

// Updated records a change to an existing subject.
func (l *Ledger) Updated(ctx context.Context, q store.AuditStore, description, subjectID string, actor models.Actor) error {
	now := l.now().UTC()
	e := models.AuditEntry{
		ID:          uuid.NewString(),
		Description: description,
		SubjectID:   subjectID,
		CreatedAt:   now,
		UpdatedBy:   actor.Email,
		UpdatedAt:   &now,
	}
	return l.append(ctx, q, e)
}

func (l *Ledger) List(ctx context.Context, q store.AuditStore, subjectID string) ([]models.AuditEntry, error) {
	return q.ListAudit(ctx, subjectID)
}

func (l *Ledger) append(ctx context.Context, q store.AuditStore, e models.AuditEntry) error {
	if err := q.AppendAudit(ctx, e); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}

	actor := e.CreatedBy
	if actor == "" {
		actor = e.UpdatedBy
	}
	l.logger.Info("audit",
		"is_audit", true,
		"audit_id", e.ID,
		"description", e.Description,
		"subject_id", e.SubjectID,
		"actor", actor,
	)
	return nil
}
