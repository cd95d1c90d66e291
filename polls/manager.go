// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/metrics"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
	"github.com/danielhkuo/truevote/tracing"
)

var tracer = tracing.Tracer("polls")

// FileStore holds poll attachments.
type FileStore interface {
	Put(ctx context.Context, upload models.FileUpload, uploadedBy string) (models.FileInfo, error)
	Delete(ctx context.Context, id string) error
}

// Notifier announces new polls. Failures are logged, never returned.
type Notifier interface {
	PollCreated(ctx context.Context, poll models.Poll) error
}

// Manager creates, edits and deletes polls.
type Manager struct {
	store    store.Store
	ledger   *audit.Ledger
	files    FileStore
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Manager)

func WithFiles(files FileStore) Option {
	return func(m *Manager) { m.files = files }
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock sets the source of "today" for date validation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(st store.Store, ledger *audit.Ledger, opts ...Option) *Manager {
	m := &Manager{store: st, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Create validates draft and stores the poll, its options and an audit
// entry in one transaction.
func (m *Manager) Create(ctx context.Context, draft models.PollDraft, actor models.Actor) (_ models.PollDetails, err error) {
	ctx, span := tracer.Start(ctx, "polls.Create")
	defer func() { tracing.End(span, err) }()

	if actor.Anonymous() {
		return models.PollDetails{}, apperr.ErrNotLoggedIn
	}

	today := models.DateOf(m.now())
	var v apperr.Validation

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		v.Add("title", "title is required")
	}

	start := draft.StartDate
	if start.IsZero() {
		start = today
	}
	switch {
	case draft.EndDate.IsZero():
		v.Add("end_date", "end date is required")
	case !draft.EndDate.After(today):
		v.Add("end_date", "end date must be after today")
	case start.After(draft.EndDate):
		v.Add("start_date", "start date must not be after end date")
	}

	texts, keys := validateOptions(&v, draft.OptionTexts)
	if draft.File != nil {
		validateFile(&v, draft.File)
	}
	if err := v.Err(); err != nil {
		return models.PollDetails{}, err
	}

	poll := models.Poll{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		CreatedBy:   models.NormalizeEmail(actor.Email),
		StartDate:   start,
		EndDate:     draft.EndDate,
		CreatedAt:   m.now().UTC(),
	}

	if draft.File != nil {
		fileID, err := m.storeFile(ctx, *draft.File, actor)
		if err != nil {
			return models.PollDetails{}, err
		}
		poll.FileID = &fileID
	}

	options := buildOptions(poll.ID, texts, keys)
	err = m.store.InTx(ctx, func(q store.Queries) error {
		if err := q.InsertPoll(ctx, poll); err != nil {
			return err
		}
		for _, o := range options {
			if err := q.InsertOption(ctx, o); err != nil {
				return err
			}
		}
		return m.ledger.Created(ctx, q, "Poll created: "+poll.Title, poll.ID, actor)
	})
	if err != nil {
		m.discardFile(ctx, poll.FileID)
		return models.PollDetails{}, err
	}

	m.logger.Info("poll created",
		"poll_id", poll.ID,
		"creator", poll.CreatedBy,
		"options", len(options),
	)
	m.metrics.PollCreated()
	m.announce(ctx, poll)

	return models.PollDetails{Poll: poll, Options: options}, nil
}

// Update applies patch to a poll owned by actor. A non-nil OptionTexts
// retires every live option and inserts the new set with zero tallies.
// The patch is applied to the poll as read inside the transaction, so
// concurrent updates never overwrite each other's fields.
func (m *Manager) Update(ctx context.Context, pollID string, patch models.PollPatch, actor models.Actor) (_ models.PollDetails, err error) {
	ctx, span := tracer.Start(ctx, "polls.Update")
	defer func() { tracing.End(span, err) }()

	if actor.Anonymous() {
		return models.PollDetails{}, apperr.ErrNotLoggedIn
	}

	if _, err := loadOwned(ctx, m.store, pollID, actor); err != nil {
		return models.PollDetails{}, err
	}

	today := models.DateOf(m.now())
	var v apperr.Validation
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		v.Add("title", "title must not be blank")
	}
	if patch.StartDate != nil && patch.StartDate.IsZero() {
		v.Add("start_date", "start date must not be empty")
	}
	if patch.EndDate != nil && !patch.EndDate.After(today) {
		v.Add("end_date", "end date must be after today")
	}

	replaceOptions := patch.OptionTexts != nil
	var texts, keys []string
	if replaceOptions {
		texts, keys = validateOptions(&v, patch.OptionTexts)
	}
	if patch.File != nil {
		validateFile(&v, patch.File)
	}
	if err := v.Err(); err != nil {
		return models.PollDetails{}, err
	}

	var newFileID *string
	if patch.File != nil {
		fileID, err := m.storeFile(ctx, *patch.File, actor)
		if err != nil {
			return models.PollDetails{}, err
		}
		newFileID = &fileID
	}

	var (
		updated   models.Poll
		oldFileID *string
		options   []models.PollOption
	)
	err = m.store.InTx(ctx, func(q store.Queries) error {
		current, err := loadOwned(ctx, q, pollID, actor)
		if err != nil {
			return err
		}
		oldFileID = current.FileID

		updated = applyPatch(current, patch)
		if newFileID != nil {
			updated.FileID = newFileID
		}
		if updated.StartDate.After(updated.EndDate) {
			var v apperr.Validation
			v.Add("start_date", "start date must not be after end date")
			return v.Err()
		}

		if err := q.UpdatePoll(ctx, updated); err != nil {
			return err
		}
		if replaceOptions {
			if _, err := q.SoftDeleteOptions(ctx, pollID); err != nil {
				return err
			}
			for _, o := range buildOptions(pollID, texts, keys) {
				if err := q.InsertOption(ctx, o); err != nil {
					return err
				}
			}
		}
		options, err = q.ListOptions(ctx, pollID)
		if err != nil {
			return err
		}
		return m.ledger.Updated(ctx, q, "Poll updated: "+updated.Title, pollID, actor)
	})
	if err != nil {
		m.discardFile(ctx, newFileID)
		return models.PollDetails{}, err
	}

	if newFileID != nil {
		m.discardFile(ctx, oldFileID)
	}

	m.logger.Info("poll updated",
		"poll_id", pollID,
		"options_replaced", replaceOptions,
		"file_replaced", newFileID != nil,
	)
	m.metrics.PollUpdated()

	return models.PollDetails{Poll: updated, Options: options}, nil
}

// applyPatch returns poll with the set fields of patch applied.
func applyPatch(poll models.Poll, patch models.PollPatch) models.Poll {
	if patch.Title != nil {
		poll.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		poll.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		poll.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		poll.EndDate = *patch.EndDate
	}
	return poll
}

// Delete soft deletes a poll owned by actor, along with its options,
// messages referencing it, and its attachment.
func (m *Manager) Delete(ctx context.Context, pollID string, actor models.Actor) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "polls.Delete")
	defer func() { tracing.End(span, err) }()

	if actor.Anonymous() {
		return false, apperr.ErrNotLoggedIn
	}

	var (
		poll    models.Poll
		removed int64
	)
	err = m.store.InTx(ctx, func(q store.Queries) error {
		var err error
		poll, err = loadOwned(ctx, q, pollID, actor)
		if err != nil {
			return err
		}

		deleted := poll
		deleted.IsDeleted = true
		deleted.FileID = nil
		if err := q.UpdatePoll(ctx, deleted); err != nil {
			return err
		}
		if _, err := q.SoftDeleteOptions(ctx, pollID); err != nil {
			return err
		}
		removed, err = q.DeleteMessagesForPoll(ctx, pollID)
		if err != nil {
			return err
		}
		return m.ledger.Updated(ctx, q, "Poll deleted: "+poll.Title, pollID, actor)
	})
	if err != nil {
		return false, err
	}

	m.discardFile(ctx, poll.FileID)

	m.logger.Info("poll deleted",
		"poll_id", pollID,
		"messages_removed", removed,
	)
	m.metrics.PollDeleted()
	return true, nil
}

// loadOwned returns a live poll created by actor.
func loadOwned(ctx context.Context, q store.PollStore, pollID string, actor models.Actor) (models.Poll, error) {
	poll, err := q.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	if poll.IsDeleted {
		return models.Poll{}, apperr.ErrPollNotFound
	}
	if !strings.EqualFold(poll.CreatedBy, models.NormalizeEmail(actor.Email)) {
		return models.Poll{}, apperr.ErrNotPollOwner
	}
	return poll, nil
}

func (m *Manager) storeFile(ctx context.Context, upload models.FileUpload, actor models.Actor) (string, error) {
	if m.files == nil {
		return "", apperr.New(apperr.KindDependency, "file storage is not configured")
	}
	info, err := m.files.Put(ctx, upload, actor.Email)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// discardFile removes an attachment after the database no longer refers
// to it. Failures leave an orphaned file and are only logged.
func (m *Manager) discardFile(ctx context.Context, fileID *string) {
	if fileID == nil || m.files == nil {
		return
	}
	if err := m.files.Delete(context.WithoutCancel(ctx), *fileID); err != nil {
		m.logger.Warn("failed to delete attachment", "file_id", *fileID, "error", err)
	}
}

func (m *Manager) announce(ctx context.Context, poll models.Poll) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.PollCreated(ctx, poll); err != nil {
		m.logger.Warn("poll notification failed", "poll_id", poll.ID, "error", err)
		m.metrics.NotifyFailed()
	}
}
