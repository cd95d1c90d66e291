// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

// Broadcaster writes announcement messages. Delivery to clients happens
// elsewhere; a failed broadcast never fails the operation that caused it.
type Broadcaster struct {
	messages store.MessageStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewBroadcaster(messages store.MessageStore, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{messages: messages, logger: logger, now: time.Now}
}

// PollCreated announces a new poll to all users.
func (b *Broadcaster) PollCreated(ctx context.Context, poll models.Poll) error {
	pollID := poll.ID
	msg := models.Message{
		ID:     uuid.NewString(),
		Body:   fmt.Sprintf("New poll %q is open from %s to %s", poll.Title, poll.StartDate, poll.EndDate),
		From:   poll.CreatedBy,
		PollID: &pollID,
		SentAt: b.now().UTC(),
	}
	if err := b.messages.InsertMessage(ctx, msg); err != nil {
		return fmt.Errorf("broadcast poll created: %w", err)
	}

	b.logger.Debug("broadcast sent", "message_id", msg.ID, "poll_id", poll.ID)
	return nil
}

// Sweeper deletes broadcast messages older than the retention period.
type Sweeper struct {
	messages  store.MessageStore
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewSweeper(messages store.MessageStore, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		messages:  messages,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep runs one pass and returns the number of messages removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.messages.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep messages: %w", err)
	}
	if n > 0 {
		s.logger.Info("messages swept",
			"count", n,
			"older_than", humanize.Time(cutoff),
		)
	}
	return n, nil
}

// Run sweeps every interval until ctx is done. A zero interval disables
// sweeping and Run returns immediately.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Warn("message sweep failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
