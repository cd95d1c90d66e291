// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/metrics"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
	"github.com/danielhkuo/truevote/tracing"
)

var tracer = tracing.Tracer("voting")

// Engine casts and retracts votes.
type Engine struct {
	store   store.Store
	ledger  *audit.Ledger
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Engine)

func WithMetrics(mt *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = mt }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock sets the source of "today" for the open-poll check.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(st store.Store, ledger *audit.Ledger, opts ...Option) *Engine {
	e := &Engine{store: st, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// CastVote records one vote for optionID by actor. The eligibility
// marker, tally increment, vote record and audit entry commit together or
// not at all.
func (e *Engine) CastVote(ctx context.Context, optionID string, actor models.Actor) (_ models.VoteRecord, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "voting.CastVote")
	defer func() {
		e.metrics.VoteCast(start, err)
		tracing.End(span, err)
	}()

	voter, err := e.resolveVoter(ctx, actor)
	if err != nil {
		return models.VoteRecord{}, err
	}
	span.SetAttributes(attribute.String("option.id", optionID))

	now := e.now()
	var vote models.VoteRecord
	err = e.store.InTx(ctx, func(q store.Queries) error {
		option, err := q.GetOption(ctx, optionID)
		if err != nil {
			return err
		}
		if option.IsDeleted {
			return apperr.ErrOptionNotFound
		}

		poll, err := q.GetPoll(ctx, option.PollID)
		if errors.Is(err, apperr.ErrPollNotFound) {
			return apperr.ErrOptionNotFound
		}
		if err != nil {
			return err
		}
		if poll.IsDeleted {
			return apperr.ErrOptionNotFound
		}
		if !poll.OpenOn(models.DateOf(now)) {
			return apperr.ErrPollNotOpen
		}

		registry := NewRegistry(q)
		voted, err := registry.HasVoted(ctx, voter.ID, poll.ID)
		if err != nil {
			return err
		}
		if voted {
			return apperr.ErrAlreadyVoted
		}
		if _, err := registry.RecordVote(ctx, voter.ID, poll.ID, now); err != nil {
			return err
		}

		if err := q.IncrementTally(ctx, option.ID); err != nil {
			return err
		}

		vote = models.VoteRecord{
			ID:       uuid.NewString(),
			OptionID: option.ID,
			PollID:   poll.ID,
			CastAt:   now.UTC(),
		}
		if err := q.AppendVote(ctx, vote); err != nil {
			return err
		}
		return e.ledger.Created(ctx, q, "Vote cast", vote.ID, actor)
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict || apperr.KindOf(err) == apperr.KindNotFound {
			e.logger.Info("vote rejected", "option_id", optionID, "voter_id", voter.ID, "reason", apperr.Message(err))
		}
		return models.VoteRecord{}, err
	}

	e.logger.Info("vote cast", "vote_id", vote.ID, "poll_id", vote.PollID)
	return vote, nil
}

// DeleteVote retracts a vote. The voter's eligibility marker stays, so the
// voter cannot vote in that poll again.
func (e *Engine) DeleteVote(ctx context.Context, voteID string, actor models.Actor) (_ models.VoteRecord, err error) {
	ctx, span := tracer.Start(ctx, "voting.DeleteVote")
	defer func() { tracing.End(span, err) }()

	if actor.Anonymous() {
		return models.VoteRecord{}, apperr.ErrNotLoggedIn
	}

	var vote models.VoteRecord
	err = e.store.InTx(ctx, func(q store.Queries) error {
		var err error
		vote, err = q.GetVote(ctx, voteID)
		if err != nil {
			return err
		}
		if _, err := q.GetOption(ctx, vote.OptionID); err != nil {
			return err
		}
		if err := q.DecrementTally(ctx, vote.OptionID); err != nil {
			return err
		}
		if err := q.DeleteVote(ctx, voteID); err != nil {
			return err
		}
		return e.ledger.Updated(ctx, q, "Vote deleted", voteID, actor)
	})
	if err != nil {
		return models.VoteRecord{}, err
	}

	e.logger.Info("vote deleted", "vote_id", voteID, "poll_id", vote.PollID, "by", actor.Email)
	e.metrics.VoteDeleted()
	return vote, nil
}

// resolveVoter maps actor to an active voter account.
func (e *Engine) resolveVoter(ctx context.Context, actor models.Actor) (models.Voter, error) {
	if actor.Anonymous() {
		return models.Voter{}, apperr.ErrNotRegisteredVoter
	}
	account, err := e.store.GetAccountByEmail(ctx, actor.Email)
	if errors.Is(err, apperr.ErrAccountNotFound) {
		return models.Voter{}, apperr.ErrNotRegisteredVoter
	}
	if err != nil {
		return models.Voter{}, err
	}
	voter, ok := account.(models.Voter)
	if !ok || !voter.IsActive() {
		return models.Voter{}, apperr.ErrNotRegisteredVoter
	}
	return voter, nil
}
