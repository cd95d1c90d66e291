// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/danielhkuo/truevote/models"
)

// PollStore persists polls and their options. Polls and options are never
// hard deleted.
type PollStore interface {
	InsertPoll(ctx context.Context, p models.Poll) error
	// GetPoll returns soft-deleted polls too; callers check IsDeleted.
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	UpdatePoll(ctx context.Context, p models.Poll) error
	ListPolls(ctx context.Context) ([]models.Poll, error)

	// InsertOption fails with apperr.ErrDuplicateOption when a live option
	// with the same TextKey exists in the poll.
	InsertOption(ctx context.Context, o models.PollOption) error
	// GetOption returns soft-deleted options too.
	GetOption(ctx context.Context, id string) (models.PollOption, error)
	ListOptions(ctx context.Context, pollID string) ([]models.PollOption, error)
	ListAllOptions(ctx context.Context) ([]models.PollOption, error)
	SoftDeleteOptions(ctx context.Context, pollID string) (int64, error)

	// IncrementTally adds one to a live option's tally in a single
	// statement. Fails with apperr.ErrOptionNotFound if the option is gone.
	IncrementTally(ctx context.Context, optionID string) error
	// DecrementTally subtracts one whether or not the option is live.
	DecrementTally(ctx context.Context, optionID string) error
}

// EligibilityStore records which voters voted in which polls.
type EligibilityStore interface {
	HasVoted(ctx context.Context, voterID, pollID string) (bool, error)
	// RecordVote inserts the marker or fails with apperr.ErrAlreadyVoted.
	// Uniqueness is enforced by the storage engine, so concurrent inserts
	// for the same pair yield exactly one success.
	RecordVote(ctx context.Context, m models.EligibilityMarker) error
	ListMarkers(ctx context.Context) ([]models.EligibilityMarker, error)
	ListMarkersByVoter(ctx context.Context, voterID string) ([]models.EligibilityMarker, error)
}

// VoteStore is the append-only vote ledger.
type VoteStore interface {
	AppendVote(ctx context.Context, v models.VoteRecord) error
	GetVote(ctx context.Context, id string) (models.VoteRecord, error)
	DeleteVote(ctx context.Context, id string) error
	CountVotes(ctx context.Context, optionID string) (int, error)
	CountAllVotes(ctx context.Context) (int, error)
}

type AuditStore interface {
	AppendAudit(ctx context.Context, e models.AuditEntry) error
	ListAudit(ctx context.Context, subjectID string) ([]models.AuditEntry, error)
}

type AccountStore interface {
	// InsertAccount fails with apperr.ErrAccountExists on a duplicate email.
	InsertAccount(ctx context.Context, a models.Account) error
	GetAccount(ctx context.Context, id string) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// InsertVoterEmail fails with apperr.ErrEmailWhitelisted on a duplicate.
	InsertVoterEmail(ctx context.Context, e models.VoterEmail) error
	GetVoterEmail(ctx context.Context, email string) (models.VoterEmail, error)
	MarkVoterEmailUsed(ctx context.Context, email string) error
	ListVoterEmails(ctx context.Context) ([]models.VoterEmail, error)
}

type MessageStore interface {
	InsertMessage(ctx context.Context, m models.Message) error
	ListMessages(ctx context.Context) ([]models.Message, error)
	DeleteMessagesForPoll(ctx context.Context, pollID string) (int64, error)
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Queries is every storage operation. The same set is available directly
// and inside a transaction.
type Queries interface {
	PollStore
	EligibilityStore
	VoteStore
	AuditStore
	AccountStore
	MessageStore
}

type Store interface {
	Queries
	// InTx runs fn in a single transaction and commits if fn returns nil.
	// The Queries passed to fn must not be used after fn returns.
	InTx(ctx context.Context, fn func(q Queries) error) error
}
