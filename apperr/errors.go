// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

// Identity and authorization
var (
	ErrNotLoggedIn        = New(KindUnauthorized, "must be logged in")
	ErrInvalidToken       = New(KindUnauthorized, "invalid or expired token")
	ErrNotPollOwner       = New(KindForbidden, "only the poll creator may modify this poll")
	ErrNotRegisteredVoter = New(KindForbidden, "not a registered voter")
	ErrNotWhitelisted     = New(KindForbidden, "email is not whitelisted")
	ErrRoleRequired       = New(KindForbidden, "insufficient role")
)

// Conflicts
var (
	ErrAlreadyVoted     = New(KindConflict, "already voted")
	ErrPollNotOpen      = New(KindConflict, "poll is not open for voting")
	ErrEmailWhitelisted = New(KindConflict, "email already whitelisted")
	ErrAccountExists    = New(KindConflict, "account already exists")
	ErrDuplicateOption  = New(KindConflict, "duplicate option for poll")
)

// Not found, one per entity
var (
	ErrPollNotFound      = New(KindNotFound, "poll not found")
	ErrOptionNotFound    = New(KindNotFound, "invalid option")
	ErrVoteNotFound      = New(KindNotFound, "vote not found")
	ErrAccountNotFound   = New(KindNotFound, "account not found")
	ErrModeratorNotFound = New(KindNotFound, "moderator not found")
	ErrVoterNotFound     = New(KindNotFound, "voter not found")
	ErrFileNotFound      = New(KindNotFound, "file not found")
)
