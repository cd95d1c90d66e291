// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the storage ports for each aggregate and their
database/sql implementation.

# Ports

  - PollStore: polls and options, atomic tally updates
  - EligibilityStore: one marker per (voter, poll), insert-or-fail
  - VoteStore: append-only vote records
  - AuditStore: append-only audit entries
  - AccountStore: accounts and the voter whitelist
  - MessageStore: broadcast messages

Queries bundles every port. Store adds InTx, which hands fn a Queries
bound to one transaction:

	err := st.InTx(ctx, func(q store.Queries) error {
		if err := q.RecordVote(ctx, marker); err != nil {
			return err // apperr.ErrAlreadyVoted on a duplicate
		}
		return q.IncrementTally(ctx, optionID)
	})

# Errors

Constraint failures are translated to apperr sentinels. Timeouts and lock
contention are returned as apperr.KindUnavailable.
*/
package store
