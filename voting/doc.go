// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package voting casts and retracts votes.
//
// A cast writes an eligibility marker (who voted in which poll) and a vote
// record (which option received a vote) in the same transaction. The two
// share no key, so a stored vote cannot be traced back to its voter.
package voting
