// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the TrueVote API.

# Handler Types

Each handler is a struct holding the domain service it fronts and the
config:

  - PollHandler: poll create, update, delete, listing and attachments
  - VoteHandler: casting and retracting votes
  - StatsHandler: admin, moderator and voter statistics
  - AccountHandler: voter whitelist and voter registration

# Identity

Callers authenticate with a bearer token:

	Authorization: Bearer <token>

A request without a token acts as the anonymous user. Role checks
(moderator creates polls, admin retracts votes) happen here; ownership
checks happen in the domain services.

# Timeouts

Every handler bounds its storage calls with Config.QueryTimeout. A timeout
surfaces as 503 with a Retry-After header, never as a business outcome.
*/
package handlers
