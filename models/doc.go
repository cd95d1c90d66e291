// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request, and response types for the API.

# Domain Types

  - Poll, PollOption, PollDetails: polls and their live options
  - EligibilityMarker: proof that a voter voted in a poll (one per voter and poll)
  - VoteRecord: anonymous vote for an option
  - AuditEntry: immutable record of a state change
  - VoterEmail: whitelist entry issued by a moderator
  - Message: broadcast notification
  - FileInfo: attachment metadata

# Accounts

Account is implemented by Admin, Moderator and Voter. Actor is the
identity passed explicitly to every core operation; its zero value means
nobody is logged in.

# Request Types

  - PollDraft: create a poll
  - PollPatch: partial poll update (nil fields unchanged)
  - CastVoteRequest: option_id
  - WhitelistRequest: emails
  - RegisterVoterRequest: name, email, age
  - PollQuery: search, filters, sort, paging

# Response Types

  - APIResponse: the {success, message, data, errors} envelope
  - Page, Pagination: paged results
  - ModeratorStats, AdminStats, VoterStats

# Dates

Date is a UTC calendar day serialized as YYYY-MM-DD. A poll is open on
day d when StartDate <= d < EndDate.
*/
package models
