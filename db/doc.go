// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Connecting

Open selects the driver from the configured database type:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

Drivers:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite, one open connection, foreign keys on

# Schema Creation

CreateSchema is safe to call multiple times - uses IF NOT EXISTS for all
tables and indexes. The same DDL runs on both databases.

# Tables

  - account: admins, moderators and voters
  - voter_email: whitelist entries issued by moderators
  - poll: poll metadata, soft deleted
  - poll_option: options with running tallies, soft deleted on replacement
  - eligibility_marker: UNIQUE (voter_id, poll_id)
  - vote: anonymous vote records
  - audit_entry: append-only audit trail
  - message: broadcast notifications

# Relationships

	account 1──* voter_email
	poll 1──* poll_option
	poll_option 1──* vote
	account 1──* eligibility_marker *──1 poll

# Errors

IsUniqueViolation recognizes constraint failures from both drivers and
IsTransient recognizes timeouts and lock contention.
*/
package db
