// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Command truevote runs the TrueVote election backend.

TrueVote lets moderators publish dated single-choice polls and lets
whitelisted, registered voters cast exactly one vote per poll. Every
state change is written to an audit ledger in the same transaction.

# Commands

	truevote serve [flags]                          run the HTTP API
	truevote migrate [flags]                        create the schema and exit
	truevote stats [flags]                          print system totals
	truevote account add <role> <name> <email>      create an admin or moderator
	truevote token <email> [flags]                  issue a bearer token

Positional arguments come first; everything after them is handed to
cliparse, so every command accepts the same flags, environment variables
and YAML config file:

	DATABASE_URL=postgres://... TOKEN_SECRET=... truevote serve
	truevote serve -p 3318 -t sqlite -d truevote.db --files ./files

# Architecture

  - polls: poll lifecycle (create, update, delete)
  - voting: vote casting, eligibility markers, tallies
  - projection: read models, paging, statistics
  - accounts: voter whitelist and registration
  - store, db: SQL persistence on PostgreSQL or SQLite
  - filestore: badger-backed poll attachments
  - audit, notify: ledger entries and broadcast messages
  - handlers, router, middleware: the HTTP surface
  - metrics, tracing: Prometheus counters and OpenTelemetry spans

See package documentation for each component.
*/
package main
