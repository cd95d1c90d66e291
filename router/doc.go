// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the TrueVote API.

# Route Registration

NewRouter builds every service over one database and returns a configured
http.ServeMux:

	mux := router.NewRouter(router.Deps{DB: conn, Config: cfg, Files: files})

# Endpoints

Operations:

	GET /health  - Database reachable
	GET /metrics - Prometheus metrics

Polls (create needs a moderator or admin token, edits need the creator):

	POST   /polls           - Create poll
	GET    /polls           - Search, filter and page polls
	GET    /polls/{id}      - Poll with live options
	PUT    /polls/{id}      - Update poll, optionally replacing options
	DELETE /polls/{id}      - Soft delete poll
	GET    /polls/{id}/file - Download attachment

Votes:

	POST   /votes      - Cast vote (registered voter)
	DELETE /votes/{id} - Retract vote (admin)

Stats:

	GET /stats/admin           - Totals (admin)
	GET /stats/moderators/{id} - One moderator (admin or self)
	GET /stats/voters/{id}     - One voter (admin or self)

Accounts:

	POST /whitelist - Whitelist voter emails (moderator)
	POST /voters    - Register as voter (public)

Audit:

	GET /audit/{id} - Audit trail for a poll, vote or account (admin)
*/
package router
