// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request completion with method, path, status, client IP and
duration_ms.

# Response Envelope

Every JSON response uses models.APIResponse:

	middleware.Success(w, http.StatusCreated, "poll created", details)
	middleware.Error(w, r, err)

Error maps the apperr kind of err to a status code (validation 400,
unauthorized 401, forbidden 403, not found 404, conflict 409, dependency
502, unavailable 503, anything else 500) and copies field errors into the
envelope.

# Request Bodies

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.Error(w, r, err)
		return
	}

Bodies are capped at MaxBodyBytes.
*/
package middleware
