// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by every layer.

Each error carries a Kind that the HTTP layer maps to a status code:

	validation   -> 400 (with per-field detail)
	unauthorized -> 401
	forbidden    -> 403
	not_found    -> 404
	conflict     -> 409
	dependency   -> 502
	unavailable  -> 503
	internal     -> 500

Sentinels such as ErrAlreadyVoted and ErrVoteNotFound are compared with
errors.Is. Each not-found sentinel is distinct so callers can tell a
missing vote from a missing option.
*/
package apperr
