// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth turns bearer tokens into the Actor passed to core operations.

# Tokens

Tokens are HMAC-SHA256 signed claims (email, user id, role, expiry):

	token, err := auth.IssueToken(actor, secret, auth.DefaultTTL, time.Now())
	actor, err := auth.ParseToken(token, secret, time.Now())

Both halves are URL-safe base64 without padding. The signature is checked
with hmac.Equal before the claims are decoded.

# Requests

ActorFromRequest reads "Authorization: Bearer <token>". A request without
the header yields the zero Actor, which core operations reject where a
login is required. A malformed or expired token is apperr.ErrInvalidToken.

Credential checks and token issuance for end users live outside this
service; the CLI "token" command issues tokens for existing accounts.
*/
package auth
