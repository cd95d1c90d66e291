// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/models"
)

// DefaultTTL is the lifetime of tokens issued by the CLI.
const DefaultTTL = 24 * time.Hour

type claims struct {
	Subject   string      `json:"sub"`
	UserID    string      `json:"uid"`
	Role      models.Role `json:"role"`
	ExpiresAt int64       `json:"exp"`
}

// sign creates the HMAC signature of a token payload
func sign(payload, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	// Use URL-safe base64 and trim padding for cleaner tokens
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// IssueToken creates a bearer token for actor that expires after ttl.
// Token format: base64url(claims JSON) "." base64url(HMAC-SHA256)
func IssueToken(actor models.Actor, secret string, ttl time.Duration, now time.Time) (string, error) {
	if actor.Anonymous() {
		return "", fmt.Errorf("cannot issue token without an email")
	}
	if !actor.Role.Valid() {
		return "", fmt.Errorf("cannot issue token for role %q", actor.Role)
	}

	body, err := json.Marshal(claims{
		Subject:   models.NormalizeEmail(actor.Email),
		UserID:    actor.UserID,
		Role:      actor.Role,
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token claims: %w", err)
	}

	payload := base64.RawURLEncoding.EncodeToString(body)
	return payload + "." + sign(payload, secret), nil
}

// ParseToken verifies the signature and expiry and returns the actor.
func ParseToken(token, secret string, now time.Time) (models.Actor, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return models.Actor{}, apperr.ErrInvalidToken
	}

	if !hmac.Equal([]byte(sig), []byte(sign(payload, secret))) {
		return models.Actor{}, apperr.ErrInvalidToken
	}

	body, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return models.Actor{}, apperr.ErrInvalidToken
	}
	var c claims
	if err := json.Unmarshal(body, &c); err != nil {
		return models.Actor{}, apperr.ErrInvalidToken
	}

	if c.Subject == "" || !c.Role.Valid() || now.Unix() >= c.ExpiresAt {
		return models.Actor{}, apperr.ErrInvalidToken
	}

	return models.Actor{Email: c.Subject, UserID: c.UserID, Role: c.Role}, nil
}

// ActorFromRequest reads the bearer token. A request without an
// Authorization header yields the anonymous actor and no error.
func ActorFromRequest(r *http.Request, secret string, now time.Time) (models.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return models.Actor{}, nil
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return models.Actor{}, apperr.ErrInvalidToken
	}
	return ParseToken(strings.TrimSpace(token), secret, now)
}
