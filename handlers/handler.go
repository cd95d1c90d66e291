// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/auth"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/models"
)

// base holds what every handler needs from the request: the caller's
// identity and a bounded context for storage calls.
type base struct {
	cfg cliparse.Config
}

// actor returns the caller, or the anonymous actor when no token is sent.
func (b base) actor(r *http.Request) (models.Actor, error) {
	return auth.ActorFromRequest(r, b.cfg.TokenSecret, time.Now())
}

// requireRole returns the caller if they hold one of roles.
func (b base) requireRole(r *http.Request, roles ...models.Role) (models.Actor, error) {
	actor, err := b.actor(r)
	if err != nil {
		return models.Actor{}, err
	}
	if actor.Anonymous() {
		return models.Actor{}, apperr.ErrNotLoggedIn
	}
	if !slices.Contains(roles, actor.Role) {
		return models.Actor{}, apperr.ErrRoleRequired
	}
	return actor, nil
}

func (b base) context(r *http.Request) (context.Context, context.CancelFunc) {
	if b.cfg.QueryTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), b.cfg.QueryTimeout)
}
