// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/projection"
)

type StatsHandler struct {
	base
	reader *projection.Projection
}

func NewStatsHandler(reader *projection.Projection, cfg cliparse.Config) *StatsHandler {
	return &StatsHandler{base: base{cfg: cfg}, reader: reader}
}

// AdminStats handles GET /stats/admin
func (h *StatsHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleAdmin); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	stats, err := h.reader.AdminStats(ctx)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "", stats)
}

// ModeratorStats handles GET /stats/moderators/{id}. Moderators may only
// read their own stats.
func (h *StatsHandler) ModeratorStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.selfOrAdmin(r, models.RoleModerator, id); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	stats, err := h.reader.ModeratorStats(ctx, id)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "", stats)
}

// VoterStats handles GET /stats/voters/{id}
func (h *StatsHandler) VoterStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.selfOrAdmin(r, models.RoleVoter, id); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	stats, err := h.reader.VoterStats(ctx, id)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "", stats)
}

func (h *StatsHandler) selfOrAdmin(r *http.Request, role models.Role, id string) error {
	actor, err := h.requireRole(r, models.RoleAdmin, role)
	if err != nil {
		return err
	}
	if actor.Role == role && actor.UserID != id {
		return apperr.ErrRoleRequired
	}
	return nil
}
