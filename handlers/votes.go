// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/voting"
)

type VoteHandler struct {
	base
	engine *voting.Engine
}

func NewVoteHandler(engine *voting.Engine, cfg cliparse.Config) *VoteHandler {
	return &VoteHandler{base: base{cfg: cfg}, engine: engine}
}

// CastVote handles POST /votes
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	vote, err := h.engine.CastVote(ctx, req.OptionID, actor)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "vote cast", vote)
}

// DeleteVote handles DELETE /votes/{id}
func (h *VoteHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireRole(r, models.RoleAdmin)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	vote, err := h.engine.DeleteVote(ctx, r.PathValue("id"), actor)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "vote deleted", vote)
}
