// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/truevote/accounts"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/models"
)

type AccountHandler struct {
	base
	service *accounts.Service
}

func NewAccountHandler(service *accounts.Service, cfg cliparse.Config) *AccountHandler {
	return &AccountHandler{base: base{cfg: cfg}, service: service}
}

// Whitelist handles POST /whitelist
func (h *AccountHandler) Whitelist(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireRole(r, models.RoleModerator)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	var req models.WhitelistRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	entries, err := h.service.WhitelistEmails(ctx, actor, req.Emails)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "emails whitelisted", entries)
}

// RegisterVoter handles POST /voters
func (h *AccountHandler) RegisterVoter(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterVoterRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	voter, err := h.service.RegisterVoter(ctx, req)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "voter registered", voter)
}
