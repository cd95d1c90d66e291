// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

type AuditHandler struct {
	base
	ledger  *audit.Ledger
	entries store.AuditStore
}

func NewAuditHandler(ledger *audit.Ledger, entries store.AuditStore, cfg cliparse.Config) *AuditHandler {
	return &AuditHandler{base: base{cfg: cfg}, ledger: ledger, entries: entries}
}

// ListAudit handles GET /audit/{id}, returning the trail for one poll,
// vote or account in write order.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleAdmin); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	entries, err := h.ledger.List(ctx, h.entries, r.PathValue("id"))
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	middleware.Success(w, http.StatusOK, "", entries)
}
