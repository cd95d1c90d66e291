// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/polls"
	"github.com/danielhkuo/truevote/projection"
)

// FileReader fetches poll attachments.
type FileReader interface {
	Get(ctx context.Context, id string) (models.FileInfo, []byte, error)
}

type PollHandler struct {
	base
	manager *polls.Manager
	reader  *projection.Projection
	files   FileReader
}

func NewPollHandler(manager *polls.Manager, reader *projection.Projection, files FileReader, cfg cliparse.Config) *PollHandler {
	return &PollHandler{base: base{cfg: cfg}, manager: manager, reader: reader, files: files}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireRole(r, models.RoleModerator, models.RoleAdmin)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	var draft models.PollDraft
	if err := middleware.ParseJSONBody(w, r, &draft); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	details, err := h.manager.Create(ctx, draft, actor)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusCreated, "poll created", details)
}

// UpdatePoll handles PUT /polls/{id}
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	var patch models.PollPatch
	if err := middleware.ParseJSONBody(w, r, &patch); err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	details, err := h.manager.Update(ctx, r.PathValue("id"), patch, actor)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "poll updated", details)
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	deleted, err := h.manager.Delete(ctx, r.PathValue("id"), actor)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "poll deleted", deleted)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	details, err := h.reader.GetPollByID(ctx, r.PathValue("id"))
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "", details)
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	query, err := parsePollQuery(r.URL.Query())
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	ctx, cancel := h.context(r)
	defer cancel()

	page, err := h.reader.QueryPollsPaged(ctx, query)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	middleware.Success(w, http.StatusOK, "", page)
}

// GetPollFile handles GET /polls/{id}/file
func (h *PollHandler) GetPollFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	details, err := h.reader.GetPollByID(ctx, r.PathValue("id"))
	if err != nil {
		middleware.Error(w, r, err)
		return
	}
	if details.Poll.FileID == nil || h.files == nil {
		middleware.Error(w, r, apperr.ErrFileNotFound)
		return
	}

	info, content, err := h.files.Get(ctx, *details.Poll.FileID)
	if err != nil {
		middleware.Error(w, r, err)
		return
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Filename}))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// parsePollQuery reads the listing parameters from the query string.
func parsePollQuery(values url.Values) (models.PollQuery, error) {
	var v apperr.Validation
	q := models.PollQuery{
		SearchTerm: values.Get("search"),
		SortBy:     values.Get("sortBy"),
		CreatedBy:  values.Get("createdBy"),
		VoterID:    values.Get("voterId"),
	}

	parseBool := func(name string, dst *bool) {
		if s := values.Get(name); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				v.Add(name, "must be true or false")
				return
			}
			*dst = b
		}
	}
	parseInt := func(name string, dst *int) {
		if s := values.Get(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				v.Add(name, "must be a number")
				return
			}
			*dst = n
		}
	}
	parseDate := func(name string) *models.Date {
		s := values.Get(name)
		if s == "" {
			return nil
		}
		d, err := models.ParseDate(s)
		if err != nil {
			v.Add(name, "must be a date like %s", models.DateLayout)
			return nil
		}
		return &d
	}

	parseBool("sortDesc", &q.SortDesc)
	parseBool("forVoting", &q.ForVoting)
	parseInt("page", &q.Page)
	parseInt("pageSize", &q.PageSize)
	q.StartDateFrom = parseDate("startFrom")
	q.StartDateTo = parseDate("startTo")

	if err := v.Err(); err != nil {
		return models.PollQuery{}, fmt.Errorf("parse poll query: %w", err)
	}
	return q, nil
}
