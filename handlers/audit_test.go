// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/testutil"
)

func TestListAudit(t *testing.T) {
	s := newTestServer(t)
	poll := testutil.CreateOpenPoll(t, s.st, s.mod.Email, "Yes", "No")

	body := map[string]string{"option_id": poll.Options[0].ID}
	rr := testutil.MakeRequest(t, s.handler, "POST", "/votes", body, s.as(t, s.voter))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	var vote models.VoteRecord
	testutil.DecodeEnvelope(t, rr, &vote)

	rr = testutil.MakeRequest(t, s.handler, "GET", "/audit/"+vote.ID, nil, s.as(t, s.mod))
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	rr = testutil.MakeRequest(t, s.handler, "GET", "/audit/"+vote.ID, nil, s.as(t, s.admin))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var entries []models.AuditEntry
	testutil.DecodeEnvelope(t, rr, &entries)
	if len(entries) != 1 || entries[0].Description != "Vote cast" || entries[0].CreatedBy != s.voter.Email {
		t.Errorf("Unexpected audit trail: %+v", entries)
	}

	rr = testutil.MakeRequest(t, s.handler, "GET", "/audit/unknown", nil, s.as(t, s.admin))
	testutil.AssertStatus(t, rr, http.StatusOK)
	entries = nil
	testutil.DecodeEnvelope(t, rr, &entries)
	if len(entries) != 0 {
		t.Errorf("Expected empty trail, got %+v", entries)
	}
}
