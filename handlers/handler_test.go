// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/truevote/accounts"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/filestore"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/polls"
	"github.com/danielhkuo/truevote/projection"
	"github.com/danielhkuo/truevote/store"
	"github.com/danielhkuo/truevote/testutil"
	"github.com/danielhkuo/truevote/voting"
)

// testServer wires every handler over a fresh database
type testServer struct {
	st      *store.SQLStore
	files   *filestore.Store
	cfg     cliparse.Config
	handler http.Handler

	admin models.Admin
	mod   models.Moderator
	voter models.Voter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := testutil.SetupTestStore(t)
	files, err := filestore.Open()
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	t.Cleanup(func() { files.Close() })

	cfg := testutil.GetTestConfig()
	ledger := audit.NewLedger(nil)
	reader := projection.New(st, testutil.Clock)

	pollHandler := NewPollHandler(
		polls.NewManager(st, ledger, polls.WithFiles(files), polls.WithClock(testutil.Clock)),
		reader, files, cfg)
	voteHandler := NewVoteHandler(voting.NewEngine(st, ledger, voting.WithClock(testutil.Clock)), cfg)
	statsHandler := NewStatsHandler(reader, cfg)
	accountHandler := NewAccountHandler(accounts.NewService(st, ledger, nil), cfg)
	auditHandler := NewAuditHandler(ledger, st, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("PUT /polls/{id}", middleware.WithLogging(pollHandler.UpdatePoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))
	mux.HandleFunc("GET /polls/{id}/file", middleware.WithLogging(pollHandler.GetPollFile))
	mux.HandleFunc("POST /votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("DELETE /votes/{id}", middleware.WithLogging(voteHandler.DeleteVote))
	mux.HandleFunc("GET /stats/admin", middleware.WithLogging(statsHandler.AdminStats))
	mux.HandleFunc("GET /stats/moderators/{id}", middleware.WithLogging(statsHandler.ModeratorStats))
	mux.HandleFunc("GET /stats/voters/{id}", middleware.WithLogging(statsHandler.VoterStats))
	mux.HandleFunc("POST /whitelist", middleware.WithLogging(accountHandler.Whitelist))
	mux.HandleFunc("POST /voters", middleware.WithLogging(accountHandler.RegisterVoter))
	mux.HandleFunc("GET /audit/{id}", middleware.WithLogging(auditHandler.ListAudit))

	s := &testServer{st: st, files: files, cfg: cfg, handler: mux}
	s.admin = testutil.CreateTestAdmin(t, st, "admin@example.com")
	s.mod = testutil.CreateTestModerator(t, st, "mod@example.com")
	s.voter = testutil.CreateTestVoter(t, st, s.mod, "voter@example.com")
	return s
}

func (s *testServer) as(t *testing.T, a models.Account) map[string]string {
	t.Helper()
	return testutil.Bearer(testutil.TokenFor(t, s.cfg, a))
}
