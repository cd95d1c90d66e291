// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/truevote/accounts"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/cliparse"
	"github.com/danielhkuo/truevote/filestore"
	"github.com/danielhkuo/truevote/handlers"
	"github.com/danielhkuo/truevote/metrics"
	"github.com/danielhkuo/truevote/middleware"
	"github.com/danielhkuo/truevote/notify"
	"github.com/danielhkuo/truevote/polls"
	"github.com/danielhkuo/truevote/projection"
	"github.com/danielhkuo/truevote/store"
	"github.com/danielhkuo/truevote/voting"
)

// Deps is everything the router wires into its handlers. Files, Registry,
// Clock and Logger are optional.
type Deps struct {
	DB       *sql.DB
	Config   cliparse.Config
	Files    *filestore.Store
	Registry *prometheus.Registry
	Clock    func() time.Time
	Logger   *slog.Logger
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	st := store.New(deps.DB, logger)
	ledger := audit.NewLedger(logger)
	mt := metrics.New(registry)
	reader := projection.New(st, clock)

	pollOpts := []polls.Option{
		polls.WithNotifier(notify.NewBroadcaster(st, logger)),
		polls.WithMetrics(mt),
		polls.WithLogger(logger),
		polls.WithClock(clock),
	}
	var files handlers.FileReader
	if deps.Files != nil {
		pollOpts = append(pollOpts, polls.WithFiles(deps.Files))
		files = deps.Files
	}

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(polls.NewManager(st, ledger, pollOpts...), reader, files, deps.Config)
	voteHandler := handlers.NewVoteHandler(voting.NewEngine(st, ledger,
		voting.WithMetrics(mt),
		voting.WithLogger(logger),
		voting.WithClock(clock),
	), deps.Config)
	statsHandler := handlers.NewStatsHandler(reader, deps.Config)
	accountHandler := handlers.NewAccountHandler(accounts.NewService(st, ledger, logger), deps.Config)
	auditHandler := handlers.NewAuditHandler(ledger, st, deps.Config)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.PingContext(r.Context()); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler(registry))

	// Polls
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("PUT /polls/{id}", middleware.WithLogging(pollHandler.UpdatePoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))
	mux.HandleFunc("GET /polls/{id}/file", middleware.WithLogging(pollHandler.GetPollFile))

	// Votes
	mux.HandleFunc("POST /votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("DELETE /votes/{id}", middleware.WithLogging(voteHandler.DeleteVote))

	// Stats
	mux.HandleFunc("GET /stats/admin", middleware.WithLogging(statsHandler.AdminStats))
	mux.HandleFunc("GET /stats/moderators/{id}", middleware.WithLogging(statsHandler.ModeratorStats))
	mux.HandleFunc("GET /stats/voters/{id}", middleware.WithLogging(statsHandler.VoterStats))

	// Accounts
	mux.HandleFunc("POST /whitelist", middleware.WithLogging(accountHandler.Whitelist))
	mux.HandleFunc("POST /voters", middleware.WithLogging(accountHandler.RegisterVoter))

	// Audit
	mux.HandleFunc("GET /audit/{id}", middleware.WithLogging(auditHandler.ListAudit))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("truevote API v1"))
	})

	return mux
}
