// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/metrics"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
	tu "github.com/danielhkuo/truevote/testutil"
)

type fixture struct {
	st     *store.SQLStore
	engine *Engine
	mod    models.Moderator
	voter  models.Voter
	poll   models.PollDetails
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	st := tu.SetupTestStore(t)
	mod := tu.CreateTestModerator(t, st, "mod@example.com")
	voter := tu.CreateTestVoter(t, st, mod, "voter@example.com")
	poll := tu.CreateOpenPoll(t, st, mod.Email, "Yes", "No")

	opts = append([]Option{WithClock(tu.Clock)}, opts...)
	return fixture{
		st:     st,
		engine: NewEngine(st, audit.NewLedger(nil), opts...),
		mod:    mod,
		voter:  voter,
		poll:   poll,
	}
}

func TestCastVote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	option := f.poll.Options[0]

	vote, err := f.engine.CastVote(ctx, option.ID, models.ActorFor(f.voter))
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if vote.OptionID != option.ID || vote.PollID != f.poll.Poll.ID {
		t.Errorf("vote = %+v", vote)
	}

	got, _ := f.st.GetOption(ctx, option.ID)
	if got.Tally != 1 {
		t.Errorf("tally = %d, want 1", got.Tally)
	}
	voted, _ := NewRegistry(f.st).HasVoted(ctx, f.voter.ID, f.poll.Poll.ID)
	if !voted {
		t.Error("expected eligibility marker")
	}
	if entries, _ := f.st.ListAudit(ctx, vote.ID); len(entries) != 1 || entries[0].Description != "Vote cast" {
		t.Errorf("audit = %+v", entries)
	}

	// Second vote in the same poll, even for another option
	_, err = f.engine.CastVote(ctx, f.poll.Options[1].ID, models.ActorFor(f.voter))
	if !errors.Is(err, apperr.ErrAlreadyVoted) {
		t.Errorf("second CastVote() error = %v, want ErrAlreadyVoted", err)
	}
	other, _ := f.st.GetOption(ctx, f.poll.Options[1].ID)
	if other.Tally != 0 {
		t.Errorf("rejected vote changed tally to %d", other.Tally)
	}
}

func TestCastVote_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	closed := tu.CreateTestPoll(t, f.st, f.mod.Email, tu.Today.AddDays(-7), tu.Today, "A", "B")
	future := tu.CreateTestPoll(t, f.st, f.mod.Email, tu.Today.AddDays(1), tu.Today.AddDays(5), "A", "B")
	retired := tu.CreateOpenPoll(t, f.st, f.mod.Email, "Old", "Gone")
	if _, err := f.st.SoftDeleteOptions(ctx, retired.Poll.ID); err != nil {
		t.Fatalf("SoftDeleteOptions() error = %v", err)
	}
	deleted := tu.CreateOpenPoll(t, f.st, f.mod.Email, "X", "Y")
	deleted.Poll.IsDeleted = true
	if err := f.st.UpdatePoll(ctx, deleted.Poll); err != nil {
		t.Fatalf("UpdatePoll() error = %v", err)
	}

	tests := []struct {
		name     string
		optionID string
		actor    models.Actor
		want     error
	}{
		{"anonymous", f.poll.Options[0].ID, models.Actor{}, apperr.ErrNotRegisteredVoter},
		{"moderator", f.poll.Options[0].ID, models.ActorFor(f.mod), apperr.ErrNotRegisteredVoter},
		{"unknown account", f.poll.Options[0].ID, models.Actor{Email: "ghost@example.com", Role: models.RoleVoter}, apperr.ErrNotRegisteredVoter},
		{"unknown option", "missing", models.ActorFor(f.voter), apperr.ErrOptionNotFound},
		{"retired option", retired.Options[0].ID, models.ActorFor(f.voter), apperr.ErrOptionNotFound},
		{"deleted poll", deleted.Options[0].ID, models.ActorFor(f.voter), apperr.ErrOptionNotFound},
		{"poll ended", closed.Options[0].ID, models.ActorFor(f.voter), apperr.ErrPollNotOpen},
		{"poll not started", future.Options[0].ID, models.ActorFor(f.voter), apperr.ErrPollNotOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CastVote(ctx, tt.optionID, tt.actor)
			if !errors.Is(err, tt.want) {
				t.Errorf("CastVote() error = %v, want %v", err, tt.want)
			}
		})
	}

	if n, _ := f.st.CountAllVotes(ctx); n != 0 {
		t.Errorf("rejected casts stored %d votes", n)
	}
	if markers, _ := f.st.ListMarkers(ctx); len(markers) != 0 {
		t.Errorf("rejected casts stored %d markers", len(markers))
	}
}

func TestCastVote_Concurrent(t *testing.T) {
	f := setup(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const n = 20
	ctx := context.Background()
	actor := models.ActorFor(f.voter)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		conflict int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			option := f.poll.Options[i%len(f.poll.Options)]
			_, err := f.engine.CastVote(ctx, option.ID, actor)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, apperr.ErrAlreadyVoted):
				conflict++
			default:
				t.Errorf("CastVote() unexpected error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if success != 1 || conflict != n-1 {
		t.Errorf("success = %d, conflict = %d; want 1 and %d", success, conflict, n-1)
	}
	markers, _ := f.st.ListMarkersByVoter(ctx, f.voter.ID)
	if len(markers) != 1 {
		t.Errorf("markers = %d, want 1", len(markers))
	}
}

func TestCastVote_TallyMatchesLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const voters = 12
	actors := make([]models.Actor, voters)
	for i := range actors {
		v := tu.CreateTestVoter(t, f.st, f.mod, fmt.Sprintf("v%d@example.com", i))
		actors[i] = models.ActorFor(v)
	}

	var wg sync.WaitGroup
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor models.Actor) {
			defer wg.Done()
			option := f.poll.Options[i%2]
			if _, err := f.engine.CastVote(ctx, option.ID, actor); err != nil {
				t.Errorf("CastVote() error = %v", err)
			}
		}(i, actor)
	}
	wg.Wait()

	total := 0
	for _, o := range f.poll.Options {
		got, _ := f.st.GetOption(ctx, o.ID)
		count, err := f.st.CountVotes(ctx, o.ID)
		if err != nil {
			t.Fatalf("CountVotes() error = %v", err)
		}
		if got.Tally != count {
			t.Errorf("option %s tally = %d, ledger = %d", o.Text, got.Tally, count)
		}
		total += got.Tally
	}
	if total != voters {
		t.Errorf("total tally = %d, want %d", total, voters)
	}
}

func TestCastVote_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := setup(t, WithMetrics(metrics.New(reg)))
	ctx := context.Background()
	actor := models.ActorFor(f.voter)

	if _, err := f.engine.CastVote(ctx, f.poll.Options[0].ID, actor); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	if _, err := f.engine.CastVote(ctx, f.poll.Options[0].ID, actor); err == nil {
		t.Fatal("second CastVote() succeeded")
	}

	expected := `
# HELP truevote_votes_cast_total votes accepted
# TYPE truevote_votes_cast_total counter
truevote_votes_cast_total 1
# HELP truevote_votes_rejected_total votes rejected, by error kind
# TYPE truevote_votes_rejected_total counter
truevote_votes_rejected_total{reason="already_voted"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"truevote_votes_cast_total", "truevote_votes_rejected_total")
	if err != nil {
		t.Error(err)
	}
}

func TestDeleteVote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	option := f.poll.Options[0]

	vote, err := f.engine.CastVote(ctx, option.ID, models.ActorFor(f.voter))
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	admin := models.Actor{Email: "admin@example.com", Role: models.RoleAdmin}
	deleted, err := f.engine.DeleteVote(ctx, vote.ID, admin)
	if err != nil {
		t.Fatalf("DeleteVote() error = %v", err)
	}
	if deleted.ID != vote.ID {
		t.Errorf("deleted = %+v", deleted)
	}

	got, _ := f.st.GetOption(ctx, option.ID)
	if got.Tally != 0 {
		t.Errorf("tally = %d, want 0", got.Tally)
	}
	if _, err := f.st.GetVote(ctx, vote.ID); !errors.Is(err, apperr.ErrVoteNotFound) {
		t.Errorf("GetVote() error = %v, want ErrVoteNotFound", err)
	}

	// The marker survives, so the voter cannot vote again
	_, err = f.engine.CastVote(ctx, option.ID, models.ActorFor(f.voter))
	if !errors.Is(err, apperr.ErrAlreadyVoted) {
		t.Errorf("CastVote() after delete error = %v, want ErrAlreadyVoted", err)
	}

	if _, err := f.engine.DeleteVote(ctx, vote.ID, admin); !errors.Is(err, apperr.ErrVoteNotFound) {
		t.Errorf("second DeleteVote() error = %v, want ErrVoteNotFound", err)
	}
	if _, err := f.engine.DeleteVote(ctx, "x", models.Actor{}); !errors.Is(err, apperr.ErrNotLoggedIn) {
		t.Errorf("anonymous DeleteVote() error = %v, want ErrNotLoggedIn", err)
	}
}

// missingOptionStore hides one option from queries run inside a
// transaction, the state left when a vote outlives its option row.
type missingOptionStore struct {
	store.Store
	optionID string
}

func (s missingOptionStore) InTx(ctx context.Context, fn func(q store.Queries) error) error {
	return s.Store.InTx(ctx, func(q store.Queries) error {
		return fn(missingOptionQueries{Queries: q, optionID: s.optionID})
	})
}

type missingOptionQueries struct {
	store.Queries
	optionID string
}

func (q missingOptionQueries) GetOption(ctx context.Context, id string) (models.PollOption, error) {
	if id == q.optionID {
		return models.PollOption{}, apperr.ErrOptionNotFound
	}
	return q.Queries.GetOption(ctx, id)
}

func TestDeleteVote_OptionMissing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	option := f.poll.Options[0]

	vote, err := f.engine.CastVote(ctx, option.ID, models.ActorFor(f.voter))
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	engine := NewEngine(missingOptionStore{Store: f.st, optionID: option.ID}, audit.NewLedger(nil), WithClock(tu.Clock))
	admin := models.Actor{Email: "admin@example.com", Role: models.RoleAdmin}

	_, err = engine.DeleteVote(ctx, vote.ID, admin)
	if !errors.Is(err, apperr.ErrOptionNotFound) {
		t.Fatalf("DeleteVote() error = %v, want ErrOptionNotFound", err)
	}
	if errors.Is(err, apperr.ErrVoteNotFound) {
		t.Error("option and vote errors must stay distinct")
	}

	// The rejected delete leaves the vote and tally in place
	if _, err := f.st.GetVote(ctx, vote.ID); err != nil {
		t.Errorf("GetVote() error = %v", err)
	}
	got, _ := f.st.GetOption(ctx, option.ID)
	if got.Tally != 1 {
		t.Errorf("tally = %d, want 1", got.Tally)
	}
}
