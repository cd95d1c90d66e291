// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package projection

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
	tu "github.com/danielhkuo/truevote/testutil"
)

func createPoll(t *testing.T, st *store.SQLStore, creator, title string, start, end models.Date) models.Poll {
	t.Helper()
	p := tu.CreateTestPoll(t, st, creator, start, end, "A", "B").Poll
	p.Title = title
	p.Description = "about " + title
	if err := st.UpdatePoll(context.Background(), p); err != nil {
		t.Fatalf("UpdatePoll() error = %v", err)
	}
	return p
}

func vote(t *testing.T, st *store.SQLStore, voterID, pollID string) {
	t.Helper()
	m := models.EligibilityMarker{ID: voterID + pollID, VoterID: voterID, PollID: pollID, VotedAt: tu.Now}
	if err := st.RecordVote(context.Background(), m); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
}

func titles(page models.Page[models.PollDetails]) []string {
	out := make([]string, len(page.Data))
	for i, d := range page.Data {
		out[i] = d.Poll.Title
	}
	return out
}

func TestGetPollByID(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	created := tu.CreateOpenPoll(t, st, "mod@example.com", "Apple", "Banana", "Cherry")
	got, err := p.GetPollByID(ctx, created.Poll.ID)
	if err != nil {
		t.Fatalf("GetPollByID() error = %v", err)
	}
	if len(got.Options) != 3 {
		t.Errorf("options = %+v", got.Options)
	}
	for _, o := range got.Options {
		if o.Tally != 0 {
			t.Errorf("option %s tally = %d", o.Text, o.Tally)
		}
	}

	// Reads are repeatable
	again, _ := p.GetPollByID(ctx, created.Poll.ID)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("second read differs:\n%+v\n%+v", got, again)
	}

	deleted := created.Poll
	deleted.IsDeleted = true
	st.UpdatePoll(ctx, deleted)
	if _, err := p.GetPollByID(ctx, created.Poll.ID); !errors.Is(err, apperr.ErrPollNotFound) {
		t.Errorf("deleted poll error = %v, want ErrPollNotFound", err)
	}
	if _, err := p.GetPollByID(ctx, "missing"); !errors.Is(err, apperr.ErrPollNotFound) {
		t.Errorf("missing poll error = %v, want ErrPollNotFound", err)
	}
}

func TestQueryPollsPaged(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	day := tu.Today
	createPoll(t, st, "alice@example.com", "Cats", day.AddDays(-2), day.AddDays(5))
	createPoll(t, st, "alice@example.com", "Dogs", day, day.AddDays(3))
	createPoll(t, st, "bob@example.com", "Birds", day.AddDays(-5), day.AddDays(9))
	gone := createPoll(t, st, "bob@example.com", "Fish", day.AddDays(1), day.AddDays(2))
	gone.IsDeleted = true
	st.UpdatePoll(ctx, gone)

	from, to := day.AddDays(-3), day
	tests := []struct {
		name  string
		query models.PollQuery
		want  []string
	}{
		{"default newest start first", models.PollQuery{}, []string{"Dogs", "Cats", "Birds"}},
		{"title ascending", models.PollQuery{SortBy: "title"}, []string{"Birds", "Cats", "Dogs"}},
		{"title descending", models.PollQuery{SortBy: "Title", SortDesc: true}, []string{"Dogs", "Cats", "Birds"}},
		{"end date", models.PollQuery{SortBy: "enddate"}, []string{"Dogs", "Cats", "Birds"}},
		{"unknown sort falls back", models.PollQuery{SortBy: "votes"}, []string{"Dogs", "Cats", "Birds"}},
		{"creator", models.PollQuery{CreatedBy: "ALICE@example.com", SortBy: "title"}, []string{"Cats", "Dogs"}},
		{"search title", models.PollQuery{SearchTerm: "do"}, []string{"Dogs"}},
		{"search description", models.PollQuery{SearchTerm: "ABOUT b"}, []string{"Birds"}},
		{"start range", models.PollQuery{StartDateFrom: &from, StartDateTo: &to}, []string{"Dogs", "Cats"}},
		{"deleted never match", models.PollQuery{SearchTerm: "fish"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := p.QueryPollsPaged(ctx, tt.query)
			if err != nil {
				t.Fatalf("QueryPollsPaged() error = %v", err)
			}
			if got := titles(page); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
			if page.Pagination.TotalRecords != len(tt.want) {
				t.Errorf("total = %d, want %d", page.Pagination.TotalRecords, len(tt.want))
			}
		})
	}
}

func TestQueryPollsPaged_Pagination(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	for i := 0; i < 7; i++ {
		createPoll(t, st, "mod@example.com", string(rune('A'+i)), tu.Today, tu.Today.AddDays(2))
	}

	tests := []struct {
		name      string
		page      int
		size      int
		wantLen   int
		wantPage  int
		wantSize  int
		wantPages int
	}{
		{"defaults", 0, 0, 7, 1, models.DefaultPageSize, 1},
		{"first page", 1, 3, 3, 1, 3, 3},
		{"last partial page", 3, 3, 1, 3, 3, 3},
		{"past the end", 5, 3, 0, 5, 3, 3},
		{"size capped", 1, 1000, 7, 1, models.MaxPageSize, 1},
		{"huge page", math.MaxInt, 10, 0, math.MaxInt, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := p.QueryPollsPaged(ctx, models.PollQuery{SortBy: "title", Page: tt.page, PageSize: tt.size})
			if err != nil {
				t.Fatalf("QueryPollsPaged() error = %v", err)
			}
			pg := page.Pagination
			if len(page.Data) != tt.wantLen || pg.Page != tt.wantPage || pg.PageSize != tt.wantSize || pg.TotalPages != tt.wantPages {
				t.Errorf("got %d items, pagination %+v", len(page.Data), pg)
			}
			if pg.TotalRecords != 7 {
				t.Errorf("total = %d, want 7", pg.TotalRecords)
			}
		})
	}

	page, _ := p.QueryPollsPaged(ctx, models.PollQuery{SortBy: "title", Page: 2, PageSize: 3})
	if got := titles(page); !reflect.DeepEqual(got, []string{"D", "E", "F"}) {
		t.Errorf("page 2 = %v", got)
	}
}

func TestQueryPollsPaged_Voter(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	mod := tu.CreateTestModerator(t, st, "mod@example.com")
	voter := tu.CreateTestVoter(t, st, mod, "voter@example.com")
	voted := createPoll(t, st, mod.Email, "Voted", tu.Today, tu.Today.AddDays(2))
	createPoll(t, st, mod.Email, "Pending", tu.Today, tu.Today.AddDays(2))
	vote(t, st, voter.ID, voted.ID)

	page, err := p.QueryPollsPaged(ctx, models.PollQuery{VoterID: voter.ID, ForVoting: true})
	if err != nil {
		t.Fatalf("QueryPollsPaged() error = %v", err)
	}
	if got := titles(page); !reflect.DeepEqual(got, []string{"Pending"}) {
		t.Errorf("for voting = %v, want [Pending]", got)
	}

	page, _ = p.QueryPollsPaged(ctx, models.PollQuery{VoterID: voter.ID})
	if got := titles(page); !reflect.DeepEqual(got, []string{"Voted"}) {
		t.Errorf("voted in = %v, want [Voted]", got)
	}
}

func TestModeratorStats(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	mod := tu.CreateTestModerator(t, st, "mod@example.com")
	other := tu.CreateTestModerator(t, st, "other@example.com")
	v1 := tu.CreateTestVoter(t, st, mod, "v1@example.com")
	v2 := tu.CreateTestVoter(t, st, mod, "v2@example.com")
	st.InsertVoterEmail(ctx, models.VoterEmail{Email: "v3@example.com", ModeratorID: mod.ID, CreatedAt: tu.Now})
	tu.CreateTestVoter(t, st, other, "v4@example.com")

	mine := createPoll(t, st, "MOD@example.com", "Mine", tu.Today, tu.Today.AddDays(2))
	theirs := createPoll(t, st, other.Email, "Theirs", tu.Today, tu.Today.AddDays(2))
	vote(t, st, v1.ID, mine.ID)
	vote(t, st, v2.ID, mine.ID)
	vote(t, st, v1.ID, theirs.ID)

	got, err := p.ModeratorStats(ctx, mod.ID)
	if err != nil {
		t.Fatalf("ModeratorStats() error = %v", err)
	}
	want := models.ModeratorStats{
		TotalPollsCreated:      1,
		TotalVoterEmailsIssued: 3,
		TotalVoterEmailsUsed:   2,
		TotalVotesReceived:     2,
	}
	if got != want {
		t.Errorf("ModeratorStats() = %+v, want %+v", got, want)
	}

	if _, err := p.ModeratorStats(ctx, v1.ID); !errors.Is(err, apperr.ErrModeratorNotFound) {
		t.Errorf("voter id error = %v, want ErrModeratorNotFound", err)
	}
	if _, err := p.ModeratorStats(ctx, "missing"); !errors.Is(err, apperr.ErrModeratorNotFound) {
		t.Errorf("missing id error = %v, want ErrModeratorNotFound", err)
	}
}

func TestAdminStats(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	tu.CreateTestAdmin(t, st, "admin@example.com")
	mod := tu.CreateTestModerator(t, st, "mod@example.com")
	tu.CreateTestVoter(t, st, mod, "v1@example.com")
	tu.CreateTestVoter(t, st, mod, "v2@example.com")
	poll := tu.CreateOpenPoll(t, st, mod.Email, "A", "B")
	gone := tu.CreateOpenPoll(t, st, mod.Email, "C", "D").Poll
	gone.IsDeleted = true
	st.UpdatePoll(ctx, gone)
	st.AppendVote(ctx, models.VoteRecord{ID: "vote-1", OptionID: poll.Options[0].ID, PollID: poll.Poll.ID, CastAt: tu.Now})

	got, err := p.AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats() error = %v", err)
	}
	want := models.AdminStats{TotalPollsCreated: 1, TotalVotes: 1, TotalModerators: 1, TotalVoters: 2}
	if got != want {
		t.Errorf("AdminStats() = %+v, want %+v", got, want)
	}
}

func TestVoterStats(t *testing.T) {
	st := tu.SetupTestStore(t)
	ctx := context.Background()
	p := New(st, tu.Clock)

	mod := tu.CreateTestModerator(t, st, "mod@example.com")
	voter := tu.CreateTestVoter(t, st, mod, "voter@example.com")
	open := createPoll(t, st, mod.Email, "Open", tu.Today, tu.Today.AddDays(2))
	createPoll(t, st, mod.Email, "Also open", tu.Today.AddDays(-1), tu.Today.AddDays(1))
	closed := createPoll(t, st, mod.Email, "Closed", tu.Today.AddDays(-4), tu.Today)
	vote(t, st, voter.ID, open.ID)
	vote(t, st, voter.ID, closed.ID)

	got, err := p.VoterStats(ctx, voter.ID)
	if err != nil {
		t.Fatalf("VoterStats() error = %v", err)
	}
	if want := (models.VoterStats{TotalOngoingPolls: 2, TotalPollsVoted: 2}); got != want {
		t.Errorf("VoterStats() = %+v, want %+v", got, want)
	}

	if _, err := p.VoterStats(ctx, mod.ID); !errors.Is(err, apperr.ErrVoterNotFound) {
		t.Errorf("moderator id error = %v, want ErrVoterNotFound", err)
	}
}
