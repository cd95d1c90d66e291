// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package projection

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

// Projection answers read-only queries over polls, votes and accounts.
// It loads whole collections and aggregates in memory.
type Projection struct {
	store store.Queries
	now   func() time.Time
}

func New(st store.Queries, now func() time.Time) *Projection {
	if now == nil {
		now = time.Now
	}
	return &Projection{store: st, now: now}
}

// GetPollByID returns a live poll with its live options.
func (p *Projection) GetPollByID(ctx context.Context, id string) (models.PollDetails, error) {
	poll, err := p.store.GetPoll(ctx, id)
	if err != nil {
		return models.PollDetails{}, err
	}
	if poll.IsDeleted {
		return models.PollDetails{}, apperr.ErrPollNotFound
	}
	options, err := p.store.ListOptions(ctx, id)
	if err != nil {
		return models.PollDetails{}, err
	}
	return models.PollDetails{Poll: poll, Options: options}, nil
}

// QueryPollsPaged filters, sorts and pages the live polls.
func (p *Projection) QueryPollsPaged(ctx context.Context, q models.PollQuery) (models.Page[models.PollDetails], error) {
	var (
		polls   []models.Poll
		options []models.PollOption
		markers []models.EligibilityMarker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		polls, err = p.store.ListPolls(gctx)
		return err
	})
	g.Go(func() (err error) {
		options, err = p.store.ListAllOptions(gctx)
		return err
	})
	if q.VoterID != "" {
		g.Go(func() (err error) {
			markers, err = p.store.ListMarkersByVoter(gctx, q.VoterID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.Page[models.PollDetails]{}, err
	}

	voted := make(map[string]bool, len(markers))
	for _, m := range markers {
		voted[m.PollID] = true
	}

	matched := make([]models.Poll, 0, len(polls))
	for _, poll := range polls {
		if poll.IsDeleted || !matches(poll, q) {
			continue
		}
		if q.VoterID != "" && voted[poll.ID] == q.ForVoting {
			continue
		}
		matched = append(matched, poll)
	}

	slices.SortFunc(matched, comparator(q.SortBy, q.SortDesc))

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = models.DefaultPageSize
	}
	size = min(size, models.MaxPageSize)

	total := len(matched)
	skip := total
	if page-1 < (total+size-1)/size {
		skip = (page - 1) * size
	}
	window := matched[skip:min(skip+size, total)]

	byPoll := make(map[string][]models.PollOption)
	for _, o := range options {
		byPoll[o.PollID] = append(byPoll[o.PollID], o)
	}
	data := make([]models.PollDetails, len(window))
	for i, poll := range window {
		data[i] = models.PollDetails{Poll: poll, Options: byPoll[poll.ID]}
	}

	return models.Page[models.PollDetails]{
		Data: data,
		Pagination: models.Pagination{
			TotalRecords: total,
			Page:         page,
			PageSize:     size,
			TotalPages:   (total + size - 1) / size,
		},
	}, nil
}

func matches(poll models.Poll, q models.PollQuery) bool {
	if q.CreatedBy != "" && !strings.EqualFold(poll.CreatedBy, strings.TrimSpace(q.CreatedBy)) {
		return false
	}
	if q.StartDateFrom != nil && poll.StartDate.Before(*q.StartDateFrom) {
		return false
	}
	if q.StartDateTo != nil && poll.StartDate.After(*q.StartDateTo) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(q.SearchTerm)); term != "" {
		return strings.Contains(strings.ToLower(poll.Title), term) ||
			strings.Contains(strings.ToLower(poll.Description), term)
	}
	return true
}

// comparator orders polls by the requested key, ties broken by id. An
// empty or unknown key sorts by start date, newest first.
func comparator(sortBy string, desc bool) func(a, b models.Poll) int {
	var key func(a, b models.Poll) int
	switch strings.ToLower(sortBy) {
	case models.SortByTitle:
		key = func(a, b models.Poll) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case models.SortByEndDate:
		key = func(a, b models.Poll) int { return a.EndDate.Compare(b.EndDate) }
	case models.SortByStartDate:
		key = func(a, b models.Poll) int { return a.StartDate.Compare(b.StartDate) }
	default:
		key = func(a, b models.Poll) int { return a.StartDate.Compare(b.StartDate) }
		desc = true
	}
	return func(a, b models.Poll) int {
		c := key(a, b)
		if desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	}
}

// ModeratorStats summarizes the polls and whitelist entries of one
// moderator. Votes received counts voters across the moderator's live polls.
func (p *Projection) ModeratorStats(ctx context.Context, moderatorID string) (models.ModeratorStats, error) {
	account, err := p.store.GetAccount(ctx, moderatorID)
	if errors.Is(err, apperr.ErrAccountNotFound) {
		return models.ModeratorStats{}, apperr.ErrModeratorNotFound
	}
	if err != nil {
		return models.ModeratorStats{}, err
	}
	mod, ok := account.(models.Moderator)
	if !ok || !mod.IsActive() {
		return models.ModeratorStats{}, apperr.ErrModeratorNotFound
	}

	var (
		polls   []models.Poll
		emails  []models.VoterEmail
		markers []models.EligibilityMarker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		polls, err = p.store.ListPolls(gctx)
		return err
	})
	g.Go(func() (err error) {
		emails, err = p.store.ListVoterEmails(gctx)
		return err
	})
	g.Go(func() (err error) {
		markers, err = p.store.ListMarkers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.ModeratorStats{}, err
	}

	var stats models.ModeratorStats
	owned := make(map[string]bool)
	for _, poll := range polls {
		if !poll.IsDeleted && strings.EqualFold(poll.CreatedBy, mod.Email) {
			owned[poll.ID] = true
			stats.TotalPollsCreated++
		}
	}
	for _, e := range emails {
		if e.ModeratorID != mod.ID {
			continue
		}
		stats.TotalVoterEmailsIssued++
		if e.IsUsed {
			stats.TotalVoterEmailsUsed++
		}
	}
	for _, m := range markers {
		if owned[m.PollID] {
			stats.TotalVotesReceived++
		}
	}
	return stats, nil
}

// AdminStats counts live polls, stored votes and active staff and voters.
func (p *Projection) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var (
		polls    []models.Poll
		accounts []models.Account
		votes    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		polls, err = p.store.ListPolls(gctx)
		return err
	})
	g.Go(func() (err error) {
		accounts, err = p.store.ListAccounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		votes, err = p.store.CountAllVotes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.AdminStats{}, err
	}

	stats := models.AdminStats{TotalVotes: votes}
	for _, poll := range polls {
		if !poll.IsDeleted {
			stats.TotalPollsCreated++
		}
	}
	for _, a := range accounts {
		if !a.IsActive() {
			continue
		}
		switch a.AccountRole() {
		case models.RoleModerator:
			stats.TotalModerators++
		case models.RoleVoter:
			stats.TotalVoters++
		}
	}
	return stats, nil
}

// VoterStats counts the polls open today and the polls the voter has
// voted in.
func (p *Projection) VoterStats(ctx context.Context, voterID string) (models.VoterStats, error) {
	account, err := p.store.GetAccount(ctx, voterID)
	if errors.Is(err, apperr.ErrAccountNotFound) {
		return models.VoterStats{}, apperr.ErrVoterNotFound
	}
	if err != nil {
		return models.VoterStats{}, err
	}
	if v, ok := account.(models.Voter); !ok || !v.IsActive() {
		return models.VoterStats{}, apperr.ErrVoterNotFound
	}

	var (
		polls   []models.Poll
		markers []models.EligibilityMarker
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		polls, err = p.store.ListPolls(gctx)
		return err
	})
	g.Go(func() (err error) {
		markers, err = p.store.ListMarkersByVoter(gctx, voterID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.VoterStats{}, err
	}

	today := models.DateOf(p.now())
	stats := models.VoterStats{TotalPollsVoted: len(markers)}
	for _, poll := range polls {
		if poll.OpenOn(today) {
			stats.TotalOngoingPolls++
		}
	}
	return stats, nil
}
