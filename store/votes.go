// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/db"
	"github.com/danielhkuo/truevote/models"
)

func (s *sqlQueries) HasVoted(ctx context.Context, voterID, pollID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM eligibility_marker WHERE voter_id = $1 AND poll_id = $2`,
		voterID, pollID).Scan(&n)
	if err != nil {
		return false, s.fail("has_voted", err, "poll_id", pollID)
	}
	return n > 0, nil
}

func (s *sqlQueries) RecordVote(ctx context.Context, m models.EligibilityMarker) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO eligibility_marker (id, voter_id, poll_id, voted_at)
		VALUES ($1, $2, $3, $4)
	`, m.ID, m.VoterID, m.PollID, m.VotedAt.UTC())
	if db.IsUniqueViolation(err) {
		return apperr.ErrAlreadyVoted
	}
	if err != nil {
		return s.fail("record_vote", err, "poll_id", m.PollID)
	}
	return nil
}

func (s *sqlQueries) ListMarkers(ctx context.Context) ([]models.EligibilityMarker, error) {
	return s.listMarkers(ctx, "list_markers",
		`SELECT id, voter_id, poll_id, voted_at FROM eligibility_marker ORDER BY voted_at, id`)
}

func (s *sqlQueries) ListMarkersByVoter(ctx context.Context, voterID string) ([]models.EligibilityMarker, error) {
	return s.listMarkers(ctx, "list_markers_by_voter",
		`SELECT id, voter_id, poll_id, voted_at FROM eligibility_marker WHERE voter_id = $1 ORDER BY voted_at, id`,
		voterID)
}

func (s *sqlQueries) listMarkers(ctx context.Context, event, query string, args ...any) ([]models.EligibilityMarker, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(event, err)
	}
	defer rows.Close()

	var markers []models.EligibilityMarker
	for rows.Next() {
		var m models.EligibilityMarker
		if err := rows.Scan(&m.ID, &m.VoterID, &m.PollID, &m.VotedAt); err != nil {
			return nil, s.fail(event, err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(event, err)
	}
	return markers, nil
}

func (s *sqlQueries) AppendVote(ctx context.Context, v models.VoteRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO vote (id, option_id, poll_id, cast_at)
		VALUES ($1, $2, $3, $4)
	`, v.ID, v.OptionID, v.PollID, v.CastAt.UTC())
	if err != nil {
		return s.fail("append_vote", err, "option_id", v.OptionID)
	}
	return nil
}

func (s *sqlQueries) GetVote(ctx context.Context, id string) (models.VoteRecord, error) {
	var v models.VoteRecord
	err := s.q.QueryRowContext(ctx,
		`SELECT id, option_id, poll_id, cast_at FROM vote WHERE id = $1`, id).
		Scan(&v.ID, &v.OptionID, &v.PollID, &v.CastAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VoteRecord{}, apperr.ErrVoteNotFound
	}
	if err != nil {
		return models.VoteRecord{}, s.fail("get_vote", err, "vote_id", id)
	}
	return v, nil
}

func (s *sqlQueries) DeleteVote(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM vote WHERE id = $1`, id)
	if err != nil {
		return s.fail("delete_vote", err, "vote_id", id)
	}
	return s.exactlyOne("delete_vote", res, apperr.ErrVoteNotFound)
}

func (s *sqlQueries) CountVotes(ctx context.Context, optionID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE option_id = $1`, optionID).Scan(&n)
	if err != nil {
		return 0, s.fail("count_votes", err, "option_id", optionID)
	}
	return n, nil
}

func (s *sqlQueries) CountAllVotes(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote`).Scan(&n); err != nil {
		return 0, s.fail("count_all_votes", err)
	}
	return n, nil
}
