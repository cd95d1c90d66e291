// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/db"
	"github.com/danielhkuo/truevote/models"
)

const pollColumns = `id, title, description, created_by, start_date, end_date, is_deleted, file_id, created_at`

const optionColumns = `id, poll_id, text, text_key, tally, is_deleted`

func scanPoll(row rowScanner) (models.Poll, error) {
	var (
		p          models.Poll
		start, end time.Time
		fileID     sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedBy, &start, &end, &p.IsDeleted, &fileID, &p.CreatedAt)
	if err != nil {
		return models.Poll{}, err
	}
	p.StartDate = models.DateOf(start)
	p.EndDate = models.DateOf(end)
	if fileID.Valid {
		p.FileID = &fileID.String
	}
	return p, nil
}

func scanOption(row rowScanner) (models.PollOption, error) {
	var o models.PollOption
	err := row.Scan(&o.ID, &o.PollID, &o.Text, &o.TextKey, &o.Tally, &o.IsDeleted)
	return o, err
}

func (s *sqlQueries) InsertPoll(ctx context.Context, p models.Poll) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO poll (`+pollColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Title, p.Description, p.CreatedBy, p.StartDate.Time(), p.EndDate.Time(),
		p.IsDeleted, nullStringPtr(p.FileID), p.CreatedAt.UTC())
	if err != nil {
		return s.fail("insert_poll", err, "poll_id", p.ID)
	}
	return nil
}

func (s *sqlQueries) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	p, err := scanPoll(s.q.QueryRowContext(ctx,
		`SELECT `+pollColumns+` FROM poll WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, apperr.ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, s.fail("get_poll", err, "poll_id", id)
	}
	return p, nil
}

func (s *sqlQueries) UpdatePoll(ctx context.Context, p models.Poll) error {
	res, err := s.q.ExecContext(ctx, `
		UPDATE poll
		SET title = $1, description = $2, start_date = $3, end_date = $4, is_deleted = $5, file_id = $6
		WHERE id = $7
	`, p.Title, p.Description, p.StartDate.Time(), p.EndDate.Time(), p.IsDeleted, nullStringPtr(p.FileID), p.ID)
	if err != nil {
		return s.fail("update_poll", err, "poll_id", p.ID)
	}
	return s.exactlyOne("update_poll", res, apperr.ErrPollNotFound)
}

func (s *sqlQueries) ListPolls(ctx context.Context) ([]models.Poll, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+pollColumns+` FROM poll ORDER BY created_at, id`)
	if err != nil {
		return nil, s.fail("list_polls", err)
	}
	defer rows.Close()

	var polls []models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, s.fail("list_polls", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_polls", err)
	}
	return polls, nil
}

func (s *sqlQueries) InsertOption(ctx context.Context, o models.PollOption) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO poll_option (`+optionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.PollID, o.Text, o.TextKey, o.Tally, o.IsDeleted)
	if db.IsUniqueViolation(err) {
		return apperr.ErrDuplicateOption
	}
	if err != nil {
		return s.fail("insert_option", err, "poll_id", o.PollID)
	}
	return nil
}

func (s *sqlQueries) GetOption(ctx context.Context, id string) (models.PollOption, error) {
	o, err := scanOption(s.q.QueryRowContext(ctx,
		`SELECT `+optionColumns+` FROM poll_option WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PollOption{}, apperr.ErrOptionNotFound
	}
	if err != nil {
		return models.PollOption{}, s.fail("get_option", err, "option_id", id)
	}
	return o, nil
}

func (s *sqlQueries) ListOptions(ctx context.Context, pollID string) ([]models.PollOption, error) {
	return s.listOptions(ctx, "list_options",
		`SELECT `+optionColumns+` FROM poll_option WHERE poll_id = $1 AND is_deleted = $2 ORDER BY text_key, id`,
		pollID, false)
}

func (s *sqlQueries) ListAllOptions(ctx context.Context) ([]models.PollOption, error) {
	return s.listOptions(ctx, "list_all_options",
		`SELECT `+optionColumns+` FROM poll_option WHERE is_deleted = $1 ORDER BY poll_id, text_key, id`,
		false)
}

func (s *sqlQueries) listOptions(ctx context.Context, event, query string, args ...any) ([]models.PollOption, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(event, err)
	}
	defer rows.Close()

	var options []models.PollOption
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, s.fail(event, err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(event, err)
	}
	return options, nil
}

func (s *sqlQueries) SoftDeleteOptions(ctx context.Context, pollID string) (int64, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE poll_option SET is_deleted = $1 WHERE poll_id = $2 AND is_deleted = $3`,
		true, pollID, false)
	if err != nil {
		return 0, s.fail("soft_delete_options", err, "poll_id", pollID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail("soft_delete_options", err, "poll_id", pollID)
	}
	return n, nil
}

func (s *sqlQueries) IncrementTally(ctx context.Context, optionID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE poll_option SET tally = tally + 1 WHERE id = $1 AND is_deleted = $2`,
		optionID, false)
	if err != nil {
		return s.fail("increment_tally", err, "option_id", optionID)
	}
	return s.exactlyOne("increment_tally", res, apperr.ErrOptionNotFound)
}

func (s *sqlQueries) DecrementTally(ctx context.Context, optionID string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE poll_option SET tally = tally - 1 WHERE id = $1`, optionID)
	if err != nil {
		return s.fail("decrement_tally", err, "option_id", optionID)
	}
	return s.exactlyOne("decrement_tally", res, apperr.ErrOptionNotFound)
}
