// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/db"
	"github.com/danielhkuo/truevote/models"
)

const accountColumns = `id, email, name, role, age, moderator_id, is_deleted, created_at`

// scanAccount is the only place a role string becomes an account variant.
func scanAccount(row rowScanner) (models.Account, error) {
	var (
		p           models.Profile
		role        models.Role
		age         int
		moderatorID sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &role, &age, &moderatorID, &p.IsDeleted, &p.CreatedAt); err != nil {
		return nil, err
	}
	switch role {
	case models.RoleAdmin:
		return models.Admin{Profile: p}, nil
	case models.RoleModerator:
		return models.Moderator{Profile: p}, nil
	case models.RoleVoter:
		return models.Voter{Profile: p, Age: age, ModeratorID: moderatorID.String}, nil
	default:
		return nil, fmt.Errorf("account %s has unknown role %q", p.ID, role)
	}
}

func (s *sqlQueries) InsertAccount(ctx context.Context, a models.Account) error {
	var (
		p           models.Profile
		age         int
		moderatorID string
	)
	switch acct := a.(type) {
	case models.Admin:
		p = acct.Profile
	case models.Moderator:
		p = acct.Profile
	case models.Voter:
		p, age, moderatorID = acct.Profile, acct.Age, acct.ModeratorID
	default:
		return fmt.Errorf("insert_account: unsupported account type %T", a)
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO account (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, models.NormalizeEmail(p.Email), p.Name, string(a.AccountRole()), age, nullString(moderatorID), p.IsDeleted, p.CreatedAt.UTC())
	if db.IsUniqueViolation(err) {
		return apperr.ErrAccountExists
	}
	if err != nil {
		return s.fail("insert_account", err, "account_id", p.ID)
	}
	return nil
}

func (s *sqlQueries) GetAccount(ctx context.Context, id string) (models.Account, error) {
	a, err := scanAccount(s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAccountNotFound
	}
	if err != nil {
		return nil, s.fail("get_account", err, "account_id", id)
	}
	return a, nil
}

func (s *sqlQueries) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	a, err := scanAccount(s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE email = $1`, models.NormalizeEmail(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAccountNotFound
	}
	if err != nil {
		return nil, s.fail("get_account_by_email", err)
	}
	return a, nil
}

func (s *sqlQueries) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM account ORDER BY created_at, id`)
	if err != nil {
		return nil, s.fail("list_accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, s.fail("list_accounts", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_accounts", err)
	}
	return accounts, nil
}

func (s *sqlQueries) InsertVoterEmail(ctx context.Context, e models.VoterEmail) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO voter_email (email, moderator_id, is_used, created_at)
		VALUES ($1, $2, $3, $4)
	`, models.NormalizeEmail(e.Email), e.ModeratorID, e.IsUsed, e.CreatedAt.UTC())
	if db.IsUniqueViolation(err) {
		return apperr.ErrEmailWhitelisted
	}
	if err != nil {
		return s.fail("insert_voter_email", err, "moderator_id", e.ModeratorID)
	}
	return nil
}

func (s *sqlQueries) GetVoterEmail(ctx context.Context, email string) (models.VoterEmail, error) {
	var e models.VoterEmail
	err := s.q.QueryRowContext(ctx,
		`SELECT email, moderator_id, is_used, created_at FROM voter_email WHERE email = $1`,
		models.NormalizeEmail(email)).Scan(&e.Email, &e.ModeratorID, &e.IsUsed, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.VoterEmail{}, apperr.ErrNotWhitelisted
	}
	if err != nil {
		return models.VoterEmail{}, s.fail("get_voter_email", err)
	}
	return e, nil
}

func (s *sqlQueries) MarkVoterEmailUsed(ctx context.Context, email string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE voter_email SET is_used = $1 WHERE email = $2`, true, models.NormalizeEmail(email))
	if err != nil {
		return s.fail("mark_voter_email_used", err)
	}
	return s.exactlyOne("mark_voter_email_used", res, apperr.ErrNotWhitelisted)
}

func (s *sqlQueries) ListVoterEmails(ctx context.Context) ([]models.VoterEmail, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT email, moderator_id, is_used, created_at FROM voter_email ORDER BY created_at, email`)
	if err != nil {
		return nil, s.fail("list_voter_emails", err)
	}
	defer rows.Close()

	var emails []models.VoterEmail
	for rows.Next() {
		var e models.VoterEmail
		if err := rows.Scan(&e.Email, &e.ModeratorID, &e.IsUsed, &e.CreatedAt); err != nil {
			return nil, s.fail("list_voter_emails", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_voter_emails", err)
	}
	return emails, nil
}
