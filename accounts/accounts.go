// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/audit"
	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

// MinVoterAge is the youngest a voter may register.
const MinVoterAge = 18

// Service manages the voter whitelist and account enrollment.
type Service struct {
	store  store.Store
	ledger *audit.Ledger
	logger *slog.Logger
	now    func() time.Time
}

func NewService(st store.Store, ledger *audit.Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, ledger: ledger, logger: logger, now: time.Now}
}

// WhitelistEmails lets a moderator pre-approve voter emails. Malformed
// addresses are skipped. If any address is already whitelisted nothing is
// stored.
func (s *Service) WhitelistEmails(ctx context.Context, actor models.Actor, emails []string) ([]models.VoterEmail, error) {
	mod, err := s.moderator(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		var v apperr.Validation
		v.Add("emails", "at least one email is required")
		return nil, v.Err()
	}

	now := s.now().UTC()
	seen := make(map[string]bool, len(emails))
	var entries []models.VoterEmail
	for _, raw := range emails {
		email, ok := parseEmail(raw)
		if !ok {
			s.logger.Debug("skipping malformed email", "email", raw)
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		entries = append(entries, models.VoterEmail{Email: email, ModeratorID: mod.ID, CreatedAt: now})
	}
	if len(entries) == 0 {
		var v apperr.Validation
		v.Add("emails", "no valid email addresses")
		return nil, v.Err()
	}

	err = s.store.InTx(ctx, func(q store.Queries) error {
		for _, e := range entries {
			if err := q.InsertVoterEmail(ctx, e); err != nil {
				if errors.Is(err, apperr.ErrEmailWhitelisted) {
					return apperr.Wrap(apperr.KindConflict, fmt.Sprintf("email %s already whitelisted", e.Email), err)
				}
				return err
			}
		}
		desc := fmt.Sprintf("Voter emails whitelisted: %d", len(entries))
		return s.ledger.Created(ctx, q, desc, mod.ID, actor)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voter emails whitelisted", "moderator_id", mod.ID, "count", len(entries))
	return entries, nil
}

// RegisterVoter enrolls a voter whose email a moderator has whitelisted.
func (s *Service) RegisterVoter(ctx context.Context, req models.RegisterVoterRequest) (models.Voter, error) {
	var v apperr.Validation
	name := strings.TrimSpace(req.Name)
	if name == "" {
		v.Add("name", "name is required")
	}
	email, ok := parseEmail(req.Email)
	if !ok {
		v.Add("email", "a valid email is required")
	}
	if req.Age < MinVoterAge {
		v.Add("age", "voters must be at least %d", MinVoterAge)
	}
	if err := v.Err(); err != nil {
		return models.Voter{}, err
	}

	var voter models.Voter
	err := s.store.InTx(ctx, func(q store.Queries) error {
		entry, err := q.GetVoterEmail(ctx, email)
		if err != nil {
			return err
		}
		voter = models.Voter{
			Profile: models.Profile{
				ID:        uuid.NewString(),
				Email:     email,
				Name:      name,
				CreatedAt: s.now().UTC(),
			},
			Age:         req.Age,
			ModeratorID: entry.ModeratorID,
		}
		if err := q.InsertAccount(ctx, voter); err != nil {
			return err
		}
		if err := q.MarkVoterEmailUsed(ctx, email); err != nil {
			return err
		}
		return s.ledger.Created(ctx, q, "Voter registered", voter.ID, models.ActorFor(voter))
	})
	if err != nil {
		return models.Voter{}, err
	}

	s.logger.Info("voter registered", "voter_id", voter.ID, "moderator_id", voter.ModeratorID)
	return voter, nil
}

// CreateStaff adds an admin or moderator account. It backs the operator
// CLI and has no HTTP route.
func (s *Service) CreateStaff(ctx context.Context, role models.Role, name, email string) (models.Account, error) {
	var v apperr.Validation
	name = strings.TrimSpace(name)
	if name == "" {
		v.Add("name", "name is required")
	}
	addr, ok := parseEmail(email)
	if !ok {
		v.Add("email", "a valid email is required")
	}
	if role != models.RoleAdmin && role != models.RoleModerator {
		v.Add("role", "role must be %s or %s", models.RoleAdmin, models.RoleModerator)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	profile := models.Profile{ID: uuid.NewString(), Email: addr, Name: name, CreatedAt: s.now().UTC()}
	var account models.Account = models.Moderator{Profile: profile}
	if role == models.RoleAdmin {
		account = models.Admin{Profile: profile}
	}

	err := s.store.InTx(ctx, func(q store.Queries) error {
		if err := q.InsertAccount(ctx, account); err != nil {
			return err
		}
		return s.ledger.Created(ctx, q, "Account created: "+string(role), profile.ID, models.Actor{})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("staff account created", "account_id", profile.ID, "role", role)
	return account, nil
}

func (s *Service) moderator(ctx context.Context, actor models.Actor) (models.Moderator, error) {
	if actor.Anonymous() {
		return models.Moderator{}, apperr.ErrNotLoggedIn
	}
	account, err := s.store.GetAccountByEmail(ctx, actor.Email)
	if errors.Is(err, apperr.ErrAccountNotFound) {
		return models.Moderator{}, apperr.ErrRoleRequired
	}
	if err != nil {
		return models.Moderator{}, err
	}
	mod, ok := account.(models.Moderator)
	if !ok || !mod.IsActive() {
		return models.Moderator{}, apperr.ErrRoleRequired
	}
	return mod, nil
}

// parseEmail accepts a bare address and returns it normalized.
func parseEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", false
	}
	return models.NormalizeEmail(addr.Address), true
}
