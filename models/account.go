// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strings"
	"time"
)

// Account is implemented by Admin, Moderator and Voter. Callers type-switch
// on the variant instead of comparing role strings.
type Account interface {
	AccountID() string
	AccountEmail() string
	AccountRole() Role
	IsActive() bool
}

// Profile holds the fields every account variant shares.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Profile) AccountID() string    { return p.ID }
func (p Profile) AccountEmail() string { return p.Email }
func (p Profile) IsActive() bool       { return !p.IsDeleted }

type Admin struct {
	Profile
}

func (Admin) AccountRole() Role { return RoleAdmin }

type Moderator struct {
	Profile
}

func (Moderator) AccountRole() Role { return RoleModerator }

// Voter was enrolled from a whitelist entry issued by ModeratorID.
type Voter struct {
	Profile
	Age         int    `json:"age"`
	ModeratorID string `json:"moderator_id,omitempty"`
}

func (Voter) AccountRole() Role { return RoleVoter }

// ActorFor returns the identity an account acts as.
func ActorFor(a Account) Actor {
	return Actor{Email: a.AccountEmail(), UserID: a.AccountID(), Role: a.AccountRole()}
}

// NormalizeEmail is the canonical form used for lookups and ownership
// checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
