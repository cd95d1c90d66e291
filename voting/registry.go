// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/store"
)

// Registry tracks which voters have voted in which polls. It never links
// a voter to the option they chose.
type Registry struct {
	markers store.EligibilityStore
}

func NewRegistry(markers store.EligibilityStore) Registry {
	return Registry{markers: markers}
}

func (r Registry) HasVoted(ctx context.Context, voterID, pollID string) (bool, error) {
	return r.markers.HasVoted(ctx, voterID, pollID)
}

// RecordVote inserts the marker for voterID in pollID. A second marker for
// the same pair fails with apperr.ErrAlreadyVoted, even when both inserts
// race.
func (r Registry) RecordVote(ctx context.Context, voterID, pollID string, now time.Time) (models.EligibilityMarker, error) {
	m := models.EligibilityMarker{
		ID:      uuid.NewString(),
		VoterID: voterID,
		PollID:  pollID,
		VotedAt: now.UTC(),
	}
	if err := r.markers.RecordVote(ctx, m); err != nil {
		return models.EligibilityMarker{}, err
	}
	return m, nil
}
