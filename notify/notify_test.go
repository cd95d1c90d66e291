// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/danielhkuo/truevote/models"
	"github.com/danielhkuo/truevote/testutil"
)

func TestPollCreated(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()
	poll := testutil.CreateOpenPoll(t, st, "mod@example.com", "Yes", "No").Poll

	b := NewBroadcaster(st, nil)
	b.now = testutil.Clock
	if err := b.PollCreated(ctx, poll); err != nil {
		t.Fatalf("PollCreated() error = %v", err)
	}

	msgs, err := st.ListMessages(ctx)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	m := msgs[0]
	if m.PollID == nil || *m.PollID != poll.ID {
		t.Errorf("message poll id = %v, want %s", m.PollID, poll.ID)
	}
	if m.From != "mod@example.com" || !strings.Contains(m.Body, "Test Poll") {
		t.Errorf("message = %+v", m)
	}
}

func TestSweep(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()

	for i, age := range []time.Duration{72 * time.Hour, 30 * time.Hour, time.Hour} {
		m := models.Message{ID: string(rune('a' + i)), Body: "x", From: "x", SentAt: testutil.Now.Add(-age)}
		if err := st.InsertMessage(ctx, m); err != nil {
			t.Fatalf("InsertMessage() error = %v", err)
		}
	}

	s := NewSweeper(st, 24*time.Hour, time.Hour, nil)
	s.now = testutil.Clock

	n, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Sweep() removed %d, want 2", n)
	}

	left, _ := st.ListMessages(ctx)
	if len(left) != 1 || left[0].ID != "c" {
		t.Errorf("remaining = %+v", left)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	st := testutil.SetupTestStore(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewSweeper(st, time.Hour, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}

func TestRunDisabled(t *testing.T) {
	s := NewSweeper(nil, time.Hour, 0, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
