// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes prometheus counters for poll and vote activity.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/truevote/apperr"
)

type Metrics struct {
	votesCast     prometheus.Counter
	votesRejected *prometheus.CounterVec
	votesDeleted  prometheus.Counter
	castLatency   prometheus.Histogram
	pollsCreated  prometheus.Counter
	pollsUpdated  prometheus.Counter
	pollsDeleted  prometheus.Counter
	notifyFailed  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		votesCast: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevote_votes_cast_total",
			Help: "votes accepted",
		}),
		votesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "truevote_votes_rejected_total",
			Help: "votes rejected, by error kind",
		}, []string{"reason"}),
		votesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevote_votes_deleted_total",
			Help: "votes removed by administrative correction",
		}),
		castLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "truevote_cast_vote_duration_seconds",
			Help:    "time to cast a vote, including rejected attempts",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		}),
		pollsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevote_polls_created_total",
			Help: "polls created",
		}),
		pollsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevote_polls_updated_total",
			Help: "polls updated",
		}),
		pollsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevote_polls_deleted_total",
			Help: "polls soft deleted",
		}),
		notifyFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "truevote_notifications_failed_total",
			Help: "best-effort notifications that failed",
		}),
	}
}

// Handler serves the registry in the prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// VoteCast records the outcome of a cast attempt that started at start.
func (m *Metrics) VoteCast(start time.Time, err error) {
	if m == nil {
		return
	}
	m.castLatency.Observe(time.Since(start).Seconds())
	if err == nil {
		m.votesCast.Inc()
		return
	}
	m.votesRejected.WithLabelValues(rejectReason(err)).Inc()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, apperr.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, apperr.ErrPollNotOpen):
		return "poll_not_open"
	default:
		return apperr.KindOf(err).String()
	}
}

func (m *Metrics) VoteDeleted() {
	if m != nil {
		m.votesDeleted.Inc()
	}
}

func (m *Metrics) PollCreated() {
	if m != nil {
		m.pollsCreated.Inc()
	}
}

func (m *Metrics) PollUpdated() {
	if m != nil {
		m.pollsUpdated.Inc()
	}
}

func (m *Metrics) PollDeleted() {
	if m != nil {
		m.pollsDeleted.Inc()
	}
}

func (m *Metrics) NotifyFailed() {
	if m != nil {
		m.notifyFailed.Inc()
	}
}
