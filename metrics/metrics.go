// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes board activity as Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/now-showing/models"
)

const namespace = "nowshowing"

type Metrics struct {
	registry *prometheus.Registry

	CheckIns  *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
	Rotations *prometheus.CounterVec
	Showings  prometheus.Counter
	Votes     prometheus.Counter
	Posts     prometheus.Counter
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CheckIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Successful check-ins by method.",
		}, []string{"method"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Requests refused for a domain reason.",
		}, []string{"reason"}),
		Rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_rotations_total",
			Help:      "Verification codes created by class.",
		}, []string{"class"}),
		Showings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "showings_total",
			Help:      "Posts promoted to the board.",
		}),
		Votes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Vote requests accepted (including repeat votes).",
		}),
		Posts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_total",
			Help:      "Posts accepted into the queue.",
		}),
	}

	m.registry.MustRegister(
		m.CheckIns, m.Rejected, m.Rotations, m.Showings, m.Votes, m.Posts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Publish implements events.Sink
func (m *Metrics) Publish(ev models.Event) {
	if m == nil {
		return
	}
	switch ev.Kind {
	case models.EventSMSCode:
		m.Rotations.WithLabelValues(string(models.ClassSMS)).Inc()
	case models.EventQRCode:
		m.Rotations.WithLabelValues(string(models.ClassQR)).Inc()
	case models.EventShowing:
		m.Showings.Inc()
	case models.EventVote:
		m.Votes.Inc()
	}
}

func (m *Metrics) CheckedIn(method string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(method).Inc()
}

func (m *Metrics) Rejection(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Posted() {
	if m == nil {
		return
	}
	m.Posts.Inc()
}

// Handler serves GET /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
