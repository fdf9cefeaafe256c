/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics holds the client metrics. Collectors are registered on
// the prometheus registerer handed to New and exposed through go-kit
// metric interfaces.
package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "orchestrator"

// Outcome label values of the Commits counter
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeTimeout = "timeout"
)

var (
	proposalsSent = prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "endorsement",
		Name:      "proposals_sent",
		Help:      "The number of proposals dispatched to endorsers.",
	}
	endorsementFailures = prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "endorsement",
		Name:      "failures",
		Help:      "The number of proposal rounds failed by an endorser or a validation check.",
	}
	consistencyConflicts = prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "endorsement",
		Name:      "consistency_conflicts",
		Help:      "The number of proposal rounds whose endorsements split into several consistency sets.",
	}
	proposalDuration = prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "endorsement",
		Name:      "duration_seconds",
		Help:      "The time to collect and validate endorsements.",
		Buckets:   prometheus.DefBuckets,
	}
	commits = prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "commit",
		Name:      "outcomes",
		Help:      "The number of awaited commits by outcome.",
	}
	commitDuration = prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "commit",
		Name:      "duration_seconds",
		Help:      "The time from submission to commit notification.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}

	operationLabels = []string{"operation", "chaincode"}
)

// ClientMetrics contains the metrics used by the clients
type ClientMetrics struct {
	ProposalsSent        metrics.Counter
	EndorsementFailures  metrics.Counter
	ConsistencyConflicts metrics.Counter
	ProposalDuration     metrics.Histogram
	Commits              metrics.Counter
	CommitDuration       metrics.Histogram
}

// New creates the client metrics and registers their collectors on registerer
func New(registerer prometheus.Registerer) *ClientMetrics {
	return &ClientMetrics{
		ProposalsSent:        kitprometheus.NewCounter(registerCounter(registerer, proposalsSent, operationLabels)),
		EndorsementFailures:  kitprometheus.NewCounter(registerCounter(registerer, endorsementFailures, append(operationLabels, "reason"))),
		ConsistencyConflicts: kitprometheus.NewCounter(registerCounter(registerer, consistencyConflicts, operationLabels)),
		ProposalDuration:     kitprometheus.NewHistogram(registerHistogram(registerer, proposalDuration, operationLabels)),
		Commits:              kitprometheus.NewCounter(registerCounter(registerer, commits, []string{"channel", "outcome"})),
		CommitDuration:       kitprometheus.NewHistogram(registerHistogram(registerer, commitDuration, []string{"channel"})),
	}
}

// NewDisabled returns metrics that discard every observation
func NewDisabled() *ClientMetrics {
	return &ClientMetrics{
		ProposalsSent:        discard.NewCounter(),
		EndorsementFailures:  discard.NewCounter(),
		ConsistencyConflicts: discard.NewCounter(),
		ProposalDuration:     discard.NewHistogram(),
		Commits:              discard.NewCounter(),
		CommitDuration:       discard.NewHistogram(),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labels)
	registerer.MustRegister(cv)
	return cv
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labels)
	registerer.MustRegister(hv)
	return hv
}
