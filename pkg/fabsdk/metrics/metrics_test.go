/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ProposalsSent.With("operation", "invoke", "chaincode", "ledger_cc").Add(2)
	m.EndorsementFailures.With("operation", "invoke", "chaincode", "ledger_cc", "reason", "endorsement").Add(1)
	m.ConsistencyConflicts.With("operation", "instantiate", "chaincode", "ledger_cc").Add(1)
	m.ProposalDuration.With("operation", "query", "chaincode", "ledger_cc").Observe(0.2)
	m.Commits.With("channel", "orgchannel", "outcome", OutcomeValid).Add(1)
	m.Commits.With("channel", "orgchannel", "outcome", OutcomeTimeout).Add(1)
	m.CommitDuration.With("channel", "orgchannel").Observe(1.5)

	count, err := testutil.GatherAndCount(registry, "orchestrator_endorsement_proposals_sent")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(registry, "orchestrator_commit_outcomes")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(registry, "orchestrator_commit_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)
	assert.Panics(t, func() { New(registry) })
}

func TestDisabled(t *testing.T) {
	m := NewDisabled()
	assert.NotPanics(t, func() {
		m.ProposalsSent.With("operation", "invoke", "chaincode", "cc").Add(1)
		m.CommitDuration.With("channel", "c").Observe(1)
	})
}
