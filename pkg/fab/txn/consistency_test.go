/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	reqContext "context"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
)

func endorse(t *testing.T, peers ...*mocks.MockPeer) []*fab.TransactionProposalResponse {
	proposal, signer := newTestProposal(t, nil)
	targets := make([]fab.ProposalProcessor, len(peers))
	for i, p := range peers {
		targets[i] = p
	}
	responses, err := SendProposal(reqContext.Background(), proposal, signer, targets, mocks.NewMockVerifier())
	require.NoError(t, err)
	return responses
}

func TestConsistencySetsAgreement(t *testing.T) {
	responses := endorse(t,
		mocks.NewMockPeer("peer1", "peer1:7051"),
		mocks.NewMockPeer("peer2", "peer2:7051"),
		mocks.NewMockPeer("peer3", "peer3:7051"),
	)
	sets := ConsistencySets(responses)
	require.Len(t, sets, 1)
	assert.Len(t, sets[0], 3)
}

func TestConsistencySetsDisagreement(t *testing.T) {
	divergent := mocks.NewMockPeer("peer2", "peer2:7051")
	divergent.RWSetValue = []byte("tampered")
	responses := endorse(t,
		mocks.NewMockPeer("peer1", "peer1:7051"),
		divergent,
		mocks.NewMockPeer("peer3", "peer3:7051"),
	)
	sets := ConsistencySets(responses)
	require.Len(t, sets, 2)
	assert.Len(t, sets[0], 2)
	assert.Equal(t, "peer1:7051", sets[0][0].Endorser, "sets are reported in first-seen order")
	assert.Equal(t, "peer2:7051", sets[1][0].Endorser)
}

func TestConsistencySetsIgnoreRejected(t *testing.T) {
	failed := mocks.NewMockPeer("peer2", "peer2:7051")
	failed.Status = 500
	failed.Message = "chaincode panicked"
	responses := endorse(t, mocks.NewMockPeer("peer1", "peer1:7051"), failed)
	require.Len(t, responses, 2)

	assert.False(t, Succeeded(responses[1]))
	sets := ConsistencySets(responses)
	require.Len(t, sets, 1)
	assert.Len(t, sets[0], 1)

	responses[0].Verified = false
	assert.Empty(t, ConsistencySets(responses))
	assert.False(t, Succeeded(nil))
}

func TestChaincodeAction(t *testing.T) {
	peer := mocks.NewMockPeer("peer1", "peer1:7051")
	peer.Payload = []byte("moved")
	responses := endorse(t, peer)

	action, err := ChaincodeAction(responses[0].ProposalResponse)
	require.NoError(t, err)
	assert.Equal(t, "ledger_cc", action.ChaincodeId.Name)
	assert.Equal(t, []byte("moved"), action.Response.Payload)

	txRWSet := &rwset.TxReadWriteSet{}
	require.NoError(t, proto.Unmarshal(action.Results, txRWSet))
	require.Len(t, txRWSet.NsRwset, 1)
	assert.Equal(t, "ledger_cc", txRWSet.NsRwset[0].Namespace)

	_, err = ChaincodeAction(nil)
	assert.Error(t, err)
}
