/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	reqContext "context"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/client/commit"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/retry"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp/test/mockmsp"
)

const (
	testChannel = "mychannel"
	peer0URL    = "peer0.org1.example.com:7051"
	peer1URL    = "peer1.org1.example.com:7051"
	ordererURL  = "orderer.example.com:7050"
)

type testEnv struct {
	ctx     *mocks.MockContext
	chCtx   *mocks.MockChannelContext
	clock   *fakeclock.FakeClock
	peer0   *mocks.MockPeer
	peer1   *mocks.MockPeer
	orderer *mocks.MockOrderer
	client  *Client
}

func setup(t *testing.T, opts ...ClientOption) *testEnv {
	ctx := mocks.NewMockContext(mockmsp.NewMockSigningIdentity("User1", "Org1MSP"))
	chCtx := mocks.NewMockChannelContext(ctx, testChannel)
	clk := fakeclock.NewFakeClock(time.Now())

	env := &testEnv{
		ctx:     ctx,
		chCtx:   chCtx,
		clock:   clk,
		peer0:   ctx.Infra.Peer(peer0URL),
		peer1:   ctx.Infra.Peer(peer1URL),
		orderer: ctx.Infra.Orderer(ordererURL),
	}
	env.peer0.Payload = []byte("value")
	env.peer1.Payload = []byte("value")

	client, err := New(chCtx.Provider(), append(opts, WithCommitOptions(commit.WithClock(clk)))...)
	require.NoError(t, err)
	env.client = client
	return env
}

func queryRequest() Request {
	return Request{ChaincodeID: "ledger_cc", Fcn: "invoke", Args: [][]byte{[]byte("query"), []byte("b")}}
}

func moveRequest() Request {
	return Request{ChaincodeID: "ledger_cc", Fcn: "invoke", Args: [][]byte{[]byte("move"), []byte("a"), []byte("b"), []byte("1")}}
}

func TestNew(t *testing.T) {
	env := setup(t)
	assert.NotNil(t, env.client)

	_, err := New(func() (context.Channel, error) { return nil, errors.New("no channel") })
	assert.Error(t, err)

	_, err = New(env.chCtx.Provider(), WithCommitOptions(commit.WithClock(nil)))
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	env := setup(t)

	response, err := env.client.Query(queryRequest())
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), response.Payload)
	assert.Len(t, response.Responses, 2)
	assert.Equal(t, 1, env.peer0.ProcessCount())
	assert.Equal(t, 1, env.peer1.ProcessCount())
	assert.Empty(t, env.orderer.Envelopes())
}

func TestQueryPreconditions(t *testing.T) {
	env := setup(t)

	_, err := env.client.Query(Request{ChaincodeID: "ledger_cc", Args: [][]byte{}})
	assert.True(t, status.IsPrecondition(err))

	_, err = env.client.Query(Request{Fcn: "invoke", Args: [][]byte{}})
	assert.True(t, status.IsPrecondition(err))

	_, err = env.client.Query(Request{ChaincodeID: "ledger_cc", Fcn: "invoke"})
	assert.True(t, status.IsPrecondition(err))

	assert.Equal(t, 0, env.peer0.ProcessCount())
}

func TestQueryFailure(t *testing.T) {
	env := setup(t)
	env.peer1.Status = 500
	env.peer1.Message = "key not found"

	_, err := env.client.Query(queryRequest())
	require.Error(t, err)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.QueryFailed))
	assert.Contains(t, err.Error(), "key not found")

	sctx, ok := status.ContextOf(err)
	require.True(t, ok)
	assert.Equal(t, peer1URL, sctx.Node)
}

func TestQueryRetry(t *testing.T) {
	opts := retry.Opts{Attempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}

	env := setup(t)
	env.peer0.Error = errors.New("connection refused")
	_, err := env.client.Query(queryRequest(), WithRetry(opts))
	require.Error(t, err)
	assert.True(t, status.Is(err, status.EndorserClientStatus, status.QueryFailed))
	assert.Equal(t, 3, env.peer0.ProcessCount())
	assert.Equal(t, 3, env.peer1.ProcessCount())

	env = setup(t)
	env.peer0.Error = errors.New("connection refused")
	_, err = env.client.Query(queryRequest())
	require.Error(t, err)
	assert.Equal(t, 1, env.peer0.ProcessCount())

	// an endorser rejecting the query is not a transient condition
	env = setup(t)
	env.peer0.Status = 500
	_, err = env.client.Query(queryRequest(), WithRetry(opts))
	require.Error(t, err)
	assert.Equal(t, 1, env.peer0.ProcessCount())
}

func TestInvoke(t *testing.T) {
	env := setup(t)

	response, err := env.client.Invoke(moveRequest())
	require.NoError(t, err)
	assert.Len(t, response.Responses, 2)
	assert.NotEmpty(t, response.TransactionID)
	assert.Equal(t, string(response.TransactionID), env.peer0.LastRequest().TxID)
	assert.Nil(t, response.Outcome)

	req := response.TransactionRequest()
	assert.Equal(t, response.Proposal, req.Proposal)
	assert.Len(t, req.ProposalResponses, 2)

	assert.Empty(t, env.orderer.Envelopes(), "invoke must not submit")
}

func TestInvokeNeverRetries(t *testing.T) {
	env := setup(t)
	env.peer0.Error = errors.New("connection refused")

	_, err := env.client.Invoke(moveRequest(), WithRetry(retry.Opts{Attempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffFactor: 1}))
	require.Error(t, err)
	assert.True(t, status.IsEndorsement(err))
	assert.Equal(t, 1, env.peer0.ProcessCount())
}

func TestInvokeEndorsementFailure(t *testing.T) {
	env := setup(t)
	env.peer1.Status = 500
	env.peer1.Message = "insufficient funds"

	_, err := env.client.Invoke(moveRequest())
	require.Error(t, err)
	assert.True(t, status.IsEndorsement(err))
	sctx, ok := status.ContextOf(err)
	require.True(t, ok)
	assert.Equal(t, peer1URL, sctx.Node)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Empty(t, env.orderer.Envelopes())
}

func TestInvokeConsistencyConflict(t *testing.T) {
	env := setup(t)
	env.peer1.RWSetValue = []byte("tampered")

	_, err := env.client.Invoke(moveRequest())
	require.Error(t, err)
	assert.True(t, status.IsConsistency(err))
	assert.Empty(t, env.orderer.Envelopes())

	_, err = env.client.Execute(moveRequest())
	require.Error(t, err)
	assert.True(t, status.IsConsistency(err))
	assert.Empty(t, env.orderer.Envelopes(), "execute must not submit conflicting endorsements")
}

func TestInvokeIntegrity(t *testing.T) {
	env := setup(t)

	_, err := env.client.Invoke(moveRequest(), WithExpectedPayload([]byte("value")))
	assert.NoError(t, err)

	_, err = env.client.Invoke(moveRequest(), WithExpectedPayload([]byte("marker")))
	assert.True(t, status.IsIntegrity(err))

	env.peer0.AddInstantiated(testChannel, fab.ChaincodeID{Name: "ledger_cc", Version: "1"})
	env.peer1.AddInstantiated(testChannel, fab.ChaincodeID{Name: "ledger_cc", Version: "1"})
	request := moveRequest()
	request.Version = "1"
	_, err = env.client.Invoke(request)
	assert.NoError(t, err)

	request.Version = "2"
	_, err = env.client.Invoke(request)
	assert.True(t, status.IsIntegrity(err))
}

func TestExecute(t *testing.T) {
	env := setup(t)
	env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.ctx.Infra.EventService, pb.TxValidationCode_VALID, 5)

	response, err := env.client.Execute(moveRequest())
	require.NoError(t, err)
	require.NotNil(t, response.Outcome)
	assert.True(t, response.Outcome.Valid)
	assert.Equal(t, response.TransactionID, response.Outcome.TransactionID)
	assert.Equal(t, pb.TxValidationCode_VALID, response.TxValidationCode)
	assert.EqualValues(t, 5, response.Outcome.BlockNumber)
	assert.Len(t, env.orderer.Envelopes(), 1)
}

func TestExecuteCommitTimeout(t *testing.T) {
	env := setup(t)

	go env.clock.WaitForWatcherAndIncrement(5 * time.Second)

	response, err := env.client.Execute(moveRequest())
	require.Error(t, err)
	assert.True(t, status.IsCommitTimeout(err))
	assert.Nil(t, response.Outcome)
	assert.Len(t, response.Responses, 2, "endorsement result is kept")
}

func TestExecuteCommitTimeoutOverride(t *testing.T) {
	env := setup(t)

	go env.clock.WaitForWatcherAndIncrement(time.Minute)

	_, err := env.client.Execute(moveRequest(), WithTimeout(fab.Commit, time.Minute))
	require.Error(t, err)
	assert.True(t, status.IsCommitTimeout(err))
	assert.Contains(t, err.Error(), "1m0s")
}

func TestExecuteInvalidTransaction(t *testing.T) {
	env := setup(t)
	env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.ctx.Infra.EventService, pb.TxValidationCode_MVCC_READ_CONFLICT, 5)

	response, err := env.client.Execute(moveRequest())
	require.Error(t, err)
	assert.True(t, status.Is(err, status.EventServerStatus, status.Code(pb.TxValidationCode_MVCC_READ_CONFLICT)))
	require.NotNil(t, response.Outcome)
	assert.False(t, response.Outcome.Valid)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, response.TxValidationCode)
}

func TestInvokeThenCommit(t *testing.T) {
	env := setup(t)

	response, err := env.client.Invoke(moveRequest())
	require.NoError(t, err)
	require.Len(t, response.Responses, 2)

	waiter, err := commit.New(env.chCtx.Provider(), commit.WithClock(env.clock))
	require.NoError(t, err)
	handle, err := waiter.Submit(response.TransactionRequest())
	require.NoError(t, err)

	go func() {
		env.clock.WaitForNWatchersAndIncrement(time.Second, 2)
		envelopes := env.orderer.Envelopes()
		mocks.CommitOnBroadcast(env.ctx.Infra.EventService, pb.TxValidationCode_VALID, 1)(envelopes[0])
	}()

	outcome, err := handle.Await(30 * time.Second)
	require.NoError(t, err)
	assert.True(t, outcome.Valid)
	assert.Equal(t, response.TransactionID, outcome.TransactionID)
}

func TestWithTargetEndpoints(t *testing.T) {
	env := setup(t)

	_, err := env.client.Query(queryRequest(), WithTargetEndpoints("peer1.org1.example.com"))
	require.NoError(t, err)
	assert.Equal(t, 0, env.peer0.ProcessCount())
	assert.Equal(t, 1, env.peer1.ProcessCount())

	_, err = env.client.Query(queryRequest(), WithTargetEndpoints("peer9.org1.example.com"))
	assert.Error(t, err)

	_, err = env.client.Query(queryRequest(), WithTargets(nil))
	assert.Error(t, err)
}

type mspFilter struct {
	mspID string
}

func (f *mspFilter) Accept(peer fab.Peer) bool {
	return peer.MSPID() == f.mspID
}

func TestTargetFilter(t *testing.T) {
	env := setup(t, WithTargetFilter(&mspFilter{mspID: "Org2MSP"}))

	_, err := env.client.Query(queryRequest())
	require.Error(t, err)
	assert.True(t, status.Is(err, status.ClientStatus, status.NoPeersFound))

	_, err = env.client.Query(queryRequest(), WithRequestTargetFilter(&mspFilter{mspID: "Org1MSP"}))
	assert.NoError(t, err)
}

func TestWithIdentity(t *testing.T) {
	env := setup(t)
	env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.ctx.Infra.EventService, pb.TxValidationCode_VALID, 2)

	response, err := env.client.Execute(moveRequest(), WithIdentity(mockmsp.NewMockSigningIdentity("Admin", "Org1MSP")))
	require.NoError(t, err)
	assert.True(t, response.Outcome.Valid)

	_, err = env.client.Query(queryRequest(), WithIdentity(nil))
	assert.Error(t, err)
}

// blockingPeer holds every proposal until released
type blockingPeer struct {
	*mocks.MockPeer
	release chan struct{}
}

func (p *blockingPeer) ProcessTransactionProposal(ctx reqContext.Context, req fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	<-p.release
	return p.MockPeer.ProcessTransactionProposal(ctx, req)
}

func TestRequestTimeout(t *testing.T) {
	env := setup(t)
	peer := &blockingPeer{MockPeer: mocks.NewMockPeer("slow", "slow.example.com:7051"), release: make(chan struct{})}
	defer close(peer.release)

	_, err := env.client.Query(queryRequest(), WithTargets(peer), WithTimeout(fab.Proposal, 20*time.Millisecond))
	require.Error(t, err)
	assert.True(t, status.Is(err, status.ClientStatus, status.Timeout))
}
