/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commit

import (
	reqContext "context"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp/test/mockmsp"
)

const (
	testChannel = "mychannel"
	ordererURL  = "orderer.example.com:7050"
)

type testEnv struct {
	ctx     *mocks.MockContext
	clock   *fakeclock.FakeClock
	events  *mocks.MockEventService
	orderer *mocks.MockOrderer
	waiter  *Waiter
}

func setup(t *testing.T) *testEnv {
	ctx := mocks.NewMockContext(mockmsp.NewMockSigningIdentity("User1", "Org1MSP"))
	chCtx := mocks.NewMockChannelContext(ctx, testChannel)
	clk := fakeclock.NewFakeClock(time.Now())

	waiter, err := New(chCtx.Provider(), WithClock(clk))
	require.NoError(t, err)

	return &testEnv{
		ctx:     ctx,
		clock:   clk,
		events:  ctx.Infra.EventService,
		orderer: ctx.Infra.Orderer(ordererURL),
		waiter:  waiter,
	}
}

// endorse returns an endorsed invocation of ledger_cc
func endorse(t *testing.T, ctx *mocks.MockContext) fab.TransactionRequest {
	peer := mocks.NewMockPeer("peer0.org1.example.com", "peer0.org1.example.com:7051")
	peer.Payload = []byte("value")

	txh, err := txn.NewHeader(ctx, testChannel)
	require.NoError(t, err)
	tp, err := txn.CreateChaincodeInvokeProposal(txh, fab.ChaincodeInvokeRequest{
		ChaincodeID: fab.ChaincodeID{Name: "ledger_cc", Version: "1"},
		Fcn:         "invoke",
		Args:        [][]byte{[]byte("move"), []byte("a"), []byte("b"), []byte("1")},
	})
	require.NoError(t, err)

	responses, err := txn.SendProposal(reqContext.Background(), tp, ctx, []fab.ProposalProcessor{peer}, ctx.Verifier)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	return fab.TransactionRequest{Proposal: tp, ProposalResponses: responses}
}

func validEvent(txID fab.TransactionID, block uint64) *fab.TxStatusEvent {
	return &fab.TxStatusEvent{
		TxID:             string(txID),
		TxValidationCode: pb.TxValidationCode_VALID,
		BlockNumber:      block,
		Block:            &cb.BlockHeader{Number: block},
		Signature:        []byte("signature"),
		SourceURL:        "peer0.org1.example.com:7051",
	}
}

func TestSubmitAndAwait(t *testing.T) {
	env := setup(t)
	env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.events, pb.TxValidationCode_VALID, 7)
	req := endorse(t, env.ctx)

	h, err := env.waiter.Submit(req)
	require.NoError(t, err)
	assert.Equal(t, req.Proposal.TxnID, h.TransactionID())
	assert.Equal(t, ordererURL, h.Orderer())

	outcome, err := h.Await(0)
	require.NoError(t, err)
	assert.True(t, outcome.Valid)
	assert.Equal(t, req.Proposal.TxnID, outcome.TransactionID)
	assert.Equal(t, testChannel, outcome.ChannelID)
	assert.EqualValues(t, 7, outcome.BlockNumber)
	assert.NotNil(t, outcome.Block)
	assert.NotEmpty(t, outcome.Signature)

	envelopes := env.orderer.Envelopes()
	require.Len(t, envelopes, 1)
	txID, err := mocks.EnvelopeTxID(envelopes[0])
	require.NoError(t, err)
	assert.Equal(t, string(req.Proposal.TxnID), txID)

	assert.Eventually(t, func() bool { return env.events.UnregisterCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAwaitConfirmationWithinBudget(t *testing.T) {
	env := setup(t)
	req := endorse(t, env.ctx)

	h, err := env.waiter.Submit(req)
	require.NoError(t, err)

	go func() {
		env.clock.WaitForNWatchersAndIncrement(time.Second, 2)
		env.events.Notify(validEvent(req.Proposal.TxnID, 3))
	}()

	outcome, err := h.Await(30 * time.Second)
	require.NoError(t, err)
	assert.True(t, outcome.Valid)
	assert.Equal(t, req.Proposal.TxnID, outcome.TransactionID)
}

func TestAwaitTimeout(t *testing.T) {
	env := setup(t)
	req := endorse(t, env.ctx)

	h, err := env.waiter.Submit(req)
	require.NoError(t, err)

	go env.clock.WaitForNWatchersAndIncrement(30*time.Second, 2)

	outcome, err := h.Await(30 * time.Second)
	require.Error(t, err)
	assert.Nil(t, outcome)
	assert.True(t, status.IsCommitTimeout(err), "expected commit timeout, got %s", err)
	sctx, ok := status.ContextOf(err)
	require.True(t, ok)
	assert.Equal(t, string(req.Proposal.TxnID), sctx.TxID)

	assert.Eventually(t, func() bool { return !env.events.Registered(string(req.Proposal.TxnID)) }, time.Second, 5*time.Millisecond)

	// a late notification finds no listener and the result stays a timeout
	assert.False(t, env.events.Notify(validEvent(req.Proposal.TxnID, 9)))
	_, err = h.Await(time.Second)
	assert.True(t, status.IsCommitTimeout(err))
}

func TestAbandonedHandleExpires(t *testing.T) {
	env := setup(t)
	req := endorse(t, env.ctx)

	h, err := env.waiter.Submit(req)
	require.NoError(t, err)
	assert.True(t, env.events.Registered(string(req.Proposal.TxnID)))

	env.clock.WaitForWatcherAndIncrement(5 * time.Second)

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("abandoned handle did not expire")
	}
	assert.Eventually(t, func() bool { return env.events.UnregisterCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, env.events.Registered(string(req.Proposal.TxnID)))

	_, err = h.Await(time.Second)
	assert.True(t, status.IsCommitTimeout(err), "expected commit timeout, got %s", err)
}

func TestAwaitBoundedByCommitTimeout(t *testing.T) {
	env := setup(t)
	req := endorse(t, env.ctx)
	h, err := env.waiter.Submit(req, WithTimeout(fab.Commit, 2*time.Second))
	require.NoError(t, err)

	go env.clock.WaitForNWatchersAndIncrement(2*time.Second, 2)

	_, err = h.Await(time.Minute)
	assert.True(t, status.IsCommitTimeout(err), "expected commit timeout, got %s", err)
	assert.Contains(t, err.Error(), "after 2s")
}

func TestAwaitInvalidTransaction(t *testing.T) {
	env := setup(t)
	env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.events, pb.TxValidationCode_MVCC_READ_CONFLICT, 4)

	h, err := env.waiter.Submit(endorse(t, env.ctx))
	require.NoError(t, err)

	outcome, err := h.Await(0)
	require.Error(t, err)
	require.NotNil(t, outcome)
	assert.False(t, outcome.Valid)
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, outcome.ValidationCode)
	assert.True(t, status.Is(err, status.EventServerStatus, status.Code(pb.TxValidationCode_MVCC_READ_CONFLICT)))
	assert.False(t, status.IsCommitTimeout(err))
}

func TestAwaitInvalidNotification(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*fab.TxStatusEvent)
	}{
		{name: "unsigned", modify: func(e *fab.TxStatusEvent) { e.Signature = nil }},
		{name: "blockless", modify: func(e *fab.TxStatusEvent) { e.Block = nil }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			req := endorse(t, env.ctx)
			h, err := env.waiter.Submit(req)
			require.NoError(t, err)

			event := validEvent(req.Proposal.TxnID, 2)
			tc.modify(event)
			require.True(t, env.events.Notify(event))

			outcome, err := h.Await(0)
			require.Error(t, err)
			assert.Nil(t, outcome)
			assert.True(t, status.Is(err, status.EventServerStatus, status.InvalidCommitNotification))
		})
	}
}

func TestCancel(t *testing.T) {
	env := setup(t)
	req := endorse(t, env.ctx)
	h, err := env.waiter.Submit(req)
	require.NoError(t, err)

	h.Cancel()
	h.Cancel()

	_, err = h.Await(0)
	assert.Equal(t, ErrCancelled, errors.Cause(err))
	assert.Eventually(t, func() bool { return !env.events.Registered(string(req.Proposal.TxnID)) }, time.Second, 5*time.Millisecond)

	select {
	case <-h.Done():
	default:
		t.Fatal("cancelled handle is not resolved")
	}
}

func TestWait(t *testing.T) {
	t.Run("deadline", func(t *testing.T) {
		env := setup(t)
		h, err := env.waiter.Submit(endorse(t, env.ctx))
		require.NoError(t, err)

		ctx, cancel := reqContext.WithTimeout(reqContext.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = h.Wait(ctx)
		assert.True(t, status.IsCommitTimeout(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		env := setup(t)
		h, err := env.waiter.Submit(endorse(t, env.ctx))
		require.NoError(t, err)

		ctx, cancel := reqContext.WithCancel(reqContext.Background())
		cancel()
		_, err = h.Wait(ctx)
		assert.Equal(t, ErrCancelled, errors.Cause(err))
	})

	t.Run("committed", func(t *testing.T) {
		env := setup(t)
		env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.events, pb.TxValidationCode_VALID, 1)
		h, err := env.waiter.Submit(endorse(t, env.ctx))
		require.NoError(t, err)

		outcome, err := h.Wait(reqContext.Background())
		require.NoError(t, err)
		assert.True(t, outcome.Valid)
	})
}

func TestSubmitBroadcastFailure(t *testing.T) {
	env := setup(t)
	env.orderer.BroadcastErr = errors.New("service unavailable")
	req := endorse(t, env.ctx)

	h, err := env.waiter.Submit(req)
	require.Error(t, err)
	assert.Nil(t, h)
	assert.True(t, status.Is(err, status.OrdererClientStatus, status.ConnectionFailed))
	assert.False(t, env.events.Registered(string(req.Proposal.TxnID)))
	assert.Equal(t, 1, env.events.UnregisterCount())
}

func TestSubmitOrdererFallback(t *testing.T) {
	env := setup(t)
	bad := mocks.NewMockOrderer("orderer2.example.com:7050")
	bad.BroadcastErr = errors.New("connection refused")
	good := mocks.NewMockOrderer("orderer3.example.com:7050")

	h, err := env.waiter.Submit(endorse(t, env.ctx), WithOrderers(bad, good))
	require.NoError(t, err)
	assert.Equal(t, good.URL(), h.Orderer())
	assert.Len(t, good.Envelopes(), 1)
	assert.Empty(t, env.orderer.Envelopes())
	h.Cancel()
}

func TestSubmitOrdererEndpoints(t *testing.T) {
	env := setup(t)

	h, err := env.waiter.Submit(endorse(t, env.ctx), WithOrdererEndpoints("orderer.example.com"))
	require.NoError(t, err)
	assert.Equal(t, ordererURL, h.Orderer())
	h.Cancel()

	_, err = env.waiter.Submit(endorse(t, env.ctx), WithOrdererEndpoints("unknown.example.com"))
	assert.Error(t, err)
}

func TestSubmitPreconditions(t *testing.T) {
	env := setup(t)
	req := endorse(t, env.ctx)

	_, err := env.waiter.Submit(fab.TransactionRequest{ProposalResponses: req.ProposalResponses})
	assert.True(t, status.IsPrecondition(err))

	_, err = env.waiter.Submit(fab.TransactionRequest{Proposal: req.Proposal})
	assert.True(t, status.IsPrecondition(err))

	_, err = env.waiter.Submit(req, WithOrderers(nil))
	assert.Error(t, err)

	_, err = env.waiter.Submit(req, WithIdentity(nil))
	assert.Error(t, err)

	assert.Empty(t, env.orderer.Envelopes())
	assert.False(t, env.events.Registered(string(req.Proposal.TxnID)))
}

func TestSubmitRegistrationFailure(t *testing.T) {
	env := setup(t)
	env.events.RegisterErr = errors.New("event service down")

	_, err := env.waiter.Submit(endorse(t, env.ctx))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event service down")
	assert.Empty(t, env.orderer.Envelopes())
}

func TestSubmitWithIdentity(t *testing.T) {
	env := setup(t)
	env.orderer.OnBroadcast = mocks.CommitOnBroadcast(env.events, pb.TxValidationCode_VALID, 1)

	h, err := env.waiter.Submit(endorse(t, env.ctx), WithIdentity(mockmsp.NewMockSigningIdentity("Admin", "Org1MSP")))
	require.NoError(t, err)
	outcome, err := h.Await(0)
	require.NoError(t, err)
	assert.True(t, outcome.Valid)
}

func TestNewRequiresClock(t *testing.T) {
	ctx := mocks.NewMockContext(mockmsp.NewMockSigningIdentity("User1", "Org1MSP"))
	_, err := New(mocks.NewMockChannelContext(ctx, testChannel).Provider(), WithClock(nil))
	assert.Error(t, err)
}
