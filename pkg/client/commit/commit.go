/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package commit submits endorsed transactions to the ordering service and
// waits, within a bounded time, for the notification that they were
// committed.
//
// Endorsement and commit are separate stages. A Handle that times out or
// is cancelled says nothing about the endorsement it was created from,
// which stays valid; only the commit is unknown.
//
//  Basic Flow:
//  1) Prepare channel context
//  2) Create commit waiter
//  3) Submit the transaction request returned by an endorsement
//  4) Await the outcome on the returned handle
package commit

import (
	reqContext "context"

	"code.cloudfoundry.org/clock"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	contextImpl "github.com/fabric-orchestrator/orchestrator/pkg/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
	"github.com/fabric-orchestrator/orchestrator/pkg/util/concurrent/futurevalue"
)

var logger = logging.NewLogger("orchestrator/client")

// Waiter submits transactions of one channel and tracks their commit
type Waiter struct {
	ctx          context.Channel
	eventService fab.EventService
	clock        clock.Clock
}

// Option describes a functional parameter for the New constructor
type Option func(*Waiter) error

// WithClock sets the clock measuring commit timeouts
func WithClock(clk clock.Clock) Option {
	return func(w *Waiter) error {
		if clk == nil {
			return errors.New("clock is nil")
		}
		w.clock = clk
		return nil
	}
}

// New returns a commit waiter for the channel of channelProvider
func New(channelProvider context.ChannelProvider, opts ...Option) (*Waiter, error) {
	channelContext, err := channelProvider()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel context")
	}
	if channelContext.ChannelService() == nil {
		return nil, errors.New("channel service not initialized")
	}

	eventService, err := channelContext.ChannelService().EventService()
	if err != nil {
		return nil, errors.WithMessage(err, "event service creation failed")
	}

	w := &Waiter{
		ctx:          channelContext,
		eventService: eventService,
		clock:        clock.NewClock(),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Submit assembles the transaction of req, broadcasts it to the orderers
// and returns a handle resolved by its commit notification. The listener is
// registered before the broadcast so that no notification can be missed.
// If no orderer accepts the transaction the registration is released and
// an OrdererClientStatus error is returned.
func (w *Waiter) Submit(req fab.TransactionRequest, options ...RequestOption) (*Handle, error) {
	if req.Proposal == nil || req.Proposal.Proposal == nil {
		return nil, status.NewPrecondition("proposal is required")
	}
	if len(req.ProposalResponses) == 0 {
		return nil, status.NewPrecondition("at least one proposal response is required")
	}

	opts, err := w.prepareRequestOpts(options...)
	if err != nil {
		return nil, err
	}

	orderers := opts.Orderers
	if orderers == nil {
		orderers, err = w.ctx.ChannelService().Orderers()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to get channel orderers")
		}
	}
	if len(orderers) == 0 {
		return nil, status.New(status.OrdererClientStatus, status.NoPeersFound.ToInt32(), "orderers not set", nil)
	}

	txID := req.Proposal.TxnID
	reg, notifier, err := w.eventService.RegisterTxStatusEvent(string(txID))
	if err != nil {
		return nil, errors.Wrap(err, "error registering for TxStatus event")
	}

	tx, err := txn.New(req)
	if err != nil {
		w.eventService.Unregister(reg)
		return nil, errors.WithMessage(err, "CreateTransaction failed")
	}

	var signer msp.SigningIdentity = w.ctx
	if opts.Signer != nil {
		signer = opts.Signer
	}

	reqCtx, cancel := w.createRequestContext(opts, fab.OrdererResponse)
	defer cancel()

	submitted := w.clock.Now()
	resp, err := txn.Send(reqCtx, signer, tx, orderers)
	if err != nil {
		w.eventService.Unregister(reg)
		return nil, errors.WithMessage(err, "SendTransaction failed")
	}
	logger.Debugf("Transaction %s accepted by orderer %s", txID, resp.Orderer)

	timeout := opts.Timeouts[fab.Commit]
	if timeout <= 0 {
		timeout = w.ctx.EndpointConfig().Timeout(fab.Commit)
	}

	h := &Handle{
		txID:         txID,
		channelID:    w.ctx.ChannelID(),
		orderer:      resp.Orderer,
		timeout:      timeout,
		submitted:    submitted,
		clock:        w.clock,
		metrics:      w.ctx.GetMetrics(),
		eventService: w.eventService,
		reg:          reg,
		future:       futurevalue.New(nil),
		cancelled:    make(chan struct{}),
	}
	go h.listen(notifier, w.clock.NewTimer(timeout))
	return h, nil
}

// prepareRequestOpts reads the request options
func (w *Waiter) prepareRequestOpts(options ...RequestOption) (requestOptions, error) {
	opts := requestOptions{}
	for _, option := range options {
		if err := option(w.ctx, &opts); err != nil {
			return opts, errors.WithMessage(err, "Failed to read opts")
		}
	}
	return opts, nil
}

// createRequestContext creates request context for grpc bounded by the
// timeout of timeoutType
func (w *Waiter) createRequestContext(opts requestOptions, timeoutType fab.TimeoutType) (reqContext.Context, reqContext.CancelFunc) {
	parent := opts.ParentContext
	if parent == nil {
		parent = reqContext.Background()
	}
	if len(opts.Timeouts) > 0 {
		parent = contextImpl.WithTimeoutOverrides(parent, opts.Timeouts)
	}
	return contextImpl.NewRequest(w.ctx, contextImpl.WithTimeoutType(timeoutType), contextImpl.WithParent(parent))
}
