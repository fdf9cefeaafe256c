/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package channel invokes and queries chaincode deployed on a channel.
//
// Invoke endorses a transaction and checks the endorsements before anything
// is sent to the ordering service: the endorsers must agree on one ledger
// effect, every endorsement must be verified and successful, the endorsers
// must have run the requested chaincode and the effect must carry a
// read/write set. Submitting the endorsed transaction is a second stage
// performed by the commit waiter; Execute chains both.
//
//  Basic Flow:
//  1) Prepare channel context
//  2) Create channel client
//  3) Invoke chaincode and submit the returned transaction request, or
//     Execute to do both
//  4) Query chaincode
package channel

import (
	reqContext "context"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/client/channel/invoke"
	"github.com/fabric-orchestrator/orchestrator/pkg/client/commit"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/retry"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	contextImpl "github.com/fabric-orchestrator/orchestrator/pkg/context"
)

var logger = logging.NewLogger("orchestrator/client")

// Client enables access to a channel on a Fabric network.
//
// A channel client instance provides a handler to interact with peers on specified channel.
// An application that requires interaction with multiple channels should create a separate
// instance of the channel client for each channel.
type Client struct {
	context    context.Channel
	filter     fab.TargetFilter
	waiter     *commit.Waiter
	waiterOpts []commit.Option
}

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*Client) error

// WithTargetFilter option to configure new
func WithTargetFilter(filter fab.TargetFilter) ClientOption {
	return func(client *Client) error {
		client.filter = filter
		return nil
	}
}

// WithCommitOptions passes options to the commit waiter used by Execute
func WithCommitOptions(opts ...commit.Option) ClientOption {
	return func(client *Client) error {
		client.waiterOpts = append(client.waiterOpts, opts...)
		return nil
	}
}

// New returns a Client instance.
func New(channelProvider context.ChannelProvider, opts ...ClientOption) (*Client, error) {
	channelContext, err := channelProvider()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel context")
	}

	if channelContext.ChannelService() == nil {
		return nil, errors.New("channel service not initialized")
	}

	channelClient := Client{context: channelContext}
	for _, param := range opts {
		if err := param(&channelClient); err != nil {
			return nil, err
		}
	}

	waiter, err := commit.New(func() (context.Channel, error) { return channelContext, nil }, channelClient.waiterOpts...)
	if err != nil {
		return nil, errors.WithMessage(err, "commit waiter creation failed")
	}
	channelClient.waiter = waiter

	return &channelClient, nil
}

// Query chaincode using request and optional options provided. Every
// target must return a verified successful response.
func (cc *Client) Query(request Request, options ...RequestOption) (Response, error) {
	return cc.InvokeHandler(invoke.NewQueryHandler(), request, options...)
}

// Invoke endorses a transaction. The returned response holds the agreed
// endorsements; its TransactionRequest is what the commit waiter submits.
// A failed proposal round is never retried.
func (cc *Client) Invoke(request Request, options ...RequestOption) (Response, error) {
	return cc.InvokeHandler(invoke.NewInvokeHandler(), request, append(options, withoutRetry())...)
}

// Execute invokes the transaction, submits it and waits for its commit
// within the commit timeout. The response of a committed transaction
// carries the Outcome; an endorsement error returns before anything is
// submitted.
func (cc *Client) Execute(request Request, options ...RequestOption) (Response, error) {
	response, err := cc.Invoke(request, options...)
	if err != nil {
		return response, err
	}

	txnOpts, err := cc.prepareOptsFromOptions(cc.context, options...)
	if err != nil {
		return response, err
	}

	var commitOpts []commit.RequestOption
	for timeoutType, timeout := range txnOpts.Timeouts {
		commitOpts = append(commitOpts, commit.WithTimeout(timeoutType, timeout))
	}
	if txnOpts.ParentContext != nil {
		commitOpts = append(commitOpts, commit.WithParentContext(txnOpts.ParentContext))
	}
	if txnOpts.Signer != nil {
		commitOpts = append(commitOpts, commit.WithIdentity(txnOpts.Signer))
	}

	handle, err := cc.waiter.Submit(response.TransactionRequest(), commitOpts...)
	if err != nil {
		return response, errors.WithMessage(err, "submitting transaction failed")
	}

	outcome, err := handle.Await(0)
	response.Outcome = outcome
	if outcome != nil {
		response.TxValidationCode = outcome.ValidationCode
	}
	return response, err
}

//InvokeHandler invokes handler using request and options provided
func (cc *Client) InvokeHandler(handler invoke.Handler, request Request, options ...RequestOption) (Response, error) {
	//Read execute tx options
	txnOpts, err := cc.prepareOptsFromOptions(cc.context, options...)
	if err != nil {
		return Response{}, err
	}

	//Prepare context objects for handler
	requestContext, clientContext, err := cc.prepareHandlerContexts(request, txnOpts)
	if err != nil {
		return Response{}, err
	}

	reqCtx, cancel := cc.createRequestContext(txnOpts)
	defer cancel()
	requestContext.Ctx = reqCtx

	complete := make(chan bool, 1)

	go func() {
		for {
			//Perform action through handler
			handler.Handle(requestContext, clientContext)
			if !cc.resolveRetry(requestContext, txnOpts) {
				break
			}
		}
		complete <- true
	}()
	select {
	case <-complete:
		return newResponse(requestContext.Response), requestContext.Error
	case <-reqCtx.Done():
		return Response{}, status.New(status.ClientStatus, status.Timeout.ToInt32(),
			"request timed out or been cancelled", nil)
	}
}

func newResponse(r invoke.Response) Response {
	return Response{
		Payload:          r.Payload,
		TransactionID:    r.TransactionID,
		ChaincodeStatus:  r.ChaincodeStatus,
		TxValidationCode: r.TxValidationCode,
		Proposal:         r.Proposal,
		Responses:        r.Responses,
	}
}

// resolveRetry decides on the statuses of the rejected endorsements, so a
// query failing on an unreachable peer is retried like the transport error
func (cc *Client) resolveRetry(ctx *invoke.RequestContext, o requestOptions) bool {
	if ctx.Error == nil {
		return false
	}

	causes := []error{ctx.Error}
	for i := range ctx.Endorsements {
		if s := ctx.Endorsements[i].Status(ctx.Response.TransactionID); s != nil {
			causes = append(causes, s)
		}
	}
	for _, e := range causes {
		if ctx.RetryHandler.Required(e) {
			logger.Infof("Retrying on error %s", e)

			// Reset context parameters
			ctx.Opts.Targets = o.Targets
			ctx.Error = nil
			ctx.Response = invoke.Response{}
			ctx.Endorsements = nil

			return true
		}
	}
	return false
}

//prepareHandlerContexts prepares context objects for handlers
func (cc *Client) prepareHandlerContexts(request Request, o requestOptions) (*invoke.RequestContext, *invoke.ClientContext, error) {
	if request.ChaincodeID == "" || request.Fcn == "" {
		return nil, nil, status.NewPrecondition("ChaincodeID and Fcn are required")
	}
	if request.Args == nil {
		return nil, nil, status.NewPrecondition("Args are required, use an empty list for none")
	}

	var signer msp.SigningIdentity = cc.context
	if o.Signer != nil {
		signer = o.Signer
	}

	filter := o.TargetFilter
	if filter == nil {
		filter = cc.filter
	}

	clientContext := &invoke.ClientContext{
		ChannelID:      cc.context.ChannelID(),
		Signer:         signer,
		Verifier:       cc.context.ResponseVerifier(),
		ChannelService: cc.context.ChannelService(),
		Metrics:        cc.context.GetMetrics(),
	}

	requestContext := &invoke.RequestContext{
		Request: invoke.Request(request),
		Opts: invoke.Opts{
			Targets:         o.Targets,
			TargetFilter:    filter,
			Retry:           o.Retry,
			Timeouts:        o.Timeouts,
			ParentContext:   o.ParentContext,
			ExpectedPayload: o.ExpectedPayload,
		},
		Response:     invoke.Response{},
		RetryHandler: retry.New(o.Retry),
	}

	return requestContext, clientContext, nil
}

//prepareOptsFromOptions Reads apitxn.Opts from Option array
func (cc *Client) prepareOptsFromOptions(ctx context.Client, options ...RequestOption) (requestOptions, error) {
	txnOpts := requestOptions{}
	for _, option := range options {
		err := option(ctx, &txnOpts)
		if err != nil {
			return txnOpts, errors.WithMessage(err, "Failed to read opts")
		}
	}
	return txnOpts, nil
}

// createRequestContext creates the request context bounded by the proposal
// timeout, which covers every retry of the request
func (cc *Client) createRequestContext(o requestOptions) (reqContext.Context, reqContext.CancelFunc) {
	parent := o.ParentContext
	if parent == nil {
		parent = reqContext.Background()
	}
	if len(o.Timeouts) > 0 {
		parent = contextImpl.WithTimeoutOverrides(parent, o.Timeouts)
	}
	return contextImpl.NewRequest(cc.context, contextImpl.WithTimeoutType(fab.Proposal), contextImpl.WithParent(parent))
}
