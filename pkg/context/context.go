/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package context provides the client and channel contexts handed to the
// clients, and the request contexts that bound individual network calls.
package context

import (
	reqContext "context"
	"time"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
)

// Client supplies the configuration and signing identity to client objects.
type Client struct {
	fab.Providers
	msp.SigningIdentity
}

// NewClient returns a client context provider for identity
func NewClient(providers fab.Providers, identity msp.SigningIdentity) context.ClientProvider {
	return func() (context.Client, error) {
		if providers == nil {
			return nil, errors.New("providers are required")
		}
		if identity == nil {
			return nil, errors.New("signing identity is required")
		}
		return &Client{Providers: providers, SigningIdentity: identity}, nil
	}
}

// Channel supplies the client context along with the channel service of
// one channel.
type Channel struct {
	context.Client
	channelService fab.ChannelService
	channelID      string
}

// NewChannel creates the context of channelID from the client context
// returned by clientProvider
func NewChannel(clientProvider context.ClientProvider, channelID string) (*Channel, error) {
	if channelID == "" {
		return nil, errors.New("channel ID is required")
	}
	client, err := clientProvider()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to get client context to create channel client")
	}

	channelService, err := client.ChannelProvider().ChannelService(client, channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to get channel service to create channel client")
	}

	return &Channel{
		Client:         client,
		channelService: channelService,
		channelID:      channelID,
	}, nil
}

// NewChannelProvider returns a provider creating the context of channelID
func NewChannelProvider(clientProvider context.ClientProvider, channelID string) context.ChannelProvider {
	return func() (context.Channel, error) {
		return NewChannel(clientProvider, channelID)
	}
}

// ChannelService returns the channel service
func (c *Channel) ChannelService() fab.ChannelService {
	return c.channelService
}

// ChannelID returns the channel id
func (c *Channel) ChannelID() string {
	return c.channelID
}

type reqContextKey string

const (
	reqContextClient           = reqContextKey("clientContext")
	reqContextTimeoutOverrides = reqContextKey("timeout-overrides")
)

type requestParams struct {
	timeoutType   fab.TimeoutType
	timeout       time.Duration
	parentContext reqContext.Context
}

// ReqContextOptions parameter for creating requestContext
type ReqContextOptions func(opts *requestParams)

// WithTimeout sets the timeout of the request
func WithTimeout(timeout time.Duration) ReqContextOptions {
	return func(ctx *requestParams) {
		ctx.timeout = timeout
	}
}

// WithTimeoutType sets the timeout type of the request. The timeout is
// taken from the overrides of the parent context or else from the
// endpoint configuration.
func WithTimeoutType(timeoutType fab.TimeoutType) ReqContextOptions {
	return func(ctx *requestParams) {
		ctx.timeoutType = timeoutType
	}
}

// WithParent sets the parent of the request context
func WithParent(parentContext reqContext.Context) ReqContextOptions {
	return func(ctx *requestParams) {
		ctx.parentContext = parentContext
	}
}

// NewRequest creates a request-scope context carrying client and bounded
// by the resolved timeout.
func NewRequest(client context.Client, options ...ReqContextOptions) (reqContext.Context, reqContext.CancelFunc) {
	params := requestParams{timeoutType: -1}
	for _, option := range options {
		option(&params)
	}

	parentContext := params.parentContext
	if parentContext == nil {
		parentContext = reqContext.Background()
	}

	timeout := params.timeout
	if timeout == 0 && params.timeoutType >= 0 {
		if override, ok := TimeoutOverrides(parentContext)[params.timeoutType]; ok && override > 0 {
			timeout = override
		} else {
			timeout = client.EndpointConfig().Timeout(params.timeoutType)
		}
	}

	ctx := reqContext.WithValue(parentContext, reqContextClient, client)
	if timeout <= 0 {
		return reqContext.WithCancel(ctx)
	}
	return reqContext.WithTimeout(ctx, timeout)
}

// RequestClientContext extracts the client context from a request context
func RequestClientContext(ctx reqContext.Context) (context.Client, bool) {
	client, ok := ctx.Value(reqContextClient).(context.Client)
	return client, ok
}

// WithTimeoutOverrides returns a child of ctx carrying per-type timeouts
// that take precedence over the configured ones
func WithTimeoutOverrides(ctx reqContext.Context, timeouts map[fab.TimeoutType]time.Duration) reqContext.Context {
	return reqContext.WithValue(ctx, reqContextTimeoutOverrides, timeouts)
}

// TimeoutOverrides returns the timeout overrides carried by ctx
func TimeoutOverrides(ctx reqContext.Context) map[fab.TimeoutType]time.Duration {
	timeouts, _ := ctx.Value(reqContextTimeoutOverrides).(map[fab.TimeoutType]time.Duration)
	return timeouts
}
