/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commit

import (
	reqContext "context"
	"time"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	fabImpl "github.com/fabric-orchestrator/orchestrator/pkg/fab"
)

// requestOptions contains options for a submission
type requestOptions struct {
	Orderers      []fab.Orderer                     // orderers to broadcast to
	Timeouts      map[fab.TimeoutType]time.Duration // overrides of the config timeouts
	ParentContext reqContext.Context                // parent grpc context
	Signer        msp.SigningIdentity               // signs the envelope instead of the channel identity
}

// RequestOption func for each Opts argument
type RequestOption func(ctx context.Client, opts *requestOptions) error

// WithOrderers sets the orderers the transaction is broadcast to. They are
// tried in random order until one accepts the envelope.
func WithOrderers(orderers ...fab.Orderer) RequestOption {
	return func(ctx context.Client, opts *requestOptions) error {
		for _, o := range orderers {
			if o == nil {
				return errors.New("orderer is nil")
			}
		}
		opts.Orderers = orderers
		return nil
	}
}

// WithOrdererEndpoints sets the orderers by configured name or URL
func WithOrdererEndpoints(keys ...string) RequestOption {
	return func(ctx context.Client, opts *requestOptions) error {
		configs, err := fabImpl.OrdererConfigs(ctx.EndpointConfig(), keys...)
		if err != nil {
			return err
		}
		var orderers []fab.Orderer
		for i := range configs {
			orderer, err := ctx.InfraProvider().CreateOrdererFromConfig(&configs[i])
			if err != nil {
				return errors.WithMessage(err, "creating orderer from config failed")
			}
			orderers = append(orderers, orderer)
		}
		return WithOrderers(orderers...)(ctx, opts)
	}
}

// WithTimeout overrides the configured timeout of timeoutType. fab.Commit
// bounds Await when it is called without a timeout, fab.OrdererResponse
// bounds the broadcast.
func WithTimeout(timeoutType fab.TimeoutType, timeout time.Duration) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		if o.Timeouts == nil {
			o.Timeouts = make(map[fab.TimeoutType]time.Duration)
		}
		o.Timeouts[timeoutType] = timeout
		return nil
	}
}

// WithParentContext encapsulates grpc parent context
func WithParentContext(parentContext reqContext.Context) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		o.ParentContext = parentContext
		return nil
	}
}

// WithIdentity signs the transaction envelope with identity
func WithIdentity(identity msp.SigningIdentity) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		if identity == nil {
			return errors.New("identity is nil")
		}
		o.Signer = identity
		return nil
	}
}
