/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabsdk

import (
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	mspctx "github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	contextImpl "github.com/fabric-orchestrator/orchestrator/pkg/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/fabsdk/metrics"
)

type identityOptions struct {
	identity mspctx.SigningIdentity
	user     string
	org      string
}

// ContextOption provides parameters for creating a context
type ContextOption func(s *identityOptions) error

// WithUser uses the named user to load the identity
func WithUser(username string) ContextOption {
	return func(o *identityOptions) error {
		o.user = username
		return nil
	}
}

// WithIdentity uses a pre-constructed identity object as the credential for the session
func WithIdentity(signingIdentity mspctx.SigningIdentity) ContextOption {
	return func(o *identityOptions) error {
		o.identity = signingIdentity
		return nil
	}
}

// WithOrg uses the named organization instead of the client organization
func WithOrg(org string) ContextOption {
	return func(o *identityOptions) error {
		o.org = org
		return nil
	}
}

// Context creates the client context of an identity
func (sdk *FabricSDK) Context(options ...ContextOption) context.ClientProvider {
	return func() (context.Client, error) {
		identity, err := sdk.newIdentity(options...)
		if err != nil {
			return nil, err
		}
		return contextImpl.NewClient(sdk, identity)()
	}
}

// ChannelContext creates the context of channelID for an identity
func (sdk *FabricSDK) ChannelContext(channelID string, options ...ContextOption) context.ChannelProvider {
	return contextImpl.NewChannelProvider(sdk.Context(options...), channelID)
}

func (sdk *FabricSDK) newIdentity(options ...ContextOption) (mspctx.SigningIdentity, error) {
	opts := identityOptions{org: sdk.endpointConfig.Client().Organization}
	for _, option := range options {
		if err := option(&opts); err != nil {
			return nil, errors.WithMessage(err, "error in option passed to create identity")
		}
	}

	if opts.identity != nil {
		return opts.identity, nil
	}
	if opts.user == "" {
		return nil, errors.New("user name or identity is required")
	}
	if opts.org == "" {
		return nil, errors.New("organization is required")
	}

	identity, err := sdk.identityStore.GetIdentity(opts.user, opts.org)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get identity of user %s in %s", opts.user, opts.org)
	}
	return identity, nil
}

// EndpointConfig returns the endpoint configuration
func (sdk *FabricSDK) EndpointConfig() fab.EndpointConfig {
	return sdk.endpointConfig
}

// InfraProvider returns the provider of peers, orderers and event services
func (sdk *FabricSDK) InfraProvider() fab.InfraProvider {
	return sdk.infraProvider
}

// ChannelProvider returns the provider of channel services
func (sdk *FabricSDK) ChannelProvider() fab.ChannelProvider {
	return sdk.channelProvider
}

// ResponseVerifier returns the verifier of endorsements
func (sdk *FabricSDK) ResponseVerifier() fab.ResponseVerifier {
	return sdk.verifier
}

// GetMetrics returns the client metrics
func (sdk *FabricSDK) GetMetrics() *metrics.ClientMetrics {
	return sdk.clientMetrics
}
