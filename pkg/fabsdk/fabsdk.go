/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fabsdk wires the configuration, identity store, network nodes
// and metrics of the client. It hands out the client and channel contexts
// from which the lifecycle, channel and commit clients are created.
package fabsdk

import (
	"github.com/hyperledger/fabric-lib-go/bccsp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/options"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/api"
	fabImpl "github.com/fabric-orchestrator/orchestrator/pkg/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/chpvdr"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/fabpvdr"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/keyvaluestore"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/signature"
	"github.com/fabric-orchestrator/orchestrator/pkg/fabsdk/metrics"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp"
)

var logger = logging.NewLogger("orchestrator/sdk")

// modules whose level follows client.logging.level
var loggerModules = []string{
	"orchestrator/sdk",
	"orchestrator/client",
	"orchestrator/fab",
	"orchestrator/msp",
	"orchestrator/util",
	"orchestrator/common",
	"orchestrator/core",
}

// FabricSDK provides access (and context) to clients being managed by the SDK
type FabricSDK struct {
	opts sdkOptions

	endpointConfig  fab.EndpointConfig
	stateStore      core.KVStore
	identityStore   *msp.IdentityStore
	infraProvider   *fabpvdr.InfraProvider
	channelProvider *chpvdr.ChannelProvider
	verifier        fab.ResponseVerifier
	clientMetrics   *metrics.ClientMetrics
}

type sdkOptions struct {
	loggerProvider api.LoggerProvider
	registerer     prometheus.Registerer
	stateStore     core.KVStore
	verifier       fab.ResponseVerifier
	cryptoSuite    bccsp.BCCSP
	eventOpts      []options.Opt
}

// Option configures the SDK
type Option func(opts *sdkOptions) error

// WithLoggerProvider replaces the default zap logger provider
func WithLoggerProvider(provider api.LoggerProvider) Option {
	return func(opts *sdkOptions) error {
		opts.loggerProvider = provider
		return nil
	}
}

// WithMetrics registers the client metrics on registerer. Metrics are
// discarded otherwise.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(opts *sdkOptions) error {
		opts.registerer = registerer
		return nil
	}
}

// WithStateStore keeps users and channel topologies in store instead of
// the configured credential store
func WithStateStore(store core.KVStore) Option {
	return func(opts *sdkOptions) error {
		if store == nil {
			return errors.New("state store is nil")
		}
		opts.stateStore = store
		return nil
	}
}

// WithResponseVerifier replaces the verifier of endorsement signatures
func WithResponseVerifier(verifier fab.ResponseVerifier) Option {
	return func(opts *sdkOptions) error {
		opts.verifier = verifier
		return nil
	}
}

// WithCryptoSuite sets the suite used to sign and verify. It becomes the
// process default unless a default is already in use.
func WithCryptoSuite(cs bccsp.BCCSP) Option {
	return func(opts *sdkOptions) error {
		if cs == nil {
			return errors.New("crypto suite is nil")
		}
		opts.cryptoSuite = cs
		return nil
	}
}

// WithEventServiceOptions applies opts to every deliver event client
func WithEventServiceOptions(opts ...options.Opt) Option {
	return func(o *sdkOptions) error {
		o.eventOpts = append(o.eventOpts, opts...)
		return nil
	}
}

// New initializes the SDK from the configuration returned by configProvider
func New(configProvider core.ConfigProvider, opts ...Option) (*FabricSDK, error) {
	sdk := &FabricSDK{}
	for _, option := range opts {
		if err := option(&sdk.opts); err != nil {
			return nil, errors.WithMessage(err, "Error in option passed to New")
		}
	}

	if sdk.opts.loggerProvider != nil {
		logging.Initialize(sdk.opts.loggerProvider)
	}

	if configProvider == nil {
		return nil, errors.New("config provider is required")
	}
	backends, err := configProvider()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to initialize configuration")
	}
	config, err := fabImpl.ConfigFromBackend(backends...)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to initialize endpoint configuration")
	}
	sdk.endpointConfig = config

	if err := initLogLevel(config.Client().LoggingLevel); err != nil {
		return nil, err
	}

	if sdk.opts.cryptoSuite != nil {
		if cryptosuite.DefaultInitialized() {
			logger.Warn("default crypto suite is already in use, the configured suite only verifies endorsements")
		} else if err := cryptosuite.SetDefault(sdk.opts.cryptoSuite); err != nil {
			return nil, errors.WithMessage(err, "failed to set default crypto suite")
		}
	}

	sdk.stateStore = sdk.opts.stateStore
	if sdk.stateStore == nil {
		store, err := keyvaluestore.New(config.Client().CredentialStore)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to initialize state store")
		}
		sdk.stateStore = store
	}

	identityStore, err := msp.NewIdentityStore(config, sdk.stateStore)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to initialize identity store")
	}
	sdk.identityStore = identityStore

	sdk.clientMetrics = metrics.NewDisabled()
	if sdk.opts.registerer != nil {
		sdk.clientMetrics = metrics.New(sdk.opts.registerer)
	}

	sdk.verifier = sdk.opts.verifier
	if sdk.verifier == nil {
		var verifierOpts []signature.Option
		if sdk.opts.cryptoSuite != nil {
			verifierOpts = append(verifierOpts, signature.WithCryptoSuite(sdk.opts.cryptoSuite))
		}
		sdk.verifier = signature.New(verifierOpts...)
	}

	sdk.infraProvider = fabpvdr.New(config, sdk.opts.eventOpts...)
	sdk.channelProvider = chpvdr.New()

	logger.Debugf("SDK initialized for organization %s", config.Client().Organization)
	return sdk, nil
}

func initLogLevel(level string) error {
	if level == "" {
		return nil
	}
	l, err := logging.LogLevel(level)
	if err != nil {
		return errors.WithMessage(err, "invalid client.logging.level")
	}
	for _, module := range loggerModules {
		logging.SetLevel(module, l)
	}
	return nil
}

// Close frees up caches and connections being maintained by the SDK
func (sdk *FabricSDK) Close() {
	logger.Debug("SDK closing")
	sdk.infraProvider.Close()
	if closer, ok := sdk.stateStore.(interface{ Close() }); ok && sdk.opts.stateStore == nil {
		closer.Close()
	}
}

// IdentityStore returns the store resolving signing identities
func (sdk *FabricSDK) IdentityStore() *msp.IdentityStore {
	return sdk.identityStore
}
