/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fab builds the immutable network configuration used by every
// client: peers, orderers, organizations, channels and timeouts.
package fab

import (
	"crypto/tls"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/config/lookup"
	"github.com/fabric-orchestrator/orchestrator/pkg/util/pathvar"
)

var logger = logging.NewLogger("orchestrator/fab")

const (
	defaultPeerConnectionTimeout    = time.Second * 10
	defaultProposalTimeout          = time.Minute * 2
	defaultDeployTimeout            = time.Minute * 2
	defaultCommitTimeout            = time.Minute * 2
	defaultOrdererConnectionTimeout = time.Second * 15
	defaultOrdererResponseTimeout   = time.Minute * 2
	defaultEventRegTimeout          = time.Second * 15
)

var timeoutKeys = map[fab.TimeoutType]struct {
	key string
	def time.Duration
}{
	fab.PeerConnection:    {"client.peer.timeout.connection", defaultPeerConnectionTimeout},
	fab.Proposal:          {"client.timeouts.proposal", defaultProposalTimeout},
	fab.Deploy:            {"client.timeouts.deploy", defaultDeployTimeout},
	fab.Commit:            {"client.timeouts.commit", defaultCommitTimeout},
	fab.OrdererConnection: {"client.orderer.timeout.connection", defaultOrdererConnectionTimeout},
	fab.OrdererResponse:   {"client.orderer.timeout.response", defaultOrdererResponseTimeout},
	fab.EventReg:          {"client.eventService.timeout.registration", defaultEventRegTimeout},
}

// ConfigFromBackend returns the endpoint configuration read from the given
// backends. The result is never modified after it is returned.
func ConfigFromBackend(coreBackend ...core.ConfigBackend) (*EndpointConfig, error) {
	config := &EndpointConfig{
		backend:  lookup.New(coreBackend...),
		timeouts: make(map[fab.TimeoutType]time.Duration),
	}

	if err := config.loadEndpointConfiguration(); err != nil {
		return nil, errors.WithMessage(err, "network configuration load failed")
	}

	return config, nil
}

// EndpointConfig is the endpoint configuration of the client
type EndpointConfig struct {
	backend                  *lookup.ConfigLookup
	clientConfig             *fab.ClientConfig
	networkConfig            *fab.NetworkConfig
	timeouts                 map[fab.TimeoutType]time.Duration
	peerConfigsByOrg         map[string][]fab.PeerConfig
	peerMSPIDs               map[string]string
	networkPeers             []fab.NetworkPeer
	ordererConfigs           []fab.OrdererConfig
	channelPeersByChannel    map[string][]fab.ChannelPeer
	channelOrderersByChannel map[string][]fab.OrdererConfig
	tlsClientCerts           []tls.Certificate
}

// Timeout returns the configured timeout of tType or its default
func (c *EndpointConfig) Timeout(tType fab.TimeoutType) time.Duration {
	return c.timeouts[tType]
}

// Client returns the client section
func (c *EndpointConfig) Client() *fab.ClientConfig {
	return c.clientConfig
}

// NetworkConfig returns the whole network definition
func (c *EndpointConfig) NetworkConfig() *fab.NetworkConfig {
	return c.networkConfig
}

// OrganizationConfig returns the named organization
func (c *EndpointConfig) OrganizationConfig(org string) (*fab.OrganizationConfig, bool) {
	orgConfig, ok := c.networkConfig.Organizations[strings.ToLower(org)]
	if !ok {
		return nil, false
	}
	return &orgConfig, true
}

// OrderersConfig returns every configured orderer ordered by name
func (c *EndpointConfig) OrderersConfig() []fab.OrdererConfig {
	return c.ordererConfigs
}

// OrdererConfig returns the orderer with the given name or URL
func (c *EndpointConfig) OrdererConfig(nameOrURL string) (*fab.OrdererConfig, bool) {
	if cfg, ok := c.networkConfig.Orderers[strings.ToLower(nameOrURL)]; ok {
		return &cfg, true
	}
	for _, cfg := range c.ordererConfigs {
		if cfg.URL == nameOrURL {
			cfg := cfg
			return &cfg, true
		}
	}
	return nil, false
}

// PeersConfig returns the peers of org
func (c *EndpointConfig) PeersConfig(org string) ([]fab.PeerConfig, bool) {
	peers, ok := c.peerConfigsByOrg[strings.ToLower(org)]
	return peers, ok
}

// PeerConfig returns the peer with the given name or URL
func (c *EndpointConfig) PeerConfig(nameOrURL string) (*fab.PeerConfig, bool) {
	if cfg, ok := c.networkConfig.Peers[strings.ToLower(nameOrURL)]; ok {
		return &cfg, true
	}
	for _, p := range c.networkPeers {
		if p.URL == nameOrURL {
			cfg := p.PeerConfig
			return &cfg, true
		}
	}
	return nil, false
}

// NetworkPeers returns every peer that belongs to an organization
func (c *EndpointConfig) NetworkPeers() []fab.NetworkPeer {
	return c.networkPeers
}

// ChannelConfig returns the named channel
func (c *EndpointConfig) ChannelConfig(name string) (*fab.ChannelEndpointConfig, bool) {
	ch, ok := c.networkConfig.Channels[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &ch, true
}

// ChannelPeers returns the peers of the named channel
func (c *EndpointConfig) ChannelPeers(name string) []fab.ChannelPeer {
	return c.channelPeersByChannel[strings.ToLower(name)]
}

// ChannelOrderers returns the orderers of the named channel. A channel that
// names none falls back to every configured orderer.
func (c *EndpointConfig) ChannelOrderers(name string) []fab.OrdererConfig {
	if orderers, ok := c.channelOrderersByChannel[strings.ToLower(name)]; ok && len(orderers) > 0 {
		return orderers
	}
	return c.ordererConfigs
}

// TLSClientCerts returns the client certificates used for mutual TLS
func (c *EndpointConfig) TLSClientCerts() []tls.Certificate {
	return c.tlsClientCerts
}

func (c *EndpointConfig) loadEndpointConfiguration() error {
	entity := endpointConfigEntity{}

	if err := c.backend.UnmarshalKey("client", &entity.Client); err != nil {
		return errors.WithMessage(err, "failed to parse 'client' config item")
	}
	logger.Debugf("Client is: %+v", entity.Client)

	if err := c.backend.UnmarshalKey("channels", &entity.Channels, lookup.WithUnmarshalHookFunction(peerChannelConfigHookFunc())); err != nil {
		return errors.WithMessage(err, "failed to parse 'channels' config item")
	}

	if err := c.backend.UnmarshalKey("organizations", &entity.Organizations); err != nil {
		return errors.WithMessage(err, "failed to parse 'organizations' config item")
	}

	if err := c.backend.UnmarshalKey("orderers", &entity.Orderers); err != nil {
		return errors.WithMessage(err, "failed to parse 'orderers' config item")
	}

	if err := c.backend.UnmarshalKey("peers", &entity.Peers); err != nil {
		return errors.WithMessage(err, "failed to parse 'peers' config item")
	}

	c.loadTimeouts()

	if err := c.loadClientConfig(&entity); err != nil {
		return err
	}

	if err := c.loadNetworkConfig(&entity); err != nil {
		return err
	}

	c.loadPeerConfigsByOrg()
	c.loadOrdererConfigs()

	if err := c.loadChannels(); err != nil {
		return errors.WithMessage(err, "failed to load channels")
	}

	return nil
}

func (c *EndpointConfig) loadTimeouts() {
	for tType, t := range timeoutKeys {
		timeout := c.backend.GetDuration(t.key)
		if timeout <= 0 {
			timeout = t.def
		}
		c.timeouts[tType] = timeout
	}
}

func (c *EndpointConfig) loadClientConfig(entity *endpointConfigEntity) error {
	client := &entity.Client
	client.Organization = strings.ToLower(client.Organization)

	keyPair := &client.TLSCerts.Client
	keyPair.Key.Path = pathvar.Subst(keyPair.Key.Path)
	keyPair.Cert.Path = pathvar.Subst(keyPair.Cert.Path)

	if err := keyPair.Key.LoadBytes(); err != nil {
		return errors.WithMessage(err, "failed to load client key")
	}
	if err := keyPair.Cert.LoadBytes(); err != nil {
		return errors.WithMessage(err, "failed to load client cert")
	}

	if len(keyPair.Cert.Bytes()) > 0 || len(keyPair.Key.Bytes()) > 0 {
		clientCert, err := tls.X509KeyPair(keyPair.Cert.Bytes(), keyPair.Key.Bytes())
		if err != nil {
			return errors.Wrap(err, "failed to load client TLS key pair")
		}
		c.tlsClientCerts = []tls.Certificate{clientCert}
	}

	c.clientConfig = &fab.ClientConfig{
		Organization: client.Organization,
		LoggingLevel: client.Logging.Level,
		CredentialStore: fab.CredentialStoreConfig{
			Type: strings.ToLower(client.CredentialStore.Type),
			Path: pathvar.Subst(client.CredentialStore.Path),
		},
		TLSCerts: fab.ClientTLSConfig{
			CertPath: keyPair.Cert.Path,
			KeyPath:  keyPair.Key.Path,
		},
	}
	return nil
}

func (c *EndpointConfig) loadNetworkConfig(entity *endpointConfigEntity) error {
	networkConfig := fab.NetworkConfig{
		Name:          c.backend.GetString("name"),
		Channels:      make(map[string]fab.ChannelEndpointConfig),
		Organizations: make(map[string]fab.OrganizationConfig),
		Orderers:      make(map[string]fab.OrdererConfig),
		Peers:         make(map[string]fab.PeerConfig),
	}

	for chID, chCfg := range entity.Channels {
		chPeers := make(map[string]fab.PeerChannelConfig)
		for name, p := range chCfg.Peers {
			chPeers[strings.ToLower(name)] = fab.PeerChannelConfig{
				EndorsingPeer:  p.EndorsingPeer,
				ChaincodeQuery: p.ChaincodeQuery,
				LedgerQuery:    p.LedgerQuery,
				EventSource:    p.EventSource,
			}
		}
		networkConfig.Channels[strings.ToLower(chID)] = fab.ChannelEndpointConfig{
			Peers:    chPeers,
			Orderers: lowerAll(chCfg.Orderers),
		}
	}

	for orgName, orgCfg := range entity.Organizations {
		users := make(map[string]fab.CertKeyPair)
		for user, pair := range orgCfg.Users {
			pair.Key.Path = pathvar.Subst(pair.Key.Path)
			pair.Cert.Path = pathvar.Subst(pair.Cert.Path)
			if err := pair.Key.LoadBytes(); err != nil {
				return errors.WithMessagef(err, "failed to load key of user %s in org %s", user, orgName)
			}
			if err := pair.Cert.LoadBytes(); err != nil {
				return errors.WithMessagef(err, "failed to load cert of user %s in org %s", user, orgName)
			}
			users[strings.ToLower(user)] = fab.CertKeyPair{Cert: pair.Cert.Bytes(), Key: pair.Key.Bytes()}
		}
		networkConfig.Organizations[strings.ToLower(orgName)] = fab.OrganizationConfig{
			MSPID:      orgCfg.MSPID,
			CryptoPath: pathvar.Subst(orgCfg.CryptoPath),
			Users:      users,
			Peers:      lowerAll(orgCfg.Peers),
		}
	}

	for name, ordererCfg := range entity.Orderers {
		ordererCfg.TLSCACerts.Path = pathvar.Subst(ordererCfg.TLSCACerts.Path)
		if err := ordererCfg.TLSCACerts.LoadBytes(); err != nil {
			return errors.WithMessagef(err, "failed to load TLS CA cert of orderer %s", name)
		}
		tlsCert, _, err := ordererCfg.TLSCACerts.TLSCert()
		if err != nil {
			return errors.WithMessagef(err, "invalid TLS CA cert of orderer %s", name)
		}
		if ordererCfg.URL == "" {
			return errors.Errorf("orderer %s has no url", name)
		}
		networkConfig.Orderers[strings.ToLower(name)] = fab.OrdererConfig{
			Name:        strings.ToLower(name),
			URL:         ordererCfg.URL,
			GRPCOptions: ordererCfg.GRPCOptions,
			TLSCACert:   tlsCert,
		}
	}

	for name, peerCfg := range entity.Peers {
		peerCfg.TLSCACerts.Path = pathvar.Subst(peerCfg.TLSCACerts.Path)
		if err := peerCfg.TLSCACerts.LoadBytes(); err != nil {
			return errors.WithMessagef(err, "failed to load TLS CA cert of peer %s", name)
		}
		tlsCert, _, err := peerCfg.TLSCACerts.TLSCert()
		if err != nil {
			return errors.WithMessagef(err, "invalid TLS CA cert of peer %s", name)
		}
		if peerCfg.URL == "" {
			return errors.Errorf("peer %s has no url", name)
		}
		networkConfig.Peers[strings.ToLower(name)] = fab.PeerConfig{
			Name:        strings.ToLower(name),
			URL:         peerCfg.URL,
			GRPCOptions: peerCfg.GRPCOptions,
			TLSCACert:   tlsCert,
		}
	}

	if org := c.clientConfig.Organization; org != "" {
		if _, ok := networkConfig.Organizations[org]; !ok {
			return errors.Errorf("client organization %s is not defined", org)
		}
	}

	c.networkConfig = &networkConfig
	return nil
}

func (c *EndpointConfig) loadPeerConfigsByOrg() {
	c.peerConfigsByOrg = make(map[string][]fab.PeerConfig)
	c.peerMSPIDs = make(map[string]string)
	c.networkPeers = nil

	for _, orgName := range sortedKeys(c.networkConfig.Organizations) {
		orgConfig := c.networkConfig.Organizations[orgName]
		var peers []fab.PeerConfig
		for _, peerName := range orgConfig.Peers {
			p, ok := c.networkConfig.Peers[peerName]
			if !ok {
				logger.Warnf("Peer [%s] of organization [%s] is not configured", peerName, orgName)
				continue
			}
			peers = append(peers, p)
			c.peerMSPIDs[peerName] = orgConfig.MSPID
			c.networkPeers = append(c.networkPeers, fab.NetworkPeer{PeerConfig: p, MSPID: orgConfig.MSPID})
		}
		c.peerConfigsByOrg[orgName] = peers
	}
}

func (c *EndpointConfig) loadOrdererConfigs() {
	c.ordererConfigs = nil
	for _, name := range sortedKeys(c.networkConfig.Orderers) {
		c.ordererConfigs = append(c.ordererConfigs, c.networkConfig.Orderers[name])
	}
}

func (c *EndpointConfig) loadChannels() error {
	c.channelPeersByChannel = make(map[string][]fab.ChannelPeer)
	c.channelOrderersByChannel = make(map[string][]fab.OrdererConfig)

	for chID, chConfig := range c.networkConfig.Channels {
		var peers []fab.ChannelPeer
		for _, peerName := range sortedKeys(chConfig.Peers) {
			p, ok := c.networkConfig.Peers[peerName]
			if !ok {
				return errors.Errorf("channel %s references unknown peer %s", chID, peerName)
			}
			mspID, ok := c.peerMSPIDs[peerName]
			if !ok {
				return errors.Errorf("peer %s of channel %s does not belong to an organization", peerName, chID)
			}
			peers = append(peers, fab.ChannelPeer{
				PeerChannelConfig: chConfig.Peers[peerName],
				NetworkPeer:       fab.NetworkPeer{PeerConfig: p, MSPID: mspID},
			})
		}
		c.channelPeersByChannel[chID] = peers

		var orderers []fab.OrdererConfig
		for _, name := range chConfig.Orderers {
			o, ok := c.networkConfig.Orderers[name]
			if !ok {
				return errors.Errorf("channel %s references unknown orderer %s", chID, name)
			}
			orderers = append(orderers, o)
		}
		c.channelOrderersByChannel[chID] = orderers
	}
	return nil
}

// peerChannelConfigHookFunc defaults every missing channel peer role to true
func peerChannelConfigHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(PeerChannelConfig{}) {
			return data, nil
		}
		dataMap, ok := data.(map[string]interface{})
		if !ok {
			return data, nil
		}
		for _, key := range []string{"endorsingpeer", "chaincodequery", "ledgerquery", "eventsource"} {
			if _, ok := dataMap[key]; !ok {
				dataMap[key] = true
			}
		}
		return dataMap, nil
	}
}

func lowerAll(names []string) []string {
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	return lowered
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
