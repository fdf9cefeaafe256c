/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sync"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/fabsdk/metrics"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp/test/mockmsp"
)

// MockInfraProvider hands out one MockPeer per peer URL and one
// MockOrderer per orderer URL, so tests can configure the nodes a client
// resolves from configuration
type MockInfraProvider struct {
	EventService *MockEventService

	mutex    sync.Mutex
	peers    map[string]*MockPeer
	orderers map[string]*MockOrderer
}

// NewMockInfraProvider returns an empty infra provider
func NewMockInfraProvider() *MockInfraProvider {
	return &MockInfraProvider{
		EventService: NewMockEventService(),
		peers:        make(map[string]*MockPeer),
		orderers:     make(map[string]*MockOrderer),
	}
}

// Peer returns the MockPeer of url, creating it if necessary
func (p *MockInfraProvider) Peer(url string) *MockPeer {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	peer, ok := p.peers[url]
	if !ok {
		peer = NewMockPeer(url, url)
		p.peers[url] = peer
	}
	return peer
}

// Orderer returns the MockOrderer of url, creating it if necessary
func (p *MockInfraProvider) Orderer(url string) *MockOrderer {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	orderer, ok := p.orderers[url]
	if !ok {
		orderer = NewMockOrderer(url)
		p.orderers[url] = orderer
	}
	return orderer
}

// CreatePeerFromConfig returns the MockPeer of the configured URL. A peer
// created here takes its name and MSP from peerCfg; an existing one is
// returned unchanged.
func (p *MockInfraProvider) CreatePeerFromConfig(peerCfg *fab.NetworkPeer) (fab.Peer, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if peer, ok := p.peers[peerCfg.URL]; ok {
		return peer, nil
	}
	peer := NewMockPeer(peerCfg.Name, peerCfg.URL)
	if peerCfg.MSPID != "" {
		peer.MockMSP = peerCfg.MSPID
	}
	p.peers[peerCfg.URL] = peer
	return peer, nil
}

// CreateOrdererFromConfig returns the MockOrderer of the configured URL
func (p *MockInfraProvider) CreateOrdererFromConfig(cfg *fab.OrdererConfig) (fab.Orderer, error) {
	return p.Orderer(cfg.URL), nil
}

// CreateEventService returns the shared MockEventService
func (p *MockInfraProvider) CreateEventService(ctx fab.ClientContext, channelID string, source fab.Peer) (fab.EventService, error) {
	return p.EventService, nil
}

// Close does nothing
func (p *MockInfraProvider) Close() {}

// MockChannelService serves fixed peers, orderers and event service
type MockChannelService struct {
	MockPeers        []fab.Peer
	MockOrderers     []fab.Orderer
	MockEventService fab.EventService
}

// Peers returns the channel peers
func (s *MockChannelService) Peers() ([]fab.Peer, error) {
	return s.MockPeers, nil
}

// Orderers returns the channel orderers
func (s *MockChannelService) Orderers() ([]fab.Orderer, error) {
	return s.MockOrderers, nil
}

// EventService returns the channel event service
func (s *MockChannelService) EventService() (fab.EventService, error) {
	return s.MockEventService, nil
}

// MockChannelProvider builds channel services from configuration and the
// mock infra provider
type MockChannelProvider struct {
	infra *MockInfraProvider
}

// ChannelService returns the endorsing peers and orderers configured for
// channelID
func (cp *MockChannelProvider) ChannelService(ctx fab.ClientContext, channelID string) (fab.ChannelService, error) {
	return newMockChannelService(ctx.EndpointConfig(), cp.infra, channelID), nil
}

func newMockChannelService(config fab.EndpointConfig, infra *MockInfraProvider, channelID string) *MockChannelService {
	service := &MockChannelService{MockEventService: infra.EventService}
	for _, p := range config.ChannelPeers(channelID) {
		if !p.EndorsingPeer {
			continue
		}
		np := p.NetworkPeer
		peer, _ := infra.CreatePeerFromConfig(&np)
		service.MockPeers = append(service.MockPeers, peer)
	}
	for _, o := range config.ChannelOrderers(channelID) {
		oc := o
		orderer, _ := infra.CreateOrdererFromConfig(&oc)
		service.MockOrderers = append(service.MockOrderers, orderer)
	}
	return service
}

// MockProviders holds the providers of a mock context
type MockProviders struct {
	Config   fab.EndpointConfig
	Infra    *MockInfraProvider
	Verifier *MockVerifier
	Metrics  *metrics.ClientMetrics
}

// EndpointConfig returns the endpoint configuration
func (pv *MockProviders) EndpointConfig() fab.EndpointConfig {
	return pv.Config
}

// InfraProvider returns the mock infra provider
func (pv *MockProviders) InfraProvider() fab.InfraProvider {
	return pv.Infra
}

// ChannelProvider returns a channel provider backed by the infra provider
func (pv *MockProviders) ChannelProvider() fab.ChannelProvider {
	return &MockChannelProvider{infra: pv.Infra}
}

// ResponseVerifier returns the mock verifier
func (pv *MockProviders) ResponseVerifier() fab.ResponseVerifier {
	return pv.Verifier
}

// GetMetrics returns the client metrics
func (pv *MockProviders) GetMetrics() *metrics.ClientMetrics {
	return pv.Metrics
}

// MockContext is a client context of a mock signing identity
type MockContext struct {
	*MockProviders
	msp.SigningIdentity
}

// NewMockContext returns a context for si over NewMockConfig
func NewMockContext(si msp.SigningIdentity) *MockContext {
	return NewMockContextWithConfig(si, NewMockConfig())
}

// NewMockContextWithConfig returns a context for si over config
func NewMockContextWithConfig(si msp.SigningIdentity, config fab.EndpointConfig) *MockContext {
	return &MockContext{
		MockProviders: &MockProviders{
			Config:   config,
			Infra:    NewMockInfraProvider(),
			Verifier: NewMockVerifier(),
			Metrics:  metrics.NewDisabled(),
		},
		SigningIdentity: si,
	}
}

// NewMockAdminContext returns a context of user Admin in Org1MSP
func NewMockAdminContext() *MockContext {
	return NewMockContext(mockmsp.NewMockSigningIdentity("Admin", "Org1MSP"))
}

// Provider returns a client context provider of c
func (c *MockContext) Provider() context.ClientProvider {
	return func() (context.Client, error) {
		return c, nil
	}
}

// MockChannelContext is a channel context built on a MockContext
type MockChannelContext struct {
	*MockContext
	channelID      string
	channelService *MockChannelService
}

// NewMockChannelContext returns the context of channelID for ctx
func NewMockChannelContext(ctx *MockContext, channelID string) *MockChannelContext {
	return &MockChannelContext{
		MockContext:    ctx,
		channelID:      channelID,
		channelService: newMockChannelService(ctx.Config, ctx.Infra, channelID),
	}
}

// ChannelService returns the channel service
func (c *MockChannelContext) ChannelService() fab.ChannelService {
	return c.channelService
}

// ChannelID returns the channel id
func (c *MockChannelContext) ChannelID() string {
	return c.channelID
}

// Provider returns a channel context provider of c
func (c *MockChannelContext) Provider() context.ChannelProvider {
	return func() (context.Channel, error) {
		return c, nil
	}
}
