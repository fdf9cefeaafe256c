/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

// MockConfig is an EndpointConfig built from plain fields
type MockConfig struct {
	Timeouts      map[fab.TimeoutType]time.Duration
	ClientConfig  fab.ClientConfig
	Organizations map[string]fab.OrganizationConfig
	Peers         []fab.NetworkPeer
	Orderers      []fab.OrdererConfig
	Channels      map[string]fab.ChannelEndpointConfig
	ClientCerts   []tls.Certificate
}

// NewMockConfig returns a configuration of organization org1 (Org1MSP)
// with peers peer0 and peer1 and a single orderer, all members of channel
// mychannel
func NewMockConfig() *MockConfig {
	peers := []fab.NetworkPeer{
		{PeerConfig: fab.PeerConfig{Name: "peer0.org1.example.com", URL: "peer0.org1.example.com:7051"}, MSPID: "Org1MSP"},
		{PeerConfig: fab.PeerConfig{Name: "peer1.org1.example.com", URL: "peer1.org1.example.com:7051"}, MSPID: "Org1MSP"},
	}
	roles := fab.PeerChannelConfig{EndorsingPeer: true, ChaincodeQuery: true, LedgerQuery: true, EventSource: true}
	return &MockConfig{
		Timeouts: map[fab.TimeoutType]time.Duration{
			fab.PeerConnection:    time.Second,
			fab.Proposal:          3 * time.Second,
			fab.Deploy:            5 * time.Second,
			fab.Commit:            5 * time.Second,
			fab.OrdererConnection: time.Second,
			fab.OrdererResponse:   3 * time.Second,
			fab.EventReg:          time.Second,
		},
		ClientConfig: fab.ClientConfig{Organization: "org1"},
		Organizations: map[string]fab.OrganizationConfig{
			"org1": {MSPID: "Org1MSP", Peers: []string{peers[0].Name, peers[1].Name}},
		},
		Peers:    peers,
		Orderers: []fab.OrdererConfig{{Name: "orderer.example.com", URL: "orderer.example.com:7050"}},
		Channels: map[string]fab.ChannelEndpointConfig{
			"mychannel": {
				Orderers: []string{"orderer.example.com"},
				Peers:    map[string]fab.PeerChannelConfig{peers[0].Name: roles, peers[1].Name: roles},
			},
		},
	}
}

// Timeout returns the configured timeout of tType
func (c *MockConfig) Timeout(tType fab.TimeoutType) time.Duration {
	return c.Timeouts[tType]
}

// Client returns the client configuration
func (c *MockConfig) Client() *fab.ClientConfig {
	return &c.ClientConfig
}

// OrganizationConfig returns the configuration of org
func (c *MockConfig) OrganizationConfig(org string) (*fab.OrganizationConfig, bool) {
	orgConfig, ok := c.Organizations[strings.ToLower(org)]
	if !ok {
		return nil, false
	}
	return &orgConfig, true
}

// OrderersConfig returns all orderers
func (c *MockConfig) OrderersConfig() []fab.OrdererConfig {
	return c.Orderers
}

// OrdererConfig returns the orderer with the given name or url
func (c *MockConfig) OrdererConfig(nameOrURL string) (*fab.OrdererConfig, bool) {
	for i := range c.Orderers {
		if c.Orderers[i].Name == nameOrURL || c.Orderers[i].URL == nameOrURL {
			return &c.Orderers[i], true
		}
	}
	return nil, false
}

// PeersConfig returns the peers of org
func (c *MockConfig) PeersConfig(org string) ([]fab.PeerConfig, bool) {
	orgConfig, ok := c.OrganizationConfig(org)
	if !ok {
		return nil, false
	}
	var peers []fab.PeerConfig
	for _, name := range orgConfig.Peers {
		if p, ok := c.PeerConfig(name); ok {
			peers = append(peers, *p)
		}
	}
	return peers, true
}

// PeerConfig returns the peer with the given name or url
func (c *MockConfig) PeerConfig(nameOrURL string) (*fab.PeerConfig, bool) {
	for i := range c.Peers {
		if c.Peers[i].Name == nameOrURL || c.Peers[i].URL == nameOrURL {
			return &c.Peers[i].PeerConfig, true
		}
	}
	return nil, false
}

// NetworkPeers returns all peers with their MSP
func (c *MockConfig) NetworkPeers() []fab.NetworkPeer {
	return c.Peers
}

// ChannelConfig returns the configuration of channel name
func (c *MockConfig) ChannelConfig(name string) (*fab.ChannelEndpointConfig, bool) {
	ch, ok := c.Channels[name]
	if !ok {
		return nil, false
	}
	return &ch, true
}

// ChannelPeers returns the peers of channel name in configuration order
func (c *MockConfig) ChannelPeers(name string) []fab.ChannelPeer {
	ch, ok := c.Channels[name]
	if !ok {
		return nil
	}
	var peers []fab.ChannelPeer
	for _, p := range c.Peers {
		if roles, ok := ch.Peers[p.Name]; ok {
			peers = append(peers, fab.ChannelPeer{PeerChannelConfig: roles, NetworkPeer: p})
		}
	}
	return peers
}

// ChannelOrderers returns the orderers of channel name
func (c *MockConfig) ChannelOrderers(name string) []fab.OrdererConfig {
	ch, ok := c.Channels[name]
	if !ok || len(ch.Orderers) == 0 {
		return c.Orderers
	}
	var orderers []fab.OrdererConfig
	for _, o := range ch.Orderers {
		if oc, ok := c.OrdererConfig(o); ok {
			orderers = append(orderers, *oc)
		}
	}
	return orderers
}

// TLSClientCerts returns ClientCerts
func (c *MockConfig) TLSClientCerts() []tls.Certificate {
	return c.ClientCerts
}
