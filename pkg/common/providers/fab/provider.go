/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"crypto/tls"
	"time"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/fabsdk/metrics"
)

// ClientContext contains the client context
type ClientContext interface {
	Providers
	msp.SigningIdentity
}

// Providers represents the providers of fabric objects
type Providers interface {
	EndpointConfig() EndpointConfig
	InfraProvider() InfraProvider
	ChannelProvider() ChannelProvider
	ResponseVerifier() ResponseVerifier
	GetMetrics() *metrics.ClientMetrics
}

// InfraProvider creates peers, orderers and event services from configuration
type InfraProvider interface {
	CreatePeerFromConfig(peerCfg *NetworkPeer) (Peer, error)
	CreateOrdererFromConfig(cfg *OrdererConfig) (Orderer, error)
	CreateEventService(ctx ClientContext, channelID string, source Peer) (EventService, error)
	Close()
}

// ChannelProvider supplies the channel service of a channel
type ChannelProvider interface {
	ChannelService(ctx ClientContext, channelID string) (ChannelService, error)
}

// ChannelService supplies the default nodes of a channel. The nodes
// returned are owned by the provider and must not be mutated.
type ChannelService interface {
	// Peers returns the channel's endorsing peers
	Peers() ([]Peer, error)
	Orderers() ([]Orderer, error)
	EventService() (EventService, error)
}

// EndpointConfig is the immutable network configuration. It resolves
// connection properties of peers, orderers and organizations.
type EndpointConfig interface {
	Timeout(TimeoutType) time.Duration
	Client() *ClientConfig
	OrganizationConfig(org string) (*OrganizationConfig, bool)
	OrderersConfig() []OrdererConfig
	OrdererConfig(nameOrURL string) (*OrdererConfig, bool)
	PeersConfig(org string) ([]PeerConfig, bool)
	PeerConfig(nameOrURL string) (*PeerConfig, bool)
	NetworkPeers() []NetworkPeer
	ChannelConfig(name string) (*ChannelEndpointConfig, bool)
	ChannelPeers(name string) []ChannelPeer
	ChannelOrderers(name string) []OrdererConfig
	TLSClientCerts() []tls.Certificate
}

// TimeoutType enumerates the different types of outgoing connections
type TimeoutType int

const (
	// PeerConnection connection timeout
	PeerConnection TimeoutType = iota
	// Proposal bounds the wait for invoke and query endorsements
	Proposal
	// Deploy bounds the wait for install, instantiate and upgrade endorsements
	Deploy
	// Commit bounds the wait for the commit notification of a transaction
	Commit
	// OrdererConnection orderer connection timeout
	OrdererConnection
	// OrdererResponse orderer response timeout
	OrdererResponse
	// EventReg event registration timeout
	EventReg
)
