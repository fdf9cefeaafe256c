/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package chpvdr provides the default nodes of a channel from the endpoint
// configuration.
package chpvdr

import (
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

var logger = logging.NewLogger("orchestrator/fab")

// ChannelProvider creates channel services for client contexts
type ChannelProvider struct{}

// New creates a ChannelProvider
func New() *ChannelProvider {
	return &ChannelProvider{}
}

// ChannelService returns the service of channelID for ctx. The channel
// must be present in the configuration.
func (cp *ChannelProvider) ChannelService(ctx fab.ClientContext, channelID string) (fab.ChannelService, error) {
	if channelID == "" {
		return nil, errors.New("channel ID is required")
	}
	if _, ok := ctx.EndpointConfig().ChannelConfig(channelID); !ok {
		return nil, errors.Errorf("channel %s is not configured", channelID)
	}
	return &ChannelService{context: ctx, channelID: channelID}, nil
}

// ChannelService resolves the peers, orderers and event source of a
// channel through the infra provider of its context
type ChannelService struct {
	context   fab.ClientContext
	channelID string
}

// ChannelID returns the channel id
func (cs *ChannelService) ChannelID() string {
	return cs.channelID
}

// Peers returns the endorsing peers of the channel in configuration order
func (cs *ChannelService) Peers() ([]fab.Peer, error) {
	var peers []fab.Peer
	for _, p := range cs.context.EndpointConfig().ChannelPeers(cs.channelID) {
		if !p.EndorsingPeer {
			continue
		}
		networkPeer := p.NetworkPeer
		peer, err := cs.context.InfraProvider().CreatePeerFromConfig(&networkPeer)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating peer %s of channel %s failed", p.Name, cs.channelID)
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// Orderers returns the orderers of the channel
func (cs *ChannelService) Orderers() ([]fab.Orderer, error) {
	var orderers []fab.Orderer
	for _, o := range cs.context.EndpointConfig().ChannelOrderers(cs.channelID) {
		ordererCfg := o
		orderer, err := cs.context.InfraProvider().CreateOrdererFromConfig(&ordererCfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating orderer %s of channel %s failed", o.Name, cs.channelID)
		}
		orderers = append(orderers, orderer)
	}
	return orderers, nil
}

// EventService returns the event service of the channel. The event source
// is the first event source peer of the client's organization, or else the
// first event source peer of the channel.
func (cs *ChannelService) EventService() (fab.EventService, error) {
	source, err := cs.eventSource()
	if err != nil {
		return nil, err
	}
	logger.Debugf("Using event source %s for channel %s", source.URL, cs.channelID)

	peer, err := cs.context.InfraProvider().CreatePeerFromConfig(source)
	if err != nil {
		return nil, errors.WithMessagef(err, "creating event source %s failed", source.Name)
	}
	return cs.context.InfraProvider().CreateEventService(cs.context, cs.channelID, peer)
}

func (cs *ChannelService) eventSource() (*fab.NetworkPeer, error) {
	mspID := cs.context.Identifier().MSPID

	var fallback *fab.NetworkPeer
	for _, p := range cs.context.EndpointConfig().ChannelPeers(cs.channelID) {
		if !p.EventSource {
			continue
		}
		networkPeer := p.NetworkPeer
		if networkPeer.MSPID == mspID {
			return &networkPeer, nil
		}
		if fallback == nil {
			fallback = &networkPeer
		}
	}
	if fallback == nil {
		return nil, status.New(status.ClientStatus, status.NoPeersFound.ToInt32(),
			"no event source configured for channel "+cs.channelID, nil)
	}
	return fallback, nil
}
