/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package fabpvdr creates the network nodes of the client: gRPC peers,
// orderers and deliver event services. Nodes are cached by address so
// that connections are shared between requests.
package fabpvdr

import (
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/options"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/events/deliverclient"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/orderer"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/peer"
	"github.com/fabric-orchestrator/orchestrator/pkg/util/concurrent/lazycache"
)

var logger = logging.NewLogger("orchestrator/fab")

// InfraProvider represents the default implementation of Fabric objects.
type InfraProvider struct {
	config        fab.EndpointConfig
	peers         *lazycache.Cache
	orderers      *lazycache.Cache
	eventServices *lazycache.Cache
}

// New creates an InfraProvider over config. eventOpts are applied to
// every deliver client it creates.
func New(config fab.EndpointConfig, eventOpts ...options.Opt) *InfraProvider {
	return &InfraProvider{
		config: config,
		peers: lazycache.New("Peer_Cache", func(key lazycache.Key) (interface{}, error) {
			k := key.(*peerCacheKey)
			return peer.New(config, peer.FromPeerConfig(k.config))
		}),
		orderers: lazycache.New("Orderer_Cache", func(key lazycache.Key) (interface{}, error) {
			k := key.(*ordererCacheKey)
			return orderer.New(config, orderer.FromOrdererConfig(k.config))
		}),
		eventServices: lazycache.New("Event_Service_Cache", func(key lazycache.Key) (interface{}, error) {
			k := key.(*eventCacheKey)
			return deliverclient.New(k.context, k.channelID, k.source, eventOpts...)
		}),
	}
}

// CreatePeerFromConfig returns the peer of peerCfg
func (f *InfraProvider) CreatePeerFromConfig(peerCfg *fab.NetworkPeer) (fab.Peer, error) {
	if peerCfg == nil {
		return nil, errors.New("peer config is required")
	}
	p, err := f.peers.Get(&peerCacheKey{config: peerCfg})
	if err != nil {
		return nil, errors.WithMessagef(err, "creating peer %s failed", peerCfg.URL)
	}
	return p.(*peer.Peer), nil
}

// CreateOrdererFromConfig returns the orderer of cfg
func (f *InfraProvider) CreateOrdererFromConfig(cfg *fab.OrdererConfig) (fab.Orderer, error) {
	if cfg == nil {
		return nil, errors.New("orderer config is required")
	}
	o, err := f.orderers.Get(&ordererCacheKey{config: cfg})
	if err != nil {
		return nil, errors.WithMessagef(err, "creating orderer %s failed", cfg.URL)
	}
	return o.(*orderer.Orderer), nil
}

// CreateEventService returns the event service of channelID fed by
// source. A service that gave up on its source is replaced by a new one.
func (f *InfraProvider) CreateEventService(ctx fab.ClientContext, channelID string, source fab.Peer) (fab.EventService, error) {
	if source == nil {
		return nil, errors.New("event source is required")
	}
	key := newEventCacheKey(ctx, channelID, source)

	for attempt := 0; attempt < 2; attempt++ {
		value, err := f.eventServices.Get(key)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating event service of channel %s failed", channelID)
		}
		client := value.(*deliverclient.Client)
		if !client.Closed() {
			return client, nil
		}
		logger.Debugf("Event service of channel %s from %s is closed; creating a new one", channelID, source.URL())
		f.eventServices.Delete(key)
	}
	return nil, errors.Errorf("event service of channel %s from %s is unavailable", channelID, source.URL())
}

// Close disconnects every event service, peer and orderer
func (f *InfraProvider) Close() {
	logger.Debug("Closing infra provider")
	f.eventServices.Close()
	f.peers.Close()
	f.orderers.Close()
}
