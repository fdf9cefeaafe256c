/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

// NetworkPeerConfig returns the configuration and MSP of the peer named or
// addressed by nameOrURL
func NetworkPeerConfig(cfg fab.EndpointConfig, nameOrURL string) (*fab.NetworkPeer, error) {
	for _, p := range cfg.NetworkPeers() {
		if strings.EqualFold(p.Name, nameOrURL) || p.URL == nameOrURL {
			peer := p
			return &peer, nil
		}
	}
	return nil, errors.Errorf("peer %s not found in network configuration", nameOrURL)
}

// OrdererConfigs returns the configuration of the orderers named or
// addressed by namesOrURLs
func OrdererConfigs(cfg fab.EndpointConfig, namesOrURLs ...string) ([]fab.OrdererConfig, error) {
	orderers := make([]fab.OrdererConfig, 0, len(namesOrURLs))
	for _, nameOrURL := range namesOrURLs {
		o, ok := cfg.OrdererConfig(nameOrURL)
		if !ok {
			return nil, errors.Errorf("orderer %s not found in network configuration", nameOrURL)
		}
		orderers = append(orderers, *o)
	}
	return orderers, nil
}
