/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
)

func TestNetworkPeerConfig(t *testing.T) {
	cfg := mocks.NewMockConfig()

	byName, err := NetworkPeerConfig(cfg, "Peer0.org1.example.com")
	require.NoError(t, err)
	assert.Equal(t, "peer0.org1.example.com:7051", byName.URL)
	assert.Equal(t, "Org1MSP", byName.MSPID)

	byURL, err := NetworkPeerConfig(cfg, "peer1.org1.example.com:7051")
	require.NoError(t, err)
	assert.Equal(t, "peer1.org1.example.com", byURL.Name)

	_, err = NetworkPeerConfig(cfg, "peer9.org1.example.com")
	assert.Error(t, err)
}

func TestOrdererConfigs(t *testing.T) {
	cfg := mocks.NewMockConfig()

	orderers, err := OrdererConfigs(cfg, "orderer.example.com")
	require.NoError(t, err)
	require.Len(t, orderers, 1)
	assert.Equal(t, "orderer.example.com:7050", orderers[0].URL)

	_, err = OrdererConfigs(cfg, "orderer.example.com", "orderer2.example.com")
	assert.Error(t, err)
}
