/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

func TestCreatePeerFromConfig(t *testing.T) {
	infra := NewMockInfraProvider()
	cfg := &fab.NetworkPeer{PeerConfig: fab.PeerConfig{Name: "peer0.org2.example.com", URL: "peer0.org2.example.com:8051"}, MSPID: "Org2MSP"}

	peer, err := infra.CreatePeerFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "peer0.org2.example.com", peer.(*MockPeer).Name())
	assert.Equal(t, "Org2MSP", peer.MSPID())
	assert.Same(t, infra.Peer(cfg.URL), peer)

	renamed := *cfg
	renamed.Name = "other"
	renamed.MSPID = "Org1MSP"
	again, err := infra.CreatePeerFromConfig(&renamed)
	require.NoError(t, err)
	assert.Same(t, peer, again)
	assert.Equal(t, "Org2MSP", again.MSPID(), "an existing peer is not rewritten")
}

func TestCreatePeerFromConfigKeepsTestSetup(t *testing.T) {
	infra := NewMockInfraProvider()
	infra.Peer("peer0.org1.example.com:7051").MockMSP = "Org9MSP"

	peer, err := infra.CreatePeerFromConfig(&fab.NetworkPeer{PeerConfig: fab.PeerConfig{Name: "peer0.org1.example.com", URL: "peer0.org1.example.com:7051"}, MSPID: "Org1MSP"})
	require.NoError(t, err)
	assert.Equal(t, "Org9MSP", peer.MSPID())
}

func TestConcurrentChannelServices(t *testing.T) {
	ctx := NewMockAdminContext()
	provider := ctx.ChannelProvider()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			service, err := provider.ChannelService(ctx, "mychannel")
			if !assert.NoError(t, err) {
				return
			}
			peers, err := service.Peers()
			if !assert.NoError(t, err) {
				return
			}
			for _, p := range peers {
				assert.Equal(t, "Org1MSP", p.MSPID())
				assert.NotEmpty(t, p.(*MockPeer).Name())
			}
		}()
	}
	wg.Wait()
}
