/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chpvdr

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/test/mockfab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
)

func newConfig() *mocks.MockConfig {
	config := mocks.NewMockConfig()
	org2 := fab.NetworkPeer{PeerConfig: fab.PeerConfig{Name: "peer0.org2.example.com", URL: "peer0.org2.example.com:8051"}, MSPID: "Org2MSP"}
	config.Peers = append([]fab.NetworkPeer{org2}, config.Peers...)

	ch := config.Channels["mychannel"]
	ch.Peers[org2.Name] = fab.PeerChannelConfig{EndorsingPeer: true, EventSource: true}
	ch.Peers["peer1.org1.example.com"] = fab.PeerChannelConfig{ChaincodeQuery: true}
	config.Channels["mychannel"] = ch
	return config
}

func newService(t *testing.T, config fab.EndpointConfig) (*mocks.MockContext, *ChannelService) {
	ctx := mocks.NewMockContextWithConfig(mocks.NewMockAdminContext().SigningIdentity, config)
	cs, err := New().ChannelService(ctx, "mychannel")
	require.NoError(t, err)
	return ctx, cs.(*ChannelService)
}

func TestChannelService(t *testing.T) {
	ctx := mocks.NewMockAdminContext()

	_, err := New().ChannelService(ctx, "")
	assert.Error(t, err)

	_, err = New().ChannelService(ctx, "otherchannel")
	assert.Error(t, err)

	cs, err := New().ChannelService(ctx, "mychannel")
	require.NoError(t, err)
	assert.Equal(t, "mychannel", cs.(*ChannelService).ChannelID())
}

func TestPeers(t *testing.T) {
	_, cs := newService(t, newConfig())

	peers, err := cs.Peers()
	require.NoError(t, err)
	require.Len(t, peers, 2, "peer1 is not an endorsing peer")
	assert.Equal(t, "peer0.org2.example.com:8051", peers[0].URL())
	assert.Equal(t, "Org2MSP", peers[0].MSPID())
	assert.Equal(t, "peer0.org1.example.com:7051", peers[1].URL())
}

func TestOrderers(t *testing.T) {
	_, cs := newService(t, newConfig())

	orderers, err := cs.Orderers()
	require.NoError(t, err)
	require.Len(t, orderers, 1)
	assert.Equal(t, "orderer.example.com:7050", orderers[0].URL())
}

func TestEventService(t *testing.T) {
	ctx, cs := newService(t, newConfig())

	source, err := cs.eventSource()
	require.NoError(t, err)
	assert.Equal(t, "peer0.org1.example.com", source.Name, "own organization is preferred")

	es, err := cs.EventService()
	require.NoError(t, err)
	assert.Equal(t, ctx.Infra.EventService, es)
}

func TestEventSourceFallback(t *testing.T) {
	config := newConfig()
	ch := config.Channels["mychannel"]
	ch.Peers["peer0.org1.example.com"] = fab.PeerChannelConfig{EndorsingPeer: true}
	config.Channels["mychannel"] = ch
	_, cs := newService(t, config)

	source, err := cs.eventSource()
	require.NoError(t, err)
	assert.Equal(t, "peer0.org2.example.com", source.Name)

	ch.Peers["peer0.org2.example.com"] = fab.PeerChannelConfig{EndorsingPeer: true}
	_, err = cs.EventService()
	assert.True(t, status.Is(err, status.ClientStatus, status.NoPeersFound))
}

func TestUnconfiguredChannel(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	ctx := mocks.NewMockContextWithConfig(mocks.NewMockAdminContext().SigningIdentity, mockfab.DefaultMockConfig(mockCtrl))
	_, err := New().ChannelService(ctx, "mychannel")
	assert.EqualError(t, err, "channel mychannel is not configured")
}

func TestPeersFromMockConfig(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	source := fab.ChannelPeer{
		PeerChannelConfig: fab.PeerChannelConfig{EventSource: true},
		NetworkPeer:       fab.NetworkPeer{PeerConfig: fab.PeerConfig{Name: "peer0", URL: "peer0:7051"}, MSPID: "Org1MSP"},
	}
	config := mockfab.NewMockEndpointConfig(mockCtrl)
	config.EXPECT().ChannelConfig("mychannel").Return(&fab.ChannelEndpointConfig{}, true)
	config.EXPECT().ChannelPeers("mychannel").Return([]fab.ChannelPeer{source})

	ctx := mocks.NewMockContextWithConfig(mocks.NewMockAdminContext().SigningIdentity, config)
	cs, err := New().ChannelService(ctx, "mychannel")
	require.NoError(t, err)

	peers, err := cs.Peers()
	require.NoError(t, err)
	assert.Empty(t, peers, "the event source does not endorse")
}
