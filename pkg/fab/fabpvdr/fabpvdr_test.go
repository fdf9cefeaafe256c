/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabpvdr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/events/deliverclient"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
)

func TestCreatePeerFromConfig(t *testing.T) {
	infra := New(mocks.NewMockConfig())
	defer infra.Close()

	cfg := &fab.NetworkPeer{
		PeerConfig: fab.PeerConfig{Name: "peer0.org1.example.com", URL: "grpc://localhost:7051"},
		MSPID:      "Org1MSP",
	}
	p1, err := infra.CreatePeerFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "grpc://localhost:7051", p1.URL())
	assert.Equal(t, "Org1MSP", p1.MSPID())

	p2, err := infra.CreatePeerFromConfig(&fab.NetworkPeer{PeerConfig: fab.PeerConfig{URL: "grpc://localhost:7051"}})
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	p3, err := infra.CreatePeerFromConfig(&fab.NetworkPeer{PeerConfig: fab.PeerConfig{URL: "grpc://localhost:8051"}})
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)

	_, err = infra.CreatePeerFromConfig(nil)
	assert.Error(t, err)
}

func TestCreateOrdererFromConfig(t *testing.T) {
	infra := New(mocks.NewMockConfig())
	defer infra.Close()

	o1, err := infra.CreateOrdererFromConfig(&fab.OrdererConfig{Name: "orderer.example.com", URL: "grpc://localhost:7050"})
	require.NoError(t, err)
	assert.Equal(t, "grpc://localhost:7050", o1.URL())

	o2, err := infra.CreateOrdererFromConfig(&fab.OrdererConfig{URL: "grpc://localhost:7050"})
	require.NoError(t, err)
	assert.Same(t, o1, o2)

	_, err = infra.CreateOrdererFromConfig(&fab.OrdererConfig{Name: "orderer.example.com"})
	assert.Error(t, err, "url is required")

	_, err = infra.CreateOrdererFromConfig(nil)
	assert.Error(t, err)
}

func TestCreateEventService(t *testing.T) {
	server := mocks.NewMockDeliverServer()
	addr := server.Start("127.0.0.1:0")
	defer server.Stop()
	source := mocks.NewMockPeer("peer0.org1.example.com", "grpc://"+addr)

	infra := New(mocks.NewMockConfig(), deliverclient.WithConnectionTimeout(2*time.Second))
	ctx := mocks.NewMockAdminContext()

	es1, err := infra.CreateEventService(ctx, "mychannel", source)
	require.NoError(t, err)
	es2, err := infra.CreateEventService(ctx, "mychannel", source)
	require.NoError(t, err)
	assert.Same(t, es1, es2)

	// a closed service is replaced
	es1.(*deliverclient.Client).Close()
	es3, err := infra.CreateEventService(ctx, "mychannel", source)
	require.NoError(t, err)
	assert.NotSame(t, es1, es3)

	infra.Close()
	assert.True(t, es3.(*deliverclient.Client).Closed())

	_, err = infra.CreateEventService(ctx, "mychannel", source)
	assert.Error(t, err, "provider is closed")

	_, err = New(mocks.NewMockConfig()).CreateEventService(ctx, "mychannel", nil)
	assert.Error(t, err)
}
