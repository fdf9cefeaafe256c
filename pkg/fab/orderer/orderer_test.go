/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package orderer

import (
	reqContext "context"
	"testing"
	"time"

	"github.com/hyperledger/fabric-protos-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpcCodes "google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
)

const testAddress = "127.0.0.1:0"

var insecureOpts = map[string]interface{}{"allow-insecure": true, "fail-fast": true}

func startOrderer(t *testing.T) (*mocks.MockBroadcastServer, *Orderer) {
	server := &mocks.MockBroadcastServer{}
	addr := server.Start(testAddress)
	t.Cleanup(server.Stop)

	o, err := New(mocks.NewMockConfig(), FromOrdererConfig(&fab.OrdererConfig{
		Name:        "orderer.example.com",
		URL:         "grpc://" + addr,
		GRPCOptions: insecureOpts,
	}))
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return server, o
}

func testContext(t *testing.T) reqContext.Context {
	ctx, cancel := reqContext.WithTimeout(reqContext.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew(t *testing.T) {
	_, err := New(mocks.NewMockConfig())
	assert.Error(t, err)

	o, err := New(mocks.NewMockConfig(), WithURL("grpcs://orderer.example.com:7050"), WithServerName("orderer"))
	require.NoError(t, err)
	assert.Equal(t, "grpcs://orderer.example.com:7050", o.URL())
	assert.Equal(t, "grpcs://orderer.example.com:7050", o.Name())
	assert.Equal(t, "orderer", o.params.HostOverride)
}

func TestFromOrdererName(t *testing.T) {
	o, err := New(mocks.NewMockConfig(), FromOrdererName("orderer.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "orderer.example.com:7050", o.URL())
	assert.Equal(t, "orderer.example.com", o.Name())

	_, err = New(mocks.NewMockConfig(), FromOrdererName("orderer9.example.com"))
	assert.Error(t, err)
}

func TestSendBroadcast(t *testing.T) {
	server, o := startOrderer(t)

	s, err := o.SendBroadcast(testContext(t), &fab.SignedEnvelope{Payload: []byte("payload"), Signature: []byte("signature")})
	require.NoError(t, err)
	assert.Equal(t, common.Status_SUCCESS, *s)

	envelopes := server.Envelopes()
	require.Len(t, envelopes, 1)
	assert.Equal(t, []byte("signature"), envelopes[0].Signature)

	// the connection is reused
	_, err = o.SendBroadcast(testContext(t), &fab.SignedEnvelope{Payload: []byte("payload2")})
	require.NoError(t, err)
	assert.Len(t, server.Envelopes(), 2)
}

func TestSendBroadcastRejected(t *testing.T) {
	server, o := startOrderer(t)
	server.BroadcastStatus = common.Status_SERVICE_UNAVAILABLE

	_, err := o.SendBroadcast(testContext(t), &fab.SignedEnvelope{Payload: []byte("payload")})
	require.Error(t, err)
	assert.True(t, status.Is(err, status.OrdererServerStatus, status.Code(common.Status_SERVICE_UNAVAILABLE)))
	assert.Empty(t, server.Envelopes())
}

func TestSendBroadcastError(t *testing.T) {
	server, o := startOrderer(t)
	server.BroadcastError = grpcstatus.Error(grpcCodes.PermissionDenied, "not a writer")

	_, err := o.SendBroadcast(testContext(t), &fab.SignedEnvelope{Payload: []byte("payload")})
	require.Error(t, err)
	assert.True(t, status.Is(err, status.GRPCTransportStatus, status.Code(grpcCodes.PermissionDenied)))
}

func TestSendBroadcastUnreachable(t *testing.T) {
	server := &mocks.MockBroadcastServer{}
	addr := server.Start(testAddress)
	server.Stop()

	o, err := New(mocks.NewMockConfig(), FromOrdererConfig(&fab.OrdererConfig{URL: "grpc://" + addr, GRPCOptions: insecureOpts}))
	require.NoError(t, err)
	defer o.Close()

	_, err = o.SendBroadcast(testContext(t), &fab.SignedEnvelope{Payload: []byte("payload")})
	require.Error(t, err)
	assert.True(t, status.Is(err, status.GRPCTransportStatus, status.Code(grpcCodes.Unavailable)))
}
