/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabsdk

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/client/channel"
	mspctx "github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/config"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/keyvaluestore"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/msp/test/mockmsp"
)

const networkTemplate = `
client:
  organization: org1
  logging:
    level: warning
  credentialStore:
    type: leveldb
    path: %s
  timeouts:
    commit: 10s

organizations:
  org1:
    mspid: Org1MSP
    peers:
      - peer0.org1.example.com

orderers:
  orderer.example.com:
    url: grpc://%s

peers:
  peer0.org1.example.com:
    url: grpc://%s

channels:
  mychannel:
    orderers:
      - orderer.example.com
    peers:
      peer0.org1.example.com:
        endorsingPeer: true
        chaincodeQuery: true
        ledgerQuery: true
        eventSource: true
`

type network struct {
	peerURL  string
	endorser *mocks.MockEndorserServer
	deliver  *mocks.MockDeliverServer
	orderer  *mocks.MockBroadcastServer
}

func startNetwork(t *testing.T) (*network, []byte) {
	n := &network{
		endorser: mocks.NewMockEndorserServer("peer0.org1.example.com"),
		deliver:  mocks.NewMockDeliverServer(),
	}
	n.endorser.Peer.Payload = []byte("100")

	peerAddr, stop := mocks.StartMockPeerServer("127.0.0.1:0", n.endorser, n.deliver)
	t.Cleanup(stop)
	n.peerURL = "grpc://" + peerAddr

	n.orderer = &mocks.MockBroadcastServer{OnBroadcast: n.deliver.CommitOnBroadcast(pb.TxValidationCode_VALID)}
	ordererAddr := n.orderer.Start("127.0.0.1:0")
	t.Cleanup(n.orderer.Stop)

	storePath := filepath.Join(t.TempDir(), "store")
	return n, []byte(fmt.Sprintf(networkTemplate, storePath, ordererAddr, peerAddr))
}

func newSDK(t *testing.T, raw []byte, opts ...Option) *FabricSDK {
	opts = append([]Option{WithResponseVerifier(mocks.NewMockVerifier())}, opts...)
	sdk, err := New(config.FromRaw(raw, "yaml"), opts...)
	require.NoError(t, err)
	t.Cleanup(sdk.Close)
	return sdk
}

func storeUser(t *testing.T, sdk *FabricSDK, name string) {
	cert, key, err := mockmsp.GenerateCertKey(name)
	require.NoError(t, err)
	require.NoError(t, sdk.IdentityStore().StoreIdentity(&mspctx.UserData{
		ID:                    name,
		MSPID:                 "Org1MSP",
		EnrollmentCertificate: cert,
		PrivateKey:            key,
	}))
}

// waitForEventService connects the deliver client ahead of the first
// broadcast so that the commit block is not published before the
// subscription exists
func waitForEventService(t *testing.T, sdk *FabricSDK, n *network, opts ...ContextOption) {
	channelContext, err := sdk.ChannelContext("mychannel", opts...)()
	require.NoError(t, err)
	_, err = channelContext.ChannelService().EventService()
	require.NoError(t, err)
	require.Eventually(t, func() bool { return n.deliver.Connections() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestExecute(t *testing.T) {
	n, raw := startNetwork(t)
	registry := prometheus.NewRegistry()
	sdk := newSDK(t, raw, WithMetrics(registry))
	storeUser(t, sdk, "User1")
	waitForEventService(t, sdk, n, WithUser("User1"))

	client, err := channel.New(sdk.ChannelContext("mychannel", WithUser("User1")))
	require.NoError(t, err)

	resp, err := client.Execute(channel.Request{ChaincodeID: "example_cc", Fcn: "move", Args: [][]byte{[]byte("a"), []byte("b")}})
	require.NoError(t, err)
	assert.Equal(t, []byte("100"), resp.Payload)
	assert.Equal(t, pb.TxValidationCode_VALID, resp.TxValidationCode)
	assert.NotEmpty(t, resp.TransactionID)
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, n.peerURL, resp.Outcome.SourceURL)
	assert.Len(t, n.orderer.Envelopes(), 1)

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["orchestrator_endorsement_proposals_sent"])
	assert.True(t, names["orchestrator_commit_outcomes"])
}

func TestQuery(t *testing.T) {
	_, raw := startNetwork(t)
	sdk := newSDK(t, raw)
	storeUser(t, sdk, "User1")

	client, err := channel.New(sdk.ChannelContext("mychannel", WithUser("User1")))
	require.NoError(t, err)

	resp, err := client.Query(channel.Request{ChaincodeID: "example_cc", Fcn: "query", Args: [][]byte{[]byte("a")}})
	require.NoError(t, err)
	assert.Equal(t, []byte("100"), resp.Payload)
	assert.Nil(t, resp.Outcome)
}

func TestWithIdentity(t *testing.T) {
	_, raw := startNetwork(t)
	sdk := newSDK(t, raw)

	cert, key, err := mockmsp.GenerateCertKey("Admin")
	require.NoError(t, err)
	identity, err := msp.NewUser(&mspctx.UserData{ID: "Admin", MSPID: "Org1MSP", EnrollmentCertificate: cert, PrivateKey: key})
	require.NoError(t, err)

	ctx, err := sdk.Context(WithIdentity(identity))()
	require.NoError(t, err)
	assert.Equal(t, "Org1MSP", ctx.Identifier().MSPID)
	assert.Equal(t, sdk.EndpointConfig(), ctx.EndpointConfig())
	assert.NotNil(t, ctx.GetMetrics())
}

func TestContextErrors(t *testing.T) {
	_, raw := startNetwork(t)
	sdk := newSDK(t, raw)

	_, err := sdk.Context()()
	assert.Error(t, err, "a user or an identity is required")

	_, err = sdk.Context(WithUser("Nobody"))()
	assert.Error(t, err, "the user is not stored")

	storeUser(t, sdk, "User1")
	_, err = sdk.Context(WithUser("User1"), WithOrg("org9"))()
	assert.Error(t, err, "org9 is not configured")

	_, err = sdk.ChannelContext("otherchannel", WithUser("User1"))()
	assert.Error(t, err, "otherchannel is not configured")
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(config.FromRaw([]byte("client: ["), "yaml"))
	assert.Error(t, err)

	_, err = New(config.FromRaw([]byte("client:\n  logging:\n    level: chatty\n"), "yaml"))
	assert.Error(t, err)

	_, err = New(config.FromRaw([]byte("client: {}\n"), "yaml"), WithStateStore(nil))
	assert.Error(t, err)

	_, err = New(config.FromRaw([]byte("client: {}\n"), "yaml"), WithCryptoSuite(nil))
	assert.Error(t, err)
}

func TestWithCryptoSuite(t *testing.T) {
	_, raw := startNetwork(t)
	cs, err := cryptosuite.NewSoftwareSuite()
	require.NoError(t, err)
	sdk := newSDK(t, raw, WithCryptoSuite(cs))
	storeUser(t, sdk, "User1")

	ctx, err := sdk.Context(WithUser("User1"))()
	require.NoError(t, err)
	sig, err := ctx.Sign([]byte("msg"))
	require.NoError(t, err)
	assert.NoError(t, ctx.Verify([]byte("msg"), sig))
}

func TestInjectedStateStore(t *testing.T) {
	_, raw := startNetwork(t)
	store, err := keyvaluestore.NewFileKeyValueStore(t.TempDir())
	require.NoError(t, err)
	sdk := newSDK(t, raw, WithStateStore(store))
	storeUser(t, sdk, "User1")

	_, err = sdk.Context(WithUser("User1"))()
	require.NoError(t, err)

	sdk.Close()
	_, err = store.Load("users/Org1MSP/user1")
	assert.NoError(t, err, "the injected store stays open")
}
