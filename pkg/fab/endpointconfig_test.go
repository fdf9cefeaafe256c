/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/config"
)

const networkConfigFile = "testdata/network.yaml"

func loadTestConfig(t *testing.T) *EndpointConfig {
	t.Setenv("ORCH_TEST_STORE", "/var/orch")

	backends, err := config.FromFile(networkConfigFile)()
	require.NoError(t, err)

	endpointConfig, err := ConfigFromBackend(backends...)
	require.NoError(t, err)
	return endpointConfig
}

func TestTimeouts(t *testing.T) {
	c := loadTestConfig(t)

	assert.Equal(t, 30*time.Second, c.Timeout(fab.Proposal))
	assert.Equal(t, 45*time.Second, c.Timeout(fab.Commit))
	assert.Equal(t, defaultDeployTimeout, c.Timeout(fab.Deploy))
	assert.Equal(t, 10*time.Second, c.Timeout(fab.OrdererResponse))
	assert.Equal(t, defaultPeerConnectionTimeout, c.Timeout(fab.PeerConnection))
	assert.Equal(t, defaultEventRegTimeout, c.Timeout(fab.EventReg))
}

func TestClientConfig(t *testing.T) {
	c := loadTestConfig(t)

	client := c.Client()
	assert.Equal(t, "org1", client.Organization)
	assert.Equal(t, "info", client.LoggingLevel)
	assert.Equal(t, "leveldb", client.CredentialStore.Type)
	assert.Equal(t, "/var/orch/store", client.CredentialStore.Path)
	assert.Empty(t, c.TLSClientCerts())
	assert.Equal(t, "test-network", c.NetworkConfig().Name)
}

func TestOrganizationsAndPeers(t *testing.T) {
	c := loadTestConfig(t)

	org, ok := c.OrganizationConfig("Org1")
	require.True(t, ok)
	assert.Equal(t, "Org1MSP", org.MSPID)
	assert.Equal(t, "/crypto/org1/users/{username}/msp", org.CryptoPath)

	_, ok = c.OrganizationConfig("org3")
	assert.False(t, ok)

	peers, ok := c.PeersConfig("org2")
	require.True(t, ok)
	require.Len(t, peers, 1, "unconfigured peers are skipped")
	assert.Equal(t, "peer0.org2.example.com:8051", peers[0].URL)

	byName, ok := c.PeerConfig("peer0.org1.example.com")
	require.True(t, ok)
	assert.Equal(t, true, byName.GRPCOptions["allow-insecure"])

	byURL, ok := c.PeerConfig("peer0.org2.example.com:8051")
	require.True(t, ok)
	assert.Equal(t, "peer0.org2.example.com", byURL.Name)

	_, ok = c.PeerConfig("unknown")
	assert.False(t, ok)

	networkPeers := c.NetworkPeers()
	require.Len(t, networkPeers, 2)
	assert.Equal(t, "Org1MSP", networkPeers[0].MSPID)
	assert.Equal(t, "Org2MSP", networkPeers[1].MSPID)
}

func TestOrderers(t *testing.T) {
	c := loadTestConfig(t)

	orderers := c.OrderersConfig()
	require.Len(t, orderers, 2)
	assert.Equal(t, "orderer.example.com", orderers[0].Name)
	assert.Equal(t, "orderer2.example.com", orderers[1].Name)

	o, ok := c.OrdererConfig("orderer2.example.com:8050")
	require.True(t, ok)
	assert.Equal(t, "orderer2.example.com", o.Name)

	_, ok = c.OrdererConfig("none")
	assert.False(t, ok)
}

func TestChannels(t *testing.T) {
	c := loadTestConfig(t)

	ch, ok := c.ChannelConfig("orgchannel")
	require.True(t, ok)
	assert.Equal(t, []string{"orderer.example.com"}, ch.Orderers)

	peers := c.ChannelPeers("orgchannel")
	require.Len(t, peers, 2)
	assert.Equal(t, "peer0.org1.example.com", peers[0].Name)
	assert.Equal(t, "Org1MSP", peers[0].MSPID)
	assert.True(t, peers[0].EventSource, "missing roles default to true")
	assert.True(t, peers[1].EndorsingPeer)
	assert.False(t, peers[1].EventSource)

	orderers := c.ChannelOrderers("orgchannel")
	require.Len(t, orderers, 1)
	assert.Equal(t, "orderer.example.com", orderers[0].Name)

	// channel without orderers falls back to all orderers
	assert.Len(t, c.ChannelOrderers("emptychannel"), 2)

	_, ok = c.ChannelConfig("nochannel")
	assert.False(t, ok)
	assert.Empty(t, c.ChannelPeers("nochannel"))
}

func TestInvalidConfigs(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		errMsg string
	}{
		{
			name:   "unknown client org",
			raw:    "client:\n  organization: org9\n",
			errMsg: "client organization org9 is not defined",
		},
		{
			name:   "peer without url",
			raw:    "peers:\n  peer0:\n    grpcOptions:\n      allow-insecure: true\n",
			errMsg: "peer peer0 has no url",
		},
		{
			name: "channel with unknown orderer",
			raw: "organizations:\n  org1:\n    mspid: Org1MSP\n    peers: [peer0]\n" +
				"peers:\n  peer0:\n    url: localhost:7051\n" +
				"channels:\n  ch1:\n    orderers: [orderer9]\n    peers:\n      peer0: {}\n",
			errMsg: "channel ch1 references unknown orderer orderer9",
		},
		{
			name:   "channel with unknown peer",
			raw:    "channels:\n  ch1:\n    peers:\n      peer7: {}\n",
			errMsg: "channel ch1 references unknown peer peer7",
		},
		{
			name:   "unreadable tls cert",
			raw:    "peers:\n  peer0:\n    url: localhost:7051\n    tlsCACerts:\n      path: /does/not/exist.pem\n",
			errMsg: "failed to load TLS CA cert of peer peer0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backends, err := config.FromRaw([]byte(tc.raw), "yaml")()
			require.NoError(t, err)

			_, err = ConfigFromBackend(backends...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
