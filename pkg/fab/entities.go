/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"github.com/fabric-orchestrator/orchestrator/pkg/core/config/endpoint"
)

// ClientConfig is the raw 'client' section of the configuration
type ClientConfig struct {
	Organization    string
	Logging         LoggingType
	CredentialStore CredentialStoreType
	TLSCerts        ClientTLSConfig
}

// LoggingType is the 'client.logging' section
type LoggingType struct {
	Level string
}

// CredentialStoreType is the 'client.credentialStore' section
type CredentialStoreType struct {
	Type string
	Path string
}

// ClientTLSConfig is the 'client.tlsCerts' section
type ClientTLSConfig struct {
	Client endpoint.TLSKeyPair
}

// ChannelEndpointConfig is the raw channel entry
type ChannelEndpointConfig struct {
	Orderers []string
	Peers    map[string]PeerChannelConfig
}

// PeerChannelConfig is the raw channel peer entry. Missing roles default to
// true.
type PeerChannelConfig struct {
	EndorsingPeer  bool
	ChaincodeQuery bool
	LedgerQuery    bool
	EventSource    bool
}

// OrganizationConfig is the raw organization entry
type OrganizationConfig struct {
	MSPID      string
	CryptoPath string
	Users      map[string]endpoint.TLSKeyPair
	Peers      []string
}

// OrdererConfig is the raw orderer entry
type OrdererConfig struct {
	URL         string
	GRPCOptions map[string]interface{}
	TLSCACerts  endpoint.TLSConfig
}

// PeerConfig is the raw peer entry
type PeerConfig struct {
	URL         string
	GRPCOptions map[string]interface{}
	TLSCACerts  endpoint.TLSConfig
}

type endpointConfigEntity struct {
	Client        ClientConfig
	Channels      map[string]ChannelEndpointConfig
	Organizations map[string]OrganizationConfig
	Orderers      map[string]OrdererConfig
	Peers         map[string]PeerConfig
}
