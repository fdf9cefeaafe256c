/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"crypto/x509"
)

// NetworkConfig provides a static definition of endpoint configuration network
type NetworkConfig struct {
	Name          string
	Channels      map[string]ChannelEndpointConfig
	Organizations map[string]OrganizationConfig
	Orderers      map[string]OrdererConfig
	Peers         map[string]PeerConfig
}

// ClientConfig describes the local client
type ClientConfig struct {
	Organization    string
	LoggingLevel    string
	CredentialStore CredentialStoreConfig
	TLSCerts        ClientTLSConfig
}

// CredentialStoreConfig locates the identity store
type CredentialStoreConfig struct {
	// Type is "file" or "leveldb"
	Type string
	Path string
}

// ClientTLSConfig holds the client key pair used for mutual TLS
type ClientTLSConfig struct {
	CertPath string
	KeyPath  string
}

// ChannelEndpointConfig provides the definition of channels for the network
type ChannelEndpointConfig struct {
	// Orderers list of ordering service nodes
	Orderers []string
	// Peers of the channel keyed by peer name
	Peers map[string]PeerChannelConfig
}

// PeerChannelConfig defines the peer capabilities
type PeerChannelConfig struct {
	EndorsingPeer  bool
	ChaincodeQuery bool
	LedgerQuery    bool
	EventSource    bool
}

// ChannelPeer combines channel peer info with raw peerConfig info
type ChannelPeer struct {
	PeerChannelConfig
	NetworkPeer
}

// NetworkPeer combines peer info with MSP info
type NetworkPeer struct {
	PeerConfig
	MSPID string
}

// OrganizationConfig provides the definition of an organization in the network
type OrganizationConfig struct {
	MSPID      string
	CryptoPath string
	Users      map[string]CertKeyPair
	Peers      []string
}

// OrdererConfig defines an orderer configuration
type OrdererConfig struct {
	Name        string
	URL         string
	GRPCOptions map[string]interface{}
	TLSCACert   *x509.Certificate
}

// PeerConfig defines a peer configuration
type PeerConfig struct {
	Name        string
	URL         string
	GRPCOptions map[string]interface{}
	TLSCACert   *x509.Certificate
}

// CertKeyPair contains the private key and certificate
type CertKeyPair struct {
	Cert []byte
	Key  []byte
}
