/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peer connects to the endorsers of a Fabric network over gRPC.
package peer

import (
	reqContext "context"
	"crypto/x509"
	"time"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/comm"
)

var logger = logging.NewLogger("orchestrator/fab")

// Peer represents a node in the target blockchain network to which
// endorsement proposals and chaincode queries are sent.
type Peer struct {
	config    fab.EndpointConfig
	name      string
	url       string
	mspID     string
	params    comm.Params
	processor fab.ProposalProcessor
}

// Option describes a functional parameter for the New constructor
type Option func(*Peer) error

// New Returns a new Peer instance
func New(config fab.EndpointConfig, opts ...Option) (*Peer, error) {
	peer := &Peer{config: config, params: comm.ParamsFromGRPCOptions(nil, nil)}

	for _, opt := range opts {
		if err := opt(peer); err != nil {
			return nil, err
		}
	}

	if peer.processor == nil {
		processor, err := newPeerEndorser(peer.url, peer.params, config)
		if err != nil {
			return nil, err
		}
		peer.processor = processor
	}

	return peer, nil
}

// WithURL is a functional option for the peer.New constructor that configures the peer's URL
func WithURL(url string) Option {
	return func(p *Peer) error {
		p.url = url
		return nil
	}
}

// WithName sets the configured name of the peer
func WithName(name string) Option {
	return func(p *Peer) error {
		p.name = name
		return nil
	}
}

// WithTLSCert is a functional option for the peer.New constructor that configures the peer's TLS certificate
func WithTLSCert(certificate *x509.Certificate) Option {
	return func(p *Peer) error {
		p.params.Certificate = certificate
		return nil
	}
}

// WithServerName is a functional option for the peer.New constructor that configures the peer's server name
func WithServerName(serverName string) Option {
	return func(p *Peer) error {
		p.params.HostOverride = serverName
		return nil
	}
}

// WithInsecure is a functional option for the peer.New constructor that configures the peer's grpc insecure option
func WithInsecure() Option {
	return func(p *Peer) error {
		p.params.AllowInsecure = true
		return nil
	}
}

// WithMSPID is a functional option for the peer.New constructor that configures the peer's msp ID
func WithMSPID(mspID string) Option {
	return func(p *Peer) error {
		p.mspID = mspID
		return nil
	}
}

// FromPeerConfig is a functional option for the peer.New constructor that configures a new peer
// from a fab.NetworkPeer struct
func FromPeerConfig(peerCfg *fab.NetworkPeer) Option {
	return func(p *Peer) error {
		p.name = peerCfg.Name
		p.url = peerCfg.URL
		p.mspID = peerCfg.MSPID
		p.params = comm.ParamsFromGRPCOptions(peerCfg.GRPCOptions, peerCfg.TLSCACert)

		if !p.params.AllowInsecure {
			if err := validateCertificateDates(peerCfg.TLSCACert, time.Now()); err != nil {
				logger.Warn(err)
			}
		}
		return nil
	}
}

// WithPeerProcessor is a functional option for the peer.New constructor that configures the peer's proposal processor
func WithPeerProcessor(processor fab.ProposalProcessor) Option {
	return func(p *Peer) error {
		p.processor = processor
		return nil
	}
}

// Name returns the configured name of the peer, or its URL
func (p *Peer) Name() string {
	if p.name == "" {
		return p.url
	}
	return p.name
}

// MSPID gets the Peer mspID.
func (p *Peer) MSPID() string {
	return p.mspID
}

// URL gets the Peer URL. Required property for the instance objects.
// It returns the address of the Peer.
func (p *Peer) URL() string {
	return p.url
}

// ProcessTransactionProposal sends the created proposal to peer for endorsement.
func (p *Peer) ProcessTransactionProposal(ctx reqContext.Context, proposal fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	return p.processor.ProcessTransactionProposal(ctx, proposal)
}

// Close releases the connection of the peer
func (p *Peer) Close() {
	if c, ok := p.processor.(interface{ Close() }); ok {
		c.Close()
	}
}

func (p *Peer) String() string {
	return p.url
}

// PeersToTxnProcessors converts a slice of Peers to a slice of TxnProposalProcessors
func PeersToTxnProcessors(peers []fab.Peer) []fab.ProposalProcessor {
	tpp := make([]fab.ProposalProcessor, len(peers))

	for i := range peers {
		tpp[i] = peers[i]
	}
	return tpp
}
