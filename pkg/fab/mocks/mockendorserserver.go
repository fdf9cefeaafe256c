/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

// MockEndorserServer serves the endorser API, simulating proposals with a
// MockPeer
type MockEndorserServer struct {
	Creds credentials.TransportCredentials
	// Peer simulates the proposals received
	Peer *MockPeer
	// ProposalError is returned instead of a response when set
	ProposalError error

	server grpcServer
}

// NewMockEndorserServer returns a server simulating proposals with a
// MockPeer named name
func NewMockEndorserServer(name string) *MockEndorserServer {
	return &MockEndorserServer{Peer: NewMockPeer(name, name)}
}

// ProcessProposal simulates the proposal. Errors of the simulation are
// returned the way endorsers report chaincode failures.
func (m *MockEndorserServer) ProcessProposal(ctx context.Context, proposal *pb.SignedProposal) (*pb.ProposalResponse, error) {
	if m.ProposalError != nil {
		return nil, m.ProposalError
	}
	resp, err := m.Peer.ProcessTransactionProposal(ctx, fab.ProcessProposalRequest{SignedProposal: proposal})
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Unknown, "transaction returned with failure: %s", err)
	}
	return resp.ProposalResponse, nil
}

// Start the mock endorser server and return its address
func (m *MockEndorserServer) Start(address string) string {
	return m.server.start(address, m.Creds, func(srv *grpc.Server) {
		pb.RegisterEndorserServer(srv, m)
	})
}

// Stop the mock endorser server and wait for completion.
func (m *MockEndorserServer) Stop() {
	m.server.stop()
}
