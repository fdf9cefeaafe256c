/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"io"
	"sync"

	"github.com/hyperledger/fabric-protos-go/common"
	po "github.com/hyperledger/fabric-protos-go/orderer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	grpcstatus "google.golang.org/grpc/status"
)

// MockBroadcastServer serves the broadcast API of an orderer
type MockBroadcastServer struct {
	Creds credentials.TransportCredentials
	// BroadcastError ends the stream with this error when set
	BroadcastError error
	// BroadcastStatus is the status answered, SUCCESS when zero
	BroadcastStatus common.Status
	// OnBroadcast is called with every envelope answered successfully
	OnBroadcast func(envelope *common.Envelope)

	mutex     sync.Mutex
	envelopes []*common.Envelope
	server    grpcServer
}

// Broadcast answers every envelope received on the stream
func (m *MockBroadcastServer) Broadcast(server po.AtomicBroadcast_BroadcastServer) error {
	for {
		envelope, err := server.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if m.BroadcastError != nil {
			return m.BroadcastError
		}

		s := m.BroadcastStatus
		if s == common.Status_UNKNOWN {
			s = common.Status_SUCCESS
		}
		if s == common.Status_SUCCESS {
			m.mutex.Lock()
			m.envelopes = append(m.envelopes, envelope)
			m.mutex.Unlock()
		}
		if err := server.Send(&po.BroadcastResponse{Status: s}); err != nil {
			return err
		}
		if s == common.Status_SUCCESS && m.OnBroadcast != nil {
			m.OnBroadcast(envelope)
		}
	}
}

// Deliver is not served by the mock orderer
func (m *MockBroadcastServer) Deliver(server po.AtomicBroadcast_DeliverServer) error {
	return grpcstatus.Error(codes.Unimplemented, "deliver is not served by the mock orderer")
}

// Envelopes returns the envelopes accepted
func (m *MockBroadcastServer) Envelopes() []*common.Envelope {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*common.Envelope(nil), m.envelopes...)
}

// Start the mock broadcast server and return its address
func (m *MockBroadcastServer) Start(address string) string {
	return m.server.start(address, m.Creds, func(srv *grpc.Server) {
		po.RegisterAtomicBroadcastServer(srv, m)
	})
}

// Stop the mock broadcast server and wait for completion.
func (m *MockBroadcastServer) Stop() {
	m.server.stop()
}
