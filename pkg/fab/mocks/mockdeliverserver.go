/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"sync"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	grpcstatus "google.golang.org/grpc/status"
)

// BlockTx is a transaction placed in a mock block
type BlockTx struct {
	TxID      string
	Code      pb.TxValidationCode
	Signature []byte
}

// NewBlock returns block number of channelID holding txs, with the
// transaction filter carrying their validation codes
func NewBlock(channelID string, number uint64, txs ...BlockTx) (*common.Block, error) {
	data := make([][]byte, len(txs))
	filter := make([]byte, len(txs))
	for i, tx := range txs {
		chdr, err := proto.Marshal(&common.ChannelHeader{
			Type:      int32(common.HeaderType_ENDORSER_TRANSACTION),
			ChannelId: channelID,
			TxId:      tx.TxID,
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshal of channel header failed")
		}
		payload, err := proto.Marshal(&common.Payload{Header: &common.Header{ChannelHeader: chdr}})
		if err != nil {
			return nil, errors.Wrap(err, "marshal of payload failed")
		}
		envelope, err := proto.Marshal(&common.Envelope{Payload: payload, Signature: tx.Signature})
		if err != nil {
			return nil, errors.Wrap(err, "marshal of envelope failed")
		}
		data[i] = envelope
		filter[i] = byte(tx.Code)
	}

	metadata := make([][]byte, len(common.BlockMetadataIndex_name))
	metadata[common.BlockMetadataIndex_TRANSACTIONS_FILTER] = filter

	return &common.Block{
		Header:   &common.BlockHeader{Number: number},
		Data:     &common.BlockData{Data: data},
		Metadata: &common.BlockMetadata{Metadata: metadata},
	}, nil
}

// MockDeliverServer serves the block deliver API of a peer. Blocks passed
// to Deliver are streamed to every connected client.
type MockDeliverServer struct {
	Creds credentials.TransportCredentials
	// DeliverError ends new streams with this error when set
	DeliverError error

	mutex    sync.Mutex
	seeks    []*common.Envelope
	streams  map[chan *common.Block]struct{}
	blockNum uint64
	server   grpcServer
}

// NewMockDeliverServer returns a deliver server without clients
func NewMockDeliverServer() *MockDeliverServer {
	return &MockDeliverServer{streams: make(map[chan *common.Block]struct{})}
}

// Deliver streams blocks to the client after its seek request
func (m *MockDeliverServer) Deliver(server pb.Deliver_DeliverServer) error {
	if m.DeliverError != nil {
		return m.DeliverError
	}
	seek, err := server.Recv()
	if err != nil {
		return err
	}

	blocks := make(chan *common.Block, 16)
	m.mutex.Lock()
	m.seeks = append(m.seeks, seek)
	m.streams[blocks] = struct{}{}
	m.mutex.Unlock()

	defer func() {
		m.mutex.Lock()
		delete(m.streams, blocks)
		m.mutex.Unlock()
	}()

	for {
		select {
		case <-server.Context().Done():
			return nil
		case block := <-blocks:
			if err := server.Send(&pb.DeliverResponse{Type: &pb.DeliverResponse_Block{Block: block}}); err != nil {
				return err
			}
		}
	}
}

// DeliverFiltered is not served by the mock peer
func (m *MockDeliverServer) DeliverFiltered(server pb.Deliver_DeliverFilteredServer) error {
	return grpcstatus.Error(codes.Unimplemented, "filtered blocks are not served by the mock peer")
}

// DeliverWithPrivateData is not served by the mock peer
func (m *MockDeliverServer) DeliverWithPrivateData(server pb.Deliver_DeliverWithPrivateDataServer) error {
	return grpcstatus.Error(codes.Unimplemented, "private data is not served by the mock peer")
}

// Publish sends block to every connected client
func (m *MockDeliverServer) Publish(block *common.Block) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for stream := range m.streams {
		stream <- block
	}
}

// Connections returns the number of connected clients
func (m *MockDeliverServer) Connections() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.streams)
}

// Seeks returns the seek envelopes received
func (m *MockDeliverServer) Seeks() []*common.Envelope {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*common.Envelope(nil), m.seeks...)
}

// CommitOnBroadcast returns an OnBroadcast callback of a MockBroadcastServer
// that publishes every broadcast transaction in its own block with code
func (m *MockDeliverServer) CommitOnBroadcast(code pb.TxValidationCode) func(*common.Envelope) {
	return func(envelope *common.Envelope) {
		payload := &common.Payload{}
		if err := proto.Unmarshal(envelope.Payload, payload); err != nil || payload.Header == nil {
			return
		}
		chdr := &common.ChannelHeader{}
		if err := proto.Unmarshal(payload.Header.ChannelHeader, chdr); err != nil {
			return
		}

		m.mutex.Lock()
		m.blockNum++
		number := m.blockNum
		m.mutex.Unlock()

		block, err := NewBlock(chdr.ChannelId, number, BlockTx{TxID: chdr.TxId, Code: code, Signature: envelope.Signature})
		if err != nil {
			return
		}
		m.Publish(block)
	}
}

// Start the mock deliver server and return its address
func (m *MockDeliverServer) Start(address string) string {
	return m.server.start(address, m.Creds, func(srv *grpc.Server) {
		pb.RegisterDeliverServer(srv, m)
	})
}

// Stop the mock deliver server and wait for completion.
func (m *MockDeliverServer) Stop() {
	m.server.stop()
}

// peerServer serves the endorser and deliver APIs on one address, like a
// real peer
type peerServer struct {
	endorser *MockEndorserServer
	deliver  *MockDeliverServer
	server   grpcServer
}

// StartMockPeerServer serves endorser and deliver on one listener and
// returns its address with a stop function
func StartMockPeerServer(address string, endorser *MockEndorserServer, deliver *MockDeliverServer) (string, func()) {
	s := &peerServer{endorser: endorser, deliver: deliver}
	addr := s.server.start(address, endorser.Creds, func(srv *grpc.Server) {
		pb.RegisterEndorserServer(srv, s.endorser)
		pb.RegisterDeliverServer(srv, s.deliver)
	})
	return addr, s.server.stop
}
