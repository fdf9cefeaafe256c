/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	reqContext "context"
	"sync"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

// MockOrderer records the envelopes broadcast to it
type MockOrderer struct {
	MockURL string
	// BroadcastErr is returned by SendBroadcast when set
	BroadcastErr error
	// OnBroadcast is called with every accepted envelope
	OnBroadcast func(envelope *fab.SignedEnvelope)

	mutex     sync.Mutex
	envelopes []*fab.SignedEnvelope
}

// NewMockOrderer returns an orderer at url
func NewMockOrderer(url string) *MockOrderer {
	return &MockOrderer{MockURL: url}
}

// URL returns the URL of the mock orderer
func (o *MockOrderer) URL() string {
	return o.MockURL
}

// SendBroadcast accepts the envelope unless BroadcastErr is set
func (o *MockOrderer) SendBroadcast(ctx reqContext.Context, envelope *fab.SignedEnvelope) (*common.Status, error) {
	o.mutex.Lock()
	if o.BroadcastErr != nil {
		o.mutex.Unlock()
		return nil, o.BroadcastErr
	}
	o.envelopes = append(o.envelopes, envelope)
	onBroadcast := o.OnBroadcast
	o.mutex.Unlock()

	if onBroadcast != nil {
		onBroadcast(envelope)
	}
	s := common.Status_SUCCESS
	return &s, nil
}

// Envelopes returns the accepted envelopes
func (o *MockOrderer) Envelopes() []*fab.SignedEnvelope {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return append([]*fab.SignedEnvelope(nil), o.envelopes...)
}

// EnvelopeTxID returns the transaction id in the channel header of envelope
func EnvelopeTxID(envelope *fab.SignedEnvelope) (string, error) {
	payload := &common.Payload{}
	if err := proto.Unmarshal(envelope.Payload, payload); err != nil {
		return "", errors.Wrap(err, "unmarshal payload failed")
	}
	if payload.Header == nil {
		return "", errors.New("payload header is missing")
	}
	chdr := &common.ChannelHeader{}
	if err := proto.Unmarshal(payload.Header.ChannelHeader, chdr); err != nil {
		return "", errors.Wrap(err, "unmarshal channel header failed")
	}
	return chdr.TxId, nil
}

// CommitOnBroadcast returns an OnBroadcast callback that notifies es of the
// envelope's commit with code in block blockNum
func CommitOnBroadcast(es *MockEventService, code pb.TxValidationCode, blockNum uint64) func(*fab.SignedEnvelope) {
	return func(envelope *fab.SignedEnvelope) {
		txID, err := EnvelopeTxID(envelope)
		if err != nil {
			return
		}
		es.Notify(&fab.TxStatusEvent{
			TxID:             txID,
			TxValidationCode: code,
			BlockNumber:      blockNum,
			Block:            &common.BlockHeader{Number: blockNum},
			Signature:        envelope.Signature,
			SourceURL:        "mock-event-source",
		})
	}
}
