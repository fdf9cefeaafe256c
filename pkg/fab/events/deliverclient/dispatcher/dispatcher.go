/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dispatcher turns delivered blocks into transaction status events
// for the registrations waiting on them.
package dispatcher

import (
	"math"
	"sync"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

var logger = logging.NewLogger("orchestrator/fab")

// ErrClosed is returned when registering on a closed dispatcher
var ErrClosed = errors.New("event dispatcher is closed")

type txRegistration struct {
	txID    string
	eventch chan *fab.TxStatusEvent
}

// Dispatcher holds the transaction status registrations of one channel
type Dispatcher struct {
	mutex         sync.Mutex
	registrations map[string]*txRegistration
	lastBlockNum  uint64
	closed        bool
}

// New returns a dispatcher that has not seen a block
func New() *Dispatcher {
	return &Dispatcher{
		registrations: make(map[string]*txRegistration),
		lastBlockNum:  math.MaxUint64,
	}
}

// RegisterTxStatusEvent registers for the status of txID. One registration
// per transaction is allowed.
func (d *Dispatcher) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	if txID == "" {
		return nil, nil, errors.New("txID must be provided")
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return nil, nil, ErrClosed
	}
	if _, ok := d.registrations[txID]; ok {
		return nil, nil, errors.Errorf("registration already exists for TX ID [%s]", txID)
	}

	reg := &txRegistration{txID: txID, eventch: make(chan *fab.TxStatusEvent, 1)}
	d.registrations[txID] = reg
	return reg, reg.eventch, nil
}

// Unregister removes the registration and closes its event channel
func (d *Dispatcher) Unregister(reg fab.Registration) {
	r, ok := reg.(*txRegistration)
	if !ok {
		logger.Warnf("Unsupported registration type: %T", reg)
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if current, ok := d.registrations[r.txID]; ok && current == r {
		delete(d.registrations, r.txID)
		close(r.eventch)
	}
}

// LastBlockNum returns the number of the last block handled, or
// math.MaxUint64 before the first
func (d *Dispatcher) LastBlockNum() uint64 {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.lastBlockNum
}

// HandleBlock publishes the status of every registered transaction in
// block. sourceURL names the peer that delivered it.
func (d *Dispatcher) HandleBlock(block *cb.Block, sourceURL string) error {
	if block == nil || block.Header == nil || block.Data == nil {
		return errors.New("block is missing its header or data")
	}

	var filter []byte
	if md := block.Metadata.GetMetadata(); len(md) > int(cb.BlockMetadataIndex_TRANSACTIONS_FILTER) {
		filter = md[cb.BlockMetadataIndex_TRANSACTIONS_FILTER]
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.lastBlockNum == math.MaxUint64 || block.Header.Number > d.lastBlockNum {
		d.lastBlockNum = block.Header.Number
	}

	for i, data := range block.Data.Data {
		envelope, txID, err := transaction(data)
		if err != nil {
			logger.Warnf("Skipping transaction %d of block %d: %s", i, block.Header.Number, err)
			continue
		}
		reg, ok := d.registrations[txID]
		if !ok {
			continue
		}

		code := pb.TxValidationCode_NOT_VALIDATED
		if i < len(filter) {
			code = pb.TxValidationCode(filter[i])
		}

		event := &fab.TxStatusEvent{
			TxID:             txID,
			TxValidationCode: code,
			BlockNumber:      block.Header.Number,
			Block:            block.Header,
			Signature:        envelope.Signature,
			SourceURL:        sourceURL,
		}
		select {
		case reg.eventch <- event:
			logger.Debugf("Published status %s of transaction %s in block %d", code, txID, block.Header.Number)
		default:
			logger.Debugf("Status of transaction %s already published", txID)
		}
	}
	return nil
}

// Close closes every registration. Later registrations fail with ErrClosed.
func (d *Dispatcher) Close() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for txID, reg := range d.registrations {
		close(reg.eventch)
		delete(d.registrations, txID)
	}
}

// Closed reports whether Close was called
func (d *Dispatcher) Closed() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.closed
}

func transaction(data []byte) (*cb.Envelope, string, error) {
	envelope := &cb.Envelope{}
	if err := proto.Unmarshal(data, envelope); err != nil {
		return nil, "", errors.Wrap(err, "unmarshal of envelope failed")
	}
	payload := &cb.Payload{}
	if err := proto.Unmarshal(envelope.Payload, payload); err != nil {
		return nil, "", errors.Wrap(err, "unmarshal of payload failed")
	}
	if payload.Header == nil {
		return nil, "", errors.New("payload header is missing")
	}
	chdr := &cb.ChannelHeader{}
	if err := proto.Unmarshal(payload.Header.ChannelHeader, chdr); err != nil {
		return nil, "", errors.Wrap(err, "unmarshal of channel header failed")
	}
	return envelope, chdr.TxId, nil
}
