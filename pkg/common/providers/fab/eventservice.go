/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// TxStatusEvent contains the data for a transaction status event
type TxStatusEvent struct {
	TxID             string
	TxValidationCode pb.TxValidationCode
	BlockNumber      uint64
	// Block is the header of the block that carried the transaction
	Block *cb.BlockHeader
	// Signature is the signature of the transaction envelope as it was
	// committed
	Signature []byte
	SourceURL string
}

// Registration is a handle that is returned from a successful RegisterXXXEvent.
// This handle should be used in Unregister in order to unregister the event.
type Registration interface{}

// EventService is a service that receives transaction status events
type EventService interface {
	// RegisterTxStatusEvent registers for transaction status events.
	// The returned channel is closed when the registration is removed.
	RegisterTxStatusEvent(txID string) (Registration, <-chan *TxStatusEvent, error)

	// Unregister removes the given registration and closes its event channel.
	Unregister(reg Registration)
}
