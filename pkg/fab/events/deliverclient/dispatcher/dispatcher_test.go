/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dispatcher

import (
	"math"
	"testing"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabric-orchestrator/orchestrator/pkg/fab/mocks"
)

const sourceURL = "peer0.org1.example.com:7051"

func newBlock(t *testing.T, number uint64, txs ...mocks.BlockTx) *cb.Block {
	block, err := mocks.NewBlock("mychannel", number, txs...)
	require.NoError(t, err)
	return block
}

func TestHandleBlock(t *testing.T) {
	d := New()
	assert.Equal(t, uint64(math.MaxUint64), d.LastBlockNum())

	_, valid, err := d.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)
	_, invalid, err := d.RegisterTxStatusEvent("tx2")
	require.NoError(t, err)

	block := newBlock(t, 4,
		mocks.BlockTx{TxID: "other", Code: pb.TxValidationCode_VALID, Signature: []byte("s0")},
		mocks.BlockTx{TxID: "tx1", Code: pb.TxValidationCode_VALID, Signature: []byte("s1")},
		mocks.BlockTx{TxID: "tx2", Code: pb.TxValidationCode_MVCC_READ_CONFLICT, Signature: []byte("s2")},
	)
	require.NoError(t, d.HandleBlock(block, sourceURL))
	assert.Equal(t, uint64(4), d.LastBlockNum())

	event := <-valid
	assert.Equal(t, "tx1", event.TxID)
	assert.Equal(t, pb.TxValidationCode_VALID, event.TxValidationCode)
	assert.Equal(t, uint64(4), event.BlockNumber)
	assert.Equal(t, block.Header, event.Block)
	assert.Equal(t, []byte("s1"), event.Signature)
	assert.Equal(t, sourceURL, event.SourceURL)

	event = <-invalid
	assert.Equal(t, pb.TxValidationCode_MVCC_READ_CONFLICT, event.TxValidationCode)
}

func TestHandleBlockPublishesOnce(t *testing.T) {
	d := New()
	_, eventch, err := d.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)

	tx := mocks.BlockTx{TxID: "tx1", Code: pb.TxValidationCode_VALID, Signature: []byte("s1")}
	require.NoError(t, d.HandleBlock(newBlock(t, 1, tx), sourceURL))
	require.NoError(t, d.HandleBlock(newBlock(t, 2, tx), sourceURL))

	event := <-eventch
	assert.Equal(t, uint64(1), event.BlockNumber)
	assert.Empty(t, eventch)
}

func TestHandleBlockInvalid(t *testing.T) {
	d := New()
	assert.Error(t, d.HandleBlock(nil, sourceURL))
	assert.Error(t, d.HandleBlock(&cb.Block{}, sourceURL))

	// undecodable transactions are skipped
	_, eventch, err := d.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)
	block := newBlock(t, 3, mocks.BlockTx{TxID: "tx1", Code: pb.TxValidationCode_VALID})
	block.Data.Data = append([][]byte{[]byte("garbage")}, block.Data.Data...)
	block.Metadata.Metadata[cb.BlockMetadataIndex_TRANSACTIONS_FILTER] = []byte{0, byte(pb.TxValidationCode_VALID)}
	require.NoError(t, d.HandleBlock(block, sourceURL))

	event := <-eventch
	assert.Equal(t, pb.TxValidationCode_VALID, event.TxValidationCode)
}

func TestRegistration(t *testing.T) {
	d := New()

	_, _, err := d.RegisterTxStatusEvent("")
	assert.Error(t, err)

	reg, eventch, err := d.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)
	_, _, err = d.RegisterTxStatusEvent("tx1")
	assert.Error(t, err, "duplicate registration")

	d.Unregister(reg)
	_, ok := <-eventch
	assert.False(t, ok)

	// unregistering twice is harmless
	d.Unregister(reg)
	d.Unregister("unknown")

	_, _, err = d.RegisterTxStatusEvent("tx1")
	assert.NoError(t, err)
}

func TestClose(t *testing.T) {
	d := New()
	_, eventch, err := d.RegisterTxStatusEvent("tx1")
	require.NoError(t, err)
	assert.False(t, d.Closed())

	d.Close()
	assert.True(t, d.Closed())
	_, ok := <-eventch
	assert.False(t, ok)

	_, _, err = d.RegisterTxStatusEvent("tx2")
	assert.Equal(t, ErrClosed, err)
	d.Close()
}
