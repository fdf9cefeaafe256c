/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
)

const nonceSize = 24

// TransactionHeader contains metadata for a transaction created by the SDK.
type TransactionHeader struct {
	id        fab.TransactionID
	creator   []byte
	nonce     []byte
	channelID string
}

// TransactionID returns the transaction's computed identifier.
func (th *TransactionHeader) TransactionID() fab.TransactionID {
	return th.id
}

// Creator returns the transaction creator's identity bytes.
func (th *TransactionHeader) Creator() []byte {
	return th.creator
}

// Nonce returns the transaction's generated nonce.
func (th *TransactionHeader) Nonce() []byte {
	return th.nonce
}

// ChannelID returns the transaction's target channel identifier.
func (th *TransactionHeader) ChannelID() string {
	return th.channelID
}

// NewHeader computes a TransactionID for creator on channelID. The id is the
// hex encoded SHA-256 of the nonce followed by the serialized creator.
func NewHeader(creator msp.Identity, channelID string) (*TransactionHeader, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "nonce creation failed")
	}

	creatorBytes, err := creator.Serialize()
	if err != nil {
		return nil, errors.WithMessage(err, "identity from context failed")
	}

	id, err := computeTxnID(nonce, creatorBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "txn ID computation failed")
	}

	return &TransactionHeader{
		id:        id,
		creator:   creatorBytes,
		nonce:     nonce,
		channelID: channelID,
	}, nil
}

func computeTxnID(nonce, creator []byte) (fab.TransactionID, error) {
	h, err := cryptosuite.GetDefault().GetHash(cryptosuite.GetSHA256Opts())
	if err != nil {
		return "", errors.WithMessage(err, "hash function creation failed")
	}
	if _, err := h.Write(append(append([]byte{}, nonce...), creator...)); err != nil {
		return "", errors.Wrap(err, "hashing of nonce and creator failed")
	}
	return fab.TransactionID(hex.EncodeToString(h.Sum(nil))), nil
}

// ChannelHeaderOpts holds the parameters to create a ChannelHeader.
type ChannelHeaderOpts struct {
	TxnHeader   fab.TransactionHeader
	Epoch       uint64
	ChaincodeID string
	Timestamp   time.Time
	TLSCertHash []byte
}

// CreateChannelHeader is a utility method to build a common chain header
func CreateChannelHeader(headerType cb.HeaderType, opts ChannelHeaderOpts) (*cb.ChannelHeader, error) {
	logger.Debugf("buildChannelHeader - headerType: %s channelID: %s txID: %s epoch: %d chaincodeID: %s",
		headerType, opts.TxnHeader.ChannelID(), opts.TxnHeader.TransactionID(), opts.Epoch, opts.ChaincodeID)

	if opts.Timestamp.IsZero() {
		opts.Timestamp = time.Now()
	}

	channelHeader := &cb.ChannelHeader{
		Type:        int32(headerType),
		ChannelId:   opts.TxnHeader.ChannelID(),
		TxId:        string(opts.TxnHeader.TransactionID()),
		Epoch:       opts.Epoch,
		TlsCertHash: opts.TLSCertHash,
		Timestamp:   timestamppb.New(opts.Timestamp),
	}

	if opts.ChaincodeID != "" {
		headerExt := &pb.ChaincodeHeaderExtension{
			ChaincodeId: &pb.ChaincodeID{Name: opts.ChaincodeID},
		}
		headerExtBytes, err := proto.Marshal(headerExt)
		if err != nil {
			return nil, errors.Wrap(err, "marshal header extension failed")
		}
		channelHeader.Extension = headerExtBytes
	}

	return channelHeader, nil
}

// CreateHeader creates a Header from a ChannelHeader.
func CreateHeader(txh fab.TransactionHeader, channelHeader *cb.ChannelHeader) (*cb.Header, error) {
	signatureHeader := &cb.SignatureHeader{
		Creator: txh.Creator(),
		Nonce:   txh.Nonce(),
	}
	sh, err := proto.Marshal(signatureHeader)
	if err != nil {
		return nil, errors.Wrap(err, "marshal signatureHeader failed")
	}
	ch, err := proto.Marshal(channelHeader)
	if err != nil {
		return nil, errors.Wrap(err, "marshal channelHeader failed")
	}
	return &cb.Header{
		SignatureHeader: sh,
		ChannelHeader:   ch,
	}, nil
}

// CreatePayload creates a payload from a ChannelHeader and data.
func CreatePayload(txh fab.TransactionHeader, channelHeader *cb.ChannelHeader, data []byte) (*cb.Payload, error) {
	header, err := CreateHeader(txh, channelHeader)
	if err != nil {
		return nil, errors.WithMessage(err, "header creation failed")
	}
	return &cb.Payload{
		Header: header,
		Data:   data,
	}, nil
}

// SignPayload marshals and signs payload
func SignPayload(signer msp.SigningIdentity, payload *cb.Payload) (*fab.SignedEnvelope, error) {
	payloadBytes, err := proto.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling of payload failed")
	}

	signature, err := signer.Sign(payloadBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "signing of payload failed")
	}

	return &fab.SignedEnvelope{Payload: payloadBytes, Signature: signature}, nil
}
