/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package txn creates proposals, collects endorsements, assembles
// transactions and broadcasts them to the ordering service.
package txn

import (
	"bytes"
	reqContext "context"
	"math/rand"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/multi"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
)

var logger = logging.NewLogger("orchestrator/fab")

// New creates a transaction from the proposal and the endorsements that
// agreed on it. Every response must be successful and carry the same
// payload. The transient map of the proposal is not part of the
// transaction.
func New(request fab.TransactionRequest) (*fab.Transaction, error) {
	if request.Proposal == nil || request.Proposal.Proposal == nil {
		return nil, errors.New("proposal is required")
	}
	if len(request.ProposalResponses) == 0 {
		return nil, errors.New("at least one proposal response is necessary")
	}

	proposal := request.Proposal

	hdr := &cb.Header{}
	if err := proto.Unmarshal(proposal.Header, hdr); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal header failed")
	}

	pPayl := &pb.ChaincodeProposalPayload{}
	if err := proto.Unmarshal(proposal.Payload, pPayl); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal payload failed")
	}

	responsePayload := request.ProposalResponses[0].ProposalResponse.Payload
	endorsements := make([]*pb.Endorsement, len(request.ProposalResponses))
	for n, r := range request.ProposalResponses {
		if !Succeeded(r) {
			return nil, errors.Errorf("proposal response of %s was not successful, error code %d, msg %s",
				r.Endorser, r.ProposalResponse.GetResponse().GetStatus(), r.ProposalResponse.GetResponse().GetMessage())
		}
		if !bytes.Equal(responsePayload, r.ProposalResponse.Payload) {
			return nil, errors.Errorf("proposal response payload of %s differs from the first response", r.Endorser)
		}
		endorsements[n] = r.ProposalResponse.Endorsement
	}

	cea := &pb.ChaincodeEndorsedAction{ProposalResponsePayload: responsePayload, Endorsements: endorsements}

	propPayloadBytes, err := proto.Marshal(&pb.ChaincodeProposalPayload{Input: pPayl.Input})
	if err != nil {
		return nil, errors.Wrap(err, "marshal of proposal payload failed")
	}

	capBytes, err := proto.Marshal(&pb.ChaincodeActionPayload{ChaincodeProposalPayload: propPayloadBytes, Action: cea})
	if err != nil {
		return nil, errors.Wrap(err, "marshal of chaincode action payload failed")
	}

	return &fab.Transaction{
		Transaction: &pb.Transaction{Actions: []*pb.TransactionAction{{Header: hdr.SignatureHeader, Payload: capBytes}}},
		Proposal:    proposal,
	}, nil
}

// Send signs tx with signer and broadcasts it to one of the orderers.
func Send(reqCtx reqContext.Context, signer msp.SigningIdentity, tx *fab.Transaction, orderers []fab.Orderer) (*fab.TransactionResponse, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	if tx.Proposal == nil || tx.Proposal.Proposal == nil {
		return nil, errors.New("proposal is nil")
	}

	hdr := &cb.Header{}
	if err := proto.Unmarshal(tx.Proposal.Header, hdr); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal header failed")
	}

	txBytes, err := proto.Marshal(tx.Transaction)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of transaction failed")
	}

	return BroadcastPayload(reqCtx, signer, &cb.Payload{Header: hdr, Data: txBytes}, orderers)
}

// BroadcastPayload signs payload and sends it to the orderers in random
// order until one accepts it.
func BroadcastPayload(reqCtx reqContext.Context, signer msp.SigningIdentity, payload *cb.Payload, orderers []fab.Orderer) (*fab.TransactionResponse, error) {
	if len(orderers) == 0 {
		return nil, status.New(status.OrdererClientStatus, status.NoPeersFound.ToInt32(), "orderers not set", nil)
	}

	envelope, err := SignPayload(signer, payload)
	if err != nil {
		return nil, err
	}

	return broadcastEnvelope(reqCtx, envelope, orderers)
}

func broadcastEnvelope(reqCtx reqContext.Context, envelope *fab.SignedEnvelope, orderers []fab.Orderer) (*fab.TransactionResponse, error) {
	var errs multi.Errors
	for _, i := range rand.Perm(len(orderers)) {
		orderer := orderers[i]
		logger.Debugf("Broadcasting envelope to orderer: %s", orderer.URL())

		if _, err := orderer.SendBroadcast(reqCtx, envelope); err != nil {
			logger.Debugf("Received error response from orderer %s: %s", orderer.URL(), err)
			errs = append(errs, errors.WithMessagef(err, "calling orderer '%s' failed", orderer.URL()))
			continue
		}

		return &fab.TransactionResponse{Orderer: orderer.URL()}, nil
	}

	details := make([]interface{}, len(errs))
	for i, e := range errs {
		details[i] = e
	}
	return nil, status.New(status.OrdererClientStatus, status.ConnectionFailed.ToInt32(),
		"broadcast failed on every orderer: "+errs.Error(), details)
}
