/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

import (
	reqContext "context"
	"sync"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/multi"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
)

// CreateChaincodeInvokeProposal creates a proposal for transaction.
func CreateChaincodeInvokeProposal(txh fab.TransactionHeader, request fab.ChaincodeInvokeRequest) (*fab.TransactionProposal, error) {
	if request.ChaincodeID.Name == "" {
		return nil, status.NewPrecondition("ChaincodeID is required")
	}
	if request.Fcn == "" {
		return nil, status.NewPrecondition("Fcn is required")
	}

	// Add function name to arguments
	argsArray := make([][]byte, 0, len(request.Args)+1)
	argsArray = append(argsArray, []byte(request.Fcn))
	argsArray = append(argsArray, request.Args...)

	ccis := &pb.ChaincodeInvocationSpec{ChaincodeSpec: &pb.ChaincodeSpec{
		Type:        request.Lang,
		ChaincodeId: &pb.ChaincodeID{Name: request.ChaincodeID.Name},
		Input:       &pb.ChaincodeInput{Args: argsArray},
	}}
	ccisBytes, err := proto.Marshal(ccis)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of chaincode invocation spec failed")
	}

	ccPropPayloadBytes, err := proto.Marshal(&pb.ChaincodeProposalPayload{
		Input:        ccisBytes,
		TransientMap: request.TransientMap,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal of chaincode proposal payload failed")
	}

	channelHeader, err := CreateChannelHeader(cb.HeaderType_ENDORSER_TRANSACTION, ChannelHeaderOpts{
		TxnHeader:   txh,
		ChaincodeID: request.ChaincodeID.Name,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel header")
	}

	header, err := CreateHeader(txh, channelHeader)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create header")
	}
	headerBytes, err := proto.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of proposal header failed")
	}

	return &fab.TransactionProposal{
		TxnID: txh.TransactionID(),
		Proposal: &pb.Proposal{
			Header:  headerBytes,
			Payload: ccPropPayloadBytes,
		},
	}, nil
}

// SignProposal creates a SignedProposal signed by signer.
func SignProposal(signer msp.SigningIdentity, proposal *pb.Proposal) (*pb.SignedProposal, error) {
	proposalBytes, err := proto.Marshal(proposal)
	if err != nil {
		return nil, errors.Wrap(err, "marshal proposal failed")
	}

	signature, err := signer.Sign(proposalBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "sign failed")
	}

	return &pb.SignedProposal{ProposalBytes: proposalBytes, Signature: signature}, nil
}

// EndorserError is a failure to obtain a response from an endorser
type EndorserError struct {
	Endorser string
	Err      error
}

func (e *EndorserError) Error() string {
	return "endorser " + e.Endorser + ": " + e.Err.Error()
}

// Cause returns the underlying transport error
func (e *EndorserError) Cause() error {
	return e.Err
}

// SendProposal signs proposal and sends it to every target concurrently.
// The responses are returned in target order; each one is checked by
// verifier and marked Verified accordingly. Targets that could not be
// reached are reported as *EndorserError values, also in target order.
func SendProposal(reqCtx reqContext.Context, proposal *fab.TransactionProposal, signer msp.SigningIdentity, targets []fab.ProposalProcessor, verifier fab.ResponseVerifier) ([]*fab.TransactionProposalResponse, error) {
	if proposal == nil {
		return nil, errors.New("proposal is required")
	}
	if len(targets) < 1 {
		return nil, status.New(status.EndorserClientStatus, status.NoPeersFound.ToInt32(), "targets is required", nil)
	}
	for _, p := range targets {
		if p == nil {
			return nil, errors.New("target is nil")
		}
	}
	if verifier == nil {
		return nil, errors.New("response verifier is required")
	}

	targets = getTargetsWithoutDuplicates(targets)

	signedProposal, err := SignProposal(signer, proposal.Proposal)
	if err != nil {
		return nil, errors.WithMessage(err, "sign proposal failed")
	}

	request := fab.ProcessProposalRequest{SignedProposal: signedProposal}

	responses := make([]*fab.TransactionProposalResponse, len(targets))
	failures := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, p := range targets {
		wg.Add(1)
		go func(i int, processor fab.ProposalProcessor) {
			defer wg.Done()

			resp, err := processor.ProcessTransactionProposal(reqCtx, request)
			if err != nil {
				logger.Debugf("Received error response from txn proposal processing: %s", err)
				failures[i] = &EndorserError{Endorser: targetName(processor), Err: err}
				return
			}

			if verr := verifier.Verify(resp.ProposalResponse); verr != nil {
				logger.Warnf("Endorsement from [%s] failed verification: %s", resp.Endorser, verr)
				resp.Verified = false
			} else {
				resp.Verified = true
			}
			responses[i] = resp
		}(i, p)
	}
	wg.Wait()

	var received []*fab.TransactionProposalResponse
	for _, r := range responses {
		if r != nil {
			received = append(received, r)
		}
	}
	var errs multi.Errors
	for _, e := range failures {
		if e != nil {
			errs = append(errs, e)
		}
	}

	return received, errs.ToError()
}

func targetName(processor fab.ProposalProcessor) string {
	if peer, ok := processor.(fab.Peer); ok {
		return peer.URL()
	}
	return "unknown"
}

// getTargetsWithoutDuplicates returns a list of targets without duplicates
func getTargetsWithoutDuplicates(targets []fab.ProposalProcessor) []fab.ProposalProcessor {
	peerUrlsToTargets := map[string]fab.ProposalProcessor{}
	var uniqueTargets []fab.ProposalProcessor

	for i := range targets {
		peer, ok := targets[i].(fab.Peer)
		if !ok {
			// ProposalProcessor is not a fab.Peer... cannot remove duplicates
			return targets
		}
		if _, present := peerUrlsToTargets[peer.URL()]; !present {
			uniqueTargets = append(uniqueTargets, targets[i])
			peerUrlsToTargets[peer.URL()] = targets[i]
		}
	}

	if len(uniqueTargets) != len(targets) {
		logger.Warn("Duplicate target peers in configuration")
	}

	return uniqueTargets
}
