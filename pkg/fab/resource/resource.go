/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resource builds and sends the lscc proposals that install and
// deploy chaincode, and queries the chaincode registries of peers.
package resource

import (
	reqContext "context"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/retry"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	contextImpl "github.com/fabric-orchestrator/orchestrator/pkg/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

var logger = logging.NewLogger("orchestrator/fab")

// systemChannel is the channel of proposals addressed to a peer rather
// than to a channel
const systemChannel = ""

type options struct {
	retry retry.Opts
}

// Opt is a resource option
type Opt func(opts *options)

// WithRetry supplies retry options. Only registry queries are retried.
func WithRetry(retry retry.Opts) Opt {
	return func(options *options) {
		options.retry = retry
	}
}

// InstallChaincode sends an install proposal to one or more endorsing peers.
// The responses of the peers that answered are returned together with the
// transport failures of the others.
func InstallChaincode(reqCtx reqContext.Context, req InstallChaincodeRequest, targets []fab.ProposalProcessor) ([]*fab.TransactionProposalResponse, fab.TransactionID, error) {
	if req.Name == "" {
		return nil, fab.EmptyTransactionID, status.NewPrecondition("chaincode name required")
	}
	if req.Version == "" {
		return nil, fab.EmptyTransactionID, status.NewPrecondition("chaincode version required")
	}
	if req.Package == nil {
		return nil, fab.EmptyTransactionID, status.NewPrecondition("chaincode package is required")
	}

	ctx, ok := contextImpl.RequestClientContext(reqCtx)
	if !ok {
		return nil, fab.EmptyTransactionID, errors.New("failed get client context from reqContext for txn header")
	}

	txh, err := txn.NewHeader(ctx, systemChannel)
	if err != nil {
		return nil, fab.EmptyTransactionID, errors.WithMessage(err, "create transaction ID failed")
	}

	prop, err := CreateChaincodeInstallProposal(txh, req)
	if err != nil {
		return nil, fab.EmptyTransactionID, errors.WithMessage(err, "creation of install chaincode proposal failed")
	}

	responses, err := txn.SendProposal(reqCtx, prop, ctx, targets, ctx.ResponseVerifier())
	return responses, prop.TxnID, err
}

// QueryInstalledChaincodes queries the installed chaincodes on a peer.
// Returns the details of all chaincodes installed on a peer.
func QueryInstalledChaincodes(reqCtx reqContext.Context, peer fab.ProposalProcessor, opts ...Opt) (*pb.ChaincodeQueryResponse, error) {
	if peer == nil {
		return nil, status.NewPrecondition("peer required")
	}

	payload, err := queryChaincodeWithTarget(reqCtx, systemChannel, createInstalledChaincodesInvokeRequest(), peer, getOpts(opts...))
	if err != nil {
		return nil, errors.WithMessage(err, "lscc.getinstalledchaincodes failed")
	}

	response := new(pb.ChaincodeQueryResponse)
	if err := proto.Unmarshal(payload, response); err != nil {
		return nil, errors.Wrap(err, "unmarshal ChaincodeQueryResponse failed")
	}
	return response, nil
}

// QueryInstantiatedChaincodes queries the chaincodes instantiated on
// channelID as seen by peer.
func QueryInstantiatedChaincodes(reqCtx reqContext.Context, channelID string, peer fab.ProposalProcessor, opts ...Opt) (*pb.ChaincodeQueryResponse, error) {
	if channelID == "" {
		return nil, status.NewPrecondition("channel ID required")
	}
	if peer == nil {
		return nil, status.NewPrecondition("peer required")
	}

	payload, err := queryChaincodeWithTarget(reqCtx, channelID, createInstantiatedChaincodesInvokeRequest(), peer, getOpts(opts...))
	if err != nil {
		return nil, errors.WithMessage(err, "lscc.getchaincodes failed")
	}

	response := new(pb.ChaincodeQueryResponse)
	if err := proto.Unmarshal(payload, response); err != nil {
		return nil, errors.Wrap(err, "unmarshal ChaincodeQueryResponse failed")
	}
	return response, nil
}

func queryChaincodeWithTarget(reqCtx reqContext.Context, channelID string, request fab.ChaincodeInvokeRequest, target fab.ProposalProcessor, opts options) ([]byte, error) {
	ctx, ok := contextImpl.RequestClientContext(reqCtx)
	if !ok {
		return nil, errors.New("failed get client context from reqContext for txn header")
	}

	resp, err := retry.NewInvoker(retry.New(opts.retry)).Invoke(
		func() (interface{}, error) {
			return sendQuery(reqCtx, ctx, channelID, request, target)
		},
	)
	if err != nil {
		return nil, err
	}
	return resp.([]byte), nil
}

// sendQuery runs one query round. Each attempt gets a fresh transaction id.
func sendQuery(reqCtx reqContext.Context, ctx context.Client, channelID string, request fab.ChaincodeInvokeRequest, target fab.ProposalProcessor) ([]byte, error) {
	txh, err := txn.NewHeader(ctx, channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "create transaction ID failed")
	}

	tp, err := txn.CreateChaincodeInvokeProposal(txh, request)
	if err != nil {
		return nil, errors.WithMessage(err, "NewProposal failed")
	}

	tpr, err := txn.SendProposal(reqCtx, tp, ctx, []fab.ProposalProcessor{target}, ctx.ResponseVerifier())
	if err != nil {
		return nil, transportStatus(err, string(tp.TxnID))
	}

	if err := validateResponse(tpr[0], string(tp.TxnID)); err != nil {
		return nil, errors.WithMessage(err, "transaction proposal failed")
	}

	return tpr[0].ProposalResponse.GetResponse().Payload, nil
}

// transportStatus classifies an unreachable peer as a connection failure so
// that the retry handler may retry it
func transportStatus(err error, txID string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	node := ""
	if e, ok := err.(*txn.EndorserError); ok {
		node = e.Endorser
	}
	return status.NewWithContext(status.EndorserClientStatus, status.ConnectionFailed,
		status.Context{Node: node, TxID: txID}, "%s", err)
}

func validateResponse(response *fab.TransactionProposalResponse, txID string) error {
	if !txn.Succeeded(response) {
		return status.New(status.EndorserServerStatus, response.ProposalResponse.GetResponse().GetStatus(),
			response.ProposalResponse.GetResponse().GetMessage(),
			[]interface{}{status.Context{Node: response.Endorser, TxID: txID, Verified: response.Verified}})
	}
	if !response.Verified {
		return status.NewWithContext(status.EndorserClientStatus, status.SignatureVerificationFailed,
			status.Context{Node: response.Endorser, TxID: txID}, "response of %s failed verification", response.Endorser)
	}
	return nil
}

func getOpts(opts ...Opt) options {
	var optionsValue options
	for _, opt := range opts {
		opt(&optionsValue)
	}
	return optionsValue
}
