/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resmgmt

import (
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/resource"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

const defaultInitFcn = "init"

type deployResult struct {
	proposal  *fab.TransactionProposal
	responses []*fab.TransactionProposalResponse
}

// InstantiateCC endorses the instantiation of an installed chaincode on
// channelID. The endorsed transaction is returned for submission; nothing
// is sent to the orderer.
func (rc *Client) InstantiateCC(channelID string, req InstantiateCCRequest, options ...RequestOption) (InstantiateCCResponse, error) {
	result, err := rc.sendCCProposal(resource.InstantiateChaincode, channelID, resource.ChaincodeDeployRequest(req), options)
	if err != nil {
		return InstantiateCCResponse{}, err
	}
	return InstantiateCCResponse{TransactionID: result.proposal.TxnID, Proposal: result.proposal, Responses: result.responses}, nil
}

// UpgradeCC endorses the upgrade of a chaincode instantiated on channelID
// to the version of req. The endorsed transaction is returned for
// submission.
func (rc *Client) UpgradeCC(channelID string, req UpgradeCCRequest, options ...RequestOption) (UpgradeCCResponse, error) {
	result, err := rc.sendCCProposal(resource.UpgradeChaincode, channelID, resource.ChaincodeDeployRequest(req), options)
	if err != nil {
		return UpgradeCCResponse{}, err
	}
	return UpgradeCCResponse{TransactionID: result.proposal.TxnID, Proposal: result.proposal, Responses: result.responses}, nil
}

// sendCCProposal sends proposal for type Instantiate, Upgrade
func (rc *Client) sendCCProposal(kind resource.ChaincodeProposalType, channelID string, req resource.ChaincodeDeployRequest, options []RequestOption) (*deployResult, error) {
	if err := checkRequiredCCProposalParams(channelID, req); err != nil {
		return nil, err
	}
	if req.Fcn == "" {
		req.Fcn = defaultInitFcn
	}
	if req.Args == nil {
		req.Args = [][]byte{}
	}
	if req.Lang == pb.ChaincodeSpec_UNDEFINED {
		req.Lang = pb.ChaincodeSpec_GOLANG
	}

	opts, err := rc.prepareRequestOpts(options...)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to get opts for %s", kind)
	}

	targets, err := rc.calculateTargets(func() ([]fab.Peer, error) { return rc.channelPeers(channelID) }, opts)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to determine target peers for cc proposal")
	}

	unlock := rc.locks.lock(req.Name)
	defer unlock()

	ccID := fab.ChaincodeID{Name: req.Name, Version: req.Version, Path: req.Path}
	if err := rc.checkLifecycleState(kind, channelID, ccID, targets, opts); err != nil {
		return nil, err
	}

	reqCtx, cancel := rc.createRequestContext(opts, fab.Deploy)
	defer cancel()

	txh, err := txn.NewHeader(rc.ctx, channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "create transaction ID failed")
	}

	method := txn.MethodInstantiateProposal
	if kind == resource.UpgradeChaincode {
		method = txn.MethodUpgradeProposal
	}
	req.TransientMap = txn.TransientMap(method, req.TransientMap)

	tp, err := resource.CreateChaincodeDeployProposal(txh, kind, channelID, req)
	if err != nil {
		return nil, errors.WithMessage(err, "creating chaincode deploy transaction proposal failed")
	}

	metrics := rc.ctx.GetMetrics()
	metrics.ProposalsSent.With("operation", kind.String(), "chaincode", req.Name).Add(1)
	start := time.Now()
	tprs, err := txn.SendProposal(reqCtx, tp, rc.ctx, peersToTxnProcessors(targets), rc.ctx.ResponseVerifier())
	metrics.ProposalDuration.With("operation", kind.String(), "chaincode", req.Name).Observe(time.Since(start).Seconds())

	results, err := collectResults(targets, tprs, err)
	if err != nil {
		return nil, errors.WithMessage(err, "sending deploy transaction proposal failed")
	}

	accepted, err := evaluateDeploy(kind, ccID, tp.TxnID, results)
	if err != nil {
		reason := "failed"
		if status.IsConsistency(err) {
			reason = "consistency"
			metrics.ConsistencyConflicts.With("operation", kind.String(), "chaincode", req.Name).Add(1)
		}
		metrics.EndorsementFailures.With("operation", kind.String(), "chaincode", req.Name, "reason", reason).Add(1)
		return nil, err
	}

	logger.Infof("%s of %s on channel %s endorsed by %d peers, txID %s", kind, ccID, channelID, len(accepted), tp.TxnID)
	return &deployResult{proposal: tp, responses: accepted}, nil
}

// evaluateDeploy requires every target to return a verified success and
// all endorsements to fall into one consistency set
func evaluateDeploy(kind resource.ChaincodeProposalType, ccID fab.ChaincodeID, txID fab.TransactionID, results []nodeResult) ([]*fab.TransactionProposalResponse, error) {
	code := status.InstantiateFailed
	if kind == resource.UpgradeChaincode {
		code = status.UpgradeFailed
	}

	var accepted []*fab.TransactionProposalResponse
	var first *nodeResult
	for i := range results {
		r := &results[i]
		if r.accepted() {
			accepted = append(accepted, r.response)
			continue
		}
		if first == nil {
			first = r
		}
	}

	failed := len(results) - len(accepted)
	if first != nil {
		return nil, status.NewWithContext(status.EndorserClientStatus, code,
			status.Context{Node: first.target, TxID: string(txID), ChaincodeID: ccID.String(), Verified: first.verified(), Failed: failed, Succeeded: len(accepted)},
			"%s of %s failed on %s: %s", kind, ccID, first.target, first.message())
	}

	if sets := txn.ConsistencySets(accepted); len(sets) > 1 {
		return nil, status.NewWithContext(status.EndorserClientStatus, status.EndorsementMismatch,
			status.Context{Node: sets[1][0].Endorser, TxID: string(txID), ChaincodeID: ccID.String(), Verified: true, Succeeded: len(accepted)},
			"%s of %s produced %d different consistency sets", kind, ccID, len(sets))
	}
	return accepted, nil
}

// checkLifecycleState rejects an instantiate of a chaincode name already
// instantiated on a target and an upgrade of one that is not
func (rc *Client) checkLifecycleState(kind resource.ChaincodeProposalType, channelID string, ccID fab.ChaincodeID, targets []fab.Peer, opts requestOptions) error {
	reqCtx, cancel := rc.createRequestContext(opts, fab.Proposal)
	defer cancel()

	for _, target := range targets {
		response, err := resource.QueryInstantiatedChaincodes(reqCtx, channelID, target, resource.WithRetry(opts.Retry))
		if err != nil {
			return errors.WithMessagef(err, "unable to verify if cc is instantiated on %s", target.URL())
		}
		current := instantiatedByName(response, ccID.Name)

		switch {
		case kind == resource.InstantiateChaincode && current != nil:
			return status.NewWithContext(status.ClientStatus, status.LifecycleStateConflict,
				status.Context{Node: target.URL(), ChaincodeID: ccID.String()},
				"chaincode %s is already instantiated at version %s on channel %s", ccID.Name, current.Version, channelID)
		case kind == resource.UpgradeChaincode && current == nil:
			return status.NewWithContext(status.ClientStatus, status.LifecycleStateConflict,
				status.Context{Node: target.URL(), ChaincodeID: ccID.String()},
				"chaincode %s must be instantiated on channel %s before an upgrade", ccID.Name, channelID)
		case kind == resource.UpgradeChaincode && current.Version == ccID.Version:
			return status.NewWithContext(status.ClientStatus, status.LifecycleStateConflict,
				status.Context{Node: target.URL(), ChaincodeID: ccID.String()},
				"chaincode %s is already at version %s on channel %s", ccID.Name, ccID.Version, channelID)
		}
	}
	return nil
}

func instantiatedByName(response *pb.ChaincodeQueryResponse, name string) *pb.ChaincodeInfo {
	for _, chaincode := range response.GetChaincodes() {
		if chaincode.Name == name {
			return chaincode
		}
	}
	return nil
}

func checkRequiredCCProposalParams(channelID string, req resource.ChaincodeDeployRequest) error {
	if channelID == "" {
		return status.NewPrecondition("must provide channel ID")
	}
	if req.Name == "" || req.Version == "" {
		return status.NewPrecondition("chaincode name and version are required")
	}
	if req.Policy == nil {
		return status.NewPrecondition("chaincode endorsement policy is required")
	}
	return nil
}
