/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resmgmt

import (
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/ccpackager/gopackager"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/resource"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

// InstallCC installs chaincode on the peers of the caller's organization,
// or on the targets given by the options. The per-peer results are
// returned even when the install fails on some of them.
func (rc *Client) InstallCC(req InstallCCRequest, options ...RequestOption) ([]InstallCCResponse, error) {
	ccPackage, err := installPackage(req)
	if err != nil {
		return nil, err
	}

	opts, err := rc.prepareRequestOpts(options...)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to get opts for InstallCC")
	}

	targets, err := rc.installTargets(opts)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to determine target peers for install cc")
	}

	unlock := rc.locks.lock(req.Name)
	defer unlock()

	reqCtx, cancel := rc.createRequestContext(opts, fab.Deploy)
	defer cancel()

	ccID := fab.ChaincodeID{Name: req.Name, Version: req.Version, Path: req.Path}
	icr := resource.InstallChaincodeRequest{Name: req.Name, Path: req.Path, Version: req.Version, Package: ccPackage}

	rc.ctx.GetMetrics().ProposalsSent.With("operation", "install", "chaincode", req.Name).Add(1)
	tprs, txID, err := resource.InstallChaincode(reqCtx, icr, peersToTxnProcessors(targets))
	results, cerr := collectResults(targets, tprs, err)
	if cerr != nil {
		return nil, errors.WithMessage(cerr, "install chaincode failed")
	}

	responses := make([]InstallCCResponse, 0, len(results))
	var first *nodeResult
	failed := 0
	for i := range results {
		r := &results[i]
		response := InstallCCResponse{Target: r.target}
		if r.response != nil {
			logger.Debugf("Install chaincode '%s' endorser '%s' returned ProposalResponse status:%v", req.Name, r.response.Endorser, r.response.Status)
			response.Status = r.response.Status
		}
		if r.err != nil || !txn.Succeeded(r.response) {
			response.Info = r.message()
			failed++
			if first == nil {
				first = r
			}
		}
		responses = append(responses, response)
	}

	if first != nil {
		rc.ctx.GetMetrics().EndorsementFailures.With("operation", "install", "chaincode", req.Name, "reason", "failed").Add(1)
		return responses, status.NewWithContext(status.EndorserClientStatus, status.InstallFailed,
			status.Context{Node: first.target, TxID: string(txID), ChaincodeID: ccID.String(), Verified: first.verified(), Failed: failed, Succeeded: len(results) - failed},
			"install of %s failed on %s: %s", ccID, first.target, first.message())
	}
	logger.Infof("chaincode %s installed on %d peers", ccID, len(responses))
	return responses, nil
}

// installTargets applies the target filter to explicit targets too: only
// peers of the caller's organization may install
func (rc *Client) installTargets(opts requestOptions) ([]fab.Peer, error) {
	filter := opts.TargetFilter
	if filter == nil {
		filter = rc.filter
	}
	targets := opts.Targets
	if targets == nil {
		peers, err := rc.organizationPeers()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to get default targets")
		}
		targets = peers
	}
	return rc.calculateTargets(nil, requestOptions{Targets: filterTargets(targets, filter)})
}

func installPackage(req InstallCCRequest) (*resource.CCPackage, error) {
	if req.Name == "" || req.Version == "" {
		return nil, status.NewPrecondition("chaincode name and version are required")
	}
	if req.Language == pb.ChaincodeSpec_UNDEFINED {
		return nil, status.NewPrecondition("chaincode language is required")
	}
	if (req.SourcePath == "") == (req.Package == nil) {
		return nil, status.NewPrecondition("exactly one of chaincode source path and chaincode package is required")
	}

	if req.Package != nil {
		if req.Package.Type != pb.ChaincodeSpec_UNDEFINED && req.Package.Type != req.Language {
			return nil, status.NewPrecondition("package of type %s does not match language %s", req.Package.Type, req.Language)
		}
		return &resource.CCPackage{Type: req.Language, Code: req.Package.Code}, nil
	}

	if req.Language != pb.ChaincodeSpec_GOLANG {
		return nil, status.NewPrecondition("only %s chaincode can be packaged from source, provide a package for %s", pb.ChaincodeSpec_GOLANG, req.Language)
	}
	if req.Path == "" {
		return nil, status.NewPrecondition("chaincode path is required to package source")
	}
	var opts []gopackager.Opt
	if req.MetadataPath != "" {
		opts = append(opts, gopackager.WithMetadata(req.MetadataPath))
	}
	ccPackage, err := gopackager.NewCCPackage(req.Path, req.SourcePath, opts...)
	if err != nil {
		return nil, errors.WithMessage(err, "packaging of chaincode source failed")
	}
	return ccPackage, nil
}

// IsInstalled reports whether ccID is in the installed registry of peer
func (rc *Client) IsInstalled(peer fab.Peer, ccID fab.ChaincodeID, options ...RequestOption) (bool, error) {
	if peer == nil {
		return false, status.NewPrecondition("peer is required")
	}
	opts, err := rc.prepareRequestOpts(options...)
	if err != nil {
		return false, err
	}
	reqCtx, cancel := rc.createRequestContext(opts, fab.Proposal)
	defer cancel()

	response, err := resource.QueryInstalledChaincodes(reqCtx, peer, resource.WithRetry(opts.Retry))
	if err != nil {
		return false, errors.WithMessagef(err, "unable to verify if cc is installed on %s", peer.URL())
	}
	logger.Debugf("isChaincodeInstalled: %v", response)
	return containsChaincode(response, ccID), nil
}

// IsInstalledOnChannel reports whether every target peer of channelID has
// ccID installed
func (rc *Client) IsInstalledOnChannel(channelID string, ccID fab.ChaincodeID, options ...RequestOption) (bool, error) {
	return rc.everyTarget(channelID, options, func(peer fab.Peer, options []RequestOption) (bool, error) {
		return rc.IsInstalled(peer, ccID, options...)
	})
}

func containsChaincode(response *pb.ChaincodeQueryResponse, ccID fab.ChaincodeID) bool {
	for _, chaincode := range response.GetChaincodes() {
		if ccID.Matches(fab.ChaincodeID{Name: chaincode.Name, Version: chaincode.Version, Path: chaincode.Path}) {
			return true
		}
	}
	return false
}
