/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resmgmt

import (
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/resource"
)

// LifecycleState is the state of a chaincode on one peer, derived from the
// registries of the peer
type LifecycleState int

// Lifecycle states
const (
	Absent LifecycleState = iota
	Installed
	Instantiated
)

func (s LifecycleState) String() string {
	switch s {
	case Absent:
		return "absent"
	case Installed:
		return "installed"
	case Instantiated:
		return "instantiated"
	default:
		return "unknown"
	}
}

// IsInstantiated reports whether ccID is in the instantiated registry of
// channelID on peer
func (rc *Client) IsInstantiated(peer fab.Peer, channelID string, ccID fab.ChaincodeID, options ...RequestOption) (bool, error) {
	if peer == nil {
		return false, status.NewPrecondition("peer is required")
	}
	opts, err := rc.prepareRequestOpts(options...)
	if err != nil {
		return false, err
	}
	reqCtx, cancel := rc.createRequestContext(opts, fab.Proposal)
	defer cancel()

	response, err := resource.QueryInstantiatedChaincodes(reqCtx, channelID, peer, resource.WithRetry(opts.Retry))
	if err != nil {
		return false, errors.WithMessagef(err, "unable to verify if cc is instantiated on %s", peer.URL())
	}
	return containsChaincode(response, ccID), nil
}

// IsInstantiatedOnChannel reports whether every target peer of channelID has
// ccID instantiated
func (rc *Client) IsInstantiatedOnChannel(channelID string, ccID fab.ChaincodeID, options ...RequestOption) (bool, error) {
	return rc.everyTarget(channelID, options, func(peer fab.Peer, options []RequestOption) (bool, error) {
		return rc.IsInstantiated(peer, channelID, ccID, options...)
	})
}

// IsDeployed reports whether ccID is both installed and instantiated on
// every target peer of channelID. The registries are queried with the
// identity of adminCtx, since some peers answer them for administrators
// only.
func (rc *Client) IsDeployed(channelID string, ccID fab.ChaincodeID, adminCtx context.ClientProvider, options ...RequestOption) (bool, error) {
	admin, err := New(adminCtx, WithDefaultTargetFilter(rc.filter))
	if err != nil {
		return false, errors.WithMessage(err, "failed to create administrative client")
	}
	return admin.everyTarget(channelID, options, func(peer fab.Peer, options []RequestOption) (bool, error) {
		state, err := admin.LifecycleState(peer, channelID, ccID, options...)
		if err != nil {
			return false, err
		}
		return state == Instantiated, nil
	})
}

// LifecycleState derives the state of ccID on peer. A chaincode counts as
// Instantiated only when it is installed too.
func (rc *Client) LifecycleState(peer fab.Peer, channelID string, ccID fab.ChaincodeID, options ...RequestOption) (LifecycleState, error) {
	installed, err := rc.IsInstalled(peer, ccID, options...)
	if err != nil {
		return Absent, err
	}
	if !installed {
		return Absent, nil
	}
	instantiated, err := rc.IsInstantiated(peer, channelID, ccID, options...)
	if err != nil {
		return Absent, err
	}
	if instantiated {
		return Instantiated, nil
	}
	return Installed, nil
}

// everyTarget runs check on every target peer of channelID and stops at the
// first peer that fails it
func (rc *Client) everyTarget(channelID string, options []RequestOption, check func(fab.Peer, []RequestOption) (bool, error)) (bool, error) {
	if channelID == "" {
		return false, status.NewPrecondition("must provide channel ID")
	}
	opts, err := rc.prepareRequestOpts(options...)
	if err != nil {
		return false, err
	}
	targets, err := rc.calculateTargets(func() ([]fab.Peer, error) { return rc.channelPeers(channelID) }, opts)
	if err != nil {
		return false, errors.WithMessage(err, "failed to determine target peers")
	}
	for _, target := range targets {
		ok, err := check(target, options)
		if err != nil {
			return false, err
		}
		if !ok {
			logger.Debugf("check failed on %s", target.URL())
			return false, nil
		}
	}
	return true, nil
}
