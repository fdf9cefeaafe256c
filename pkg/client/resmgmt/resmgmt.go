/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resmgmt manages the chaincode lifecycle on a Fabric network:
// install, instantiate and upgrade, and the registry checks that guard them.
//
// The checks and the mutations are separate calls. A caller is expected to
// check before it acts; the client does not skip an install of a chaincode
// that is already installed.
//
//  Basic Flow:
//  1) Prepare client context
//  2) Create resource management client
//  3) Install chaincode on the peers of the organization
//  4) Instantiate or upgrade it on a channel and submit the endorsed
//     transaction with the commit waiter
package resmgmt

import (
	reqContext "context"
	"time"

	"github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/multi"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/retry"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	contextImpl "github.com/fabric-orchestrator/orchestrator/pkg/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/resource"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

var logger = logging.NewLogger("orchestrator/client")

// InstallCCRequest contains install chaincode request parameters. Exactly
// one of SourcePath and Package must be set.
type InstallCCRequest struct {
	Name     string
	Path     string
	Version  string
	Language pb.ChaincodeSpec_Type
	// SourcePath is the directory of Go chaincode source to package
	SourcePath string
	// MetadataPath is an optional META-INF directory packaged with SourcePath
	MetadataPath string
	Package      *resource.CCPackage
}

// InstallCCResponse contains the install result of one peer
type InstallCCResponse struct {
	Target string
	Status int32
	Info   string
}

// InstantiateCCRequest contains instantiate chaincode request parameters.
// Fcn defaults to "init".
type InstantiateCCRequest struct {
	Name         string
	Path         string
	Version      string
	Lang         pb.ChaincodeSpec_Type
	Fcn          string
	Args         [][]byte
	Policy       *common.SignaturePolicyEnvelope
	CollConfig   []*pb.CollectionConfig
	TransientMap map[string][]byte
}

// InstantiateCCResponse holds the endorsed instantiate proposal
type InstantiateCCResponse struct {
	TransactionID fab.TransactionID
	Proposal      *fab.TransactionProposal
	Responses     []*fab.TransactionProposalResponse
}

// TransactionRequest returns the request to submit for commit
func (r InstantiateCCResponse) TransactionRequest() fab.TransactionRequest {
	return fab.TransactionRequest{Proposal: r.Proposal, ProposalResponses: r.Responses}
}

// UpgradeCCRequest contains upgrade chaincode request parameters. Version
// is the new version.
type UpgradeCCRequest struct {
	Name         string
	Path         string
	Version      string
	Lang         pb.ChaincodeSpec_Type
	Fcn          string
	Args         [][]byte
	Policy       *common.SignaturePolicyEnvelope
	CollConfig   []*pb.CollectionConfig
	TransientMap map[string][]byte
}

// UpgradeCCResponse holds the endorsed upgrade proposal
type UpgradeCCResponse struct {
	TransactionID fab.TransactionID
	Proposal      *fab.TransactionProposal
	Responses     []*fab.TransactionProposalResponse
}

// TransactionRequest returns the request to submit for commit
func (r UpgradeCCResponse) TransactionRequest() fab.TransactionRequest {
	return fab.TransactionRequest{Proposal: r.Proposal, ProposalResponses: r.Responses}
}

// requestOptions contains options for operations performed by the Client
type requestOptions struct {
	Targets       []fab.Peer                        // target peers
	TargetFilter  fab.TargetFilter                  // target filter
	Timeouts      map[fab.TimeoutType]time.Duration // timeout options for resmgmt operations
	ParentContext reqContext.Context                // parent grpc context for resmgmt operations
	Retry         retry.Opts
}

// RequestOption func for each Opts argument
type RequestOption func(ctx context.Client, opts *requestOptions) error

// Client enables managing the chaincode lifecycle in a Fabric network.
type Client struct {
	ctx    context.Client
	filter fab.TargetFilter
	locks  *lifecycleLocks
}

// mspFilter is default filter
type mspFilter struct {
	mspID string
}

// Accept returns true if this peer is to be included in the target list
func (f *mspFilter) Accept(peer fab.Peer) bool {
	return peer.MSPID() == f.mspID
}

// ClientOption describes a functional parameter for the New constructor
type ClientOption func(*Client) error

// WithDefaultTargetFilter option to configure new
func WithDefaultTargetFilter(filter fab.TargetFilter) ClientOption {
	return func(rmc *Client) error {
		rmc.filter = filter
		return nil
	}
}

// WithLifecycleLock serializes install, instantiate and upgrade of the same
// chaincode name within this client. Callers that share a network without
// sharing a client are not coordinated.
func WithLifecycleLock() ClientOption {
	return func(rmc *Client) error {
		rmc.locks = newLifecycleLocks()
		return nil
	}
}

// New returns a resource management client instance
func New(clientProvider context.ClientProvider, opts ...ClientOption) (*Client, error) {
	ctx, err := clientProvider()
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create resmgmt client")
	}

	resourceClient := &Client{
		ctx: ctx,
	}

	for _, opt := range opts {
		err := opt(resourceClient)
		if err != nil {
			return nil, err
		}
	}

	// check if target filter was set - if not set the default
	if resourceClient.filter == nil {
		// Default target filter is based on user msp
		if ctx.Identifier().MSPID == "" {
			return nil, errors.New("mspID not available in user context")
		}
		resourceClient.filter = &mspFilter{mspID: ctx.Identifier().MSPID}
	}
	return resourceClient, nil
}

// filterTargets is helper method to filter peers
func filterTargets(peers []fab.Peer, filter fab.TargetFilter) []fab.Peer {
	if filter == nil {
		return peers
	}

	filteredPeers := []fab.Peer{}
	for _, peer := range peers {
		if filter.Accept(peer) {
			filteredPeers = append(filteredPeers, peer)
		}
	}
	return filteredPeers
}

// uniqueTargets drops peers whose URL was already seen
func uniqueTargets(peers []fab.Peer) []fab.Peer {
	seen := make(map[string]bool, len(peers))
	unique := make([]fab.Peer, 0, len(peers))
	for _, p := range peers {
		if seen[p.URL()] {
			continue
		}
		seen[p.URL()] = true
		unique = append(unique, p)
	}
	return unique
}

// organizationPeers returns the configured peers of every organization;
// the default filter narrows them to the caller's own
func (rc *Client) organizationPeers() ([]fab.Peer, error) {
	var peers []fab.Peer
	for _, p := range rc.ctx.EndpointConfig().NetworkPeers() {
		peerCfg := p
		peer, err := rc.ctx.InfraProvider().CreatePeerFromConfig(&peerCfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to create peer %s", p.Name)
		}
		peers = append(peers, peer)
	}
	return peers, nil
}

// channelPeers returns the endorsing peers of channelID
func (rc *Client) channelPeers(channelID string) ([]fab.Peer, error) {
	channelService, err := rc.ctx.ChannelProvider().ChannelService(rc.ctx, channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to get channel service")
	}
	return channelService.Peers()
}

// calculateTargets returns the explicit targets of opts or else the default
// peers passed through the filter of the request or of the client
func (rc *Client) calculateTargets(defaults func() ([]fab.Peer, error), opts requestOptions) ([]fab.Peer, error) {
	if opts.Targets != nil && opts.TargetFilter != nil {
		return nil, errors.New("If targets are provided, filter cannot be provided")
	}

	targets := opts.Targets
	if targets == nil {
		peers, err := defaults()
		if err != nil {
			return nil, errors.WithMessage(err, "failed to get default targets")
		}
		filter := opts.TargetFilter
		if filter == nil {
			filter = rc.filter
		}
		targets = filterTargets(peers, filter)
	}

	targets = uniqueTargets(targets)
	if len(targets) == 0 {
		return nil, errors.WithStack(status.New(status.ClientStatus, status.NoPeersFound.ToInt32(), "no targets available", nil))
	}
	return targets, nil
}

// prepareRequestOpts prepares request options
func (rc *Client) prepareRequestOpts(options ...RequestOption) (requestOptions, error) {
	opts := requestOptions{}
	for _, option := range options {
		err := option(rc.ctx, &opts)
		if err != nil {
			return opts, errors.WithMessage(err, "Failed to read opts")
		}
	}
	return opts, nil
}

// createRequestContext creates request context for grpc bounded by the
// timeout of timeoutType
func (rc *Client) createRequestContext(opts requestOptions, timeoutType fab.TimeoutType) (reqContext.Context, reqContext.CancelFunc) {
	parent := opts.ParentContext
	if parent == nil {
		parent = reqContext.Background()
	}
	if len(opts.Timeouts) > 0 {
		parent = contextImpl.WithTimeoutOverrides(parent, opts.Timeouts)
	}
	return contextImpl.NewRequest(rc.ctx, contextImpl.WithTimeoutType(timeoutType), contextImpl.WithParent(parent))
}

// peersToTxnProcessors converts a slice of Peers to a slice of ProposalProcessors
func peersToTxnProcessors(peers []fab.Peer) []fab.ProposalProcessor {
	tpp := make([]fab.ProposalProcessor, len(peers))
	for i := range peers {
		tpp[i] = peers[i]
	}
	return tpp
}

// nodeResult is the outcome of a proposal on one target
type nodeResult struct {
	target   string
	response *fab.TransactionProposalResponse
	err      error
}

func (r *nodeResult) accepted() bool {
	return r.err == nil && txn.Accepted(r.response)
}

func (r *nodeResult) verified() bool {
	return r.response != nil && r.response.Verified
}

func (r *nodeResult) message() string {
	switch {
	case r.err != nil:
		return r.err.Error()
	case r.response == nil:
		return "no response"
	case !txn.Succeeded(r.response):
		return r.response.ProposalResponse.GetResponse().GetMessage()
	case !r.response.Verified:
		return "endorsement failed verification"
	default:
		return ""
	}
}

// collectResults lines up the responses and transport failures of a
// proposal round with targets, in target order
func collectResults(targets []fab.Peer, responses []*fab.TransactionProposalResponse, err error) ([]nodeResult, error) {
	results := make([]nodeResult, len(targets))
	index := make(map[string]int, len(targets))
	for i, t := range targets {
		results[i].target = t.URL()
		index[t.URL()] = i
	}
	for _, r := range responses {
		if i, ok := index[r.Endorser]; ok {
			results[i].response = r
		}
	}
	if err == nil {
		return results, nil
	}

	errs, ok := err.(multi.Errors)
	if !ok {
		errs = multi.Errors{err}
	}
	for _, e := range errs {
		endorserErr, ok := e.(*txn.EndorserError)
		if !ok {
			return nil, e
		}
		i, ok := index[endorserErr.Endorser]
		if !ok {
			return nil, e
		}
		results[i].err = endorserErr.Err
	}
	return results, nil
}
