/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package channel

import (
	reqContext "context"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/client/commit"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/retry"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/context"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	fabImpl "github.com/fabric-orchestrator/orchestrator/pkg/fab"
)

// opts allows the user to specify more advanced options
type requestOptions struct {
	Targets         []fab.Peer // targets
	TargetFilter    fab.TargetFilter
	Retry           retry.Opts
	Timeouts        map[fab.TimeoutType]time.Duration
	ParentContext   reqContext.Context //parent grpc context
	ExpectedPayload []byte
	Signer          msp.SigningIdentity
}

// RequestOption func for each Opts argument
type RequestOption func(ctx context.Client, opts *requestOptions) error

// Request contains the parameters to query and execute an invocation
// transaction. Version and Path are optional; when set, the endorsers must
// report having executed that version and path.
type Request struct {
	ChaincodeID  string
	Version      string
	Path         string
	Fcn          string
	Args         [][]byte
	TransientMap map[string][]byte
}

//Response contains response parameters for query and execute an invocation transaction
type Response struct {
	Payload          []byte
	TransactionID    fab.TransactionID
	ChaincodeStatus  int32
	TxValidationCode pb.TxValidationCode
	Proposal         *fab.TransactionProposal
	Responses        []*fab.TransactionProposalResponse
	// Outcome is the commit outcome, set by Execute only
	Outcome *commit.Outcome
}

// TransactionRequest returns the request to submit for commit
func (r Response) TransactionRequest() fab.TransactionRequest {
	return fab.TransactionRequest{Proposal: r.Proposal, ProposalResponses: r.Responses}
}

//WithTimeout encapsulates key value pairs of timeout type, timeout duration to Options
func WithTimeout(timeoutType fab.TimeoutType, timeout time.Duration) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		if o.Timeouts == nil {
			o.Timeouts = make(map[fab.TimeoutType]time.Duration)
		}
		o.Timeouts[timeoutType] = timeout
		return nil
	}
}

//WithTargets allows overriding of the target peers for the request
func WithTargets(targets ...fab.Peer) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		for _, t := range targets {
			if t == nil {
				return errors.New("target is nil")
			}
		}
		o.Targets = targets
		return nil
	}
}

// WithTargetEndpoints allows overriding of the target peers for the request.
// Targets are specified by name or URL, and the client creates the
// underlying peer objects.
func WithTargetEndpoints(keys ...string) RequestOption {
	return func(ctx context.Client, opts *requestOptions) error {
		var targets []fab.Peer
		for _, key := range keys {
			peerCfg, err := fabImpl.NetworkPeerConfig(ctx.EndpointConfig(), key)
			if err != nil {
				return err
			}

			peer, err := ctx.InfraProvider().CreatePeerFromConfig(peerCfg)
			if err != nil {
				return errors.WithMessage(err, "creating peer from config failed")
			}

			targets = append(targets, peer)
		}
		return WithTargets(targets...)(ctx, opts)
	}
}

// WithRequestTargetFilter narrows the channel peers the request is sent
// to. It is ignored when targets are given.
func WithRequestTargetFilter(filter fab.TargetFilter) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		o.TargetFilter = filter
		return nil
	}
}

// WithRetry option to configure retries of a query. Invoke never retries.
func WithRetry(retryOpt retry.Opts) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		o.Retry = retryOpt
		return nil
	}
}

// WithParentContext encapsulates grpc parent context
func WithParentContext(parentContext reqContext.Context) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		o.ParentContext = parentContext
		return nil
	}
}

// WithExpectedPayload requires the chaincode response payload of an invoke
// to equal payload
func WithExpectedPayload(payload []byte) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		o.ExpectedPayload = payload
		return nil
	}
}

// WithIdentity signs the proposal, and the transaction of Execute, with
// identity instead of the identity of the channel context
func WithIdentity(identity msp.SigningIdentity) RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		if identity == nil {
			return errors.New("identity is nil")
		}
		o.Signer = identity
		return nil
	}
}

func withoutRetry() RequestOption {
	return func(ctx context.Client, o *requestOptions) error {
		o.Retry = retry.Opts{}
		return nil
	}
}
