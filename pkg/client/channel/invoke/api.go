/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package invoke provides the handlers for performing chaincode invocations.
package invoke

import (
	reqContext "context"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/retry"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/msp"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
	"github.com/fabric-orchestrator/orchestrator/pkg/fabsdk/metrics"
)

// Opts allows the user to specify more advanced options
type Opts struct {
	Targets       []fab.Peer // targets
	TargetFilter  fab.TargetFilter
	Retry         retry.Opts
	Timeouts      map[fab.TimeoutType]time.Duration
	ParentContext reqContext.Context //parent grpc context
	// ExpectedPayload, when set, must equal the chaincode response payload
	ExpectedPayload []byte
}

// Request contains the parameters to execute transaction. Version and Path
// are optional; when set, the endorsers must report the same values.
type Request struct {
	ChaincodeID  string
	Version      string
	Path         string
	Fcn          string
	Args         [][]byte
	TransientMap map[string][]byte
}

func (r Request) chaincodeID() fab.ChaincodeID {
	return fab.ChaincodeID{Name: r.ChaincodeID, Version: r.Version, Path: r.Path}
}

//Response contains response parameters for query and execute transaction
type Response struct {
	Payload          []byte
	TransactionID    fab.TransactionID
	ChaincodeStatus  int32
	TxValidationCode pb.TxValidationCode
	Proposal         *fab.TransactionProposal
	Responses        []*fab.TransactionProposalResponse
}

// Endorsement is the outcome of the proposal on one target. Exactly one of
// Response and Err is set.
type Endorsement struct {
	Target   string
	Response *fab.TransactionProposalResponse
	Err      error
}

// Accepted returns true for a verified successful response
func (e *Endorsement) Accepted() bool {
	return e.Err == nil && txn.Accepted(e.Response)
}

// Verified returns true if a response was received and its signature checked
func (e *Endorsement) Verified() bool {
	return e.Response != nil && e.Response.Verified
}

// Message describes why the endorsement was not accepted
func (e *Endorsement) Message() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.Response == nil:
		return "no response"
	case !txn.Succeeded(e.Response):
		return e.Response.ProposalResponse.GetResponse().GetMessage()
	case !e.Response.Verified:
		return "endorsement failed verification"
	default:
		return ""
	}
}

// Status classifies a rejected endorsement: an unreachable target is a
// connection failure, a failed response carries the endorser's status and
// an unverified one is a signature failure. It returns nil if the
// endorsement was accepted.
func (e *Endorsement) Status(txID fab.TransactionID) *status.Status {
	ctx := status.Context{Node: e.Target, TxID: string(txID), Verified: e.Verified()}
	switch {
	case e.Err != nil:
		if s, ok := status.FromError(e.Err); ok {
			return s
		}
		return status.NewWithContext(status.EndorserClientStatus, status.ConnectionFailed, ctx, "%s", e.Err)
	case e.Response == nil:
		return status.NewWithContext(status.EndorserClientStatus, status.MissingEndorsement, ctx, "no response from %s", e.Target)
	case !txn.Succeeded(e.Response):
		return status.New(status.EndorserServerStatus, e.Response.ProposalResponse.GetResponse().GetStatus(),
			e.Response.ProposalResponse.GetResponse().GetMessage(), []interface{}{ctx})
	case !e.Response.Verified:
		return status.NewWithContext(status.EndorserClientStatus, status.SignatureVerificationFailed, ctx,
			"response of %s failed verification", e.Target)
	default:
		return nil
	}
}

//Handler for chaining transaction executions
type Handler interface {
	Handle(context *RequestContext, clientContext *ClientContext)
}

//ClientContext contains context parameters for handler execution
type ClientContext struct {
	ChannelID      string
	Signer         msp.SigningIdentity
	Verifier       fab.ResponseVerifier
	ChannelService fab.ChannelService
	Metrics        *metrics.ClientMetrics
}

//RequestContext contains request, opts, response parameters for handler execution
type RequestContext struct {
	Request  Request
	Opts     Opts
	Response Response
	Error    error
	// Endorsements holds one entry per target in target order
	Endorsements []Endorsement
	RetryHandler retry.Handler
	Ctx          reqContext.Context
}
