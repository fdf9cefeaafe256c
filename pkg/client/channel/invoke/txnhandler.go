/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package invoke

import (
	"bytes"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/multi"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

var logger = logging.NewLogger("orchestrator/client")

// Operation labels of the proposal metrics
const (
	OperationInvoke = "invoke"
	OperationQuery  = "query"
)

//ProposalProcessorHandler for selecting proposal processors
type ProposalProcessorHandler struct {
	next Handler
}

//Handle selects proposal processors
func (h *ProposalProcessorHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	//Get proposal processor, if not supplied then use the endorsing peers of the channel
	if len(requestContext.Opts.Targets) == 0 {
		peers, err := clientContext.ChannelService.Peers()
		if err != nil {
			requestContext.Error = errors.WithMessage(err, "Failed to get endorsing peers")
			return
		}
		requestContext.Opts.Targets = filterTargets(peers, requestContext.Opts.TargetFilter)
	}

	if len(requestContext.Opts.Targets) == 0 {
		requestContext.Error = status.New(status.ClientStatus, status.NoPeersFound.ToInt32(), "targets were not provided", nil)
		return
	}

	//Delegate to next step if any
	if h.next != nil {
		h.next.Handle(requestContext, clientContext)
	}
}

func filterTargets(peers []fab.Peer, filter fab.TargetFilter) []fab.Peer {
	if filter == nil {
		return peers
	}
	var filtered []fab.Peer
	for _, p := range peers {
		if filter.Accept(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

//EndorsementHandler for handling endorse transactions
type EndorsementHandler struct {
	next      Handler
	method    string
	operation string
}

//Handle for endorsing transactions. Responses and transport failures are
//recorded per target; judging them is left to the next handlers.
func (e *EndorsementHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	txh, err := txn.NewHeader(clientContext.Signer, clientContext.ChannelID)
	if err != nil {
		requestContext.Error = errors.WithMessage(err, "creating transaction header failed")
		return
	}

	request := requestContext.Request
	proposal, err := txn.CreateChaincodeInvokeProposal(txh, fab.ChaincodeInvokeRequest{
		ChaincodeID:  fab.ChaincodeID{Name: request.ChaincodeID},
		Lang:         pb.ChaincodeSpec_GOLANG,
		Fcn:          request.Fcn,
		Args:         request.Args,
		TransientMap: txn.TransientMap(e.method, request.TransientMap),
	})
	if err != nil {
		requestContext.Error = errors.WithMessage(err, "creating transaction proposal failed")
		return
	}

	requestContext.Response.Proposal = proposal
	requestContext.Response.TransactionID = proposal.TxnID

	targets := requestContext.Opts.Targets
	processors := make([]fab.ProposalProcessor, len(targets))
	for i, t := range targets {
		processors[i] = t
	}

	m := clientContext.Metrics
	m.ProposalsSent.With("operation", e.operation, "chaincode", request.ChaincodeID).Add(1)
	start := time.Now()
	responses, err := txn.SendProposal(requestContext.Ctx, proposal, clientContext.Signer, processors, clientContext.Verifier)
	m.ProposalDuration.With("operation", e.operation, "chaincode", request.ChaincodeID).Observe(time.Since(start).Seconds())

	endorsements, err := collectEndorsements(targets, responses, err)
	if err != nil {
		requestContext.Error = errors.WithMessage(err, "sending transaction proposal failed")
		return
	}
	requestContext.Endorsements = endorsements
	requestContext.Response.Responses = responses
	logger.Debugf("%s %s: %d of %d targets responded, txID %s", e.operation, request.ChaincodeID, len(responses), len(targets), proposal.TxnID)

	//Delegate to next step if any
	if e.next != nil {
		e.next.Handle(requestContext, clientContext)
	}
}

// collectEndorsements lines up the responses and transport failures of a
// proposal round with targets. Targets sharing a URL were sent one proposal
// and share its outcome.
func collectEndorsements(targets []fab.Peer, responses []*fab.TransactionProposalResponse, err error) ([]Endorsement, error) {
	endorsements := make([]Endorsement, 0, len(targets))
	index := make(map[string]int, len(targets))
	for _, t := range targets {
		if _, ok := index[t.URL()]; ok {
			continue
		}
		index[t.URL()] = len(endorsements)
		endorsements = append(endorsements, Endorsement{Target: t.URL()})
	}
	for _, r := range responses {
		if i, ok := index[r.Endorser]; ok {
			endorsements[i].Response = r
		}
	}
	if err == nil {
		return endorsements, nil
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
		endorsements[i].Err = endorserErr.Err
	}
	return endorsements, nil
}

func (r *RequestContext) accepted() []*fab.TransactionProposalResponse {
	var accepted []*fab.TransactionProposalResponse
	for i := range r.Endorsements {
		if r.Endorsements[i].Accepted() {
			accepted = append(accepted, r.Endorsements[i].Response)
		}
	}
	return accepted
}

func (r *RequestContext) errorContext(node string, verified bool) status.Context {
	accepted := len(r.accepted())
	return status.Context{
		Node:        node,
		TxID:        string(r.Response.TransactionID),
		ChaincodeID: r.Request.chaincodeID().String(),
		Verified:    verified,
		Failed:      len(r.Endorsements) - accepted,
		Succeeded:   accepted,
	}
}

// ConsistencyHandler rejects endorsements that propose different ledger
// effects. It runs before failures are considered so that a disagreement
// between endorsers is always reported as such.
type ConsistencyHandler struct {
	next Handler
}

//Handle groups the accepted responses into consistency sets
func (c *ConsistencyHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	sets := txn.ConsistencySets(requestContext.accepted())
	if len(sets) > 1 {
		cc := requestContext.Request.ChaincodeID
		clientContext.Metrics.ConsistencyConflicts.With("operation", OperationInvoke, "chaincode", cc).Add(1)
		clientContext.Metrics.EndorsementFailures.With("operation", OperationInvoke, "chaincode", cc, "reason", "consistency").Add(1)
		requestContext.Error = status.NewWithContext(status.EndorserClientStatus, status.EndorsementMismatch,
			requestContext.errorContext(sets[1][0].Endorser, true),
			"endorsements of %s split into %d consistency sets", requestContext.Request.chaincodeID(), len(sets))
		return
	}

	//Delegate to next step if any
	if c.next != nil {
		c.next.Handle(requestContext, clientContext)
	}
}

//EndorsementValidationHandler for transaction proposal response filtering
type EndorsementValidationHandler struct {
	next Handler
}

//Handle requires every target to return a verified success
func (f *EndorsementValidationHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	for i := range requestContext.Endorsements {
		e := &requestContext.Endorsements[i]
		if e.Accepted() {
			continue
		}
		clientContext.Metrics.EndorsementFailures.With("operation", OperationInvoke, "chaincode", requestContext.Request.ChaincodeID, "reason", "failed").Add(1)
		requestContext.Error = status.New(status.EndorserClientStatus, status.EndorsementFailed.ToInt32(),
			"endorsement by "+e.Target+" failed: "+e.Message(),
			[]interface{}{requestContext.errorContext(e.Target, e.Verified()), e.Status(requestContext.Response.TransactionID)})
		return
	}

	accepted := requestContext.accepted()
	requestContext.Response.Responses = accepted
	requestContext.Response.ChaincodeStatus = accepted[0].ChaincodeStatus
	requestContext.Response.Payload = accepted[0].ProposalResponse.GetResponse().GetPayload()

	//Delegate to next step if any
	if f.next != nil {
		f.next.Handle(requestContext, clientContext)
	}
}

// ChaincodeIdentityHandler checks that the endorsers executed the requested
// chaincode and, if one is expected, returned the expected payload
type ChaincodeIdentityHandler struct {
	next Handler
}

//Handle compares the declared chaincode identity with the request
func (h *ChaincodeIdentityHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	first := requestContext.Response.Responses[0]
	action, err := txn.ChaincodeAction(first.ProposalResponse)
	if err != nil {
		requestContext.Error = integrityError(requestContext, first.Endorser, "response of %s is malformed: %s", first.Endorser, err)
		return
	}

	requested := requestContext.Request.chaincodeID()
	declared := action.GetChaincodeId()
	switch {
	case declared.GetName() != requested.Name:
		requestContext.Error = integrityError(requestContext, first.Endorser, "%s executed chaincode %s instead of %s", first.Endorser, declared.GetName(), requested.Name)
		return
	case requested.Version != "" && declared.GetVersion() != requested.Version:
		requestContext.Error = integrityError(requestContext, first.Endorser, "%s executed version %s of %s instead of %s", first.Endorser, declared.GetVersion(), requested.Name, requested.Version)
		return
	case requested.Path != "" && declared.GetPath() != "" && declared.GetPath() != requested.Path:
		requestContext.Error = integrityError(requestContext, first.Endorser, "%s executed %s from path %s instead of %s", first.Endorser, requested.Name, declared.GetPath(), requested.Path)
		return
	}

	if expected := requestContext.Opts.ExpectedPayload; expected != nil && !bytes.Equal(expected, action.GetResponse().GetPayload()) {
		requestContext.Error = integrityError(requestContext, first.Endorser, "payload returned by %s does not match the expected payload", first.Endorser)
		return
	}

	//Delegate to next step if any
	if h.next != nil {
		h.next.Handle(requestContext, clientContext)
	}
}

// RWSetHandler requires the endorsed action to carry a read/write set with
// at least one namespace
type RWSetHandler struct {
	next Handler
}

//Handle checks the read/write set of the endorsed action
func (h *RWSetHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	first := requestContext.Response.Responses[0]
	action, err := txn.ChaincodeAction(first.ProposalResponse)
	if err != nil {
		requestContext.Error = integrityError(requestContext, first.Endorser, "response of %s is malformed: %s", first.Endorser, err)
		return
	}
	if len(action.Results) == 0 {
		requestContext.Error = integrityError(requestContext, first.Endorser, "response of %s has no read/write set", first.Endorser)
		return
	}

	txRWSet := &rwset.TxReadWriteSet{}
	if err := proto.Unmarshal(action.Results, txRWSet); err != nil {
		requestContext.Error = integrityError(requestContext, first.Endorser, "read/write set of %s is malformed: %s", first.Endorser, err)
		return
	}
	if len(txRWSet.NsRwset) == 0 {
		requestContext.Error = integrityError(requestContext, first.Endorser, "read/write set of %s is empty", first.Endorser)
		return
	}

	//Delegate to next step if any
	if h.next != nil {
		h.next.Handle(requestContext, clientContext)
	}
}

func integrityError(requestContext *RequestContext, node string, format string, args ...interface{}) error {
	return status.NewWithContext(status.EndorserClientStatus, status.IntegrityViolation, requestContext.errorContext(node, true), format, args...)
}

// QueryValidationHandler requires every target to return a verified
// success. Queries have no quorum; one rejected endorsement fails the call.
type QueryValidationHandler struct {
	next Handler
}

//Handle validates the query responses
func (q *QueryValidationHandler) Handle(requestContext *RequestContext, clientContext *ClientContext) {
	for i := range requestContext.Endorsements {
		e := &requestContext.Endorsements[i]
		if e.Accepted() {
			continue
		}
		clientContext.Metrics.EndorsementFailures.With("operation", OperationQuery, "chaincode", requestContext.Request.ChaincodeID, "reason", "failed").Add(1)
		requestContext.Error = status.New(status.EndorserClientStatus, status.QueryFailed.ToInt32(),
			"query on "+e.Target+" failed: "+e.Message(),
			[]interface{}{requestContext.errorContext(e.Target, e.Verified()), e.Status(requestContext.Response.TransactionID)})
		return
	}

	responses := requestContext.accepted()
	requestContext.Response.Responses = responses
	requestContext.Response.ChaincodeStatus = responses[0].ChaincodeStatus
	requestContext.Response.Payload = responses[0].ProposalResponse.GetResponse().GetPayload()

	//Delegate to next step if any
	if q.next != nil {
		q.next.Handle(requestContext, clientContext)
	}
}

//NewQueryHandler returns query handler with chain of ProposalProcessorHandler, EndorsementHandler and QueryValidationHandler
func NewQueryHandler(next ...Handler) Handler {
	return NewProposalProcessorHandler(
		newEndorsementHandler(txn.MethodQueryByChaincode, OperationQuery,
			NewQueryValidationHandler(next...),
		),
	)
}

//NewInvokeHandler returns invoke handler with chain of ProposalProcessorHandler, EndorsementHandler,
//ConsistencyHandler, EndorsementValidationHandler, ChaincodeIdentityHandler and RWSetHandler
func NewInvokeHandler(next ...Handler) Handler {
	return NewProposalProcessorHandler(
		NewEndorsementHandler(
			NewConsistencyHandler(
				NewEndorsementValidationHandler(
					NewChaincodeIdentityHandler(
						NewRWSetHandler(next...),
					),
				),
			),
		),
	)
}

//NewProposalProcessorHandler returns a handler that selects proposal processors
func NewProposalProcessorHandler(next ...Handler) *ProposalProcessorHandler {
	return &ProposalProcessorHandler{next: getNext(next)}
}

//NewEndorsementHandler returns a handler that endorses a transaction proposal
func NewEndorsementHandler(next ...Handler) *EndorsementHandler {
	return newEndorsementHandler(txn.MethodTransactionProposal, OperationInvoke, next...)
}

func newEndorsementHandler(method, operation string, next ...Handler) *EndorsementHandler {
	return &EndorsementHandler{next: getNext(next), method: method, operation: operation}
}

//NewConsistencyHandler returns a handler that checks the consistency sets of the endorsements
func NewConsistencyHandler(next ...Handler) *ConsistencyHandler {
	return &ConsistencyHandler{next: getNext(next)}
}

//NewEndorsementValidationHandler returns a handler that validates an endorsement
func NewEndorsementValidationHandler(next ...Handler) *EndorsementValidationHandler {
	return &EndorsementValidationHandler{next: getNext(next)}
}

//NewChaincodeIdentityHandler returns a handler that checks the executed chaincode
func NewChaincodeIdentityHandler(next ...Handler) *ChaincodeIdentityHandler {
	return &ChaincodeIdentityHandler{next: getNext(next)}
}

//NewRWSetHandler returns a handler that checks the read/write set
func NewRWSetHandler(next ...Handler) *RWSetHandler {
	return &RWSetHandler{next: getNext(next)}
}

//NewQueryValidationHandler returns a handler that validates query responses
func NewQueryValidationHandler(next ...Handler) *QueryValidationHandler {
	return &QueryValidationHandler{next: getNext(next)}
}

func getNext(next []Handler) Handler {
	if len(next) > 0 {
		return next[0]
	}
	return nil
}
