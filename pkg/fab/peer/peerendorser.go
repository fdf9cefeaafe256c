/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	reqContext "context"
	"crypto/tls"
	"crypto/x509"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	grpcCodes "google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/comm"
)

// chaincode errors returned by older endorsers as gRPC Unknown status
var chaincodeErrorPattern = regexp.MustCompile(`status:\s*(\d+),\s*message:\s*(.*?)\)?$`)

// peerEndorser enables access to a GRPC-based endorser for running transaction proposal simulations
type peerEndorser struct {
	target      string
	params      comm.Params
	clientCerts []tls.Certificate

	mutex sync.Mutex
	conn  *grpc.ClientConn
}

func newPeerEndorser(target string, params comm.Params, config fab.EndpointConfig) (*peerEndorser, error) {
	if len(target) == 0 {
		return nil, errors.New("target is required")
	}

	var clientCerts []tls.Certificate
	if config != nil {
		clientCerts = config.TLSClientCerts()
	}

	// fail early on unusable TLS settings
	if _, err := comm.DialOptions(target, params, clientCerts); err != nil {
		return nil, err
	}

	return &peerEndorser{
		target:      target,
		params:      params,
		clientCerts: clientCerts,
	}, nil
}

// ProcessTransactionProposal sends the transaction proposal to a peer and returns the response.
func (p *peerEndorser) ProcessTransactionProposal(ctx reqContext.Context, request fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	logger.Debugf("Processing proposal using endorser: %s", p.target)

	proposalResponse, err := p.sendProposal(ctx, request)
	if err != nil {
		return nil, errors.WithMessagef(err, "Transaction processing for endorser [%s]", p.target)
	}

	chaincodeStatus, err := chaincodeResponseStatus(proposalResponse)
	if err != nil {
		return nil, errors.WithMessage(err, "chaincode response status parsing failed")
	}

	return &fab.TransactionProposalResponse{
		ProposalResponse: proposalResponse,
		Endorser:         p.target,
		ChaincodeStatus:  chaincodeStatus,
		Status:           proposalResponse.GetResponse().GetStatus(),
	}, nil
}

func (p *peerEndorser) connection() (*grpc.ClientConn, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := comm.Dial(p.target, p.params, p.clientCerts)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

// Close releases the connection
func (p *peerEndorser) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.conn == nil {
		return
	}
	if err := p.conn.Close(); err != nil {
		logger.Debugf("unable to close connection [%s]", err)
	}
	p.conn = nil
}

func (p *peerEndorser) sendProposal(ctx reqContext.Context, proposal fab.ProcessProposalRequest) (*pb.ProposalResponse, error) {
	conn, err := p.connection()
	if err != nil {
		return nil, status.New(status.EndorserClientStatus, status.ConnectionFailed.ToInt32(), err.Error(), []interface{}{p.target})
	}

	resp, err := pb.NewEndorserClient(conn).ProcessProposal(ctx, proposal.SignedProposal)
	if err == nil {
		if resp.GetResponse() == nil {
			return nil, status.New(status.EndorserClientStatus, status.MissingEndorsement.ToInt32(), "proposal response carries no response", []interface{}{p.target})
		}
		return resp, nil
	}

	logger.Debugf("process proposal failed [%s]", err)
	rpcStatus, ok := grpcstatus.FromError(err)
	if !ok {
		return nil, status.New(status.EndorserClientStatus, status.ConnectionFailed.ToInt32(), err.Error(), []interface{}{p.target})
	}
	if rpcStatus.Code() == grpcCodes.Unavailable {
		return nil, errors.WithMessage(status.NewFromGRPCStatus(rpcStatus), "connection failed")
	}
	if code, message, ok := extractChaincodeError(rpcStatus); ok {
		// the endorser answered; the failure is judged like any other response
		return &pb.ProposalResponse{Response: &pb.Response{Status: code, Message: message}}, nil
	}
	return nil, status.NewFromGRPCStatus(rpcStatus)
}

func extractChaincodeError(s *grpcstatus.Status) (int32, string, bool) {
	if s.Code() != grpcCodes.Unknown || s.Message() == "" {
		return 0, "", false
	}
	m := chaincodeErrorPattern.FindStringSubmatch(s.Message())
	if m == nil {
		return 0, "", false
	}
	code, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil || code == 0 {
		return 0, "", false
	}
	return int32(code), m[2], true
}

// chaincodeResponseStatus returns the status the chaincode set in its
// action, which differs from the endorser status when the endorser wraps it
func chaincodeResponseStatus(response *pb.ProposalResponse) (int32, error) {
	if len(response.Payload) > 0 {
		payload := &pb.ProposalResponsePayload{}
		if err := proto.Unmarshal(response.Payload, payload); err != nil {
			return 0, errors.Wrap(err, "unmarshal of proposal response payload failed")
		}

		action := &pb.ChaincodeAction{}
		if err := proto.Unmarshal(payload.Extension, action); err != nil {
			return 0, errors.Wrap(err, "unmarshal of chaincode action failed")
		}

		if action.Response != nil {
			return action.Response.Status, nil
		}
	}
	return response.GetResponse().GetStatus(), nil
}

func validateCertificateDates(cert *x509.Certificate, now time.Time) error {
	if cert == nil {
		return nil
	}
	if now.Before(cert.NotBefore) {
		return errors.Errorf("certificate provided is not valid until %s", cert.NotBefore)
	}
	if now.After(cert.NotAfter) {
		return errors.Errorf("certificate provided has expired on %s", cert.NotAfter)
	}
	return nil
}
