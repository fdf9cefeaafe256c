/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mocks provides in-memory peers, orderers, event services and
// contexts producing realistically shaped Fabric messages.
package mocks

import (
	reqContext "context"
	"crypto/sha256"
	"sync"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset"
	"github.com/hyperledger/fabric-protos-go/ledger/rwset/kvrwset"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

const (
	lscc                  = "lscc"
	lsccInstall           = "install"
	lsccDeploy            = "deploy"
	lsccUpgrade           = "upgrade"
	lsccInstalledQuery    = "getinstalledchaincodes"
	lsccInstantiatedQuery = "getchaincodes"
	defaultRWSetValue     = "value"
	successStatus         = 200
)

// ProposalInfo is the decoded content of a signed proposal
type ProposalInfo struct {
	TxID         string
	ChannelID    string
	ChaincodeID  string
	Args         [][]byte
	TransientMap map[string][]byte
}

// MockPeer is an endorser that simulates proposals in memory. It keeps a
// registry of installed and instantiated chaincodes answering the lscc
// queries.
type MockPeer struct {
	RWLock   sync.RWMutex
	MockName string
	MockURL  string
	MockMSP  string
	// Status is the chaincode status returned, 200 when zero
	Status int32
	// Message is returned with the chaincode response
	Message string
	// FunctionStatus overrides Status for proposals invoking the named
	// function, the first argument of the proposal
	FunctionStatus map[string]int32
	// Payload is returned when the proposal is not an lscc query
	Payload []byte
	// Error is returned instead of a response
	Error error
	// ChaincodeID overrides the chaincode identity declared in the action
	ChaincodeID *pb.ChaincodeID
	// RWSetValue is written by the simulated transaction
	RWSetValue []byte
	// EmptyRWSet produces a read/write set without namespaces
	EmptyRWSet bool
	// Requests holds the decoded proposals in arrival order
	Requests []*ProposalInfo

	installed    []*pb.ChaincodeInfo
	instantiated map[string][]*pb.ChaincodeInfo
}

// NewMockPeer creates a MockPeer with the given name and url
func NewMockPeer(name, url string) *MockPeer {
	return &MockPeer{MockName: name, MockURL: url, MockMSP: "Org1MSP"}
}

// Name returns the mock peer's name
func (p *MockPeer) Name() string {
	return p.MockName
}

// MSPID gets the Peer mspID.
func (p *MockPeer) MSPID() string {
	return p.MockMSP
}

// URL returns the mock peer's URL
func (p *MockPeer) URL() string {
	return p.MockURL
}

// AddInstalled records cc in the installed registry
func (p *MockPeer) AddInstalled(cc fab.ChaincodeID) {
	p.RWLock.Lock()
	defer p.RWLock.Unlock()
	p.installed = append(p.installed, &pb.ChaincodeInfo{Name: cc.Name, Version: cc.Version, Path: cc.Path})
}

// AddInstantiated records cc in the instantiated registry of channelID,
// replacing an earlier version of the same name
func (p *MockPeer) AddInstantiated(channelID string, cc fab.ChaincodeID) {
	p.RWLock.Lock()
	defer p.RWLock.Unlock()
	if p.instantiated == nil {
		p.instantiated = make(map[string][]*pb.ChaincodeInfo)
	}
	infos := p.instantiated[channelID][:0:0]
	for _, info := range p.instantiated[channelID] {
		if info.Name != cc.Name {
			infos = append(infos, info)
		}
	}
	p.instantiated[channelID] = append(infos, &pb.ChaincodeInfo{Name: cc.Name, Version: cc.Version, Path: cc.Path})
}

// ProcessCount returns the number of proposals processed
func (p *MockPeer) ProcessCount() int {
	p.RWLock.RLock()
	defer p.RWLock.RUnlock()
	return len(p.Requests)
}

// LastRequest returns the most recent proposal or nil
func (p *MockPeer) LastRequest() *ProposalInfo {
	p.RWLock.RLock()
	defer p.RWLock.RUnlock()
	if len(p.Requests) == 0 {
		return nil
	}
	return p.Requests[len(p.Requests)-1]
}

// ProcessTransactionProposal simulates the proposal and returns a signed
// response
func (p *MockPeer) ProcessTransactionProposal(ctx reqContext.Context, tp fab.ProcessProposalRequest) (*fab.TransactionProposalResponse, error) {
	p.RWLock.Lock()
	defer p.RWLock.Unlock()

	info, err := DecodeProposal(tp.SignedProposal)
	if err != nil {
		return nil, err
	}
	p.Requests = append(p.Requests, info)

	if p.Error != nil {
		return nil, p.Error
	}

	status := p.Status
	if len(info.Args) > 0 {
		if s, ok := p.FunctionStatus[string(info.Args[0])]; ok {
			status = s
		}
	}
	if status == 0 {
		status = successStatus
	}
	payload := p.Payload
	ccID := &pb.ChaincodeID{Name: info.ChaincodeID}

	if info.ChaincodeID == lscc && status == successStatus {
		payload, err = p.processLifecycle(info)
		if err != nil {
			return nil, err
		}
	} else if deployed := p.instantiatedInfo(info.ChannelID, info.ChaincodeID); deployed != nil {
		ccID = &pb.ChaincodeID{Name: deployed.Name, Version: deployed.Version}
	}
	if p.ChaincodeID != nil {
		ccID = p.ChaincodeID
	}

	response := &pb.Response{Status: status, Message: p.Message, Payload: payload}
	prpBytes, err := p.proposalResponsePayload(tp.SignedProposal.ProposalBytes, info.ChaincodeID, ccID, response)
	if err != nil {
		return nil, err
	}
	endorser := []byte(p.MockURL)
	signature := sha256.Sum256(append(append([]byte{}, prpBytes...), endorser...))

	return &fab.TransactionProposalResponse{
		Endorser:        p.MockURL,
		Status:          status,
		ChaincodeStatus: status,
		ProposalResponse: &pb.ProposalResponse{
			Version:     1,
			Response:    response,
			Payload:     prpBytes,
			Endorsement: &pb.Endorsement{Endorser: endorser, Signature: signature[:]},
		},
	}, nil
}

func (p *MockPeer) processLifecycle(info *ProposalInfo) ([]byte, error) {
	if len(info.Args) == 0 {
		return nil, errors.New("lscc function is missing")
	}
	switch string(info.Args[0]) {
	case lsccInstall:
		if len(info.Args) < 2 {
			return nil, errors.New("install requires a deployment spec")
		}
		cds := &pb.ChaincodeDeploymentSpec{}
		if err := proto.Unmarshal(info.Args[1], cds); err != nil {
			return nil, errors.Wrap(err, "unmarshal deployment spec failed")
		}
		spec := cds.GetChaincodeSpec().GetChaincodeId()
		p.installed = append(p.installed, &pb.ChaincodeInfo{Name: spec.GetName(), Version: spec.GetVersion(), Path: spec.GetPath()})
		return []byte("OK"), nil
	case lsccInstalledQuery:
		return proto.Marshal(&pb.ChaincodeQueryResponse{Chaincodes: p.installed})
	case lsccInstantiatedQuery:
		return proto.Marshal(&pb.ChaincodeQueryResponse{Chaincodes: p.instantiated[info.ChannelID]})
	case lsccDeploy, lsccUpgrade:
		return nil, nil
	default:
		return nil, errors.Errorf("unsupported lscc function %s", info.Args[0])
	}
}

func (p *MockPeer) instantiatedInfo(channelID, name string) *pb.ChaincodeInfo {
	for _, info := range p.instantiated[channelID] {
		if info.Name == name {
			return info
		}
	}
	return nil
}

func (p *MockPeer) proposalResponsePayload(proposalBytes []byte, namespace string, ccID *pb.ChaincodeID, response *pb.Response) ([]byte, error) {
	txRWSet := &rwset.TxReadWriteSet{DataModel: rwset.TxReadWriteSet_KV}
	if !p.EmptyRWSet {
		value := p.RWSetValue
		if value == nil {
			value = []byte(defaultRWSetValue)
		}
		kvBytes, err := proto.Marshal(&kvrwset.KVRWSet{
			Reads:  []*kvrwset.KVRead{{Key: "key1", Version: &kvrwset.Version{BlockNum: 1, TxNum: 1}}},
			Writes: []*kvrwset.KVWrite{{Key: "key2", Value: value}},
		})
		if err != nil {
			return nil, errors.Wrap(err, "marshal of kv rwset failed")
		}
		txRWSet.NsRwset = []*rwset.NsReadWriteSet{{Namespace: namespace, Rwset: kvBytes}}
	}
	resultsBytes, err := proto.Marshal(txRWSet)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of rwset failed")
	}
	actionBytes, err := proto.Marshal(&pb.ChaincodeAction{Results: resultsBytes, Response: response, ChaincodeId: ccID})
	if err != nil {
		return nil, errors.Wrap(err, "marshal of chaincode action failed")
	}
	hash := sha256.Sum256(proposalBytes)
	return proto.Marshal(&pb.ProposalResponsePayload{ProposalHash: hash[:], Extension: actionBytes})
}

// DecodeProposal extracts the header fields and the invocation of a signed
// proposal
func DecodeProposal(signedProposal *pb.SignedProposal) (*ProposalInfo, error) {
	if signedProposal == nil {
		return nil, errors.New("signed proposal is nil")
	}
	proposal := &pb.Proposal{}
	if err := proto.Unmarshal(signedProposal.ProposalBytes, proposal); err != nil {
		return nil, errors.Wrap(err, "unmarshal proposal failed")
	}
	hdr := &cb.Header{}
	if err := proto.Unmarshal(proposal.Header, hdr); err != nil {
		return nil, errors.Wrap(err, "unmarshal header failed")
	}
	chdr := &cb.ChannelHeader{}
	if err := proto.Unmarshal(hdr.ChannelHeader, chdr); err != nil {
		return nil, errors.Wrap(err, "unmarshal channel header failed")
	}
	ccpp := &pb.ChaincodeProposalPayload{}
	if err := proto.Unmarshal(proposal.Payload, ccpp); err != nil {
		return nil, errors.Wrap(err, "unmarshal chaincode proposal payload failed")
	}
	cis := &pb.ChaincodeInvocationSpec{}
	if err := proto.Unmarshal(ccpp.Input, cis); err != nil {
		return nil, errors.Wrap(err, "unmarshal invocation spec failed")
	}
	return &ProposalInfo{
		TxID:         chdr.TxId,
		ChannelID:    chdr.ChannelId,
		ChaincodeID:  cis.GetChaincodeSpec().GetChaincodeId().GetName(),
		Args:         cis.GetChaincodeSpec().GetInput().GetArgs(),
		TransientMap: ccpp.TransientMap,
	}, nil
}
