/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resource

import (
	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

const (
	lscc                       = "lscc"
	lsccInstall                = "install"
	lsccDeploy                 = "deploy"
	lsccUpgrade                = "upgrade"
	lsccInstalledChaincodes    = "getinstalledchaincodes"
	lsccInstantiatedChaincodes = "getchaincodes"
	escc                       = "escc"
	vscc                       = "vscc"
)

// CreateChaincodeInstallProposal creates an install chaincode proposal.
func CreateChaincodeInstallProposal(txh fab.TransactionHeader, request InstallChaincodeRequest) (*fab.TransactionProposal, error) {
	cir, err := createInstallInvokeRequest(request)
	if err != nil {
		return nil, errors.WithMessage(err, "creating lscc install invocation request failed")
	}

	return txn.CreateChaincodeInvokeProposal(txh, cir)
}

func createInstallInvokeRequest(request InstallChaincodeRequest) (fab.ChaincodeInvokeRequest, error) {
	if request.Package == nil {
		return fab.ChaincodeInvokeRequest{}, status.NewPrecondition("chaincode package is required")
	}

	ccds := &pb.ChaincodeDeploymentSpec{ChaincodeSpec: &pb.ChaincodeSpec{
		Type: request.Package.Type, ChaincodeId: &pb.ChaincodeID{Name: request.Name, Path: request.Path, Version: request.Version}},
		CodePackage: request.Package.Code}

	ccdsBytes, err := proto.Marshal(ccds)
	if err != nil {
		return fab.ChaincodeInvokeRequest{}, errors.Wrap(err, "marshal of chaincode deployment spec failed")
	}

	return fab.ChaincodeInvokeRequest{
		ChaincodeID: fab.ChaincodeID{Name: lscc},
		Fcn:         lsccInstall,
		Args:        [][]byte{ccdsBytes},
	}, nil
}

// CreateChaincodeDeployProposal creates an instantiate or upgrade chaincode
// proposal. The lscc arguments are the channel, the deployment spec, the
// endorsement policy, the endorsement and validation plugin names and,
// when collections are configured, the collection config package.
func CreateChaincodeDeployProposal(txh fab.TransactionHeader, deploy ChaincodeProposalType, channelID string, chaincode ChaincodeDeployRequest) (*fab.TransactionProposal, error) {
	if chaincode.Policy == nil {
		return nil, status.NewPrecondition("endorsement policy is required to %s chaincode %s", deploy, chaincode.Name)
	}

	var fcn string
	switch deploy {
	case InstantiateChaincode:
		fcn = lsccDeploy
	case UpgradeChaincode:
		fcn = lsccUpgrade
	default:
		return nil, errors.New("chaincode deployment type unknown")
	}

	input := make([][]byte, 0, len(chaincode.Args)+1)
	input = append(input, []byte(chaincode.Fcn))
	input = append(input, chaincode.Args...)

	ccds := &pb.ChaincodeDeploymentSpec{ChaincodeSpec: &pb.ChaincodeSpec{
		Type:        chaincode.Lang,
		ChaincodeId: &pb.ChaincodeID{Name: chaincode.Name, Path: chaincode.Path, Version: chaincode.Version},
		Input:       &pb.ChaincodeInput{Args: input},
	}}
	ccdsBytes, err := proto.Marshal(ccds)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of chaincode deployment spec failed")
	}

	chaincodePolicyBytes, err := proto.Marshal(chaincode.Policy)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of chaincode policy failed")
	}

	args := [][]byte{[]byte(channelID), ccdsBytes, chaincodePolicyBytes, []byte(escc), []byte(vscc)}

	if len(chaincode.CollConfig) > 0 {
		collConfigBytes, err := proto.Marshal(&pb.CollectionConfigPackage{Config: chaincode.CollConfig})
		if err != nil {
			return nil, errors.Wrap(err, "marshal of collection policy failed")
		}
		args = append(args, collConfigBytes)
	}

	return txn.CreateChaincodeInvokeProposal(txh, fab.ChaincodeInvokeRequest{
		ChaincodeID:  fab.ChaincodeID{Name: lscc},
		Fcn:          fcn,
		Args:         args,
		TransientMap: chaincode.TransientMap,
	})
}

func createInstalledChaincodesInvokeRequest() fab.ChaincodeInvokeRequest {
	return fab.ChaincodeInvokeRequest{
		ChaincodeID: fab.ChaincodeID{Name: lscc},
		Fcn:         lsccInstalledChaincodes,
	}
}

func createInstantiatedChaincodesInvokeRequest() fab.ChaincodeInvokeRequest {
	return fab.ChaincodeInvokeRequest{
		ChaincodeID: fab.ChaincodeID{Name: lscc},
		Fcn:         lsccInstantiatedChaincodes,
	}
}
