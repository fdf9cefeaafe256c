/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resource

import (
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
)

// CCPackage contains package type and bytes required to create CDS
type CCPackage struct {
	Type pb.ChaincodeSpec_Type
	Code []byte
}

// InstallChaincodeRequest requests chaincode installation on the network
type InstallChaincodeRequest struct {
	// required - name of the chaincode
	Name string
	// optional - import path of the chaincode sources
	Path string
	// required - version of the chaincode
	Version string
	// required - package (chaincode package type and bytes)
	Package *CCPackage
}

// ChaincodeProposalType reflects transitions in the chaincode lifecycle
type ChaincodeProposalType int

// Define chaincode proposal types
const (
	InstantiateChaincode ChaincodeProposalType = iota
	UpgradeChaincode
)

func (t ChaincodeProposalType) String() string {
	switch t {
	case InstantiateChaincode:
		return "instantiate"
	case UpgradeChaincode:
		return "upgrade"
	default:
		return "unknown"
	}
}

// ChaincodeDeployRequest holds the parameters of an instantiate or upgrade
// proposal
type ChaincodeDeployRequest struct {
	Name    string
	Path    string
	Version string
	Lang    pb.ChaincodeSpec_Type
	// Fcn is the init function, passed to the chaincode ahead of Args
	Fcn          string
	Args         [][]byte
	Policy       *cb.SignaturePolicyEnvelope
	CollConfig   []*pb.CollectionConfig
	TransientMap map[string][]byte
}
