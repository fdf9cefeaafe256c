/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package txn

// Proposal kinds named by the diagnostic transient entries
const (
	MethodTransactionProposal = "TransactionProposalRequest"
	MethodQueryByChaincode    = "QueryByChaincodeRequest"
	MethodInstantiateProposal = "InstantiateProposalRequest"
	MethodUpgradeProposal     = "UpgradeProposalRequest"
)

const (
	transientMethodKey = "method"
	transientClientKey = "HyperLedgerFabric"
	clientTag          = "GoSDK"
)

// TransientMap returns the diagnostic entries identifying method merged
// with the caller's entries. Caller entries replace diagnostic ones with
// the same key. The caller's map is not modified.
func TransientMap(method string, caller map[string][]byte) map[string][]byte {
	transient := make(map[string][]byte, len(caller)+2)
	transient[transientClientKey] = []byte(method + ":" + clientTag)
	transient[transientMethodKey] = []byte(method)
	for k, v := range caller {
		transient[k] = v
	}
	return transient
}
