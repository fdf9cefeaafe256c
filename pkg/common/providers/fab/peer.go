/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

// Peer is an endorsing node
type Peer interface {
	ProposalProcessor
	// MSPID gets the Peer mspID.
	MSPID() string
	// URL gets the peer address
	URL() string
}

// TargetFilter allows for filtering target peers
type TargetFilter interface {
	// Accept returns true if peer should be included in the list of target peers
	Accept(peer Peer) bool
}
