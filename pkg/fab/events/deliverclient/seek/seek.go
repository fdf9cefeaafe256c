/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package seek builds the seek requests sent to a deliver service.
package seek

import (
	"math"

	ab "github.com/hyperledger/fabric-protos-go/orderer"
)

// Type is the type of Seek request to perform.
type Type string

const (
	// Oldest seeks from the first block
	Oldest Type = "oldest"
	// Newest seeks from the last block
	Newest Type = "newest"
	// FromBlock seeks from a specific block
	FromBlock Type = "from"
)

var (
	oldestPos = &ab.SeekPosition{Type: &ab.SeekPosition_Oldest{Oldest: &ab.SeekOldest{}}}
	newestPos = &ab.SeekPosition{Type: &ab.SeekPosition_Newest{Newest: &ab.SeekNewest{}}}
	maxPos    = &ab.SeekPosition{Type: &ab.SeekPosition_Specified{Specified: &ab.SeekSpecified{Number: math.MaxUint64}}}
)

// InfoOldest requests every block from the genesis block onward
func InfoOldest() *ab.SeekInfo {
	return newSeekInfo(oldestPos, maxPos)
}

// InfoNewest requests the latest block and every block committed after it
func InfoNewest() *ab.SeekInfo {
	return newSeekInfo(newestPos, maxPos)
}

// InfoFrom requests every block from fromBlock onward
func InfoFrom(fromBlock uint64) *ab.SeekInfo {
	return newSeekInfo(&ab.SeekPosition{
		Type: &ab.SeekPosition_Specified{
			Specified: &ab.SeekSpecified{Number: fromBlock},
		},
	}, maxPos)
}

func newSeekInfo(start *ab.SeekPosition, stop *ab.SeekPosition) *ab.SeekInfo {
	return &ab.SeekInfo{
		Start:    start,
		Stop:     stop,
		Behavior: ab.SeekInfo_BLOCK_UNTIL_READY,
	}
}
