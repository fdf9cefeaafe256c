/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package seek

import (
	"math"
	"testing"

	ab "github.com/hyperledger/fabric-protos-go/orderer"
	"github.com/stretchr/testify/assert"
)

func TestSeekInfo(t *testing.T) {
	info := InfoNewest()
	assert.NotNil(t, info.Start.GetNewest())
	assert.Equal(t, uint64(math.MaxUint64), info.Stop.GetSpecified().GetNumber())
	assert.Equal(t, ab.SeekInfo_BLOCK_UNTIL_READY, info.Behavior)

	assert.NotNil(t, InfoOldest().Start.GetOldest())
	assert.Equal(t, uint64(42), InfoFrom(42).Start.GetSpecified().GetNumber())
}
