/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChaincodeIDMatches(t *testing.T) {
	requested := ChaincodeID{Name: "ledger_cc", Version: "1"}

	assert.True(t, requested.Matches(ChaincodeID{Name: "ledger_cc", Version: "1"}))
	assert.True(t, requested.Matches(ChaincodeID{Name: "ledger_cc", Version: "1", Path: "github.com/ledger"}),
		"path is ignored when the requested identity has none")
	assert.False(t, requested.Matches(ChaincodeID{Name: "ledger_cc", Version: "2"}))
	assert.False(t, requested.Matches(ChaincodeID{Name: "other_cc", Version: "1"}))

	withPath := ChaincodeID{Name: "ledger_cc", Version: "1", Path: "github.com/ledger"}
	assert.True(t, withPath.Matches(ChaincodeID{Name: "ledger_cc", Version: "1", Path: "github.com/ledger"}))
	assert.False(t, withPath.Matches(ChaincodeID{Name: "ledger_cc", Version: "1", Path: "github.com/other"}))
	assert.False(t, withPath.Matches(ChaincodeID{Name: "ledger_cc", Version: "1"}))
}

func TestChaincodeIDString(t *testing.T) {
	assert.Equal(t, "ledger_cc", ChaincodeID{Name: "ledger_cc"}.String())
	assert.Equal(t, "ledger_cc:1", ChaincodeID{Name: "ledger_cc", Version: "1"}.String())
	assert.Equal(t, "ledger_cc:1@github.com/ledger", ChaincodeID{Name: "ledger_cc", Version: "1", Path: "github.com/ledger"}.String())
}
