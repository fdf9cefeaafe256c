/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package multi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Nil(t, New())
	assert.Nil(t, New(nil, nil))

	e1 := fmt.Errorf("peer0 unreachable")
	assert.Equal(t, e1, New(nil, e1), "a single error is returned as is")

	e2 := fmt.Errorf("peer1 unreachable")
	m, ok := New(e1, e2).(Errors)
	assert.True(t, ok)
	assert.Len(t, m, 2)
	assert.Equal(t, e1, m.First())
}

func TestAppend(t *testing.T) {
	e1 := fmt.Errorf("e1")
	e2 := fmt.Errorf("e2")
	e3 := fmt.Errorf("e3")

	assert.Nil(t, Append(nil, nil))
	assert.Equal(t, e1, Append(nil, e1))
	assert.Equal(t, e1, Append(e1, nil))

	errs := Append(e1, e2)
	errs = Append(errs, e3)
	m, ok := errs.(Errors)
	assert.True(t, ok)
	assert.Equal(t, Errors{e1, e2, e3}, m)
}

func TestToError(t *testing.T) {
	assert.Nil(t, Errors{}.ToError())

	e1 := fmt.Errorf("e1")
	assert.Equal(t, e1, Errors{e1}.ToError())
	assert.Nil(t, Errors{}.First())
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "", Errors{}.Error())
	assert.Equal(t, "e1", Errors{fmt.Errorf("e1")}.Error())
	assert.Equal(t, "2 errors occurred: - e1 - e2", Errors{fmt.Errorf("e1"), fmt.Errorf("e2")}.Error())
}
