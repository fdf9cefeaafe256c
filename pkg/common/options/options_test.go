/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type nameSetter interface {
	SetName(value string)
}

type params struct {
	name string
}

func (p *params) SetName(value string) {
	p.name = value
}

func withName(name string) Opt {
	return func(p Params) {
		if setter, ok := p.(nameSetter); ok {
			setter.SetName(name)
		}
	}
}

func TestApply(t *testing.T) {
	p := &params{}
	Apply(p, []Opt{withName("first"), withName("second")})
	assert.Equal(t, "second", p.name)

	// params without the setter are left alone
	other := &struct{ name string }{}
	Apply(other, []Opt{withName("ignored")})
	assert.Empty(t, other.name)
}
