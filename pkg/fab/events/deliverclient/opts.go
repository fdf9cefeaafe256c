/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package deliverclient

import (
	"time"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/options"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/events/deliverclient/seek"
)

type params struct {
	seekType          seek.Type
	fromBlock         uint64
	connTimeout       time.Duration
	reconnectAttempts int
	reconnectInterval time.Duration
}

func defaultParams() *params {
	return &params{
		seekType:          seek.Newest,
		reconnectAttempts: 3,
		reconnectInterval: time.Second,
	}
}

// WithSeekType specifies the point from which block events are to be received.
func WithSeekType(value seek.Type) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(seekTypeSetter); ok {
			setter.SetSeekType(value)
		}
	}
}

// WithBlockNum specifies the block number from which events are to be received.
// Note that this option is only valid if SeekType is set to seek.FromBlock.
func WithBlockNum(value uint64) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(fromBlockSetter); ok {
			setter.SetFromBlock(value)
		}
	}
}

// WithConnectionTimeout bounds the opening of a deliver stream. The event
// registration timeout of the configuration applies by default.
func WithConnectionTimeout(value time.Duration) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(connectionTimeoutSetter); ok {
			setter.SetConnectionTimeout(value)
		}
	}
}

// WithReconnect sets how often and how far apart a failed stream is
// reopened before the registrations are released
func WithReconnect(attempts int, interval time.Duration) options.Opt {
	return func(p options.Params) {
		if setter, ok := p.(reconnectSetter); ok {
			setter.SetReconnect(attempts, interval)
		}
	}
}

type seekTypeSetter interface {
	SetSeekType(value seek.Type)
}

type fromBlockSetter interface {
	SetFromBlock(value uint64)
}

type connectionTimeoutSetter interface {
	SetConnectionTimeout(value time.Duration)
}

type reconnectSetter interface {
	SetReconnect(attempts int, interval time.Duration)
}

func (p *params) SetSeekType(value seek.Type) {
	logger.Debugf("SeekType: %s", value)
	if value != "" {
		p.seekType = value
	}
}

func (p *params) SetFromBlock(value uint64) {
	logger.Debugf("FromBlock: %d", value)
	p.fromBlock = value
}

func (p *params) SetConnectionTimeout(value time.Duration) {
	logger.Debugf("ConnectionTimeout: %s", value)
	p.connTimeout = value
}

func (p *params) SetReconnect(attempts int, interval time.Duration) {
	logger.Debugf("Reconnect: %d attempts every %s", attempts, interval)
	p.reconnectAttempts = attempts
	p.reconnectInterval = interval
}
