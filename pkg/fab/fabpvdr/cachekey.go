/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package fabpvdr

import (
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

type peerCacheKey struct {
	config *fab.NetworkPeer
}

func (k *peerCacheKey) String() string {
	return k.config.URL
}

type ordererCacheKey struct {
	config *fab.OrdererConfig
}

func (k *ordererCacheKey) String() string {
	return k.config.URL
}

// eventCacheKey identifies an event service by identity, channel and source
type eventCacheKey struct {
	key       string
	context   fab.ClientContext
	channelID string
	source    fab.Peer
}

func newEventCacheKey(ctx fab.ClientContext, channelID string, source fab.Peer) *eventCacheKey {
	id := ctx.Identifier()
	return &eventCacheKey{
		key:       id.MSPID + "_" + id.ID + "_" + channelID + "_" + source.URL(),
		context:   ctx,
		channelID: channelID,
		source:    source,
	}
}

func (k *eventCacheKey) String() string {
	return k.key
}
