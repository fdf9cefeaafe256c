/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package context

import (
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
)

// Client supplies the configuration and signing identity used by clients
type Client fab.ClientContext

// Channel supplies the configuration, signing identity and channel service
type Channel interface {
	Client
	ChannelService() fab.ChannelService
	ChannelID() string
}

// ClientProvider returns client context
type ClientProvider func() (Client, error)

// ChannelProvider returns channel client instance
type ChannelProvider func() (Channel, error)
