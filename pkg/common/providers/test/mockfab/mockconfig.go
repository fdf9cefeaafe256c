/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mockfab

import (
	"crypto/tls"
	"time"

	"github.com/golang/mock/gomock"
)

//go:generate mockgen -package mockfab -destination mockfab.gen.go github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab EndpointConfig,EventService,Orderer,Peer

// TLSCert is a mock of a tls.Certificate{}
var TLSCert = tls.Certificate{Certificate: [][]byte{{3}, {4}}}

// ErrorMessage is a mock error message
const ErrorMessage = "default error message"

// DefaultMockConfig returns a mock config with five second timeouts that
// knows no peers, orderers or channels
func DefaultMockConfig(mockCtrl *gomock.Controller) *MockEndpointConfig {
	config := NewMockEndpointConfig(mockCtrl)

	config.EXPECT().Timeout(gomock.Any()).Return(time.Second * 5).AnyTimes()
	config.EXPECT().TLSClientCerts().Return([]tls.Certificate{TLSCert}).AnyTimes()
	config.EXPECT().PeerConfig(gomock.Any()).Return(nil, false).AnyTimes()
	config.EXPECT().OrdererConfig(gomock.Any()).Return(nil, false).AnyTimes()
	config.EXPECT().ChannelConfig(gomock.Any()).Return(nil, false).AnyTimes()

	return config
}
