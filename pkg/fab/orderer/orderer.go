/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package orderer broadcasts signed transaction envelopes to the ordering
// service over gRPC.
package orderer

import (
	reqContext "context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"sync"
	"time"

	"github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/comm"
)

var logger = logging.NewLogger("orchestrator/fab")

// Orderer allows a client to broadcast a transaction.
type Orderer struct {
	config      fab.EndpointConfig
	name        string
	url         string
	params      comm.Params
	clientCerts []tls.Certificate

	mutex sync.Mutex
	conn  *grpc.ClientConn
}

// Option describes a functional parameter for the New constructor
type Option func(*Orderer) error

// New Returns a Orderer instance
func New(config fab.EndpointConfig, opts ...Option) (*Orderer, error) {
	orderer := &Orderer{config: config, params: comm.ParamsFromGRPCOptions(nil, nil)}

	for _, opt := range opts {
		if err := opt(orderer); err != nil {
			return nil, err
		}
	}

	if orderer.url == "" {
		return nil, errors.New("orderer URL is required")
	}
	if config != nil {
		orderer.clientCerts = config.TLSClientCerts()
	}
	if _, err := comm.DialOptions(orderer.url, orderer.params, orderer.clientCerts); err != nil {
		return nil, err
	}

	return orderer, nil
}

// WithURL is a functional option for the orderer.New constructor that configures the orderer's URL.
func WithURL(url string) Option {
	return func(o *Orderer) error {
		o.url = url
		return nil
	}
}

// WithTLSCert is a functional option for the orderer.New constructor that configures the orderer's TLS certificate
func WithTLSCert(tlsCACert *x509.Certificate) Option {
	return func(o *Orderer) error {
		o.params.Certificate = tlsCACert
		return nil
	}
}

// WithServerName is a functional option for the orderer.New constructor that configures the orderer's server name
func WithServerName(serverName string) Option {
	return func(o *Orderer) error {
		o.params.HostOverride = serverName
		return nil
	}
}

// WithInsecure is a functional option for the orderer.New constructor that configures the orderer's grpc insecure option
func WithInsecure() Option {
	return func(o *Orderer) error {
		o.params.AllowInsecure = true
		return nil
	}
}

// FromOrdererConfig is a functional option for the orderer.New constructor that configures a new orderer
// from a fab.OrdererConfig struct
func FromOrdererConfig(ordererCfg *fab.OrdererConfig) Option {
	return func(o *Orderer) error {
		o.name = ordererCfg.Name
		o.url = ordererCfg.URL
		o.params = comm.ParamsFromGRPCOptions(ordererCfg.GRPCOptions, ordererCfg.TLSCACert)

		if !o.params.AllowInsecure && ordererCfg.TLSCACert != nil && time.Now().After(ordererCfg.TLSCACert.NotAfter) {
			logger.Warnf("TLS certificate of orderer %s has expired on %s", ordererCfg.URL, ordererCfg.TLSCACert.NotAfter)
		}
		return nil
	}
}

// FromOrdererName is a functional option for the orderer.New constructor that obtains an apiconfig.OrdererConfig
// by name from the apiconfig.Config supplied to the constructor, and then constructs a new orderer from it
func FromOrdererName(name string) Option {
	return func(o *Orderer) error {
		if o.config == nil {
			return errors.New("configuration is required to look up an orderer by name")
		}
		ordererCfg, found := o.config.OrdererConfig(name)
		if !found {
			return errors.Errorf("orderer config not found for orderer : %s", name)
		}

		return FromOrdererConfig(ordererCfg)(o)
	}
}

// URL Get the Orderer url. Required property for the instance objects.
// Returns the address of the Orderer.
func (o *Orderer) URL() string {
	return o.url
}

// Name returns the configured name of the orderer, or its URL
func (o *Orderer) Name() string {
	if o.name == "" {
		return o.url
	}
	return o.name
}

func (o *Orderer) connection() (*grpc.ClientConn, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.conn != nil {
		return o.conn, nil
	}
	conn, err := comm.Dial(o.url, o.params, o.clientCerts)
	if err != nil {
		return nil, err
	}
	o.conn = conn
	return conn, nil
}

// Close releases the connection of the orderer
func (o *Orderer) Close() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.conn == nil {
		return
	}
	if err := o.conn.Close(); err != nil {
		logger.Debugf("unable to close connection [%s]", err)
	}
	o.conn = nil
}

// SendBroadcast Send the created transaction to Orderer.
func (o *Orderer) SendBroadcast(ctx reqContext.Context, envelope *fab.SignedEnvelope) (*common.Status, error) {
	conn, err := o.connection()
	if err != nil {
		return nil, status.New(status.OrdererClientStatus, status.ConnectionFailed.ToInt32(), err.Error(), nil)
	}

	streamCtx, cancel := reqContext.WithCancel(ctx)
	defer cancel()

	broadcastClient, err := ab.NewAtomicBroadcastClient(conn).Broadcast(streamCtx)
	if err != nil {
		return nil, errors.Wrap(fromGRPCError(err), "NewAtomicBroadcastClient failed")
	}

	err = broadcastClient.Send(&common.Envelope{
		Payload:   envelope.Payload,
		Signature: envelope.Signature,
	})
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(fromGRPCError(err), "failed to send envelope to orderer")
	}
	if err := broadcastClient.CloseSend(); err != nil {
		logger.Debugf("unable to close broadcast client [%s]", err)
	}

	broadcastResponse, err := broadcastClient.Recv()
	if err != nil {
		return nil, errors.Wrap(fromGRPCError(err), "broadcast recv failed")
	}
	if broadcastResponse.Status != common.Status_SUCCESS {
		return nil, status.New(status.OrdererServerStatus, int32(broadcastResponse.Status), broadcastResponse.Info, nil)
	}

	s := broadcastResponse.Status
	return &s, nil
}

func fromGRPCError(err error) error {
	if rpcStatus, ok := grpcstatus.FromError(err); ok {
		return status.NewFromGRPCStatus(rpcStatus)
	}
	return err
}
