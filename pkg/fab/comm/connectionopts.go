/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package comm builds gRPC client connections to peers and orderers from
// their configured grpcOptions.
package comm

import (
	"crypto/tls"
	"crypto/x509"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/config/endpoint"
)

var logger = logging.NewLogger("orchestrator/fab")

const (
	defaultMaxMsgSize = 100 * 1024 * 1024
)

// Params are the connection settings of a node
type Params struct {
	HostOverride   string
	Certificate    *x509.Certificate
	KeepAlive      keepalive.ClientParameters
	FailFast       bool
	AllowInsecure  bool
	MaxRecvMsgSize int
	MaxSendMsgSize int
}

// ParamsFromGRPCOptions reads the grpcOptions map of a peer or orderer entry
func ParamsFromGRPCOptions(grpcOpts map[string]interface{}, cert *x509.Certificate) Params {
	params := Params{
		Certificate:    cert,
		MaxRecvMsgSize: defaultMaxMsgSize,
		MaxSendMsgSize: defaultMaxMsgSize,
	}

	if v, ok := grpcOpts["ssl-target-name-override"]; ok {
		params.HostOverride = cast.ToString(v)
	}
	if v, ok := grpcOpts["keep-alive-time"]; ok {
		params.KeepAlive.Time = cast.ToDuration(v)
	}
	if v, ok := grpcOpts["keep-alive-timeout"]; ok {
		params.KeepAlive.Timeout = cast.ToDuration(v)
	}
	if v, ok := grpcOpts["keep-alive-permit"]; ok {
		params.KeepAlive.PermitWithoutStream = cast.ToBool(v)
	}
	if v, ok := grpcOpts["fail-fast"]; ok {
		params.FailFast = cast.ToBool(v)
	}
	if v, ok := grpcOpts["allow-insecure"]; ok {
		params.AllowInsecure = cast.ToBool(v)
	}
	if v, ok := grpcOpts["max-recv-msg-size"]; ok && cast.ToInt(v) > 0 {
		params.MaxRecvMsgSize = cast.ToInt(v)
	}
	if v, ok := grpcOpts["max-send-msg-size"]; ok && cast.ToInt(v) > 0 {
		params.MaxSendMsgSize = cast.ToInt(v)
	}

	return params
}

// DialOptions returns the gRPC dial options for url
func DialOptions(url string, params Params, clientCerts []tls.Certificate) ([]grpc.DialOption, error) {
	var dialOpts []grpc.DialOption

	if params.KeepAlive.Time > 0 || params.KeepAlive.Timeout > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(params.KeepAlive))
	}

	dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(
		grpc.WaitForReady(!params.FailFast),
		grpc.MaxCallRecvMsgSize(params.MaxRecvMsgSize),
		grpc.MaxCallSendMsgSize(params.MaxSendMsgSize),
	))

	if endpoint.AttemptSecured(url, params.AllowInsecure) {
		tlsConfig, err := TLSConfig(params.Certificate, params.HostOverride, clientCerts)
		if err != nil {
			return nil, err
		}
		logger.Debugf("Creating a secure connection to [%s] with TLS HostOverride [%s]", url, params.HostOverride)
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		logger.Debugf("Creating an insecure connection [%s]", url)
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	return dialOpts, nil
}

// TLSConfig returns the TLS configuration trusting cert, or the system
// roots when cert is nil
func TLSConfig(cert *x509.Certificate, serverName string, clientCerts []tls.Certificate) (*tls.Config, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if cert != nil {
		pool.AddCert(cert)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: clientCerts,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Dial creates a client connection to url. The connection is established
// lazily by the first call.
func Dial(url string, params Params, clientCerts []tls.Certificate) (*grpc.ClientConn, error) {
	if url == "" {
		return nil, errors.New("server URL not specified")
	}

	dialOpts, err := DialOptions(url, params, clientCerts)
	if err != nil {
		return nil, err
	}

	conn, err := grpc.NewClient(endpoint.ToAddress(url), dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create connection to %s", url)
	}
	return conn, nil
}

// ContextTimeout returns timeout when positive and def otherwise
func ContextTimeout(timeout, def time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return def
}
