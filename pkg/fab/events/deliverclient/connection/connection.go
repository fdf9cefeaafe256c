/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package connection holds the gRPC stream to the deliver service of a peer.
package connection

import (
	reqContext "context"
	"crypto/tls"
	"io"
	"sync"
	"time"

	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	grpcstatus "google.golang.org/grpc/status"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/comm"
)

var logger = logging.NewLogger("orchestrator/fab")

// Connection is an open Deliver stream
type Connection struct {
	url    string
	conn   *grpc.ClientConn
	stream pb.Deliver_DeliverClient
	cancel reqContext.CancelFunc
	once   sync.Once
}

// New dials url and opens a Deliver stream. Opening the stream is bounded
// by timeout; the stream itself lives until Close.
func New(url string, params comm.Params, clientCerts []tls.Certificate, timeout time.Duration) (*Connection, error) {
	conn, err := comm.Dial(url, params, clientCerts)
	if err != nil {
		return nil, status.New(status.EndorserClientStatus, status.ConnectionFailed.ToInt32(), err.Error(), []interface{}{url})
	}

	ctx, cancel := reqContext.WithCancel(reqContext.Background())

	type result struct {
		stream pb.Deliver_DeliverClient
		err    error
	}
	opened := make(chan result, 1)
	go func() {
		stream, err := pb.NewDeliverClient(conn).Deliver(ctx)
		opened <- result{stream: stream, err: err}
	}()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case r := <-opened:
		if r.err != nil {
			cancel()
			closeConn(conn)
			return nil, errors.WithMessagef(fromGRPCError(r.err), "opening deliver stream to %s failed", url)
		}
		logger.Debugf("Opened deliver stream to %s", url)
		return &Connection{url: url, conn: conn, stream: r.stream, cancel: cancel}, nil
	case <-timer:
		cancel()
		closeConn(conn)
		return nil, status.New(status.EndorserClientStatus, status.Timeout.ToInt32(),
			"timed out opening deliver stream to "+url, []interface{}{url})
	}
}

// URL returns the address of the peer
func (c *Connection) URL() string {
	return c.url
}

// Send sends envelope on the stream
func (c *Connection) Send(envelope *cb.Envelope) error {
	// io.EOF means the server ended the stream; its status is read by Receive
	if err := c.stream.Send(envelope); err != nil && err != io.EOF {
		return errors.WithMessage(fromGRPCError(err), "send on deliver stream failed")
	}
	return nil
}

// Receive blocks until the next response arrives or the stream fails
func (c *Connection) Receive() (*pb.DeliverResponse, error) {
	resp, err := c.stream.Recv()
	if err != nil {
		return nil, fromGRPCError(err)
	}
	return resp, nil
}

// Close ends the stream and releases the connection
func (c *Connection) Close() {
	c.once.Do(func() {
		if err := c.stream.CloseSend(); err != nil {
			logger.Debugf("unable to close deliver stream [%s]", err)
		}
		c.cancel()
		closeConn(c.conn)
	})
}

func closeConn(conn *grpc.ClientConn) {
	if err := conn.Close(); err != nil {
		logger.Debugf("unable to close connection [%s]", err)
	}
}

func fromGRPCError(err error) error {
	if rpcStatus, ok := grpcstatus.FromError(err); ok {
		return status.NewFromGRPCStatus(rpcStatus)
	}
	return err
}
