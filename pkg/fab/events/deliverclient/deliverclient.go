/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package deliverclient is an event service fed by the block stream of a
// peer's deliver service.
package deliverclient

import (
	"math"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	cb "github.com/hyperledger/fabric-protos-go/common"
	ab "github.com/hyperledger/fabric-protos-go/orderer"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/options"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/cryptosuite"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/comm"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/events/deliverclient/connection"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/events/deliverclient/dispatcher"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/events/deliverclient/seek"
	"github.com/fabric-orchestrator/orchestrator/pkg/fab/txn"
)

var logger = logging.NewLogger("orchestrator/fab")

// Client connects to a peer and receives blocks from the deliver service.
// Transaction status events are produced from the validation flags of
// each block.
type Client struct {
	*params
	ctx        fab.ClientContext
	channelID  string
	url        string
	connParams comm.Params
	dispatcher *dispatcher.Dispatcher

	mutex   sync.Mutex
	conn    *connection.Connection
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New connects to the deliver service of source and starts receiving
// blocks of channelID
func New(ctx fab.ClientContext, channelID string, source fab.Peer, opts ...options.Opt) (*Client, error) {
	if channelID == "" {
		return nil, errors.New("channel ID is required")
	}
	if source == nil {
		return nil, errors.New("event source is required")
	}

	params := defaultParams()
	options.Apply(params, opts)
	if params.connTimeout == 0 {
		params.connTimeout = ctx.EndpointConfig().Timeout(fab.EventReg)
	}

	url := source.URL()
	var connParams comm.Params
	if peerCfg, ok := ctx.EndpointConfig().PeerConfig(url); ok {
		connParams = comm.ParamsFromGRPCOptions(peerCfg.GRPCOptions, peerCfg.TLSCACert)
	} else {
		connParams = comm.ParamsFromGRPCOptions(nil, nil)
	}

	c := &Client{
		params:     params,
		ctx:        ctx,
		channelID:  channelID,
		url:        url,
		connParams: connParams,
		dispatcher: dispatcher.New(),
		done:       make(chan struct{}),
	}

	conn, err := c.connect(c.initialSeekInfo())
	if err != nil {
		return nil, errors.WithMessagef(err, "connecting to event source %s failed", url)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.receive(conn)

	logger.Debugf("Event client of channel %s connected to %s", channelID, url)
	return c, nil
}

// RegisterTxStatusEvent registers for the status of txID. The channel
// receives a single event.
func (c *Client) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	return c.dispatcher.RegisterTxStatusEvent(txID)
}

// Unregister removes reg and closes its channel
func (c *Client) Unregister(reg fab.Registration) {
	c.dispatcher.Unregister(reg)
}

// URL returns the address of the event source
func (c *Client) URL() string {
	return c.url
}

// Closed reports whether the client stopped delivering events, either by
// Close or by giving up on the event source
func (c *Client) Closed() bool {
	return c.dispatcher.Closed()
}

// Close stops receiving blocks and closes every registration
func (c *Client) Close() {
	c.mutex.Lock()
	if c.stopped {
		c.mutex.Unlock()
		return
	}
	c.stopped = true
	close(c.done)
	conn := c.conn
	c.mutex.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
	c.dispatcher.Close()

	logger.Debugf("Event client of channel %s closed", c.channelID)
}

func (c *Client) isStopped() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stopped
}

func (c *Client) receive(conn *connection.Connection) {
	defer c.wg.Done()

	failures := 0
	for {
		received, err := c.next(conn)
		if err == nil {
			if received {
				failures = 0
			}
			continue
		}
		if c.isStopped() {
			return
		}

		logger.Warnf("Deliver stream from %s failed: %s", c.url, err)
		conn.Close()

		conn, failures = c.reconnect(failures)
		if conn == nil {
			return
		}
	}
}

// next handles one response and reports whether it carried a block
func (c *Client) next(conn *connection.Connection) (bool, error) {
	resp, err := conn.Receive()
	if err != nil {
		return false, err
	}

	switch r := resp.Type.(type) {
	case *pb.DeliverResponse_Block:
		if err := c.dispatcher.HandleBlock(r.Block, c.url); err != nil {
			logger.Warnf("Discarding block from %s: %s", c.url, err)
		}
		return true, nil
	case *pb.DeliverResponse_Status:
		return false, errors.Errorf("deliver service returned status %s", r.Status)
	default:
		logger.Warnf("Unsupported deliver response type: %T", resp.Type)
		return false, nil
	}
}

// reconnect reopens the stream after the last block received. The
// consecutive failures without a block are bounded by the reconnect
// attempts; past that the registrations are closed and nil is returned.
func (c *Client) reconnect(failures int) (*connection.Connection, int) {
	for {
		failures++
		if failures > c.reconnectAttempts {
			logger.Errorf("Giving up on event source %s after %d reconnect attempts", c.url, c.reconnectAttempts)
			c.dispatcher.Close()
			return nil, failures
		}

		select {
		case <-c.done:
			return nil, failures
		case <-time.After(c.reconnectInterval):
		}

		conn, err := c.connect(c.resumeSeekInfo())
		if err != nil {
			logger.Warnf("Reconnect attempt %d to %s failed: %s", failures, c.url, err)
			continue
		}

		c.mutex.Lock()
		if c.stopped {
			c.mutex.Unlock()
			conn.Close()
			return nil, failures
		}
		c.conn = conn
		c.mutex.Unlock()

		logger.Infof("Reconnected to event source %s", c.url)
		return conn, failures
	}
}

func (c *Client) connect(seekInfo *ab.SeekInfo) (*connection.Connection, error) {
	certs := c.ctx.EndpointConfig().TLSClientCerts()

	conn, err := connection.New(c.url, c.connParams, certs, c.connTimeout)
	if err != nil {
		return nil, err
	}

	envelope, err := c.seekEnvelope(seekInfo)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Send(envelope); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) initialSeekInfo() *ab.SeekInfo {
	switch c.seekType {
	case seek.Oldest:
		return seek.InfoOldest()
	case seek.FromBlock:
		return seek.InfoFrom(c.fromBlock)
	default:
		return seek.InfoNewest()
	}
}

// resumeSeekInfo continues after the last block received
func (c *Client) resumeSeekInfo() *ab.SeekInfo {
	last := c.dispatcher.LastBlockNum()
	if last == math.MaxUint64 {
		return c.initialSeekInfo()
	}
	return seek.InfoFrom(last + 1)
}

func (c *Client) seekEnvelope(seekInfo *ab.SeekInfo) (*cb.Envelope, error) {
	txh, err := txn.NewHeader(c.ctx, c.channelID)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create transaction header")
	}

	opts := txn.ChannelHeaderOpts{TxnHeader: txh}
	if certs := c.ctx.EndpointConfig().TLSClientCerts(); len(certs) > 0 && len(certs[0].Certificate) > 0 {
		hash, err := cryptosuite.GetDefault().Hash(certs[0].Certificate[0], cryptosuite.GetSHA256Opts())
		if err != nil {
			return nil, errors.WithMessage(err, "failed to hash TLS client certificate")
		}
		opts.TLSCertHash = hash
	}

	channelHeader, err := txn.CreateChannelHeader(cb.HeaderType_DELIVER_SEEK_INFO, opts)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel header")
	}

	data, err := proto.Marshal(seekInfo)
	if err != nil {
		return nil, errors.Wrap(err, "marshal of seek info failed")
	}

	payload, err := txn.CreatePayload(txh, channelHeader, data)
	if err != nil {
		return nil, err
	}

	signed, err := txn.SignPayload(c.ctx, payload)
	if err != nil {
		return nil, err
	}

	return &cb.Envelope{Payload: signed.Payload, Signature: signed.Signature}, nil
}
