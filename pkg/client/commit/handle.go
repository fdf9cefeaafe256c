/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package commit

import (
	reqContext "context"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	cb "github.com/hyperledger/fabric-protos-go/common"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/errors/status"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/fab"
	"github.com/fabric-orchestrator/orchestrator/pkg/fabsdk/metrics"
	"github.com/fabric-orchestrator/orchestrator/pkg/util/concurrent/futurevalue"
)

// ErrCancelled is returned by a handle that was cancelled before the commit
// notification arrived
var ErrCancelled = errors.New("commit wait cancelled")

// Outcome is the commit result of a transaction
type Outcome struct {
	TransactionID  fab.TransactionID
	ChannelID      string
	Valid          bool
	ValidationCode pb.TxValidationCode
	BlockNumber    uint64
	Block          *cb.BlockHeader
	Signature      []byte
	// SourceURL is the event source that delivered the notification
	SourceURL string
}

// Handle is a pending commit. It is resolved by the first notification
// for its transaction, by a timeout or by Cancel, whichever comes first.
// The registration is released once the commit timeout of the submission
// elapses, even if nobody waits on the handle.
type Handle struct {
	txID      fab.TransactionID
	channelID string
	orderer   string
	timeout   time.Duration
	submitted time.Time
	clock     clock.Clock
	metrics   *metrics.ClientMetrics

	eventService fab.EventService
	reg          fab.Registration

	future     *futurevalue.Value
	cancelled  chan struct{}
	cancelOnce sync.Once
}

// TransactionID returns the id of the submitted transaction
func (h *Handle) TransactionID() fab.TransactionID {
	return h.txID
}

// Orderer returns the URL of the orderer that accepted the transaction
func (h *Handle) Orderer() string {
	return h.orderer
}

// Done returns a channel closed once the handle is resolved
func (h *Handle) Done() <-chan struct{} {
	return h.future.Done()
}

// Await blocks until the commit outcome is known or timeout elapses. A
// timeout of zero uses the commit timeout of the submission, which also
// bounds longer timeouts. An expired wait returns a CommitTimeout error and
// releases the registration; the transaction may still commit later.
//
// A transaction committed as invalid yields its Outcome together with an
// EventServerStatus error carrying the validation code.
func (h *Handle) Await(timeout time.Duration) (*Outcome, error) {
	if timeout <= 0 {
		timeout = h.timeout
	}

	timer := h.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.future.Done():
	case <-timer.C():
		h.expire("after " + timeout.String())
	}
	return h.result()
}

// Wait is Await bounded by ctx instead of a timeout. An expired deadline
// is reported as a CommitTimeout error.
func (h *Handle) Wait(ctx reqContext.Context) (*Outcome, error) {
	select {
	case <-h.future.Done():
	case <-ctx.Done():
		if ctx.Err() == reqContext.DeadlineExceeded {
			h.expire("before the context deadline")
		} else {
			h.future.Set(nil, errors.Wrap(ErrCancelled, ctx.Err().Error()))
			h.Cancel()
		}
	}
	return h.result()
}

// Cancel abandons the wait and releases the registration. Pending and later
// calls of Await return ErrCancelled unless the handle was already
// resolved.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		close(h.cancelled)
	})
}

func (h *Handle) expire(when string) {
	err := status.NewWithContext(status.ClientStatus, status.CommitTimeout,
		status.Context{TxID: string(h.txID)},
		"no commit notification for transaction %s on channel %s %s", h.txID, h.channelID, when)
	if h.future.Set(nil, err) {
		h.metrics.Commits.With("channel", h.channelID, "outcome", metrics.OutcomeTimeout).Add(1)
		logger.Warnf("Commit of transaction %s timed out", h.txID)
	}
	h.Cancel()
}

func (h *Handle) result() (*Outcome, error) {
	value, err := h.future.Get()
	outcome, _ := value.(*Outcome)
	return outcome, err
}

// listen resolves the handle with the notification of the transaction and
// releases the registration. The handle expires when timer fires.
func (h *Handle) listen(notifier <-chan *fab.TxStatusEvent, timer clock.Timer) {
	defer h.eventService.Unregister(h.reg)
	defer timer.Stop()

	select {
	case event, ok := <-notifier:
		if !ok {
			h.future.Set(nil, errors.Errorf("registration of transaction %s was closed by the event service", h.txID))
			return
		}
		outcome, err := h.evaluate(event)
		if h.future.Set(outcome, err) && outcome != nil {
			label := metrics.OutcomeValid
			if !outcome.Valid {
				label = metrics.OutcomeInvalid
			}
			h.metrics.Commits.With("channel", h.channelID, "outcome", label).Add(1)
			h.metrics.CommitDuration.With("channel", h.channelID).Observe(h.clock.Since(h.submitted).Seconds())
		}
	case <-timer.C():
		h.expire("after " + h.timeout.String())
	case <-h.cancelled:
		h.future.Set(nil, ErrCancelled)
	}
}

// evaluate turns a notification into an Outcome. A notification without a
// signature or a block header is a defect of the event source and is
// rejected.
func (h *Handle) evaluate(event *fab.TxStatusEvent) (*Outcome, error) {
	if event == nil || len(event.Signature) == 0 || event.Block == nil {
		return nil, status.NewWithContext(status.EventServerStatus, status.InvalidCommitNotification,
			status.Context{Node: sourceOf(event), TxID: string(h.txID)},
			"commit notification for transaction %s lacks a signature or block header", h.txID)
	}

	outcome := &Outcome{
		TransactionID:  h.txID,
		ChannelID:      h.channelID,
		Valid:          event.TxValidationCode == pb.TxValidationCode_VALID,
		ValidationCode: event.TxValidationCode,
		BlockNumber:    event.BlockNumber,
		Block:          event.Block,
		Signature:      event.Signature,
		SourceURL:      event.SourceURL,
	}
	if !outcome.Valid {
		return outcome, status.New(status.EventServerStatus, int32(event.TxValidationCode),
			"received invalid transaction", []interface{}{status.Context{Node: event.SourceURL, TxID: string(h.txID)}})
	}
	logger.Debugf("Transaction %s committed in block %d", h.txID, event.BlockNumber)
	return outcome, nil
}

func sourceOf(event *fab.TxStatusEvent) string {
	if event == nil {
		return ""
	}
	return event.SourceURL
}
