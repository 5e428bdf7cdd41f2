// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge implements cross-chain message passing between two
// independent ledgers. A sender deposits value and a call payload on the
// source chain; a relayer later proves the send on the destination chain
// and triggers execution there. Delivery is idempotent, failed deliveries
// are retriable, and permanently failed messages can be recalled on the
// source chain so escrowed value returns to the original sender.
package bridge

import (
	"bytes"
	"fmt"
	"sync"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

// Config configures a bridge instance for one chain
type Config struct {
	// ChainID identifies the chain this instance runs on
	ChainID ids.ID

	// Address is the bridge's own account
	Address common.Address

	// Admin may pause and unpause the bridge
	Admin common.Address

	// CoreAddress is the chain's designated system account. Messages
	// targeting it are treated as no-op deliveries.
	CoreAddress common.Address

	// DB backs the bridge's durable state
	DB dbm.DB

	Custody Custody
	Signals SignalService
	Ledger  NativeLedger

	Log log.Logger
}

// Bridge is the per-chain message passing endpoint. Operations on one
// instance are serialized by a mutex, but the mutex is released around
// destination invocations and recall callbacks: for the message being
// operated on, the persisted status or recall flag is the reentrancy
// guard, so a reentrant call fails its status check instead of
// deadlocking.
type Bridge struct {
	chainID     ids.ID
	address     common.Address
	admin       common.Address
	coreAddress common.Address

	custody Custody
	signals SignalService
	ledger  NativeLedger
	log     log.Logger

	state *store

	mu       sync.Mutex
	paused   bool
	remotes  map[ids.ID]common.Address
	registry map[common.Address]any
	callCtx  CallContext
	outbox   []*Message
}

// New creates a bridge instance
func New(cfg Config) (*Bridge, error) {
	switch {
	case cfg.ChainID == (ids.ID{}):
		return nil, fmt.Errorf("%w: chain id not set", ErrInvalidChainID)
	case cfg.Address == (common.Address{}):
		return nil, fmt.Errorf("bridge address not set")
	case cfg.DB == nil:
		return nil, fmt.Errorf("db not set")
	case cfg.Custody == nil:
		return nil, fmt.Errorf("custody not set")
	case cfg.Signals == nil:
		return nil, fmt.Errorf("signal service not set")
	case cfg.Ledger == nil:
		return nil, fmt.Errorf("ledger not set")
	}

	logger := cfg.Log
	if logger == nil {
		logger = log.NoLog{}
	}

	return &Bridge{
		chainID:     cfg.ChainID,
		address:     cfg.Address,
		admin:       cfg.Admin,
		coreAddress: cfg.CoreAddress,
		custody:     cfg.Custody,
		signals:     cfg.Signals,
		ledger:      cfg.Ledger,
		log:         logger,
		state:       newStore(cfg.DB),
		remotes:     make(map[ids.ID]common.Address),
		registry:    make(map[common.Address]any),
		callCtx:     sentinelCallContext,
	}, nil
}

// ChainID returns the chain this instance runs on
func (b *Bridge) ChainID() ids.ID {
	return b.chainID
}

// Address returns the bridge's own account
func (b *Bridge) Address() common.Address {
	return b.address
}

// RegisterChain enables a destination chain and records the counterpart
// bridge address used to attribute its signals
func (b *Bridge) RegisterChain(chainID ids.ID, bridgeAddr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remotes[chainID] = bridgeAddr
}

// Register binds a local account to an object receiving bridge callbacks.
// Objects implementing Recipient execute message invocations; objects
// implementing RecallableSender receive recall callbacks.
func (b *Bridge) Register(addr common.Address, handler any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registry[addr] = handler
}

// Pause suspends all state-mutating operations
func (b *Bridge) Pause(caller common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if caller != b.admin {
		return ErrPermissionDenied
	}
	b.paused = true
	b.log.Info("bridge paused", log.Stringer("chainID", b.chainID))
	return nil
}

// Unpause resumes operations
func (b *Bridge) Unpause(caller common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if caller != b.admin {
		return ErrPermissionDenied
	}
	b.paused = false
	b.log.Info("bridge unpaused", log.Stringer("chainID", b.chainID))
	return nil
}

// Paused reports whether the kill switch is engaged
func (b *Bridge) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// CallContext returns the context of the invocation currently executing,
// or the sentinel when no invocation is in flight
func (b *Bridge) CallContext() CallContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callCtx
}

// SendMessage validates and records an outbound message. The attached
// value must exactly equal msg.Value + msg.Fee. The finalized message,
// with its assigned id, sender and source chain, is returned along with
// its hash and queued for relay.
func (b *Bridge) SendMessage(caller common.Address, value *uint256.Int, msg *Message) (ids.ID, *Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return ids.ID{}, nil, ErrPaused
	}
	if msg.SrcOwner == (common.Address{}) || msg.DestOwner == (common.Address{}) {
		return ids.ID{}, nil, ErrInvalidOwner
	}
	if _, ok := b.remotes[msg.DestChainID]; !ok || msg.DestChainID == b.chainID {
		return ids.ID{}, nil, ErrInvalidDestination
	}

	m := *msg
	m.normalize()
	m.Data = bytes.Clone(msg.Data)

	total, overflow := new(uint256.Int).AddOverflow(m.Value, m.Fee)
	if overflow {
		return ids.ID{}, nil, fmt.Errorf("%w: value plus fee overflows", ErrInvalidValue)
	}
	if value == nil || !value.Eq(total) {
		return ids.ID{}, nil, fmt.Errorf("%w: attached value must equal value plus fee", ErrInvalidValue)
	}

	// The id advances even if the send aborts below; ids are never reused.
	id, err := b.state.nextMessageID()
	if err != nil {
		return ids.ID{}, nil, err
	}
	m.ID = id
	m.From = caller
	m.SrcChainID = b.chainID

	if err := m.Verify(); err != nil {
		return ids.ID{}, nil, err
	}
	msgHash := m.Hash()

	if err := b.custody.Lock(caller, total); err != nil {
		return ids.ID{}, nil, fmt.Errorf("failed to lock custody: %w", err)
	}
	if err := b.signals.RecordSignal(b.address, msgHash); err != nil {
		return ids.ID{}, nil, fmt.Errorf("failed to record send signal: %w", err)
	}

	b.outbox = append(b.outbox, &m)

	b.log.Info("message sent",
		log.Stringer("msgHash", msgHash),
		log.Uint64("id", m.ID),
		log.Stringer("destChainID", m.DestChainID),
	)
	return msgHash, &m, nil
}

// ProcessMessage executes receipt of a message on its destination chain.
// The inclusion proof must show the send signal was recorded by the
// source bridge. A failed destination call is not an error: the message
// becomes retriable and its value returns to custody.
func (b *Bridge) ProcessMessage(caller common.Address, gasBudget uint64, msg *Message, proof []byte) error {
	m := *msg
	m.normalize()
	msgHash := m.Hash()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return ErrPaused
	}
	if m.DestChainID != b.chainID {
		return ErrInvalidChainID
	}
	// A zero gas limit means only the destination owner may deliver, so a
	// relayer can never force an underfunded execution.
	if m.GasLimit == 0 && caller != m.DestOwner {
		return ErrPermissionDenied
	}

	status, err := b.state.status(msgHash)
	if err != nil {
		return err
	}
	if status != StatusNew {
		return fmt.Errorf("%w: status is %s, expected %s", ErrStatusMismatch, status, StatusNew)
	}

	// Non-owners are bounded by the stored gas limit; the owner spends
	// its own budget.
	gas := m.GasLimit
	if caller == m.DestOwner {
		gas = gasBudget
	}
	noOp := b.isNoOpTarget(m.To)
	if !noOp && gas == 0 {
		return ErrInvalidGasLimit
	}

	srcBridge, ok := b.remotes[m.SrcChainID]
	if !ok {
		return fmt.Errorf("%w: unknown source chain %s", ErrProofInvalid, m.SrcChainID)
	}
	if err := b.signals.VerifyInclusion(m.SrcChainID, srcBridge, msgHash, proof); err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}

	total, overflow := new(uint256.Int).AddOverflow(m.Value, m.Fee)
	if overflow {
		return fmt.Errorf("%w: value plus fee overflows", ErrInvalidValue)
	}
	if err := b.custody.Release(b.address, total); err != nil {
		return fmt.Errorf("failed to release custody: %w", err)
	}

	refund := new(uint256.Int)
	if noOp {
		// Targets that cannot meaningfully receive a call succeed
		// trivially; the full value is earmarked for refund.
		refund.Set(m.Value)
		if err := b.updateStatus(msgHash, StatusDone); err != nil {
			return err
		}
	} else {
		// The status row leaves NEW before the untrusted call so a
		// reentrant delivery of the same message fails its guard.
		if err := b.updateStatus(msgHash, StatusDone); err != nil {
			return err
		}
		if invokeErr := b.invoke(&m, msgHash, gas); invokeErr != nil {
			if err := b.updateStatus(msgHash, StatusRetriable); err != nil {
				return err
			}
			// The call did not consume the value; it returns to custody
			// for a future retry.
			if err := b.custody.Lock(b.address, m.Value); err != nil {
				return fmt.Errorf("failed to restore custody: %w", err)
			}
			b.log.Info("message invocation failed",
				log.Stringer("msgHash", msgHash),
				log.Err(invokeErr),
			)
		}
	}

	if err := b.settle(caller, m.DestOwner, m.Fee, refund); err != nil {
		return err
	}

	b.log.Info("message processed",
		log.Stringer("msgHash", msgHash),
		log.Stringer("caller", caller),
	)
	return nil
}

// RetryMessage re-invokes a retriable message with the caller's full gas
// budget. Asserting isLastAttempt on another failure makes the message
// terminally failed and records the failure signal, which is the only
// path into the failed status.
func (b *Bridge) RetryMessage(caller common.Address, gasBudget uint64, msg *Message, isLastAttempt bool) error {
	m := *msg
	m.normalize()
	msgHash := m.Hash()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return ErrPaused
	}
	if m.DestChainID != b.chainID {
		return ErrInvalidChainID
	}
	// Only the interested party may give up on a message or retry a
	// zero-gas delivery.
	if (m.GasLimit == 0 || isLastAttempt) && caller != m.DestOwner {
		return ErrPermissionDenied
	}

	status, err := b.state.status(msgHash)
	if err != nil {
		return err
	}
	if status != StatusRetriable {
		return fmt.Errorf("%w: status is %s, expected %s", ErrStatusMismatch, status, StatusRetriable)
	}
	if gasBudget == 0 {
		return ErrInvalidGasLimit
	}

	if err := b.custody.Release(b.address, m.Value); err != nil {
		return fmt.Errorf("failed to release custody: %w", err)
	}
	if err := b.updateStatus(msgHash, StatusDone); err != nil {
		return err
	}

	if invokeErr := b.invoke(&m, msgHash, gasBudget); invokeErr != nil {
		next := StatusRetriable
		if isLastAttempt {
			next = StatusFailed
		}
		if err := b.updateStatus(msgHash, next); err != nil {
			return err
		}
		if err := b.custody.Lock(b.address, m.Value); err != nil {
			return fmt.Errorf("failed to restore custody: %w", err)
		}
		b.log.Info("message retry failed",
			log.Stringer("msgHash", msgHash),
			log.Stringer("status", next),
			log.Err(invokeErr),
		)
	}
	return nil
}

// RecallMessage unwinds a permanently failed message on its source chain.
// The proof must show the failure signal was recorded by the destination
// bridge. The escrowed value returns to the registered sender's recall
// callback when it exposes one, otherwise directly to the source owner.
// The fee stays locked; it was forfeited to the delivery attempt.
func (b *Bridge) RecallMessage(msg *Message, proof []byte) error {
	m := *msg
	m.normalize()
	msgHash := m.Hash()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.paused {
		return ErrPaused
	}
	if m.SrcChainID != b.chainID {
		return ErrInvalidChainID
	}

	recalled, err := b.state.isRecalled(msgHash)
	if err != nil {
		return err
	}
	if recalled {
		return ErrAlreadyRecalled
	}

	destBridge, ok := b.remotes[m.DestChainID]
	if !ok {
		return fmt.Errorf("%w: unknown destination chain %s", ErrNotFailed, m.DestChainID)
	}
	if err := b.signals.VerifyInclusion(m.DestChainID, destBridge, FailureSignal(msgHash), proof); err != nil {
		return fmt.Errorf("%w: %v", ErrNotFailed, err)
	}

	// The flag is set before any release or callback so that repeated or
	// reentrant recall can never double-release.
	if err := b.state.setRecalled(msgHash); err != nil {
		return err
	}
	if err := b.custody.Release(b.address, m.Value); err != nil {
		return fmt.Errorf("failed to release custody: %w", err)
	}

	if sender, ok := b.registry[m.From].(RecallableSender); ok {
		if err := b.ledger.Transfer(b.address, m.From, m.Value); err != nil {
			return fmt.Errorf("failed to return value: %w", err)
		}
		b.mu.Unlock()
		callbackErr := callRecallable(sender, &m, msgHash)
		b.mu.Lock()
		if callbackErr != nil {
			// The value is already with the sender; the callback outcome
			// cannot unwind the recall.
			b.log.Warn("recall callback failed",
				log.Stringer("msgHash", msgHash),
				log.Err(callbackErr),
			)
		}
	} else if err := b.ledger.Transfer(b.address, m.SrcOwner, m.Value); err != nil {
		return fmt.Errorf("failed to return value: %w", err)
	}

	b.log.Info("message recalled",
		log.Stringer("msgHash", msgHash),
		log.Stringer("srcOwner", m.SrcOwner),
	)
	return nil
}

// invoke runs the destination call with the context slot assigned. The
// mutex is released for the duration of the call; the slot is restored to
// the sentinel on every exit path. Callers must hold b.mu.
func (b *Bridge) invoke(m *Message, msgHash ids.ID, gas uint64) error {
	ctx := CallContext{
		MsgHash:    msgHash,
		From:       m.From,
		SrcChainID: m.SrcChainID,
	}
	b.callCtx = ctx
	target := b.registry[m.To]
	b.mu.Unlock()

	err := b.call(target, ctx, m, gas)

	b.mu.Lock()
	b.callCtx = sentinelCallContext
	return err
}

// call executes the destination invocation and, once it has succeeded,
// settles the forwarded value on the target. A panicking recipient is
// treated as a failed call.
func (b *Bridge) call(target any, ctx CallContext, m *Message, gas uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invocation panicked: %v", r)
		}
	}()

	if recipient, ok := target.(Recipient); ok {
		if err := recipient.OnMessageInvocation(ctx, m.Data, m.Value, gas); err != nil {
			return err
		}
	}
	return b.ledger.Transfer(b.address, m.To, m.Value)
}

func callRecallable(sender RecallableSender, m *Message, msgHash ids.ID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recall callback panicked: %v", r)
		}
	}()
	return sender.OnMessageRecalled(m, msgHash, m.Value)
}

// settle pays the relayer fee and any earmarked refund. A caller that is
// also the refund recipient receives both in one transfer.
func (b *Bridge) settle(caller, refundTo common.Address, fee, refund *uint256.Int) error {
	if caller == refundTo {
		payout, overflow := new(uint256.Int).AddOverflow(fee, refund)
		if overflow {
			return fmt.Errorf("%w: fee plus refund overflows", ErrInvalidValue)
		}
		return b.payOut(caller, payout)
	}
	if err := b.payOut(caller, fee); err != nil {
		return err
	}
	return b.payOut(refundTo, refund)
}

func (b *Bridge) payOut(to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := b.ledger.Transfer(b.address, to, amount); err != nil {
		return fmt.Errorf("failed to pay out: %w", err)
	}
	return nil
}

// updateStatus persists a status transition. Writing the current status
// again is a no-op, so repeated transitions never emit duplicate events
// or signals. A transition into the failed status records the failure
// signal that makes the failure provable on the source chain.
func (b *Bridge) updateStatus(msgHash ids.ID, status Status) error {
	current, err := b.state.status(msgHash)
	if err != nil {
		return err
	}
	if current == status {
		return nil
	}
	if err := b.state.setStatus(msgHash, status); err != nil {
		return err
	}
	if status == StatusFailed {
		if err := b.signals.RecordSignal(b.address, FailureSignal(msgHash)); err != nil {
			return fmt.Errorf("failed to record failure signal: %w", err)
		}
	}
	b.log.Debug("message status changed",
		log.Stringer("msgHash", msgHash),
		log.Stringer("status", status),
	)
	return nil
}

// isNoOpTarget reports whether the address cannot meaningfully receive an
// arbitrary call
func (b *Bridge) isNoOpTarget(to common.Address) bool {
	return to == (common.Address{}) ||
		to == b.address ||
		to == b.custody.Address() ||
		(b.coreAddress != (common.Address{}) && to == b.coreAddress)
}

// MessageStatus returns the stored delivery status for a message hash
func (b *Bridge) MessageStatus(msgHash ids.ID) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.status(msgHash)
}

// IsMessageRecalled reports whether the recall flag is set
func (b *Bridge) IsMessageRecalled(msgHash ids.ID) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.isRecalled(msgHash)
}

// NextMessageID returns the id the next send will be assigned
func (b *Bridge) NextMessageID() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.peekMessageID()
}

// IsMessageSent reports whether the message was sent from this chain.
// The check consults only the local signal record, never a foreign
// chain's.
func (b *Bridge) IsMessageSent(msg *Message) bool {
	m := *msg
	m.normalize()
	if m.SrcChainID != b.chainID {
		return false
	}
	return b.signals.HasSignal(b.address, m.Hash())
}

// IsMessageReceived reports whether the send signal is provable on this
// chain, meaning the message may be processed here
func (b *Bridge) IsMessageReceived(msg *Message, proof []byte) bool {
	m := *msg
	m.normalize()
	if m.DestChainID != b.chainID {
		return false
	}
	b.mu.Lock()
	srcBridge, ok := b.remotes[m.SrcChainID]
	b.mu.Unlock()
	if !ok {
		return false
	}
	return b.signals.VerifyInclusion(m.SrcChainID, srcBridge, m.Hash(), proof) == nil
}

// IsMessageFailed reports whether the failure signal is provable on this
// chain, meaning the message may be recalled here
func (b *Bridge) IsMessageFailed(msg *Message, proof []byte) bool {
	m := *msg
	m.normalize()
	if m.SrcChainID != b.chainID {
		return false
	}
	b.mu.Lock()
	destBridge, ok := b.remotes[m.DestChainID]
	b.mu.Unlock()
	if !ok {
		return false
	}
	return b.signals.VerifyInclusion(m.DestChainID, destBridge, FailureSignal(m.Hash()), proof) == nil
}

// PendingMessages returns a copy of the messages sent from this chain
// that have not been handed to a relayer yet
func (b *Bridge) PendingMessages() []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := make([]*Message, len(b.outbox))
	copy(msgs, b.outbox)
	return msgs
}

// ClearPendingMessages empties the outbox
func (b *Bridge) ClearPendingMessages() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outbox = b.outbox[:0]
}
