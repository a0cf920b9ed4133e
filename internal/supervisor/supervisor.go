// Package supervisor drives the gateway session through connection attempts.
//
// Each attempt creates a fresh outcome Slot, logs in, starts the session and
// races the slot against a timeout. Notifications from the session settle
// whichever slot is current, so a stale signal from an earlier attempt can
// never decide a later one. The supervisor is not re-entrant: a second
// attempt while one is in flight is refused with ErrAttemptInFlight.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/treykane/gamblebot/internal/events"
	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/security"
	"github.com/treykane/gamblebot/internal/util"
)

var (
	ErrEmptyCredential  = errors.New("token cannot be empty")
	ErrAttemptInFlight  = errors.New("a connection attempt is already in progress")
	ErrAbandoned        = errors.New("connection abandoned by operator")
	ErrRestartRequested = errors.New("new token saved; restart requested")
)

// Handle is the gateway session the supervisor controls. Login and Start
// must not block on the network; the session reports progress through the
// registered observers.
type Handle interface {
	Login(token string) error
	Start() error
	// Stop must be idempotent. The disconnected notification it causes may
	// arrive before Stop returns or later; Swap waits up to the cleanup grace
	// for it before starting the next attempt.
	Stop() error
	OnConnected(fn func())
	OnDisconnected(fn func(reason string))
	State() model.SessionState
}

// Journal receives connection lifecycle events.
type Journal interface {
	Append(evt events.Event) error
}

// Options configures the race windows.
type Options struct {
	ConnectTimeout time.Duration
	SwapTimeout    time.Duration
	CleanupGrace   time.Duration
	RedactErrors   bool
	Journal        Journal
}

func (o *Options) normalize() {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = util.DefaultConnectTimeout
	}
	if o.SwapTimeout <= 0 {
		o.SwapTimeout = util.DefaultSwapTimeout
	}
	if o.CleanupGrace < 0 {
		o.CleanupGrace = 0
	}
}

const (
	kindConnect = "connect"
	kindSwap    = "swap"
)

// Result describes how one attempt ended. Err carries a login/start or
// context failure; it never appears in the outcome itself.
type Result struct {
	AttemptID string
	Kind      string
	Outcome   model.Outcome
	Reason    string
	Err       error
	Timeout   time.Duration
	Elapsed   time.Duration
}

// OK reports whether the attempt connected.
func (r Result) OK() bool { return r.Outcome == model.OutcomeConnected }

// Message is the operator-facing summary of the attempt.
func (r Result) Message() string {
	switch r.Outcome {
	case model.OutcomeConnected:
		return fmt.Sprintf("connected in %s", r.Elapsed.Round(time.Millisecond))
	case model.OutcomeTimedOut:
		return fmt.Sprintf("timed out after %s", r.Timeout)
	default:
		return "disconnected: " + util.DefaultString(r.Reason, "no reason given")
	}
}

// Supervisor owns the outcome slot of the attempt in flight and the
// observable connection status.
type Supervisor struct {
	handle   Handle
	opts     Options
	once     sync.Once
	inFlight atomic.Bool

	mu        sync.Mutex
	slot      *Slot
	stopAck   chan struct{}
	attemptID string
	secret    string
	status    model.Status
}

// New creates a supervisor for handle.
func New(handle Handle, opts Options) *Supervisor {
	opts.normalize()
	return &Supervisor{
		handle: handle,
		opts:   opts,
		status: model.Status{State: model.SessionDisconnected, Since: time.Now()},
	}
}

// Busy reports whether an attempt is in flight.
func (s *Supervisor) Busy() bool { return s.inFlight.Load() }

// Status returns the last observed connection status.
func (s *Supervisor) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Connect runs one initial connection attempt with the connect timeout.
func (s *Supervisor) Connect(ctx context.Context, token string) Result {
	return s.run(ctx, kindConnect, token, s.opts.ConnectTimeout)
}

// Stop detaches the current attempt and stops the session, so the resulting
// disconnect is not reported as a drop. Safe to call when already stopped.
func (s *Supervisor) Stop() error {
	_, err := s.stop()
	return err
}

// stop is Stop that also returns a channel closed once the session reports
// the disconnect this stop caused. It is nil when the session was already
// down.
func (s *Supervisor) stop() (<-chan struct{}, error) {
	up := s.handle.State() != model.SessionDisconnected
	s.mu.Lock()
	s.slot = nil
	s.stopAck = nil
	var ack chan struct{}
	if up {
		ack = make(chan struct{})
		s.stopAck = ack
	}
	s.mu.Unlock()
	if err := s.handle.Stop(); err != nil {
		return nil, err
	}
	return ack, nil
}

// awaitStop waits up to the cleanup grace for ack.
func (s *Supervisor) awaitStop(ctx context.Context, ack <-chan struct{}) {
	if ack == nil || s.opts.CleanupGrace <= 0 {
		return
	}
	t := time.NewTimer(s.opts.CleanupGrace)
	defer t.Stop()
	select {
	case <-ack:
	case <-t.C:
		slog.Debug("session stop not acknowledged within grace", "grace", s.opts.CleanupGrace)
	case <-ctx.Done():
	}
}

func (s *Supervisor) register() {
	s.once.Do(func() {
		s.handle.OnConnected(s.handleConnected)
		s.handle.OnDisconnected(s.handleDisconnected)
	})
}

func (s *Supervisor) handleConnected() {
	s.mu.Lock()
	slot, id := s.slot, s.attemptID
	s.status = model.Status{State: model.SessionConnected, Since: time.Now(), AttemptID: id}
	s.mu.Unlock()
	if slot != nil && slot.Settle(model.OutcomeConnected, "") {
		slog.Debug("session connected", "attempt", id)
	}
}

func (s *Supervisor) handleDisconnected(reason string) {
	s.mu.Lock()
	slot, id := s.slot, s.attemptID
	if s.opts.RedactErrors {
		reason = security.RedactMessage(reason, s.secret)
	}
	s.status = model.Status{State: model.SessionDisconnected, Since: time.Now(), Reason: reason, AttemptID: id}
	if slot == nil && s.stopAck != nil {
		close(s.stopAck)
		s.stopAck = nil
	}
	s.mu.Unlock()
	if slot == nil {
		return
	}
	if slot.Settle(model.OutcomeDisconnected, reason) {
		return
	}
	if dropped, _ := slot.Dropped(); dropped {
		slog.Warn("session dropped after connect", "attempt", id, "reason", reason)
		s.record(events.Event{AttemptID: id, EventType: events.TypeSessionDropped, Message: reason})
	}
}

// run takes the in-flight guard and drives one attempt.
func (s *Supervisor) run(ctx context.Context, kind, token string, timeout time.Duration) Result {
	if !s.acquire() {
		return Result{
			AttemptID: uuid.NewString(),
			Kind:      kind,
			Outcome:   model.OutcomeDisconnected,
			Reason:    ErrAttemptInFlight.Error(),
			Err:       ErrAttemptInFlight,
			Timeout:   timeout,
		}
	}
	defer s.release()
	return s.attempt(ctx, kind, token, timeout)
}

func (s *Supervisor) acquire() bool { return s.inFlight.CompareAndSwap(false, true) }

func (s *Supervisor) release() { s.inFlight.Store(false) }

// attempt drives one attempt to a terminal outcome. The caller holds the
// in-flight guard. It returns within timeout plus the cleanup grace.
func (s *Supervisor) attempt(ctx context.Context, kind, token string, timeout time.Duration) Result {
	id := uuid.NewString()
	res := Result{AttemptID: id, Kind: kind, Timeout: timeout}

	start := time.Now()
	slot := NewSlot()
	s.mu.Lock()
	s.slot = slot
	s.stopAck = nil
	s.attemptID = id
	s.secret = token
	s.status = model.Status{State: model.SessionConnecting, Since: start, AttemptID: id}
	s.mu.Unlock()
	s.register()

	slog.Info("connection attempt started", "attempt", id, "kind", kind, "timeout", timeout)
	s.record(events.Event{AttemptID: id, Kind: kind, EventType: events.TypeAttemptStarted})

	finish := func(o model.Outcome, reason string, err error) Result {
		res.Outcome = o
		res.Reason = reason
		res.Err = err
		res.Elapsed = time.Since(start)
		evtType := events.TypeDisconnected
		switch o {
		case model.OutcomeConnected:
			evtType = events.TypeConnected
		case model.OutcomeTimedOut:
			evtType = events.TypeTimedOut
		}
		if err != nil {
			slog.Warn("connection attempt failed", "attempt", id, "kind", kind, "error", security.DebugMessage(err))
		} else {
			slog.Info("connection attempt finished", "attempt", id, "kind", kind, "outcome", o, "elapsed", res.Elapsed)
		}
		s.record(events.Event{AttemptID: id, Kind: kind, EventType: evtType, Outcome: o, Message: reason})
		return res
	}

	if strings.TrimSpace(token) == "" {
		s.detach(slot, ErrEmptyCredential.Error())
		return finish(model.OutcomeDisconnected, ErrEmptyCredential.Error(), ErrEmptyCredential)
	}
	if err := s.handle.Login(token); err != nil {
		reason := security.UserMessage(fmt.Errorf("login: %w", err), s.opts.RedactErrors, token)
		s.detach(slot, reason)
		return finish(model.OutcomeDisconnected, reason, err)
	}
	if err := s.handle.Start(); err != nil {
		reason := security.UserMessage(fmt.Errorf("start: %w", err), s.opts.RedactErrors, token)
		s.detach(slot, reason)
		return finish(model.OutcomeDisconnected, reason, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-slot.Done():
		o, reason := slot.Result()
		return finish(o, reason, nil)
	case <-timer.C:
		// the timer and the slot can become ready together
		if o, reason := slot.Result(); o != model.OutcomePending {
			return finish(o, reason, nil)
		}
		reason := fmt.Sprintf("no response from gateway within %s", timeout)
		s.detach(slot, reason)
		if err := s.handle.Stop(); err != nil {
			slog.Warn("failed to stop session after timeout", "attempt", id, "error", err)
		}
		s.grace(ctx)
		return finish(model.OutcomeTimedOut, reason, nil)
	case <-ctx.Done():
		s.detach(slot, "cancelled")
		if err := s.handle.Stop(); err != nil {
			slog.Warn("failed to stop session after cancel", "attempt", id, "error", err)
		}
		return finish(model.OutcomeDisconnected, "cancelled", ctx.Err())
	}
}

// detach stops slot from receiving further notifications and marks the
// status as disconnected.
func (s *Supervisor) detach(slot *Slot, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot == slot {
		s.slot = nil
	}
	s.status = model.Status{State: model.SessionDisconnected, Since: time.Now(), Reason: reason, AttemptID: s.attemptID}
}

func (s *Supervisor) grace(ctx context.Context) {
	if s.opts.CleanupGrace <= 0 {
		return
	}
	t := time.NewTimer(s.opts.CleanupGrace)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *Supervisor) record(evt events.Event) {
	if s.opts.Journal == nil {
		return
	}
	if err := s.opts.Journal.Append(evt); err != nil {
		slog.Warn("failed to append connection event", "event", evt.EventType, "error", err)
	}
}
