package supervisor

import (
	"sync"

	"github.com/treykane/gamblebot/internal/model"
)

// Slot is a single-assignment outcome cell for one connection attempt. The
// first settlement wins. A "disconnected" arriving after "connected" does not
// change the outcome but is remembered as a drop.
type Slot struct {
	mu      sync.Mutex
	outcome model.Outcome
	reason  string
	dropped bool
	drop    string
	done    chan struct{}
}

// NewSlot returns an unsettled slot.
func NewSlot() *Slot {
	return &Slot{done: make(chan struct{})}
}

// Settle records o if the slot is still pending and reports whether it did.
func (s *Slot) Settle(o model.Outcome, reason string) bool {
	if o == model.OutcomePending {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != model.OutcomePending {
		if s.outcome == model.OutcomeConnected && o == model.OutcomeDisconnected && !s.dropped {
			s.dropped = true
			s.drop = reason
		}
		return false
	}
	s.outcome = o
	s.reason = reason
	close(s.done)
	return true
}

// Done is closed once the slot is settled.
func (s *Slot) Done() <-chan struct{} { return s.done }

// Result returns the settled outcome and its reason, or OutcomePending.
func (s *Slot) Result() (model.Outcome, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.reason
}

// Dropped reports whether the session disconnected after this attempt
// had already settled as connected, and the reason given.
func (s *Slot) Dropped() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped, s.drop
}
