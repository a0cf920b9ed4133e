package model

import "time"

// Outcome is the terminal result of one connection attempt.
type Outcome string

const (
	OutcomePending      Outcome = ""
	OutcomeConnected    Outcome = "connected"
	OutcomeDisconnected Outcome = "disconnected"
	OutcomeTimedOut     Outcome = "timed_out"
)

// SessionState mirrors the live gateway session. It is owned by the gateway
// client; the supervisor only observes transitions.
type SessionState string

const (
	SessionDisconnected SessionState = "disconnected"
	SessionConnecting   SessionState = "connecting"
	SessionConnected    SessionState = "connected"
)

// Credentials is the persisted record in credentials.json.
type Credentials struct {
	Token         string `json:"token"`
	CommandPrefix string `json:"commandPrefix"`
}

// UserTally holds per-user gamble results.
type UserTally struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Statistics is the persisted record in stats.json.
type Statistics struct {
	TotalAttempts int                  `json:"totalAttempts"`
	TotalWins     int                  `json:"totalWins"`
	TotalLosses   int                  `json:"totalLosses"`
	PerUser       map[string]UserTally `json:"perUser"`
}

// Clone returns a deep copy so callers can read it without holding a lock.
func (s Statistics) Clone() Statistics {
	out := s
	out.PerUser = make(map[string]UserTally, len(s.PerUser))
	for k, v := range s.PerUser {
		out.PerUser[k] = v
	}
	return out
}

// Status is the observable connection state rendered by the dashboard.
type Status struct {
	State     SessionState `json:"state"`
	Since     time.Time    `json:"since"`
	Reason    string       `json:"reason,omitempty"`
	AttemptID string       `json:"attempt_id,omitempty"`
}
