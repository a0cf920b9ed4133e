// Package events keeps an append-only journal of connection attempts.
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/model"
)

const (
	TypeAttemptStarted = "attempt_started"
	TypeConnected      = "connected"
	TypeDisconnected   = "disconnected"
	TypeTimedOut       = "timed_out"
	TypeSessionDropped = "session_dropped"
	TypeSwapRequested  = "swap_requested"
	TypeSwapRejected   = "swap_rejected"
)

// Event is one connection lifecycle record persisted to events.jsonl.
type Event struct {
	Timestamp time.Time     `json:"timestamp"`
	AttemptID string        `json:"attempt_id,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	EventType string        `json:"event_type"`
	Outcome   model.Outcome `json:"outcome,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Query controls event filtering and bounded reads.
type Query struct {
	AttemptID string
	EventType string
	Since     time.Time
	Limit     int
}

// Store provides append/read access to the local event journal.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// NewDefaultStore opens the journal at the standard events.jsonl location.
func NewDefaultStore() (*Store, error) {
	path, err := appconfig.EventsFilePath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// Append writes a single event as one JSON line.
func (s *Store) Append(evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

// Read returns events in append order, filtered by query, with optional limit.
// Malformed lines are skipped.
func (s *Store) Read(q Query) ([]Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			continue
		}
		if !matches(evt, q) {
			continue
		}
		out = append(out, evt)
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[len(out)-q.Limit:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return out, nil
}

func matches(evt Event, q Query) bool {
	if strings.TrimSpace(q.AttemptID) != "" && evt.AttemptID != q.AttemptID {
		return false
	}
	if strings.TrimSpace(q.EventType) != "" && evt.EventType != q.EventType {
		return false
	}
	if !q.Since.IsZero() && evt.Timestamp.Before(q.Since) {
		return false
	}
	return true
}
