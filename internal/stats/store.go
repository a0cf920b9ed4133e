// Package stats persists gamble counters in stats.json.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tidwall/jsonc"
	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/model"
)

// Store keeps the statistics in memory and writes them after every mutation.
type Store struct {
	mu   sync.Mutex
	path string
	st   model.Statistics
}

// UserRow is one per-user line in the statistics view.
type UserRow struct {
	UserID string `json:"user_id"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

func NewStore(path string) *Store {
	return &Store{path: path, st: empty()}
}

// NewDefaultStore creates a store at the standard stats.json location.
func NewDefaultStore() (*Store, error) {
	path, err := appconfig.StatsFilePath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

func empty() model.Statistics {
	return model.Statistics{PerUser: map[string]model.UserTally{}}
}

// Load reads stats.json, returning zeroed statistics if it is absent.
func (s *Store) Load() (model.Statistics, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.st = empty()
			s.mu.Unlock()
			return empty(), nil
		}
		return model.Statistics{}, err
	}
	st := empty()
	if err := json.Unmarshal(jsonc.ToJSON(b), &st); err != nil {
		return model.Statistics{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if st.PerUser == nil {
		st.PerUser = map[string]model.UserTally{}
	}
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
	return st.Clone(), nil
}

// Save replaces the statistics and writes them.
func (s *Store) Save(st model.Statistics) error {
	st = st.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(st); err != nil {
		return err
	}
	s.st = st
	return nil
}

// Record counts one gamble for userID and persists the result.
func (s *Store) Record(userID string, won bool) (model.UserTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.st.Clone()
	tally := next.PerUser[userID]
	next.TotalAttempts++
	if won {
		next.TotalWins++
		tally.Wins++
	} else {
		next.TotalLosses++
		tally.Losses++
	}
	next.PerUser[userID] = tally
	if err := s.write(next); err != nil {
		return model.UserTally{}, err
	}
	s.st = next
	return tally, nil
}

// Reset clears all counters and persists the empty record.
func (s *Store) Reset() error {
	return s.Save(empty())
}

// Snapshot returns a copy of the current statistics.
func (s *Store) Snapshot() model.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// Rows returns per-user tallies sorted by wins (desc), then user id.
func Rows(st model.Statistics) []UserRow {
	out := make([]UserRow, 0, len(st.PerUser))
	for id, t := range st.PerUser {
		out = append(out, UserRow{UserID: id, Wins: t.Wins, Losses: t.Losses})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

func (s *Store) write(st model.Statistics) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
