// Package credentials persists the gateway token and command prefix in
// credentials.json and prompts the operator when no token is stored.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/prompt"
	"github.com/treykane/gamblebot/internal/util"
)

var (
	ErrEmptyToken  = errors.New("token cannot be empty")
	ErrEmptyPrefix = errors.New("command prefix cannot be empty")
)

// Store holds the current credential record and mirrors it to disk on every
// change. It is safe for concurrent use; the gateway's message handler reads
// the prefix while the dashboard may be changing it.
type Store struct {
	mu   sync.RWMutex
	path string
	rec  model.Credentials
}

// NewStore creates a store backed by path. Call Load before use.
func NewStore(path string) *Store {
	return &Store{path: path, rec: model.Credentials{CommandPrefix: util.DefaultCommandPrefix}}
}

// NewDefaultStore creates a store at the standard credentials.json location.
func NewDefaultStore() (*Store, error) {
	path, err := appconfig.CredentialsFilePath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads credentials.json. The boolean is false when the file is missing
// or its token is empty, which callers treat as "prompt the operator".
// Comments and trailing commas are accepted so the file can be hand-edited.
func (s *Store) Load() (model.Credentials, bool, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.Current(), false, nil
		}
		return model.Credentials{}, false, err
	}
	var rec model.Credentials
	if err := json.Unmarshal(jsonc.ToJSON(b), &rec); err != nil {
		return model.Credentials{}, false, fmt.Errorf("parse %s: %w", s.path, err)
	}
	rec.Token = strings.TrimSpace(rec.Token)
	if strings.TrimSpace(rec.CommandPrefix) == "" {
		rec.CommandPrefix = util.DefaultCommandPrefix
	}
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return rec, rec.Token != "", nil
}

// Current returns the in-memory record.
func (s *Store) Current() model.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec
}

// Token returns the in-memory token.
func (s *Store) Token() string { return s.Current().Token }

// Prefix returns the in-memory command prefix.
func (s *Store) Prefix() string { return s.Current().CommandPrefix }

// Save replaces both fields and writes the record synchronously.
func (s *Store) Save(token, prefix string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = util.DefaultCommandPrefix
	}
	rec := model.Credentials{Token: token, CommandPrefix: prefix}
	if err := s.write(rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

// SaveToken replaces the token and keeps the current prefix.
func (s *Store) SaveToken(token string) error {
	return s.Save(token, s.Prefix())
}

// SetPrefix replaces the command prefix. Empty updates are rejected.
func (s *Store) SetPrefix(prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ErrEmptyPrefix
	}
	rec := s.Current()
	rec.CommandPrefix = prefix
	if err := s.write(rec); err != nil {
		return err
	}
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

// PromptAndSave asks the operator for a token until a non-empty one is
// entered, persists it, and returns it.
func (s *Store) PromptAndSave(p prompt.Prompter) (string, error) {
	for {
		tok, err := p.Secret("Bot token: ")
		if err != nil {
			return "", err
		}
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if err := s.SaveToken(tok); err != nil {
			return "", err
		}
		return tok, nil
	}
}

func (s *Store) write(rec model.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
