package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/treykane/gamblebot/internal/prompt"
)

// scriptedPrompter answers Secret calls from a fixed list.
type scriptedPrompter struct {
	answers []string
	asked   int
}

func (p *scriptedPrompter) Secret(string) (string, error) {
	if p.asked >= len(p.answers) {
		return "", prompt.ErrNoInput
	}
	a := p.answers[p.asked]
	p.asked++
	return a, nil
}

func (p *scriptedPrompter) Confirm(string) (bool, error) { return false, nil }

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	rec, ok, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected absent credential")
	}
	if rec.CommandPrefix != "!" {
		t.Fatalf("expected default prefix, got %q", rec.CommandPrefix)
	}
}

func TestLoadEmptyTokenIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"token": "  ", "commandPrefix": "?"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)
	rec, ok, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected blank token to count as absent")
	}
	if rec.CommandPrefix != "?" {
		t.Fatalf("expected stored prefix, got %q", rec.CommandPrefix)
	}
}

func TestLoadAcceptsCommentsAndTrailingCommas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	content := `{
  // rotated 2026-10-01
  "token": "abc",
  "commandPrefix": "$",
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)
	rec, ok, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rec.Token != "abc" || rec.CommandPrefix != "$" {
		t.Fatalf("unexpected record: %+v ok=%v", rec, ok)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	s := NewStore(path)
	if err := s.Save("tok", "%"); err != nil {
		t.Fatal(err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %#o", st.Mode().Perm())
	}
	other := NewStore(path)
	rec, ok, err := other.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rec.Token != "tok" || rec.CommandPrefix != "%" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestSetPrefixRejectsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := s.Save("tok", "!"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPrefix("   "); !errors.Is(err, ErrEmptyPrefix) {
		t.Fatalf("expected ErrEmptyPrefix, got %v", err)
	}
	if s.Prefix() != "!" {
		t.Fatalf("prefix changed after rejected update: %q", s.Prefix())
	}
	if err := s.SetPrefix(">>"); err != nil {
		t.Fatal(err)
	}
	rec, _, err := NewStore(s.Path()).Load()
	if err != nil {
		t.Fatal(err)
	}
	if rec.CommandPrefix != ">>" || rec.Token != "tok" {
		t.Fatalf("unexpected persisted record: %+v", rec)
	}
}

func TestPromptAndSaveLoopsUntilNonEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	p := &scriptedPrompter{answers: []string{"", "   ", "abc"}}
	tok, err := s.PromptAndSave(p)
	if err != nil {
		t.Fatal(err)
	}
	if tok != "abc" {
		t.Fatalf("expected abc, got %q", tok)
	}
	if p.asked != 3 {
		t.Fatalf("expected three prompts, got %d", p.asked)
	}
	rec, ok, err := NewStore(s.Path()).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rec.Token != "abc" {
		t.Fatalf("expected persisted token, got %+v", rec)
	}
}

func TestPromptAndSavePropagatesInputEnd(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	_, err := s.PromptAndSave(&scriptedPrompter{})
	if !errors.Is(err, prompt.ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}
