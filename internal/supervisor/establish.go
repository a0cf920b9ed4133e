package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/prompt"
)

// CredentialSource loads the stored token and prompts for a new one.
type CredentialSource interface {
	Load() (model.Credentials, bool, error)
	PromptAndSave(p prompt.Prompter) (string, error)
}

// Establish brings the session up at startup. It prompts for a token when
// none is stored, then connects. On failure the operator may enter a new
// token: with RestartInProcess the state machine starts over, with
// RestartExit it returns ErrRestartRequested so the process can exit 0 and
// be relaunched. Declining returns ErrAbandoned.
func (s *Supervisor) Establish(ctx context.Context, creds CredentialSource, p prompt.Prompter, mode appconfig.RestartMode, out io.Writer) (Result, error) {
	rec, ok, err := creds.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load credentials: %w", err)
	}
	token := rec.Token
	if !ok {
		fmt.Fprintln(out, "No bot token configured.")
		token, err = creds.PromptAndSave(p)
		if err != nil {
			return Result{}, fmt.Errorf("read token: %w", err)
		}
	}

	for {
		fmt.Fprintf(out, "Connecting (timeout %s)...\n", s.opts.ConnectTimeout)
		res := s.Connect(ctx, token)
		if res.OK() {
			fmt.Fprintln(out, "Connected.")
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		// A timed-out attempt has already stopped the session.
		if res.Outcome != model.OutcomeTimedOut {
			if err := s.Stop(); err != nil {
				slog.Warn("failed to stop session after failed attempt", "attempt", res.AttemptID, "error", err)
			}
		}
		fmt.Fprintf(out, "Connection failed: %s\n", res.Message())

		retry, err := p.Confirm("Retry with a new token?")
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrAbandoned, err)
		}
		if !retry {
			return res, ErrAbandoned
		}
		token, err = creds.PromptAndSave(p)
		if err != nil {
			return res, fmt.Errorf("read token: %w", err)
		}
		if mode == appconfig.RestartExit {
			fmt.Fprintln(out, "Token saved. Restarting.")
			return res, ErrRestartRequested
		}
	}
}
