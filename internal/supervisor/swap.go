package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/treykane/gamblebot/internal/events"
)

// TokenSaver persists a replacement token.
type TokenSaver interface {
	SaveToken(token string) error
}

// SwapController replaces the credential of a running session without
// restarting the process. The new token is persisted before the session is
// touched, so the last entered token wins even if reconnecting fails.
type SwapController struct {
	sup   *Supervisor
	creds TokenSaver
}

func NewSwapController(sup *Supervisor, creds TokenSaver) *SwapController {
	return &SwapController{sup: sup, creds: creds}
}

// Swap stops the session, logs in with token and races the reconnect
// against the swap timeout. The in-flight guard is held from before the
// token is saved until the reconnect settles. An empty token is rejected with
// ErrEmptyCredential and changes nothing. A failed reconnect is reported in
// the Result, not as an error.
func (c *SwapController) Swap(ctx context.Context, token string) (Result, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		c.sup.record(events.Event{Kind: kindSwap, EventType: events.TypeSwapRejected, Message: ErrEmptyCredential.Error()})
		return Result{}, ErrEmptyCredential
	}
	if !c.sup.acquire() {
		return Result{}, ErrAttemptInFlight
	}
	defer c.sup.release()
	if err := c.creds.SaveToken(token); err != nil {
		return Result{}, fmt.Errorf("save token: %w", err)
	}
	c.sup.record(events.Event{Kind: kindSwap, EventType: events.TypeSwapRequested})
	ack, err := c.sup.stop()
	if err != nil {
		slog.Warn("failed to stop session before swap", "error", err)
	}
	c.sup.awaitStop(ctx, ack)
	return c.sup.attempt(ctx, kindSwap, token, c.sup.opts.SwapTimeout), nil
}
