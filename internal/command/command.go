// Package command parses inbound chat messages and runs the gamble command.
package command

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/treykane/gamblebot/internal/model"
)

// Gamble is the only recognized command.
const Gamble = "gamble"

// Message is an inbound chat message, independent of the gateway library.
type Message struct {
	AuthorID   string
	AuthorName string
	ChannelID  string
	Content    string
}

// Recorder persists one gamble result and returns the user's new tally.
type Recorder interface {
	Record(userID string, won bool) (model.UserTally, error)
}

// Handler answers command messages.
type Handler struct {
	prefix func() string
	rec    Recorder
	flip   func() bool
}

// NewHandler builds a handler. prefix is read on every message so a prefix
// change from the dashboard applies immediately. A nil flip uses a fair coin.
func NewHandler(prefix func() string, rec Recorder, flip func() bool) *Handler {
	if flip == nil {
		flip = func() bool { return rand.Intn(2) == 1 }
	}
	return &Handler{prefix: prefix, rec: rec, flip: flip}
}

// Parse extracts the command token from content. A command is either
// "<prefix><cmd>" or a mention of the bot ("<@id>" or "<@!id>") followed by
// "<cmd>". The token is lower-cased.
func Parse(content, prefix, botID string) (string, bool) {
	content = strings.TrimSpace(content)
	var rest string
	switch {
	case botID != "" && strings.HasPrefix(content, "<@"+botID+">"):
		rest = content[len("<@"+botID+">"):]
	case botID != "" && strings.HasPrefix(content, "<@!"+botID+">"):
		rest = content[len("<@!"+botID+">"):]
	case prefix != "" && strings.HasPrefix(content, prefix):
		rest = content[len(prefix):]
	default:
		return "", false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

// Handle returns the reply for msg, or false when msg is not a command this
// bot answers.
func (h *Handler) Handle(msg Message, botID string) (string, bool) {
	cmd, ok := Parse(msg.Content, h.prefix(), botID)
	if !ok || cmd != Gamble {
		return "", false
	}
	won := h.flip()
	tally, err := h.rec.Record(msg.AuthorID, won)
	if err != nil {
		slog.Error("failed to record gamble", "user", msg.AuthorID, "error", err)
		return "Something went wrong recording that gamble. Try again later.", true
	}
	slog.Debug("gamble", "user", msg.AuthorID, "won", won)
	result := "lost"
	if won {
		result = "won"
	}
	return fmt.Sprintf("<@%s> flipped a coin and %s! (wins: %d, losses: %d)", msg.AuthorID, result, tally.Wins, tally.Losses), true
}
