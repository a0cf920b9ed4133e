package gateway

import (
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/treykane/gamblebot/internal/command"
	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/security"
)

type echoHandler struct {
	mu    sync.Mutex
	seen  []command.Message
	botID string
}

func (h *echoHandler) Handle(msg command.Message, botID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, msg)
	h.botID = botID
	return "echo: " + msg.Content, true
}

type sent struct{ channel, content string }

func newTestSession(t *testing.T, h MessageHandler) (*Session, *[]sent) {
	t.Helper()
	s := New(h)
	var out []sent
	s.send = func(_ *discordgo.Session, channelID, content string) error {
		out = append(out, sent{channelID, content})
		return nil
	}
	if err := s.Login("token"); err != nil {
		t.Fatal(err)
	}
	return s, &out
}

func (s *Session) client() *discordgo.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dg
}

func TestStartBeforeLogin(t *testing.T) {
	s := New(nil)
	if err := s.Start(); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("expected errNotLoggedIn, got %v", err)
	}
}

func TestLoginSetsIntentsAndToken(t *testing.T) {
	s, _ := newTestSession(t, nil)
	dg := s.client()
	if dg.Token != "Bot token" {
		t.Fatalf("unexpected token header: %q", dg.Token)
	}
	if dg.Identify.Intents != Intents {
		t.Fatalf("unexpected intents: %d", dg.Identify.Intents)
	}
}

func TestReadyNotifiesConnected(t *testing.T) {
	s, _ := newTestSession(t, nil)
	var connected int
	s.OnConnected(func() { connected++ })

	s.onReady(s.client(), &discordgo.Ready{User: &discordgo.User{ID: "42"}})
	if connected != 1 {
		t.Fatalf("expected one connected notification, got %d", connected)
	}
	if s.State() != model.SessionConnected || s.BotID() != "42" {
		t.Fatalf("unexpected state %s bot %q", s.State(), s.BotID())
	}
}

func TestStaleClientEventsIgnored(t *testing.T) {
	s, _ := newTestSession(t, nil)
	old := s.client()
	if err := s.Login("other"); err != nil {
		t.Fatal(err)
	}
	var connected, disconnected int
	s.OnConnected(func() { connected++ })
	s.OnDisconnected(func(string) { disconnected++ })

	s.onReady(old, &discordgo.Ready{User: &discordgo.User{ID: "1"}})
	s.onDisconnect(old, &discordgo.Disconnect{})
	if connected != 0 || disconnected != 0 {
		t.Fatalf("stale events leaked: connected=%d disconnected=%d", connected, disconnected)
	}
}

func TestDropThenResume(t *testing.T) {
	s, _ := newTestSession(t, nil)
	var reasons []string
	var connected int
	s.OnConnected(func() { connected++ })
	s.OnDisconnected(func(r string) { reasons = append(reasons, r) })
	dg := s.client()

	s.onReady(dg, &discordgo.Ready{User: &discordgo.User{ID: "42"}})
	s.onDisconnect(dg, &discordgo.Disconnect{})
	s.onDisconnect(dg, &discordgo.Disconnect{})
	if len(reasons) != 1 || reasons[0] != "gateway connection lost" {
		t.Fatalf("expected a single drop notification, got %v", reasons)
	}
	s.onResumed(dg, &discordgo.Resumed{})
	if connected != 2 || s.State() != model.SessionConnected {
		t.Fatalf("expected resume to reconnect, connected=%d state=%s", connected, s.State())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t, nil)
	var reasons []string
	s.OnDisconnected(func(r string) { reasons = append(reasons, r) })
	dg := s.client()
	s.onReady(dg, &discordgo.Ready{})

	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second stop errored: %v", err)
	}
	if len(reasons) != 1 || reasons[0] != "stopped" {
		t.Fatalf("expected one stop notification, got %v", reasons)
	}
	s.onReady(dg, &discordgo.Ready{})
	if s.State() != model.SessionDisconnected {
		t.Fatal("events after stop must be ignored")
	}
	if err := New(nil).Stop(); err != nil {
		t.Fatalf("stop before login errored: %v", err)
	}
}

func TestMessageRouting(t *testing.T) {
	h := &echoHandler{}
	s, out := newTestSession(t, h)
	dg := s.client()
	s.onReady(dg, &discordgo.Ready{User: &discordgo.User{ID: "42"}})

	s.onMessageCreate(dg, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c1",
		Content:   "!gamble",
		Author:    &discordgo.User{ID: "u1", Username: "ada"},
	}})
	s.onMessageCreate(dg, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "c1",
		Content:   "!gamble",
		Author:    &discordgo.User{ID: "b1", Bot: true},
	}})

	if len(h.seen) != 1 || h.seen[0].AuthorID != "u1" || h.botID != "42" {
		t.Fatalf("unexpected routed messages: %+v bot=%q", h.seen, h.botID)
	}
	if len(*out) != 1 || (*out)[0] != (sent{"c1", "echo: !gamble"}) {
		t.Fatalf("unexpected replies: %+v", *out)
	}
}

func TestClassifyOpenError(t *testing.T) {
	err := classifyOpenError(errors.New("websocket: close 4004: Authentication failed."))
	if got := security.UserMessage(err, false); got != "authentication failed: the gateway rejected the token" {
		t.Fatalf("unexpected message: %q", got)
	}
	err = classifyOpenError(errors.New("dial tcp: i/o timeout"))
	if got := security.UserMessage(err, false); got != "could not open gateway connection" {
		t.Fatalf("unexpected message: %q", got)
	}
}
