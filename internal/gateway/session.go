// Package gateway adapts the Discord gateway client to the session surface
// the supervisor drives: Login, Start, Stop and connected/disconnected
// notifications.
//
// Login builds a fresh discordgo client for each token. Events are matched
// against the client that produced them, so callbacks from a superseded
// client (an old token, a closed connection) are dropped.
package gateway

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/treykane/gamblebot/internal/command"
	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/security"
)

var errNotLoggedIn = errors.New("start called before login")

// Intents requests guild and direct messages with their content.
const Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

// MessageHandler answers inbound command messages.
type MessageHandler interface {
	Handle(msg command.Message, botID string) (string, bool)
}

// Session is a single gateway session. It is safe for concurrent use;
// discordgo delivers events on its own goroutines.
type Session struct {
	mu             sync.Mutex
	dg             *discordgo.Session
	state          model.SessionState
	stopped        bool
	botID          string
	onConnected    []func()
	onDisconnected []func(string)
	handler        MessageHandler
	send           func(dg *discordgo.Session, channelID, content string) error
}

// New creates a session that routes messages to handler.
func New(handler MessageHandler) *Session {
	return &Session{
		state:   model.SessionDisconnected,
		handler: handler,
		send: func(dg *discordgo.Session, channelID, content string) error {
			_, err := dg.ChannelMessageSend(channelID, content)
			return err
		},
	}
}

// Login prepares a client for token. It does not touch the network.
func (s *Session) Login(token string) error {
	dg, err := discordgo.New("Bot " + strings.TrimSpace(token))
	if err != nil {
		return security.Classify("could not create gateway client", err)
	}
	dg.Identify.Intents = Intents
	dg.AddHandler(s.onReady)
	dg.AddHandler(s.onResumed)
	dg.AddHandler(s.onDisconnect)
	dg.AddHandler(s.onMessageCreate)

	s.mu.Lock()
	old := s.dg
	s.dg = dg
	s.botID = ""
	s.mu.Unlock()
	if old != nil {
		go closeClient(old)
	}
	return nil
}

// Start opens the gateway connection in the background. Progress is
// reported through the observers.
func (s *Session) Start() error {
	s.mu.Lock()
	dg := s.dg
	if dg == nil {
		s.mu.Unlock()
		return errNotLoggedIn
	}
	s.stopped = false
	s.state = model.SessionConnecting
	s.mu.Unlock()

	go func() {
		if err := dg.Open(); err != nil {
			s.fail(dg, classifyOpenError(err))
		}
	}()
	return nil
}

// Stop closes the connection without waiting for the close handshake.
// Calling it on a stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	dg := s.dg
	if dg == nil || s.stopped {
		s.state = model.SessionDisconnected
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	wasUp := s.state != model.SessionDisconnected
	s.state = model.SessionDisconnected
	fns := append([]func(string){}, s.onDisconnected...)
	s.mu.Unlock()

	go closeClient(dg)
	if wasUp {
		for _, fn := range fns {
			fn("stopped")
		}
	}
	return nil
}

func (s *Session) OnConnected(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnected = append(s.onConnected, fn)
}

func (s *Session) OnDisconnected(fn func(reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnected = append(s.onDisconnected, fn)
}

func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BotID is the bot's user id once the gateway has reported READY.
func (s *Session) BotID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.botID
}

// current reports whether dg is the live, not-stopped client.
func (s *Session) current(dg *discordgo.Session) bool {
	return dg == s.dg && !s.stopped
}

func (s *Session) markConnected(dg *discordgo.Session, botID string) {
	s.mu.Lock()
	if !s.current(dg) {
		s.mu.Unlock()
		return
	}
	if botID != "" {
		s.botID = botID
	}
	s.state = model.SessionConnected
	fns := append([]func(){}, s.onConnected...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Session) markDisconnected(dg *discordgo.Session, reason string) {
	s.mu.Lock()
	if !s.current(dg) || s.state == model.SessionDisconnected {
		s.mu.Unlock()
		return
	}
	s.state = model.SessionDisconnected
	fns := append([]func(string){}, s.onDisconnected...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(reason)
	}
}

func (s *Session) fail(dg *discordgo.Session, err error) {
	slog.Warn("gateway open failed", "error", security.DebugMessage(err))
	s.markDisconnected(dg, security.UserMessage(err, false))
}

func (s *Session) onReady(dg *discordgo.Session, r *discordgo.Ready) {
	botID := ""
	if r.User != nil {
		botID = r.User.ID
	}
	slog.Info("gateway ready", "bot_id", botID)
	s.markConnected(dg, botID)
}

func (s *Session) onResumed(dg *discordgo.Session, _ *discordgo.Resumed) {
	slog.Info("gateway session resumed")
	s.markConnected(dg, "")
}

func (s *Session) onDisconnect(dg *discordgo.Session, _ *discordgo.Disconnect) {
	s.markDisconnected(dg, "gateway connection lost")
}

func (s *Session) onMessageCreate(dg *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	s.mu.Lock()
	live := s.current(dg)
	botID := s.botID
	s.mu.Unlock()
	if !live || s.handler == nil {
		return
	}
	reply, ok := s.handler.Handle(command.Message{
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		ChannelID:  m.ChannelID,
		Content:    m.Content,
	}, botID)
	if !ok {
		return
	}
	if err := s.send(dg, m.ChannelID, reply); err != nil {
		slog.Warn("failed to send reply", "channel", m.ChannelID, "error", err)
	}
}

// closeClient runs off the caller's goroutine: discordgo holds its session
// lock for the whole handshake, so closing a client that is still opening
// would block until the handshake ends.
func closeClient(dg *discordgo.Session) {
	if err := dg.Close(); err != nil {
		slog.Debug("gateway close returned error", "error", err)
	}
}

// classifyOpenError maps gateway close codes to operator-readable reasons.
func classifyOpenError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "4004"):
		return security.Classify("authentication failed: the gateway rejected the token", err)
	case strings.Contains(msg, "4014"):
		return security.Classify("privileged intents are not enabled for this bot", err)
	default:
		return security.Classify("could not open gateway connection", err)
	}
}
