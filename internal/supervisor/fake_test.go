package supervisor

import (
	"sync"
	"time"

	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/prompt"
)

// fakeHandle is a scriptable Handle. onStart runs synchronously inside
// Start and usually launches a goroutine that fires notifications later,
// the way a real gateway client reports progress asynchronously.
type fakeHandle struct {
	mu           sync.Mutex
	connected    []func()
	disconnected []func(string)
	state        model.SessionState
	logins       []string
	starts       int
	stops        int

	loginErr         error
	startErr         error
	disconnectOnStop bool
	onLogin          func(token string)
	onStart          func(h *fakeHandle, token string)

	// stopLag moves the stop's disconnected notification onto a goroutine
	// when disconnectOnStop is set.
	stopLag time.Duration
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{state: model.SessionDisconnected}
}

func (f *fakeHandle) Login(token string) error {
	if f.onLogin != nil {
		f.onLogin(token)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, token)
	return f.loginErr
}

func (f *fakeHandle) Start() error {
	f.mu.Lock()
	f.starts++
	err := f.startErr
	token := ""
	if len(f.logins) > 0 {
		token = f.logins[len(f.logins)-1]
	}
	if err == nil {
		f.state = model.SessionConnecting
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if f.onStart != nil {
		f.onStart(f, token)
	}
	return nil
}

func (f *fakeHandle) Stop() error {
	f.mu.Lock()
	f.stops++
	wasUp := f.state != model.SessionDisconnected
	f.state = model.SessionDisconnected
	fire := wasUp && f.disconnectOnStop
	lag := f.stopLag
	f.mu.Unlock()
	switch {
	case fire && lag > 0:
		after(lag, func() { f.fireDisconnected("old session closed") })
	case fire:
		f.fireDisconnected("stopped by operator")
	}
	return nil
}

func (f *fakeHandle) OnConnected(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, fn)
}

func (f *fakeHandle) OnDisconnected(fn func(string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = append(f.disconnected, fn)
}

func (f *fakeHandle) State() model.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeHandle) fireConnected() {
	f.mu.Lock()
	f.state = model.SessionConnected
	fns := append([]func(){}, f.connected...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeHandle) fireDisconnected(reason string) {
	f.mu.Lock()
	f.state = model.SessionDisconnected
	fns := append([]func(string){}, f.disconnected...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(reason)
	}
}

func (f *fakeHandle) counts() (logins []string, starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logins...), f.starts, f.stops
}

// scriptedPrompter answers prompts from fixed lists.
type scriptedPrompter struct {
	secrets  []string
	confirms []bool
}

func (p *scriptedPrompter) Secret(string) (string, error) {
	if len(p.secrets) == 0 {
		return "", prompt.ErrNoInput
	}
	s := p.secrets[0]
	p.secrets = p.secrets[1:]
	return s, nil
}

func (p *scriptedPrompter) Confirm(string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, prompt.ErrNoInput
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}
