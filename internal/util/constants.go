// Package util provides common utility functions and constants used across the
// gamblebot application. This package is intentionally kept dependency-free
// (no imports from other internal/* packages) to serve as a shared foundation
// without introducing circular dependencies.
package util

import "time"

const (
	// AppName names the config directory and the binary.
	AppName = "gamblebot"

	// DefaultConnectTimeout bounds the initial connection race. If neither a
	// "connected" nor a "disconnected" notification arrives within this window
	// the attempt is declared timed out and the session is stopped.
	// Used by: internal/appconfig (Default) and internal/supervisor (Options).
	DefaultConnectTimeout = 20 * time.Second

	// DefaultSwapTimeout bounds the reconnect race after a live credential
	// swap. It is shorter than the initial timeout because the operator is
	// waiting at the dashboard.
	DefaultSwapTimeout = 10 * time.Second

	// DefaultCleanupGrace is how long a timed-out attempt waits after
	// stopping the session so the gateway client can tear down its
	// connection before the caller continues.
	DefaultCleanupGrace = 500 * time.Millisecond

	// DefaultRefreshSeconds is the dashboard status refresh interval used
	// when config.yaml has an invalid or missing ui.refresh_seconds value.
	DefaultRefreshSeconds = 3

	// DefaultCommandPrefix is used until the operator sets one.
	DefaultCommandPrefix = "!"
)
