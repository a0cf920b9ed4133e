// Package main is the entry point for the gamblebot binary.
//
// gamblebot keeps a bot session open on a chat gateway, answers the "gamble"
// command, and gives the operator a dashboard (Bubble Tea) to change the
// command prefix, inspect or reset statistics, and swap the bot token
// without restarting. Subcommands (built with Cobra) inspect the stored
// records without connecting.
//
// Usage:
//
//	gamblebot               # connect, then open the dashboard
//	gamblebot --headless    # connect and run until SIGINT/SIGTERM
//	gamblebot stats         # print gamble statistics
//	gamblebot events        # print the connection journal
//	gamblebot doctor        # check config directory health
//	gamblebot token set     # store a token without connecting
//
// Exit status is 0 on a clean exit or when a new token was saved for an
// external relaunch, and 1 when the connection was abandoned or failed.
package main

import (
	"fmt"
	"os"

	"github.com/treykane/gamblebot/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	code := cli.ExitCode(err)
	if err != nil && code != 0 {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
