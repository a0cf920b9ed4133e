// Package prompt reads operator input on the console outside the dashboard:
// token entry and yes/no confirmations during startup and recovery.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoInput is returned when the input stream ends before a line is read.
var ErrNoInput = errors.New("no operator input available")

// Prompter is the operator-interaction surface used by the credential store
// and the supervisor's retry policy.
type Prompter interface {
	// Secret reads a line without echo when attached to a terminal.
	Secret(label string) (string, error)
	// Confirm asks a yes/no question. Anything other than y/yes is "no".
	Confirm(question string) (bool, error)
}

// Console is a Prompter over a reader/writer pair. When the reader is a
// terminal file, Secret disables echo via golang.org/x/term.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewConsole creates a console prompter on stdin/stderr.
func NewConsole() *Console {
	return NewConsoleFrom(os.Stdin, os.Stderr)
}

// NewConsoleFrom creates a console prompter on arbitrary streams. If in is an
// *os.File attached to a terminal, secrets are read without echo.
func NewConsoleFrom(in io.Reader, out io.Writer) *Console {
	c := &Console{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			c.fd = fd
			c.tty = true
		}
	}
	return c
}

func (c *Console) Secret(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if c.tty {
		b, err := term.ReadPassword(c.fd)
		fmt.Fprintln(c.out)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return c.readLine()
}

func (c *Console) Confirm(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	ans, err := c.readLine()
	if err != nil {
		return false, err
	}
	return IsYes(ans), nil
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if strings.TrimSpace(line) != "" {
				return strings.TrimSpace(line), nil
			}
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// IsYes reports whether an answer counts as confirmation.
func IsYes(ans string) bool {
	switch strings.ToLower(strings.TrimSpace(ans)) {
	case "y", "yes":
		return true
	}
	return false
}
