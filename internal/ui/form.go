package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formKind selects what the single-line entry form edits.
type formKind int

const (
	formPrefix formKind = iota
	formToken
)

// formResult is returned when the operator submits the form.
type formResult struct {
	kind  formKind
	value string
}

// entryForm is the text entry panel for menu items 1 and 4.
type entryForm struct {
	kind   formKind
	input  textinput.Model
	errMsg string
}

func newForm(kind formKind, currentPrefix string) *entryForm {
	ti := textinput.New()
	ti.Width = 40
	switch kind {
	case formPrefix:
		ti.Placeholder = currentPrefix
		ti.CharLimit = 16
	case formToken:
		ti.Placeholder = "paste the new bot token"
		ti.CharLimit = 256
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
	}
	ti.Focus()
	return &entryForm{kind: kind, input: ti}
}

// update processes a key message and returns a formResult on submit.
// Empty values are passed through; the stores decide whether to reject them.
func (f *entryForm) update(msg tea.KeyMsg) (*formResult, tea.Cmd) {
	switch msg.String() {
	case "enter":
		v := strings.TrimSpace(f.input.Value())
		if f.kind == formPrefix && strings.ContainsAny(v, " \t") {
			f.errMsg = "prefix cannot contain spaces"
			return nil, nil
		}
		return &formResult{kind: f.kind, value: v}, nil
	default:
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		f.errMsg = ""
		return nil, cmd
	}
}

func (f *entryForm) title() string {
	if f.kind == formToken {
		return "Change Token"
	}
	return "Change Prefix"
}

func (f *entryForm) view(renderPanel func(string, string, int, lipgloss.Color) string, width int) string {
	var b strings.Builder
	label := "New prefix:"
	if f.kind == formToken {
		label = "New token:"
	}
	b.WriteString(fmt.Sprintf("%s\n\n  %s\n", label, f.input.View()))
	if f.kind == formToken {
		b.WriteString("\nThe token is saved first, then the session reconnects.\n")
	}
	if f.errMsg != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		b.WriteString("\n" + errStyle.Render("Error: "+f.errMsg) + "\n")
	}
	b.WriteString("\nEnter to save, Esc to cancel")
	return renderPanel(f.title(), b.String(), width, lipgloss.Color("214"))
}
