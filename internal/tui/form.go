package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// form is a column of labelled text inputs. tab/shift+tab move between
// fields, enter advances or submits on the last field, ctrl+s submits from
// anywhere and esc cancels.
type form struct {
	labels []string
	fields []textinput.Model
	focus  int
}

type formResult int

const (
	formEditing formResult = iota
	formSubmit
	formCancel
)

func newInput(placeholder string, limit, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = width
	return ti
}

func newForm(labels []string, fields []textinput.Model) *form {
	return &form{labels: labels, fields: fields}
}

// start focuses the first field
func (f *form) start() tea.Cmd {
	f.focus = 0
	return f.fields[0].Focus()
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.fields[i].Value())
}

func (f *form) move(delta int) tea.Cmd {
	f.fields[f.focus].Blur()
	n := len(f.fields)
	f.focus = (f.focus + delta + n) % n
	return f.fields[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) (formResult, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			return formCancel, nil
		case "tab", "down":
			return formEditing, f.move(1)
		case "shift+tab", "up":
			return formEditing, f.move(-1)
		case "enter":
			if f.focus == len(f.fields)-1 {
				return formSubmit, nil
			}
			return formEditing, f.move(1)
		case "ctrl+s":
			return formSubmit, nil
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return formEditing, cmd
}

func (f *form) View() string {
	var b strings.Builder
	for i, label := range f.labels {
		indicator := "  "
		style := subtitleStyle
		if i == f.focus {
			indicator = "> "
			style = labelStyle
		}
		fmt.Fprintf(&b, "%s%s\n  %s\n\n", indicator, style.Render(label), f.fields[i].View())
	}
	return b.String()
}

const formHelp = "  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel"
