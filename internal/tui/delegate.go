package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/tada-board/internal/model"
)

// todoItem adapts model.Todo to list.Item.
type todoItem struct {
	model.Todo
}

func (i todoItem) FilterValue() string { return i.Title + " " + i.Description }

// todoDelegate renders one todo per line:
// "> ☑ title  Done · description"
type todoDelegate struct{}

func (d todoDelegate) Height() int                               { return 1 }
func (d todoDelegate) Spacing() int                              { return 0 }
func (d todoDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d todoDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	title := it.Title
	badge := openBadge.Render("Open")
	if it.Completed {
		box = successStyle.Render(boxChecked)
		title = doneStyle.Render(it.Title)
		badge = doneBadge.Render("Done")
	}

	line := fmt.Sprintf("%s %s  %s", box, title, badge)
	if it.Description != "" {
		line += mutedStyle.Render(" · " + it.Description)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	if width := m.Width(); width > 4 {
		line = ansi.Truncate(line, width-2, "…")
	}
	fmt.Fprintln(w, prefix+line)
}
