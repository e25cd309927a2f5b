// Package tui is the interactive todo board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada-board/internal/board"
	"github.com/Makepad-fr/tada-board/internal/model"
	"github.com/Makepad-fr/tada-board/internal/ui"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeSearch
)

// Results of background requests.
type (
	loadedMsg    struct{ err error }
	submittedMsg struct {
		todo model.Todo
		err  error
	}
	committedMsg struct {
		id      int64
		removed bool
		err     error
	}
)

// Model is the Bubble Tea model of the board. Network calls run as
// commands; the board applies optimistic changes before they are sent.
type Model struct {
	ctx   context.Context
	board *board.Board
	keys  keyMap

	list   list.Model
	spin   spinner.Model
	title  textinput.Model
	desc   textarea.Model
	search textinput.Model

	mode       mode
	descFocus  bool
	loading    bool
	submitting bool
	flash      string

	width, height int
}

// New builds the board model. Call Init (or run it in a program) to load.
func New(ctx context.Context, b *board.Board) Model {
	keys := defaultKeys()

	l := list.New(nil, todoDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.SetShowHelp(true)
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.short

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "e.g. send the report"
	ti.CharLimit = 200

	ta := textarea.New()
	ta.Placeholder = "Optional: context or links"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)

	si := textinput.New()
	si.Prompt = "/ "
	si.Placeholder = "search title or description"

	m := Model{
		ctx:    ctx,
		board:  b,
		keys:   keys,
		list:   l,
		spin:   sp,
		title:  ti,
		desc:   ta,
		search: si,
		// Load starts right away.
		loading: true,
		width:   80,
		height:  24,
	}
	m.resize()
	return m
}

// Run starts the board full screen and blocks until the user quits.
func Run(ctx context.Context, b *board.Board, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, b), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.spin.Tick)
}

func (m Model) loadCmd() tea.Cmd {
	ctx, b := m.ctx, m.board
	return func() tea.Msg { return loadedMsg{err: b.Load(ctx)} }
}

func (m Model) submitCmd() tea.Cmd {
	ctx, b := m.ctx, m.board
	title, desc := m.title.Value(), m.desc.Value()
	return func() tea.Msg {
		t, err := b.Submit(ctx, title, desc)
		return submittedMsg{todo: t, err: err}
	}
}

func (m Model) commitCmd(p *board.Pending, removed bool) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return committedMsg{id: p.ID(), removed: removed, err: p.Commit(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case loadedMsg:
		m.loading = false
		if msg.err == nil {
			m.flash = fmt.Sprintf("loaded %d todos", len(m.board.Items()))
		}
		cmd := m.refresh()
		return m, cmd

	case submittedMsg:
		m.submitting = false
		if msg.err == nil {
			m.title.Reset()
			m.desc.Reset()
			m.leaveAdd()
			m.flash = "added " + msg.todo.Title
		}
		cmd := m.refresh()
		return m, cmd

	case committedMsg:
		// Failures show up in the error banner.
		if msg.err == nil {
			verb := "saved"
			if msg.removed {
				verb = "removed"
			}
			m.flash = fmt.Sprintf("%s #%d", verb, msg.id)
		}
		cmd := m.refresh()
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Clear):
		if m.board.Filter() != "" {
			m.board.SetFilter("")
			m.search.Reset()
			cmd := m.refresh()
			return m, cmd
		}
		m.board.ClearErr()
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.loadCmd()

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.descFocus = false
		m.desc.Blur()
		m.resize()
		cmd := m.title.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.board.Filter())
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Toggle):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		p, err := m.board.StageUpdate(it.ID, model.Patch{Completed: model.Ptr(!it.Completed)})
		refresh := m.refresh()
		if err != nil {
			return m, refresh
		}
		return m, tea.Batch(refresh, m.commitCmd(p, false))

	case key.Matches(msg, m.keys.Delete):
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		p, err := m.board.StageRemove(it.ID)
		refresh := m.refresh()
		if err != nil {
			return m, refresh
		}
		return m, tea.Batch(refresh, m.commitCmd(p, true))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.leaveAdd()
		return m, nil
	case "tab", "shift+tab":
		m.descFocus = !m.descFocus
		var cmd tea.Cmd
		if m.descFocus {
			m.title.Blur()
			cmd = m.desc.Focus()
		} else {
			m.desc.Blur()
			cmd = m.title.Focus()
		}
		return m, cmd
	case "ctrl+s":
		return m.submit()
	case "enter":
		if !m.descFocus {
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.descFocus {
		m.desc, cmd = m.desc.Update(msg)
	} else {
		m.title, cmd = m.title.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	return m, m.submitCmd()
}

func (m *Model) leaveAdd() {
	m.mode = modeBrowse
	m.descFocus = false
	m.title.Blur()
	m.desc.Blur()
	m.resize()
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.search.Reset()
		m.search.Blur()
		m.board.SetFilter("")
		cmd := m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.board.SetFilter(m.search.Value())
	refresh := m.refresh()
	return m, tea.Batch(cmd, refresh)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.Todo, true
}

// refresh rebuilds the list from the board's filtered view.
func (m *Model) refresh() tea.Cmd {
	todos := m.board.Filtered()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, todoItem{t})
	}
	return m.list.SetItems(items)
}

func (m *Model) resize() {
	chrome := 8
	if m.mode == modeAdd {
		chrome += m.desc.Height() + 5
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	m.title.Width = m.width - 10
	m.desc.SetWidth(m.width - 8)
}

func (m Model) View() string {
	var b strings.Builder

	open, done := m.board.Counts()
	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %d\n",
		titleStyle.Render("Todos"),
		pendingStyle.Render("open"), open,
		successStyle.Render("done"), done,
		accentStyle.Render("total"), open+done,
	)
	status := mutedStyle.Render(ui.ProgressBar(done, open+done, 24))
	switch {
	case m.loading:
		status += "  " + m.spin.View() + " refreshing…"
	case m.submitting:
		status += "  " + m.spin.View() + " saving…"
	}
	b.WriteString(status + "\n")

	if err := m.board.Err(); err != "" {
		b.WriteString(bannerStyle.Render(err) + "\n")
	}
	if m.mode == modeSearch {
		b.WriteString(m.search.View() + "\n")
	} else if f := m.board.Filter(); f != "" {
		b.WriteString(mutedStyle.Render("filter: "+f+"  (esc to clear)") + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading && len(m.board.Items()) == 0:
		b.WriteString(mutedStyle.Render("Loading todos…"))
	case len(m.list.Items()) == 0:
		b.WriteString(mutedStyle.Render("No todos found."))
	default:
		b.WriteString(m.list.View())
	}

	if m.mode == modeAdd {
		b.WriteString("\n" + m.addForm())
	}
	if m.flash != "" {
		b.WriteString("\n" + successStyle.Render(m.flash))
	}
	return panelStyle.Render(b.String())
}

func (m Model) addForm() string {
	label := func(s string, focused bool) string {
		if focused {
			return accentStyle.Render(s)
		}
		return mutedStyle.Render(s)
	}
	hint := mutedStyle.Render("title required · tab switch · enter/ctrl+s save · esc cancel")
	if m.submitting {
		hint = mutedStyle.Render("saving…")
	}
	form := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("New todo")+"  "+hint,
		label("Title", !m.descFocus),
		m.title.View(),
		label("Description", m.descFocus),
		m.desc.View(),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Render(form)
}
