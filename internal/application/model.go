// Package application is the terminal browser: a bubbletea program that
// drives the same controller and rule-builder state as the web pages.
package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/admin"
	"github.com/JonMunkholm/gridview/internal/controller"
	"github.com/JonMunkholm/gridview/internal/core"
)

// Source is one browsable view and the executor that serves it.
type Source struct {
	Def      core.ViewDefinition
	Executor core.Executor
	PageSize int
}

// Options configures the terminal browser.
type Options struct {
	Sources      []Source
	Tasks        *admin.Tasks // nil hides the ticket database menu
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

type openViewMsg struct{ src Source }

// viewChangedMsg reports that the controller of an open view settled or
// started a fetch.
type viewChangedMsg struct{ ctl *controller.Controller }

// Model is the root bubbletea model.
type Model struct {
	sources []Source
	tasks   *admin.Tasks
	timeout time.Duration
	logger  *slog.Logger

	menu   *Menu
	cursor int
	status string
	err    error
	busy   bool

	browser *browser
	width   int
	height  int
}

// New builds the model with its menu tree.
func New(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Model{
		sources: opts.Sources,
		tasks:   opts.Tasks,
		timeout: opts.FetchTimeout,
		logger:  logger,
		width:   100,
		height:  24,
	}
	m.menu = buildMenuTree(m)
	return m
}

// Run starts the program on the terminal and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	m := New(opts)
	defer m.close()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.browser != nil {
			m.browser.resize(m.width, m.height)
		}
		return m, nil

	case openViewMsg:
		m.close()
		m.status, m.err = "", nil
		m.browser = newBrowser(msg.src, m.timeout, m.logger, m.width, m.height)
		return m, m.browser.wait()

	case viewChangedMsg:
		if m.browser == nil || msg.ctl != m.browser.ctl {
			return m, nil
		}
		cmd := m.browser.wait()
		m.browser.sync()
		return m, cmd

	case admin.DoneMsg:
		m.busy = false
		m.status, m.err = string(msg), nil
		return m, nil

	case admin.ErrMsg:
		m.busy = false
		m.status, m.err = "", msg.Err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.close()
			return m, tea.Quit
		}
		if m.browser != nil {
			back, cmd := m.browser.update(msg)
			if back {
				m.close()
			}
			return m, cmd
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu, m.cursor = m.menu.Parent, 0
		}
	case "q":
		return m, tea.Quit
	case "enter":
		item := m.menu.Items[m.cursor]
		switch {
		case item.Submenu != nil:
			m.menu, m.cursor = item.Submenu, 0
		case item.Action != nil:
			if m.busy {
				return m, nil
			}
			cmd := item.Action()
			if m.menu.Title != "Browse" {
				m.busy = true
				m.status, m.err = "Working…", nil
			}
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) openAction(src Source) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg { return openViewMsg{src: src} }
	}
}

// close releases the open view, cancelling any fetch in flight.
func (m *Model) close() {
	if m.browser != nil {
		m.browser.close()
		m.browser = nil
	}
}

func (m *Model) View() string {
	if m.browser != nil {
		return m.browser.view()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.menu.Title))
	b.WriteString("\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + item.Label))
		} else {
			b.WriteString(itemStyle.Render(item.Label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(doneStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("↑/↓ move • enter select • esc back • q quit"))
	return b.String()
}
