// Package tui is the interactive tree view: a bubbletea program that renders
// the selection engine and forwards key presses to it.
package tui

import (
	"errors"
	"fmt"

	"selectree/pkg/profile"
	"selectree/pkg/selection"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeSaveProfile
	modeLoadProfile
)

// changedMsg is delivered when the engine signals a state change.
type changedMsg struct{}

// waitForChange bridges the engine's change channel into the program.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// Model is the bubbletea model for the tree view.
type Model struct {
	engine   *selection.Engine
	profiles profile.Store
	logger   *zap.Logger

	rows     []Row
	expanded map[string]bool
	cursor   int
	offset   int
	width    int
	height   int

	mode      mode
	input     textinput.Model
	status    string
	statusErr bool
	confirmed bool
}

// New creates the model. profiles may be nil, which disables save and load.
func New(engine *selection.Engine, profiles profile.Store, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ti := textinput.New()
	ti.CharLimit = 256

	m := Model{
		engine:   engine,
		profiles: profiles,
		logger:   logger,
		expanded: make(map[string]bool),
		input:    ti,
		width:    80,
		height:   24,
	}
	m.rebuild()
	return m
}

// Confirmed reports whether the user accepted the selection with 'c'.
func (m Model) Confirmed() bool {
	return m.confirmed
}

// Rows returns the visible rows.
func (m Model) Rows() []Row {
	return m.rows
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.engine.Changes())
}

func (m *Model) rebuild() {
	m.rows = BuildRows(m.engine, m.expanded, m.engine.Query() != "")
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

// listHeight is the number of rows available for the tree.
func (m Model) listHeight() int {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) scroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m *Model) setStatus(msg string, err error) {
	m.status, m.statusErr = msg, err != nil
	if err != nil {
		m.status = fmt.Sprintf("%s: %v", msg, err)
		m.logger.Warn(msg, zap.Error(err))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.rebuild()
		return m, waitForChange(m.engine.Changes())

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 12
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) current() (Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "c":
		m.confirmed = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.scroll()

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.scroll()

	case "pgup":
		m.cursor -= m.listHeight()
		if m.cursor < 0 {
			m.cursor = 0
		}
		m.scroll()

	case "pgdown":
		m.cursor += m.listHeight()
		if m.cursor > len(m.rows)-1 {
			m.cursor = len(m.rows) - 1
		}
		m.scroll()

	case "enter", "right", "l":
		if row, ok := m.current(); ok && row.Item.Node.IsDir() {
			if msg.String() == "enter" {
				m.expanded[row.Item.Node.Path] = !row.Expanded
			} else {
				m.expanded[row.Item.Node.Path] = true
			}
			m.rebuild()
		}

	case "left", "h":
		if row, ok := m.current(); ok {
			if row.Item.Node.IsDir() && row.Expanded {
				delete(m.expanded, row.Item.Node.Path)
			} else {
				m.cursorToParent(row)
			}
			m.rebuild()
		}

	case " ":
		if row, ok := m.current(); ok {
			m.engine.Toggle(row.Item.Node)
			m.rebuild()
		}

	case "a":
		m.engine.SelectAll()
		m.rebuild()
		m.setStatus("Selected all", nil)

	case "n":
		m.engine.UncheckAll()
		m.rebuild()
		m.setStatus("Cleared selection", nil)

	case "r":
		m.engine.Refresh()
		m.rebuild()
		m.setStatus("Refreshed", nil)

	case "/":
		return m.startInput(modeSearch, "/ ", m.engine.Query())

	case "esc":
		if m.engine.Query() != "" {
			m.engine.SetQuery("")
			m.rebuild()
		}

	case "s":
		if m.profiles == nil {
			m.setStatus("No profile store configured", nil)
			break
		}
		return m.startInput(modeSaveProfile, "Save profile as: ", "")

	case "o":
		if m.profiles == nil {
			m.setStatus("No profile store configured", nil)
			break
		}
		return m.startInput(modeLoadProfile, "Load profile: ", "")
	}
	return m, nil
}

func (m *Model) cursorToParent(row Row) {
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].Depth < row.Depth {
			m.cursor = i
			return
		}
	}
}

func (m Model) startInput(md mode, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeSearch {
			m.engine.SetQuery("")
			m.rebuild()
		}
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case "enter":
		value := m.input.Value()
		md := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		m.submit(md, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		m.engine.SetQuery(m.input.Value())
		m.cursor = 0
		m.rebuild()
	}
	return m, cmd
}

func (m *Model) submit(md mode, value string) {
	switch md {
	case modeSearch:
		m.engine.SetQuery(value)
		m.rebuild()

	case modeSaveProfile:
		p, err := profile.Capture(value, m.engine)
		if err == nil {
			err = m.profiles.Save(p)
		}
		if err != nil {
			m.setStatus("Save failed", err)
			return
		}
		m.setStatus(fmt.Sprintf("Saved profile %q (%d paths)", p.Name, len(p.Paths)), nil)

	case modeLoadProfile:
		p, err := m.profiles.Load(value)
		if errors.Is(err, profile.ErrNotFound) {
			m.setStatus(fmt.Sprintf("No profile named %q", value), nil)
			return
		}
		if err != nil {
			m.setStatus("Load failed", err)
			return
		}
		profile.Apply(m.engine, p)
		m.rebuild()
		m.setStatus(fmt.Sprintf("Loaded profile %q", p.Name), nil)
	}
}
