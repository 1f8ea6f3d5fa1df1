package viewer

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"windowcraft.ai/internal/ui/item"
)

// Conn is what the model needs from a connection.
type Conn interface {
	Events() <-chan any
	Opened(window uint64) error
	Click(window uint64, slot int, kind item.ClickKind, cursor *item.Stack) error
	Dismiss(window uint64) error
}

type windowOpenMsg struct {
	id    uint64
	title string
	width int
	slots []*item.Stack
}

type slotMsg struct {
	window uint64
	slot   int
	stack  *item.Stack
}

type cursorMsg struct{ stack *item.Stack }

type titleMsg struct {
	window uint64
	title  string
}

type windowCloseMsg struct{ id uint64 }

type statusMsg string

type disconnectedMsg struct{ err error }

// Model is the Bubble Tea model for one viewer connection.
type Model struct {
	conn Conn

	// Open window; id 0 means none.
	windowID uint64
	title    string
	width    int
	slots    []*item.Stack

	cursor   *item.Stack
	selected int

	status string
	gone   bool
}

func NewModel(conn Conn) Model {
	return Model{conn: conn, status: "waiting for a window..."}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.conn.Events()
		if !ok {
			return disconnectedMsg{}
		}
		return ev
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case windowOpenMsg:
		m.windowID = msg.id
		m.title = msg.title
		m.width = max(msg.width, 1)
		m.slots = msg.slots
		if m.selected >= len(m.slots) {
			m.selected = 0
		}
		m.status = fmt.Sprintf("window %d open", msg.id)
		if err := m.conn.Opened(msg.id); err != nil {
			m.status = err.Error()
		}
		return m, m.waitForEvent()

	case slotMsg:
		if msg.window == m.windowID {
			for len(m.slots) <= msg.slot {
				m.slots = append(m.slots, nil)
			}
			m.slots[msg.slot] = msg.stack
		}
		return m, m.waitForEvent()

	case cursorMsg:
		m.cursor = msg.stack
		return m, m.waitForEvent()

	case titleMsg:
		if msg.window == m.windowID {
			m.title = msg.title
		}
		return m, m.waitForEvent()

	case windowCloseMsg:
		if msg.id == m.windowID {
			m.windowID = 0
			m.slots = nil
			m.status = fmt.Sprintf("window %d closed", msg.id)
		}
		return m, m.waitForEvent()

	case statusMsg:
		m.status = string(msg)
		return m, m.waitForEvent()

	case disconnectedMsg:
		m.gone = true
		m.status = "disconnected"
		if msg.err != nil {
			m.status += ": " + msg.err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || (m.gone && key == "q") {
		return m, tea.Quit
	}
	if m.windowID == 0 || len(m.slots) == 0 {
		return m, nil
	}

	n := len(m.slots)
	switch key {
	case "left", "h":
		if m.selected%m.width > 0 {
			m.selected--
		}
	case "right", "l":
		if m.selected%m.width < m.width-1 && m.selected+1 < n {
			m.selected++
		}
	case "up", "k":
		if m.selected-m.width >= 0 {
			m.selected -= m.width
		}
	case "down", "j":
		if m.selected+m.width < n {
			m.selected += m.width
		}
	case "enter", " ":
		m.click(item.ClickLeft)
	case "r":
		m.click(item.ClickRight)
	case "s":
		m.click(item.ClickShiftLeft)
	case "m":
		m.click(item.ClickMiddle)
	case "q", "esc":
		id := m.windowID
		m.windowID = 0
		m.slots = nil
		m.status = fmt.Sprintf("closed window %d", id)
		if err := m.conn.Dismiss(id); err != nil {
			m.status = err.Error()
		}
	}
	return m, nil
}

func (m *Model) click(kind item.ClickKind) {
	if err := m.conn.Click(m.windowID, m.selected, kind, m.cursor); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s on slot %d", kind, m.selected)
}
