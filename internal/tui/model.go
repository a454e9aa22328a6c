package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"elearning_go/internal/domain"
	"elearning_go/internal/inbox"
	"elearning_go/internal/messenger"
	"elearning_go/internal/render"
)

// Messenger is the part of messenger.Client the UI drives.
type Messenger interface {
	Select(ctx context.Context, id domain.ID) error
	Send(text string) error
	Close()
}

type pane int

const (
	paneList pane = iota
	paneChat
)

var (
	baseSidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginRight(1)

	baseChatStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED"))

	baseHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)
)

// Model is the bubbletea model of the messenger screen.
type Model struct {
	ctx    context.Context
	client Messenger

	items []messenger.ListItem
	// cursor follows the highlighted conversation by id across reorders.
	cursor   int
	cursorID domain.ID
	header  domain.ConversationSummary
	bubbles []messenger.Bubble
	loading bool

	state  inbox.State
	status string

	sidebarStyle lipgloss.Style
	chatStyle    lipgloss.Style
	headerStyle  lipgloss.Style

	focus    pane
	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
}

func NewModel(ctx context.Context, client Messenger) Model {
	in := textinput.New()
	in.Placeholder = "Type a message..."
	in.CharLimit = 1000
	in.Width = 50

	return Model{
		ctx:          ctx,
		client:       client,
		sidebarStyle: baseSidebarStyle,
		chatStyle:    baseChatStyle,
		headerStyle:  baseHeaderStyle,
		input:    in,
		viewport: viewport.New(60, 15),
		width:    90,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case conversationsMsg:
		m.items = msg.items
		m.syncCursor()
	case headerMsg:
		m.header = msg.conv
	case loadingMsg:
		m.loading = true
		m.bubbles = nil
		m.refreshViewport()
	case replaceMsg:
		m.loading = false
		m.bubbles = msg.bubbles
		m.refreshViewport()
	case appendMsg:
		m.bubbles = append(m.bubbles, msg.bubble)
		m.refreshViewport()
	case clearMsg:
		m.bubbles = nil
		m.header = domain.ConversationSummary{}
		m.refreshViewport()
	case stateMsg:
		m.state = msg.state
	case errMsg:
		m.status = describe(msg.err)
	}
	return m, nil
}

func (m Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "ctrl+c":
		return m, m.quitCmd()
	}

	if m.focus == paneList {
		switch k.String() {
		case "q":
			return m, m.quitCmd()
		case "up", "k":
			if m.cursor > 0 {
				m.moveCursor(m.cursor - 1)
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.moveCursor(m.cursor + 1)
			}
		case "enter", "l", "right":
			if len(m.items) == 0 {
				return m, nil
			}
			id := m.items[m.cursor].Conversation.ID
			m.focus = paneChat
			m.status = ""
			m.input.Focus()
			return m, m.selectCmd(id)
		}
		return m, nil
	}

	switch k.String() {
	case "esc":
		m.focus = paneList
		m.input.Blur()
		return m, nil
	case "enter":
		text := m.input.Value()
		m.input.Reset()
		m.status = ""
		return m, m.sendCmd(text)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(k)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// quitCmd closes the messenger off the event loop, since Close posts back
// into the program, and then quits.
func (m Model) quitCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		client.Close()
		return tea.Quit()
	}
}

func (m Model) selectCmd(id domain.ID) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		if err := client.Select(ctx, id); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.Send(text); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m *Model) resize() {
	sideW := max(m.width/3, 28)
	chatW := max(m.width-sideW-4, 20)
	h := max(m.height-2, 8)
	m.sidebarStyle = baseSidebarStyle.Width(sideW - 2).Height(h)
	m.chatStyle = baseChatStyle.Width(chatW).Height(h)
	m.headerStyle = baseHeaderStyle.Width(chatW - 2)
	m.viewport = viewport.New(chatW-2, h-5)
	m.input.Width = chatW - 6
	m.refreshViewport()
}

func (m *Model) moveCursor(i int) {
	m.cursor = i
	m.cursorID = m.items[i].Conversation.ID
}

// syncCursor puts the cursor back on the highlighted conversation after the
// list changed. A conversation that left the list clamps to the nearest row.
func (m *Model) syncCursor() {
	if len(m.items) == 0 {
		m.cursor, m.cursorID = 0, 0
		return
	}
	for i, it := range m.items {
		if it.Conversation.ID == m.cursorID {
			m.cursor = i
			return
		}
	}
	m.moveCursor(min(m.cursor, len(m.items)-1))
}

func (m *Model) refreshViewport() {
	if m.loading {
		m.viewport.SetContent(render.MutedStyle.Render("Loading..."))
		return
	}
	lines := make([]string, len(m.bubbles))
	for i, b := range m.bubbles {
		lines[i] = render.Bubble(b)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var list strings.Builder
	list.WriteString(render.TitleStyle.Render("Messages") + "\n\n")
	if len(m.items) == 0 {
		list.WriteString(render.MutedStyle.Render("No conversations yet"))
	}
	for i, it := range m.items {
		row := render.ListItem(it, m.sidebarStyle.GetWidth()-4)
		if i == m.cursor && m.focus == paneList {
			row = render.SelectedItemStyle.Render("› ") + row
		}
		list.WriteString(row + "\n")
	}

	title := m.header.Name
	if title == "" {
		title = "Select a conversation"
	}
	footer := m.input.View()
	if m.status != "" {
		footer = render.ErrorStyle.Render(m.status) + "\n" + footer
	}
	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.headerStyle.Render(title+"  "+render.MutedStyle.Render(m.state.String())),
		m.viewport.View(),
		footer,
	)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebarStyle.Render(list.String()),
		m.chatStyle.Render(chat),
	)
}

// Items exposes the rendered conversation list.
func (m Model) Items() []messenger.ListItem { return m.items }

// Bubbles exposes the rendered message pane.
func (m Model) Bubbles() []messenger.Bubble { return m.bubbles }

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrSocketNotReady):
		return "Not connected. Message not sent."
	case errors.Is(err, domain.ErrEmptyMessage):
		return "Message is empty."
	case errors.Is(err, domain.ErrNoActiveConversation):
		return "Select a conversation first."
	default:
		return err.Error()
	}
}
