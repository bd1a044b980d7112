package pick

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/chatbook/smsbridge/internal/models"
	"github.com/chatbook/smsbridge/internal/phone"
	"github.com/chatbook/smsbridge/internal/selection"
)

// mode is the active view
type mode int

const (
	modeList mode = iota
	modeDetail
)

// conversationItem implements list.Item for conversations
type conversationItem struct {
	conv *models.Conversation
	sel  *selection.State
}

func (i conversationItem) Title() string {
	name := i.conv.Name
	if name == "" {
		name = phone.FormatForDisplay(i.conv.ID)
	}
	mark := "[ ]"
	if i.sel.IsConversationSelected(i.conv.ID) {
		mark = CheckedStyle.Render("[x]")
	}
	return fmt.Sprintf("%s %s", mark, name)
}

func (i conversationItem) Description() string {
	return fmt.Sprintf("%d messages • %s", len(i.conv.Messages), i.conv.DateRangeLabel())
}

func (i conversationItem) FilterValue() string {
	return i.conv.Name + " " + i.conv.ID
}

// pickModel drives conversation and message selection
type pickModel struct {
	conversations []*models.Conversation
	sel           *selection.State
	list          list.Model
	viewport      viewport.Model
	mode          mode
	width         int
	height        int
	current       *models.Conversation
	cursor        int
	doExport      bool
}

func newPickModel(conversations []*models.Conversation, sel *selection.State) pickModel {
	items := make([]list.Item, len(conversations))
	for i, c := range conversations {
		items[i] = conversationItem{conv: c, sel: sel}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = SelectedStyle
	delegate.Styles.SelectedDesc = SelectedStyle

	l := list.New(items, delegate, 80, 20)
	l.Title = "Pick Conversations"
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	return pickModel{
		conversations: conversations,
		sel:           sel,
		list:          l,
		viewport:      viewport.New(0, 0),
		mode:          modeList,
	}
}

func (m pickModel) Init() tea.Cmd {
	return nil
}

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-3)
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4

	case tea.KeyMsg:
		if m.mode == modeDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		if item, ok := m.list.SelectedItem().(conversationItem); ok {
			m.sel.ToggleConversation(item.conv.ID)
		}
		return m, nil

	case "enter":
		if item, ok := m.list.SelectedItem().(conversationItem); ok {
			m.current = item.conv
			m.cursor = len(item.conv.Messages) - 1
			m.mode = modeDetail
			m.viewport.SetContent(m.renderDetail())
			m.viewport.GotoBottom()
		}
		return m, nil

	case "e":
		if m.sel.ConversationCount() > 0 {
			m.doExport = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc", "backspace":
		// Per-message picks only take effect when some remain checked;
		// backing out with none checked keeps the whole conversation.
		m.sel.CommitConversationDetail(m.current.ID)
		m.mode = modeList
		m.current = nil
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.viewport.SetContent(m.renderDetail())
		return m, nil

	case "down", "j":
		if m.cursor < len(m.current.Messages)-1 {
			m.cursor++
		}
		m.viewport.SetContent(m.renderDetail())
		return m, nil

	case " ":
		if m.cursor >= 0 && m.cursor < len(m.current.Messages) {
			m.sel.ToggleMessage(m.current.ID, m.current.Messages[m.cursor].ID)
			m.viewport.SetContent(m.renderDetail())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m pickModel) renderDetail() string {
	var b strings.Builder
	for i, msg := range m.current.Messages {
		mark := "[ ]"
		if m.sel.IsMessageSelected(m.current.ID, msg.ID) {
			mark = CheckedStyle.Render("[x]")
		}
		stamp := DateStyle.Render(time.UnixMilli(msg.Date).Format("2006-01-02 15:04"))
		body := msg.Body
		if msg.IsMMS && body == "" {
			body = "(media)"
		}
		line := fmt.Sprintf("%s %s %s", mark, stamp, body)
		if msg.Type == models.TypeSent {
			line = fmt.Sprintf("%s %s %s", mark, stamp, SentStyle.Render(body))
		}
		if i == m.cursor {
			line = SelectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m pickModel) View() string {
	if m.mode == modeDetail {
		name := m.current.Name
		if name == "" {
			name = phone.FormatForDisplay(m.current.ID)
		}
		header := TitleStyle.Render(name)
		help := HelpStyle.Render("space: toggle message • esc: back • q: quit")
		return header + "\n" + m.viewport.View() + "\n" + help
	}

	help := HelpStyle.Render(fmt.Sprintf(
		"space: toggle • enter: messages • e: export %d selected • q: quit",
		m.sel.ConversationCount()))
	return m.list.View() + "\n" + help
}
