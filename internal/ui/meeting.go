package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxVisibleLines = 14

// Handlers are the operator actions the meeting view can trigger.
// All of them run on the bubbletea update loop, so they must not
// block; the session layer keeps them fire-and-forget.
type Handlers struct {
	SendChat     func(text string) error
	Admit        func(participantID string)
	ToggleMic    func() bool
	ToggleCamera func() bool
	ToggleShare  func() (bool, error)
}

// Messages sent into the running program from the session layer.
type (
	chatLineMsg struct{ sender, text string }
	pendingMsg  struct{ ids []string }
	statusMsg   struct{ text string }
	quitMsg     struct{}
)

type meetingModel struct {
	roomID  string
	selfID  string
	role    string
	teacher bool

	handlers Handlers

	input   textinput.Model
	lines   []string
	pending []string
	status  string
	errLine string

	micOn   bool
	camOn   bool
	sharing bool

	width int
}

func newMeetingModel(roomID, selfID, role string, handlers Handlers) *meetingModel {
	input := textinput.New()
	input.Placeholder = "message, or /admit /mic /cam /share /quit"
	input.CharLimit = 500
	input.Focus()

	return &meetingModel{
		roomID:   roomID,
		selfID:   selfID,
		role:     role,
		teacher:  role == "teacher",
		handlers: handlers,
		input:    input,
		status:   "connected",
		micOn:    true,
		camOn:    true,
	}
}

func (m *meetingModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *meetingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		}

	case chatLineMsg:
		sender := msg.sender
		if sender == m.selfID {
			sender = "you"
		}
		line := SenderStyle.Render(sender) + ": " + msg.text
		m.lines = append(m.lines, line)
		return m, nil

	case pendingMsg:
		m.pending = msg.ids
		return m, nil

	case statusMsg:
		m.status = msg.text
		return m, nil

	case quitMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the enter key: slash commands drive the meeting,
// anything else is chat.
func (m *meetingModel) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.errLine = ""
	if text == "" {
		return nil
	}

	if !strings.HasPrefix(text, "/") {
		if m.handlers.SendChat != nil {
			if err := m.handlers.SendChat(text); err != nil {
				m.errLine = "message not sent: " + err.Error()
			}
		}
		return nil
	}

	fields := strings.Fields(text)
	switch fields[0] {

	case "/quit":
		return tea.Quit

	case "/admit":
		if !m.teacher {
			m.errLine = "only the teacher can admit"
			return nil
		}
		if len(fields) < 2 {
			m.errLine = "usage: /admit <id>"
			return nil
		}
		if m.handlers.Admit != nil {
			m.handlers.Admit(fields[1])
		}

	case "/mic":
		if m.handlers.ToggleMic != nil {
			m.micOn = m.handlers.ToggleMic()
		}

	case "/cam":
		if m.handlers.ToggleCamera != nil {
			m.camOn = m.handlers.ToggleCamera()
		}

	case "/share":
		if m.handlers.ToggleShare != nil {
			sharing, err := m.handlers.ToggleShare()
			if err != nil {
				m.errLine = "screen share: " + err.Error()
				return nil
			}
			m.sharing = sharing
		}

	default:
		m.errLine = "unknown command " + fields[0]
	}
	return nil
}

func (m *meetingModel) View() string {
	var b strings.Builder

	header := fmt.Sprintf(" %s Room %s — %s (%s) ", IconVideo, m.roomID, m.role, m.selfID)
	b.WriteString(StatusStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render("state: "+m.status) + "  " + m.mediaBadge())
	b.WriteString("\n\n")

	if m.teacher && len(m.pending) > 0 {
		b.WriteString(PendingStyle.Render(fmt.Sprintf("Waiting for admission (%d):", len(m.pending))))
		b.WriteString("\n")
		for _, id := range m.pending {
			b.WriteString("  " + id + "  " + MutedStyle.Render("(/admit "+id+")") + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(BoldStyle.Render(IconChat + " Chat"))
	b.WriteString("\n")
	lines := m.lines
	if len(lines) > maxVisibleLines {
		lines = lines[len(lines)-maxVisibleLines:]
	}
	if len(lines) == 0 {
		b.WriteString(MutedStyle.Render("  no messages yet") + "\n")
	}
	for _, line := range lines {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errLine != "" {
		b.WriteString(WarningStyle.Render(m.errLine) + "\n")
	}
	b.WriteString(MutedStyle.Render("enter to send · esc to leave"))
	b.WriteString("\n")

	return b.String()
}

func (m *meetingModel) mediaBadge() string {
	var parts []string
	if m.micOn {
		parts = append(parts, "mic on")
	} else {
		parts = append(parts, "mic off")
	}
	if m.camOn {
		parts = append(parts, "cam on")
	} else {
		parts = append(parts, "cam off")
	}
	if m.sharing {
		parts = append(parts, "sharing screen")
	}
	return MutedStyle.Render(strings.Join(parts, " · "))
}

// Meeting runs the in-room terminal view and feeds it events from the
// session layer.
type Meeting struct {
	program *tea.Program
}

func NewMeeting(roomID, selfID, role string, handlers Handlers) *Meeting {
	model := newMeetingModel(roomID, selfID, role, handlers)
	return &Meeting{program: tea.NewProgram(model)}
}

// Run blocks until the operator leaves the room.
func (m *Meeting) Run() error {
	_, err := m.program.Run()
	return err
}

// AppendChat shows a chat line.
func (m *Meeting) AppendChat(sender, text string) {
	m.program.Send(chatLineMsg{sender: sender, text: text})
}

// SetPending replaces the teacher's pending-admission list.
func (m *Meeting) SetPending(ids []string) {
	m.program.Send(pendingMsg{ids: ids})
}

// SetStatus updates the connection-state line.
func (m *Meeting) SetStatus(text string) {
	m.program.Send(statusMsg{text: text})
}

// Quit ends the view from the session layer.
func (m *Meeting) Quit() {
	m.program.Send(quitMsg{})
}
