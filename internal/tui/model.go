package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/apiclient"
)

// ChatPort is the TUI-facing subset of the API client.
type ChatPort interface {
	Ask(question string, debug bool) (apiclient.ChatResponse, error)
}

type message struct {
	role  string // "you" or "agent"
	text  string
	debug *apiclient.DebugInfo
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	client   ChatPort
	input    textinput.Model
	viewport viewport.Model
	messages []message
	status   string
	debug    bool
	ready    bool
}

// New creates a new chat model. status is shown in the footer until the
// first question.
func New(client ChatPort, status string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{client: client, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header, status, query frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.messages = append(m.messages, message{role: "you", text: q})
			resp, err := m.client.Ask(q, m.debug)
			if err != nil {
				m.status = "Error: " + err.Error()
				m.messages = append(m.messages, message{role: "agent", text: "(no response)"})
			} else {
				m.status = "Ready."
				m.messages = append(m.messages, message{role: "agent", text: resp.Answer, debug: resp.DebugInfo})
			}
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, nil
		case "tab":
			m.debug = !m.debug
			if m.debug {
				m.status = "Retrieval details on."
			} else {
				m.status = "Retrieval details off."
			}
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("docqa — document Q&A")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status + "  (tab: toggle retrieval details, ctrl+c: quit)")
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.messages) == 0 {
		return "No questions yet."
	}
	var b strings.Builder
	for _, msg := range m.messages {
		if msg.role == "you" {
			b.WriteString(youStyle.Render("You: ") + msg.text + "\n")
		} else {
			b.WriteString(agentStyle.Render("Agent: ") + msg.text + "\n")
			if msg.debug != nil {
				b.WriteString(debugStyle.Render(renderDebug(msg.debug)) + "\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderDebug(d *apiclient.DebugInfo) string {
	return fmt.Sprintf("  retrieved=%d relevant=%d rounds=%d scores=[%s]",
		d.TotalRetrieved, d.RelevantCount, d.RoundsUsed, strings.Join(d.ChunkScores, " "))
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	youStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	agentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	debugStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
