// Package tui provides the terminal user interface for Conclave. The inbox
// is the human side of the coordination layer: pending approval requests and
// checkpoints are listed, decided, and annotated here.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmallek/conclave/internal/coord"
	"github.com/jmallek/conclave/pkg/models"
)

// inputMode says what the text input at the bottom of the inbox collects.
type inputMode int

const (
	inputNone inputMode = iota
	inputRejectReason
	inputFeedback
	inputDecisionFeedback
)

// itemKind distinguishes the two entry types in the combined list.
type itemKind int

const (
	itemApproval itemKind = iota
	itemCheckpoint
)

// inboxItem is one row in the combined pending list.
type inboxItem struct {
	kind       itemKind
	id         string
	title      string
	detail     string
	status     string
	actionable bool
}

// tickMsg drives the periodic refresh.
type tickMsg time.Time

// InboxModel is the bubbletea model for the pending-decisions inbox.
type InboxModel struct {
	coordinator *coord.Coordinator

	items  []inboxItem
	cursor int

	mode   inputMode
	input  textinput.Model
	status string

	width   int
	height  int
	refresh time.Duration

	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	itemStyle     lipgloss.Style
	detailStyle   lipgloss.Style
	statusStyle   lipgloss.Style
	promptStyle   lipgloss.Style
}

// NewInbox creates an inbox over the coordinator's pending work.
func NewInbox(coordinator *coord.Coordinator, refresh time.Duration) *InboxModel {
	if refresh <= 0 {
		refresh = time.Second
	}

	input := textinput.New()
	input.CharLimit = 280
	input.Width = 60

	m := &InboxModel{
		coordinator: coordinator,
		input:       input,
		width:       80,
		height:      24,
		refresh:     refresh,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 2),
		selectedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		itemStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		detailStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		promptStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
	}
	m.refreshItems()
	return m
}

// Init starts the refresh ticker.
func (m *InboxModel) Init() tea.Cmd {
	return m.tick()
}

// tick schedules the next refresh.
func (m *InboxModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refreshItems rebuilds the combined list from the coordinator.
func (m *InboxModel) refreshItems() {
	var items []inboxItem

	for _, req := range m.coordinator.Approvals().Pending() {
		items = append(items, inboxItem{
			kind:       itemApproval,
			id:         req.ID,
			title:      req.Title,
			detail:     fmt.Sprintf("approval from %s: %s", req.RequestingAgent, req.Description),
			status:     string(req.Status),
			actionable: true,
		})
	}
	for _, cp := range m.coordinator.Checkpoints().Pending() {
		items = append(items, inboxItem{
			kind:   itemCheckpoint,
			id:     cp.ID,
			title:  cp.Title,
			detail: fmt.Sprintf("%s checkpoint: %s", cp.Type, cp.Description),
			status: string(cp.Status),
			// revision_needed waits on the agent, not the human
			actionable: cp.Status != models.CheckpointRevisionNeeded,
		})
	}

	m.items = items
	if m.cursor >= len(items) {
		m.cursor = max(0, len(items)-1)
	}
}

// selected returns the item under the cursor.
func (m *InboxModel) selected() (inboxItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return inboxItem{}, false
	}
	return m.items[m.cursor], true
}

// Update handles input and refresh ticks.
func (m *InboxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.mode == inputNone {
			m.refreshItems()
		}
		return m, m.tick()

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

// updateBrowse handles keys in list-navigation mode.
func (m *InboxModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "y", "a":
		item, ok := m.selected()
		if !ok || !item.actionable {
			return m, nil
		}
		switch item.kind {
		case itemApproval:
			if _, err := m.coordinator.RecordDecision(item.id, models.DecisionApprove, ""); err != nil {
				m.status = fmt.Sprintf("approve failed: %v", err)
			} else {
				m.status = fmt.Sprintf("approved %q", item.title)
			}
		case itemCheckpoint:
			if err := m.coordinator.ApproveCheckpoint(item.id, models.SourceUser, ""); err != nil {
				m.status = fmt.Sprintf("approve failed: %v", err)
			} else {
				m.status = fmt.Sprintf("approved %q", item.title)
			}
		}
		m.refreshItems()

	case "n", "r":
		item, ok := m.selected()
		if !ok || !item.actionable {
			return m, nil
		}
		if item.kind == itemApproval {
			m.mode = inputDecisionFeedback
		} else {
			m.mode = inputRejectReason
		}
		m.input.Placeholder = "reason"
		m.input.SetValue("")
		return m, m.input.Focus()

	case "f":
		item, ok := m.selected()
		if !ok || item.kind != itemCheckpoint {
			return m, nil
		}
		m.mode = inputFeedback
		m.input.Placeholder = "feedback"
		m.input.SetValue("")
		return m, m.input.Focus()
	}

	return m, nil
}

// updateInput handles keys while the text input is focused.
func (m *InboxModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = inputNone
		m.input.Blur()
		return m, nil

	case "enter":
		item, ok := m.selected()
		if ok {
			m.submitInput(item, m.input.Value())
		}
		m.mode = inputNone
		m.input.Blur()
		m.refreshItems()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput applies the collected text to the selected item.
func (m *InboxModel) submitInput(item inboxItem, text string) {
	switch m.mode {
	case inputRejectReason:
		// Rejections from the inbox always request a revision loop; final
		// rejection is a CLI-level action.
		if err := m.coordinator.RejectCheckpoint(item.id, models.SourceUser, text, "", true); err != nil {
			m.status = fmt.Sprintf("reject failed: %v", err)
		} else {
			m.status = fmt.Sprintf("revision requested on %q", item.title)
		}

	case inputDecisionFeedback:
		if _, err := m.coordinator.RecordDecision(item.id, models.DecisionReject, text); err != nil {
			m.status = fmt.Sprintf("reject failed: %v", err)
		} else {
			m.status = fmt.Sprintf("rejected %q", item.title)
		}

	case inputFeedback:
		if text == "" {
			return
		}
		if err := m.coordinator.AddCheckpointFeedback(item.id, models.SourceUser, text); err != nil {
			m.status = fmt.Sprintf("feedback failed: %v", err)
		} else {
			m.status = fmt.Sprintf("feedback added to %q", item.title)
		}
	}
}

// View renders the inbox.
func (m *InboxModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.titleStyle.Render(" Conclave Inbox "))
	sb.WriteString("\n\n")

	if len(m.items) == 0 {
		sb.WriteString(m.detailStyle.Render("Nothing pending."))
		sb.WriteString("\n")
	}

	for i, item := range m.items {
		prefix := "  "
		style := m.itemStyle
		if i == m.cursor {
			prefix = "> "
			style = m.selectedStyle
		}

		kind := "checkpoint"
		if item.kind == itemApproval {
			kind = "approval"
		}
		sb.WriteString(style.Render(fmt.Sprintf("%s[%s] %s (%s)", prefix, kind, item.title, item.status)))
		sb.WriteString("\n")
		if i == m.cursor {
			sb.WriteString(m.detailStyle.Render("    " + item.detail))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")

	if m.mode != inputNone {
		sb.WriteString(m.promptStyle.Render(m.inputPrompt()))
		sb.WriteString("\n")
		sb.WriteString(m.input.View())
		sb.WriteString("\n")
		sb.WriteString(m.detailStyle.Render("(enter to submit, esc to cancel)"))
	} else {
		if m.status != "" {
			sb.WriteString(m.statusStyle.Render(m.status))
			sb.WriteString("\n")
		}
		sb.WriteString(m.detailStyle.Render("j/k move · y approve · n reject · f feedback · q quit"))
	}

	return sb.String()
}

// Run starts the inbox TUI and blocks until the user quits.
func Run(m *InboxModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// inputPrompt labels the text input for the current mode.
func (m *InboxModel) inputPrompt() string {
	switch m.mode {
	case inputRejectReason:
		return "Revision reason:"
	case inputDecisionFeedback:
		return "Rejection feedback:"
	case inputFeedback:
		return "Feedback:"
	default:
		return ""
	}
}
