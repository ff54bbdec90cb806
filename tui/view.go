package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/YashavikaSingh/meeting-summariser/pkg/meeting"
	"github.com/YashavikaSingh/meeting-summariser/pkg/session"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	s := m.machine.State()
	var b strings.Builder

	b.WriteString(titleStyle.Render("Meeting Summarizer") + "  " + renderSteps(s.Step) + "\n\n")

	switch m.mode {
	case modeHistory:
		b.WriteString(m.viewHistory(s))
	case modeConfirmDelete:
		b.WriteString(m.viewConfirm(s))
	case modeChat:
		b.WriteString(m.viewChat(s))
	default:
		switch s.Step {
		case session.StepRecipients:
			b.WriteString(m.viewRecipients())
		case session.StepUpload:
			b.WriteString(m.viewUpload())
		default:
			b.WriteString(m.viewReview(s))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.viewStatus(s))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help(s)))
	return b.String()
}

func renderSteps(current session.Step) string {
	steps := []session.Step{session.StepRecipients, session.StepUpload, session.StepReview}
	parts := make([]string, len(steps))
	for i, step := range steps {
		label := fmt.Sprintf("%d %s", i+1, step)
		if step == current {
			parts[i] = currentStepStyle.Render(label)
		} else {
			parts[i] = stepStyle.Render(label)
		}
	}
	return strings.Join(parts, stepStyle.Render(" › "))
}

func (m Model) label(text string, focused bool) string {
	if focused {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func (m Model) viewRecipients() string {
	return fmt.Sprintf("%s %s\n\n%s %s\n%s",
		m.label("Meeting name", m.focus == fieldName), m.nameInput.View(),
		m.label("Attendee emails", m.focus == fieldEmails), m.emailsInput.View(),
		dimStyle.Render(strings.Repeat(" ", 19)+"comma-separated"))
}

func (m Model) viewUpload() string {
	return fmt.Sprintf("%s %s\n%s",
		m.label("Transcript file", true), m.pathInput.View(),
		dimStyle.Render(strings.Repeat(" ", 19)+".txt files only"))
}

func (m Model) viewReview(s session.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", m.label("Meeting", false), s.MeetingName)
	if s.MeetingID != "" {
		fmt.Fprintf(&b, "%s %s\n", m.label("ID", false), s.MeetingID)
	}
	if s.AttendeeEmails != "" {
		fmt.Fprintf(&b, "%s %s\n", m.label("Attendees", false), s.AttendeeEmails)
	}
	if s.SelectedFile != nil {
		fmt.Fprintf(&b, "%s %s (%s)\n", m.label("Transcript", false), s.SelectedFile.Name, s.SelectedFile.SizeLabel())
	}
	b.WriteString("\n")

	if !s.ProcessingComplete {
		if s.SelectedFile != nil {
			b.WriteString("Press Enter to summarize the transcript.")
		} else {
			b.WriteString(dimStyle.Render("No transcript selected."))
		}
		return b.String()
	}

	summary := meeting.CleanSummary(s.SummaryText)
	if summary == "" {
		summary = dimStyle.Render("No summary available.")
	}
	b.WriteString(summaryStyle.Width(m.contentWidth()).Render(summary))
	return b.String()
}

func (m Model) viewHistory(s session.State) string {
	if len(s.Meetings) == 0 {
		return dimStyle.Render("No past meetings.")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-32s %-20s %-9s %s", "Name", "Date", "Attendees", "Summary")) + "\n")

	visible := m.height - 8
	if visible < 3 {
		visible = 3
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(s.Meetings) {
		end = len(s.Meetings)
	}

	for i := start; i < end; i++ {
		mt := s.Meetings[i]
		summary := "no"
		if mt.HasSummary {
			summary = "yes"
		}
		row := fmt.Sprintf("%-32s %-20s %-9d %s", clip(mt.Name, 32), clip(mt.Date, 20), len(mt.Attendees), summary)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(row) + "\n")
		} else {
			b.WriteString(normalStyle.Render(row) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewConfirm(s session.State) string {
	name := m.pendingDelete
	for _, mt := range s.Meetings {
		if mt.ID == m.pendingDelete {
			name = mt.Name
			break
		}
	}
	body := fmt.Sprintf("Delete %q?\nThis cannot be undone.\n\n%s", name, helpStyle.Render("y: delete  any other key: cancel"))
	return dialogStyle.Render(body)
}

func (m Model) viewChat(s session.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", m.label("Meeting", false), s.MeetingName)

	if len(s.Chat) == 0 {
		b.WriteString(dimStyle.Render("Ask a question about this meeting.") + "\n")
	}
	width := m.contentWidth()
	for _, msg := range s.Chat {
		role := userRoleStyle.Render(" you ")
		if msg.Role == session.RoleAssistant {
			role = assistantRoleStyle.Render(" assistant ")
		}
		b.WriteString(role + "\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Text) + "\n\n")
	}
	b.WriteString(m.chatInput.View())
	return b.String()
}

func (m Model) viewStatus(s session.State) string {
	switch {
	case m.busy != "":
		return m.spinner.View() + " " + m.busy + "..."
	case m.notice != nil && m.notice.Kind == session.NoticeError:
		return errorStyle.Render(m.notice.Message)
	case m.notice != nil:
		return successStyle.Render(m.notice.Message)
	case m.opErr != "":
		return errorStyle.Render(m.opErr)
	case s.LastError != "":
		return errorStyle.Render(s.LastError)
	}
	return ""
}

func (m Model) help(s session.State) string {
	switch m.mode {
	case modeHistory:
		return "  ↑↓: move  Enter: open  d: delete  r: refresh  Esc: back"
	case modeConfirmDelete:
		return ""
	case modeChat:
		return "  Enter: ask  Esc: back"
	}
	switch s.Step {
	case session.StepRecipients:
		return "  Tab: next field  Enter: continue  Ctrl+L: past meetings  Ctrl+C: quit"
	case session.StepUpload:
		return "  Enter: select file  Esc: back  Ctrl+L: past meetings  Ctrl+C: quit"
	}
	if !s.ProcessingComplete {
		return "  Enter: summarize  Esc: back  l: past meetings  n: new  q: quit"
	}
	return "  e: email attendees  c: chat  l: past meetings  n: new  Esc: back  q: quit"
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-2]) + ".."
}
