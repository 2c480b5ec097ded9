// Package render turns workflow results into terminal text for the CLI.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yukikurage/kanban-board/internal/services"
)

type Format string

const (
	FormatDetailed Format = "detailed"
	FormatSummary  Format = "summary"
)

// ParseFormat accepts "detailed" or "summary"; empty means detailed.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatDetailed:
		return FormatDetailed, nil
	case FormatSummary:
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("unknown format %q, use %q or %q", value, FormatDetailed, FormatSummary)
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	priorityStyles = map[services.Priority]lipgloss.Style{
		services.PriorityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		services.PriorityMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C542")),
		services.PriorityLow:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5BD08D")),
	}
	priorityTitles = map[services.Priority]string{
		services.PriorityHigh:   "HIGH PRIORITY - DUE SOON",
		services.PriorityMedium: "MEDIUM PRIORITY",
		services.PriorityLow:    "LOW PRIORITY",
	}
)

const separator = "--------------------------------------------------"

// Notifications renders upcoming tasks. Detailed output is grouped by priority.
func Notifications(notifications []services.Notification, format Format, daysAhead int) string {
	if len(notifications) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No tasks due in the next %d days.", daysAhead)) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Upcoming tasks: %d due within %d days", len(notifications), daysAhead)))
	b.WriteString("\n")

	if format == FormatSummary {
		for _, n := range notifications {
			fmt.Fprintf(&b, "Task #%d: %s - %s\n", n.TaskID, n.Title, n.TimeRemaining)
		}
		return b.String()
	}

	grouped := services.GroupByPriority(notifications)
	for _, priority := range services.Priorities {
		section := grouped[priority]
		if len(section) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(priorityStyles[priority].Render(priorityTitles[priority] + ":"))
		b.WriteString("\n")
		for _, n := range section {
			fmt.Fprintf(&b, "Task #%d: %s\n", n.TaskID, n.Title)
			fmt.Fprintf(&b, "   Status: %s\n", n.Status)
			fmt.Fprintf(&b, "   Due: %s (%s)\n", n.DueDate, n.TimeRemaining)
			fmt.Fprintf(&b, "   Assigned to: %s\n", n.Assignee)
			fmt.Fprintf(&b, "   Priority: %s\n", strings.ToUpper(string(n.Priority)))
			b.WriteString(mutedStyle.Render(separator))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Board renders one box per status column.
func Board(board services.Board) string {
	columns := make([]string, 0, len(board.Columns))
	for _, column := range board.Columns {
		lines := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", column.Status, len(column.Tasks)))}
		if len(column.Tasks) == 0 {
			lines = append(lines, mutedStyle.Render("(empty)"))
		}
		for _, task := range column.Tasks {
			line := fmt.Sprintf("#%d %s  due %s  %s", task.ID, task.Title, task.DueDate, task.Assignee)
			if task.Overdue {
				line += " " + alertStyle.Render("OVERDUE")
			}
			lines = append(lines, line)
		}
		columns = append(columns, boxStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, columns...) + "\n"
}

func Advice(advice services.Advice) string {
	if len(advice.Messages) == 0 {
		return mutedStyle.Render("The board looks balanced.") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Board advice"))
	b.WriteString("\n")
	for _, message := range advice.Messages {
		fmt.Fprintf(&b, "- %s\n", message)
	}
	return b.String()
}
