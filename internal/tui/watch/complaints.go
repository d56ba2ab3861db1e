package watch

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

func newComplaintsTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 16},
			{Title: "Reporter", Width: 14},
			{Title: "Complaint", Width: 44},
			{Title: "Channel", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func complaintRows(complaints []ComplaintRow) []table.Row {
	rows := make([]table.Row, 0, len(complaints))
	for _, c := range complaints {
		text := c.Text
		if len(text) > 44 {
			text = text[:41] + "..."
		}
		rows = append(rows, table.Row{
			c.At.Local().Format("Jan 02 15:04:05"),
			c.Reporter,
			text,
			c.Channel,
		})
	}
	return rows
}

func renderComplaints(t table.Model, total int64, theme Theme, width int) string {
	innerWidth := width - 4

	title := theme.Title.Render("RECENT COMPLAINTS")
	if total > 0 {
		title += theme.Dim.Render(fmt.Sprintf(" (%d total)", total))
	}

	body := t.View()
	if len(t.Rows()) == 0 {
		body = theme.Dim.Render("  No complaints recorded yet. Suspicious.")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	return theme.Border.Width(innerWidth).Render(content)
}
