package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/sparknova/internal/search"
)

var (
	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Padding(0, 1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)
)

// typeBadges label each result type in the list.
var typeBadges = map[search.ResultType]string{
	search.TypeApp:     "app",
	search.TypeFile:    "file",
	search.TypeCommand: "cmd",
	search.TypePlugin:  "plug",
}

// View implements tea.Model.
func (m model) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	input := inputStyle.Width(max(width-2, 10)).Render(m.input.View())
	statusBar := renderStatusBar(m.state, m.status, width)
	helpBar := renderHelpBar(m.showingHistory(), width)

	used := lipgloss.Height(input) + lipgloss.Height(statusBar) + lipgloss.Height(helpBar) + 1
	rows := 10
	if m.height > 0 {
		rows = max(m.height-used, 1)
	}

	var body string
	if m.showingHistory() {
		body = renderHistory(m.state.History, m.selected, rows, width)
	} else {
		body = renderResults(m.state, m.selected, rows, width)
	}

	parts := []string{input, body}
	if m.lastErr != "" {
		parts = append(parts, errorStyle.Render(m.lastErr))
	}
	parts = append(parts, statusBar, helpBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderHistory(history []string, selected, rows, width int) string {
	if len(history) == 0 {
		return emptyStyle.Render("Type to search")
	}
	lines := []string{headerStyle.Render("Recent")}
	start := windowStart(selected, len(history), rows-1)
	for i := start; i < len(history) && i < start+rows-1; i++ {
		lines = append(lines, renderRow(history[i], "", i == selected, width))
	}
	return strings.Join(lines, "\n")
}

func renderResults(st search.State, selected, rows, width int) string {
	if len(st.Results) == 0 {
		if st.IsSearching {
			return emptyStyle.Render("Searching…")
		}
		return emptyStyle.Render("No results")
	}
	var lines []string
	start := windowStart(selected, len(st.Results), rows)
	for i := start; i < len(st.Results) && i < start+rows; i++ {
		it := st.Results[i]
		title := fmt.Sprintf("%-4s %s", typeBadges[it.Type], it.Title)
		lines = append(lines, renderRow(title, it.Description, i == selected, width))
	}
	return strings.Join(lines, "\n")
}

func renderRow(title, desc string, selected bool, width int) string {
	text := title
	if desc != "" {
		text += "  " + descStyle.Render(desc)
	}
	style := rowStyle
	if selected {
		style = selectedStyle
	}
	return style.Width(width).MaxHeight(1).Render(text)
}

// windowStart returns the first visible row so that selected stays in view.
func windowStart(selected, n, rows int) int {
	if rows <= 0 || n <= rows {
		return 0
	}
	start := selected - rows + 1
	if start < 0 {
		return 0
	}
	if start > n-rows {
		return n - rows
	}
	return start
}

func renderStatusBar(st search.State, status string, width int) string {
	var parts []string
	if st.IsSearching {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("●")+" searching")
	} else {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")+" ready")
	}
	if st.HasQuery() {
		parts = append(parts, fmt.Sprintf("%d results", len(st.Results)))
	}
	parts = append(parts, fmt.Sprintf("%d in history", len(st.History)))
	if status != "" {
		parts = append(parts, status)
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(strings.Join(parts, "  "))
}

func renderHelpBar(history bool, width int) string {
	help := "↑/↓: select  enter: open  esc: clear/hide  ctrl-d: clear history  ctrl-c: quit"
	if history {
		help = "↑/↓: select  tab/enter: recall  esc: hide  ctrl-d: clear history  ctrl-c: quit"
	}
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	return style.Render(help)
}
