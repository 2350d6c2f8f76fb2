package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowscope/pkg/eval"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// reportBrowser is the bubbletea model for browsing per-scope
// evaluation reports. Scopes are listed on the left; the selected
// scope's metric table fills the rest.
type reportBrowser struct {
	scopes  []string
	reports map[string]eval.Report
	cursor  int
}

// newReportBrowser creates a browser over the given reports. The scope
// order is preserved as passed.
func newReportBrowser(scopes []string, reports map[string]eval.Report) reportBrowser {
	return reportBrowser{scopes: scopes, reports: reports}
}

func (m reportBrowser) Init() tea.Cmd {
	return nil
}

func (m reportBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.scopes)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m reportBrowser) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout Evaluation"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select scope  q quit"))
	b.WriteString("\n\n")

	if len(m.scopes) == 0 {
		b.WriteString(listDimStyle.Render("no scopes evaluated"))
		return b.String()
	}

	var list strings.Builder
	for i, id := range m.scopes {
		cursor := "  "
		style := listNormalStyle
		if i == m.cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		list.WriteString(style.Render(cursor+id) + "\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		list.String(),
		"  ",
		m.metricTable(m.scopes[m.cursor]),
	))

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.scopes))))

	return b.String()
}

// metricTable renders the selected scope's metrics as a bordered table.
func (m reportBrowser) metricTable(scope string) string {
	rep := m.reports[scope]

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := [][]string{}
	for _, col := range rep.Columns() {
		rows = append(rows, []string{col.Name, fmt.Sprintf("%.4g", col.Value)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Metric", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return StyleNumber
			}
			return StyleValue
		})

	return t.Render()
}
