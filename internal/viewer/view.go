package viewer

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"windowcraft.ai/internal/ui/item"
)

const cellWidth = 12

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cellStyle     = lipgloss.NewStyle().Width(cellWidth).Height(2).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	selectedStyle = cellStyle.BorderForeground(lipgloss.Color("212"))
	paneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

func (m Model) View() string {
	var b strings.Builder
	if m.windowID == 0 {
		b.WriteString(titleStyle.Render("no window"))
		b.WriteString("\n\n")
	} else {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n")
		b.WriteString(m.grid())
		b.WriteString("\n")
	}
	b.WriteString("cursor: " + label(m.cursor) + "\n")
	b.WriteString(statusStyle.Render(m.status) + "\n")
	b.WriteString(helpStyle.Render("arrows move  enter left  r right  s shift  m middle  q close  ctrl+c quit"))
	return b.String()
}

func (m Model) grid() string {
	var rows []string
	for y := 0; y*m.width < len(m.slots); y++ {
		var cells []string
		for x := 0; x < m.width && y*m.width+x < len(m.slots); x++ {
			i := y*m.width + x
			style := cellStyle
			if i == m.selected {
				style = selectedStyle
			}
			cells = append(cells, style.Render(cell(m.slots[i])))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// cell renders a stack in two short lines; panes are drawn dim.
func cell(s *item.Stack) string {
	if s.IsEmpty() {
		return ""
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = s.Type
	}
	line2 := ""
	if s.Amount > 1 {
		line2 = "x" + strconv.Itoa(s.Amount)
	}
	text := truncate(name, cellWidth) + "\n" + line2
	if strings.HasSuffix(s.Type, "_PANE") {
		return paneStyle.Render(text)
	}
	return text
}

func label(s *item.Stack) string {
	if s.IsEmpty() {
		return "-"
	}
	return s.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
