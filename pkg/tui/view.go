package tui

import (
	"fmt"
	"strings"

	"selectree/pkg/selection"

	"github.com/mattn/go-runewidth"
)

const helpText = "space toggle · enter/→ open · ← close · / search · a all · n none · s save · o load · r refresh · c confirm · q quit"

func (m Model) View() string {
	var b strings.Builder

	header := m.engine.Root()
	if q := m.engine.Query(); q != "" {
		header += "  filter: " + q
	}
	b.WriteString(titleStyle.Render("selectree") + " " + queryStyle.Render(truncate(header, m.width-10)) + "\n")

	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("  (nothing to show)") + "\n")
	}
	end := m.offset + m.listHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		line := renderRow(m.rows[i], m.width)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	switch m.mode {
	case modeBrowse:
		status := fmt.Sprintf("%d files selected", len(m.engine.CheckedFiles()))
		if m.status != "" {
			status += " · " + m.status
		}
		style := statusStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(truncate(status, m.width)) + "\n")
		b.WriteString(helpStyle.Render(truncate(helpText, m.width)))
	default:
		b.WriteString(m.input.View() + "\n")
		b.WriteString(helpStyle.Render("enter accept · esc cancel"))
	}
	return b.String()
}

func checkbox(s selection.CheckState) string {
	switch s {
	case selection.Checked:
		return checkedStyle.Render("[x]")
	case selection.PartiallyChecked:
		return partialStyle.Render("[-]")
	default:
		return "[ ]"
	}
}

// renderRow draws one tree line, truncated to width display cells.
func renderRow(r Row, width int) string {
	indent := strings.Repeat("  ", r.Depth)
	marker := "  "
	label := r.Item.Label
	if r.Item.Collapsible {
		marker = "▸ "
		if r.Expanded {
			marker = "▾ "
		}
		label += "/"
	}

	prefix := indent + marker
	room := width - runewidth.StringWidth(prefix) - 4
	if room < 1 {
		room = 1
	}
	label = truncate(label, room)
	if r.Item.Collapsible {
		label = dirStyle.Render(label)
	}
	return prefix + checkbox(r.Item.State) + " " + label
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
