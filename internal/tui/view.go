package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"pixel-admin/internal/deleter"
	"pixel-admin/pkg/utils"
)

func (m model) View() string {
	switch m.st {
	case statusLoading:
		return fmt.Sprintf("Loading pixels... %s\n", m.sp.View())
	case statusBulkConfirm:
		n := m.deps.Store.SelectedCount()
		return m.headerText() + dialogStyle.Render(
			fmt.Sprintf("Delete %d selected pixel(s)?\nThey will be scheduled for deletion.\n\ny confirm   n/esc cancel", n),
		) + "\n"
	case statusBulkDeleting:
		return m.headerText() + fmt.Sprintf("Deleting %d pixel(s)... %s\n", m.deps.Store.SelectedCount(), m.sp.View())
	case statusAttempt:
		return m.headerText() + m.renderAttempt() + "\n"
	}

	base := m.headerText() + m.renderList()
	if m.st == statusSearching {
		base += "\n" + m.search.View() + "\n"
	}
	if m.showHelp {
		base += "\n" + m.helpText()
	}
	return base
}

func (m model) headerText() string {
	st := m.deps.Store.Stats()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Pixel Admin"))
	if m.reloading {
		b.WriteString("  " + m.sp.View())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Pixels: %s  Events: %s  Visitors: %s  Industries: %d  Selected: %d\n",
		utils.FormatCount(int64(st.Pixels)), utils.FormatCount(st.Events), utils.FormatCount(st.Visitors),
		st.Industries, m.deps.Store.SelectedCount())

	search := m.query.Search
	if search == "" {
		search = "-"
	}
	fmt.Fprintf(&b, "Search: %s  Industry: %s  Sort: %s  | ? help\n", search, m.query.Industry, m.query.Sort.Label())

	if m.banner != "" {
		b.WriteString(errorStyle.Render("Error: "+m.banner) + "\n")
	} else if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m model) renderList() string {
	if !m.deps.Store.Loaded() {
		return "No pixels loaded. Press r to retry.\n"
	}
	if len(m.rows) == 0 {
		return "No pixels match the current filters.\n"
	}

	var b strings.Builder
	start := m.scrollOffset
	end := start + m.visibleHeight()
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		p := m.rows[i]

		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render(">") + " "
		}

		sel := m.deps.Store.IsSelected(p.ID)
		mark := markStyle.Render("[ ]")
		if sel {
			mark = markSelectedStyle.Render("[x]")
		}

		name := fmt.Sprintf("%-24s", utils.Truncate(p.ClientName, 24))
		if sel {
			name = nameStyleSelected.Render(name)
		}
		site := fmt.Sprintf("%-32s", utils.Truncate(p.Website, 32))
		counts := countStyle.Render(fmt.Sprintf("%10s %10s", utils.FormatCount(p.EventCount), utils.FormatCount(p.VisitorCount)))
		industry := fmt.Sprintf("%-16s", utils.Truncate(p.IndustryLabel(), 16))

		line := prefix + mark + " " + name + " " + site + " " + industry + " " + counts + " " + utils.FormatDate(p.Created())
		if _, ok := m.partial[p.ID]; ok {
			line += " " + warnStyle.Render("[not purged]")
		}
		if p.ScheduledForDeletion() {
			line += " " + scheduledStyle.Render("[scheduled]")
		}
		b.WriteString(line + "\n")
	}
	if len(m.rows) > end-start {
		fmt.Fprintf(&b, "%s\n", markStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(m.rows))))
	}
	return b.String()
}

func (m model) renderAttempt() string {
	att, ok := m.deps.Controller.Current()
	if !ok {
		return ""
	}
	name := att.PixelID
	if p, found := m.deps.Store.Get(att.PixelID); found {
		name = p.ClientName
	}

	var lines []string
	switch ph := att.Phase.(type) {
	case deleter.Confirm:
		lines = append(lines,
			headerStyle.Render(fmt.Sprintf("Delete pixel %q?", name)),
			"This removes the pixel from SimpleAudience and deletes its client data.",
		)
		if ph.LastError != "" {
			lines = append(lines, "", errorStyle.Render(ph.LastError))
		}
		if m.running {
			lines = append(lines, "", "Starting... "+m.sp.View())
		} else {
			lines = append(lines, "", "s save data & delete   d delete without saving   c/esc cancel")
		}
	case deleter.Downloading, deleter.Deleting:
		lines = append(lines, headerStyle.Render(fmt.Sprintf("Deleting %q", name)), "", m.sp.View()+" "+ph.Message())
	case deleter.Complete:
		lines = append(lines, noticeStyle.Render(ph.Message()))
		if att.Export != "" {
			lines = append(lines, "Client data saved to "+att.Export)
		}
		lines = append(lines, "", markStyle.Render("press any key to close"))
	}
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (m model) helpText() string {
	lines := []string{
		"Help (press ? to close):",
		"  ↑/k, ↓/j  Move cursor",
		"  space     Toggle selection",
		"  a         Select/deselect all shown",
		"  /         Search client name or website",
		"  i         Cycle industry filter",
		"  s         Cycle sort (newest, name, events)",
		"  d         Delete pixel under cursor",
		"  x         Delete selected pixels",
		"  r         Reload",
		"  q         Quit",
	}
	return lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder()).Render(strings.Join(lines, "\n"))
}

var (
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))            // purple
	markStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // gray
	markSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true) // green
	countStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))            // cyan
	nameStyleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	headerStyle       = lipgloss.NewStyle().Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // orange
	scheduledStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // yellow
	noticeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dialogStyle       = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
)
