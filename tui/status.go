package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// renderStatusBar produces a full-width inverted status line showing who
// is online, who is owed a penalty, and the server tick.
func (m Model) renderStatusBar() string {
	var online []string
	for _, p := range m.server.Players() {
		name := p.Name
		if p.Dead {
			name += "†"
		}
		online = append(online, name)
	}
	pending, err := m.server.PendingNames()
	pendingStr := listOrDash(pending)
	if err != nil {
		pendingStr = "?"
	}

	left := fmt.Sprintf(" Online: %s | Pending: %s", listOrDash(online), pendingStr)
	right := fmt.Sprintf("Econ:%s KI:%s T:%d ", onOff(m.server.EconomyOn()), onOff(m.server.KeepInventory("")), m.server.Clock().Now())

	// Fall back to counts when the names do not fit.
	if lipgloss.Width(left)+lipgloss.Width(right)+2 >= m.width {
		left = fmt.Sprintf(" Online: %d | Pending: %d", len(online), len(pending))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}
