package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleOutput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	stylePenalty = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleChat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleLog = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindOutput lineKind = iota
	kindPenalty
	kindChat
	kindSystem
	kindLog
	kindWarn
	kindError
	kindInput
)

// classifyOutput determines how a server response line is styled.
func classifyOutput(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "Penalty:"):
		return kindPenalty
	case strings.HasPrefix(line, "Error:"),
		strings.HasPrefix(line, "Skipped:"),
		strings.HasSuffix(line, "failed."),
		strings.Contains(line, " failed: "):
		return kindError
	default:
		return kindOutput
	}
}

// classifyLog picks a style from the console writer's level marker.
func classifyLog(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "WRN"):
		return kindWarn
	case strings.HasPrefix(line, "ERR"), strings.HasPrefix(line, "FTL"):
		return kindError
	default:
		return kindLog
	}
}

func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindPenalty:
		return stylePenalty.Render(line)
	case kindChat:
		return styleChat.Render(line)
	case kindSystem:
		return styleSystem.Render("[" + line + "]")
	case kindLog:
		return styleLog.Render(line)
	case kindWarn:
		return styleWarn.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindInput:
		return stylePlayerInput.Render(line)
	default:
		return styleOutput.Render(line)
	}
}
