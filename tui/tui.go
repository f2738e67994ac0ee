// Package tui provides a Bubble Tea operator console for the simulated
// server.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/sim"
	"github.com/nathoo/deathpenalty/types"
)

// rawLine stores an unstyled output line with its classification, so it
// can be re-wrapped and re-styled when the terminal is resized.
type rawLine struct {
	text string
	kind lineKind
}

// Model is the Bubble Tea model for the console.
type Model struct {
	server *sim.Server

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	showLogs bool
	quitting bool
	lastCmd  string
}

// serverOutputMsg carries a step result into the Update loop.
type serverOutputMsg struct {
	input  string   // echoed command (empty for the banner)
	result types.Result
	system []string // console messages
}

// New creates a TUI model wired to the given server.
func New(srv *sim.Server) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		server:   srv,
		input:    ti,
		history:  NewHistory(100),
		showLogs: true,
	}
}

// Run starts the Bubble Tea program.
func Run(srv *sim.Server) error {
	p := tea.NewProgram(New(srv), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the banner and the
// startup log.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		return serverOutputMsg{
			result: types.Result{
				Output: []string{
					fmt.Sprintf("%s %s console", engine.Name, engine.Version),
					"Type help for server commands, /help for console commands.",
				},
				Logs: m.server.DrainLogs(),
			},
		}
	}
}

// Update handles messages (key presses, window resize, server output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			next, _ := m.history.Next()
			m.input.SetValue(next)
			m.input.CursorEnd()
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case serverOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}
	m.history.Push(input)

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(serverOutputMsg{input: input, system: []string{"Nothing to repeat."}})
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(serverOutputMsg{input: input, system: output})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m = m.appendOutput(serverOutputMsg{input: input, result: m.server.Step(input)})
	return m, nil
}

// appendOutput adds lines to the transcript and refreshes the viewport.
func (m Model) appendOutput(msg serverOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, kind: kindInput})
	}
	for _, line := range msg.system {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: kindSystem})
	}
	for _, line := range msg.result.Output {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyOutput(line)})
	}
	if m.showLogs {
		for _, line := range msg.result.Logs {
			m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyLog(line)})
		}
	}
	for _, line := range msg.result.Messages {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: kindChat})
	}

	// Blank line between commands.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		styled = append(styled, renderLineKind(wordWrap(rl.text, width), rl.kind))
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within width, breaking at spaces.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) > width:
			b.WriteString("\n")
			lineLen = len(word)
		default:
			b.WriteString(" ")
			lineLen += 1 + len(word)
		}
		b.WriteString(word)
	}
	return b.String()
}

// View renders the full layout: viewport, status bar, input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/help":
		return m.cmdHelp(), false

	case "/logs":
		m.showLogs = !m.showLogs
		if m.showLogs {
			return []string{"Log output enabled."}, false
		}
		return []string{"Log output disabled."}, false

	case "/clear":
		m.rawLines = nil
		return []string{"Transcript cleared."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdHelp() []string {
	help := []string{
		"Console:",
		"  /quit      Exit",
		"  /help      Show this help",
		"  /logs      Toggle log output",
		"  /clear     Clear the transcript",
		"  again (g)  Repeat the last server command",
		"",
	}
	help = append(help, sim.HelpLines...)
	return append(help, "", "Navigation: PgUp/PgDn to scroll, Up/Down for command history")
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled, as those
// keys browse the command history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
