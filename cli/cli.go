// Package cli provides the line-oriented operator console for the
// simulated server: terminal I/O, output formatting, and meta-command
// dispatch.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/sim"
	"github.com/nathoo/deathpenalty/types"
)

var (
	styleLog     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleMessage = lipgloss.NewStyle().Foreground(lipgloss.Color("228"))
)

// CLI reads server commands and prints their results.
type CLI struct {
	Server    *sim.Server
	In        io.Reader
	Out       io.Writer
	ShowLogs  bool   // print engine log lines after each command
	Color     bool   // style log lines and chat with lipgloss
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given server.
func New(srv *sim.Server) *CLI {
	return &CLI{
		Server:   srv,
		In:       os.Stdin,
		Out:      os.Stdout,
		ShowLogs: true,
	}
}

// Run shows the banner and startup log, then loops: prompt → input →
// dispatch → output.
func (c *CLI) Run() {
	c.printLine(fmt.Sprintf("%s %s console. Type help for server commands, /help for console commands.", engine.Name, engine.Version))
	c.printLogs(c.Server.DrainLogs())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		c.printResult(c.Server.Step(input))
	}
}

// handleMeta dispatches meta-commands. Returns true if the console should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/help":
		c.cmdHelp()

	case "/logs":
		c.ShowLogs = !c.ShowLogs
		if c.ShowLogs {
			c.printSystem("Log output enabled.")
		} else {
			c.printSystem("Log output disabled.")
		}

	case "/pending":
		names, err := c.Server.PendingNames()
		if err != nil {
			c.printSystem(fmt.Sprintf("Pending failed: %v", err))
			break
		}
		if len(names) == 0 {
			c.printSystem("No pending penalties.")
			break
		}
		c.printSystem("Pending: " + strings.Join(names, ", "))

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"Console:",
		"  /quit     Exit",
		"  /help     Show this help",
		"  /logs     Toggle log output",
		"  /pending  List players owed a penalty",
		"  again (g) Repeat the last server command",
		"",
	}
	help = append(help, sim.HelpLines...)
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
	c.printLogs(result.Logs)
	for _, msg := range result.Messages {
		c.printStyled(styleMessage, "[chat] "+msg)
	}
}

func (c *CLI) printLogs(lines []string) {
	if !c.ShowLogs {
		return
	}
	for _, line := range lines {
		c.printStyled(styleLog, "[log] "+line)
	}
}

func (c *CLI) printStyled(style lipgloss.Style, text string) {
	if c.Color {
		text = style.Render(text)
	}
	c.printLine(text)
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
