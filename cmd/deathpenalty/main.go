// DeathPenalty runs the death penalty engine inside a simulated server
// with an operator console.
// Usage: deathpenalty [--version] [--plain] [--script <file>] [--config <file>] [--ledger <file>] [--debug]
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/nathoo/deathpenalty/cli"
	"github.com/nathoo/deathpenalty/economy"
	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/loader"
	"github.com/nathoo/deathpenalty/logging"
	"github.com/nathoo/deathpenalty/settings"
	"github.com/nathoo/deathpenalty/sim"
	"github.com/nathoo/deathpenalty/tui"
)

// Set via -ldflags at build time.
var (
	commit = "none"
	date   = "unknown"
)

const usage = "Usage: deathpenalty [--version] [--plain] [--script <file>] [--config <file>] [--ledger <file>] [--debug]"

func main() {
	cfg, err := settings.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	plain := false
	debug := false
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("deathpenalty %s (commit %s, built %s)\n", engine.Version, commit, date)
			return
		case "--plain":
			plain = true
		case "--debug":
			debug = true
		case "--script", "--config", "--ledger":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a file path\n", args[i])
				os.Exit(1)
			}
			flag := args[i]
			i++
			switch flag {
			case "--script":
				scriptFile = args[i]
			case "--config":
				cfg.ConfigPath = args[i]
			case "--ledger":
				cfg.LedgerPath = args[i]
			}
		default:
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(1)
		}
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if debug {
		level = zerolog.DebugLevel
	}

	var econ engine.Economy = economy.NewBank(cfg.Currency)
	if cfg.UseLedger() {
		ledger, err := economy.OpenLedger(cfg.LedgerPath, cfg.Currency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening ledger: %v\n", err)
			os.Exit(1)
		}
		defer ledger.Close()
		econ = ledger
	}

	opts := sim.Options{
		Store:   loader.NewFileStore(cfg.ConfigPath, zerolog.Nop()),
		Economy: econ,
		Level:   level,
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		opts.Mirror = f
	}

	srv, err := sim.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(srv)
		c.In = f
		c.EchoInput = true
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(srv)
		c.Run()
		return
	}

	if err := tui.Run(srv); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
