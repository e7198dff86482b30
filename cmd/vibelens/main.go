// Package main is the entry point for the VibeLens TUI.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/may1350/vibelens/internal/app"
	"github.com/may1350/vibelens/internal/config"
	"github.com/may1350/vibelens/internal/services"
	"github.com/may1350/vibelens/internal/ui/tabs/dashboard"
	"github.com/may1350/vibelens/internal/ui/tabs/history"
	"github.com/may1350/vibelens/internal/ui/tabs/info"
	"github.com/may1350/vibelens/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize the service manager: process discovery, telemetry
	// polling, account reconciliation and the loopback bridge
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	svcManager.Start()

	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 3. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 4. Initialize tabs with shared state and services
	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state),             // Tab 0: Dashboard - account quota overview
		history.New(state, svcManager),   // Tab 1: History - recorded daily usage
		info.New(state, cfg, svcManager), // Tab 2: Info - bridge and configuration
	}
	model.SetTabs(tabs)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 6. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 7. Run the TUI program; blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`VibeLens - Antigravity quota telemetry TUI

Usage:
  vibelens [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate accounts
  Enter           Expand/collapse account card
  r               Sync now
  e               Set account email
  c               Copy a new sync key
  o               Open the web dashboard
  d               Delete selected account
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  VIBELENS_DB_PATH        SQLite database path
  VIBELENS_STORE_PATH     Account store JSON path
  VIBELENS_BRIDGE_PORT    Loopback bridge port (default: 48829)
  VIBELENS_POLL_INTERVAL  Telemetry polling interval (default: 60s)
  VIBELENS_ACCOUNT_EMAIL  Email used before the first telemetry sync

Configuration:
  The application looks for .env files in the following locations:
  - Current directory and its parents
  - ~/.config/vibelens/.env
  - ~/.vibelens/.env`)
}
