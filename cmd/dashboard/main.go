// Command dashboard is a terminal client for the bot's REST API:
// live stats, recent posts, logs and pipeline controls.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"contentorbit/cmd/dashboard/tui"
)

func main() {
	_ = godotenv.Load()

	baseURL := os.Getenv("CONTENTORBIT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	password := os.Getenv("DASHBOARD_PASSWORD")

	model := tui.NewModel(baseURL, password)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard error: %v\n", err)
		os.Exit(1)
	}
}
