package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the dashboard state, refreshed by polling the API
type Model struct {
	client *Client

	snapshot  *Snapshot
	connected bool
	lastErr   error
	notice    string

	width  int
	height int
}

// NewModel builds the dashboard against the given API
func NewModel(baseURL, password string) Model {
	return Model{client: NewClient(baseURL, password)}
}

// Init starts the poll loop
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollSnapshot(m.client), tickCmd())
}
