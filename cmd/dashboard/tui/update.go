package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollSnapshot(m.client), tickCmd())
	case SnapshotMsg:
		return m.handleSnapshot(msg)
	case ActionMsg:
		return m.handleAction(msg)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.notice = "Starting pipeline run..."
		return m, runNow(m.client)
	case "s":
		running := m.snapshot != nil && m.snapshot.Scheduler.Running
		if running {
			m.notice = "Stopping scheduler..."
		} else {
			m.notice = "Starting scheduler..."
		}
		return m, toggleScheduler(m.client, running)
	}
	return m, nil
}

func (m Model) handleSnapshot(msg SnapshotMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.connected = false
		m.lastErr = msg.Err
		return m, nil
	}
	m.connected = true
	m.lastErr = nil
	m.snapshot = msg.Snapshot
	return m, nil
}

func (m Model) handleAction(msg ActionMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.notice = ""
		m.lastErr = msg.Err
		return m, nil
	}
	switch msg.Action {
	case "run":
		m.notice = "Pipeline run started"
	case "start":
		m.notice = "Scheduler started"
	case "stop":
		m.notice = "Scheduler stopped"
	}
	// refresh right away so the new state shows up
	return m, pollSnapshot(m.client)
}
