package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// pollSnapshot fetches the latest state from the API
func pollSnapshot(client *Client) tea.Cmd {
	return func() tea.Msg {
		snap, err := client.FetchSnapshot()
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

// runNow triggers a pipeline cycle
func runNow(client *Client) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Action: "run", Err: client.RunNow()}
	}
}

// toggleScheduler starts or stops the posting loop
func toggleScheduler(client *Client, running bool) tea.Cmd {
	return func() tea.Msg {
		if running {
			return ActionMsg{Action: "stop", Err: client.StopScheduler()}
		}
		return ActionMsg{Action: "start", Err: client.StartScheduler()}
	}
}

// tickCmd schedules the next poll
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
