package tui

import "time"

// SnapshotMsg carries one poll result
type SnapshotMsg struct {
	Snapshot *Snapshot
	Err      error
}

// ActionMsg reports the outcome of a control action
type ActionMsg struct {
	Action string
	Err    error
}

// TickMsg drives the poll loop
type TickMsg struct {
	Time time.Time
}
