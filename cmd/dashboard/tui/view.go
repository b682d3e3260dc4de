package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"contentorbit/types"
)

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("🌐 ContentOrbit"))
	b.WriteString("  ")
	if m.connected {
		b.WriteString(SuccessStyle.Render("● connected"))
	} else {
		b.WriteString(ErrorStyle.Render("● disconnected"))
		if m.lastErr != nil {
			b.WriteString(InfoStyle.Render("  " + m.lastErr.Error()))
		}
	}
	b.WriteString("\n\n")

	if m.snapshot != nil {
		left := BoxStyle.Render(m.statsView())
		right := BoxStyle.Render(m.sectionsView())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(m.postsView()))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(m.logsView()))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(WarningStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.lastErr != nil && m.connected {
		b.WriteString(ErrorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(InfoStyle.Render("r: run now  ·  s: start/stop scheduler  ·  q: quit"))
	return b.String()
}

func (m Model) statsView() string {
	s := m.snapshot.Stats
	sched := m.snapshot.Scheduler

	var b strings.Builder
	b.WriteString(LabelStyle.Render("Posting"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Today: %d/%d   Week: %d   Total: %d\n",
		s.PostsToday, sched.MaxPerDay, s.PostsThisWeek, s.TotalPosts)
	fmt.Fprintf(&b, "Errors today: %d\n", s.ErrorsToday)

	if sched.Running {
		b.WriteString(SuccessStyle.Render("Scheduler running"))
	} else {
		b.WriteString(WarningStyle.Render("Scheduler stopped"))
	}
	if !sched.InWindow {
		b.WriteString(InfoStyle.Render("  (outside active hours)"))
	}
	if sched.NextRunAt != nil {
		fmt.Fprintf(&b, "\nNext run: %s", sched.NextRunAt.Local().Format("15:04:05"))
	}
	return b.String()
}

func (m Model) sectionsView() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Integrations"))
	b.WriteString("\n")

	names := make([]string, 0, len(m.snapshot.Sections))
	for name := range m.snapshot.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if m.snapshot.Sections[name] {
			fmt.Fprintf(&b, "%s %s\n", SuccessStyle.Render("✓"), name)
		} else {
			fmt.Fprintf(&b, "%s %s\n", InfoStyle.Render("·"), name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) postsView() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Recent posts"))
	b.WriteString("\n")

	if len(m.snapshot.Posts) == 0 {
		b.WriteString(InfoStyle.Render("nothing published yet"))
		return b.String()
	}
	for _, p := range m.snapshot.Posts {
		fmt.Fprintf(&b, "%s %s %s\n",
			statusIcon(p.Status),
			p.CreatedAt.Local().Format("01-02 15:04"),
			truncate(p.Title, 60))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) logsView() string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render("Logs"))
	b.WriteString("\n")

	if len(m.snapshot.Logs) == 0 {
		b.WriteString(InfoStyle.Render("no entries"))
		return b.String()
	}
	for _, entry := range m.snapshot.Logs {
		line := fmt.Sprintf("%s [%s] %s",
			entry.Timestamp.Local().Format("15:04:05"), entry.Component, truncate(entry.Message, 70))
		switch entry.Level {
		case "error":
			b.WriteString(ErrorStyle.Render(line))
		case "warning":
			b.WriteString(WarningStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusIcon(status types.PostStatus) string {
	switch status {
	case types.StatusPublished:
		return SuccessStyle.Render("✅")
	case types.StatusPartial:
		return WarningStyle.Render("◐")
	case types.StatusFailed:
		return ErrorStyle.Render("❌")
	default:
		return InfoStyle.Render("…")
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
