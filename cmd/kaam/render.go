package main

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/charmbracelet/lipgloss"

	"github.com/MihkelHunter/kaamtamam/internal/todo"
)

var (
	accent  = lipgloss.Color("#22d3ee")
	muted   = lipgloss.Color("#94a3b8")
	overdue = lipgloss.Color("#ef4444")

	priorityColors = map[todo.Priority]lipgloss.Color{
		todo.PriorityLow:    lipgloss.Color("#22c55e"),
		todo.PriorityMedium: lipgloss.Color("#eab308"),
		todo.PriorityHigh:   lipgloss.Color("#ef4444"),
	}

	idStyle     = lipgloss.NewStyle().Foreground(muted)
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	dueStyle    = lipgloss.NewStyle().Foreground(muted)
	footerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
)

// renderTask formats one task as a single terminal line.
func renderTask(t todo.Task, today civil.Date) string {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	title := t.Title
	if t.Done {
		title = doneStyle.Render(title)
	}
	prio := lipgloss.NewStyle().Foreground(priorityColors[t.Priority]).Render(t.Priority.Label())

	line := fmt.Sprintf("%s %s · %s  %s", box, idStyle.Render(fmt.Sprintf("#%d", t.ID)), title, prio)
	if !t.HasDue() {
		return line
	}
	line += "  " + dueStyle.Render(t.Due.String())
	if t.Done {
		return line
	}
	if badge := renderBadge(todo.DueStatusOf(t.Due, today)); badge != "" {
		line += " " + badge
	}
	return line
}

func renderBadge(s todo.DueStatus) string {
	switch s.Kind {
	case todo.DueOverdue:
		return lipgloss.NewStyle().Foreground(overdue).Bold(true).Render(s.String())
	case todo.DueToday:
		return lipgloss.NewStyle().Foreground(accent).Bold(true).Render(s.String())
	case todo.DueUpcoming:
		return lipgloss.NewStyle().Foreground(muted).Render(s.String())
	}
	return ""
}

func renderFooter(total, done int) string {
	return footerStyle.Render(fmt.Sprintf("%d / %d completed", done, total))
}
