// Package todo defines the task model and the Store that owns it.
// The Repository interface lets the persisted document live in a plain file or in
// SQLite without the Store or the front ends caring which one is in use.
package todo

import "cloud.google.com/go/civil"

// Priority levels for a task.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// ClampPriority forces p into [PriorityLow, PriorityHigh].
func ClampPriority(p int) Priority {
	switch {
	case p < int(PriorityLow):
		return PriorityLow
	case p > int(PriorityHigh):
		return PriorityHigh
	}
	return Priority(p)
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// Label is the short form used in exports and compact views.
func (p Priority) Label() string {
	if p == PriorityMedium {
		return "Med"
	}
	return p.String()
}

// Task is the central domain object. The zero Due means no due date. Created is
// the creation timestamp exactly as stored; new tasks get CreatedLayout, values
// loaded from disk are kept verbatim and never rewritten.
type Task struct {
	ID       int
	Title    string
	Done     bool
	Due      civil.Date
	Priority Priority
	Created  string
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return !t.Due.IsZero()
}

// Repository is the storage contract for the persisted document. Read returns an error
// wrapping fs.ErrNotExist when nothing has been written yet. Write must replace the
// whole document atomically: a reader sees either the old or the new bytes.
type Repository interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}
