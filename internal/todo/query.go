package todo

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
)

// Status selects tasks by completion.
type Status int

const (
	StatusAll Status = iota
	StatusPending
	StatusDone
)

var statusNames = []string{"all", "pending", "done"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus accepts the names printed by Status.String, case-insensitively.
func ParseStatus(name string) (Status, error) {
	if i := slices.Index(statusNames, strings.ToLower(strings.TrimSpace(name))); i >= 0 {
		return Status(i), nil
	}
	return StatusAll, fmt.Errorf("unknown status %q (want one of %s)", name, strings.Join(statusNames, ", "))
}

// SortKey orders a query result. Title compares case-folded titles, the same
// folding search and the duplicate check use. Created compares the stored
// timestamp strings, which order chronologically for CreatedLayout values.
type SortKey int

const (
	SortID SortKey = iota
	SortTitle
	SortDue
	SortPriority
	SortCreated
	// SortOrder keeps the stored display order.
	SortOrder
)

var sortNames = []string{"id", "title", "due", "priority", "created", "order"}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortNames) {
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
	return sortNames[k]
}

func ParseSortKey(name string) (SortKey, error) {
	if i := slices.Index(sortNames, strings.ToLower(strings.TrimSpace(name))); i >= 0 {
		return SortKey(i), nil
	}
	return SortID, fmt.Errorf("unknown sort key %q (want one of %s)", name, strings.Join(sortNames, ", "))
}

// Query is a read-only view over the collection: status filter and title search
// combine with AND, then the result is sorted. The zero Query lists every task by id.
type Query struct {
	Status Status
	Search string
	Sort   SortKey
}

// Match reports whether t passes the status filter and the search text.
func (q Query) Match(t Task) bool {
	switch q.Status {
	case StatusPending:
		if t.Done {
			return false
		}
	case StatusDone:
		if !t.Done {
			return false
		}
	}
	if q.Search == "" {
		return true
	}
	return strings.Contains(foldTitle(t.Title), foldTitle(q.Search))
}

// Visible returns the tasks matching q in display order, without sorting. This is
// the subset a drag reorder operates on.
func (q Query) Visible(tasks []Task) []Task {
	var out []Task
	for _, t := range tasks {
		if q.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Seq returns a lazy sequence over the matching tasks in sort order. Each range
// over the sequence re-evaluates q against tasks, which must not be modified.
func (q Query) Seq(tasks []Task) iter.Seq[Task] {
	return func(yield func(Task) bool) {
		view := q.Visible(tasks)
		slices.SortStableFunc(view, q.compare)
		for _, t := range view {
			if !yield(t) {
				return
			}
		}
	}
}

func (q Query) compare(a, b Task) int {
	switch q.Sort {
	case SortTitle:
		return strings.Compare(foldTitle(a.Title), foldTitle(b.Title))
	case SortDue:
		switch {
		case a.HasDue() && !b.HasDue():
			return -1
		case !a.HasDue() && b.HasDue():
			return 1
		}
		return compareDates(a.Due, b.Due)
	case SortPriority:
		return cmp.Compare(b.Priority, a.Priority)
	case SortCreated:
		return strings.Compare(a.Created, b.Created)
	case SortOrder:
		return 0
	}
	return cmp.Compare(a.ID, b.ID)
}

func compareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// Query snapshots the collection and returns a sequence over it. Later mutations
// do not affect an already returned sequence.
func (s *Store) Query(q Query) iter.Seq[Task] {
	return q.Seq(s.Tasks())
}

// Visible returns the ids of the tasks matching q in display order.
func (s *Store) Visible(q Query) []int {
	var ids []int
	for _, t := range q.Visible(s.Tasks()) {
		ids = append(ids, t.ID)
	}
	return ids
}
