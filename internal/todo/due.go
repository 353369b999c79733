package todo

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// DueKind classifies a due date relative to today.
type DueKind int

const (
	DueNone DueKind = iota
	DueOverdue
	DueToday
	DueUpcoming
)

// DueStatus is a DueKind plus the signed day distance it was derived from.
type DueStatus struct {
	Kind DueKind
	Days int
}

// DaysUntil returns due - today in days; ok is false when there is no due date.
func DaysUntil(due, today civil.Date) (days int, ok bool) {
	if due.IsZero() {
		return 0, false
	}
	return due.DaysSince(today), true
}

func DueStatusOf(due, today civil.Date) DueStatus {
	days, ok := DaysUntil(due, today)
	switch {
	case !ok:
		return DueStatus{Kind: DueNone}
	case days < 0:
		return DueStatus{Kind: DueOverdue, Days: days}
	case days == 0:
		return DueStatus{Kind: DueToday}
	}
	return DueStatus{Kind: DueUpcoming, Days: days}
}

func (d DueStatus) String() string {
	switch d.Kind {
	case DueOverdue:
		return "OVERDUE"
	case DueToday:
		return "TODAY"
	case DueUpcoming:
		return fmt.Sprintf("in %dd", d.Days)
	}
	return ""
}
