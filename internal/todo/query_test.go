package todo

import (
	"slices"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func sampleTasks() []Task {
	return []Task{
		{ID: 3, Title: "buy Milk", Done: false, Due: date(2026, 10, 20), Priority: PriorityLow, Created: "2026-10-01T14:00:00"},
		{ID: 1, Title: "Call mom", Done: true, Priority: PriorityHigh, Created: "2026-10-01T12:00:00"},
		{ID: 4, Title: "almond milk", Done: true, Due: date(2026, 10, 18), Priority: PriorityMedium, Created: "2026-10-01T13:00:00"},
		{ID: 2, Title: "Pay rent", Done: false, Priority: PriorityHigh, Created: "2026-10-01T15:00:00"},
		{ID: 5, Title: "Milkshake", Done: false, Due: date(2026, 10, 18), Priority: PriorityMedium, Created: "2026-10-01T11:00:00"},
	}
}

func TestQueryFilterAndSort(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []int
	}{
		{name: "zero query lists all by id", q: Query{}, want: []int{1, 2, 3, 4, 5}},
		{name: "pending by id", q: Query{Status: StatusPending, Sort: SortID}, want: []int{2, 3, 5}},
		{name: "done by id", q: Query{Status: StatusDone}, want: []int{1, 4}},
		{name: "search milk by title", q: Query{Search: "milk", Sort: SortTitle}, want: []int{4, 3, 5}},
		{name: "search is case-insensitive", q: Query{Search: "MILK", Status: StatusPending}, want: []int{3, 5}},
		{name: "due ascending with missing last", q: Query{Sort: SortDue}, want: []int{4, 5, 3, 1, 2}},
		{name: "priority high first, stable", q: Query{Sort: SortPriority}, want: []int{1, 2, 4, 5, 3}},
		{name: "created ascending", q: Query{Sort: SortCreated}, want: []int{5, 1, 4, 3, 2}},
		{name: "stored order", q: Query{Sort: SortOrder}, want: []int{3, 1, 4, 2, 5}},
		{name: "stored order, pending", q: Query{Status: StatusPending, Sort: SortOrder}, want: []int{3, 2, 5}},
		{name: "no match", q: Query{Search: "zebra"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for task := range tt.q.Seq(sampleTasks()) {
				got = append(got, task.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryDoesNotTouchStoredOrder(t *testing.T) {
	tasks := sampleTasks()
	before := ids(tasks)
	_ = slices.Collect(Query{Sort: SortTitle}.Seq(tasks))
	assert.Equal(t, before, ids(tasks))
}

func TestQuerySeqIsRestartableAndStoppable(t *testing.T) {
	seq := Query{Sort: SortID}.Seq(sampleTasks())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(slices.Collect(seq)))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(slices.Collect(seq)))

	var first []int
	for task := range seq {
		first = append(first, task.ID)
		if len(first) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, first)
}

func TestStoreQuerySnapshotsCollection(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	mustCreate(t, s, "Buy milk")
	seq := s.Query(Query{Status: StatusPending})

	mustCreate(t, s, "Milk the cow")
	require.NoError(t, s.SetDone(1, true))

	assert.Equal(t, []int{1}, ids(slices.Collect(seq)))
	assert.Equal(t, []int{2}, ids(slices.Collect(s.Query(Query{Status: StatusPending}))))
}

func TestVisibleKeepsDisplayOrder(t *testing.T) {
	got := Query{Search: "milk"}.Visible(sampleTasks())
	assert.Equal(t, []int{3, 4, 5}, ids(got))
}

func TestParseStatusAndSortKey(t *testing.T) {
	st, err := ParseStatus(" Pending ")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, st)
	assert.Equal(t, "pending", st.String())

	_, err = ParseStatus("archived")
	assert.Error(t, err)

	key, err := ParseSortKey("PRIORITY")
	require.NoError(t, err)
	assert.Equal(t, SortPriority, key)
	assert.Equal(t, "priority", key.String())

	_, err = ParseSortKey("colour")
	assert.Error(t, err)
}

func TestTitleSortFoldsLikeSearch(t *testing.T) {
	tasks := []Task{
		{ID: 1, Title: "Straße B"},
		{ID: 2, Title: "STRASSE A"},
		{ID: 3, Title: "strasse c"},
	}
	var got []int
	for task := range (Query{Search: "strasse", Sort: SortTitle}).Seq(tasks) {
		got = append(got, task.ID)
	}
	assert.Equal(t, []int{2, 1, 3}, got)
}
