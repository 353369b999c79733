package todo

import (
	"errors"
	"io/fs"
	"slices"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

// memRepo keeps the document in memory. Setting err makes every Write fail.
type memRepo struct {
	data   []byte
	err    error
	writes int
}

func (m *memRepo) Read() ([]byte, error) {
	if m.data == nil {
		return nil, fs.ErrNotExist
	}
	return m.data, nil
}

func (m *memRepo) Write(data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data = slices.Clone(data)
	m.writes++
	return nil
}

func (m *memRepo) Close() error { return nil }

func newTestStore(t *testing.T, repo *memRepo) *Store {
	t.Helper()
	return NewStore(repo, WithClock(func() time.Time { return testNow }))
}

func mustCreate(t *testing.T, s *Store, title string) Task {
	t.Helper()
	task, err := s.Create(title, civil.Date{}, 2)
	require.NoError(t, err)
	return task
}

func ids(tasks []Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestNewStoreEmptyWhenNothingPersisted(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	assert.Empty(t, s.Tasks())
	assert.Equal(t, 1, s.NextID())
	assert.False(t, s.Unsaved())
}

func TestCreateRoundTrip(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)

	due := civil.Date{Year: 2026, Month: time.October, Day: 20}
	first, err := s.Create("  Buy milk  ", due, 3)
	require.NoError(t, err)
	second, err := s.Create("Walk dog", civil.Date{}, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "Buy milk", first.Title)
	assert.Equal(t, PriorityLow, second.Priority)
	assert.Equal(t, "2026-10-16T09:30:00", first.Created)
	assert.Equal(t, 3, s.NextID())
	assert.Equal(t, 2, repo.writes)

	reloaded := newTestStore(t, repo)
	if diff := cmp.Diff(s.Tasks(), reloaded.Tasks()); diff != "" {
		t.Errorf("reloaded tasks mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, reloaded.NextID())

	third := mustCreate(t, reloaded, "Read book")
	assert.Greater(t, third.ID, second.ID)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.Create(title, civil.Date{}, 2)
		require.ErrorIs(t, err, ErrEmptyTitle)
		require.ErrorIs(t, err, ErrValidation)
	}
	assert.Empty(t, s.Tasks())
	assert.Equal(t, 1, s.NextID())
	assert.Zero(t, repo.writes)
}

func TestCreateRejectsDuplicateTitleIgnoringCase(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	mustCreate(t, s, "Buy milk")

	_, err := s.Create("buy MILK ", civil.Date{}, 2)
	require.ErrorIs(t, err, ErrDuplicateTitle)
	assert.Len(t, s.Tasks(), 1)
	assert.Equal(t, 2, s.NextID())
	assert.Equal(t, 1, repo.writes)
}

func TestPriorityIsClamped(t *testing.T) {
	s := newTestStore(t, &memRepo{})

	low, err := s.Create("low", civil.Date{}, 0)
	require.NoError(t, err)
	high, err := s.Create("high", civil.Date{}, 7)
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, low.Priority)
	assert.Equal(t, PriorityHigh, high.Priority)

	require.NoError(t, s.SetPriority(low.ID, 42))
	got, _ := s.Get(low.ID)
	assert.Equal(t, PriorityHigh, got.Priority)

	require.NoError(t, s.SetPriority(low.ID, -1))
	got, _ = s.Get(low.ID)
	assert.Equal(t, PriorityLow, got.Priority)
}

func TestSaveLoadIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	mustCreate(t, s, "one")
	two := mustCreate(t, s, "two")
	require.NoError(t, s.SetDone(two.ID, true))
	require.NoError(t, s.SetDue(two.ID, civil.Date{Year: 2027, Month: time.January, Day: 2}))
	before := slices.Clone(repo.data)

	reloaded := newTestStore(t, repo)
	require.NoError(t, reloaded.Save())
	assert.Equal(t, string(before), string(repo.data))
	assert.Equal(t, s.NextID(), reloaded.NextID())
}

func TestUpdatesOnUnknownIDAreNoOps(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	mustCreate(t, s, "one")
	writes := repo.writes

	require.NoError(t, s.SetDone(99, true))
	require.NoError(t, s.SetTitle(99, "renamed"))
	require.NoError(t, s.SetDue(99, civil.Date{Year: 2026, Month: time.May, Day: 1}))
	require.NoError(t, s.SetPriority(99, 3))
	require.NoError(t, s.Delete(99))

	assert.Equal(t, writes, repo.writes)
	assert.Len(t, s.Tasks(), 1)
	assert.Equal(t, 2, s.NextID())
}

func TestSetTitle(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	a := mustCreate(t, s, "alpha")
	mustCreate(t, s, "beta")

	require.ErrorIs(t, s.SetTitle(a.ID, "   "), ErrEmptyTitle)
	got, _ := s.Get(a.ID)
	assert.Equal(t, "alpha", got.Title)

	// Renaming onto an existing title is accepted; only Create checks duplicates.
	require.NoError(t, s.SetTitle(a.ID, " Beta "))
	got, _ = s.Get(a.ID)
	assert.Equal(t, "Beta", got.Title)
}

func TestSetDoneAndDue(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	a := mustCreate(t, s, "alpha")
	due := civil.Date{Year: 2026, Month: time.December, Day: 24}

	require.NoError(t, s.SetDone(a.ID, true))
	require.NoError(t, s.SetDue(a.ID, due))
	got, _ := s.Get(a.ID)
	assert.True(t, got.Done)
	assert.Equal(t, due, got.Due)

	require.NoError(t, s.SetDone(a.ID, false))
	require.NoError(t, s.ClearDue(a.ID))
	got, _ = s.Get(a.ID)
	assert.False(t, got.Done)
	assert.False(t, got.HasDue())
}

func TestDelete(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	mustCreate(t, s, "one")
	two := mustCreate(t, s, "two")
	mustCreate(t, s, "three")

	require.NoError(t, s.Delete(two.ID))
	assert.Equal(t, []int{1, 3}, ids(s.Tasks()))
	assert.Equal(t, 4, s.NextID())
	assert.Equal(t, []int{1, 3}, ids(newTestStore(t, repo).Tasks()))
}

func TestReorderVisibleSubset(t *testing.T) {
	tests := []struct {
		name   string
		order  []int
		want   []int
		writes int
	}{
		{name: "subset moves to front", order: []int{4, 2}, want: []int{4, 2, 1, 3, 5}, writes: 1},
		{name: "full permutation", order: []int{5, 4, 3, 2, 1}, want: []int{5, 4, 3, 2, 1}, writes: 1},
		{name: "unknown and repeated ids ignored", order: []int{3, 99, 3, 1}, want: []int{3, 1, 2, 4, 5}, writes: 1},
		{name: "unchanged order does not persist", order: []int{1, 2}, want: []int{1, 2, 3, 4, 5}, writes: 0},
		{name: "empty order", order: nil, want: []int{1, 2, 3, 4, 5}, writes: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{}
			s := newTestStore(t, repo)
			for _, title := range []string{"a", "b", "c", "d", "e"} {
				mustCreate(t, s, title)
			}
			writes := repo.writes

			require.NoError(t, s.Reorder(tt.order))
			assert.Equal(t, tt.want, ids(s.Tasks()))
			assert.Equal(t, tt.writes, repo.writes-writes)
			assert.Equal(t, tt.want, ids(newTestStore(t, repo).Tasks()))
		})
	}
}

func TestReorderWithinFilteredView(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		mustCreate(t, s, title)
	}
	require.NoError(t, s.SetDone(2, true))
	require.NoError(t, s.SetDone(4, true))

	q := Query{Status: StatusPending}
	visible := s.Visible(q)
	require.Equal(t, []int{1, 3, 5}, visible)

	slices.Reverse(visible)
	require.NoError(t, s.Reorder(visible))
	assert.Equal(t, []int{5, 3, 1, 2, 4}, ids(s.Tasks()))
}

func TestBulkOperations(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	for _, title := range []string{"a", "b", "c"} {
		mustCreate(t, s, title)
	}
	require.NoError(t, s.SetDone(1, true))
	require.NoError(t, s.SetDone(3, true))

	require.NoError(t, s.ClearCompleted())
	assert.Equal(t, []int{2}, ids(s.Tasks()))

	mustCreate(t, s, "d")
	require.NoError(t, s.MarkAllDone())
	total, done := s.Stats()
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, done)

	writes := repo.writes
	require.NoError(t, s.MarkAllDone())
	assert.Equal(t, writes+1, repo.writes, "bulk operations always persist")
}

func TestPersistenceFailureKeepsStateAndRetries(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	mustCreate(t, s, "saved")

	repo.err = errors.New("disk full")
	task, err := s.Create("pending write", civil.Date{}, 2)
	require.Error(t, err)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create", perr.Op)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2, task.ID)
	assert.Len(t, s.Tasks(), 2)
	assert.True(t, s.Unsaved())

	require.ErrorIs(t, s.Reload(), ErrUnsaved)
	assert.Len(t, s.Tasks(), 2)

	repo.err = nil
	require.NoError(t, s.Save())
	assert.False(t, s.Unsaved())
	assert.Equal(t, []int{1, 2}, ids(newTestStore(t, repo).Tasks()))
}

func TestReloadPicksUpExternalChanges(t *testing.T) {
	repo := &memRepo{}
	s := newTestStore(t, repo)
	mustCreate(t, s, "one")

	other := newTestStore(t, repo)
	mustCreate(t, other, "two")

	require.NoError(t, s.Reload())
	assert.Equal(t, []int{1, 2}, ids(s.Tasks()))
	assert.Equal(t, 3, s.NextID())
}

func TestDueTodayAndStatus(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	today := civil.DateOf(testNow)

	a := mustCreate(t, s, "due today")
	b := mustCreate(t, s, "done today")
	c := mustCreate(t, s, "tomorrow")
	require.NoError(t, s.SetDue(a.ID, today))
	require.NoError(t, s.SetDue(b.ID, today))
	require.NoError(t, s.SetDone(b.ID, true))
	require.NoError(t, s.SetDue(c.ID, today.AddDays(1)))

	assert.Equal(t, []int{a.ID}, ids(s.DueToday()))
	assert.Equal(t, DueStatus{Kind: DueUpcoming, Days: 1}, s.DueStatus(today.AddDays(1)))
}

func TestTasksReturnsCopy(t *testing.T) {
	s := newTestStore(t, &memRepo{})
	mustCreate(t, s, "one")

	tasks := s.Tasks()
	tasks[0].Title = "mutated"
	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "one", got.Title)
}
