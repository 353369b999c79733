package todo

import (
	"errors"
	"io/fs"
	"slices"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Store owns the ordered task collection and the id counter. Every successful
// mutation writes the full collection through the Repository before returning.
// Unknown ids are ignored by all mutations; use Get to check for presence.
type Store struct {
	mu      sync.Mutex
	repo    Repository
	log     *zap.Logger
	now     func() time.Time
	tasks   []Task
	nextID  int
	unsaved bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now, which stamps creation times and decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore loads the collection from repo. A missing or corrupt document yields an
// empty store; NewStore never fails.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{repo: repo, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.tasks, s.nextID = s.load()
	return s
}

func (s *Store) load() ([]Task, int) {
	data, err := s.repo.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("no task document yet")
		} else {
			s.log.Warn("reading task document failed, starting empty", zap.Error(err))
		}
		return nil, 1
	}
	tasks, nextID, _ := decodeDocument(data, s.now(), s.log)
	s.log.Debug("tasks loaded", zap.Int("count", len(tasks)), zap.Int("next_id", nextID))
	return tasks, nextID
}

// persist writes the whole collection. On failure the in-memory state is kept and
// the store stays marked unsaved until a later write succeeds.
func (s *Store) persist(op string) error {
	data, err := EncodeDocument(s.tasks, s.nextID)
	if err == nil {
		err = s.repo.Write(data)
	}
	if err != nil {
		s.unsaved = true
		s.log.Error("saving tasks failed", zap.String("op", op), zap.Error(err))
		return &PersistenceError{Op: op, Err: err}
	}
	s.unsaved = false
	return nil
}

// Save retries persisting the current state.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist("save")
}

// Unsaved reports whether the last write failed.
func (s *Store) Unsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// Reload replaces the in-memory state with the persisted document. It refuses with
// ErrUnsaved when that would discard changes that never reached disk.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsaved {
		return ErrUnsaved
	}
	s.tasks, s.nextID = s.load()
	return nil
}

func (s *Store) Close() error {
	return s.repo.Close()
}

// Tasks returns a copy of the collection in display order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *Store) Get(id int) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

func (s *Store) index(id int) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

// Create appends a new pending task. The title is trimmed and must not match an
// existing title case-insensitively; priority is clamped into range.
func (s *Store) Create(title string, due civil.Date, priority int) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folded := foldTitle(title)
	for _, t := range s.tasks {
		if foldTitle(t.Title) == folded {
			return Task{}, ErrDuplicateTitle
		}
	}

	t := Task{
		ID:       s.nextID,
		Title:    title,
		Due:      due,
		Priority: ClampPriority(priority),
		Created:  FormatCreated(s.now()),
	}
	s.tasks = append(s.tasks, t)
	s.nextID++
	s.log.Debug("task created", zap.Int("id", t.ID))
	return t, s.persist("create")
}

// SetTitle renames a task. Duplicate titles are only rejected by Create.
func (s *Store) SetTitle(id int, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	return s.update("edit title", id, func(t *Task) { t.Title = title })
}

func (s *Store) SetDone(id int, done bool) error {
	return s.update("set done", id, func(t *Task) { t.Done = done })
}

// SetDue sets the due date; the zero date clears it.
func (s *Store) SetDue(id int, due civil.Date) error {
	return s.update("set due", id, func(t *Task) { t.Due = due })
}

func (s *Store) ClearDue(id int) error {
	return s.SetDue(id, civil.Date{})
}

func (s *Store) SetPriority(id int, priority int) error {
	p := ClampPriority(priority)
	return s.update("set priority", id, func(t *Task) { t.Priority = p })
}

func (s *Store) update(op string, id int, fn func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		s.log.Debug("no such task", zap.String("op", op), zap.Int("id", id))
		return nil
	}
	fn(&s.tasks[i])
	return s.persist(op)
}

func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		s.log.Debug("no such task", zap.String("op", "delete"), zap.Int("id", id))
		return nil
	}
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return s.persist("delete")
}

// Reorder moves the tasks named by ids, in that order, to the front of the
// collection. All other tasks keep their relative order behind them. Unknown and
// repeated ids are ignored, so a partial view can be merged back safely.
func (s *Store) Reorder(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := make(map[int]int, len(s.tasks))
	for i, t := range s.tasks {
		pos[t.ID] = i
	}
	moved := make(map[int]bool, len(ids))
	order := make([]Task, 0, len(s.tasks))
	for _, id := range ids {
		i, ok := pos[id]
		if !ok || moved[id] {
			continue
		}
		moved[id] = true
		order = append(order, s.tasks[i])
	}
	for _, t := range s.tasks {
		if !moved[t.ID] {
			order = append(order, t)
		}
	}

	if slices.EqualFunc(order, s.tasks, func(a, b Task) bool { return a.ID == b.ID }) {
		return nil
	}
	s.tasks = order
	return s.persist("reorder")
}

func (s *Store) MarkAllDone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		s.tasks[i].Done = true
	}
	return s.persist("mark all done")
}

func (s *Store) ClearCompleted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = slices.DeleteFunc(s.tasks, func(t Task) bool { return t.Done })
	return s.persist("clear completed")
}

// Today is the current calendar date according to the store's clock.
func (s *Store) Today() civil.Date {
	return civil.DateOf(s.now())
}

// DueStatus classifies due relative to Today.
func (s *Store) DueStatus(due civil.Date) DueStatus {
	return DueStatusOf(due, s.Today())
}

// DueToday returns the pending tasks due today, in display order.
func (s *Store) DueToday() []Task {
	today := s.Today()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for _, t := range s.tasks {
		if !t.Done && t.Due == today {
			out = append(out, t)
		}
	}
	return out
}

// Stats returns the number of tasks and how many of them are done.
func (s *Store) Stats() (total, done int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.Done {
			done++
		}
	}
	return len(s.tasks), done
}

func foldTitle(s string) string {
	return cases.Fold().String(s)
}
