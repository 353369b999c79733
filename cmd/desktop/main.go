package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/MihkelHunter/kaamtamam/internal/config"
	"github.com/MihkelHunter/kaamtamam/internal/export"
	"github.com/MihkelHunter/kaamtamam/internal/logging"
	"github.com/MihkelHunter/kaamtamam/internal/store"
	"github.com/MihkelHunter/kaamtamam/internal/todo"
	"github.com/MihkelHunter/kaamtamam/internal/watch"
)

// ── Colour palette ───────────────────────────────────────────────────────────

var (
	colBackground = color.NRGBA{R: 15, G: 23, B: 42, A: 255}
	colSurface    = color.NRGBA{R: 30, G: 41, B: 59, A: 255}
	colDoneRow    = color.NRGBA{R: 20, G: 30, B: 25, A: 255}
	colAccent     = color.NRGBA{R: 34, G: 211, B: 238, A: 255}
	colMuted      = color.NRGBA{R: 148, G: 163, B: 184, A: 255}
	colHighPri    = color.NRGBA{R: 239, G: 68, B: 68, A: 255}
	colMedPri     = color.NRGBA{R: 234, G: 179, B: 8, A: 255}
	colLowPri     = color.NRGBA{R: 34, G: 197, B: 94, A: 255}
)

var (
	statusOptions   = []string{"All", "Pending", "Done"}
	sortOptions     = []string{"Order", "ID", "Title", "Due", "Priority", "Created"}
	priorityOptions = []string{"Low", "Medium", "High"}
)

// ── App state ────────────────────────────────────────────────────────────────

type appState struct {
	cfg   *config.Config
	log   *zap.Logger
	store *todo.Store
	win   fyne.Window

	taskList   *widget.List
	statsLabel *widget.Label
	tasks      []todo.Task
	query      todo.Query
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	repo, err := store.Open(cfg.Backend, cfg.DataFile)
	if err != nil {
		logger.Fatal("opening store failed", zap.Error(err))
	}
	st := todo.NewStore(repo, todo.WithLogger(logger.Named("store")))
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("closing store failed", zap.Error(err))
		}
	}()

	a := app.New()
	a.Settings().SetTheme(&darkTheme{})

	win := a.NewWindow("KaamTamam")
	win.Resize(fyne.NewSize(820, 640))
	win.CenterOnScreen()

	s := &appState{cfg: cfg, log: logger, store: st, win: win, query: todo.Query{Sort: todo.SortOrder}}
	win.SetContent(s.buildUI())
	s.refresh()

	w, err := watch.New(cfg.DataFile, s.onDiskChange, logger.Named("watch"))
	if err != nil {
		logger.Warn("file watcher unavailable", zap.Error(err))
	} else {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := w.Start(ctx); err != nil {
			logger.Warn("file watcher unavailable", zap.Error(err))
		}
		defer w.Stop()
	}

	win.SetOnClosed(func() {
		if st.Unsaved() {
			if err := st.Save(); err != nil {
				logger.Error("final save failed", zap.Error(err))
			}
		}
	})
	s.remindDueToday()
	win.ShowAndRun()
}

func configPath() string {
	if p := os.Getenv("KAAM_CONFIG"); p != "" {
		return p
	}
	p, err := config.GetConfigPath()
	if err != nil {
		log.Fatal(err)
	}
	return p
}

// ── Build UI ─────────────────────────────────────────────────────────────────

func (s *appState) buildUI() fyne.CanvasObject {
	// Header
	title := canvas.NewText("  ✓  KaamTamam", color.White)
	title.TextSize = 20
	title.TextStyle = fyne.TextStyle{Bold: true}

	addBtn := widget.NewButton("+ Add Task", func() { s.showTaskForm(nil) })
	addBtn.Importance = widget.HighImportance

	header := container.NewBorder(nil, nil, title, container.NewPadded(addBtn))
	headerStack := container.NewStack(canvas.NewRectangle(colSurface), container.NewPadded(header))

	// Filter, search and sort
	statusGroup := widget.NewRadioGroup(statusOptions, func(sel string) {
		st, err := todo.ParseStatus(sel)
		if err == nil {
			s.query.Status = st
			s.refresh()
		}
	})
	statusGroup.Horizontal = true
	statusGroup.Required = true
	statusGroup.Selected = "All"

	search := widget.NewEntry()
	search.SetPlaceHolder("Search titles…")
	search.OnChanged = func(text string) {
		s.query.Search = text
		s.refresh()
	}

	sortSelect := widget.NewSelect(sortOptions, func(sel string) {
		key, err := todo.ParseSortKey(sel)
		if err == nil {
			s.query.Sort = key
			s.refresh()
		}
	})
	sortSelect.Selected = "Order"

	filterRow := container.NewBorder(nil, nil, statusGroup, sortSelect, search)

	// Task list
	s.taskList = widget.NewList(
		func() int { return len(s.tasks) },
		func() fyne.CanvasObject { return newTaskRow() },
		s.updateTaskRow,
	)
	s.taskList.OnSelected = func(id widget.ListItemID) { s.taskList.Unselect(id) }

	// Footer
	s.statsLabel = widget.NewLabel("")
	exportSelect := widget.NewSelect(append(upper(export.Formats), "All formats"), nil)
	exportSelect.PlaceHolder = "Export…"
	exportSelect.OnChanged = func(sel string) {
		if sel == "" {
			return
		}
		if sel == "All formats" {
			s.exportAll()
		} else {
			s.exportTo(strings.ToLower(sel))
		}
		exportSelect.ClearSelected()
	}
	actions := container.NewHBox(
		widget.NewButton("Mark all done", func() { s.apply(s.store.MarkAllDone()) }),
		widget.NewButton("Clear completed", s.confirmClearCompleted),
		widget.NewButton("Due today", s.showDueToday),
		widget.NewButton("Reload", s.reload),
		exportSelect,
	)
	footer := container.NewBorder(nil, nil, actions, s.statsLabel)
	footerStack := container.NewStack(canvas.NewRectangle(colSurface), container.NewPadded(footer))

	// Root layout
	ui := container.NewBorder(
		container.NewVBox(headerStack, container.NewPadded(filterRow)),
		footerStack,
		nil, nil,
		s.taskList,
	)
	return container.NewStack(canvas.NewRectangle(colBackground), ui)
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// ── Task row ─────────────────────────────────────────────────────────────────

type taskRow struct {
	widget.BaseWidget

	bg      *canvas.Rectangle
	check   *widget.Check
	priDot  *canvas.Circle
	title   *widget.Label
	meta    *canvas.Text
	badge   *canvas.Text
	upBtn   *widget.Button
	downBtn *widget.Button
	editBtn *widget.Button
	delBtn  *widget.Button
	content fyne.CanvasObject
}

func newTaskRow() *taskRow {
	r := &taskRow{
		bg:      canvas.NewRectangle(colSurface),
		check:   widget.NewCheck("", nil),
		priDot:  canvas.NewCircle(colLowPri),
		title:   widget.NewLabel("title"),
		meta:    canvas.NewText("", colMuted),
		badge:   canvas.NewText("", colAccent),
		upBtn:   widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil),
		downBtn: widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil),
		editBtn: widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil),
		delBtn:  widget.NewButtonWithIcon("", theme.DeleteIcon(), nil),
	}
	r.bg.CornerRadius = 8
	r.priDot.Resize(fyne.NewSize(12, 12))
	r.meta.TextSize = 12
	r.badge.TextSize = 12
	r.badge.TextStyle = fyne.TextStyle{Bold: true}
	for _, b := range []*widget.Button{r.upBtn, r.downBtn, r.editBtn} {
		b.Importance = widget.LowImportance
	}
	r.delBtn.Importance = widget.DangerImportance

	left := container.NewHBox(container.NewCenter(r.priDot), r.check)
	text := container.NewVBox(r.title, container.NewHBox(r.meta, r.badge))
	right := container.NewHBox(r.upBtn, r.downBtn, r.editBtn, r.delBtn)
	r.content = container.NewStack(r.bg, container.NewPadded(container.NewBorder(nil, nil, left, right, text)))
	r.ExtendBaseWidget(r)
	return r
}

func (r *taskRow) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(r.content)
}

func (s *appState) updateTaskRow(i widget.ListItemID, obj fyne.CanvasObject) {
	if i >= len(s.tasks) {
		return
	}
	t := s.tasks[i]
	r := obj.(*taskRow)

	r.priDot.FillColor = priorityColor(t.Priority)
	r.priDot.Refresh()

	r.check.OnChanged = nil
	r.check.SetChecked(t.Done)
	r.check.OnChanged = func(done bool) { s.apply(s.store.SetDone(t.ID, done)) }

	if t.Done {
		r.title.TextStyle = fyne.TextStyle{Italic: true}
		r.bg.FillColor = colDoneRow
	} else {
		r.title.TextStyle = fyne.TextStyle{Bold: true}
		r.bg.FillColor = colSurface
	}
	r.bg.Refresh()
	r.title.SetText(t.Title)

	meta := fmt.Sprintf("#%d · %s priority", t.ID, t.Priority)
	if t.HasDue() {
		meta += " · due " + t.Due.String()
	}
	r.meta.Text = meta
	r.meta.Refresh()

	r.badge.Text = ""
	if !t.Done {
		status := s.store.DueStatus(t.Due)
		r.badge.Text = status.String()
		r.badge.Color = colAccent
		if status.Kind == todo.DueOverdue {
			r.badge.Color = colHighPri
		}
	}
	r.badge.Refresh()

	r.upBtn.OnTapped = func() { s.move(t.ID, -1) }
	r.downBtn.OnTapped = func() { s.move(t.ID, 1) }
	r.editBtn.OnTapped = func() { s.showTaskForm(&t) }
	r.delBtn.OnTapped = func() { s.confirmDelete(t) }
}

func priorityColor(p todo.Priority) color.Color {
	switch p {
	case todo.PriorityHigh:
		return colHighPri
	case todo.PriorityMedium:
		return colMedPri
	}
	return colLowPri
}

// ── Actions ───────────────────────────────────────────────────────────────────

func (s *appState) refresh() {
	s.tasks = slices.Collect(s.store.Query(s.query))
	s.taskList.Refresh()

	total, done := s.store.Stats()
	label := fmt.Sprintf("%d / %d completed", done, total)
	if s.store.Unsaved() {
		label += " · unsaved"
	}
	s.statsLabel.SetText(label)
}

// apply refreshes the view after a store mutation and reports its error, if any.
func (s *appState) apply(err error) {
	s.refresh()
	var perr *todo.PersistenceError
	switch {
	case err == nil:
	case errors.As(err, &perr):
		dialog.ShowConfirm("Changes not saved",
			fmt.Sprintf("Writing %s failed:\n%v\n\nRetry now?", s.cfg.DataFile, perr.Err),
			func(ok bool) {
				if ok {
					s.apply(s.store.Save())
				}
			}, s.win)
	case errors.Is(err, todo.ErrDuplicateTitle):
		dialog.ShowInformation("Duplicate", "Task already exists.", s.win)
	case errors.Is(err, todo.ErrEmptyTitle):
		dialog.ShowInformation("Missing title", "Title cannot be empty.", s.win)
	default:
		dialog.ShowError(err, s.win)
	}
}

// move shifts a task one place within the current filter, in display order.
func (s *appState) move(id, delta int) {
	ids := s.store.Visible(todo.Query{Status: s.query.Status, Search: s.query.Search})
	i := slices.Index(ids, id)
	j := i + delta
	if i < 0 || j < 0 || j >= len(ids) {
		return
	}
	ids[i], ids[j] = ids[j], ids[i]
	s.apply(s.store.Reorder(ids))
}

func (s *appState) confirmDelete(t todo.Task) {
	dialog.ShowConfirm("Delete Task",
		fmt.Sprintf("Delete \"%s\"?", t.Title),
		func(ok bool) {
			if ok {
				s.apply(s.store.Delete(t.ID))
			}
		}, s.win)
}

func (s *appState) confirmClearCompleted() {
	_, done := s.store.Stats()
	if done == 0 {
		dialog.ShowInformation("Clear completed", "No completed tasks.", s.win)
		return
	}
	dialog.ShowConfirm("Clear completed",
		fmt.Sprintf("Delete %d completed tasks?", done),
		func(ok bool) {
			if ok {
				s.apply(s.store.ClearCompleted())
			}
		}, s.win)
}

func (s *appState) dueTodayText() string {
	due := s.store.DueToday()
	if len(due) == 0 {
		return ""
	}
	lines := make([]string, len(due))
	for i, t := range due {
		lines[i] = fmt.Sprintf("#%d · %s", t.ID, t.Title)
	}
	return strings.Join(lines, "\n")
}

func (s *appState) showDueToday() {
	text := s.dueTodayText()
	if text == "" {
		text = "Nothing due today."
	}
	dialog.ShowInformation("Due today", text, s.win)
}

func (s *appState) remindDueToday() {
	if text := s.dueTodayText(); text != "" {
		dialog.ShowInformation("Due today", text, s.win)
	}
}

func (s *appState) reload() {
	if err := s.store.Reload(); err != nil {
		if errors.Is(err, todo.ErrUnsaved) {
			dialog.ShowInformation("Reload", "There are unsaved changes. Retry saving them first.", s.win)
			return
		}
		dialog.ShowError(err, s.win)
		return
	}
	s.refresh()
}

// onDiskChange runs on the watcher goroutine.
func (s *appState) onDiskChange() {
	fyne.Do(func() {
		if s.store.Unsaved() {
			return
		}
		if err := s.store.Reload(); err != nil {
			s.log.Warn("reload after change failed", zap.Error(err))
			return
		}
		s.refresh()
	})
}

func (s *appState) exportTo(format string) {
	b, err := export.NewExporter(s.store).Export(format)
	if err != nil {
		dialog.ShowError(err, s.win)
		return
	}
	path := filepath.Join(filepath.Dir(s.cfg.DataFile), export.FileName(format))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		dialog.ShowError(fmt.Errorf("write export: %w", err), s.win)
		return
	}
	dialog.ShowInformation("Exported", path, s.win)
}

func (s *appState) exportAll() {
	paths, err := export.NewExporter(s.store).ExportAll(context.Background(), filepath.Dir(s.cfg.DataFile), export.Formats)
	if err != nil {
		dialog.ShowError(err, s.win)
		return
	}
	dialog.ShowInformation("Exported", strings.Join(paths, "\n"), s.win)
}

func (s *appState) showTaskForm(existing *todo.Task) {
	titleEntry := widget.NewEntry()
	titleEntry.SetPlaceHolder("Task title…")

	dueEntry := widget.NewEntry()
	dueEntry.SetPlaceHolder("YYYY-MM-DD (optional)")
	dueEntry.Validator = func(text string) error {
		_, err := parseDue(text)
		return err
	}

	prioritySelect := widget.NewSelect(priorityOptions, nil)
	prioritySelect.SetSelected(todo.PriorityMedium.String())

	if existing != nil {
		titleEntry.SetText(existing.Title)
		if existing.HasDue() {
			dueEntry.SetText(existing.Due.String())
		}
		prioritySelect.SetSelected(existing.Priority.String())
	}

	form := widget.NewForm(
		widget.NewFormItem("Title *", titleEntry),
		widget.NewFormItem("Due", dueEntry),
		widget.NewFormItem("Priority", prioritySelect),
	)

	label := "Add Task"
	if existing != nil {
		label = "Edit Task"
	}

	dialog.ShowCustomConfirm(label, "Save", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		due, err := parseDue(dueEntry.Text)
		if err != nil {
			dialog.ShowError(err, s.win)
			return
		}
		pri := int(todo.PriorityLow) + prioritySelect.SelectedIndex()
		if existing == nil {
			_, err := s.store.Create(titleEntry.Text, due, pri)
			s.apply(err)
			return
		}
		s.apply(s.edit(existing.ID, titleEntry.Text, due, pri))
	}, s.win)
}

func (s *appState) edit(id int, title string, due civil.Date, pri int) error {
	if err := s.store.SetTitle(id, title); err != nil {
		return err
	}
	var err error
	if due.IsZero() {
		err = s.store.ClearDue(id)
	} else {
		err = s.store.SetDue(id, due)
	}
	if err != nil {
		return err
	}
	return s.store.SetPriority(id, pri)
}

func parseDue(text string) (civil.Date, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(text)
	if err != nil {
		return civil.Date{}, fmt.Errorf("due date must look like 2026-12-31")
	}
	return d, nil
}

// ── Custom dark theme ─────────────────────────────────────────────────────────

type darkTheme struct{}

func (darkTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	switch n {
	case theme.ColorNameBackground:
		return colBackground
	case theme.ColorNameButton:
		return colSurface
	case theme.ColorNamePrimary:
		return colAccent
	case theme.ColorNameForeground:
		return color.White
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 35, G: 45, B: 65, A: 255}
	case theme.ColorNameDisabled:
		return color.NRGBA{R: 80, G: 90, B: 110, A: 255}
	case theme.ColorNameSeparator:
		return color.NRGBA{R: 50, G: 60, B: 80, A: 255}
	}
	return theme.DefaultTheme().Color(n, v)
}

func (darkTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (darkTheme) Icon(n fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(n)
}

func (darkTheme) Size(n fyne.ThemeSizeName) float32 {
	switch n {
	case theme.SizeNamePadding:
		return 8
	case theme.SizeNameText:
		return 14
	case theme.SizeNameInlineIcon:
		return 20
	}
	return theme.DefaultTheme().Size(n)
}
