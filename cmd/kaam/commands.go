package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/MihkelHunter/kaamtamam/internal/export"
	"github.com/MihkelHunter/kaamtamam/internal/todo"
)

func (a *app) addCmd() *cobra.Command {
	var due, priority string
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Example: `  kaam add Buy milk --due tomorrow --priority high
  kaam add "File taxes" --due 2026-04-30 -p 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.parseDue(due)
			if err != nil {
				return err
			}
			p, err := parsePriority(priority)
			if err != nil {
				return err
			}
			t, err := a.store.Create(strings.Join(args, " "), d, p)
			if t.ID == 0 {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d · %s\n", t.ID, t.Title)
			return explain(err)
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringVarP(&priority, "priority", "p", "2", "priority: 1-3 or low, med, high")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var status, search, sortBy string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(status, search, sortBy)
			if err != nil {
				return err
			}
			return a.list(cmd, q)
		},
	}
	addQueryFlags(cmd, &status, &search)
	cmd.Flags().StringVar(&sortBy, "sort", "id", "sort by id, title, due, priority, created or order")
	return cmd
}

func addQueryFlags(cmd *cobra.Command, status, search *string) {
	cmd.Flags().StringVar(status, "status", "all", "show all, pending or done tasks")
	cmd.Flags().StringVarP(search, "search", "s", "", "only titles containing this text")
}

func buildQuery(status, search, sortBy string) (todo.Query, error) {
	st, err := todo.ParseStatus(status)
	if err != nil {
		return todo.Query{}, err
	}
	key, err := todo.ParseSortKey(sortBy)
	if err != nil {
		return todo.Query{}, err
	}
	return todo.Query{Status: st, Search: search, Sort: key}, nil
}

func (a *app) list(cmd *cobra.Command, q todo.Query) error {
	out := cmd.OutOrStdout()
	today := a.store.Today()
	n := 0
	for t := range a.store.Query(q) {
		fmt.Fprintln(out, renderTask(t, today))
		n++
	}
	if n == 0 {
		fmt.Fprintln(out, "No tasks match this view.")
	}
	total, done := a.store.Stats()
	fmt.Fprintln(out, renderFooter(total, done))
	return nil
}

func (a *app) doneCmd(done bool) *cobra.Command {
	use, short := "done [id...]", "Mark tasks done"
	if !done {
		use, short = "undo [id...]", "Mark tasks pending again"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: a.eachID(func(id int) error {
			return a.store.SetDone(id, done)
		}),
	}
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [id] [title]",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.existingID(args[0])
			if err != nil {
				return err
			}
			return explain(a.store.SetTitle(id, strings.Join(args[1:], " ")))
		},
	}
}

func (a *app) dueCmd() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "due [id] [date]",
		Short: "Set or clear a due date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.existingID(args[0])
			if err != nil {
				return err
			}
			if clear || len(args) == 1 {
				return explain(a.store.ClearDue(id))
			}
			d, err := a.parseDue(args[1])
			if err != nil {
				return err
			}
			return explain(a.store.SetDue(id, d))
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "remove the due date")
	return cmd
}

func (a *app) priorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "priority [id] [1-3|low|med|high]",
		Short: "Change a task's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.existingID(args[0])
			if err != nil {
				return err
			}
			p, err := parsePriority(args[1])
			if err != nil {
				return err
			}
			return explain(a.store.SetPriority(id, p))
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id...]",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: a.eachID(func(id int) error {
			return a.store.Delete(id)
		}),
	}
}

func (a *app) moveCmd() *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "move [id...]",
		Short: "Reorder tasks within a view",
		Long: `Puts the given tasks first, in the given order, ahead of the rest of the
view selected by --status and --search. Tasks outside the view keep their
relative order after it.`,
		Example: "  kaam move 4 2 --status pending",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(status, search, "id")
			if err != nil {
				return err
			}
			visible := a.store.Visible(q)
			order := make([]int, 0, len(visible))
			picked := make(map[int]bool, len(args))
			for _, arg := range args {
				id, err := a.existingID(arg)
				if err != nil {
					return err
				}
				if !slices.Contains(visible, id) {
					return fmt.Errorf("task #%d is not in this view", id)
				}
				order = append(order, id)
				picked[id] = true
			}
			for _, id := range visible {
				if !picked[id] {
					order = append(order, id)
				}
			}
			if err := a.store.Reorder(order); err != nil {
				return explain(err)
			}
			return a.list(cmd, todo.Query{Status: q.Status, Search: q.Search, Sort: todo.SortOrder})
		},
	}
	addQueryFlags(cmd, &status, &search)
	return cmd
}

func (a *app) allDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all-done",
		Short: "Mark every task done",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return explain(a.store.MarkAllDone())
		},
	}
}

func (a *app) clearDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-done",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			before, _ := a.store.Stats()
			if err := a.store.ClearCompleted(); err != nil {
				return explain(err)
			}
			after, _ := a.store.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed tasks\n", before-after)
			return nil
		},
	}
}

func (a *app) todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show pending tasks due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			due := a.store.DueToday()
			if len(due) == 0 {
				fmt.Fprintln(out, "Nothing due today.")
				return nil
			}
			for _, t := range due {
				fmt.Fprintf(out, "#%d · %s\n", t.ID, t.Title)
			}
			return nil
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var formats []string
	var out, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as csv, xlsx, json or pdf",
		Example: `  kaam export -f xlsx -o week.xlsx
  kaam export -f csv -o - | head
  kaam export -f csv,xlsx,pdf --dir reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp := export.NewExporter(a.store)
			if len(formats) > 1 {
				if out != "" {
					return fmt.Errorf("--out takes a single format, use --dir for several")
				}
				paths, err := exp.ExportAll(cmd.Context(), dir, formats)
				if err != nil {
					return fmt.Errorf("export: %w", err)
				}
				for _, p := range paths {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported -> %s\n", p)
				}
				return nil
			}

			format := export.FormatCSV
			if len(formats) == 1 {
				format = formats[0]
			}
			b, err := exp.Export(format)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(b)
				return err
			}
			if out == "" {
				out = filepath.Join(dir, export.FileName(format))
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported -> %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&formats, "format", "f", []string{export.FormatCSV}, "export formats: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout (default <dir>/tasks.<format>)")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory for default file names")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

// eachID applies fn to every id argument, stopping at the first failure.
func (a *app) eachID(fn func(id int) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			id, err := a.existingID(arg)
			if err != nil {
				return err
			}
			if err := fn(id); err != nil {
				return explain(err)
			}
		}
		return nil
	}
}

// existingID parses arg and checks the task exists. The store itself ignores
// unknown ids; the command line reports them.
func (a *app) existingID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	if _, ok := a.store.Get(id); !ok {
		return 0, fmt.Errorf("no task #%d", id)
	}
	return id, nil
}

func (a *app) parseDue(s string) (civil.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return civil.Date{}, nil
	case "today":
		return a.store.Today(), nil
	case "tomorrow":
		return a.store.Today().AddDays(1), nil
	}
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid due date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// parsePriority accepts a number, which the store clamps, or a level name.
func parsePriority(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return int(todo.PriorityLow), nil
	case "med", "medium", "m":
		return int(todo.PriorityMedium), nil
	case "high", "h":
		return int(todo.PriorityHigh), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid priority %q", s)
	}
	return n, nil
}
