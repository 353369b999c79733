package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MihkelHunter/kaamtamam/internal/config"
	"github.com/MihkelHunter/kaamtamam/internal/logging"
	"github.com/MihkelHunter/kaamtamam/internal/store"
	"github.com/MihkelHunter/kaamtamam/internal/todo"
)

// app carries what every subcommand needs once the root command has set it up.
type app struct {
	configPath string
	dataFile   string
	backend    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	store  *todo.Store
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "kaam",
		Short: "KaamTamam - a small task list kept in a local file",
		Long: `kaam manages a single-user task list stored as one JSON document
(or a SQLite database). Every change is written to disk immediately.

Run without arguments to list pending and completed tasks.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.teardown() },
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd, todo.Query{})
		},
	}

	defaultConfig, _ := config.GetConfigPath()
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfig, "config file (.yaml or .toml)")
	root.PersistentFlags().StringVar(&a.dataFile, "data", "", "task document path (overrides config)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "storage backend: file or sqlite (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.doneCmd(true),
		a.doneCmd(false),
		a.editCmd(),
		a.dueCmd(),
		a.priorityCmd(),
		a.rmCmd(),
		a.moveCmd(),
		a.allDoneCmd(),
		a.clearDoneCmd(),
		a.todayCmd(),
		a.exportCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataFile != "" {
		cfg.DataFile = a.dataFile
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	a.cfg = cfg

	a.logger, err = logging.New(logging.Options{
		Level:   cfg.LogLevel,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
		Verbose: a.verbose,
	})
	if err != nil {
		return err
	}

	repo, err := store.Open(cfg.Backend, cfg.DataFile)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	a.store = todo.NewStore(repo, todo.WithLogger(a.logger.Named("store")))
	return nil
}

func (a *app) teardown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store failed", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// explain turns store errors into messages for the terminal.
func explain(err error) error {
	var perr *todo.PersistenceError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &perr):
		return fmt.Errorf("changes not saved: %v", perr.Err)
	case errors.Is(err, todo.ErrDuplicateTitle):
		return errors.New("task already exists")
	case errors.Is(err, todo.ErrEmptyTitle):
		return errors.New("title cannot be empty")
	}
	return err
}
