package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MihkelHunter/kaamtamam/internal/todo"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the repository for backend rooted at path.
func Open(backend, path string) (todo.Repository, error) {
	switch backend {
	case "", BackendFile:
		f, err := NewFile(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}
