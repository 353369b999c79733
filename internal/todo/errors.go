package todo

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by every input validation failure. A failed validation
// leaves the store untouched and persists nothing.
var ErrValidation = errors.New("invalid task")

var (
	ErrEmptyTitle     = fmt.Errorf("%w: empty title not allowed", ErrValidation)
	ErrDuplicateTitle = fmt.Errorf("%w: task already exists", ErrValidation)
)

// ErrUnsaved is returned by Reload while in-memory changes have not reached disk.
var ErrUnsaved = errors.New("changes not saved")

// PersistenceError reports a failed write of the task document. The in-memory change
// that triggered the write is kept; Store.Save retries it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("changes not saved (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
