package dataset

import (
	"errors"
	"fmt"
)

// ErrLoadTimeout is wrapped by a ResourceError when the dataset load
// does not finish within Options.LoadTimeout.
var ErrLoadTimeout = errors.New("dataset load timed out")

// ErrMemoryBudget is wrapped by a ResourceError when the dataset is larger
// than Options.MaxResidentBytes.
var ErrMemoryBudget = errors.New("dataset exceeds memory budget")

// ResourceError reports a dataset that is missing, corrupt, too large or
// unreadable. It is fatal for a pipeline run.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("dataset %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// IsResourceError reports whether err carries a ResourceError.
func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
