package preview

import (
	"errors"
	"fmt"
)

var (
	// ErrHelperMissing means the external program a strategy needs is not on
	// $PATH. The factory falls through to the next rule when it sees it.
	ErrHelperMissing = errors.New("helper program not found")
	// ErrUnsupported means no strategy applies to the path.
	ErrUnsupported = errors.New("nothing to preview")
)

// BuildError reports a strategy that ran and failed.
type BuildError struct {
	Strategy string
	Path     string
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s preview of %s: %v", e.Strategy, e.Path, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func missingHelper(name string) error {
	return fmt.Errorf("%s: %w", name, ErrHelperMissing)
}
