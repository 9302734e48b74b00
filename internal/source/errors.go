package source

import (
	"errors"
	"fmt"
)

var (
	// ErrUserCancelled means the user dismissed the selection. Callers treat it
	// as an absent result rather than a failure.
	ErrUserCancelled = errors.New("selection cancelled")

	// ErrReadFailed wraps I/O faults while reading the selection.
	ErrReadFailed = errors.New("read failed")

	// ErrUnsupportedSelection rejects media types outside plain text, PDF and EPUB.
	ErrUnsupportedSelection = errors.New("unsupported selection")

	// ErrTooLarge means a stream exceeded its read limit.
	ErrTooLarge = errors.New("document exceeds size limit")
)

// IsCancelled reports whether err is a cancelled selection.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}

func readFailed(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrReadFailed, name, err)
}
