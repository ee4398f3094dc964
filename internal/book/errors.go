package book

import (
	"errors"
	"fmt"
)

var (
	// ErrFileOpen is returned when a book file cannot be opened or created.
	ErrFileOpen = errors.New("book file open failed")
	// ErrFileRead is returned when reading a book file fails midway.
	ErrFileRead = errors.New("book file read failed")
	// ErrFileWrite is returned when writing a book file fails.
	ErrFileWrite = errors.New("book file write failed")
	// ErrLazyCompressed is returned when lazy access is requested for a
	// compressed file, which cannot be bisected.
	ErrLazyCompressed = errors.New("lazy access needs an uncompressed book file")
)

// FileError records the failed operation and path. It unwraps to both the
// sentinel kind and the underlying cause.
type FileError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
