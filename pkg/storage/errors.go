package storage

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a required blob is absent from the work directory.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob '%s' not found", e.Name)
}

// CorruptError indicates a blob decoded with an unrecoverable error.
type CorruptError struct {
	Name string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("blob '%s' is corrupt: %v", e.Name, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// LockError indicates an advisory lock could not be acquired.
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("failed to lock '%s': %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }

// UnknownRefError indicates a hash prefix matched no block on disk.
type UnknownRefError struct {
	Prefix string
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("no block found matching prefix '%s'", e.Prefix)
}

// AmbiguousRefError indicates a hash prefix matched more than one block.
type AmbiguousRefError struct {
	Prefix     string
	Candidates []string
}

func (e *AmbiguousRefError) Error() string {
	return fmt.Sprintf("ambiguous hash prefix '%s': matches %s",
		e.Prefix, strings.Join(e.Candidates, " and "))
}
