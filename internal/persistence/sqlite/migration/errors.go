package migration

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels the runner wraps. Match them with errors.Is.
var (
	// ErrMigrationFailed marks a statement the database rejected.
	ErrMigrationFailed = errors.New("migration execution failed")
	// ErrInvalidMigrationFile marks an embedded file the scanner refused.
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	// ErrVersionConflict marks a schema_migrations table that does not fit
	// the embedded files, such as a gap or a version no longer shipped.
	ErrVersionConflict = errors.New("migration version conflict")
	// ErrInvalidVersion marks a non-numeric version.
	ErrInvalidVersion = errors.New("invalid migration version")
	// ErrDuplicateVersion marks two files claiming one version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch marks an applied file that was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// Error locates a runner failure: which version and file, which step, and
// the statement when the database rejected one.
type Error struct {
	Version string
	Path    string
	Step    string
	Query   string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("migration")
	if e.Version != "" {
		b.WriteString(" " + e.Version)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	fmt.Fprintf(&b, ": %s: %v", e.Step, e.Err)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func fileError(path, step string, err error) *Error {
	return &Error{Path: path, Step: step, Err: err}
}

func versionError(version, path, step string, err error) *Error {
	return &Error{Version: version, Path: path, Step: step, Err: err}
}

func dbError(version, query, step string, err error) *Error {
	return &Error{Version: version, Query: query, Step: step, Err: err}
}
