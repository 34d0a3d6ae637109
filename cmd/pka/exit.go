package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pocketknife/pka"
)

// Exit codes.
const (
	exitOK         = 0
	exitUnexpected = 1
	exitUsage      = 2
	exitCreate     = 3
	exitRead       = 4
	exitNotFound   = 5
	exitExtract    = 6
	exitHostFS     = 7
)

// exitError attaches a process exit code to an error.
// main checks for the ExitCode method on returned errors.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode returns the process exit status for the error.
func (e *exitError) ExitCode() int { return e.code }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

// exitCodeFor classifies err by the archive operation that produced it.
func exitCodeFor(err error) int {
	var (
		ce *pka.CreateError
		re *pka.ReadError
		ee *pka.ExtractError
		pe *fs.PathError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		if ee.Step == pka.StepNotFound {
			return exitNotFound
		}
		return exitExtract
	case errors.As(err, &ce):
		return exitCreate
	case errors.As(err, &re):
		return exitRead
	case errors.As(err, &pe),
		errors.Is(err, fs.ErrExist),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return exitHostFS
	default:
		return exitUnexpected
	}
}
