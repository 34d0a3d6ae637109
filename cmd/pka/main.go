// Command pka packs, inspects and unpacks Pocket Knife Archives.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	billy "gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	a := &app{
		fsys:   osfs.New("/"),
		abs:    filepath.Abs,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: newLogger(os.Stderr, os.Getenv("PKA_DEBUG")),
	}
	if err := a.execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(exitUnexpected)
	}
}

// app carries the process environment shared by every subcommand.
type app struct {
	fsys billy.Filesystem
	// abs turns a command-line path into a path inside fsys.
	abs    func(string) (string, error)
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// path resolves a command-line path, reporting failures as host errors.
func (a *app) path(p string) (string, error) {
	resolved, err := a.abs(p)
	if err != nil {
		return "", &exitError{code: exitHostFS, err: err}
	}
	return resolved, nil
}

// newLogger returns a text logger on w. Any value of debug other than ""
// or "0" enables debug output.
func newLogger(w io.Writer, debug string) *slog.Logger {
	level := slog.LevelInfo
	if debug != "" && debug != "0" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
