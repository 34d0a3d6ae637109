package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/pocketknife/pka"
)

func (a *app) unpackCommand() *command {
	var (
		codecName string
		dir       string
		force     bool
		jobs      int
	)
	c := &command{
		name:    "unpack",
		summary: "Extract entries into a directory",
		usage:   "pka unpack [flags] <archive> [name]...",
	}
	c.flags = func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("unpack", pflag.ContinueOnError)
		codecFlag(flagSet, &codecName)
		flagSet.StringVarP(&dir, "dir", "C", ".", "directory to extract into")
		flagSet.BoolVarP(&force, "force", "f", false, "overwrite existing files")
		flagSet.IntVarP(&jobs, "jobs", "j", 1, "number of entries extracted in parallel")
		return flagSet
	}
	c.run = func(args []string) error {
		if len(args) < 1 {
			return usageErrorf("unpack: need an archive path")
		}
		if jobs < 1 {
			return usageErrorf("unpack: --jobs must be at least 1")
		}
		codec, err := pka.ParseIndexCodec(codecName)
		if err != nil {
			return usageErrorf("unpack: %v", err)
		}
		archive, err := a.path(args[0])
		if err != nil {
			return err
		}
		outDir, err := a.path(dir)
		if err != nil {
			return err
		}

		af, err := pka.OpenFile(a.fsys, archive, pka.ReadWithCodec(codec), pka.ReadWithLogger(a.logger))
		if err != nil {
			return err
		}
		idx := af.Index()
		if err := af.Close(); err != nil {
			return err
		}

		names := args[1:]
		if len(names) == 0 {
			names = idx.Names()
		}
		for _, name := range names {
			if _, ok := idx.Lookup(name); !ok {
				return &pka.ExtractError{Step: pka.StepNotFound, Name: name, Err: pka.ErrNotFound}
			}
			if !filepath.IsLocal(filepath.FromSlash(name)) {
				return &exitError{code: exitExtract, err: fmt.Errorf("refusing to unpack %q: not a local path", name)}
			}
		}

		u := &unpacker{app: a, archive: archive, idx: idx, dir: outDir, force: force}
		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(jobs)
		for _, name := range names {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return u.unpack(name)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		a.logger.Info("archive unpacked", "path", archive, "entries", len(names), "dir", outDir)
		return nil
	}
	return c
}

// unpacker extracts entries of one archive. Each call opens its own handle
// on the archive so workers never share a stream position.
type unpacker struct {
	*app
	archive string
	idx     *pka.Index
	dir     string
	force   bool
}

func (u *unpacker) unpack(name string) error {
	src, err := u.fsys.Open(u.archive)
	if err != nil {
		return err
	}
	defer src.Close()

	target := filepath.Join(u.dir, filepath.FromSlash(name))
	if parent := filepath.Dir(target); parent != "." {
		if err := u.fsys.MkdirAll(parent, 0o755); err != nil {
			return err
		}
	}
	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if u.force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	} else {
		// Not every billy filesystem honors O_EXCL.
		if _, err := u.fsys.Stat(target); err == nil {
			return &fs.PathError{Op: "unpack", Path: target, Err: fs.ErrExist}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	dst, err := u.fsys.OpenFile(target, flag, 0o644)
	if err != nil {
		return fmt.Errorf("unpack %q: %w", name, err)
	}

	n, err := u.idx.ExtractTo(dst, src, name)
	if err != nil {
		dst.Close()
		u.fsys.Remove(target)
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	u.logger.Debug("entry unpacked", "name", name, "path", target, "bytes", n)
	return nil
}
