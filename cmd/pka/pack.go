package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/pocketknife/pka"
)

func (a *app) packCommand() *command {
	var (
		codecName    string
		trustLengths bool
	)
	c := &command{
		name:    "pack",
		summary: "Create an archive from files",
		usage:   "pka pack [flags] <archive> <input>...",
	}
	c.flags = func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("pack", pflag.ContinueOnError)
		codecFlag(flagSet, &codecName)
		flagSet.BoolVar(&trustLengths, "trust-lengths", false, "record reported sizes without checking the written length")
		return flagSet
	}
	c.run = func(args []string) error {
		if len(args) < 2 {
			return usageErrorf("pack: need an archive path and at least one input")
		}
		codec, err := pka.ParseIndexCodec(codecName)
		if err != nil {
			return usageErrorf("pack: %v", err)
		}

		archive, err := a.path(args[0])
		if err != nil {
			return err
		}
		producers := make([]pka.Producer, 0, len(args)-1)
		for _, input := range args[1:] {
			p, err := a.path(input)
			if err != nil {
				return err
			}
			producers = append(producers, pka.FileProducer(a.fsys, p))
		}

		opts := []pka.CreateOption{
			pka.CreateWithCodec(codec),
			pka.CreateWithLogger(a.logger),
			pka.CreateWithProgress(func(ev pka.ProgressEvent) {
				a.logger.Debug("pack progress",
					"stage", ev.Stage.String(),
					"name", ev.Name,
					"items", ev.ItemsDone,
					"total", ev.ItemsTotal,
					"bytes", humanize.IBytes(ev.BytesDone))
			}),
		}
		if trustLengths {
			opts = append(opts, pka.CreateWithLengthCheck(pka.LengthCheckNone))
		}

		idx, err := pka.CreateFile(a.fsys, archive, producers, opts...)
		if err != nil {
			return err
		}
		a.logger.Info("archive written",
			"path", archive,
			"entries", idx.Len(),
			"data", humanize.IBytes(idx.DataSize()))
		return writeText(a.stdout, newReport(args[0], codec, idx))
	}
	return c
}
