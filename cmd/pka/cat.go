package main

import (
	"github.com/spf13/pflag"

	"github.com/pocketknife/pka"
)

func (a *app) catCommand() *command {
	var codecName string
	c := &command{
		name:    "cat",
		summary: "Write one entry to standard output",
		usage:   "pka cat [flags] <archive> <name>",
	}
	c.flags = func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("cat", pflag.ContinueOnError)
		codecFlag(flagSet, &codecName)
		return flagSet
	}
	c.run = func(args []string) error {
		if len(args) != 2 {
			return usageErrorf("cat: need an archive path and an entry name")
		}
		codec, err := pka.ParseIndexCodec(codecName)
		if err != nil {
			return usageErrorf("cat: %v", err)
		}
		path, err := a.path(args[0])
		if err != nil {
			return err
		}

		af, err := pka.OpenFile(a.fsys, path, pka.ReadWithCodec(codec), pka.ReadWithLogger(a.logger))
		if err != nil {
			return err
		}
		defer af.Close()

		_, err = af.ExtractTo(a.stdout, args[1])
		return err
	}
	return c
}
