package main

import (
	"github.com/spf13/pflag"

	"github.com/pocketknife/pka"
)

func (a *app) infoCommand() *command {
	var codecName, format, alg string
	c := &command{
		name:    "info",
		summary: "List the entries of an archive",
		usage:   "pka info [flags] <archive>",
	}
	c.flags = func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
		codecFlag(flagSet, &codecName)
		flagSet.StringVar(&format, "format", formatText, "output format: text, json or yaml")
		flagSet.StringVar(&alg, "digest", digestNone, "payload digest: none, sha256 or blake3")
		return flagSet
	}
	c.run = func(args []string) error {
		if len(args) != 1 {
			return usageErrorf("info: need exactly one archive path")
		}
		codec, err := pka.ParseIndexCodec(codecName)
		if err != nil {
			return usageErrorf("info: %v", err)
		}
		switch format {
		case formatText, formatJSON, formatYAML:
		default:
			return usageErrorf("info: unknown format %q", format)
		}
		switch alg {
		case digestNone, digestSHA256, digestBLAKE3:
		default:
			return usageErrorf("info: unknown digest %q", alg)
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

		r := newReport(args[0], codec, af.Index())
		if err := r.addDigests(af.Archive, alg); err != nil {
			return err
		}
		return writeReport(a.stdout, r, format)
	}
	return c
}
