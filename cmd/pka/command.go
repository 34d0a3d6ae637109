package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is one pka subcommand.
type command struct {
	name    string
	summary string
	usage   string

	// flags returns a fresh flag set bound to the command's parameters.
	flags func() *pflag.FlagSet

	// run executes the command with the positional arguments left after
	// flag parsing.
	run func(args []string) error
}

func (a *app) commands() []*command {
	return []*command{
		a.packCommand(),
		a.infoCommand(),
		a.unpackCommand(),
		a.catCommand(),
	}
}

// execute dispatches args to a subcommand.
func (a *app) execute(args []string) error {
	if len(args) == 0 {
		a.printHelp(a.stderr)
		return usageErrorf("command required")
	}
	switch args[0] {
	case "-h", "--help", "help":
		a.printHelp(a.stdout)
		return nil
	case "--version", "version":
		fmt.Fprintf(a.stdout, "pka %s\n", version)
		return nil
	}

	for _, c := range a.commands() {
		if c.name == args[0] {
			return c.execute(a, args[1:])
		}
	}
	return usageErrorf("unknown command %q\n\nRun 'pka --help' for usage.", args[0])
}

func (c *command) execute(a *app, args []string) error {
	flagSet := c.flags()
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.printHelp(a.stdout)
			return nil
		}
		return usageErrorf("%v\n\nRun 'pka %s --help' for usage.", err, c.name)
	}

	err := c.run(flagSet.Args())
	if err == nil {
		return nil
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return err
	}
	return &exitError{code: exitCodeFor(err), err: err}
}

func (a *app) printHelp(w io.Writer) {
	fmt.Fprintf(w, "pka packs named files into a Pocket Knife Archive and reads them back.\n\n")
	fmt.Fprintf(w, "Usage:\n  pka <command> [flags]\n\nCommands:\n")
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, c := range a.commands() {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nSet PKA_DEBUG=1 for debug logging.\n")
	fmt.Fprintf(w, "Run 'pka <command> --help' for more information on a command.\n")
}

func (c *command) printHelp(w io.Writer) {
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", c.summary, c.usage)
	var flagHelp strings.Builder
	flagSet := c.flags()
	flagSet.SetOutput(&flagHelp)
	flagSet.PrintDefaults()
	if flagHelp.Len() > 0 {
		fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
	}
}

// codecFlag registers the shared --codec flag.
func codecFlag(flagSet *pflag.FlagSet, target *string) {
	flagSet.StringVar(target, "codec", "bincode", "index encoding: bincode, flatbuffers or cbor")
}
