package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// command is a node of the CLI tree. Leaves set Run; inner nodes set
// Subcommands.
type command struct {
	Name        string
	Summary     string
	Usage       string
	Flags       func(fs *pflag.FlagSet)
	Run         func(ctx context.Context, fs *pflag.FlagSet, args []string) error
	Subcommands []*command
}

func (c *command) execute(ctx context.Context, out io.Writer, path string, args []string) error {
	path = strings.TrimSpace(path + " " + c.Name)

	if len(c.Subcommands) > 0 {
		if len(args) == 0 || isHelpFlag(args[0]) {
			c.printHelp(out, path)
			if len(args) == 0 {
				return fmt.Errorf("%s: subcommand required", path)
			}
			return nil
		}
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				return sub.execute(ctx, out, path, args[1:])
			}
		}
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", args[0], path)
	}

	fs := pflag.NewFlagSet(path, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if c.Flags != nil {
		c.Flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			c.printHelp(out, path)
			return nil
		}
		return fmt.Errorf("%s: %w\n\nRun '%s --help' for usage.", path, err, path)
	}
	return c.Run(ctx, fs, fs.Args())
}

func (c *command) printHelp(out io.Writer, path string) {
	usage := c.Usage
	if usage == "" {
		usage = path
		if len(c.Subcommands) > 0 {
			usage += " <command>"
		} else if c.Flags != nil {
			usage += " [flags]"
		}
	}
	fmt.Fprintf(out, "Usage: %s\n", usage)
	if c.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", c.Summary)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintln(out, "\nCommands:")
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		_ = tw.Flush()
		return
	}
	if c.Flags != nil {
		fs := pflag.NewFlagSet(path, pflag.ContinueOnError)
		c.Flags(fs)
		fmt.Fprintf(out, "\nFlags:\n%s", fs.FlagUsages())
	}
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
