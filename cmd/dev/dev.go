// Package dev implements developer tooling subcommands for Lox.
package dev

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/lox/natives"
	"github.com/urfave/cli/v3"
)

// Command returns the "dev" CLI command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Developer tools for Lox",
		Commands: []*cli.Command{
			nativesCommand(),
		},
	}
}

func nativesCommand() *cli.Command {
	return &cli.Command{
		Name:      "natives",
		Usage:     "List the native functions defined in every session",
		ArgsUsage: "[module]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			names := natives.Names()
			if cmd.NArg() > 0 {
				names = cmd.Args().Slice()
			}
			for _, name := range names {
				m, ok := natives.Get(name)
				if !ok {
					return fmt.Errorf("unknown module %q", name)
				}
				fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", m.Name, m.Doc)
				for _, f := range m.Funcs {
					args := make([]string, len(f.Args))
					for i, a := range f.Args {
						args[i] = a.String()
					}
					fmt.Fprintf(cmd.Root().Writer, "  %s(%s)  %s\n", f.Name, strings.Join(args, ", "), f.Doc)
				}
			}
			return nil
		},
	}
}
