package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/getcanon/canon/bundle"
)

// inspectCmd prints the contents of a bundle artifact, or of the builtin
// bundle when no path is given.
var inspectCmd = &cobra.Command{
	Use:   "inspect [artifact]",
	Short: "Show the providers and signatures inside a bundle",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			b   *bundle.Bundle
			err error
		)
		if len(args) == 1 {
			b, err = bundle.LoadFile(args[0])
		} else {
			b, err = bundle.Builtin()
		}
		if err != nil {
			return err
		}

		fmt.Printf("format_version: %s\n", b.FormatVersion)
		fmt.Printf("compiled_at:    %s\n", b.CompiledAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Printf("providers:      %d\n\n", len(b.Providers()))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROVIDER\tPRIORITY\tRULES\tMAPPINGS\tSIGNATURE")
		for _, p := range b.Providers() {
			for i, shape := range p.Signature {
				if i == 0 {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
						p.ID, p.Priority, len(p.Rules), len(p.Mappings), shape)
					continue
				}
				fmt.Fprintf(w, "\t\t\t\t%s\n", shape)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
