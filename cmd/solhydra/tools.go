package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List enabled analysis tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOUTPUT\tIMAGE")
			for _, sp := range reg.Specs() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", sp.Name, sp.ContentType, sp.Image)
			}
			return w.Flush()
		},
	}
}
