package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/catalogimport/internal/core/endpoints"
	"github.com/spf13/cobra"
)

func newEndpointsCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List import endpoints and the fields they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tCOLLECTION\tKEY FIELDS\tVERSION")
			for _, ep := range endpoints.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					ep.Key, ep.Label, ep.Collection, strings.Join(ep.NaturalKey, ","), ep.Version)
				if !verbose {
					continue
				}
				for _, f := range ep.Fields {
					req := ""
					if f.Required {
						req = "required"
					}
					fmt.Fprintf(tw, "\t  %s\t%s\t%s\t%s\n", f.Name, f.Kind, req, f.OnInvalid)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show each endpoint's fields")
	return cmd
}
