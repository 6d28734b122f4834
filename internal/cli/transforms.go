package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rshade/batchkit/internal/transform"
)

func newTransformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transforms",
		Short: "List built-in transforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, tabwriterPadding, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tARG\tDESCRIPTION")
			for _, spec := range transform.All() {
				arg := "-"
				if spec.NeedsArg {
					arg = "required"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", spec.Name, arg, spec.Description)
			}
			return tw.Flush()
		},
	}
}
