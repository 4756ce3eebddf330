package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/ogimage/fonts"
)

func (c *CLI) fontsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List the fonts available to renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tFAMILY\tWEIGHT\tGENERIC\tCOLOR\tSIZE")
			for _, r := range reg.Resources() {
				generic := "-"
				if r.Generic() != fonts.GenericNone {
					generic = r.Generic().String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%v\t%s\n", r.Name(), r.Family(), r.Weight(), generic,
					r.HasColor(), humanBytes(len(r.Data())))
			}
			return tw.Flush()
		},
	}
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
