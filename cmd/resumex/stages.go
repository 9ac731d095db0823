package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumex/internal/pipeline"
	"github.com/jonathan/resumex/internal/pipeline/steps"
)

func newStagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages [variant]",
		Short: "List pipeline variants and their stages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variants := make([]pipeline.Variant, 0, len(pipeline.VariantSteps))
			for v := range pipeline.VariantSteps {
				variants = append(variants, v)
			}
			slices.Sort(variants)

			if len(args) == 1 {
				v := pipeline.Variant(args[0])
				if _, ok := pipeline.VariantSteps[v]; !ok {
					return fmt.Errorf("unknown pipeline variant: %s", v)
				}
				variants = []pipeline.Variant{v}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range variants {
				fmt.Fprintf(tw, "%s\n", v)
				for i, name := range pipeline.VariantSteps[v] {
					def, err := steps.Lookup(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "  %d. %s\t%s\t-> %s\t(needs %s)\n",
						i+1, def.Name, def.Label, def.Completed, strings.Join(def.Requires, ", "))
				}
			}
			return tw.Flush()
		},
	}
}
