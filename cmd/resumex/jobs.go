package main

import (
	"github.com/spf13/cobra"
)

func newJobsCmd(opts *rootOptions) *cobra.Command {
	var (
		limit int
		out   string
	)

	cmd := &cobra.Command{
		Use:   "jobs <resume>",
		Short: "Search job boards for listings matching a resume",
		Long:  "Parse a resume, query every configured job board with its top skills and rank the merged listings by similarity to the profile.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, filename, err := readResume(args[0])
			if err != nil {
				return err
			}

			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if !cmd.Flags().Changed("limit") {
				limit = a.Config.Jobs.DefaultLimit
			}
			state, err := a.Pipeline.RunJobSearch(cmd.Context(), file, filename, limit, progressLogger(a.Logger))
			if err := checkRun(state, err); err != nil {
				return err
			}

			if p := opts.printer(cmd); p != nil {
				p.PrintJobs(state.Jobs)
			}
			return writeJSON(cmd.OutOrStdout(), out, state.Jobs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of listings (overrides jobs.default_limit)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}
