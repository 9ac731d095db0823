package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumex/internal/server"
)

type analyzeFlags struct {
	jdText string
	jdFile string
	jdURL  string
	out    string
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze <resume>",
		Short: "Run the full analysis of a resume against a job description",
		Long: `Parse a resume, analyze a job description, score the match and suggest improvements.
The job description is given as text (--jd), a file (--jd-file) or a posting URL (--jd-url).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, filename, err := readResume(args[0])
			if err != nil {
				return err
			}
			jdText := f.jdText
			if f.jdFile != "" {
				data, err := os.ReadFile(f.jdFile)
				if err != nil {
					return fmt.Errorf("failed to read job description: %w", err)
				}
				jdText = string(data)
			}

			a, err := opts.loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			jd, err := a.ResolveJD(cmd.Context(), jdText, f.jdURL)
			if err != nil {
				return err
			}

			state, err := a.Pipeline.RunFullAnalysis(cmd.Context(), file, filename, jd, progressLogger(a.Logger))
			if err := checkRun(state, err); err != nil {
				return err
			}

			if p := opts.printer(cmd); p != nil {
				p.PrintProfile(state.Profile)
				p.PrintRequirements(state.Requirements)
				p.PrintMatch(state.Match)
				p.PrintImprovements(state.Improvements)
			}
			return writeJSON(cmd.OutOrStdout(), f.out, server.Envelope{
				Success: true,
				RunID:   state.RunID.String(),
				Data: server.FullAnalysis{
					Resume:       state.Profile,
					JDAnalysis:   state.Requirements,
					Match:        state.Match,
					Improvements: state.Improvements,
				},
				SeverityMap: state.Match.SeverityMap(),
			})
		},
	}
	cmd.Flags().StringVar(&f.jdText, "jd", "", "Job description text")
	cmd.Flags().StringVar(&f.jdFile, "jd-file", "", "Path to a job description text file")
	cmd.Flags().StringVar(&f.jdURL, "jd-url", "", "URL of a job posting to fetch")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write JSON to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-file")
	return cmd
}
