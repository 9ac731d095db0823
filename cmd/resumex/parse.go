package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "parse <resume>",
		Short: "Parse a resume into structured profile JSON",
		Long:  "Extract text from a PDF, DOCX or TXT resume and parse it into a structured profile.",
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

			state, err := a.Pipeline.RunResumeOnly(cmd.Context(), file, filename, progressLogger(a.Logger))
			if err := checkRun(state, err); err != nil {
				return err
			}
			if p := opts.printer(cmd); p != nil {
				p.PrintProfile(state.Profile)
			}
			return writeJSON(cmd.OutOrStdout(), out, state.Profile)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write JSON to this file instead of stdout")
	return cmd
}

// readResume loads a resume document; the pipeline picks the reader by extension
func readResume(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read resume: %w", err)
	}
	return data, filepath.Base(path), nil
}
