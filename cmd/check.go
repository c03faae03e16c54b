package cmd

import (
	"errors"
	"fmt"

	"github.com/itsmostafa/textindex/internal/render"
	"github.com/spf13/cobra"
)

var checkParse parseFlags
var checkQuiet bool

var errCheckFailed = errors.New("check failed")

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report markup diagnostics without printing the index",
	Long: `Parse documents and report lexical, syntax and structural diagnostics.
Exits non-zero when a document has a syntax error or could not be indexed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkParse.apply(cmd, cfg); err != nil {
			return err
		}

		res, err := compileFiles(cmd.Context(), cmd, args)
		if err != nil {
			return err
		}
		if err := reportDiagnostics(cmd, res); err != nil {
			return err
		}

		if !checkQuiet {
			w := cmd.OutOrStdout()
			if err := render.Summary(w, res.Documents, len(res.Builder.Entries()), len(res.Diagnostics), render.ColorEnabled(cfg.Output.Color, w)); err != nil {
				return err
			}
		}
		if res.HasErrors() {
			if err := res.Err(); err != nil {
				return fmt.Errorf("%w: %w", errCheckFailed, err)
			}
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	checkParse.register(checkCmd)
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Only print diagnostics")

	rootCmd.AddCommand(checkCmd)
}
