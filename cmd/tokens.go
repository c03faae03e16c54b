package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/itsmostafa/textindex/internal/markup"
	"github.com/spf13/cobra"
)

var tokensProse bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the token stream of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		var opts []markup.Option
		if tokensProse {
			opts = append(opts, markup.WithProse())
		}
		toks, lexErrs := markup.Tokenize(string(data), opts...)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, tok := range toks {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", tok.Line, tok.Kind, tok)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		for _, le := range lexErrs {
			fmt.Fprintln(cmd.ErrOrStderr(), le)
		}
		if len(lexErrs) > 0 {
			return fmt.Errorf("%d lexical errors", len(lexErrs))
		}
		return nil
	},
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensProse, "prose", false, "Treat text outside braces as plain words")

	rootCmd.AddCommand(tokensCmd)
}
