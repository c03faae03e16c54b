package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/itsmostafa/textindex/internal/query"
	"github.com/spf13/cobra"
)

var queryParse parseFlags
var queryScript string

var queryCmd = &cobra.Command{
	Use:   "query [expression] [files...]",
	Short: "Run a JavaScript expression against the compiled index",
	Long: `Compile documents and evaluate JavaScript against the result.

Globals:
  index     bucket letter -> array of entries
  tree      heading hierarchy as nested objects
  entries   every entry in document order
  paths     full path of every heading leaf
  letters   bucket letters in order
  lookup(l) index entries labelled l, ignoring case
  print, console.log, re.findAll, re.test

Example:
  textindex query 'index.A.map(e => e.label)' book.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := queryParse.apply(cmd, cfg); err != nil {
			return err
		}

		code := queryScript
		if code != "" {
			data, err := os.ReadFile(queryScript)
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			code = string(data)
		} else {
			if len(args) == 0 {
				return errors.New("an expression or --script is required")
			}
			code, args = args[0], args[1:]
		}

		res, err := compileFiles(cmd.Context(), cmd, args)
		if err != nil {
			return err
		}
		if err := reportDiagnostics(cmd, res); err != nil {
			return err
		}
		if err := res.Err(); err != nil {
			return err
		}

		timeout, err := cfg.QueryTimeout()
		if err != nil {
			return err
		}
		config := query.DefaultConfig()
		config.Timeout = timeout
		executor := query.NewExecutor(query.NewEnvironment(res.Builder), config)

		out := executor.Execute(cmd.Context(), code)
		if out.Output != "" {
			fmt.Fprintln(cmd.OutOrStdout(), out.Output)
		}
		if out.Truncated {
			fmt.Fprintln(cmd.ErrOrStderr(), "output truncated")
		}
		return out.Error
	},
}

func init() {
	queryParse.register(queryCmd)
	queryCmd.Flags().StringVarP(&queryScript, "script", "s", "", "Read the JavaScript from this file")

	rootCmd.AddCommand(queryCmd)
}
