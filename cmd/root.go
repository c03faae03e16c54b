package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/itsmostafa/textindex/internal/config"
	"github.com/itsmostafa/textindex/internal/logging"
	"github.com/itsmostafa/textindex/internal/version"
	"github.com/spf13/cobra"
)

var (
	projectDir string
	logLevel   string
	logFormat  string
	logFile    string

	cfg        *config.Config
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "textindex",
	Short: "Compile TextIndex markup into a book index",
	Long: `textindex reads documents annotated with TextIndex markup, such as
{^Fruit>Apples} marks and {index term="apple"} directives, and compiles them
into an alphabetical index with a heading hierarchy.

Settings come from ~/.config/textindex/config.yaml, .textindex.yaml in the
project directory, and TEXTINDEX_* environment variables, in that order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(projectDir)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.Log.Format = logFormat
		}
		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, cleanup, err := logging.Setup(logging.Config{
			Level:    cfg.Log.Level,
			Format:   cfg.Log.Format,
			FilePath: cfg.Log.File,
			Output:   cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		logCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logCleanup()
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("textindex %s\n", version.String()))

	defaults := logging.DefaultConfig()
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory to load .textindex.yaml from")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.Level, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaults.Format, "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
