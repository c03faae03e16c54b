package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/itsmostafa/textindex/internal/index"
	"github.com/itsmostafa/textindex/internal/render"
	"github.com/spf13/cobra"
)

var buildParse parseFlags
var buildFormat string
var buildColor string
var buildTree bool
var buildEntries bool
var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build [files...]",
	Short: "Compile documents into an index",
	Long: `Compile one or more documents into a single index and print it.
Documents are read in order as chapters of one book; with no files, standard
input is read. The index goes to standard output unless --output names a
file. Diagnostics go to standard error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := buildParse.apply(cmd, cfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("format") {
			cfg.Output.Format = buildFormat
		}
		if cmd.Flags().Changed("color") {
			cfg.Output.Color = buildColor
		}
		if cmd.Flags().Changed("tree") {
			cfg.Output.Tree = buildTree
		}
		if err := cfg.Validate(); err != nil {
			return err
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

		if buildOutput == "" || buildOutput == "-" {
			return renderBuild(cmd.OutOrStdout(), res.Builder)
		}
		f, err := os.Create(buildOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := renderBuild(f, res.Builder); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("index written", slog.String("path", buildOutput))
		return nil
	},
}

func renderBuild(w io.Writer, b *index.Builder) error {
	return render.Render(w, b, render.Options{
		Format:  cfg.Output.Format,
		Color:   render.ColorEnabled(cfg.Output.Color, w),
		Tree:    cfg.Output.Tree,
		Entries: buildEntries,
	})
}

func init() {
	buildParse.register(buildCmd)
	buildCmd.Flags().StringVarP(&buildFormat, "format", "f", "text", "Output format (text, json, yaml)")
	buildCmd.Flags().StringVar(&buildColor, "color", "auto", "Color output (auto, always, never)")
	buildCmd.Flags().BoolVar(&buildTree, "tree", false, "Include the heading hierarchy")
	buildCmd.Flags().BoolVar(&buildEntries, "entries", false, "Include every entry in JSON and YAML output")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Write the index to this file instead of standard output")

	rootCmd.AddCommand(buildCmd)
}
