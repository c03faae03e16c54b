package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/itsmostafa/textindex/internal/compile"
	"github.com/itsmostafa/textindex/internal/config"
	"github.com/itsmostafa/textindex/internal/render"
	"github.com/spf13/cobra"
)

// parseFlags are the parsing flags shared by build, check, query and watch.
type parseFlags struct {
	mode    string
	strict  bool
	workers int
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", config.ModeProse, "Tokenizer mode for text outside braces (prose, strict)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail documents that contain lexical errors")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "Documents parsed in parallel (0 = one per CPU)")
}

// apply copies the flags the user set over the loaded configuration.
func (f *parseFlags) apply(cmd *cobra.Command, c *config.Config) error {
	if cmd.Flags().Changed("mode") {
		c.Parse.Mode = f.mode
	}
	if cmd.Flags().Changed("strict") {
		c.Parse.Strict = f.strict
	}
	if cmd.Flags().Changed("workers") {
		c.Parse.Workers = f.workers
	}
	return c.Validate()
}

// compileFiles reads paths and compiles them as one book.
func compileFiles(ctx context.Context, cmd *cobra.Command, paths []string) (*compile.Result, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	docs, err := compile.ReadDocuments(paths, cfg.Parse.MaxInputBytes, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	return compile.Compile(ctx, docs, compile.Options{
		Prose:         cfg.Prose(),
		Strict:        cfg.Parse.Strict,
		MaxInputBytes: cfg.Parse.MaxInputBytes,
		Workers:       cfg.Parse.Workers,
		Logger:        slog.Default(),
	})
}

// reportDiagnostics prints diagnostics to stderr.
func reportDiagnostics(cmd *cobra.Command, res *compile.Result) error {
	if len(res.Diagnostics) == 0 {
		return nil
	}
	w := cmd.ErrOrStderr()
	if err := render.Diagnostics(w, res.Diagnostics, render.ColorEnabled(cfg.Output.Color, w)); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}
	return nil
}
