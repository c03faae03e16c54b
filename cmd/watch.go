package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/itsmostafa/textindex/internal/render"
	"github.com/spf13/cobra"
)

var watchParse parseFlags
var watchFormat string
var watchTree bool

var watchCmd = &cobra.Command{
	Use:   "watch files...",
	Short: "Rebuild the index whenever a document changes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := watchParse.apply(cmd, cfg); err != nil {
			return err
		}
		if cmd.Flags().Changed("format") {
			cfg.Output.Format = watchFormat
		}
		if cmd.Flags().Changed("tree") {
			cfg.Output.Tree = watchTree
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		debounce, err := cfg.WatchDebounce()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		// Watch directories so editors that replace files on save are seen.
		watched := make(map[string]bool, len(args))
		dirs := make(map[string]bool)
		for _, path := range args {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			watched[abs] = true
			dir := filepath.Dir(abs)
			if !dirs[dir] {
				if err := watcher.Add(dir); err != nil {
					return fmt.Errorf("failed to watch %s: %w", dir, err)
				}
				dirs[dir] = true
			}
		}

		rebuild := func() {
			if err := watchBuild(ctx, cmd, args); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("rebuild failed", slog.String("error", err.Error()))
			}
		}
		rebuild()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !watched[ev.Name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				slog.Debug("document changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				rebuild()
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.Warn("watch error", slog.String("error", err.Error()))
			}
		}
	},
}

func watchBuild(ctx context.Context, cmd *cobra.Command, paths []string) error {
	res, err := compileFiles(ctx, cmd, paths)
	if err != nil {
		return err
	}
	if err := reportDiagnostics(cmd, res); err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	return render.Render(w, res.Builder, render.Options{
		Format: cfg.Output.Format,
		Color:  render.ColorEnabled(cfg.Output.Color, w),
		Tree:   cfg.Output.Tree,
	})
}

func init() {
	watchParse.register(watchCmd)
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "text", "Output format (text, json, yaml)")
	watchCmd.Flags().BoolVar(&watchTree, "tree", false, "Include the heading hierarchy")

	rootCmd.AddCommand(watchCmd)
}
