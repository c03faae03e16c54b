package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/itsmostafa/textindex/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool
var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage textindex configuration",
	Long: `Inspect and create configuration files.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/textindex/config.yaml)
  3. Project config (.textindex.yaml)
  4. Environment variables (TEXTINDEX_*)
  5. Command-line flags`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a project .textindex.yaml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(projectDir, ".textindex.yaml")
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.NewConfig().WriteYAML(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if configJSON {
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(w, string(data))
			return nil
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		return enc.Close()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the user config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configShowCmd.Flags().BoolVar(&configJSON, "json", false, "Output as JSON")

	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}
