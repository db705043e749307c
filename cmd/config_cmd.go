package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mssqlscript/mssqlscript/internal/config"
	"github.com/mssqlscript/mssqlscript/internal/script"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View, validate, and create the mssqlscript configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Source:\n")
		fmt.Fprintf(out, "    Server:         %s\n", cfg.Source.Server)
		fmt.Fprintf(out, "    Port:           %d\n", cfg.Source.Port)
		fmt.Fprintf(out, "    Instance:       %s\n", cfg.Source.Instance)
		fmt.Fprintf(out, "    Database:       %s\n", cfg.Source.Database)
		fmt.Fprintf(out, "    Username:       %s\n", cfg.Source.Username)
		fmt.Fprintf(out, "    Password:       %s\n", maskSecret(cfg.Source.Password))
		fmt.Fprintf(out, "    Encrypt:        %t\n", cfg.Source.Encrypt)
		fmt.Fprintf(out, "    Trusted:        %t\n", cfg.Source.Trusted)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  Script:\n")
		fmt.Fprintf(out, "    Drop/create:    %s\n", cfg.Script.DropCreate)
		fmt.Fprintf(out, "    Schema/data:    %s\n", cfg.Script.SchemeData)
		fmt.Fprintf(out, "    Include:        %s\n", strings.Join(cfg.Script.Include, ","))
		fmt.Fprintf(out, "    Exclude:        %s\n", strings.Join(cfg.Script.Exclude, ","))
		fmt.Fprintf(out, "    Output:         %s\n", cfg.Script.Output)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		var problems []string
		if cfg.Source.Server == "" {
			problems = append(problems, "source.server is required")
		}
		if cfg.Source.Database == "" {
			problems = append(problems, "source.database is required")
		}
		if err := cfg.Source.ValidateAuth(); err != nil {
			problems = append(problems, err.Error())
		}
		if len(cfg.Script.Include) > 0 && len(cfg.Script.Exclude) > 0 {
			problems = append(problems, "script.include and script.exclude cannot both be set")
		}
		if !oneOf(cfg.Script.DropCreate, script.DropAndCreate, script.DropOnly, script.CreateOnly) {
			problems = append(problems, fmt.Sprintf("script.drop_create: unknown mode %q", cfg.Script.DropCreate))
		}
		if !oneOf(cfg.Script.SchemeData, script.SchemeAndData, script.SchemeOnly, script.DataOnly) {
			problems = append(problems, fmt.Sprintf("script.scheme_data: unknown mode %q", cfg.Script.SchemeData))
		}

		out := cmd.OutOrStdout()
		if len(problems) > 0 {
			fmt.Fprintln(out, "Validation errors:")
			for _, p := range problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
			return fmt.Errorf("%d validation error(s)", len(problems))
		}

		fmt.Fprintln(out, "Configuration is valid.")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			Version: config.CurrentVersion,
			Source: config.SourceConfig{
				Server:   "localhost",
				Port:     1433,
				Database: "master",
				Username: "sa",
				Password: "${ENV:MSSQLSCRIPT_PASSWORD}",
			},
			Script: config.ScriptConfig{
				DropCreate: "drop-and-create",
				SchemeData: "schema-and-data",
			},
		}
		path := cfgFile
		if path == "" {
			path = config.ExpandHome(config.DefaultPath)
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

// oneOf reports whether name is empty or the name of one of modes.
func oneOf(name string, modes ...fmt.Stringer) bool {
	if name == "" {
		return true
	}
	for _, m := range modes {
		if m.String() == name {
			return true
		}
	}
	return false
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
