package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mssqlscript/mssqlscript/internal/schema"
	"github.com/mssqlscript/mssqlscript/internal/source"
)

var (
	discoverConn   connOptions
	discoverOutput string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Save the table catalog to a metadata snapshot",
	Long: `Connect to SQL Server and write the column catalog of the database to a
YAML snapshot. The snapshot can later be scripted offline with --metadata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyConn(cmd, &discoverConn, &cfg.Source)
		if err := cfg.Source.ValidateAuth(); err != nil {
			return err
		}
		logger := newLogger(cmd, cfg)
		ctx := cmd.Context()

		ms := source.NewMSSQL(&cfg.Source)
		logger.Info("connecting", "server", cfg.Source.Server, "database", cfg.Source.Database)
		if err := ms.Connect(ctx); err != nil {
			return err
		}
		defer ms.Close()

		raws, err := ms.Columns(ctx)
		if err != nil {
			return fmt.Errorf("reading catalog: %w", err)
		}
		// Fail early on types the script generator cannot render.
		if _, err := schema.GroupTables(raws); err != nil {
			return fmt.Errorf("building tables: %w", err)
		}

		snap := &schema.Snapshot{
			Server:   cfg.Source.Server,
			Database: cfg.Source.Database,
			Columns:  raws,
		}
		fmt.Fprintln(cmd.OutOrStdout(), snap.Summary())

		outputPath := discoverOutput
		if outputPath == "" {
			outputPath = filepath.Join("output", cfg.Source.Database+"-metadata.yaml")
		}
		if err := snap.WriteYAML(outputPath); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nSnapshot written to %s\n", outputPath)
		return nil
	},
}

func init() {
	addConnFlags(discoverCmd, &discoverConn)
	discoverCmd.Flags().StringVarP(&discoverOutput, "output", "o", "", "output path for the snapshot (default: output/<database>-metadata.yaml)")
	rootCmd.AddCommand(discoverCmd)
}
