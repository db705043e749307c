package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mssqlscript/mssqlscript/internal/config"
	"github.com/mssqlscript/mssqlscript/internal/schema"
	"github.com/mssqlscript/mssqlscript/internal/script"
	"github.com/mssqlscript/mssqlscript/internal/selection"
	"github.com/mssqlscript/mssqlscript/internal/source"
	"github.com/mssqlscript/mssqlscript/internal/wizard"
)

// connOptions are the SQL Server connection flags.
type connOptions struct {
	server   string
	user     string
	password string
	database string
	encrypt  bool
	trusted  bool
}

// scriptOptions are the flags of the script command.
type scriptOptions struct {
	conn connOptions

	output      string
	include     []string
	exclude     []string
	metadata    string
	interactive bool
	defaults    bool

	dropCreate bool
	dropOnly   bool
	createOnly bool

	schemeAndData bool
	schemeOnly    bool
	dataOnly      bool
}

var scriptOpts scriptOptions

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Generate a DROP/CREATE/INSERT script",
	Long: `Connect to SQL Server, read the table catalog and write a script that
drops, creates and repopulates the selected tables.

Exactly one of --script-drop-create, --script-drop, --script-create and
exactly one of --schema-and-data, --schema-only, --data-only is required,
unless the config file supplies them.`,
	Example: `  mssqlscript script -S localhost -U sa -P secret -d Sales \
    --script-drop-create --schema-and-data -f out/sales.sql
  mssqlscript script --metadata sales.yaml -d Sales --script-create --schema-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript(cmd, &scriptOpts)
	},
}

func addConnFlags(cmd *cobra.Command, o *connOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.server, "server", "S", "", "SQL Server host name or host\\instance")
	f.StringVarP(&o.user, "user", "U", "", "login user name")
	f.StringVarP(&o.password, "password", "P", "", "login password")
	f.StringVarP(&o.database, "database", "d", "", "database name")
	f.BoolVarP(&o.encrypt, "encrypt", "N", false, "encrypt the connection")
	f.BoolVarP(&o.trusted, "trusted", "E", false, "use integrated authentication")
}

func addScriptFlags(cmd *cobra.Command, o *scriptOptions) {
	addConnFlags(cmd, &o.conn)

	f := cmd.Flags()
	f.StringVarP(&o.output, "output", "f", "", "output file (default: stdout)")
	f.StringSliceVar(&o.include, "include-objects", nil, "tables to script")
	f.StringSliceVar(&o.exclude, "exclude-objects", nil, "tables to leave out")
	f.StringVar(&o.metadata, "metadata", "", "read table metadata from a snapshot file instead of the server (schema only)")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "choose tables in an interactive picker")
	f.BoolVar(&o.defaults, "script-defaults", false, "add ALTER TABLE ... ADD DEFAULT statements after each CREATE")

	f.BoolVar(&o.dropCreate, script.FlagScriptDropCreate, false, "script DROP and CREATE statements")
	f.BoolVar(&o.dropOnly, script.FlagScriptDrop, false, "script DROP statements only")
	f.BoolVar(&o.createOnly, script.FlagScriptCreate, false, "script CREATE statements only")

	f.BoolVar(&o.schemeAndData, script.FlagSchemaAndData, false, "script schema and data")
	f.BoolVar(&o.schemeOnly, script.FlagSchemaOnly, false, "script schema only")
	f.BoolVar(&o.dataOnly, script.FlagDataOnly, false, "script data only")

	cmd.MarkFlagsMutuallyExclusive("include-objects", "exclude-objects")
}

// applyConn overlays the connection flags on the config file settings.
func applyConn(cmd *cobra.Command, o *connOptions, src *config.SourceConfig) {
	f := cmd.Flags()
	if f.Changed("server") {
		src.Server = o.server
	}
	if f.Changed("user") {
		src.Username = o.user
	}
	if f.Changed("password") {
		src.Password = o.password
	}
	if f.Changed("database") {
		src.Database = o.database
	}
	if f.Changed("encrypt") {
		src.Encrypt = o.encrypt
	}
	if f.Changed("trusted") {
		src.Trusted = o.trusted
	}
}

// buildRunConfig merges flags with the config file's script section.
func buildRunConfig(o *scriptOptions, cfg *config.Config) (script.RunConfig, error) {
	dc := []bool{o.dropCreate, o.dropOnly, o.createOnly}
	if !anySet(dc) {
		dc = fromName(cfg.Script.DropCreate, []string{
			script.DropAndCreate.String(), script.DropOnly.String(), script.CreateOnly.String(),
		})
	}
	dropCreate, err := script.ParseDropCreate(dc[0], dc[1], dc[2])
	if err != nil {
		return script.RunConfig{}, err
	}

	sd := []bool{o.schemeAndData, o.schemeOnly, o.dataOnly}
	if !anySet(sd) {
		sd = fromName(cfg.Script.SchemeData, []string{
			script.SchemeAndData.String(), script.SchemeOnly.String(), script.DataOnly.String(),
		})
	}
	schemeData, err := script.ParseSchemeData(sd[0], sd[1], sd[2])
	if err != nil {
		return script.RunConfig{}, err
	}

	include, exclude := o.include, o.exclude
	if len(include) == 0 && len(exclude) == 0 {
		include, exclude = cfg.Script.Include, cfg.Script.Exclude
	}
	policy, err := selection.New(include, exclude)
	if err != nil {
		return script.RunConfig{}, err
	}

	rc := script.RunConfig{
		Database:       cfg.Source.Database,
		DropCreate:     dropCreate,
		SchemeData:     schemeData,
		Policy:         policy,
		ScriptDefaults: o.defaults || cfg.Script.Defaults,
	}
	return rc, rc.Validate()
}

func anySet(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

// fromName turns a mode name from the config file into a flag vector.
func fromName(name string, names []string) []bool {
	out := make([]bool, len(names))
	for i, n := range names {
		out[i] = name == n
	}
	return out
}

// dataSource is what a script run reads from.
type dataSource interface {
	source.Catalog
	script.RowSource
}

func runScript(cmd *cobra.Command, o *scriptOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyConn(cmd, &o.conn, &cfg.Source)
	if cmd.Flags().Changed("output") {
		cfg.Script.Output = o.output
	}

	logger := newLogger(cmd, cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var src dataSource
	if o.metadata != "" {
		snap, err := schema.LoadYAML(o.metadata)
		if err != nil {
			return err
		}
		if cfg.Source.Database == "" {
			cfg.Source.Database = snap.Database
		}
		src = source.NewSnapshot(snap)
	}

	rc, err := buildRunConfig(o, cfg)
	if err != nil {
		return err
	}
	if o.metadata != "" && rc.WantsData() {
		return fmt.Errorf("--metadata only supports --%s runs", script.FlagSchemaOnly)
	}

	if src == nil {
		if err := cfg.Source.ValidateAuth(); err != nil {
			return err
		}
		ms := source.NewMSSQL(&cfg.Source)
		logger.Info("connecting", "server", cfg.Source.Server, "database", cfg.Source.Database)
		if err := ms.Connect(ctx); err != nil {
			return err
		}
		defer ms.Close()
		src = ms
	}

	doc, err := generate(ctx, logger, rc, src, o.interactive)
	if err != nil {
		return err
	}
	return writeScript(cmd.OutOrStdout(), logger, cfg.Script.Output, doc)
}

// generate reads the catalog, optionally lets the user pick tables and
// assembles the script document.
func generate(ctx context.Context, logger *slog.Logger, rc script.RunConfig, src dataSource, interactive bool) (string, error) {
	raws, err := src.Columns(ctx)
	if err != nil {
		return "", fmt.Errorf("reading catalog: %w", err)
	}
	tables, err := schema.GroupTables(raws)
	if err != nil {
		return "", fmt.Errorf("building tables: %w", err)
	}
	logger.Info("catalog loaded", "tables", len(tables), "columns", len(raws))

	if interactive {
		var pre []string
		for _, t := range script.Targets(rc, tables) {
			pre = append(pre, t.QualifiedName)
		}
		picked, err := pickTables(tables, pre)
		if err != nil {
			if errors.Is(err, wizard.ErrCancelled) {
				return "", fmt.Errorf("table selection cancelled")
			}
			return "", err
		}
		// The picker chooses by qualified name, so its tables replace the
		// name-based policy.
		tables = picked
		rc.Policy = selection.Policy{}
		logger.Info("tables picked", "tables", len(picked))
	}

	return script.New(logger).Assemble(ctx, rc, tables, src)
}

// pickTables is swapped out in tests.
var pickTables = wizard.RunTablePicker

// writeScript writes the document to path, or to w when path is empty.
func writeScript(w io.Writer, logger *slog.Logger, path, doc string) error {
	if path == "" {
		_, err := io.WriteString(w, doc)
		return err
	}

	path = config.ExpandHome(path)
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			logger.Info("created output directory", "path", dir)
		}
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing script: %w", err)
	}
	logger.Info("script written", "path", path, "bytes", len(doc))
	return nil
}

func init() {
	addScriptFlags(scriptCmd, &scriptOpts)
	rootCmd.AddCommand(scriptCmd)
}
