// Package script assembles DROP, CREATE and INSERT batches into one
// SQL Server script document.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mssqlscript/mssqlscript/internal/insert"
	"github.com/mssqlscript/mssqlscript/internal/schema"
)

// RowSource opens a cursor over all rows of a table. The assembler closes
// each cursor before asking for the next one.
type RowSource interface {
	Rows(ctx context.Context, table schema.Table) (insert.ReadCloser, error)
}

// Assembler builds script documents.
type Assembler struct {
	Logger *slog.Logger
}

// New returns an Assembler that reports skipped passes to logger.
func New(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{Logger: logger}
}

// Assemble renders the document for cfg. tables must be in retrieval order.
// Nothing is returned when any step fails.
func (a *Assembler) Assemble(ctx context.Context, cfg RunConfig, tables []schema.Table, rows RowSource) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	targets := Targets(cfg, tables)
	logger.Debug("resolved target tables",
		"policy", cfg.Policy.Mode().String(),
		"available", len(tables),
		"targets", len(targets))

	var drops, creates, inserts string
	if cfg.WantsDrop() {
		if len(targets) == 0 {
			logger.Warn("no target tables; skipping DROP statements")
		}
		drops = dropBlock(targets)
	}

	if cfg.WantsCreate() {
		if len(targets) == 0 {
			logger.Warn("no target tables; skipping CREATE statements")
		}
		creates = createBlock(targets, cfg.ScriptDefaults)
	}

	if cfg.WantsData() {
		if len(targets) == 0 {
			logger.Warn("no target tables; skipping INSERT statements")
		} else {
			if rows == nil {
				return "", errors.New("data generation requested without a row source")
			}
			var err error
			inserts, err = insertBlock(ctx, logger, targets, rows)
			if err != nil {
				return "", err
			}
		}
	}

	var b strings.Builder
	b.WriteString("USE [" + cfg.Database + "]\nGO\n")
	b.WriteString(drops)
	b.WriteString(creates)
	b.WriteString(inserts)
	return b.String(), nil
}

// Targets returns the tables selected by cfg's policy, in retrieval order.
func Targets(cfg RunConfig, tables []schema.Table) []schema.Table {
	selected := make(map[string]bool)
	for _, n := range cfg.Policy.Resolve(schema.Names(tables)) {
		selected[n] = true
	}
	var out []schema.Table
	for _, t := range tables {
		if selected[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// dropBlock and createBlock end with a newline after the last fragment;
// an empty target set yields "".
func dropBlock(tables []schema.Table) string {
	var frags []string
	for _, t := range tables {
		frags = append(frags, t.DropScript())
	}
	return joinBlock(frags)
}

func createBlock(tables []schema.Table, defaults bool) string {
	var frags []string
	for _, t := range tables {
		frags = append(frags, t.CreateScript())
		if defaults {
			if d := t.DefaultsScript(); d != "" {
				frags = append(frags, d)
			}
		}
	}
	return joinBlock(frags)
}

func joinBlock(frags []string) string {
	if len(frags) == 0 {
		return ""
	}
	return strings.Join(frags, "\n") + "\n"
}

func insertBlock(ctx context.Context, logger *slog.Logger, tables []schema.Table, rows RowSource) (string, error) {
	frags := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		frag, err := encodeTable(ctx, t, rows)
		if err != nil {
			return "", err
		}
		logger.Debug("generated inserts", "table", t.QualifiedName)
		frags = append(frags, frag)
	}
	return strings.Join(frags, "\n"), nil
}

func encodeTable(ctx context.Context, t schema.Table, rows RowSource) (string, error) {
	cur, err := rows.Rows(ctx, t)
	if err != nil {
		return "", fmt.Errorf("reading rows of %s: %w", t.QualifiedName, err)
	}
	defer cur.Close()

	return insert.Encode(t, cur)
}
