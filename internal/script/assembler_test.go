package script

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mssqlscript/mssqlscript/internal/insert"
	"github.com/mssqlscript/mssqlscript/internal/schema"
	"github.com/mssqlscript/mssqlscript/internal/selection"
	"github.com/mssqlscript/mssqlscript/internal/source"
)

var scriptDate = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func intPtr(i int) *int { return &i }

func testTables(t *testing.T) []schema.Table {
	t.Helper()
	tables, err := schema.GroupTables([]schema.RawColumn{
		{Schema: "dbo", Table: "T", Column: "id", Ordinal: 1, DataType: "int", IsNullable: "NO", IdentitySet: "IDENTITY(1,1)", PrimaryKeyOrdinal: intPtr(1)},
		{Schema: "dbo", Table: "T", Column: "name", Ordinal: 2, DataType: "nvarchar", Digits: "50", IsNullable: "NO"},
		{Schema: "dbo", Table: "U", Column: "code", Ordinal: 1, DataType: "char", Digits: "3", IsNullable: "YES", Default: "'AAA'"},
	})
	if err != nil {
		t.Fatalf("GroupTables: %v", err)
	}
	for i := range tables {
		tables[i].CreatedAt = scriptDate
	}
	return tables
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func policy(t *testing.T, include, exclude []string) selection.Policy {
	t.Helper()
	p, err := selection.New(include, exclude)
	if err != nil {
		t.Fatalf("selection.New: %v", err)
	}
	return p
}

func mockRows() *source.Mock {
	return &source.Mock{Tables: map[string]source.MockTable{
		"[dbo].[T]": {Columns: []string{"id", "name"}, Rows: [][]any{{int64(1), "x"}}},
		"[dbo].[U]": {Columns: []string{"code"}, Rows: [][]any{{"A'B"}, {nil}}},
	}}
}

func TestAssembleEndToEnd(t *testing.T) {
	tables := testTables(t)
	logger, _ := testLogger()
	cfg := RunConfig{
		Database:   "Sales",
		DropCreate: DropAndCreate,
		SchemeData: SchemeAndData,
		Policy:     policy(t, []string{"T"}, nil),
	}

	got, err := New(logger).Assemble(context.Background(), cfg, tables, mockRows())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	tbl := tables[0]
	want := "USE [Sales]\nGO\n" +
		tbl.DropScript() + "\n" +
		tbl.CreateScript() + "\n" +
		"SET IDENTITY_INSERT [dbo].[T] ON\n" +
		"\n" +
		"INSERT [dbo].[T] ([id], [name]) VALUES (1, N'x')\n" +
		"SET IDENTITY_INSERT [dbo].[T] OFF\n" +
		"GO"
	if got != want {
		t.Errorf("Assemble() =\n%s\nwant\n%s", got, want)
	}

	for _, line := range []string{
		"\t[id] [int] IDENTITY(1,1) NOT NULL,\n",
		"\t[name] [nvarchar](50) NOT NULL,\n",
		" CONSTRAINT [PK_T] PRIMARY KEY CLUSTERED\n",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("document missing %q", line)
		}
	}
	if strings.Contains(got, "[dbo].[U]") {
		t.Error("excluded table [dbo].[U] should not appear")
	}
}

func TestAssembleModes(t *testing.T) {
	tests := []struct {
		name       string
		dropCreate DropCreate
		schemeData SchemeData
		drop       bool
		create     bool
		data       bool
	}{
		{"drop and create with data", DropAndCreate, SchemeAndData, true, true, true},
		{"drop only schema", DropOnly, SchemeOnly, true, false, false},
		{"create only schema", CreateOnly, SchemeOnly, false, true, false},
		{"create only with data", CreateOnly, SchemeAndData, false, true, true},
		{"data only ignores drop/create", DropAndCreate, DataOnly, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testLogger()
			cfg := RunConfig{Database: "Sales", DropCreate: tt.dropCreate, SchemeData: tt.schemeData}
			got, err := New(logger).Assemble(context.Background(), cfg, testTables(t), mockRows())
			if err != nil {
				t.Fatalf("Assemble: %v", err)
			}
			if !strings.HasPrefix(got, "USE [Sales]\nGO\n") {
				t.Errorf("document should start with USE header:\n%s", got)
			}
			if has := strings.Contains(got, "DROP TABLE"); has != tt.drop {
				t.Errorf("DROP present = %v, want %v", has, tt.drop)
			}
			if has := strings.Contains(got, "CREATE TABLE"); has != tt.create {
				t.Errorf("CREATE present = %v, want %v", has, tt.create)
			}
			if has := strings.Contains(got, "INSERT [dbo]"); has != tt.data {
				t.Errorf("INSERT present = %v, want %v", has, tt.data)
			}
		})
	}
}

func TestAssembleBlockOrder(t *testing.T) {
	logger, _ := testLogger()
	cfg := RunConfig{Database: "Sales", DropCreate: DropAndCreate, SchemeData: SchemeAndData}
	got, err := New(logger).Assemble(context.Background(), cfg, testTables(t), mockRows())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	dropT := strings.Index(got, "DROP TABLE [dbo].[T]")
	dropU := strings.Index(got, "DROP TABLE [dbo].[U]")
	createT := strings.Index(got, "CREATE TABLE [dbo].[T]")
	insertT := strings.Index(got, "INSERT [dbo].[T]")
	insertU := strings.Index(got, "INSERT [dbo].[U]")
	if !(dropT < dropU && dropU < createT && createT < insertT && insertT < insertU) {
		t.Errorf("blocks out of order:\n%s", got)
	}
	if !strings.Contains(got, "INSERT [dbo].[U] ([code]) VALUES (N'A''B')\nINSERT [dbo].[U] ([code]) VALUES (NULL)\nGO") {
		t.Errorf("unexpected inserts for [dbo].[U]:\n%s", got)
	}
}

func TestAssembleDefaults(t *testing.T) {
	logger, _ := testLogger()
	cfg := RunConfig{Database: "Sales", DropCreate: CreateOnly, SchemeData: SchemeOnly, ScriptDefaults: true}
	got, err := New(logger).Assemble(context.Background(), cfg, testTables(t), nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(got, "ALTER TABLE [dbo].[U] ADD  DEFAULT ('AAA') FOR [code]\nGO") {
		t.Errorf("missing default constraint:\n%s", got)
	}

	cfg.ScriptDefaults = false
	got, _ = New(logger).Assemble(context.Background(), cfg, testTables(t), nil)
	if strings.Contains(got, "ADD  DEFAULT") {
		t.Error("defaults should only be scripted on request")
	}
}

func TestAssembleEmptyTargetSetWarns(t *testing.T) {
	logger, logs := testLogger()
	cfg := RunConfig{
		Database:   "Sales",
		DropCreate: DropAndCreate,
		SchemeData: SchemeAndData,
		Policy:     policy(t, []string{"Missing"}, nil),
	}
	got, err := New(logger).Assemble(context.Background(), cfg, testTables(t), mockRows())
	if err != nil {
		t.Fatalf("empty target set should not fail: %v", err)
	}
	if got != "USE [Sales]\nGO\n" {
		t.Errorf("expected header only, got:\n%s", got)
	}
	for _, pass := range []string{"DROP", "CREATE", "INSERT"} {
		if !strings.Contains(logs.String(), "skipping "+pass) {
			t.Errorf("expected warning for %s pass, logs:\n%s", pass, logs.String())
		}
	}
}

func TestAssembleColumnOrderMismatch(t *testing.T) {
	logger, _ := testLogger()
	rows := &source.Mock{Tables: map[string]source.MockTable{
		"[dbo].[T]": {Columns: []string{"name", "id"}, Rows: [][]any{{"x", int64(1)}}},
	}}
	cfg := RunConfig{Database: "Sales", DropCreate: DropAndCreate, SchemeData: SchemeAndData}

	got, err := New(logger).Assemble(context.Background(), cfg, testTables(t), rows)
	var mismatch *insert.ColumnOrderMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ColumnOrderMismatchError, got %v", err)
	}
	if mismatch.Table != "[dbo].[T]" {
		t.Errorf("mismatch table = %s", mismatch.Table)
	}
	if got != "" {
		t.Error("no document should be returned on failure")
	}
	if rows.Closed != len(rows.Opened) {
		t.Errorf("cursors not closed: opened %d, closed %d", len(rows.Opened), rows.Closed)
	}
}

func TestAssembleClosesEachCursorBeforeNext(t *testing.T) {
	logger, _ := testLogger()
	rows := mockRows()
	cfg := RunConfig{Database: "Sales", DropCreate: DropAndCreate, SchemeData: DataOnly}
	if _, err := New(logger).Assemble(context.Background(), cfg, testTables(t), rows); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Join(rows.Opened, ",") != "[dbo].[T],[dbo].[U]" {
		t.Errorf("Opened = %v", rows.Opened)
	}
	if rows.Closed != 2 {
		t.Errorf("Closed = %d, want 2", rows.Closed)
	}
}

func TestAssembleRowSourceErrors(t *testing.T) {
	logger, _ := testLogger()
	cfg := RunConfig{Database: "Sales", DropCreate: DropAndCreate, SchemeData: SchemeAndData}

	if _, err := New(logger).Assemble(context.Background(), cfg, testTables(t), nil); err == nil {
		t.Error("expected error without a row source")
	}

	boom := errors.New("connection reset")
	_, err := New(logger).Assemble(context.Background(), cfg, testTables(t), &source.Mock{RowsErr: boom})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped row source error, got %v", err)
	}

	snap := source.NewSnapshot(&schema.Snapshot{Database: "Sales"})
	_, err = New(logger).Assemble(context.Background(), cfg, testTables(t), snap)
	if !errors.Is(err, source.ErrNoRowData) {
		t.Errorf("expected ErrNoRowData, got %v", err)
	}
}

func TestAssembleCancelled(t *testing.T) {
	logger, _ := testLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := RunConfig{Database: "Sales", DropCreate: DropAndCreate, SchemeData: DataOnly}
	if _, err := New(logger).Assemble(ctx, cfg, testTables(t), mockRows()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAssembleRequiresDatabase(t *testing.T) {
	_, err := New(nil).Assemble(context.Background(), RunConfig{}, testTables(t), nil)
	var invalid *InvalidRunConfigError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidRunConfigError, got %v", err)
	}
}

func TestTargetsKeepRetrievalOrder(t *testing.T) {
	tables := testTables(t)
	cfg := RunConfig{Policy: policy(t, []string{"U", "T"}, nil)}
	got := schema.Names(Targets(cfg, tables))
	if strings.Join(got, ",") != "T,U" {
		t.Errorf("Targets = %v, want [T U]", got)
	}

	cfg.Policy = policy(t, nil, []string{"T"})
	got = schema.Names(Targets(cfg, tables))
	if strings.Join(got, ",") != "U" {
		t.Errorf("Targets = %v, want [U]", got)
	}
}
