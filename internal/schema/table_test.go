package schema

import (
	"strings"
	"testing"
	"time"

	"github.com/mssqlscript/mssqlscript/internal/sqltype"
)

var scriptDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func testTable(t *testing.T, cols ...Column) Table {
	t.Helper()
	for i := range cols {
		cols[i].TableSchema = "dbo"
		cols[i].TableName = "T"
		cols[i].QualifiedName = "[dbo].[T]"
	}
	tbl, err := NewTable(cols)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	tbl.CreatedAt = scriptDate
	return tbl
}

func TestNewTableRejectsEmpty(t *testing.T) {
	if _, err := NewTable(nil); err == nil {
		t.Fatal("expected error for table without columns")
	}
}

func TestNewTableRejectsMixedTables(t *testing.T) {
	_, err := NewTable([]Column{
		{Name: "a", QualifiedName: "[dbo].[A]"},
		{Name: "b", QualifiedName: "[dbo].[B]"},
	})
	if err == nil {
		t.Fatal("expected error for columns of different tables")
	}
}

func TestGroupTables(t *testing.T) {
	raws := []RawColumn{
		{Schema: "dbo", Table: "B", Column: "b1", DataType: "int", IsNullable: "NO"},
		{Schema: "dbo", Table: "A", Column: "a1", DataType: "int", IsNullable: "NO"},
		{Schema: "dbo", Table: "B", Column: "b2", DataType: "int", IsNullable: "NO"},
		{Schema: "audit", Table: "A", Column: "x", DataType: "int", IsNullable: "NO"},
	}
	tables, err := GroupTables(raws)
	if err != nil {
		t.Fatalf("GroupTables: %v", err)
	}
	if len(tables) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(tables))
	}

	want := []string{"[dbo].[B]", "[dbo].[A]", "[audit].[A]"}
	for i, q := range want {
		if tables[i].QualifiedName != q {
			t.Errorf("table %d = %s, want %s", i, tables[i].QualifiedName, q)
		}
	}
	if got := strings.Join(tables[0].ColumnNames(), ","); got != "b1,b2" {
		t.Errorf("B columns = %s, want b1,b2", got)
	}
	if got := strings.Join(Names(tables), ","); got != "B,A,A" {
		t.Errorf("Names = %s", got)
	}
}

func TestGroupTablesUnknownType(t *testing.T) {
	_, err := GroupTables([]RawColumn{{Schema: "dbo", Table: "T", Column: "c", DataType: "hierarchyid"}})
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestDropScript(t *testing.T) {
	tbl := testTable(t, Column{Name: "id", Type: sqltype.Int})
	want := "/****** Object:  Table [dbo].[T]    Script Date: 2024/01/02 03:04:05 ******/\n" +
		"IF EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'[dbo].[T]') AND type in (N'U'))\n" +
		"DROP TABLE [dbo].[T]\n" +
		"GO"
	if got := tbl.DropScript(); got != want {
		t.Errorf("DropScript() =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateScriptPrimaryKey(t *testing.T) {
	tbl := testTable(t,
		Column{Name: "id", Type: sqltype.Int, Identity: "IDENTITY(1,1)", PrimaryKeyOrdinal: intPtr(1)},
		Column{Name: "name", Type: sqltype.NVarChar, Digits: intPtr(50)},
	)

	want := "/****** Object:  Table [dbo].[T]    Script Date: 2024/01/02 03:04:05 ******/\n" +
		"SET ANSI_NULLS ON\nGO\n" +
		"SET QUOTED_IDENTIFIER ON\nGO\n" +
		"CREATE TABLE [dbo].[T](\n" +
		"\t[id] [int] IDENTITY(1,1) NOT NULL,\n" +
		"\t[name] [nvarchar](50) NOT NULL,\n" +
		" CONSTRAINT [PK_T] PRIMARY KEY CLUSTERED\n" +
		"(\n" +
		"\t[id] ASC\n" +
		")WITH (PAD_INDEX = OFF, STATISTICS_NORECOMPUTE = OFF, IGNORE_DUP_KEY = OFF, ALLOW_ROW_LOCKS = ON, ALLOW_PAGE_LOCKS = ON, OPTIMIZE_FOR_SEQUENTIAL_KEY = OFF) ON [PRIMARY]\n" +
		") ON [PRIMARY]\n" +
		"GO"

	got := tbl.CreateScript()
	if got != want {
		t.Errorf("CreateScript() =\n%s\nwant\n%s", got, want)
	}
	if n := strings.Count(got, "PRIMARY KEY CLUSTERED"); n != 1 {
		t.Errorf("expected 1 primary key block, got %d", n)
	}
	if strings.Contains(got, "UNIQUE NONCLUSTERED") {
		t.Error("unexpected unique block")
	}
}

func TestCreateScriptWithoutConstraints(t *testing.T) {
	tbl := testTable(t,
		Column{Name: "a", Type: sqltype.Int},
		Column{Name: "b", Type: sqltype.VarChar, Digits: intPtr(10), Nullable: true},
	)
	got := tbl.CreateScript()

	lastFragment := tbl.Columns[1].Fragment(false, true)
	if !strings.HasSuffix(got, lastFragment+"GO") {
		t.Errorf("expected script to end with last column fragment and GO:\n%s", got)
	}
	if n := strings.Count(got, ") ON [PRIMARY]"); n != 1 {
		t.Errorf("expected exactly one closing line, got %d", n)
	}
	if strings.Contains(got, "CONSTRAINT") {
		t.Error("unexpected constraint block")
	}
}

func TestCreateScriptPrimaryKeyOrdering(t *testing.T) {
	tbl := testTable(t,
		Column{Name: "a", Type: sqltype.Int, PrimaryKeyOrdinal: intPtr(2)},
		Column{Name: "b", Type: sqltype.Int, PrimaryKeyOrdinal: intPtr(1)},
		Column{Name: "c", Type: sqltype.Int},
	)
	got := tbl.CreateScript()
	if !strings.Contains(got, "(\n\t[b] ASC,\n\t[a] ASC\n)WITH") {
		t.Errorf("primary key columns not ordered by ordinal:\n%s", got)
	}
}

func TestCreateScriptPrimaryAndUnique(t *testing.T) {
	tbl := testTable(t,
		Column{Name: "id", Type: sqltype.Int, PrimaryKeyOrdinal: intPtr(1)},
		Column{Name: "code", Type: sqltype.Char, Digits: intPtr(4), Unique: true},
		Column{Name: "email", Type: sqltype.NVarChar, Digits: intPtr(100), Unique: true},
	)
	got := tbl.CreateScript()

	pk := strings.Index(got, "CONSTRAINT [PK_T] PRIMARY KEY CLUSTERED")
	uk := strings.Index(got, "CONSTRAINT [UK_T] UNIQUE NONCLUSTERED")
	if pk < 0 || uk < 0 || pk > uk {
		t.Fatalf("expected PK block before UK block:\n%s", got)
	}
	if !strings.Contains(got, "(\n\t[code] ASC,\n\t[email] ASC\n)WITH") {
		t.Errorf("unique columns not in table order:\n%s", got)
	}
	if !strings.Contains(got, "OPTIMIZE_FOR_SEQUENTIAL_KEY = OFF) ON [PRIMARY],\n CONSTRAINT [UK_T]") {
		t.Errorf("primary key block should be comma separated from unique block:\n%s", got)
	}
	if n := strings.Count(got, "\n) ON [PRIMARY]\n"); n != 1 {
		t.Errorf("expected CREATE closed exactly once, got %d:\n%s", n, got)
	}
	if !strings.HasSuffix(got, ") ON [PRIMARY]\nGO") {
		t.Errorf("unexpected script ending:\n%s", got)
	}
}

func TestCreateScriptUniqueOnly(t *testing.T) {
	tbl := testTable(t,
		Column{Name: "a", Type: sqltype.Int},
		Column{Name: "b", Type: sqltype.Int, Unique: true},
	)
	got := tbl.CreateScript()
	if !strings.Contains(got, "\t[b] [int] NOT NULL,\n CONSTRAINT [UK_T] UNIQUE NONCLUSTERED") {
		t.Errorf("unexpected unique-only script:\n%s", got)
	}
	if strings.Contains(got, "PK_T") {
		t.Error("unexpected primary key block")
	}
}

func TestDefaultsScript(t *testing.T) {
	tbl := testTable(t,
		Column{Name: "a", Type: sqltype.Int, Default: "0"},
		Column{Name: "b", Type: sqltype.Int},
		Column{Name: "c", Type: sqltype.DateTime, Default: "getdate()"},
	)
	want := "ALTER TABLE [dbo].[T] ADD  DEFAULT (0) FOR [a]\nGO\n" +
		"ALTER TABLE [dbo].[T] ADD  DEFAULT (getdate()) FOR [c]\nGO"
	if got := tbl.DefaultsScript(); got != want {
		t.Errorf("DefaultsScript() =\n%s\nwant\n%s", got, want)
	}

	plain := testTable(t, Column{Name: "a", Type: sqltype.Int})
	if got := plain.DefaultsScript(); got != "" {
		t.Errorf("expected empty defaults script, got %q", got)
	}
}
