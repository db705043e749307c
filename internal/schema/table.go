package schema

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const scriptDateLayout = "2006/01/02 15:04:05"

const (
	constraintPrimary = "PRIMARY KEY CLUSTERED"
	constraintUnique  = "UNIQUE NONCLUSTERED"

	indexOptions = ")WITH (PAD_INDEX = OFF, STATISTICS_NORECOMPUTE = OFF, IGNORE_DUP_KEY = OFF, " +
		"ALLOW_ROW_LOCKS = ON, ALLOW_PAGE_LOCKS = ON, OPTIMIZE_FOR_SEQUENTIAL_KEY = OFF) ON [PRIMARY]"
	fileGroupClose = ") ON [PRIMARY]\n"
)

// Table is an ordered group of columns belonging to one table.
type Table struct {
	Name          string
	QualifiedName string
	Columns       []Column // catalog ordinal order
	CreatedAt     time.Time
}

// NewTable builds a Table from its columns. All columns must belong to the
// same table and at least one is required.
func NewTable(columns []Column) (Table, error) {
	if len(columns) == 0 {
		return Table{}, fmt.Errorf("table has no columns")
	}
	first := columns[0]
	for _, c := range columns[1:] {
		if c.QualifiedName != first.QualifiedName {
			return Table{}, fmt.Errorf("column %s belongs to %s, not %s", c.Name, c.QualifiedName, first.QualifiedName)
		}
	}
	return Table{
		Name:          first.TableName,
		QualifiedName: first.QualifiedName,
		Columns:       columns,
		CreatedAt:     time.Now(),
	}, nil
}

// GroupTables converts catalog records into tables. Tables appear in the
// order their first column was seen; columns keep their record order.
func GroupTables(raws []RawColumn) ([]Table, error) {
	var order []string
	groups := make(map[string][]Column)
	for _, raw := range raws {
		c, err := NewColumn(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := groups[c.QualifiedName]; !ok {
			order = append(order, c.QualifiedName)
		}
		groups[c.QualifiedName] = append(groups[c.QualifiedName], c)
	}

	tables := make([]Table, 0, len(order))
	for _, q := range order {
		t, err := NewTable(groups[q])
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", q, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Names returns the table names in order.
func Names(tables []Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// HasPrimaryKey reports whether any column is part of the primary key.
func (t Table) HasPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.PrimaryKeyOrdinal != nil {
			return true
		}
	}
	return false
}

// HasUnique reports whether any column carries a unique constraint.
func (t Table) HasUnique() bool {
	for _, c := range t.Columns {
		if c.Unique {
			return true
		}
	}
	return false
}

// HasConstraint reports whether a constraint block follows the columns.
func (t Table) HasConstraint() bool {
	return t.HasPrimaryKey() || t.HasUnique()
}

// HasIdentity reports whether any column is an identity column.
func (t Table) HasIdentity() bool {
	for _, c := range t.Columns {
		if c.HasIdentity() {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in table order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t Table) header() string {
	return fmt.Sprintf("/****** Object:  Table %s    Script Date: %s ******/\n",
		t.QualifiedName, t.CreatedAt.Format(scriptDateLayout))
}

// DropScript returns a guarded DROP TABLE batch.
func (t Table) DropScript() string {
	return t.header() +
		fmt.Sprintf("IF EXISTS (SELECT * FROM sys.objects WHERE object_id = OBJECT_ID(N'%s') AND type in (N'U'))\n", t.QualifiedName) +
		"DROP TABLE " + t.QualifiedName + "\n" +
		"GO"
}

// CreateScript returns the CREATE TABLE batch including primary key and
// unique constraints.
func (t Table) CreateScript() string {
	var b strings.Builder
	b.WriteString(t.header())
	b.WriteString("SET ANSI_NULLS ON\nGO\n")
	b.WriteString("SET QUOTED_IDENTIFIER ON\nGO\n")
	b.WriteString("CREATE TABLE " + t.QualifiedName + "(\n")

	hasConstraint := t.HasConstraint()
	for i, c := range t.Columns {
		b.WriteString(c.Fragment(hasConstraint, i == len(t.Columns)-1))
	}

	hasPK, hasUK := t.HasPrimaryKey(), t.HasUnique()
	if hasPK {
		b.WriteString(t.constraintBlock("PK_"+t.Name, constraintPrimary, t.primaryKeyColumns(), !hasUK))
	}
	if hasUK {
		b.WriteString(t.constraintBlock("UK_"+t.Name, constraintUnique, t.uniqueColumns(), true))
	}

	b.WriteString("GO")
	return b.String()
}

// DefaultsScript returns one ALTER TABLE ... ADD DEFAULT batch per column
// with a default expression, or "" when there are none.
func (t Table) DefaultsScript() string {
	var lines []string
	for _, c := range t.Columns {
		if c.Default == "" {
			continue
		}
		lines = append(lines,
			fmt.Sprintf("ALTER TABLE %s ADD  DEFAULT (%s) FOR [%s]", t.QualifiedName, c.Default, c.Name),
			"GO")
	}
	return strings.Join(lines, "\n")
}

func (t Table) primaryKeyColumns() []string {
	var pk []Column
	for _, c := range t.Columns {
		if c.PrimaryKeyOrdinal != nil {
			pk = append(pk, c)
		}
	}
	sort.SliceStable(pk, func(i, j int) bool {
		return *pk[i].PrimaryKeyOrdinal < *pk[j].PrimaryKeyOrdinal
	})
	names := make([]string, len(pk))
	for i, c := range pk {
		names[i] = c.Name
	}
	return names
}

func (t Table) uniqueColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Unique {
			names = append(names, c.Name)
		}
	}
	return names
}

// constraintBlock renders one CONSTRAINT clause. Only the final block of a
// table closes the CREATE statement; an earlier one ends with a comma.
func (t Table) constraintBlock(name, kind string, columns []string, closes bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, " CONSTRAINT [%s] %s\n(\n", name, kind)
	for i, col := range columns {
		b.WriteString("\t[" + col + "] ASC")
		if i < len(columns)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString("\n")
		}
	}
	b.WriteString(indexOptions)
	if closes {
		b.WriteString("\n" + fileGroupClose)
	} else {
		b.WriteString(",\n")
	}
	return b.String()
}
