package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mssqlscript/mssqlscript/internal/sqltype"
)

// Column is the script generator's view of one table column.
type Column struct {
	TableSchema       string
	TableName         string
	QualifiedName     string
	Name              string
	Type              sqltype.Type
	Digits            *int // length, precision or scale; nil when not a single integer
	Nullable          bool
	Identity          string // e.g. IDENTITY(1,1)
	PrimaryKeyOrdinal *int
	Unique            bool
	Default           string
}

// NewColumn builds a Column from a catalog record.
func NewColumn(raw RawColumn) (Column, error) {
	typ, err := sqltype.Resolve(raw.DataType)
	if err != nil {
		return Column{}, fmt.Errorf("column %s.%s.%s: %w", raw.Schema, raw.Table, raw.Column, err)
	}

	c := Column{
		TableSchema:   raw.Schema,
		TableName:     raw.Table,
		QualifiedName: QualifiedName(raw.Schema, raw.Table),
		Name:          raw.Column,
		Type:          typ,
		Nullable:      raw.IsNullable == "YES",
		Identity:      raw.IdentitySet,
		Unique:        raw.IsUnique,
		Default:       raw.Default,
	}
	// "MAX" and "18, 2" do not parse and are dropped.
	if d, err := strconv.Atoi(raw.Digits); err == nil {
		c.Digits = &d
	}
	if raw.PrimaryKeyOrdinal != nil {
		ord := *raw.PrimaryKeyOrdinal
		c.PrimaryKeyOrdinal = &ord
	}
	return c, nil
}

// QualifiedName returns the bracketed [schema].[table] identifier.
func QualifiedName(schemaName, table string) string {
	return "[" + schemaName + "].[" + table + "]"
}

// Fragment renders the column's line inside a CREATE TABLE statement.
// hasConstraint must be the same for every column of a table. When it is
// false the last column closes the statement itself.
func (c Column) Fragment(hasConstraint, isLast bool) string {
	var b strings.Builder
	b.WriteString("\t[" + c.Name + "] [" + c.Type.String() + "]")
	if c.Digits != nil {
		fmt.Fprintf(&b, "(%d)", *c.Digits)
	}
	if strings.TrimSpace(c.Identity) != "" {
		b.WriteString(" " + c.Identity)
	}
	if c.Nullable {
		b.WriteString(" NULL")
	} else {
		b.WriteString(" NOT NULL")
	}

	if isLast && !hasConstraint {
		b.WriteString("\n) ON [PRIMARY]\n")
	} else {
		b.WriteString(",\n")
	}
	return b.String()
}

// HasIdentity reports whether the column is an identity column.
func (c Column) HasIdentity() bool {
	return strings.TrimSpace(c.Identity) != ""
}
