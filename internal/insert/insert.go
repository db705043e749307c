// Package insert renders table rows as INSERT statements.
package insert

import (
	"fmt"
	"strings"

	"github.com/mssqlscript/mssqlscript/internal/schema"
)

// Cursor is a forward-only view over a table's rows.
type Cursor interface {
	Columns() ([]string, error)
	Next() bool
	Values() ([]any, error)
	Err() error
}

// ReadCloser is a Cursor backed by a resource that must be released.
type ReadCloser interface {
	Cursor
	Close() error
}

// ColumnOrderMismatchError is returned when a cursor's columns are not in
// the table's column order.
type ColumnOrderMismatchError struct {
	Table  string
	Want   []string
	Cursor []string
}

func (e *ColumnOrderMismatchError) Error() string {
	return fmt.Sprintf("column order mismatch for %s: table [%s], cursor [%s]",
		e.Table, strings.Join(e.Want, ","), strings.Join(e.Cursor, ","))
}

// Encode drains the cursor and returns the INSERT batch for the table. The
// batch always ends with GO, even when the cursor is empty.
func Encode(table schema.Table, rows Cursor) (string, error) {
	want := table.ColumnNames()
	got, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("reading cursor columns for %s: %w", table.QualifiedName, err)
	}
	if !sameOrder(want, got) {
		return "", &ColumnOrderMismatchError{Table: table.QualifiedName, Want: want, Cursor: got}
	}

	quoted := make([]string, len(want))
	for i, name := range want {
		quoted[i] = "[" + name + "]"
	}
	prefix := fmt.Sprintf("INSERT %s (%s) VALUES (", table.QualifiedName, strings.Join(quoted, ", "))

	var lines []string
	identity := table.HasIdentity()
	if identity {
		lines = append(lines, identityInsert(table.QualifiedName, "ON"), "")
	}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return "", fmt.Errorf("reading row of %s: %w", table.QualifiedName, err)
		}
		if len(vals) != len(table.Columns) {
			return "", fmt.Errorf("row of %s has %d values, want %d", table.QualifiedName, len(vals), len(table.Columns))
		}
		literals := make([]string, len(vals))
		for i, v := range vals {
			literals[i] = Literal(table.Columns[i], v)
		}
		lines = append(lines, prefix+strings.Join(literals, ", ")+")")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating rows of %s: %w", table.QualifiedName, err)
	}

	if identity {
		lines = append(lines, identityInsert(table.QualifiedName, "OFF"))
	}
	lines = append(lines, "GO")
	return strings.Join(lines, "\n"), nil
}

func identityInsert(qualified, state string) string {
	return "SET IDENTITY_INSERT " + qualified + " " + state
}

func sameOrder(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}
