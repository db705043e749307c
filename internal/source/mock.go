package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/mssqlscript/mssqlscript/internal/insert"
	"github.com/mssqlscript/mssqlscript/internal/schema"
)

// Catalog lists the column records of a database.
type Catalog interface {
	Columns(ctx context.Context) ([]schema.RawColumn, error)
}

// ErrNoRowData is returned by sources that carry metadata only.
var ErrNoRowData = errors.New("metadata snapshot has no row data")

// MockTable holds the rows served for one table.
type MockTable struct {
	Columns []string
	Rows    [][]any
	Err     error // returned by the cursor after the rows are consumed
}

// Mock is an in-memory data source for tests.
type Mock struct {
	Raw        []schema.RawColumn
	ColumnsErr error
	Tables     map[string]MockTable // key: qualified name
	RowsErr    error

	Opened []string
	Closed int
}

func (m *Mock) Columns(ctx context.Context) ([]schema.RawColumn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.ColumnsErr != nil {
		return nil, m.ColumnsErr
	}
	return m.Raw, nil
}

// Rows serves the configured rows. Tables without an entry yield an empty
// cursor in the table's own column order.
func (m *Mock) Rows(ctx context.Context, table schema.Table) (insert.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.RowsErr != nil {
		return nil, m.RowsErr
	}
	m.Opened = append(m.Opened, table.QualifiedName)

	mt, ok := m.Tables[table.QualifiedName]
	if !ok {
		mt = MockTable{Columns: table.ColumnNames()}
	}
	cur := NewSliceCursor(mt.Columns, mt.Rows)
	cur.err = mt.Err
	cur.onClose = func() { m.Closed++ }
	return cur, nil
}

// SliceCursor iterates over rows held in memory.
type SliceCursor struct {
	cols    []string
	rows    [][]any
	pos     int
	err     error
	onClose func()
}

// NewSliceCursor returns a cursor over rows with the given column names.
func NewSliceCursor(cols []string, rows [][]any) *SliceCursor {
	return &SliceCursor{cols: cols, rows: rows}
}

func (c *SliceCursor) Columns() ([]string, error) { return c.cols, nil }

func (c *SliceCursor) Next() bool {
	if c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *SliceCursor) Values() ([]any, error) {
	if c.pos == 0 || c.pos > len(c.rows) {
		return nil, fmt.Errorf("no current row")
	}
	return c.rows[c.pos-1], nil
}

func (c *SliceCursor) Err() error { return c.err }

func (c *SliceCursor) Close() error {
	if c.onClose != nil {
		c.onClose()
		c.onClose = nil
	}
	return nil
}

// Snapshot serves catalog records from a saved metadata file. It has no
// rows, so it only supports schema-only runs.
type Snapshot struct {
	snap *schema.Snapshot
}

// NewSnapshot wraps a loaded metadata snapshot.
func NewSnapshot(snap *schema.Snapshot) *Snapshot {
	return &Snapshot{snap: snap}
}

func (s *Snapshot) Columns(ctx context.Context) ([]schema.RawColumn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.snap.Columns, nil
}

func (s *Snapshot) Rows(_ context.Context, table schema.Table) (insert.ReadCloser, error) {
	return nil, fmt.Errorf("%s: %w", table.QualifiedName, ErrNoRowData)
}
