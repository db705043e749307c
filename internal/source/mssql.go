// Package source reads catalog metadata and table rows from SQL Server.
package source

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/mssqlscript/mssqlscript/internal/config"
	"github.com/mssqlscript/mssqlscript/internal/insert"
	"github.com/mssqlscript/mssqlscript/internal/schema"
)

//go:embed catalog.sql
var catalogQuery string

// MSSQL is a SQL Server data source backed by go-mssqldb.
type MSSQL struct {
	dsn string
	db  *sql.DB
}

// NewMSSQL builds a data source for the configured server.
func NewMSSQL(cfg *config.SourceConfig) *MSSQL {
	return &MSSQL{dsn: BuildDSN(cfg)}
}

// NewMSSQLFromDSN builds a data source from a sqlserver:// URL.
func NewMSSQLFromDSN(dsn string) *MSSQL {
	return &MSSQL{dsn: dsn}
}

// BuildDSN renders the connection settings as a sqlserver:// URL.
// Credentials are omitted for trusted connections.
func BuildDSN(cfg *config.SourceConfig) string {
	host := cfg.Server
	if cfg.Port > 0 {
		host = net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	}

	u := &url.URL{Scheme: "sqlserver", Host: host}
	if cfg.Instance != "" {
		u.Path = "/" + cfg.Instance
	}
	if !cfg.Trusted && cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	if cfg.Encrypt {
		q.Set("encrypt", "true")
	}
	if cfg.ConnectTimeout > 0 {
		q.Set("connection timeout", strconv.Itoa(cfg.ConnectTimeout))
		q.Set("dial timeout", strconv.Itoa(cfg.ConnectTimeout))
	}
	q.Set("app name", "mssqlscript")
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect opens the pool and verifies the server is reachable.
func (m *MSSQL) Connect(ctx context.Context) error {
	if _, err := msdsn.Parse(m.dsn); err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	db, err := sql.Open("sqlserver", m.dsn)
	if err != nil {
		return fmt.Errorf("opening SQL Server connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging SQL Server: %w", err)
	}
	m.db = db
	return nil
}

// Columns runs the catalog query and returns one record per column, ordered
// by schema, table and column position.
func (m *MSSQL) Columns(ctx context.Context) ([]schema.RawColumn, error) {
	if m.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := m.db.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []schema.RawColumn
	for rows.Next() {
		var (
			raw      schema.RawColumn
			identity sql.NullString
			pkOrd    sql.NullInt64
			def      sql.NullString
		)
		if err := rows.Scan(
			&raw.Schema, &raw.Table, &raw.Ordinal, &raw.Column, &raw.DataType,
			&raw.Digits, &raw.IsNullable, &identity, &pkOrd, &raw.IsUnique, &def,
		); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		raw.IdentitySet = identity.String
		raw.Default = def.String
		if pkOrd.Valid {
			n := int(pkOrd.Int64)
			raw.PrimaryKeyOrdinal = &n
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}
	return out, nil
}

// Rows opens a cursor over every row of the table. The caller must close it.
func (m *MSSQL) Rows(ctx context.Context, table schema.Table) (insert.ReadCloser, error) {
	if m.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := m.db.QueryContext(ctx, "SELECT * FROM "+table.QualifiedName)
	if err != nil {
		return nil, fmt.Errorf("selecting rows of %s: %w", table.QualifiedName, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading column types of %s: %w", table.QualifiedName, err)
	}
	guid := make([]bool, len(types))
	for i, ct := range types {
		guid[i] = strings.EqualFold(ct.DatabaseTypeName(), "UNIQUEIDENTIFIER")
	}
	return &rowCursor{rows: rows, guid: guid}, nil
}

// Close releases the connection pool.
func (m *MSSQL) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// rowCursor adapts *sql.Rows to insert.ReadCloser.
type rowCursor struct {
	rows *sql.Rows
	guid []bool
}

func (c *rowCursor) Columns() ([]string, error) { return c.rows.Columns() }

func (c *rowCursor) Next() bool { return c.rows.Next() }

func (c *rowCursor) Err() error { return c.rows.Err() }

func (c *rowCursor) Close() error { return c.rows.Close() }

func (c *rowCursor) Values() ([]any, error) {
	vals := make([]any, len(c.guid))
	ptrs := make([]any, len(c.guid))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		b, ok := v.([]byte)
		if !ok || !c.guid[i] {
			continue
		}
		// The driver returns uniqueidentifier bytes in wire order.
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err != nil {
			return nil, fmt.Errorf("decoding uniqueidentifier: %w", err)
		}
		vals[i] = id.String()
	}
	return vals, nil
}
