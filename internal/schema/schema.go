package schema

// Snapshot is a catalog dump of a source database: one record per column.
type Snapshot struct {
	Server   string      `yaml:"server,omitempty"`
	Database string      `yaml:"database"`
	Columns  []RawColumn `yaml:"columns"`
}

// RawColumn is one row of the catalog metadata query.
type RawColumn struct {
	Schema            string `yaml:"schema"`
	Table             string `yaml:"table"`
	Column            string `yaml:"column"`
	Ordinal           int    `yaml:"ordinal"`
	DataType          string `yaml:"data_type"`
	Digits            string `yaml:"digits,omitempty"`
	IsNullable        string `yaml:"is_nullable"` // YES or NO
	IdentitySet       string `yaml:"identity_set,omitempty"`
	PrimaryKeyOrdinal *int   `yaml:"primary_key_ordinal,omitempty"`
	IsUnique          bool   `yaml:"is_unique,omitempty"`
	Default           string `yaml:"default,omitempty"`
}
