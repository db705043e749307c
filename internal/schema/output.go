package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a metadata snapshot from a YAML file.
func LoadYAML(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	s := &Snapshot{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return s, nil
}

// WriteYAML writes the snapshot to a YAML file at the given path.
func (s *Snapshot) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Summary returns a human-readable summary of the snapshot.
func (s *Snapshot) Summary() string {
	tables := make(map[string]bool)
	var pks, identities int
	for _, c := range s.Columns {
		tables[QualifiedName(c.Schema, c.Table)] = true
		if c.PrimaryKeyOrdinal != nil {
			pks++
		}
		if c.IdentitySet != "" {
			identities++
		}
	}

	return fmt.Sprintf(
		"Found %d tables, %d columns\nPrimary key columns: %d, identity columns: %d",
		len(tables), len(s.Columns), pks, identities,
	)
}
