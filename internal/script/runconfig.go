package script

import (
	"fmt"
	"strings"

	"github.com/mssqlscript/mssqlscript/internal/selection"
)

// DropCreate selects which DDL statements are generated.
type DropCreate int

const (
	DropAndCreate DropCreate = iota
	DropOnly
	CreateOnly
)

func (d DropCreate) String() string {
	switch d {
	case DropOnly:
		return "drop-only"
	case CreateOnly:
		return "create-only"
	default:
		return "drop-and-create"
	}
}

// SchemeData selects whether schema, data or both are generated.
type SchemeData int

const (
	SchemeAndData SchemeData = iota
	SchemeOnly
	DataOnly
)

func (s SchemeData) String() string {
	switch s {
	case SchemeOnly:
		return "schema-only"
	case DataOnly:
		return "data-only"
	default:
		return "schema-and-data"
	}
}

// RunConfig holds the choices for one script run.
type RunConfig struct {
	Database       string
	DropCreate     DropCreate
	SchemeData     SchemeData
	Policy         selection.Policy
	ScriptDefaults bool // append ALTER TABLE ... ADD DEFAULT after each CREATE
}

// WantsDrop reports whether DROP statements are generated.
func (c RunConfig) WantsDrop() bool {
	return c.SchemeData != DataOnly && c.DropCreate != CreateOnly
}

// WantsCreate reports whether CREATE statements are generated.
func (c RunConfig) WantsCreate() bool {
	return c.SchemeData != DataOnly && c.DropCreate != DropOnly
}

// WantsData reports whether INSERT statements are generated.
func (c RunConfig) WantsData() bool {
	return c.SchemeData != SchemeOnly
}

// Validate checks fields that cannot be checked by the enum parsers.
func (c RunConfig) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return &InvalidRunConfigError{Option: "database", Reason: "a target database name is required"}
	}
	return nil
}

// Flag names shared with the command line.
const (
	FlagScriptDropCreate = "script-drop-create"
	FlagScriptDrop       = "script-drop"
	FlagScriptCreate     = "script-create"
	FlagSchemaAndData    = "schema-and-data"
	FlagSchemaOnly       = "schema-only"
	FlagDataOnly         = "data-only"
)

// ParseDropCreate resolves the drop/create mode. Exactly one flag must be set.
func ParseDropCreate(dropCreate, dropOnly, createOnly bool) (DropCreate, error) {
	i, err := exactlyOne("drop/create mode",
		[]string{FlagScriptDropCreate, FlagScriptDrop, FlagScriptCreate},
		[]bool{dropCreate, dropOnly, createOnly})
	if err != nil {
		return 0, err
	}
	return []DropCreate{DropAndCreate, DropOnly, CreateOnly}[i], nil
}

// ParseSchemeData resolves the schema/data mode. Exactly one flag must be set.
func ParseSchemeData(schemeAndData, schemeOnly, dataOnly bool) (SchemeData, error) {
	i, err := exactlyOne("schema/data mode",
		[]string{FlagSchemaAndData, FlagSchemaOnly, FlagDataOnly},
		[]bool{schemeAndData, schemeOnly, dataOnly})
	if err != nil {
		return 0, err
	}
	return []SchemeData{SchemeAndData, SchemeOnly, DataOnly}[i], nil
}

func exactlyOne(option string, flags []string, set []bool) (int, error) {
	idx := -1
	var chosen []string
	for i, on := range set {
		if on {
			idx = i
			chosen = append(chosen, "--"+flags[i])
		}
	}
	choices := make([]string, len(flags))
	for i, f := range flags {
		choices[i] = "--" + f
	}

	switch len(chosen) {
	case 1:
		return idx, nil
	case 0:
		return -1, &InvalidRunConfigError{
			Option: option,
			Reason: fmt.Sprintf("specify one of [%s]", strings.Join(choices, ",")),
		}
	default:
		return -1, &InvalidRunConfigError{
			Option: option,
			Reason: fmt.Sprintf("specify only one of [%s], got [%s]", strings.Join(choices, ","), strings.Join(chosen, ",")),
		}
	}
}

// InvalidRunConfigError is returned when run options are missing or conflict.
type InvalidRunConfigError struct {
	Option string
	Reason string
}

func (e *InvalidRunConfigError) Error() string {
	return "invalid " + e.Option + ": " + e.Reason
}
