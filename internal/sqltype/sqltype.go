package sqltype

import "strings"

// Type is a SQL Server data type the script generator understands.
type Type int

const (
	BigInt Type = iota
	Binary
	Bit
	Char
	Date
	DateTime
	DateTime2
	DateTimeOffset
	Decimal
	Float
	Image
	Int
	Money
	NChar
	NText
	Numeric
	NVarChar
	Real
	SmallDateTime
	SmallInt
	SmallMoney
	Variant
	Text
	Time
	Timestamp
	TinyInt
	UniqueIdentifier
	VarBinary
	VarChar
	XML
)

// names holds the catalog spelling of each type, as rendered in CREATE scripts.
var names = [...]string{
	BigInt:           "bigint",
	Binary:           "binary",
	Bit:              "bit",
	Char:             "char",
	Date:             "date",
	DateTime:         "datetime",
	DateTime2:        "datetime2",
	DateTimeOffset:   "datetimeoffset",
	Decimal:          "decimal",
	Float:            "float",
	Image:            "image",
	Int:              "int",
	Money:            "money",
	NChar:            "nchar",
	NText:            "ntext",
	Numeric:          "numeric",
	NVarChar:         "nvarchar",
	Real:             "real",
	SmallDateTime:    "smalldatetime",
	SmallInt:         "smallint",
	SmallMoney:       "smallmoney",
	Variant:          "sql_variant",
	Text:             "text",
	Time:             "time",
	Timestamp:        "timestamp",
	TinyInt:          "tinyint",
	UniqueIdentifier: "uniqueidentifier",
	VarBinary:        "varbinary",
	VarChar:          "varchar",
	XML:              "xml",
}

// catalog maps lower-cased type names to types. Built once at init.
var catalog = func() map[string]Type {
	m := make(map[string]Type, len(names))
	for i, n := range names {
		m[n] = Type(i)
	}
	return m
}()

// All lists every supported type in declaration order.
func All() []Type {
	out := make([]Type, len(names))
	for i := range names {
		out[i] = Type(i)
	}
	return out
}

// Resolve returns the type for a catalog type name. Matching is
// case-insensitive and exact.
func Resolve(name string) (Type, error) {
	if t, ok := catalog[strings.ToLower(name)]; ok {
		return t, nil
	}
	return 0, &UnrecognizedTypeNameError{Name: name}
}

// String returns the lower-case SQL Server name of the type.
func (t Type) String() string {
	if t < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}

// Quoted reports whether literals of this type are written as N'...' strings.
func (t Type) Quoted() bool {
	switch t {
	case Date, Time, DateTimeOffset, DateTime, DateTime2, SmallDateTime,
		Char, VarChar, Text, NChar, NVarChar, NText:
		return true
	}
	return false
}

// Binary reports whether the type stores raw bytes.
func (t Type) Binary() bool {
	switch t {
	case Binary, VarBinary, Image, Timestamp:
		return true
	}
	return false
}

// UnrecognizedTypeNameError is returned when a type name is not in the catalog.
type UnrecognizedTypeNameError struct {
	Name string
}

func (e *UnrecognizedTypeNameError) Error() string {
	return "unrecognized type name: " + e.Name
}
