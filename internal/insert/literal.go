package insert

import (
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mssqlscript/mssqlscript/internal/schema"
	"github.com/mssqlscript/mssqlscript/internal/sqltype"
)

const defaultFractionDigits = 7

// Literal renders one value of the column as a T-SQL literal.
func Literal(col schema.Column, v any) string {
	if v == nil {
		return "NULL"
	}

	switch {
	case col.Type == sqltype.DateTime2:
		return "CAST(N'" + dateTime2Text(col, v) + "' AS DateTime2)"
	case col.Type == sqltype.Bit:
		if truthy(v) {
			return "1"
		}
		return "0"
	case col.Type.Quoted():
		return "N'" + strings.ReplaceAll(text(col, v), "'", "''") + "'"
	default:
		return text(col, v)
	}
}

// DateTime2Layout returns the layout for a datetime2 value with the given
// fractional-second digits; nil means the SQL Server default of 7.
func DateTime2Layout(digits *int) string {
	n := defaultFractionDigits
	if digits != nil {
		n = *digits
	}
	return "2006-01-02T15:04:05." + strings.Repeat("0", n)
}

func dateTime2Text(col schema.Column, v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(DateTime2Layout(col.Digits))
	}
	return text(col, v)
}

func fraction(digits *int) string {
	n := defaultFractionDigits
	if digits != nil {
		n = *digits
	}
	if n == 0 {
		return ""
	}
	return "." + strings.Repeat("0", n)
}

// text returns the plain textual form of a value.
func text(col schema.Column, v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		if col.Type.Binary() {
			return "0x" + strings.ToUpper(hex.EncodeToString(x))
		}
		return string(x)
	case time.Time:
		return x.Format(timeLayout(col))
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// formatFloat uses plain notation and falls back to an exponent only for very
// large or very small magnitudes.
func formatFloat(x float64, bitSize int) string {
	if a := math.Abs(x); a == 0 || (a >= 1e-5 && a < 1e15) {
		return strconv.FormatFloat(x, 'f', -1, bitSize)
	}
	return strconv.FormatFloat(x, 'g', -1, bitSize)
}

func timeLayout(col schema.Column) string {
	switch col.Type {
	case sqltype.Date:
		return "2006-01-02"
	case sqltype.Time:
		return "15:04:05" + fraction(col.Digits)
	case sqltype.SmallDateTime:
		return "2006-01-02T15:04:05"
	case sqltype.DateTime:
		return "2006-01-02T15:04:05.000"
	case sqltype.DateTimeOffset:
		return "2006-01-02T15:04:05" + fraction(col.Digits) + "-07:00"
	default:
		return "2006-01-02T15:04:05.0000000"
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case int:
		return x != 0
	case string:
		return x == "1" || strings.EqualFold(x, "true")
	case []byte:
		return len(x) > 0 && x[0] != 0 && string(x) != "0"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	default:
		return false
	}
}
