package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/leech/pkg/config"
)

// Type is the closed set of SQL column types leech can render literals for.
type Type int

const (
	Text Type = iota
	Integer
	Float
	Boolean
	Binary
	Date
	Time
	DateTime
)

// TypeOf maps a configured type string (and its common synonyms) to a Type.
// Unknown strings render as TEXT.
func TypeOf(s string) Type {
	switch strings.ToUpper(s) {
	case "INTEGER", "INT", "BIGINT", "SMALLINT":
		return Integer
	case "FLOAT", "DOUBLE", "REAL", "NUMERIC", "DECIMAL":
		return Float
	case "BOOLEAN", "BOOL":
		return Boolean
	case "BINARY", "BYTEA", "BLOB":
		return Binary
	case "DATE":
		return Date
	case "TIME":
		return Time
	case "DATETIME", "TIMESTAMP":
		return DateTime
	default:
		return Text
	}
}

// InvalidLiteralError reports a value that failed validation for its declared
// column type.
type InvalidLiteralError struct {
	Table  string
	Column string
	Value  string
	Reason string
}

func (e *InvalidLiteralError) Error() string {
	return fmt.Sprintf("table '%s' column '%s': invalid literal '%s': %s",
		e.Table, e.Column, e.Value, e.Reason)
}

// column is one resolved schema column with its render type and, for
// date-like types, the validation layout.
type column struct {
	name   string
	typ    Type
	format string
}

// schema is the resolved column layout of one table: primary-key columns
// first, then subsidiary columns, mirroring the field order of snapshots and
// deltas.
type schema struct {
	table string
	cols  []column
	numPK int
}

func (s *schema) pk() []column  { return s.cols[:s.numPK] }
func (s *schema) sub() []column { return s.cols[s.numPK:] }

func resolveSchema(cfg *config.Config, tableName string) (*schema, error) {
	tc, ok := cfg.Tables[tableName]
	if !ok {
		return nil, fmt.Errorf("table '%s' not found in config", tableName)
	}

	ordered := tc.OrderedFields()
	sc := &schema{
		table: tableName,
		cols:  make([]column, 0, len(ordered)),
		numPK: len(tc.PrimaryKey()),
	}
	for _, f := range ordered {
		typ := TypeOf(f.Type)
		sc.cols = append(sc.cols, column{
			name:   f.Name,
			typ:    typ,
			format: layoutFor(typ, f.Format),
		})
	}
	return sc, nil
}

func layoutFor(typ Type, configured string) string {
	if configured != "" {
		return configured
	}
	switch typ {
	case Date:
		return config.DefaultDateFormat
	case Time:
		return config.DefaultTimeFormat
	case DateTime:
		return config.DefaultDateTimeFormat
	default:
		return ""
	}
}

// QuoteIdent double-quotes a SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral renders a raw CSV value as a SQL literal for col's type.
func quoteLiteral(table, value string, col column) (string, error) {
	fail := func(reason string) (string, error) {
		return "", &InvalidLiteralError{Table: table, Column: col.name, Value: value, Reason: reason}
	}

	switch col.typ {
	case Text:
		return "'" + strings.ReplaceAll(value, "'", "''") + "'", nil

	case Integer:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fail("not an integer")
		}
		return value, nil

	case Float:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fail("not a number")
		}
		return value, nil

	case Boolean:
		switch strings.ToLower(value) {
		case "true", "1", "t", "yes":
			return "TRUE", nil
		case "false", "0", "f", "no":
			return "FALSE", nil
		}
		return fail("not a boolean")

	case Binary:
		if len(value)%2 != 0 {
			return fail("odd-length hex")
		}
		for i := 0; i < len(value); i++ {
			c := value[i]
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
				return fail("non-hex character")
			}
		}
		return `'\x` + value + `'`, nil

	case Date, Time:
		if _, err := time.Parse(col.format, value); err != nil {
			return fail(fmt.Sprintf("does not match format '%s'", col.format))
		}
		return "'" + strings.ReplaceAll(value, "'", "''") + "'", nil

	case DateTime:
		// A bare integer is accepted as unix epoch seconds.
		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			return "'" + value + "'", nil
		}
		if _, err := time.Parse(col.format, value); err != nil {
			return fail(fmt.Sprintf("does not match format '%s'", col.format))
		}
		return "'" + strings.ReplaceAll(value, "'", "''") + "'", nil
	}

	return fail("unknown column type")
}
