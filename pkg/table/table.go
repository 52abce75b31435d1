package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/log"
)

// keySep joins primary-key columns into a single map key. The join is
// injective only while no key value contains the unit separator (0x1F): key
// tuples whose values contain it can map to the same key, and KeyParts then
// splits such a key into more parts than the tuple had.
const keySep = "\x1f"

// KeyOf builds the map key for a primary-key tuple.
func KeyOf(parts []string) string {
	return strings.Join(parts, keySep)
}

// KeyParts splits a map key back into the primary-key tuple.
func KeyParts(key string) []string {
	return strings.Split(key, keySep)
}

// SourceMissingError indicates a configured data source file is absent.
type SourceMissingError struct {
	Path string
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("data source '%s' is missing", e.Path)
}

// ArityError indicates a CSV row whose column count differs from the
// configured field count.
type ArityError struct {
	Table    string
	Row      int
	Got      int
	Expected int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("table '%s' row %d: got %d columns, expected %d",
		e.Table, e.Row, e.Got, e.Expected)
}

// Table is a snapshot of one data source. Fields lists all column names with
// primary-key columns first; Records maps primary-key tuples to subsidiary
// tuples. Row order is not preserved.
type Table struct {
	Fields     []string
	NumPrimary int
	Records    map[string][]string
}

// Read loads a table snapshot from its configured CSV source. A duplicate
// primary key silently replaces the earlier row (last write wins).
func Read(name string, tc *config.TableConfig, workDir string) (*Table, error) {
	path := filepath.Join(workDir, tc.Source)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &SourceMissingError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer f.Close()

	var pkIndices, subIndices []int
	for i, field := range tc.Fields {
		if field.PrimaryKey {
			pkIndices = append(pkIndices, i)
		} else {
			subIndices = append(subIndices, i)
		}
	}

	ordered := tc.OrderedFields()
	fields := make([]string, 0, len(ordered))
	for _, field := range ordered {
		fields = append(fields, field.Name)
	}

	t := &Table{
		Fields:     fields,
		NumPrimary: len(pkIndices),
		Records:    make(map[string][]string),
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	row := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s': %w", path, err)
		}
		row++
		if tc.Header && row == 1 {
			continue
		}
		if len(rec) != len(tc.Fields) {
			return nil, &ArityError{Table: name, Row: row, Got: len(rec), Expected: len(tc.Fields)}
		}

		pk := make([]string, 0, len(pkIndices))
		for _, i := range pkIndices {
			pk = append(pk, rec[i])
		}
		sub := make([]string, 0, len(subIndices))
		for _, i := range subIndices {
			sub = append(sub, rec[i])
		}
		t.Records[KeyOf(pk)] = sub
	}

	log.Logger.Info().Str("table", name).Int("records", len(t.Records)).Msg("Loaded table")
	return t, nil
}
