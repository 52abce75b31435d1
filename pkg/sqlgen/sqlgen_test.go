package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/wire"
)

func testConfig() *config.Config {
	return &config.Config{
		Tables: map[string]*config.TableConfig{
			"users": {
				Source: "users.csv",
				Fields: []config.FieldConfig{
					{Name: "id", Type: "INTEGER", PrimaryKey: true},
					{Name: "name", Type: "TEXT"},
				},
			},
			"enrollments": {
				Source: "enrollments.csv",
				Fields: []config.FieldConfig{
					{Name: "student_id", Type: "INTEGER", PrimaryKey: true},
					{Name: "course_id", Type: "INTEGER", PrimaryKey: true},
					{Name: "grade", Type: "TEXT"},
				},
			},
		},
	}
}

// statements strips BEGIN/COMMIT and returns the set of statements, since
// map-derived ordering is not deterministic.
func statements(sql string) map[string]bool {
	out := make(map[string]bool)
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "BEGIN;" || line == "COMMIT;" {
			continue
		}
		out[line] = true
	}
	return out
}

func TestRenderEmptyPatch(t *testing.T) {
	p := &wire.Patch{HeadHash: "0000000000000000000000000000000000000000"}

	sql, ok, err := Render(testConfig(), p)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, sql)
}

func TestRenderInserts(t *testing.T) {
	p := &wire.Patch{
		NumBlocks: 1,
		Deltas: &wire.Deltas{Items: []wire.Delta{{
			Name:   "users",
			Fields: []string{"id", "name"},
			Inserts: []wire.Entry{
				{Key: []string{"1"}, Value: []string{"Alice"}},
				{Key: []string{"2"}, Value: []string{"Bob"}},
			},
		}}},
	}

	sql, ok, err := Render(testConfig(), p)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, strings.HasPrefix(sql, "BEGIN;\n"))
	assert.True(t, strings.HasSuffix(sql, "COMMIT;\n"))

	stmts := statements(sql)
	assert.Contains(t, stmts, `INSERT INTO "users" ("id", "name") VALUES (1, 'Alice');`)
	assert.Contains(t, stmts, `INSERT INTO "users" ("id", "name") VALUES (2, 'Bob');`)
	assert.Len(t, stmts, 2)
}

func TestRenderCompositeKeyDeltas(t *testing.T) {
	// Delete one row, insert another, update a grade; keys are composite.
	p := &wire.Patch{
		NumBlocks: 1,
		Deltas: &wire.Deltas{Items: []wire.Delta{{
			Name:   "enrollments",
			Fields: []string{"student_id", "course_id", "grade"},
			Deletes: []wire.Entry{
				{Key: []string{"1", "102"}},
			},
			Inserts: []wire.Entry{
				{Key: []string{"2", "103"}, Value: []string{"B"}},
			},
			Updates: []wire.Update{{
				Key:            []string{"1", "101"},
				ChangedIndices: []uint32{0},
				NewValue:       []string{"A+"},
			}},
		}}},
	}

	sql, ok, err := Render(testConfig(), p)
	require.NoError(t, err)
	require.True(t, ok)

	stmts := statements(sql)
	assert.Contains(t, stmts, `DELETE FROM "enrollments" WHERE "student_id" = 1 AND "course_id" = 102;`)
	assert.Contains(t, stmts, `INSERT INTO "enrollments" ("student_id", "course_id", "grade") VALUES (2, 103, 'B');`)
	assert.Contains(t, stmts, `UPDATE "enrollments" SET "grade" = 'A+' WHERE "student_id" = 1 AND "course_id" = 101;`)
	assert.Len(t, stmts, 3)
}

func TestRenderFullState(t *testing.T) {
	p := &wire.Patch{
		State: &wire.State{Tables: []wire.Table{{
			Name:       "users",
			Fields:     []string{"id", "name"},
			NumPrimary: 1,
			Rows: []wire.Entry{
				{Key: []string{"1"}, Value: []string{"Alice"}},
			},
		}}},
	}

	sql, ok, err := Render(testConfig(), p)
	require.NoError(t, err)
	require.True(t, ok)

	stmts := statements(sql)
	assert.Contains(t, stmts, `TRUNCATE "users";`)
	assert.Contains(t, stmts, `INSERT INTO "users" ("id", "name") VALUES (1, 'Alice');`)
}

func TestRenderUnknownTable(t *testing.T) {
	p := &wire.Patch{
		Deltas: &wire.Deltas{Items: []wire.Delta{{Name: "mystery"}}},
	}

	_, _, err := Render(testConfig(), p)
	assert.ErrorContains(t, err, "mystery")
}

func TestRenderInvalidLiteral(t *testing.T) {
	p := &wire.Patch{
		Deltas: &wire.Deltas{Items: []wire.Delta{{
			Name:   "users",
			Fields: []string{"id", "name"},
			Inserts: []wire.Entry{
				{Key: []string{"not_a_number"}, Value: []string{"Alice"}},
			},
		}}},
	}

	_, _, err := Render(testConfig(), p)
	var invalid *InvalidLiteralError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "users", invalid.Table)
	assert.Equal(t, "id", invalid.Column)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"simple"`, QuoteIdent("simple"))
	assert.Equal(t, `"has""quote"`, QuoteIdent(`has"quote`))
	assert.Equal(t, `""`, QuoteIdent(""))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"INTEGER", Integer}, {"INT", Integer}, {"BIGINT", Integer}, {"SMALLINT", Integer},
		{"FLOAT", Float}, {"DOUBLE", Float}, {"REAL", Float}, {"NUMERIC", Float}, {"DECIMAL", Float},
		{"BOOLEAN", Boolean}, {"BOOL", Boolean},
		{"BINARY", Binary}, {"BYTEA", Binary}, {"BLOB", Binary},
		{"DATE", Date}, {"TIME", Time}, {"DATETIME", DateTime}, {"TIMESTAMP", DateTime},
		{"TEXT", Text}, {"VARCHAR", Text}, {"whatever", Text},
		{"integer", Integer}, {"Boolean", Boolean}, {"bytea", Binary},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.in), tt.in)
	}
}

func quote(t *testing.T, value string, typ Type, format string) (string, error) {
	t.Helper()
	return quoteLiteral("t", value, column{name: "c", typ: typ, format: format})
}

func TestQuoteLiteralText(t *testing.T) {
	got, err := quote(t, "it's a test", Text, "")
	require.NoError(t, err)
	assert.Equal(t, "'it''s a test'", got)

	got, err = quote(t, "", Text, "")
	require.NoError(t, err)
	assert.Equal(t, "''", got)
}

func TestQuoteLiteralNumbers(t *testing.T) {
	got, err := quote(t, "42", Integer, "")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	got, err = quote(t, "-100", Integer, "")
	require.NoError(t, err)
	assert.Equal(t, "-100", got)

	_, err = quote(t, "not_a_number", Integer, "")
	assert.Error(t, err)

	got, err = quote(t, "-3.14", Float, "")
	require.NoError(t, err)
	assert.Equal(t, "-3.14", got)

	_, err = quote(t, "x", Float, "")
	assert.Error(t, err)
}

func TestQuoteLiteralBoolean(t *testing.T) {
	for _, v := range []string{"true", "True", "1", "t", "yes"} {
		got, err := quote(t, v, Boolean, "")
		require.NoError(t, err, v)
		assert.Equal(t, "TRUE", got, v)
	}
	for _, v := range []string{"false", "False", "0", "f", "no"} {
		got, err := quote(t, v, Boolean, "")
		require.NoError(t, err, v)
		assert.Equal(t, "FALSE", got, v)
	}
	_, err := quote(t, "maybe", Boolean, "")
	assert.Error(t, err)
}

func TestQuoteLiteralBinary(t *testing.T) {
	got, err := quote(t, "DEADBEEF", Binary, "")
	require.NoError(t, err)
	assert.Equal(t, `'\xDEADBEEF'`, got)

	got, err = quote(t, "", Binary, "")
	require.NoError(t, err)
	assert.Equal(t, `'\x'`, got)

	_, err = quote(t, "ABC", Binary, "") // odd length
	assert.Error(t, err)
	_, err = quote(t, "GHIJ", Binary, "") // non-hex
	assert.Error(t, err)
}

func TestQuoteLiteralDateTimeTypes(t *testing.T) {
	got, err := quote(t, "2024-06-30", Date, config.DefaultDateFormat)
	require.NoError(t, err)
	assert.Equal(t, "'2024-06-30'", got)

	_, err = quote(t, "30/06/2024", Date, config.DefaultDateFormat)
	assert.Error(t, err)

	got, err = quote(t, "23:59:59", Time, config.DefaultTimeFormat)
	require.NoError(t, err)
	assert.Equal(t, "'23:59:59'", got)

	got, err = quote(t, "2024-06-30 18:00:00", DateTime, config.DefaultDateTimeFormat)
	require.NoError(t, err)
	assert.Equal(t, "'2024-06-30 18:00:00'", got)

	// DATETIME accepts unix epoch seconds.
	got, err = quote(t, "1719770400", DateTime, config.DefaultDateTimeFormat)
	require.NoError(t, err)
	assert.Equal(t, "'1719770400'", got)

	_, err = quote(t, "soon", DateTime, config.DefaultDateTimeFormat)
	assert.Error(t, err)
}

func TestQuoteLiteralCustomDateFormat(t *testing.T) {
	got, err := quote(t, "30.06.2024", Date, "02.01.2006")
	require.NoError(t, err)
	assert.Equal(t, "'30.06.2024'", got)
}
