package sqlgen

import (
	"fmt"
	"strings"

	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/wire"
)

// Render converts a decoded patch into an idempotent SQL transaction. The
// second return is false when the patch carries no payload (nothing to
// apply). Statement order within a table is deletes, inserts, updates; each
// statement is independent of the others in the transaction.
func Render(cfg *config.Config, p *wire.Patch) (string, bool, error) {
	switch {
	case p.Deltas != nil:
		log.Logger.Debug().Int("deltas", len(p.Deltas.Items)).Msg("Rendering deltas to SQL")
		var b strings.Builder
		b.WriteString("BEGIN;\n")
		for i := range p.Deltas.Items {
			if err := deltaSQL(cfg, &p.Deltas.Items[i], &b); err != nil {
				return "", false, err
			}
		}
		b.WriteString("COMMIT;\n")
		return b.String(), true, nil

	case p.State != nil:
		log.Logger.Debug().Int("tables", len(p.State.Tables)).Msg("Rendering full state to SQL")
		var b strings.Builder
		b.WriteString("BEGIN;\n")
		for i := range p.State.Tables {
			if err := stateTableSQL(cfg, &p.State.Tables[i], &b); err != nil {
				return "", false, err
			}
		}
		b.WriteString("COMMIT;\n")
		return b.String(), true, nil

	default:
		return "", false, nil
	}
}

// rowLiterals renders key + value tuples against the schema's column layout.
func rowLiterals(sc *schema, key, value []string) ([]string, error) {
	pk, sub := sc.pk(), sc.sub()
	if len(key) != len(pk) {
		return nil, fmt.Errorf("table '%s': got %d key values, expected %d",
			sc.table, len(key), len(pk))
	}
	if len(value) != len(sub) {
		return nil, fmt.Errorf("table '%s': got %d subsidiary values, expected %d",
			sc.table, len(value), len(sub))
	}

	literals := make([]string, 0, len(key)+len(value))
	for i, v := range key {
		lit, err := quoteLiteral(sc.table, v, pk[i])
		if err != nil {
			return nil, err
		}
		literals = append(literals, lit)
	}
	for i, v := range value {
		lit, err := quoteLiteral(sc.table, v, sub[i])
		if err != nil {
			return nil, err
		}
		literals = append(literals, lit)
	}
	return literals, nil
}

// pkCondition renders the "pk = lit AND ..." clause for a key tuple.
func pkCondition(sc *schema, key []string) (string, error) {
	pk := sc.pk()
	if len(key) != len(pk) {
		return "", fmt.Errorf("table '%s': got %d key values, expected %d",
			sc.table, len(key), len(pk))
	}
	parts := make([]string, 0, len(key))
	for i, v := range key {
		lit, err := quoteLiteral(sc.table, v, pk[i])
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s = %s", QuoteIdent(pk[i].name), lit))
	}
	return strings.Join(parts, " AND "), nil
}

func columnList(sc *schema) string {
	names := make([]string, 0, len(sc.cols))
	for _, c := range sc.cols {
		names = append(names, QuoteIdent(c.name))
	}
	return strings.Join(names, ", ")
}

func deltaSQL(cfg *config.Config, d *wire.Delta, b *strings.Builder) error {
	sc, err := resolveSchema(cfg, d.Name)
	if err != nil {
		return err
	}
	table := QuoteIdent(sc.table)

	for i := range d.Deletes {
		cond, err := pkCondition(sc, d.Deletes[i].Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "DELETE FROM %s WHERE %s;\n", table, cond)
	}

	if len(d.Inserts) > 0 {
		columns := columnList(sc)
		for i := range d.Inserts {
			literals, err := rowLiterals(sc, d.Inserts[i].Key, d.Inserts[i].Value)
			if err != nil {
				return err
			}
			fmt.Fprintf(b, "INSERT INTO %s (%s) VALUES (%s);\n",
				table, columns, strings.Join(literals, ", "))
		}
	}

	sub := sc.sub()
	for i := range d.Updates {
		u := &d.Updates[i]

		setParts := make([]string, 0, len(u.ChangedIndices))
		for j, idx := range u.ChangedIndices {
			if int(idx) >= len(sub) || j >= len(u.NewValue) {
				return fmt.Errorf("table '%s': changed index %d out of range", sc.table, idx)
			}
			col := sub[idx]
			lit, err := quoteLiteral(sc.table, u.NewValue[j], col)
			if err != nil {
				return err
			}
			setParts = append(setParts, fmt.Sprintf("%s = %s", QuoteIdent(col.name), lit))
		}

		cond, err := pkCondition(sc, u.Key)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "UPDATE %s SET %s WHERE %s;\n",
			table, strings.Join(setParts, ", "), cond)
	}

	return nil
}

func stateTableSQL(cfg *config.Config, t *wire.Table, b *strings.Builder) error {
	sc, err := resolveSchema(cfg, t.Name)
	if err != nil {
		return err
	}
	table := QuoteIdent(sc.table)

	fmt.Fprintf(b, "TRUNCATE %s;\n", table)

	if len(t.Rows) == 0 {
		return nil
	}
	columns := columnList(sc)
	for i := range t.Rows {
		literals, err := rowLiterals(sc, t.Rows[i].Key, t.Rows[i].Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "INSERT INTO %s (%s) VALUES (%s);\n",
			table, columns, strings.Join(literals, ", "))
	}
	return nil
}
