/*
Package sqlgen renders a decoded patch as a SQL transaction.

A deltas payload becomes per-table DELETE, INSERT and UPDATE statements; a
full-state payload becomes TRUNCATE plus INSERTs per table. Everything is
wrapped in a single BEGIN/COMMIT. Identifiers are double-quoted with embedded
quotes doubled.

Literal formatting is driven by the configured column type: TEXT is
single-quoted with quotes doubled, INTEGER and FLOAT are validated by parse
and emitted bare, BOOLEAN is normalized to TRUE/FALSE, BINARY is emitted as
'\xHEX' after hex validation, and DATE/TIME/DATETIME are validated against
the configured layout (DATETIME also accepts unix epoch seconds) and
single-quoted. A value that fails validation surfaces as an
InvalidLiteralError naming the table and column.
*/
package sqlgen
