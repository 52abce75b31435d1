/*
Package table reads CSV data sources into table snapshots.

A snapshot maps each row's primary-key tuple to its subsidiary tuple, with the
field list laid out primary-key columns first. Snapshots exist only for the
duration of a block-create call; the persisted form lives in pkg/state.

Rows with a duplicate primary key replace earlier rows silently (last write
wins within a single read). A missing source file is a SourceMissingError; a
row whose column count differs from the configuration is an ArityError.
*/
package table
