/*
Package config loads and validates the leech configuration file.

A work directory carries exactly one config file, either config.toml or
config.json, describing the tracked tables, the compression settings for patch
blobs, and the optional block retention policy. Loading produces a plain
*Config value that is passed explicitly to every operation; there is no
process-global configuration state.

# Configuration Format

	[compression]
	enable = true
	level = 0

	[truncate]
	max-blocks = 100
	max-age = "4w"

	[tables.users]
	source = "users.csv"
	header = true

	[[tables.users.fields]]
	name = "id"
	type = "INTEGER"
	primary-key = true

	[[tables.users.fields]]
	name = "name"
	type = "TEXT"

Field types form a closed set: TEXT, INTEGER, FLOAT, BOOLEAN, BINARY, DATE,
TIME, DATETIME (plus common synonyms such as INT, BIGINT, REAL, BOOL, BYTEA).
DATE/TIME/DATETIME fields may carry a "format" entry holding a Go time layout;
defaults are "2006-01-02", "15:04:05" and "2006-01-02 15:04:05".

Duration values in truncate.max-age use a value+suffix notation with suffixes
s, m, h, d and w.

# Validation

Load rejects configs where a table has no primary-key field, duplicate field
names, a missing source, max-blocks below 1, or an unparseable max-age. Field
types default to TEXT when omitted.
*/
package config
