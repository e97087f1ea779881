package dialect

// genericDialect is the quoted-ANSI fallback: double-quoted identifiers,
// ? placeholders, and the ON CONFLICT upsert shared by most modern engines.
type genericDialect struct{}

func (genericDialect) Name() string { return "generic" }

func (genericDialect) QuoteIdentifier(name string) string {
	return ansiBase().quoteIdentifier(name)
}

func (genericDialect) Placeholder(int) string { return "?" }

func (genericDialect) InsertStatement(table string, columns []string) string {
	return ansiBase().insertStatement(table, columns)
}

func (genericDialect) UpdateStatement(table string, keyColumn string, columns []string) string {
	return ansiBase().updateStatement(table, keyColumn, columns)
}

func (genericDialect) DeleteStatement(table string, keyColumn string) string {
	return ansiBase().deleteStatement(table, keyColumn)
}

func (genericDialect) UpsertStatement(table string, keyColumns, valueColumns []string) string {
	return ansiBase().onConflictUpsert(table, keyColumns, valueColumns)
}

func (genericDialect) AutoIncrementPK() string {
	return "BIGINT PRIMARY KEY"
}
