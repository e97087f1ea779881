package dialect

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return ansiBase().quoteIdentifier(name)
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) InsertStatement(table string, columns []string) string {
	return ansiBase().insertStatement(table, columns)
}

func (sqliteDialect) UpdateStatement(table string, keyColumn string, columns []string) string {
	return ansiBase().updateStatement(table, keyColumn, columns)
}

func (sqliteDialect) DeleteStatement(table string, keyColumn string) string {
	return ansiBase().deleteStatement(table, keyColumn)
}

func (sqliteDialect) UpsertStatement(table string, keyColumns, valueColumns []string) string {
	return ansiBase().onConflictUpsert(table, keyColumns, valueColumns)
}

func (sqliteDialect) AutoIncrementPK() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}
