package dialect

import "fmt"

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (d postgresDialect) base() base {
	b := ansiBase()
	b.placeholder = func(n int) string { return fmt.Sprintf("$%d", n) }
	return b
}

func (d postgresDialect) QuoteIdentifier(name string) string {
	return d.base().quoteIdentifier(name)
}

func (d postgresDialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (d postgresDialect) InsertStatement(table string, columns []string) string {
	return d.base().insertStatement(table, columns)
}

func (d postgresDialect) UpdateStatement(table string, keyColumn string, columns []string) string {
	return d.base().updateStatement(table, keyColumn, columns)
}

func (d postgresDialect) DeleteStatement(table string, keyColumn string) string {
	return d.base().deleteStatement(table, keyColumn)
}

func (d postgresDialect) UpsertStatement(table string, keyColumns, valueColumns []string) string {
	return d.base().onConflictUpsert(table, keyColumns, valueColumns)
}

func (postgresDialect) AutoIncrementPK() string {
	return "BIGSERIAL PRIMARY KEY"
}
