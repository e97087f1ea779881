package dialect

import (
	"fmt"
	"strings"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (d mysqlDialect) base() base {
	b := ansiBase()
	b.quote = "`"
	return b
}

func (d mysqlDialect) QuoteIdentifier(name string) string {
	return d.base().quoteIdentifier(name)
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (d mysqlDialect) InsertStatement(table string, columns []string) string {
	return d.base().insertStatement(table, columns)
}

func (d mysqlDialect) UpdateStatement(table string, keyColumn string, columns []string) string {
	return d.base().updateStatement(table, keyColumn, columns)
}

func (d mysqlDialect) DeleteStatement(table string, keyColumn string) string {
	return d.base().deleteStatement(table, keyColumn)
}

// MySQL has no ON CONFLICT clause; the conflict target is implied by the
// table's unique keys.
func (d mysqlDialect) UpsertStatement(table string, keyColumns, valueColumns []string) string {
	b := d.base()
	all := append(append([]string{}, keyColumns...), valueColumns...)
	quoted := make([]string, len(all))
	for i, c := range all {
		quoted[i] = b.quoteIdentifier(c)
	}
	assignments := make([]string, len(valueColumns))
	for i, c := range valueColumns {
		q := b.quoteIdentifier(c)
		assignments[i] = fmt.Sprintf("%s = VALUES(%s)", q, q)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		b.quoteIdentifier(table),
		strings.Join(quoted, ", "),
		b.placeholders(1, len(all)),
		strings.Join(assignments, ", "))
}

func (mysqlDialect) AutoIncrementPK() string {
	return "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
}
