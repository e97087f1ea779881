package dialect

import (
	"fmt"
	"strings"
)

// Dialect produces engine-specific SQL for the statements the sink needs.
// Implementations are stateless and safe for concurrent use.
type Dialect interface {
	// Name returns the registry name of the dialect ("sqlite", "postgres", ...).
	Name() string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// Placeholder returns the parameter marker for the n-th value, 1-based.
	Placeholder(n int) string

	// InsertStatement builds INSERT INTO table (columns...) VALUES (...).
	InsertStatement(table string, columns []string) string

	// UpdateStatement builds UPDATE table SET col = ?, ... WHERE key = ?.
	// The key column is bound last.
	UpdateStatement(table string, keyColumn string, columns []string) string

	// DeleteStatement builds DELETE FROM table WHERE key = ?.
	DeleteStatement(table string, keyColumn string) string

	// UpsertStatement builds an insert-or-replace keyed on keyColumns,
	// updating valueColumns on conflict. Parameters bind key columns first,
	// then value columns.
	UpsertStatement(table string, keyColumns, valueColumns []string) string

	// AutoIncrementPK returns the column definition for an auto-assigned
	// 64-bit primary key, used when creating log tables.
	AutoIncrementPK() string
}

// New returns the dialect registered under name.
func New(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	case "generic", "":
		return genericDialect{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

// base carries the statement assembly shared by every dialect. Engines build
// one from ansiBase, adjusting quoting or placeholders where they differ, and
// supply their own upsert and DDL fragments where needed.
type base struct {
	quote       string
	placeholder func(n int) string
}

func ansiBase() base {
	return base{
		quote:       `"`,
		placeholder: func(int) string { return "?" },
	}
}

func (b base) quoteIdentifier(name string) string {
	return b.quote + strings.ReplaceAll(name, b.quote, b.quote+b.quote) + b.quote
}

func (b base) placeholders(from, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = b.placeholder(from + i)
	}
	return strings.Join(parts, ", ")
}

func (b base) insertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = b.quoteIdentifier(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.quoteIdentifier(table),
		strings.Join(quoted, ", "),
		b.placeholders(1, len(columns)))
}

func (b base) updateStatement(table string, keyColumn string, columns []string) string {
	assignments := make([]string, len(columns))
	for i, c := range columns {
		assignments[i] = fmt.Sprintf("%s = %s", b.quoteIdentifier(c), b.placeholder(i+1))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		b.quoteIdentifier(table),
		strings.Join(assignments, ", "),
		b.quoteIdentifier(keyColumn),
		b.placeholder(len(columns)+1))
}

func (b base) deleteStatement(table string, keyColumn string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		b.quoteIdentifier(table),
		b.quoteIdentifier(keyColumn),
		b.placeholder(1))
}

// onConflictUpsert is the sqlite/postgres flavored upsert. MySQL overrides.
func (b base) onConflictUpsert(table string, keyColumns, valueColumns []string) string {
	all := append(append([]string{}, keyColumns...), valueColumns...)
	quoted := make([]string, len(all))
	for i, c := range all {
		quoted[i] = b.quoteIdentifier(c)
	}
	keys := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		keys[i] = b.quoteIdentifier(c)
	}
	assignments := make([]string, len(valueColumns))
	for i, c := range valueColumns {
		q := b.quoteIdentifier(c)
		assignments[i] = fmt.Sprintf("%s = excluded.%s", q, q)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		b.quoteIdentifier(table),
		strings.Join(quoted, ", "),
		b.placeholders(1, len(all)),
		strings.Join(keys, ", "),
		strings.Join(assignments, ", "))
}
