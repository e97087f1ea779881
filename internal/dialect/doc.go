// Package dialect generates the SQL statements the sink executes.
//
// The synchronizer and writer only decide which columns participate in a
// statement; identifier quoting, placeholder style, upsert syntax, and
// auto-increment DDL are engine-specific and live here. Supported engines:
// sqlite, postgres, mysql, and a quoted-ANSI generic fallback.
//
// All statements are fully parameterized. Values are never interpolated
// into SQL text.
package dialect
