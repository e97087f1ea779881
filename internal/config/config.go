// Package config loads and validates the sink configuration.
//
// Configuration is a YAML document validated against an embedded CUE schema,
// so malformed files fail with a field-level message before any database
// work starts.
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// schema is the CUE contract every loaded configuration must satisfy.
// Durations are validated as integer nanoseconds after YAML parsing.
const schema = `
#Config: {
	dsn:     string & !=""
	dialect: "sqlite" | "postgres" | "mysql" | "generic"
	table: {
		name:         string & !=""
		pk_column:    string & !=""
		left_column:  string & !=""
		right_column: string & !=""
	}
	log: {
		table:            string & !=""
		pk_column:        string & !=""
		operation_column: string & !=""
	}
	offset: {
		table:           string & !=""
		logtable_column: string & !=""
		offset_column:   string & !=""
	}
	operations: {
		upsert: int & >=0
		delete: int & >=0 & !=upsert
	}
	auto_create:   bool
	max_retries:   int & >=0
	retry_backoff: int & >=0
	sync_interval: int & >0
}
`

// Duration wraps time.Duration so YAML values can be written as "5s", "250ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Table names the destination nested-set table and its coordinate columns.
type Table struct {
	Name        string `yaml:"name" json:"name"`
	PKColumn    string `yaml:"pk_column" json:"pk_column"`
	LeftColumn  string `yaml:"left_column" json:"left_column"`
	RightColumn string `yaml:"right_column" json:"right_column"`
}

// Log names the append-only change-log table.
type Log struct {
	Table           string `yaml:"table" json:"table"`
	PKColumn        string `yaml:"pk_column" json:"pk_column"`
	OperationColumn string `yaml:"operation_column" json:"operation_column"`
}

// Offset names the singleton table recording the highest folded log id.
type Offset struct {
	Table          string `yaml:"table" json:"table"`
	LogTableColumn string `yaml:"logtable_column" json:"logtable_column"`
	OffsetColumn   string `yaml:"offset_column" json:"offset_column"`
}

// Operations maps the producer's operation codes. The codes must match what
// the upstream writes into the log table's operation column.
type Operations struct {
	Upsert int `yaml:"upsert" json:"upsert"`
	Delete int `yaml:"delete" json:"delete"`
}

// Config is the full sink configuration for one destination.
type Config struct {
	DSN     string `yaml:"dsn" json:"dsn"`
	Dialect string `yaml:"dialect" json:"dialect"`

	Table      Table      `yaml:"table" json:"table"`
	Log        Log        `yaml:"log" json:"log"`
	Offset     Offset     `yaml:"offset" json:"offset"`
	Operations Operations `yaml:"operations" json:"operations"`

	AutoCreate   bool     `yaml:"auto_create" json:"auto_create"`
	MaxRetries   int      `yaml:"max_retries" json:"max_retries"`
	RetryBackoff Duration `yaml:"retry_backoff" json:"retry_backoff"`
	SyncInterval Duration `yaml:"sync_interval" json:"sync_interval"`
}

// Default returns a configuration with every column name and tunable set to
// its default. DSN and table name have no defaults and must come from the
// caller or a file.
func Default() *Config {
	return &Config{
		Dialect: "sqlite",
		Table: Table{
			PKColumn:    "id",
			LeftColumn:  "lft",
			RightColumn: "rgt",
		},
		Log: Log{
			PKColumn:        "log_id",
			OperationColumn: "op",
		},
		Offset: Offset{
			Table:          "nested_set_sync_log_offset",
			LogTableColumn: "log_table_name",
			OffsetColumn:   "log_table_offset",
		},
		Operations: Operations{
			Upsert: 0,
			Delete: 1,
		},
		AutoCreate:   true,
		MaxRetries:   3,
		RetryBackoff: Duration(3 * time.Second),
		SyncInterval: Duration(5 * time.Second),
	}
}

// Load reads a YAML configuration file, overlays it on the defaults, derives
// the log table name when absent, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDerived fills values computed from other fields.
func (c *Config) applyDerived() {
	if c.Log.Table == "" && c.Table.Name != "" {
		c.Log.Table = c.Table.Name + "_log"
	}
}

// Validate checks the configuration against the embedded CUE schema.
func (c *Config) Validate() error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	defn := schemaVal.LookupPath(cue.ParsePath("#Config"))
	if !defn.Exists() {
		return fmt.Errorf("config schema missing #Config definition")
	}

	unified := defn.Unify(ctx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %s", cueerrors.Details(err, nil))
	}
	return nil
}
