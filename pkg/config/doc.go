// # Configuration File
//
// A complete file with every section:
//
//	name: scorer
//	evaluation:
//	  parallelism: 8          # 1 sequential, -1 unordered, n > 1 bounded
//	  drop_columns: [debug]
//	  row_timeout: 2s
//	codec:
//	  format: csv             # json, csv or arrow
//	  compression: none
//	  csv_separator: ";"
//	  error_column: _error
//	observability:
//	  log_level: ${LOG_LEVEL:-info}
//	  enable_metrics: true
//
// # Environment Variable Substitution
//
// ${VAR_NAME} is replaced by the variable's value before parsing, and
// ${VAR_NAME:-fallback} falls back when the variable is unset or empty.
// Values given on the command line override the file.
package config
