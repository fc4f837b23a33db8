package synthetic

import "os"

// ShowHelp prints usage information for the data generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`NBAI synthetic data generator
=============================

Writes a reproducible league as raw CSV shards under the configured data
directory, using the shard file names from the configuration. Optionally
smoke-checks a running API instead.

Usage:
  go run ./cmd/gen-data [options]

Options:
  -seasons int     number of seasons (default 7)
  -first int       start year of the first season (default 2015)
  -teams int       number of teams, at most 30 (default 10)
  -players int     players per team (default 6)
  -games int       regular-season rounds per season (default 40)
  -seed int        random seed (default 42)
  -noise           add duplicate and zero-minute rows (default true)
  -smoke string    base URL of a running API to smoke-check, e.g. http://localhost:9080
  -timeout dur     HTTP timeout for smoke checks (default 30s)
  -help            show this help message

Examples:
  go run ./cmd/gen-data -seasons 10 -teams 16
  go run ./cmd/gen-data -smoke http://localhost:9080
`)
}
