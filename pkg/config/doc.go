// Package config loads and validates thinout configuration.
//
// Configuration is read from a YAML file, completed with defaults and
// optionally overridden by THINOUT_* environment variables (a ".env" file in
// the working directory is loaded first):
//
//	targets:
//	  - name: nightly-db
//	    dir: /var/backups/db
//	    pattern: "*.sql.gz"
//	    policy: "7:7,28:4,365:12"
//	    schedule: "0 4 * * *"
//	    weights:
//	      size: true
//	      patterns: ["*-monthly-*"]
//	journal:
//	  enabled: true
//	  path: /var/lib/thinout/journal.db
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// A policy can also be written as a list of span/capacity mappings:
//
//	policy:
//	  - {span: 7, capacity: 7}
//	  - {span: 28, capacity: 4}
//
// Environment variables follow THINOUT_SECTION_FIELD, e.g.
// THINOUT_JOURNAL_PATH or THINOUT_TELEMETRY_LOGGING_LEVEL. THINOUT_DRY_RUN
// forces dry-run mode on every target.
//
// Long-running processes can use Watcher to pick up edits to the file.
package config
