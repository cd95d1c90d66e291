// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Sources, lowest precedence first:

 1. built-in defaults
 2. YAML file given with -c
 3. environment variables (a .env file is loaded first if present)
 4. command-line flags

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string or sqlite path (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - TokenSecret: HMAC key for bearer tokens (required)
  - FileStoreDir: attachment directory (default: in memory)
  - QueryTimeout: per-request storage timeout (default: 5s)
  - MessageRetention: broadcast message lifetime (default: 720h)
  - SweepInterval: message sweep period, 0 disables (default: 1h)
  - TraceStdout: print trace spans
  - Debug: debug logging

# CLI Flags

	-c                  YAML config file
	-env-file           dotenv file (default .env)
	-p                  Server port
	-d                  Database URL
	-t                  Database type
	-token-secret       Token secret
	-files              Attachment store directory
	-query-timeout      Storage timeout
	-message-retention  Message lifetime
	-sweep-interval     Sweep period
	-trace-stdout       Print spans
	-debug              Debug logging

# Environment Variables

PORT, DATABASE_URL, DATABASE_TYPE, TOKEN_SECRET, FILE_STORE_DIR,
QUERY_TIMEOUT, MESSAGE_RETENTION, SWEEP_INTERVAL, TRACE_STDOUT, DEBUG.
*/
package cliparse
