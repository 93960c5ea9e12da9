// Package config loads runtime configuration for the zyntracker server.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   HTTP listen address
//	-d string   data directory holding the local mirror
//	-m string   mirror driver: sqlite or memory
//	-r string   remote driver: github or s3
//	-g string   GitHub API endpoint override
//	-t int      remote call timeout in seconds, 0 disables it
//	-w int      default stats window in days
//	-l string   log level: debug, info, warn or error
//
// # JSON schema
//
// Durations use timex.Duration, so "5s" and integer nanoseconds both work:
//
//	{
//	  "http_addr": "127.0.0.1:3000",
//	  "data_dir": ".zyn",
//	  "mirror_driver": "sqlite",
//	  "remote_driver": "s3",
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "s3_bucket": "zyn-tracker",
//	  "s3_access_key_id": "minio",
//	  "remote_timeout": "10s",
//	  "log_format": "console"
//	}
//
// Fields missing from the file keep their default. Bad JSON or flag values
// panic; main recovers and exits non-zero.
package config
