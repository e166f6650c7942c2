// Package config loads settings for the snipbin CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c/--config.
//  3. Command-line flags bound by the cli package, which override both.
//
// # JSON schema
//
// Durations may be strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "session_db": "/home/me/.config/snipbin/session.db",
//	  "request_timeout": "10s"
//	}
package config
