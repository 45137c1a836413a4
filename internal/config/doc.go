// Package config provides configuration loading for evmgr.
//
// Configuration is resolved in layers, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A configuration file, decoded by extension: .toml, .yaml/.yml or .json
//  3. An optional .env file, loaded into the process environment
//  4. EVMGR_* environment variables
//
// The resolved configuration is validated before use. Capacities are fixed
// once the event manager is built from it; changing them requires a restart.
//
// # Example File
//
//	dispatch_table_size = 16
//	event_queue_size = 32
//
//	[logging]
//	level = "debug"
//	format = "json"
//
//	[producers.ticker]
//	enabled = true
//	interval = "250ms"
//	code = "timer0"
//
// # Environment Variables
//
//	EVMGR_DISPATCH_TABLE_SIZE=16
//	EVMGR_EVENT_QUEUE_SIZE=32
//	EVMGR_LOG_LEVEL=debug
//	EVMGR_HTTP_ADDR=:8080
//	EVMGR_PRODUCERS_WATCH_PATHS=/var/spool/in,/tmp/drop
package config
