// Package config loads runtime configuration for the usermgr CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see Defaults).
//  2. Optional config file selected with -c/--config. JSON and YAML are both
//     accepted (JSON is a subset of YAML).
//  3. Environment: USERMGR_* variables, with a .env file in the working
//     directory (or Sources.EnvFile) filling in unset ones.
//  4. Command-line flags, when explicitly given.
//
// # Keys
//
//	server-url       backend API base URL  (USERMGR_SERVER_URL)
//	session-db       session database path (USERMGR_SESSION_DB)
//	request-timeout  per-request timeout   (USERMGR_REQUEST_TIMEOUT)
//	log-level        debug|info|warn|error (USERMGR_LOG_LEVEL)
//	log-format       text|json|console     (USERMGR_LOG_FORMAT)
//
// Example file:
//
//	server-url: http://127.0.0.1:8000/api
//	request-timeout: 5s
//	log-format: console
package config
