// Package common holds the configuration and logging shared by all packages.
//
// Config is the application scoped context handed to the preference runtime:
// where stores are persisted (DataDir), with which engine and codec, and how
// verbose logging is.
//
// Logging uses named loggers of github.com/lni/dragonboat/v4/logger. InitLoggers
// installs a factory that formats every line as
//
//	2025/01/01 12:00:00 INFO  | store      | message
//
// and applies the configured level to all loggers of this module.
package common
