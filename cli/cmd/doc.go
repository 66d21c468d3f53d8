// Package cmd implements the riptide subcommands: run, fmt, repl and init.
//
// Commands receive their shared state through the context: the kong
// context ([WithContext]), the prelude scripts ([WithPreludes]) and the
// interpreter settings ([WithSettings]).
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
