// Package cli contains the command line interface for riptide.
//
// # Usage
//
//	riptide [flags] [script [args...]]
//	riptide [flags] run -c 'code' [args...]
//	riptide fmt native|json|yaml|ast [source]
//	riptide repl
//	riptide init [--force]
//
// Running a script is the default command. Without a script, or with "-",
// the program is read from standard input.
//
// # Configuration
//
// Flags may also be set in the configuration file, config.rip in the user
// configuration directory, written in riptide syntax:
//
//	log-level = debug
//	grace = 5s
//	lib = [/usr/local/share/riptide]
//
// The file is parsed but never executed; only top-level literal assignments
// are read. A JSON file of the same name with a ".json" suffix is also
// consulted. "riptide init" writes the current flag values as a starting
// point.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: output format (text, json)
//   - --log-time-layout: timestamp format
//   - --[no-]log-caller: include caller information
//   - --[no-]log-pretty: colorize output
//
// # Interpreter Options
//
//   - --grace: time processes are given to exit on shutdown
//   - --max-depth: maximum nesting of block invocations
//   - --buffer: capacity of pipes between pipeline stages
//   - --lib: directories searched by import
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag; see
// package profile.
package cli
