// Package log provides a concurrency-safe structured logger built on
// [log/slog].
//
// A [Logger] is an immutable value. Options are applied when it is made
// with [Make] or derived with [Logger.Wrap]:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Trace("fiber spawned", slog.Int("id", 3))
//
// # Levels
//
// [LevelTrace] sits below [slog.LevelDebug] and is used by the interpreter
// for per-fiber and per-stage events. The remaining levels map directly onto
// their slog counterparts.
//
// # Default logger
//
// The package-level functions ([Trace], [Debug], [Info], [Warn], [Error] and
// their Context variants) write through a default logger that the CLI
// reconfigures with [Config] while flags are parsed.
//
// # Pretty output
//
// With [WithPretty] enabled (the default), text records are colorized and
// JSON records are indented with colorized keys.
package log
