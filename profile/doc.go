// Package profile provides optional runtime profiling of the riptide
// interpreter through [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o riptide .
//
// Without the tag [Enabled] is false, [Modes] is empty and [Start] returns a
// no-op. With it, the command line gains --pprof-mode and --pprof-dir:
//
//	riptide --pprof-mode cpu script.rip
//	go tool pprof riptide ~/.cache/riptide/pprof/cpu.pprof
//
// Block and mutex profiles are the useful ones for scheduler contention
// between fibers; goroutine profiles show fibers parked on streams. Trace
// profiles add high overhead and are best kept short.
//
// The pprof build also imports [net/http/pprof], which registers its
// handlers on [net/http.DefaultServeMux].
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
