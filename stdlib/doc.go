// Package stdlib provides the standard library of host functions for the
// riptide interpreter.
//
// [Builtins] returns the functions installed in every runtime built by the
// command line: output, collections, control flow, the environment and
// expression evaluation. [NewLoader] resolves import statements, either to a
// script file relative to @cwd or to one of the native modules:
//
//	import lang for *       # parse, format, quote, VERSION, assert
//	import process for *    # spawn, wait, kill, pid, command, exec, sleep
//	import fs for read      # read, write
//	import string for *     # len, join, split, upper, lower, trim, replace
//
// Every function follows the builtin calling convention of package interp:
// it receives the running fiber and the evaluated arguments, and returns a
// value or an error that is raised as an exception.
package stdlib
