package stdlib

import (
	"slices"
	"strings"

	"github.com/ardnew/riptide/interp"
	"github.com/ardnew/riptide/pkg"
)

// funcs maps builtin names to their implementations.
type funcs map[string]interp.BuiltinFunc

func (fs funcs) values() map[string]interp.Value {
	out := make(map[string]interp.Value, len(fs))
	for name, fn := range fs {
		out[name] = interp.NewBuiltin(name, fn)
	}

	return out
}

// Builtins returns the standard library functions, keyed by name. The map
// is freshly allocated on each call.
func Builtins() map[string]interp.Value {
	all := funcs{
		"print":    builtinPrint,
		"println":  builtinPrintln,
		"eprint":   builtinEprint,
		"eprintln": builtinEprintln,

		"list":      builtinList,
		"table":     builtinTable,
		"table-set": builtinTableSet,
		"typeof":    builtinTypeof,
		"len":       builtinLen,
		"nth":       builtinNth,
		"get":       builtinGet,

		"eq":        builtinEq,
		"not":       builtinNot,
		"if":        builtinIf,
		"loop":      builtinLoop,
		"call":      builtinCall,
		"nil":       builtinNil,
		"assert":    builtinAssert,
		"backtrace": builtinBacktrace,

		"cd":           builtinCd,
		"path-prepend": builtinPathPrepend,
		"path-append":  builtinPathAppend,

		"dump":      builtinDump,
		"to-yaml":   builtinToYAML,
		"from-yaml": builtinFromYAML,
		"expr":      builtinExpr,
	}

	return all.values()
}

// native returns the exports of the native module name.
func native(name string) (map[string]interp.Value, bool) {
	switch name {
	case "lang":
		m := funcs{
			"parse":  langParse,
			"format": langFormat,
			"quote":  langQuote,
			"assert": builtinAssert,
			"dump":   builtinDump,
		}.values()
		m["VERSION"] = interp.String(pkg.Version())

		return m, true

	case "process":
		return funcs{
			"spawn":     forward("spawn"),
			"wait":      forward("wait"),
			"kill":      forward("kill"),
			"pid":       forward("pid"),
			"processes": forward("processes"),
			"command":   forward("command"),
			"exec":      forward("exec"),
			"exit":      forward("exit"),
			"sleep":     forward("sleep"),
		}.values(), true

	case "fs":
		return funcs{
			"read":  fsRead,
			"write": fsWrite,
		}.values(), true

	case "string":
		return funcs{
			"len":     stringLen,
			"join":    stringJoin,
			"split":   stringSplit,
			"upper":   stringUpper,
			"lower":   stringLower,
			"trim":    stringTrim,
			"replace": stringReplace,
		}.values(), true
	}

	return nil, false
}

// NativeModules returns the names of the native modules.
func NativeModules() []string {
	return []string{"fs", "lang", "process", "string"}
}

// forward re-exports the runtime builtin name.
func forward(name string) interp.BuiltinFunc {
	return func(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
		fn, ok := f.Runtime().Builtin(name)
		if !ok {
			return nil, interp.Errorf("%s is not available", name)
		}

		return f.Invoke(fn, args...)
	}
}

// arg returns args[i], or Nil when absent.
func arg(args []interp.Value, i int) interp.Value {
	if i < len(args) {
		return args[i]
	}

	return interp.Nil
}

// join returns the string forms of args separated by a space.
func join(args []interp.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}

	return strings.Join(parts, " ")
}

// flags splits leading --name arguments from args. A flag listed in valued
// takes the following argument as its value; other flags bind "true".
func flags(args []interp.Value, valued ...string) (map[string]string, []interp.Value) {
	set := make(map[string]string)

	for len(args) > 0 {
		s, ok := args[0].(interp.String)
		if !ok || !strings.HasPrefix(string(s), "--") {
			break
		}

		args = args[1:]

		name := strings.TrimPrefix(string(s), "--")
		if name == "" {
			break
		}

		if k, v, ok := strings.Cut(name, "="); ok {
			set[k] = v

			continue
		}

		if slices.Contains(valued, name) && len(args) > 0 {
			set[name] = args[0].String()
			args = args[1:]

			continue
		}

		set[name] = "true"
	}

	return set, args
}
