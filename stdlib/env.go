package stdlib

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/riptide/interp"
)

const pathSep = string(os.PathListSeparator)

// cwd returns the value of @cwd, falling back to the process directory.
func cwd(f *interp.Fiber) string {
	if v, ok := f.Cvar("cwd"); ok && v.String() != "" {
		return v.String()
	}

	dir, _ := os.Getwd()

	return dir
}

// environment returns the table bound to @environment.
func environment(f *interp.Fiber) (*interp.Table, error) {
	v, _ := f.Cvar("environment")

	t, ok := v.(*interp.Table)
	if !ok {
		return nil, interp.Errorf("@environment is not a table")
	}

	return t, nil
}

// resolve interprets path relative to @cwd.
func resolve(f *interp.Fiber, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(cwd(f), path)
}

// cd [dir] changes @cwd in the innermost scope that binds it. Without an
// argument it changes to $HOME.
func builtinCd(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	dir := arg(args, 0).String()

	if dir == "" {
		env, err := environment(f)
		if err != nil {
			return nil, err
		}

		if dir = env.Get("HOME").String(); dir == "" {
			return nil, interp.Errorf("cd: HOME is not set")
		}
	}

	dir = resolve(f, dir)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, interp.Errorf("cd: %w", err)
	}

	if !info.IsDir() {
		return nil, interp.Errorf("cd: not a directory: %s", dir)
	}

	f.SetCvar("cwd", interp.String(dir))

	return interp.String(dir), nil
}

// path-prepend [--var NAME] [--existing] dirs... moves dirs to the front of
// a path list variable in @environment, PATH by default. With --existing
// only directories that exist are added.
func builtinPathPrepend(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return mungPath(f, "path-prepend", args, func(subject string, items []string, keep func(string) bool) string {
		if keep == nil {
			return mung.Make(
				mung.WithSubjectItems(subject),
				mung.WithDelim(pathSep),
				mung.WithPrefixItems(items...),
			).String()
		}

		return mung.Make(
			mung.WithSubjectItems(subject),
			mung.WithDelim(pathSep),
			mung.WithPrefixItems(items...),
			mung.WithFilter(keep),
		).String()
	})
}

// path-append [--var NAME] [--existing] dirs... adds dirs to the end of a
// path list variable, removing earlier occurrences.
func builtinPathAppend(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return mungPath(f, "path-append", args, func(subject string, items []string, keep func(string) bool) string {
		rest := mung.Make(
			mung.WithSubjectItems(subject),
			mung.WithDelim(pathSep),
			mung.WithFilter(func(s string) bool {
				return s != "" && !slices.Contains(items, s)
			}),
		).String()

		if keep != nil {
			items = slices.DeleteFunc(slices.Clone(items), func(s string) bool { return !keep(s) })
		}

		parts := slices.DeleteFunc([]string{rest, strings.Join(items, pathSep)},
			func(s string) bool { return s == "" })

		return strings.Join(parts, pathSep)
	})
}

type mungFunc func(subject string, items []string, keep func(string) bool) string

func mungPath(f *interp.Fiber, name string, args []interp.Value, fn mungFunc) (interp.Value, error) {
	opts, rest := flags(args, "var")

	key := opts["var"]
	if key == "" {
		key = "PATH"
	}

	if len(rest) == 0 {
		return nil, interp.Errorf("%s: directory required", name)
	}

	env, err := environment(f)
	if err != nil {
		return nil, err
	}

	items := make([]string, len(rest))
	for i, v := range rest {
		items[i] = v.String()
	}

	var keep func(string) bool
	if opts["existing"] == "true" {
		keep = func(s string) bool {
			info, err := os.Stat(resolve(f, s))

			return err == nil && info.IsDir()
		}
	}

	value := fn(env.Get(key).String(), items, keep)
	env.Set(key, interp.String(value))

	f.Logger().TraceContext(f.Context(), name, slog.String("var", key), slog.String("value", value))

	return interp.String(value), nil
}
