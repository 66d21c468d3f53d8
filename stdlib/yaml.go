package stdlib

import (
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/riptide/interp"
)

// marshalYAML renders v as block-style YAML without a trailing newline.
func marshalYAML(f *interp.Fiber, v interp.Value) (string, error) {
	data, err := yaml.MarshalContext(f.Context(), interp.Native(v), yaml.Indent(2))
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(string(data), "\n"), nil
}

// dump values... sends the YAML rendering of each value.
func builtinDump(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	for _, v := range args {
		s, err := marshalYAML(f, v)
		if err != nil {
			return nil, interp.Errorf("dump: %w", err)
		}

		if err := f.Send(interp.String(s)); err != nil {
			return nil, err
		}
	}

	return interp.Nil, nil
}

func builtinToYAML(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	s, err := marshalYAML(f, arg(args, 0))
	if err != nil {
		return nil, interp.Errorf("to-yaml: %w", err)
	}

	return interp.String(s), nil
}

// from-yaml text decodes a YAML document into lists, tables and scalars.
func builtinFromYAML(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	var out any
	if err := yaml.UnmarshalContext(f.Context(), []byte(arg(args, 0).String()), &out); err != nil {
		return nil, interp.Errorf("from-yaml: %w", err)
	}

	return interp.ValueOf(out), nil
}
