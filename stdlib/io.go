package stdlib

import (
	"io"

	"github.com/ardnew/riptide/interp"
)

// print values... writes the values separated by spaces without a trailing
// newline. When the output is not a terminal sink the text is sent as one
// value.
func builtinPrint(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	s := join(args)

	if w, ok := f.Output().Writer(); ok {
		if _, err := io.WriteString(w, s); err != nil {
			return nil, interp.Errorf("print: %w", err)
		}

		return interp.Nil, nil
	}

	return interp.Nil, f.Send(interp.String(s))
}

// println values... sends the values joined by spaces as one line.
func builtinPrintln(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	return interp.Nil, f.Send(interp.String(join(args)))
}

func builtinEprint(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if _, err := io.WriteString(f.Stderr(), join(args)); err != nil {
		return nil, interp.Errorf("eprint: %w", err)
	}

	return interp.Nil, nil
}

func builtinEprintln(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if _, err := io.WriteString(f.Stderr(), join(args)+"\n"); err != nil {
		return nil, interp.Errorf("eprintln: %w", err)
	}

	return interp.Nil, nil
}
