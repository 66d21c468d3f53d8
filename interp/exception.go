package interp

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type exceptionKind int

const (
	kindThrown exceptionKind = iota
	kindRuntime
	kindEndOfStream
	kindBrokenPipe
	kindCancel
)

// Exception is a runtime exception. Its payload is an arbitrary value.
type Exception struct {
	Payload Value
	Trace   []string // innermost call first
	Cause   error
	kind    exceptionKind
}

// Throw returns an exception carrying payload, as raised by the throw
// builtin.
func Throw(payload Value) *Exception {
	if payload == nil {
		payload = Nil
	}

	return &Exception{Payload: payload, kind: kindThrown}
}

// Errorf returns a runtime exception whose payload is the formatted message.
func Errorf(format string, args ...any) *Exception {
	err := fmt.Errorf(format, args...)

	return &Exception{Payload: String(err.Error()), Cause: errors.Unwrap(err), kind: kindRuntime}
}

// Wrap converts err to an exception. Exceptions pass through unchanged.
func Wrap(err error) *Exception {
	var e *Exception
	if errors.As(err, &e) {
		return e
	}

	return &Exception{Payload: String(err.Error()), Cause: err, kind: kindRuntime}
}

func endOfStream() *Exception {
	return &Exception{Payload: String("end of stream"), kind: kindEndOfStream}
}

func brokenPipe() *Exception {
	return &Exception{Payload: String("broken pipe"), kind: kindBrokenPipe}
}

func cancelled(cause error) *Exception {
	return &Exception{Payload: String("cancelled"), Cause: cause, kind: kindCancel}
}

// Error renders the payload.
func (e *Exception) Error() string {
	if s := e.Payload.String(); s != "" {
		return s
	}

	return e.Payload.Kind().String() + " exception"
}

func (e *Exception) Unwrap() error { return e.Cause }

// Catchable reports whether try may intercept e. Cancellation raised by kill
// and exit is not catchable.
func (e *Exception) Catchable() bool { return e.kind != kindCancel }

// LogValue implements [slog.LogValuer].
func (e *Exception) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("exception", e.Error()),
		slog.String("type", e.Payload.Kind().String()),
	}

	if len(e.Trace) > 0 {
		attrs = append(attrs, slog.String("trace", strings.Join(e.Trace, " < ")))
	}

	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}

	return slog.GroupValue(attrs...)
}

// Report returns the message and trace as printed for an uncaught exception.
func (e *Exception) Report() string {
	var b strings.Builder

	b.WriteString("uncaught exception: ")
	b.WriteString(e.Error())

	for _, at := range e.Trace {
		b.WriteString("\n    at ")
		b.WriteString(at)
	}

	return b.String()
}

// IsEndOfStream reports whether err was raised by receiving from a finished
// stream.
func IsEndOfStream(err error) bool { return hasKind(err, kindEndOfStream) }

// IsBrokenPipe reports whether err was raised by sending into a stream whose
// reader has finished.
func IsBrokenPipe(err error) bool { return hasKind(err, kindBrokenPipe) }

// IsCancelled reports whether err is a cancellation raised by kill.
func IsCancelled(err error) bool { return hasKind(err, kindCancel) }

// IsStreamEnd reports whether err ends a stage normally.
func IsStreamEnd(err error) bool { return IsEndOfStream(err) || IsBrokenPipe(err) }

func hasKind(err error, kind exceptionKind) bool {
	var e *Exception

	return errors.As(err, &e) && e.kind == kind
}

// returnSignal unwinds to the nearest closure invocation.
type returnSignal struct{ value Value }

func (*returnSignal) Error() string { return "return outside of a block" }

// exitSignal unwinds every fiber when the process exits.
type exitSignal struct{ code int }

func (s *exitSignal) Error() string { return fmt.Sprintf("exit %d", s.code) }

// ExitError is returned by [Runtime.Execute] when the script calls exit.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// FatalError is an unrecoverable failure. It is passed to the abort hook and
// never unwinds through try.
type FatalError struct {
	Msg   string
	Cause error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return "fatal: " + e.Msg + ": " + e.Cause.Error()
	}

	return "fatal: " + e.Msg
}

func (e *FatalError) Unwrap() error { return e.Cause }

// catchable reports whether err may be handled by try.
func catchable(err error) bool {
	var e *Exception
	if errors.As(err, &e) {
		return e.Catchable()
	}

	var (
		ret   *returnSignal
		exit  *exitSignal
		fatal *FatalError
	)

	return !errors.As(err, &ret) && !errors.As(err, &exit) && !errors.As(err, &fatal)
}

// raise converts errors returned by builtins into exceptions, leaving control
// signals and fatal errors alone.
func raise(err error) error {
	if err == nil {
		return nil
	}

	var (
		e     *Exception
		ret   *returnSignal
		exit  *exitSignal
		fatal *FatalError
	)

	if errors.As(err, &e) || errors.As(err, &ret) || errors.As(err, &exit) ||
		errors.As(err, &fatal) {
		return err
	}

	return Wrap(err)
}
