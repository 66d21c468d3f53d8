package interp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

// DefaultStreamBuffer is the capacity of the pipes between pipeline stages.
const DefaultStreamBuffer = 16

// errWouldBlock is returned by the non-blocking stream operations.
var errWouldBlock = errors.New("would block")

// Stream carries values between fibers. A stream is one of:
//
//   - a bounded pipe, created by [NewStream];
//   - a sink writing each value as a line, created by [NewWriterStream];
//   - a sink collecting values in memory, created by [NewCaptureStream];
//   - a source reading lines, created by [NewReaderStream].
//
// Closing a stream wakes both ends: senders fail with broken-pipe and
// receivers fail with end-of-stream once buffered values are drained.
type Stream struct {
	items  chan Value
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	w       io.Writer
	capture []Value

	r      io.Reader
	br     *bufio.Reader
	pump   sync.Once
	pumped bool
}

// NewStream returns a pipe holding up to buffer values.
func NewStream(buffer int) *Stream {
	if buffer < 0 {
		buffer = 0
	}

	return &Stream{items: make(chan Value, buffer), closed: make(chan struct{})}
}

// NewWriterStream returns a sink that writes the string form of each value
// followed by a newline to w.
func NewWriterStream(w io.Writer) *Stream {
	return &Stream{w: w, closed: make(chan struct{})}
}

// NewCaptureStream returns a sink that records every value sent to it.
func NewCaptureStream() *Stream {
	return &Stream{capture: []Value{}, closed: make(chan struct{})}
}

// NewReaderStream returns a source yielding each line of r, without its
// line terminator, as a [String]. Reading starts on the first receive.
func NewReaderStream(r io.Reader, buffer int) *Stream {
	s := NewStream(buffer)
	s.r = r
	s.br = bufio.NewReader(r)

	return s
}

// ClosedStream returns a stream that is already finished.
func ClosedStream() *Stream {
	s := NewStream(0)
	s.Close()

	return s
}

// Close finishes the stream. It is safe to call more than once.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.closed) })
}

// Closed reports whether the stream is finished.
func (s *Stream) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Writer returns the writer of a sink created by [NewWriterStream].
func (s *Stream) Writer() (io.Writer, bool) {
	return s.w, s.w != nil
}

// Captured returns the values recorded by a capture sink.
func (s *Stream) Captured() []Value {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Value(nil), s.capture...)
}

// rawWriter returns the writer of a writer sink for use as the output of an
// external command. Writes that are not to a file are serialized with the
// sink's own.
func (s *Stream) rawWriter() (io.Writer, bool) {
	if s.w == nil {
		return nil, false
	}

	if file, ok := s.w.(*os.File); ok {
		return file, true
	}

	return lockedWriter{s}, true
}

type lockedWriter struct{ s *Stream }

func (l lockedWriter) Write(p []byte) (int, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	return l.s.w.Write(p)
}

func (s *Stream) isSink() bool { return s.w != nil || s.capture != nil }

func (s *Stream) write(v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w != nil {
		if _, err := io.WriteString(s.w, v.String()+"\n"); err != nil {
			if isBrokenPipe(err) {
				return brokenPipe()
			}

			return err
		}

		return nil
	}

	s.capture = append(s.capture, v)

	return nil
}

// tryPut sends v without blocking.
func (s *Stream) tryPut(v Value) error {
	if s.Closed() {
		return brokenPipe()
	}

	if s.isSink() {
		return s.write(v)
	}

	select {
	case s.items <- v:
		return nil
	default:
		return errWouldBlock
	}
}

// put sends v, waiting for buffer space.
func (s *Stream) put(ctx context.Context, v Value) error {
	if err := s.tryPut(v); !errors.Is(err, errWouldBlock) {
		return err
	}

	select {
	case s.items <- v:
		return nil
	case <-s.closed:
		return brokenPipe()
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// tryTake receives a value without blocking.
func (s *Stream) tryTake() (Value, error) {
	if s.isSink() {
		return nil, endOfStream()
	}

	s.startPump()

	select {
	case v := <-s.items:
		return v, nil
	default:
	}

	if s.Closed() {
		select {
		case v := <-s.items:
			return v, nil
		default:
			return nil, endOfStream()
		}
	}

	return nil, errWouldBlock
}

// take receives a value, waiting until one is available or the stream
// finishes.
func (s *Stream) take(ctx context.Context) (Value, error) {
	if v, err := s.tryTake(); !errors.Is(err, errWouldBlock) {
		return v, err
	}

	select {
	case v := <-s.items:
		return v, nil
	case <-s.closed:
		select {
		case v := <-s.items:
			return v, nil
		default:
			return nil, endOfStream()
		}
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// startPump begins copying lines of a reader source into the buffer.
func (s *Stream) startPump() {
	if s.br == nil {
		return
	}

	s.pump.Do(func() {
		s.mu.Lock()
		s.pumped = true
		s.mu.Unlock()

		go func() {
			defer s.Close()

			for {
				line, err := s.br.ReadString('\n')
				if line != "" {
					line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

					select {
					case s.items <- String(line):
					case <-s.closed:
						return
					}
				}

				if err != nil {
					return
				}
			}
		}()
	})
}

// rawReader returns the reader of a source that no fiber has received from,
// so that external commands can read it directly.
func (s *Stream) rawReader() (io.Reader, bool) {
	if s.br == nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pumped {
		return nil, false
	}

	if s.br.Buffered() == 0 {
		return s.r, true
	}

	return s.br, true
}
