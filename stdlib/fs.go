package stdlib

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/readahead"

	"github.com/ardnew/riptide/interp"
)

// read path sends the lines of a file. When the output is a terminal sink the
// file is copied through unchanged. Returns the number of bytes read.
func fsRead(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args) == 0 {
		return nil, interp.Errorf("read: file path required")
	}

	file, err := os.Open(resolve(f, args[0].String()))
	if err != nil {
		return nil, interp.Errorf("read: %w", err)
	}
	defer file.Close()

	ra := readahead.NewReader(file)
	defer ra.Close()

	if w, ok := f.Output().Writer(); ok {
		n, err := io.Copy(w, ra)
		if err != nil {
			return nil, interp.Errorf("read: %w", err)
		}

		return interp.Number(n), nil
	}

	var n int

	sc := bufio.NewScanner(ra)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for sc.Scan() {
		n += len(sc.Bytes()) + 1

		if err := f.Send(interp.String(sc.Text())); err != nil {
			return nil, err
		}
	}

	if err := sc.Err(); err != nil {
		return nil, interp.Errorf("read: %w", err)
	}

	return interp.Number(n), nil
}

// write path receives values until end of stream and writes each as a line.
// Returns the number of bytes written.
func fsWrite(f *interp.Fiber, args []interp.Value) (interp.Value, error) {
	if len(args) == 0 {
		return nil, interp.Errorf("write: file path required")
	}

	file, err := os.Create(resolve(f, args[0].String()))
	if err != nil {
		return nil, interp.Errorf("write: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	var n int

	for {
		v, err := f.Recv()
		if err != nil {
			if interp.IsEndOfStream(err) {
				break
			}

			return nil, err
		}

		m, err := io.WriteString(w, v.String()+"\n")
		n += m

		if err != nil {
			return nil, interp.Errorf("write: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, interp.Errorf("write: %w", err)
	}

	return interp.Number(n), nil
}
