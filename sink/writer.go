// Package sink provides ready-made Sink implementations for farm runs:
// a line-oriented text writer, a SQLite-backed sample store, and an
// in-memory sink for tests and benchmarks.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Writer appends values to an io.Writer as text, one value per line. Writes
// go through a buffer; call Flush (or Close, for file-backed writers) once
// the run is over.
type Writer struct {
	buf    *bufio.Writer
	closer io.Closer
}

// NewWriter wraps an io.Writer in a buffered line-oriented sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriter(w)}
}

// Create opens (or truncates) the file at path and returns a file-backed
// Writer. Close flushes the buffer and closes the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: create %s: %w", path, err)
	}
	return &Writer{buf: bufio.NewWriter(f), closer: f}, nil
}

// Append writes every value on its own line.
func (w *Writer) Append(values []float64) error {
	for _, v := range values {
		if _, err := w.buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains the internal buffer to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Close flushes the buffer and, for file-backed writers, closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
