package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Writer streams events to w as newline delimited JSON, one event per
// line.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer emitting NDJSON to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Publish implements Sink.
func (w *Writer) Publish(_ context.Context, event map[string]any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Close implements Sink.
func (w *Writer) Close() error { return nil }

// File appends NDJSON events to a file.
type File struct {
	*Writer
	f *os.File
}

// NewFile opens or creates path for appending events.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	return &File{Writer: NewWriter(f), f: f}, nil
}

// Close implements Sink.
func (f *File) Close() error { return f.f.Close() }
