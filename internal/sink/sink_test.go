package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type memSink struct {
	events []map[string]any
	err    error
}

func (m *memSink) Publish(_ context.Context, event map[string]any) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memSink) Close() error { return m.err }

func TestWriterNDJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	ctx := context.Background()
	if err := w.Publish(ctx, map[string]any{"model": "Emit-ePost", "emitcode": 42}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := w.Publish(ctx, map[string]any{"model": "Emit-ePost", "emitcode": 43}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		var event map[string]any
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("line %d not JSON: %v", i, err)
		}
		if event["model"] != "Emit-ePost" {
			t.Fatalf("line %d model = %v", i, event["model"])
		}
	}
}

func TestMultiKeepsGoing(t *testing.T) {
	boom := errors.New("broker gone")
	bad := &memSink{err: boom}
	good := &memSink{}
	m := Multi{bad, good}

	err := m.Publish(context.Background(), map[string]any{"emitcode": 1})
	if !errors.Is(err, boom) {
		t.Fatalf("publish err = %v, want wrapped broker error", err)
	}
	if len(good.events) != 1 {
		t.Fatalf("good sink saw %d events, want 1", len(good.events))
	}
	if !errors.Is(m.Close(), boom) {
		t.Fatal("close did not join the failing sink error")
	}
}

func TestMultiNoError(t *testing.T) {
	m := Multi{&memSink{}, &memSink{}}
	if err := m.Publish(context.Background(), map[string]any{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	ctx := context.Background()

	for run := 0; run < 2; run++ {
		f, err := NewFile(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := f.Publish(ctx, map[string]any{"run": run}); err != nil {
			t.Fatalf("publish: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines after reopen, want 2", len(lines))
	}
}
