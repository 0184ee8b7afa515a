package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingInserter struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingInserter) Insert(ctx context.Context, texts []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, texts)
	return len(texts), nil
}

func (r *recordingInserter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingInserter) lastCall() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_InsertsNewBlockFile(t *testing.T) {
	dir := t.TempDir()
	inserter := &recordingInserter{}
	w := New(dir, inserter, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	blocks := `[
		{"type": "text", "content": "fresh content", "id": 0, "doc_id": "new", "page": 1},
		{"type": "error_parsing", "raw_content": "junk", "doc_id": "new", "page": 2}
	]`
	if err := os.WriteFile(filepath.Join(dir, "new.json"), []byte(blocks), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 3*time.Second, func() bool { return inserter.callCount() > 0 }) {
		t.Fatal("inserter was never called")
	}
	texts := inserter.lastCall()
	if len(texts) != 1 || texts[0] != "fresh content" {
		t.Errorf("parse-error blocks must be skipped, got %v", texts)
	}
}

func TestWatcher_IgnoresNonJSON(t *testing.T) {
	dir := t.TempDir()
	inserter := &recordingInserter{}
	w := New(dir, inserter, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(debounceInterval + 300*time.Millisecond)
	if inserter.callCount() != 0 {
		t.Errorf("non-JSON file should be ignored, got %d calls", inserter.callCount())
	}
}

func TestWatcher_DebouncesRewrites(t *testing.T) {
	dir := t.TempDir()
	inserter := &recordingInserter{}
	w := New(dir, inserter, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "doc.json")
	blocks := `[{"type": "text", "content": "content", "id": 0, "doc_id": "doc", "page": 1}]`
	// Rapid successive writes should collapse into one insert.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte(blocks), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	if !waitFor(t, 3*time.Second, func() bool { return inserter.callCount() > 0 }) {
		t.Fatal("inserter was never called")
	}
	time.Sleep(debounceInterval + 200*time.Millisecond)
	if n := inserter.callCount(); n != 1 {
		t.Errorf("rapid writes should debounce to 1 insert, got %d", n)
	}
}
