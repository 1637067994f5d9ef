package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	busy  int
	max   int
	err   error
}

func (r *recorder) handle(_ context.Context, rel string) error {
	r.mu.Lock()
	r.busy++
	if r.busy > r.max {
		r.max = r.busy
	}
	r.paths = append(r.paths, rel)
	r.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	r.mu.Lock()
	r.busy--
	r.mu.Unlock()
	return r.err
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) count(rel string) int {
	n := 0
	for _, p := range r.snapshot() {
		if p == rel {
			n++
		}
	}
	return n
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func start(t *testing.T, root string, rec *recorder, opts ...Option) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := New(root, rec.handle, append([]Option{WithDebounce(50 * time.Millisecond), WithLogger(logger)}, opts...)...)
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	start(t, root, rec)

	for i := 0; i < 5; i++ {
		write(t, root, "note.md", "# v"+string(rune('0'+i)))
		time.Sleep(5 * time.Millisecond)
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.count("note.md") >= 1
	}, "note was not handled")
	time.Sleep(200 * time.Millisecond)
	if n := rec.count("note.md"); n != 1 {
		t.Errorf("handled %d times, want 1", n)
	}
}

func TestWatcher_FolderFilter(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "podcast"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	start(t, root, rec, WithFolder("podcast"))

	write(t, root, "other.md", "x")
	write(t, root, "podcast/ep.md", "x")
	write(t, root, "podcast/cover.png", "x")

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.count("podcast/ep.md") == 1
	}, "podcast note was not handled")
	time.Sleep(150 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("handled %v, want only podcast/ep.md", got)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	start(t, root, rec)

	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	write(t, root, "a/b/deep.md", "x")

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.count("a/b/deep.md") >= 1
	}, "note in new directory was not handled")
}

func TestWatcher_HiddenDirsIgnored(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".obsidian"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	start(t, root, rec)

	write(t, root, ".obsidian/workspace.md", "x")
	write(t, root, "visible.md", "x")

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return rec.count("visible.md") == 1
	}, "visible note was not handled")
	if n := rec.count(".obsidian/workspace.md"); n != 0 {
		t.Errorf("hidden note handled %d times", n)
	}
}

func TestWatcher_SequentialAndErrorsTolerated(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{err: errors.New("remote down")}
	start(t, root, rec)

	for _, n := range []string{"a.md", "b.md", "c.md", "d.md"} {
		write(t, root, n, "x")
	}

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool {
		return len(rec.snapshot()) >= 4
	}, "not all notes handled after errors")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.max != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", rec.max)
	}
}

func TestRelevant(t *testing.T) {
	w := New("/vault", nil, WithFolder("/posts/"))
	cases := map[string]bool{
		"/vault/posts/a.md":        true,
		"/vault/posts/sub/b.md":    true,
		"/vault/posts/a.txt":       false,
		"/vault/other/a.md":        false,
		"/vault/posts/.trash/x.md": false,
		"/elsewhere/posts/a.md":    false,
	}
	for abs, want := range cases {
		if _, got := w.relevant(abs); got != want {
			t.Errorf("relevant(%q) = %v, want %v", abs, got, want)
		}
	}
}
