package storage

import (
	"errors"
	"os"
	"testing"

	"github.com/spf13/afero"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/checksum"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func memVault() *FS {
	return New(afero.NewMemMapFs())
}

func TestWriteAndRead(t *testing.T) {
	for name, s := range map[string]*FS{"os": tempVault(t), "mem": memVault()} {
		t.Run(name, func(t *testing.T) {
			content := []byte("# Hello\nWorld\n")
			if err := s.Write("note.md", content); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := s.Read("note.md")
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if string(got) != string(content) {
				t.Errorf("content mismatch: got %q", got)
			}
			text, err := s.ReadText("note.md")
			if err != nil || text != string(content) {
				t.Errorf("ReadText = %q, %v", text, err)
			}
		})
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := memVault()
	_, err := s.Read("missing.png")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Stat("missing.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stat err = %v, want ErrNotFound", err)
	}
}

func TestStat(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("img/a.png", []byte("12345"))
	info, err := s.Stat("img/a.png")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 5 {
		t.Errorf("size = %d, want 5", info.Size())
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.md", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".obsidian/workspace.md", []byte("hidden"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	byPath := map[string]string{}
	for _, it := range items {
		byPath[it.Path] = it.Checksum
	}
	if byPath["sub/b.md"] != checksum.Sum([]byte("b")) {
		t.Errorf("sub/b.md checksum = %q", byPath["sub/b.md"])
	}

	sub, err := s.List("sub")
	if err != nil {
		t.Fatalf("List(sub): %v", err)
	}
	if len(sub) != 1 || sub[0].Path != "sub/b.md" {
		t.Errorf("List(sub) = %+v", sub)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		"a/../../x.md",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := memVault()
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := afero.Glob(s.Afero(), tempPattern)
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/feedpost-does-not-exist-" + t.Name())
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "feedpost-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
