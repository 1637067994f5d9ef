package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/checksum"
	"github.com/starford/feedpost/internal/models"
)

const tempPattern = ".feedpost-tmp-*"

// FS implements Provider on top of an afero file system whose root is the
// vault directory.
type FS struct {
	fs afero.Fs
}

// NewFS creates a Provider rooted at the given OS directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), abs)), nil
}

// New wraps an afero file system whose root is the vault root.
func New(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

// Afero exposes the underlying file system.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

// safePath cleans a vault-relative path and rejects absolute paths and
// paths that escape the root.
func safePath(rel string) (string, error) {
	if rel == "" {
		return ".", nil
	}
	slashed := filepath.ToSlash(rel)
	if path.IsAbs(slashed) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	cleaned := path.Clean(slashed)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return filepath.FromSlash(cleaned), nil
}

func wrapNotExist(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: %s %s: %w", op, p, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: %s %s: %w", op, p, err)
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(p string) ([]byte, error) {
	clean, err := safePath(p)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, clean)
	if err != nil {
		return nil, wrapNotExist("read", p, err)
	}
	return data, nil
}

// ReadText returns a vault file as a string.
func (f *FS) ReadText(p string) (string, error) {
	data, err := f.Read(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stat returns file info for a vault path.
func (f *FS) Stat(p string) (os.FileInfo, error) {
	clean, err := safePath(p)
	if err != nil {
		return nil, err
	}
	info, err := f.fs.Stat(clean)
	if err != nil {
		return nil, wrapNotExist("stat", p, err)
	}
	return info, nil
}

// List walks dir and returns metadata for every .md file, skipping hidden
// directories.
func (f *FS) List(dir string) ([]models.NoteMetadata, error) {
	base, err := safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.NoteMetadata
	err = afero.Walk(f.fs, base, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if p != base && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".md") {
			return nil
		}
		data, err := afero.ReadFile(f.fs, p)
		if err != nil {
			return err
		}
		out = append(out, models.NoteMetadata{
			Path:      filepath.ToSlash(p),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, wrapNotExist("list", dir, err)
	}
	return out, nil
}

// Write atomically writes content: temp file, sync, rename.
func (f *FS) Write(p string, content []byte) error {
	clean, err := safePath(p)
	if err != nil {
		return err
	}
	if clean == "." {
		return fmt.Errorf("storage: write: empty path")
	}
	dir := filepath.Dir(clean)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := afero.TempFile(f.fs, dir, tempPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = f.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := f.fs.Rename(tmpName, clean); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
