// Package storage defines the vault file-system abstraction.
package storage

import (
	"os"

	"github.com/starford/feedpost/internal/models"
)

// Provider is the interface for vault file operations. All paths are
// relative to the vault root and use forward slashes.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// ReadText returns the file at path as a string.
	ReadText(path string) (string, error)
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Stat returns file info for path.
	Stat(path string) (os.FileInfo, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}
