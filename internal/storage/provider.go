// Package storage defines the rule corpus file-system abstraction.
package storage

import "github.com/depari/srules/internal/models"

// Provider is the interface for corpus file operations. All paths are
// relative to the corpus root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.RuleMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
