// Package storage defines the content file-system abstraction.
package storage

import "github.com/starford/quire/internal/models"

// Provider is the interface for content file operations.
type Provider interface {
	// List returns metadata for every Markdown file under dir (relative to the root),
	// in lexical path order.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}

// IsMarkdown reports whether name has a Markdown extension the loader accepts.
func IsMarkdown(name string) bool {
	switch {
	case len(name) > 3 && name[len(name)-3:] == ".md":
		return true
	case len(name) > 4 && name[len(name)-4:] == ".mdx":
		return true
	}
	return false
}
