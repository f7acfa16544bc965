// Package source locates decomposition documents in a folder.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/metrics"
)

// DefaultPattern matches decomposition documents.
const DefaultPattern = "*.json"

// Document is one decomposition file found in a folder.
type Document struct {
	// Name is the file's base name, used as the record's file column.
	Name string
	// Path is the full path on the source filesystem.
	Path string
	// Project and Candidate come from Name; both are empty when Name has
	// no "project_candidate" form.
	Project   string
	Candidate string
}

// Source lists and reads documents from one directory. Subdirectories are
// not descended into.
type Source struct {
	fs      afero.Fs
	dir     string
	pattern string
}

// New creates a Source over dir. An empty pattern means DefaultPattern.
func New(fs afero.Fs, dir, pattern string) (*Source, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Source{fs: fs, dir: filepath.Clean(dir), pattern: pattern}, nil
}

// NewOS creates a Source backed by the operating system filesystem.
func NewOS(dir, pattern string) (*Source, error) {
	return New(afero.NewOsFs(), dir, pattern)
}

// Dir returns the directory the source reads from.
func (s *Source) Dir() string {
	return s.dir
}

// Fs returns the underlying filesystem.
func (s *Source) Fs() afero.Fs {
	return s.fs
}

// Matches reports whether path names a document of this source: a file
// directly inside Dir whose base name matches the pattern.
func (s *Source) Matches(path string) bool {
	if filepath.Clean(filepath.Dir(path)) != s.dir {
		return false
	}
	ok, _ := filepath.Match(s.pattern, filepath.Base(path))
	return ok
}

// List returns the matching documents sorted by name.
func (s *Source) List() ([]Document, error) {
	isDir, err := afero.IsDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open folder %s: %w", s.dir, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%s is not a folder", s.dir)
	}

	// ReadDir sorts by name.
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", s.dir, err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if ok, _ := filepath.Match(s.pattern, entry.Name()); !ok {
			continue
		}
		docs = append(docs, NewDocument(filepath.Join(s.dir, entry.Name())))
	}
	return docs, nil
}

// Read returns the raw bytes of doc.
func (s *Source) Read(doc Document) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, doc.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", doc.Name)
	}
	return data, nil
}

// NewDocument describes the file at path.
func NewDocument(path string) Document {
	name := filepath.Base(path)
	project, candidate, _ := metrics.ParseIdentity(name)
	return Document{Name: name, Path: path, Project: project, Candidate: candidate}
}
