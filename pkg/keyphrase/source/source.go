// Package source turns document files into plain text for keyword
// extraction. Readers are chosen by file extension.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
)

// Reader extracts the text of one file.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, path string) (string, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Registry maps lowercase file extensions (".txt") to readers.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]Reader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Default returns a registry with the built-in readers: plain text,
// Markdown, HTML and DOCX.
func Default() *Registry {
	r := NewRegistry()
	r.Register(".txt", Text{})
	r.Register(".text", Text{})
	r.Register(".md", Markdown{})
	r.Register(".markdown", Markdown{})
	r.Register(".html", HTML{})
	r.Register(".htm", HTML{})
	r.Register(".docx", DOCX{})
	return r
}

// Register binds a reader to an extension, replacing any previous one.
func (r *Registry) Register(ext string, reader Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[normalizeExt(ext)] = reader
}

// Lookup returns the reader for path's extension.
func (r *Registry) Lookup(path string) (Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reader, ok := r.readers[normalizeExt(filepath.Ext(path))]
	return reader, ok
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Read extracts the text of path with the matching reader. Unknown
// extensions fail with internalerr.ErrUnsupportedFormat.
func (r *Registry) Read(ctx context.Context, path string) (string, error) {
	reader, ok := r.Lookup(path)
	if !ok {
		return "", fmt.Errorf("%s: %w (supported: %s)",
			path, internalerr.ErrUnsupportedFormat, strings.Join(r.Extensions(), ", "))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := reader.Read(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
