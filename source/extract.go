// Package source turns incoming files into plain text for analysis and
// watches a source folder for new documents.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ExtractionError marks input that cannot be turned into text. It is fatal:
// the job is surfaced immediately, never retried.
type ExtractionError struct {
	Name   string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot extract %q: %s", e.Name, e.Reason)
}

// IsExtractionError reports whether err is an extraction failure.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// TextExtractor converts one document format to plain text.
type TextExtractor interface {
	// Extensions lists the file extensions this extractor handles,
	// lowercase with the leading dot.
	Extensions() []string

	// Extract returns the document text.
	Extract(name string, data []byte) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]TextExtractor
}

// NewRegistry builds a registry from the given extractors. Later extractors
// win extension conflicts.
func NewRegistry(extractors ...TextExtractor) *Registry {
	r := &Registry{byExt: make(map[string]TextExtractor)}
	for _, e := range extractors {
		for _, ext := range e.Extensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// DefaultRegistry handles plain text, markdown, and HTML.
func DefaultRegistry() *Registry {
	return NewRegistry(PlainTextExtractor{}, NewHTMLExtractor())
}

// Supported reports whether the registry can extract the named file.
func (r *Registry) Supported(name string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extract dispatches to the extractor for the file's extension.
func (r *Registry) Extract(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	extractor, ok := r.byExt[ext]
	if !ok {
		return "", &ExtractionError{Name: name, Reason: fmt.Sprintf("unsupported extension %q", ext)}
	}
	return extractor.Extract(name, data)
}

// PlainTextExtractor passes UTF-8 text files through unchanged.
type PlainTextExtractor struct{}

// Extensions implements TextExtractor.
func (PlainTextExtractor) Extensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// Extract implements TextExtractor.
func (PlainTextExtractor) Extract(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ExtractionError{Name: name, Reason: "file is empty"}
	}
	if !utf8.Valid(data) {
		return "", &ExtractionError{Name: name, Reason: "not valid UTF-8"}
	}
	return string(data), nil
}
