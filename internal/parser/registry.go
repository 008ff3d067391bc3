// Package parser extracts ordered text chunks from raw document bytes,
// selecting a format-specific parser by declared content type.
package parser

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when no parser handles the declared
// content type. Callers must surface it, never guess a format.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Parser extracts an ordered sequence of text chunks from raw bytes.
type Parser interface {
	Parse(data []byte) ([]string, error)
}

// Registry maps content types to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a registry with all built-in parsers registered.
// Image types are deliberately absent: there is no OCR path, so they
// fail fast as unsupported.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register("text/plain", &PlainText{})
	r.Register("text/markdown", &PlainText{})
	r.Register("text/html", &HTML{})
	r.Register("application/pdf", &PDF{})
	r.Register("application/vnd.openxmlformats-officedocument.wordprocessingml.document", &DOCX{})
	r.Register("application/vnd.openxmlformats-officedocument.presentationml.presentation", &PPTX{})
	r.Register("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", &XLSX{})
	return r
}

// Register adds or replaces the parser for a content type.
func (r *Registry) Register(contentType string, p Parser) {
	r.parsers[contentType] = p
}

// Parse extracts text chunks from data using the parser registered for
// contentType.
func (r *Registry) Parse(data []byte, contentType string) ([]string, error) {
	p, ok := r.parsers[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, contentType)
	}
	chunks, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", contentType, err)
	}
	return chunks, nil
}
