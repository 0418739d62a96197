// Package content models generated document content and its lifecycle:
// an opaque Generator produces structured DocContent, a SQLite cache makes
// generation deterministic across runs, and a renderer flattens content
// into the position/style operations a document service consumes.
package content

import "strings"

// DocSection is one heading-led block of a generated document.
type DocSection struct {
	Heading    string   `json:"heading"`
	Paragraphs []string `json:"paragraphs"`
	Bullets    []string `json:"bullets"`
}

// DocContent is the structured body of a generated document.
type DocContent struct {
	Title    string       `json:"title"`
	Summary  string       `json:"summary"`
	Sections []DocSection `json:"sections"`
	Metadata []string     `json:"metadata"`
}

// Flatten joins all textual content in document order. The result feeds
// the content hash recorded in a document's tag, so the order here is part
// of the fingerprint contract: changing it invalidates every tagged doc.
func (c *DocContent) Flatten() string {
	parts := []string{c.Title, c.Summary}
	for _, section := range c.Sections {
		parts = append(parts, section.Heading)
		parts = append(parts, section.Paragraphs...)
		parts = append(parts, section.Bullets...)
	}
	parts = append(parts, c.Metadata...)
	return strings.Join(parts, "\n")
}
