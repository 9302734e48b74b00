// Package source obtains the raw bytes of a user-selected document and its
// declared media type, independent of how the platform hands the file over.
package source

import "context"

// MediaType is the closed set of document formats the extractor understands.
type MediaType int

const (
	Unknown MediaType = iota
	Plain
	PDF
	EPUB
)

func (m MediaType) String() string {
	switch m {
	case Plain:
		return "plain"
	case PDF:
		return "pdf"
	case EPUB:
		return "epub"
	default:
		return "unknown"
	}
}

// MIME returns the canonical MIME type, or "" for Unknown.
func (m MediaType) MIME() string {
	switch m {
	case Plain:
		return "text/plain"
	case PDF:
		return "application/pdf"
	case EPUB:
		return "application/epub+zip"
	default:
		return ""
	}
}

// RawDocument is the format-agnostic result of reading a selection.
type RawDocument struct {
	Bytes     []byte
	MediaType MediaType
	Name      string
}

// ByteSource reads one selected document.
type ByteSource interface {
	FetchBytes(ctx context.Context) (RawDocument, error)
}
