// Package extract turns a RawDocument into normalized plain text.
//
// Dispatch is a closed switch over source.MediaType with one function per
// format. Every failure wraps one of ErrDecodeFailed, ErrParseFailed or
// ErrUnsupportedFormat.
package extract

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/metcalfc/pacer/internal/source"
	"go.uber.org/zap"
)

var (
	// ErrDecodeFailed means the bytes are not valid UTF-8 text.
	ErrDecodeFailed = errors.New("decode failed")
	// ErrParseFailed means a PDF or EPUB container could not be read.
	ErrParseFailed = errors.New("parse failed")
	// ErrUnsupportedFormat means the type is unknown and the bytes are not text.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for per-page and per-section warnings.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithAllSections makes EPUB extraction read every spine section instead of
// only the first.
func WithAllSections() Option {
	return func(d *Dispatcher) { d.allSections = true }
}

// Dispatcher selects the extractor for a document's media type. It holds no
// per-document state and is safe for concurrent use.
type Dispatcher struct {
	logger      *zap.Logger
	allSections bool
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Extract returns the normalized text of doc.
func (d *Dispatcher) Extract(ctx context.Context, doc source.RawDocument) (string, error) {
	var (
		text string
		err  error
	)
	switch doc.MediaType {
	case source.Plain:
		text, err = decodeUTF8(doc.Bytes)
	case source.PDF:
		text, err = d.extractPDF(ctx, doc.Bytes)
	case source.EPUB:
		text, err = d.extractEPUB(ctx, doc.Bytes)
	default:
		if !utf8.Valid(doc.Bytes) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, doc.Name)
		}
		d.logger.Debug("unknown media type, reading as text", zap.String("source", doc.Name))
		text, err = decodeUTF8(doc.Bytes)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", doc.Name, err)
	}
	return Normalize(text), nil
}

// Load fetches a document from src and extracts it.
func (d *Dispatcher) Load(ctx context.Context, src source.ByteSource) (source.RawDocument, string, error) {
	doc, err := src.FetchBytes(ctx)
	if err != nil {
		return source.RawDocument{}, "", err
	}
	text, err := d.Extract(ctx, doc)
	if err != nil {
		return doc, "", err
	}
	d.logger.Debug("extracted document",
		zap.String("source", doc.Name),
		zap.Stringer("media_type", doc.MediaType),
		zap.Int("bytes", len(doc.Bytes)),
	)
	return doc, text, nil
}

// SupportedFormats returns the readable formats with their extensions.
func SupportedFormats() []string {
	return []string{
		"Plain text (.txt, .text, .md, .markdown)",
		"PDF (.pdf)",
		"EPUB (.epub)",
	}
}
