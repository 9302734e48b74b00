package source

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// AcceptedMIMETypes are the media types a selection may declare.
var AcceptedMIMETypes = []string{"text/plain", "application/pdf", "application/epub+zip"}

// AcceptedExtensions are the filename extensions offered by file pickers.
var AcceptedExtensions = []string{".txt", ".text", ".md", ".markdown", ".pdf", ".epub"}

var extensionTypes = map[string]MediaType{
	".txt":      Plain,
	".text":     Plain,
	".md":       Plain,
	".markdown": Plain,
	".pdf":      PDF,
	".epub":     EPUB,
}

var mimeTypes = map[string]MediaType{
	"text/plain":           Plain,
	"text/markdown":        Plain,
	"application/pdf":      PDF,
	"application/epub+zip": EPUB,
}

// DetectMediaType resolves a document's type from its filename extension,
// then the MIME type reported by the system, then by sniffing the content.
func DetectMediaType(name, declared string, content []byte) MediaType {
	if mt, ok := FromExtension(name); ok {
		return mt
	}
	if mt := FromMIME(declared); mt != Unknown {
		return mt
	}
	if len(content) == 0 {
		return Unknown
	}
	return FromMIME(mimetype.Detect(content).String())
}

// FromExtension maps the extension of name to a media type.
func FromExtension(name string) (MediaType, bool) {
	mt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]
	return mt, ok
}

// FromMIME maps a MIME type, parameters ignored, to a media type.
func FromMIME(s string) MediaType {
	if s == "" {
		return Unknown
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return Unknown
	}
	return mimeTypes[strings.ToLower(mt)]
}

// Accept rejects documents whose media type could not be resolved to one of
// the accepted formats.
func Accept(doc RawDocument) error {
	if doc.MediaType == Unknown {
		return fmt.Errorf("%w: %s", ErrUnsupportedSelection, doc.Name)
	}
	return nil
}
