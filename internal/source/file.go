package source

import (
	"context"
	"os"
	"path/filepath"
)

// FileSource reads a document from a local path.
type FileSource struct {
	Path string
	// MIME is an optional system-reported media type.
	MIME string
}

func (s FileSource) FetchBytes(ctx context.Context) (RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return RawDocument{}, readFailed(s.Path, err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return RawDocument{}, readFailed(s.Path, err)
	}
	return RawDocument{
		Bytes:     data,
		MediaType: DetectMediaType(s.Path, s.MIME, data),
		Name:      filepath.Base(s.Path),
	}, nil
}
