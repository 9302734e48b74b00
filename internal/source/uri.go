package source

import (
	"context"

	"fyne.io/fyne/v2"
)

// URISource adapts the callback arguments of a fyne file-open dialog, where
// the selection arrives as a stream behind a storage URI rather than a path.
type URISource struct {
	Reader fyne.URIReadCloser
	Err    error
}

func (s URISource) FetchBytes(ctx context.Context) (RawDocument, error) {
	if s.Err != nil {
		return RawDocument{}, readFailed("picker", s.Err)
	}
	if s.Reader == nil {
		return RawDocument{}, ErrUserCancelled
	}
	defer s.Reader.Close()

	uri := s.Reader.URI()
	data, err := readAll(ctx, s.Reader, 0)
	if err != nil {
		return RawDocument{}, readFailed(uri.Name(), err)
	}

	declared := ""
	if _, ok := FromExtension(uri.Name()); !ok {
		declared = uri.MimeType()
	}
	return RawDocument{
		Bytes:     data,
		MediaType: DetectMediaType(uri.Name(), declared, data),
		Name:      uri.Name(),
	}, nil
}
