package source

import (
	"context"
	"errors"
	"io"
	"os"
)

const readChunk = 32 * 1024

// StreamSource reads a document from a one-shot stream such as stdin or an
// uploaded form file.
type StreamSource struct {
	Name   string
	MIME   string
	Reader io.Reader
	// Limit caps the number of bytes read; zero means unlimited.
	Limit int64
}

// Stdin returns a StreamSource over standard input.
func Stdin() StreamSource {
	return StreamSource{Name: "stdin", Reader: os.Stdin}
}

func (s StreamSource) FetchBytes(ctx context.Context) (RawDocument, error) {
	if s.Reader == nil {
		return RawDocument{}, readFailed(s.Name, errors.New("no reader"))
	}
	data, err := readAll(ctx, s.Reader, s.Limit)
	if err != nil {
		return RawDocument{}, readFailed(s.Name, err)
	}
	return RawDocument{
		Bytes:     data,
		MediaType: DetectMediaType(s.Name, s.MIME, data),
		Name:      s.Name,
	}, nil
}

// readAll reads r to EOF, checking ctx between chunks.
func readAll(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	var out []byte
	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if limit > 0 && int64(len(out)) > limit {
			return nil, ErrTooLarge
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
