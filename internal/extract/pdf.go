package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// pageReader is the page-addressable view of a PDF. Pages are numbered from 1.
type pageReader interface {
	NumPage() int
	PageText(n int) (string, error)
}

type ledongthucPages struct {
	r *pdf.Reader
}

func openPDF(data []byte) (pages pageReader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return ledongthucPages{r: r}, nil
}

func (p ledongthucPages) NumPage() (n int) {
	defer func() {
		if rec := recover(); rec != nil {
			n = 0
		}
	}()
	return p.r.NumPage()
}

// PageText recovers from panics in the content stream parser, which
// ledongthuc/pdf raises on malformed streams.
func (p ledongthucPages) PageText(n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", n, rec)
		}
	}()
	page := p.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (d *Dispatcher) extractPDF(ctx context.Context, data []byte) (string, error) {
	pages, err := openPDF(data)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", ErrParseFailed, err)
	}
	return d.joinPages(ctx, pages)
}

// joinPages reads pages 1..N in order and joins them with single spaces. A
// page that fails contributes an empty string.
func (d *Dispatcher) joinPages(ctx context.Context, pages pageReader) (string, error) {
	n := pages.NumPage()
	if n < 1 {
		return "", fmt.Errorf("%w: pdf has no pages", ErrParseFailed)
	}

	texts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pages.PageText(i)
		if err != nil {
			d.logger.Warn("skipping unreadable page", zap.Int("page", i), zap.Error(err))
			text = ""
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return strings.Join(texts, " "), nil
}
