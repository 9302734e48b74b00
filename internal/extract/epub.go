package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"go.uber.org/zap"
)

// extractEPUB reads the spine of the first rootfile. Only the first section
// is read unless the dispatcher was built WithAllSections.
func (d *Dispatcher) extractEPUB(ctx context.Context, data []byte) (string, error) {
	r, err := epub.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open epub: %w", ErrParseFailed, err)
	}
	if len(r.Rootfiles) == 0 {
		return "", fmt.Errorf("%w: no rootfiles found in epub", ErrParseFailed)
	}

	refs := r.Rootfiles[0].Spine.Itemrefs
	if len(refs) == 0 {
		return "", fmt.Errorf("%w: epub spine is empty", ErrParseFailed)
	}
	if !d.allSections {
		text, err := sectionText(refs[0])
		if err != nil {
			return "", fmt.Errorf("%w: first section: %w", ErrParseFailed, err)
		}
		return text, nil
	}

	texts := make([]string, 0, len(refs))
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := sectionText(ref)
		if err != nil {
			d.logger.Warn("skipping unreadable section", zap.Int("section", i), zap.Error(err))
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return strings.Join(texts, " "), nil
}

func sectionText(ref epub.Itemref) (string, error) {
	if ref.Item == nil {
		return "", errors.New("spine entry has no manifest item")
	}
	rc, err := ref.Item.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return htmlText(string(data))
}
