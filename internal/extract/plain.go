package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\ufeff"

// decodeUTF8 returns data as a string, failing at the first invalid sequence.
func decodeUTF8(data []byte) (string, error) {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return "", fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrDecodeFailed, i)
		}
		i += size
	}
	return strings.TrimPrefix(string(data), byteOrderMark), nil
}
