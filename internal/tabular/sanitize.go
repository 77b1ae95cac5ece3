package tabular

import (
	"io"
	"unicode/utf8"
)

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
// A multi-byte sequence split across two reads is carried over to the next read.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns how many bytes are ready.
// When atEOF is false, a trailing partial rune is held back in pending.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if tail := partialTail(data); tail > 0 {
				s.pending = append(s.pending, data[len(data)-tail:]...)
				return len(data) - tail
			}
		}
		return len(data)
	}

	w := 0
	for rd := 0; rd < len(data); {
		r, size := utf8.DecodeRune(data[rd:])

		if !atEOF && !utf8.FullRune(data[rd:]) {
			s.pending = append(s.pending, data[rd:]...)
			return w
		}

		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			rd++
			continue
		}
		copy(data[w:], data[rd:rd+size])
		w += size
		rd += size
	}
	return w
}

// partialTail returns the length of an incomplete rune at the end of data, or 0.
func partialTail(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < leadLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// leadLen is the encoded length announced by a UTF-8 lead byte.
func leadLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
