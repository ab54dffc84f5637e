package storage

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

type bodyKind uint8

const (
	bodyBytes bodyKind = iota
	bodyStream
	bodyText
)

// Body is the payload of an upload: raw bytes, a readable stream, or text.
// The zero value is an empty byte payload.
type Body struct {
	stream io.Reader
	text   string
	data   []byte
	kind   bodyKind
}

// Bytes wraps an in-memory byte slice. The slice is not copied.
func Bytes(b []byte) Body {
	return Body{kind: bodyBytes, data: b}
}

// Stream wraps a reader. Readers that also implement io.Seeker are sent as-is,
// anything else is read fully into memory at write time.
func Stream(r io.Reader) Body {
	return Body{kind: bodyStream, stream: r}
}

// Text wraps a string payload.
func Text(s string) Body {
	return Body{kind: bodyText, text: s}
}

// open converts the payload into a seekable reader with a known length,
// which is what a signed PutObject needs.
func (b Body) open() (io.ReadSeeker, int64, error) {
	switch b.kind {
	case bodyText:
		return strings.NewReader(b.text), int64(len(b.text)), nil
	case bodyStream:
		return openStream(b.stream)
	default:
		return bytes.NewReader(b.data), int64(len(b.data)), nil
	}
}

func openStream(r io.Reader) (io.ReadSeeker, int64, error) {
	if r == nil {
		return bytes.NewReader(nil), 0, nil
	}

	if rs, ok := r.(io.ReadSeeker); ok {
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, fmt.Errorf("storage: seek body: %w", err)
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("storage: seek body: %w", err)
		}
		if _, err := rs.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, fmt.Errorf("storage: seek body: %w", err)
		}
		return rs, end - cur, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: read body: %w", err)
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
