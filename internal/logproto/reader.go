package logproto

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	apperrors "github.com/louisbranch/rexlog/internal/errors"
)

// maxRecordSize bounds a single record's declared length. Anything larger
// is treated as corrupt framing rather than an allocation request.
const maxRecordSize = 64 << 20

// Reader decodes successive length-delimited LogEntry records from a byte
// stream. It is forward-only and performs no lookahead beyond the record
// being decoded.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next reads and decodes the next record. It returns io.EOF if and only if
// the stream ends cleanly at a record boundary; a stream that ends inside a
// length prefix or record body is a framing error, not end of stream.
func (r *Reader) Next() (*LogEntry, error) {
	size, err := binary.ReadUvarint(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Distinguish a clean boundary from a truncated prefix:
			// ReadUvarint returns io.EOF only when no byte was read.
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, apperrors.Wrap(apperrors.CodeBadFraming, "record length truncated", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeBadFraming, "read record length", err)
	}
	if size > maxRecordSize {
		return nil, apperrors.New(apperrors.CodeBadFraming, "record length exceeds limit")
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeBadFraming, "record body truncated", err)
	}
	return Unmarshal(buf)
}
