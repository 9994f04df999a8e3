package logproto

import (
	"encoding/binary"
	"io"
)

// Writer emits length-delimited LogEntry records, the framing Reader
// consumes. Capture tooling and test fixtures share it.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write appends one record: a uvarint length prefix followed by the encoded
// entry.
func (w *Writer) Write(e *LogEntry) error {
	body, err := e.Marshal()
	if err != nil {
		return err
	}
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(body)))
	if _, err := w.w.Write(prefix[:n]); err != nil {
		return err
	}
	_, err = w.w.Write(body)
	return err
}
