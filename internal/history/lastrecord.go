package history

import (
	"bytes"
	"fmt"
	"io"
)

// chunkSize is how far LastRecord steps back per read.
const chunkSize = 4096

// LastRecord returns the final line of r without its trailing newline,
// reading backwards from the end in chunks so that only the last line (plus
// at most one chunk) is read. A file without newlines is a single record.
func LastRecord(r io.ReadSeeker) ([]byte, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seeking to end: %w", err)
	}
	if size == 0 {
		return []byte{}, nil
	}

	// The final byte is never the start of the last record: either it is
	// the trailing newline or it belongs to the record itself.
	start := int64(0)
	buf := make([]byte, chunkSize)
	for pos := size - 1; pos > 0; {
		from := pos - chunkSize
		if from < 0 {
			from = 0
		}
		chunk := buf[:pos-from]
		if err := readAt(r, chunk, from); err != nil {
			return nil, err
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			start = from + int64(i) + 1
			break
		}
		pos = from
	}

	record := make([]byte, size-start)
	if err := readAt(r, record, start); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(record, []byte{'\n'}), nil
}

func readAt(r io.ReadSeeker, p []byte, off int64) error {
	if _, err := r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %d: %w", off, err)
	}
	if _, err := io.ReadFull(r, p); err != nil {
		return fmt.Errorf("reading %d bytes at %d: %w", len(p), off, err)
	}
	return nil
}
