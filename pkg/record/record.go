// Package record implements the on-flash layout of the configuration image:
// a sequence of (varint nameLen, name, uint32 schemaCrc, uint32 dataLen,
// data) records terminated by a record with nameLen == 0. This exact layout
// is the compatibility contract between firmware versions sharing an image.
//
// Multi-byte integers are little-endian; nameLen is an unsigned LEB128
// varint in both directions.
package record

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/permaconf/permaconf-go/pkg/group"
	"github.com/permaconf/permaconf-go/pkg/stream"
)

const (
	// MaxNameLen bounds a record's declared name length. Larger values are
	// treated as corruption and stop an image scan.
	MaxNameLen = 4096

	// schemaScratchSize bounds the buffer a handler's self-description is
	// written into when computing its schema CRC.
	schemaScratchSize = 2048

	// headerTailSize is the fixed byte count after the name: the schema CRC
	// and data length fields.
	headerTailSize = 8
)

// Record is one decoded name/CRC/data triple.
type Record struct {
	// Name is the group name.
	Name string

	// SchemaCRC is the stored schema CRC32.
	SchemaCRC uint32

	// DataLen is the declared payload length.
	DataLen uint32

	// Data is the payload, clamped to the bytes actually present. A short
	// image can leave len(Data) < DataLen; the scan still advances by
	// DataLen, which ends it.
	Data []byte
}

// SchemaCRC computes the CRC32 tag for a handler's current schema: the
// handler's self-description is written into a bounded scratch buffer and
// the used prefix is hashed. Load and Write share this computation, so a
// stored tag matches exactly when the structure is unchanged.
func SchemaCRC(h group.Handler) uint32 {
	scratch := stream.NewBoundedBuffer(schemaScratchSize)
	// Encoding errors leave a short prefix, which hashes to a tag that
	// simply never matches a stored record. That is the desired outcome.
	_ = h.WriteSchema(scratch)
	return crc32.ChecksumIEEE(scratch.Bytes())
}

// Writer encodes records onto a sequential byte stream.
type Writer struct {
	w io.Writer
}

// NewWriter creates a record writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteName writes the varint name length followed by the name bytes.
func (w *Writer) WriteName(name string) error {
	var varint [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varint[:], uint64(len(name)))
	if _, err := w.w.Write(varint[:n]); err != nil {
		return fmt.Errorf("failed to write name length: %w", err)
	}
	if _, err := io.WriteString(w.w, name); err != nil {
		return fmt.Errorf("failed to write name: %w", err)
	}
	return nil
}

// WriteUint32 writes a little-endian uint32 (schema CRC or data length).
func (w *Writer) WriteUint32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.w.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to write uint32: %w", err)
	}
	return nil
}

// WriteTerminator writes the zero name length that ends the image.
func (w *Writer) WriteTerminator() error {
	if _, err := w.w.Write([]byte{0}); err != nil {
		return fmt.Errorf("failed to write terminator: %w", err)
	}
	return nil
}

// Scanner decodes records from an in-memory image snapshot. The scan stops
// on the terminator, on a malformed or oversized name length, or on stream
// exhaustion; once a record's header has been decoded the scan is committed
// to consuming its declared data length regardless of the payload's fate.
type Scanner struct {
	data []byte
	off  int
}

// NewScanner creates a scanner over an image snapshot.
func NewScanner(data []byte) *Scanner {
	return &Scanner{data: data}
}

// Next decodes the next record. ok is false once the scan has ended.
func (s *Scanner) Next() (rec Record, ok bool) {
	nameLen, n := binary.Uvarint(s.data[s.off:])
	if n <= 0 || nameLen == 0 || nameLen >= MaxNameLen {
		return Record{}, false
	}
	s.off += n

	if uint64(len(s.data)-s.off) < nameLen {
		return Record{}, false
	}
	rec.Name = string(s.data[s.off : s.off+int(nameLen)])
	s.off += int(nameLen)

	if len(s.data)-s.off < headerTailSize {
		return Record{}, false
	}
	rec.SchemaCRC = binary.LittleEndian.Uint32(s.data[s.off:])
	rec.DataLen = binary.LittleEndian.Uint32(s.data[s.off+4:])
	s.off += headerTailSize

	// Committed: consume DataLen bytes whether or not they are all present.
	end := s.off + int(rec.DataLen)
	if end > len(s.data) || end < s.off {
		rec.Data = s.data[s.off:]
		s.off = len(s.data)
	} else {
		rec.Data = s.data[s.off:end]
		s.off = end
	}

	return rec, true
}
