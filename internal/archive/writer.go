package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	localHeaderSignature   = 0x04034b50
	centralHeaderSignature = 0x02014b50
	endRecordSignature     = 0x06054b50

	versionNeeded = 20 // 2.0
	methodStore   = 0
)

// ErrDuplicateName is returned when two entries share a name.
var ErrDuplicateName = errors.New("archive: duplicate entry name")

// Entry is one named file of an archive. Entries are immutable once added.
type Entry struct {
	Name string
	Data []byte
}

// Writer collects entries and serializes them as a ZIP byte stream.
// Every entry is stored without compression.
type Writer struct {
	entries []Entry
	names   map[string]bool
}

// NewWriter creates an empty archive.
func NewWriter() *Writer {
	return &Writer{names: make(map[string]bool)}
}

// Add appends an entry. The data is copied.
func (w *Writer) Add(name string, data []byte) error {
	if name == "" {
		return errors.New("archive: empty entry name")
	}
	if len(name) > math.MaxUint16 {
		return fmt.Errorf("archive: entry name too long (%d bytes)", len(name))
	}
	if w.names[name] {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if len(w.entries) >= math.MaxUint16 {
		return errors.New("archive: too many entries")
	}
	if uint64(len(data)) >= math.MaxUint32 {
		return fmt.Errorf("archive: entry %s too large", name)
	}
	w.names[name] = true
	w.entries = append(w.entries, Entry{Name: name, Data: append([]byte(nil), data...)})
	return nil
}

// Entries returns the entries in insertion order.
func (w *Writer) Entries() []Entry {
	return w.entries
}

// Len returns the number of entries.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Bytes serializes the archive.
func (w *Writer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the archive to out: local header and data per entry, then
// the central directory, then the end record.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	cw := &countingWriter{w: out}
	offsets := make([]uint32, len(w.entries))
	crcs := make([]uint32, len(w.entries))

	for i, e := range w.entries {
		offsets[i] = uint32(cw.n)
		crcs[i] = CRC32(e.Data)
		if err := writeLocalHeader(cw, e, crcs[i]); err != nil {
			return cw.n, fmt.Errorf("write local header %s: %w", e.Name, err)
		}
		if _, err := cw.Write(e.Data); err != nil {
			return cw.n, fmt.Errorf("write entry %s: %w", e.Name, err)
		}
	}

	dirStart := cw.n
	for i, e := range w.entries {
		if err := writeCentralHeader(cw, e, crcs[i], offsets[i]); err != nil {
			return cw.n, fmt.Errorf("write central directory %s: %w", e.Name, err)
		}
	}
	dirSize := cw.n - dirStart

	if cw.n > math.MaxUint32 {
		return cw.n, errors.New("archive: output exceeds 4 GiB")
	}
	if err := writeEndRecord(cw, len(w.entries), uint32(dirSize), uint32(dirStart)); err != nil {
		return cw.n, fmt.Errorf("write end record: %w", err)
	}
	return cw.n, nil
}

type localHeader struct {
	Signature        uint32
	Version          uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLength       uint16
	ExtraLength      uint16
}

type centralHeader struct {
	Signature        uint32
	VersionMadeBy    uint16
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLength       uint16
	ExtraLength      uint16
	CommentLength    uint16
	DiskStart        uint16
	InternalAttrs    uint16
	ExternalAttrs    uint32
	LocalOffset      uint32
}

type endRecord struct {
	Signature     uint32
	Disk          uint16
	DirDisk       uint16
	DiskEntries   uint16
	TotalEntries  uint16
	DirSize       uint32
	DirOffset     uint32
	CommentLength uint16
}

// dosDate is 1980-01-01, the earliest representable DOS date. Entries carry
// it so identical inputs produce identical archives.
const dosDate = 1<<5 | 1

func writeLocalHeader(w io.Writer, e Entry, crc uint32) error {
	h := localHeader{
		Signature:        localHeaderSignature,
		Version:          versionNeeded,
		Method:           methodStore,
		ModDate:          dosDate,
		CRC32:            crc,
		CompressedSize:   uint32(len(e.Data)),
		UncompressedSize: uint32(len(e.Data)),
		NameLength:       uint16(len(e.Name)),
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	_, err := io.WriteString(w, e.Name)
	return err
}

func writeCentralHeader(w io.Writer, e Entry, crc, offset uint32) error {
	h := centralHeader{
		Signature:        centralHeaderSignature,
		VersionMadeBy:    versionNeeded,
		VersionNeeded:    versionNeeded,
		Method:           methodStore,
		ModDate:          dosDate,
		CRC32:            crc,
		CompressedSize:   uint32(len(e.Data)),
		UncompressedSize: uint32(len(e.Data)),
		NameLength:       uint16(len(e.Name)),
		LocalOffset:      offset,
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	_, err := io.WriteString(w, e.Name)
	return err
}

func writeEndRecord(w io.Writer, count int, dirSize, dirOffset uint32) error {
	return binary.Write(w, binary.LittleEndian, endRecord{
		Signature:    endRecordSignature,
		DiskEntries:  uint16(count),
		TotalEntries: uint16(count),
		DirSize:      dirSize,
		DirOffset:    dirOffset,
	})
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
