package output

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/qomet-project/qomet/internal/scenario"
)

// WriteSeekCloser is what BinaryWriter needs of its backing file: it
// rewrites the header in place once the stream is done, so a plain
// io.Writer isn't enough. *os.File satisfies this directly.
type WriteSeekCloser interface {
	io.Writer
	io.Seeker
	io.Closer
}

// BinaryWriter emits the `.bin` trace format: a fixed header followed
// by a stream of {time, record_count} time records, each followed by
// record_count fixed-size per-connection records. Only connections the
// tick reports as changed are written -- a diff stream meant to be
// folded (last-value-wins per from/to) back into the text stream's
// values. The header's time_record_count is a placeholder until Close
// rewrites it with the final count, matching qomet.c's
// write-header-rewrite-header bracketing of the whole run.
type BinaryWriter struct {
	w WriteSeekCloser

	interfaceCount uint32
	version        [3]byte
	revision       int32

	timeRecordCount uint32
	suppressEmpty   bool
}

// NewBinaryWriter writes the placeholder header (interface_count fixed
// at open time, time_record_count 0) and returns a writer ready for
// per-tick records. suppressEmpty skips emitting a time record for ticks
// where nothing changed, per optional mode.
func NewBinaryWriter(w WriteSeekCloser, interfaceCount int, version [3]byte, revision int32, suppressEmpty bool) (*BinaryWriter, error) {
	b := &BinaryWriter{w: w, interfaceCount: uint32(interfaceCount), version: version, revision: revision, suppressEmpty: suppressEmpty}
	if err := b.writeHeader(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *BinaryWriter) writeHeader() error {
	if _, err := b.w.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Write(b.w, binary.LittleEndian, b.interfaceCount); err != nil {
		return err
	}
	if err := binary.Write(b.w, binary.LittleEndian, b.timeRecordCount); err != nil {
		return err
	}
	if _, err := b.w.Write(b.version[:]); err != nil {
		return err
	}
	return binary.Write(b.w, binary.LittleEndian, b.revision)
}

func (b *BinaryWriter) WriteTick(sc *scenario.Scenario, now time.Duration, changed []scenario.ConnID) error {
	if b.suppressEmpty && len(changed) == 0 {
		return nil
	}
	if _, err := b.w.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	if err := binary.Write(b.w, binary.LittleEndian, now.Seconds()); err != nil {
		return err
	}
	if err := binary.Write(b.w, binary.LittleEndian, uint32(len(changed))); err != nil {
		return err
	}
	for _, id := range changed {
		c := sc.Conn(id)
		rec := []any{
			uint32(c.FromNode), uint32(c.ToNode),
			float32(c.Dynamic.BandwidthBps), float32(c.Dynamic.LossRate),
			float32(c.Dynamic.DelayMs), float32(c.Dynamic.JitterMs),
		}
		for _, f := range rec {
			if err := binary.Write(b.w, binary.LittleEndian, f); err != nil {
				return err
			}
		}
	}
	b.timeRecordCount++
	return nil
}

// Close rewrites the header with the final time_record_count, then
// closes the file.
func (b *BinaryWriter) Close() error {
	if err := b.writeHeader(); err != nil {
		b.w.Close()
		return err
	}
	return b.w.Close()
}
