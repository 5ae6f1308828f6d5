package dump

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/franz/media-catalog/internal/catalog"
)

// encoder appends little-endian primitives to a byte slice
type encoder struct {
	buf []byte
}

func (e *encoder) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) id(v catalog.ID) {
	e.u16(uint16(v))
}

func (e *encoder) flag(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) bytes(b []byte) {
	e.u32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) ids(ids []catalog.ID) {
	e.u32(uint32(len(ids)))
	for _, id := range ids {
		e.id(id)
	}
}

// decoder reads little-endian primitives. The first failure sticks; later
// reads return zero values and err keeps the original cause.
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.data)-d.off < n {
		d.err = fmt.Errorf("truncated at offset %d (want %d bytes): %w", d.off, n, ErrFormat)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) u32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *decoder) id() catalog.ID {
	return catalog.ID(d.u16())
}

func (d *decoder) flag() bool {
	return d.u8() != 0
}

// length reads a u32 count and rejects counts that cannot fit in the
// remaining input at elemSize bytes each
func (d *decoder) length(elemSize int) int {
	n := d.u32()
	if d.err != nil {
		return 0
	}
	if uint64(n)*uint64(elemSize) > uint64(len(d.data)-d.off) || n > math.MaxInt32 {
		d.err = fmt.Errorf("count %d at offset %d exceeds input: %w", n, d.off-4, ErrFormat)
		return 0
	}
	return int(n)
}

func (d *decoder) bytes() []byte {
	n := d.length(1)
	b := d.take(n)
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (d *decoder) str() string {
	return string(d.take(d.length(1)))
}

func (d *decoder) ids() []catalog.ID {
	n := d.length(2)
	if n == 0 {
		return nil
	}
	out := make([]catalog.ID, n)
	for i := range out {
		out[i] = d.id()
	}
	return out
}

// expect consumes one marker byte
func (d *decoder) expect(marker byte, what string) {
	at := d.off
	if got := d.u8(); d.err == nil && got != marker {
		d.err = fmt.Errorf("expected %s 0x%02x at offset %d, got 0x%02x: %w", what, marker, at, got, ErrFormat)
	}
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format+": %w", append(args, ErrFormat)...)
	}
}
