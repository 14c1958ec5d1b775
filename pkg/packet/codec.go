package packet

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/netip"
)

type encoder struct {
	buf []byte
}

func newEncoder(size int) *encoder {
	return &encoder{buf: make([]byte, 0, size)}
}

func (e *encoder) u8(v uint8) { e.buf = append(e.buf, v) }

func (e *encoder) flag(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u16(v uint16)  { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32)  { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) f64(v float64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v)) }
func (e *encoder) raw(b []byte)  { e.buf = append(e.buf, b...) }

func (e *encoder) vec3(v Vec3) {
	e.f32(v.X)
	e.f32(v.Y)
	e.f32(v.Z)
}

func (e *encoder) bytes() []byte { return e.buf }

// decoder reads fields in order; callers check the total length up front
type decoder struct {
	data []byte
	off  int
}

func newDecoder(data []byte) *decoder {
	return &decoder{data: data}
}

func (d *decoder) u8() uint8 {
	v := d.data[d.off]
	d.off++
	return v
}

func (d *decoder) flag() bool { return d.u8() != 0 }

func (d *decoder) u16() uint16 {
	v := binary.LittleEndian.Uint16(d.data[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u32() uint32 {
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v
}

func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }

func (d *decoder) f64() float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.data[d.off:]))
	d.off += 8
	return v
}

func (d *decoder) vec3() Vec3 {
	return Vec3{X: d.f32(), Y: d.f32(), Z: d.f32()}
}

func (d *decoder) ipv4() IPv4 {
	var a IPv4
	copy(a[:], d.data[d.off:d.off+4])
	d.off += 4
	return a
}

// Vec3 is a three-axis quantity (body frame X/Y/Z or north/east/down)
type Vec3 struct {
	X, Y, Z float32
}

// IPv4 is an address stored in wire order (first octet first)
type IPv4 [4]byte

// ParseIPv4 parses dotted-quad notation
func ParseIPv4(s string) (IPv4, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return IPv4{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !addr.Is4() {
		return IPv4{}, fmt.Errorf("%w: %s is not an IPv4 address", ErrValidation, s)
	}
	return IPv4(addr.As4()), nil
}

// MustParseIPv4 is like ParseIPv4 but panics on error
func MustParseIPv4(s string) IPv4 {
	a, err := ParseIPv4(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Addr converts to netip.Addr
func (a IPv4) Addr() netip.Addr {
	return netip.AddrFrom4(a)
}

// Uint32 returns the little-endian integer form used on the wire
func (a IPv4) Uint32() uint32 {
	return binary.LittleEndian.Uint32(a[:])
}

// IsZero returns true for 0.0.0.0
func (a IPv4) IsZero() bool {
	return a == IPv4{}
}

// String returns dotted-quad notation
func (a IPv4) String() string {
	return a.Addr().String()
}

func (e *encoder) ipv4(a IPv4) { e.raw(a[:]) }
