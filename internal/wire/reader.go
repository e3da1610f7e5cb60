// Package wire implements the typed byte-cursor codecs shared by the
// DHCPv4 and DHCPv6 option and message parsers: a read-only [Reader] over a
// borrowed slice and a growable [Writer] sink.
package wire

import (
	"fmt"
	"math/bits"
	"net"
	"unicode/utf8"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// Reader is a cursor over a borrowed byte slice.  Every accessor either
// succeeds and advances the cursor by the number of bytes consumed, or
// fails with a [dhcperrors.KindInvalidDhcpMessage] error and leaves the
// cursor unchanged.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf.  buf is not copied; the caller must
// not mutate it while the Reader is in use.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// errShort builds the standard short-buffer error for an accessor that
// needed n bytes but found fewer remaining.
func (r *Reader) errShort(what string, n int) error {
	return dhcperrors.Newf(
		dhcperrors.KindInvalidDhcpMessage,
		"%s: need %d bytes, only %d remain", what, n, r.RemainLen(),
	)
}

// RemainLen returns the number of unread bytes.
func (r *Reader) RemainLen() int {
	return len(r.buf) - r.pos
}

// IsEmpty reports whether the cursor has reached the end of the buffer.
func (r *Reader) IsEmpty() bool {
	return r.RemainLen() == 0
}

// GetBytes consumes and returns the next n bytes.  The returned slice aliases
// the Reader's backing array; callers that need to retain it beyond the
// parse must copy it.
func (r *Reader) GetBytes(n int) ([]byte, error) {
	if r.RemainLen() < n {
		return nil, r.errShort("get_bytes", n)
	}

	b := r.buf[r.pos : r.pos+n]
	r.pos += n

	return b, nil
}

// GetRemains consumes and returns every remaining byte.
func (r *Reader) GetRemains() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)

	return b
}

// PeekU8Offset returns the byte at off without consuming it.
func (r *Reader) PeekU8Offset(off int) (uint8, error) {
	if r.RemainLen() < off+1 {
		return 0, r.errShort("peek_u8", off+1)
	}

	return r.buf[r.pos+off], nil
}

// PeekU8 returns the next byte without consuming it.
func (r *Reader) PeekU8() (uint8, error) {
	return r.PeekU8Offset(0)
}

// GetU8 consumes and returns the next byte.
func (r *Reader) GetU8() (uint8, error) {
	v, err := r.PeekU8()
	if err != nil {
		return 0, err
	}

	r.pos++

	return v, nil
}

// PeekU16BEOffset returns the big-endian uint16 starting at off without
// consuming it.
func (r *Reader) PeekU16BEOffset(off int) (uint16, error) {
	if r.RemainLen() < off+2 {
		return 0, r.errShort("peek_u16_be", off+2)
	}

	b := r.buf[r.pos+off:]

	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// PeekU16BE returns the next big-endian uint16 without consuming it.
func (r *Reader) PeekU16BE() (uint16, error) {
	return r.PeekU16BEOffset(0)
}

// GetU16BE consumes and returns the next big-endian uint16.
func (r *Reader) GetU16BE() (uint16, error) {
	v, err := r.PeekU16BE()
	if err != nil {
		return 0, err
	}

	r.pos += 2

	return v, nil
}

// PeekU32BEOffset returns the big-endian uint32 starting at off without
// consuming it.
func (r *Reader) PeekU32BEOffset(off int) (uint32, error) {
	if r.RemainLen() < off+4 {
		return 0, r.errShort("peek_u32_be", off+4)
	}

	b := r.buf[r.pos+off:]

	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// PeekU32BE returns the next big-endian uint32 without consuming it.
func (r *Reader) PeekU32BE() (uint32, error) {
	return r.PeekU32BEOffset(0)
}

// GetU32BE consumes and returns the next big-endian uint32.
func (r *Reader) GetU32BE() (uint32, error) {
	v, err := r.PeekU32BE()
	if err != nil {
		return 0, err
	}

	r.pos += 4

	return v, nil
}

// PeekU128BEOffset returns the big-endian 128-bit value starting at off, as
// the 16 raw bytes, without consuming it.  Go has no native u128, so DHCPv6
// IPv6 address fields are exposed this way and converted by callers via
// [PeekU128BEOffset] + net.IP(...).
func (r *Reader) PeekU128BEOffset(off int) ([16]byte, error) {
	var out [16]byte
	if r.RemainLen() < off+16 {
		return out, r.errShort("peek_u128_be", off+16)
	}

	copy(out[:], r.buf[r.pos+off:r.pos+off+16])

	return out, nil
}

// PeekU128BE returns the next 16 bytes without consuming them.
func (r *Reader) PeekU128BE() ([16]byte, error) {
	return r.PeekU128BEOffset(0)
}

// GetU128BE consumes and returns the next 16 bytes.
func (r *Reader) GetU128BE() ([16]byte, error) {
	v, err := r.PeekU128BE()
	if err != nil {
		return v, err
	}

	r.pos += 16

	return v, nil
}

// GetIPv4 consumes and returns the next 4 bytes as a net.IP.
func (r *Reader) GetIPv4() (net.IP, error) {
	b, err := r.GetBytes(net.IPv4len)
	if err != nil {
		return nil, fmt.Errorf("get_ipv4: %w", err)
	}

	ip := make(net.IP, net.IPv4len)
	copy(ip, b)

	return ip, nil
}

// GetIPv6 consumes and returns the next 16 bytes as a net.IP.
func (r *Reader) GetIPv6() (net.IP, error) {
	b, err := r.GetBytes(net.IPv6len)
	if err != nil {
		return nil, fmt.Errorf("get_ipv6: %w", err)
	}

	ip := make(net.IP, net.IPv6len)
	copy(ip, b)

	return ip, nil
}

// GetStringWithNull consumes exactly fixSize bytes, trims the result at the
// first NUL byte, and validates that what remains is well-formed UTF-8.
func (r *Reader) GetStringWithNull(fixSize int) (string, error) {
	b, err := r.GetBytes(fixSize)
	if err != nil {
		return "", fmt.Errorf("get_string_with_null: %w", err)
	}

	if i := indexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	if !utf8.Valid(b) {
		return "", dhcperrors.New(
			dhcperrors.KindInvalidDhcpMessage,
			"get_string_with_null: invalid utf-8",
		)
	}

	return string(b), nil
}

// GetStringWithoutNull consumes exactly size bytes and validates that they
// are well-formed UTF-8, without looking for a NUL terminator.
func (r *Reader) GetStringWithoutNull(size int) (string, error) {
	b, err := r.GetBytes(size)
	if err != nil {
		return "", fmt.Errorf("get_string_without_null: %w", err)
	}

	if !utf8.Valid(b) {
		return "", dhcperrors.New(
			dhcperrors.KindInvalidDhcpMessage,
			"get_string_without_null: invalid utf-8",
		)
	}

	return string(b), nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}

	return -1
}

// PopCount32 returns the number of set bits in v.  For a contiguous subnet
// mask this equals its prefix length.
func PopCount32(v uint32) int {
	return bits.OnesCount32(v)
}
