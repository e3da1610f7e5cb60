// Package macutil provides the small set of link-layer and network address
// helpers shared by the v4 and v6 clients: MAC parsing/formatting beyond
// what net.ParseMAC covers, and the byte literals for well-known addresses.
package macutil

import (
	"fmt"
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// Broadcast is the Ethernet broadcast address ff:ff:ff:ff:ff:ff.
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ParseMAC parses s as a 6-byte hardware address, wrapping net.ParseMAC's
// error in the module's error taxonomy and rejecting non-EUI-48 addresses
// (e.g. FireWire's 8-byte form), which this client never handles.
func ParseMAC(s string) (net.HardwareAddr, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidArgument, "parsing mac %q: %s", s, err)
	}

	if len(hw) != 6 {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidArgument, "mac %q is not EUI-48", s)
	}

	return hw, nil
}

// ARPHardwareEthernet is the ARP hardware-type code for Ethernet (RFC 1700),
// used both as DHCPv4's htype field and as the leading octet of a
// MAC-derived client-identifier (RFC 2132 §9.14).
const ARPHardwareEthernet = 1

// ClientIDFromMAC builds an RFC 2132 §9.14 client-identifier octet string
// from an ARP hardware-type byte and a hardware address: the type byte
// followed by the raw address bytes.
func ClientIDFromMAC(htype uint8, hw net.HardwareAddr) []byte {
	id := make([]byte, 0, 1+len(hw))
	id = append(id, htype)
	id = append(id, hw...)

	return id
}

// ClientIDFromText builds an RFC 2132 §9.14 client-identifier using type 0
// (no hardware type) followed by the raw bytes of s, for configurations that
// use the host name as the client-identifier.
func ClientIDFromText(s string) []byte {
	id := make([]byte, 0, 1+len(s))
	id = append(id, 0)
	id = append(id, []byte(s)...)

	return id
}

// FormatMAC formats hw the way log lines and error messages in this module
// expect, falling back to a hex dump for malformed lengths instead of
// failing.
func FormatMAC(hw net.HardwareAddr) string {
	if len(hw) == 0 {
		return "<none>"
	}

	return hw.String()
}

// PrefixLength returns the number of leading set bits in a 32-bit subnet
// mask, i.e. its CIDR prefix length.  It does not validate that the mask is
// contiguous; callers needing that guarantee should use [IsContiguousMask].
func PrefixLength(mask uint32) int {
	n := 0
	for i := 31; i >= 0; i-- {
		if mask&(1<<uint(i)) == 0 {
			break
		}
		n++
	}

	return n
}

// IsContiguousMask reports whether mask, read as a sequence of bits from
// MSB to LSB, is a run of 1s followed by a run of 0s with no other
// transitions -- the shape required of a valid IPv4 subnet mask.
func IsContiguousMask(mask uint32) bool {
	seenZero := false
	for i := 31; i >= 0; i-- {
		bit := mask&(1<<uint(i)) != 0
		if !bit {
			seenZero = true
		} else if seenZero {
			return false
		}
	}

	return true
}

// FormatIP formats ip preferring the 4-byte dotted form when possible,
// avoiding the 16-byte encoding of IPv4-mapped addresses in logs and options.
func FormatIP(ip net.IP) string {
	if ip == nil {
		return "<nil>"
	}

	if ip4 := ip.To4(); ip4 != nil {
		return ip4.String()
	}

	return ip.String()
}

// MustParseIP parses s as an IP address, panicking on failure.  Restricted
// to package-internal constant literals (e.g. multicast group addresses)
// where failure would be a programming error, never caller input.
func MustParseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		panic(fmt.Sprintf("macutil: invalid IP literal %q", s))
	}

	return ip
}
