//go:build !linux

package rawsock

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/mdlayher/raw"
)

// etherTypeIPv4 is the EtherType value for IPv4.
const etherTypeIPv4 = 0x0800

// Open binds a raw IPv4 packet socket to iface via the portable BSD/Unix
// backend.  proxy is accepted for signature parity with the Linux
// implementation; mdlayher/raw sockets receive promiscuously by default on
// BSD, so there is nothing extra to enable.
func Open(iface *net.Interface, proxy bool) (*Conn, error) {
	pc, err := raw.ListenPacket(iface, etherTypeIPv4, &raw.Config{})
	if err != nil {
		return nil, dhcperrors.Contextf(err, "rawsock: opening packet socket on %s", iface.Name)
	}

	return &Conn{
		pc:    pc,
		iface: iface,
		mkAddr: func(mac net.HardwareAddr) net.Addr {
			return &raw.Addr{HardwareAddr: mac}
		},
	}, nil
}
