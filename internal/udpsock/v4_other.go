//go:build !linux

package udpsock

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// OpenV4Unicast binds a UDP socket to bindIP:68 and connects it to the
// server's serverIP:67, for the unicast Renewing exchange. The portable
// backend has no SO_BINDTODEVICE equivalent; binding to bindIP is sufficient
// once the client already holds that address.
func OpenV4Unicast(iface *net.Interface, bindIP, serverIP net.IP) (*Conn, error) {
	pc, err := net.ListenUDP("udp4", &net.UDPAddr{IP: bindIP, Port: ClientPortV4})
	if err != nil {
		return nil, dhcperrors.Contextf(err, "udpsock: listening on %s:%d", bindIP, ClientPortV4)
	}

	return &Conn{
		pc:   pc,
		dest: &net.UDPAddr{IP: serverIP.To4(), Port: ServerPortV4},
	}, nil
}

// OpenV4Broadcast binds a UDP socket to bindIP:68 for the broadcast
// Rebinding exchange.
func OpenV4Broadcast(iface *net.Interface, bindIP net.IP) (*Conn, error) {
	pc, err := net.ListenUDP("udp4", &net.UDPAddr{IP: bindIP, Port: ClientPortV4})
	if err != nil {
		return nil, dhcperrors.Contextf(err, "udpsock: listening on %s:%d", bindIP, ClientPortV4)
	}

	return &Conn{
		pc:   pc,
		dest: &net.UDPAddr{IP: net.IPv4bcast, Port: ServerPortV4},
	}, nil
}
