//go:build linux

package udpsock

import (
	"net"
	"os"
	"syscall"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// OpenV4Unicast binds a UDP socket to bindIP:68 on iface and connects it to
// the server's serverIP:67, for the unicast Renewing exchange (RFC 2131
// §4.4.5 table row "Renewing"). It uses a raw socket(2) call bound with
// SO_BINDTODEVICE so the datagram leaves on exactly this interface
// regardless of the host routing table.
func OpenV4Unicast(iface *net.Interface, bindIP, serverIP net.IP) (*Conn, error) {
	pc, err := openV4BoundSocket(iface, bindIP, ClientPortV4, false)
	if err != nil {
		return nil, err
	}

	return &Conn{
		pc:   pc,
		dest: &net.UDPAddr{IP: serverIP.To4(), Port: ServerPortV4},
	}, nil
}

// OpenV4Broadcast binds a UDP socket to bindIP:68 on iface with
// SO_BROADCAST enabled, for the broadcast Rebinding exchange (RFC 2131
// §4.4.5 table row "Rebinding").
func OpenV4Broadcast(iface *net.Interface, bindIP net.IP) (*Conn, error) {
	pc, err := openV4BoundSocket(iface, bindIP, ClientPortV4, true)
	if err != nil {
		return nil, err
	}

	return &Conn{
		pc:   pc,
		dest: &net.UDPAddr{IP: net.IPv4bcast, Port: ServerPortV4},
	}, nil
}

func openV4BoundSocket(iface *net.Interface, bindIP net.IP, port int, broadcast bool) (net.PacketConn, error) {
	s, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_UDP)
	if err != nil {
		return nil, dhcperrors.Contextf(err, "udpsock: socket(2)")
	}

	if err := syscall.SetsockoptInt(s, syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
		_ = syscall.Close(s)
		return nil, dhcperrors.Contextf(err, "udpsock: SO_REUSEADDR")
	}

	if broadcast {
		if err := syscall.SetsockoptInt(s, syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1); err != nil {
			_ = syscall.Close(s)
			return nil, dhcperrors.Contextf(err, "udpsock: SO_BROADCAST")
		}
	}

	if err := syscall.SetsockoptString(s, syscall.SOL_SOCKET, syscall.SO_BINDTODEVICE, iface.Name); err != nil {
		_ = syscall.Close(s)
		return nil, dhcperrors.Contextf(err, "udpsock: SO_BINDTODEVICE")
	}

	addr := syscall.SockaddrInet4{Port: port}
	copy(addr.Addr[:], bindIP.To4())
	if err := syscall.Bind(s, &addr); err != nil {
		_ = syscall.Close(s)
		return nil, dhcperrors.Contextf(err, "udpsock: bind")
	}

	f := os.NewFile(uintptr(s), "")
	pc, err := net.FilePacketConn(f)
	_ = f.Close()
	if err != nil {
		return nil, dhcperrors.Contextf(err, "udpsock: FilePacketConn")
	}

	return pc, nil
}
