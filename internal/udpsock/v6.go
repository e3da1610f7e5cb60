package udpsock

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// OpenV6 binds a UDP socket to [linkLocal%iface]:546 and sends to the
// DHCPv6 multicast group ff02::1:2 on port 547, unless unicastServer is
// non-nil, in which case it sends there instead (the OPTION_UNICAST case,
// reserved but unused by default per §4.4 "UDP socket (v6)").
func OpenV6(iface *net.Interface, linkLocal net.IP, unicastServer net.IP) (*Conn, error) {
	pc, err := net.ListenUDP("udp6", &net.UDPAddr{
		IP:   linkLocal,
		Port: ClientPortV6,
		Zone: iface.Name,
	})
	if err != nil {
		return nil, dhcperrors.Contextf(err, "udpsock: listening on [%s%%%s]:%d", linkLocal, iface.Name, ClientPortV6)
	}

	dest := &net.UDPAddr{IP: AllDHCPRelayAgentsAndServers, Port: ServerPortV6, Zone: iface.Name}
	if unicastServer != nil {
		dest = &net.UDPAddr{IP: unicastServer, Port: ServerPortV6}
	}

	return &Conn{pc: pc, dest: dest}, nil
}
