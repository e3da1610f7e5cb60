// Package ifaceinfo is the external interface-inventory collaborator: the
// narrow seam through which a client asks "what does my interface look
// like" (hardware address, link-local address, configured IPv4 addresses),
// kept separate from net.Interface so state-machine code can be tested
// against a fake.
package ifaceinfo

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// Resolver answers the interface-inventory questions the DHCPv4 and DHCPv6
// clients need before they can open a socket.
type Resolver interface {
	// Interface returns the named interface.
	Interface(name string) (*net.Interface, error)

	// IPv4Addrs returns every configured IPv4 address on iface.
	IPv4Addrs(iface *net.Interface) ([]net.IP, error)

	// LinkLocalIPv6 returns iface's link-local IPv6 address, used to bind
	// the DHCPv6 UDP socket.
	LinkLocalIPv6(iface *net.Interface) (net.IP, error)
}

// Default is the net-package-backed [Resolver] used outside of tests.
type Default struct{}

var _ Resolver = Default{}

// Interface looks up name via net.InterfaceByName.
func (Default) Interface(name string) (*net.Interface, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, dhcperrors.Contextf(err, "ifaceinfo: looking up interface %s", name)
	}

	return iface, nil
}

// IPv4Addrs collects iface's configured IPv4 addresses.
func (Default) IPv4Addrs(iface *net.Interface) ([]net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, dhcperrors.Contextf(err, "ifaceinfo: reading addresses of %s", iface.Name)
	}

	var res []net.IP
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			res = append(res, v4)
		}
	}

	return res, nil
}

// LinkLocalIPv6 returns iface's first link-local IPv6 address.
func (Default) LinkLocalIPv6(iface *net.Interface) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, dhcperrors.Contextf(err, "ifaceinfo: reading addresses of %s", iface.Name)
	}

	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ipnet.IP.To4() == nil && ipnet.IP.IsLinkLocalUnicast() {
			return ipnet.IP, nil
		}
	}

	return nil, dhcperrors.Newf(dhcperrors.KindIoError, "ifaceinfo: %s has no link-local ipv6 address", iface.Name)
}
