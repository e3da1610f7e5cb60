//go:build linux

package rawsock

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/mdlayher/packet"
)

// Open binds a raw IPv4 packet socket to iface, attaches the DHCP kernel
// classifier so only "ip and udp port 67" traffic ever reaches userspace,
// and enables promiscuous reception when proxy is true, so replies and
// other clients' traffic addressed to a different MAC are still delivered.
func Open(iface *net.Interface, proxy bool) (*Conn, error) {
	pc, err := packet.Listen(iface, packet.Raw, int(etherTypeIPv4), nil)
	if err != nil {
		return nil, dhcperrors.Contextf(err, "rawsock: opening packet socket on %s", iface.Name)
	}

	if err := pc.SetBPF(DHCPClassifier()); err != nil {
		_ = pc.Close()
		return nil, dhcperrors.Contextf(err, "rawsock: attaching bpf classifier")
	}

	if proxy {
		if err := pc.SetPromiscuous(true); err != nil {
			_ = pc.Close()
			return nil, dhcperrors.Contextf(err, "rawsock: enabling promiscuous mode")
		}
	}

	return &Conn{
		pc:    pc,
		iface: iface,
		mkAddr: func(mac net.HardwareAddr) net.Addr {
			return &packet.Addr{HardwareAddr: mac}
		},
	}, nil
}

// etherTypeIPv4 is the EtherType value for IPv4, avoiding a hard dependency
// on mdlayher/ethernet for a single constant.
const etherTypeIPv4 = 0x0800
