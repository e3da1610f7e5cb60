// Package rawsock implements the Ethernet/IPv4/UDP packet-socket substrate
// shared by the DHCPv4 broadcast/unicast-proxy path and the "is another DHCP
// server present" probe: frame construction via gopacket, a kernel BPF
// classifier, and a promiscuous-capable raw connection.
package rawsock

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/macutil"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ipv4DefaultTTL is the TTL stamped on the IPv4 header of hand-built
// broadcast frames.
const ipv4DefaultTTL = 128

// BuildBroadcastFrame wraps payload in a UDP/IPv4/Ethernet frame addressed
// to the Ethernet and IPv4 broadcast addresses, source IP 0.0.0.0, as used
// for DISCOVER/REQUEST/broadcast-REQUEST sends (§4.3).
func BuildBroadcastFrame(srcMAC net.HardwareAddr, srcPort, dstPort uint16, payload []byte) ([]byte, error) {
	return buildFrame(srcMAC, macutil.Broadcast, net.IPv4zero, net.IPv4bcast, srcPort, dstPort, payload)
}

// BuildUnicastFrame wraps payload in a UDP/IPv4/Ethernet frame addressed to
// a specific peer, used for proxy-mode unicast release (§4.3 scenario 4) and
// for any other point-to-point raw send.
func BuildUnicastFrame(
	srcMAC, dstMAC net.HardwareAddr,
	srcIP, dstIP net.IP,
	srcPort, dstPort uint16,
	payload []byte,
) ([]byte, error) {
	return buildFrame(srcMAC, dstMAC, srcIP, dstIP, srcPort, dstPort, payload)
}

func buildFrame(
	srcMAC, dstMAC net.HardwareAddr,
	srcIP, dstIP net.IP,
	srcPort, dstPort uint16,
	payload []byte,
) ([]byte, error) {
	udpLayer := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}

	ipv4Layer := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      ipv4DefaultTTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP.To4(),
		DstIP:    dstIP.To4(),
	}

	if err := udpLayer.SetNetworkLayerForChecksum(ipv4Layer); err != nil {
		return nil, dhcperrors.Contextf(err, "rawsock: setting checksum network layer")
	}

	ethLayer := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	err := gopacket.SerializeLayers(buf, opts, ethLayer, ipv4Layer, udpLayer, gopacket.Payload(payload))
	if err != nil {
		return nil, dhcperrors.Contextf(err, "rawsock: serializing frame")
	}

	return buf.Bytes(), nil
}

// DecodedFrame is the result of parsing a received Ethernet/IPv4/UDP frame.
type DecodedFrame struct {
	SrcMAC  net.HardwareAddr
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	Payload []byte
}

// ParseFrame decodes frame as Ethernet/IPv4/UDP and returns the addresses
// and UDP payload, or an error if it isn't a well-formed IPv4/UDP frame.
// Non-IPv4-UDP frames (ARP, IPv6, TCP, ...) are a normal and frequent
// occurrence on a promiscuous raw socket, so the caller is expected to treat
// this error as "drop and keep listening" rather than fatal (§4.4, §7).
func ParseFrame(frame []byte) (*DecodedFrame, error) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.DecodeOptions{
		Lazy:   true,
		NoCopy: true,
	})

	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "rawsock: no ethernet layer")
	}
	eth, _ := ethLayer.(*layers.Ethernet)

	ipLayer := pkt.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "rawsock: not ipv4")
	}
	ip, _ := ipLayer.(*layers.IPv4)

	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "rawsock: not udp")
	}
	udp, _ := udpLayer.(*layers.UDP)

	return &DecodedFrame{
		SrcMAC:  append(net.HardwareAddr(nil), eth.SrcMAC...),
		SrcIP:   append(net.IP(nil), ip.SrcIP...),
		DstIP:   append(net.IP(nil), ip.DstIP...),
		SrcPort: uint16(udp.SrcPort),
		DstPort: uint16(udp.DstPort),
		Payload: append([]byte(nil), udp.Payload...),
	}, nil
}
