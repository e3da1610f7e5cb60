package dhcpv4

import (
	"encoding/binary"
	"fmt"
	"net"
	"sort"
	"time"

	idhcpv4 "github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// OptionCode is a DHCPv4 option's numeric tag (RFC 2132).
type OptionCode uint8

// Recognized DHCPv4 option codes.  Names follow RFC 2132's section titles.
const (
	OptSubnetMask             OptionCode = 1
	OptRouter                 OptionCode = 3
	OptDomainNameServer       OptionCode = 6
	OptHostName               OptionCode = 12
	OptDomainName             OptionCode = 15
	OptInterfaceMTU           OptionCode = 26
	OptBroadcastAddress       OptionCode = 28
	OptNTPServers             OptionCode = 42
	OptRequestedIPAddress     OptionCode = 50
	OptIPAddressLeaseTime     OptionCode = 51
	OptMessageType            OptionCode = 53
	OptServerIdentifier       OptionCode = 54
	OptParameterRequestList   OptionCode = 55
	OptMaxMessageSize         OptionCode = 57
	OptRenewalTimeT1          OptionCode = 58
	OptRebindingTimeT2        OptionCode = 59
	OptClientIdentifier       OptionCode = 61
	OptClasslessStaticRoute   OptionCode = 121
	OptMSClasslessStaticRoute OptionCode = 249
	OptEnd                    OptionCode = 255
)

// MagicCookie is the four-byte literal that marks the start of the v4
// options area (RFC 2131 §3).
var MagicCookie = [4]byte{99, 130, 83, 99}

// MessageType is the value of OptMessageType (RFC 2131 §3.1).
type MessageType uint8

// DHCPv4 message types.
const (
	MessageTypeDiscover MessageType = 1
	MessageTypeOffer    MessageType = 2
	MessageTypeRequest  MessageType = 3
	MessageTypeDecline  MessageType = 4
	MessageTypeAck      MessageType = 5
	MessageTypeNak      MessageType = 6
	MessageTypeRelease  MessageType = 7
	MessageTypeInform   MessageType = 8
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeDiscover:
		return "DHCPDISCOVER"
	case MessageTypeOffer:
		return "DHCPOFFER"
	case MessageTypeRequest:
		return "DHCPREQUEST"
	case MessageTypeDecline:
		return "DHCPDECLINE"
	case MessageTypeAck:
		return "DHCPACK"
	case MessageTypeNak:
		return "DHCPNAK"
	case MessageTypeRelease:
		return "DHCPRELEASE"
	case MessageTypeInform:
		return "DHCPINFORM"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ClasslessRoute is one entry of a classless static route option (RFC 3442).
type ClasslessRoute struct {
	Destination  net.IP
	PrefixLength uint8
	Router       net.IP
}

// destOctets returns the number of destination octets RFC 3442 requires on
// the wire for the given prefix length: ceil(prefixLen/8), capped at 4.
func destOctets(prefixLen uint8) int {
	if prefixLen == 0 {
		return 0
	}

	n := int(prefixLen+7) / 8
	if n > 4 {
		n = 4
	}

	return n
}

// Option is a tagged union over every option variant this client recognizes,
// plus an Unknown catch-all for forward compatibility.  Exactly one field is
// meaningful per value of Code.
type Option struct {
	Code OptionCode

	IP      net.IP   // SubnetMask, ServerIdentifier, RequestedIPAddress, BroadcastAddress
	IPs     []net.IP // Router, DomainNameServer, NTPServers
	U32     uint32   // IPAddressLeaseTime, RenewalTimeT1, RebindingTimeT2
	U16     uint16   // InterfaceMTU, MaxMessageSize
	Text    string   // HostName, DomainName
	Bytes   []byte   // ClientIdentifier, Unknown.Raw
	MsgType MessageType
	Codes   []OptionCode     // ParameterRequestList
	Routes  []ClasslessRoute // ClasslessStaticRoute / MSClasslessStaticRoute
}

// OptSubnetMaskOpt builds a SubnetMask option.
func OptSubnetMaskOpt(mask net.IP) Option { return Option{Code: OptSubnetMask, IP: mask} }

// OptRouterOpt builds a Router option.
func OptRouterOpt(routers ...net.IP) Option { return Option{Code: OptRouter, IPs: routers} }

// OptDNSOpt builds a DomainNameServer option.
func OptDNSOpt(servers ...net.IP) Option { return Option{Code: OptDomainNameServer, IPs: servers} }

// OptHostNameOpt builds a HostName option.
func OptHostNameOpt(name string) Option { return Option{Code: OptHostName, Text: name} }

// OptDomainNameOpt builds a DomainName option.
func OptDomainNameOpt(name string) Option { return Option{Code: OptDomainName, Text: name} }

// OptMTUOpt builds an InterfaceMTU option.
func OptMTUOpt(mtu uint16) Option { return Option{Code: OptInterfaceMTU, U16: mtu} }

// OptBroadcastOpt builds a BroadcastAddress option.
func OptBroadcastOpt(ip net.IP) Option { return Option{Code: OptBroadcastAddress, IP: ip} }

// OptNTPOpt builds an NTPServers option.
func OptNTPOpt(servers ...net.IP) Option { return Option{Code: OptNTPServers, IPs: servers} }

// OptRequestedIPOpt builds a RequestedIPAddress option.
func OptRequestedIPOpt(ip net.IP) Option { return Option{Code: OptRequestedIPAddress, IP: ip} }

// OptLeaseTimeOpt builds an IPAddressLeaseTime option.
func OptLeaseTimeOpt(secs uint32) Option { return Option{Code: OptIPAddressLeaseTime, U32: secs} }

// OptMessageTypeOpt builds a MessageType option.
func OptMessageTypeOpt(t MessageType) Option { return Option{Code: OptMessageType, MsgType: t} }

// OptServerIDOpt builds a ServerIdentifier option.
func OptServerIDOpt(ip net.IP) Option { return Option{Code: OptServerIdentifier, IP: ip} }

// OptParameterRequestListOpt builds a ParameterRequestList option, sorted and
// de-duplicated as required by §4.2.
func OptParameterRequestListOpt(codes ...OptionCode) Option {
	return Option{Code: OptParameterRequestList, Codes: sortDedupCodes(codes)}
}

// OptMaxMessageSizeOpt builds a MaxMessageSize option.
func OptMaxMessageSizeOpt(size uint16) Option { return Option{Code: OptMaxMessageSize, U16: size} }

// OptT1Opt builds a RenewalTimeT1 option.
func OptT1Opt(secs uint32) Option { return Option{Code: OptRenewalTimeT1, U32: secs} }

// OptT2Opt builds a RebindingTimeT2 option.
func OptT2Opt(secs uint32) Option { return Option{Code: OptRebindingTimeT2, U32: secs} }

// OptClientIDOpt builds a ClientIdentifier option.
func OptClientIDOpt(id []byte) Option { return Option{Code: OptClientIdentifier, Bytes: id} }

// OptClasslessRoutesOpt builds a ClasslessStaticRoute option (code 121).
func OptClasslessRoutesOpt(routes ...ClasslessRoute) Option {
	return Option{Code: OptClasslessStaticRoute, Routes: routes}
}

// OptUnknownOpt builds an Unknown option preserving its raw bytes.
func OptUnknownOpt(code OptionCode, raw []byte) Option {
	return Option{Code: code, Bytes: raw}
}

func sortCodes(codes []OptionCode) {
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
}

func sortDedupCodes(codes []OptionCode) []OptionCode {
	cp := append([]OptionCode(nil), codes...)
	sortCodes(cp)

	out := cp[:0]
	var last OptionCode
	haveLast := false
	for _, c := range cp {
		if haveLast && c == last {
			continue
		}
		out = append(out, c)
		last = c
		haveLast = true
	}

	return out
}

// toLibrary converts o into the github.com/insomniacslk/dhcp/dhcpv4 option
// value used to build the wire packet.  Every option this client emits that
// has a typed constructor in that package uses it; classless static routes
// are packed by hand below since the library's own route type could not be
// confirmed against this corpus closely enough to risk guessing its shape
// (see DESIGN.md).
func (o Option) toLibrary() idhcpv4.Option {
	switch o.Code {
	case OptSubnetMask:
		return idhcpv4.OptSubnetMask(o.IP)
	case OptRouter:
		return idhcpv4.OptRouter(o.IPs...)
	case OptDomainNameServer:
		return idhcpv4.OptDNS(o.IPs...)
	case OptHostName:
		return idhcpv4.OptHostName(o.Text)
	case OptDomainName:
		return idhcpv4.OptDomainName(o.Text)
	case OptBroadcastAddress:
		return idhcpv4.OptBroadcastAddress(o.IP)
	case OptNTPServers:
		return idhcpv4.OptNTPServers(o.IPs...)
	case OptRequestedIPAddress:
		return idhcpv4.OptRequestedIPAddress(o.IP)
	case OptIPAddressLeaseTime:
		return idhcpv4.OptIPAddressLeaseTime(time.Duration(o.U32) * time.Second)
	case OptMessageType:
		return idhcpv4.OptMessageType(idhcpv4.MessageType(o.MsgType))
	case OptServerIdentifier:
		return idhcpv4.OptServerIdentifier(o.IP)
	case OptParameterRequestList:
		codes := make([]idhcpv4.OptionCode, len(o.Codes))
		for i, c := range o.Codes {
			codes[i] = idhcpv4.OptionCode(c)
		}
		return idhcpv4.OptParameterRequestList(codes...)
	case OptClientIdentifier:
		return idhcpv4.OptClientIdentifier(o.Bytes)

	case OptInterfaceMTU, OptMaxMessageSize:
		return idhcpv4.OptGeneric(idhcpv4.GenericOptionCode(o.Code), u16be(o.U16))

	case OptRenewalTimeT1, OptRebindingTimeT2:
		return idhcpv4.OptGeneric(idhcpv4.GenericOptionCode(o.Code), u32be(o.U32))

	case OptClasslessStaticRoute, OptMSClasslessStaticRoute:
		return idhcpv4.OptGeneric(idhcpv4.GenericOptionCode(o.Code), packClasslessRoutes(o.Routes))

	default:
		return idhcpv4.OptGeneric(idhcpv4.GenericOptionCode(o.Code), o.Bytes)
	}
}

func u16be(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func u32be(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// parseOption decodes the option for code out of pkt's already wire-framed
// option map, using the typed accessors github.com/insomniacslk/dhcp/dhcpv4
// provides wherever one exists.  Options with no confirmed typed accessor
// (T1/T2, MTU, max message size, classless routes) are decoded from the raw
// bytes the library still hands back via pkt.Options.Get.
func parseOption(pkt *idhcpv4.DHCPv4, code OptionCode) (Option, error) {
	body := pkt.Options.Get(idhcpv4.GenericOptionCode(code))

	switch code {
	case OptSubnetMask:
		ip := pkt.SubnetMask()
		if ip == nil {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: malformed", code)
		}
		return Option{Code: code, IP: net.IP(ip)}, nil

	case OptServerIdentifier:
		ip := pkt.ServerIdentifier()
		if ip == nil {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: malformed", code)
		}
		return Option{Code: code, IP: ip}, nil

	case OptRequestedIPAddress:
		ip := pkt.RequestedIPAddress()
		if ip == nil {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: malformed", code)
		}
		return Option{Code: code, IP: ip}, nil

	case OptBroadcastAddress:
		ip, err := parseIPv4(body)
		if err != nil {
			return Option{}, fmt.Errorf("option %d: %w", code, err)
		}
		return Option{Code: code, IP: ip}, nil

	case OptRouter:
		ips := pkt.Router()
		if len(ips) == 0 {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: empty", code)
		}
		return Option{Code: code, IPs: ips}, nil

	case OptDomainNameServer:
		ips := pkt.DNS()
		if len(ips) == 0 {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: empty", code)
		}
		return Option{Code: code, IPs: ips}, nil

	case OptNTPServers:
		ips, err := parseIPv4List(body)
		if err != nil {
			return Option{}, fmt.Errorf("option %d: %w", code, err)
		}
		return Option{Code: code, IPs: ips}, nil

	case OptHostName:
		return Option{Code: code, Text: pkt.HostName()}, nil

	case OptDomainName:
		return Option{Code: code, Text: pkt.DomainName()}, nil

	case OptInterfaceMTU, OptMaxMessageSize:
		if len(body) != 2 {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: length %d, want 2", code, len(body))
		}
		return Option{Code: code, U16: binary.BigEndian.Uint16(body)}, nil

	case OptIPAddressLeaseTime:
		return Option{Code: code, U32: uint32(pkt.IPAddressLeaseTime(0) / time.Second)}, nil

	case OptRenewalTimeT1, OptRebindingTimeT2:
		if len(body) != 4 {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: length %d, want 4", code, len(body))
		}
		return Option{Code: code, U32: binary.BigEndian.Uint32(body)}, nil

	case OptMessageType:
		mt := pkt.MessageType()
		if mt == 0 {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: malformed", code)
		}
		return Option{Code: code, MsgType: MessageType(mt)}, nil

	case OptParameterRequestList:
		prl := pkt.ParameterRequestList()
		codes := make([]OptionCode, len(prl))
		for i, c := range prl {
			codes[i] = OptionCode(c)
		}
		return Option{Code: code, Codes: sortDedupCodes(codes)}, nil

	case OptClientIdentifier:
		id := pkt.ClientIdentifier()
		if id == nil {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %d: malformed", code)
		}
		return Option{Code: code, Bytes: id}, nil

	case OptClasslessStaticRoute, OptMSClasslessStaticRoute:
		routes, err := parseClasslessRoutes(body)
		if err != nil {
			return Option{}, fmt.Errorf("option %d: %w", code, err)
		}
		return Option{Code: code, Routes: routes}, nil

	default:
		return Option{Code: code, Bytes: append([]byte(nil), body...)}, nil
	}
}

func parseIPv4(body []byte) (net.IP, error) {
	if len(body) != 4 {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "length %d, want 4", len(body))
	}
	return net.IP(append([]byte(nil), body...)), nil
}

func parseIPv4List(body []byte) ([]net.IP, error) {
	if len(body) == 0 || len(body)%4 != 0 {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "length %d is not a positive multiple of 4", len(body))
	}

	ips := make([]net.IP, 0, len(body)/4)
	for i := 0; i < len(body); i += 4 {
		ips = append(ips, net.IP(append([]byte(nil), body[i:i+4]...)))
	}

	return ips, nil
}

// parseClasslessRoutes decodes the RFC 3442 packed entry sequence.  This
// option has no typed representation confirmed in
// github.com/insomniacslk/dhcp/dhcpv4 against this corpus, so it is decoded
// from the option's raw bytes instead (see DESIGN.md).
func parseClasslessRoutes(body []byte) ([]ClasslessRoute, error) {
	var routes []ClasslessRoute
	for len(body) > 0 {
		plen := body[0]
		body = body[1:]

		n := destOctets(plen)
		if len(body) < n+4 {
			return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "truncated route entry")
		}

		dest := make(net.IP, 4)
		copy(dest, body[:n])
		body = body[n:]

		gw := net.IP(append([]byte(nil), body[:4]...))
		body = body[4:]

		routes = append(routes, ClasslessRoute{Destination: dest, PrefixLength: plen, Router: gw})
	}

	return routes, nil
}

// packClasslessRoutes encodes routes into the RFC 3442 packed entry
// sequence, the inverse of parseClasslessRoutes.
func packClasslessRoutes(routes []ClasslessRoute) []byte {
	var body []byte
	for _, rt := range routes {
		body = append(body, rt.PrefixLength)

		n := destOctets(rt.PrefixLength)
		dst := rt.Destination.To4()
		if dst == nil {
			dst = make(net.IP, 4)
		}
		body = append(body, dst[:n]...)

		gw := rt.Router.To4()
		if gw == nil {
			gw = net.IPv4zero.To4()
		}
		body = append(body, gw...)
	}

	return body
}
