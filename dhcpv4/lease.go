package dhcpv4

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/macutil"
)

// Lease is the typed projection of a committed ACK's options (§3).
type Lease struct {
	ServerMAC net.HardwareAddr
	SIAddr    net.IP
	YIAddr    net.IP

	T1Sec        uint32
	T2Sec        uint32
	LeaseTimeSec uint32

	ServerID   net.IP
	SubnetMask net.IP

	Broadcast net.IP
	DNS       []net.IP
	Gateways  []net.IP
	NTP       []net.IP
	MTU       *uint16
	HostName  string
	DomainName string

	ClasslessRoutes []ClasslessRoute

	RawOptions map[OptionCode]Option
}

// PrefixLength returns the CIDR prefix length of the lease's subnet mask, or
// -1 if no subnet mask was recorded.
func (l *Lease) PrefixLength() int {
	if l.SubnetMask == nil {
		return -1
	}

	ip4 := l.SubnetMask.To4()
	if ip4 == nil {
		return -1
	}

	mask := uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])

	return macutil.PrefixLength(mask)
}

// LeaseFromACK builds a [Lease] from a committed ACK message and the offer's
// (or ACK's own) server hardware address, enforcing every invariant in §3:
//
//   - lease-time, T1 and T2 options are present;
//   - server-identifier option is present;
//   - t1 <= t2 <= lease_time.
//
// Any violation is reported as a KindInvalidDhcpMessage error and no lease
// is returned, per §7's policy of treating invariant failures as invalid
// messages rather than a distinct class.
func LeaseFromACK(ack *Message, serverMAC net.HardwareAddr) (*Lease, error) {
	leaseTimeOpt, ok := ack.Option(OptIPAddressLeaseTime)
	if !ok {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ack is missing lease-time option")
	}

	t1Opt, ok := ack.Option(OptRenewalTimeT1)
	if !ok {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ack is missing T1 option")
	}

	t2Opt, ok := ack.Option(OptRebindingTimeT2)
	if !ok {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ack is missing T2 option")
	}

	serverIDOpt, ok := ack.Option(OptServerIdentifier)
	if !ok {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ack is missing server-identifier option")
	}

	t1, t2, leaseTime := t1Opt.U32, t2Opt.U32, leaseTimeOpt.U32
	if !(t1 <= t2 && t2 <= leaseTime) {
		return nil, dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"invalid lease timers: t1=%d t2=%d lease=%d, want t1<=t2<=lease", t1, t2, leaseTime,
		)
	}

	l := &Lease{
		ServerMAC:    serverMAC,
		SIAddr:       ack.SIAddr,
		YIAddr:       ack.YIAddr,
		T1Sec:        t1,
		T2Sec:        t2,
		LeaseTimeSec: leaseTime,
		ServerID:     serverIDOpt.IP,
		RawOptions:   ack.options,
	}

	if o, ok := ack.Option(OptSubnetMask); ok {
		l.SubnetMask = o.IP
	}
	if o, ok := ack.Option(OptBroadcastAddress); ok {
		l.Broadcast = o.IP
	}
	if o, ok := ack.Option(OptDomainNameServer); ok {
		l.DNS = o.IPs
	}
	if o, ok := ack.Option(OptRouter); ok {
		l.Gateways = o.IPs
	}
	if o, ok := ack.Option(OptNTPServers); ok {
		l.NTP = o.IPs
	}
	if o, ok := ack.Option(OptInterfaceMTU); ok {
		mtu := o.U16
		l.MTU = &mtu
	}
	if o, ok := ack.Option(OptHostName); ok {
		l.HostName = o.Text
	}
	if o, ok := ack.Option(OptDomainName); ok {
		l.DomainName = o.Text
	}

	// RFC 3442 §3: an option-249 duplicating option-121 is accepted only
	// when option-121 is absent.
	if o, ok := ack.Option(OptClasslessStaticRoute); ok {
		l.ClasslessRoutes = o.Routes
	} else if o, ok := ack.Option(OptMSClasslessStaticRoute); ok {
		l.ClasslessRoutes = o.Routes
	}

	return l, nil
}
