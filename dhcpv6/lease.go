package dhcpv6

import (
	"net"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// Lease is the typed projection of a committed Reply's options.
type Lease struct {
	Xid   [3]byte
	IAID  uint32
	IAType IaType

	T1Sec        uint32
	T2Sec        uint32
	PreferredSec uint32
	ValidSec     uint32

	Address      net.IP
	PrefixLength uint8

	ClientDUID DUID
	ServerDUID DUID
	ServerIP   net.IP

	NTPServers []NTPSuboption
	DNSServers []net.IP
	DomainList []string

	RawOptions *Options
}

// leaseFromIANA builds a non-temporary-address Lease from a Reply's IA_NA,
// applying the RFC 8415 §14.2 zero-fuzz rule: if the server sends T1=0 and/or
// T2=0 alongside a non-zero preferred lifetime, the client computes its own
// values instead of treating zero as "no renewal".
func leaseFromIANA(xid [3]byte, clientDUID, serverDUID DUID, serverIP net.IP, ia *IANA, opts *Options) (*Lease, error) {
	if ia.Address == nil {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ia_na carries no address")
	}
	if !ia.IsSuccess() {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "ia_na status: %s", ia.Address.Status.Code)
	}

	t1, t2 := ia.T1Sec, ia.T2Sec
	applyZeroFuzz(&t1, &t2, ia.Address.PreferredSec)

	l := &Lease{
		Xid: xid, IAID: ia.IAID, IAType: IaTypeNonTemporaryAddresses,
		T1Sec: t1, T2Sec: t2,
		PreferredSec: ia.Address.PreferredSec,
		ValidSec:     ia.Address.ValidSec,
		Address:      ia.Address.Address,
		ClientDUID:   clientDUID, ServerDUID: serverDUID, ServerIP: serverIP,
		RawOptions: opts,
	}

	fillCommon(l, opts)

	return l, validate(l)
}

// leaseFromIATA builds a temporary-address Lease from a Reply's IA_TA.
// Temporary addresses carry no T1/T2: they are never renewed, only
// reacquired via a fresh Solicit on expiry.
func leaseFromIATA(xid [3]byte, clientDUID, serverDUID DUID, serverIP net.IP, ia *IATA, opts *Options) (*Lease, error) {
	if ia.Address == nil {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ia_ta carries no address")
	}
	if !ia.IsSuccess() {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "ia_ta status: %s", ia.Address.Status.Code)
	}

	l := &Lease{
		Xid: xid, IAID: ia.IAID, IAType: IaTypeTemporaryAddresses,
		PreferredSec: ia.Address.PreferredSec,
		ValidSec:     ia.Address.ValidSec,
		Address:      ia.Address.Address,
		ClientDUID:   clientDUID, ServerDUID: serverDUID, ServerIP: serverIP,
		RawOptions: opts,
	}

	fillCommon(l, opts)

	return l, validate(l)
}

// leaseFromIAPD builds a delegated-prefix Lease from a Reply's IA_PD,
// applying the same zero-fuzz T1/T2 rule as IA_NA.
func leaseFromIAPD(xid [3]byte, clientDUID, serverDUID DUID, serverIP net.IP, ia *IAPD, opts *Options) (*Lease, error) {
	if ia.Prefix == nil {
		return nil, dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "ia_pd carries no prefix")
	}
	if !ia.IsSuccess() {
		return nil, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "ia_pd status: %s", ia.Prefix.Status.Code)
	}

	t1, t2 := ia.T1Sec, ia.T2Sec
	applyZeroFuzz(&t1, &t2, ia.Prefix.PreferredSec)

	l := &Lease{
		Xid: xid, IAID: ia.IAID, IAType: IaTypePrefixDelegation,
		T1Sec: t1, T2Sec: t2,
		PreferredSec: ia.Prefix.PreferredSec,
		ValidSec:     ia.Prefix.ValidSec,
		Address:      ia.Prefix.Prefix,
		PrefixLength: ia.Prefix.PrefixLength,
		ClientDUID:   clientDUID, ServerDUID: serverDUID, ServerIP: serverIP,
		RawOptions: opts,
	}

	fillCommon(l, opts)

	return l, validate(l)
}

// applyZeroFuzz rewrites t1/t2 in place per RFC 8415 §14.2: when the server
// leaves T1 and/or T2 unset (zero) alongside a non-zero preferred lifetime,
// the client picks t1 = preferred/2 and t2 = preferred/2 + preferred/4.
func applyZeroFuzz(t1, t2 *uint32, preferred uint32) {
	if *t1 == 0 && preferred != 0 {
		*t1 = preferred / 2
	}
	if *t2 == 0 && preferred != 0 {
		*t2 = preferred/2 + preferred/4
	}
}

func fillCommon(l *Lease, opts *Options) {
	if o, ok := opts.GetFirst(OptNTPServer); ok {
		l.NTPServers = o.NTPServers
	}
	if o, ok := opts.GetFirst(OptDNSServers); ok {
		l.DNSServers = o.IPs
	}
	if o, ok := opts.GetFirst(OptDomainList); ok {
		l.DomainList = o.Domains
	}
}

// validate enforces the invariants a committed lease must satisfy regardless
// of IA type: t1 <= t2 <= valid, preferred <= valid, a non-empty server DUID,
// and a non-unspecified address.
func validate(l *Lease) error {
	if l.T1Sec > l.T2Sec || l.T2Sec > l.ValidSec {
		return dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"invalid lease timers: t1=%d t2=%d valid=%d, want t1<=t2<=valid", l.T1Sec, l.T2Sec, l.ValidSec,
		)
	}
	if l.PreferredSec > l.ValidSec {
		return dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"invalid lease lifetimes: preferred=%d valid=%d, want preferred<=valid", l.PreferredSec, l.ValidSec,
		)
	}
	if l.ServerDUID.IsEmpty() {
		return dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "reply carries no server duid")
	}
	if l.Address == nil || l.Address.IsUnspecified() {
		return dhcperrors.New(dhcperrors.KindInvalidDhcpMessage, "lease carries no usable address")
	}

	return nil
}
