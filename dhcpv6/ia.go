package dhcpv6

import (
	"net"
	"time"

	idhcpv6 "github.com/insomniacslk/dhcp/dhcpv6"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/wire"
)

// IAAddr is the address encapsulated inside an IA_NA or IA_TA (RFC 8415
// §21.6).
type IAAddr struct {
	Address       net.IP
	PreferredSec  uint32
	ValidSec      uint32
	Status        *Status
}

// IsSuccess returns true when no status sub-option is present (RFC 8415
// default) or the status is explicitly success.
func (a *IAAddr) IsSuccess() bool { return a.Status.IsSuccess() }

func parseIAAddr(body []byte) (IAAddr, error) {
	r := wire.NewReader(body)

	code, err := r.GetU16BE()
	if err != nil {
		return IAAddr{}, err
	}
	if OptionCode(code) != OptIAAddr {
		return IAAddr{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "iaaddr: expected option %d, got %d", OptIAAddr, code)
	}

	length, err := r.GetU16BE()
	if err != nil {
		return IAAddr{}, err
	}

	addr, err := r.GetIPv6()
	if err != nil {
		return IAAddr{}, err
	}

	preferred, err := r.GetU32BE()
	if err != nil {
		return IAAddr{}, err
	}

	valid, err := r.GetU32BE()
	if err != nil {
		return IAAddr{}, err
	}

	out := IAAddr{Address: addr, PreferredSec: preferred, ValidSec: valid}

	consumed := 4 + 4 + 16
	if int(length) > consumed {
		st, err := parseStatus(body[4+consumed : 4+int(length)])
		if err != nil {
			return IAAddr{}, err
		}
		out.Status = &st
	}

	return out, nil
}

func (a IAAddr) emit(w *wire.Writer) {
	body := wire.NewWriter()
	body.WriteIPv6(a.Address)
	body.WriteU32BE(a.PreferredSec)
	body.WriteU32BE(a.ValidSec)
	if a.Status != nil {
		a.Status.emit(body)
	}

	w.WriteU16BE(uint16(OptIAAddr))
	w.WriteU16BE(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
}

// toLibraryOption returns a as a github.com/insomniacslk/dhcp/dhcpv6 option.
// When a carries no status sub-option, it encodes as the library's typed
// OptIAAddress; a Status forces the generic fallback, since the library
// exposes no embedded-status field on OptIAAddress.
func (a IAAddr) toLibraryOption() idhcpv6.Option {
	if a.Status == nil {
		return &idhcpv6.OptIAAddress{
			IPv6Addr:          a.Address,
			PreferredLifetime: time.Duration(a.PreferredSec) * time.Second,
			ValidLifetime:     time.Duration(a.ValidSec) * time.Second,
		}
	}

	body := wire.NewWriter()
	body.WriteIPv6(a.Address)
	body.WriteU32BE(a.PreferredSec)
	body.WriteU32BE(a.ValidSec)
	a.Status.emit(body)

	return genericOpt(OptIAAddr, body.Bytes())
}

func iaAddrFromLibraryOption(opt idhcpv6.Option) (IAAddr, error) {
	switch o := opt.(type) {
	case *idhcpv6.OptIAAddress:
		return IAAddr{
			Address:      o.IPv6Addr,
			PreferredSec: uint32(o.PreferredLifetime.Seconds()),
			ValidSec:     uint32(o.ValidLifetime.Seconds()),
		}, nil

	case *idhcpv6.OptionGeneric:
		return parseIAAddr(reframe(OptIAAddr, o.OptionData))

	default:
		return IAAddr{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "iaaddr: unexpected option type %T", opt)
	}
}

// IAPrefix is the delegated prefix encapsulated inside an IA_PD (RFC 8415
// §21.22).
type IAPrefix struct {
	PreferredSec uint32
	ValidSec     uint32
	PrefixLength uint8
	Prefix       net.IP
	Status       *Status
}

// IsSuccess returns true when no status sub-option is present or the
// status is explicitly success.
func (p *IAPrefix) IsSuccess() bool { return p.Status.IsSuccess() }

func parseIAPrefix(body []byte) (IAPrefix, error) {
	r := wire.NewReader(body)

	code, err := r.GetU16BE()
	if err != nil {
		return IAPrefix{}, err
	}
	if OptionCode(code) != OptIAPrefix {
		return IAPrefix{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "iaprefix: expected option %d, got %d", OptIAPrefix, code)
	}

	length, err := r.GetU16BE()
	if err != nil {
		return IAPrefix{}, err
	}

	preferred, err := r.GetU32BE()
	if err != nil {
		return IAPrefix{}, err
	}

	valid, err := r.GetU32BE()
	if err != nil {
		return IAPrefix{}, err
	}

	plen, err := r.GetU8()
	if err != nil {
		return IAPrefix{}, err
	}

	prefix, err := r.GetIPv6()
	if err != nil {
		return IAPrefix{}, err
	}

	out := IAPrefix{PreferredSec: preferred, ValidSec: valid, PrefixLength: plen, Prefix: prefix}

	consumed := 4 + 4 + 1 + 16
	if int(length) > consumed {
		st, err := parseStatus(body[4+consumed : 4+int(length)])
		if err != nil {
			return IAPrefix{}, err
		}
		out.Status = &st
	}

	return out, nil
}

func (p IAPrefix) emit(w *wire.Writer) {
	body := wire.NewWriter()
	body.WriteU32BE(p.PreferredSec)
	body.WriteU32BE(p.ValidSec)
	body.WriteU8(p.PrefixLength)
	body.WriteIPv6(p.Prefix)
	if p.Status != nil {
		p.Status.emit(body)
	}

	w.WriteU16BE(uint16(OptIAPrefix))
	w.WriteU16BE(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
}

// toLibraryOption returns p as a github.com/insomniacslk/dhcp/dhcpv6 option,
// following the same typed/generic split as IAAddr.toLibraryOption.
func (p IAPrefix) toLibraryOption() idhcpv6.Option {
	if p.Status == nil {
		return &idhcpv6.OptIAPrefix{
			PreferredLifetime: time.Duration(p.PreferredSec) * time.Second,
			ValidLifetime:     time.Duration(p.ValidSec) * time.Second,
			Prefix:            &net.IPNet{IP: p.Prefix, Mask: net.CIDRMask(int(p.PrefixLength), 128)},
		}
	}

	body := wire.NewWriter()
	body.WriteU32BE(p.PreferredSec)
	body.WriteU32BE(p.ValidSec)
	body.WriteU8(p.PrefixLength)
	body.WriteIPv6(p.Prefix)
	p.Status.emit(body)

	return genericOpt(OptIAPrefix, body.Bytes())
}

func iaPrefixFromLibraryOption(opt idhcpv6.Option) (IAPrefix, error) {
	switch o := opt.(type) {
	case *idhcpv6.OptIAPrefix:
		ones, _ := o.Prefix.Mask.Size()
		return IAPrefix{
			PreferredSec: uint32(o.PreferredLifetime.Seconds()),
			ValidSec:     uint32(o.ValidLifetime.Seconds()),
			PrefixLength: uint8(ones),
			Prefix:       o.Prefix.IP,
		}, nil

	case *idhcpv6.OptionGeneric:
		return parseIAPrefix(reframe(OptIAPrefix, o.OptionData))

	default:
		return IAPrefix{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "iaprefix: unexpected option type %T", opt)
	}
}

func parseStatus(body []byte) (Status, error) {
	r := wire.NewReader(body)

	code, err := r.GetU16BE()
	if err != nil {
		return Status{}, err
	}

	msg, err := r.GetStringWithoutNull(len(body) - 2)
	if err != nil {
		return Status{}, err
	}

	return Status{Code: StatusCode(code), Message: msg}, nil
}

func (s Status) emit(w *wire.Writer) {
	w.WriteU16BE(uint16(OptStatusCode))
	w.WriteU16BE(uint16(2 + len(s.Message)))
	w.WriteU16BE(uint16(s.Code))
	w.WriteBytes([]byte(s.Message))
}

// IANA is the non-temporary-address identity association (RFC 8415 §21.4):
// an identifier, renew/rebind times, and (in a typical single-address
// deployment) one encapsulated address.
type IANA struct {
	IAID    uint32
	T1Sec   uint32
	T2Sec   uint32
	Address *IAAddr
}

// IsSuccess returns true when the IA carries no address, or its address's
// status sub-option is absent or explicitly success.
func (ia *IANA) IsSuccess() bool {
	if ia.Address != nil {
		return ia.Address.IsSuccess()
	}
	return true
}

func parseIANA(body []byte) (IANA, error) {
	r := wire.NewReader(body)

	iaid, err := r.GetU32BE()
	if err != nil {
		return IANA{}, err
	}

	t1, err := r.GetU32BE()
	if err != nil {
		return IANA{}, err
	}

	t2, err := r.GetU32BE()
	if err != nil {
		return IANA{}, err
	}

	out := IANA{IAID: iaid, T1Sec: t1, T2Sec: t2}

	if !r.IsEmpty() {
		addr, err := parseIAAddr(r.GetRemains())
		if err != nil {
			return IANA{}, err
		}
		out.Address = &addr
	}

	return out, nil
}

func (ia IANA) emit(w *wire.Writer) {
	body := wire.NewWriter()
	body.WriteU32BE(ia.IAID)
	body.WriteU32BE(ia.T1Sec)
	body.WriteU32BE(ia.T2Sec)
	if ia.Address != nil {
		ia.Address.emit(body)
	}

	w.WriteU16BE(uint16(OptIANA))
	w.WriteU16BE(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
}

// toLibrary returns ia as a github.com/insomniacslk/dhcp/dhcpv6 IA_NA
// option, encapsulating its address (if any) via IAAddr.toLibraryOption.
func (ia IANA) toLibrary() *idhcpv6.OptIANA {
	out := &idhcpv6.OptIANA{
		T1:   time.Duration(ia.T1Sec) * time.Second,
		T2:   time.Duration(ia.T2Sec) * time.Second,
		IaId: iaidToBytes(ia.IAID),
	}

	if ia.Address != nil {
		out.Options = idhcpv6.IdentityOptions{Options: idhcpv6.Options{ia.Address.toLibraryOption()}}
	}

	return out
}

func ianaFromLibrary(o *idhcpv6.OptIANA) (IANA, error) {
	out := IANA{
		IAID:  iaidFromBytes(o.IaId),
		T1Sec: uint32(o.T1.Seconds()),
		T2Sec: uint32(o.T2.Seconds()),
	}

	for _, sub := range o.Options.Options {
		addr, err := iaAddrFromLibraryOption(sub)
		if err != nil {
			continue
		}
		out.Address = &addr
		break
	}

	return out, nil
}

// IATA is the temporary-address identity association (RFC 8415 §21.5): an
// identifier and (in a typical deployment) one encapsulated address. It
// carries no T1/T2, since temporary addresses are never renewed.
type IATA struct {
	IAID    uint32
	Address *IAAddr
}

// IsSuccess returns true when the IA carries no address, or its address's
// status sub-option is absent or explicitly success.
func (ia *IATA) IsSuccess() bool {
	if ia.Address != nil {
		return ia.Address.IsSuccess()
	}
	return true
}

func parseIATA(body []byte) (IATA, error) {
	r := wire.NewReader(body)

	iaid, err := r.GetU32BE()
	if err != nil {
		return IATA{}, err
	}

	out := IATA{IAID: iaid}
	if !r.IsEmpty() {
		addr, err := parseIAAddr(r.GetRemains())
		if err != nil {
			return IATA{}, err
		}
		out.Address = &addr
	}

	return out, nil
}

func (ia IATA) emit(w *wire.Writer) {
	body := wire.NewWriter()
	body.WriteU32BE(ia.IAID)
	if ia.Address != nil {
		ia.Address.emit(body)
	}

	w.WriteU16BE(uint16(OptIATA))
	w.WriteU16BE(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
}

// toLibraryOption wraps ia in a generic option: the library has no typed
// IA_TA constructor, so this package's own wire codec produces the body and
// the library only carries it.
func (ia IATA) toLibraryOption() idhcpv6.Option {
	body := wire.NewWriter()
	body.WriteU32BE(ia.IAID)
	if ia.Address != nil {
		ia.Address.emit(body)
	}

	return genericOpt(OptIATA, body.Bytes())
}

func iataFromLibraryOption(opt idhcpv6.Option) (IATA, error) {
	o, ok := opt.(*idhcpv6.OptionGeneric)
	if !ok {
		return IATA{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "iata: unexpected option type %T", opt)
	}

	return parseIATA(o.OptionData)
}

// IAPD is the prefix-delegation identity association (RFC 8415 §21.21).
type IAPD struct {
	IAID   uint32
	T1Sec  uint32
	T2Sec  uint32
	Prefix *IAPrefix
}

// IsSuccess returns true when the IA carries no prefix, or its prefix's
// status sub-option is absent or explicitly success.
func (ia *IAPD) IsSuccess() bool {
	if ia.Prefix != nil {
		return ia.Prefix.IsSuccess()
	}
	return true
}

func parseIAPD(body []byte) (IAPD, error) {
	r := wire.NewReader(body)

	iaid, err := r.GetU32BE()
	if err != nil {
		return IAPD{}, err
	}

	t1, err := r.GetU32BE()
	if err != nil {
		return IAPD{}, err
	}

	t2, err := r.GetU32BE()
	if err != nil {
		return IAPD{}, err
	}

	out := IAPD{IAID: iaid, T1Sec: t1, T2Sec: t2}

	if !r.IsEmpty() {
		prefix, err := parseIAPrefix(r.GetRemains())
		if err != nil {
			return IAPD{}, err
		}
		out.Prefix = &prefix
	}

	return out, nil
}

func (ia IAPD) emit(w *wire.Writer) {
	body := wire.NewWriter()
	body.WriteU32BE(ia.IAID)
	body.WriteU32BE(ia.T1Sec)
	body.WriteU32BE(ia.T2Sec)
	if ia.Prefix != nil {
		ia.Prefix.emit(body)
	}

	w.WriteU16BE(uint16(OptIAPD))
	w.WriteU16BE(uint16(body.Len()))
	w.WriteBytes(body.Bytes())
}

// toLibrary returns ia as a github.com/insomniacslk/dhcp/dhcpv6 IA_PD
// option, encapsulating its prefix (if any) via IAPrefix.toLibraryOption.
func (ia IAPD) toLibrary() *idhcpv6.OptIAPD {
	out := &idhcpv6.OptIAPD{
		T1:   time.Duration(ia.T1Sec) * time.Second,
		T2:   time.Duration(ia.T2Sec) * time.Second,
		IaId: iaidToBytes(ia.IAID),
	}

	if ia.Prefix != nil {
		out.Options = idhcpv6.PDOptions{Options: idhcpv6.Options{ia.Prefix.toLibraryOption()}}
	}

	return out
}

func iapdFromLibrary(o *idhcpv6.OptIAPD) (IAPD, error) {
	out := IAPD{
		IAID:  iaidFromBytes(o.IaId),
		T1Sec: uint32(o.T1.Seconds()),
		T2Sec: uint32(o.T2.Seconds()),
	}

	for _, sub := range o.Options.Options {
		prefix, err := iaPrefixFromLibraryOption(sub)
		if err != nil {
			continue
		}
		out.Prefix = &prefix
		break
	}

	return out, nil
}

// iaidToBytes/iaidFromBytes convert between this package's uint32 IAID and
// the library's [4]byte wire representation.
func iaidToBytes(id uint32) [4]byte {
	return [4]byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}

func iaidFromBytes(b [4]byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// reframe rebuilds the 4-byte TLV header that a generic-option fallback's
// raw bytes lack, so they can be fed back through this package's own
// body-level parse functions.
func reframe(code OptionCode, body []byte) []byte {
	w := wire.NewWriter()
	w.WriteU16BE(uint16(code))
	w.WriteU16BE(uint16(len(body)))
	w.WriteBytes(body)

	return w.Bytes()
}
