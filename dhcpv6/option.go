package dhcpv6

import (
	"fmt"
	"net"
	"sort"
	"strings"

	idhcpv6 "github.com/insomniacslk/dhcp/dhcpv6"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/wire"
)

// OptionCode is a DHCPv6 option's numeric tag (RFC 8415 §21).
type OptionCode uint16

// Recognized DHCPv6 option codes.
const (
	OptClientID     OptionCode = 1
	OptServerID     OptionCode = 2
	OptIANA         OptionCode = 3
	OptIATA         OptionCode = 4
	OptIAAddr       OptionCode = 5
	OptOptionRequest OptionCode = 6
	OptPreference   OptionCode = 7
	OptElapsedTime  OptionCode = 8
	OptUnicast      OptionCode = 12
	OptStatusCode   OptionCode = 13
	OptRapidCommit  OptionCode = 14
	OptDNSServers   OptionCode = 23
	OptDomainList   OptionCode = 24
	OptIAPD         OptionCode = 25
	OptIAPrefix     OptionCode = 26
	OptSolMaxRT     OptionCode = 82
	OptNTPServer    OptionCode = 56
)

func (c OptionCode) String() string {
	switch c {
	case OptClientID:
		return "OPTION_CLIENTID"
	case OptServerID:
		return "OPTION_SERVERID"
	case OptIANA:
		return "OPTION_IA_NA"
	case OptIATA:
		return "OPTION_IA_TA"
	case OptIAAddr:
		return "OPTION_IAADDR"
	case OptOptionRequest:
		return "OPTION_ORO"
	case OptPreference:
		return "OPTION_PREFERENCE"
	case OptElapsedTime:
		return "OPTION_ELAPSED_TIME"
	case OptUnicast:
		return "OPTION_UNICAST"
	case OptStatusCode:
		return "OPTION_STATUS_CODE"
	case OptRapidCommit:
		return "OPTION_RAPID_COMMIT"
	case OptDNSServers:
		return "OPTION_DNS_SERVERS"
	case OptDomainList:
		return "OPTION_DOMAIN_LIST"
	case OptIAPD:
		return "OPTION_IA_PD"
	case OptIAPrefix:
		return "OPTION_IAPREFIX"
	case OptNTPServer:
		return "OPTION_NTP_SERVER"
	case OptSolMaxRT:
		return "OPTION_SOL_MAX_RT"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(c))
	}
}

// MessageType is the one-byte DHCPv6 message type (RFC 8415 §7.3).
type MessageType uint8

// Recognized message types. Only the ones this client ever sends or
// expects are named; everything else decodes to its raw value.
const (
	MessageTypeSolicit   MessageType = 1
	MessageTypeAdvertise MessageType = 2
	MessageTypeRequest   MessageType = 3
	MessageTypeConfirm   MessageType = 4
	MessageTypeRenew     MessageType = 5
	MessageTypeRebind    MessageType = 6
	MessageTypeReply     MessageType = 7
	MessageTypeRelease   MessageType = 8
	MessageTypeDecline   MessageType = 9
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeSolicit:
		return "SOLICIT"
	case MessageTypeAdvertise:
		return "ADVERTISE"
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeConfirm:
		return "CONFIRM"
	case MessageTypeRenew:
		return "RENEW"
	case MessageTypeRebind:
		return "REBIND"
	case MessageTypeReply:
		return "REPLY"
	case MessageTypeRelease:
		return "RELEASE"
	case MessageTypeDecline:
		return "DECLINE"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// NTPSuboptionCode identifies one of RFC 5908's OPTION_NTP_SERVER
// suboptions.
type NTPSuboptionCode uint16

// Recognized NTP suboption codes.
const (
	NTPSuboptionServerAddr    NTPSuboptionCode = 1
	NTPSuboptionMulticastAddr NTPSuboptionCode = 2
	NTPSuboptionServerFQDN    NTPSuboptionCode = 3
)

// NTPSuboption is one entry of an OPTION_NTP_SERVER option (RFC 5908).
// Exactly one of ServerAddr, MulticastAddr, or FQDN is meaningful,
// according to Code; Raw preserves unrecognized suboptions.
type NTPSuboption struct {
	Code          NTPSuboptionCode
	ServerAddr    net.IP
	MulticastAddr net.IP
	FQDN          string
	Raw           []byte
}

func parseNTPSuboption(r *wire.Reader) (NTPSuboption, error) {
	code, err := r.GetU16BE()
	if err != nil {
		return NTPSuboption{}, err
	}

	length, err := r.GetU16BE()
	if err != nil {
		return NTPSuboption{}, err
	}

	switch NTPSuboptionCode(code) {
	case NTPSuboptionServerAddr:
		ip, err := r.GetIPv6()
		if err != nil {
			return NTPSuboption{}, err
		}
		return NTPSuboption{Code: NTPSuboptionServerAddr, ServerAddr: ip}, nil

	case NTPSuboptionMulticastAddr:
		ip, err := r.GetIPv6()
		if err != nil {
			return NTPSuboption{}, err
		}
		return NTPSuboption{Code: NTPSuboptionMulticastAddr, MulticastAddr: ip}, nil

	case NTPSuboptionServerFQDN:
		raw, err := r.GetBytes(int(length))
		if err != nil {
			return NTPSuboption{}, err
		}
		return NTPSuboption{Code: NTPSuboptionServerFQDN, FQDN: decodeFQDNLabels(raw)}, nil

	default:
		raw, err := r.GetBytes(int(length))
		if err != nil {
			return NTPSuboption{}, err
		}
		return NTPSuboption{Code: NTPSuboptionCode(code), Raw: append([]byte(nil), raw...)}, nil
	}
}

// decodeFQDNLabels joins a sequence of length-prefixed DNS labels with ".",
// stopping at the first zero-length label (RFC 1035 §3.1).
func decodeFQDNLabels(raw []byte) string {
	r := wire.NewReader(raw)

	var labels []string
	for !r.IsEmpty() {
		n, err := r.GetU8()
		if err != nil || n == 0 {
			break
		}

		b, err := r.GetBytes(int(n))
		if err != nil {
			break
		}

		labels = append(labels, string(b))
	}

	return strings.Join(labels, ".")
}

func (s NTPSuboption) emit(w *wire.Writer) {
	switch s.Code {
	case NTPSuboptionServerAddr:
		w.WriteU16BE(uint16(NTPSuboptionServerAddr))
		w.WriteU16BE(16)
		w.WriteIPv6(s.ServerAddr)

	case NTPSuboptionMulticastAddr:
		w.WriteU16BE(uint16(NTPSuboptionMulticastAddr))
		w.WriteU16BE(16)
		w.WriteIPv6(s.MulticastAddr)

	case NTPSuboptionServerFQDN:
		w.WriteU16BE(uint16(NTPSuboptionServerFQDN))
		body := wire.NewWriter()
		for _, label := range strings.Split(s.FQDN, ".") {
			if label == "" {
				continue
			}
			body.WriteU8(uint8(len(label)))
			body.WriteBytes([]byte(label))
		}
		body.WriteU8(0)
		w.WriteU16BE(uint16(body.Len()))
		w.WriteBytes(body.Bytes())

	default:
		w.WriteU16BE(uint16(s.Code))
		w.WriteU16BE(uint16(len(s.Raw)))
		w.WriteBytes(s.Raw)
	}
}

// Option is a tagged union over every DHCPv6 option variant this client
// recognizes, plus Raw as the forward-compatible catch-all. Exactly one
// field is meaningful per value of Code.
type Option struct {
	Code OptionCode

	DUID        DUID     // ClientID, ServerID
	IANA        *IANA    // IANA
	IATA        *IATA    // IATA
	IAPD        *IAPD    // IAPD
	IAAddr      *IAAddr  // IAAddr (top-level, rare outside of IANA/IATA)
	IAPrefix    *IAPrefix
	Codes       []OptionCode // OptionRequest
	U8          uint8        // Preference
	U16         uint16       // ElapsedTime
	IP          net.IP       // Unicast
	Status      *Status      // StatusCode
	IPs         []net.IP     // DNSServers
	Domains     []string     // DomainList
	NTPServers  []NTPSuboption
	Raw         []byte // Unknown, RapidCommit (empty)
}

// optClientID builds a ClientID option.
func optClientID(d DUID) Option { return Option{Code: OptClientID, DUID: d} }

// optServerID builds a ServerID option.
func optServerID(d DUID) Option { return Option{Code: OptServerID, DUID: d} }

// optElapsedTime builds an ElapsedTime option carrying hundredths as given
// (RFC 8415 §21.9); saturating the value is up to the caller.
func optElapsedTime(hundredths uint16) Option {
	return Option{Code: OptElapsedTime, U16: hundredths}
}

// optOptionRequest builds an OPTION_ORO option.
func optOptionRequest(codes ...OptionCode) Option {
	return Option{Code: OptOptionRequest, Codes: codes}
}

// optRapidCommit builds an empty RapidCommit option.
func optRapidCommit() Option { return Option{Code: OptRapidCommit} }

// optIANA builds an IANA option.
func optIANA(ia IANA) Option { return Option{Code: OptIANA, IANA: &ia} }

// optIATA builds an IATA option.
func optIATA(ia IATA) Option { return Option{Code: OptIATA, IATA: &ia} }

// optIAPD builds an IAPD option.
func optIAPD(ia IAPD) Option { return Option{Code: OptIAPD, IAPD: &ia} }

func sortDedupCodes(codes []OptionCode) []OptionCode {
	cp := append([]OptionCode(nil), codes...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })

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

// Options is an ordered collection of DHCPv6 options keyed by code. Unlike
// DHCPv4, more than one option may legitimately share a code (e.g. multiple
// IA_NAs in one message), so each code maps to a non-empty sequence.
// Deterministic emission is achieved by sorting at emit time, never by
// preserving insertion order.
type Options struct {
	data map[OptionCode][]Option
}

// NewOptions returns an empty Options collection.
func NewOptions() *Options {
	return &Options{data: make(map[OptionCode][]Option)}
}

// Insert appends opt under its code.
func (o *Options) Insert(opt Option) {
	if o.data == nil {
		o.data = make(map[OptionCode][]Option)
	}
	o.data[opt.Code] = append(o.data[opt.Code], opt)
}

// GetFirst returns the first option stored under code, if any.
func (o *Options) GetFirst(code OptionCode) (Option, bool) {
	opts := o.data[code]
	if len(opts) == 0 {
		return Option{}, false
	}
	return opts[0], true
}

// GetAll returns every option stored under code.
func (o *Options) GetAll(code OptionCode) []Option {
	return o.data[code]
}

// parseOptions decodes every option in buf, silently skipping any that
// fail to parse rather than aborting the whole message (mirrors the v4
// skip-and-continue policy, generalized to v6's "one bad option doesn't
// sink the packet" behavior).
func parseOptions(buf []byte) (*Options, error) {
	out := NewOptions()
	r := wire.NewReader(buf)

	for !r.IsEmpty() {
		code, err := r.PeekU16BE()
		if err != nil {
			return nil, err
		}

		length, err := r.PeekU16BEOffset(2)
		if err != nil {
			return nil, err
		}

		total := 4 + int(length)
		raw, err := r.GetBytes(total)
		if err != nil {
			return nil, err
		}

		opt, err := parseOption(OptionCode(code), raw, int(length))
		if err != nil {
			continue
		}

		out.Insert(opt)
	}

	return out, nil
}

func parseOption(code OptionCode, raw []byte, length int) (Option, error) {
	body := raw[4:]

	switch code {
	case OptClientID, OptServerID:
		d, err := ParseDUID(body)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, DUID: d}, nil

	case OptIANA:
		ia, err := parseIANA(body)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IANA: &ia}, nil

	case OptIATA:
		ia, err := parseIATA(body)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IATA: &ia}, nil

	case OptIAPD:
		ia, err := parseIAPD(body)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IAPD: &ia}, nil

	case OptIAAddr:
		a, err := parseIAAddr(raw)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IAAddr: &a}, nil

	case OptIAPrefix:
		p, err := parseIAPrefix(raw)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IAPrefix: &p}, nil

	case OptOptionRequest:
		r := wire.NewReader(body)
		var codes []OptionCode
		for !r.IsEmpty() {
			v, err := r.GetU16BE()
			if err != nil {
				return Option{}, err
			}
			codes = append(codes, OptionCode(v))
		}
		return Option{Code: code, Codes: codes}, nil

	case OptPreference:
		r := wire.NewReader(body)
		v, err := r.GetU8()
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, U8: v}, nil

	case OptElapsedTime:
		r := wire.NewReader(body)
		v, err := r.GetU16BE()
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, U16: v}, nil

	case OptUnicast:
		r := wire.NewReader(body)
		ip, err := r.GetIPv6()
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IP: ip}, nil

	case OptStatusCode:
		st, err := parseStatus(body)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, Status: &st}, nil

	case OptRapidCommit:
		return Option{Code: code}, nil

	case OptDNSServers:
		if len(body)%16 != 0 {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "dns servers: length %d is not a multiple of 16", len(body))
		}
		r := wire.NewReader(body)
		var ips []net.IP
		for !r.IsEmpty() {
			ip, err := r.GetIPv6()
			if err != nil {
				return Option{}, err
			}
			ips = append(ips, ip)
		}
		return Option{Code: code, IPs: ips}, nil

	case OptDomainList:
		r := wire.NewReader(body)
		var domains []string
		for !r.IsEmpty() {
			n, err := r.GetU8()
			if err != nil {
				return Option{}, err
			}
			s, err := r.GetStringWithNull(int(n))
			if err != nil {
				return Option{}, err
			}
			domains = append(domains, s)
		}
		return Option{Code: code, Domains: domains}, nil

	case OptNTPServer:
		r := wire.NewReader(body)
		var srvs []NTPSuboption
		for !r.IsEmpty() {
			s, err := parseNTPSuboption(r)
			if err != nil {
				return Option{}, err
			}
			srvs = append(srvs, s)
		}
		return Option{Code: code, NTPServers: srvs}, nil

	default:
		return Option{Code: code, Raw: append([]byte(nil), body...)}, nil
	}
}

// emit writes o's code, length, and value to w.
func (o Option) emit(w *wire.Writer) {
	switch o.Code {
	case OptClientID, OptServerID:
		body := wire.NewWriter()
		o.DUID.Emit(body)
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(uint16(body.Len()))
		w.WriteBytes(body.Bytes())

	case OptIANA:
		o.IANA.emit(w)

	case OptIATA:
		o.IATA.emit(w)

	case OptIAPD:
		o.IAPD.emit(w)

	case OptIAAddr:
		o.IAAddr.emit(w)

	case OptIAPrefix:
		o.IAPrefix.emit(w)

	case OptOptionRequest:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(uint16(2 * len(o.Codes)))
		for _, c := range o.Codes {
			w.WriteU16BE(uint16(c))
		}

	case OptPreference:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(1)
		w.WriteU8(o.U8)

	case OptElapsedTime:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(2)
		w.WriteU16BE(o.U16)

	case OptUnicast:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(16)
		w.WriteIPv6(o.IP)

	case OptStatusCode:
		o.Status.emit(w)

	case OptRapidCommit:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(0)

	case OptDNSServers:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(uint16(16 * len(o.IPs)))
		for _, ip := range o.IPs {
			w.WriteIPv6(ip)
		}

	case OptDomainList:
		body := wire.NewWriter()
		for _, d := range o.Domains {
			body.WriteU8(uint8(len(d) + 1))
			body.WriteStringWithNull(d, len(d)+1)
		}
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(uint16(body.Len()))
		w.WriteBytes(body.Bytes())

	case OptNTPServer:
		body := wire.NewWriter()
		for _, s := range o.NTPServers {
			s.emit(body)
		}
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(uint16(body.Len()))
		w.WriteBytes(body.Bytes())

	default:
		w.WriteU16BE(uint16(o.Code))
		w.WriteU16BE(uint16(len(o.Raw)))
		w.WriteBytes(o.Raw)
	}
}

// Emit writes every option in o to w, sorted by code ascending for
// deterministic bytes (§21).
func (o *Options) Emit(w *wire.Writer) {
	var all []Option
	for _, opts := range o.data {
		all = append(all, opts...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Code < all[j].Code })

	for _, opt := range all {
		opt.emit(w)
	}
}

// sortedCodes returns o's codes in ascending order, for deterministic
// application to a library message.
func (o *Options) sortedCodes() []OptionCode {
	codes := make([]OptionCode, 0, len(o.data))
	for c := range o.data {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	return codes
}

// genericOpt wraps data as a github.com/insomniacslk/dhcp/dhcpv6 generic
// option, for codes the library exposes no typed constructor for. Mirrors
// dhcpv4.OptGeneric's constructor-function shape (dhcpv4/option.go's
// toLibrary uses the same pattern for its own unmodeled codes).
func genericOpt(code OptionCode, data []byte) idhcpv6.Option {
	return idhcpv6.OptGeneric(idhcpv6.OptionCode(code), data)
}

// bodyBytes returns o's option body (code and length stripped) by running
// this package's own emit and slicing off the 4-byte header. It's reused as
// the generic-fallback encoding for option variants the library has no
// typed constructor for.
func bodyBytes(o Option) []byte {
	w := wire.NewWriter()
	o.emit(w)

	b := w.Bytes()
	if len(b) <= 4 {
		return nil
	}

	return b[4:]
}

// toLibrary returns o as a github.com/insomniacslk/dhcp/dhcpv6 option,
// preferring the library's typed constructors and falling back to a
// generic option (carrying this package's own body encoding) for variants
// the library doesn't model.
func (o Option) toLibrary() idhcpv6.Option {
	switch o.Code {
	case OptClientID, OptServerID:
		if d := o.DUID.toLibrary(); d != nil {
			if o.Code == OptClientID {
				return idhcpv6.OptClientID(d)
			}
			return idhcpv6.OptServerID(d)
		}
		return genericOpt(o.Code, o.DUID.Bytes())

	case OptIANA:
		return o.IANA.toLibrary()

	case OptIATA:
		return o.IATA.toLibraryOption()

	case OptIAPD:
		return o.IAPD.toLibrary()

	case OptIAAddr:
		return o.IAAddr.toLibraryOption()

	case OptIAPrefix:
		return o.IAPrefix.toLibraryOption()

	case OptStatusCode:
		return o.Status.toLibrary()

	case OptDNSServers:
		return idhcpv6.OptDNS(o.IPs...)

	default:
		return genericOpt(o.Code, bodyBytes(o))
	}
}

// optionFromGeneric decodes a library option into this package's Option for
// the codes that don't go through a dedicated Message-level accessor
// (ClientID, ServerID, IANA, IAPD, DNSServers are read directly off
// idhcpv6.Message.Options in ParseMessage instead). Typed library options
// decode directly; a generic option is reframed and handed to this
// package's own body parser.
func optionFromGeneric(code OptionCode, lo idhcpv6.Option) (Option, error) {
	switch code {
	case OptIATA:
		ia, err := iataFromLibraryOption(lo)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IATA: &ia}, nil

	case OptIAAddr:
		a, err := iaAddrFromLibraryOption(lo)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IAAddr: &a}, nil

	case OptIAPrefix:
		p, err := iaPrefixFromLibraryOption(lo)
		if err != nil {
			return Option{}, err
		}
		return Option{Code: code, IAPrefix: &p}, nil

	case OptStatusCode:
		o, ok := lo.(*idhcpv6.OptStatusCode)
		if !ok {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "status: unexpected option type %T", lo)
		}
		return Option{Code: code, Status: statusFromLibrary(o)}, nil

	default:
		g, ok := lo.(*idhcpv6.OptionGeneric)
		if !ok {
			return Option{}, dhcperrors.Newf(dhcperrors.KindInvalidDhcpMessage, "option %s: unexpected option type %T", code, lo)
		}
		return parseOption(code, reframe(code, g.OptionData), len(g.OptionData))
	}
}
