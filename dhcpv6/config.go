package dhcpv6

import (
	"net"
	"time"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// defaultTimeout is the value [NewConfig] stores in Config.Timeout.  The
// client does not read Config.Timeout, so no overall lease-acquisition
// deadline is enforced.
const defaultTimeout = 120 * time.Second

// arpHardwareEthernet is the ARP hardware-type code for Ethernet, used when
// deriving a DUID-LL from the interface's MAC address.
const arpHardwareEthernet = 1

// IaType selects which identity-association variant a statefull client
// requests.
type IaType int

// Recognized IA types. NonTemporaryAddresses is the default.
const (
	IaTypeNonTemporaryAddresses IaType = iota
	IaTypeTemporaryAddresses
	IaTypePrefixDelegation
)

func (t IaType) String() string {
	switch t {
	case IaTypeNonTemporaryAddresses:
		return "IANA"
	case IaTypeTemporaryAddresses:
		return "IATA"
	case IaTypePrefixDelegation:
		return "IAPD"
	default:
		return "unknown"
	}
}

// optionCode returns the IA option code this type is carried in.
func (t IaType) optionCode() OptionCode {
	switch t {
	case IaTypeTemporaryAddresses:
		return OptIATA
	case IaTypePrefixDelegation:
		return OptIAPD
	default:
		return OptIANA
	}
}

// DefaultRequestedOptions is the option-code list requested on every
// Solicit/Request unless overridden.
var DefaultRequestedOptions = []OptionCode{
	OptDNSServers,
	OptDomainList,
	OptNTPServer,
}

// Config holds every per-client setting: the interface to run on, the
// client's DUID, the statefull IA type requested and the option list
// requested from the server.
//
// Stateless configuration (RFC 3736, no address/prefix assignment) is out of
// scope: this client always operates in statefull mode.
type Config struct {
	IfaceName  string
	IfaceIndex uint32
	SrcMAC     net.HardwareAddr
	SrcIP      net.IP

	DUID   DUID
	IaType IaType

	Timeout time.Duration

	RequestOpts []OptionCode
}

// NewConfig returns a [Config] for ifaceName requesting the given IA type,
// with the default timeout and requested-option list. No DUID is set; call
// [Config.UseMacAsDUID] or [Config.SetDUID], or rely on
// [Config.DUIDOrInit] to derive one lazily.
func NewConfig(ifaceName string, iaType IaType) *Config {
	return &Config{
		IfaceName:   ifaceName,
		IaType:      iaType,
		Timeout:     defaultTimeout,
		RequestOpts: append([]OptionCode(nil), DefaultRequestedOptions...),
	}
}

// SetTimeout sets Config.Timeout.  The client does not enforce it: each
// attempt is bounded only by its own retransmission wait and by ctx.
func (c *Config) SetTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

// SetDUID sets an arbitrary DUID.
func (c *Config) SetDUID(d DUID) *Config {
	c.DUID = d
	return c
}

// UseMacAsDUID derives a DUID-LL from the configured source MAC address.
func (c *Config) UseMacAsDUID() *Config {
	c.DUID = NewDUIDLL(arpHardwareEthernet, c.SrcMAC)
	return c
}

// DUIDOrInit returns the configured DUID, deriving a DUID-LL from the source
// MAC if one is available and no DUID has been set, falling back to a
// random opaque DUID otherwise.
func (c *Config) DUIDOrInit() DUID {
	if !c.DUID.IsEmpty() {
		return c.DUID
	}

	if len(c.SrcMAC) > 0 {
		c.DUID = NewDUIDLL(arpHardwareEthernet, c.SrcMAC)
	} else {
		c.DUID = RandomDUID()
	}

	return c.DUID
}

// RequestExtraOptions appends codes to the requested-option list on top of
// [DefaultRequestedOptions], sorted and deduplicated.
func (c *Config) RequestExtraOptions(codes ...OptionCode) *Config {
	c.RequestOpts = append(c.RequestOpts, codes...)
	c.RequestOpts = sortDedupCodes(c.RequestOpts)

	return c
}

// OverrideRequestOptions replaces the requested-option list outright, sorted
// and deduplicated.
func (c *Config) OverrideRequestOptions(codes ...OptionCode) *Config {
	c.RequestOpts = sortDedupCodes(codes)
	return c
}

// validate checks that the config carries what a transaction needs to begin.
func (c *Config) validate() error {
	if c.IfaceName == "" {
		return dhcperrors.New(dhcperrors.KindInvalidArgument, "dhcpv6: config: empty interface name")
	}
	if c.SrcIP == nil || c.SrcIP.IsUnspecified() {
		return dhcperrors.New(dhcperrors.KindInvalidArgument, "dhcpv6: config: no link-local source address")
	}

	return nil
}
