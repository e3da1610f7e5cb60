package dhcpv4

import (
	"net"
	"time"

	"github.com/dhcpwire/dhcpc/internal/macutil"
)

// defaultTimeout is the value [NewConfig] stores in Config.Timeout.  The
// client does not read Config.Timeout, so no overall lease-acquisition
// deadline is enforced.
const defaultTimeout = 120 * time.Second

// DefaultRequestedOptions is the option-code list requested on every
// DISCOVER/REQUEST unless overridden.
var DefaultRequestedOptions = []OptionCode{
	OptHostName,
	OptSubnetMask,
	OptRouter,
	OptDomainNameServer,
	OptDomainName,
	OptInterfaceMTU,
	OptNTPServers,
	OptClasslessStaticRoute,
	OptMSClasslessStaticRoute,
}

// Config holds every per-client setting: the interface to run on, the
// client identifier, timeouts, proxy-mode addressing and the option list
// requested from the server.
type Config struct {
	IfaceName string
	SrcMAC    net.HardwareAddr

	ClientID []byte
	HostName string

	Timeout time.Duration

	IsProxy bool

	RequestOpts []OptionCode
}

// NewConfig returns a [Config] for a normal (non-proxy) client running
// directly on ifaceName, with the default timeout and requested-option
// list.
func NewConfig(ifaceName string) *Config {
	return &Config{
		IfaceName:   ifaceName,
		Timeout:     defaultTimeout,
		RequestOpts: append([]OptionCode(nil), DefaultRequestedOptions...),
	}
}

// NewProxyConfig returns a [Config] for a proxy client: it runs on
// outIfaceName but presents proxyMAC as its own hardware address on the
// wire (§4.4 proxy mode).
func NewProxyConfig(outIfaceName string, proxyMAC net.HardwareAddr) *Config {
	c := NewConfig(outIfaceName)
	c.SrcMAC = proxyMAC
	c.IsProxy = true

	return c
}

// SetTimeout sets Config.Timeout.  The client does not enforce it: each
// attempt is bounded only by its own retransmission wait and by ctx.
func (c *Config) SetTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

// SetHostName sets the host name sent in option 12 and, if
// [Config.UseHostNameAsClientID] is also called, used to derive the client
// identifier.
func (c *Config) SetHostName(name string) *Config {
	c.HostName = name
	return c
}

// UseMacAsClientID derives the client identifier from the ARP hardware type
// (Ethernet) plus the source MAC address (RFC 2132 §9.14).
func (c *Config) UseMacAsClientID() *Config {
	c.ClientID = macutil.ClientIDFromMAC(macutil.ARPHardwareEthernet, c.SrcMAC)
	return c
}

// UseHostNameAsClientID derives the client identifier from the
// already-configured host name using type 0 (RFC 2132 §9.14: "type 0 is used
// when not using hardware address"). A no-op if no host name is set.
func (c *Config) UseHostNameAsClientID() *Config {
	if c.HostName != "" {
		c.ClientID = macutil.ClientIDFromText(c.HostName)
	}

	return c
}

// SetClientID sets an arbitrary client identifier: clientIDType prefixes
// id per RFC 2132 §9.14.
func (c *Config) SetClientID(clientIDType byte, id []byte) *Config {
	buf := make([]byte, 0, len(id)+1)
	buf = append(buf, clientIDType)
	buf = append(buf, id...)
	c.ClientID = buf

	return c
}

// RequestExtraOptions appends codes to the requested-option list on top of
// [DefaultRequestedOptions], sorted and deduplicated.
func (c *Config) RequestExtraOptions(codes ...OptionCode) *Config {
	c.RequestOpts = append(c.RequestOpts, codes...)
	c.RequestOpts = sortDedupCodes(c.RequestOpts)

	return c
}

// OverrideRequestOptions replaces the requested-option list outright,
// sorted and deduplicated.
func (c *Config) OverrideRequestOptions(codes ...OptionCode) *Config {
	c.RequestOpts = sortDedupCodes(codes)
	return c
}
