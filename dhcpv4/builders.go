package dhcpv4

import "net"

// newBase returns a Message carrying the fields common to every outgoing
// client message: the hardware address, host name and client identifier
// (RFC 2131 §4.1 "all DHCP messages sent from a client to a server contain
// the chaddr field").
func newBase(op Opcode, xid uint32, cfg *Config) *Message {
	m := NewMessage(op, xid)
	m.CHAddr = cfg.SrcMAC
	m.HLen = uint8(len(cfg.SrcMAC))

	if cfg.HostName != "" {
		m.SetOption(OptHostNameOpt(cfg.HostName))
	}
	if len(cfg.ClientID) > 0 {
		m.SetOption(OptClientIDOpt(cfg.ClientID))
	}

	return m
}

// NewDiscovery builds a DHCPDISCOVER message (RFC 2131 §4.4.1).
func NewDiscovery(xid uint32, cfg *Config) *Message {
	m := newBase(OpcodeBootRequest, xid, cfg)
	m.SetOption(OptMessageTypeOpt(MessageTypeDiscover))
	m.SetOption(OptParameterRequestListOpt(cfg.RequestOpts...))

	return m
}

// serverIdentifierFor picks the address a REQUEST's server-identifier
// option should carry: the offer's explicit server-identifier if the
// server sent one, falling back to siaddr otherwise.
func serverIdentifierFor(lease *Lease) net.IP {
	if lease.ServerID != nil && !lease.ServerID.Equal(net.IPv4zero) {
		return lease.ServerID
	}

	return lease.SIAddr
}

// newRequestFromLease builds a DHCPREQUEST acknowledging lease: a single
// server-identifier option (no duplicate insertion), the requested address,
// and the same parameter-request list as the original DISCOVER (RFC 2131
// §4.3.2).
func newRequestFromLease(xid uint32, cfg *Config, lease *Lease) *Message {
	m := newBase(OpcodeBootRequest, xid, cfg)
	m.SetOption(OptMessageTypeOpt(MessageTypeRequest))
	m.SetOption(OptServerIDOpt(serverIdentifierFor(lease)))
	m.SetOption(OptRequestedIPOpt(lease.YIAddr))
	m.SetOption(OptParameterRequestListOpt(cfg.RequestOpts...))

	return m
}

// NewRequest builds the broadcast DHCPREQUEST sent from Selecting in
// response to a chosen DHCPOFFER (RFC 2131 §4.3.2, table 4 "SELECTING").
func NewRequest(xid uint32, cfg *Config, lease *Lease) *Message {
	return newRequestFromLease(xid, cfg, lease)
}

// NewRenew builds the unicast DHCPREQUEST sent from Renewing, with ciaddr
// set to the current lease address (RFC 2131 §4.3.2, table 4 "RENEWING").
func NewRenew(xid uint32, cfg *Config, lease *Lease) *Message {
	m := newRequestFromLease(xid, cfg, lease)
	m.CIAddr = lease.YIAddr

	return m
}

// NewRebind builds the broadcast DHCPREQUEST sent from Rebinding, identical
// in shape to the renew message (RFC 2131 §4.3.2, table 4 "REBINDING").
func NewRebind(xid uint32, cfg *Config, lease *Lease) *Message {
	return NewRenew(xid, cfg, lease)
}

// NewRelease builds a DHCPRELEASE message surrendering lease (RFC 2131
// §4.4.4).
func NewRelease(xid uint32, cfg *Config, lease *Lease) *Message {
	m := newRequestFromLease(xid, cfg, lease)
	m.CIAddr = lease.YIAddr
	m.SetOption(OptMessageTypeOpt(MessageTypeRelease))

	return m
}
