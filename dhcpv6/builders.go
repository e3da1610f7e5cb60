package dhcpv6

// newBase returns a Message carrying the fields common to every outgoing
// client message: the client identifier and the requested IA, carrying the
// previously negotiated IAID (or zero, on the first Solicit) and the
// address/prefix echoed back to the server with its lifetimes zeroed, per
// RFC 8415 §21.6/§21.22.
func newBase(t MessageType, xid [3]byte, cfg *Config, lease *Lease) *Message {
	m := NewMessage(t, xid)
	m.Options.Insert(optClientID(cfg.DUIDOrInit()))

	iaid := uint32(0)
	var addr *IAAddr
	var prefix *IAPrefix
	if lease != nil {
		iaid = lease.IAID
		addr = &IAAddr{Address: lease.Address}
		if cfg.IaType == IaTypePrefixDelegation {
			prefix = &IAPrefix{PrefixLength: lease.PrefixLength, Prefix: lease.Address}
		}
	}

	switch cfg.IaType {
	case IaTypeTemporaryAddresses:
		m.Options.Insert(optIATA(IATA{IAID: iaid, Address: addr}))
	case IaTypePrefixDelegation:
		// RFC 8415 §21.21: T1/T2 are always zero in a client's IA_PD.
		m.Options.Insert(optIAPD(IAPD{IAID: iaid, Prefix: prefix}))
	default:
		// RFC 8415 §21.4: T1/T2 are always zero in a client's IA_NA.
		m.Options.Insert(optIANA(IANA{IAID: iaid, Address: addr}))
	}

	return m
}

// addElapsedTime inserts the OPTION_ELAPSED_TIME option, in hundredths of a
// second since the transaction began (already saturated to uint16 max by
// the caller). A zero value leaves the option out.
func addElapsedTime(m *Message, hundredths uint16) {
	if hundredths > 0 {
		m.Options.Insert(optElapsedTime(hundredths))
	}
}

// NewSolicit builds a Solicit message (RFC 8415 §18.2.1): it must request
// SOL_MAX_RT via the Option Request option.
func NewSolicit(xid [3]byte, cfg *Config, elapsedHundredths uint16) *Message {
	m := newBase(MessageTypeSolicit, xid, cfg, nil)
	m.Options.Insert(optOptionRequest(sortDedupCodes(append(append([]OptionCode(nil), cfg.RequestOpts...), OptSolMaxRT))...))
	addElapsedTime(m, elapsedHundredths)

	return m
}

// NewRequest builds the Request message sent after receiving an Advertise,
// carrying the advertising server's identifier (RFC 8415 §18.2.2).
func NewRequest(xid [3]byte, cfg *Config, lease *Lease, elapsedHundredths uint16) *Message {
	m := newBase(MessageTypeRequest, xid, cfg, lease)
	m.Options.Insert(optServerID(lease.ServerDUID))
	m.Options.Insert(optOptionRequest(cfg.RequestOpts...))
	addElapsedTime(m, elapsedHundredths)

	return m
}

// NewRenew builds the Renew sent once T1 elapses, addressed to the original
// server by its identifier (RFC 8415 §18.2.4).
func NewRenew(xid [3]byte, cfg *Config, lease *Lease, elapsedHundredths uint16) *Message {
	m := newBase(MessageTypeRenew, xid, cfg, lease)
	m.Options.Insert(optServerID(lease.ServerDUID))
	m.Options.Insert(optOptionRequest(cfg.RequestOpts...))
	addElapsedTime(m, elapsedHundredths)

	return m
}

// NewRebind builds the multicast Rebind sent once T2 elapses without a
// Renew reply (RFC 8415 §18.2.5). Unlike Renew, it carries no server
// identifier: the client no longer trusts the original server is reachable.
func NewRebind(xid [3]byte, cfg *Config, lease *Lease, elapsedHundredths uint16) *Message {
	m := newBase(MessageTypeRebind, xid, cfg, lease)
	m.Options.Insert(optOptionRequest(cfg.RequestOpts...))
	addElapsedTime(m, elapsedHundredths)

	return m
}

// NewRelease builds a Release message surrendering lease (RFC 8415 §18.2.7).
func NewRelease(xid [3]byte, cfg *Config, lease *Lease, elapsedHundredths uint16) *Message {
	m := newBase(MessageTypeRelease, xid, cfg, lease)
	m.Options.Insert(optServerID(lease.ServerDUID))
	addElapsedTime(m, elapsedHundredths)

	return m
}
