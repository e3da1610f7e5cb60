package dhcpv6

import (
	idhcpv6 "github.com/insomniacslk/dhcp/dhcpv6"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// MinMessageLen is the minimum legal message length: the one-byte type and
// the three-byte transaction id.
const MinMessageLen = 4

// Message is a parsed DHCPv6 packet: the one-byte type, the three-byte
// transaction id, and an options collection.
type Message struct {
	Type    MessageType
	Xid     [3]byte
	Options *Options
}

// NewMessage returns an empty Message of the given type and transaction id.
func NewMessage(t MessageType, xid [3]byte) *Message {
	return &Message{Type: t, Xid: xid, Options: NewOptions()}
}

// toLibrary builds the github.com/insomniacslk/dhcp/dhcpv6 message m's type,
// transaction id, and options translate to.
func (m *Message) toLibrary() (*idhcpv6.Message, error) {
	lm, err := idhcpv6.NewMessage()
	if err != nil {
		return nil, dhcperrors.Contextf(err, "dhcpv6: building wire message")
	}

	lm.MessageType = idhcpv6.MessageType(m.Type)
	lm.TransactionID = idhcpv6.TransactionID(m.Xid)

	for _, code := range m.Options.sortedCodes() {
		for _, opt := range m.Options.data[code] {
			lm.AddOption(opt.toLibrary())
		}
	}

	return lm, nil
}

// ToBytes serializes the message through the insomniacslk/dhcp wire codec.
func (m *Message) ToBytes() []byte {
	lm, err := m.toLibrary()
	if err != nil {
		// idhcpv6.NewMessage's only failure mode is generating its own
		// random transaction id (which toLibrary then overwrites with
		// m.Xid); that fails only if the system random source does.
		panic(err)
	}

	return lm.ToBytes()
}

// decodeCodes lists the option codes ParseMessage walks through the
// library's generic accessor; ClientID, ServerID, IANA, IAPD, DNSServers,
// and RapidCommit go through dedicated Message-level accessors instead.
var decodeCodes = []OptionCode{
	OptIATA, OptIAAddr, OptIAPrefix, OptOptionRequest,
	OptPreference, OptElapsedTime, OptUnicast, OptStatusCode,
	OptDomainList, OptNTPServer, OptSolMaxRT,
}

// ParseMessage decodes a raw DHCPv6 packet using the insomniacslk/dhcp wire
// codec for TLV framing, then translates the result into this package's
// Message/Option representation. Callers are expected to check Xid against
// what they expect themselves; ParseMessage only validates wire-format
// well-formedness.
func ParseMessage(buf []byte) (*Message, error) {
	if len(buf) < MinMessageLen {
		return nil, dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"message too short: %d bytes, need at least %d", len(buf), MinMessageLen,
		)
	}

	lm, err := idhcpv6.FromBytes(buf)
	if err != nil {
		return nil, dhcperrors.Contextf(err, "dhcpv6: decoding wire message")
	}

	m := &Message{Type: MessageType(lm.Type()), Options: NewOptions()}
	copy(m.Xid[:], lm.TransactionID[:])

	if d := lm.Options.ClientID(); d != nil {
		if cd, err := fromLibraryDUID(d); err == nil {
			m.Options.Insert(Option{Code: OptClientID, DUID: cd})
		}
	}

	if d := lm.Options.ServerID(); d != nil {
		if sd, err := fromLibraryDUID(d); err == nil {
			m.Options.Insert(Option{Code: OptServerID, DUID: sd})
		}
	}

	for _, lo := range lm.Options.Get(idhcpv6.OptionIANA) {
		if o, ok := lo.(*idhcpv6.OptIANA); ok {
			if ia, err := ianaFromLibrary(o); err == nil {
				m.Options.Insert(Option{Code: OptIANA, IANA: &ia})
			}
		}
	}

	for _, lo := range lm.Options.Get(idhcpv6.OptionIAPD) {
		if o, ok := lo.(*idhcpv6.OptIAPD); ok {
			if ia, err := iapdFromLibrary(o); err == nil {
				m.Options.Insert(Option{Code: OptIAPD, IAPD: &ia})
			}
		}
	}

	if ips := lm.Options.DNS(); len(ips) > 0 {
		m.Options.Insert(Option{Code: OptDNSServers, IPs: ips})
	}

	if lm.GetOneOption(idhcpv6.OptionRapidCommit) != nil {
		m.Options.Insert(Option{Code: OptRapidCommit})
	}

	for _, code := range decodeCodes {
		for _, lo := range lm.Options.Get(idhcpv6.OptionCode(code)) {
			opt, err := optionFromGeneric(code, lo)
			if err != nil {
				// Skip-and-continue: one malformed option doesn't sink
				// the whole message.
				continue
			}
			m.Options.Insert(opt)
		}
	}

	return m, nil
}

// xidUint32 returns the transaction id as a uint32, for use as a map key or
// comparison value.
func xidUint32(xid [3]byte) uint32 {
	return uint32(xid[0])<<16 | uint32(xid[1])<<8 | uint32(xid[2])
}
