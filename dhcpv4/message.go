package dhcpv4

import (
	"net"

	idhcpv4 "github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/iana"

	"github.com/dhcpwire/dhcpc/dhcperrors"
)

// Opcode is the DHCPv4 fixed-header op field (RFC 2131 §2).
type Opcode uint8

// Opcode values.
const (
	OpcodeBootRequest Opcode = 1
	OpcodeBootReply   Opcode = 2
)

// FixedHeaderLen is the length in bytes of the fixed header, magic cookie
// excluded (RFC 2131 §2).
const FixedHeaderLen = 236

// MinMessageLen is the minimum legal message length: the fixed header, the
// magic cookie and a 3-byte message-type option (§4.3).
const MinMessageLen = FixedHeaderLen + 4 + 3

// BroadcastFlag is the high bit of the 2-byte flags field (RFC 2131 §2).
const BroadcastFlag = 0x8000

// Message is a parsed DHCPv4 packet: the fixed header fields plus an
// options collection keyed by code.  At most one option per code is kept;
// a later Set overwrites an earlier one (§3, §9 "option collection
// polymorphism").  The wire form is produced and consumed by
// github.com/insomniacslk/dhcp/dhcpv4; Message only keeps this package's
// own option representation on top of it.
type Message struct {
	Op      Opcode
	HType   uint8
	HLen    uint8
	Hops    uint8
	Xid     uint32
	Secs    uint16
	Flags   uint16
	CIAddr  net.IP
	YIAddr  net.IP
	SIAddr  net.IP
	GIAddr  net.IP
	CHAddr  net.HardwareAddr
	SName   string
	File    string
	options map[OptionCode]Option
}

// NewMessage returns an empty Message of the given opcode and transaction
// id, with zero-value IPs and an empty options collection.
func NewMessage(op Opcode, xid uint32) *Message {
	return &Message{
		Op:     op,
		HType:  1, // Ethernet
		HLen:   6,
		Xid:    xid,
		CIAddr: net.IPv4zero,
		YIAddr: net.IPv4zero,
		SIAddr: net.IPv4zero,
		GIAddr: net.IPv4zero,

		options: make(map[OptionCode]Option),
	}
}

// SetOption inserts or overwrites the option for its code.
func (m *Message) SetOption(o Option) {
	if m.options == nil {
		m.options = make(map[OptionCode]Option)
	}
	m.options[o.Code] = o
}

// Option returns the option for code, if present.
func (m *Message) Option(code OptionCode) (Option, bool) {
	o, ok := m.options[code]
	return o, ok
}

// IsBroadcast reports whether the broadcast flag bit is set.
func (m *Message) IsBroadcast() bool {
	return m.Flags&BroadcastFlag != 0
}

// SetBroadcast sets the broadcast flag bit.
func (m *Message) SetBroadcast() {
	m.Flags |= BroadcastFlag
}

// MessageType returns the value of the MessageType option, or 0 if absent.
func (m *Message) MessageType() MessageType {
	o, ok := m.options[OptMessageType]
	if !ok {
		return 0
	}

	return o.MsgType
}

// sortedCodes returns the message's option codes in ascending order.  The
// underlying codec sorts options on the wire itself; this is only used to
// apply them to the library packet in a deterministic order.
func (m *Message) sortedCodes() []OptionCode {
	codes := make([]OptionCode, 0, len(m.options))
	for c := range m.options {
		codes = append(codes, c)
	}
	sortCodes(codes)

	return codes
}

func xidToTransactionID(xid uint32) idhcpv4.TransactionID {
	return idhcpv4.TransactionID{byte(xid >> 24), byte(xid >> 16), byte(xid >> 8), byte(xid)}
}

func transactionIDToXid(t idhcpv4.TransactionID) uint32 {
	return uint32(t[0])<<24 | uint32(t[1])<<16 | uint32(t[2])<<8 | uint32(t[3])
}

// toLibrary builds the github.com/insomniacslk/dhcp/dhcpv4 packet this
// message's fixed header and options translate to.
func (m *Message) toLibrary() (*idhcpv4.DHCPv4, error) {
	pkt, err := idhcpv4.New()
	if err != nil {
		return nil, dhcperrors.Contextf(err, "dhcpv4: building wire packet")
	}

	pkt.OpCode = idhcpv4.OpcodeType(m.Op)
	pkt.HWType = iana.HWType(m.HType)
	pkt.TransactionID = xidToTransactionID(m.Xid)
	pkt.NumSeconds = m.Secs
	pkt.Flags = m.Flags
	pkt.ClientIPAddr = nonNilIPv4(m.CIAddr)
	pkt.YourIPAddr = nonNilIPv4(m.YIAddr)
	pkt.ServerIPAddr = nonNilIPv4(m.SIAddr)
	pkt.GatewayIPAddr = nonNilIPv4(m.GIAddr)
	pkt.ClientHWAddr = m.CHAddr
	pkt.ServerHostName = m.SName
	pkt.BootFileName = m.File

	for _, code := range m.sortedCodes() {
		pkt.Options.Update(m.options[code].toLibrary())
	}

	return pkt, nil
}

// ToBytes serializes the message through the insomniacslk/dhcp wire codec:
// fixed header, magic cookie, options sorted ascending by code, terminated
// by the End option (RFC 2131 §2, §3).
func (m *Message) ToBytes() []byte {
	pkt, err := m.toLibrary()
	if err != nil {
		// idhcpv4.New's only failure mode is generating its own random
		// transaction id (which toLibrary then overwrites with m's); that
		// fails only if the system random source does.
		panic(err)
	}

	return pkt.ToBytes()
}

func nonNilIPv4(ip net.IP) net.IP {
	if ip == nil {
		return net.IPv4zero
	}

	return ip
}

// ParseMessage decodes a raw DHCPv4 packet using the insomniacslk/dhcp wire
// codec for TLV framing, then translates the result into this package's
// Message/Option representation.  Callers responsible for the network
// receive loop are expected to check Xid and MessageType against what they
// expect themselves (§4.4 "reply acceptance"); ParseMessage only validates
// wire-format well-formedness.
func ParseMessage(buf []byte) (*Message, error) {
	if len(buf) < MinMessageLen {
		return nil, dhcperrors.Newf(
			dhcperrors.KindInvalidDhcpMessage,
			"message too short: %d bytes, need at least %d", len(buf), MinMessageLen,
		)
	}

	pkt, err := idhcpv4.FromBytes(buf)
	if err != nil {
		return nil, dhcperrors.Contextf(err, "dhcpv4: decoding wire packet")
	}

	m := &Message{
		Op:     Opcode(pkt.OpCode),
		HType:  uint8(pkt.HWType),
		Hops:   pkt.HopCount,
		Xid:    transactionIDToXid(pkt.TransactionID),
		Secs:   pkt.NumSeconds,
		Flags:  pkt.Flags,
		CIAddr: pkt.ClientIPAddr,
		YIAddr: pkt.YourIPAddr,
		SIAddr: pkt.ServerIPAddr,
		GIAddr: pkt.GatewayIPAddr,
		CHAddr: pkt.ClientHWAddr,
		SName:  pkt.ServerHostName,
		File:   pkt.BootFileName,

		options: make(map[OptionCode]Option),
	}
	m.HLen = uint8(len(pkt.ClientHWAddr))

	for code := range pkt.Options {
		opt, perr := parseOption(pkt, OptionCode(code))
		if perr != nil {
			// Skip-and-continue: the library already framed this option's
			// bytes correctly; only this option's semantic decode failed
			// (§8 scenario 6: "duplicate option parse").
			continue
		}

		m.SetOption(opt)
	}

	return m, nil
}
