package dhcpv6

import (
	"crypto/rand"
	"net"
	"time"

	"github.com/google/uuid"
	idhcpv6 "github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/insomniacslk/dhcp/iana"

	"github.com/dhcpwire/dhcpc/dhcperrors"
	"github.com/dhcpwire/dhcpc/internal/wire"
)

// DUID type codes (RFC 8415 §11).
const (
	duidTypeLLT  uint16 = 1
	duidTypeEN   uint16 = 2
	duidTypeLL   uint16 = 3
	duidTypeUUID uint16 = 4
)

// duidBaseTime is midnight UTC, January 1 2000 expressed as a Unix epoch
// offset: the base instant DUID-LLT timestamps are relative to (RFC 8415
// §11.2).
const duidBaseTime = 946684800

// DUIDKind identifies which of DUID's fields are meaningful.
type DUIDKind int

// Recognized DUID structural variants, plus Raw for anything this client
// does not need to interpret further.
const (
	DUIDRaw DUIDKind = iota
	DUIDLinkLayerAddrPlusTime
	DUIDEnterpriseNumber
	DUIDLinkLayerAddr
	DUIDUUID
)

// DUID is a tagged union over the DUID shapes RFC 8415 §11 defines.  Parsing
// always retains the raw bytes so that re-emission is byte-identical even
// when subtype-specific decoding fails or the type code is unrecognized:
// per §11, a DUID is compared opaquely and must never be rejected for not
// matching a known shape.
type DUID struct {
	Kind DUIDKind
	Raw  []byte // set on every DUID ParseDUID returns; authoritative for Kind == DUIDRaw

	HardwareType     uint16 // LLT, LL
	Time             uint32 // LLT: seconds since duidBaseTime, mod 2^32
	LinkLayerAddress []byte // LLT, LL
	EnterpriseNumber uint32 // EN
	Identifier       []byte // EN
	UUID             [16]byte
}

// NewDUIDLLT builds a DUID-LLT for the given hardware type and link-layer
// address, stamped with the current time.
func NewDUIDLLT(hardwareType uint16, linkLayerAddress []byte) DUID {
	t := uint32(time.Now().Unix() - duidBaseTime)

	return DUID{
		Kind:             DUIDLinkLayerAddrPlusTime,
		HardwareType:     hardwareType,
		Time:             t,
		LinkLayerAddress: append([]byte(nil), linkLayerAddress...),
	}
}

// NewDUIDLL builds a DUID-LL for the given hardware type and link-layer
// address.
func NewDUIDLL(hardwareType uint16, linkLayerAddress []byte) DUID {
	return DUID{
		Kind:             DUIDLinkLayerAddr,
		HardwareType:     hardwareType,
		LinkLayerAddress: append([]byte(nil), linkLayerAddress...),
	}
}

// NewDUIDEN builds a DUID-EN for the given enterprise number and identifier.
func NewDUIDEN(enterpriseNumber uint32, identifier []byte) DUID {
	return DUID{
		Kind:             DUIDEnterpriseNumber,
		EnterpriseNumber: enterpriseNumber,
		Identifier:       append([]byte(nil), identifier...),
	}
}

// RandomDUID returns a 16-byte opaque DUID, matching the client's fallback
// identity when no other DUID is configured.  The first two bytes are fixed
// (0x00, 0xff) so the result can never collide with a real DUID type code in
// the first two bytes' high-order interpretation.
func RandomDUID() DUID {
	raw := make([]byte, 16)
	_, _ = rand.Read(raw)
	raw[0] = 0
	raw[1] = 255

	return DUID{Kind: DUIDRaw, Raw: raw}
}

// IsEmpty reports whether d carries no identifying bytes.
func (d DUID) IsEmpty() bool {
	return d.Kind == DUIDRaw && len(d.Raw) == 0
}

// ParseDUID decodes len bytes of body as a DUID.  A type code of LLT/EN/LL/
// UUID whose body doesn't match that shape falls back to Raw rather than
// failing the parse, per RFC 8415 §11's opacity requirement; an unrecognized
// type code is Raw unconditionally.
func ParseDUID(body []byte) (DUID, error) {
	raw := append([]byte(nil), body...)

	r := wire.NewReader(body)
	typ, err := r.PeekU16BE()
	if err != nil {
		return DUID{}, dhcperrors.Contextf(err, "dhcpv6: duid: reading type code")
	}

	switch typ {
	case duidTypeLLT:
		if d, ok := parseDUIDLLT(body); ok {
			d.Raw = raw
			return d, nil
		}
	case duidTypeEN:
		if d, ok := parseDUIDEN(body); ok {
			d.Raw = raw
			return d, nil
		}
	case duidTypeLL:
		if d, ok := parseDUIDLL(body); ok {
			d.Raw = raw
			return d, nil
		}
	case duidTypeUUID:
		if d, ok := parseDUIDUUID(body); ok {
			d.Raw = raw
			return d, nil
		}
	}

	return DUID{Kind: DUIDRaw, Raw: raw}, nil
}

func parseDUIDLLT(body []byte) (DUID, bool) {
	r := wire.NewReader(body)

	typ, err := r.GetU16BE()
	if err != nil || typ != duidTypeLLT {
		return DUID{}, false
	}

	htype, err := r.GetU16BE()
	if err != nil {
		return DUID{}, false
	}

	t, err := r.GetU32BE()
	if err != nil {
		return DUID{}, false
	}

	return DUID{
		Kind:             DUIDLinkLayerAddrPlusTime,
		HardwareType:     htype,
		Time:             t,
		LinkLayerAddress: append([]byte(nil), r.GetRemains()...),
	}, true
}

func parseDUIDEN(body []byte) (DUID, bool) {
	r := wire.NewReader(body)

	typ, err := r.GetU16BE()
	if err != nil || typ != duidTypeEN {
		return DUID{}, false
	}

	num, err := r.GetU32BE()
	if err != nil {
		return DUID{}, false
	}

	return DUID{
		Kind:             DUIDEnterpriseNumber,
		EnterpriseNumber: num,
		Identifier:       append([]byte(nil), r.GetRemains()...),
	}, true
}

func parseDUIDLL(body []byte) (DUID, bool) {
	r := wire.NewReader(body)

	typ, err := r.GetU16BE()
	if err != nil || typ != duidTypeLL {
		return DUID{}, false
	}

	htype, err := r.GetU16BE()
	if err != nil {
		return DUID{}, false
	}

	return DUID{
		Kind:             DUIDLinkLayerAddr,
		HardwareType:     htype,
		LinkLayerAddress: append([]byte(nil), r.GetRemains()...),
	}, true
}

func parseDUIDUUID(body []byte) (DUID, bool) {
	if len(body) != 18 {
		return DUID{}, false
	}

	r := wire.NewReader(body)

	typ, err := r.GetU16BE()
	if err != nil || typ != duidTypeUUID {
		return DUID{}, false
	}

	v, err := r.GetU128BE()
	if err != nil {
		return DUID{}, false
	}

	// Validated through google/uuid rather than trusted as raw bytes: a
	// malformed 16-byte value still fails FromBytes on length, which
	// r.GetU128BE already guarantees, but this keeps the parse on the
	// same footing as every other UUID this module touches.
	if _, err := uuid.FromBytes(v[:]); err != nil {
		return DUID{}, false
	}

	return DUID{Kind: DUIDUUID, UUID: v}, true
}

// toLibrary returns d as a github.com/insomniacslk/dhcp/dhcpv6 DUID, for the
// two kinds it exposes a typed constructor for. It returns nil for
// DUID-EN, DUID-UUID, and the client's random opaque fallback: the library
// carries no confirmed typed shape for those, so callers building a
// ClientID/ServerID option fall back to d.Bytes() wrapped generically.
func (d DUID) toLibrary() idhcpv6.DUID {
	switch d.Kind {
	case DUIDLinkLayerAddrPlusTime:
		return &idhcpv6.DUIDLLT{
			HWType:        iana.HWType(d.HardwareType),
			Time:          time.Unix(duidBaseTime+int64(d.Time), 0).UTC(),
			LinkLayerAddr: net.HardwareAddr(d.LinkLayerAddress),
		}

	case DUIDLinkLayerAddr:
		return &idhcpv6.DUIDLL{
			HWType:        iana.HWType(d.HardwareType),
			LinkLayerAddr: net.HardwareAddr(d.LinkLayerAddress),
		}

	default:
		return nil
	}
}

// fromLibraryDUID re-decodes a library DUID's wire bytes through ParseDUID,
// so every DUID this client observes - whichever of the library's internal
// shapes produced it - ends up in this package's own opaque representation.
func fromLibraryDUID(d idhcpv6.DUID) (DUID, error) {
	if d == nil {
		return DUID{}, nil
	}

	return ParseDUID(d.ToBytes())
}

// Bytes returns d's exact wire form, for opaque comparison (RFC 8415 §11:
// DUIDs are compared as opaque byte strings, never by structural equality).
func (d DUID) Bytes() []byte {
	w := wire.NewWriter()
	d.Emit(w)
	return w.Bytes()
}

// Emit writes d's wire form to w.
func (d DUID) Emit(w *wire.Writer) {
	switch d.Kind {
	case DUIDLinkLayerAddrPlusTime:
		w.WriteU16BE(duidTypeLLT)
		w.WriteU16BE(d.HardwareType)
		w.WriteU32BE(d.Time)
		w.WriteBytes(d.LinkLayerAddress)

	case DUIDEnterpriseNumber:
		w.WriteU16BE(duidTypeEN)
		w.WriteU32BE(d.EnterpriseNumber)
		w.WriteBytes(d.Identifier)

	case DUIDLinkLayerAddr:
		w.WriteU16BE(duidTypeLL)
		w.WriteU16BE(d.HardwareType)
		w.WriteBytes(d.LinkLayerAddress)

	case DUIDUUID:
		w.WriteU16BE(duidTypeUUID)
		w.WriteU128BE(d.UUID)

	default:
		w.WriteBytes(d.Raw)
	}
}
