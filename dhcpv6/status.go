package dhcpv6

import (
	"fmt"

	idhcpv6 "github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/insomniacslk/dhcp/iana"
)

// StatusCode is the numeric status carried by an OPTION_STATUS_CODE
// sub-option (RFC 8415 §21.13).
type StatusCode uint16

// Recognized status codes.
const (
	StatusSuccess       StatusCode = 0
	StatusUnspecFail     StatusCode = 1
	StatusNoAddrsAvail   StatusCode = 2
	StatusNoBinding      StatusCode = 3
	StatusNotOnLink      StatusCode = 4
	StatusUseMulticast   StatusCode = 5
	StatusNoPrefixAvail  StatusCode = 6
)

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnspecFail:
		return "unspec_fail"
	case StatusNoAddrsAvail:
		return "no_addrs_avail"
	case StatusNoBinding:
		return "no_binding"
	case StatusNotOnLink:
		return "not_on_link"
	case StatusUseMulticast:
		return "use_multicast"
	case StatusNoPrefixAvail:
		return "no_prefix_avail"
	default:
		return fmt.Sprintf("other(%d)", uint16(s))
	}
}

// Status is the embedded status sub-option an IAAddr or IAPrefix may carry.
type Status struct {
	Code    StatusCode
	Message string
}

// IsSuccess reports whether s is absent (RFC 8415 default) or explicitly
// success.
func (s *Status) IsSuccess() bool {
	return s == nil || s.Code == StatusSuccess
}

// toLibrary returns s as a github.com/insomniacslk/dhcp/dhcpv6 status-code
// option.
func (s Status) toLibrary() *idhcpv6.OptStatusCode {
	return &idhcpv6.OptStatusCode{
		StatusCode:    iana.StatusCode(s.Code),
		StatusMessage: s.Message,
	}
}

func statusFromLibrary(o *idhcpv6.OptStatusCode) *Status {
	if o == nil {
		return nil
	}

	return &Status{Code: StatusCode(o.StatusCode), Message: o.StatusMessage}
}
