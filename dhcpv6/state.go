package dhcpv6

import "fmt"

// State is the client's position in the RFC 8415 statefull-client state
// machine.
type State int

const (
	// StateSolicit sends a multicast Solicit and waits for an Advertise.
	// Rapid commit is not used, so a Reply is never accepted here.
	StateSolicit State = iota

	// StateRequest sends a Request acknowledging a chosen server and waits
	// for a Reply.
	StateRequest

	// StateDone holds a committed lease, waiting for T1.
	StateDone

	// StateRenewing sends a multicast Renew naming the original server after
	// T1 elapses.
	StateRenewing

	// StateRebinding sends a multicast Rebind after T2 elapses.
	StateRebinding
)

// String renders the state the way log lines report it.
func (s State) String() string {
	switch s {
	case StateSolicit:
		return "solicit"
	case StateRequest:
		return "request"
	case StateDone:
		return "done"
	case StateRenewing:
		return "renewing"
	case StateRebinding:
		return "rebinding"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
