// Package dhcperrors defines the error taxonomy shared by the DHCPv4 and
// DHCPv6 clients.
package dhcperrors

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
)

// Kind classifies a [Error] so that callers can branch on failure category
// without parsing messages.
type Kind int

// Kinds of errors the clients can return.  See RFC 2131/8415 behavior
// notes on each constant for when it is used.
const (
	// KindTimeout means a retransmission count ran out (the DHCPv6 Request
	// exchange exceeding its MRC); the v6 client handles it by restarting
	// from Solicit.  No overall acquisition deadline is enforced, so this
	// kind never reports one.
	KindTimeout Kind = iota

	// KindInvalidArgument means the caller-supplied configuration is
	// malformed (e.g. an empty interface name).
	KindInvalidArgument

	// KindInvalidDhcpMessage means a wire-format or lease-invariant
	// violation was found in a packet received from the network.
	KindInvalidDhcpMessage

	// KindIoError means a socket operation failed for a reason other than
	// a deadline (e.g. ENOBUFS, interface removed).
	KindIoError

	// KindNoLease means an operation that requires a committed lease
	// (renew, rebind, release) was attempted without one.
	KindNoLease

	// KindNotSupported means a configuration describes an unsupported
	// mode, e.g. stateless DHCPv6.
	KindNotSupported

	// KindBug means an invariant the implementation itself is supposed to
	// uphold was violated; it signals a programming error rather than a
	// network or configuration problem.
	KindBug

	// KindLeaseExpired means the client's committed lease ran past its
	// valid lifetime before a renewal or rebind completed.
	KindLeaseExpired
)

// String returns the human-readable name of k.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidDhcpMessage:
		return "invalid_dhcp_message"
	case KindIoError:
		return "io_error"
	case KindNoLease:
		return "no_lease"
	case KindNotSupported:
		return "not_supported"
	case KindBug:
		return "bug"
	case KindLeaseExpired:
		return "lease_expired"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this module.  It carries a
// [Kind] alongside the usual message so that callers can use [errors.Is] /
// type assertion to branch on category, while context(...) layers preserve
// the original kind as the chain grows.
type Error struct {
	kind Kind
	msg  string
	// wrapped is the underlying cause, if any.  nil for leaf errors.
	wrapped error
}

// New returns a new leaf [Error] of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf is like [New] but formats msg as with fmt.Sprintf.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.wrapped)
	}

	return e.msg
}

// Unwrap allows errors.Is/errors.As to see through the chain.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Kind returns the error's kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Context prepends msg as a new layer on top of err, preserving its [Kind]
// if err is (or wraps) an *Error.  If err is nil, Context returns nil.
//
// Typical use:
//
//	defer func() { err = dhcperrors.Context(err, "dhcpv4: sending discover") }()
func Context(err error, msg string) error {
	if err == nil {
		return nil
	}

	k := KindIoError
	var de *Error
	if errors.As(err, &de) {
		k = de.kind
	}

	return &Error{kind: k, msg: msg, wrapped: err}
}

// Contextf is like [Context] but formats msg as with fmt.Sprintf.
func Contextf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return Context(err, fmt.Sprintf(format, args...))
}

// Is reports whether err's kind equals k.  Errors from other packages never
// match.
func Is(err error, k Kind) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}

	return de.kind == k
}

// Join combines independent errors observed while tearing down more than one
// resource (e.g. closing both the raw and UDP sockets) into one error
// reported under a single action name.
func Join(action string, errs ...error) error {
	return errors.List(action, errs...)
}

// WithDeferred joins a primary error with one observed while releasing a
// resource in a defer.
func WithDeferred(err, deferErr error) error {
	return errors.WithDeferred(err, deferErr)
}
