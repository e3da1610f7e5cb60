package rawsock

import "golang.org/x/net/bpf"

// dhcpClassifier is the kernel-level socket filter equivalent to
// `tcpdump -dd 'ip and udp port 67'`.  The raw instruction bytes are
// reproduced exactly from that tcpdump invocation (not recompiled at
// runtime) so the filter's behavior under a packet flood never depends on
// this process's BPF assembler; a future maintainer who needs to change the
// match expression should regenerate via
// `tcpdump -dd 'ip and udp port 67'` and diff against this table before
// replacing it (§9 "packet-socket kernel filter").
var dhcpClassifier = []bpf.RawInstruction{
	{Op: 0x28, Jt: 0, Jf: 0, K: 0x0000000c},
	{Op: 0x15, Jt: 0, Jf: 10, K: 0x00000800},
	{Op: 0x30, Jt: 0, Jf: 0, K: 0x00000017},
	{Op: 0x15, Jt: 0, Jf: 8, K: 0x00000011},
	{Op: 0x28, Jt: 0, Jf: 0, K: 0x00000014},
	{Op: 0x45, Jt: 6, Jf: 0, K: 0x00001fff},
	{Op: 0xb1, Jt: 0, Jf: 0, K: 0x0000000e},
	{Op: 0x48, Jt: 0, Jf: 0, K: 0x0000000e},
	{Op: 0x15, Jt: 2, Jf: 0, K: 0x00000043},
	{Op: 0x48, Jt: 0, Jf: 0, K: 0x00000010},
	{Op: 0x15, Jt: 0, Jf: 1, K: 0x00000043},
	{Op: 0x6, Jt: 0, Jf: 0, K: 0x00040000},
	{Op: 0x6, Jt: 0, Jf: 0, K: 0x00000000},
}

// DHCPClassifier returns a copy of the "ip and udp port 67" socket filter
// program, ready to pass to a packet connection's BPF-attach hook.
func DHCPClassifier() []bpf.RawInstruction {
	out := make([]bpf.RawInstruction, len(dhcpClassifier))
	copy(out, dhcpClassifier)

	return out
}
