// Package interfaces discovers the local network interfaces usable for GigE
// Vision device control and streaming. Each enumeration is a fresh snapshot;
// descriptors are owned by the caller and never shared or cached.
package interfaces

import (
	"net"
	"net/netip"
)

// FakeLoopbackName identifies the synthetic loopback descriptor returned by
// FakeLoopback. Simulated devices match on this exact string.
const FakeLoopbackName = "<fake IPv4 localhost>"

// Interface is a snapshot of one local network interface address. Addr,
// Netmask and Broadcast always belong to the same family, IPv4 or IPv6.
type Interface struct {
	Name      string
	Addr      netip.Addr
	Netmask   netip.Addr
	Broadcast netip.Addr
}

// IsLoopback reports whether the interface address refers to the local host,
// i.e. is within 127.0.0.0/8 or equals ::1.
func (i *Interface) IsLoopback() bool {
	if i == nil || !i.Addr.IsValid() {
		return false
	}
	if i.Addr.Is4() {
		return i.Addr.As4()[0] == 0x7f
	}
	b := i.Addr.As16()
	for pos := 0; pos < 15; pos++ {
		if b[pos] != 0 {
			return false
		}
	}
	return b[15] == 1
}

// SameAddress reports whether a and b are the same host address, comparing
// family and address bytes only. IPv4-mapped IPv6 addresses compare equal to
// their IPv4 form.
func SameAddress(a, b netip.Addr) bool {
	return a.Unmap() == b.Unmap()
}

// ByName returns the interface whose name matches exactly, or nil if no such
// interface is currently up.
func ByName(name string) *Interface {
	for _, iface := range Enumerate() {
		if iface.Name == name {
			return iface
		}
	}
	return nil
}

// ByAddress returns the interface carrying the given literal address, or nil.
// Symbolic names are rejected; addr must parse as an IP literal.
func ByAddress(addr string) *Interface {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return nil
	}
	for _, iface := range Enumerate() {
		if SameAddress(iface.Addr, ip) {
			return iface
		}
	}
	return nil
}

// FakeLoopback synthesizes a loopback interface descriptor declaring itself
// broadcast-capable. It lets a simulated device on 127.0.0.1 be discovered as
// if it were reachable over a physical interface.
func FakeLoopback() *Interface {
	return &Interface{
		Name:      FakeLoopbackName,
		Addr:      netip.AddrFrom4([4]byte{127, 0, 0, 1}),
		Netmask:   netip.AddrFrom4([4]byte{255, 0, 0, 0}),
		Broadcast: netip.AddrFrom4([4]byte{127, 255, 255, 255}),
	}
}

// broadcastFor derives the IPv4 directed broadcast address addr|^mask.
// Interfaces without broadcast capability fall back to their own address,
// keeping loopback-only setups usable as discovery targets.
func broadcastFor(addr, mask netip.Addr) netip.Addr {
	if !addr.Is4() || !mask.Is4() {
		return addr
	}
	a := addr.As4()
	m := mask.As4()
	for i := range a {
		a[i] |= ^m[i]
	}
	return netip.AddrFrom4(a)
}

// maskAddr converts a prefix length to an address-form netmask of the same
// family as addr.
func maskAddr(addr netip.Addr, bits int) netip.Addr {
	size := 4
	if addr.Is6() {
		size = 16
	}
	b := make([]byte, size)
	for i := 0; i < size && bits > 0; i++ {
		if bits >= 8 {
			b[i] = 0xff
			bits -= 8
			continue
		}
		b[i] = byte(0xff << (8 - bits))
		bits = 0
	}
	m, _ := netip.AddrFromSlice(b)
	return m
}

// toAddr converts a net.IP to a family-tagged netip.Addr, collapsing
// IPv4-in-IPv6 forms to plain IPv4.
func toAddr(ip net.IP) (netip.Addr, bool) {
	if ip4 := ip.To4(); ip4 != nil {
		return netip.AddrFromSlice(ip4)
	}
	return netip.AddrFromSlice(ip)
}
