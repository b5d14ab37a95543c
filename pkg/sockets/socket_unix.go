//go:build unix

package sockets

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

var errAddrInUse error = unix.EADDRINUSE

// NewUDPSocket creates an unbound UDP socket handle.
func NewUDPSocket(ipv6 bool) (uintptr, error) {
	family := unix.AF_INET
	if ipv6 {
		family = unix.AF_INET6
	}
	fd, err := unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return 0, fmt.Errorf("creating UDP socket: %w", err)
	}
	unix.CloseOnExec(fd)
	return uintptr(fd), nil
}

// Close releases a socket handle.
func Close(fd uintptr) error {
	return unix.Close(int(fd))
}

func sysBind(fd uintptr, addr netip.Addr, port uint16, allowReuse bool) (netip.AddrPort, error) {
	if allowReuse {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return netip.AddrPort{}, fmt.Errorf("setting SO_REUSEADDR: %w", err)
		}
	}

	var sa unix.Sockaddr
	if addr.Is4() {
		sa = &unix.SockaddrInet4{Port: int(port), Addr: addr.As4()}
	} else {
		sa = &unix.SockaddrInet6{Port: int(port), Addr: addr.As16()}
	}
	if err := unix.Bind(int(fd), sa); err != nil {
		return netip.AddrPort{}, fmt.Errorf("binding %s port %d: %w", addr, port, err)
	}
	return localAddr(fd)
}

// localAddr reports the address the socket ended up bound to, which is how an
// automatically selected port becomes known.
func localAddr(fd uintptr) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(int(fd))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port)), nil
	default:
		return netip.AddrPort{}, fmt.Errorf("unexpected sockaddr type %T", sa)
	}
}

func isAddrInUse(err error) bool {
	return errors.Is(err, errAddrInUse)
}
