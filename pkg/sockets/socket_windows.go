//go:build windows

package sockets

import (
	"errors"
	"fmt"
	"net/netip"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

var errAddrInUse error = windows.WSAEADDRINUSE

var wsaStartupOnce sync.Once

// initNetworking performs the one-time winsock 2.2 startup required before
// any raw socket call. The matching WSACleanup is left to process exit.
func initNetworking() {
	wsaStartupOnce.Do(func() {
		var data windows.WSAData
		if err := windows.WSAStartup(uint32(0x202), &data); err != nil {
			log.WithError(err).Error("WSAStartup failed")
		}
	})
}

// NewUDPSocket creates an unbound UDP socket handle.
func NewUDPSocket(ipv6 bool) (uintptr, error) {
	initNetworking()
	family := int32(windows.AF_INET)
	if ipv6 {
		family = windows.AF_INET6
	}
	h, err := windows.WSASocket(family, windows.SOCK_DGRAM, windows.IPPROTO_UDP,
		nil, 0, windows.WSA_FLAG_OVERLAPPED|windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		return 0, fmt.Errorf("creating UDP socket: %w", err)
	}
	return uintptr(h), nil
}

// Close releases a socket handle.
func Close(fd uintptr) error {
	return windows.Closesocket(windows.Handle(fd))
}

func sysBind(fd uintptr, addr netip.Addr, port uint16, allowReuse bool) (netip.AddrPort, error) {
	if allowReuse {
		if err := windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
			return netip.AddrPort{}, fmt.Errorf("setting SO_REUSEADDR: %w", err)
		}
	}

	var sa windows.Sockaddr
	if addr.Is4() {
		sa = &windows.SockaddrInet4{Port: int(port), Addr: addr.As4()}
	} else {
		sa = &windows.SockaddrInet6{Port: int(port), Addr: addr.As16()}
	}
	if err := windows.Bind(windows.Handle(fd), sa); err != nil {
		return netip.AddrPort{}, fmt.Errorf("binding %s port %d: %w", addr, port, err)
	}
	return localAddr(fd)
}

// localAddr reports the address the socket ended up bound to, which is how an
// automatically selected port becomes known.
func localAddr(fd uintptr) (netip.AddrPort, error) {
	sa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("getsockname: %w", err)
	}
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *windows.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(sa.Addr), uint16(sa.Port)), nil
	default:
		return netip.AddrPort{}, fmt.Errorf("unexpected sockaddr type %T", sa)
	}
}

func isAddrInUse(err error) bool {
	return errors.Is(err, errAddrInUse)
}
